package controller

import (
	"net/http"

	"github.com/dungji/dungji-market-backend/internal/app/service"
	"github.com/dungji/dungji-market-backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

type SellerController struct {
	sellerService service.SellerService
}

func NewSellerController(sellerService service.SellerService) *SellerController {
	return &SellerController{
		sellerService: sellerService,
	}
}

// GetDashboard returns listing/trade statistics for the authenticated user
// GET /api/v1/users/me/dashboard
func (ctrl *SellerController) GetDashboard(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := requireUserID(c)
	if !ok {
		log.Warn("Unauthorized access to dashboard endpoint", nil)
		return
	}

	stats, err := ctrl.sellerService.GetDashboard(userID)
	if err != nil {
		respondServiceError(c, err, "seller dashboard")
		return
	}

	log.Info("Dashboard fetched", map[string]interface{}{
		"user_id": userID,
	})

	c.JSON(http.StatusOK, gin.H{
		"dashboard": stats,
	})
}

// GetProfile returns the public profile of a member
// GET /api/v1/users/:id/profile
func (ctrl *SellerController) GetProfile(c *gin.Context) {
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	profile, err := ctrl.sellerService.GetProfile(userID)
	if err != nil {
		respondServiceError(c, err, "seller profile")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"profile": profile,
	})
}
