package controller

import (
	"net/http"
	"strconv"

	"github.com/dungji/dungji-market-backend/internal/app/model"
	"github.com/dungji/dungji-market-backend/internal/app/service"
	apperrors "github.com/dungji/dungji-market-backend/internal/errors"
	"github.com/dungji/dungji-market-backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

type BidTokenController struct {
	tokenService service.BidTokenService
}

func NewBidTokenController(tokenService service.BidTokenService) *BidTokenController {
	return &BidTokenController{tokenService: tokenService}
}

type AdjustTokensRequest struct {
	Type     string `json:"adjustment_type" binding:"required"`
	Quantity int    `json:"quantity"`
	Reason   string `json:"reason" binding:"required"`
}

type BulkAdjustTokensRequest struct {
	Filter   string `json:"filter" binding:"required"`
	Type     string `json:"adjustment_type" binding:"required"`
	Quantity int    `json:"quantity"`
	Reason   string `json:"reason" binding:"required"`
}

// MyTokens 판매회원 견적 이용권 현황
// GET /api/v1/bid-tokens/me
func (ctrl *BidTokenController) MyTokens(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	summary, err := ctrl.tokenService.Summary(userID)
	if err != nil {
		respondServiceError(c, err, "token summary")
		return
	}
	c.JSON(http.StatusOK, summary)
}

// SearchSellers GET /api/v1/admin/bid-tokens/sellers?q=
func (ctrl *BidTokenController) SearchSellers(c *gin.Context) {
	sellers, err := ctrl.tokenService.SearchSellers(c.Query("q"))
	if err != nil {
		respondServiceError(c, err, "search sellers")
		return
	}
	c.JSON(http.StatusOK, gin.H{"sellers": sellers})
}

// SellerTokens GET /api/v1/admin/bid-tokens/sellers/:id
func (ctrl *BidTokenController) SellerTokens(c *gin.Context) {
	sellerID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	summary, err := ctrl.tokenService.Summary(sellerID)
	if err != nil {
		respondServiceError(c, err, "seller token summary")
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Adjust 개별 판매자 이용권 조정 (add | subtract | set | grant_subscription)
// POST /api/v1/admin/bid-tokens/sellers/:id/adjust
func (ctrl *BidTokenController) Adjust(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	adminID, ok := requireUserID(c)
	if !ok {
		return
	}
	sellerID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req AdjustTokensRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "조정 유형과 사유를 입력해주세요")
		return
	}

	result, err := ctrl.tokenService.Adjust(service.AdjustInput{
		SellerID: sellerID,
		AdminID:  adminID,
		Type:     model.TokenAdjustmentType(req.Type),
		Quantity: req.Quantity,
		Reason:   req.Reason,
	})
	if err != nil {
		respondServiceError(c, err, "adjust tokens")
		return
	}

	log.Info("Bid tokens adjusted", map[string]interface{}{
		"admin_id":  adminID,
		"seller_id": sellerID,
		"type":      req.Type,
		"quantity":  req.Quantity,
	})
	c.JSON(http.StatusOK, result)
}

// BulkAdjust POST /api/v1/admin/bid-tokens/bulk-adjust
func (ctrl *BidTokenController) BulkAdjust(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	adminID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req BulkAdjustTokensRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "대상, 조정 유형, 사유를 입력해주세요")
		return
	}

	affected, err := ctrl.tokenService.BulkAdjust(service.BulkAdjustInput{
		Filter:   service.BulkFilter(req.Filter),
		AdminID:  adminID,
		Type:     model.TokenAdjustmentType(req.Type),
		Quantity: req.Quantity,
		Reason:   req.Reason,
	})
	if err != nil {
		respondServiceError(c, err, "bulk adjust tokens")
		return
	}

	log.Info("Bulk token adjustment applied", map[string]interface{}{
		"admin_id": adminID,
		"filter":   req.Filter,
		"affected": affected,
	})
	c.JSON(http.StatusOK, gin.H{
		"message":        strconv.Itoa(affected) + "명의 판매자에게 적용되었습니다",
		"affected_count": affected,
	})
}

// AdjustmentLogs GET /api/v1/admin/bid-tokens/logs?seller_id=
func (ctrl *BidTokenController) AdjustmentLogs(c *gin.Context) {
	page, pageSize := pageParams(c)

	var sellerID *uint
	if raw := c.Query("seller_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			apperrors.BadRequest(c, apperrors.ValidationInvalidID, "잘못된 판매자 ID입니다")
			return
		}
		sid := uint(id)
		sellerID = &sid
	}

	logs, total, err := ctrl.tokenService.AdjustmentLogs(sellerID, page, pageSize)
	if err != nil {
		respondServiceError(c, err, "token adjustment logs")
		return
	}
	c.JSON(http.StatusOK, paged(logs, total, page, pageSize))
}
