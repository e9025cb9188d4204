package controller

import (
	"net/http"
	"strconv"

	"github.com/dungji/dungji-market-backend/internal/app/model"
	"github.com/dungji/dungji-market-backend/internal/app/repository"
	"github.com/dungji/dungji-market-backend/internal/app/service"
	"github.com/gin-gonic/gin"
)

type AdminController struct {
	adminService service.AdminService
}

func NewAdminController(adminService service.AdminService) *AdminController {
	return &AdminController{adminService: adminService}
}

type SetUserActiveRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

type ChangeRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=buyer seller"`
}

// ListUsers GET /api/v1/admin/users?role=&business_verified=&q=
func (ctrl *AdminController) ListUsers(c *gin.Context) {
	page, pageSize := pageParams(c)

	filter := repository.UserFilter{
		Role:     model.UserRole(c.Query("role")),
		Query:    c.Query("q"),
		Page:     page,
		PageSize: pageSize,
	}
	if raw := c.Query("business_verified"); raw != "" {
		if v, err := strconv.ParseBool(raw); err == nil {
			filter.IsBusinessVerified = &v
		}
	}

	users, total, err := ctrl.adminService.ListUsers(filter)
	if err != nil {
		respondServiceError(c, err, "admin list users")
		return
	}
	c.JSON(http.StatusOK, paged(users, total, page, pageSize))
}

// GetUser GET /api/v1/admin/users/:id
func (ctrl *AdminController) GetUser(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	user, err := ctrl.adminService.GetUser(id)
	if err != nil {
		respondServiceError(c, err, "admin get user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// SetActive 계정 활성/비활성
// PATCH /api/v1/admin/users/:id/active
func (ctrl *AdminController) SetActive(c *gin.Context) {
	adminID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req SetUserActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "")
		return
	}

	user, err := ctrl.adminService.SetActive(adminID, id, *req.IsActive)
	if err != nil {
		respondServiceError(c, err, "admin set user active")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// ChangeRole PATCH /api/v1/admin/users/:id/role
func (ctrl *AdminController) ChangeRole(c *gin.Context) {
	adminID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req ChangeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "buyer 또는 seller를 선택해주세요")
		return
	}

	user, err := ctrl.adminService.ChangeRole(adminID, id, model.UserRole(req.Role))
	if err != nil {
		respondServiceError(c, err, "admin change role")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}
