package controller

import (
	"net/http"

	"github.com/dungji/dungji-market-backend/internal/app/model"
	"github.com/dungji/dungji-market-backend/internal/app/service"
	"github.com/gin-gonic/gin"
)

// NotificationController 알림 컨트롤러
type NotificationController struct {
	service service.NotificationService
}

// NewNotificationController 알림 컨트롤러 생성자
func NewNotificationController(service service.NotificationService) *NotificationController {
	return &NotificationController{
		service: service,
	}
}

// GetNotifications godoc
// @Summary 알림 목록 조회
// @Description 사용자의 알림 목록을 조회합니다
// @Tags notifications
// @Accept json
// @Produce json
// @Param page query int false "페이지 번호" default(1)
// @Param page_size query int false "페이지 크기" default(20)
// @Param type query string false "알림 타입 (offer_received, offer_accepted, trade_completed, groupbuy_status, ...)"
// @Param is_read query bool false "읽음 상태"
// @Success 200 {object} gin.H{data=[]model.Notification,total=int,page=int,page_size=int,unread_count=int}
// @Failure 401 {object} gin.H
// @Security BearerAuth
// @Router /api/v1/notifications [get]
func (c *NotificationController) GetNotifications(ctx *gin.Context) {
	userID, ok := requireUserID(ctx)
	if !ok {
		return
	}

	page, pageSize := pageParams(ctx)

	var notifType *model.NotificationType
	if typeStr := ctx.Query("type"); typeStr != "" {
		t := model.NotificationType(typeStr)
		notifType = &t
	}

	var isRead *bool
	switch ctx.Query("is_read") {
	case "true":
		t := true
		isRead = &t
	case "false":
		f := false
		isRead = &f
	}

	notifications, total, unreadCount, err := c.service.GetNotifications(userID, notifType, isRead, page, pageSize)
	if err != nil {
		respondServiceError(ctx, err, "list notifications")
		return
	}

	response := paged(notifications, total, page, pageSize)
	response["unread_count"] = unreadCount
	ctx.JSON(http.StatusOK, response)
}

// GetUnreadCount godoc
// @Summary 안읽은 알림 개수 조회
// @Tags notifications
// @Produce json
// @Success 200 {object} gin.H{unread_count=int}
// @Security BearerAuth
// @Router /api/v1/notifications/unread-count [get]
func (c *NotificationController) GetUnreadCount(ctx *gin.Context) {
	userID, ok := requireUserID(ctx)
	if !ok {
		return
	}

	count, err := c.service.GetUnreadCount(userID)
	if err != nil {
		respondServiceError(ctx, err, "unread notification count")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"unread_count": count,
	})
}

// MarkAsRead godoc
// @Summary 알림 읽음 처리
// @Tags notifications
// @Produce json
// @Param id path int true "알림 ID"
// @Success 200 {object} gin.H{notification=model.Notification}
// @Failure 403 {object} gin.H
// @Failure 404 {object} gin.H
// @Security BearerAuth
// @Router /api/v1/notifications/{id}/read [patch]
func (c *NotificationController) MarkAsRead(ctx *gin.Context) {
	userID, ok := requireUserID(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	notification, err := c.service.MarkAsRead(id, userID)
	if err != nil {
		respondServiceError(ctx, err, "mark notification read")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"notification": notification,
	})
}

// MarkAllAsRead godoc
// @Summary 모든 알림 읽음 처리
// @Tags notifications
// @Success 200 {object} gin.H{message=string}
// @Security BearerAuth
// @Router /api/v1/notifications/read-all [patch]
func (c *NotificationController) MarkAllAsRead(ctx *gin.Context) {
	userID, ok := requireUserID(ctx)
	if !ok {
		return
	}

	if err := c.service.MarkAllAsRead(userID); err != nil {
		respondServiceError(ctx, err, "mark all notifications read")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "모든 알림을 읽음 처리했습니다",
	})
}

// DeleteNotification godoc
// @Summary 알림 삭제
// @Tags notifications
// @Param id path int true "알림 ID"
// @Success 200 {object} gin.H{message=string}
// @Failure 403 {object} gin.H
// @Failure 404 {object} gin.H
// @Security BearerAuth
// @Router /api/v1/notifications/{id} [delete]
func (c *NotificationController) DeleteNotification(ctx *gin.Context) {
	userID, ok := requireUserID(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	if err := c.service.DeleteNotification(id, userID); err != nil {
		respondServiceError(ctx, err, "delete notification")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "알림이 삭제되었습니다",
	})
}
