package controller

import (
	"net/http"
	"strings"

	"github.com/dungji/dungji-market-backend/internal/app/model"
	"github.com/dungji/dungji-market-backend/internal/app/repository"
	"github.com/dungji/dungji-market-backend/internal/app/service"
	"github.com/gin-gonic/gin"
)

// ContentController 공지/팝업/배너/이벤트. 조회는 공개, 등록/수정/삭제는 관리자.
type ContentController struct {
	contentService service.ContentService
}

func NewContentController(contentService service.ContentService) *ContentController {
	return &ContentController{contentService: contentService}
}

// isMobileRequest ?mobile=true 우선, 없으면 User-Agent
func isMobileRequest(c *gin.Context) bool {
	if v := c.Query("mobile"); v != "" {
		return v == "true" || v == "1"
	}
	return strings.Contains(c.GetHeader("User-Agent"), "Mobi")
}

// ---- 공지사항 ----

// ListNotices GET /api/v1/notices?category=
func (ctrl *ContentController) ListNotices(c *gin.Context) {
	page, pageSize := pageParams(c)

	notices, total, err := ctrl.contentService.Notices(repository.NoticeFilter{
		Category:      c.Query("category"),
		PublishedOnly: true,
		Page:          page,
		PageSize:      pageSize,
	})
	if err != nil {
		respondServiceError(c, err, "list notices")
		return
	}
	c.JSON(http.StatusOK, paged(notices, total, page, pageSize))
}

// GetNotice 조회수 증가
// GET /api/v1/notices/:id
func (ctrl *ContentController) GetNotice(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	notice, err := ctrl.contentService.Notice(id, false)
	if err != nil {
		respondServiceError(c, err, "get notice")
		return
	}
	c.JSON(http.StatusOK, gin.H{"notice": notice})
}

// AdminListNotices 임시저장 포함
// GET /api/v1/admin/notices
func (ctrl *ContentController) AdminListNotices(c *gin.Context) {
	page, pageSize := pageParams(c)

	notices, total, err := ctrl.contentService.Notices(repository.NoticeFilter{
		Category: c.Query("category"),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		respondServiceError(c, err, "admin list notices")
		return
	}
	c.JSON(http.StatusOK, paged(notices, total, page, pageSize))
}

// CreateNotice POST /api/v1/admin/notices
func (ctrl *ContentController) CreateNotice(c *gin.Context) {
	adminID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req service.NoticeInput
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "")
		return
	}

	notice, err := ctrl.contentService.CreateNotice(adminID, req)
	if err != nil {
		respondServiceError(c, err, "create notice")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"notice": notice})
}

// UpdateNotice PUT /api/v1/admin/notices/:id
func (ctrl *ContentController) UpdateNotice(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req service.NoticeInput
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "")
		return
	}

	notice, err := ctrl.contentService.UpdateNotice(id, req)
	if err != nil {
		respondServiceError(c, err, "update notice")
		return
	}
	c.JSON(http.StatusOK, gin.H{"notice": notice})
}

// DeleteNotice DELETE /api/v1/admin/notices/:id
func (ctrl *ContentController) DeleteNotice(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.contentService.DeleteNotice(id); err != nil {
		respondServiceError(c, err, "delete notice")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "공지사항이 삭제되었습니다"})
}

// ---- 팝업 ----

// ActivePopups GET /api/v1/popups/active?mobile=
func (ctrl *ContentController) ActivePopups(c *gin.Context) {
	popups, err := ctrl.contentService.ActivePopups(isMobileRequest(c))
	if err != nil {
		respondServiceError(c, err, "active popups")
		return
	}
	c.JSON(http.StatusOK, gin.H{"popups": popups})
}

// AdminListPopups GET /api/v1/admin/popups
func (ctrl *ContentController) AdminListPopups(c *gin.Context) {
	popups, err := ctrl.contentService.AllPopups()
	if err != nil {
		respondServiceError(c, err, "list popups")
		return
	}
	c.JSON(http.StatusOK, gin.H{"popups": popups})
}

// CreatePopup POST /api/v1/admin/popups
func (ctrl *ContentController) CreatePopup(c *gin.Context) {
	var req service.PopupInput
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "")
		return
	}

	popup, err := ctrl.contentService.CreatePopup(optionalUserID(c), req)
	if err != nil {
		respondServiceError(c, err, "create popup")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"popup": popup})
}

// UpdatePopup PUT /api/v1/admin/popups/:id
func (ctrl *ContentController) UpdatePopup(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req service.PopupInput
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "")
		return
	}

	popup, err := ctrl.contentService.UpdatePopup(id, req)
	if err != nil {
		respondServiceError(c, err, "update popup")
		return
	}
	c.JSON(http.StatusOK, gin.H{"popup": popup})
}

// DeletePopup DELETE /api/v1/admin/popups/:id
func (ctrl *ContentController) DeletePopup(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.contentService.DeletePopup(id); err != nil {
		respondServiceError(c, err, "delete popup")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "팝업이 삭제되었습니다"})
}

// ---- 배너 ----

// ActiveBanners GET /api/v1/banners
func (ctrl *ContentController) ActiveBanners(c *gin.Context) {
	banners, err := ctrl.contentService.ActiveBanners()
	if err != nil {
		respondServiceError(c, err, "active banners")
		return
	}
	c.JSON(http.StatusOK, gin.H{"banners": banners})
}

// AdminListBanners GET /api/v1/admin/banners
func (ctrl *ContentController) AdminListBanners(c *gin.Context) {
	banners, err := ctrl.contentService.AllBanners()
	if err != nil {
		respondServiceError(c, err, "list banners")
		return
	}
	c.JSON(http.StatusOK, gin.H{"banners": banners})
}

// CreateBanner POST /api/v1/admin/banners
func (ctrl *ContentController) CreateBanner(c *gin.Context) {
	var req service.BannerInput
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "")
		return
	}

	banner, err := ctrl.contentService.CreateBanner(req)
	if err != nil {
		respondServiceError(c, err, "create banner")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"banner": banner})
}

// UpdateBanner PUT /api/v1/admin/banners/:id
func (ctrl *ContentController) UpdateBanner(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req service.BannerInput
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "")
		return
	}

	banner, err := ctrl.contentService.UpdateBanner(id, req)
	if err != nil {
		respondServiceError(c, err, "update banner")
		return
	}
	c.JSON(http.StatusOK, gin.H{"banner": banner})
}

// DeleteBanner DELETE /api/v1/admin/banners/:id
func (ctrl *ContentController) DeleteBanner(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.contentService.DeleteBanner(id); err != nil {
		respondServiceError(c, err, "delete banner")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "배너가 삭제되었습니다"})
}

// ---- 이벤트 ----

// ListEvents GET /api/v1/events?status=upcoming|ongoing|ended
func (ctrl *ContentController) ListEvents(c *gin.Context) {
	events, err := ctrl.contentService.Events(model.EventStatus(c.Query("status")))
	if err != nil {
		respondServiceError(c, err, "list events")
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

// GetEvent GET /api/v1/events/:id
func (ctrl *ContentController) GetEvent(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	event, err := ctrl.contentService.Event(id)
	if err != nil {
		respondServiceError(c, err, "get event")
		return
	}
	c.JSON(http.StatusOK, gin.H{"event": event})
}

// CreateEvent POST /api/v1/admin/events
func (ctrl *ContentController) CreateEvent(c *gin.Context) {
	var req service.EventInput
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "")
		return
	}

	event, err := ctrl.contentService.CreateEvent(req)
	if err != nil {
		respondServiceError(c, err, "create event")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"event": event})
}

// UpdateEvent PUT /api/v1/admin/events/:id
func (ctrl *ContentController) UpdateEvent(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req service.EventInput
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "")
		return
	}

	event, err := ctrl.contentService.UpdateEvent(id, req)
	if err != nil {
		respondServiceError(c, err, "update event")
		return
	}
	c.JSON(http.StatusOK, gin.H{"event": event})
}

// DeleteEvent DELETE /api/v1/admin/events/:id
func (ctrl *ContentController) DeleteEvent(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.contentService.DeleteEvent(id); err != nil {
		respondServiceError(c, err, "delete event")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "이벤트가 삭제되었습니다"})
}
