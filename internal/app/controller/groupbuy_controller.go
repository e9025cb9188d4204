package controller

import (
	"net/http"
	"strconv"

	"github.com/dungji/dungji-market-backend/internal/app/model"
	"github.com/dungji/dungji-market-backend/internal/app/repository"
	"github.com/dungji/dungji-market-backend/internal/app/service"
	"github.com/dungji/dungji-market-backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

type GroupBuyController struct {
	groupBuyService service.GroupBuyService
}

func NewGroupBuyController(groupBuyService service.GroupBuyService) *GroupBuyController {
	return &GroupBuyController{groupBuyService: groupBuyService}
}

type VoteRequest struct {
	Choice string `json:"choice" binding:"required,oneof=confirm cancel"`
}

func optionalUintQuery(c *gin.Context, key string) *uint {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return nil
	}
	id := uint(v)
	return &id
}

// Categories GET /api/v1/groupbuys/categories
func (ctrl *GroupBuyController) Categories(c *gin.Context) {
	categories, err := ctrl.groupBuyService.Categories()
	if err != nil {
		respondServiceError(c, err, "list categories")
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// Products GET /api/v1/groupbuys/products?category_id=
func (ctrl *GroupBuyController) Products(c *gin.Context) {
	products, err := ctrl.groupBuyService.Products(optionalUintQuery(c, "category_id"))
	if err != nil {
		respondServiceError(c, err, "list products")
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

// List GET /api/v1/groupbuys?status=&category_id=&region=&creator_id=
func (ctrl *GroupBuyController) List(c *gin.Context) {
	page, pageSize := pageParams(c)

	groupBuys, total, err := ctrl.groupBuyService.List(repository.GroupBuyFilter{
		Status:     model.GroupBuyStatus(c.Query("status")),
		CategoryID: optionalUintQuery(c, "category_id"),
		Region:     c.Query("region"),
		CreatorID:  optionalUintQuery(c, "creator_id"),
		Page:       page,
		PageSize:   pageSize,
	})
	if err != nil {
		respondServiceError(c, err, "list group buys")
		return
	}
	c.JSON(http.StatusOK, paged(groupBuys, total, page, pageSize))
}

// Get GET /api/v1/groupbuys/:id
func (ctrl *GroupBuyController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	detail, err := ctrl.groupBuyService.Get(id, optionalUserID(c))
	if err != nil {
		respondServiceError(c, err, "get group buy")
		return
	}
	c.JSON(http.StatusOK, gin.H{"groupbuy": detail})
}

// Create 일반회원 공구 개설. 개설자는 자동 참여된다.
// POST /api/v1/groupbuys
func (ctrl *GroupBuyController) Create(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req service.CreateGroupBuyInput
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "")
		return
	}

	groupBuy, err := ctrl.groupBuyService.Create(userID, req)
	if err != nil {
		respondServiceError(c, err, "create group buy")
		return
	}

	log.Info("Group buy created", map[string]interface{}{
		"groupbuy_id": groupBuy.ID,
		"creator_id":  userID,
		"product_id":  req.ProductID,
	})
	c.JSON(http.StatusCreated, gin.H{"groupbuy": groupBuy})
}

// Join POST /api/v1/groupbuys/:id/join
func (ctrl *GroupBuyController) Join(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	groupBuy, err := ctrl.groupBuyService.Join(userID, id)
	if err != nil {
		respondServiceError(c, err, "join group buy")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":  "공구에 참여했습니다",
		"groupbuy": groupBuy,
	})
}

// Leave POST /api/v1/groupbuys/:id/leave
func (ctrl *GroupBuyController) Leave(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	groupBuy, err := ctrl.groupBuyService.Leave(userID, id)
	if err != nil {
		respondServiceError(c, err, "leave group buy")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":  "공구 참여를 취소했습니다",
		"groupbuy": groupBuy,
	})
}

// PlaceBid 판매회원 견적 제출. 신규 견적은 이용권 1개를 사용한다.
// POST /api/v1/groupbuys/:id/bids
func (ctrl *GroupBuyController) PlaceBid(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req service.PlaceBidInput
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "")
		return
	}

	bid, err := ctrl.groupBuyService.PlaceBid(userID, id, req)
	if err != nil {
		respondServiceError(c, err, "place bid")
		return
	}

	log.Info("Bid placed", map[string]interface{}{
		"groupbuy_id": id,
		"seller_id":   userID,
		"bid_id":      bid.ID,
	})
	c.JSON(http.StatusCreated, gin.H{"bid": bid})
}

// ListBids GET /api/v1/groupbuys/:id/bids
func (ctrl *GroupBuyController) ListBids(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	role, _ := middleware.GetUserRole(c)

	bids, err := ctrl.groupBuyService.ListBids(id, userID, role)
	if err != nil {
		respondServiceError(c, err, "list bids")
		return
	}
	c.JSON(http.StatusOK, gin.H{"bids": bids})
}

// Vote 최종 선택 (confirm | cancel)
// POST /api/v1/groupbuys/:id/vote
func (ctrl *GroupBuyController) Vote(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "confirm 또는 cancel을 선택해주세요")
		return
	}

	vote, err := ctrl.groupBuyService.Vote(userID, id, model.VoteChoice(req.Choice))
	if err != nil {
		respondServiceError(c, err, "vote")
		return
	}
	c.JSON(http.StatusOK, gin.H{"vote": vote})
}

// ForceComplete 관리자 강제 완료
// POST /api/v1/admin/groupbuys/:id/complete
func (ctrl *GroupBuyController) ForceComplete(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	adminID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	groupBuy, err := ctrl.groupBuyService.ForceComplete(id, adminID)
	if err != nil {
		respondServiceError(c, err, "force complete group buy")
		return
	}

	log.Info("Group buy force completed", map[string]interface{}{
		"groupbuy_id": id,
		"admin_id":    adminID,
	})
	c.JSON(http.StatusOK, gin.H{"groupbuy": groupBuy})
}

// AdvanceStatuses 스케줄러 작업을 즉시 실행
// POST /api/v1/admin/groupbuys/advance
func (ctrl *GroupBuyController) AdvanceStatuses(c *gin.Context) {
	result, err := ctrl.groupBuyService.AdvanceStatuses()
	if err != nil {
		respondServiceError(c, err, "advance group buy statuses")
		return
	}
	c.JSON(http.StatusOK, result)
}
