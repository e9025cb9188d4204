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

type UsedController struct {
	usedService service.UsedService
}

func NewUsedController(usedService service.UsedService) *UsedController {
	return &UsedController{usedService: usedService}
}

type PhoneDetailRequest struct {
	Brand         string `json:"brand"`
	Model         string `json:"model"`
	Storage       int    `json:"storage"`
	Color         string `json:"color"`
	Condition     string `json:"condition"`
	BatteryStatus string `json:"battery_status"`
	Accessories   string `json:"accessories"`
}

type ElectronicsDetailRequest struct {
	Subcategory    string                 `json:"subcategory"`
	Brand          string                 `json:"brand"`
	ModelName      string                 `json:"model_name"`
	PurchasePeriod string                 `json:"purchase_period"`
	Condition      string                 `json:"condition"`
	ExtraSpecs     map[string]interface{} `json:"extra_specs"`
}

type CreateUsedItemRequest struct {
	ItemType      string                    `json:"item_type" binding:"required,oneof=phone electronics"`
	Title         string                    `json:"title" binding:"required"`
	Price         int64                     `json:"price" binding:"required"`
	AcceptOffers  bool                      `json:"accept_offers"`
	MinOfferPrice *int64                    `json:"min_offer_price"`
	Description   string                    `json:"description"`
	Region        string                    `json:"region"`
	MeetingPlace  string                    `json:"meeting_place"`
	Images        []string                  `json:"images"`
	Phone         *PhoneDetailRequest       `json:"phone_detail"`
	Electronics   *ElectronicsDetailRequest `json:"electronics_detail"`
}

type UpdateUsedItemRequest struct {
	Title         *string                   `json:"title"`
	Price         *int64                    `json:"price"`
	AcceptOffers  *bool                     `json:"accept_offers"`
	MinOfferPrice *int64                    `json:"min_offer_price"`
	Description   *string                   `json:"description"`
	Region        *string                   `json:"region"`
	MeetingPlace  *string                   `json:"meeting_place"`
	Images        []string                  `json:"images"`
	Phone         *PhoneDetailRequest       `json:"phone_detail"`
	Electronics   *ElectronicsDetailRequest `json:"electronics_detail"`
}

func (r *PhoneDetailRequest) toInput() *service.PhoneDetailInput {
	if r == nil {
		return nil
	}
	return &service.PhoneDetailInput{
		Brand:         r.Brand,
		Model:         r.Model,
		Storage:       r.Storage,
		Color:         r.Color,
		Condition:     model.UsedCondition(r.Condition),
		BatteryStatus: r.BatteryStatus,
		Accessories:   r.Accessories,
	}
}

func (r *ElectronicsDetailRequest) toInput() *service.ElectronicsDetailInput {
	if r == nil {
		return nil
	}
	return &service.ElectronicsDetailInput{
		Subcategory:    r.Subcategory,
		Brand:          r.Brand,
		ModelName:      r.ModelName,
		PurchasePeriod: r.PurchasePeriod,
		Condition:      model.UsedCondition(r.Condition),
		ExtraSpecs:     r.ExtraSpecs,
	}
}

func parseInt64Query(c *gin.Context, key string) *int64 {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil
	}
	return &v
}

// ListItems 중고 상품 목록
// GET /api/v1/used/items?item_type=&status=&region=&brand=&q=&min_price=&max_price=&sort=&page=&page_size=
func (ctrl *UsedController) ListItems(c *gin.Context) {
	page, pageSize := pageParams(c)
	filter := repository.UsedItemFilter{
		ItemType: model.UsedItemType(c.Query("item_type")),
		Status:   model.UsedItemStatus(c.Query("status")),
		Region:   c.Query("region"),
		Brand:    c.Query("brand"),
		Query:    c.Query("q"),
		MinPrice: parseInt64Query(c, "min_price"),
		MaxPrice: parseInt64Query(c, "max_price"),
		SortBy:   repository.UsedSortBy(c.DefaultQuery("sort", string(repository.UsedSortLatest))),
		Page:     page,
		PageSize: pageSize,
	}
	if sellerID := c.Query("seller_id"); sellerID != "" {
		if id, err := strconv.ParseUint(sellerID, 10, 32); err == nil {
			sid := uint(id)
			filter.SellerID = &sid
		}
	}

	items, total, err := ctrl.usedService.List(filter)
	if err != nil {
		respondServiceError(c, err, "list used items")
		return
	}
	c.JSON(http.StatusOK, paged(items, total, page, pageSize))
}

// GetItem GET /api/v1/used/items/:id
func (ctrl *UsedController) GetItem(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	item, err := ctrl.usedService.Get(id)
	if err != nil {
		respondServiceError(c, err, "get used item")
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": item})
}

// CheckLimit 등록 가능 여부 (활성 게시글 수, 패널티)
// GET /api/v1/used/items/check-limit
func (ctrl *UsedController) CheckLimit(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	limit, err := ctrl.usedService.CheckLimit(userID)
	if err != nil {
		respondServiceError(c, err, "check listing limit")
		return
	}
	c.JSON(http.StatusOK, limit)
}

// CreateItem POST /api/v1/used/items
func (ctrl *UsedController) CreateItem(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req CreateUsedItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "")
		return
	}

	item, err := ctrl.usedService.Create(userID, service.CreateUsedItemInput{
		ItemType:      model.UsedItemType(req.ItemType),
		Title:         req.Title,
		Price:         req.Price,
		AcceptOffers:  req.AcceptOffers,
		MinOfferPrice: req.MinOfferPrice,
		Description:   req.Description,
		Region:        req.Region,
		MeetingPlace:  req.MeetingPlace,
		Images:        req.Images,
		Phone:         req.Phone.toInput(),
		Electronics:   req.Electronics.toInput(),
	})
	if err != nil {
		respondServiceError(c, err, "create used item")
		return
	}

	log.Info("Used item created", map[string]interface{}{
		"item_id":   item.ID,
		"seller_id": userID,
		"item_type": item.ItemType,
	})
	c.JSON(http.StatusCreated, gin.H{"item": item})
}

// UpdateItem PATCH /api/v1/used/items/:id
func (ctrl *UsedController) UpdateItem(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateUsedItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "")
		return
	}

	item, err := ctrl.usedService.Update(id, userID, service.UpdateUsedItemInput{
		Title:         req.Title,
		Price:         req.Price,
		AcceptOffers:  req.AcceptOffers,
		MinOfferPrice: req.MinOfferPrice,
		Description:   req.Description,
		Region:        req.Region,
		MeetingPlace:  req.MeetingPlace,
		Images:        req.Images,
		Phone:         req.Phone.toInput(),
		Electronics:   req.Electronics.toInput(),
	})
	if err != nil {
		respondServiceError(c, err, "update used item")
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": item})
}

// DeleteItem 제안이 있던 게시글은 삭제 후 신규 등록이 제한된다
// DELETE /api/v1/used/items/:id
func (ctrl *UsedController) DeleteItem(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	result, err := ctrl.usedService.Destroy(id, userID)
	if err != nil {
		respondServiceError(c, err, "delete used item")
		return
	}

	if result.PenaltyApplied {
		log.Info("Delete penalty applied", map[string]interface{}{
			"item_id": id,
			"user_id": userID,
		})
	}
	c.JSON(http.StatusOK, result)
}

// MyItems GET /api/v1/used/my/items?status=
func (ctrl *UsedController) MyItems(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	page, pageSize := pageParams(c)

	items, total, err := ctrl.usedService.MyList(userID, model.UsedItemStatus(c.Query("status")), page, pageSize)
	if err != nil {
		respondServiceError(c, err, "my used items")
		return
	}
	c.JSON(http.StatusOK, paged(items, total, page, pageSize))
}

// ToggleFavorite POST /api/v1/used/items/:id/favorite
func (ctrl *UsedController) ToggleFavorite(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	favorited, err := ctrl.usedService.ToggleFavorite(userID, id)
	if err != nil {
		respondServiceError(c, err, "toggle favorite")
		return
	}
	c.JSON(http.StatusOK, gin.H{"is_favorite": favorited})
}

// MyFavorites GET /api/v1/used/my/favorites
func (ctrl *UsedController) MyFavorites(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	favorites, err := ctrl.usedService.MyFavorites(userID)
	if err != nil {
		respondServiceError(c, err, "my favorites")
		return
	}
	c.JSON(http.StatusOK, gin.H{"favorites": favorites})
}

// SuggestModels 모델명 자동완성
// GET /api/v1/used/models?item_type=phone&q=갤럭
func (ctrl *UsedController) SuggestModels(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit < 1 {
		limit = 10
	}

	models, err := ctrl.usedService.SuggestModels(model.UsedItemType(c.Query("item_type")), c.Query("q"), limit)
	if err != nil {
		respondServiceError(c, err, "suggest models")
		return
	}
	c.JSON(http.StatusOK, gin.H{"models": models})
}
