package service

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dungji/dungji-market-backend/config"
	"github.com/dungji/dungji-market-backend/internal/app/model"
	"github.com/dungji/dungji-market-backend/internal/app/repository"
	"github.com/dungji/dungji-market-backend/pkg/logger"
	"github.com/sahilm/fuzzy"
	"gorm.io/gorm"
)

var (
	ErrUsedItemNotFound  = errors.New("상품을 찾을 수 없습니다.")
	ErrUsedNotOwner      = errors.New("본인의 상품만 수정/삭제할 수 있습니다.")
	ErrUsedListingLimit  = errors.New("판매중인 상품이 등록 한도에 도달했습니다.")
	ErrUsedPenaltyActive = errors.New("상품 삭제 패널티로 인해 일시적으로 등록이 제한됩니다.")
	ErrUsedNotEditable   = errors.New("거래중이거나 판매완료된 상품은 수정할 수 없습니다.")
	ErrUsedTradingDelete = errors.New("거래중인 상품은 삭제할 수 없습니다.")
)

// UsedValidationError 필드 단위 입력 오류
type UsedValidationError struct {
	Field   string
	Message string
}

func (e *UsedValidationError) Error() string {
	return e.Message
}

func usedInvalid(field, message string) error {
	return &UsedValidationError{Field: field, Message: message}
}

type PhoneDetailInput struct {
	Brand         string
	Model         string
	Storage       int
	Color         string
	Condition     model.UsedCondition
	BatteryStatus string
	Accessories   string
}

type ElectronicsDetailInput struct {
	Subcategory    string
	Brand          string
	ModelName      string
	PurchasePeriod string
	Condition      model.UsedCondition
	ExtraSpecs     map[string]interface{}
}

type CreateUsedItemInput struct {
	ItemType      model.UsedItemType
	Title         string
	Price         int64
	AcceptOffers  bool
	MinOfferPrice *int64
	Description   string
	Region        string
	MeetingPlace  string
	Images        []string
	Phone         *PhoneDetailInput
	Electronics   *ElectronicsDetailInput
}

type UpdateUsedItemInput struct {
	Title         *string
	Price         *int64
	AcceptOffers  *bool
	MinOfferPrice *int64
	Description   *string
	Region        *string
	MeetingPlace  *string
	Images        []string
	Phone         *PhoneDetailInput
	Electronics   *ElectronicsDetailInput
}

// ListingLimit 등록 가능 여부
type ListingLimit struct {
	ActiveCount int64      `json:"active_count"`
	Limit       int        `json:"limit"`
	CanRegister bool       `json:"can_register"`
	PenaltyEnd  *time.Time `json:"penalty_end,omitempty"`
}

type DestroyResult struct {
	Message        string     `json:"message"`
	PenaltyApplied bool       `json:"penalty_applied"`
	PenaltyEnd     *time.Time `json:"penalty_end,omitempty"`
}

type UsedService interface {
	Create(sellerID uint, input CreateUsedItemInput) (*model.UsedItem, error)
	CheckLimit(sellerID uint) (*ListingLimit, error)
	List(filter repository.UsedItemFilter) ([]model.UsedItem, int64, error)
	Get(id uint) (*model.UsedItem, error)
	Update(id, sellerID uint, input UpdateUsedItemInput) (*model.UsedItem, error)
	MyList(sellerID uint, status model.UsedItemStatus, page, pageSize int) ([]model.UsedItem, int64, error)
	Destroy(id, sellerID uint) (*DestroyResult, error)
	ToggleFavorite(userID, itemID uint) (bool, error)
	MyFavorites(userID uint) ([]model.UsedFavorite, error)
	SuggestModels(itemType model.UsedItemType, query string, limit int) ([]string, error)
}

type usedService struct {
	db        *gorm.DB
	itemRepo  repository.UsedItemRepository
	offerRepo repository.OfferRepository
	policy    config.UsedPolicy
	now       func() time.Time
}

func NewUsedService(
	db *gorm.DB,
	itemRepo repository.UsedItemRepository,
	offerRepo repository.OfferRepository,
	policy config.UsedPolicy,
) UsedService {
	return &usedService{
		db:        db,
		itemRepo:  itemRepo,
		offerRepo: offerRepo,
		policy:    policy,
		now:       time.Now,
	}
}

func (s *usedService) validatePrice(itemType model.UsedItemType, price int64) error {
	switch itemType {
	case model.UsedItemPhone:
		if price < 1 || price > s.policy.PhoneMaxPrice {
			return usedInvalid("price", fmt.Sprintf("판매 가격은 1원 이상 %d원 이하로 입력해주세요.", s.policy.PhoneMaxPrice))
		}
	case model.UsedItemElectronics:
		if price < s.policy.ElectronicsMinPrice || price > s.policy.ElectronicsMaxPrice {
			return usedInvalid("price", fmt.Sprintf("판매 가격은 %d원 이상 %d원 이하로 입력해주세요.", s.policy.ElectronicsMinPrice, s.policy.ElectronicsMaxPrice))
		}
	}
	return nil
}

// validateCommon 품목 공통 검증. 가격/설명/거래장소/최소제안가/이미지 수
func (s *usedService) validateCommon(item *model.UsedItem) error {
	if strings.TrimSpace(item.Title) == "" {
		return usedInvalid("title", "제목을 입력해주세요.")
	}
	if err := s.validatePrice(item.ItemType, item.Price); err != nil {
		return err
	}
	if utf8.RuneCountInString(strings.TrimSpace(item.Description)) < s.policy.MinDescriptionLength {
		return usedInvalid("description", fmt.Sprintf("상품 설명은 최소 %d자 이상 입력해주세요.", s.policy.MinDescriptionLength))
	}
	if strings.TrimSpace(item.MeetingPlace) == "" {
		return usedInvalid("meeting_place", "거래 희망 장소를 입력해주세요.")
	}
	if item.MinOfferPrice != nil {
		if *item.MinOfferPrice <= 0 {
			return usedInvalid("min_offer_price", "최소 제안가는 0원보다 커야 합니다.")
		}
		if *item.MinOfferPrice >= item.Price {
			return usedInvalid("min_offer_price", "최소 제안가는 판매 가격보다 낮아야 합니다.")
		}
	}
	if s.policy.MaxImages > 0 && len(item.Images) > s.policy.MaxImages {
		return usedInvalid("images", fmt.Sprintf("이미지는 최대 %d장까지 등록할 수 있습니다.", s.policy.MaxImages))
	}
	return nil
}

func applyPhoneDetail(item *model.UsedItem, in *PhoneDetailInput) error {
	if in.Condition != "" && !in.Condition.Valid() {
		return usedInvalid("condition", "상태 등급은 S, A, B, C 중 하나여야 합니다.")
	}
	if strings.TrimSpace(in.Model) == "" {
		return usedInvalid("model", "모델명을 입력해주세요.")
	}
	if item.PhoneDetail == nil {
		item.PhoneDetail = &model.UsedPhoneDetail{}
	}
	d := item.PhoneDetail
	d.Brand = strings.ToLower(strings.TrimSpace(in.Brand))
	d.Model = strings.TrimSpace(in.Model)
	d.Storage = in.Storage
	d.Color = in.Color
	d.Condition = in.Condition
	d.BatteryStatus = in.BatteryStatus
	d.Accessories = in.Accessories
	return nil
}

func applyElectronicsDetail(item *model.UsedItem, in *ElectronicsDetailInput) error {
	if in.Condition != "" && !in.Condition.Valid() {
		return usedInvalid("condition", "상태 등급은 S, A, B, C 중 하나여야 합니다.")
	}
	if strings.TrimSpace(in.ModelName) == "" {
		return usedInvalid("model_name", "모델명을 입력해주세요.")
	}
	if item.ElectronicsDetail == nil {
		item.ElectronicsDetail = &model.UsedElectronicsDetail{}
	}
	d := item.ElectronicsDetail
	d.Subcategory = in.Subcategory
	d.Brand = strings.ToLower(strings.TrimSpace(in.Brand))
	d.ModelName = strings.TrimSpace(in.ModelName)
	d.PurchasePeriod = in.PurchasePeriod
	d.Condition = in.Condition
	d.ExtraSpecs = in.ExtraSpecs
	return nil
}

func (s *usedService) CheckLimit(sellerID uint) (*ListingLimit, error) {
	count, err := s.itemRepo.CountOpenBySeller(sellerID)
	if err != nil {
		return nil, err
	}

	result := &ListingLimit{
		ActiveCount: count,
		Limit:       s.policy.MaxActiveListings,
		CanRegister: count < int64(s.policy.MaxActiveListings),
	}

	penalty, err := s.itemRepo.FindActivePenalty(sellerID, s.now())
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if penalty != nil {
		end := penalty.PenaltyEnd
		result.PenaltyEnd = &end
		result.CanRegister = false
	}
	return result, nil
}

func (s *usedService) Create(sellerID uint, input CreateUsedItemInput) (*model.UsedItem, error) {
	logger.Info("Creating used item", map[string]interface{}{
		"seller_id": sellerID,
		"item_type": input.ItemType,
		"price":     input.Price,
	})

	if !input.ItemType.Valid() {
		return nil, usedInvalid("item_type", "상품 종류는 phone 또는 electronics 여야 합니다.")
	}

	limit, err := s.CheckLimit(sellerID)
	if err != nil {
		return nil, err
	}
	if limit.PenaltyEnd != nil {
		logger.Warn("Used item creation blocked by penalty", map[string]interface{}{
			"seller_id":   sellerID,
			"penalty_end": limit.PenaltyEnd,
		})
		return nil, ErrUsedPenaltyActive
	}
	if !limit.CanRegister {
		logger.Warn("Used item creation blocked by listing limit", map[string]interface{}{
			"seller_id":    sellerID,
			"active_count": limit.ActiveCount,
		})
		return nil, ErrUsedListingLimit
	}

	item := &model.UsedItem{
		SellerID:      sellerID,
		ItemType:      input.ItemType,
		Title:         strings.TrimSpace(input.Title),
		Price:         input.Price,
		AcceptOffers:  input.AcceptOffers,
		MinOfferPrice: input.MinOfferPrice,
		Description:   input.Description,
		Region:        input.Region,
		MeetingPlace:  input.MeetingPlace,
		Images:        model.StringList(input.Images),
		Status:        model.UsedStatusActive,
	}
	if !item.AcceptOffers {
		item.MinOfferPrice = nil
	}

	switch input.ItemType {
	case model.UsedItemPhone:
		if input.Phone == nil {
			return nil, usedInvalid("phone_detail", "휴대폰 상세 정보를 입력해주세요.")
		}
		if err := applyPhoneDetail(item, input.Phone); err != nil {
			return nil, err
		}
	case model.UsedItemElectronics:
		if input.Electronics == nil {
			return nil, usedInvalid("electronics_detail", "전자제품 상세 정보를 입력해주세요.")
		}
		if err := applyElectronicsDetail(item, input.Electronics); err != nil {
			return nil, err
		}
	}

	if err := s.validateCommon(item); err != nil {
		return nil, err
	}

	if err := s.itemRepo.Create(item); err != nil {
		return nil, err
	}

	logger.Info("Used item created", map[string]interface{}{
		"item_id":   item.ID,
		"seller_id": sellerID,
	})
	return item, nil
}

func (s *usedService) List(filter repository.UsedItemFilter) ([]model.UsedItem, int64, error) {
	return s.itemRepo.FindAll(filter)
}

// Get 조회수 증가 후 상세 반환
func (s *usedService) Get(id uint) (*model.UsedItem, error) {
	item, err := s.itemRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUsedItemNotFound
		}
		return nil, err
	}
	if item.Status == model.UsedStatusDeleted {
		return nil, ErrUsedItemNotFound
	}

	if err := s.itemRepo.IncrementViewCount(id); err != nil {
		logger.Warn("Failed to increment view count", map[string]interface{}{
			"item_id": id,
			"error":   err.Error(),
		})
	} else {
		item.ViewCount++
	}
	return item, nil
}

func (s *usedService) Update(id, sellerID uint, input UpdateUsedItemInput) (*model.UsedItem, error) {
	item, err := s.itemRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUsedItemNotFound
		}
		return nil, err
	}
	if item.Status == model.UsedStatusDeleted {
		return nil, ErrUsedItemNotFound
	}
	if item.SellerID != sellerID {
		return nil, ErrUsedNotOwner
	}
	if item.Status != model.UsedStatusActive {
		return nil, ErrUsedNotEditable
	}

	if input.Title != nil {
		item.Title = strings.TrimSpace(*input.Title)
	}
	if input.Price != nil {
		item.Price = *input.Price
	}
	if input.AcceptOffers != nil {
		item.AcceptOffers = *input.AcceptOffers
	}
	if input.MinOfferPrice != nil {
		item.MinOfferPrice = input.MinOfferPrice
	}
	if !item.AcceptOffers {
		item.MinOfferPrice = nil
	}
	if input.Description != nil {
		item.Description = *input.Description
	}
	if input.Region != nil {
		item.Region = *input.Region
	}
	if input.MeetingPlace != nil {
		item.MeetingPlace = *input.MeetingPlace
	}
	if input.Images != nil {
		item.Images = model.StringList(input.Images)
	}
	if input.Phone != nil && item.ItemType == model.UsedItemPhone {
		if err := applyPhoneDetail(item, input.Phone); err != nil {
			return nil, err
		}
	}
	if input.Electronics != nil && item.ItemType == model.UsedItemElectronics {
		if err := applyElectronicsDetail(item, input.Electronics); err != nil {
			return nil, err
		}
	}

	if err := s.validateCommon(item); err != nil {
		return nil, err
	}

	item.Seller = nil
	if err := s.itemRepo.Update(item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *usedService) MyList(sellerID uint, status model.UsedItemStatus, page, pageSize int) ([]model.UsedItem, int64, error) {
	return s.itemRepo.FindAll(repository.UsedItemFilter{
		SellerID: &sellerID,
		Status:   status,
		Page:     page,
		PageSize: pageSize,
	})
}

// Destroy 제안이 있었던 상품은 삭제 패널티를 건다. 대기중 제안은 취소된다.
func (s *usedService) Destroy(id, sellerID uint) (*DestroyResult, error) {
	result := &DestroyResult{Message: "상품이 삭제되었습니다."}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		itemRepo := s.itemRepo.WithTx(tx)
		offerRepo := s.offerRepo.WithTx(tx)

		item, err := itemRepo.FindByIDForUpdate(id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUsedItemNotFound
			}
			return err
		}
		if item.Status == model.UsedStatusDeleted {
			return ErrUsedItemNotFound
		}
		if item.SellerID != sellerID {
			return ErrUsedNotOwner
		}
		if item.Status == model.UsedStatusTrading {
			return ErrUsedTradingDelete
		}

		offers, err := offerRepo.FindByItem(item.ID, "")
		if err != nil {
			return err
		}

		now := s.now()
		if len(offers) > 0 {
			end := now.Add(s.policy.DeletePenalty())
			penalty := &model.UnifiedDeletePenalty{
				UserID:     sellerID,
				ItemType:   item.ItemType,
				ItemID:     item.ID,
				ItemTitle:  item.Title,
				OfferCount: item.OfferCount,
				PenaltyEnd: end,
			}
			if err := itemRepo.CreatePenalty(penalty); err != nil {
				return err
			}
			if _, err := offerRepo.CancelPendingByItem(item.ID); err != nil {
				return err
			}
			result.PenaltyApplied = true
			result.PenaltyEnd = &end
			result.Message = fmt.Sprintf("상품이 삭제되었습니다. 제안이 있던 상품이므로 %d시간 동안 신규 등록이 제한됩니다.", s.policy.DeletePenaltyHours)
		}

		return itemRepo.UpdateFields(item.ID, map[string]interface{}{
			"status":      model.UsedStatusDeleted,
			"offer_count": 0,
			"removed_at":  now,
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Used item deleted", map[string]interface{}{
		"item_id":         id,
		"seller_id":       sellerID,
		"penalty_applied": result.PenaltyApplied,
	})
	return result, nil
}

// ToggleFavorite 찜 추가/해제. 반환값은 찜 상태.
func (s *usedService) ToggleFavorite(userID, itemID uint) (bool, error) {
	favorited := false
	err := s.db.Transaction(func(tx *gorm.DB) error {
		itemRepo := s.itemRepo.WithTx(tx)

		item, err := itemRepo.FindByIDForUpdate(itemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUsedItemNotFound
			}
			return err
		}
		if item.Status == model.UsedStatusDeleted {
			return ErrUsedItemNotFound
		}

		fav, err := itemRepo.FindFavorite(userID, itemID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if fav != nil {
			if err := itemRepo.DeleteFavorite(fav.ID); err != nil {
				return err
			}
			return itemRepo.AdjustFavoriteCount(itemID, -1)
		}

		if err := itemRepo.CreateFavorite(&model.UsedFavorite{UserID: userID, ItemID: itemID}); err != nil {
			return err
		}
		favorited = true
		return itemRepo.AdjustFavoriteCount(itemID, 1)
	})
	return favorited, err
}

func (s *usedService) MyFavorites(userID uint) ([]model.UsedFavorite, error) {
	return s.itemRepo.FindFavoritesByUser(userID)
}

// SuggestModels 등록된 모델명에서 퍼지 매칭
func (s *usedService) SuggestModels(itemType model.UsedItemType, query string, limit int) ([]string, error) {
	if itemType == "" {
		itemType = model.UsedItemPhone
	}
	if !itemType.Valid() {
		return nil, usedInvalid("item_type", "상품 종류는 phone 또는 electronics 여야 합니다.")
	}
	if limit <= 0 || limit > 20 {
		limit = 10
	}

	names, err := s.itemRepo.ModelNames(itemType)
	if err != nil {
		return nil, err
	}

	query = strings.TrimSpace(query)
	if query == "" {
		if len(names) > limit {
			names = names[:limit]
		}
		return names, nil
	}

	matches := fuzzy.Find(strings.ToLower(query), lowerAll(names))
	suggestions := make([]string, 0, limit)
	for _, m := range matches {
		suggestions = append(suggestions, names[m.Index])
		if len(suggestions) == limit {
			break
		}
	}
	return suggestions, nil
}

func lowerAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ToLower(v)
	}
	return out
}
