package repository

import (
	"strings"
	"time"

	"github.com/dungji/dungji-market-backend/internal/app/model"
	"github.com/dungji/dungji-market-backend/pkg/logger"
	"gorm.io/gorm"
)

type UsedSortBy string

const (
	UsedSortLatest    UsedSortBy = "latest"
	UsedSortPriceLow  UsedSortBy = "price_low"
	UsedSortPriceHigh UsedSortBy = "price_high"
	UsedSortPopular   UsedSortBy = "popular"
)

type UsedItemFilter struct {
	ItemType model.UsedItemType
	Status   model.UsedItemStatus
	Region   string
	Brand    string
	Query    string
	MinPrice *int64
	MaxPrice *int64
	SellerID *uint
	SortBy   UsedSortBy
	Page     int
	PageSize int
}

type UsedItemRepository interface {
	WithTx(tx *gorm.DB) UsedItemRepository
	Create(item *model.UsedItem) error
	FindByID(id uint) (*model.UsedItem, error)
	FindByIDForUpdate(id uint) (*model.UsedItem, error)
	FindAll(filter UsedItemFilter) ([]model.UsedItem, int64, error)
	Update(item *model.UsedItem) error
	UpdateFields(id uint, fields map[string]interface{}) error
	IncrementViewCount(id uint) error
	CountOpenBySeller(sellerID uint) (int64, error)
	ModelNames(itemType model.UsedItemType) ([]string, error)

	FindFavorite(userID, itemID uint) (*model.UsedFavorite, error)
	CreateFavorite(fav *model.UsedFavorite) error
	DeleteFavorite(id uint) error
	FindFavoritesByUser(userID uint) ([]model.UsedFavorite, error)
	AdjustFavoriteCount(itemID uint, delta int) error

	CreatePenalty(penalty *model.UnifiedDeletePenalty) error
	FindActivePenalty(userID uint, now time.Time) (*model.UnifiedDeletePenalty, error)
}

type usedItemRepository struct {
	db *gorm.DB
}

func NewUsedItemRepository(db *gorm.DB) UsedItemRepository {
	return &usedItemRepository{db: db}
}

func (r *usedItemRepository) WithTx(tx *gorm.DB) UsedItemRepository {
	return &usedItemRepository{db: tx}
}

func (r *usedItemRepository) Create(item *model.UsedItem) error {
	logger.Debug("Creating used item in database", map[string]interface{}{
		"seller_id": item.SellerID,
		"item_type": item.ItemType,
		"price":     item.Price,
	})

	// 상세 정보(has one)는 gorm이 함께 저장
	if err := r.db.Create(item).Error; err != nil {
		logger.Error("Failed to create used item", err, map[string]interface{}{
			"seller_id": item.SellerID,
		})
		return err
	}

	logger.Debug("Used item created in database", map[string]interface{}{
		"item_id": item.ID,
	})
	return nil
}

func (r *usedItemRepository) FindByID(id uint) (*model.UsedItem, error) {
	var item model.UsedItem
	err := r.db.
		Preload("Seller").
		Preload("PhoneDetail").
		Preload("ElectronicsDetail").
		First(&item, id).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *usedItemRepository) FindByIDForUpdate(id uint) (*model.UsedItem, error) {
	var item model.UsedItem
	if err := lockForUpdate(r.db).First(&item, id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *usedItemRepository) FindAll(filter UsedItemFilter) ([]model.UsedItem, int64, error) {
	logger.Debug("Finding used items", map[string]interface{}{
		"item_type": filter.ItemType,
		"status":    filter.Status,
		"region":    filter.Region,
		"query":     filter.Query,
		"sort":      filter.SortBy,
	})

	query := r.db.Model(&model.UsedItem{})

	if filter.ItemType != "" {
		query = query.Where("item_type = ?", filter.ItemType)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	} else {
		query = query.Where("status <> ?", model.UsedStatusDeleted)
	}
	if filter.SellerID != nil {
		query = query.Where("seller_id = ?", *filter.SellerID)
	}
	if filter.Region != "" {
		query = query.Where("region LIKE ?", "%"+filter.Region+"%")
	}
	if filter.Brand != "" {
		query = query.Where(
			"id IN (?) OR id IN (?)",
			r.db.Model(&model.UsedPhoneDetail{}).Select("item_id").Where("brand = ?", filter.Brand),
			r.db.Model(&model.UsedElectronicsDetail{}).Select("item_id").Where("brand = ?", filter.Brand),
		)
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		like := "%" + q + "%"
		query = query.Where("title LIKE ? OR description LIKE ?", like, like)
	}
	if filter.MinPrice != nil {
		query = query.Where("price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		query = query.Where("price <= ?", *filter.MaxPrice)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		logger.Error("Failed to count used items", err)
		return nil, 0, err
	}

	switch filter.SortBy {
	case UsedSortPriceLow:
		query = query.Order("price ASC")
	case UsedSortPriceHigh:
		query = query.Order("price DESC")
	case UsedSortPopular:
		query = query.Order("favorite_count DESC").Order("view_count DESC")
	default:
		query = query.Order("created_at DESC")
	}
	query = query.Order("id DESC")

	var items []model.UsedItem
	err := paginate(query, filter.Page, filter.PageSize).
		Preload("PhoneDetail").
		Preload("ElectronicsDetail").
		Find(&items).Error
	if err != nil {
		logger.Error("Failed to find used items", err)
		return nil, 0, err
	}

	logger.Debug("Used items found", map[string]interface{}{
		"count": len(items),
		"total": total,
	})
	return items, total, nil
}

func (r *usedItemRepository) Update(item *model.UsedItem) error {
	if err := r.db.Session(&gorm.Session{FullSaveAssociations: true}).Save(item).Error; err != nil {
		logger.Error("Failed to update used item", err, map[string]interface{}{
			"item_id": item.ID,
		})
		return err
	}
	return nil
}

func (r *usedItemRepository) UpdateFields(id uint, fields map[string]interface{}) error {
	return r.db.Model(&model.UsedItem{}).Where("id = ?", id).Updates(fields).Error
}

func (r *usedItemRepository) IncrementViewCount(id uint) error {
	return r.db.Model(&model.UsedItem{}).Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + ?", 1)).Error
}

// CountOpenBySeller 판매중/거래중 게시글 수 (등록 한도 계산용)
func (r *usedItemRepository) CountOpenBySeller(sellerID uint) (int64, error) {
	var count int64
	err := r.db.Model(&model.UsedItem{}).
		Where("seller_id = ? AND status IN ?", sellerID, []model.UsedItemStatus{model.UsedStatusActive, model.UsedStatusTrading}).
		Count(&count).Error
	return count, err
}

// ModelNames 등록된 모델명 (중복 제거)
func (r *usedItemRepository) ModelNames(itemType model.UsedItemType) ([]string, error) {
	var names []string
	var err error
	switch itemType {
	case model.UsedItemElectronics:
		err = r.db.Model(&model.UsedElectronicsDetail{}).Distinct().Where("model_name <> ''").Pluck("model_name", &names).Error
	default:
		err = r.db.Model(&model.UsedPhoneDetail{}).Distinct().Where("model <> ''").Pluck("model", &names).Error
	}
	return names, err
}

func (r *usedItemRepository) FindFavorite(userID, itemID uint) (*model.UsedFavorite, error) {
	var fav model.UsedFavorite
	if err := r.db.Where("user_id = ? AND item_id = ?", userID, itemID).First(&fav).Error; err != nil {
		return nil, err
	}
	return &fav, nil
}

func (r *usedItemRepository) CreateFavorite(fav *model.UsedFavorite) error {
	return r.db.Create(fav).Error
}

func (r *usedItemRepository) DeleteFavorite(id uint) error {
	return r.db.Delete(&model.UsedFavorite{}, id).Error
}

func (r *usedItemRepository) FindFavoritesByUser(userID uint) ([]model.UsedFavorite, error) {
	var favs []model.UsedFavorite
	err := r.db.Where("user_id = ?", userID).
		Preload("Item").
		Preload("Item.PhoneDetail").
		Preload("Item.ElectronicsDetail").
		Order("created_at DESC").
		Find(&favs).Error
	return favs, err
}

func (r *usedItemRepository) AdjustFavoriteCount(itemID uint, delta int) error {
	return r.db.Model(&model.UsedItem{}).Where("id = ?", itemID).
		UpdateColumn("favorite_count", gorm.Expr("CASE WHEN favorite_count + ? < 0 THEN 0 ELSE favorite_count + ? END", delta, delta)).Error
}

func (r *usedItemRepository) CreatePenalty(penalty *model.UnifiedDeletePenalty) error {
	logger.Info("Creating delete penalty", map[string]interface{}{
		"user_id":     penalty.UserID,
		"item_id":     penalty.ItemID,
		"penalty_end": penalty.PenaltyEnd,
	})
	return r.db.Create(penalty).Error
}

// FindActivePenalty 가장 늦게 끝나는 유효 패널티
func (r *usedItemRepository) FindActivePenalty(userID uint, now time.Time) (*model.UnifiedDeletePenalty, error) {
	var penalty model.UnifiedDeletePenalty
	err := r.db.Where("user_id = ? AND penalty_end > ?", userID, now).
		Order("penalty_end DESC").
		First(&penalty).Error
	if err != nil {
		return nil, err
	}
	return &penalty, nil
}
