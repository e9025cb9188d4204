package repository

import (
	"time"

	"github.com/dungji/dungji-market-backend/internal/app/model"
	"github.com/dungji/dungji-market-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GroupBuyFilter struct {
	Status     model.GroupBuyStatus
	CategoryID *uint
	Region     string
	CreatorID  *uint
	Page       int
	PageSize   int
}

type GroupBuyRepository interface {
	WithTx(tx *gorm.DB) GroupBuyRepository

	FindCategories() ([]model.Category, error)
	FindCategoryByName(name string) (*model.Category, error)
	CreateCategory(category *model.Category) error
	FindProducts(categoryID *uint) ([]model.Product, error)
	FindProductByID(id uint) (*model.Product, error)
	FindProductByName(categoryID uint, name string) (*model.Product, error)
	SaveProduct(product *model.Product) error

	Create(groupBuy *model.GroupBuy) error
	FindByID(id uint) (*model.GroupBuy, error)
	FindByIDForUpdate(id uint) (*model.GroupBuy, error)
	FindAll(filter GroupBuyFilter) ([]model.GroupBuy, int64, error)
	FindDue(status model.GroupBuyStatus, column string, before time.Time) ([]model.GroupBuy, error)
	Save(groupBuy *model.GroupBuy) error
	AdjustParticipants(id uint, delta int) error

	CreateParticipation(p *model.Participation) error
	FindParticipation(userID, groupBuyID uint) (*model.Participation, error)
	DeleteParticipation(id uint) error
	ParticipantIDs(groupBuyID uint) ([]uint, error)

	CreateBid(bid *model.Bid) error
	FindBid(sellerID, groupBuyID uint) (*model.Bid, error)
	FindBidByID(id uint) (*model.Bid, error)
	FindBids(groupBuyID uint) ([]model.Bid, error)
	MarkBidSelected(id uint) error

	CreateVote(vote *model.Vote) error
	FindVote(participantID, groupBuyID uint) (*model.Vote, error)
	CountVotes(groupBuyID uint) (confirm int64, cancel int64, err error)
}

type groupBuyRepository struct {
	db *gorm.DB
}

func NewGroupBuyRepository(db *gorm.DB) GroupBuyRepository {
	return &groupBuyRepository{db: db}
}

func (r *groupBuyRepository) WithTx(tx *gorm.DB) GroupBuyRepository {
	return &groupBuyRepository{db: tx}
}

func (r *groupBuyRepository) FindCategories() ([]model.Category, error) {
	var categories []model.Category
	err := r.db.Order("id ASC").Find(&categories).Error
	return categories, err
}

func (r *groupBuyRepository) FindCategoryByName(name string) (*model.Category, error) {
	var category model.Category
	if err := r.db.Where("name = ?", name).First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *groupBuyRepository) CreateCategory(category *model.Category) error {
	return r.db.Create(category).Error
}

func (r *groupBuyRepository) FindProducts(categoryID *uint) ([]model.Product, error) {
	query := r.db.Where("is_available = ?", true)
	if categoryID != nil {
		query = query.Where("category_id = ?", *categoryID)
	}
	var products []model.Product
	err := query.Preload("Category").Order("id ASC").Find(&products).Error
	return products, err
}

func (r *groupBuyRepository) FindProductByID(id uint) (*model.Product, error) {
	var product model.Product
	if err := r.db.Preload("Category").First(&product, id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *groupBuyRepository) FindProductByName(categoryID uint, name string) (*model.Product, error) {
	var product model.Product
	if err := r.db.Where("category_id = ? AND name = ?", categoryID, name).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *groupBuyRepository) SaveProduct(product *model.Product) error {
	return r.db.Omit(clause.Associations).Save(product).Error
}

func (r *groupBuyRepository) Create(groupBuy *model.GroupBuy) error {
	logger.Debug("Creating group buy", map[string]interface{}{
		"creator_id": groupBuy.CreatorID,
		"product_id": groupBuy.ProductID,
	})
	return r.db.Omit(clause.Associations).Create(groupBuy).Error
}

func (r *groupBuyRepository) FindByID(id uint) (*model.GroupBuy, error) {
	var groupBuy model.GroupBuy
	if err := r.db.Preload("Product").Preload("Product.Category").First(&groupBuy, id).Error; err != nil {
		return nil, err
	}
	return &groupBuy, nil
}

func (r *groupBuyRepository) FindByIDForUpdate(id uint) (*model.GroupBuy, error) {
	var groupBuy model.GroupBuy
	if err := lockForUpdate(r.db).First(&groupBuy, id).Error; err != nil {
		return nil, err
	}
	return &groupBuy, nil
}

func (r *groupBuyRepository) FindAll(filter GroupBuyFilter) ([]model.GroupBuy, int64, error) {
	query := r.db.Model(&model.GroupBuy{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.CategoryID != nil {
		query = query.Where("product_id IN (?)",
			r.db.Model(&model.Product{}).Select("id").Where("category_id = ?", *filter.CategoryID))
	}
	if filter.Region != "" {
		query = query.Where("region LIKE ? OR region_type = ?", "%"+filter.Region+"%", "nationwide")
	}
	if filter.CreatorID != nil {
		query = query.Where("creator_id = ?", *filter.CreatorID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var list []model.GroupBuy
	err := paginate(query.Order("created_at DESC").Order("id DESC"), filter.Page, filter.PageSize).
		Preload("Product").
		Find(&list).Error
	return list, total, err
}

// FindDue status 단계이면서 column 시각이 before 이전인 공구
func (r *groupBuyRepository) FindDue(status model.GroupBuyStatus, column string, before time.Time) ([]model.GroupBuy, error) {
	var list []model.GroupBuy
	err := r.db.
		Where("status = ?", status).
		Where(clause.Lte{Column: clause.Column{Name: column}, Value: before}).
		Order("id ASC").
		Find(&list).Error
	return list, err
}

func (r *groupBuyRepository) Save(groupBuy *model.GroupBuy) error {
	return r.db.Omit(clause.Associations).Save(groupBuy).Error
}

func (r *groupBuyRepository) AdjustParticipants(id uint, delta int) error {
	return r.db.Model(&model.GroupBuy{}).Where("id = ?", id).
		UpdateColumn("current_participants", gorm.Expr("current_participants + ?", delta)).Error
}

func (r *groupBuyRepository) CreateParticipation(p *model.Participation) error {
	return r.db.Create(p).Error
}

func (r *groupBuyRepository) FindParticipation(userID, groupBuyID uint) (*model.Participation, error) {
	var p model.Participation
	if err := r.db.Where("user_id = ? AND group_buy_id = ?", userID, groupBuyID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *groupBuyRepository) DeleteParticipation(id uint) error {
	return r.db.Delete(&model.Participation{}, id).Error
}

func (r *groupBuyRepository) ParticipantIDs(groupBuyID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&model.Participation{}).Where("group_buy_id = ?", groupBuyID).Pluck("user_id", &ids).Error
	return ids, err
}

func (r *groupBuyRepository) CreateBid(bid *model.Bid) error {
	return r.db.Omit(clause.Associations).Create(bid).Error
}

func (r *groupBuyRepository) FindBid(sellerID, groupBuyID uint) (*model.Bid, error) {
	var bid model.Bid
	if err := r.db.Where("seller_id = ? AND group_buy_id = ?", sellerID, groupBuyID).First(&bid).Error; err != nil {
		return nil, err
	}
	return &bid, nil
}

func (r *groupBuyRepository) FindBidByID(id uint) (*model.Bid, error) {
	var bid model.Bid
	if err := r.db.First(&bid, id).Error; err != nil {
		return nil, err
	}
	return &bid, nil
}

func (r *groupBuyRepository) FindBids(groupBuyID uint) ([]model.Bid, error) {
	var bids []model.Bid
	err := r.db.Where("group_buy_id = ?", groupBuyID).Order("created_at ASC").Order("id ASC").Find(&bids).Error
	return bids, err
}

func (r *groupBuyRepository) MarkBidSelected(id uint) error {
	return r.db.Model(&model.Bid{}).Where("id = ?", id).Update("is_selected", true).Error
}

func (r *groupBuyRepository) CreateVote(vote *model.Vote) error {
	return r.db.Create(vote).Error
}

func (r *groupBuyRepository) FindVote(participantID, groupBuyID uint) (*model.Vote, error) {
	var vote model.Vote
	if err := r.db.Where("participant_id = ? AND group_buy_id = ?", participantID, groupBuyID).First(&vote).Error; err != nil {
		return nil, err
	}
	return &vote, nil
}

func (r *groupBuyRepository) CountVotes(groupBuyID uint) (int64, int64, error) {
	var confirm, cancel int64
	if err := r.db.Model(&model.Vote{}).Where("group_buy_id = ? AND choice = ?", groupBuyID, model.VoteConfirm).Count(&confirm).Error; err != nil {
		return 0, 0, err
	}
	if err := r.db.Model(&model.Vote{}).Where("group_buy_id = ? AND choice = ?", groupBuyID, model.VoteCancel).Count(&cancel).Error; err != nil {
		return 0, 0, err
	}
	return confirm, cancel, nil
}
