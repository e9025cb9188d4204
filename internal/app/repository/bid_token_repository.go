package repository

import (
	"time"

	"github.com/dungji/dungji-market-backend/internal/app/model"
	"github.com/dungji/dungji-market-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BidTokenRepository interface {
	WithTx(tx *gorm.DB) BidTokenRepository
	Create(token *model.BidToken) error
	CreateBatch(tokens []model.BidToken) error
	CountActiveSingles(sellerID uint) (int64, error)
	CountActiveSinglesBySellers(sellerIDs []uint) (map[uint]int64, error)
	FindValidUnlimited(sellerID uint, now time.Time) (*model.BidToken, error)
	FindActiveSinglesForUpdate(sellerID uint, limit int) ([]model.BidToken, error)
	FindUnlimitedExpiringAfterForUpdate(sellerID uint, after time.Time) ([]model.BidToken, error)
	FindByPayment(paymentID uint) ([]model.BidToken, error)
	FindByID(id uint) (*model.BidToken, error)
	Save(token *model.BidToken) error
	ExpireByIDs(ids []uint) error
	ExpireActiveUnlimited(sellerID uint) (int64, error)
	ExpireOverdueUnlimited(now time.Time) (int64, error)

	CreatePurchase(purchase *model.BidTokenPurchase) error
	FindRecentPurchases(sellerID uint, limit int) ([]model.BidTokenPurchase, error)

	CreateAdjustmentLog(log *model.BidTokenAdjustmentLog) error
	FindAdjustmentLogs(sellerID *uint, page, pageSize int) ([]model.BidTokenAdjustmentLog, int64, error)
}

type bidTokenRepository struct {
	db *gorm.DB
}

func NewBidTokenRepository(db *gorm.DB) BidTokenRepository {
	return &bidTokenRepository{db: db}
}

func (r *bidTokenRepository) WithTx(tx *gorm.DB) BidTokenRepository {
	return &bidTokenRepository{db: tx}
}

func (r *bidTokenRepository) Create(token *model.BidToken) error {
	return r.db.Create(token).Error
}

func (r *bidTokenRepository) CreateBatch(tokens []model.BidToken) error {
	if len(tokens) == 0 {
		return nil
	}
	logger.Debug("Creating bid tokens", map[string]interface{}{
		"seller_id": tokens[0].SellerID,
		"count":     len(tokens),
	})
	return r.db.CreateInBatches(tokens, 100).Error
}

func (r *bidTokenRepository) CountActiveSingles(sellerID uint) (int64, error) {
	var count int64
	err := r.db.Model(&model.BidToken{}).
		Where("seller_id = ? AND token_type = ? AND status = ?", sellerID, model.BidTokenSingle, model.BidTokenActive).
		Count(&count).Error
	return count, err
}

func (r *bidTokenRepository) CountActiveSinglesBySellers(sellerIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(sellerIDs))
	if len(sellerIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		SellerID uint
		Count    int64
	}
	err := r.db.Model(&model.BidToken{}).
		Select("seller_id, COUNT(*) AS count").
		Where("seller_id IN ? AND token_type = ? AND status = ?", sellerIDs, model.BidTokenSingle, model.BidTokenActive).
		Group("seller_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.SellerID] = row.Count
	}
	return counts, nil
}

// FindValidUnlimited 만료가 가장 늦은 유효 구독권
func (r *bidTokenRepository) FindValidUnlimited(sellerID uint, now time.Time) (*model.BidToken, error) {
	var token model.BidToken
	err := r.db.
		Where("seller_id = ? AND token_type = ? AND status = ? AND expires_at > ?",
			sellerID, model.BidTokenUnlimited, model.BidTokenActive, now).
		Order("expires_at DESC").
		First(&token).Error
	if err != nil {
		return nil, err
	}
	return &token, nil
}

// FindActiveSinglesForUpdate 오래된 순으로 잠금 조회
func (r *bidTokenRepository) FindActiveSinglesForUpdate(sellerID uint, limit int) ([]model.BidToken, error) {
	var tokens []model.BidToken
	query := lockForUpdate(r.db).
		Where("seller_id = ? AND token_type = ? AND status = ?", sellerID, model.BidTokenSingle, model.BidTokenActive).
		Order("created_at ASC").
		Order("id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&tokens).Error
	return tokens, err
}

// FindUnlimitedExpiringAfterForUpdate 주어진 시각 뒤에 만료되는 활성 구독권 (이어 붙은 구독권)
func (r *bidTokenRepository) FindUnlimitedExpiringAfterForUpdate(sellerID uint, after time.Time) ([]model.BidToken, error) {
	var tokens []model.BidToken
	err := lockForUpdate(r.db).
		Where("seller_id = ? AND token_type = ? AND status = ? AND expires_at > ?",
			sellerID, model.BidTokenUnlimited, model.BidTokenActive, after).
		Order("expires_at ASC").
		Find(&tokens).Error
	return tokens, err
}

func (r *bidTokenRepository) FindByPayment(paymentID uint) ([]model.BidToken, error) {
	var tokens []model.BidToken
	err := r.db.Where("payment_id = ?", paymentID).Find(&tokens).Error
	return tokens, err
}

func (r *bidTokenRepository) FindByID(id uint) (*model.BidToken, error) {
	var token model.BidToken
	if err := r.db.First(&token, id).Error; err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *bidTokenRepository) Save(token *model.BidToken) error {
	return r.db.Omit(clause.Associations).Save(token).Error
}

func (r *bidTokenRepository) ExpireByIDs(ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.Model(&model.BidToken{}).
		Where("id IN ?", ids).
		Update("status", model.BidTokenExpired).Error
}

func (r *bidTokenRepository) ExpireActiveUnlimited(sellerID uint) (int64, error) {
	res := r.db.Model(&model.BidToken{}).
		Where("seller_id = ? AND token_type = ? AND status = ?", sellerID, model.BidTokenUnlimited, model.BidTokenActive).
		Update("status", model.BidTokenExpired)
	return res.RowsAffected, res.Error
}

func (r *bidTokenRepository) ExpireOverdueUnlimited(now time.Time) (int64, error) {
	res := r.db.Model(&model.BidToken{}).
		Where("token_type = ? AND status = ? AND expires_at <= ?", model.BidTokenUnlimited, model.BidTokenActive, now).
		Update("status", model.BidTokenExpired)
	if res.Error != nil {
		logger.Error("Failed to expire unlimited bid tokens", res.Error)
	}
	return res.RowsAffected, res.Error
}

func (r *bidTokenRepository) CreatePurchase(purchase *model.BidTokenPurchase) error {
	return r.db.Create(purchase).Error
}

func (r *bidTokenRepository) FindRecentPurchases(sellerID uint, limit int) ([]model.BidTokenPurchase, error) {
	var purchases []model.BidTokenPurchase
	err := r.db.Where("seller_id = ?", sellerID).
		Order("created_at DESC").
		Limit(limit).
		Find(&purchases).Error
	return purchases, err
}

func (r *bidTokenRepository) CreateAdjustmentLog(log *model.BidTokenAdjustmentLog) error {
	return r.db.Create(log).Error
}

func (r *bidTokenRepository) FindAdjustmentLogs(sellerID *uint, page, pageSize int) ([]model.BidTokenAdjustmentLog, int64, error) {
	query := r.db.Model(&model.BidTokenAdjustmentLog{})
	if sellerID != nil {
		query = query.Where("seller_id = ?", *sellerID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var logs []model.BidTokenAdjustmentLog
	err := paginate(query.Order("created_at DESC").Order("id DESC"), page, pageSize).
		Preload("Seller").
		Preload("Admin").
		Find(&logs).Error
	return logs, total, err
}
