package repository

import (
	"github.com/dungji/dungji-market-backend/internal/app/model"
	"github.com/dungji/dungji-market-backend/pkg/logger"
	"gorm.io/gorm"
)

type OfferRepository interface {
	WithTx(tx *gorm.DB) OfferRepository
	Create(offer *model.UsedOffer) error
	FindByID(id uint) (*model.UsedOffer, error)
	FindByIDForUpdate(id uint) (*model.UsedOffer, error)
	CountByItemAndBuyer(itemID, buyerID uint) (int64, error)
	CountPendingBuyers(itemID uint) (int64, error)
	FindByItem(itemID uint, status model.OfferStatus) ([]model.UsedOffer, error)
	FindByBuyer(buyerID uint, status model.OfferStatus) ([]model.UsedOffer, error)
	UpdateStatus(id uint, status model.OfferStatus) error
	CancelPendingByItemAndBuyer(itemID, buyerID uint) (int64, error)
	CancelPendingByItem(itemID uint) (int64, error)
	RejectOtherPending(itemID, acceptedOfferID uint) (int64, error)
}

type offerRepository struct {
	db *gorm.DB
}

func NewOfferRepository(db *gorm.DB) OfferRepository {
	return &offerRepository{db: db}
}

func (r *offerRepository) WithTx(tx *gorm.DB) OfferRepository {
	return &offerRepository{db: tx}
}

func (r *offerRepository) Create(offer *model.UsedOffer) error {
	if err := r.db.Create(offer).Error; err != nil {
		logger.Error("Failed to create offer", err, map[string]interface{}{
			"item_id":  offer.ItemID,
			"buyer_id": offer.BuyerID,
		})
		return err
	}
	return nil
}

func (r *offerRepository) FindByID(id uint) (*model.UsedOffer, error) {
	var offer model.UsedOffer
	if err := r.db.Preload("Item").Preload("Buyer").First(&offer, id).Error; err != nil {
		return nil, err
	}
	return &offer, nil
}

func (r *offerRepository) FindByIDForUpdate(id uint) (*model.UsedOffer, error) {
	var offer model.UsedOffer
	if err := lockForUpdate(r.db).First(&offer, id).Error; err != nil {
		return nil, err
	}
	return &offer, nil
}

// CountByItemAndBuyer 상태와 무관하게 지금까지 제안한 횟수
func (r *offerRepository) CountByItemAndBuyer(itemID, buyerID uint) (int64, error) {
	var count int64
	err := r.db.Model(&model.UsedOffer{}).
		Where("item_id = ? AND buyer_id = ?", itemID, buyerID).
		Count(&count).Error
	return count, err
}

// CountPendingBuyers 대기중 제안을 가진 구매자 수
func (r *offerRepository) CountPendingBuyers(itemID uint) (int64, error) {
	var count int64
	err := r.db.Model(&model.UsedOffer{}).
		Where("item_id = ? AND status = ?", itemID, model.OfferPending).
		Distinct("buyer_id").
		Count(&count).Error
	return count, err
}

func (r *offerRepository) FindByItem(itemID uint, status model.OfferStatus) ([]model.UsedOffer, error) {
	query := r.db.Where("item_id = ?", itemID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var offers []model.UsedOffer
	err := query.Preload("Buyer").Order("created_at DESC").Order("id DESC").Find(&offers).Error
	return offers, err
}

func (r *offerRepository) FindByBuyer(buyerID uint, status model.OfferStatus) ([]model.UsedOffer, error) {
	query := r.db.Where("buyer_id = ?", buyerID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var offers []model.UsedOffer
	err := query.Preload("Item").Order("created_at DESC").Order("id DESC").Find(&offers).Error
	return offers, err
}

func (r *offerRepository) UpdateStatus(id uint, status model.OfferStatus) error {
	return r.db.Model(&model.UsedOffer{}).Where("id = ?", id).Update("status", status).Error
}

func (r *offerRepository) CancelPendingByItemAndBuyer(itemID, buyerID uint) (int64, error) {
	res := r.db.Model(&model.UsedOffer{}).
		Where("item_id = ? AND buyer_id = ? AND status = ?", itemID, buyerID, model.OfferPending).
		Update("status", model.OfferCancelled)
	return res.RowsAffected, res.Error
}

func (r *offerRepository) CancelPendingByItem(itemID uint) (int64, error) {
	res := r.db.Model(&model.UsedOffer{}).
		Where("item_id = ? AND status = ?", itemID, model.OfferPending).
		Update("status", model.OfferCancelled)
	return res.RowsAffected, res.Error
}

// RejectOtherPending 수락된 제안 외 대기중 제안 일괄 거절
func (r *offerRepository) RejectOtherPending(itemID, acceptedOfferID uint) (int64, error) {
	res := r.db.Model(&model.UsedOffer{}).
		Where("item_id = ? AND id <> ? AND status = ?", itemID, acceptedOfferID, model.OfferPending).
		Update("status", model.OfferRejected)
	return res.RowsAffected, res.Error
}
