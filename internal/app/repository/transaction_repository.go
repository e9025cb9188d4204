package repository

import (
	"github.com/dungji/dungji-market-backend/internal/app/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TransactionRepository interface {
	WithTx(tx *gorm.DB) TransactionRepository
	FindByID(id uint) (*model.UsedTransaction, error)
	FindByItemID(itemID uint) (*model.UsedTransaction, error)
	FindByItemIDForUpdate(itemID uint) (*model.UsedTransaction, error)
	FindByUser(userID uint, status model.TransactionStatus) ([]model.UsedTransaction, error)
	Save(transaction *model.UsedTransaction) error
	CreateCancellation(cancellation *model.UsedTradeCancellation) error
	FindCancellations(itemID uint) ([]model.UsedTradeCancellation, error)
}

type transactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) WithTx(tx *gorm.DB) TransactionRepository {
	return &transactionRepository{db: tx}
}

func (r *transactionRepository) FindByID(id uint) (*model.UsedTransaction, error) {
	var t model.UsedTransaction
	if err := r.db.Preload("Item").First(&t, id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *transactionRepository) FindByItemID(itemID uint) (*model.UsedTransaction, error) {
	var t model.UsedTransaction
	err := r.db.Preload("Seller").Preload("Buyer").Where("item_id = ?", itemID).First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *transactionRepository) FindByItemIDForUpdate(itemID uint) (*model.UsedTransaction, error) {
	var t model.UsedTransaction
	if err := lockForUpdate(r.db).Where("item_id = ?", itemID).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// FindByUser 판매/구매 양쪽 거래 내역
func (r *transactionRepository) FindByUser(userID uint, status model.TransactionStatus) ([]model.UsedTransaction, error) {
	query := r.db.Where("seller_id = ? OR buyer_id = ?", userID, userID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var txs []model.UsedTransaction
	err := query.Preload("Item").Order("updated_at DESC").Find(&txs).Error
	return txs, err
}

func (r *transactionRepository) Save(transaction *model.UsedTransaction) error {
	return r.db.Omit(clause.Associations).Save(transaction).Error
}

func (r *transactionRepository) CreateCancellation(cancellation *model.UsedTradeCancellation) error {
	return r.db.Create(cancellation).Error
}

func (r *transactionRepository) FindCancellations(itemID uint) ([]model.UsedTradeCancellation, error) {
	var list []model.UsedTradeCancellation
	err := r.db.Where("item_id = ?", itemID).Order("created_at DESC").Find(&list).Error
	return list, err
}
