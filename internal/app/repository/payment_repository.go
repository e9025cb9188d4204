package repository

import (
	"github.com/dungji/dungji-market-backend/internal/app/model"
	"github.com/dungji/dungji-market-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PaymentRepository interface {
	WithTx(tx *gorm.DB) PaymentRepository
	Create(payment *model.Payment) error
	FindByID(id uint) (*model.Payment, error)
	FindByOrderID(orderID string) (*model.Payment, error)
	FindByOrderIDForUpdate(orderID string) (*model.Payment, error)
	FindByIDForUpdate(id uint) (*model.Payment, error)
	FindByUser(userID uint, page, pageSize int) ([]model.Payment, int64, error)
	Save(payment *model.Payment) error

	CreateRefundRequest(req *model.RefundRequest) error
	FindRefundRequestByID(id uint) (*model.RefundRequest, error)
	FindRefundRequestForUpdate(id uint) (*model.RefundRequest, error)
	HasOpenRefundRequest(paymentID uint) (bool, error)
	PaymentIDsWithRefundRequest(paymentIDs []uint) (map[uint]bool, error)
	FindRefundRequests(userID *uint, status model.RefundStatus, page, pageSize int) ([]model.RefundRequest, int64, error)
	SaveRefundRequest(req *model.RefundRequest) error
}

type paymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) WithTx(tx *gorm.DB) PaymentRepository {
	return &paymentRepository{db: tx}
}

func (r *paymentRepository) Create(payment *model.Payment) error {
	logger.Debug("Creating payment in database", map[string]interface{}{
		"user_id":  payment.UserID,
		"order_id": payment.OrderID,
		"amount":   payment.Amount,
	})

	if err := r.db.Create(payment).Error; err != nil {
		logger.Error("Failed to create payment", err, map[string]interface{}{
			"order_id": payment.OrderID,
		})
		return err
	}
	return nil
}

func (r *paymentRepository) FindByID(id uint) (*model.Payment, error) {
	var payment model.Payment
	if err := r.db.First(&payment, id).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) FindByOrderID(orderID string) (*model.Payment, error) {
	var payment model.Payment
	if err := r.db.Where("order_id = ?", orderID).First(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) FindByOrderIDForUpdate(orderID string) (*model.Payment, error) {
	var payment model.Payment
	if err := lockForUpdate(r.db).Where("order_id = ?", orderID).First(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) FindByIDForUpdate(id uint) (*model.Payment, error) {
	var payment model.Payment
	if err := lockForUpdate(r.db).First(&payment, id).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) FindByUser(userID uint, page, pageSize int) ([]model.Payment, int64, error) {
	query := r.db.Model(&model.Payment{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var payments []model.Payment
	err := paginate(query.Order("created_at DESC").Order("id DESC"), page, pageSize).Find(&payments).Error
	return payments, total, err
}

func (r *paymentRepository) Save(payment *model.Payment) error {
	if err := r.db.Omit(clause.Associations).Save(payment).Error; err != nil {
		logger.Error("Failed to save payment", err, map[string]interface{}{
			"payment_id": payment.ID,
			"status":     payment.Status,
		})
		return err
	}
	return nil
}

func (r *paymentRepository) CreateRefundRequest(req *model.RefundRequest) error {
	return r.db.Create(req).Error
}

func (r *paymentRepository) FindRefundRequestByID(id uint) (*model.RefundRequest, error) {
	var req model.RefundRequest
	if err := r.db.Preload("Payment").Preload("User").First(&req, id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *paymentRepository) FindRefundRequestForUpdate(id uint) (*model.RefundRequest, error) {
	var req model.RefundRequest
	if err := lockForUpdate(r.db).First(&req, id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

// HasOpenRefundRequest 대기/승인된 환불 요청 존재 여부
func (r *paymentRepository) HasOpenRefundRequest(paymentID uint) (bool, error) {
	var count int64
	err := r.db.Model(&model.RefundRequest{}).
		Where("payment_id = ? AND status IN ?", paymentID, []model.RefundStatus{model.RefundPending, model.RefundApproved}).
		Count(&count).Error
	return count > 0, err
}

func (r *paymentRepository) PaymentIDsWithRefundRequest(paymentIDs []uint) (map[uint]bool, error) {
	result := make(map[uint]bool, len(paymentIDs))
	if len(paymentIDs) == 0 {
		return result, nil
	}
	var ids []uint
	err := r.db.Model(&model.RefundRequest{}).
		Where("payment_id IN ? AND status IN ?", paymentIDs, []model.RefundStatus{model.RefundPending, model.RefundApproved}).
		Pluck("payment_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		result[id] = true
	}
	return result, nil
}

func (r *paymentRepository) FindRefundRequests(userID *uint, status model.RefundStatus, page, pageSize int) ([]model.RefundRequest, int64, error) {
	query := r.db.Model(&model.RefundRequest{})
	if userID != nil {
		query = query.Where("user_id = ?", *userID)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var reqs []model.RefundRequest
	err := paginate(query.Order("created_at DESC").Order("id DESC"), page, pageSize).
		Preload("Payment").
		Find(&reqs).Error
	return reqs, total, err
}

func (r *paymentRepository) SaveRefundRequest(req *model.RefundRequest) error {
	return r.db.Omit(clause.Associations).Save(req).Error
}
