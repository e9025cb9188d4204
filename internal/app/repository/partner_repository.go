package repository

import (
	"time"

	"github.com/dungji/dungji-market-backend/internal/app/model"
	"github.com/dungji/dungji-market-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReferralFilter struct {
	SubscriptionStatus model.SubscriptionStatus
	SettlementStatus   model.ReferralSettlementStatus
	From               *time.Time
	To                 *time.Time
	Page               int
	PageSize           int
}

// MonthlyReferralStat 월별 추천 집계
type MonthlyReferralStat struct {
	Month       string `json:"month"` // YYYY-MM
	Signups     int64  `json:"signups"`
	Revenue     int64  `json:"revenue"`
	Commissions int64  `json:"commissions"`
}

type PartnerRepository interface {
	WithTx(tx *gorm.DB) PartnerRepository
	Create(partner *model.Partner) error
	FindByID(id uint) (*model.Partner, error)
	FindByUserID(userID uint) (*model.Partner, error)
	FindByCode(code string) (*model.Partner, error)
	ExistsByCode(code string) (bool, error)
	Save(partner *model.Partner) error

	CreateReferral(record *model.ReferralRecord) error
	SaveReferral(record *model.ReferralRecord) error
	FindReferralByUser(partnerID, userID uint) (*model.ReferralRecord, error)
	FindReferralByReferredUser(userID uint) (*model.ReferralRecord, error)
	FindReferrals(partnerID uint, filter ReferralFilter) ([]model.ReferralRecord, int64, error)
	CountReferralsSince(partnerID uint, since time.Time) (int64, error)
	CountActiveSubscribers(partnerID uint) (int64, error)
	SumAmountsSince(partnerID uint, since time.Time) (revenue int64, commission int64, err error)
	SumPendingCommission(partnerID uint) (int64, error)
	MonthlyStats(partnerID uint, since time.Time) ([]model.ReferralRecord, error)
	MarkPendingRequested(partnerID, settlementID uint) (int64, error)
	UpdateReferralsBySettlement(settlementID uint, fields map[string]interface{}) (int64, error)

	CreateSettlement(settlement *model.PartnerSettlement) error
	FindSettlementForUpdate(id uint) (*model.PartnerSettlement, error)
	HasOpenSettlement(partnerID uint) (bool, error)
	FindSettlements(partnerID *uint, status model.SettlementStatus, page, pageSize int) ([]model.PartnerSettlement, int64, error)
	SaveSettlement(settlement *model.PartnerSettlement) error

	FindBankAccount(partnerID uint) (*model.PartnerBankAccount, error)
	SaveBankAccount(account *model.PartnerBankAccount) error
}

type partnerRepository struct {
	db *gorm.DB
}

func NewPartnerRepository(db *gorm.DB) PartnerRepository {
	return &partnerRepository{db: db}
}

func (r *partnerRepository) WithTx(tx *gorm.DB) PartnerRepository {
	return &partnerRepository{db: tx}
}

func (r *partnerRepository) Create(partner *model.Partner) error {
	return r.db.Create(partner).Error
}

func (r *partnerRepository) FindByID(id uint) (*model.Partner, error) {
	var partner model.Partner
	if err := r.db.First(&partner, id).Error; err != nil {
		return nil, err
	}
	return &partner, nil
}

func (r *partnerRepository) FindByUserID(userID uint) (*model.Partner, error) {
	var partner model.Partner
	if err := r.db.Where("user_id = ?", userID).First(&partner).Error; err != nil {
		return nil, err
	}
	return &partner, nil
}

func (r *partnerRepository) FindByCode(code string) (*model.Partner, error) {
	var partner model.Partner
	if err := r.db.Where("partner_code = ? AND is_active = ?", code, true).First(&partner).Error; err != nil {
		return nil, err
	}
	return &partner, nil
}

func (r *partnerRepository) ExistsByCode(code string) (bool, error) {
	var count int64
	err := r.db.Model(&model.Partner{}).Where("partner_code = ?", code).Count(&count).Error
	return count > 0, err
}

func (r *partnerRepository) Save(partner *model.Partner) error {
	return r.db.Omit(clause.Associations).Save(partner).Error
}

func (r *partnerRepository) CreateReferral(record *model.ReferralRecord) error {
	logger.Debug("Creating referral record", map[string]interface{}{
		"partner_id":       record.PartnerID,
		"referred_user_id": record.ReferredUserID,
	})
	return r.db.Create(record).Error
}

func (r *partnerRepository) SaveReferral(record *model.ReferralRecord) error {
	return r.db.Omit(clause.Associations).Save(record).Error
}

func (r *partnerRepository) FindReferralByUser(partnerID, userID uint) (*model.ReferralRecord, error) {
	var record model.ReferralRecord
	err := r.db.Where("partner_id = ? AND referred_user_id = ?", partnerID, userID).
		Order("id DESC").
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *partnerRepository) FindReferralByReferredUser(userID uint) (*model.ReferralRecord, error) {
	var record model.ReferralRecord
	if err := r.db.Where("referred_user_id = ?", userID).Order("id DESC").First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *partnerRepository) FindReferrals(partnerID uint, filter ReferralFilter) ([]model.ReferralRecord, int64, error) {
	query := r.db.Model(&model.ReferralRecord{}).Where("partner_id = ?", partnerID)

	if filter.SubscriptionStatus != "" {
		query = query.Where("subscription_status = ?", filter.SubscriptionStatus)
	}
	if filter.SettlementStatus != "" {
		query = query.Where("settlement_status = ?", filter.SettlementStatus)
	}
	if filter.From != nil {
		query = query.Where("joined_date >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("joined_date < ?", *filter.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var records []model.ReferralRecord
	q := query.Order("joined_date DESC").Order("id DESC").Preload("ReferredUser")
	if filter.PageSize >= 0 {
		q = paginate(q, filter.Page, filter.PageSize)
	}
	err := q.Find(&records).Error
	return records, total, err
}

func (r *partnerRepository) CountReferralsSince(partnerID uint, since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&model.ReferralRecord{}).
		Where("partner_id = ? AND joined_date >= ?", partnerID, since).
		Distinct("referred_user_id").
		Count(&count).Error
	return count, err
}

func (r *partnerRepository) CountActiveSubscribers(partnerID uint) (int64, error) {
	var count int64
	err := r.db.Model(&model.ReferralRecord{}).
		Where("partner_id = ? AND subscription_status = ? AND subscription_amount > 0", partnerID, model.SubscriptionActive).
		Count(&count).Error
	return count, err
}

// SumAmountsSince 기간 내 갱신된 추천 매출/수수료 합계
func (r *partnerRepository) SumAmountsSince(partnerID uint, since time.Time) (int64, int64, error) {
	var row struct {
		Revenue    int64
		Commission int64
	}
	err := r.db.Model(&model.ReferralRecord{}).
		Select("COALESCE(SUM(total_amount), 0) AS revenue, COALESCE(SUM(commission_amount), 0) AS commission").
		Where("partner_id = ? AND updated_at >= ?", partnerID, since).
		Scan(&row).Error
	return row.Revenue, row.Commission, err
}

// SumPendingCommission 정산 가능 금액
func (r *partnerRepository) SumPendingCommission(partnerID uint) (int64, error) {
	var sum int64
	err := r.db.Model(&model.ReferralRecord{}).
		Select("COALESCE(SUM(commission_amount), 0)").
		Where("partner_id = ? AND settlement_status = ?", partnerID, model.ReferralSettlementPending).
		Scan(&sum).Error
	return sum, err
}

// MonthlyStats 월별 집계는 DB마다 날짜 함수가 달라 서비스에서 묶는다
func (r *partnerRepository) MonthlyStats(partnerID uint, since time.Time) ([]model.ReferralRecord, error) {
	var records []model.ReferralRecord
	err := r.db.Where("partner_id = ? AND joined_date >= ?", partnerID, since).
		Order("joined_date ASC").
		Find(&records).Error
	return records, err
}

func (r *partnerRepository) MarkPendingRequested(partnerID, settlementID uint) (int64, error) {
	res := r.db.Model(&model.ReferralRecord{}).
		Where("partner_id = ? AND settlement_status = ?", partnerID, model.ReferralSettlementPending).
		Updates(map[string]interface{}{
			"settlement_status": model.ReferralSettlementRequested,
			"settlement_id":     settlementID,
		})
	return res.RowsAffected, res.Error
}

func (r *partnerRepository) UpdateReferralsBySettlement(settlementID uint, fields map[string]interface{}) (int64, error) {
	res := r.db.Model(&model.ReferralRecord{}).
		Where("settlement_id = ?", settlementID).
		Updates(fields)
	return res.RowsAffected, res.Error
}

func (r *partnerRepository) CreateSettlement(settlement *model.PartnerSettlement) error {
	return r.db.Create(settlement).Error
}

func (r *partnerRepository) FindSettlementForUpdate(id uint) (*model.PartnerSettlement, error) {
	var settlement model.PartnerSettlement
	if err := lockForUpdate(r.db).First(&settlement, id).Error; err != nil {
		return nil, err
	}
	return &settlement, nil
}

// HasOpenSettlement 대기/처리중 정산 요청 존재 여부
func (r *partnerRepository) HasOpenSettlement(partnerID uint) (bool, error) {
	var count int64
	err := r.db.Model(&model.PartnerSettlement{}).
		Where("partner_id = ? AND status IN ?", partnerID, []model.SettlementStatus{model.SettlementPending, model.SettlementProcessing}).
		Count(&count).Error
	return count > 0, err
}

func (r *partnerRepository) FindSettlements(partnerID *uint, status model.SettlementStatus, page, pageSize int) ([]model.PartnerSettlement, int64, error) {
	query := r.db.Model(&model.PartnerSettlement{})
	if partnerID != nil {
		query = query.Where("partner_id = ?", *partnerID)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var list []model.PartnerSettlement
	err := paginate(query.Order("requested_at DESC").Order("id DESC"), page, pageSize).
		Preload("Partner").
		Find(&list).Error
	return list, total, err
}

func (r *partnerRepository) SaveSettlement(settlement *model.PartnerSettlement) error {
	return r.db.Omit(clause.Associations).Save(settlement).Error
}

func (r *partnerRepository) FindBankAccount(partnerID uint) (*model.PartnerBankAccount, error) {
	var account model.PartnerBankAccount
	if err := r.db.Where("partner_id = ?", partnerID).First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *partnerRepository) SaveBankAccount(account *model.PartnerBankAccount) error {
	return r.db.Save(account).Error
}
