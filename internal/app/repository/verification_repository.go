package repository

import (
	"time"

	"github.com/dungji/dungji-market-backend/internal/app/model"
	"gorm.io/gorm"
)

type VerificationRepository interface {
	WithTx(tx *gorm.DB) VerificationRepository
	CreatePhoneVerification(v *model.PhoneVerification) error
	FindLatestPending(phone string, purpose model.VerificationPurpose) (*model.PhoneVerification, error)
	FindLatestByPhone(phone string) (*model.PhoneVerification, error)
	CountByPhoneSince(phone string, since time.Time) (int64, error)
	CountByIPSince(ip string, since time.Time) (int64, error)
	ExpirePending(phone string, purpose model.VerificationPurpose) error
	SavePhoneVerification(v *model.PhoneVerification) error
	DeleteOlderThan(before time.Time) (int64, error)
	HasRecentVerified(phone string, purpose model.VerificationPurpose, since time.Time) (bool, error)

	CreateBusinessVerification(v *model.BusinessNumberVerification) error
	FindLatestBusinessVerification(userID uint) (*model.BusinessNumberVerification, error)
	FindRecentValidByNumber(number string, since time.Time) (*model.BusinessNumberVerification, error)
}

type verificationRepository struct {
	db *gorm.DB
}

func NewVerificationRepository(db *gorm.DB) VerificationRepository {
	return &verificationRepository{db: db}
}

func (r *verificationRepository) WithTx(tx *gorm.DB) VerificationRepository {
	return &verificationRepository{db: tx}
}

func (r *verificationRepository) CreatePhoneVerification(v *model.PhoneVerification) error {
	return r.db.Create(v).Error
}

func (r *verificationRepository) FindLatestPending(phone string, purpose model.VerificationPurpose) (*model.PhoneVerification, error) {
	var v model.PhoneVerification
	err := r.db.Where("phone = ? AND purpose = ? AND status = ?", phone, purpose, model.PhoneVerificationPending).
		Order("created_at DESC").
		Order("id DESC").
		First(&v).Error
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *verificationRepository) FindLatestByPhone(phone string) (*model.PhoneVerification, error) {
	var v model.PhoneVerification
	if err := r.db.Where("phone = ?", phone).Order("created_at DESC").Order("id DESC").First(&v).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *verificationRepository) CountByPhoneSince(phone string, since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&model.PhoneVerification{}).
		Where("phone = ? AND created_at >= ?", phone, since).
		Count(&count).Error
	return count, err
}

func (r *verificationRepository) CountByIPSince(ip string, since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&model.PhoneVerification{}).
		Where("ip_address = ? AND created_at >= ?", ip, since).
		Count(&count).Error
	return count, err
}

// ExpirePending 새 코드 발송 전 이전 코드 무효화
func (r *verificationRepository) ExpirePending(phone string, purpose model.VerificationPurpose) error {
	return r.db.Model(&model.PhoneVerification{}).
		Where("phone = ? AND purpose = ? AND status = ?", phone, purpose, model.PhoneVerificationPending).
		Update("status", model.PhoneVerificationExpired).Error
}

func (r *verificationRepository) SavePhoneVerification(v *model.PhoneVerification) error {
	return r.db.Save(v).Error
}

func (r *verificationRepository) DeleteOlderThan(before time.Time) (int64, error) {
	res := r.db.Where("created_at < ?", before).Delete(&model.PhoneVerification{})
	return res.RowsAffected, res.Error
}

// HasRecentVerified 가입 직전 인증 완료 여부
func (r *verificationRepository) HasRecentVerified(phone string, purpose model.VerificationPurpose, since time.Time) (bool, error) {
	var count int64
	err := r.db.Model(&model.PhoneVerification{}).
		Where("phone = ? AND purpose = ? AND status = ? AND verified_at >= ?", phone, purpose, model.PhoneVerificationVerified, since).
		Count(&count).Error
	return count > 0, err
}

func (r *verificationRepository) CreateBusinessVerification(v *model.BusinessNumberVerification) error {
	return r.db.Create(v).Error
}

func (r *verificationRepository) FindLatestBusinessVerification(userID uint) (*model.BusinessNumberVerification, error) {
	var v model.BusinessNumberVerification
	if err := r.db.Where("user_id = ?", userID).Order("verified_at DESC").Order("id DESC").First(&v).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

// FindRecentValidByNumber DB에 남은 24시간 내 유효 조회 결과 (캐시 미스 시 사용)
func (r *verificationRepository) FindRecentValidByNumber(number string, since time.Time) (*model.BusinessNumberVerification, error) {
	var v model.BusinessNumberVerification
	err := r.db.Where("business_number = ? AND status = ? AND verified_at >= ?", number, model.BusinessValid, since).
		Order("verified_at DESC").
		First(&v).Error
	if err != nil {
		return nil, err
	}
	return &v, nil
}
