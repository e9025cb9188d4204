package model

import (
	"time"
)

type PhoneVerificationStatus string
type VerificationPurpose string
type BusinessVerificationStatus string

const (
	PhoneVerificationPending  PhoneVerificationStatus = "pending"
	PhoneVerificationVerified PhoneVerificationStatus = "verified"
	PhoneVerificationExpired  PhoneVerificationStatus = "expired"
	PhoneVerificationFailed   PhoneVerificationStatus = "failed"

	PurposeSignup  VerificationPurpose = "signup"
	PurposeProfile VerificationPurpose = "profile"

	BusinessValid   BusinessVerificationStatus = "valid"
	BusinessInvalid BusinessVerificationStatus = "invalid"
	BusinessError   BusinessVerificationStatus = "error"
)

type PhoneVerification struct {
	ID           uint                    `gorm:"primarykey" json:"id"`
	Phone        string                  `gorm:"not null;index" json:"phone"`
	Code         string                  `gorm:"type:varchar(6);not null" json:"-"`
	Status       PhoneVerificationStatus `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	Purpose      VerificationPurpose     `gorm:"type:varchar(20);default:'signup'" json:"purpose"`
	UserID       *uint                   `gorm:"index" json:"user_id,omitempty"`
	IPAddress    string                  `gorm:"index" json:"-"`
	AttemptCount int                     `gorm:"default:0" json:"attempt_count"`
	MaxAttempts  int                     `gorm:"default:5" json:"max_attempts"`
	ExpiresAt    time.Time               `json:"expires_at"`
	VerifiedAt   *time.Time              `json:"verified_at,omitempty"`
	CreatedAt    time.Time               `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time               `json:"updated_at"`
}

func (PhoneVerification) TableName() string {
	return "phone_verifications"
}

func (v *PhoneVerification) IsExpired(now time.Time) bool {
	return now.After(v.ExpiresAt)
}

func (v *PhoneVerification) RemainingAttempts() int {
	if r := v.MaxAttempts - v.AttemptCount; r > 0 {
		return r
	}
	return 0
}

type BusinessNumberVerification struct {
	ID             uint                       `gorm:"primarykey" json:"id"`
	UserID         uint                       `gorm:"not null;index" json:"user_id"`
	BusinessNumber string                     `gorm:"type:varchar(10);not null;index" json:"business_number"`
	Status         BusinessVerificationStatus `gorm:"type:varchar(20);not null" json:"status"`
	BusinessStatus string                     `json:"business_status,omitempty"`
	Message        string                     `json:"message"`
	APIResponse    JSONMap                    `gorm:"type:text" json:"-"`
	VerifiedAt     time.Time                  `json:"verified_at"`
	CreatedAt      time.Time                  `json:"created_at"`
}

func (BusinessNumberVerification) TableName() string {
	return "business_number_verifications"
}
