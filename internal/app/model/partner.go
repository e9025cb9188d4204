package model

import (
	"bytes"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"
)

type SubscriptionStatus string
type ReferralSettlementStatus string
type SettlementStatus string
type BankVerificationStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
	SubscriptionPaused    SubscriptionStatus = "paused"

	ReferralSettlementPending   ReferralSettlementStatus = "pending"
	ReferralSettlementRequested ReferralSettlementStatus = "requested"
	ReferralSettlementCompleted ReferralSettlementStatus = "completed"

	SettlementPending    SettlementStatus = "pending"
	SettlementProcessing SettlementStatus = "processing"
	SettlementCompleted  SettlementStatus = "completed"
	SettlementFailed     SettlementStatus = "failed"
	SettlementCancelled  SettlementStatus = "cancelled"

	BankVerificationPending  BankVerificationStatus = "pending"
	BankVerificationVerified BankVerificationStatus = "verified"
	BankVerificationFailed   BankVerificationStatus = "failed"
)

var ErrInvalidCommissionRate = errors.New("수수료율은 0.00 ~ 100.00 사이의 소수점 둘째 자리까지 입력해주세요")

// CommissionRate 수수료율. 0.01% 단위 정수로 저장한다 (3000 = 30.00%).
type CommissionRate int64

const MaxCommissionRate CommissionRate = 100_00

// PercentRate 설정 파일의 퍼센트 값을 0.01% 단위로 반올림한다
func PercentRate(percent float64) CommissionRate {
	return CommissionRate(math.Round(percent * 100))
}

// ParseCommissionRate "16.4", "30.00" 같은 10진 문자열을 부동소수점 없이 읽는다
func ParseCommissionRate(raw string) (CommissionRate, error) {
	raw = strings.TrimSpace(raw)
	whole, frac, _ := strings.Cut(raw, ".")
	if whole == "" || len(frac) > 2 {
		return 0, ErrInvalidCommissionRate
	}
	frac += strings.Repeat("0", 2-len(frac))

	w, err := strconv.ParseUint(whole, 10, 32)
	if err != nil {
		return 0, ErrInvalidCommissionRate
	}
	f, err := strconv.ParseUint(frac, 10, 8)
	if err != nil {
		return 0, ErrInvalidCommissionRate
	}
	rate := CommissionRate(w*100 + f)
	if rate > MaxCommissionRate {
		return 0, ErrInvalidCommissionRate
	}
	return rate, nil
}

func (r CommissionRate) Valid() bool {
	return r >= 0 && r <= MaxCommissionRate
}

// Of amount * rate, 원 단위 절사
func (r CommissionRate) Of(amount int64) int64 {
	return amount * int64(r) / 10_000
}

func (r CommissionRate) String() string {
	return strconv.FormatInt(int64(r)/100, 10) + "." + strconv.FormatInt(100+int64(r)%100, 10)[1:]
}

func (r CommissionRate) MarshalJSON() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalJSON 숫자(30.5)와 문자열("30.50") 모두 받는다
func (r *CommissionRate) UnmarshalJSON(data []byte) error {
	rate, err := ParseCommissionRate(string(bytes.Trim(data, `"`)))
	if err != nil {
		return err
	}
	*r = rate
	return nil
}

type Partner struct {
	ID                      uint           `gorm:"primarykey" json:"id"`
	UserID                  uint           `gorm:"uniqueIndex;not null" json:"user_id"`
	PartnerName             string         `gorm:"not null" json:"partner_name"`
	PartnerCode             string         `gorm:"uniqueIndex;not null" json:"partner_code"`
	CommissionRate          CommissionRate `gorm:"column:commission_rate_bp;default:3000" json:"commission_rate"`
	BankName                string         `json:"bank_name,omitempty"`
	BankAccount             string         `json:"bank_account,omitempty"`
	AccountHolder           string         `json:"account_holder,omitempty"`
	IsActive                bool           `gorm:"default:true" json:"is_active"`
	MinimumSettlementAmount int64          `gorm:"default:50000" json:"minimum_settlement_amount"`
	CreatedAt               time.Time      `json:"created_at"`
	UpdatedAt               time.Time      `json:"updated_at"`

	User *User `gorm:"foreignKey:UserID" json:"-"`
}

func (Partner) TableName() string {
	return "partners"
}

func (p *Partner) HasBankInfo() bool {
	return p.BankName != "" && p.BankAccount != "" && p.AccountHolder != ""
}

// ReferralRecord 파트너 추천으로 가입한 회원의 매출/수수료 집계
type ReferralRecord struct {
	ID                    uint                     `gorm:"primarykey" json:"id"`
	PartnerID             uint                     `gorm:"not null;index" json:"partner_id"`
	ReferredUserID        uint                     `gorm:"not null;index" json:"referred_user_id"`
	JoinedDate            time.Time                `gorm:"index" json:"joined_date"`
	SubscriptionStatus    SubscriptionStatus       `gorm:"type:varchar(20);default:'active'" json:"subscription_status"`
	SubscriptionAmount    int64                    `gorm:"default:0" json:"subscription_amount"`
	SubscriptionStartDate *time.Time               `json:"subscription_start_date,omitempty"`
	SubscriptionEndDate   *time.Time               `json:"subscription_end_date,omitempty"`
	TicketCount           int                      `gorm:"default:0" json:"ticket_count"`
	TicketAmount          int64                    `gorm:"default:0" json:"ticket_amount"`
	TotalAmount           int64                    `gorm:"default:0" json:"total_amount"`
	CommissionAmount      int64                    `gorm:"default:0" json:"commission_amount"`
	SettlementStatus      ReferralSettlementStatus `gorm:"type:varchar(20);default:'pending';index" json:"settlement_status"`
	SettlementDate        *time.Time               `json:"settlement_date,omitempty"`
	SettlementID          *uint                    `gorm:"index" json:"settlement_id,omitempty"`
	CreatedAt             time.Time                `json:"created_at"`
	UpdatedAt             time.Time                `json:"updated_at"`

	Partner      *Partner `gorm:"foreignKey:PartnerID" json:"-"`
	ReferredUser *User    `gorm:"foreignKey:ReferredUserID" json:"referred_user,omitempty"`
}

func (ReferralRecord) TableName() string {
	return "referral_records"
}

// ApplyDerived total = 구독 + 이용권, 수수료가 비어 있으면 total * rate (원 단위 절사)
func (r *ReferralRecord) ApplyDerived(rate CommissionRate) {
	r.TotalAmount = r.SubscriptionAmount + r.TicketAmount
	if r.TotalAmount > 0 && r.CommissionAmount == 0 {
		r.CommissionAmount = rate.Of(r.TotalAmount)
	}
}

type PartnerSettlement struct {
	ID                  uint             `gorm:"primarykey" json:"id"`
	PartnerID           uint             `gorm:"not null;index" json:"partner_id"`
	SettlementAmount    int64            `gorm:"not null" json:"settlement_amount"`
	TaxInvoiceRequested bool             `json:"tax_invoice_requested"`
	Status              SettlementStatus `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	BankName            string           `json:"bank_name"`
	BankAccount         string           `json:"bank_account"`
	AccountHolder       string           `json:"account_holder"`
	Memo                string           `gorm:"type:text" json:"memo,omitempty"`
	RequestedAt         time.Time        `json:"requested_at"`
	ProcessedAt         *time.Time       `json:"processed_at,omitempty"`
	ProcessedByID       *uint            `json:"processed_by,omitempty"`
	CreatedAt           time.Time        `json:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at"`

	Partner *Partner `gorm:"foreignKey:PartnerID" json:"partner,omitempty"`
}

func (PartnerSettlement) TableName() string {
	return "partner_settlements"
}

// PartnerBankAccount 금융결제원 실명조회로 검증한 정산 계좌
type PartnerBankAccount struct {
	ID                 uint                   `gorm:"primarykey" json:"id"`
	PartnerID          uint                   `gorm:"uniqueIndex;not null" json:"partner_id"`
	BankCode           string                 `gorm:"type:varchar(3);not null" json:"bank_code"`
	BankName           string                 `json:"bank_name"`
	AccountNum         string                 `gorm:"not null" json:"account_num"`
	AccountHolder      string                 `gorm:"not null" json:"account_holder"`
	HolderInfo         string                 `json:"-"` // 생년월일 6자리 또는 사업자번호
	VerificationStatus BankVerificationStatus `gorm:"type:varchar(20);default:'pending'" json:"verification_status"`
	VerifiedHolderName string                 `json:"verified_holder_name,omitempty"`
	VerifiedAt         *time.Time             `json:"verified_at,omitempty"`
	FailureReason      string                 `json:"failure_reason,omitempty"`
	CreatedAt          time.Time              `json:"created_at"`
	UpdatedAt          time.Time              `json:"updated_at"`
}

func (PartnerBankAccount) TableName() string {
	return "partner_bank_accounts"
}
