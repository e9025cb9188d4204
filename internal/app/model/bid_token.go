package model

import (
	"time"
)

type BidTokenType string
type BidTokenStatus string
type TokenAdjustmentType string

const (
	BidTokenSingle    BidTokenType = "single"    // 견적 이용권 1회
	BidTokenUnlimited BidTokenType = "unlimited" // 무제한 구독권

	BidTokenActive  BidTokenStatus = "active"
	BidTokenUsed    BidTokenStatus = "used"
	BidTokenExpired BidTokenStatus = "expired"

	AdjustmentAdd               TokenAdjustmentType = "add"
	AdjustmentSubtract          TokenAdjustmentType = "subtract"
	AdjustmentSet               TokenAdjustmentType = "set"
	AdjustmentGrantSubscription TokenAdjustmentType = "grant_subscription"
)

// BidToken 판매회원이 공구 견적을 제출할 때 소모하는 이용권
type BidToken struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	SellerID  uint           `gorm:"not null;index" json:"seller_id"`
	TokenType BidTokenType   `gorm:"type:varchar(20);not null;index" json:"token_type"`
	Status    BidTokenStatus `gorm:"type:varchar(20);default:'active';index" json:"status"`
	ExpiresAt *time.Time     `json:"expires_at,omitempty"` // 구독권 만료 시각
	UsedAt    *time.Time     `json:"used_at,omitempty"`
	UsedFor   *uint          `gorm:"index" json:"used_for,omitempty"` // 사용된 견적(Bid) ID
	PaymentID *uint          `gorm:"index" json:"payment_id,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`

	Seller *User `gorm:"foreignKey:SellerID" json:"-"`
}

func (BidToken) TableName() string {
	return "bid_tokens"
}

// IsValidUnlimited 만료 전의 활성 구독권인지
func (t *BidToken) IsValidUnlimited(now time.Time) bool {
	return t.TokenType == BidTokenUnlimited &&
		t.Status == BidTokenActive &&
		t.ExpiresAt != nil && t.ExpiresAt.After(now)
}

// BidTokenPurchase 이용권 구매 이력
type BidTokenPurchase struct {
	ID         uint         `gorm:"primarykey" json:"id"`
	SellerID   uint         `gorm:"not null;index" json:"seller_id"`
	TokenType  BidTokenType `gorm:"type:varchar(20);not null" json:"token_type"`
	Quantity   int          `gorm:"not null" json:"quantity"`
	TotalPrice int64        `gorm:"not null" json:"total_price"`
	PaymentID  *uint        `gorm:"index" json:"payment_id,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
}

func (BidTokenPurchase) TableName() string {
	return "bid_token_purchases"
}

// BidTokenAdjustmentLog 관리자 조정 이력. 추가만 하고 수정/삭제하지 않는다.
type BidTokenAdjustmentLog struct {
	ID             uint                `gorm:"primarykey" json:"id"`
	SellerID       uint                `gorm:"not null;index" json:"seller_id"`
	AdminID        uint                `gorm:"not null;index" json:"admin_id"`
	AdjustmentType TokenAdjustmentType `gorm:"type:varchar(30);not null" json:"adjustment_type"`
	Quantity       int                 `gorm:"not null" json:"quantity"`
	Days           int                 `json:"days,omitempty"`
	Reason         string              `gorm:"type:text;not null" json:"reason"`
	BalanceBefore  int64               `json:"balance_before"`
	BalanceAfter   int64               `json:"balance_after"`
	CreatedAt      time.Time           `gorm:"index" json:"created_at"`

	Seller *User `gorm:"foreignKey:SellerID" json:"seller,omitempty"`
	Admin  *User `gorm:"foreignKey:AdminID" json:"admin,omitempty"`
}

func (BidTokenAdjustmentLog) TableName() string {
	return "bid_token_adjustment_logs"
}
