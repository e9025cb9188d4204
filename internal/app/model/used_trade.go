package model

import (
	"time"
)

type OfferStatus string
type TransactionStatus string

const (
	OfferPending   OfferStatus = "pending"
	OfferAccepted  OfferStatus = "accepted"
	OfferRejected  OfferStatus = "rejected"
	OfferCancelled OfferStatus = "cancelled"

	TransactionInProgress TransactionStatus = "in_progress"
	TransactionCompleted  TransactionStatus = "completed"
	TransactionCancelled  TransactionStatus = "cancelled"
)

// UsedOffer 구매자의 가격 제안
type UsedOffer struct {
	ID           uint        `gorm:"primarykey" json:"id"`
	ItemID       uint        `gorm:"not null;index:idx_used_offers_item_buyer" json:"item_id"`
	BuyerID      uint        `gorm:"not null;index:idx_used_offers_item_buyer;index" json:"buyer_id"`
	OfferedPrice int64       `gorm:"not null" json:"offered_price"`
	Message      string      `gorm:"type:text" json:"message"`
	Status       OfferStatus `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`

	Item  *UsedItem `gorm:"foreignKey:ItemID" json:"item,omitempty"`
	Buyer *User     `gorm:"foreignKey:BuyerID" json:"buyer,omitempty"`
}

func (UsedOffer) TableName() string {
	return "used_offers"
}

// UsedTransaction 상품당 하나. 취소된 거래는 다음 거래에서 재사용된다.
type UsedTransaction struct {
	ID                 uint              `gorm:"primarykey" json:"id"`
	ItemID             uint              `gorm:"uniqueIndex;not null" json:"item_id"`
	SellerID           uint              `gorm:"not null;index" json:"seller_id"`
	BuyerID            uint              `gorm:"not null;index" json:"buyer_id"`
	OfferID            *uint             `json:"offer_id,omitempty"`
	FinalPrice         int64             `gorm:"not null" json:"final_price"`
	Status             TransactionStatus `gorm:"type:varchar(20);default:'in_progress';index" json:"status"`
	SellerCompleted    bool              `gorm:"default:false" json:"seller_completed"`
	BuyerCompleted     bool              `gorm:"default:false" json:"buyer_completed"`
	SellerCompletedAt  *time.Time        `json:"seller_completed_at,omitempty"`
	BuyerCompletedAt   *time.Time        `json:"buyer_completed_at,omitempty"`
	CompletedAt        *time.Time        `json:"completed_at,omitempty"`
	CancelledBy        string            `gorm:"type:varchar(10)" json:"cancelled_by,omitempty"` // seller | buyer
	CancellationReason string            `json:"cancellation_reason,omitempty"`
	CancellationDetail string            `gorm:"type:text" json:"cancellation_detail,omitempty"`
	CancelledAt        *time.Time        `json:"cancelled_at,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`

	Item   *UsedItem `gorm:"foreignKey:ItemID" json:"item,omitempty"`
	Seller *User     `gorm:"foreignKey:SellerID" json:"seller,omitempty"`
	Buyer  *User     `gorm:"foreignKey:BuyerID" json:"buyer,omitempty"`
}

func (UsedTransaction) TableName() string {
	return "used_transactions"
}

// IsParty 판매자 또는 구매자인지
func (t *UsedTransaction) IsParty(userID uint) bool {
	return t.SellerID == userID || t.BuyerID == userID
}

// UsedTradeCancellation 거래 취소 이력
type UsedTradeCancellation struct {
	ID              uint      `gorm:"primarykey" json:"id"`
	TransactionID   uint      `gorm:"not null;index" json:"transaction_id"`
	ItemID          uint      `gorm:"not null;index" json:"item_id"`
	CancelledByID   uint      `gorm:"not null" json:"cancelled_by_id"`
	CancelledByRole string    `gorm:"type:varchar(10)" json:"cancelled_by_role"`
	Reason          string    `gorm:"not null" json:"reason"`
	Detail          string    `gorm:"type:text" json:"detail"`
	ReturnToSale    bool      `json:"return_to_sale"`
	CreatedAt       time.Time `json:"created_at"`
}

func (UsedTradeCancellation) TableName() string {
	return "used_trade_cancellations"
}

// UsedReview 거래 후기. 거래당 작성자별 1건.
type UsedReview struct {
	ID             uint      `gorm:"primarykey" json:"id"`
	TransactionID  uint      `gorm:"uniqueIndex:idx_used_reviews_tx_reviewer;not null" json:"transaction_id"`
	ReviewerID     uint      `gorm:"uniqueIndex:idx_used_reviews_tx_reviewer;not null" json:"reviewer_id"`
	RevieweeID     uint      `gorm:"not null;index" json:"reviewee_id"`
	Rating         int       `gorm:"not null" json:"rating"`
	Comment        string    `gorm:"type:text" json:"comment"`
	IsPunctual     bool      `json:"is_punctual"`
	IsFriendly     bool      `json:"is_friendly"`
	IsHonest       bool      `json:"is_honest"`
	IsFastResponse bool      `json:"is_fast_response"`
	CreatedAt      time.Time `json:"created_at"`

	Reviewer *User `gorm:"foreignKey:ReviewerID" json:"reviewer,omitempty"`
}

func (UsedReview) TableName() string {
	return "used_reviews"
}
