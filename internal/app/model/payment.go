package model

import (
	"time"
)

type PaymentStatus string
type PaymentMethod string
type RefundStatus string

const (
	PaymentPending        PaymentStatus = "pending"         // 결제 대기
	PaymentWaitingDeposit PaymentStatus = "waiting_deposit" // 가상계좌 입금 대기
	PaymentCompleted      PaymentStatus = "completed"       // 결제 완료
	PaymentFailed         PaymentStatus = "failed"          // 결제 실패
	PaymentCancelled      PaymentStatus = "cancelled"       // 결제 취소
	PaymentRefunded       PaymentStatus = "refunded"        // 환불 완료

	PaymentMethodInicis PaymentMethod = "inicis"
	PaymentMethodKakao  PaymentMethod = "kakao"
	PaymentMethodNaver  PaymentMethod = "naver"

	RefundPending   RefundStatus = "pending"
	RefundApproved  RefundStatus = "approved"
	RefundRejected  RefundStatus = "rejected"
	RefundCompleted RefundStatus = "completed"
)

type Payment struct {
	ID            uint          `gorm:"primarykey" json:"id"`
	UserID        uint          `gorm:"not null;index" json:"user_id"`
	OrderID       string        `gorm:"uniqueIndex;not null" json:"order_id"`
	PaymentMethod PaymentMethod `gorm:"type:varchar(20);default:'inicis'" json:"payment_method"`
	Amount        int64         `gorm:"not null" json:"amount"`
	ProductName   string        `json:"product_name"`
	Status        PaymentStatus `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	BuyerName     string        `json:"buyer_name"`
	BuyerTel      string        `json:"buyer_tel"`
	BuyerEmail    string        `json:"buyer_email"`
	TID           string        `gorm:"index" json:"tid,omitempty"`
	PaymentData   JSONMap       `gorm:"type:text" json:"payment_data,omitempty"`
	VbankName     string        `json:"vbank_name,omitempty"`
	VbankNum      string        `json:"vbank_num,omitempty"`
	VbankHolder   string        `json:"vbank_holder,omitempty"`
	VbankDate     string        `json:"vbank_date,omitempty"`
	CancelReason  string        `gorm:"type:text" json:"cancel_reason,omitempty"`
	CancelledAt   *time.Time    `json:"cancelled_at,omitempty"`
	RefundAmount  *int64        `json:"refund_amount,omitempty"`
	CompletedAt   *time.Time    `json:"completed_at,omitempty"`
	CreatedAt     time.Time     `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`

	User *User `gorm:"foreignKey:UserID" json:"-"`
}

func (Payment) TableName() string {
	return "payments"
}

// IsPayable 결제 대기 또는 입금 대기 상태에서만 완료 처리할 수 있다
func (p *Payment) IsPayable() bool {
	return p.Status == PaymentPending || p.Status == PaymentWaitingDeposit
}

// RefundRequest 사용자 환불 요청. 관리자가 승인하면 PG 환불을 호출한다.
type RefundRequest struct {
	ID            uint         `gorm:"primarykey" json:"id"`
	UserID        uint         `gorm:"not null;index" json:"user_id"`
	PaymentID     uint         `gorm:"not null;index" json:"payment_id"`
	Reason        string       `gorm:"type:text;not null" json:"reason"`
	RequestAmount int64        `gorm:"not null" json:"request_amount"`
	Status        RefundStatus `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	AdminNote     string       `gorm:"type:text" json:"admin_note,omitempty"`
	ProcessedByID *uint        `json:"processed_by,omitempty"`
	ProcessedAt   *time.Time   `json:"processed_at,omitempty"`
	RefundMethod  string       `json:"refund_method,omitempty"`
	RefundData    JSONMap      `gorm:"type:text" json:"refund_data,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`

	Payment *Payment `gorm:"foreignKey:PaymentID" json:"payment,omitempty"`
	User    *User    `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (RefundRequest) TableName() string {
	return "refund_requests"
}
