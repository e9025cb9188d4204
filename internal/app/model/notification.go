package model

import (
	"time"

	"gorm.io/gorm"
)

type NotificationType string

const (
	NotificationOfferReceived   NotificationType = "offer_received"
	NotificationOfferAccepted   NotificationType = "offer_accepted"
	NotificationOfferRejected   NotificationType = "offer_rejected"
	NotificationTradeCancelled  NotificationType = "trade_cancelled"
	NotificationTradeCompleted  NotificationType = "trade_completed"
	NotificationGroupBuyStatus  NotificationType = "groupbuy_status"
	NotificationPaymentComplete NotificationType = "payment_completed"
	NotificationRefundProcessed NotificationType = "refund_processed"
	NotificationSettlement      NotificationType = "settlement"
)

// Notification 알림 모델
type Notification struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// 알림 받을 사용자
	UserID uint `gorm:"not null;index" json:"user_id"`

	Type    NotificationType `gorm:"type:varchar(50);not null;index" json:"type"`
	Title   string           `gorm:"type:text;not null" json:"title"`
	Content string           `gorm:"type:text;not null" json:"content"`
	Link    string           `gorm:"type:text" json:"link"`
	IsRead  bool             `gorm:"default:false;index" json:"is_read"`

	// 관련 데이터 (nullable)
	RelatedItemID     *uint `gorm:"index" json:"related_item_id,omitempty"`
	RelatedGroupBuyID *uint `gorm:"index" json:"related_groupbuy_id,omitempty"`
	RelatedUserID     *uint `json:"related_user_id,omitempty"`
}

func (Notification) TableName() string {
	return "notifications"
}
