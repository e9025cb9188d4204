package model

import (
	"time"
)

type UsedItemType string
type UsedItemStatus string
type UsedCondition string

const (
	UsedItemPhone       UsedItemType = "phone"
	UsedItemElectronics UsedItemType = "electronics"

	UsedStatusActive  UsedItemStatus = "active"  // 판매중
	UsedStatusTrading UsedItemStatus = "trading" // 거래중
	UsedStatusSold    UsedItemStatus = "sold"    // 판매완료
	UsedStatusDeleted UsedItemStatus = "deleted" // 삭제

	ConditionS UsedCondition = "S" // 미개봉급
	ConditionA UsedCondition = "A"
	ConditionB UsedCondition = "B"
	ConditionC UsedCondition = "C"
)

func (t UsedItemType) Valid() bool {
	return t == UsedItemPhone || t == UsedItemElectronics
}

func (c UsedCondition) Valid() bool {
	switch c {
	case ConditionS, ConditionA, ConditionB, ConditionC:
		return true
	}
	return false
}

// UsedItem 중고 휴대폰/전자제품 공통 게시글. 품목별 상세는 1:1 테이블에 둔다.
type UsedItem struct {
	ID            uint           `gorm:"primarykey" json:"id"`
	SellerID      uint           `gorm:"not null;index" json:"seller_id"`
	ItemType      UsedItemType   `gorm:"type:varchar(20);not null;index" json:"item_type"`
	Title         string         `gorm:"not null" json:"title"`
	Price         int64          `gorm:"not null" json:"price"`
	AcceptOffers  bool           `json:"accept_offers"`
	MinOfferPrice *int64         `json:"min_offer_price,omitempty"`
	Description   string         `gorm:"type:text" json:"description"`
	Region        string         `gorm:"index" json:"region"`
	MeetingPlace  string         `json:"meeting_place"`
	Images        StringList     `gorm:"type:text" json:"images"`
	Status        UsedItemStatus `gorm:"type:varchar(20);default:'active';index" json:"status"`
	ViewCount     int            `gorm:"default:0" json:"view_count"`
	OfferCount    int            `gorm:"default:0" json:"offer_count"` // 대기중 제안을 가진 구매자 수
	FavoriteCount int            `gorm:"default:0" json:"favorite_count"`
	BuyerID       *uint          `gorm:"index" json:"buyer_id,omitempty"`
	SoldAt        *time.Time     `json:"sold_at,omitempty"`
	RemovedAt     *time.Time     `json:"removed_at,omitempty"`
	CreatedAt     time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`

	Seller            *User                  `gorm:"foreignKey:SellerID" json:"seller,omitempty"`
	PhoneDetail       *UsedPhoneDetail       `gorm:"foreignKey:ItemID;constraint:OnDelete:CASCADE" json:"phone_detail,omitempty"`
	ElectronicsDetail *UsedElectronicsDetail `gorm:"foreignKey:ItemID;constraint:OnDelete:CASCADE" json:"electronics_detail,omitempty"`
}

func (UsedItem) TableName() string {
	return "used_items"
}

// ModelName 검색/추천에 쓰는 모델명
func (i *UsedItem) ModelName() string {
	switch {
	case i.PhoneDetail != nil:
		return i.PhoneDetail.Model
	case i.ElectronicsDetail != nil:
		return i.ElectronicsDetail.ModelName
	}
	return ""
}

type UsedPhoneDetail struct {
	ID            uint          `gorm:"primarykey" json:"id"`
	ItemID        uint          `gorm:"uniqueIndex;not null" json:"item_id"`
	Brand         string        `gorm:"index" json:"brand"` // apple, samsung, ...
	Model         string        `gorm:"index" json:"model"`
	Storage       int           `json:"storage"` // GB
	Color         string        `json:"color"`
	Condition     UsedCondition `gorm:"type:varchar(2)" json:"condition"`
	BatteryStatus string        `json:"battery_status"`
	Accessories   string        `json:"accessories"`
}

func (UsedPhoneDetail) TableName() string {
	return "used_phone_details"
}

type UsedElectronicsDetail struct {
	ID             uint          `gorm:"primarykey" json:"id"`
	ItemID         uint          `gorm:"uniqueIndex;not null" json:"item_id"`
	Subcategory    string        `gorm:"index" json:"subcategory"` // laptop, tablet, camera, ...
	Brand          string        `gorm:"index" json:"brand"`
	ModelName      string        `gorm:"index" json:"model_name"`
	PurchasePeriod string        `json:"purchase_period"`
	Condition      UsedCondition `gorm:"type:varchar(2)" json:"condition"`
	ExtraSpecs     JSONMap       `gorm:"type:text" json:"extra_specs"`
}

func (UsedElectronicsDetail) TableName() string {
	return "used_electronics_details"
}

// UsedFavorite 찜
type UsedFavorite struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex:idx_used_favorites_user_item;not null" json:"user_id"`
	ItemID    uint      `gorm:"uniqueIndex:idx_used_favorites_user_item;not null;index" json:"item_id"`
	CreatedAt time.Time `json:"created_at"`

	Item *UsedItem `gorm:"foreignKey:ItemID" json:"item,omitempty"`
}

func (UsedFavorite) TableName() string {
	return "used_favorites"
}

// UnifiedDeletePenalty 제안이 있는 게시글 삭제 시 신규 등록 제한
type UnifiedDeletePenalty struct {
	ID         uint         `gorm:"primarykey" json:"id"`
	UserID     uint         `gorm:"not null;index" json:"user_id"`
	ItemType   UsedItemType `gorm:"type:varchar(20)" json:"item_type"`
	ItemID     uint         `json:"item_id"`
	ItemTitle  string       `json:"item_title"`
	OfferCount int          `json:"offer_count"`
	PenaltyEnd time.Time    `gorm:"index" json:"penalty_end"`
	CreatedAt  time.Time    `json:"created_at"`
}

func (UnifiedDeletePenalty) TableName() string {
	return "unified_delete_penalties"
}
