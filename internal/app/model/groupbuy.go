package model

import (
	"time"
)

type CategoryType string
type ProductType string
type GroupBuyStatus string
type BidType string
type VoteChoice string

const (
	CategoryNone         CategoryType = "none"
	CategoryTelecom      CategoryType = "telecom"
	CategoryElectronics  CategoryType = "electronics"
	CategoryRental       CategoryType = "rental"
	CategorySubscription CategoryType = "subscription"

	ProductDevice  ProductType = "device"
	ProductService ProductType = "service"

	GroupBuyRecruiting         GroupBuyStatus = "recruiting"          // 모집중
	GroupBuyBidding            GroupBuyStatus = "bidding"             // 견적 진행
	GroupBuyVoting             GroupBuyStatus = "voting"              // 최종 선택
	GroupBuySellerConfirmation GroupBuyStatus = "seller_confirmation" // 판매자 확정 대기
	GroupBuyCompleted          GroupBuyStatus = "completed"
	GroupBuyCancelled          GroupBuyStatus = "cancelled"

	BidTypePrice   BidType = "price"   // 가격 제시
	BidTypeSupport BidType = "support" // 지원금 제시

	VoteConfirm VoteChoice = "confirm"
	VoteCancel  VoteChoice = "cancel"
)

type Category struct {
	ID           uint         `gorm:"primarykey" json:"id"`
	Name         string       `gorm:"uniqueIndex;not null" json:"name"`
	Slug         string       `gorm:"index" json:"slug"`
	CategoryType CategoryType `gorm:"type:varchar(20);default:'none'" json:"category_type"`
	IsService    bool         `json:"is_service"`
	CreatedAt    time.Time    `json:"created_at"`
}

func (Category) TableName() string {
	return "categories"
}

type Product struct {
	ID          uint        `gorm:"primarykey" json:"id"`
	CategoryID  uint        `gorm:"not null;index" json:"category_id"`
	Name        string      `gorm:"not null" json:"name"`
	Description string      `gorm:"type:text" json:"description"`
	ProductType ProductType `gorm:"type:varchar(20);default:'device'" json:"product_type"`
	BasePrice   int64       `json:"base_price"`
	ImageURL    string      `json:"image_url"`
	IsAvailable bool        `gorm:"default:true" json:"is_available"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`

	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

func (Product) TableName() string {
	return "products"
}

type GroupBuy struct {
	ID                  uint           `gorm:"primarykey" json:"id"`
	Title               string         `gorm:"not null" json:"title"`
	Description         string         `gorm:"type:text" json:"description"`
	ProductID           uint           `gorm:"not null;index" json:"product_id"`
	CreatorID           uint           `gorm:"not null;index" json:"creator_id"`
	Region              string         `gorm:"index" json:"region"`
	RegionType          string         `gorm:"type:varchar(20);default:'local'" json:"region_type"` // local | nationwide
	MinParticipants     int            `gorm:"default:1" json:"min_participants"`
	MaxParticipants     int            `gorm:"default:100" json:"max_participants"`
	CurrentParticipants int            `gorm:"default:0" json:"current_participants"`
	TargetPrice         *int64         `json:"target_price,omitempty"`
	Status              GroupBuyStatus `gorm:"type:varchar(30);default:'recruiting';index" json:"status"`
	StartTime           time.Time      `gorm:"index" json:"start_time"`
	EndTime             time.Time      `gorm:"index" json:"end_time"`
	VotingEnd           *time.Time     `json:"voting_end,omitempty"`
	WinningBidID        *uint          `json:"winning_bid_id,omitempty"`
	CompletedAt         *time.Time     `json:"completed_at,omitempty"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Creator *User    `gorm:"foreignKey:CreatorID" json:"-"`
}

func (GroupBuy) TableName() string {
	return "group_buys"
}

type Participation struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	UserID     uint      `gorm:"uniqueIndex:idx_participations_user_groupbuy;not null" json:"user_id"`
	GroupBuyID uint      `gorm:"uniqueIndex:idx_participations_user_groupbuy;not null;index" json:"groupbuy_id"`
	IsLeader   bool      `json:"is_leader"`
	JoinedAt   time.Time `json:"joined_at"`
}

func (Participation) TableName() string {
	return "participations"
}

type Bid struct {
	ID             uint      `gorm:"primarykey" json:"id"`
	SellerID       uint      `gorm:"uniqueIndex:idx_bids_seller_groupbuy;not null" json:"seller_id"`
	GroupBuyID     uint      `gorm:"uniqueIndex:idx_bids_seller_groupbuy;not null;index" json:"groupbuy_id"`
	BidType        BidType   `gorm:"type:varchar(20);not null" json:"bid_type"`
	Amount         int64     `gorm:"not null" json:"amount"`
	ContractPeriod int       `json:"contract_period,omitempty"` // 개월
	Message        string    `gorm:"type:text" json:"message"`
	IsSelected     bool      `gorm:"default:false" json:"is_selected"`
	BidTokenID     *uint     `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	Seller *User `gorm:"foreignKey:SellerID" json:"-"`
}

func (Bid) TableName() string {
	return "bids"
}

type Vote struct {
	ID            uint       `gorm:"primarykey" json:"id"`
	ParticipantID uint       `gorm:"uniqueIndex:idx_votes_participant_groupbuy;not null" json:"participant_id"`
	GroupBuyID    uint       `gorm:"uniqueIndex:idx_votes_participant_groupbuy;not null;index" json:"groupbuy_id"`
	Choice        VoteChoice `gorm:"type:varchar(10);not null" json:"choice"`
	CreatedAt     time.Time  `json:"created_at"`
}

func (Vote) TableName() string {
	return "votes"
}
