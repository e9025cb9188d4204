package model

import (
	"time"

	"gorm.io/gorm"
)

type EventStatus string

const (
	EventUpcoming EventStatus = "upcoming"
	EventOngoing  EventStatus = "ongoing"
	EventEnded    EventStatus = "ended"
)

// Notice 공지사항
type Notice struct {
	ID          uint           `gorm:"primarykey" json:"id"`
	Title       string         `gorm:"not null" json:"title"`
	Content     string         `gorm:"type:text;not null" json:"content"`
	Category    string         `gorm:"type:varchar(20);default:'general'" json:"category"`
	Thumbnail   string         `json:"thumbnail,omitempty"`
	IsPinned    bool           `gorm:"default:false;index" json:"is_pinned"`
	IsPublished bool           `gorm:"index" json:"is_published"`
	ViewCount   int            `gorm:"default:0" json:"view_count"`
	AuthorID    uint           `json:"author_id"`
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Notice) TableName() string {
	return "notices"
}

// Popup 메인 팝업
type Popup struct {
	ID           uint           `gorm:"primarykey" json:"id"`
	Title        string         `gorm:"not null" json:"title"`
	Content      string         `gorm:"type:text" json:"content"`
	ImageURL     string         `json:"image_url,omitempty"`
	LinkURL      string         `json:"link_url,omitempty"`
	PopupType    string         `gorm:"type:varchar(20);default:'image'" json:"popup_type"` // image | text | mixed
	Position     string         `gorm:"type:varchar(20);default:'center'" json:"position"`
	Priority     int            `gorm:"default:0;index" json:"priority"`
	IsActive     bool           `gorm:"index" json:"is_active"`
	ShowOnMain   bool           `json:"show_on_main"`
	ShowOnMobile bool           `json:"show_on_mobile"`
	StartDate    time.Time      `json:"start_date"`
	EndDate      *time.Time     `json:"end_date,omitempty"`
	CreatedByID  *uint          `json:"created_by,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Popup) TableName() string {
	return "popups"
}

// IsVisible 노출 기간 안인지
func (p *Popup) IsVisible(now time.Time) bool {
	if !p.IsActive || now.Before(p.StartDate) {
		return false
	}
	return p.EndDate == nil || now.Before(*p.EndDate)
}

type Banner struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	Title     string         `gorm:"not null" json:"title"`
	ImageURL  string         `gorm:"not null" json:"image_url"`
	LinkURL   string         `json:"link_url,omitempty"`
	SortOrder int            `gorm:"default:0;index" json:"order"`
	IsActive  bool           `json:"is_active"`
	StartDate *time.Time     `json:"start_date,omitempty"`
	EndDate   *time.Time     `json:"end_date,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Banner) TableName() string {
	return "banners"
}

type Event struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	Title     string         `gorm:"not null" json:"title"`
	Content   string         `gorm:"type:text" json:"content"`
	Thumbnail string         `json:"thumbnail,omitempty"`
	StartDate time.Time      `gorm:"index" json:"start_date"`
	EndDate   time.Time      `gorm:"index" json:"end_date"`
	IsActive  bool           `json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Event) TableName() string {
	return "events"
}

// StatusAt 기간으로 계산한 진행 상태
func (e *Event) StatusAt(now time.Time) EventStatus {
	switch {
	case now.Before(e.StartDate):
		return EventUpcoming
	case now.After(e.EndDate):
		return EventEnded
	}
	return EventOngoing
}
