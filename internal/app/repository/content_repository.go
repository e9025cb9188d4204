package repository

import (
	"time"

	"github.com/dungji/dungji-market-backend/internal/app/model"
	"gorm.io/gorm"
)

type NoticeFilter struct {
	Category      string
	PublishedOnly bool
	Page          int
	PageSize      int
}

// ContentRepository 공지/팝업/배너/이벤트
type ContentRepository interface {
	FindNotices(filter NoticeFilter) ([]model.Notice, int64, error)
	FindNoticeByID(id uint) (*model.Notice, error)
	IncrementNoticeView(id uint) error
	FindPopups(activeAt *time.Time) ([]model.Popup, error)
	FindPopupByID(id uint) (*model.Popup, error)
	FindBanners(activeAt *time.Time) ([]model.Banner, error)
	FindBannerByID(id uint) (*model.Banner, error)
	FindEvents(activeOnly bool) ([]model.Event, error)
	FindEventByID(id uint) (*model.Event, error)

	// 관리자 CRUD. value는 모델 포인터.
	Create(value interface{}) error
	Save(value interface{}) error
	Delete(value interface{}, id uint) error
}

type contentRepository struct {
	db *gorm.DB
}

func NewContentRepository(db *gorm.DB) ContentRepository {
	return &contentRepository{db: db}
}

func (r *contentRepository) FindNotices(filter NoticeFilter) ([]model.Notice, int64, error) {
	query := r.db.Model(&model.Notice{})
	if filter.PublishedOnly {
		query = query.Where("is_published = ?", true)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var notices []model.Notice
	err := paginate(query.Order("is_pinned DESC").Order("created_at DESC").Order("id DESC"), filter.Page, filter.PageSize).
		Find(&notices).Error
	return notices, total, err
}

func (r *contentRepository) FindNoticeByID(id uint) (*model.Notice, error) {
	var notice model.Notice
	if err := r.db.First(&notice, id).Error; err != nil {
		return nil, err
	}
	return &notice, nil
}

func (r *contentRepository) IncrementNoticeView(id uint) error {
	return r.db.Model(&model.Notice{}).Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + ?", 1)).Error
}

// FindPopups activeAt이 있으면 노출 기간 안의 활성 팝업만
func (r *contentRepository) FindPopups(activeAt *time.Time) ([]model.Popup, error) {
	query := r.db.Model(&model.Popup{})
	if activeAt != nil {
		query = query.
			Where("is_active = ? AND start_date <= ?", true, *activeAt).
			Where("end_date IS NULL OR end_date > ?", *activeAt)
	}
	var popups []model.Popup
	err := query.Order("priority DESC").Order("created_at DESC").Find(&popups).Error
	return popups, err
}

func (r *contentRepository) FindPopupByID(id uint) (*model.Popup, error) {
	var popup model.Popup
	if err := r.db.First(&popup, id).Error; err != nil {
		return nil, err
	}
	return &popup, nil
}

func (r *contentRepository) FindBanners(activeAt *time.Time) ([]model.Banner, error) {
	query := r.db.Model(&model.Banner{})
	if activeAt != nil {
		query = query.
			Where("is_active = ?", true).
			Where("start_date IS NULL OR start_date <= ?", *activeAt).
			Where("end_date IS NULL OR end_date > ?", *activeAt)
	}
	var banners []model.Banner
	err := query.Order("sort_order ASC").Order("id ASC").Find(&banners).Error
	return banners, err
}

func (r *contentRepository) FindBannerByID(id uint) (*model.Banner, error) {
	var banner model.Banner
	if err := r.db.First(&banner, id).Error; err != nil {
		return nil, err
	}
	return &banner, nil
}

func (r *contentRepository) FindEvents(activeOnly bool) ([]model.Event, error) {
	query := r.db.Model(&model.Event{})
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	var events []model.Event
	err := query.Order("start_date DESC").Order("id DESC").Find(&events).Error
	return events, err
}

func (r *contentRepository) FindEventByID(id uint) (*model.Event, error) {
	var event model.Event
	if err := r.db.First(&event, id).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *contentRepository) Create(value interface{}) error {
	return r.db.Create(value).Error
}

func (r *contentRepository) Save(value interface{}) error {
	return r.db.Save(value).Error
}

func (r *contentRepository) Delete(value interface{}, id uint) error {
	res := r.db.Delete(value, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
