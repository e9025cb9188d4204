package service

import (
	"errors"
	"strings"
	"time"

	"github.com/dungji/dungji-market-backend/internal/app/model"
	"github.com/dungji/dungji-market-backend/internal/app/repository"
	"github.com/dungji/dungji-market-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrNoticeNotFound     = errors.New("공지사항을 찾을 수 없습니다")
	ErrPopupNotFound      = errors.New("팝업을 찾을 수 없습니다")
	ErrBannerNotFound     = errors.New("배너를 찾을 수 없습니다")
	ErrEventNotFound      = errors.New("이벤트를 찾을 수 없습니다")
	ErrContentTitleEmpty  = errors.New("제목을 입력해주세요")
	ErrContentInvalidDate = errors.New("종료일은 시작일 이후여야 합니다")
	ErrBannerImageMissing = errors.New("배너 이미지를 등록해주세요")
)

type NoticeInput struct {
	Title       string `json:"title"`
	Content     string `json:"content"`
	Category    string `json:"category"`
	Thumbnail   string `json:"thumbnail"`
	IsPinned    bool   `json:"is_pinned"`
	IsPublished bool   `json:"is_published"`
}

type PopupInput struct {
	Title        string     `json:"title"`
	Content      string     `json:"content"`
	ImageURL     string     `json:"image_url"`
	LinkURL      string     `json:"link_url"`
	PopupType    string     `json:"popup_type"`
	Position     string     `json:"position"`
	Priority     int        `json:"priority"`
	IsActive     bool       `json:"is_active"`
	ShowOnMain   bool       `json:"show_on_main"`
	ShowOnMobile bool       `json:"show_on_mobile"`
	StartDate    *time.Time `json:"start_date"`
	EndDate      *time.Time `json:"end_date"`
}

type BannerInput struct {
	Title     string     `json:"title"`
	ImageURL  string     `json:"image_url"`
	LinkURL   string     `json:"link_url"`
	Order     int        `json:"order"`
	IsActive  bool       `json:"is_active"`
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
}

type EventInput struct {
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Thumbnail string    `json:"thumbnail"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	IsActive  bool      `json:"is_active"`
}

// EventView status는 조회 시점 기준으로 계산
type EventView struct {
	model.Event
	Status model.EventStatus `json:"status"`
}

type ContentService interface {
	Notices(filter repository.NoticeFilter) ([]model.Notice, int64, error)
	Notice(id uint, includeDraft bool) (*model.Notice, error)
	CreateNotice(authorID uint, input NoticeInput) (*model.Notice, error)
	UpdateNotice(id uint, input NoticeInput) (*model.Notice, error)
	DeleteNotice(id uint) error

	ActivePopups(mobile bool) ([]model.Popup, error)
	AllPopups() ([]model.Popup, error)
	CreatePopup(adminID *uint, input PopupInput) (*model.Popup, error)
	UpdatePopup(id uint, input PopupInput) (*model.Popup, error)
	DeletePopup(id uint) error

	ActiveBanners() ([]model.Banner, error)
	AllBanners() ([]model.Banner, error)
	CreateBanner(input BannerInput) (*model.Banner, error)
	UpdateBanner(id uint, input BannerInput) (*model.Banner, error)
	DeleteBanner(id uint) error

	Events(status model.EventStatus) ([]EventView, error)
	Event(id uint) (*EventView, error)
	CreateEvent(input EventInput) (*EventView, error)
	UpdateEvent(id uint, input EventInput) (*EventView, error)
	DeleteEvent(id uint) error
}

type contentService struct {
	repo repository.ContentRepository
	now  func() time.Time
}

func NewContentService(repo repository.ContentRepository) ContentService {
	return &contentService{repo: repo, now: time.Now}
}

func notFoundAs(err, target error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return target
	}
	return err
}

func (s *contentService) Notices(filter repository.NoticeFilter) ([]model.Notice, int64, error) {
	return s.repo.FindNotices(filter)
}

// Notice 공개 조회는 조회수를 올린다. 비공개 글은 관리자만.
func (s *contentService) Notice(id uint, includeDraft bool) (*model.Notice, error) {
	notice, err := s.repo.FindNoticeByID(id)
	if err != nil {
		return nil, notFoundAs(err, ErrNoticeNotFound)
	}
	if includeDraft {
		return notice, nil
	}
	if !notice.IsPublished {
		return nil, ErrNoticeNotFound
	}
	if err := s.repo.IncrementNoticeView(id); err != nil {
		logger.Warn("Failed to increment notice view count", map[string]interface{}{
			"notice_id": id,
			"error":     err.Error(),
		})
	} else {
		notice.ViewCount++
	}
	return notice, nil
}

func (in NoticeInput) apply(n *model.Notice) error {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return ErrContentTitleEmpty
	}
	n.Title = title
	n.Content = in.Content
	n.Category = in.Category
	if n.Category == "" {
		n.Category = "general"
	}
	n.Thumbnail = in.Thumbnail
	n.IsPinned = in.IsPinned
	n.IsPublished = in.IsPublished
	return nil
}

func (s *contentService) CreateNotice(authorID uint, input NoticeInput) (*model.Notice, error) {
	notice := &model.Notice{AuthorID: authorID}
	if err := input.apply(notice); err != nil {
		return nil, err
	}
	if err := s.repo.Create(notice); err != nil {
		return nil, err
	}
	logger.Info("Notice created", map[string]interface{}{
		"notice_id": notice.ID,
		"author_id": authorID,
	})
	return notice, nil
}

func (s *contentService) UpdateNotice(id uint, input NoticeInput) (*model.Notice, error) {
	notice, err := s.repo.FindNoticeByID(id)
	if err != nil {
		return nil, notFoundAs(err, ErrNoticeNotFound)
	}
	if err := input.apply(notice); err != nil {
		return nil, err
	}
	if err := s.repo.Save(notice); err != nil {
		return nil, err
	}
	return notice, nil
}

func (s *contentService) DeleteNotice(id uint) error {
	return notFoundAs(s.repo.Delete(&model.Notice{}, id), ErrNoticeNotFound)
}

// ActivePopups 노출 기간 안의 활성 팝업, 우선순위 높은 순
func (s *contentService) ActivePopups(mobile bool) ([]model.Popup, error) {
	now := s.now()
	popups, err := s.repo.FindPopups(&now)
	if err != nil {
		return nil, err
	}
	if !mobile {
		return popups, nil
	}
	visible := popups[:0]
	for _, p := range popups {
		if p.ShowOnMobile {
			visible = append(visible, p)
		}
	}
	return visible, nil
}

func (s *contentService) AllPopups() ([]model.Popup, error) {
	return s.repo.FindPopups(nil)
}

func (s *contentService) applyPopup(p *model.Popup, in PopupInput) error {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return ErrContentTitleEmpty
	}
	start := s.now()
	if in.StartDate != nil {
		start = *in.StartDate
	}
	if in.EndDate != nil && !in.EndDate.After(start) {
		return ErrContentInvalidDate
	}

	p.Title = title
	p.Content = in.Content
	p.ImageURL = in.ImageURL
	p.LinkURL = in.LinkURL
	p.PopupType = in.PopupType
	if p.PopupType == "" {
		p.PopupType = "image"
		if in.ImageURL == "" {
			p.PopupType = "text"
		}
	}
	p.Position = in.Position
	if p.Position == "" {
		p.Position = "center"
	}
	p.Priority = in.Priority
	p.IsActive = in.IsActive
	p.ShowOnMain = in.ShowOnMain
	p.ShowOnMobile = in.ShowOnMobile
	p.StartDate = start
	p.EndDate = in.EndDate
	return nil
}

func (s *contentService) CreatePopup(adminID *uint, input PopupInput) (*model.Popup, error) {
	popup := &model.Popup{CreatedByID: adminID}
	if err := s.applyPopup(popup, input); err != nil {
		return nil, err
	}
	if err := s.repo.Create(popup); err != nil {
		return nil, err
	}
	logger.Info("Popup created", map[string]interface{}{
		"popup_id": popup.ID,
		"priority": popup.Priority,
	})
	return popup, nil
}

func (s *contentService) UpdatePopup(id uint, input PopupInput) (*model.Popup, error) {
	popup, err := s.repo.FindPopupByID(id)
	if err != nil {
		return nil, notFoundAs(err, ErrPopupNotFound)
	}
	if err := s.applyPopup(popup, input); err != nil {
		return nil, err
	}
	if err := s.repo.Save(popup); err != nil {
		return nil, err
	}
	return popup, nil
}

func (s *contentService) DeletePopup(id uint) error {
	return notFoundAs(s.repo.Delete(&model.Popup{}, id), ErrPopupNotFound)
}

func (s *contentService) ActiveBanners() ([]model.Banner, error) {
	now := s.now()
	return s.repo.FindBanners(&now)
}

func (s *contentService) AllBanners() ([]model.Banner, error) {
	return s.repo.FindBanners(nil)
}

func applyBanner(b *model.Banner, in BannerInput) error {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return ErrContentTitleEmpty
	}
	if strings.TrimSpace(in.ImageURL) == "" {
		return ErrBannerImageMissing
	}
	if in.StartDate != nil && in.EndDate != nil && !in.EndDate.After(*in.StartDate) {
		return ErrContentInvalidDate
	}
	b.Title = title
	b.ImageURL = in.ImageURL
	b.LinkURL = in.LinkURL
	b.SortOrder = in.Order
	b.IsActive = in.IsActive
	b.StartDate = in.StartDate
	b.EndDate = in.EndDate
	return nil
}

func (s *contentService) CreateBanner(input BannerInput) (*model.Banner, error) {
	banner := &model.Banner{}
	if err := applyBanner(banner, input); err != nil {
		return nil, err
	}
	if err := s.repo.Create(banner); err != nil {
		return nil, err
	}
	return banner, nil
}

func (s *contentService) UpdateBanner(id uint, input BannerInput) (*model.Banner, error) {
	banner, err := s.repo.FindBannerByID(id)
	if err != nil {
		return nil, notFoundAs(err, ErrBannerNotFound)
	}
	if err := applyBanner(banner, input); err != nil {
		return nil, err
	}
	if err := s.repo.Save(banner); err != nil {
		return nil, err
	}
	return banner, nil
}

func (s *contentService) DeleteBanner(id uint) error {
	return notFoundAs(s.repo.Delete(&model.Banner{}, id), ErrBannerNotFound)
}

func (s *contentService) view(e model.Event) EventView {
	return EventView{Event: e, Status: e.StatusAt(s.now())}
}

// Events status가 비어 있으면 활성 이벤트 전체
func (s *contentService) Events(status model.EventStatus) ([]EventView, error) {
	events, err := s.repo.FindEvents(true)
	if err != nil {
		return nil, err
	}
	views := make([]EventView, 0, len(events))
	for _, e := range events {
		v := s.view(e)
		if status != "" && v.Status != status {
			continue
		}
		views = append(views, v)
	}
	return views, nil
}

func (s *contentService) Event(id uint) (*EventView, error) {
	event, err := s.repo.FindEventByID(id)
	if err != nil {
		return nil, notFoundAs(err, ErrEventNotFound)
	}
	v := s.view(*event)
	return &v, nil
}

func applyEvent(e *model.Event, in EventInput) error {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return ErrContentTitleEmpty
	}
	if !in.EndDate.After(in.StartDate) {
		return ErrContentInvalidDate
	}
	e.Title = title
	e.Content = in.Content
	e.Thumbnail = in.Thumbnail
	e.StartDate = in.StartDate
	e.EndDate = in.EndDate
	e.IsActive = in.IsActive
	return nil
}

func (s *contentService) CreateEvent(input EventInput) (*EventView, error) {
	event := &model.Event{}
	if err := applyEvent(event, input); err != nil {
		return nil, err
	}
	if err := s.repo.Create(event); err != nil {
		return nil, err
	}
	v := s.view(*event)
	return &v, nil
}

func (s *contentService) UpdateEvent(id uint, input EventInput) (*EventView, error) {
	event, err := s.repo.FindEventByID(id)
	if err != nil {
		return nil, notFoundAs(err, ErrEventNotFound)
	}
	if err := applyEvent(event, input); err != nil {
		return nil, err
	}
	if err := s.repo.Save(event); err != nil {
		return nil, err
	}
	v := s.view(*event)
	return &v, nil
}

func (s *contentService) DeleteEvent(id uint) error {
	return notFoundAs(s.repo.Delete(&model.Event{}, id), ErrEventNotFound)
}
