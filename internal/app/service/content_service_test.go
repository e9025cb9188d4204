package service

import (
	"testing"
	"time"

	"github.com/dungji/dungji-market-backend/internal/app/model"
	"github.com/dungji/dungji-market-backend/internal/app/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupContentTest(t *testing.T) ContentService {
	testDB := setupServiceTestDB(t)
	return NewContentService(repository.NewContentRepository(testDB))
}

func TestContentService_Notices(t *testing.T) {
	svc := setupContentTest(t)

	_, err := svc.CreateNotice(1, NoticeInput{Title: "  "})
	assert.ErrorIs(t, err, ErrContentTitleEmpty)

	general, err := svc.CreateNotice(1, NoticeInput{Title: "서비스 점검 안내", Content: "새벽 2시~4시", IsPublished: true})
	require.NoError(t, err)
	assert.Equal(t, "general", general.Category)
	pinned, err := svc.CreateNotice(1, NoticeInput{Title: "수수료 정책 변경", Content: "...", IsPinned: true, IsPublished: true})
	require.NoError(t, err)
	draft, err := svc.CreateNotice(1, NoticeInput{Title: "작성중", Content: "..."})
	require.NoError(t, err)

	list, total, err := svc.Notices(repository.NoticeFilter{PublishedOnly: true})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, list, 2)
	assert.Equal(t, pinned.ID, list[0].ID)

	viewed, err := svc.Notice(general.ID, false)
	require.NoError(t, err)
	assert.Equal(t, 1, viewed.ViewCount)
	viewed, err = svc.Notice(general.ID, false)
	require.NoError(t, err)
	assert.Equal(t, 2, viewed.ViewCount)

	_, err = svc.Notice(draft.ID, false)
	assert.ErrorIs(t, err, ErrNoticeNotFound)
	adminView, err := svc.Notice(draft.ID, true)
	require.NoError(t, err)
	assert.Zero(t, adminView.ViewCount)

	updated, err := svc.UpdateNotice(draft.ID, NoticeInput{Title: "작성 완료", Category: "event", IsPublished: true})
	require.NoError(t, err)
	assert.Equal(t, "event", updated.Category)

	require.NoError(t, svc.DeleteNotice(draft.ID))
	assert.ErrorIs(t, svc.DeleteNotice(draft.ID), ErrNoticeNotFound)
	_, err = svc.UpdateNotice(9999, NoticeInput{Title: "x"})
	assert.ErrorIs(t, err, ErrNoticeNotFound)
}

func TestContentService_ActivePopups(t *testing.T) {
	svc := setupContentTest(t)
	now := time.Now()
	past, future := now.Add(-48*time.Hour), now.Add(48*time.Hour)
	expired := now.Add(-time.Hour)

	low, err := svc.CreatePopup(nil, PopupInput{Title: "낮음", IsActive: true, Priority: 1, ShowOnMobile: true, StartDate: &past})
	require.NoError(t, err)
	assert.Equal(t, "text", low.PopupType)
	high, err := svc.CreatePopup(nil, PopupInput{Title: "높음", ImageURL: "https://cdn/x.png", IsActive: true, Priority: 10, StartDate: &past, EndDate: &future})
	require.NoError(t, err)
	assert.Equal(t, "image", high.PopupType)

	_, err = svc.CreatePopup(nil, PopupInput{Title: "예정", IsActive: true, Priority: 20, StartDate: &future})
	require.NoError(t, err)
	_, err = svc.CreatePopup(nil, PopupInput{Title: "만료", IsActive: true, Priority: 30, StartDate: &past, EndDate: &expired})
	require.NoError(t, err)
	_, err = svc.CreatePopup(nil, PopupInput{Title: "비활성", Priority: 40, StartDate: &past})
	require.NoError(t, err)

	_, err = svc.CreatePopup(nil, PopupInput{Title: "역순", StartDate: &future, EndDate: &past})
	assert.ErrorIs(t, err, ErrContentInvalidDate)

	active, err := svc.ActivePopups(false)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, high.ID, active[0].ID)
	assert.Equal(t, low.ID, active[1].ID)

	mobile, err := svc.ActivePopups(true)
	require.NoError(t, err)
	require.Len(t, mobile, 1)
	assert.Equal(t, low.ID, mobile[0].ID)

	all, err := svc.AllPopups()
	require.NoError(t, err)
	assert.Len(t, all, 5)

	_, err = svc.UpdatePopup(high.ID, PopupInput{Title: "높음", IsActive: false, StartDate: &past})
	require.NoError(t, err)
	active, err = svc.ActivePopups(false)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	require.NoError(t, svc.DeletePopup(low.ID))
	assert.ErrorIs(t, svc.DeletePopup(low.ID), ErrPopupNotFound)
}

func TestContentService_Banners(t *testing.T) {
	svc := setupContentTest(t)

	_, err := svc.CreateBanner(BannerInput{Title: "이미지 없음"})
	assert.ErrorIs(t, err, ErrBannerImageMissing)

	second, err := svc.CreateBanner(BannerInput{Title: "둘째", ImageURL: "https://cdn/2.png", Order: 2, IsActive: true})
	require.NoError(t, err)
	first, err := svc.CreateBanner(BannerInput{Title: "첫째", ImageURL: "https://cdn/1.png", Order: 1, IsActive: true})
	require.NoError(t, err)
	_, err = svc.CreateBanner(BannerInput{Title: "숨김", ImageURL: "https://cdn/3.png", Order: 0})
	require.NoError(t, err)

	banners, err := svc.ActiveBanners()
	require.NoError(t, err)
	require.Len(t, banners, 2)
	assert.Equal(t, first.ID, banners[0].ID)
	assert.Equal(t, second.ID, banners[1].ID)

	all, err := svc.AllBanners()
	require.NoError(t, err)
	assert.Len(t, all, 3)

	updated, err := svc.UpdateBanner(second.ID, BannerInput{Title: "둘째", ImageURL: "https://cdn/2b.png", Order: 0, IsActive: true})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/2b.png", updated.ImageURL)

	require.NoError(t, svc.DeleteBanner(first.ID))
	_, err = svc.UpdateBanner(first.ID, BannerInput{Title: "x", ImageURL: "y"})
	assert.ErrorIs(t, err, ErrBannerNotFound)
}

func TestContentService_EventStatus(t *testing.T) {
	svc := setupContentTest(t)
	now := time.Now()

	_, err := svc.CreateEvent(EventInput{Title: "역순", StartDate: now, EndDate: now.Add(-time.Hour)})
	assert.ErrorIs(t, err, ErrContentInvalidDate)

	ongoing, err := svc.CreateEvent(EventInput{Title: "가입 이벤트", StartDate: now.Add(-time.Hour), EndDate: now.Add(24 * time.Hour), IsActive: true})
	require.NoError(t, err)
	assert.Equal(t, model.EventOngoing, ongoing.Status)

	upcoming, err := svc.CreateEvent(EventInput{Title: "추석 이벤트", StartDate: now.Add(24 * time.Hour), EndDate: now.Add(72 * time.Hour), IsActive: true})
	require.NoError(t, err)
	assert.Equal(t, model.EventUpcoming, upcoming.Status)

	ended, err := svc.CreateEvent(EventInput{Title: "지난 이벤트", StartDate: now.Add(-72 * time.Hour), EndDate: now.Add(-24 * time.Hour), IsActive: true})
	require.NoError(t, err)
	assert.Equal(t, model.EventEnded, ended.Status)

	all, err := svc.Events("")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	current, err := svc.Events(model.EventOngoing)
	require.NoError(t, err)
	require.Len(t, current, 1)
	assert.Equal(t, ongoing.ID, current[0].ID)

	got, err := svc.Event(upcoming.ID)
	require.NoError(t, err)
	assert.Equal(t, model.EventUpcoming, got.Status)

	require.NoError(t, svc.DeleteEvent(ended.ID))
	_, err = svc.Event(ended.ID)
	assert.ErrorIs(t, err, ErrEventNotFound)
}
