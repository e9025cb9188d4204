package service

import (
	"testing"

	"github.com/dungji/dungji-market-backend/internal/app/model"
	"github.com/dungji/dungji-market-backend/internal/db"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupServiceTestDB(t *testing.T) *gorm.DB {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })
	return testDB
}

func createServiceTestUser(t *testing.T, testDB *gorm.DB, email, nickname string, role model.UserRole) *model.User {
	user := &model.User{
		Email:        email,
		PasswordHash: "hashedpassword",
		Name:         "테스트",
		Nickname:     nickname,
		Phone:        "01012345678",
		Role:         role,
		IsActive:     true,
	}
	require.NoError(t, testDB.Create(user).Error)
	return user
}

// recordingNotifier 발송된 알림을 모은다
type recordingNotifier struct {
	sent   []*model.Notification
	admins []model.NotificationType
}

func (n *recordingNotifier) Notify(notification *model.Notification) {
	n.sent = append(n.sent, notification)
}

func (n *recordingNotifier) NotifyAdmins(notifType model.NotificationType, title, content, link string) {
	n.admins = append(n.admins, notifType)
}

func (n *recordingNotifier) typesFor(userID uint) []model.NotificationType {
	var types []model.NotificationType
	for _, s := range n.sent {
		if s.UserID == userID {
			types = append(types, s.Type)
		}
	}
	return types
}

func createServiceTestPhone(t *testing.T, testDB *gorm.DB, sellerID uint, price int64, minOffer *int64) *model.UsedItem {
	item := &model.UsedItem{
		SellerID:      sellerID,
		ItemType:      model.UsedItemPhone,
		Title:         "아이폰 15 프로 256GB",
		Price:         price,
		AcceptOffers:  true,
		MinOfferPrice: minOffer,
		Description:   "배터리 효율 92%, 기스 없음",
		Region:        "서울 강남구",
		MeetingPlace:  "강남역 11번 출구",
		Status:        model.UsedStatusActive,
		PhoneDetail: &model.UsedPhoneDetail{
			Brand:     "apple",
			Model:     "iPhone 15 Pro",
			Storage:   256,
			Condition: model.ConditionA,
		},
	}
	require.NoError(t, testDB.Create(item).Error)
	return item
}

func int64Ptr(v int64) *int64 { return &v }

func boolPtr(v bool) *bool { return &v }
