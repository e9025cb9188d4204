package service

import (
	"errors"

	"github.com/dungji/dungji-market-backend/internal/app/model"
	"github.com/dungji/dungji-market-backend/internal/app/repository"
	"github.com/dungji/dungji-market-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrNotificationNotFound  = errors.New("알림을 찾을 수 없습니다")
	ErrNotificationForbidden = errors.New("권한이 없습니다")
)

// Pusher 실시간 전송 (websocket.Hub)
type Pusher interface {
	SendToUser(userID uint, message interface{}) error
}

// Notifier 다른 서비스가 거래/결제 이벤트를 알릴 때 쓰는 최소 인터페이스
type Notifier interface {
	Notify(notification *model.Notification)
	NotifyAdmins(notifType model.NotificationType, title, content, link string)
}

// NotificationService 알림 서비스 인터페이스
type NotificationService interface {
	Notifier
	GetNotifications(userID uint, notifType *model.NotificationType, isRead *bool, page, pageSize int) ([]model.Notification, int64, int64, error)
	GetUnreadCount(userID uint) (int64, error)
	MarkAsRead(notificationID, userID uint) (*model.Notification, error)
	MarkAllAsRead(userID uint) error
	DeleteNotification(notificationID, userID uint) error
}

type notificationService struct {
	repo   repository.NotificationRepository
	pusher Pusher
}

// NewNotificationService pusher가 nil이면 저장만 한다.
func NewNotificationService(repo repository.NotificationRepository, pusher Pusher) NotificationService {
	return &notificationService{
		repo:   repo,
		pusher: pusher,
	}
}

// GetNotifications 알림 목록 조회
func (s *notificationService) GetNotifications(
	userID uint,
	notifType *model.NotificationType,
	isRead *bool,
	page, pageSize int,
) ([]model.Notification, int64, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	offset := (page - 1) * pageSize

	notifications, total, err := s.repo.GetNotifications(userID, notifType, isRead, pageSize, offset)
	if err != nil {
		return nil, 0, 0, err
	}

	unreadCount, err := s.repo.GetUnreadCount(userID)
	if err != nil {
		return nil, 0, 0, err
	}

	return notifications, total, unreadCount, nil
}

func (s *notificationService) GetUnreadCount(userID uint) (int64, error) {
	return s.repo.GetUnreadCount(userID)
}

func (s *notificationService) findOwned(notificationID, userID uint) (*model.Notification, error) {
	notification, err := s.repo.GetNotificationByID(notificationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotificationNotFound
		}
		return nil, err
	}
	if notification.UserID != userID {
		return nil, ErrNotificationForbidden
	}
	return notification, nil
}

// MarkAsRead 알림 읽음 처리
func (s *notificationService) MarkAsRead(notificationID, userID uint) (*model.Notification, error) {
	notification, err := s.findOwned(notificationID, userID)
	if err != nil {
		return nil, err
	}

	if notification.IsRead {
		return notification, nil
	}

	if err := s.repo.MarkAsRead(notificationID); err != nil {
		return nil, err
	}

	notification.IsRead = true
	return notification, nil
}

func (s *notificationService) MarkAllAsRead(userID uint) error {
	return s.repo.MarkAllAsRead(userID)
}

func (s *notificationService) DeleteNotification(notificationID, userID uint) error {
	if _, err := s.findOwned(notificationID, userID); err != nil {
		return err
	}
	return s.repo.DeleteNotification(notificationID)
}

// Notify 저장 후 접속 중이면 푸시. 실패해도 호출한 거래 흐름은 막지 않는다.
func (s *notificationService) Notify(notification *model.Notification) {
	if notification == nil || notification.UserID == 0 {
		return
	}

	if err := s.repo.CreateNotification(notification); err != nil {
		logger.Error("Failed to create notification", err, map[string]interface{}{
			"user_id": notification.UserID,
			"type":    notification.Type,
		})
		return
	}

	if s.pusher == nil {
		return
	}
	if err := s.pusher.SendToUser(notification.UserID, map[string]interface{}{
		"type":         "notification",
		"notification": notification,
	}); err != nil {
		logger.Warn("Failed to push notification", map[string]interface{}{
			"user_id": notification.UserID,
			"error":   err.Error(),
		})
	}
}

// NotifyAdmins 환불/정산 요청 등 관리자 확인이 필요한 이벤트
func (s *notificationService) NotifyAdmins(notifType model.NotificationType, title, content, link string) {
	adminIDs, err := s.repo.GetAdminIDs()
	if err != nil {
		logger.Error("Failed to load admin ids", err)
		return
	}
	for _, id := range adminIDs {
		s.Notify(&model.Notification{
			UserID:  id,
			Type:    notifType,
			Title:   title,
			Content: content,
			Link:    link,
		})
	}
}
