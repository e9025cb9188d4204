package service

import (
	"errors"

	"github.com/dungji/dungji-market-backend/internal/app/model"
	"github.com/dungji/dungji-market-backend/internal/app/repository"
	"github.com/dungji/dungji-market-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrAdminSelfModify  = errors.New("본인 계정은 변경할 수 없습니다")
	ErrAdminTargetAdmin = errors.New("관리자 계정은 변경할 수 없습니다")
)

// AdminService 관리자 회원 관리
type AdminService interface {
	ListUsers(filter repository.UserFilter) ([]model.User, int64, error)
	GetUser(id uint) (*model.User, error)
	SetActive(adminID, userID uint, active bool) (*model.User, error)
	ChangeRole(adminID, userID uint, role model.UserRole) (*model.User, error)
}

type adminService struct {
	userRepo repository.UserRepository
}

func NewAdminService(userRepo repository.UserRepository) AdminService {
	return &adminService{userRepo: userRepo}
}

func (s *adminService) ListUsers(filter repository.UserFilter) ([]model.User, int64, error) {
	return s.userRepo.List(filter)
}

func (s *adminService) GetUser(id uint) (*model.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// modifiable 본인과 다른 관리자는 변경 불가
func (s *adminService) modifiable(adminID, userID uint) (*model.User, error) {
	if adminID == userID {
		return nil, ErrAdminSelfModify
	}
	user, err := s.GetUser(userID)
	if err != nil {
		return nil, err
	}
	if user.IsAdmin() {
		return nil, ErrAdminTargetAdmin
	}
	return user, nil
}

func (s *adminService) SetActive(adminID, userID uint, active bool) (*model.User, error) {
	user, err := s.modifiable(adminID, userID)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.UpdateFields(userID, map[string]interface{}{"is_active": active}); err != nil {
		return nil, err
	}
	user.IsActive = active

	logger.Info("User activation changed by admin", map[string]interface{}{
		"admin_id": adminID,
		"user_id":  userID,
		"active":   active,
	})
	return user, nil
}

// ChangeRole 일반회원 <-> 판매회원 전환만 허용
func (s *adminService) ChangeRole(adminID, userID uint, role model.UserRole) (*model.User, error) {
	if role != model.RoleBuyer && role != model.RoleSeller {
		return nil, ErrInvalidRole
	}
	user, err := s.modifiable(adminID, userID)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.UpdateFields(userID, map[string]interface{}{"role": role}); err != nil {
		return nil, err
	}

	logger.Info("User role changed by admin", map[string]interface{}{
		"admin_id": adminID,
		"user_id":  userID,
		"from":     user.Role,
		"to":       role,
	})
	user.Role = role
	return user, nil
}
