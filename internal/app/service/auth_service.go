package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dungji/dungji-market-backend/internal/app/model"
	"github.com/dungji/dungji-market-backend/internal/app/repository"
	"github.com/dungji/dungji-market-backend/pkg/kakao"
	"github.com/dungji/dungji-market-backend/pkg/logger"
	"github.com/dungji/dungji-market-backend/pkg/redis"
	"github.com/dungji/dungji-market-backend/pkg/util"
	"gorm.io/gorm"
)

var (
	ErrEmailAlreadyExists    = errors.New("이미 사용 중인 이메일입니다")
	ErrNicknameAlreadyExists = errors.New("이미 사용 중인 닉네임입니다")
	ErrInvalidCredentials    = errors.New("이메일 또는 비밀번호가 올바르지 않습니다")
	ErrUserNotFound          = errors.New("사용자를 찾을 수 없습니다")
	ErrAccountInactive       = errors.New("비활성화된 계정입니다")
	ErrInvalidRole           = errors.New("일반회원 또는 판매회원으로만 가입할 수 있습니다")
	ErrTokenRevoked          = errors.New("로그아웃된 토큰입니다")
	ErrRefreshTokenRequired  = errors.New("리프레시 토큰이 필요합니다")
	ErrKakaoLoginFailed      = errors.New("카카오 로그인에 실패했습니다")
)

// KakaoAuthenticator 카카오 OAuth (pkg/kakao.Client)
type KakaoAuthenticator interface {
	AuthorizeURL(state string) (string, error)
	Login(ctx context.Context, code string) (*kakao.Profile, error)
}

type RegisterInput struct {
	Email        string
	Password     string
	Name         string
	Nickname     string
	Phone        string
	Region       string
	Role         model.UserRole
	ReferralCode string
}

type UpdateProfileInput struct {
	Name         *string
	Nickname     *string
	Region       *string
	ProfileImage *string
}

type AuthService interface {
	Register(input RegisterInput) (*model.User, *util.TokenPair, error)
	Login(email, password string) (*model.User, *util.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*util.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	GetUserByID(id uint) (*model.User, error)
	UpdateProfile(userID uint, input UpdateProfileInput) (*model.User, error)
	KakaoLoginURL(state string) (string, error)
	KakaoLogin(ctx context.Context, code string, role model.UserRole) (*model.User, *util.TokenPair, bool, error)
	IsEmailAvailable(email string) (bool, error)
	IsNicknameAvailable(nickname string) (bool, error)
}

type authService struct {
	db            *gorm.DB
	userRepo      repository.UserRepository
	partnerRepo   repository.PartnerRepository
	kakao         KakaoAuthenticator
	jwtSecret     string
	accessExpiry  time.Duration
	refreshExpiry time.Duration
}

func NewAuthService(
	db *gorm.DB,
	userRepo repository.UserRepository,
	partnerRepo repository.PartnerRepository,
	kakao KakaoAuthenticator,
	jwtSecret string,
	accessExpiry, refreshExpiry time.Duration,
) AuthService {
	return &authService{
		db:            db,
		userRepo:      userRepo,
		partnerRepo:   partnerRepo,
		kakao:         kakao,
		jwtSecret:     jwtSecret,
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
	}
}

func (s *authService) issueTokens(user *model.User) (*util.TokenPair, error) {
	tokens, err := util.GenerateTokenPair(
		user.ID,
		user.Email,
		string(user.Role),
		s.jwtSecret,
		s.accessExpiry,
		s.refreshExpiry,
	)
	if err != nil {
		logger.Error("Failed to generate tokens", err, map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, err
	}
	return tokens, nil
}

func (s *authService) Register(input RegisterInput) (*model.User, *util.TokenPair, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	logger.Info("Attempting user registration", map[string]interface{}{
		"email": email,
		"role":  input.Role,
	})

	role := input.Role
	if role == "" {
		role = model.RoleBuyer
	}
	if role != model.RoleBuyer && role != model.RoleSeller {
		return nil, nil, ErrInvalidRole
	}
	if err := util.ValidatePassword(input.Password); err != nil {
		return nil, nil, err
	}

	exists, err := s.userRepo.ExistsByEmail(email)
	if err != nil {
		logger.Error("Failed to check existing user", err, map[string]interface{}{
			"email": email,
		})
		return nil, nil, err
	}
	if exists {
		logger.Warn("Registration failed: email already exists", map[string]interface{}{
			"email": email,
		})
		return nil, nil, ErrEmailAlreadyExists
	}

	if exists, err := s.userRepo.ExistsByNickname(input.Nickname); err != nil {
		return nil, nil, err
	} else if exists {
		return nil, nil, ErrNicknameAlreadyExists
	}

	hashedPassword, err := util.HashPassword(input.Password)
	if err != nil {
		logger.Error("Failed to hash password", err, map[string]interface{}{
			"email": email,
		})
		return nil, nil, err
	}

	user := &model.User{
		Email:        email,
		PasswordHash: hashedPassword,
		Name:         input.Name,
		Nickname:     input.Nickname,
		Phone:        util.OnlyDigits(input.Phone),
		Region:       input.Region,
		Role:         role,
		SNSType:      model.SNSTypeEmail,
		IsActive:     true,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var partner *model.Partner
		if code := strings.TrimSpace(input.ReferralCode); code != "" {
			p, err := s.partnerRepo.WithTx(tx).FindByCode(code)
			switch {
			case err == nil:
				partner = p
				user.ReferredBy = p.PartnerCode
			case errors.Is(err, gorm.ErrRecordNotFound):
				logger.Warn("Unknown referral code ignored", map[string]interface{}{
					"code": code,
				})
			default:
				return err
			}
		}

		if err := s.userRepo.WithTx(tx).Create(user); err != nil {
			return err
		}

		if partner != nil {
			record := &model.ReferralRecord{
				PartnerID:          partner.ID,
				ReferredUserID:     user.ID,
				JoinedDate:         time.Now(),
				SubscriptionStatus: model.SubscriptionActive,
				SettlementStatus:   model.ReferralSettlementPending,
			}
			if err := s.partnerRepo.WithTx(tx).CreateReferral(record); err != nil {
				return fmt.Errorf("create referral record: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		logger.Error("Failed to create user in database", err, map[string]interface{}{
			"email": email,
		})
		return nil, nil, err
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}

	logger.Info("User registered successfully", map[string]interface{}{
		"user_id":     user.ID,
		"role":        user.Role,
		"referred_by": user.ReferredBy,
	})

	return user, tokens, nil
}

func (s *authService) Login(email, password string) (*model.User, *util.TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	logger.Info("Login attempt", map[string]interface{}{
		"email": email,
	})

	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Login failed: user not found", map[string]interface{}{
				"email": email,
			})
			return nil, nil, ErrInvalidCredentials
		}
		logger.Error("Failed to find user", err, map[string]interface{}{
			"email": email,
		})
		return nil, nil, err
	}

	if user.PasswordHash == "" || !util.VerifyPassword(user.PasswordHash, password) {
		logger.Warn("Login failed: invalid password", map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		logger.Warn("Login failed: inactive account", map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, nil, ErrAccountInactive
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now()
	fields := map[string]interface{}{"last_login_at": now}
	if util.NeedsRehash(user.PasswordHash) {
		if hash, err := util.HashPassword(password); err == nil {
			fields["password_hash"] = hash
			user.PasswordHash = hash
		}
	}
	if err := s.userRepo.UpdateFields(user.ID, fields); err != nil {
		logger.Warn("Failed to update last login", map[string]interface{}{
			"user_id": user.ID,
			"error":   err.Error(),
		})
	}
	user.LastLoginAt = &now

	logger.Info("User logged in successfully", map[string]interface{}{
		"user_id": user.ID,
		"role":    user.Role,
	})

	return user, tokens, nil
}

// Refresh 리프레시 토큰 검증 후 새 토큰 쌍 발급. 사용한 토큰은 블랙리스트에 올린다.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*util.TokenPair, error) {
	if refreshToken == "" {
		return nil, ErrRefreshTokenRequired
	}

	claims, err := util.ValidateToken(refreshToken, s.jwtSecret)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != util.TokenTypeRefresh {
		return nil, util.ErrInvalidToken
	}

	revoked, err := redis.IsTokenBlacklisted(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if revoked {
		logger.Warn("Revoked refresh token used", map[string]interface{}{
			"user_id": claims.UserID,
		})
		return nil, ErrTokenRevoked
	}

	user, err := s.GetUserByID(claims.UserID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrAccountInactive
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, err
	}

	if err := redis.BlacklistToken(ctx, refreshToken, util.TokenRemaining(claims)); err != nil {
		logger.Warn("Failed to rotate refresh token", map[string]interface{}{
			"user_id": user.ID,
			"error":   err.Error(),
		})
	}

	return tokens, nil
}

// Logout 만료 전까지 리프레시 토큰을 블랙리스트에 보관
func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return ErrRefreshTokenRequired
	}

	claims, err := util.ValidateToken(refreshToken, s.jwtSecret)
	if err != nil {
		if errors.Is(err, util.ErrExpiredToken) {
			return nil
		}
		return err
	}

	if err := redis.BlacklistToken(ctx, refreshToken, util.TokenRemaining(claims)); err != nil {
		return err
	}

	logger.Info("User logged out", map[string]interface{}{
		"user_id": claims.UserID,
	})
	return nil
}

func (s *authService) GetUserByID(id uint) (*model.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("User not found", map[string]interface{}{
				"user_id": id,
			})
			return nil, ErrUserNotFound
		}
		logger.Error("Failed to fetch user", err, map[string]interface{}{
			"user_id": id,
		})
		return nil, err
	}
	return user, nil
}

func (s *authService) UpdateProfile(userID uint, input UpdateProfileInput) (*model.User, error) {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return nil, err
	}

	updated := false
	if input.Name != nil && *input.Name != "" && *input.Name != user.Name {
		user.Name = *input.Name
		updated = true
	}
	if input.Nickname != nil && *input.Nickname != "" && *input.Nickname != user.Nickname {
		exists, err := s.userRepo.ExistsByNickname(*input.Nickname)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, ErrNicknameAlreadyExists
		}
		user.Nickname = *input.Nickname
		updated = true
	}
	if input.Region != nil && *input.Region != user.Region {
		user.Region = *input.Region
		updated = true
	}
	if input.ProfileImage != nil && *input.ProfileImage != user.ProfileImage {
		user.ProfileImage = *input.ProfileImage
		updated = true
	}

	if !updated {
		return user, nil
	}

	if err := s.userRepo.Update(user); err != nil {
		logger.Error("Failed to update user profile", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	logger.Info("User profile updated successfully", map[string]interface{}{
		"user_id": user.ID,
	})
	return user, nil
}

func (s *authService) KakaoLoginURL(state string) (string, error) {
	if s.kakao == nil {
		return "", kakao.ErrNotConfigured
	}
	return s.kakao.AuthorizeURL(state)
}

// KakaoLogin 카카오 계정으로 로그인. 처음이면 가입시키고 created=true.
func (s *authService) KakaoLogin(ctx context.Context, code string, role model.UserRole) (*model.User, *util.TokenPair, bool, error) {
	if s.kakao == nil {
		return nil, nil, false, kakao.ErrNotConfigured
	}

	profile, err := s.kakao.Login(ctx, code)
	if err != nil {
		logger.Error("Kakao login failed", err)
		return nil, nil, false, fmt.Errorf("%w: %v", ErrKakaoLoginFailed, err)
	}

	user, created, err := s.linkOrCreateKakaoUser(profile, role)
	if err != nil {
		return nil, nil, false, err
	}
	if !user.IsActive {
		return nil, nil, false, ErrAccountInactive
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, nil, false, err
	}

	logger.Info("Kakao login succeeded", map[string]interface{}{
		"user_id": user.ID,
		"created": created,
	})
	return user, tokens, created, nil
}

func (s *authService) linkOrCreateKakaoUser(profile *kakao.Profile, role model.UserRole) (*model.User, bool, error) {
	user, err := s.userRepo.FindBySNS(model.SNSTypeKakao, profile.ID)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	email := strings.ToLower(profile.Email)
	if email == "" {
		email = fmt.Sprintf("kakao_%s@kakao.local", profile.ID)
	}

	// 같은 이메일의 기존 계정은 카카오 계정과 연결
	if existing, err := s.userRepo.FindByEmail(email); err == nil {
		existing.SNSType = model.SNSTypeKakao
		existing.SNSID = profile.ID
		if existing.ProfileImage == "" {
			existing.ProfileImage = profile.ProfileImage
		}
		if err := s.userRepo.Update(existing); err != nil {
			return nil, false, err
		}
		return existing, false, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	if role != model.RoleSeller {
		role = model.RoleBuyer
	}

	nickname, err := s.uniqueNickname(profile.Nickname)
	if err != nil {
		return nil, false, err
	}

	user = &model.User{
		Email:        email,
		Name:         profile.Nickname,
		Nickname:     nickname,
		Role:         role,
		SNSType:      model.SNSTypeKakao,
		SNSID:        profile.ID,
		ProfileImage: profile.ProfileImage,
		IsActive:     true,
	}
	if user.Name == "" {
		user.Name = nickname
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, false, err
	}
	return user, true, nil
}

func (s *authService) uniqueNickname(base string) (string, error) {
	if base == "" {
		base = "둥지"
	}
	candidate := base
	for i := 0; i < 10; i++ {
		exists, err := s.userRepo.ExistsByNickname(candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = base + util.GenerateNumericCode(4)
	}
	return base + util.GenerateNumericCode(8), nil
}

func (s *authService) IsEmailAvailable(email string) (bool, error) {
	exists, err := s.userRepo.ExistsByEmail(strings.ToLower(strings.TrimSpace(email)))
	return !exists, err
}

func (s *authService) IsNicknameAvailable(nickname string) (bool, error) {
	exists, err := s.userRepo.ExistsByNickname(strings.TrimSpace(nickname))
	return !exists, err
}
