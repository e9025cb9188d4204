package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dungji/dungji-market-backend/config"
	"github.com/dungji/dungji-market-backend/internal/app/model"
	"github.com/dungji/dungji-market-backend/internal/app/repository"
	"github.com/dungji/dungji-market-backend/pkg/logger"
	"github.com/dungji/dungji-market-backend/pkg/redis"
	"github.com/dungji/dungji-market-backend/pkg/util"
	lru "github.com/hashicorp/golang-lru"
	"gorm.io/gorm"
)

var (
	ErrInvalidPhone          = errors.New("올바른 휴대폰 번호를 입력해주세요")
	ErrResendTooSoon         = errors.New("잠시 후 다시 요청해주세요")
	ErrTooManyCodeRequests   = errors.New("인증번호 요청 횟수를 초과했습니다. 1시간 후 다시 시도해주세요")
	ErrPhoneInUse            = errors.New("이미 다른 계정에서 인증된 번호입니다")
	ErrCodeNotRequested      = errors.New("인증번호를 먼저 요청해주세요")
	ErrCodeExpired           = errors.New("인증번호가 만료되었습니다. 다시 요청해주세요")
	ErrCodeMismatch          = errors.New("인증번호가 일치하지 않습니다")
	ErrTooManyAttempts       = errors.New("인증 시도 횟수를 초과했습니다. 다시 요청해주세요")
	ErrInvalidBusinessNumber = errors.New("올바른 사업자등록번호 형식이 아닙니다")
	ErrBusinessNotValid      = errors.New("유효하지 않은 사업자등록번호입니다")
	ErrBusinessAPIFailed     = errors.New("사업자 상태 조회 중 오류가 발생했습니다")
)

const businessCacheSize = 1024

// BusinessChecker 국세청 상태조회 (util.BusinessVerifier)
type BusinessChecker interface {
	Verify(ctx context.Context, businessNumber string) (*util.BusinessVerificationResult, error)
}

type SendCodeResult struct {
	Phone     string    `json:"phone"`
	ExpiresAt time.Time `json:"expires_at"`
	ExpiresIn int       `json:"expires_in"` // seconds
}

type VerifyCodeResult struct {
	Verified          bool `json:"verified"`
	RemainingAttempts int  `json:"remaining_attempts"`
}

type VerificationService interface {
	SendPhoneCode(ctx context.Context, phone string, purpose model.VerificationPurpose, userID *uint, ip string) (*SendCodeResult, error)
	VerifyPhoneCode(ctx context.Context, phone, code string, purpose model.VerificationPurpose, userID *uint) (*VerifyCodeResult, error)
	IsPhoneVerified(phone string, purpose model.VerificationPurpose) (bool, error)
	CleanupPhoneVerifications(olderThan time.Duration) (int64, error)
	VerifyBusinessNumber(ctx context.Context, userID uint, businessNumber string) (*model.BusinessNumberVerification, error)
	LatestBusinessVerification(userID uint) (*model.BusinessNumberVerification, error)
}

type businessCacheEntry struct {
	result    util.BusinessVerificationResult
	expiresAt time.Time
}

type verificationService struct {
	db       *gorm.DB
	repo     repository.VerificationRepository
	userRepo repository.UserRepository
	sms      util.SMSSender
	business BusinessChecker
	policy   config.VerificationPolicy
	cache    *lru.Cache
}

func NewVerificationService(
	db *gorm.DB,
	repo repository.VerificationRepository,
	userRepo repository.UserRepository,
	sms util.SMSSender,
	business BusinessChecker,
	policy config.VerificationPolicy,
) VerificationService {
	cache, _ := lru.New(businessCacheSize)
	return &verificationService{
		db:       db,
		repo:     repo,
		userRepo: userRepo,
		sms:      sms,
		business: business,
		policy:   policy,
		cache:    cache,
	}
}

// NormalizePhone 숫자만 남기고 01x 10~11자리인지 확인
func NormalizePhone(raw string) (string, error) {
	phone := util.OnlyDigits(raw)
	if len(phone) < 10 || len(phone) > 11 || phone[:2] != "01" {
		return "", ErrInvalidPhone
	}
	return phone, nil
}

func (s *verificationService) SendPhoneCode(ctx context.Context, rawPhone string, purpose model.VerificationPurpose, userID *uint, ip string) (*SendCodeResult, error) {
	phone, err := NormalizePhone(rawPhone)
	if err != nil {
		return nil, err
	}
	if purpose == "" {
		purpose = model.PurposeSignup
	}

	now := time.Now()

	if latest, err := s.repo.FindLatestByPhone(phone); err == nil {
		if now.Sub(latest.CreatedAt) < s.policy.ResendCooldown() {
			return nil, ErrResendTooSoon
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hourAgo := now.Add(-time.Hour)
	count, err := s.repo.CountByPhoneSince(phone, hourAgo)
	if err != nil {
		return nil, err
	}
	if count >= int64(s.policy.PhoneHourlyLimit) {
		logger.Warn("Phone verification hourly limit reached", map[string]interface{}{
			"phone": util.MaskPhone(phone),
		})
		return nil, ErrTooManyCodeRequests
	}
	if ip != "" {
		count, err := s.repo.CountByIPSince(ip, hourAgo)
		if err != nil {
			return nil, err
		}
		if count >= int64(s.policy.IPHourlyLimit) {
			logger.Warn("Phone verification IP limit reached", map[string]interface{}{
				"ip": ip,
			})
			return nil, ErrTooManyCodeRequests
		}
	}

	if purpose == model.PurposeSignup {
		var self uint
		if userID != nil {
			self = *userID
		}
		inUse, err := s.userRepo.IsPhoneVerifiedByOther(phone, self)
		if err != nil {
			return nil, err
		}
		if inUse {
			return nil, ErrPhoneInUse
		}
	}

	if err := s.repo.ExpirePending(phone, purpose); err != nil {
		return nil, err
	}

	code := util.GenerateNumericCode(6)
	verification := &model.PhoneVerification{
		Phone:       phone,
		Code:        code,
		Status:      model.PhoneVerificationPending,
		Purpose:     purpose,
		UserID:      userID,
		IPAddress:   ip,
		MaxAttempts: s.policy.MaxAttempts,
		ExpiresAt:   now.Add(s.policy.CodeTTL()),
	}
	if err := s.repo.CreatePhoneVerification(verification); err != nil {
		return nil, err
	}

	if err := s.sms.SendVerificationCode(ctx, phone, code, s.policy.CodeTTL()); err != nil {
		logger.Error("Failed to send verification SMS", err, map[string]interface{}{
			"phone": util.MaskPhone(phone),
		})
		return nil, fmt.Errorf("send sms: %w", err)
	}

	logger.Info("Verification code sent", map[string]interface{}{
		"phone":   util.MaskPhone(phone),
		"purpose": purpose,
	})

	return &SendCodeResult{
		Phone:     phone,
		ExpiresAt: verification.ExpiresAt,
		ExpiresIn: int(s.policy.CodeTTL().Seconds()),
	}, nil
}

func (s *verificationService) VerifyPhoneCode(ctx context.Context, rawPhone, code string, purpose model.VerificationPurpose, userID *uint) (*VerifyCodeResult, error) {
	phone, err := NormalizePhone(rawPhone)
	if err != nil {
		return nil, err
	}
	if purpose == "" {
		purpose = model.PurposeSignup
	}

	v, err := s.repo.FindLatestPending(phone, purpose)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCodeNotRequested
		}
		return nil, err
	}

	now := time.Now()
	if v.IsExpired(now) {
		v.Status = model.PhoneVerificationExpired
		if err := s.repo.SavePhoneVerification(v); err != nil {
			return nil, err
		}
		return nil, ErrCodeExpired
	}

	if v.AttemptCount >= v.MaxAttempts {
		v.Status = model.PhoneVerificationFailed
		if err := s.repo.SavePhoneVerification(v); err != nil {
			return nil, err
		}
		return nil, ErrTooManyAttempts
	}

	v.AttemptCount++
	if v.Code != code {
		if v.AttemptCount >= v.MaxAttempts {
			v.Status = model.PhoneVerificationFailed
		}
		if err := s.repo.SavePhoneVerification(v); err != nil {
			return nil, err
		}
		logger.Warn("Verification code mismatch", map[string]interface{}{
			"phone":    util.MaskPhone(phone),
			"attempts": v.AttemptCount,
		})
		if v.Status == model.PhoneVerificationFailed {
			return &VerifyCodeResult{}, ErrTooManyAttempts
		}
		return &VerifyCodeResult{RemainingAttempts: v.RemainingAttempts()}, ErrCodeMismatch
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		v.Status = model.PhoneVerificationVerified
		v.VerifiedAt = &now
		if userID != nil {
			v.UserID = userID
		}
		if err := s.repo.WithTx(tx).SavePhoneVerification(v); err != nil {
			return err
		}

		if userID == nil {
			return nil
		}
		inUse, err := s.userRepo.WithTx(tx).IsPhoneVerifiedByOther(phone, *userID)
		if err != nil {
			return err
		}
		if inUse {
			return ErrPhoneInUse
		}
		return s.userRepo.WithTx(tx).UpdateFields(*userID, map[string]interface{}{
			"phone":             phone,
			"phone_verified":    true,
			"phone_verified_at": now,
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Phone verified", map[string]interface{}{
		"phone":   util.MaskPhone(phone),
		"user_id": userID,
	})
	return &VerifyCodeResult{Verified: true, RemainingAttempts: v.RemainingAttempts()}, nil
}

// IsPhoneVerified 최근 24시간 안에 인증을 마쳤는지
func (s *verificationService) IsPhoneVerified(rawPhone string, purpose model.VerificationPurpose) (bool, error) {
	phone, err := NormalizePhone(rawPhone)
	if err != nil {
		return false, err
	}
	return s.repo.HasRecentVerified(phone, purpose, time.Now().Add(-24*time.Hour))
}

func (s *verificationService) CleanupPhoneVerifications(olderThan time.Duration) (int64, error) {
	deleted, err := s.repo.DeleteOlderThan(time.Now().Add(-olderThan))
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		logger.Info("Old phone verifications deleted", map[string]interface{}{
			"deleted": deleted,
		})
	}
	return deleted, nil
}

func businessCacheKey(number string) string {
	return "business:verify:" + number
}

// lookupBusinessCache LRU → Redis 순서로 조회
func (s *verificationService) lookupBusinessCache(ctx context.Context, number string) (*util.BusinessVerificationResult, bool) {
	if v, ok := s.cache.Get(number); ok {
		entry := v.(businessCacheEntry)
		if time.Now().Before(entry.expiresAt) {
			result := entry.result
			return &result, true
		}
		s.cache.Remove(number)
	}

	var result util.BusinessVerificationResult
	if err := redis.GetJSON(ctx, businessCacheKey(number), &result); err == nil {
		s.cache.Add(number, businessCacheEntry{result: result, expiresAt: time.Now().Add(s.policy.BusinessCacheTTL())})
		return &result, true
	}
	return nil, false
}

func (s *verificationService) storeBusinessCache(ctx context.Context, result *util.BusinessVerificationResult) {
	ttl := s.policy.BusinessCacheTTL()
	s.cache.Add(result.BusinessNumber, businessCacheEntry{result: *result, expiresAt: time.Now().Add(ttl)})
	if err := redis.SetJSON(ctx, businessCacheKey(result.BusinessNumber), result, ttl); err != nil {
		logger.Warn("Failed to cache business verification", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func (s *verificationService) VerifyBusinessNumber(ctx context.Context, userID uint, raw string) (*model.BusinessNumberVerification, error) {
	number, err := util.NormalizeBusinessNumber(raw)
	if err != nil {
		return nil, ErrInvalidBusinessNumber
	}

	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	result, cached := s.lookupBusinessCache(ctx, number)
	if !cached {
		if recent, err := s.repo.FindRecentValidByNumber(number, time.Now().Add(-s.policy.BusinessCacheTTL())); err == nil {
			result = &util.BusinessVerificationResult{
				BusinessNumber: number,
				IsValid:        true,
				BusinessStatus: recent.BusinessStatus,
				Message:        recent.Message,
			}
			cached = true
		}
	}

	record := &model.BusinessNumberVerification{
		UserID:         user.ID,
		BusinessNumber: number,
		VerifiedAt:     time.Now(),
	}

	if !cached {
		result, err = s.business.Verify(ctx, number)
		if err != nil {
			logger.Error("Business verification API failed", err, map[string]interface{}{
				"user_id": userID,
			})
			record.Status = model.BusinessError
			record.Message = err.Error()
			if createErr := s.repo.CreateBusinessVerification(record); createErr != nil {
				logger.Error("Failed to record business verification error", createErr)
			}
			return nil, ErrBusinessAPIFailed
		}
		if result.IsValid {
			s.storeBusinessCache(ctx, result)
		}
	}

	record.BusinessStatus = result.BusinessStatus
	record.Message = result.Message
	if len(result.RawResponse) > 0 {
		record.APIResponse = model.JSONMap{"raw": string(result.RawResponse)}
	}
	if result.IsValid {
		record.Status = model.BusinessValid
	} else {
		record.Status = model.BusinessInvalid
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).CreateBusinessVerification(record); err != nil {
			return err
		}
		if !result.IsValid {
			return nil
		}
		return s.userRepo.WithTx(tx).UpdateFields(user.ID, map[string]interface{}{
			"business_number":      number,
			"is_business_verified": true,
			"business_verified_at": record.VerifiedAt,
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Business number verified", map[string]interface{}{
		"user_id": userID,
		"status":  record.Status,
		"cached":  cached,
	})

	if !result.IsValid {
		return record, ErrBusinessNotValid
	}
	return record, nil
}

func (s *verificationService) LatestBusinessVerification(userID uint) (*model.BusinessNumberVerification, error) {
	return s.repo.FindLatestBusinessVerification(userID)
}
