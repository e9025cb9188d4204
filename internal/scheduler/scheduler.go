package scheduler

import (
	"time"

	"github.com/dungji/dungji-market-backend/internal/app/service"
	"github.com/dungji/dungji-market-backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

const phoneVerificationRetention = 24 * time.Hour

// 작업별 주기 (cron 표현식)
const (
	GroupBuySpec    = "@every 1m"
	TokenExpirySpec = "*/10 * * * *"
	OTPCleanupSpec  = "30 4 * * *"
)

type TokenExpirer interface {
	ExpireTokens() (int64, error)
}

type GroupBuyAdvancer interface {
	AdvanceStatuses() (*service.AdvanceResult, error)
}

type VerificationCleaner interface {
	CleanupPhoneVerifications(olderThan time.Duration) (int64, error)
}

// MarketScheduler 구독권 만료, 공구 상태 전환, 인증번호 정리
type MarketScheduler struct {
	cron      *cron.Cron
	tokens    TokenExpirer
	groupBuys GroupBuyAdvancer
	verifier  VerificationCleaner
}

func NewMarketScheduler(tokens TokenExpirer, groupBuys GroupBuyAdvancer, verifier VerificationCleaner) *MarketScheduler {
	return &MarketScheduler{
		// 이전 실행이 끝나지 않았으면 건너뛴다
		cron:      cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		tokens:    tokens,
		groupBuys: groupBuys,
		verifier:  verifier,
	}
}

// Start 작업 등록 후 스케줄러 시작
func (s *MarketScheduler) Start() error {
	jobs := []struct {
		name string
		spec string
		run  func()
	}{
		{"groupbuy_advance", GroupBuySpec, s.AdvanceGroupBuys},
		{"token_expiry", TokenExpirySpec, s.ExpireTokens},
		{"otp_cleanup", OTPCleanupSpec, s.CleanupVerifications},
	}

	for _, job := range jobs {
		if _, err := s.cron.AddFunc(job.spec, job.run); err != nil {
			logger.Error("Failed to add cron job", err, map[string]interface{}{
				"job":  job.name,
				"spec": job.spec,
			})
			return err
		}
	}

	s.cron.Start()
	logger.Info("Market scheduler started", map[string]interface{}{
		"jobs": len(jobs),
	})
	return nil
}

// Stop 실행 중인 작업이 끝날 때까지 기다린다
func (s *MarketScheduler) Stop() {
	logger.Info("Stopping market scheduler...", nil)
	<-s.cron.Stop().Done()
	logger.Info("Market scheduler stopped", nil)
}

func (s *MarketScheduler) ExpireTokens() {
	count, err := s.tokens.ExpireTokens()
	if err != nil {
		logger.Error("Failed to expire bid tokens", err)
		return
	}
	if count > 0 {
		logger.Info("Expired unlimited bid tokens", map[string]interface{}{
			"count": count,
		})
	}
}

func (s *MarketScheduler) AdvanceGroupBuys() {
	result, err := s.groupBuys.AdvanceStatuses()
	if err != nil {
		logger.Error("Failed to advance group buy statuses", err)
		return
	}
	if result == nil {
		return
	}
	if result.Total() > 0 {
		logger.Info("Group buy statuses advanced", map[string]interface{}{
			"bidding":             result.Bidding,
			"voting":              result.Voting,
			"seller_confirmation": result.SellerConfirmation,
			"completed":           result.Completed,
			"cancelled":           result.Cancelled,
		})
	}
}

func (s *MarketScheduler) CleanupVerifications() {
	count, err := s.verifier.CleanupPhoneVerifications(phoneVerificationRetention)
	if err != nil {
		logger.Error("Failed to clean up phone verifications", err)
		return
	}
	logger.Info("Phone verifications cleaned up", map[string]interface{}{
		"deleted": count,
	})
}
