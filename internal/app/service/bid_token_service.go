package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dungji/dungji-market-backend/config"
	"github.com/dungji/dungji-market-backend/internal/app/model"
	"github.com/dungji/dungji-market-backend/internal/app/repository"
	"github.com/dungji/dungji-market-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrTokenInsufficient     = errors.New("견적 이용권이 부족합니다")
	ErrTokenAlreadyUsed      = errors.New("이미 사용된 이용권이 있어 환불할 수 없습니다")
	ErrTokenNotEnoughActive  = errors.New("차감할 활성 이용권이 부족합니다")
	ErrTokenInvalidAdjust    = errors.New("잘못된 조정 유형입니다")
	ErrTokenInvalidQuantity  = errors.New("수량은 1 이상이어야 합니다")
	ErrTokenSellerNotFound   = errors.New("판매회원을 찾을 수 없습니다")
	ErrTokenInvalidFilter    = errors.New("잘못된 대상 필터입니다")
	ErrTokenAmountTooSmall   = errors.New("결제 금액이 이용권 단가보다 작습니다")
	ErrTokenReasonRequired   = errors.New("조정 사유를 입력해주세요")
	ErrTokenBulkSetForbidden = errors.New("대량 조정은 추가 또는 구독권 부여만 가능합니다")
)

type BulkFilter string

const (
	BulkFilterAll              BulkFilter = "all"
	BulkFilterNoTokens         BulkFilter = "no_tokens"
	BulkFilterLowTokens        BulkFilter = "low_tokens"
	BulkFilterBusinessVerified BulkFilter = "business_verified"
)

type TokenSummary struct {
	SingleCount        int64                    `json:"single_count"`
	HasUnlimited       bool                     `json:"has_unlimited"`
	UnlimitedExpiresAt *time.Time               `json:"unlimited_expires_at,omitempty"`
	RecentPurchases    []model.BidTokenPurchase `json:"recent_purchases"`
}

type GrantResult struct {
	TokenType model.BidTokenType `json:"token_type"`
	Quantity  int                `json:"quantity"`
	ExpiresAt *time.Time         `json:"expires_at,omitempty"`
}

type AdjustInput struct {
	SellerID uint
	AdminID  uint
	Type     model.TokenAdjustmentType
	Quantity int
	Reason   string
}

type AdjustResult struct {
	Message             string                       `json:"message"`
	CurrentTokens       int64                        `json:"current_tokens"`
	HasSubscription     bool                         `json:"has_subscription"`
	SubscriptionExpires *time.Time                   `json:"subscription_expires,omitempty"`
	Log                 *model.BidTokenAdjustmentLog `json:"log"`
}

type BulkAdjustInput struct {
	Filter   BulkFilter
	AdminID  uint
	Type     model.TokenAdjustmentType
	Quantity int
	Reason   string
}

// SellerTokenInfo 관리자 판매자 검색 결과
type SellerTokenInfo struct {
	ID              uint   `json:"id"`
	Email           string `json:"email"`
	Nickname        string `json:"nickname"`
	BusinessNumber  string `json:"business_number"`
	ActiveTokens    int64  `json:"active_tokens"`
	HasSubscription bool   `json:"has_subscription"`
}

type BidTokenService interface {
	Summary(sellerID uint) (*TokenSummary, error)
	UnitPrice() int64
	GrantForPayment(tx *gorm.DB, payment *model.Payment) (*GrantResult, error)
	Consume(tx *gorm.DB, sellerID, bidID uint) (*model.BidToken, error)
	RefundPaymentTokens(tx *gorm.DB, paymentID uint) error
	HasUsedPaymentTokens(tx *gorm.DB, paymentID uint) (bool, error)
	Adjust(input AdjustInput) (*AdjustResult, error)
	BulkAdjust(input BulkAdjustInput) (int, error)
	AdjustmentLogs(sellerID *uint, page, pageSize int) ([]model.BidTokenAdjustmentLog, int64, error)
	SearchSellers(query string) ([]SellerTokenInfo, error)
	ExpireTokens() (int64, error)
}

type bidTokenService struct {
	db        *gorm.DB
	tokenRepo repository.BidTokenRepository
	userRepo  repository.UserRepository
	policy    config.BidTokenPolicy
	now       func() time.Time
}

func NewBidTokenService(
	db *gorm.DB,
	tokenRepo repository.BidTokenRepository,
	userRepo repository.UserRepository,
	policy config.BidTokenPolicy,
) BidTokenService {
	return &bidTokenService{
		db:        db,
		tokenRepo: tokenRepo,
		userRepo:  userRepo,
		policy:    policy,
		now:       time.Now,
	}
}

func (s *bidTokenService) Summary(sellerID uint) (*TokenSummary, error) {
	count, err := s.tokenRepo.CountActiveSingles(sellerID)
	if err != nil {
		return nil, err
	}

	summary := &TokenSummary{SingleCount: count}

	unlimited, err := s.tokenRepo.FindValidUnlimited(sellerID, s.now())
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if unlimited != nil {
		summary.HasUnlimited = true
		summary.UnlimitedExpiresAt = unlimited.ExpiresAt
	}

	purchases, err := s.tokenRepo.FindRecentPurchases(sellerID, 5)
	if err != nil {
		return nil, err
	}
	summary.RecentPurchases = purchases
	return summary, nil
}

// UnitPrice 단품 이용권 1개 가격. 이보다 작은 결제로는 지급할 이용권이 없다.
func (s *bidTokenService) UnitPrice() int64 {
	return s.policy.UnitPrice
}

// subscriptionExpiry 유효한 구독권이 있으면 그 만료일 뒤로 이어 붙인다
func (s *bidTokenService) subscriptionExpiry(repo repository.BidTokenRepository, sellerID uint, days int) (time.Time, error) {
	base := s.now()
	current, err := repo.FindValidUnlimited(sellerID, base)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return time.Time{}, err
	}
	if current != nil && current.ExpiresAt != nil && current.ExpiresAt.After(base) {
		base = *current.ExpiresAt
	}
	return base.AddDate(0, 0, days), nil
}

// GrantForPayment 구독가 이상이면 구독권, 아니면 금액 / 단가 만큼 단품 지급
func (s *bidTokenService) GrantForPayment(tx *gorm.DB, payment *model.Payment) (*GrantResult, error) {
	repo := s.tokenRepo.WithTx(tx)
	paymentID := payment.ID

	if payment.Amount >= s.policy.SubscriptionPrice {
		expiresAt, err := s.subscriptionExpiry(repo, payment.UserID, s.policy.SubscriptionDays)
		if err != nil {
			return nil, err
		}
		token := &model.BidToken{
			SellerID:  payment.UserID,
			TokenType: model.BidTokenUnlimited,
			Status:    model.BidTokenActive,
			ExpiresAt: &expiresAt,
			PaymentID: &paymentID,
		}
		if err := repo.Create(token); err != nil {
			return nil, err
		}
		if err := repo.CreatePurchase(&model.BidTokenPurchase{
			SellerID:   payment.UserID,
			TokenType:  model.BidTokenUnlimited,
			Quantity:   1,
			TotalPrice: payment.Amount,
			PaymentID:  &paymentID,
		}); err != nil {
			return nil, err
		}

		logger.Info("Granted unlimited bid token", map[string]interface{}{
			"seller_id":  payment.UserID,
			"payment_id": payment.ID,
			"expires_at": expiresAt,
		})
		return &GrantResult{TokenType: model.BidTokenUnlimited, Quantity: 1, ExpiresAt: &expiresAt}, nil
	}

	quantity := int(payment.Amount / s.policy.UnitPrice)
	if quantity <= 0 {
		return nil, ErrTokenAmountTooSmall
	}

	tokens := make([]model.BidToken, quantity)
	for i := range tokens {
		tokens[i] = model.BidToken{
			SellerID:  payment.UserID,
			TokenType: model.BidTokenSingle,
			Status:    model.BidTokenActive,
			PaymentID: &paymentID,
		}
	}
	if err := repo.CreateBatch(tokens); err != nil {
		return nil, err
	}
	if err := repo.CreatePurchase(&model.BidTokenPurchase{
		SellerID:   payment.UserID,
		TokenType:  model.BidTokenSingle,
		Quantity:   quantity,
		TotalPrice: payment.Amount,
		PaymentID:  &paymentID,
	}); err != nil {
		return nil, err
	}

	logger.Info("Granted single bid tokens", map[string]interface{}{
		"seller_id":  payment.UserID,
		"payment_id": payment.ID,
		"quantity":   quantity,
	})
	return &GrantResult{TokenType: model.BidTokenSingle, Quantity: quantity}, nil
}

// Consume 유효한 구독권이 있으면 차감하지 않는다. 없으면 가장 오래된 단품을 사용 처리.
func (s *bidTokenService) Consume(tx *gorm.DB, sellerID, bidID uint) (*model.BidToken, error) {
	repo := s.tokenRepo.WithTx(tx)
	now := s.now()

	unlimited, err := repo.FindValidUnlimited(sellerID, now)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if unlimited != nil {
		return unlimited, nil
	}

	singles, err := repo.FindActiveSinglesForUpdate(sellerID, 1)
	if err != nil {
		return nil, err
	}
	if len(singles) == 0 {
		logger.Warn("Bid token insufficient", map[string]interface{}{
			"seller_id": sellerID,
			"bid_id":    bidID,
		})
		return nil, ErrTokenInsufficient
	}

	token := &singles[0]
	token.Status = model.BidTokenUsed
	token.UsedAt = &now
	token.UsedFor = &bidID
	if err := repo.Save(token); err != nil {
		return nil, err
	}
	return token, nil
}

func (s *bidTokenService) HasUsedPaymentTokens(tx *gorm.DB, paymentID uint) (bool, error) {
	tokens, err := s.tokenRepo.WithTx(tx).FindByPayment(paymentID)
	if err != nil {
		return false, err
	}
	for _, t := range tokens {
		if t.Status == model.BidTokenUsed {
			return true, nil
		}
	}
	return false, nil
}

// RefundPaymentTokens 결제로 지급된 이용권을 만료시킨다. 하나라도 사용됐으면 실패.
func (s *bidTokenService) RefundPaymentTokens(tx *gorm.DB, paymentID uint) error {
	repo := s.tokenRepo.WithTx(tx)

	tokens, err := repo.FindByPayment(paymentID)
	if err != nil {
		return err
	}

	ids := make([]uint, 0, len(tokens))
	var subscriptions []model.BidToken
	for _, t := range tokens {
		if t.Status == model.BidTokenUsed {
			return ErrTokenAlreadyUsed
		}
		if t.Status == model.BidTokenActive {
			ids = append(ids, t.ID)
			if t.TokenType == model.BidTokenUnlimited {
				subscriptions = append(subscriptions, t)
			}
		}
	}
	if err := repo.ExpireByIDs(ids); err != nil {
		return err
	}

	for _, t := range subscriptions {
		if err := s.pullBackStacked(repo, t); err != nil {
			return err
		}
	}
	return nil
}

// pullBackStacked 환불된 구독권 뒤에 이어 붙은 구독권의 만료일을 환불된 남은 기간만큼 앞당긴다
func (s *bidTokenService) pullBackStacked(repo repository.BidTokenRepository, refunded model.BidToken) error {
	now := s.now()
	if refunded.ExpiresAt == nil || !refunded.ExpiresAt.After(now) {
		return nil
	}

	start := refunded.ExpiresAt.AddDate(0, 0, -s.policy.SubscriptionDays)
	if start.Before(now) {
		start = now
	}
	remaining := refunded.ExpiresAt.Sub(start)

	later, err := repo.FindUnlimitedExpiringAfterForUpdate(refunded.SellerID, *refunded.ExpiresAt)
	if err != nil {
		return err
	}
	for i := range later {
		expiresAt := later[i].ExpiresAt.Add(-remaining)
		later[i].ExpiresAt = &expiresAt
		if err := repo.Save(&later[i]); err != nil {
			return err
		}
	}

	if len(later) > 0 {
		logger.Info("Stacked subscriptions pulled back", map[string]interface{}{
			"seller_id":  refunded.SellerID,
			"token_id":   refunded.ID,
			"count":      len(later),
			"shift_days": remaining.Hours() / 24,
		})
	}
	return nil
}

func (s *bidTokenService) applyAdjustment(repo repository.BidTokenRepository, sellerID uint, adjType model.TokenAdjustmentType, quantity int) (string, error) {
	switch adjType {
	case model.AdjustmentAdd:
		return fmt.Sprintf("%d개의 견적 티켓이 추가되었습니다.", quantity), s.addSingles(repo, sellerID, quantity)

	case model.AdjustmentSubtract:
		if err := s.expireSingles(repo, sellerID, quantity); err != nil {
			return "", err
		}
		return fmt.Sprintf("%d개의 견적 티켓이 차감되었습니다.", quantity), nil

	case model.AdjustmentSet:
		current, err := repo.CountActiveSingles(sellerID)
		if err != nil {
			return "", err
		}
		diff := int64(quantity) - current
		switch {
		case diff > 0:
			err = s.addSingles(repo, sellerID, int(diff))
		case diff < 0:
			err = s.expireSingles(repo, sellerID, int(-diff))
		}
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("견적 티켓이 %d개로 설정되었습니다.", quantity), nil

	case model.AdjustmentGrantSubscription:
		if _, err := repo.ExpireActiveUnlimited(sellerID); err != nil {
			return "", err
		}
		expiresAt := s.now().AddDate(0, 0, quantity)
		if err := repo.Create(&model.BidToken{
			SellerID:  sellerID,
			TokenType: model.BidTokenUnlimited,
			Status:    model.BidTokenActive,
			ExpiresAt: &expiresAt,
		}); err != nil {
			return "", err
		}
		return fmt.Sprintf("%d일 구독권이 부여되었습니다.", quantity), nil
	}
	return "", ErrTokenInvalidAdjust
}

func (s *bidTokenService) addSingles(repo repository.BidTokenRepository, sellerID uint, quantity int) error {
	tokens := make([]model.BidToken, quantity)
	for i := range tokens {
		tokens[i] = model.BidToken{
			SellerID:  sellerID,
			TokenType: model.BidTokenSingle,
			Status:    model.BidTokenActive,
		}
	}
	return repo.CreateBatch(tokens)
}

// expireSingles 오래된 순으로 만료. 부족하면 아무것도 바꾸지 않는다.
func (s *bidTokenService) expireSingles(repo repository.BidTokenRepository, sellerID uint, quantity int) error {
	tokens, err := repo.FindActiveSinglesForUpdate(sellerID, quantity)
	if err != nil {
		return err
	}
	if len(tokens) < quantity {
		return fmt.Errorf("%w: 활성 이용권 %d개, 요청 %d개", ErrTokenNotEnoughActive, len(tokens), quantity)
	}

	ids := make([]uint, len(tokens))
	for i := range tokens {
		ids[i] = tokens[i].ID
	}
	return repo.ExpireByIDs(ids)
}

func validateAdjustment(adjType model.TokenAdjustmentType, quantity int) error {
	switch adjType {
	case model.AdjustmentAdd, model.AdjustmentSubtract, model.AdjustmentGrantSubscription:
		if quantity < 1 {
			return ErrTokenInvalidQuantity
		}
	case model.AdjustmentSet:
		if quantity < 0 {
			return ErrTokenInvalidQuantity
		}
	default:
		return ErrTokenInvalidAdjust
	}
	return nil
}

func (s *bidTokenService) Adjust(input AdjustInput) (*AdjustResult, error) {
	if err := validateAdjustment(input.Type, input.Quantity); err != nil {
		return nil, err
	}
	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		reason = "관리자 수동 조정"
	}

	seller, err := s.userRepo.FindByID(input.SellerID)
	if err != nil || seller.Role != model.RoleSeller {
		return nil, ErrTokenSellerNotFound
	}

	result := &AdjustResult{}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.tokenRepo.WithTx(tx)

		before, err := repo.CountActiveSingles(seller.ID)
		if err != nil {
			return err
		}
		message, err := s.applyAdjustment(repo, seller.ID, input.Type, input.Quantity)
		if err != nil {
			return err
		}
		after, err := repo.CountActiveSingles(seller.ID)
		if err != nil {
			return err
		}

		log := &model.BidTokenAdjustmentLog{
			SellerID:       seller.ID,
			AdminID:        input.AdminID,
			AdjustmentType: input.Type,
			Quantity:       input.Quantity,
			Reason:         reason,
			BalanceBefore:  before,
			BalanceAfter:   after,
		}
		if input.Type == model.AdjustmentGrantSubscription {
			log.Days = input.Quantity
		}
		if err := repo.CreateAdjustmentLog(log); err != nil {
			return err
		}

		result.Message = message
		result.CurrentTokens = after
		result.Log = log

		unlimited, err := repo.FindValidUnlimited(seller.ID, s.now())
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if unlimited != nil {
			result.HasSubscription = true
			result.SubscriptionExpires = unlimited.ExpiresAt
		}
		return nil
	})
	if err != nil {
		logger.Warn("Bid token adjustment failed", map[string]interface{}{
			"seller_id": input.SellerID,
			"type":      input.Type,
			"quantity":  input.Quantity,
			"error":     err.Error(),
		})
		return nil, err
	}

	logger.Info("Bid tokens adjusted", map[string]interface{}{
		"seller_id": input.SellerID,
		"admin_id":  input.AdminID,
		"type":      input.Type,
		"quantity":  input.Quantity,
		"balance":   result.CurrentTokens,
	})
	return result, nil
}

func (s *bidTokenService) bulkTargets(filter BulkFilter, limit int) ([]uint, error) {
	if filter == BulkFilterBusinessVerified {
		verified := true
		users, _, err := s.userRepo.List(repository.UserFilter{
			Role:               model.RoleSeller,
			IsBusinessVerified: &verified,
			PageSize:           limit,
		})
		if err != nil {
			return nil, err
		}
		ids := make([]uint, 0, len(users))
		for _, u := range users {
			if u.IsActive {
				ids = append(ids, u.ID)
			}
		}
		return ids, nil
	}

	ids, err := s.userRepo.FindSellerIDs(0)
	if err != nil {
		return nil, err
	}
	if filter == BulkFilterAll {
		if len(ids) > limit {
			ids = ids[:limit]
		}
		return ids, nil
	}

	counts, err := s.tokenRepo.CountActiveSinglesBySellers(ids)
	if err != nil {
		return nil, err
	}
	targets := make([]uint, 0, limit)
	for _, id := range ids {
		c := counts[id]
		if (filter == BulkFilterNoTokens && c == 0) ||
			(filter == BulkFilterLowTokens && c <= s.policy.LowTokenThreshold) {
			targets = append(targets, id)
			if len(targets) == limit {
				break
			}
		}
	}
	return targets, nil
}

// BulkAdjust 필터에 맞는 판매자에게 일괄 지급. 최대 인원은 정책값.
func (s *bidTokenService) BulkAdjust(input BulkAdjustInput) (int, error) {
	switch input.Filter {
	case BulkFilterAll, BulkFilterNoTokens, BulkFilterLowTokens, BulkFilterBusinessVerified:
	default:
		return 0, ErrTokenInvalidFilter
	}
	if input.Type != model.AdjustmentAdd && input.Type != model.AdjustmentGrantSubscription {
		return 0, ErrTokenBulkSetForbidden
	}
	if err := validateAdjustment(input.Type, input.Quantity); err != nil {
		return 0, err
	}

	limit := s.policy.MaxBulkSellers
	if limit <= 0 {
		limit = 100
	}
	targets, err := s.bulkTargets(input.Filter, limit)
	if err != nil {
		return 0, err
	}

	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		reason = "관리자 대량 조정"
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.tokenRepo.WithTx(tx)
		for _, sellerID := range targets {
			before, err := repo.CountActiveSingles(sellerID)
			if err != nil {
				return err
			}
			if _, err := s.applyAdjustment(repo, sellerID, input.Type, input.Quantity); err != nil {
				return err
			}
			after := before
			if input.Type == model.AdjustmentAdd {
				after += int64(input.Quantity)
			}
			log := &model.BidTokenAdjustmentLog{
				SellerID:       sellerID,
				AdminID:        input.AdminID,
				AdjustmentType: input.Type,
				Quantity:       input.Quantity,
				Reason:         "대량 조정: " + reason,
				BalanceBefore:  before,
				BalanceAfter:   after,
			}
			if input.Type == model.AdjustmentGrantSubscription {
				log.Days = input.Quantity
			}
			if err := repo.CreateAdjustmentLog(log); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	logger.Info("Bulk bid token adjustment completed", map[string]interface{}{
		"filter":   input.Filter,
		"type":     input.Type,
		"quantity": input.Quantity,
		"affected": len(targets),
	})
	return len(targets), nil
}

func (s *bidTokenService) AdjustmentLogs(sellerID *uint, page, pageSize int) ([]model.BidTokenAdjustmentLog, int64, error) {
	return s.tokenRepo.FindAdjustmentLogs(sellerID, page, pageSize)
}

// SearchSellers 두 글자 이상일 때만 검색, 최대 20명
func (s *bidTokenService) SearchSellers(query string) ([]SellerTokenInfo, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < 2 {
		return []SellerTokenInfo{}, nil
	}

	users, _, err := s.userRepo.List(repository.UserFilter{
		Role:     model.RoleSeller,
		Query:    query,
		PageSize: 20,
	})
	if err != nil {
		return nil, err
	}

	ids := make([]uint, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	counts, err := s.tokenRepo.CountActiveSinglesBySellers(ids)
	if err != nil {
		return nil, err
	}

	now := s.now()
	results := make([]SellerTokenInfo, 0, len(users))
	for _, u := range users {
		info := SellerTokenInfo{
			ID:             u.ID,
			Email:          u.Email,
			Nickname:       u.Nickname,
			BusinessNumber: u.BusinessNumber,
			ActiveTokens:   counts[u.ID],
		}
		if _, err := s.tokenRepo.FindValidUnlimited(u.ID, now); err == nil {
			info.HasSubscription = true
		}
		results = append(results, info)
	}
	return results, nil
}

// ExpireTokens 만료 시각이 지난 구독권 정리 (스케줄러)
func (s *bidTokenService) ExpireTokens() (int64, error) {
	count, err := s.tokenRepo.ExpireOverdueUnlimited(s.now())
	if err != nil {
		return 0, err
	}
	if count > 0 {
		logger.Info("Expired unlimited bid tokens", map[string]interface{}{
			"count": count,
		})
	}
	return count, nil
}
