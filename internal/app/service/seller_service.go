package service

import (
	"errors"

	"github.com/dungji/dungji-market-backend/internal/app/model"
	"github.com/dungji/dungji-market-backend/internal/app/repository"
	"github.com/dungji/dungji-market-backend/pkg/logger"
	"gorm.io/gorm"
)

// DashboardStats 마이페이지 판매 현황
type DashboardStats struct {
	ActiveItems     int64                   `json:"active_items"`
	TradingItems    int64                   `json:"trading_items"`
	SoldItems       int64                   `json:"sold_items"`
	CompletedTrades int                     `json:"completed_trades"`
	TotalSales      int64                   `json:"total_sales"`
	ListingLimit    int                     `json:"listing_limit"`
	Tokens          *TokenSummary           `json:"tokens,omitempty"`
	Reviews         *repository.ReviewStats `json:"reviews"`
}

// SellerProfile 다른 회원에게 보이는 프로필
type SellerProfile struct {
	ID                 uint                    `json:"id"`
	Nickname           string                  `json:"nickname"`
	ProfileImage       string                  `json:"profile_image"`
	Region             string                  `json:"region"`
	Role               model.UserRole          `json:"role"`
	IsBusinessVerified bool                    `json:"is_business_verified"`
	ActiveItems        int64                   `json:"active_items"`
	SoldItems          int64                   `json:"sold_items"`
	Reviews            *repository.ReviewStats `json:"reviews"`
}

type SellerService interface {
	GetDashboard(userID uint) (*DashboardStats, error)
	GetProfile(userID uint) (*SellerProfile, error)
}

type sellerService struct {
	userRepo   repository.UserRepository
	itemRepo   repository.UsedItemRepository
	txRepo     repository.TransactionRepository
	reviewRepo *repository.ReviewRepository
	tokens     BidTokenService
	limit      int
}

func NewSellerService(
	userRepo repository.UserRepository,
	itemRepo repository.UsedItemRepository,
	txRepo repository.TransactionRepository,
	reviewRepo *repository.ReviewRepository,
	tokens BidTokenService,
	listingLimit int,
) SellerService {
	return &sellerService{
		userRepo:   userRepo,
		itemRepo:   itemRepo,
		txRepo:     txRepo,
		reviewRepo: reviewRepo,
		tokens:     tokens,
		limit:      listingLimit,
	}
}

func (s *sellerService) countItems(sellerID uint, status model.UsedItemStatus) (int64, error) {
	_, total, err := s.itemRepo.FindAll(repository.UsedItemFilter{
		SellerID: &sellerID,
		Status:   status,
		Page:     1,
		PageSize: 1,
	})
	return total, err
}

func (s *sellerService) GetDashboard(userID uint) (*DashboardStats, error) {
	logger.Info("Fetching seller dashboard statistics", map[string]interface{}{
		"user_id": userID,
	})

	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	stats := &DashboardStats{ListingLimit: s.limit}
	counts := []struct {
		status model.UsedItemStatus
		dst    *int64
	}{
		{model.UsedStatusActive, &stats.ActiveItems},
		{model.UsedStatusTrading, &stats.TradingItems},
		{model.UsedStatusSold, &stats.SoldItems},
	}
	for _, c := range counts {
		if *c.dst, err = s.countItems(userID, c.status); err != nil {
			logger.Error("Failed to count seller items", err, map[string]interface{}{
				"user_id": userID,
				"status":  c.status,
			})
			return nil, err
		}
	}

	completed, err := s.txRepo.FindByUser(userID, model.TransactionCompleted)
	if err != nil {
		return nil, err
	}
	for _, t := range completed {
		if t.SellerID != userID {
			continue
		}
		stats.CompletedTrades++
		stats.TotalSales += t.FinalPrice
	}

	if stats.Reviews, err = s.reviewRepo.GetRevieweeStatistics(userID); err != nil {
		return nil, err
	}

	// 견적 이용권은 판매회원만
	if user.IsSeller() && s.tokens != nil {
		if stats.Tokens, err = s.tokens.Summary(userID); err != nil {
			return nil, err
		}
	}

	logger.Info("Seller dashboard statistics fetched", map[string]interface{}{
		"user_id":          userID,
		"active_items":     stats.ActiveItems,
		"completed_trades": stats.CompletedTrades,
	})
	return stats, nil
}

func (s *sellerService) GetProfile(userID uint) (*SellerProfile, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrUserNotFound
	}

	profile := &SellerProfile{
		ID:                 user.ID,
		Nickname:           user.Nickname,
		ProfileImage:       user.ProfileImage,
		Region:             user.Region,
		Role:               user.Role,
		IsBusinessVerified: user.IsBusinessVerified,
	}
	if profile.ActiveItems, err = s.countItems(userID, model.UsedStatusActive); err != nil {
		return nil, err
	}
	if profile.SoldItems, err = s.countItems(userID, model.UsedStatusSold); err != nil {
		return nil, err
	}
	if profile.Reviews, err = s.reviewRepo.GetRevieweeStatistics(userID); err != nil {
		return nil, err
	}
	return profile, nil
}
