package service

import (
	"testing"
	"time"

	"github.com/dungji/dungji-market-backend/config"
	"github.com/dungji/dungji-market-backend/internal/app/model"
	"github.com/dungji/dungji-market-backend/internal/app/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSellerService_DashboardAndProfile(t *testing.T) {
	testDB := setupServiceTestDB(t)
	policy := config.DefaultPolicy()
	tokens := NewBidTokenService(testDB, repository.NewBidTokenRepository(testDB), repository.NewUserRepository(testDB), policy.BidToken)
	svc := NewSellerService(
		repository.NewUserRepository(testDB),
		repository.NewUsedItemRepository(testDB),
		repository.NewTransactionRepository(testDB),
		repository.NewReviewRepository(testDB),
		tokens,
		policy.Used.MaxActiveListings,
	)

	seller := createServiceTestUser(t, testDB, "seller@test.com", "판매왕", model.RoleSeller)
	buyer := createServiceTestUser(t, testDB, "buyer@test.com", "구매자", model.RoleBuyer)

	items := []*model.UsedItem{
		{SellerID: seller.ID, ItemType: model.UsedItemPhone, Title: "갤럭시 S23", Price: 500000, Status: model.UsedStatusActive},
		{SellerID: seller.ID, ItemType: model.UsedItemPhone, Title: "아이폰 14", Price: 700000, Status: model.UsedStatusActive},
		{SellerID: seller.ID, ItemType: model.UsedItemElectronics, Title: "맥북", Price: 1200000, Status: model.UsedStatusSold},
		{SellerID: seller.ID, ItemType: model.UsedItemElectronics, Title: "삭제됨", Price: 1000, Status: model.UsedStatusDeleted},
	}
	for _, item := range items {
		require.NoError(t, testDB.Create(item).Error)
	}

	completedAt := time.Now()
	trade := &model.UsedTransaction{
		ItemID:      items[2].ID,
		SellerID:    seller.ID,
		BuyerID:     buyer.ID,
		FinalPrice:  1150000,
		Status:      model.TransactionCompleted,
		CompletedAt: &completedAt,
	}
	require.NoError(t, testDB.Create(trade).Error)
	require.NoError(t, testDB.Create(&model.UsedReview{
		TransactionID: trade.ID,
		ReviewerID:    buyer.ID,
		RevieweeID:    seller.ID,
		Rating:        5,
		IsPunctual:    true,
	}).Error)

	stats, err := svc.GetDashboard(seller.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.ActiveItems)
	assert.Equal(t, int64(0), stats.TradingItems)
	assert.Equal(t, int64(1), stats.SoldItems)
	assert.Equal(t, 1, stats.CompletedTrades)
	assert.Equal(t, int64(1150000), stats.TotalSales)
	assert.Equal(t, 5, stats.ListingLimit)
	require.NotNil(t, stats.Tokens)
	assert.Zero(t, stats.Tokens.SingleCount)
	assert.Equal(t, int64(1), stats.Reviews.TotalReviews)

	buyerStats, err := svc.GetDashboard(buyer.ID)
	require.NoError(t, err)
	assert.Nil(t, buyerStats.Tokens)
	assert.Zero(t, buyerStats.CompletedTrades)

	profile, err := svc.GetProfile(seller.ID)
	require.NoError(t, err)
	assert.Equal(t, "판매왕", profile.Nickname)
	assert.Equal(t, int64(2), profile.ActiveItems)
	assert.Equal(t, int64(1), profile.SoldItems)
	assert.Equal(t, 5.0, profile.Reviews.AverageRating)

	_, err = svc.GetProfile(9999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
