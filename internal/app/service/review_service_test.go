package service

import (
	"testing"

	"github.com/dungji/dungji-market-backend/internal/app/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReviewService_CreateReview(t *testing.T) {
	f := setupUsedFixture(t)
	reviews := NewReviewService(repository.NewReviewRepository(f.db), repository.NewTransactionRepository(f.db))
	startTrade(t, f)

	transaction, err := f.trades.MyTransactions(f.buyer.ID, "")
	require.NoError(t, err)
	require.Len(t, transaction, 1)
	txID := transaction[0].ID

	input := CreateReviewInput{TransactionID: txID, Rating: 5, Comment: "친절하세요", IsFriendly: true, IsPunctual: true}

	_, err = reviews.CreateReview(f.buyer.ID, input)
	assert.ErrorIs(t, err, ErrReviewTradeNotCompleted)

	_, err = f.trades.Complete(f.item.ID, f.seller.ID)
	require.NoError(t, err)

	_, err = reviews.CreateReview(f.other.ID, input)
	assert.ErrorIs(t, err, ErrReviewNotParty)

	review, err := reviews.CreateReview(f.buyer.ID, input)
	require.NoError(t, err)
	assert.Equal(t, f.seller.ID, review.RevieweeID)

	_, err = reviews.CreateReview(f.buyer.ID, input)
	assert.ErrorIs(t, err, ErrReviewAlreadyExists)

	sellerReview, err := reviews.CreateReview(f.seller.ID, CreateReviewInput{TransactionID: txID, Rating: 4, IsFastResponse: true})
	require.NoError(t, err)
	assert.Equal(t, f.buyer.ID, sellerReview.RevieweeID)

	_, err = reviews.CreateReview(f.seller.ID, CreateReviewInput{TransactionID: txID, Rating: 6})
	assert.ErrorIs(t, err, ErrReviewInvalidRating)

	list, total, err := reviews.GetUserReviews(f.seller.ID, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].Reviewer)
	assert.Equal(t, f.buyer.Nickname, list[0].Reviewer.Nickname)

	stats, err := reviews.GetUserStatistics(f.seller.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalReviews)
	assert.InDelta(t, 5.0, stats.AverageRating, 0.001)
	assert.Equal(t, int64(1), stats.FriendlyCount)
	assert.Equal(t, int64(1), stats.PunctualCount)
	assert.Equal(t, int64(0), stats.HonestCount)
}
