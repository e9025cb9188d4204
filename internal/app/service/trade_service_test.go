package service

import (
	"testing"

	"github.com/dungji/dungji-market-backend/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startTrade 즉시구매로 거래중 상태를 만든다
func startTrade(t *testing.T, f *usedFixture) {
	result, err := f.offers.MakeOffer(f.item.ID, f.buyer.ID, int64Ptr(f.item.Price), "주말에 거래 가능합니다")
	require.NoError(t, err)
	require.True(t, result.InstantPurchase)
}

func TestTradeService_Complete(t *testing.T) {
	f := setupUsedFixture(t)
	startTrade(t, f)

	_, err := f.trades.Complete(f.item.ID, f.buyer.ID)
	assert.ErrorIs(t, err, ErrTradeBuyerCannotClose)

	_, err = f.trades.Complete(f.item.ID, f.other.ID)
	assert.ErrorIs(t, err, ErrTradeSellerOnly)

	transaction, err := f.trades.Complete(f.item.ID, f.seller.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TransactionCompleted, transaction.Status)
	assert.True(t, transaction.SellerCompleted)
	assert.True(t, transaction.BuyerCompleted)
	assert.NotNil(t, transaction.CompletedAt)

	item := f.reloadItem(t)
	assert.Equal(t, model.UsedStatusSold, item.Status)
	assert.NotNil(t, item.SoldAt)

	_, err = f.trades.Complete(f.item.ID, f.seller.ID)
	assert.ErrorIs(t, err, ErrTradeAlreadyCompleted)

	assert.Contains(t, f.notifier.typesFor(f.buyer.ID), model.NotificationTradeCompleted)
}

func TestTradeService_CompleteWithoutTransaction(t *testing.T) {
	f := setupUsedFixture(t)

	_, err := f.trades.Complete(f.item.ID, f.seller.ID)
	assert.ErrorIs(t, err, ErrTradeNotFound)
}

func TestTradeService_CancelReturnsItemToSale(t *testing.T) {
	f := setupUsedFixture(t)
	startTrade(t, f)

	_, err := f.trades.Cancel(f.item.ID, f.other.ID, CancelTradeInput{})
	assert.ErrorIs(t, err, ErrTradeCancelPartyOnly)

	transaction, err := f.trades.Cancel(f.item.ID, f.buyer.ID, CancelTradeInput{
		Reason: CancelReasonNoResponse,
		Detail: "연락이 되지 않습니다",
	})
	require.NoError(t, err)
	assert.Equal(t, model.TransactionCancelled, transaction.Status)
	assert.Equal(t, "buyer", transaction.CancelledBy)
	assert.Equal(t, CancelReasonNoResponse, transaction.CancellationReason)

	item := f.reloadItem(t)
	assert.Equal(t, model.UsedStatusActive, item.Status)
	assert.Nil(t, item.BuyerID)

	var cancellations []model.UsedTradeCancellation
	require.NoError(t, f.db.Where("item_id = ?", f.item.ID).Find(&cancellations).Error)
	require.Len(t, cancellations, 1)
	assert.Equal(t, f.buyer.ID, cancellations[0].CancelledByID)
	assert.True(t, cancellations[0].ReturnToSale)

	var accepted int64
	require.NoError(t, f.db.Model(&model.UsedOffer{}).
		Where("item_id = ? AND status = ?", f.item.ID, model.OfferAccepted).
		Count(&accepted).Error)
	assert.Equal(t, int64(0), accepted)

	assert.Contains(t, f.notifier.typesFor(f.seller.ID), model.NotificationTradeCancelled)
}

func TestTradeService_CancelDefaultsAndNoReturn(t *testing.T) {
	f := setupUsedFixture(t)
	startTrade(t, f)

	transaction, err := f.trades.Cancel(f.item.ID, f.seller.ID, CancelTradeInput{ReturnToSale: boolPtr(false)})
	require.NoError(t, err)
	assert.Equal(t, "seller", transaction.CancelledBy)
	assert.Equal(t, CancelReasonOther, transaction.CancellationReason)

	assert.Equal(t, model.UsedStatusDeleted, f.reloadItem(t).Status)
}

func TestTradeService_CancelAfterCompletion(t *testing.T) {
	f := setupUsedFixture(t)
	startTrade(t, f)

	_, err := f.trades.Complete(f.item.ID, f.seller.ID)
	require.NoError(t, err)

	_, err = f.trades.Cancel(f.item.ID, f.buyer.ID, CancelTradeInput{})
	assert.ErrorIs(t, err, ErrTradeNotFound)
	assert.Equal(t, model.UsedStatusSold, f.reloadItem(t).Status)
}

func TestTradeService_ContactInfo(t *testing.T) {
	f := setupUsedFixture(t)
	startTrade(t, f)

	buyer, err := f.trades.BuyerInfo(f.item.ID, f.seller.ID)
	require.NoError(t, err)
	assert.Equal(t, f.buyer.ID, buyer.ID)
	assert.Equal(t, f.buyer.Nickname, buyer.Nickname)
	assert.Equal(t, f.item.Price, buyer.OfferedPrice)
	assert.Equal(t, "주말에 거래 가능합니다", buyer.Message)

	_, err = f.trades.BuyerInfo(f.item.ID, f.buyer.ID)
	assert.ErrorIs(t, err, ErrTradeInfoSellerOnly)

	seller, err := f.trades.SellerInfo(f.item.ID, f.buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, f.seller.ID, seller.ID)
	assert.Equal(t, f.seller.Phone, seller.Phone)

	_, err = f.trades.SellerInfo(f.item.ID, f.other.ID)
	assert.ErrorIs(t, err, ErrTradeInfoBuyerOnly)
}

func TestTradeService_TransactionInfo(t *testing.T) {
	f := setupUsedFixture(t)
	startTrade(t, f)

	_, err := f.trades.TransactionInfo(f.item.ID, f.buyer.ID)
	assert.ErrorIs(t, err, ErrTradeNoCompleted)

	_, err = f.trades.Complete(f.item.ID, f.seller.ID)
	require.NoError(t, err)

	info, err := f.trades.TransactionInfo(f.item.ID, f.buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TransactionCompleted, info.Status)

	_, err = f.trades.TransactionInfo(f.item.ID, f.other.ID)
	assert.ErrorIs(t, err, ErrTradePartyOnly)

	mine, err := f.trades.MyTransactions(f.buyer.ID, model.TransactionCompleted)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}
