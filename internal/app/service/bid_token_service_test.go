package service

import (
	"testing"
	"time"

	"github.com/dungji/dungji-market-backend/config"
	"github.com/dungji/dungji-market-backend/internal/app/model"
	"github.com/dungji/dungji-market-backend/internal/app/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupBidTokenTest(t *testing.T) (BidTokenService, *gorm.DB, *model.User, *model.User) {
	testDB := setupServiceTestDB(t)
	svc := NewBidTokenService(
		testDB,
		repository.NewBidTokenRepository(testDB),
		repository.NewUserRepository(testDB),
		config.DefaultPolicy().BidToken,
	)
	seller := createServiceTestUser(t, testDB, "seller@example.com", "판매회원", model.RoleSeller)
	admin := createServiceTestUser(t, testDB, "admin@example.com", "관리자", model.RoleAdmin)
	return svc, testDB, seller, admin
}

func createTestPayment(t *testing.T, testDB *gorm.DB, userID uint, orderID string, amount int64) *model.Payment {
	payment := &model.Payment{
		UserID:      userID,
		OrderID:     orderID,
		Amount:      amount,
		ProductName: "견적 이용권",
		Status:      model.PaymentCompleted,
	}
	require.NoError(t, testDB.Create(payment).Error)
	return payment
}

func grantTokens(t *testing.T, svc BidTokenService, testDB *gorm.DB, payment *model.Payment) *GrantResult {
	var result *GrantResult
	err := testDB.Transaction(func(tx *gorm.DB) error {
		var err error
		result, err = svc.GrantForPayment(tx, payment)
		return err
	})
	require.NoError(t, err)
	return result
}

func TestBidTokenService_GrantSingles(t *testing.T) {
	svc, testDB, seller, _ := setupBidTokenTest(t)

	result := grantTokens(t, svc, testDB, createTestPayment(t, testDB, seller.ID, "ORD-1", 10_000))
	assert.Equal(t, model.BidTokenSingle, result.TokenType)
	assert.Equal(t, 5, result.Quantity)

	summary, err := svc.Summary(seller.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), summary.SingleCount)
	assert.False(t, summary.HasUnlimited)
	require.Len(t, summary.RecentPurchases, 1)
	assert.Equal(t, 5, summary.RecentPurchases[0].Quantity)

	err = testDB.Transaction(func(tx *gorm.DB) error {
		_, err := svc.GrantForPayment(tx, createTestPayment(t, testDB, seller.ID, "ORD-2", 1_000))
		return err
	})
	assert.ErrorIs(t, err, ErrTokenAmountTooSmall)
}

func TestBidTokenService_GrantSubscriptionStacks(t *testing.T) {
	svc, testDB, seller, _ := setupBidTokenTest(t)

	first := grantTokens(t, svc, testDB, createTestPayment(t, testDB, seller.ID, "ORD-1", 59_000))
	assert.Equal(t, model.BidTokenUnlimited, first.TokenType)
	require.NotNil(t, first.ExpiresAt)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 30), *first.ExpiresAt, time.Minute)

	second := grantTokens(t, svc, testDB, createTestPayment(t, testDB, seller.ID, "ORD-2", 59_000))
	require.NotNil(t, second.ExpiresAt)
	assert.WithinDuration(t, first.ExpiresAt.AddDate(0, 0, 30), *second.ExpiresAt, time.Second)

	summary, err := svc.Summary(seller.ID)
	require.NoError(t, err)
	assert.True(t, summary.HasUnlimited)
	assert.Equal(t, int64(0), summary.SingleCount)
}

func TestBidTokenService_RefundEarlierStackedSubscription(t *testing.T) {
	svc, testDB, seller, _ := setupBidTokenTest(t)

	earlier := createTestPayment(t, testDB, seller.ID, "ORD-1", 59_000)
	first := grantTokens(t, svc, testDB, earlier)
	second := grantTokens(t, svc, testDB, createTestPayment(t, testDB, seller.ID, "ORD-2", 59_000))
	require.NotNil(t, second.ExpiresAt)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 60), *second.ExpiresAt, time.Minute)

	require.NoError(t, testDB.Transaction(func(tx *gorm.DB) error {
		return svc.RefundPaymentTokens(tx, earlier.ID)
	}))

	// 뒤에 이어 붙은 구독권은 환불된 30일만큼 앞당겨진다
	summary, err := svc.Summary(seller.ID)
	require.NoError(t, err)
	require.True(t, summary.HasUnlimited)
	require.NotNil(t, summary.UnlimitedExpiresAt)
	assert.WithinDuration(t, *first.ExpiresAt, *summary.UnlimitedExpiresAt, time.Minute)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 30), *summary.UnlimitedExpiresAt, time.Minute)
}

func TestBidTokenService_RefundLaterStackedSubscription(t *testing.T) {
	svc, testDB, seller, _ := setupBidTokenTest(t)

	first := grantTokens(t, svc, testDB, createTestPayment(t, testDB, seller.ID, "ORD-1", 59_000))
	later := createTestPayment(t, testDB, seller.ID, "ORD-2", 59_000)
	grantTokens(t, svc, testDB, later)

	require.NoError(t, testDB.Transaction(func(tx *gorm.DB) error {
		return svc.RefundPaymentTokens(tx, later.ID)
	}))

	summary, err := svc.Summary(seller.ID)
	require.NoError(t, err)
	require.NotNil(t, summary.UnlimitedExpiresAt)
	assert.WithinDuration(t, *first.ExpiresAt, *summary.UnlimitedExpiresAt, time.Second)
}

func TestBidTokenService_Consume(t *testing.T) {
	svc, testDB, seller, _ := setupBidTokenTest(t)
	grantTokens(t, svc, testDB, createTestPayment(t, testDB, seller.ID, "ORD-1", 3_980))

	var used *model.BidToken
	err := testDB.Transaction(func(tx *gorm.DB) error {
		var err error
		used, err = svc.Consume(tx, seller.ID, 11)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, model.BidTokenUsed, used.Status)
	require.NotNil(t, used.UsedFor)
	assert.Equal(t, uint(11), *used.UsedFor)

	require.NoError(t, testDB.Transaction(func(tx *gorm.DB) error {
		_, err := svc.Consume(tx, seller.ID, 12)
		return err
	}))

	err = testDB.Transaction(func(tx *gorm.DB) error {
		_, err := svc.Consume(tx, seller.ID, 13)
		return err
	})
	assert.ErrorIs(t, err, ErrTokenInsufficient)

	summary, err := svc.Summary(seller.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), summary.SingleCount)
}

func TestBidTokenService_ConsumeWithSubscription(t *testing.T) {
	svc, testDB, seller, _ := setupBidTokenTest(t)
	grantTokens(t, svc, testDB, createTestPayment(t, testDB, seller.ID, "ORD-1", 1_990))
	grantTokens(t, svc, testDB, createTestPayment(t, testDB, seller.ID, "ORD-2", 59_000))

	var token *model.BidToken
	require.NoError(t, testDB.Transaction(func(tx *gorm.DB) error {
		var err error
		token, err = svc.Consume(tx, seller.ID, 21)
		return err
	}))
	assert.Equal(t, model.BidTokenUnlimited, token.TokenType)

	summary, err := svc.Summary(seller.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), summary.SingleCount)
}

func TestBidTokenService_RefundPaymentTokens(t *testing.T) {
	svc, testDB, seller, _ := setupBidTokenTest(t)
	refundable := createTestPayment(t, testDB, seller.ID, "ORD-1", 3_980)
	grantTokens(t, svc, testDB, refundable)

	used, err := svc.HasUsedPaymentTokens(testDB, refundable.ID)
	require.NoError(t, err)
	assert.False(t, used)

	require.NoError(t, testDB.Transaction(func(tx *gorm.DB) error {
		return svc.RefundPaymentTokens(tx, refundable.ID)
	}))
	summary, err := svc.Summary(seller.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), summary.SingleCount)

	consumed := createTestPayment(t, testDB, seller.ID, "ORD-2", 3_980)
	grantTokens(t, svc, testDB, consumed)
	require.NoError(t, testDB.Transaction(func(tx *gorm.DB) error {
		_, err := svc.Consume(tx, seller.ID, 31)
		return err
	}))

	used, err = svc.HasUsedPaymentTokens(testDB, consumed.ID)
	require.NoError(t, err)
	assert.True(t, used)

	err = testDB.Transaction(func(tx *gorm.DB) error {
		return svc.RefundPaymentTokens(tx, consumed.ID)
	})
	assert.ErrorIs(t, err, ErrTokenAlreadyUsed)

	// 실패한 환불은 남은 이용권을 건드리지 않는다
	summary, err = svc.Summary(seller.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), summary.SingleCount)
}

func TestBidTokenService_Adjust(t *testing.T) {
	svc, _, seller, admin := setupBidTokenTest(t)

	result, err := svc.Adjust(AdjustInput{SellerID: seller.ID, AdminID: admin.ID, Type: model.AdjustmentAdd, Quantity: 3, Reason: "이벤트 지급"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), result.CurrentTokens)
	assert.Equal(t, int64(0), result.Log.BalanceBefore)
	assert.Equal(t, int64(3), result.Log.BalanceAfter)

	result, err = svc.Adjust(AdjustInput{SellerID: seller.ID, AdminID: admin.ID, Type: model.AdjustmentSubtract, Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.CurrentTokens)
	assert.Equal(t, "관리자 수동 조정", result.Log.Reason)

	result, err = svc.Adjust(AdjustInput{SellerID: seller.ID, AdminID: admin.ID, Type: model.AdjustmentSet, Quantity: 7})
	require.NoError(t, err)
	assert.Equal(t, int64(7), result.CurrentTokens)

	result, err = svc.Adjust(AdjustInput{SellerID: seller.ID, AdminID: admin.ID, Type: model.AdjustmentSet, Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.CurrentTokens)

	result, err = svc.Adjust(AdjustInput{SellerID: seller.ID, AdminID: admin.ID, Type: model.AdjustmentGrantSubscription, Quantity: 14})
	require.NoError(t, err)
	assert.True(t, result.HasSubscription)
	require.NotNil(t, result.SubscriptionExpires)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 14), *result.SubscriptionExpires, time.Minute)
	assert.Equal(t, 14, result.Log.Days)

	logs, total, err := svc.AdjustmentLogs(&seller.ID, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, logs, 5)
	assert.Equal(t, model.AdjustmentGrantSubscription, logs[0].AdjustmentType)
}

func TestBidTokenService_SingleCountNeverNegative(t *testing.T) {
	svc, testDB, seller, admin := setupBidTokenTest(t)

	_, err := svc.Adjust(AdjustInput{SellerID: seller.ID, AdminID: admin.ID, Type: model.AdjustmentAdd, Quantity: 2})
	require.NoError(t, err)

	_, err = svc.Adjust(AdjustInput{SellerID: seller.ID, AdminID: admin.ID, Type: model.AdjustmentSubtract, Quantity: 3})
	assert.ErrorIs(t, err, ErrTokenNotEnoughActive)

	for i := 0; i < 4; i++ {
		_ = testDB.Transaction(func(tx *gorm.DB) error {
			_, err := svc.Consume(tx, seller.ID, uint(100+i))
			return err
		})
	}

	summary, err := svc.Summary(seller.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), summary.SingleCount)

	var used int64
	require.NoError(t, testDB.Model(&model.BidToken{}).Where("seller_id = ? AND status = ?", seller.ID, model.BidTokenUsed).Count(&used).Error)
	assert.Equal(t, int64(2), used)

	// 실패한 차감은 로그를 남기지 않는다
	_, total, err := svc.AdjustmentLogs(&seller.ID, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestBidTokenService_AdjustValidation(t *testing.T) {
	svc, _, seller, admin := setupBidTokenTest(t)

	_, err := svc.Adjust(AdjustInput{SellerID: seller.ID, AdminID: admin.ID, Type: "double", Quantity: 1})
	assert.ErrorIs(t, err, ErrTokenInvalidAdjust)

	_, err = svc.Adjust(AdjustInput{SellerID: seller.ID, AdminID: admin.ID, Type: model.AdjustmentAdd, Quantity: 0})
	assert.ErrorIs(t, err, ErrTokenInvalidQuantity)

	_, err = svc.Adjust(AdjustInput{SellerID: admin.ID, AdminID: admin.ID, Type: model.AdjustmentAdd, Quantity: 1})
	assert.ErrorIs(t, err, ErrTokenSellerNotFound)
}

func TestBidTokenService_BulkAdjust(t *testing.T) {
	svc, testDB, seller, admin := setupBidTokenTest(t)
	rich := createServiceTestUser(t, testDB, "rich@example.com", "부자판매자", model.RoleSeller)
	verified := createServiceTestUser(t, testDB, "verified@example.com", "인증판매자", model.RoleSeller)
	require.NoError(t, testDB.Model(verified).Update("is_business_verified", true).Error)

	_, err := svc.Adjust(AdjustInput{SellerID: rich.ID, AdminID: admin.ID, Type: model.AdjustmentAdd, Quantity: 10})
	require.NoError(t, err)

	affected, err := svc.BulkAdjust(BulkAdjustInput{Filter: BulkFilterNoTokens, AdminID: admin.ID, Type: model.AdjustmentAdd, Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, affected)

	summary, err := svc.Summary(seller.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), summary.SingleCount)

	affected, err = svc.BulkAdjust(BulkAdjustInput{Filter: BulkFilterBusinessVerified, AdminID: admin.ID, Type: model.AdjustmentGrantSubscription, Quantity: 7})
	require.NoError(t, err)
	assert.Equal(t, 1, affected)

	summary, err = svc.Summary(verified.ID)
	require.NoError(t, err)
	assert.True(t, summary.HasUnlimited)

	affected, err = svc.BulkAdjust(BulkAdjustInput{Filter: BulkFilterLowTokens, AdminID: admin.ID, Type: model.AdjustmentAdd, Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, affected)

	_, err = svc.BulkAdjust(BulkAdjustInput{Filter: "vip", AdminID: admin.ID, Type: model.AdjustmentAdd, Quantity: 1})
	assert.ErrorIs(t, err, ErrTokenInvalidFilter)

	_, err = svc.BulkAdjust(BulkAdjustInput{Filter: BulkFilterAll, AdminID: admin.ID, Type: model.AdjustmentSubtract, Quantity: 1})
	assert.ErrorIs(t, err, ErrTokenBulkSetForbidden)
}

func TestBidTokenService_ExpireTokens(t *testing.T) {
	svc, testDB, seller, _ := setupBidTokenTest(t)

	past := time.Now().Add(-time.Hour)
	require.NoError(t, testDB.Create(&model.BidToken{
		SellerID:  seller.ID,
		TokenType: model.BidTokenUnlimited,
		Status:    model.BidTokenActive,
		ExpiresAt: &past,
	}).Error)

	count, err := svc.ExpireTokens()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	count, err = svc.ExpireTokens()
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestBidTokenService_SearchSellers(t *testing.T) {
	svc, _, seller, admin := setupBidTokenTest(t)
	_, err := svc.Adjust(AdjustInput{SellerID: seller.ID, AdminID: admin.ID, Type: model.AdjustmentAdd, Quantity: 4})
	require.NoError(t, err)

	results, err := svc.SearchSellers("판")
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = svc.SearchSellers("판매")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, seller.ID, results[0].ID)
	assert.Equal(t, int64(4), results[0].ActiveTokens)
}
