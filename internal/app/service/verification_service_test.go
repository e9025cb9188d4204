package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dungji/dungji-market-backend/config"
	"github.com/dungji/dungji-market-backend/internal/app/model"
	"github.com/dungji/dungji-market-backend/internal/app/repository"
	"github.com/dungji/dungji-market-backend/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeSMS struct {
	codes map[string]string
}

func (f *fakeSMS) SendVerificationCode(ctx context.Context, phone, code string, ttl time.Duration) error {
	f.codes[phone] = code
	return nil
}

type fakeBusinessChecker struct {
	calls int
	valid bool
	err   error
}

func (f *fakeBusinessChecker) Verify(ctx context.Context, number string) (*util.BusinessVerificationResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	result := &util.BusinessVerificationResult{BusinessNumber: number, IsValid: f.valid, BusinessStatus: "계속사업자"}
	if !f.valid {
		result.BusinessStatus = "폐업자"
	}
	return result, nil
}

func setupVerificationTest(t *testing.T) (VerificationService, *gorm.DB, *fakeSMS, *fakeBusinessChecker) {
	testDB := setupServiceTestDB(t)
	sms := &fakeSMS{codes: map[string]string{}}
	checker := &fakeBusinessChecker{valid: true}

	policy := config.DefaultPolicy().Verification
	policy.ResendCooldownSecs = 0

	svc := NewVerificationService(
		testDB,
		repository.NewVerificationRepository(testDB),
		repository.NewUserRepository(testDB),
		sms,
		checker,
		policy,
	)
	return svc, testDB, sms, checker
}

func TestNormalizePhone(t *testing.T) {
	phone, err := NormalizePhone("010-1234-5678")
	require.NoError(t, err)
	assert.Equal(t, "01012345678", phone)

	for _, bad := range []string{"02-123-4567", "0101234", "010123456789"} {
		_, err := NormalizePhone(bad)
		assert.ErrorIs(t, err, ErrInvalidPhone, bad)
	}
}

func TestVerificationService_SendAndVerify(t *testing.T) {
	svc, testDB, sms, _ := setupVerificationTest(t)
	ctx := context.Background()
	user := createServiceTestUser(t, testDB, "phone@example.com", "phone", model.RoleBuyer)

	result, err := svc.SendPhoneCode(ctx, "010-2222-3333", model.PurposeProfile, &user.ID, "1.1.1.1")
	require.NoError(t, err)
	assert.Equal(t, "01022223333", result.Phone)
	assert.Equal(t, 180, result.ExpiresIn)

	code := sms.codes["01022223333"]
	require.Len(t, code, 6)

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	res, err := svc.VerifyPhoneCode(ctx, "01022223333", wrong, model.PurposeProfile, &user.ID)
	assert.ErrorIs(t, err, ErrCodeMismatch)
	assert.Equal(t, 4, res.RemainingAttempts)

	res, err = svc.VerifyPhoneCode(ctx, "01022223333", code, model.PurposeProfile, &user.ID)
	require.NoError(t, err)
	assert.True(t, res.Verified)

	var updated model.User
	require.NoError(t, testDB.First(&updated, user.ID).Error)
	assert.True(t, updated.PhoneVerified)
	assert.Equal(t, "01022223333", updated.Phone)

	verified, err := svc.IsPhoneVerified("01022223333", model.PurposeProfile)
	require.NoError(t, err)
	assert.True(t, verified)
}

func TestVerificationService_ResendExpiresPrevious(t *testing.T) {
	svc, testDB, sms, _ := setupVerificationTest(t)
	ctx := context.Background()

	_, err := svc.SendPhoneCode(ctx, "01033334444", model.PurposeSignup, nil, "")
	require.NoError(t, err)
	first := sms.codes["01033334444"]

	_, err = svc.SendPhoneCode(ctx, "01033334444", model.PurposeSignup, nil, "")
	require.NoError(t, err)

	var pending int64
	testDB.Model(&model.PhoneVerification{}).Where("status = ?", model.PhoneVerificationPending).Count(&pending)
	assert.Equal(t, int64(1), pending)

	if first != sms.codes["01033334444"] {
		_, err = svc.VerifyPhoneCode(ctx, "01033334444", first, model.PurposeSignup, nil)
		assert.ErrorIs(t, err, ErrCodeMismatch)
	}
}

func TestVerificationService_Limits(t *testing.T) {
	svc, _, _, _ := setupVerificationTest(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := svc.SendPhoneCode(ctx, "01044445555", model.PurposeSignup, nil, "")
		require.NoError(t, err)
	}
	_, err := svc.SendPhoneCode(ctx, "01044445555", model.PurposeSignup, nil, "")
	assert.ErrorIs(t, err, ErrTooManyCodeRequests)
}

func TestVerificationService_Cooldown(t *testing.T) {
	testDB := setupServiceTestDB(t)
	svc := NewVerificationService(
		testDB,
		repository.NewVerificationRepository(testDB),
		repository.NewUserRepository(testDB),
		&fakeSMS{codes: map[string]string{}},
		&fakeBusinessChecker{valid: true},
		config.DefaultPolicy().Verification,
	)

	_, err := svc.SendPhoneCode(context.Background(), "01055556666", model.PurposeSignup, nil, "")
	require.NoError(t, err)
	_, err = svc.SendPhoneCode(context.Background(), "01055556666", model.PurposeSignup, nil, "")
	assert.ErrorIs(t, err, ErrResendTooSoon)
}

func TestVerificationService_SignupPhoneInUse(t *testing.T) {
	svc, testDB, _, _ := setupVerificationTest(t)
	user := createServiceTestUser(t, testDB, "owner@example.com", "owner", model.RoleBuyer)
	require.NoError(t, testDB.Model(user).Updates(map[string]interface{}{"phone": "01077778888", "phone_verified": true}).Error)

	_, err := svc.SendPhoneCode(context.Background(), "01077778888", model.PurposeSignup, nil, "")
	assert.ErrorIs(t, err, ErrPhoneInUse)
}

func TestVerificationService_ExpiredAndAttempts(t *testing.T) {
	svc, testDB, sms, _ := setupVerificationTest(t)
	ctx := context.Background()

	_, err := svc.SendPhoneCode(ctx, "01088889999", model.PurposeSignup, nil, "")
	require.NoError(t, err)
	require.NoError(t, testDB.Model(&model.PhoneVerification{}).
		Where("phone = ?", "01088889999").
		Update("expires_at", time.Now().Add(-time.Minute)).Error)

	_, err = svc.VerifyPhoneCode(ctx, "01088889999", sms.codes["01088889999"], model.PurposeSignup, nil)
	assert.ErrorIs(t, err, ErrCodeExpired)

	_, err = svc.VerifyPhoneCode(ctx, "01088889999", "123456", model.PurposeSignup, nil)
	assert.ErrorIs(t, err, ErrCodeNotRequested)

	_, err = svc.SendPhoneCode(ctx, "01088889999", model.PurposeSignup, nil, "")
	require.NoError(t, err)
	code := sms.codes["01088889999"]
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	for i := 0; i < 4; i++ {
		_, err = svc.VerifyPhoneCode(ctx, "01088889999", wrong, model.PurposeSignup, nil)
		assert.ErrorIs(t, err, ErrCodeMismatch)
	}
	_, err = svc.VerifyPhoneCode(ctx, "01088889999", wrong, model.PurposeSignup, nil)
	assert.ErrorIs(t, err, ErrTooManyAttempts)

	// 실패 처리된 코드는 더 이상 대기 상태가 아니다
	_, err = svc.VerifyPhoneCode(ctx, "01088889999", code, model.PurposeSignup, nil)
	assert.ErrorIs(t, err, ErrCodeNotRequested)
}

func TestVerificationService_Cleanup(t *testing.T) {
	svc, testDB, _, _ := setupVerificationTest(t)

	old := &model.PhoneVerification{Phone: "01011112222", Code: "123456", ExpiresAt: time.Now()}
	require.NoError(t, testDB.Create(old).Error)
	require.NoError(t, testDB.Model(old).UpdateColumn("created_at", time.Now().Add(-48*time.Hour)).Error)

	deleted, err := svc.CleanupPhoneVerifications(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}

func TestVerificationService_BusinessNumber(t *testing.T) {
	svc, testDB, _, checker := setupVerificationTest(t)
	ctx := context.Background()
	seller := createServiceTestUser(t, testDB, "biz@example.com", "biz", model.RoleSeller)
	other := createServiceTestUser(t, testDB, "biz2@example.com", "biz2", model.RoleSeller)

	_, err := svc.VerifyBusinessNumber(ctx, seller.ID, "123-45-67890")
	assert.ErrorIs(t, err, ErrInvalidBusinessNumber)

	record, err := svc.VerifyBusinessNumber(ctx, seller.ID, "220-81-62517")
	require.NoError(t, err)
	assert.Equal(t, model.BusinessValid, record.Status)
	assert.Equal(t, "2208162517", record.BusinessNumber)

	var updated model.User
	require.NoError(t, testDB.First(&updated, seller.ID).Error)
	assert.True(t, updated.IsBusinessVerified)
	assert.Equal(t, "2208162517", updated.BusinessNumber)

	// 24시간 캐시
	_, err = svc.VerifyBusinessNumber(ctx, other.ID, "2208162517")
	require.NoError(t, err)
	assert.Equal(t, 1, checker.calls)

	latest, err := svc.LatestBusinessVerification(other.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BusinessValid, latest.Status)
}

func TestVerificationService_BusinessNumberInvalidAndError(t *testing.T) {
	svc, testDB, _, checker := setupVerificationTest(t)
	ctx := context.Background()
	seller := createServiceTestUser(t, testDB, "closed@example.com", "closed", model.RoleSeller)

	checker.valid = false
	record, err := svc.VerifyBusinessNumber(ctx, seller.ID, "2208162517")
	assert.ErrorIs(t, err, ErrBusinessNotValid)
	assert.Equal(t, model.BusinessInvalid, record.Status)

	checker.err = errors.New("timeout")
	_, err = svc.VerifyBusinessNumber(ctx, seller.ID, "2208162517")
	assert.ErrorIs(t, err, ErrBusinessAPIFailed)

	var user model.User
	require.NoError(t, testDB.First(&user, seller.ID).Error)
	assert.False(t, user.IsBusinessVerified)
}
