package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dungji/dungji-market-backend/internal/app/model"
	"github.com/dungji/dungji-market-backend/internal/app/repository"
	"github.com/dungji/dungji-market-backend/pkg/kakao"
	"github.com/dungji/dungji-market-backend/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type fakeKakao struct {
	profile *kakao.Profile
	err     error
}

func (f *fakeKakao) AuthorizeURL(state string) (string, error) {
	return "https://kauth.kakao.com/oauth/authorize?state=" + state, nil
}

func (f *fakeKakao) Login(ctx context.Context, code string) (*kakao.Profile, error) {
	return f.profile, f.err
}

func setupAuthServiceTest(t *testing.T, kakaoClient KakaoAuthenticator) (AuthService, *gorm.DB) {
	testDB := setupServiceTestDB(t)

	authService := NewAuthService(
		testDB,
		repository.NewUserRepository(testDB),
		repository.NewPartnerRepository(testDB),
		kakaoClient,
		"test-jwt-secret",
		15*time.Minute,
		7*24*time.Hour,
	)
	return authService, testDB
}

func TestAuthService_Register(t *testing.T) {
	authService, _ := setupAuthServiceTest(t, nil)

	tests := []struct {
		name    string
		input   RegisterInput
		wantErr error
	}{
		{
			name: "Valid registration",
			input: RegisterInput{
				Email: "Test@Example.com", Password: "password123", Name: "홍길동",
				Nickname: "길동", Phone: "010-1234-5678",
			},
		},
		{
			name: "Duplicate email",
			input: RegisterInput{
				Email: "test@example.com", Password: "password456", Name: "다른사람", Nickname: "다른닉",
			},
			wantErr: ErrEmailAlreadyExists,
		},
		{
			name: "Duplicate nickname",
			input: RegisterInput{
				Email: "other@example.com", Password: "password456", Name: "다른사람", Nickname: "길동",
			},
			wantErr: ErrNicknameAlreadyExists,
		},
		{
			name: "Admin role rejected",
			input: RegisterInput{
				Email: "admin@example.com", Password: "password456", Name: "관리자", Nickname: "admin",
				Role: model.RoleAdmin,
			},
			wantErr: ErrInvalidRole,
		},
		{
			name: "Password without digits",
			input: RegisterInput{
				Email: "weak@example.com", Password: "onlyletters", Name: "약한비번", Nickname: "weak",
			},
			wantErr: util.ErrPasswordTooWeak,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, tokens, err := authService.Register(tt.input)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, user)
				assert.Nil(t, tokens)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, tokens)
			assert.Equal(t, "test@example.com", user.Email)
			assert.Equal(t, model.RoleBuyer, user.Role)
			assert.Equal(t, "01012345678", user.Phone)
			assert.NotEmpty(t, tokens.AccessToken)
			assert.NotEmpty(t, tokens.RefreshToken)
		})
	}
}

func TestAuthService_RegisterWithReferral(t *testing.T) {
	authService, testDB := setupAuthServiceTest(t, nil)

	owner := createServiceTestUser(t, testDB, "partner@example.com", "파트너", model.RoleBuyer)
	partner := &model.Partner{UserID: owner.ID, PartnerName: "둥지 파트너", PartnerCode: "PARTNER_ABC123", CommissionRate: 30_00, IsActive: true}
	require.NoError(t, testDB.Create(partner).Error)

	user, _, err := authService.Register(RegisterInput{
		Email: "seller@example.com", Password: "password123", Name: "판매자", Nickname: "판매왕",
		Role: model.RoleSeller, ReferralCode: "PARTNER_ABC123",
	})
	require.NoError(t, err)
	assert.Equal(t, model.RoleSeller, user.Role)
	assert.Equal(t, "PARTNER_ABC123", user.ReferredBy)

	var record model.ReferralRecord
	require.NoError(t, testDB.Where("referred_user_id = ?", user.ID).First(&record).Error)
	assert.Equal(t, partner.ID, record.PartnerID)
	assert.Equal(t, model.ReferralSettlementPending, record.SettlementStatus)

	// 없는 코드는 무시
	other, _, err := authService.Register(RegisterInput{
		Email: "buyer@example.com", Password: "password123", Name: "구매자", Nickname: "구매왕",
		ReferralCode: "PARTNER_NOPE00",
	})
	require.NoError(t, err)
	assert.Empty(t, other.ReferredBy)
}

func TestAuthService_Login(t *testing.T) {
	authService, testDB := setupAuthServiceTest(t, nil)

	_, _, err := authService.Register(RegisterInput{
		Email: "login@example.com", Password: "password123", Name: "로그인", Nickname: "login",
	})
	require.NoError(t, err)

	t.Run("Valid login", func(t *testing.T) {
		user, tokens, err := authService.Login("login@example.com", "password123")
		require.NoError(t, err)
		assert.NotNil(t, tokens)
		assert.NotNil(t, user.LastLoginAt)
	})

	t.Run("Wrong password", func(t *testing.T) {
		_, _, err := authService.Login("login@example.com", "wrong")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("Unknown email", func(t *testing.T) {
		_, _, err := authService.Login("nobody@example.com", "password123")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("Inactive account", func(t *testing.T) {
		require.NoError(t, testDB.Model(&model.User{}).Where("email = ?", "login@example.com").Update("is_active", false).Error)
		_, _, err := authService.Login("login@example.com", "password123")
		assert.ErrorIs(t, err, ErrAccountInactive)
	})
}

func TestAuthService_LoginUpgradesLegacyHash(t *testing.T) {
	authService, testDB := setupAuthServiceTest(t, nil)

	legacy, err := bcrypt.GenerateFromPassword([]byte("seller2024"), bcrypt.MinCost)
	require.NoError(t, err)
	user := createServiceTestUser(t, testDB, "legacy@example.com", "이전회원", model.RoleSeller)
	require.NoError(t, testDB.Model(user).Update("password_hash", string(legacy)).Error)

	_, _, err = authService.Login("legacy@example.com", "seller2024")
	require.NoError(t, err)

	var stored model.User
	require.NoError(t, testDB.First(&stored, user.ID).Error)
	assert.NotEqual(t, string(legacy), stored.PasswordHash)
	assert.False(t, util.NeedsRehash(stored.PasswordHash))
	assert.True(t, util.VerifyPassword(stored.PasswordHash, "seller2024"))
}

func TestAuthService_Refresh(t *testing.T) {
	authService, _ := setupAuthServiceTest(t, nil)

	_, tokens, err := authService.Register(RegisterInput{
		Email: "refresh@example.com", Password: "password123", Name: "리프레시", Nickname: "refresh",
	})
	require.NoError(t, err)

	newTokens, err := authService.Refresh(context.Background(), tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, newTokens.AccessToken)

	_, err = authService.Refresh(context.Background(), tokens.AccessToken)
	assert.ErrorIs(t, err, util.ErrInvalidToken)

	_, err = authService.Refresh(context.Background(), "")
	assert.ErrorIs(t, err, ErrRefreshTokenRequired)

	assert.NoError(t, authService.Logout(context.Background(), tokens.RefreshToken))
}

func TestAuthService_UpdateProfile(t *testing.T) {
	authService, testDB := setupAuthServiceTest(t, nil)

	user, _, err := authService.Register(RegisterInput{
		Email: "profile@example.com", Password: "password123", Name: "프로필", Nickname: "profile",
	})
	require.NoError(t, err)
	createServiceTestUser(t, testDB, "taken@example.com", "taken", model.RoleBuyer)

	region := "서울 강남구"
	updated, err := authService.UpdateProfile(user.ID, UpdateProfileInput{Region: &region})
	require.NoError(t, err)
	assert.Equal(t, region, updated.Region)

	taken := "taken"
	_, err = authService.UpdateProfile(user.ID, UpdateProfileInput{Nickname: &taken})
	assert.ErrorIs(t, err, ErrNicknameAlreadyExists)

	_, err = authService.UpdateProfile(9999, UpdateProfileInput{Region: &region})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestAuthService_KakaoLogin(t *testing.T) {
	fake := &fakeKakao{profile: &kakao.Profile{ID: "777", Email: "kakao@example.com", Nickname: "카카오"}}
	authService, testDB := setupAuthServiceTest(t, fake)

	user, tokens, created, err := authService.KakaoLogin(context.Background(), "code", model.RoleBuyer)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotNil(t, tokens)
	assert.Equal(t, model.SNSTypeKakao, user.SNSType)

	again, _, created, err := authService.KakaoLogin(context.Background(), "code", model.RoleBuyer)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, user.ID, again.ID)

	// 같은 닉네임이 이미 있으면 숫자를 붙인다
	fake.profile = &kakao.Profile{ID: "888", Nickname: "카카오"}
	second, _, created, err := authService.KakaoLogin(context.Background(), "code", model.RoleSeller)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, "카카오", second.Nickname)
	assert.Equal(t, "kakao_888@kakao.local", second.Email)
	assert.Equal(t, model.RoleSeller, second.Role)

	var count int64
	testDB.Model(&model.User{}).Count(&count)
	assert.Equal(t, int64(2), count)

	fake.err = errors.New("boom")
	_, _, _, err = authService.KakaoLogin(context.Background(), "code", model.RoleBuyer)
	assert.ErrorIs(t, err, ErrKakaoLoginFailed)
}

func TestAuthService_Availability(t *testing.T) {
	authService, testDB := setupAuthServiceTest(t, nil)
	createServiceTestUser(t, testDB, "used@example.com", "used", model.RoleBuyer)

	ok, err := authService.IsEmailAvailable("USED@example.com")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = authService.IsNicknameAvailable("fresh")
	require.NoError(t, err)
	assert.True(t, ok)
}
