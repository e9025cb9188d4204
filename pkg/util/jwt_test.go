package util

import (
	"strconv"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "dungji-test-secret"

func TestGenerateTokenPair_RoleClaims(t *testing.T) {
	tests := []struct {
		name   string
		userID uint
		email  string
		role   string
	}{
		{"buyer", 1, "buyer@dungjimarket.com", "buyer"},
		{"seller", 2, "seller@dungjimarket.com", "seller"},
		{"admin", 3, "admin@dungjimarket.com", "admin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := GenerateTokenPair(tt.userID, tt.email, tt.role, testSecret, 15*time.Minute, 7*24*time.Hour)
			require.NoError(t, err)
			assert.Equal(t, int64(900), tokens.ExpiresIn)

			for tokenType, raw := range map[string]string{
				TokenTypeAccess:  tokens.AccessToken,
				TokenTypeRefresh: tokens.RefreshToken,
			} {
				claims, err := ValidateToken(raw, testSecret)
				require.NoError(t, err)
				assert.Equal(t, tokenType, claims.TokenType)
				assert.Equal(t, tt.userID, claims.UserID)
				assert.Equal(t, tt.email, claims.Email)
				assert.Equal(t, tt.role, claims.Role)
				assert.Equal(t, strconv.Itoa(int(tt.userID)), claims.Subject)
				assert.Equal(t, "dungjimarket", claims.Issuer)
			}
		})
	}
}

func TestValidateToken_Rejects(t *testing.T) {
	tokens, err := GenerateTokenPair(10, "seller@dungjimarket.com", "seller", testSecret, time.Hour, 24*time.Hour)
	require.NoError(t, err)

	// HS256 이외의 서명 방식은 받지 않는다
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: 10, Role: "admin"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name   string
		token  string
		secret string
	}{
		{"other secret", tokens.AccessToken, "other-secret"},
		{"malformed", "not.a.jwt", testSecret},
		{"empty", "", testSecret},
		{"unsigned admin claim", none, testSecret},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := ValidateToken(tt.token, tt.secret)
			assert.ErrorIs(t, err, ErrInvalidToken)
			assert.Nil(t, claims)
		})
	}
}

func TestValidateToken_Expired(t *testing.T) {
	tokens, err := GenerateTokenPair(1, "buyer@dungjimarket.com", "buyer", testSecret, -time.Minute, -time.Minute)
	require.NoError(t, err)

	claims, err := ValidateToken(tokens.AccessToken, testSecret)
	assert.ErrorIs(t, err, ErrExpiredToken)
	assert.Nil(t, claims)
}

func TestTokenRemaining(t *testing.T) {
	tokens, err := GenerateTokenPair(7, "seller@dungjimarket.com", "seller", testSecret, time.Hour, 24*time.Hour)
	require.NoError(t, err)

	access, err := ValidateToken(tokens.AccessToken, testSecret)
	require.NoError(t, err)
	refresh, err := ValidateToken(tokens.RefreshToken, testSecret)
	require.NoError(t, err)

	assert.NotEqual(t, access.ID, refresh.ID)
	assert.InDelta(t, time.Hour.Seconds(), TokenRemaining(access).Seconds(), 5)
	assert.Greater(t, TokenRemaining(refresh), 23*time.Hour)
	assert.Zero(t, TokenRemaining(nil))
}
