package controller

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/dungji/dungji-market-backend/internal/app/repository"
	"github.com/dungji/dungji-market-backend/internal/app/service"
	"github.com/dungji/dungji-market-backend/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAuthControllerTest(t *testing.T) (*gin.Engine, service.AuthService) {
	testDB := setupControllerTestDB(t)

	authService := service.NewAuthService(
		testDB,
		repository.NewUserRepository(testDB),
		repository.NewPartnerRepository(testDB),
		nil,
		testJWTSecret,
		15*time.Minute,
		7*24*time.Hour,
	)
	ctrl := NewAuthController(authService)
	authMiddleware := middleware.NewAuthMiddleware(testJWTSecret)

	router := gin.New()
	router.POST("/register", ctrl.Register)
	router.POST("/login", ctrl.Login)
	router.POST("/refresh", ctrl.Refresh)
	router.POST("/logout", ctrl.Logout)
	router.GET("/me", authMiddleware.Authenticate(), ctrl.GetMe)
	router.PUT("/me", authMiddleware.Authenticate(), ctrl.UpdateMe)
	router.GET("/check-nickname", ctrl.CheckNickname)
	router.GET("/kakao/login", ctrl.KakaoLoginURL)

	return router, authService
}

func registerBody(email, nickname, role string) RegisterRequest {
	return RegisterRequest{
		Email:    email,
		Password: "password123",
		Name:     "홍길동",
		Nickname: nickname,
		Phone:    "010-1234-5678",
		Role:     role,
	}
}

func TestAuthController_Register_Success(t *testing.T) {
	router, _ := setupAuthControllerTest(t)

	w := performJSON(router, http.MethodPost, "/register", registerBody("test@example.com", "둥지", ""), "")
	assert.Equal(t, http.StatusCreated, w.Code)

	response := decodeBody(t, w)
	assert.Equal(t, "회원가입이 완료되었습니다", response["message"])
	user := response["user"].(map[string]interface{})
	assert.Equal(t, "buyer", user["role"])
	assert.NotNil(t, response["tokens"])
}

func TestAuthController_Register_Errors(t *testing.T) {
	router, _ := setupAuthControllerTest(t)

	w := performJSON(router, http.MethodPost, "/register", registerBody("dup@example.com", "첫번째", "seller"), "")
	require.Equal(t, http.StatusCreated, w.Code)

	tests := []struct {
		name       string
		body       RegisterRequest
		wantStatus int
		wantCode   string
	}{
		{"invalid email", registerBody("not-an-email", "닉네임", ""), http.StatusBadRequest, "VALIDATION_INVALID_INPUT"},
		{"duplicate email", registerBody("dup@example.com", "두번째", ""), http.StatusConflict, "AUTH_EMAIL_EXISTS"},
		{"duplicate nickname", registerBody("other@example.com", "첫번째", ""), http.StatusConflict, "AUTH_NICKNAME_EXISTS"},
		{"admin role", registerBody("admin@example.com", "관리자", "admin"), http.StatusBadRequest, "VALIDATION_INVALID_INPUT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performJSON(router, http.MethodPost, "/register", tt.body, "")
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCode, decodeBody(t, w)["error"])
		})
	}
}

func TestAuthController_LoginAndMe(t *testing.T) {
	router, _ := setupAuthControllerTest(t)
	performJSON(router, http.MethodPost, "/register", registerBody("login@example.com", "로그인", "seller"), "")

	w := performJSON(router, http.MethodPost, "/login", LoginRequest{Email: "login@example.com", Password: "wrong-password"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "AUTH_INVALID_CREDENTIALS", decodeBody(t, w)["error"])

	w = performJSON(router, http.MethodPost, "/login", LoginRequest{Email: "login@example.com", Password: "password123"}, "")
	require.Equal(t, http.StatusOK, w.Code)

	tokens := decodeBody(t, w)["tokens"].(map[string]interface{})
	access := tokens["access_token"].(string)
	refresh := tokens["refresh_token"].(string)

	w = performJSON(router, http.MethodGet, "/me", nil, access)
	require.Equal(t, http.StatusOK, w.Code)
	me := decodeBody(t, w)["user"].(map[string]interface{})
	assert.Equal(t, "seller", me["role"])

	// 리프레시 토큰으로는 API 호출 불가
	w = performJSON(router, http.MethodGet, "/me", nil, refresh)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = performJSON(router, http.MethodPost, "/refresh", RefreshTokenRequest{RefreshToken: access}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "AUTH_TOKEN_INVALID", decodeBody(t, w)["error"])

	w = performJSON(router, http.MethodPost, "/refresh", RefreshTokenRequest{RefreshToken: refresh}, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = performJSON(router, http.MethodPost, "/logout", RefreshTokenRequest{RefreshToken: refresh}, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthController_UpdateMe(t *testing.T) {
	router, _ := setupAuthControllerTest(t)
	performJSON(router, http.MethodPost, "/register", registerBody("me@example.com", "원래닉", ""), "")
	performJSON(router, http.MethodPost, "/register", registerBody("other@example.com", "다른닉", ""), "")

	w := performJSON(router, http.MethodPost, "/login", LoginRequest{Email: "me@example.com", Password: "password123"}, "")
	access := decodeBody(t, w)["tokens"].(map[string]interface{})["access_token"].(string)

	taken := "다른닉"
	w = performJSON(router, http.MethodPut, "/me", UpdateProfileRequest{Nickname: &taken}, access)
	assert.Equal(t, http.StatusConflict, w.Code)

	region := "서울 강남구"
	w = performJSON(router, http.MethodPut, "/me", UpdateProfileRequest{Region: &region}, access)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, region, decodeBody(t, w)["user"].(map[string]interface{})["region"])
}

func TestAuthController_CheckNicknameAndKakao(t *testing.T) {
	router, _ := setupAuthControllerTest(t)
	performJSON(router, http.MethodPost, "/register", registerBody("nick@example.com", "사용중", ""), "")

	w := performJSON(router, http.MethodGet, "/check-nickname?nickname="+url.QueryEscape("사용중"), nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decodeBody(t, w)["available"])

	w = performJSON(router, http.MethodGet, "/check-nickname?nickname=a", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// 카카오 미설정
	w = performJSON(router, http.MethodGet, "/kakao/login", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestAuthController_MissingToken(t *testing.T) {
	router, _ := setupAuthControllerTest(t)

	req := httptest.NewRequest(http.MethodGet, "/me", bytes.NewBuffer(nil))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "AUTH_UNAUTHORIZED", body["error"])
}
