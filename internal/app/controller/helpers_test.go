package controller

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dungji/dungji-market-backend/internal/app/model"
	"github.com/dungji/dungji-market-backend/internal/db"
	"github.com/dungji/dungji-market-backend/pkg/util"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testJWTSecret = "test-secret"

func setupControllerTestDB(t *testing.T) *gorm.DB {
	gin.SetMode(gin.TestMode)
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })
	return testDB
}

func createControllerTestUser(t *testing.T, testDB *gorm.DB, email, nickname string, role model.UserRole) *model.User {
	user := &model.User{
		Email:        email,
		PasswordHash: "hashed-password",
		Name:         "테스트",
		Nickname:     nickname,
		Phone:        "01012345678",
		Role:         role,
		IsActive:     true,
	}
	require.NoError(t, testDB.Create(user).Error)
	return user
}

// accessToken 미들웨어를 거치는 테스트용 토큰
func accessToken(t *testing.T, user *model.User) string {
	tokens, err := util.GenerateTokenPair(user.ID, user.Email, string(user.Role), testJWTSecret, time.Hour, 24*time.Hour)
	require.NoError(t, err)
	return tokens.AccessToken
}

// asUser 인증 미들웨어 없이 컨텍스트에 사용자 정보를 넣는다
func asUser(user *model.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", user.ID)
		c.Set("user_email", user.Email)
		c.Set("user_role", user.Role)
		c.Next()
	}
}

func performJSON(router *gin.Engine, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}
