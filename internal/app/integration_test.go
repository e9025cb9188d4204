package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dungji/dungji-market-backend/config"
	"github.com/dungji/dungji-market-backend/internal/app/controller"
	"github.com/dungji/dungji-market-backend/internal/app/model"
	"github.com/dungji/dungji-market-backend/internal/app/repository"
	"github.com/dungji/dungji-market-backend/internal/app/service"
	"github.com/dungji/dungji-market-backend/internal/db"
	"github.com/dungji/dungji-market-backend/internal/middleware"
	"github.com/dungji/dungji-market-backend/internal/router"
	"github.com/dungji/dungji-market-backend/internal/storage"
	ws "github.com/dungji/dungji-market-backend/internal/websocket"
	"github.com/dungji/dungji-market-backend/pkg/kftc"
	"github.com/dungji/dungji-market-backend/pkg/util"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testJWTSecret = "test-secret"

type TestServer struct {
	Router *gin.Engine
	DB     *gorm.DB
}

func setupIntegrationTest(t *testing.T) *TestServer {
	gin.SetMode(gin.TestMode)

	// Setup database
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	cfg := &config.Config{
		Server: config.ServerConfig{GinMode: gin.TestMode, Environment: "test"},
		CORS:   config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
		Policy: *config.DefaultPolicy(),
	}
	policy := cfg.Policy

	hub := ws.NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)

	// Setup repositories
	userRepo := repository.NewUserRepository(testDB)
	itemRepo := repository.NewUsedItemRepository(testDB)
	offerRepo := repository.NewOfferRepository(testDB)
	txRepo := repository.NewTransactionRepository(testDB)
	reviewRepo := repository.NewReviewRepository(testDB)
	partnerRepo := repository.NewPartnerRepository(testDB)

	// Setup services
	notifications := service.NewNotificationService(repository.NewNotificationRepository(testDB), hub)
	authService := service.NewAuthService(testDB, userRepo, partnerRepo, nil, testJWTSecret, 15*time.Minute, 7*24*time.Hour)
	tokens := service.NewBidTokenService(testDB, repository.NewBidTokenRepository(testDB), userRepo, policy.BidToken)
	partners := service.NewPartnerService(testDB, partnerRepo, userRepo, kftc.NewClient(kftc.TestBaseURL, "", "", ""), notifications, policy.Partner)
	verification := service.NewVerificationService(
		testDB,
		repository.NewVerificationRepository(testDB),
		userRepo,
		util.NewSENSClient("", "", "", ""),
		util.NewBusinessVerifier(""),
		policy.Verification,
	)
	groupBuys := service.NewGroupBuyService(testDB, repository.NewGroupBuyRepository(testDB), userRepo, tokens, notifications, hub, policy.GroupBuy)

	r := router.NewRouter(router.Controllers{
		Auth:         controller.NewAuthController(authService),
		Verification: controller.NewVerificationController(verification),
		Used:         controller.NewUsedController(service.NewUsedService(testDB, itemRepo, offerRepo, policy.Used)),
		Offer:        controller.NewOfferController(service.NewOfferService(testDB, itemRepo, offerRepo, txRepo, userRepo, notifications, policy.Used)),
		Trade:        controller.NewTradeController(service.NewTradeService(testDB, itemRepo, offerRepo, txRepo, userRepo, notifications)),
		Review:       controller.NewReviewController(service.NewReviewService(reviewRepo, txRepo)),
		Notification: controller.NewNotificationController(notifications),
		Upload: controller.NewUploadController(storage.NewS3Storage(config.S3Config{
			Region:          "ap-northeast-2",
			Bucket:          "dungji-test",
			AccessKeyID:     "AKIATEST",
			SecretAccessKey: "secret",
		})),
		Seller:    controller.NewSellerController(service.NewSellerService(userRepo, itemRepo, txRepo, reviewRepo, tokens, policy.Used.MaxActiveListings)),
		Payment:   controller.NewPaymentController(nil),
		BidToken:  controller.NewBidTokenController(tokens),
		Partner:   controller.NewPartnerController(partners),
		GroupBuy:  controller.NewGroupBuyController(groupBuys),
		Content:   controller.NewContentController(service.NewContentService(repository.NewContentRepository(testDB))),
		WebSocket: controller.NewWebSocketController(hub, cfg.CORS.AllowedOrigins),
		Admin:     controller.NewAdminController(service.NewAdminService(userRepo)),
	}, middleware.NewAuthMiddleware(testJWTSecret), cfg)

	return &TestServer{
		Router: r.Setup(),
		DB:     testDB,
	}
}

func (ts *TestServer) request(t *testing.T, method, path string, body interface{}, token string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	ts.Router.ServeHTTP(w, req)

	var response map[string]interface{}
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &response)
	}
	return w, response
}

func (ts *TestServer) register(t *testing.T, email, nickname, role string) (uint, string) {
	t.Helper()

	w, response := ts.request(t, http.MethodPost, "/api/v1/auth/register", controller.RegisterRequest{
		Email:    email,
		Password: "password123",
		Name:     "테스트",
		Nickname: nickname,
		Phone:    "010-1234-5678",
		Role:     role,
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	user := response["user"].(map[string]interface{})
	tokens := response["tokens"].(map[string]interface{})
	return uint(user["id"].(float64)), tokens["access_token"].(string)
}

func TestIntegration_HealthAndCORS(t *testing.T) {
	ts := setupIntegrationTest(t)

	w, response := ts.request(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", response["status"])

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/used/items", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w = httptest.NewRecorder()
	ts.Router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestIntegration_UsedTradeFlow(t *testing.T) {
	ts := setupIntegrationTest(t)

	sellerID, sellerToken := ts.register(t, "seller@example.com", "판매자", "")
	_, buyerToken := ts.register(t, "buyer@example.com", "구매자", "")

	// 1. 판매 등록
	w, response := ts.request(t, http.MethodPost, "/api/v1/used/items", controller.CreateUsedItemRequest{
		ItemType:     "phone",
		Title:        "아이폰 15 Pro 256GB",
		Price:        1_000_000,
		Description:  "배터리 효율 95%, 케이스 끼고 사용했습니다",
		Region:       "서울 마포구",
		MeetingPlace: "홍대입구역",
		Phone: &controller.PhoneDetailRequest{
			Brand:     "Apple",
			Model:     "아이폰 15 Pro",
			Storage:   256,
			Condition: "S",
		},
	}, sellerToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	itemID := uint(response["item"].(map[string]interface{})["id"].(float64))
	itemPath := fmt.Sprintf("/api/v1/used/items/%d", itemID)

	w, response = ts.request(t, http.MethodGet, "/api/v1/used/items", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), response["total"])

	// 2. 판매가 그대로 제안하면 즉시 구매
	price := int64(1_000_000)
	w, response = ts.request(t, http.MethodPost, itemPath+"/offers", controller.MakeOfferRequest{Price: &price}, buyerToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, true, response["instant_purchase"])
	assert.NotNil(t, response["seller_contact"])

	w, response = ts.request(t, http.MethodGet, itemPath, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, string(model.UsedStatusTrading), response["item"].(map[string]interface{})["status"])

	// 3. 판매자 거래 완료
	w, response = ts.request(t, http.MethodPost, itemPath+"/complete", nil, sellerToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	transactionID := uint(response["transaction"].(map[string]interface{})["id"].(float64))

	// 4. 구매자 후기
	w, _ = ts.request(t, http.MethodPost, "/api/v1/used/reviews", service.CreateReviewInput{
		TransactionID: transactionID,
		Rating:        5,
		Comment:       "친절하게 거래해주셨어요",
		IsFriendly:    true,
	}, buyerToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w, response = ts.request(t, http.MethodGet, fmt.Sprintf("/api/v1/users/%d/profile", sellerID), nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	profile := response["profile"].(map[string]interface{})
	assert.Equal(t, float64(1), profile["sold_items"])

	// 판매자에게 제안/거래 알림이 쌓인다
	w, response = ts.request(t, http.MethodGet, "/api/v1/notifications/unread-count", nil, sellerToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.GreaterOrEqual(t, response["unread_count"].(float64), float64(1))
}

func TestIntegration_AdminGuard(t *testing.T) {
	ts := setupIntegrationTest(t)
	_, buyerToken := ts.register(t, "user@example.com", "일반회원", "")

	w, _ := ts.request(t, http.MethodGet, "/api/v1/admin/users", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = ts.request(t, http.MethodGet, "/api/v1/admin/users", nil, buyerToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// 판매회원 전용 이용권 조회
	w, _ = ts.request(t, http.MethodGet, "/api/v1/bid-tokens/me", nil, buyerToken)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
