package router

import (
	"net/http"
	"time"

	"github.com/dungji/dungji-market-backend/config"
	"github.com/dungji/dungji-market-backend/internal/app/controller"
	"github.com/dungji/dungji-market-backend/internal/middleware"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Controllers 라우터에 연결되는 컨트롤러 묶음
type Controllers struct {
	Auth         *controller.AuthController
	Verification *controller.VerificationController
	Used         *controller.UsedController
	Offer        *controller.OfferController
	Trade        *controller.TradeController
	Review       *controller.ReviewController
	Notification *controller.NotificationController
	Upload       *controller.UploadController
	Seller       *controller.SellerController
	Payment      *controller.PaymentController
	BidToken     *controller.BidTokenController
	Partner      *controller.PartnerController
	GroupBuy     *controller.GroupBuyController
	Content      *controller.ContentController
	WebSocket    *controller.WebSocketController
	Admin        *controller.AdminController
}

type Router struct {
	c              Controllers
	authMiddleware *middleware.AuthMiddleware
	config         *config.Config
}

func NewRouter(c Controllers, authMiddleware *middleware.AuthMiddleware, cfg *config.Config) *Router {
	return &Router{
		c:              c,
		authMiddleware: authMiddleware,
		config:         cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"message": "Dungji Market API is running",
		})
	})

	auth := r.authMiddleware.Authenticate()
	optionalAuth := r.authMiddleware.OptionalAuthenticate()

	// 인증번호 발송은 사용자/IP 기준 분당 3회
	otpLimiter := middleware.NewRateLimiter(rate.Every(20*time.Second), 3, middleware.UserOrIPKey)
	loginLimiter := middleware.NewRateLimiter(rate.Every(time.Second), 10, middleware.ClientIPKey)
	webhookLimiter := middleware.NewRateLimiter(rate.Limit(50), 100, middleware.ClientIPKey)

	v1 := router.Group("/api/v1")
	{
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", r.c.Auth.Register)
			authGroup.POST("/login", loginLimiter.Middleware(), r.c.Auth.Login)
			authGroup.POST("/refresh", r.c.Auth.Refresh)
			authGroup.POST("/logout", r.c.Auth.Logout)
			authGroup.GET("/check-email", r.c.Auth.CheckEmail)
			authGroup.GET("/check-nickname", r.c.Auth.CheckNickname)
			authGroup.GET("/kakao/login", r.c.Auth.KakaoLoginURL)
			authGroup.POST("/kakao/callback", r.c.Auth.KakaoCallback)
			authGroup.GET("/me", auth, r.c.Auth.GetMe)
			authGroup.PUT("/me", auth, r.c.Auth.UpdateMe)
		}

		verification := v1.Group("/verification")
		{
			verification.POST("/phone/send", optionalAuth, otpLimiter.Middleware(), r.c.Verification.SendPhoneCode)
			verification.POST("/phone/verify", optionalAuth, otpLimiter.Middleware(), r.c.Verification.VerifyPhoneCode)
			verification.GET("/phone/status", r.c.Verification.PhoneStatus)
			verification.POST("/business", auth, r.c.Verification.VerifyBusiness)
			verification.GET("/business", auth, r.c.Verification.LatestBusiness)
		}

		used := v1.Group("/used")
		{
			used.GET("/items", r.c.Used.ListItems)
			used.GET("/items/:id", r.c.Used.GetItem)
			used.GET("/models", r.c.Used.SuggestModels)

			used.GET("/items/check-limit", auth, r.c.Used.CheckLimit)
			used.POST("/items", auth, r.c.Used.CreateItem)
			used.PATCH("/items/:id", auth, r.c.Used.UpdateItem)
			used.DELETE("/items/:id", auth, r.c.Used.DeleteItem)
			used.GET("/my/items", auth, r.c.Used.MyItems)
			used.POST("/items/:id/favorite", auth, r.c.Used.ToggleFavorite)
			used.GET("/my/favorites", auth, r.c.Used.MyFavorites)

			used.POST("/items/:id/offers", auth, r.c.Offer.MakeOffer)
			used.GET("/items/:id/offers", auth, r.c.Offer.ReceivedOffers)
			used.GET("/items/:id/my-offer", auth, r.c.Offer.MyOfferForItem)
			used.GET("/my/offers", auth, r.c.Offer.MyOffers)
			used.POST("/offers/:id/cancel", auth, r.c.Offer.CancelOffer)
			used.POST("/offers/:id/respond", auth, r.c.Offer.Respond)

			used.POST("/items/:id/complete", auth, r.c.Trade.Complete)
			used.POST("/items/:id/cancel-trade", auth, r.c.Trade.Cancel)
			used.GET("/items/:id/transaction", auth, r.c.Trade.TransactionInfo)
			used.GET("/items/:id/buyer-info", auth, r.c.Trade.BuyerInfo)
			used.GET("/items/:id/seller-info", auth, r.c.Trade.SellerInfo)
			used.GET("/my/transactions", auth, r.c.Trade.MyTransactions)
			used.POST("/reviews", auth, r.c.Review.CreateReview)
		}

		notifications := v1.Group("/notifications")
		notifications.Use(auth)
		{
			notifications.GET("", r.c.Notification.GetNotifications)
			notifications.GET("/unread-count", r.c.Notification.GetUnreadCount)
			notifications.PATCH("/:id/read", r.c.Notification.MarkAsRead)
			notifications.PATCH("/read-all", r.c.Notification.MarkAllAsRead)
			notifications.DELETE("/:id", r.c.Notification.DeleteNotification)
		}

		upload := v1.Group("/upload")
		upload.Use(auth)
		{
			upload.POST("/presigned-url", r.c.Upload.GeneratePresignedURL)
		}

		users := v1.Group("/users")
		{
			users.GET("/me/dashboard", auth, r.c.Seller.GetDashboard)
			users.GET("/me/reviews", auth, r.c.Review.GetMyReviews)
			users.GET("/:id/profile", r.c.Seller.GetProfile)
			users.GET("/:id/reviews", r.c.Review.GetUserReviews)
			users.GET("/:id/review-stats", r.c.Review.GetUserStatistics)
		}

		payments := v1.Group("/payments")
		{
			// 이니시스 콜백은 인증 없이 호출된다
			inicis := payments.Group("/inicis")
			inicis.POST("/webhook", webhookLimiter.Middleware(), r.c.Payment.Webhook)
			inicis.POST("/return", r.c.Payment.Return)
			inicis.GET("/close", r.c.Payment.Close)
			inicis.POST("/prepare", auth, r.c.Payment.Prepare)
			inicis.POST("/verify", auth, r.c.Payment.Verify)
			inicis.POST("/cancel", auth, r.c.Payment.Cancel)

			payments.GET("/my", auth, r.c.Payment.MyPayments)
			payments.POST("/refund-requests", auth, r.c.Payment.RequestRefund)
			payments.GET("/refund-requests", auth, r.c.Payment.MyRefundRequests)
			payments.GET("/refund-requests/:id", auth, r.c.Payment.GetRefundRequest)
		}

		tokens := v1.Group("/bid-tokens")
		tokens.Use(auth, r.authMiddleware.RequireRole("seller"))
		{
			tokens.GET("/me", r.c.BidToken.MyTokens)
		}

		partners := v1.Group("/partners")
		{
			partners.GET("/qr/:code", r.c.Partner.QRCode)

			partners.GET("/me", auth, r.c.Partner.Me)
			partners.GET("/dashboard", auth, r.c.Partner.Dashboard)
			partners.GET("/referrals", auth, r.c.Partner.Referrals)
			partners.GET("/referral-link", auth, r.c.Partner.ReferralLink)
			partners.GET("/statistics", auth, r.c.Partner.Statistics)
			partners.GET("/export", auth, r.c.Partner.Export)
			partners.POST("/settlements", auth, r.c.Partner.RequestSettlement)
			partners.GET("/settlements", auth, r.c.Partner.Settlements)
			partners.GET("/bank-account", auth, r.c.Partner.BankAccount)
			partners.POST("/bank-account/verify", auth, r.c.Partner.VerifyBankAccount)
			partners.PUT("/bank-account", auth, r.c.Partner.RegisterBankAccount)
		}

		groupBuys := v1.Group("/groupbuys")
		{
			groupBuys.GET("/categories", r.c.GroupBuy.Categories)
			groupBuys.GET("/products", r.c.GroupBuy.Products)
			groupBuys.GET("", r.c.GroupBuy.List)
			groupBuys.GET("/:id", optionalAuth, r.c.GroupBuy.Get)

			groupBuys.POST("", auth, r.c.GroupBuy.Create)
			groupBuys.POST("/:id/join", auth, r.c.GroupBuy.Join)
			groupBuys.POST("/:id/leave", auth, r.c.GroupBuy.Leave)
			groupBuys.POST("/:id/bids", auth, r.c.GroupBuy.PlaceBid)
			groupBuys.GET("/:id/bids", auth, r.c.GroupBuy.ListBids)
			groupBuys.POST("/:id/vote", auth, r.c.GroupBuy.Vote)
		}

		content := v1.Group("")
		{
			content.GET("/notices", r.c.Content.ListNotices)
			content.GET("/notices/:id", r.c.Content.GetNotice)
			content.GET("/popups/active", r.c.Content.ActivePopups)
			content.GET("/banners", r.c.Content.ActiveBanners)
			content.GET("/events", r.c.Content.ListEvents)
			content.GET("/events/:id", r.c.Content.GetEvent)
		}

		// 토큰은 ?token= 쿼리로도 받는다 (브라우저 WebSocket은 헤더 지정 불가)
		v1.GET("/ws", auth, r.c.WebSocket.Connect)

		r.setupAdmin(v1.Group("/admin"))
	}

	return router
}

func (r *Router) setupAdmin(admin *gin.RouterGroup) {
	admin.Use(r.authMiddleware.Authenticate(), r.authMiddleware.RequireRole("admin"))

	admin.GET("/users", r.c.Admin.ListUsers)
	admin.GET("/users/:id", r.c.Admin.GetUser)
	admin.PATCH("/users/:id/active", r.c.Admin.SetActive)
	admin.PATCH("/users/:id/role", r.c.Admin.ChangeRole)

	admin.GET("/bid-tokens/sellers", r.c.BidToken.SearchSellers)
	admin.GET("/bid-tokens/sellers/:id", r.c.BidToken.SellerTokens)
	admin.POST("/bid-tokens/sellers/:id/adjust", r.c.BidToken.Adjust)
	admin.POST("/bid-tokens/bulk-adjust", r.c.BidToken.BulkAdjust)
	admin.GET("/bid-tokens/logs", r.c.BidToken.AdjustmentLogs)

	admin.GET("/refund-requests", r.c.Payment.AdminRefundRequests)
	admin.POST("/refund-requests/:id/approve", r.c.Payment.ApproveRefund)
	admin.POST("/refund-requests/:id/reject", r.c.Payment.RejectRefund)

	admin.POST("/partners", r.c.Partner.CreatePartner)
	admin.GET("/settlements", r.c.Partner.AdminSettlements)
	admin.POST("/settlements/:id/complete", r.c.Partner.CompleteSettlement)
	admin.POST("/settlements/:id/fail", r.c.Partner.FailSettlement)

	admin.POST("/groupbuys/:id/complete", r.c.GroupBuy.ForceComplete)
	admin.POST("/groupbuys/advance", r.c.GroupBuy.AdvanceStatuses)

	admin.GET("/notices", r.c.Content.AdminListNotices)
	admin.POST("/notices", r.c.Content.CreateNotice)
	admin.PUT("/notices/:id", r.c.Content.UpdateNotice)
	admin.DELETE("/notices/:id", r.c.Content.DeleteNotice)
	admin.GET("/popups", r.c.Content.AdminListPopups)
	admin.POST("/popups", r.c.Content.CreatePopup)
	admin.PUT("/popups/:id", r.c.Content.UpdatePopup)
	admin.DELETE("/popups/:id", r.c.Content.DeletePopup)
	admin.GET("/banners", r.c.Content.AdminListBanners)
	admin.POST("/banners", r.c.Content.CreateBanner)
	admin.PUT("/banners/:id", r.c.Content.UpdateBanner)
	admin.DELETE("/banners/:id", r.c.Content.DeleteBanner)
	admin.POST("/events", r.c.Content.CreateEvent)
	admin.PUT("/events/:id", r.c.Content.UpdateEvent)
	admin.DELETE("/events/:id", r.c.Content.DeleteEvent)

	admin.POST("/upload/presigned-url", r.c.Upload.GeneratePresignedURL)
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Content-Length", "Accept", "Accept-Encoding", "Authorization", "Cache-Control", "X-Requested-With", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	for _, origin := range allowedOrigins {
		if origin == "*" {
			// credentials와 와일드카드는 함께 쓸 수 없어 요청 Origin을 그대로 허용
			cfg.AllowOriginFunc = func(string) bool { return true }
			return cors.New(cfg)
		}
	}
	cfg.AllowOrigins = allowedOrigins
	return cors.New(cfg)
}
