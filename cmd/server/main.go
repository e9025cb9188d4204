package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dungji/dungji-market-backend/config"
	"github.com/dungji/dungji-market-backend/internal/app/controller"
	"github.com/dungji/dungji-market-backend/internal/app/repository"
	"github.com/dungji/dungji-market-backend/internal/app/service"
	"github.com/dungji/dungji-market-backend/internal/db"
	"github.com/dungji/dungji-market-backend/internal/middleware"
	"github.com/dungji/dungji-market-backend/internal/router"
	"github.com/dungji/dungji-market-backend/internal/scheduler"
	"github.com/dungji/dungji-market-backend/internal/storage"
	ws "github.com/dungji/dungji-market-backend/internal/websocket"
	"github.com/dungji/dungji-market-backend/pkg/kakao"
	"github.com/dungji/dungji-market-backend/pkg/kftc"
	"github.com/dungji/dungji-market-backend/pkg/logger"
	"github.com/dungji/dungji-market-backend/pkg/payment/inicis"
	"github.com/dungji/dungji-market-backend/pkg/redis"
	"github.com/dungji/dungji-market-backend/pkg/util"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := "info"
	logFormat := "json"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
		logFormat = "console"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      logFormat,
		EnableColor: true,
		Service:     "dungji-market",
	})

	logger.Info("Starting Dungji Market Backend Server", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
	})

	// Initialize database
	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	// Redis는 선택. 연결 실패 시 캐시/블랙리스트 없이 계속 진행
	if err := redis.Init(&cfg.Redis); err != nil {
		logger.Warn("Continuing without Redis", map[string]interface{}{
			"error": err.Error(),
		})
	}
	defer func() {
		if err := redis.Close(); err != nil {
			logger.Error("Failed to close Redis connection", err)
		}
	}()

	database := db.GetDB()
	policy := cfg.Policy

	// External clients
	gateway, err := inicis.NewClient(inicis.Config{
		MID:     cfg.Inicis.MID,
		SignKey: cfg.Inicis.SignKey,
		APIKey:  cfg.Inicis.APIKey,
		BaseURL: cfg.Inicis.BaseURL,
	})
	if err != nil {
		logger.Fatal("Failed to initialize Inicis client", err)
	}
	kftcBaseURL := kftc.ProdBaseURL
	if cfg.KFTC.TestMode {
		kftcBaseURL = kftc.TestBaseURL
	}
	bank := kftc.NewClient(kftcBaseURL, cfg.KFTC.ClientID, cfg.KFTC.ClientSecret, cfg.KFTC.UseCode)
	kakaoClient := kakao.NewClient(kakao.Config{
		ClientID:     cfg.Kakao.ClientID,
		ClientSecret: cfg.Kakao.ClientSecret,
		RedirectURI:  cfg.Kakao.RedirectURI,
	})
	sms := util.NewSENSClient(cfg.SMS.ServiceID, cfg.SMS.AccessKey, cfg.SMS.SecretKey, cfg.SMS.FromNumber)
	business := util.NewBusinessVerifier(cfg.Business.APIKey)
	s3Storage := storage.NewS3Storage(cfg.S3)

	hub := ws.NewHub()

	// Initialize repositories
	userRepo := repository.NewUserRepository(database)
	verificationRepo := repository.NewVerificationRepository(database)
	itemRepo := repository.NewUsedItemRepository(database)
	offerRepo := repository.NewOfferRepository(database)
	txRepo := repository.NewTransactionRepository(database)
	reviewRepo := repository.NewReviewRepository(database)
	notificationRepo := repository.NewNotificationRepository(database)
	paymentRepo := repository.NewPaymentRepository(database)
	tokenRepo := repository.NewBidTokenRepository(database)
	partnerRepo := repository.NewPartnerRepository(database)
	groupBuyRepo := repository.NewGroupBuyRepository(database)
	contentRepo := repository.NewContentRepository(database)

	// Initialize services
	notificationService := service.NewNotificationService(notificationRepo, hub)
	authService := service.NewAuthService(
		database,
		userRepo,
		partnerRepo,
		kakaoClient,
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	verificationService := service.NewVerificationService(database, verificationRepo, userRepo, sms, business, policy.Verification)
	usedService := service.NewUsedService(database, itemRepo, offerRepo, policy.Used)
	offerService := service.NewOfferService(database, itemRepo, offerRepo, txRepo, userRepo, notificationService, policy.Used)
	tradeService := service.NewTradeService(database, itemRepo, offerRepo, txRepo, userRepo, notificationService)
	reviewService := service.NewReviewService(reviewRepo, txRepo)
	tokenService := service.NewBidTokenService(database, tokenRepo, userRepo, policy.BidToken)
	partnerService := service.NewPartnerService(database, partnerRepo, userRepo, bank, notificationService, policy.Partner)
	paymentService := service.NewPaymentService(
		database,
		paymentRepo,
		userRepo,
		tokenService,
		partnerService,
		gateway,
		notificationService,
		policy.Refund,
		cfg.Frontend.URL,
	)
	groupBuyService := service.NewGroupBuyService(
		database,
		groupBuyRepo,
		userRepo,
		tokenService,
		notificationService,
		hub,
		policy.GroupBuy,
	)
	sellerService := service.NewSellerService(userRepo, itemRepo, txRepo, reviewRepo, tokenService, policy.Used.MaxActiveListings)
	contentService := service.NewContentService(contentRepo)
	adminService := service.NewAdminService(userRepo)

	if err := groupBuyService.EnsureDefaultCategories(); err != nil {
		logger.Warn("Failed to seed group-buy categories", map[string]interface{}{
			"error": err.Error(),
		})
	}

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret)

	// Setup router
	r := router.NewRouter(router.Controllers{
		Auth:         controller.NewAuthController(authService),
		Verification: controller.NewVerificationController(verificationService),
		Used:         controller.NewUsedController(usedService),
		Offer:        controller.NewOfferController(offerService),
		Trade:        controller.NewTradeController(tradeService),
		Review:       controller.NewReviewController(reviewService),
		Notification: controller.NewNotificationController(notificationService),
		Upload:       controller.NewUploadController(s3Storage),
		Seller:       controller.NewSellerController(sellerService),
		Payment:      controller.NewPaymentController(paymentService),
		BidToken:     controller.NewBidTokenController(tokenService),
		Partner:      controller.NewPartnerController(partnerService),
		GroupBuy:     controller.NewGroupBuyController(groupBuyService),
		Content:      controller.NewContentController(contentService),
		WebSocket:    controller.NewWebSocketController(hub, cfg.CORS.AllowedOrigins),
		Admin:        controller.NewAdminController(adminService),
	}, authMiddleware, cfg)
	engine := r.Setup()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	marketScheduler := scheduler.NewMarketScheduler(tokenService, groupBuyService, verificationService)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hub.Run()
		return nil
	})

	g.Go(func() error {
		if err := marketScheduler.Start(); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
		<-gctx.Done()
		marketScheduler.Stop()
		return nil
	})

	g.Go(func() error {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": srv.Addr,
			"pid":     os.Getpid(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	// Wait for interrupt signal (or a failed component) to gracefully shutdown the server
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server gracefully...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		err := srv.Shutdown(shutdownCtx)
		hub.Stop()
		return err
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped successfully")
}
