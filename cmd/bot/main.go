package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/fftools/likebot/internal/bot"
	"github.com/fftools/likebot/internal/config"
	"github.com/fftools/likebot/internal/handlers"
	"github.com/fftools/likebot/internal/logging"
	"github.com/fftools/likebot/internal/middleware"
	"github.com/fftools/likebot/internal/observability"
	"github.com/fftools/likebot/internal/services"
	"github.com/fftools/likebot/internal/store"

	_ "github.com/fftools/likebot/docs"
)

// @title           LikeBot API
// @version         1.0
// @description     Verification-gated like delivery for the LikeBot Telegram bot. The bot issues single-use verification links on /like; consuming a link through this API triggers asynchronous like delivery and a completion message back in Telegram.

// @host      localhost:8080
// @BasePath  /

// @tag.name verification
// @tag.description Public verification link endpoint

// @tag.name health
// @tag.description Health check operations

// @tag.name admin
// @tag.description Token-guarded diagnostics

func main() {
	// Initialize logger first
	if err := logging.InitLogger(); err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}

	// Load configuration
	if err := config.LoadConfig(); err != nil {
		logging.Logger.Fatal("failed to load config", zap.Error(err))
	}
	cfg := config.AppConfig

	// Initialize observability
	observability.InitTracer()
	defer observability.ShutdownTracer()

	// Initialize database connections
	config.InitMongoDB()
	config.InitRedis()

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	logger := logging.Logger

	// Wire the verification pipeline
	verifications := store.New(config.MongoDB, cfg.VerificationCollection, logger)
	shortener := services.NewShortener(cfg.ShortenerAPIURL, cfg.ShortenerAPIKey, cfg.ShortenerTimeout, logger)
	issuer := services.NewLinkIssuer(verifications, shortener, cfg.BaseURL, cfg.VerificationTTL, logger)
	cooldown := services.NewCooldown(config.Redis, cfg.LikeCooldown, logger)
	likeClient := services.NewLikeClient(cfg.LikeAPIURL, logger)

	tgbot, err := bot.New(cfg.BotToken, issuer, verifications, cooldown, cfg.HowToVerifyURL, cfg.VerificationTTL, logger)
	if err != nil {
		logger.Fatal("failed to create telegram bot", zap.Error(err))
	}

	notifier := services.NewNotifier(cfg.NotifierWorkers, cfg.NotifierQueueSize, likeClient, tgbot, logger)

	// Create router with middleware
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.RequestLogger(),
		middleware.RequestTracker(),
		cors.Default(),
	)

	// Metrics endpoint
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Public verification endpoint
	verifyHandler := handlers.NewVerifyHandler(verifications, notifier, logger)
	router.GET("/verify/:code", verifyHandler.VerifyLink)

	// Health check endpoint
	healthHandler := handlers.NewHealthHandler(config.MongoDB, config.Redis, notifier)
	router.GET("/health", healthHandler.Health)

	// Admin diagnostics, registered only when a token is configured
	adminHandler := handlers.NewAdminHandler(verifications, cfg.AdminToken, logger)
	if adminHandler.Enabled() {
		router.GET("/v1/verifications/:code", adminHandler.GetVerification)
	}

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Create server with timeouts
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("starting server",
			zap.Int("port", cfg.Port),
			zap.String("environment", cfg.Environment),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	// Start the Telegram polling loop
	botCtx, stopBot := context.WithCancel(context.Background())
	go tgbot.Run(botCtx)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// Graceful shutdown: stop taking updates, stop HTTP so nothing new can
	// be enqueued, then drain the notifier
	logger.Info("shutting down...")
	stopBot()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	notifier.Stop()
	logger.Info("server exited gracefully")
}
