package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chainpay-gateway/config"
	"chainpay-gateway/internal/adapter/chain"
	httpHandler "chainpay-gateway/internal/adapter/http/handler"
	pgStorage "chainpay-gateway/internal/adapter/storage/postgres"
	redisStorage "chainpay-gateway/internal/adapter/storage/redis"
	"chainpay-gateway/internal/core/ports"
	"chainpay-gateway/internal/service"
	"chainpay-gateway/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting ChainPay Gateway")

	ctx := context.Background()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Initialize repositories
	merchantRepo := pgStorage.NewMerchantRepo(pool)
	walletRepo := pgStorage.NewWalletRepo(pool)
	paymentRepo := pgStorage.NewPaymentRepo(pool)
	deliveryRepo := pgStorage.NewWebhookDeliveryRepo(pool)

	// Initialize core services
	encSvc, err := service.NewAESEncryptionService(cfg.AES.Key)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize encryption service")
	}
	sigSvc := service.NewHMACSignatureService()
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)

	// Initialize chain adapters. One adapter per family; unknown
	// networks are rejected at the registry, never defaulted.
	registry := chain.NewRegistry()
	registry.Register(chain.NewEVMAdapter(cfg.Chains, encSvc, log))
	registry.Register(chain.NewUTXOAdapter(cfg.Chains, encSvc, log))
	registry.Register(chain.NewSOLAdapter(cfg.Chains, encSvc, log))

	// Initialize business services
	dispatcher := service.NewWebhookDispatcher(
		paymentRepo,
		merchantRepo,
		deliveryRepo,
		encSvc,
		sigSvc,
		&http.Client{Timeout: cfg.Webhook.Timeout},
		log,
	)
	walletSvc := service.NewWalletService(walletRepo, registry, log)
	settlementSvc := service.NewSettlementService(paymentRepo, dispatcher, cfg.Settlement.ExpiryWindow, log)

	// Initialize rate limit store
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		WalletSvc:      walletSvc,
		SettlementSvc:  settlementSvc,
		Dispatcher:     dispatcher,
		TokenSvc:       tokenSvc,
		RateLimitStore: rateLimitStore,
		HealthCheckers: []ports.HealthChecker{pgHealth, redisHealth},
		Logger:         log,
	})

	// Background expiry sweep. The sweep endpoint exists for ops; this
	// loop keeps stale pending requests bounded without operator action.
	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go func() {
		ticker := time.NewTicker(cfg.Settlement.ExpiryWindow)
		defer ticker.Stop()
		for {
			select {
			case <-sweepCtx.Done():
				return
			case <-ticker.C:
				if n, err := settlementSvc.SweepExpired(sweepCtx); err != nil {
					log.Error().Err(err).Msg("expiry sweep failed")
				} else if n > 0 {
					log.Info().Int64("expired", n).Msg("expiry sweep completed")
				}
			}
		}
	}()

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	stopSweep()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
