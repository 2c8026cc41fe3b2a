package handler

import (
	"chainpay-gateway/internal/adapter/http/middleware"
	redisStore "chainpay-gateway/internal/adapter/storage/redis"
	"chainpay-gateway/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	WalletSvc      ports.WalletService
	SettlementSvc  ports.SettlementService
	Dispatcher     ports.WebhookDispatcher
	TokenSvc       ports.TokenService
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (deep: verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Prometheus metrics
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Rate limit rules
	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	// API v1 routes, JWT-authenticated
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)
	v1 := r.Group("/api/v1", jwtAuth)

	walletHandler := NewWalletHandler(deps.WalletSvc)
	wallets := v1.Group("/wallets")
	{
		wallets.POST("", rl("wallets"), walletHandler.CreateWallet)
		wallets.GET("", rl("wallets"), walletHandler.ListWallets)
		wallets.GET("/:id/balance", rl("wallets"), walletHandler.GetBalance)
		wallets.POST("/faucet", rl("faucet"), walletHandler.RequestFaucet)
		wallets.DELETE("/:id", rl("wallets"), walletHandler.DeactivateWallet)
	}

	paymentHandler := NewPaymentHandler(deps.SettlementSvc)
	webhookHandler := NewWebhookHandler(deps.Dispatcher)
	payments := v1.Group("/payments")
	{
		payments.POST("", rl("payments"), paymentHandler.CreatePayment)
		payments.GET("", rl("payments"), paymentHandler.ListPayments)
		payments.POST("/sweep", rl("sweep"), paymentHandler.SweepExpired)
		payments.PUT("/:id/method", rl("payments"), paymentHandler.SelectMethod)
		payments.POST("/:id/complete", rl("payments"), paymentHandler.CompletePayment)
		payments.GET("/:id", rl("payments"), paymentHandler.GetPayment)
		payments.GET("/:id/status", rl("payments"), paymentHandler.GetPaymentStatus)
		payments.GET("/:id/deliveries", rl("webhooks"), webhookHandler.ListDeliveries)
		payments.POST("/:id/deliveries/resend", rl("webhooks"), webhookHandler.ResendDelivery)
	}

	return r
}
