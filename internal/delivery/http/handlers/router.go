package handlers

import (
	"log/slog"

	"github.com/brickfoundation/referral-service/internal/delivery/http/middleware"
	"github.com/brickfoundation/referral-service/internal/usecase"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterDeps struct {
	Referrals     usecase.ReferralUsecase
	Payments      usecase.PaymentUsecase
	Links         usecase.LinkUsecase
	Rewards       usecase.RewardUsecase
	Stats         usecase.StatsUsecase
	Notifications usecase.NotificationUsecase

	Gatherer prometheus.Gatherer
	Log      *slog.Logger

	WebhookSecret string
	RateLimit     float64
	Burst         int
	AdminAPIKey   string
}

func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(deps.Log))

	referrals := NewReferralHandler(deps.Referrals)
	payments := NewPaymentHandler(deps.Payments)
	links := NewLinkHandler(deps.Links)
	rewards := NewRewardHandler(deps.Rewards)
	stats := NewStatsHandler(deps.Stats, deps.Log)
	notifications := NewNotificationHandler(deps.Notifications)
	maintenance := NewMaintenanceHandler(deps.Referrals, deps.Links)

	r.GET("/healthz", Health)
	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	limiter := middleware.NewRateLimiter(deps.RateLimit, deps.Burst)
	r.POST("/webhooks/payments",
		limiter.Middleware(),
		middleware.WebhookSignature(deps.WebhookSecret),
		payments.PaymentWebhook,
	)

	api := r.Group("/api/v1")
	{
		api.POST("/users", referrals.RegisterUser)
		api.POST("/referrals/invitations", referrals.Invite)
		// Activity rewards are reported by trusted platform services only.
		api.POST("/activities", middleware.APIKeyAuth(deps.AdminAPIKey), referrals.RecordActivity)

		api.GET("/users/:id/stats", stats.Stats)
		api.GET("/users/:id/tree", stats.Tree)
		api.GET("/users/:id/links", links.ListLinks)
		api.POST("/users/:id/links", links.GenerateLinks)
		api.GET("/users/:id/rewards", rewards.ListRewards)
		api.GET("/users/:id/notifications", notifications.ListNotifications)
		api.POST("/notifications/:id/read", notifications.MarkRead)

		api.GET("/leaderboard", stats.Leaderboard)
		api.GET("/tiers", stats.Tiers)
		api.GET("/links/resolve/:token", links.ResolveToken)
	}

	admin := r.Group("/admin", middleware.APIKeyAuth(deps.AdminAPIKey))
	{
		admin.POST("/rewards/:id/approve", rewards.ApproveReward)
		admin.POST("/rewards/:id/pay", rewards.MarkRewardPaid)
		admin.POST("/maintenance/expire", maintenance.Expire)
	}

	return r
}
