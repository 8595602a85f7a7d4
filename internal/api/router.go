package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"jobboard-notify-backend/config"
	"jobboard-notify-backend/internal/mw"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(cfg *config.ServerConfig, handler *Handler, gate *mw.Gate) *gin.Engine {
	r := gin.Default()

	// Per-IP limit on everything, plus a per-caller limit on fan-out triggers.
	ipLimiter := mw.RateLimiter(
		mw.NewKeyedRateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst, 10*time.Minute),
		mw.ByClientIP,
	)
	callerLimiter := mw.RateLimiter(
		mw.NewKeyedRateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst, 10*time.Minute),
		mw.ByCaller,
	)

	ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second
	caching := mw.PublicCache(cache.New(ttl, 2*ttl), ttl)

	base := r.Group(cfg.BasePath)
	base.Use(ipLimiter)
	{
		base.GET("/", Health)
		base.GET("/health", Health)
		base.GET("/webpush/vapid-public-key", caching, handler.GetVAPIDPublicKey)

		notify := base.Group("/notify")
		{
			notify.POST("/new-job", gate.RequireAdmin(), callerLimiter, handler.NotifyNewJob)
			notify.POST("/new-application", gate.RequireAuth(), callerLimiter, handler.NotifyNewApplication)
			notify.POST("/application-accepted", gate.RequireAdmin(), callerLimiter, handler.NotifyApplicationAccepted)
			notify.POST("/test", gate.RequireAuth(), callerLimiter, handler.NotifyTest)
		}

		authed := base.Group("")
		authed.Use(gate.RequireAuth())
		{
			authed.POST("/webpush/subscribe", handler.Subscribe)
			authed.POST("/webpush/unsubscribe", handler.Unsubscribe)
			authed.POST("/fcm/register", handler.RegisterToken)
			authed.POST("/fcm/unregister", handler.UnregisterToken)
			authed.GET("/notifications", handler.ListNotifications)
			authed.POST("/notifications/:id/read", handler.MarkNotificationRead)
		}
	}

	return r
}
