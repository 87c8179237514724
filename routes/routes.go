package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"toolcabinet-backend/app"
	"toolcabinet-backend/config"
	"toolcabinet-backend/controllers"
	"toolcabinet-backend/sweep"
)

func RegisterRoutes(r *gin.Engine, s *controllers.Srv, sweeper *sweep.Service, cfg *config.Config) {
	reqCtl := controllers.NewRequestController(s)
	pickupCtl := controllers.NewPickupController(s)
	stockCtl := controllers.NewStockController(s)
	borrowCtl := controllers.NewBorrowController(s)
	subCtl := controllers.NewSubscriptionController(s)
	sweepCtl := controllers.NewSweepController(sweeper)

	rateMW := app.RateLimiter(rate.Limit(cfg.Server.RateLimitPerSec), cfg.Server.RateLimitBurst)
	cacheTTL := time.Duration(cfg.Server.CacheTTLSeconds) * time.Second
	cacheMW := app.CacheGET(cache.New(cacheTTL, 2*cacheTTL), cacheTTL)

	// ------------------------------
	// Public: volunteers at the cabinet
	// ------------------------------
	api := r.Group("/api", rateMW)
	{
		api.GET("/cities", cacheMW, stockCtl.ListCities)
		api.GET("/cities/:id/stock", cacheMW, stockCtl.ListCityStock)

		api.POST("/requests", reqCtl.Create)
		api.GET("/requests/verify", reqCtl.Verify)
		api.POST("/requests/pickup", pickupCtl.Confirm)
	}

	// ------------------------------
	// Manager (per-city key)
	// ------------------------------
	manage := r.Group("/api", rateMW)
	{
		manage.POST("/requests/:id/approve", reqCtl.Approve)
		manage.POST("/requests/:id/reject", reqCtl.Reject)
		manage.POST("/requests/:id/cancel", reqCtl.Cancel)
		manage.POST("/requests/:id/extend", reqCtl.Extend)

		manage.GET("/borrows", borrowCtl.ListBorrows)
		manage.POST("/borrows/:id/return", borrowCtl.Return)
		manage.POST("/unlock", borrowCtl.Unlock)

		manage.PUT("/subscriptions", subCtl.Put)
		manage.DELETE("/subscriptions", subCtl.Delete)
	}

	// ------------------------------
	// Deployment admin (scheduled jobs)
	// ------------------------------
	admin := r.Group("/admin", app.AdminOnly())
	{
		admin.POST("/sweep/overdue", sweepCtl.RunOverdue)
	}
}
