package api

import (
	"fleet-route-service/internal/api/handlers"
	"fleet-route-service/internal/platform/logger"
	"fleet-route-service/internal/services"
	"net/http"

	"github.com/gin-gonic/gin"
)

type Deps struct {
	Delivery  *services.DeliveryService
	Dispatch  *services.DispatchService
	Analytics *services.AnalyticsService
	Log       logger.ILogger
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(d Deps) http.Handler {
	if d.Log == nil {
		d.Log = logger.Nop()
	}

	r := gin.New()
	r.Use(recovery(d.Log), requestID(), accessLog(d.Log))

	orders := &handlers.OrderHandler{Delivery: d.Delivery, Dispatch: d.Dispatch, Log: d.Log}
	dispatch := &handlers.DispatchHandler{Dispatch: d.Dispatch, Log: d.Log}
	analytics := &handlers.AnalyticsHandler{Analytics: d.Analytics, Log: d.Log}

	r.GET("/health", handlers.Health)

	r.POST("/orders", orders.Create)
	r.GET("/orders/:id", orders.Get)
	r.POST("/orders/:id/accept", orders.Accept)
	r.POST("/orders/:id/start", orders.Start)
	r.POST("/orders/:id/complete", orders.Complete)
	r.POST("/orders/:id/fixes", orders.RecordFix)
	r.GET("/orders/:id/metrics", orders.Metrics)
	r.GET("/orders/:id/eta", orders.ETA)
	r.GET("/orders/:id/candidates", dispatch.Candidates)

	r.GET("/drivers/:id/orders", orders.ListByDriver)
	r.POST("/drivers/:id/optimize", dispatch.Optimize)

	r.GET("/analytics/leaderboard", analytics.Leaderboard)
	r.GET("/analytics/fleet", analytics.Fleet)
	r.GET("/analytics/fuel-savings", analytics.FuelSavings)

	return r
}
