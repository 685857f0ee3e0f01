// README: HTTP router registration for the partner's local API.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"courier/internal/http/handlers"
	"courier/internal/http/middleware"
	"courier/internal/infra"
	"courier/internal/modules/aiusage"
	"courier/internal/modules/ledger"
	"courier/internal/modules/location"
	"courier/internal/modules/order"
	"courier/internal/modules/session"
	"courier/internal/modules/tips"
)

type RouterDeps struct {
	PartnerID string
	// Verifier authenticates callers; nil serves every request as the partner.
	Verifier infra.TokenVerifier
	Logger   *slog.Logger

	Session *session.Service
	Order   *order.Service
	Ledger  *ledger.Ledger
	Tracker *location.Tracker
	ETA     *location.ETAService
	Tips    *tips.Service
	Usage   *aiusage.Service
	Demo    handlers.OfferGenerator
}

func NewRouter(d RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Logging(d.Logger), middleware.Recovery(d.Logger))

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	api := r.Group("/api")
	if d.Verifier != nil {
		api.Use(middleware.Auth(d.Verifier))
	} else {
		api.Use(middleware.Anonymous(d.PartnerID))
	}
	api.Use(middleware.RequireCaller(d.PartnerID))

	sessionHandler := handlers.NewSessionHandler(d.Session)
	api.GET("/session", sessionHandler.Get)
	api.PUT("/session/online", sessionHandler.SetOnline)

	orderHandler := handlers.NewOrderHandler(d.Order, d.Ledger, d.Demo)
	api.GET("/orders/current", orderHandler.Current)
	api.GET("/orders/history", orderHandler.History)
	api.POST("/orders/demo", orderHandler.Demo)
	api.GET("/orders/:id", orderHandler.Get)
	api.POST("/orders/:id/accept", orderHandler.Accept)
	api.POST("/orders/:id/reject", orderHandler.Reject)
	api.POST("/orders/:id/advance", orderHandler.Advance)

	earningsHandler := handlers.NewEarningsHandler(d.Ledger, d.Session, d.Order, d.Tips)
	api.GET("/dashboard", earningsHandler.Dashboard)
	api.GET("/earnings", earningsHandler.Summary)
	api.GET("/earnings/history", earningsHandler.History)

	locationHandler := handlers.NewLocationHandler(d.Tracker, d.ETA, d.Order)
	api.POST("/location", locationHandler.Update)
	api.GET("/location", locationHandler.Get)
	api.GET("/eta", locationHandler.ETA)

	if d.Tips != nil {
		aiHandler := handlers.NewAIHandler(d.Tips, d.Usage, d.Ledger, d.Session, d.PartnerID)
		api.GET("/ai/tip", aiHandler.Tip)
		api.GET("/ai/quota", aiHandler.Quota)
	}
	return r
}
