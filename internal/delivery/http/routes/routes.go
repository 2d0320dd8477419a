package routes

import (
	"net/http"

	v1 "travel-search/internal/delivery/http/routes/v1"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
)

// WebSocketRoutes mounts the price update socket.
type WebSocketRoutes interface {
	RegisterRoutes(r fiber.Router)
}

type Registry struct {
	handlers *v1.Handlers
	ws       WebSocketRoutes
	metrics  http.Handler
}

func NewRegistry(handlers *v1.Handlers, ws WebSocketRoutes, metrics http.Handler) *Registry {
	return &Registry{handlers: handlers, ws: ws, metrics: metrics}
}

func (r *Registry) Register(app *fiber.App) {
	if app == nil {
		return
	}

	if r.handlers != nil && r.handlers.Health != nil {
		r.handlers.Health.RegisterRoutes(app)
	}
	if r.metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(r.metrics))
	}
	if r.ws != nil {
		r.ws.RegisterRoutes(app)
	}

	api := app.Group("/api")
	v1.Register(api.Group("/v1"), r.handlers)
}
