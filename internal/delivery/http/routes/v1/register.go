package v1

import (
	"travel-search/internal/delivery/http/handler"

	"github.com/gofiber/fiber/v3"
)

// Handlers groups the v1 route handlers. AdminAuth guards the admin group;
// when it is nil the admin routes are not mounted.
type Handlers struct {
	Health    *handler.HealthHandler
	Search    *handler.SearchHandler
	Catalog   *handler.CatalogHandler
	Tracker   *handler.TrackerHandler
	Admin     *handler.AdminHandler
	AdminAuth fiber.Handler
}

func Register(r fiber.Router, h *Handlers) {
	if r == nil || h == nil {
		return
	}

	if h.Search != nil {
		h.Search.RegisterRoutes(r.Group("/search"))
	}
	if h.Tracker != nil {
		h.Tracker.RegisterRoutes(r.Group("/realtime"))
	}
	if h.Admin != nil && h.AdminAuth != nil {
		h.Admin.RegisterRoutes(r.Group("/admin", h.AdminAuth))
	}
	if h.Catalog != nil {
		h.Catalog.RegisterRoutes(r)
	}
}
