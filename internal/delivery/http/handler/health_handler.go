package handler

import (
	"context"
	"time"

	"travel-search/internal/pkg/response"
	"travel-search/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	cache     Pinger
	db        Pinger
	scheduler usecase.SchedulerStatusReader
}

// NewHealthHandler takes optional dependencies; nil ones are reported as
// disabled.
func NewHealthHandler(cache, db Pinger, scheduler usecase.SchedulerStatusReader) *HealthHandler {
	return &HealthHandler{cache: cache, db: db, scheduler: scheduler}
}

func (h *HealthHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Get("/health", h.HandleHealth)
}

// HandleHealth always answers 200; degraded dependencies are reported in
// the body because the service keeps serving without its cache.
func (h *HealthHandler) HandleHealth(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
	defer cancel()

	data := fiber.Map{
		"cache":    probe(ctx, h.cache),
		"database": probe(ctx, h.db),
	}
	if h.scheduler != nil {
		data["scheduler"] = h.scheduler.Status()
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, data)
}

func probe(ctx context.Context, p Pinger) string {
	if p == nil {
		return "disabled"
	}
	if err := p.Ping(ctx); err != nil {
		return "down"
	}
	return "up"
}
