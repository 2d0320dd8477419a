package handler

import (
	"travel-search/internal/domain/search"
	"travel-search/internal/pkg/response"
	"travel-search/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

type CatalogHandler struct {
	uc usecase.CatalogUsecase
}

func NewCatalogHandler(uc usecase.CatalogUsecase) *CatalogHandler {
	return &CatalogHandler{uc: uc}
}

// RegisterRoutes mounts GET /{type} and GET /{type}/:id for each catalog type.
func (h *CatalogHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	for _, t := range search.ConcreteTypes {
		g := r.Group("/" + t.String())
		g.Get("/", h.list(t))
		g.Get("/:id", h.get(t))
	}
}

func (h *CatalogHandler) list(t search.Type) fiber.Handler {
	return func(c fiber.Ctx) error {
		resp, err := h.uc.List(c.Context(), t.String())
		if err != nil {
			return mapUsecaseError(err)
		}
		return response.Cached(c, string(resp.CacheStatus), resp)
	}
}

func (h *CatalogHandler) get(t search.Type) fiber.Handler {
	return func(c fiber.Ctx) error {
		resp, err := h.uc.Get(c.Context(), t.String(), c.Params("id"))
		if err != nil {
			return mapUsecaseError(err)
		}
		return response.Cached(c, string(resp.CacheStatus), resp)
	}
}
