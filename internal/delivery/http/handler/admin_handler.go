package handler

import (
	"encoding/json"

	"travel-search/internal/delivery/http/dto"
	"travel-search/internal/pkg/response"
	"travel-search/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

// AdminHandler serves catalog writes and cache maintenance. Callers mount
// it behind the admin middleware.
type AdminHandler struct {
	catalog usecase.CatalogUsecase
	cache   usecase.CacheAdminUsecase
}

func NewAdminHandler(catalog usecase.CatalogUsecase, cache usecase.CacheAdminUsecase) *AdminHandler {
	return &AdminHandler{catalog: catalog, cache: cache}
}

func (h *AdminHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Get("/cache/stats", h.HandleCacheStats)
	r.Delete("/cache", h.HandleCacheClear)
	r.Post("/cache/flush", h.HandleCacheFlush)

	r.Post("/:type", h.HandleCreate)
	r.Put("/:type/:id", h.HandleUpdate)
	r.Delete("/:type/:id", h.HandleDelete)
}

func (h *AdminHandler) HandleCreate(c fiber.Ctx) error {
	item, err := h.catalog.Create(c.Context(), c.Params("type"), json.RawMessage(c.Body()))
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusCreated, "Created", dto.NewCatalogItemResponse(item))
}

func (h *AdminHandler) HandleUpdate(c fiber.Ctx) error {
	item, err := h.catalog.Update(c.Context(), c.Params("type"), c.Params("id"), json.RawMessage(c.Body()))
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, "Updated", dto.NewCatalogItemResponse(item))
}

func (h *AdminHandler) HandleDelete(c fiber.Ctx) error {
	if err := h.catalog.Delete(c.Context(), c.Params("type"), c.Params("id")); err != nil {
		return mapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, "Deleted", nil)
}

func (h *AdminHandler) HandleCacheStats(c fiber.Ctx) error {
	stats, err := h.cache.Stats(c.Context(), c.Query("pattern"))
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewCacheStatsResponse(stats))
}

// HandleCacheClear deletes keys matching ?pattern, search entries by default.
func (h *AdminHandler) HandleCacheClear(c fiber.Ctx) error {
	if err := h.cache.Clear(c.Context(), c.Query("pattern")); err != nil {
		return mapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, "Cache cleared", nil)
}

func (h *AdminHandler) HandleCacheFlush(c fiber.Ctx) error {
	if err := h.cache.Flush(c.Context()); err != nil {
		return mapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, "Cache flushed", nil)
}
