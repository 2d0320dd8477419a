package handler

import (
	"travel-search/internal/pkg/response"
	"travel-search/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

type SearchHandler struct {
	uc usecase.SearchUsecase
}

func NewSearchHandler(uc usecase.SearchUsecase) *SearchHandler {
	return &SearchHandler{uc: uc}
}

func (h *SearchHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.HandleSearch)
	r.Get("/:type/:id", h.HandleGetItem)
}

// HandleSearch serves GET /search?type=all|flights|hotels|buses&from&to&city&date&adults.
func (h *SearchHandler) HandleSearch(c fiber.Ctx) error {
	resp, err := h.uc.Search(c.Context(), usecase.SearchRequest{
		Type:   c.Query("type", "all"),
		From:   c.Query("from"),
		To:     c.Query("to"),
		City:   c.Query("city"),
		Date:   c.Query("date"),
		Adults: c.Query("adults"),
	})
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.Cached(c, string(resp.CacheStatus), resp)
}

func (h *SearchHandler) HandleGetItem(c fiber.Ctx) error {
	resp, err := h.uc.GetItem(c.Context(), c.Params("type"), c.Params("id"))
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.Cached(c, string(resp.CacheStatus), resp)
}
