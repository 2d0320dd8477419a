package handler

import (
	"travel-search/internal/domain/search"
	"travel-search/internal/pkg/response"
	"travel-search/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

var trackedParams = []string{"from", "to", "city", "date", "checkInDate", "checkOutDate", "returnDate", "adults"}

type TrackerHandler struct {
	uc usecase.TrackerUsecase
}

func NewTrackerHandler(uc usecase.TrackerUsecase) *TrackerHandler {
	return &TrackerHandler{uc: uc}
}

func (h *TrackerHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Get("/search", h.HandleSearch)
	r.Get("/search-all", h.HandleSearchAll)
	r.Get("/status/:searchId", h.HandleStatus)
	r.Delete("/track/:searchId", h.HandleStopTracking)
	r.Get("/scheduler", h.HandleSchedulerStatus)
}

func (h *TrackerHandler) HandleSearch(c fiber.Ctx) error {
	resp, err := h.uc.SearchWithTracking(c.Context(), c.Query("type"), queryParams(c))
	if err != nil {
		return mapUsecaseError(err)
	}
	return c.Status(fiber.StatusOK).JSON(resp)
}

func (h *TrackerHandler) HandleSearchAll(c fiber.Ctx) error {
	resp, err := h.uc.SearchAll(c.Context(), queryParams(c))
	if err != nil {
		return mapUsecaseError(err)
	}
	return c.Status(fiber.StatusOK).JSON(resp)
}

func (h *TrackerHandler) HandleStatus(c fiber.Ctx) error {
	a, err := h.uc.Status(c.Params("searchId"))
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, a)
}

func (h *TrackerHandler) HandleStopTracking(c fiber.Ctx) error {
	if err := h.uc.StopTracking(c.Params("searchId")); err != nil {
		return mapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, "Stopped tracking search", nil)
}

func (h *TrackerHandler) HandleSchedulerStatus(c fiber.Ctx) error {
	return response.Success(c, fiber.StatusOK, response.MessageOK, h.uc.SchedulerStatus())
}

func queryParams(c fiber.Ctx) search.Params {
	p := search.Params{}
	for _, k := range trackedParams {
		if v := c.Query(k); v != "" {
			p[k] = v
		}
	}
	return p
}
