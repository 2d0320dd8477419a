package handler

import (
	"errors"

	"travel-search/internal/delivery/http/middleware"
	"travel-search/internal/pkg/response"
	"travel-search/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

func mapUsecaseError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, usecase.ErrInvalidInput):
		return middleware.NewAppError(fiber.StatusBadRequest, err.Error(), nil, err)
	case errors.Is(err, usecase.ErrSearchNotFound):
		return middleware.NewAppError(fiber.StatusNotFound, "Search not found or no longer active", nil, err)
	case errors.Is(err, usecase.ErrItemNotFound):
		return middleware.NewAppError(fiber.StatusNotFound, err.Error(), nil, err)
	case errors.Is(err, usecase.ErrCatalogOffline):
		return middleware.NewAppError(fiber.StatusServiceUnavailable, "Catalog is not configured", nil, err)
	case errors.Is(err, usecase.ErrProviderFailed):
		return middleware.NewAppError(fiber.StatusBadGateway, "Search provider failed", nil, err)
	default:
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}
}
