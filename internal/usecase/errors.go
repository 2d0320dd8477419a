package usecase

import "errors"

var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrSearchNotFound = errors.New("search not found")
	ErrItemNotFound   = errors.New("item not found")
	ErrProviderFailed = errors.New("provider failed")
	ErrCatalogOffline = errors.New("catalog not configured")
	ErrInternal       = errors.New("internal error")
)
