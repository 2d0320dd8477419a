package dto

import (
	"encoding/json"
	"time"

	"travel-search/internal/domain/catalog"
)

type CatalogItemResponse struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Fields    json.RawMessage `json:"fields"`
	CreatedAt string          `json:"createdAt"`
	UpdatedAt string          `json:"updatedAt"`
}

func NewCatalogItemResponse(it catalog.Item) CatalogItemResponse {
	fields := it.Fields
	if len(fields) == 0 {
		fields = json.RawMessage(`{}`)
	}
	return CatalogItemResponse{
		ID:        it.ID,
		Type:      it.Type.String(),
		Fields:    fields,
		CreatedAt: formatTime(it.CreatedAt),
		UpdatedAt: formatTime(it.UpdatedAt),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
