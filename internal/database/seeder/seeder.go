package seeder

import (
	"context"

	"travel-search/internal/database"
)

// Seeder inserts demo rows. Running one twice leaves the same rows.
type Seeder interface {
	Name() string
	Run(ctx context.Context, db database.DB) error
}

func Defaults() []Seeder {
	return []Seeder{CatalogSeeder{}}
}
