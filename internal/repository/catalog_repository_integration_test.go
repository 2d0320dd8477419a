//go:build integration

package repository

import (
	"context"
	"encoding/json"
	"net/url"
	"testing"
	"time"

	"travel-search/internal/config"
	"travel-search/internal/database"
	"travel-search/internal/database/migration"
	"travel-search/internal/database/postgres"
	"travel-search/internal/database/seeder"
	"travel-search/internal/domain/catalog"
	"travel-search/internal/domain/search"
	"travel-search/migrations"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startCatalogDB(t *testing.T) database.DB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("travel_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(container) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	u, err := url.Parse(dsn)
	require.NoError(t, err)
	pw, _ := u.User.Password()

	db, err := postgres.Connect(ctx, config.DatabaseConfig{
		DBHost:     u.Hostname(),
		DBPort:     u.Port(),
		DBName:     "travel_test",
		DBUser:     u.User.Username(),
		DBPassword: pw,
		DBSSLMode:  "disable",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, migration.Runner{FS: migrations.FS, Logger: zerolog.Nop()}.Run(ctx, db.SQLDB()))
	require.NoError(t, migration.Runner{FS: migrations.FS, Logger: zerolog.Nop()}.Run(ctx, db.SQLDB()), "re-running is a no-op")
	return db
}

func TestPostgresCatalogRepository(t *testing.T) {
	db := startCatalogDB(t)
	ctx := context.Background()
	repo := NewPostgresCatalogRepository(db)

	require.NoError(t, seeder.Runner{Seeders: seeder.Defaults(), Logger: zerolog.Nop()}.Run(ctx, db))
	require.NoError(t, seeder.Runner{Seeders: seeder.Defaults(), Logger: zerolog.Nop()}.Run(ctx, db))

	h1, err := repo.FindByID(ctx, search.TypeHotels, "H1")
	require.NoError(t, err)
	assert.Equal(t, search.TypeHotels, h1.Type)

	_, err = repo.FindByID(ctx, search.TypeFlights, "H1")
	assert.ErrorIs(t, err, catalog.ErrNotFound)

	delhi, err := repo.List(ctx, search.TypeFlights, catalog.Filter{From: "del"})
	require.NoError(t, err)
	assert.Len(t, delhi, 2)

	created, err := repo.Create(ctx, search.TypeBuses, json.RawMessage(`{"id":"ignored","operator":"Orange Travels","price":700}`))
	require.NoError(t, err)
	assert.NotEqual(t, "ignored", created.ID)

	updated, err := repo.Update(ctx, search.TypeHotels, "H1", json.RawMessage(`{"name":"Grand Hotel Annex","price":3900}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Grand Hotel Annex","price":3900}`, string(updated.Fields))
	assert.False(t, updated.UpdatedAt.Before(h1.UpdatedAt))

	_, err = repo.Update(ctx, search.TypeHotels, "H404", json.RawMessage(`{}`))
	assert.ErrorIs(t, err, catalog.ErrNotFound)

	require.NoError(t, repo.Delete(ctx, search.TypeBuses, created.ID))
	assert.ErrorIs(t, repo.Delete(ctx, search.TypeBuses, created.ID), catalog.ErrNotFound)
}
