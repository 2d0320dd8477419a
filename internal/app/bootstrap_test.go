package app

import (
	"testing"
	"time"

	"travel-search/internal/config"
	"travel-search/internal/domain/search"
	"travel-search/internal/infrastructure/provider"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListenAddr(t *testing.T) {
	addr, err := ListenAddr("8080")
	require.NoError(t, err)
	assert.Equal(t, ":8080", addr)

	addr, err = ListenAddr(" :9090 ")
	require.NoError(t, err)
	assert.Equal(t, ":9090", addr)

	_, err = ListenAddr("  ")
	assert.Error(t, err)
}

func TestProviders(t *testing.T) {
	mocks := providers(config.ProviderConfig{}, zerolog.Nop())
	require.Len(t, mocks, 3)
	assert.IsType(t, &provider.MockHotels{}, mocks[search.TypeHotels])

	remote := providers(config.ProviderConfig{BaseURL: "http://upstream", Timeout: time.Second}, zerolog.Nop())
	require.Len(t, remote, 3)
	assert.IsType(t, &provider.HTTPProvider{}, remote[search.TypeFlights])
}
