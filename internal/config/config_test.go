package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper(values map[string]any) *viper.Viper {
	v := viper.New()
	setDefaults(v)
	for k, val := range values {
		v.Set(k, val)
	}
	return v
}

func TestFromViper_Defaults(t *testing.T) {
	cfg, err := FromViper(newViper(map[string]any{
		"APP_NAME":  "travel-search",
		"APP_ENV":   "test",
		"HTTP_PORT": "8080",
	}))
	require.NoError(t, err)

	assert.Equal(t, 60*time.Second, cfg.Search.CacheTTL)
	assert.Equal(t, 3600*time.Second, cfg.Search.CatalogCacheTTL)
	assert.Equal(t, 30*time.Second, cfg.Refresh.Interval)
	assert.Equal(t, 30*time.Minute, cfg.Refresh.IdleTimeout)
	assert.Equal(t, 600*time.Second, cfg.Redis.DefaultTTL)
	assert.Equal(t, PubSubModeLocal, cfg.PubSub.Mode)
	assert.True(t, cfg.Search.AutoTrack)
	assert.False(t, cfg.Database.Enabled())
}

func TestFromViper_MissingRequired(t *testing.T) {
	_, err := FromViper(newViper(map[string]any{"APP_NAME": "x"}))
	require.ErrorIs(t, err, errMissingRequiredEnv)
	assert.Contains(t, err.Error(), "APP_ENV")
	assert.Contains(t, err.Error(), "HTTP_PORT")
}

func TestFromViper_RejectsUnknownPubSubMode(t *testing.T) {
	_, err := FromViper(newViper(map[string]any{
		"APP_NAME":    "travel-search",
		"APP_ENV":     "test",
		"HTTP_PORT":   "8080",
		"PUBSUB_MODE": "kafka",
	}))
	require.Error(t, err)
}

func TestFromViper_Overrides(t *testing.T) {
	cfg, err := FromViper(newViper(map[string]any{
		"APP_NAME":                  "travel-search",
		"APP_ENV":                   "test",
		"HTTP_PORT":                 "8080",
		"SEARCH_CACHE_TTL":          15,
		"PRICE_REFRESH_INTERVAL_MS": 500,
		"DB_HOST":                   "db",
		"PUBSUB_MODE":               "REDIS",
	}))
	require.NoError(t, err)
	assert.Equal(t, 15*time.Second, cfg.Search.CacheTTL)
	assert.Equal(t, 500*time.Millisecond, cfg.Refresh.Interval)
	assert.True(t, cfg.Database.Enabled())
	assert.Equal(t, PubSubModeRedis, cfg.PubSub.Mode)
}
