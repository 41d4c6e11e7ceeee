package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/minishop/backend-minishop/internal/config"
)

func baseEnv() map[string]string {
	return map[string]string{
		"DATABASE_URL":    "postgres://localhost:5432/minishop",
		"REDIS_URL":       "redis://localhost:6379/0",
		"BOT_TOKEN":       "12345:TEST",
		"ORDERS_ENDPOINT": "https://orders.example.com/api/orders",
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.LoadForTests(baseEnv())
	require.NoError(t, err)

	require.Equal(t, "development", cfg.AppEnv)
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Equal(t, "cart:", cfg.CartKeyPrefix)
	require.Equal(t, 720*time.Hour, cfg.CartTTL)
	require.Equal(t, 30*time.Minute, cfg.CartIdleTTL)
	require.Equal(t, int64(30000), cfg.DeliveryFee)
	require.Equal(t, 20, cfg.CatalogDefaultLimit)
	require.Equal(t, 3, cfg.RetryMaxAttempts)
}

func TestLoadOverrides(t *testing.T) {
	env := baseEnv()
	env["PORT"] = "9090"
	env["CART_IDLE_TTL"] = "5m"
	env["DELIVERY_FEE"] = "500"
	env["CORS_ALLOWED_ORIGINS"] = "https://app.example.com, https://web.telegram.org"

	cfg, err := config.LoadForTests(env)
	require.NoError(t, err)

	require.Equal(t, ":9090", cfg.HTTPAddr())
	require.Equal(t, 5*time.Minute, cfg.CartIdleTTL)
	require.Equal(t, int64(500), cfg.DeliveryFee)
	require.Equal(t, []string{"https://app.example.com", "https://web.telegram.org"}, cfg.CORSAllowedOrigins)
}

func TestLoadRequiredValues(t *testing.T) {
	for _, key := range []string{"DATABASE_URL", "REDIS_URL", "BOT_TOKEN", "ORDERS_ENDPOINT"} {
		env := baseEnv()
		env[key] = ""
		_, err := config.LoadForTests(env)
		require.Error(t, err, key)
	}
}

func TestLoadInvalidDurationFallsBack(t *testing.T) {
	env := baseEnv()
	env["CART_TTL"] = "not-a-duration"

	cfg, err := config.LoadForTests(env)
	require.NoError(t, err)
	require.Equal(t, 720*time.Hour, cfg.CartTTL)
}
