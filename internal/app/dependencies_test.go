package app_test

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/minishop/backend-minishop/internal/app"
	"github.com/minishop/backend-minishop/internal/config"
)

func TestNewOutboundHTTPTracesTransport(t *testing.T) {
	cfg := &config.Config{
		OutboundTimeout:    5 * time.Second,
		RetryBase:          100 * time.Millisecond,
		RetryMaxAttempts:   3,
		RetryJitterPercent: 20,
		BreakerMinRequests: 10,
		BreakerFailureRate: 0.5,
		BreakerOpenFor:     30 * time.Second,
	}
	logger := zerolog.Nop()

	client := app.NewOutboundHTTP(cfg, "orders", &logger)

	require.Equal(t, "orders", client.Target)
	require.Equal(t, cfg.OutboundTimeout, client.Client.Timeout)
	require.IsType(t, &otelhttp.Transport{}, client.Client.Transport)
	require.NotNil(t, client.Breaker)
}
