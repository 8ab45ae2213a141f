package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("citydiscover-test")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Len(t, cfg.Overpass.Servers, 3)
	assert.Equal(t, 8*time.Second, cfg.Overpass.AttemptTimeoutDuration())
	assert.Equal(t, 600*time.Millisecond, cfg.Viewport.Debounce())
	assert.Equal(t, 15.5, cfg.Viewport.MinZoom)
	assert.Equal(t, "keep-stale", cfg.Viewport.OnFetchFailure)
	assert.Equal(t, 38.4237, cfg.Origin.Lat)
	assert.Equal(t, "citydiscover-test", cfg.Telemetry.ServiceName)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("CITYDISCOVER_VIEWPORT_ON_FETCH_FAILURE", "clear")
	t.Setenv("CITYDISCOVER_SERVER_PORT", "9090")

	cfg, err := Load("citydiscover-test")
	require.NoError(t, err)

	assert.Equal(t, "clear", cfg.Viewport.OnFetchFailure)
	assert.Equal(t, 9090, cfg.Server.Port)
}

func TestValidate(t *testing.T) {
	cfg, err := Load("citydiscover-test")
	require.NoError(t, err)

	cfg.Server.Port = 0
	cfg.Overpass.Servers = []string{"ftp://example.org"}
	cfg.Viewport.OnFetchFailure = "retry"

	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port")
	assert.Contains(t, err.Error(), "not an http(s) URL")
	assert.Contains(t, err.Error(), "on_fetch_failure")
}

func TestValidate_TopN(t *testing.T) {
	t.Setenv("CITYDISCOVER_VIEWPORT_TOP_N", "-1")

	_, err := Load("citydiscover-test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "viewport.top_n")

	t.Setenv("CITYDISCOVER_VIEWPORT_TOP_N", "0")
	_, err = Load("citydiscover-test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "viewport.top_n")
}
