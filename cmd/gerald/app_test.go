package main

import (
	"github.com/clambin/gerald/internal/config"
	"github.com/clambin/gerald/internal/papers"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"log/slog"
	"runtime"
	"strings"
	"testing"
	"time"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	t.Setenv("GERALD_SLACK_BOT_TOKEN", "xoxb-1")
	t.Setenv("GERALD_SLACK_APP_TOKEN", "xapp-1")
	cfg, err := config.Load(config.New(), "")
	require.NoError(t, err)
	cfg.Metrics.Addr = ""
	return cfg
}

func TestNewApp(t *testing.T) {
	cfg := testConfig(t)
	reg := prometheus.NewRegistry()

	a, err := newApp(cfg, slog.Default(), reg)
	require.NoError(t, err)
	assert.Nil(t, a.metrics)

	loc, _ := cfg.Location()
	now := time.Date(2022, time.August, 1, 10, 0, 0, 0, loc)
	assert.Equal(t, time.Date(2022, time.August, 2, 9, 32, 0, 0, loc), a.scheduler.Next(now))

	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(`
# HELP gerald_build_info Gerald version info.
# TYPE gerald_build_info gauge
gerald_build_info{goversion="`+runtime.Version()+`",version="change-me"} 1
`), "gerald_build_info"))

	// metrics can only be registered once
	_, err = newApp(cfg, slog.Default(), reg)
	assert.Error(t, err)
}

func TestNewApp_MetricsServer(t *testing.T) {
	cfg := testConfig(t)
	cfg.Metrics.Addr = "127.0.0.1:0"
	a, err := newApp(cfg, slog.Default(), prometheus.NewRegistry())
	require.NoError(t, err)
	require.NotNil(t, a.metrics)
	assert.Equal(t, "127.0.0.1:0", a.metrics.Addr)
}

func TestNewApp_InvalidSchedule(t *testing.T) {
	cfg := testConfig(t)
	cfg.Schedule.Morning = "every morning"
	_, err := newApp(cfg, slog.Default(), prometheus.NewRegistry())
	assert.ErrorContains(t, err, "morning")
}

func TestNewFeed(t *testing.T) {
	cfg := testConfig(t)

	feed := newFeed(cfg, slog.Default())
	arxiv, ok := feed.(*papers.Arxiv)
	require.True(t, ok)
	assert.Equal(t, "https://arxiv.org", arxiv.URL)

	cfg.ADS.Token = "token"
	cfg.ADS.URL = "http://localhost:8080/v1"
	feed = newFeed(cfg, slog.Default())
	ads, ok := feed.(*papers.ADS)
	require.True(t, ok)
	assert.Equal(t, "http://localhost:8080/v1", ads.URL)
}
