package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("INTERVIEWS_PER_PAGE", "")
	t.Setenv("SWEEPER_GRACE", "")

	cfg := Load()

	assert.Equal(t, "3000", cfg.App.Port)
	assert.Equal(t, "development", cfg.App.Env)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, StoreDriverPostgres, cfg.Store.Driver)
	assert.Equal(t, 10, cfg.Interview.PerPage)
	assert.Equal(t, 10*time.Minute, cfg.Interview.SweeperGrace)
	assert.Equal(t, 5*time.Minute, cfg.Interview.StatsCacheTTL)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("STORE_DRIVER", "Mongo")
	t.Setenv("INTERVIEWS_PER_PAGE", "25")
	t.Setenv("SWEEPER_GRACE", "90s")
	t.Setenv("MIDTRANS_IS_PRODUCTION", "true")
	t.Setenv("METRICS_ENABLED", "false")

	cfg := Load()

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, StoreDriverMongo, cfg.Store.Driver)
	assert.Equal(t, 25, cfg.Interview.PerPage)
	assert.Equal(t, 90*time.Second, cfg.Interview.SweeperGrace)
	assert.True(t, cfg.Midtrans.IsProduction)
	assert.False(t, cfg.Metrics.Enabled)
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("INTERVIEWS_PER_PAGE", "ten")
	t.Setenv("SWEEPER_GRACE", "soon")
	t.Setenv("METRICS_ENABLED", "maybe")

	cfg := Load()

	assert.Equal(t, 10, cfg.Interview.PerPage)
	assert.Equal(t, 10*time.Minute, cfg.Interview.SweeperGrace)
	assert.True(t, cfg.Metrics.Enabled)
}
