package config

import (
	"testing"
	"time"

	"github.com/psds-microservice/support-relay/internal/errs"
	"github.com/psds-microservice/support-relay/internal/relay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("API_TOKEN", "123:abc")
	t.Setenv("CHANNEL_ID", "@support_news")
	t.Setenv("GROUP_ID", "-100200")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "sqlite", cfg.DB.Driver)
	assert.Equal(t, "appeals.db", cfg.DB.Path)
	assert.Equal(t, "appeals.db", cfg.StorageDSN())
	assert.Equal(t, 10*time.Second, cfg.PollTimeout)
	assert.Equal(t, 30*time.Second, cfg.AnchorWait)
	assert.Equal(t, uint64(0), cfg.PollMaxRetries)
	assert.Equal(t, int64(-100200), cfg.GroupID)
	assert.Equal(t, "0.0.0.0:8097", cfg.Addr())

	target, err := cfg.Broadcast()
	require.NoError(t, err)
	assert.Equal(t, relay.Target{Username: "@support_news"}, target)
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("CHANNEL_ID", "-100300")
	t.Setenv("ANCHOR_WAIT", "0s")
	t.Setenv("POLL_MAX_RETRIES", "5")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PASSWORD", "p@ss word")

	cfg, err := Load()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, time.Duration(0), cfg.AnchorWait)
	assert.Equal(t, uint64(5), cfg.PollMaxRetries)
	assert.Equal(t, "host=db port=5432 user=postgres password=p@ss word dbname=support_relay sslmode=disable", cfg.StorageDSN())
	assert.Equal(t, "postgres://postgres:p%40ss+word@db:5432/support_relay?sslmode=disable", cfg.DatabaseURL())

	target, err := cfg.Broadcast()
	require.NoError(t, err)
	assert.Equal(t, relay.ChatTarget(-100300), target)
}

func TestValidateMissingRequired(t *testing.T) {
	t.Setenv("API_TOKEN", "")
	t.Setenv("CHANNEL_ID", "")
	t.Setenv("GROUP_ID", "0")

	cfg, err := Load()
	require.NoError(t, err)

	err = cfg.Validate()
	require.ErrorIs(t, err, errs.ErrConfiguration)
	assert.Contains(t, err.Error(), "API_TOKEN")
	assert.Contains(t, err.Error(), "CHANNEL_ID")
	assert.Contains(t, err.Error(), "GROUP_ID")
}

func TestValidateBadChannel(t *testing.T) {
	setRequired(t)
	t.Setenv("CHANNEL_ID", "news")

	cfg, err := Load()
	require.NoError(t, err)
	assert.ErrorIs(t, cfg.Validate(), errs.ErrConfiguration)
}

func TestLoadMalformedNumber(t *testing.T) {
	setRequired(t)
	t.Setenv("GROUP_ID", "staff")

	_, err := Load()
	assert.ErrorIs(t, err, errs.ErrConfiguration)
}

func TestValidateStorageUnknownDriver(t *testing.T) {
	setRequired(t)
	t.Setenv("DB_DRIVER", "mysql")

	cfg, err := Load()
	require.NoError(t, err)
	assert.ErrorIs(t, cfg.ValidateStorage(), errs.ErrConfiguration)
}
