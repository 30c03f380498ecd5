package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolConfig(t *testing.T) {
	cfg, err := poolConfig(PoolOptions{URL: "postgres://app:pw@db.local:5432/technotes", MaxConns: 8, MinConns: 20})
	require.NoError(t, err)

	assert.Equal(t, int32(8), cfg.MaxConns)
	assert.Equal(t, int32(8), cfg.MinConns)
	assert.Equal(t, "db.local", cfg.ConnConfig.Host)
	assert.Equal(t, "technotes", cfg.ConnConfig.Database)
}

func TestPoolConfigKeepsDriverDefaults(t *testing.T) {
	defaults, err := poolConfig(PoolOptions{URL: "postgres://localhost/technotes"})
	require.NoError(t, err)
	assert.Positive(t, defaults.MaxConns)
	assert.Zero(t, defaults.MinConns)
}

func TestPoolConfigRejectsBadURL(t *testing.T) {
	_, err := poolConfig(PoolOptions{URL: "postgres://%zz"})
	assert.ErrorContains(t, err, "parse database URL")
}
