package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mapLookup(values map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv(mapLookup(nil))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestFromEnv_Overrides(t *testing.T) {
	cfg, err := FromEnv(mapLookup(map[string]string{
		EnvHorizon:    "14",
		EnvWorkers:    "3",
		EnvFitTimeout: "2s",
		EnvAddr:       "127.0.0.1:8080",
		EnvMySQLDSN:   "mysql://u:p@db:3306/stockcast",
		EnvSessionTTL: "5m",
	}))
	require.NoError(t, err)

	assert.Equal(t, 14, cfg.Horizon)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, 2*time.Second, cfg.FitTimeout)
	assert.Equal(t, "127.0.0.1:8080", cfg.Addr)
	assert.Equal(t, "mysql://u:p@db:3306/stockcast", cfg.MySQLDSN)
	assert.Equal(t, 5*time.Minute, cfg.SessionTTL)
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := map[string]string{
		EnvHorizon:    "0",
		EnvWorkers:    "-1",
		EnvFitTimeout: "soon",
		EnvSessionTTL: "forever",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			_, err := FromEnv(mapLookup(map[string]string{key: value}))
			assert.Error(t, err)
		})
	}
}

func TestLoad_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("STOCKCAST_HORIZON=21\nSTOCKCAST_ADDR=:9999\n"), 0o644))

	t.Setenv(EnvAddr, ":7000")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 21, cfg.Horizon)
	assert.Equal(t, ":7000", cfg.Addr, "process environment wins over the file")
}

func TestLoad_MissingFileIsFine(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)
	assert.Equal(t, Default().Horizon, cfg.Horizon)
}
