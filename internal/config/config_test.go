package config

import (
	"testing"
	"time"

	"prowler/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{
		"DB_DRIVER", "DATABASE_URL", "PORT", "LOG_LEVEL",
		"PROWLER_TRIALS", "PROWLER_WORKERS", "PROWLER_THRESHOLD",
		"PROWLER_SEED", "PROWLER_TIMEOUT", "PROWLER_KEEP_TABLES",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "prowler.db", cfg.Database.URL)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 100, cfg.Permutation.Trials)
	assert.Positive(t, cfg.Permutation.Workers)
	assert.Equal(t, int64(1), cfg.Permutation.Seed)
	assert.Zero(t, cfg.Permutation.Threshold)
	assert.Zero(t, cfg.Permutation.Timeout)
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PROWLER_TRIALS", "250")
	t.Setenv("PROWLER_WORKERS", "3")
	t.Setenv("PROWLER_THRESHOLD", "14")
	t.Setenv("PROWLER_SEED", "-7")
	t.Setenv("PROWLER_TIMEOUT", "90s")
	t.Setenv("PROWLER_KEEP_TABLES", "true")
	t.Setenv("DB_DRIVER", "Postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/prowler?sslmode=disable")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, PermutationConfig{
		Trials:     250,
		Workers:    3,
		Threshold:  14,
		Seed:       -7,
		Timeout:    90 * time.Second,
		KeepTables: true,
	}, cfg.Permutation)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]map[string]string{
		"unknown driver":     {"DB_DRIVER": "mysql"},
		"postgres needs url": {"DB_DRIVER": "postgres"},
		"zero trials":        {"PROWLER_TRIALS": "0"},
		"negative workers":   {"PROWLER_WORKERS": "-2"},
		"negative threshold": {"PROWLER_THRESHOLD": "-1"},
		"bad seed":           {"PROWLER_SEED": "abc"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
		})
	}
}
