package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DATABASE_URL", "postgres://localhost/bizledger")
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "9999", cfg.SuspenseAccountCode)
	assert.Equal(t, time.Duration(0), cfg.ReconcileInterval)
	assert.Equal(t, 2*time.Second, cfg.OutboxPollInterval)
	assert.Empty(t, cfg.KafkaBrokers)
}

func TestLoad_KafkaBrokers(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DATABASE_URL", "postgres://localhost/bizledger")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")
	t.Setenv("RECONCILE_INTERVAL", "1h")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, time.Hour, cfg.ReconcileInterval)
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "")
	require.NoError(t, os.Unsetenv("DATABASE_URL"))
	require.NoError(t, os.Unsetenv("JWT_SECRET"))

	_, err := Load()
	require.Error(t, err)
}

func TestLoadStore_WithoutAPISecrets(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DATABASE_URL", "postgres://localhost/bizledger")
	t.Setenv("JWT_SECRET", "")
	require.NoError(t, os.Unsetenv("JWT_SECRET"))
	t.Setenv("MIGRATIONS_PATH", "file:///srv/migrations")

	store, err := LoadStore()
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost/bizledger", store.DatabaseURL)
	assert.Equal(t, "file:///srv/migrations", store.MigrationsPath)
	assert.Equal(t, "9999", store.SuspenseAccountCode)
	assert.Equal(t, "NGN", store.SuspenseCurrency)
	assert.Equal(t, 25, store.DBMaxOpenConns)
}
