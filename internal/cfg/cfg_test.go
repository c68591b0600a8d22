package cfg

import (
	"testing"
	"time"

	"github.com/DRSN-tech/minimarket/pkg/e"
	"github.com/DRSN-tech/minimarket/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv сбрасывает переменные, которые могут быть заданы в окружении CI.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"HTTP_PORT", "POSTGRES_HOST", "POSTGRES_PORT", "SSL_MODE",
		"REDIS_ADDR", "READ_TIMEOUT", "WRITE_TIMEOUT", "PRODUCT_TTL",
		"KAFKA_BROKERS", "KAFKA_TOPIC", "MINIO_ENDPOINT", "BACKEND_MAX_RETRIES",
		"LOW_STOCK_THRESHOLD", "CART_IDLE_TTL", "SALES_PAGE_SIZE",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_MemoryModeDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_MODE", "memory")

	c, err := Load(logger.NewNopLogger())
	require.NoError(t, err)

	assert.Equal(t, StoreModeMemory, c.Store.Mode)
	assert.Nil(t, c.Db)
	assert.Nil(t, c.Backend)
	assert.False(t, c.Redis.Enabled)
	assert.False(t, c.Kafka.Enabled)
	assert.False(t, c.Minio.Enabled)
	assert.Equal(t, "8080", c.Http.Port)
	assert.Equal(t, int64(10), c.Sales.LowStockThreshold)
	assert.Equal(t, 2*time.Hour, c.Sales.CartIdleTTL)
}

func TestLoad_PostgresRequiresCredentials(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_MODE", "postgres")
	t.Setenv("POSTGRES_USER", "")

	_, err := Load(logger.NewNopLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "POSTGRES_USER is required")
}

func TestLoad_Postgres(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_MODE", "postgres")
	t.Setenv("POSTGRES_USER", "pos")
	t.Setenv("POSTGRES_PASSWORD", "secret")
	t.Setenv("POSTGRES_DB", "minimarket")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	c, err := Load(logger.NewNopLogger())
	require.NoError(t, err)

	assert.Equal(t, "host=localhost port=5432 user=pos password=secret dbname=minimarket sslmode=disable", c.Db.DSN())
	assert.True(t, c.Redis.Enabled)
	assert.Equal(t, 3*time.Second, c.Redis.Timeout)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.Kafka.Brokers)
	assert.Equal(t, "sales.committed", c.Kafka.Topic)
}

func TestLoad_RemoteRequiresBackendURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_MODE", "remote")
	t.Setenv("BACKEND_URL", "")

	_, err := Load(logger.NewNopLogger())
	require.Error(t, err)

	t.Setenv("BACKEND_URL", "http://backend:3001/api/")
	c, err := Load(logger.NewNopLogger())
	require.NoError(t, err)
	assert.Equal(t, "http://backend:3001/api", c.Backend.BaseURL)
	assert.Equal(t, 3, c.Backend.MaxRetries)
}

func TestLoad_InvalidValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_MODE", "cassette")
	_, err := Load(logger.NewNopLogger())
	require.ErrorIs(t, err, e.ErrUnknownStoreMode)

	t.Setenv("STORE_MODE", "memory")
	t.Setenv("LOW_STOCK_THRESHOLD", "many")
	_, err = Load(logger.NewNopLogger())
	require.ErrorIs(t, err, e.ErrIncorrectEnvVariable)
}
