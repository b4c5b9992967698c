package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, 9087, cfg.GRPCPort)
	assert.Equal(t, StoreDriverPostgres, cfg.StoreDriver)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "lending-events", cfg.Kafka.EventsTopic)
	assert.Equal(t, "@every 5s", cfg.Outbox.RelaySpec)
	assert.Equal(t, 30*time.Second, cfg.Redis.ReportTTL)
	assert.False(t, cfg.CacheEnabled())
	assert.Equal(t, ":8087", cfg.HTTPAddr())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("GRPC_PORT", "9999")
	t.Setenv("STORE_DRIVER", "Memory")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("REPORT_CACHE_TTL", "2m")
	t.Setenv("OUTBOX_BATCH_SIZE", "not-a-number")

	cfg := Load()

	assert.Equal(t, 9999, cfg.GRPCPort)
	assert.Equal(t, StoreDriverMemory, cfg.StoreDriver)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.CacheEnabled())
	assert.Equal(t, 2*time.Minute, cfg.Redis.ReportTTL)
	assert.Equal(t, 100, cfg.Outbox.BatchSize)
}

func TestValidate(t *testing.T) {
	valid := Load()
	valid.DB.Password = "secret"
	valid.Auth.WebhookSecret = "hook"
	require.NoError(t, valid.Validate())

	noPassword := valid
	noPassword.DB.Password = ""
	assert.ErrorContains(t, noPassword.Validate(), "DB_PASSWORD")

	memory := noPassword
	memory.StoreDriver = StoreDriverMemory
	assert.NoError(t, memory.Validate())

	unknown := valid
	unknown.StoreDriver = "mongo"
	assert.ErrorContains(t, unknown.Validate(), "unknown STORE_DRIVER")

	noSecret := valid
	noSecret.Auth.WebhookSecret = ""
	assert.ErrorContains(t, noSecret.Validate(), "WEBHOOK_SECRET")

	halfTLS := valid
	halfTLS.GRPCTLS.CertFile = "/etc/lending/tls.crt"
	assert.ErrorContains(t, halfTLS.Validate(), "must be set together")
	assert.False(t, halfTLS.GRPCTLS.Enabled())

	halfTLS.GRPCTLS.KeyFile = "/etc/lending/tls.key"
	assert.NoError(t, halfTLS.Validate())
	assert.True(t, halfTLS.GRPCTLS.Enabled())
}
