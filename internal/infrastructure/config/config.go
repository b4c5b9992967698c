package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store drivers selectable with STORE_DRIVER.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int
}

type KafkaConfig struct {
	Brokers          []string
	ConsumerGroup    string
	EventsTopic      string
	SettlementsTopic string
	HandlerAttempts  int
}

// OutboxConfig drives the cron relay that ships outbox entries to Kafka.
type OutboxConfig struct {
	RelaySpec string
	BatchSize int
}

type RedisConfig struct {
	Addr      string
	ReportTTL time.Duration
}

type AuthConfig struct {
	JWTSecret        string
	JWTPublicKey     string
	JWTPublicKeyFile string
	JWTIssuer        string
	WebhookSecret    string
}

// TLSConfig enables TLS on the gRPC listener when both files are set.
// ClientCAFile additionally requires client certificates.
type TLSConfig struct {
	CertFile     string
	KeyFile      string
	ClientCAFile string
}

func (t TLSConfig) Enabled() bool {
	return t.CertFile != "" && t.KeyFile != ""
}

type ObservabilityConfig struct {
	OTLPEndpoint string
	LogLevel     string
	LogFormat    string
}

type Config struct {
	GRPCPort      int
	HTTPPort      int
	StoreDriver   string
	DB            DatabaseConfig
	Kafka         KafkaConfig
	Outbox        OutboxConfig
	Redis         RedisConfig
	Auth          AuthConfig
	GRPCTLS       TLSConfig
	Observability ObservabilityConfig
	ServiceName   string
}

// Validate reports configuration the service cannot start with.
func (c Config) Validate() error {
	var errs []error
	switch c.StoreDriver {
	case StoreDriverPostgres:
		if c.DB.Password == "" {
			errs = append(errs, errors.New("DB_PASSWORD environment variable is required"))
		}
	case StoreDriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver))
	}
	if c.Outbox.BatchSize <= 0 {
		errs = append(errs, errors.New("OUTBOX_BATCH_SIZE must be positive"))
	}
	if (c.GRPCTLS.CertFile == "") != (c.GRPCTLS.KeyFile == "") {
		errs = append(errs, errors.New("GRPC_TLS_CERT_FILE and GRPC_TLS_KEY_FILE must be set together"))
	}
	if c.Auth.WebhookSecret == "" {
		errs = append(errs, errors.New("WEBHOOK_SECRET environment variable is required"))
	}
	return errors.Join(errs...)
}

func Load() Config {
	return Config{
		GRPCPort:    getEnvInt("GRPC_PORT", 9087),
		HTTPPort:    getEnvInt("HTTP_PORT", 8087),
		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", StoreDriverPostgres)),
		DB: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "kuwago"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "kuwago_lending"),
			SSLMode:  getEnv("DB_SSLMODE", "require"),
			MaxConns: getEnvInt("DB_MAX_CONNS", 10),
		},
		Kafka: KafkaConfig{
			Brokers:          getEnvList("KAFKA_BROKERS", "localhost:9092"),
			ConsumerGroup:    getEnv("KAFKA_CONSUMER_GROUP", "lending-service"),
			EventsTopic:      getEnv("EVENTS_TOPIC", "lending-events"),
			SettlementsTopic: getEnv("SETTLEMENTS_TOPIC", "checkout-settlements"),
			HandlerAttempts:  getEnvInt("SETTLEMENT_HANDLER_ATTEMPTS", 5),
		},
		Outbox: OutboxConfig{
			RelaySpec: getEnv("OUTBOX_RELAY_SPEC", "@every 5s"),
			BatchSize: getEnvInt("OUTBOX_BATCH_SIZE", 100),
		},
		Redis: RedisConfig{
			Addr:      getEnv("REDIS_ADDR", ""),
			ReportTTL: getEnvDuration("REPORT_CACHE_TTL", 30*time.Second),
		},
		Auth: AuthConfig{
			JWTSecret:        getEnv("JWT_SECRET", ""),
			JWTPublicKey:     getEnv("JWT_PUBLIC_KEY", ""),
			JWTPublicKeyFile: getEnv("JWT_PUBLIC_KEY_FILE", ""),
			JWTIssuer:        getEnv("JWT_ISSUER", "kuwago-identity"),
			WebhookSecret:    getEnv("WEBHOOK_SECRET", ""),
		},
		GRPCTLS: TLSConfig{
			CertFile:     getEnv("GRPC_TLS_CERT_FILE", ""),
			KeyFile:      getEnv("GRPC_TLS_KEY_FILE", ""),
			ClientCAFile: getEnv("GRPC_TLS_CLIENT_CA_FILE", ""),
		},
		Observability: ObservabilityConfig{
			OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			LogLevel:     getEnv("LOG_LEVEL", "info"),
			LogFormat:    getEnv("LOG_FORMAT", "json"),
		},
		ServiceName: "lending-service",
	}
}

func (c Config) GRPCAddr() string {
	return fmt.Sprintf(":%d", c.GRPCPort)
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// CacheEnabled is false when no Redis address is configured.
func (c Config) CacheEnabled() bool { return c.Redis.Addr != "" }

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key, fallback string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, fallback), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
