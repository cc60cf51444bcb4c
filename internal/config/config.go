package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds the environment driven configuration for the pipeline service.
type Config struct {
	// Service Configuration
	ServiceName     string        `env:"SERVICE_NAME" envDefault:"videoresizer-api"`
	Environment     string        `env:"ENVIRONMENT" envDefault:"development"`
	HTTPPort        int           `env:"PIPELINE_API_PORT" envDefault:"8480"`
	LogLevel        string        `env:"PIPELINE_LOG_LEVEL" envDefault:"info"`
	EnableTracing   bool          `env:"ENABLE_TRACING" envDefault:"false"`
	OTLPEndpoint    string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`
	OTLPHeaders     string        `env:"OTEL_EXPORTER_OTLP_HEADERS" envDefault:""`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// Database (required, no default)
	DatabaseDSN string `env:"DB_POSTGRESQL_DSN,notEmpty"`

	// Database Connection Pool
	DBMaxIdleConns int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	DBMaxOpenConns int           `env:"DB_MAX_OPEN_CONNS" envDefault:"15"`
	DBConnLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`

	// Storage Backend Selection
	StorageBackend string `env:"PIPELINE_STORAGE_BACKEND" envDefault:"s3"` // Options: "s3" or "local"

	// Local Storage Configuration
	LocalStoragePath    string `env:"PIPELINE_LOCAL_STORAGE_PATH"`
	LocalStorageBaseURL string `env:"PIPELINE_LOCAL_STORAGE_BASE_URL"`

	// S3 Storage Configuration
	S3Endpoint     string        `env:"PIPELINE_S3_ENDPOINT"`
	S3Region       string        `env:"PIPELINE_S3_REGION" envDefault:"us-east-1"`
	S3Bucket       string        `env:"PIPELINE_S3_BUCKET"`
	S3AccessKeyID  string        `env:"PIPELINE_S3_ACCESS_KEY_ID"`
	S3SecretKey    string        `env:"PIPELINE_S3_SECRET_ACCESS_KEY"`
	S3UsePathStyle bool          `env:"PIPELINE_S3_USE_PATH_STYLE" envDefault:"true"`
	S3PresignTTL   time.Duration `env:"PIPELINE_S3_PRESIGN_TTL" envDefault:"24h"`

	// Upload Configuration
	MaxUploadBytes     int64         `env:"PIPELINE_MAX_UPLOAD_BYTES" envDefault:"524288000"` // 500MB
	AcceptedExtensions []string      `env:"PIPELINE_ACCEPTED_EXTENSIONS" envDefault:".mp4,.mov,.avi,.mkv,.webm"`
	RemoteFetchTimeout time.Duration `env:"PIPELINE_REMOTE_FETCH_TIMEOUT" envDefault:"15s"`

	// Transcoder (external processing service)
	TranscoderURL     string        `env:"TRANSCODER_URL" envDefault:"http://transcoder:9090"`
	TranscoderTimeout time.Duration `env:"TRANSCODER_TIMEOUT" envDefault:"120s"`

	// Finished jobs stay queryable for this long; delivery after that
	// goes through the history ledger.
	JobRetention time.Duration `env:"PIPELINE_JOB_RETENTION" envDefault:"1h"`

	// Session profile store (optional Redis; in-memory when unset)
	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	SessionTTL    time.Duration `env:"PIPELINE_SESSION_TTL" envDefault:"24h"`

	// Authentication
	AuthEnabled bool   `env:"AUTH_ENABLED" envDefault:"false"`
	AuthIssuer  string `env:"AUTH_ISSUER"`
	AuthJWKSURL string `env:"AUTH_JWKS_URL"`
}

// Load parses environment variables into Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}

	cfg.S3Bucket = strings.TrimSpace(cfg.S3Bucket)
	cfg.S3AccessKeyID = strings.TrimSpace(cfg.S3AccessKeyID)
	cfg.S3SecretKey = strings.TrimSpace(cfg.S3SecretKey)
	cfg.S3Endpoint = strings.TrimSpace(cfg.S3Endpoint)
	cfg.TranscoderURL = strings.TrimSuffix(strings.TrimSpace(cfg.TranscoderURL), "/")
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 500 * 1024 * 1024
	}
	for i, ext := range cfg.AcceptedExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		cfg.AcceptedExtensions[i] = ext
	}
	if cfg.TranscoderURL == "" {
		return nil, fmt.Errorf("TRANSCODER_URL is required")
	}
	if cfg.AuthEnabled {
		if strings.TrimSpace(cfg.AuthIssuer) == "" {
			return nil, fmt.Errorf("AUTH_ISSUER is required when AUTH_ENABLED is true")
		}
		if strings.TrimSpace(cfg.AuthJWKSURL) == "" {
			return nil, fmt.Errorf("AUTH_JWKS_URL is required when AUTH_ENABLED is true")
		}
	}
	return cfg, nil
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// IsLocalStorage returns true if local storage backend is configured.
func (c *Config) IsLocalStorage() bool {
	return strings.ToLower(strings.TrimSpace(c.StorageBackend)) == "local"
}

// IsS3Storage returns true if S3 storage backend is configured.
func (c *Config) IsS3Storage() bool {
	backend := strings.ToLower(strings.TrimSpace(c.StorageBackend))
	return backend == "" || backend == "s3"
}

// SessionStoreEnabled reports whether a Redis-backed session store is configured.
func (c *Config) SessionStoreEnabled() bool {
	return strings.TrimSpace(c.RedisAddr) != ""
}
