package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	StorageMemory = "memory"
	StorageMongo  = "mongo"
)

// Config aggregates application configuration values loaded from environment variables.
type Config struct {
	Env      string `envconfig:"APP_ENV" default:"dev"`
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	Storage  string `envconfig:"STORAGE" default:"memory"`
	MongoURI string `envconfig:"MONGO_URI"`
	MongoDB  string `envconfig:"MONGO_DB" default:"motelbook"`

	KafkaBrokers       []string        `envconfig:"KAFKA_BROKERS"`
	KafkaTopicPrefix   string          `envconfig:"KAFKA_TOPIC_PREFIX"`
	KafkaGroupID       string          `envconfig:"KAFKA_GROUP_ID" default:"motelbook-notify"`
	OutboxPollInterval time.Duration   `envconfig:"OUTBOX_POLL_INTERVAL" default:"500ms"`
	RetryBackoff       []time.Duration `envconfig:"RETRY_BACKOFF" default:"1s,5s,30s"`

	PushGatewayURL     string        `envconfig:"PUSH_GATEWAY_URL"`
	PushGatewayTimeout time.Duration `envconfig:"PUSH_GATEWAY_TIMEOUT" default:"5s"`

	InvoicingURL      string        `envconfig:"INVOICING_URL"`
	InvoicingUsername string        `envconfig:"INVOICING_USERNAME"`
	InvoicingPassword string        `envconfig:"INVOICING_PASSWORD"`
	InvoicingTimeout  time.Duration `envconfig:"INVOICING_TIMEOUT" default:"10s"`

	S3Endpoint       string `envconfig:"S3_ENDPOINT"`
	S3PublicEndpoint string `envconfig:"S3_PUBLIC_ENDPOINT"`
	S3AccessKey      string `envconfig:"S3_ACCESS_KEY" default:"minioadmin"`
	S3SecretKey      string `envconfig:"S3_SECRET_KEY" default:"minioadmin"`
	S3Bucket         string `envconfig:"S3_BUCKET" default:"motelbook-photos"`
	S3UseSSL         bool   `envconfig:"S3_USE_SSL" default:"false"`

	// TimeZone names the zone stored booking dates are read in. Empty means
	// the server's local zone.
	TimeZone string `envconfig:"TIMEZONE"`

	SessionTTL     time.Duration `envconfig:"SESSION_TTL" default:"720h"`
	TurnaroundDays int           `envconfig:"TURNAROUND_DAYS" default:"1"`
	UnitLockTTL    time.Duration `envconfig:"UNIT_LOCK_TTL" default:"10s"`
	IdempotencyTTL time.Duration `envconfig:"IDEMP_TTL" default:"168h"`

	AdminEmail    string `envconfig:"ADMIN_EMAIL"`
	AdminPassword string `envconfig:"ADMIN_PASSWORD"`
}

// Load parses configuration from the current environment.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	cfg.Storage = strings.ToLower(strings.TrimSpace(cfg.Storage))
	cfg.KafkaBrokers = compact(cfg.KafkaBrokers)
	if cfg.S3PublicEndpoint == "" {
		cfg.S3PublicEndpoint = cfg.S3Endpoint
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Default returns the dev configuration used when the environment is unusable.
func Default() Config {
	return Config{
		Env:                "dev",
		HTTPAddr:           ":8080",
		LogLevel:           "info",
		Storage:            StorageMemory,
		MongoDB:            "motelbook",
		KafkaGroupID:       "motelbook-notify",
		OutboxPollInterval: 500 * time.Millisecond,
		RetryBackoff:       []time.Duration{time.Second, 5 * time.Second, 30 * time.Second},
		PushGatewayTimeout: 5 * time.Second,
		InvoicingTimeout:   10 * time.Second,
		S3AccessKey:        "minioadmin",
		S3SecretKey:        "minioadmin",
		S3Bucket:           "motelbook-photos",
		SessionTTL:         720 * time.Hour,
		TurnaroundDays:     1,
		UnitLockTTL:        10 * time.Second,
		IdempotencyTTL:     168 * time.Hour,
	}
}

func (c Config) Validate() error {
	var errs []error
	switch c.Storage {
	case StorageMemory:
	case StorageMongo:
		if c.MongoURI == "" {
			errs = append(errs, errors.New("MONGO_URI is required for mongo storage"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE %q", c.Storage))
	}
	if len(c.KafkaBrokers) > 0 {
		if c.Storage != StorageMongo {
			errs = append(errs, errors.New("KAFKA_BROKERS needs mongo storage for the outbox"))
		}
		if c.KafkaGroupID == "" {
			errs = append(errs, errors.New("KAFKA_GROUP_ID is required with KAFKA_BROKERS"))
		}
	}
	if c.TimeZone != "" {
		if _, err := time.LoadLocation(c.TimeZone); err != nil {
			errs = append(errs, fmt.Errorf("TIMEZONE: %w", err))
		}
	}
	if c.TurnaroundDays < 0 {
		errs = append(errs, errors.New("TURNAROUND_DAYS must not be negative"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	if c.UnitLockTTL <= 0 {
		errs = append(errs, errors.New("UNIT_LOCK_TTL must be positive"))
	}
	if (c.AdminEmail == "") != (c.AdminPassword == "") {
		errs = append(errs, errors.New("ADMIN_EMAIL and ADMIN_PASSWORD go together"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// Location resolves TimeZone, falling back to the local zone.
func (c Config) Location() *time.Location {
	if c.TimeZone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.Local
	}
	return loc
}

func (c Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func (c Config) S3Enabled() bool {
	return c.S3Endpoint != ""
}

func compact(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
