package cmd

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"marketplace/internal/core/domain/model/kernel"
	"marketplace/internal/core/domain/model/order"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort string `env:"HTTP_PORT" env-default:"8082" validate:"required,numeric"`
	LogLevel string `env:"LOG_LEVEL" env-default:"info" validate:"oneof=debug info warn error"`

	DBHost     string `env:"DB_HOST" env-default:"localhost" validate:"required"`
	DBPort     string `env:"DB_PORT" env-default:"5432" validate:"required,numeric"`
	DBUser     string `env:"DB_USER" env-default:"marketplace" validate:"required"`
	DBPassword string `env:"DB_PASSWORD" env-default:"marketplace"`
	DBName     string `env:"DB_NAME" env-default:"marketplace" validate:"required"`
	DBSslMode  string `env:"DB_SSLMODE" env-default:"disable" validate:"oneof=disable allow prefer require verify-ca verify-full"`

	DBMaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" env-default:"20" validate:"gte=1"`
	DBMaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" env-default:"5" validate:"gte=0"`
	DBConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" env-default:"30m"`

	KafkaBrokers        []string      `env:"KAFKA_BROKERS" env-default:"localhost:9092" validate:"required,dive,hostname_port"`
	KafkaLifecycleTopic string        `env:"KAFKA_LIFECYCLE_TOPIC" env-default:"marketplace.order-lifecycle" validate:"required"`
	KafkaConsumerGroup  string        `env:"KAFKA_CONSUMER_GROUP" env-default:"marketplace-notifier" validate:"required"`
	KafkaWriteTimeout   time.Duration `env:"KAFKA_WRITE_TIMEOUT" env-default:"10s"`
	OTLPEndpoint        string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceVersion      string        `env:"SERVICE_VERSION" env-default:"dev"`
	PinVerifyPerMinute  int64         `env:"PIN_VERIFY_PER_MINUTE" env-default:"5" validate:"gte=1"`
	RelayBatchSize      int           `env:"OUTBOX_RELAY_BATCH_SIZE" env-default:"100" validate:"gte=1"`
	RelayMaxAttempts    int           `env:"OUTBOX_RELAY_MAX_ATTEMPTS" env-default:"10" validate:"gte=1"`
	SettlementBatchSize int           `env:"SETTLEMENT_BATCH_SIZE" env-default:"50" validate:"gte=1"`
	JobRunTimeout       time.Duration `env:"JOB_RUN_TIMEOUT" env-default:"30s"`
	ShutdownTimeout     time.Duration `env:"SHUTDOWN_TIMEOUT" env-default:"15s"`

	// Lifecycle policy.
	PinThreshold              string        `env:"PIN_THRESHOLD" env-default:"120.00" validate:"required,numeric"`
	SiteVisitThreshold        string        `env:"SITE_VISIT_THRESHOLD" env-default:"350.00" validate:"required,numeric"`
	MaxPinAttempts            int           `env:"MAX_PIN_ATTEMPTS" env-default:"3" validate:"gte=1"`
	MinIssueDescriptionLength int           `env:"MIN_ISSUE_DESCRIPTION_LENGTH" env-default:"10" validate:"gte=0"`
	SettlementWindow          time.Duration `env:"SETTLEMENT_WINDOW" env-default:"0s"`
}

// LoadConfig reads an optional .env file, then the environment, and validates the result.
// Variables already set in the environment win over the file.
func LoadConfig(envFiles ...string) (Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && len(envFiles) > 0 {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read environment: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	if _, err := cfg.Policy(); err != nil {
		return Config{}, fmt.Errorf("invalid lifecycle policy: %w", err)
	}
	return cfg, nil
}

// DatabaseURL is the connection URL shared by pgx and golang-migrate.
func (c Config) DatabaseURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     c.DBHost + ":" + c.DBPort,
		Path:     "/" + c.DBName,
		RawQuery: url.Values{"sslmode": []string{c.DBSslMode}}.Encode(),
	}
	return u.String()
}

// Policy builds the lifecycle thresholds.
func (c Config) Policy() (order.Policy, error) {
	pinThreshold, pinErr := kernel.MoneyFromString(c.PinThreshold)
	siteVisitThreshold, visitErr := kernel.MoneyFromString(c.SiteVisitThreshold)
	if err := errors.Join(pinErr, visitErr); err != nil {
		return order.Policy{}, err
	}
	return order.NewPolicy(
		pinThreshold,
		siteVisitThreshold,
		c.MaxPinAttempts,
		c.MinIssueDescriptionLength,
		c.SettlementWindow,
	)
}
