package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	env "github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Store holds the settings shared by the API and ledgerctl.
type Store struct {
	DatabaseURL string `env:"DATABASE_URL,required"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv      string `env:"APP_ENV" envDefault:"production"`

	DBMaxOpenConns     int `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	DBMaxIdleConns     int `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	DBConnMaxLifetimeS int `env:"DB_CONN_MAX_LIFETIME_S" envDefault:"300"`
	DBConnMaxIdleTimeS int `env:"DB_CONN_MAX_IDLE_TIME_S" envDefault:"60"`

	SuspenseAccountCode string `env:"SUSPENSE_ACCOUNT_CODE" envDefault:"9999"`
	// SuspenseCurrency is the currency of the Suspense account. Repairs for
	// transactions in any other currency are reported, not booked.
	SuspenseCurrency string `env:"SUSPENSE_ACCOUNT_CURRENCY" envDefault:"NGN"`
	MigrationsPath   string `env:"MIGRATIONS_PATH" envDefault:"file://migrations"`
}

type Config struct {
	Store

	JWTSecret string        `env:"JWT_SECRET,required"`
	JWTExpiry time.Duration `env:"JWT_EXPIRY" envDefault:"24h"`
	Port      int           `env:"PORT" envDefault:"8080"`

	KafkaBrokers       []string      `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopicPrefix   string        `env:"KAFKA_TOPIC_PREFIX" envDefault:"bizledger."`
	OutboxPollInterval time.Duration `env:"OUTBOX_POLL_INTERVAL" envDefault:"2s"`
	OutboxBatchSize    int           `env:"OUTBOX_BATCH_SIZE" envDefault:"50"`

	ReconcileInterval time.Duration `env:"RECONCILE_INTERVAL" envDefault:"0s"`

	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"20"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"40"`
}

// Load reads an optional .env file, then parses the environment.
func Load() (*Config, error) {
	return load[Config]("config.Load")
}

// LoadStore parses only the database-facing settings, so maintenance
// tooling runs without API secrets.
func LoadStore() (*Store, error) {
	return load[Store]("config.LoadStore")
}

func load[T any](op string) (*T, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: dotenv: %w", op, err)
	}

	cfg, err := env.ParseAs[T]()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cfg, nil
}
