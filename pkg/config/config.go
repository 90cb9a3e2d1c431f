package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Scryfall     ScryfallConfig
	DeckSource   DeckSourceConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"NETDECKER_APP_ENV" required:"true"`
	Port         string `envconfig:"NETDECKER_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"NETDECKER_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"NETDECKER_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	// Driver selects the GORM dialector. The proxy tracker runs on a local
	// sqlite file by default; postgres is supported for shared deployments.
	Driver string `envconfig:"NETDECKER_DB_DRIVER" default:"sqlite"`
	DSN    string `envconfig:"NETDECKER_DB_DSN" default:"netdecker.db"`

	MaxOpenConns    int           `envconfig:"NETDECKER_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"NETDECKER_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"NETDECKER_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"NETDECKER_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (db *DBConfig) validate() error {
	switch db.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported db driver %q (expected sqlite or postgres)", db.Driver)
	}
	if db.DSN == "" {
		return fmt.Errorf("%s is required", EnvDBDSN)
	}
	return nil
}

// RedisConfig is optional: when URL is empty the token-lookup cache is skipped.
type RedisConfig struct {
	URL          string        `envconfig:"NETDECKER_REDIS_URL"`
	PoolSize     int           `envconfig:"NETDECKER_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"NETDECKER_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"NETDECKER_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"NETDECKER_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"NETDECKER_REDIS_WRITE_TIMEOUT" default:"5s"`
	TokenTTL     time.Duration `envconfig:"NETDECKER_REDIS_TOKEN_TTL" default:"24h"`
}

type ScryfallConfig struct {
	BaseURL    string        `envconfig:"NETDECKER_SCRYFALL_BASE_URL" default:"https://api.scryfall.com"`
	Timeout    time.Duration `envconfig:"NETDECKER_SCRYFALL_TIMEOUT" default:"10s"`
	MaxRetries uint64        `envconfig:"NETDECKER_SCRYFALL_MAX_RETRIES" default:"3"`
}

type DeckSourceConfig struct {
	Timeout time.Duration `envconfig:"NETDECKER_DECKSOURCE_TIMEOUT" default:"30s"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"NETDECKER_AUTO_MIGRATE" default:"true"`
}
