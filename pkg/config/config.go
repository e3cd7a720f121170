package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	Reservations ReservationsConfig
	Marketplace  MarketplaceConfig
	Payments     PaymentsConfig
	Sweep        SweepConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"TIX_APP_ENV" required:"true"`
	Port         string `envconfig:"TIX_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"TIX_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TIX_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"TIX_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"TIX_DB_DSN"`
	Driver string `envconfig:"TIX_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"TIX_DB_HOST"`
	LegacyPort     int    `envconfig:"TIX_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"TIX_DB_USER"`
	LegacyPassword string `envconfig:"TIX_DB_PASSWORD"`
	LegacyName     string `envconfig:"TIX_DB_NAME"`
	LegacySSLMode  string `envconfig:"TIX_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"TIX_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"TIX_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"TIX_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TIX_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"TIX_REDIS_URL" required:"true"`
	Address      string        `envconfig:"TIX_REDIS_ADDR"`
	Password     string        `envconfig:"TIX_REDIS_PASSWORD"`
	DB           int           `envconfig:"TIX_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TIX_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TIX_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TIX_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TIX_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TIX_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// ReservationsConfig tunes the hold/reservation engine. The hold duration and
// per-order ceiling are deployment policy, not hard product rules.
type ReservationsConfig struct {
	HoldDuration    time.Duration `envconfig:"TIX_RESERVATION_HOLD_DURATION" default:"15m"`
	MaxPerOrder     int           `envconfig:"TIX_RESERVATION_MAX_PER_ORDER" default:"5"`
	AvailabilityTTL time.Duration `envconfig:"TIX_AVAILABILITY_CACHE_TTL" default:"2s"`
}

type MarketplaceConfig struct {
	// ListingTTL of zero means listings never expire unless the seller sets a deadline.
	ListingTTL time.Duration `envconfig:"TIX_MARKETPLACE_LISTING_TTL" default:"0"`
}

type PaymentsConfig struct {
	// Verifier selects the payment-proof verifier: "format" checks signature shape
	// only, "gateway" defers to the chain gateway below.
	Verifier       string        `envconfig:"TIX_PAYMENTS_VERIFIER" default:"format"`
	GatewayURL     string        `envconfig:"TIX_PAYMENTS_GATEWAY_URL"`
	GatewayTimeout time.Duration `envconfig:"TIX_PAYMENTS_GATEWAY_TIMEOUT" default:"10s"`
}

type SweepConfig struct {
	Interval  time.Duration `envconfig:"TIX_SWEEP_INTERVAL" default:"30s"`
	LockTTL   time.Duration `envconfig:"TIX_SWEEP_LOCK_TTL" default:"2m"`
	BatchSize int           `envconfig:"TIX_SWEEP_BATCH_SIZE" default:"200"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"TIX_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
