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
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Session      SessionConfig
	Checkout     CheckoutConfig
	Stripe       StripeConfig
	Cron         CronConfig
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
	Env          string `envconfig:"TEASHOP_APP_ENV" required:"true"`
	Port         string `envconfig:"TEASHOP_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"TEASHOP_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TEASHOP_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"TEASHOP_DB_DSN"`
	Driver string `envconfig:"TEASHOP_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"TEASHOP_DB_HOST"`
	LegacyPort     int    `envconfig:"TEASHOP_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"TEASHOP_DB_USER"`
	LegacyPassword string `envconfig:"TEASHOP_DB_PASSWORD"`
	LegacyName     string `envconfig:"TEASHOP_DB_NAME"`
	LegacySSLMode  string `envconfig:"TEASHOP_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"TEASHOP_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"TEASHOP_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"TEASHOP_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TEASHOP_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"TEASHOP_REDIS_URL" required:"true"`
	Address      string        `envconfig:"TEASHOP_REDIS_ADDR"`
	Password     string        `envconfig:"TEASHOP_REDIS_PASSWORD"`
	DB           int           `envconfig:"TEASHOP_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TEASHOP_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TEASHOP_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TEASHOP_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TEASHOP_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TEASHOP_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret string `envconfig:"TEASHOP_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"TEASHOP_JWT_ISSUER" required:"true"`
}

// SessionConfig governs the anonymous visitor session store.
type SessionConfig struct {
	CookieName   string        `envconfig:"TEASHOP_SESSION_COOKIE" default:"teashop_session"`
	TTL          time.Duration `envconfig:"TEASHOP_SESSION_TTL" default:"336h"`
	CookieSecure bool          `envconfig:"TEASHOP_SESSION_COOKIE_SECURE" default:"true"`
}

type CheckoutConfig struct {
	Currency        string        `envconfig:"TEASHOP_CHECKOUT_CURRENCY" default:"AUD"`
	OrderHistoryMax int           `envconfig:"TEASHOP_CHECKOUT_ORDER_HISTORY_MAX" default:"10"`
	GatewayTimeout  time.Duration `envconfig:"TEASHOP_CHECKOUT_GATEWAY_TIMEOUT" default:"10s"`
	GatewayRetries  uint64        `envconfig:"TEASHOP_CHECKOUT_GATEWAY_RETRIES" default:"3"`
	WebhookEventTTL time.Duration `envconfig:"TEASHOP_CHECKOUT_WEBHOOK_EVENT_TTL" default:"720h"`
}

type StripeConfig struct {
	APIKey string `envconfig:"TEASHOP_STRIPE_API_KEY"`
	Secret string `envconfig:"TEASHOP_STRIPE_SECRET"`
	Env    string `envconfig:"TEASHOP_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type CronConfig struct {
	Interval time.Duration `envconfig:"TEASHOP_CRON_INTERVAL" default:"24h"`
	LockTTL  time.Duration `envconfig:"TEASHOP_CRON_LOCK_TTL" default:"25h"`
	Port     string        `envconfig:"TEASHOP_CRON_PORT" default:"9091"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"TEASHOP_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"TEASHOP_AUTO_MIGRATE" default:"false"`
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
