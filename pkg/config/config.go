// Package config loads all service configuration from LOKAPASAR_-prefixed
// environment variables. One Config feeds every binary; each picks the
// sections it needs.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Eventing      EventingConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
	Midtrans      MidtransConfig
	RajaOngkir    RajaOngkirConfig
	Mailer        MailerConfig
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
	Env          string `envconfig:"LOKAPASAR_APP_ENV" required:"true"`
	Port         string `envconfig:"LOKAPASAR_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"LOKAPASAR_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"LOKAPASAR_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"LOKAPASAR_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"LOKAPASAR_DB_DSN"`
	Driver string `envconfig:"LOKAPASAR_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"LOKAPASAR_DB_HOST"`
	LegacyPort     int    `envconfig:"LOKAPASAR_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"LOKAPASAR_DB_USER"`
	LegacyPassword string `envconfig:"LOKAPASAR_DB_PASSWORD"`
	LegacyName     string `envconfig:"LOKAPASAR_DB_NAME"`
	LegacySSLMode  string `envconfig:"LOKAPASAR_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"LOKAPASAR_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"LOKAPASAR_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"LOKAPASAR_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"LOKAPASAR_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"LOKAPASAR_REDIS_URL" required:"true"`
	Address      string        `envconfig:"LOKAPASAR_REDIS_ADDR"`
	Password     string        `envconfig:"LOKAPASAR_REDIS_PASSWORD"`
	DB           int           `envconfig:"LOKAPASAR_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"LOKAPASAR_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"LOKAPASAR_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"LOKAPASAR_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"LOKAPASAR_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"LOKAPASAR_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"LOKAPASAR_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"LOKAPASAR_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"LOKAPASAR_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"LOKAPASAR_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"LOKAPASAR_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"LOKAPASAR_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"LOKAPASAR_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"LOKAPASAR_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"LOKAPASAR_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"LOKAPASAR_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"LOKAPASAR_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"LOKAPASAR_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"LOKAPASAR_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"LOKAPASAR_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"LOKAPASAR_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"LOKAPASAR_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"LOKAPASAR_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"LOKAPASAR_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"LOKAPASAR_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"LOKAPASAR_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"LOKAPASAR_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrdersTopic              string `envconfig:"LOKAPASAR_PUBSUB_ORDERS_TOPIC" required:"true"`
	OrdersSubscription       string `envconfig:"LOKAPASAR_PUBSUB_ORDERS_SUBSCRIPTION"`
	NotificationTopic        string `envconfig:"LOKAPASAR_PUBSUB_NOTIFICATION_TOPIC" default:"lp-notification-events"`
	NotificationSubscription string `envconfig:"LOKAPASAR_PUBSUB_NOTIFICATION_SUBSCRIPTION" required:"true"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"LOKAPASAR_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"LOKAPASAR_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"LOKAPASAR_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type MidtransConfig struct {
	ServerKey   string        `envconfig:"LOKAPASAR_MIDTRANS_SERVER_KEY" required:"true"`
	ClientKey   string        `envconfig:"LOKAPASAR_MIDTRANS_CLIENT_KEY"`
	Env         string        `envconfig:"LOKAPASAR_MIDTRANS_ENV" default:"sandbox"`
	SnapBaseURL string        `envconfig:"LOKAPASAR_MIDTRANS_SNAP_BASE_URL"`
	Timeout     time.Duration `envconfig:"LOKAPASAR_MIDTRANS_TIMEOUT" default:"15s"`
}

// Environment returns the normalized Midtrans environment (sandbox/production).
func (m MidtransConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(m.Env))
	if env == "" {
		return "sandbox"
	}
	return env
}

type RajaOngkirConfig struct {
	APIKey  string        `envconfig:"LOKAPASAR_RAJAONGKIR_API_KEY" required:"true"`
	BaseURL string        `envconfig:"LOKAPASAR_RAJAONGKIR_BASE_URL"`
	Timeout time.Duration `envconfig:"LOKAPASAR_RAJAONGKIR_TIMEOUT" default:"10s"`
}

type MailerConfig struct {
	APIKey      string        `envconfig:"LOKAPASAR_MAILER_API_KEY"`
	BaseURL     string        `envconfig:"LOKAPASAR_MAILER_BASE_URL"`
	DefaultFrom string        `envconfig:"LOKAPASAR_MAILER_FROM_EMAIL"`
	FromName    string        `envconfig:"LOKAPASAR_MAILER_FROM_NAME" default:"Lokapasar"`
	Timeout     time.Duration `envconfig:"LOKAPASAR_MAILER_TIMEOUT" default:"15s"`
	MaxRetries  int           `envconfig:"LOKAPASAR_MAILER_MAX_RETRIES" default:"5"`
}

// ensureDSN assembles a postgres URL from the discrete DB_* variables when
// no DSN was given. Older deployments still configure the pieces separately.
func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	var missing []string
	for _, pair := range []struct {
		env   string
		value string
	}{
		{EnvDBHost, db.LegacyHost},
		{EnvDBUser, db.LegacyUser},
		{EnvDBName, db.LegacyName},
	} {
		if pair.value == "" {
			missing = append(missing, pair.env)
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
		u.RawQuery = url.Values{"sslmode": {db.LegacySSLMode}}.Encode()
	}

	db.DSN = u.String()
	return nil
}
