package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	Admin        AdminConfig
	RateLimit    RateLimitConfig
	Booking      BookingConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Cron         CronConfig
}

// Load reads the RELACKS_* environment and validates cross-field rules that
// struct tags cannot express.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	checks := []func() error{
		cfg.DB.ensureDSN,
		cfg.Booking.validate,
		cfg.Outbox.validate,
		cfg.Cron.validate,
	}
	for _, check := range checks {
		if err := check(); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"RELACKS_APP_ENV" required:"true"`
	Port         string `envconfig:"RELACKS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"RELACKS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"RELACKS_LOG_WARN_STACK" default:"false"`
	CORSOrigins  string `envconfig:"RELACKS_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// AllowedOrigins splits the comma separated CORS list, skipping blanks.
func (a AppConfig) AllowedOrigins() []string {
	fields := strings.FieldsFunc(a.CORSOrigins, func(r rune) bool { return r == ',' })
	origins := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			origins = append(origins, f)
		}
	}
	return origins
}

type ServiceConfig struct {
	Kind string `envconfig:"RELACKS_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"RELACKS_DB_DSN"`
	Driver string `envconfig:"RELACKS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"RELACKS_DB_HOST"`
	LegacyPort     int    `envconfig:"RELACKS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"RELACKS_DB_USER"`
	LegacyPassword string `envconfig:"RELACKS_DB_PASSWORD"`
	LegacyName     string `envconfig:"RELACKS_DB_NAME"`
	LegacySSLMode  string `envconfig:"RELACKS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"RELACKS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"RELACKS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"RELACKS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"RELACKS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	SlowQuery       time.Duration `envconfig:"RELACKS_DB_SLOW_QUERY" default:"500ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"RELACKS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"RELACKS_REDIS_ADDR"`
	Password     string        `envconfig:"RELACKS_REDIS_PASSWORD"`
	DB           int           `envconfig:"RELACKS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"RELACKS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"RELACKS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"RELACKS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"RELACKS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"RELACKS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"RELACKS_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"RELACKS_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"RELACKS_JWT_EXPIRATION_MINUTES" required:"true"`
	SessionTTLMinutes int    `envconfig:"RELACKS_SESSION_TTL_MINUTES" default:"720"`
}

// SessionTTL returns the admin session TTL configured in minutes.
func (j JWTConfig) SessionTTL() time.Duration {
	if j.SessionTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.SessionTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"RELACKS_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"RELACKS_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"RELACKS_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"RELACKS_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"RELACKS_ARGON_KEY_LEN" default:"32"`
}

// AdminConfig holds the owner credentials. PasswordHash is an argon2id
// encoded hash produced by security.HashPassword.
type AdminConfig struct {
	Email        string `envconfig:"RELACKS_ADMIN_EMAIL" required:"true"`
	PasswordHash string `envconfig:"RELACKS_ADMIN_PASSWORD_HASH" required:"true"`
}

type RateLimitConfig struct {
	PublicWindow    time.Duration `envconfig:"RELACKS_RATE_LIMIT_PUBLIC_WINDOW" default:"15m"`
	PublicIPLimit   int           `envconfig:"RELACKS_RATE_LIMIT_PUBLIC_IP_LIMIT" default:"100"`
	LoginWindow     time.Duration `envconfig:"RELACKS_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginIPLimit    int           `envconfig:"RELACKS_RATE_LIMIT_LOGIN_IP_LIMIT" default:"10"`
	LoginEmailLimit int           `envconfig:"RELACKS_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
}

// BookingConfig carries the pricing and availability policy constants.
type BookingConfig struct {
	DiscountMinNights    int           `envconfig:"RELACKS_DISCOUNT_MIN_NIGHTS" default:"3"`
	DiscountPercent      int           `envconfig:"RELACKS_DISCOUNT_PERCENT" default:"25"`
	ManualQuoteMinNights int           `envconfig:"RELACKS_MANUAL_QUOTE_MIN_NIGHTS" default:"8"`
	QuoteTTL             time.Duration `envconfig:"RELACKS_QUOTE_TTL" default:"15m"`
	MaxAvailabilityDays  int           `envconfig:"RELACKS_AVAILABILITY_MAX_DAYS" default:"366"`
	MaxBookingNights     int           `envconfig:"RELACKS_BOOKING_MAX_NIGHTS" default:"366"`
	Currency             string        `envconfig:"RELACKS_CURRENCY" default:"usd"`
	ContactName          string        `envconfig:"RELACKS_CONTACT_NAME" default:"RelAcksation"`
}

func (b BookingConfig) validate() error {
	if b.DiscountMinNights < 1 {
		return fmt.Errorf("%s must be at least 1", EnvDiscountMinNights)
	}
	if b.DiscountPercent < 0 || b.DiscountPercent > 100 {
		return fmt.Errorf("%s must be between 0 and 100", EnvDiscountPercent)
	}
	if b.ManualQuoteMinNights < 1 {
		return fmt.Errorf("%s must be at least 1", EnvManualQuoteMinNights)
	}
	if b.MaxAvailabilityDays < 1 {
		return fmt.Errorf("%s must be at least 1", EnvAvailabilityMaxDays)
	}
	if b.MaxBookingNights < 1 {
		return fmt.Errorf("%s must be at least 1", EnvBookingMaxNights)
	}
	return nil
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"RELACKS_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"RELACKS_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"RELACKS_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"RELACKS_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"RELACKS_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	BookingsTopic string `envconfig:"RELACKS_PUBSUB_BOOKINGS_TOPIC" default:"relacks-booking-events"`
	// InventoryTopic carries product and blockout events. Empty means BookingsTopic.
	InventoryTopic string `envconfig:"RELACKS_PUBSUB_INVENTORY_TOPIC"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"RELACKS_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"RELACKS_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"RELACKS_OUTBOX_MAX_ATTEMPTS" default:"10"`
	// MetricsPort exposes /metrics from the publisher when set.
	MetricsPort string `envconfig:"RELACKS_OUTBOX_METRICS_PORT"`
}

func (o OutboxConfig) validate() error {
	if o.BatchSize < 0 || o.PollIntervalMS < 0 || o.MaxAttempts < 0 {
		return fmt.Errorf("outbox batch size, poll interval and max attempts must not be negative")
	}
	return nil
}

// CronConfig drives cmd/cron-worker. A zero StalePendingGraceDays
// disables automatic cancellation of stale pending bookings.
type CronConfig struct {
	Interval              time.Duration `envconfig:"RELACKS_CRON_INTERVAL" default:"1h"`
	OutboxRetentionDays   int           `envconfig:"RELACKS_OUTBOX_RETENTION_DAYS" default:"30"`
	DLQRetentionDays      int           `envconfig:"RELACKS_OUTBOX_DLQ_RETENTION_DAYS" default:"90"`
	StalePendingGraceDays int           `envconfig:"RELACKS_STALE_PENDING_GRACE_DAYS" default:"7"`
	StalePendingBatchSize int           `envconfig:"RELACKS_STALE_PENDING_BATCH_SIZE" default:"100"`
	MetricsPort           string        `envconfig:"RELACKS_CRON_METRICS_PORT"`
}

func (c CronConfig) validate() error {
	if c.OutboxRetentionDays < 1 || c.DLQRetentionDays < 1 {
		return fmt.Errorf("%s and %s must be at least 1", EnvOutboxRetentionDays, EnvDLQRetentionDays)
	}
	if c.StalePendingGraceDays < 0 {
		return fmt.Errorf("%s must not be negative", EnvStalePendingGraceDays)
	}
	return nil
}

// ensureDSN assembles a postgres URL from the discrete RELACKS_DB_* parts
// when no DSN is given.
func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	parts := []struct{ env, value string }{
		{EnvDBHost, db.LegacyHost},
		{EnvDBUser, db.LegacyUser},
		{EnvDBName, db.LegacyName},
	}
	var missing []string
	for _, p := range parts {
		if p.value == "" {
			missing = append(missing, p.env)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	dsn := url.URL{
		Scheme: "postgres",
		User:   url.User(db.LegacyUser),
		Host:   net.JoinHostPort(db.LegacyHost, strconv.Itoa(db.LegacyPort)),
		Path:   db.LegacyName,
	}
	if db.LegacyPassword != "" {
		dsn.User = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}
	if db.LegacySSLMode != "" {
		dsn.RawQuery = url.Values{"sslmode": {db.LegacySSLMode}}.Encode()
	}
	db.DSN = dsn.String()
	return nil
}
