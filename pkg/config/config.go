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
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Eventing     EventingConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Dispatch     DispatchConfig
	RateLimit    RateLimitConfig
	Payment      PaymentConfig
	Cron         CronConfig
	CORS         CORSConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Dispatch.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"AYIMOLOU_APP_ENV" required:"true"`
	Port         string `envconfig:"AYIMOLOU_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"AYIMOLOU_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"AYIMOLOU_LOG_WARN_STACK" default:"false"`
	LogFormat    string `envconfig:"AYIMOLOU_LOG_FORMAT" default:"json"`
	// MetricsAddr exposes /metrics from the background workers when set.
	MetricsAddr  string `envconfig:"AYIMOLOU_METRICS_ADDR"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

// ConsoleLogs reports whether logs should use the human readable writer.
func (a AppConfig) ConsoleLogs() bool {
	return strings.EqualFold(strings.TrimSpace(a.LogFormat), "console")
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"AYIMOLOU_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"AYIMOLOU_DB_DSN"`
	Driver string `envconfig:"AYIMOLOU_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"AYIMOLOU_DB_HOST"`
	LegacyPort     int    `envconfig:"AYIMOLOU_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"AYIMOLOU_DB_USER"`
	LegacyPassword string `envconfig:"AYIMOLOU_DB_PASSWORD"`
	LegacyName     string `envconfig:"AYIMOLOU_DB_NAME"`
	LegacySSLMode  string `envconfig:"AYIMOLOU_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"AYIMOLOU_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"AYIMOLOU_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"AYIMOLOU_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"AYIMOLOU_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	// Queries slower than this are logged at warn level; zero disables it.
	SlowQueryThreshold time.Duration `envconfig:"AYIMOLOU_DB_SLOW_QUERY_THRESHOLD" default:"300ms"`
}

// IsSQLite reports whether the local sqlite driver is selected.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DBDriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"AYIMOLOU_REDIS_URL" required:"true"`
	Address      string        `envconfig:"AYIMOLOU_REDIS_ADDR"`
	Password     string        `envconfig:"AYIMOLOU_REDIS_PASSWORD"`
	DB           int           `envconfig:"AYIMOLOU_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"AYIMOLOU_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"AYIMOLOU_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"AYIMOLOU_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"AYIMOLOU_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"AYIMOLOU_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"AYIMOLOU_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"AYIMOLOU_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"AYIMOLOU_JWT_EXPIRATION_MINUTES" default:"60"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"AYIMOLOU_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL  time.Duration `envconfig:"AYIMOLOU_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
	RequestIdempotencyTTL time.Duration `envconfig:"AYIMOLOU_REQUEST_IDEMPOTENCY_TTL" default:"24h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"AYIMOLOU_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"AYIMOLOU_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"AYIMOLOU_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	NotificationTopic        string `envconfig:"AYIMOLOU_PUBSUB_NOTIFICATION_TOPIC" default:"ay-notification-events"`
	NotificationSubscription string `envconfig:"AYIMOLOU_PUBSUB_NOTIFICATION_SUBSCRIPTION" default:"ay-notification-worker"`
	PushTopic                string `envconfig:"AYIMOLOU_PUBSUB_PUSH_TOPIC" default:"ay-push-gateway"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"AYIMOLOU_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"AYIMOLOU_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"AYIMOLOU_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

// DispatchConfig holds the geolocation thresholds used by the throttle and
// the proximity detector.
type DispatchConfig struct {
	LocationMinInterval       time.Duration `envconfig:"AYIMOLOU_DISPATCH_LOCATION_MIN_INTERVAL" default:"5s"`
	LocationMinDistanceMeters float64       `envconfig:"AYIMOLOU_DISPATCH_LOCATION_MIN_DISTANCE_METERS" default:"10"`
	ProximityRadiusMeters     float64       `envconfig:"AYIMOLOU_DISPATCH_PROXIMITY_RADIUS_METERS" default:"500"`
}

func (d DispatchConfig) validate() error {
	if d.LocationMinInterval < 0 {
		return fmt.Errorf("%s must not be negative", EnvDispatchMinInterval)
	}
	if d.LocationMinDistanceMeters < 0 {
		return fmt.Errorf("%s must not be negative", EnvDispatchMinDistance)
	}
	if d.ProximityRadiusMeters <= 0 {
		return fmt.Errorf("%s must be positive", EnvDispatchProximityRadius)
	}
	return nil
}

type RateLimitConfig struct {
	LocationWindow time.Duration `envconfig:"AYIMOLOU_RATE_LIMIT_LOCATION_WINDOW" default:"1m"`
	LocationLimit  int           `envconfig:"AYIMOLOU_RATE_LIMIT_LOCATION_LIMIT" default:"120"`
}

type PaymentConfig struct {
	VerificationDelay time.Duration `envconfig:"AYIMOLOU_PAYMENT_VERIFICATION_DELAY" default:"2s"`
}

type CronConfig struct {
	Interval                  time.Duration `envconfig:"AYIMOLOU_CRON_INTERVAL" default:"24h"`
	LockTTL                   time.Duration `envconfig:"AYIMOLOU_CRON_LOCK_TTL" default:"30m"`
	OutboxRetentionDays       int           `envconfig:"AYIMOLOU_CRON_OUTBOX_RETENTION_DAYS" default:"30"`
	NotificationRetentionDays int           `envconfig:"AYIMOLOU_CRON_NOTIFICATION_RETENTION_DAYS" default:"30"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"AYIMOLOU_CORS_ALLOWED_ORIGINS" default:"*"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		db.DSN = "file:ayimolou.db?cache=shared&_foreign_keys=on"
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
