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
	FeatureFlags FeatureFlagsConfig
	Verify       VerifyConfig
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
	Env          string `envconfig:"AGART_APP_ENV" required:"true"`
	Port         string `envconfig:"AGART_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"AGART_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"AGART_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"AGART_DB_DSN"`
	Driver string `envconfig:"AGART_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"AGART_DB_HOST"`
	LegacyPort     int    `envconfig:"AGART_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"AGART_DB_USER"`
	LegacyPassword string `envconfig:"AGART_DB_PASSWORD"`
	LegacyName     string `envconfig:"AGART_DB_NAME"`
	LegacySSLMode  string `envconfig:"AGART_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"AGART_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"AGART_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"AGART_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"AGART_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"AGART_REDIS_URL" required:"true"`
	PoolSize     int           `envconfig:"AGART_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"AGART_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"AGART_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"AGART_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"AGART_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"AGART_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"AGART_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"AGART_JWT_EXPIRATION_MINUTES" default:"720"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"AGART_AUTO_MIGRATE" default:"false"`
}

// VerifyConfig tunes the ledger consistency replay job.
type VerifyConfig struct {
	BatchSize int           `envconfig:"AGART_VERIFY_BATCH_SIZE" default:"200"`
	Interval  time.Duration `envconfig:"AGART_VERIFY_INTERVAL" default:"1h"`
	RunOnce   bool          `envconfig:"AGART_VERIFY_RUN_ONCE" default:"false"`
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
