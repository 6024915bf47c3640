package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "partsdesk"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "PARTSDESK_DB_DSN"
	EnvDBHost = "PARTSDESK_DB_HOST"
	EnvDBUser = "PARTSDESK_DB_USER"
	EnvDBName = "PARTSDESK_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	HTTP         HTTPConfig
	Catalog      CatalogConfig
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
	Env          string `envconfig:"PARTSDESK_APP_ENV" required:"true"`
	Port         string `envconfig:"PARTSDESK_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"PARTSDESK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PARTSDESK_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"PARTSDESK_DB_DSN"`
	Driver string `envconfig:"PARTSDESK_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PARTSDESK_DB_HOST"`
	LegacyPort     int    `envconfig:"PARTSDESK_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PARTSDESK_DB_USER"`
	LegacyPassword string `envconfig:"PARTSDESK_DB_PASSWORD"`
	LegacyName     string `envconfig:"PARTSDESK_DB_NAME"`
	LegacySSLMode  string `envconfig:"PARTSDESK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PARTSDESK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PARTSDESK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PARTSDESK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PARTSDESK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PARTSDESK_REDIS_URL" required:"true"`
	Address      string        `envconfig:"PARTSDESK_REDIS_ADDR"`
	Password     string        `envconfig:"PARTSDESK_REDIS_PASSWORD"`
	DB           int           `envconfig:"PARTSDESK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PARTSDESK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PARTSDESK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PARTSDESK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PARTSDESK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PARTSDESK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type HTTPConfig struct {
	AllowedOrigins []string `envconfig:"PARTSDESK_HTTP_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

// CatalogConfig tunes the search/reconciliation engines.
type CatalogConfig struct {
	SnapshotTTL       time.Duration `envconfig:"PARTSDESK_CATALOG_SNAPSHOT_TTL" default:"15m"`
	SuggestionTimeout time.Duration `envconfig:"PARTSDESK_CATALOG_SUGGESTION_TIMEOUT" default:"5s"`
	ImportKeyTTL      time.Duration `envconfig:"PARTSDESK_CATALOG_IMPORT_KEY_TTL" default:"24h"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"PARTSDESK_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"PARTSDESK_AUTO_MIGRATE" default:"false"`
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
