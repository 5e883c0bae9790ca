package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Cart         CartConfig
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
	Env          string `envconfig:"GREENMART_APP_ENV" required:"true"`
	Port         string `envconfig:"GREENMART_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"GREENMART_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"GREENMART_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"GREENMART_DB_DSN"`

	Host     string `envconfig:"GREENMART_DB_HOST"`
	Port     int    `envconfig:"GREENMART_DB_PORT" default:"5432"`
	User     string `envconfig:"GREENMART_DB_USER"`
	Password string `envconfig:"GREENMART_DB_PASSWORD"`
	Name     string `envconfig:"GREENMART_DB_NAME"`
	SSLMode  string `envconfig:"GREENMART_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"GREENMART_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"GREENMART_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"GREENMART_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"GREENMART_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"GREENMART_REDIS_URL"`
	Address      string        `envconfig:"GREENMART_REDIS_ADDR"`
	Password     string        `envconfig:"GREENMART_REDIS_PASSWORD"`
	DB           int           `envconfig:"GREENMART_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"GREENMART_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"GREENMART_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"GREENMART_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"GREENMART_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"GREENMART_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"GREENMART_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"GREENMART_JWT_ISSUER" default:"greenmart"`
	ExpirationMinutes int    `envconfig:"GREENMART_JWT_EXPIRATION_MINUTES" default:"60"`
}

// Expiration returns the access token lifetime.
func (j JWTConfig) Expiration() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type CartConfig struct {
	// MaxItemQuantity caps a single cart line regardless of stock.
	MaxItemQuantity int `envconfig:"GREENMART_CART_MAX_ITEM_QUANTITY" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"GREENMART_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	for envName, value := range map[string]string{
		"GREENMART_DB_HOST": db.Host,
		"GREENMART_DB_USER": db.User,
		"GREENMART_DB_NAME": db.Name,
	} {
		if value == "" {
			missing = append(missing, envName)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("either GREENMART_DB_DSN or %s are required", strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
