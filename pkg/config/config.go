package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix namespaces every environment variable the service reads.
const EnvPrefix = "FIELDRENT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "FIELDRENT_DB_DSN"
	EnvDBHost = "FIELDRENT_DB_HOST"
	EnvDBUser = "FIELDRENT_DB_USER"
	EnvDBName = "FIELDRENT_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	PlantID       PlantIDConfig
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
	Env          string `envconfig:"FIELDRENT_APP_ENV" required:"true"`
	Port         string `envconfig:"FIELDRENT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"FIELDRENT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"FIELDRENT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"FIELDRENT_DB_DSN"`
	Driver string `envconfig:"FIELDRENT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"FIELDRENT_DB_HOST"`
	LegacyPort     int    `envconfig:"FIELDRENT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"FIELDRENT_DB_USER"`
	LegacyPassword string `envconfig:"FIELDRENT_DB_PASSWORD"`
	LegacyName     string `envconfig:"FIELDRENT_DB_NAME"`
	LegacySSLMode  string `envconfig:"FIELDRENT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FIELDRENT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FIELDRENT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FIELDRENT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FIELDRENT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FIELDRENT_REDIS_URL"`
	Address      string        `envconfig:"FIELDRENT_REDIS_ADDR"`
	Password     string        `envconfig:"FIELDRENT_REDIS_PASSWORD"`
	DB           int           `envconfig:"FIELDRENT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FIELDRENT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FIELDRENT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FIELDRENT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FIELDRENT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FIELDRENT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"FIELDRENT_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"FIELDRENT_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"FIELDRENT_JWT_EXPIRATION_MINUTES" default:"720"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"FIELDRENT_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"FIELDRENT_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"FIELDRENT_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"FIELDRENT_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"FIELDRENT_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow       time.Duration `envconfig:"FIELDRENT_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginUserLimit    int           `envconfig:"FIELDRENT_AUTH_RATE_LIMIT_LOGIN_USER_LIMIT" default:"5"`
	LoginIPLimit      int           `envconfig:"FIELDRENT_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	SignupWindow      time.Duration `envconfig:"FIELDRENT_AUTH_RATE_LIMIT_SIGNUP_WINDOW" default:"5m"`
	SignupUserLimit   int           `envconfig:"FIELDRENT_AUTH_RATE_LIMIT_SIGNUP_USER_LIMIT" default:"3"`
	SignupIPLimit     int           `envconfig:"FIELDRENT_AUTH_RATE_LIMIT_SIGNUP_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"FIELDRENT_AUTO_MIGRATE" default:"false"`
}

type PlantIDConfig struct {
	BaseURL string        `envconfig:"FIELDRENT_PLANT_ID_BASE_URL" default:"https://api.plant.id/v2"`
	APIKey  string        `envconfig:"FIELDRENT_PLANT_ID_API_KEY"`
	Timeout time.Duration `envconfig:"FIELDRENT_PLANT_ID_TIMEOUT" default:"15s"`
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
