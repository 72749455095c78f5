package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	NotifyLog     = "log"
	NotifyWebhook = "webhook"
	NotifyRedis   = "redis"
)

type Config struct {
	Port    string `mapstructure:"PORT"`
	Env     string `mapstructure:"ENV"`
	AppName string `mapstructure:"APP_NAME"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	DBDriver    string `mapstructure:"DB_DRIVER"`
	DBDSN       string `mapstructure:"DB_DSN"`
	DBMaxOpen   int    `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBMaxIdle   int    `mapstructure:"DB_MAX_IDLE_CONNS"`
	SQLitePath  string `mapstructure:"SQLITE_PATH"`
	AutoMigrate bool   `mapstructure:"DB_AUTO_MIGRATE"`

	NotifyMode       string        `mapstructure:"NOTIFY_MODE"`
	NotifyTimeout    time.Duration `mapstructure:"NOTIFY_TIMEOUT"`
	NotifyWebhookURL string        `mapstructure:"NOTIFY_WEBHOOK_URL"`
	NotifySecret     string        `mapstructure:"NOTIFY_WEBHOOK_SECRET"`
	RedisURL         string        `mapstructure:"REDIS_URL"`
	RedisStream      string        `mapstructure:"REDIS_STREAM"`

	ClinicDirectoryURL string `mapstructure:"CLINIC_DIRECTORY_URL"`
	ClinicDirectoryKey string `mapstructure:"CLINIC_DIRECTORY_API_KEY"`
	ClinicsSeedFile    string `mapstructure:"CLINICS_SEED_FILE"`

	CaseSaveRetries  uint64        `mapstructure:"CASE_SAVE_RETRIES"`
	CaseRetryBackoff time.Duration `mapstructure:"CASE_RETRY_BACKOFF"`

	JWTSecret   string `mapstructure:"JWT_SECRET"`
	JWTIssuer   string `mapstructure:"JWT_ISSUER"`
	JWTAudience string `mapstructure:"JWT_AUDIENCE"`
}

var keys = []string{
	"PORT", "ENV", "APP_NAME",
	"LOG_LEVEL", "LOG_FORMAT",
	"DB_DRIVER", "DB_DSN", "DB_MAX_OPEN_CONNS", "DB_MAX_IDLE_CONNS", "SQLITE_PATH", "DB_AUTO_MIGRATE",
	"NOTIFY_MODE", "NOTIFY_TIMEOUT", "NOTIFY_WEBHOOK_URL", "NOTIFY_WEBHOOK_SECRET", "REDIS_URL", "REDIS_STREAM",
	"CLINIC_DIRECTORY_URL", "CLINIC_DIRECTORY_API_KEY", "CLINICS_SEED_FILE",
	"CASE_SAVE_RETRIES", "CASE_RETRY_BACKOFF",
	"JWT_SECRET", "JWT_ISSUER", "JWT_AUDIENCE",
}

// Load lee env (y un .env opcional en el directorio actual).
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("APP_NAME", "treatment-cases")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("DB_DRIVER", DriverMemory)
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("SQLITE_PATH", "data/treatment-cases.db")
	v.SetDefault("DB_AUTO_MIGRATE", true)
	v.SetDefault("NOTIFY_MODE", NotifyLog)
	v.SetDefault("NOTIFY_TIMEOUT", "10s")
	v.SetDefault("REDIS_STREAM", "treatment-cases:notifications")
	v.SetDefault("CASE_SAVE_RETRIES", 5)
	v.SetDefault("CASE_RETRY_BACKOFF", "10ms")

	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	// .env es opcional
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.DBDriver = strings.ToLower(strings.TrimSpace(cfg.DBDriver))
	cfg.NotifyMode = strings.ToLower(strings.TrimSpace(cfg.NotifyMode))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	switch c.DBDriver {
	case DriverMemory, DriverSQLite:
	case DriverPostgres:
		if strings.TrimSpace(c.DBDSN) == "" {
			errs = append(errs, errors.New("DB_DSN is required for DB_DRIVER=postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown DB_DRIVER %q", c.DBDriver))
	}

	switch c.NotifyMode {
	case NotifyLog:
	case NotifyWebhook:
		if strings.TrimSpace(c.NotifyWebhookURL) == "" {
			errs = append(errs, errors.New("NOTIFY_WEBHOOK_URL is required for NOTIFY_MODE=webhook"))
		}
	case NotifyRedis:
		if strings.TrimSpace(c.RedisURL) == "" {
			errs = append(errs, errors.New("REDIS_URL is required for NOTIFY_MODE=redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown NOTIFY_MODE %q", c.NotifyMode))
	}

	if c.CaseRetryBackoff <= 0 {
		errs = append(errs, errors.New("CASE_RETRY_BACKOFF must be > 0"))
	}
	if c.IsProduction() && strings.TrimSpace(c.JWTSecret) == "" {
		errs = append(errs, errors.New("JWT_SECRET is required when ENV=production"))
	}

	return errors.Join(errs...)
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func (c *Config) Addr() string {
	return ":" + strings.TrimPrefix(strings.TrimSpace(c.Port), ":")
}
