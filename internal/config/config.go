package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/labstack/gommon/random"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Redis    RedisConfig
	MinIO    MinIOConfig
	SMTP     SMTPConfig
	Invite   InviteConfig
	Import   ImportConfig
	Security SecurityConfig
	Sweep    SweepConfig
	Admin    AdminConfig
	Log      LogConfig
}

// AppConfig holds application-level settings
type AppConfig struct {
	Name        string
	Environment string // development, staging, production
	Port        int
	PublicURL   string // base URL used in credential emails
}

// IsProduction reports whether the service runs in production mode
func (a AppConfig) IsProduction() bool {
	return a.Environment == "production"
}

// DatabaseConfig holds PostgreSQL connection settings
type DatabaseConfig struct {
	URL      string
	MaxConns int32
}

// JWTConfig holds session token settings
type JWTConfig struct {
	Secret string
	TTL    time.Duration
	Issuer string

	// Generated is true when Secret was not configured and a random one was used
	Generated bool
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	CacheTTL time.Duration
}

// MinIOConfig holds object storage settings for tenant assets
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	PublicURL string // optional; falls back to the endpoint
}

// SMTPConfig holds outbound mail settings. An empty Host selects the log mailer.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// InviteConfig tunes invitation dispatch
type InviteConfig struct {
	Concurrency int
	SendTimeout time.Duration
}

// ImportConfig bounds roster uploads
type ImportConfig struct {
	MaxBytes int64
}

// SecurityConfig holds credential hashing and login throttling settings
type SecurityConfig struct {
	BcryptCost      int
	LoginRateLimit  int
	LoginRateWindow time.Duration
}

// SweepConfig controls the tenant completion sweep
type SweepConfig struct {
	Enabled  bool
	Interval time.Duration
	Grace    time.Duration
}

// AdminConfig seeds the platform administrator
type AdminConfig struct {
	Email    string
	Password string
	Name     string
}

// LogConfig holds logger settings
type LogConfig struct {
	Level string
}

// Load reads configuration from the environment and an optional config file
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	cfg := &Config{}
	bindConfig(v, cfg)

	if cfg.JWT.Secret == "" && !cfg.App.IsProduction() {
		cfg.JWT.Secret = random.String(32)
		cfg.JWT.Generated = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("APP_NAME", "heartgram")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_PORT", 8080)
	v.SetDefault("APP_URL", "http://localhost:3000")

	// Database defaults
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DATABASE_MAX_CONNS", 10)

	// JWT defaults
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_TTL", "168h") // 7 days, no refresh
	v.SetDefault("JWT_ISSUER", "heartgram")

	// Redis defaults
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_TTL", "60s")

	// MinIO defaults
	v.SetDefault("MINIO_ENDPOINT", "localhost:9000")
	v.SetDefault("MINIO_ACCESS_KEY", "minioadmin")
	v.SetDefault("MINIO_SECRET_KEY", "minioadmin")
	v.SetDefault("MINIO_BUCKET", "heartgram-assets")
	v.SetDefault("MINIO_USE_SSL", false)
	v.SetDefault("MINIO_PUBLIC_URL", "")

	// SMTP defaults
	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USER", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("SMTP_FROM", "noreply@heartgram.local")

	// Invitation and import defaults
	v.SetDefault("INVITE_CONCURRENCY", 8)
	v.SetDefault("INVITE_SEND_TIMEOUT", "15s")
	v.SetDefault("IMPORT_MAX_BYTES", 1<<20)

	// Security defaults
	v.SetDefault("BCRYPT_COST", 10)
	v.SetDefault("LOGIN_RATE_LIMIT", 10)
	v.SetDefault("LOGIN_RATE_WINDOW", "15m")

	// Sweep defaults
	v.SetDefault("SWEEP_ENABLED", false)
	v.SetDefault("SWEEP_INTERVAL", "1h")
	v.SetDefault("SWEEP_GRACE", "72h")

	// Admin seed defaults
	v.SetDefault("ADMIN_EMAIL", "admin@heartgram.com")
	v.SetDefault("ADMIN_PASSWORD", "")
	v.SetDefault("ADMIN_NAME", "Platform Admin")

	v.SetDefault("LOG_LEVEL", "info")
}

func bindConfig(v *viper.Viper, cfg *Config) {
	cfg.App.Name = v.GetString("APP_NAME")
	cfg.App.Environment = v.GetString("APP_ENV")
	cfg.App.Port = v.GetInt("APP_PORT")
	cfg.App.PublicURL = strings.TrimRight(v.GetString("APP_URL"), "/")

	cfg.Database.URL = v.GetString("DATABASE_URL")
	cfg.Database.MaxConns = v.GetInt32("DATABASE_MAX_CONNS")

	cfg.JWT.Secret = v.GetString("JWT_SECRET")
	cfg.JWT.TTL = v.GetDuration("JWT_TTL")
	cfg.JWT.Issuer = v.GetString("JWT_ISSUER")

	cfg.Redis.Addr = v.GetString("REDIS_ADDR")
	cfg.Redis.Password = v.GetString("REDIS_PASSWORD")
	cfg.Redis.DB = v.GetInt("REDIS_DB")
	cfg.Redis.CacheTTL = v.GetDuration("CACHE_TTL")

	cfg.MinIO.Endpoint = v.GetString("MINIO_ENDPOINT")
	cfg.MinIO.AccessKey = v.GetString("MINIO_ACCESS_KEY")
	cfg.MinIO.SecretKey = v.GetString("MINIO_SECRET_KEY")
	cfg.MinIO.Bucket = v.GetString("MINIO_BUCKET")
	cfg.MinIO.UseSSL = v.GetBool("MINIO_USE_SSL")
	cfg.MinIO.PublicURL = strings.TrimRight(v.GetString("MINIO_PUBLIC_URL"), "/")

	cfg.SMTP.Host = v.GetString("SMTP_HOST")
	cfg.SMTP.Port = v.GetInt("SMTP_PORT")
	cfg.SMTP.User = v.GetString("SMTP_USER")
	cfg.SMTP.Password = v.GetString("SMTP_PASSWORD")
	cfg.SMTP.From = v.GetString("SMTP_FROM")

	cfg.Invite.Concurrency = v.GetInt("INVITE_CONCURRENCY")
	cfg.Invite.SendTimeout = v.GetDuration("INVITE_SEND_TIMEOUT")
	cfg.Import.MaxBytes = v.GetInt64("IMPORT_MAX_BYTES")

	cfg.Security.BcryptCost = v.GetInt("BCRYPT_COST")
	cfg.Security.LoginRateLimit = v.GetInt("LOGIN_RATE_LIMIT")
	cfg.Security.LoginRateWindow = v.GetDuration("LOGIN_RATE_WINDOW")

	cfg.Sweep.Enabled = v.GetBool("SWEEP_ENABLED")
	cfg.Sweep.Interval = v.GetDuration("SWEEP_INTERVAL")
	cfg.Sweep.Grace = v.GetDuration("SWEEP_GRACE")

	cfg.Admin.Email = v.GetString("ADMIN_EMAIL")
	cfg.Admin.Password = v.GetString("ADMIN_PASSWORD")
	cfg.Admin.Name = v.GetString("ADMIN_NAME")

	cfg.Log.Level = v.GetString("LOG_LEVEL")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.App.Port <= 0 || c.App.Port > 65535 {
		return fmt.Errorf("invalid app port: %d", c.App.Port)
	}
	if c.Database.URL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if c.JWT.Secret == "" {
		return errors.New("JWT_SECRET is required in production")
	}
	if len(c.JWT.Secret) < 32 && c.App.IsProduction() {
		return errors.New("JWT_SECRET must be at least 32 characters in production")
	}
	if c.JWT.TTL <= 0 {
		return fmt.Errorf("invalid JWT TTL: %s", c.JWT.TTL)
	}
	if c.MinIO.Bucket == "" {
		return errors.New("MINIO_BUCKET is required")
	}
	if c.Invite.Concurrency <= 0 {
		return fmt.Errorf("INVITE_CONCURRENCY must be positive, got %d", c.Invite.Concurrency)
	}
	if c.Import.MaxBytes <= 0 {
		return fmt.Errorf("IMPORT_MAX_BYTES must be positive, got %d", c.Import.MaxBytes)
	}
	if c.Security.BcryptCost < 4 || c.Security.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST out of range: %d", c.Security.BcryptCost)
	}
	if c.Sweep.Enabled && c.Sweep.Interval <= 0 {
		return errors.New("SWEEP_INTERVAL must be positive when the sweep is enabled")
	}
	return nil
}
