package config

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Auth service and login attempts.
	AuthServiceURL string        `mapstructure:"AUTH_SERVICE_URL"`
	AuthTimeout    time.Duration `mapstructure:"AUTH_TIMEOUT"`
	AttemptTTL     time.Duration `mapstructure:"ATTEMPT_TTL"`

	// Console session issued after a successful login.
	JWTSecret         string        `mapstructure:"JWT_SECRET"`
	ConsoleSessionTTL time.Duration `mapstructure:"CONSOLE_SESSION_TTL"`
	CookieSecure      bool          `mapstructure:"COOKIE_SECURE"`
	LogRedactionKey   string        `mapstructure:"LOG_REDACTION_KEY"`

	CORSAllowedOrigins string `mapstructure:"CORS_ALLOWED_ORIGINS"`

	// Redis configuration.
	RedisAddr          string `mapstructure:"REDIS_ADDR"`
	RedisPassword      string `mapstructure:"REDIS_PASSWORD"`
	RedisMetricsDB     int    `mapstructure:"REDIS_METRICS_DB"`
	RedisQueueDB       int    `mapstructure:"REDIS_QUEUE_DB"`
	MetricsHistorySize int    `mapstructure:"METRICS_HISTORY_SIZE"`

	// MongoDB keeps the signal update log.
	DatabaseURL        string `mapstructure:"DATABASE_URL"`
	DatabaseName       string `mapstructure:"DATABASE_NAME"`
	SignalQueueEnabled bool   `mapstructure:"SIGNAL_QUEUE_ENABLED"`

	VideoStreamURL string `mapstructure:"VIDEO_STREAM_URL"`
}

var AppConfig Config

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	v.SetDefault("AUTH_SERVICE_URL", "http://localhost:5000")
	v.SetDefault("AUTH_TIMEOUT", "15s")
	v.SetDefault("ATTEMPT_TTL", "15m")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("CONSOLE_SESSION_TTL", "12h")
	v.SetDefault("COOKIE_SECURE", false)
	v.SetDefault("LOG_REDACTION_KEY", "")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_METRICS_DB", 0)
	v.SetDefault("REDIS_QUEUE_DB", 1)
	v.SetDefault("METRICS_HISTORY_SIZE", 60)
	v.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	v.SetDefault("DATABASE_NAME", "travis")
	v.SetDefault("SIGNAL_QUEUE_ENABLED", true)
	v.SetDefault("VIDEO_STREAM_URL", "http://localhost:5000/video-stream")
}

// Load builds a Config from an optional config.yaml in "." or "./config",
// overridden by environment variables, and validates it.
func Load() (Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		log.Println("No config file found, using environment variables only")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig loads the process-wide AppConfig and exits on failure.
func LoadConfig() {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	AppConfig = cfg
}

// Validate reports the first invalid value.
func (c Config) Validate() error {
	u, err := url.Parse(c.AuthServiceURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("AUTH_SERVICE_URL must be an absolute http(s) url, got %q", c.AuthServiceURL)
	}
	if c.AuthTimeout <= 0 {
		return errors.New("AUTH_TIMEOUT must be positive")
	}
	if c.AttemptTTL <= 0 {
		return errors.New("ATTEMPT_TTL must be positive")
	}
	if c.ConsoleSessionTTL <= 0 {
		return errors.New("CONSOLE_SESSION_TTL must be positive")
	}
	if c.MetricsHistorySize <= 0 {
		return errors.New("METRICS_HISTORY_SIZE must be positive")
	}
	if c.MaxRequestsPerMin <= 0 {
		return errors.New("MAX_REQUESTS_PER_MIN must be positive")
	}
	if c.IsProduction() && len(c.JWTSecret) < 32 {
		return errors.New("JWT_SECRET must be at least 32 characters in production")
	}
	return nil
}

// AllowedOrigins splits CORS_ALLOWED_ORIGINS on commas.
func (c Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return AppConfig.IsProduction()
}
