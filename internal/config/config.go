package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"

	"github.com/jwalitptl/beauty-api/pkg/auth"
	"github.com/jwalitptl/beauty-api/pkg/logger"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Log       logger.Config   `mapstructure:"log"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	CORS      CORSConfig      `mapstructure:"cors"`
	Outbox    OutboxConfig    `mapstructure:"outbox"`
	Features  FeatureConfig   `mapstructure:"features"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	Mode            string        `mapstructure:"mode"`
}

type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type JWTConfig struct {
	Secret        string        `mapstructure:"secret"`
	RefreshSecret string        `mapstructure:"refresh_secret"`
	AccessTTL     time.Duration `mapstructure:"access_ttl"`
	RefreshTTL    time.Duration `mapstructure:"refresh_ttl"`
	Issuer        string        `mapstructure:"issuer"`
}

// Auth converts the section into token issuer settings
func (c JWTConfig) Auth() auth.Config {
	return auth.Config{
		Secret:        c.Secret,
		RefreshSecret: c.RefreshSecret,
		AccessTTL:     c.AccessTTL,
		RefreshTTL:    c.RefreshTTL,
		Issuer:        c.Issuer,
	}
}

type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	Channel      string        `mapstructure:"channel"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
}

type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

type OutboxConfig struct {
	BatchSize      int           `mapstructure:"batch_size"`
	PollInterval   time.Duration `mapstructure:"poll_interval"`
	RetryAttempts  int           `mapstructure:"retry_attempts"`
	RetryDelay     time.Duration `mapstructure:"retry_delay"`
	Retention      time.Duration `mapstructure:"retention"`
	HealthPort     int           `mapstructure:"health_port"`
	ExpiryInterval time.Duration `mapstructure:"expiry_interval"`
}

// FeatureConfig holds the capability flags resolved once at startup
type FeatureConfig struct {
	VIP      bool `mapstructure:"vip"`
	Consent  bool `mapstructure:"consent"`
	Points   bool `mapstructure:"points"`
	Wellness bool `mapstructure:"wellness"`
}

// env is the process environment. Set values override the config file.
type env struct {
	ConfigFile       string        `envconfig:"CONFIG_FILE"`
	DatabaseURL      string        `envconfig:"DATABASE_URL"`
	JWTSecret        string        `envconfig:"JWT_SECRET"`
	JWTRefreshSecret string        `envconfig:"JWT_REFRESH_SECRET"`
	JWTExpiresIn     auth.Duration `envconfig:"JWT_EXPIRES_IN"`
	JWTRefreshIn     auth.Duration `envconfig:"JWT_REFRESH_EXPIRES_IN"`
	Port             int           `envconfig:"PORT"`
	RedisURL         string        `envconfig:"REDIS_URL"`
	LogLevel         string        `envconfig:"LOG_LEVEL"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.request_timeout", 10*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.mode", "release")

	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	v.SetDefault("jwt.access_ttl", auth.DefaultAccessTTL)
	v.SetDefault("jwt.refresh_ttl", auth.DefaultRefreshTTL)
	v.SetDefault("jwt.issuer", "beauty-api")

	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("redis.channel", "beauty.events")
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 2)
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.retry_backoff", 100*time.Millisecond)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_second", 20.0)
	v.SetDefault("rate_limit.burst", 40)

	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"})

	v.SetDefault("outbox.batch_size", 100)
	v.SetDefault("outbox.poll_interval", 5*time.Second)
	v.SetDefault("outbox.retry_attempts", 5)
	v.SetDefault("outbox.retry_delay", 10*time.Second)
	v.SetDefault("outbox.retention", 7*24*time.Hour)
	v.SetDefault("outbox.health_port", 8081)
	v.SetDefault("outbox.expiry_interval", time.Hour)

	v.SetDefault("features.vip", true)
	v.SetDefault("features.consent", true)
	v.SetDefault("features.points", true)
	v.SetDefault("features.wellness", true)
}

// Load reads config.yaml (or CONFIG_FILE) and applies environment overrides.
// A missing config file is fine, the defaults and the environment suffice.
func Load() (*Config, error) {
	var e env
	if err := envconfig.Process("", &e); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if e.ConfigFile != "" {
		v.SetConfigFile(e.ConfigFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if e.ConfigFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.applyEnv(e)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv(e env) {
	if e.DatabaseURL != "" {
		c.Database.URL = e.DatabaseURL
	}
	if e.JWTSecret != "" {
		c.JWT.Secret = e.JWTSecret
	}
	if e.JWTRefreshSecret != "" {
		c.JWT.RefreshSecret = e.JWTRefreshSecret
	}
	if e.JWTExpiresIn > 0 {
		c.JWT.AccessTTL = e.JWTExpiresIn.Std()
	}
	if e.JWTRefreshIn > 0 {
		c.JWT.RefreshTTL = e.JWTRefreshIn.Std()
	}
	if e.Port > 0 {
		c.Server.Port = e.Port
	}
	if e.RedisURL != "" {
		c.Redis.URL = e.RedisURL
	}
	if e.LogLevel != "" {
		c.Log.Level = strings.ToLower(e.LogLevel)
	}
}

// Validate checks the settings the API cannot start without
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if c.JWT.Secret == "" || c.JWT.RefreshSecret == "" {
		return errors.New("JWT_SECRET and JWT_REFRESH_SECRET are required")
	}
	if c.JWT.Secret == c.JWT.RefreshSecret {
		return errors.New("JWT_SECRET and JWT_REFRESH_SECRET must differ")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Server.Port)
	}
	return nil
}
