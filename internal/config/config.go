package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	StoreMemory = "memory"
	StoreRedis  = "redis"

	FailureFallback = "fallback"
	FailureOpen     = "open"
	FailureClosed   = "closed"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Admin     AdminConfig     `mapstructure:"admin"`
}

type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	AppEnv         string   `mapstructure:"app_env"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type RateLimitConfig struct {
	Store                string `mapstructure:"store"`
	FailureMode          string `mapstructure:"failure_mode"`
	SweepIntervalSeconds int    `mapstructure:"sweep_interval_seconds"`
	RoutesFile           string `mapstructure:"routes_file"`
}

type RedisConfig struct {
	Host      string `mapstructure:"host"`
	Port      string `mapstructure:"port"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
	TimeoutMS int    `mapstructure:"timeout_ms"`
}

type AdminConfig struct {
	Password string `mapstructure:"password"`
}

// LoadConfig carrega configurações da aplicação usando viper com suporte a .env e defaults
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")

	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("RATE_LIMIT_STORE", StoreMemory)
	v.SetDefault("RATE_LIMIT_FAILURE_MODE", FailureFallback)
	v.SetDefault("RATE_LIMIT_SWEEP_INTERVAL_SECONDS", 60)
	v.SetDefault("RATE_LIMIT_ROUTES_FILE", "configs/routes.yaml")
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_KEY_PREFIX", "ratelimit")
	v.SetDefault("REDIS_TIMEOUT_MS", 100)
	v.SetDefault("ADMIN_PASSWORD", "")

	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.Set("server.port", v.GetString("SERVER_PORT"))
	v.Set("server.app_env", v.GetString("APP_ENV"))
	v.Set("server.allowed_origins", splitList(v.GetString("CORS_ALLOWED_ORIGINS")))
	v.Set("log.level", v.GetString("LOG_LEVEL"))
	v.Set("log.format", v.GetString("LOG_FORMAT"))
	v.Set("rate_limit.store", strings.ToLower(v.GetString("RATE_LIMIT_STORE")))
	v.Set("rate_limit.failure_mode", strings.ToLower(v.GetString("RATE_LIMIT_FAILURE_MODE")))
	v.Set("rate_limit.sweep_interval_seconds", v.GetInt("RATE_LIMIT_SWEEP_INTERVAL_SECONDS"))
	v.Set("rate_limit.routes_file", v.GetString("RATE_LIMIT_ROUTES_FILE"))
	v.Set("redis.host", v.GetString("REDIS_HOST"))
	v.Set("redis.port", v.GetString("REDIS_PORT"))
	v.Set("redis.password", v.GetString("REDIS_PASSWORD"))
	v.Set("redis.db", v.GetInt("REDIS_DB"))
	v.Set("redis.key_prefix", v.GetString("REDIS_KEY_PREFIX"))
	v.Set("redis.timeout_ms", v.GetInt("REDIS_TIMEOUT_MS"))
	v.Set("admin.password", v.GetString("ADMIN_PASSWORD"))

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) Validate() error {
	switch c.RateLimit.Store {
	case StoreMemory, StoreRedis:
	default:
		return fmt.Errorf("invalid RATE_LIMIT_STORE %q: must be %q or %q", c.RateLimit.Store, StoreMemory, StoreRedis)
	}

	switch c.RateLimit.FailureMode {
	case FailureFallback, FailureOpen, FailureClosed:
	default:
		return fmt.Errorf("invalid RATE_LIMIT_FAILURE_MODE %q: must be %q, %q or %q",
			c.RateLimit.FailureMode, FailureFallback, FailureOpen, FailureClosed)
	}

	if c.RateLimit.SweepIntervalSeconds <= 0 {
		return fmt.Errorf("RATE_LIMIT_SWEEP_INTERVAL_SECONDS must be positive, got %d", c.RateLimit.SweepIntervalSeconds)
	}

	if c.Redis.TimeoutMS <= 0 {
		return fmt.Errorf("REDIS_TIMEOUT_MS must be positive, got %d", c.Redis.TimeoutMS)
	}

	return nil
}

func (c *RateLimitConfig) GetSweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalSeconds) * time.Second
}

func (c *RedisConfig) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

func (c *RedisConfig) GetTimeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
