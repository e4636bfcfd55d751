package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	CacheRedis  = "redis"
	CacheMemory = "memory"
	CacheNone   = "none"
)

// Config is the resolved application configuration.
type Config struct {
	AppPort string

	DBDriver       string
	DatabaseDSN    string
	DBMaxOpenConns int
	DBLogQueries   bool

	CacheBackend        string
	RedisAddr           string
	RedisPassword       string
	RedisDB             int
	CacheProductTTL     time.Duration
	CachePageTTL        time.Duration
	CacheOpTimeout      time.Duration
	CacheMemoryCapacity int

	RabbitMQURL      string
	RabbitMQExchange string

	SeedData  bool
	LogLevel  string
	LogFormat string
}

// Load reads configuration from an optional .env file and the environment.
func Load() (Config, error) {
	_ = godotenv.Load() // load .env if it exists

	v := viper.New()
	SetDefaults(v)
	v.AutomaticEnv()

	cfg := FromViper(v)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// SetDefaults registers the default value of every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("DATABASE_DSN", "file:catalog.db?_foreign_keys=1")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_LOG_QUERIES", false)
	v.SetDefault("CACHE_BACKEND", CacheMemory)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_PRODUCT_TTL", "10m")
	v.SetDefault("CACHE_PAGE_TTL", "5m")
	v.SetDefault("CACHE_OP_TIMEOUT", "250ms")
	v.SetDefault("CACHE_MEMORY_CAPACITY", 10000)
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("RABBITMQ_EXCHANGE", "product.events")
	v.SetDefault("SEED_DATA", false)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

// FromViper resolves a Config from v.
func FromViper(v *viper.Viper) Config {
	return Config{
		AppPort:             v.GetString("APP_PORT"),
		DBDriver:            strings.ToLower(v.GetString("DB_DRIVER")),
		DatabaseDSN:         v.GetString("DATABASE_DSN"),
		DBMaxOpenConns:      v.GetInt("DB_MAX_OPEN_CONNS"),
		DBLogQueries:        v.GetBool("DB_LOG_QUERIES"),
		CacheBackend:        strings.ToLower(v.GetString("CACHE_BACKEND")),
		RedisAddr:           v.GetString("REDIS_ADDR"),
		RedisPassword:       v.GetString("REDIS_PASSWORD"),
		RedisDB:             v.GetInt("REDIS_DB"),
		CacheProductTTL:     v.GetDuration("CACHE_PRODUCT_TTL"),
		CachePageTTL:        v.GetDuration("CACHE_PAGE_TTL"),
		CacheOpTimeout:      v.GetDuration("CACHE_OP_TIMEOUT"),
		CacheMemoryCapacity: v.GetInt("CACHE_MEMORY_CAPACITY"),
		RabbitMQURL:         v.GetString("RABBITMQ_URL"),
		RabbitMQExchange:    v.GetString("RABBITMQ_EXCHANGE"),
		SeedData:            v.GetBool("SEED_DATA"),
		LogLevel:            v.GetString("LOG_LEVEL"),
		LogFormat:           v.GetString("LOG_FORMAT"),
	}
}

// Validate rejects settings the application cannot start with.
func (c Config) Validate() error {
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.DatabaseDSN == "" {
		return fmt.Errorf("DATABASE_DSN is required")
	}
	switch c.CacheBackend {
	case CacheRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required when CACHE_BACKEND is %q", CacheRedis)
		}
	case CacheMemory, CacheNone:
	default:
		return fmt.Errorf("unsupported CACHE_BACKEND %q", c.CacheBackend)
	}
	if c.CacheProductTTL <= 0 || c.CachePageTTL <= 0 {
		return fmt.Errorf("cache TTLs must be positive")
	}
	if c.CacheOpTimeout <= 0 {
		return fmt.Errorf("CACHE_OP_TIMEOUT must be positive")
	}
	if c.RabbitMQURL != "" && c.RabbitMQExchange == "" {
		return fmt.Errorf("RABBITMQ_EXCHANGE is required when RABBITMQ_URL is set")
	}
	return nil
}
