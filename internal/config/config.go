package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDSN             string        `mapstructure:"DB_DSN"`
	Environment       string        `mapstructure:"ENV"`
	HTTPAddr          string        `mapstructure:"HTTP_ADDR"`
	JWTSecret         string        `mapstructure:"JWT_SECRET"`
	RedisAddr         string        `mapstructure:"REDIS_ADDR"`
	RedisPassword     string        `mapstructure:"REDIS_PASSWORD"`
	DirectoryCacheTTL time.Duration `mapstructure:"DIRECTORY_CACHE_TTL"`
	RunMigrations     bool          `mapstructure:"RUN_MIGRATIONS"`
}

const (
	defaultEnvironment       = "development"
	defaultHTTPAddr          = ":8080"
	defaultDirectoryCacheTTL = 5 * time.Minute
)

func Load() (*Config, error) {
	// .env необязателен, в проде всё приходит из окружения
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, using environment variables")
	} else {
		log.Println("Loaded configuration from .env file")
	}

	return FromEnv(os.Getenv)
}

// FromEnv собирает конфиг из произвольного источника переменных
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		DBDSN:             getenv("DB_DSN"),
		Environment:       getenv("ENV"),
		HTTPAddr:          getenv("HTTP_ADDR"),
		JWTSecret:         getenv("JWT_SECRET"),
		RedisAddr:         getenv("REDIS_ADDR"),
		RedisPassword:     getenv("REDIS_PASSWORD"),
		DirectoryCacheTTL: defaultDirectoryCacheTTL,
		RunMigrations:     true,
	}

	// Дефолтные значения
	if cfg.Environment == "" {
		cfg.Environment = defaultEnvironment
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = defaultHTTPAddr
	}

	if raw := getenv("DIRECTORY_CACHE_TTL"); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("DIRECTORY_CACHE_TTL: %w", err)
		}
		cfg.DirectoryCacheTTL = ttl
	}

	if raw := getenv("RUN_MIGRATIONS"); raw != "" {
		run, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("RUN_MIGRATIONS: %w", err)
		}
		cfg.RunMigrations = run
	}

	// Обязательные поля
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required but not set")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required but not set")
	}

	return cfg, nil
}

func (c *Config) GetDBDSN() string {
	return c.DBDSN
}

// CacheEnabled сообщает, настроен ли Redis для кэша каталога
func (c *Config) CacheEnabled() bool {
	return c.RedisAddr != ""
}
