// Package config содержит логику чтения конфигурации витрины.
package config

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Поддерживаемые бэкенды хранилища.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Config содержит параметры конфигурации витрины.
type Config struct {
	RunAddress           string        `env:"RUN_ADDRESS"`
	StoreBackend         string        `env:"STORE_BACKEND"`
	DatabaseURI          string        `env:"DATABASE_URI"`
	RedisAddr            string        `env:"REDIS_ADDR"`
	RedisPassword        string        `env:"REDIS_PASSWORD"`
	RedisDB              int           `env:"REDIS_DB"`
	RedisPrefix          string        `env:"REDIS_PREFIX" envDefault:"storefront"`
	AuthSecret           string        `env:"AUTH_SECRET" envDefault:"storefront-secret"`
	AMQPURL              string        `env:"AMQP_URL"`
	ShippingFeedAddress  string        `env:"SHIPPING_FEED_ADDRESS"`
	ShippingPollInterval time.Duration `env:"SHIPPING_POLL_INTERVAL" envDefault:"5s"`
	ResetCodeTTL         time.Duration `env:"RESET_CODE_TTL" envDefault:"15m"`
	LogLevel             string        `env:"LOG_LEVEL" envDefault:"info"`
	AdminSeedPassword    string        `env:"ADMIN_SEED_PASSWORD" envDefault:"admin123"`
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
// Значения из окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envRunAddress := cfg.RunAddress
	envStoreBackend := cfg.StoreBackend
	envDatabaseURI := cfg.DatabaseURI
	envRedisAddr := cfg.RedisAddr
	envAMQPURL := cfg.AMQPURL
	envShippingAddress := cfg.ShippingFeedAddress

	flag.StringVar(&cfg.RunAddress, "a", "localhost:8080", "address and port for HTTP server")
	flag.StringVar(&cfg.StoreBackend, "s", "", "store backend: memory, redis or postgres")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI")
	flag.StringVar(&cfg.RedisAddr, "redis", "localhost:6379", "redis address")
	flag.StringVar(&cfg.AMQPURL, "q", "", "RabbitMQ URL for order events")
	flag.StringVar(&cfg.ShippingFeedAddress, "t", "", "shipment tracking feed address")

	flag.Parse()

	if envRunAddress != "" {
		cfg.RunAddress = envRunAddress
	}
	if envStoreBackend != "" {
		cfg.StoreBackend = envStoreBackend
	}
	if envDatabaseURI != "" {
		cfg.DatabaseURI = envDatabaseURI
	}
	if envRedisAddr != "" {
		cfg.RedisAddr = envRedisAddr
	}
	if envAMQPURL != "" {
		cfg.AMQPURL = envAMQPURL
	}
	if envShippingAddress != "" {
		cfg.ShippingFeedAddress = envShippingAddress
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = "localhost:8080"
	}

	cfg.StoreBackend = strings.ToLower(strings.TrimSpace(cfg.StoreBackend))
	if cfg.StoreBackend == "" {
		cfg.StoreBackend = BackendMemory
		if cfg.DatabaseURI != "" {
			cfg.StoreBackend = BackendPostgres
		}
	}

	switch cfg.StoreBackend {
	case BackendMemory, BackendRedis:
	case BackendPostgres:
		if cfg.DatabaseURI == "" {
			return nil, fmt.Errorf("store backend %q requires DATABASE_URI", cfg.StoreBackend)
		}
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}

	return cfg, nil
}
