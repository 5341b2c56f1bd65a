// Package config loads the service configuration from an optional YAML file
// with environment variable overrides on top.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTPAddr     string   `yaml:"http_addr"`
	MySQLDSN     string   `yaml:"mysql_dsn"`
	RedisAddr    string   `yaml:"redis_addr"`
	LedgerDriver string   `yaml:"ledger_driver"` // mysql | redis
	KafkaBrokers []string `yaml:"kafka_brokers"`
	KafkaTopic   string   `yaml:"kafka_topic"`
	JWTSecret    string   `yaml:"jwt_secret"`
	TokenTTL     string   `yaml:"token_ttl"`
}

func defaults() Config {
	return Config{
		HTTPAddr:     ":8080",
		MySQLDSN:     "root:root@tcp(localhost:3306)/salesops?parseTime=true",
		RedisAddr:    "localhost:6379",
		LedgerDriver: "mysql",
		KafkaTopic:   "order-events",
		JWTSecret:    "dev-secret-change-me",
		TokenTTL:     "24h",
	}
}

// Load reads path when it exists (an empty path skips the file entirely) and
// then applies environment overrides.
func Load(path string) (Config, error) {
	cfg := defaults()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.HTTPAddr = getEnv("HTTP_ADDR", cfg.HTTPAddr)
	cfg.MySQLDSN = getEnv("MYSQL_DSN", cfg.MySQLDSN)
	cfg.RedisAddr = getEnv("REDIS_ADDR", cfg.RedisAddr)
	cfg.LedgerDriver = getEnv("LEDGER_DRIVER", cfg.LedgerDriver)
	cfg.KafkaTopic = getEnv("KAFKA_TOPIC", cfg.KafkaTopic)
	cfg.JWTSecret = getEnv("JWT_SECRET", cfg.JWTSecret)
	cfg.TokenTTL = getEnv("TOKEN_TTL", cfg.TokenTTL)
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}

	if cfg.LedgerDriver != "mysql" && cfg.LedgerDriver != "redis" {
		return cfg, fmt.Errorf("unknown ledger driver %q", cfg.LedgerDriver)
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
