package config

// Redis is used for distributed rate limiting and HTTP response caching.  If
// the connection fails during startup, NewRedisClient returns nil and callers
// degrade gracefully by disabling caching and rate limiting.

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/redis/go-redis/v9"
)

// RedisConfig holds the connection parameters.  REDIS_HOST and REDIS_PORT
// take precedence over REDIS_ADDR when both are set.
type RedisConfig struct {
	Host     string `env:"REDIS_HOST"`
	Port     string `env:"REDIS_PORT"`
	Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
	TLS      bool   `env:"REDIS_TLS" envDefault:"false"`
}

// LoadRedisConfig reads the REDIS_* variables.
func LoadRedisConfig() (RedisConfig, error) {
	var cfg RedisConfig
	if err := env.Parse(&cfg); err != nil {
		return RedisConfig{}, fmt.Errorf("parse redis env: %w", err)
	}
	if cfg.Host != "" && cfg.Port != "" {
		cfg.Addr = cfg.Host + ":" + cfg.Port
	}
	return cfg, nil
}

// NewRedisClient instantiates a Redis client.  The returned client is nil if
// a connection cannot be established.
func NewRedisClient(cfg RedisConfig) *redis.Client {
	var tlsConf *tls.Config
	if cfg.TLS {
		tlsConf = &tls.Config{InsecureSkipVerify: true}
	}
	client := redis.NewClient(&redis.Options{
		Addr:      cfg.Addr,
		Password:  cfg.Password,
		DB:        cfg.DB,
		TLSConfig: tlsConf,
	})
	// Ping the server with a short timeout.  Return nil on failure.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil
	}
	return client
}
