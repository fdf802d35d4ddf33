package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// CacheConfig defines settings for the response cache middleware.
// When Enabled is false or no Redis client is configured, caching is disabled.
// Methods lists the HTTP methods to cache.  KeyStrategy determines which parts
// of the request contribute to the cache key.
type CacheConfig struct {
	Enabled      bool            `env:"CACHE_ENABLED" envDefault:"true"`
	MethodList   []string        `env:"CACHE_METHODS" envDefault:"GET" envSeparator:","`
	Methods      map[string]bool `env:"-"`
	TTL          time.Duration   `env:"CACHE_TTL" envDefault:"30s"`
	KeyStrategy  string          `env:"CACHE_KEY_STRATEGY" envDefault:"route_query"`
	Prefix       string          `env:"CACHE_PREFIX" envDefault:"cache"`
	MaxBodyBytes int             `env:"CACHE_MAX_BODY_BYTES" envDefault:"1048576"`
}

// LoadCacheConfig reads the CACHE_* variables.  All methods are upper-cased.
func LoadCacheConfig() (CacheConfig, error) {
	var cfg CacheConfig
	if err := env.Parse(&cfg); err != nil {
		return CacheConfig{}, fmt.Errorf("parse cache env: %w", err)
	}
	cfg.Methods = parseMethods(cfg.MethodList)
	if cfg.TTL <= 0 {
		cfg.TTL = time.Second
	}
	return cfg, nil
}

func parseMethods(list []string) map[string]bool {
	m := map[string]bool{}
	for _, p := range list {
		p = strings.TrimSpace(strings.ToUpper(p))
		if p != "" {
			m[p] = true
		}
	}
	return m
}
