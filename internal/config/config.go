package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/voltmart/storefront/pkg/config"
)

// Config holds all configuration for the storefront service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"STOREFRONT_HTTP_PORT" envDefault:"8080"`

	// Commerce API upstream
	CommerceAPIURL     string        `env:"COMMERCE_API_URL" envDefault:"http://localhost:5000/api"`
	CommerceAPITimeout time.Duration `env:"COMMERCE_API_TIMEOUT" envDefault:"10s"`
	// OrderTimeout bounds the single order-creation attempt.
	OrderTimeout time.Duration `env:"ORDER_TIMEOUT" envDefault:"20s"`

	// Session tokens
	JWTSecret string `env:"JWT_SECRET,notEmpty"`
	LoginURL  string `env:"LOGIN_URL" envDefault:"/login"`

	// Browser origins allowed to call the API; empty disables CORS headers.
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envDefault:"" envSeparator:","`

	// Read cache. Backend is "memory" or "redis".
	CacheBackend string        `env:"CACHE_BACKEND" envDefault:"memory"`
	CacheTTL     time.Duration `env:"CACHE_TTL" envDefault:"5m"`
	ListingsTTL  time.Duration `env:"CACHE_LISTINGS_TTL" envDefault:"1m"`
	TaxonomyTTL  time.Duration `env:"CACHE_TAXONOMY_TTL" envDefault:"30m"`

	// Redis (only used when CacheBackend is "redis")
	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// Kafka; empty broker list disables event publishing.
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"" envSeparator:","`

	// Recently viewed products kept per user.
	RecentViewsLimit int `env:"RECENT_VIEWS_LIMIT" envDefault:"10"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.CommerceAPIURL == "" {
		return fmt.Errorf("commerce API URL is required")
	}
	if c.CacheBackend != "memory" && c.CacheBackend != "redis" {
		return fmt.Errorf("unknown cache backend: %q", c.CacheBackend)
	}
	return nil
}

// KafkaEnabled reports whether a broker list was configured.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0 && c.KafkaBrokers[0] != ""
}

// CORSOrigins returns the configured origin allowlist with blank entries
// dropped; an empty result means CORS headers are not emitted.
func (c *Config) CORSOrigins() []string {
	origins := make([]string, 0, len(c.AllowedOrigins))
	for _, o := range c.AllowedOrigins {
		if o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
