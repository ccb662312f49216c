// Package config loads runtime configuration from FOLIO_* environment
// variables, optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"

	"github.com/warp/folio-engine/hotel"
	"github.com/warp/folio-engine/loyalty"
)

// Config holds runtime configuration for the server.
type Config struct {
	Env  string `envconfig:"ENV" default:"development"`
	Addr string `envconfig:"ADDR" default:":8080"`

	Store  string `envconfig:"STORE" default:"sqlite"`
	DBPath string `envconfig:"DB_PATH" default:"folio.db"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`

	// Empty RedisAddr disables the snapshot push channel.
	RedisAddr   string `envconfig:"REDIS_ADDR"`
	RedisPrefix string `envconfig:"REDIS_PREFIX" default:"folio"`

	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"http://localhost:3000,http://localhost:5173"`
	RateLimit   int      `envconfig:"RATE_LIMIT" default:"300"` // requests per minute per IP; 0 disables

	ReadTimeout     time.Duration `envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"WRITE_TIMEOUT" default:"15s"`
	RequestTimeout  time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`

	// Initial tax settings; the live value is changed through the API.
	TaxEnabled bool   `envconfig:"TAX_ENABLED" default:"true"`
	TaxRate    string `envconfig:"TAX_RATE" default:"7.5"`

	LoyaltySilver     int64  `envconfig:"LOYALTY_SILVER" default:"1000"`
	LoyaltyGold       int64  `envconfig:"LOYALTY_GOLD" default:"5000"`
	LoyaltyPlatinum   int64  `envconfig:"LOYALTY_PLATINUM" default:"10000"`
	LoyaltyPointValue string `envconfig:"LOYALTY_POINT_VALUE" default:"1.00"`
}

const prefix = "FOLIO"

// Load reads .env (if present) and then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(prefix, &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values envconfig cannot.
func (c *Config) Validate() error {
	switch c.Store {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("config: FOLIO_STORE must be memory or sqlite, got %q", c.Store)
	}
	if c.Store == "sqlite" && strings.TrimSpace(c.DBPath) == "" {
		return errors.New("config: FOLIO_DB_PATH is required for the sqlite store")
	}
	if _, err := c.TaxSettings(); err != nil {
		return err
	}
	if _, err := c.LoyaltyProgram(); err != nil {
		return err
	}
	return nil
}

// IsProduction returns true when the server runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.Env == "production"
}

// TaxSettings returns the initial tax settings.
func (c *Config) TaxSettings() (hotel.TaxSettings, error) {
	rate, err := decimal.NewFromString(c.TaxRate)
	if err != nil {
		return hotel.TaxSettings{}, fmt.Errorf("config: FOLIO_TAX_RATE: %w", err)
	}
	s := hotel.TaxSettings{Enabled: c.TaxEnabled, Rate: rate}
	if err := s.Validate(); err != nil {
		return hotel.TaxSettings{}, fmt.Errorf("config: %w", err)
	}
	return s, nil
}

// LoyaltyProgram returns the tier thresholds and point value.
func (c *Config) LoyaltyProgram() (loyalty.Program, error) {
	value, err := hotel.ParseMoney(c.LoyaltyPointValue)
	if err != nil {
		return loyalty.Program{}, fmt.Errorf("config: FOLIO_LOYALTY_POINT_VALUE: %w", err)
	}
	p := loyalty.Program{
		Tiers: []loyalty.Threshold{
			{Tier: hotel.TierBronze, MinPoints: 0},
			{Tier: hotel.TierSilver, MinPoints: c.LoyaltySilver},
			{Tier: hotel.TierGold, MinPoints: c.LoyaltyGold},
			{Tier: hotel.TierPlatinum, MinPoints: c.LoyaltyPlatinum},
		},
		PointValue: value,
	}
	if err := p.Validate(); err != nil {
		return loyalty.Program{}, fmt.Errorf("config: %w", err)
	}
	return p, nil
}
