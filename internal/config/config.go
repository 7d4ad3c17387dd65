// Package config loads process configuration from the environment, with an
// optional .env file in the working directory.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Env  string
	Port string

	Upstream  UpstreamConfig
	Selection SelectionConfig
	Listing   ListingConfig
	Session   SessionConfig
	Database  DatabaseConfig
	Metrics   MetricsConfig
	Store     StoreAPIConfig
}

// UpstreamConfig describes the remote catalog API.
type UpstreamConfig struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
}

type SelectionConfig struct {
	Backend       string // memory, file, redis, postgres
	File          string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

type ListingConfig struct {
	PageSize       int
	Debounce       time.Duration
	SearchDelayMin time.Duration
	SearchDelayMax time.Duration
	IdleTTL        time.Duration
}

type SessionConfig struct {
	LogoutDelayMin time.Duration
	LogoutDelayMax time.Duration
	IdleTTL        time.Duration
}

type DatabaseConfig struct {
	URL string
}

type MetricsConfig struct {
	Token string
}

// StoreAPIConfig is used by the local stand-in for the remote API.
type StoreAPIConfig struct {
	JWTSecret  string
	AuthURL    string
	CatalogURL string
}

var ErrInvalid = errors.New("invalid config")

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "production")

	v.SetDefault("CATALOG_API_URL", "https://api.escuelajs.co/api/v1")
	v.SetDefault("UPSTREAM_TIMEOUT", "5s")
	v.SetDefault("UPSTREAM_RETRIES", 2)

	v.SetDefault("SELECTION_BACKEND", "memory")
	v.SetDefault("SELECTION_FILE", "selections.json")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("PAGE_SIZE", 6)
	v.SetDefault("SEARCH_DEBOUNCE", "350ms")
	v.SetDefault("SEARCH_DELAY_MIN", "0s")
	v.SetDefault("SEARCH_DELAY_MAX", "0s")
	v.SetDefault("LISTING_IDLE_TTL", "15m")

	v.SetDefault("LOGOUT_DELAY_MIN", "0s")
	v.SetDefault("LOGOUT_DELAY_MAX", "0s")
	v.SetDefault("SESSION_IDLE_TTL", "24h")

	v.SetDefault("AUTH_URL", "http://localhost:8081")
	v.SetDefault("CATALOG_URL", "http://localhost:8082")
}

// Load reads .env (if present) and the environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	return fromViper(v)
}

func fromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		Env:  v.GetString("APP_ENV"),
		Port: v.GetString("PORT"),
		Upstream: UpstreamConfig{
			BaseURL:    strings.TrimRight(v.GetString("CATALOG_API_URL"), "/"),
			Timeout:    v.GetDuration("UPSTREAM_TIMEOUT"),
			MaxRetries: v.GetInt("UPSTREAM_RETRIES"),
		},
		Selection: SelectionConfig{
			Backend:       strings.ToLower(v.GetString("SELECTION_BACKEND")),
			File:          v.GetString("SELECTION_FILE"),
			RedisAddr:     v.GetString("REDIS_ADDR"),
			RedisPassword: v.GetString("REDIS_PASSWORD"),
			RedisDB:       v.GetInt("REDIS_DB"),
		},
		Listing: ListingConfig{
			PageSize:       v.GetInt("PAGE_SIZE"),
			Debounce:       v.GetDuration("SEARCH_DEBOUNCE"),
			SearchDelayMin: v.GetDuration("SEARCH_DELAY_MIN"),
			SearchDelayMax: v.GetDuration("SEARCH_DELAY_MAX"),
			IdleTTL:        v.GetDuration("LISTING_IDLE_TTL"),
		},
		Session: SessionConfig{
			LogoutDelayMin: v.GetDuration("LOGOUT_DELAY_MIN"),
			LogoutDelayMax: v.GetDuration("LOGOUT_DELAY_MAX"),
			IdleTTL:        v.GetDuration("SESSION_IDLE_TTL"),
		},
		Database: DatabaseConfig{URL: v.GetString("DATABASE_URL")},
		Metrics:  MetricsConfig{Token: v.GetString("METRICS_TOKEN")},
		Store: StoreAPIConfig{
			JWTSecret:  v.GetString("JWT_SECRET"),
			AuthURL:    v.GetString("AUTH_URL"),
			CatalogURL: v.GetString("CATALOG_URL"),
		},
	}

	return cfg, cfg.Validate()
}

// Addr is the listen address, using def when PORT is unset.
func (c Config) Addr(def string) string {
	if c.Port == "" {
		return ":" + def
	}
	return ":" + c.Port
}

func (c Config) Validate() error {
	switch c.Selection.Backend {
	case "memory", "file", "redis":
	case "postgres":
		if c.Database.URL == "" {
			return fmt.Errorf("%w: DATABASE_URL is required for the postgres selection backend", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown SELECTION_BACKEND %q", ErrInvalid, c.Selection.Backend)
	}

	if c.Listing.PageSize <= 0 {
		return fmt.Errorf("%w: PAGE_SIZE must be positive", ErrInvalid)
	}
	if c.Listing.SearchDelayMax < c.Listing.SearchDelayMin {
		return fmt.Errorf("%w: SEARCH_DELAY_MAX < SEARCH_DELAY_MIN", ErrInvalid)
	}
	if c.Session.LogoutDelayMax < c.Session.LogoutDelayMin {
		return fmt.Errorf("%w: LOGOUT_DELAY_MAX < LOGOUT_DELAY_MIN", ErrInvalid)
	}
	if c.Upstream.BaseURL == "" {
		return fmt.Errorf("%w: CATALOG_API_URL is empty", ErrInvalid)
	}
	return nil
}
