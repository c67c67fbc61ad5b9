package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
	Floor      FloorConfig      `yaml:"floor"`
	Seed       SeedConfig       `yaml:"seed"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	RateLimitPerSec float64       `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int           `yaml:"rate_limit_burst"`
	CacheTTLSeconds int           `yaml:"cache_ttl_seconds"`
	CacheTTL        time.Duration `yaml:"-"` // Ignored by YAML parser
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver"` // "postgres" or "sqlite"
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// PushConfig holds the VAPID keys for waiter web push notifications.
type PushConfig struct {
	Enabled    bool   `yaml:"enabled"`
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// WorkerPoolConfig holds the configuration for the push notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// FloorConfig holds floor-state tuning knobs.
type FloorConfig struct {
	// A seated table is flagged for attention in the grid view once it has
	// been seated longer than this many minutes. Zero disables the flag.
	NeedsAttentionAfterMinutes int           `yaml:"needs_attention_after_minutes"`
	NeedsAttentionAfter        time.Duration `yaml:"-"`
}

// SeedConfig describes floors, tables, and menu items upserted at startup.
type SeedConfig struct {
	OutletID string         `yaml:"outlet_id"`
	Floors   []SeedFloor    `yaml:"floors"`
	Menu     []SeedMenuItem `yaml:"menu"`
}

// SeedFloor is one floor with its tables.
type SeedFloor struct {
	ID     string      `yaml:"id"`
	Name   string      `yaml:"name"`
	Tables []SeedTable `yaml:"tables"`
}

// SeedTable is one physical table on a floor.
type SeedTable struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Capacity uint   `yaml:"capacity"`
	WaiterID string `yaml:"waiter_id"`
}

// SeedMenuItem is one entry of the read-only menu catalog.
type SeedMenuItem struct {
	ID       string  `yaml:"id"`
	Name     string  `yaml:"name"`
	Price    float64 `yaml:"price"`
	Category string  `yaml:"category"`
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 3
	}
	cfg.Server.CacheTTL = time.Duration(cfg.Server.CacheTTLSeconds) * time.Second

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		log.Printf("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}

	if cfg.Floor.NeedsAttentionAfterMinutes < 0 {
		cfg.Floor.NeedsAttentionAfterMinutes = 0
	}
	cfg.Floor.NeedsAttentionAfter = time.Duration(cfg.Floor.NeedsAttentionAfterMinutes) * time.Minute

	if cfg.Seed.OutletID == "" {
		cfg.Seed.OutletID = "outlet-1"
	}

	return &cfg, nil
}
