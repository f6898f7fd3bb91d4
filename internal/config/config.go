package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Server struct {
		Port           string   `yaml:"port"`
		CORSOrigins    []string `yaml:"cors_origins"`
		RequestTimeout string   `yaml:"request_timeout"`
	} `yaml:"server"`
	Store struct {
		Driver string `yaml:"driver"`
	} `yaml:"store"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	SQLite struct {
		Path string `yaml:"path"`
	} `yaml:"sqlite"`
	Quiz struct {
		PoolTTL  string `yaml:"pool_ttl"`
		PoolSize int    `yaml:"pool_size"`
	} `yaml:"quiz"`
	Session struct {
		TTL           string `yaml:"ttl"`
		SweepInterval string `yaml:"sweep_interval"`
	} `yaml:"session"`
	Auth struct {
		Secret        string `yaml:"secret"`
		AccessTTL     string `yaml:"access_ttl"`
		RefreshTTL    string `yaml:"refresh_ttl"`
		AdminUsername string `yaml:"admin_username"`
		AdminPassword string `yaml:"admin_password"`
	} `yaml:"auth"`
	Seed struct {
		QuestionsFile string `yaml:"questions_file"`
	} `yaml:"seed"`
}

// Load reads YAML config from path and fills defaults.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Store.Driver == "" {
		c.Store.Driver = DriverMemory
		// a configured Postgres URL keeps working without an explicit driver
		if c.Postgres.URL != "" {
			c.Store.Driver = DriverPostgres
		}
	}
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Auth.Secret == "" {
		c.Auth.Secret = os.Getenv("JWT_SECRET")
	}
}

// Validate rejects unknown drivers and missing DSNs.
func (c Config) Validate() error {
	switch c.Store.Driver {
	case DriverMemory, DriverSQLite:
	case DriverPostgres:
		if c.Postgres.URL == "" {
			return fmt.Errorf("store driver %q requires postgres.url", c.Store.Driver)
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.Auth.Secret == "" {
		return fmt.Errorf("auth.secret (or JWT_SECRET) must be set")
	}
	if c.Auth.AdminUsername != "" && c.Auth.AdminPassword == "" {
		return fmt.Errorf("auth.admin_password required when auth.admin_username is set")
	}
	if c.Quiz.PoolSize < 0 {
		return fmt.Errorf("quiz.pool_size must not be negative")
	}
	return nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
