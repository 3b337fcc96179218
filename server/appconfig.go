package server

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// AppConfig defines application configuration loaded from files and
// environment. It is built once at startup and treated as immutable.
type AppConfig struct {
	Env      string         `koanf:"env"`
	Listen   string         `koanf:"listen"`
	Issuer   IssuerConfig   `koanf:"issuer"`
	Database DatabaseConfig `koanf:"database"`
	Media    MediaConfig    `koanf:"media"`
	Journal  JournalConfig  `koanf:"journal"`
	Admin    AdminConfig    `koanf:"admin"`
}

// IssuerConfig covers the identity-claims trust domain.
type IssuerConfig struct {
	URL      string        `koanf:"url"`
	Audience string        `koanf:"audience"`
	KeyFile  string        `koanf:"key_file"`
	Validity time.Duration `koanf:"validity"`
}

type DatabaseConfig struct {
	Driver string `koanf:"driver"`
	DSN    string `koanf:"dsn"`
}

// MediaConfig covers the media-infrastructure trust domain: the shared
// secret here must never be the identity signing key.
type MediaConfig struct {
	BaseURL   string        `koanf:"base_url"`
	APIKey    string        `koanf:"api_key"`
	APISecret string        `koanf:"api_secret"`
	Validity  time.Duration `koanf:"validity"`
}

// JournalConfig selects the issued-token journal backend.
type JournalConfig struct {
	Backend string `koanf:"backend"` // "buntdb" (default) or "valkey"
	Path    string `koanf:"path"`    // buntdb file, ":memory:" when empty
	Addr    string `koanf:"addr"`    // valkey address
}

// AdminConfig describes the account the install flow seeds on an empty
// database.
type AdminConfig struct {
	Username string `koanf:"username"`
	Email    string `koanf:"email"`
	Password string `koanf:"password"`
}

// LoadConfig loads configuration. Loading order:
// 1) config/config.yaml (optional)
// 2) config/config.<APP_ENV>.yaml (optional), APP_ENV defaults to "local"
// 3) Environment variables with prefix VERDANT_ mapped using __ as nested
//    separator, e.g. VERDANT_MEDIA__API_SECRET
func LoadConfig() *AppConfig {
	k := koanf.New(".")
	configDir := os.Getenv("CONFIG_DIR")
	if configDir == "" {
		configDir = "config"
	}
	envName := os.Getenv("APP_ENV")
	if envName == "" {
		envName = "local"
	}
	for _, name := range []string{"config.yaml", "config." + envName + ".yaml"} {
		path := filepath.Join(configDir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			log.Printf("config: failed loading %s: %v", path, err)
		}
	}
	_ = k.Load(env.Provider("VERDANT_", "__", func(s string) string {
		// VERDANT_MEDIA__API_SECRET -> media__api_secret; the provider
		// splits on __ for nesting.
		return strings.ToLower(strings.TrimPrefix(s, "VERDANT_"))
	}), nil)

	var c AppConfig
	if err := k.Unmarshal("", &c); err != nil {
		log.Printf("config: unmarshal error: %v", err)
	}
	if c.Env == "" {
		c.Env = envName
	}
	if c.Listen == "" {
		c.Listen = ":8080"
	}
	if c.Issuer.URL == "" {
		c.Issuer.URL = "http://localhost:8080"
	}
	if c.Issuer.Audience == "" {
		c.Issuer.Audience = "verdant"
	}
	if c.Issuer.Validity == 0 {
		c.Issuer.Validity = time.Hour
	}
	if c.Media.Validity == 0 {
		c.Media.Validity = 10 * time.Minute
	}
	if c.Admin.Username == "" {
		c.Admin.Username = "admin"
	}
	if c.Admin.Email == "" {
		c.Admin.Email = "admin@example.com"
	}
	return &c
}

// DSN returns the effective database DSN (config first, then env).
func (c *AppConfig) DSN() string {
	if c != nil && c.Database.DSN != "" {
		return strings.TrimSpace(c.Database.DSN)
	}
	return strings.TrimSpace(os.Getenv("VERDANT_DB_DSN"))
}
