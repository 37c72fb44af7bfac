package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents a restaurant workspace config.toml. Credentials are
// injected from here into the gateway client at construction; nothing reads
// them from process-wide state.
type Config struct {
	Restaurant Restaurant `toml:"restaurant"`
	Gateway    Gateway    `toml:"gateway"`
	Store      Store      `toml:"store"`
	Printer    Printer    `toml:"printer"`
	Events     Events     `toml:"events"`
	API        API        `toml:"api"`
}

// Restaurant identifies the tenant this daemon serves.
type Restaurant struct {
	ID   string `toml:"id"`
	Name string `toml:"name"`
}

// Gateway holds the WhatsApp gateway endpoint and credential.
type Gateway struct {
	BaseURL string `toml:"base_url"`
	Token   string `toml:"token"`
}

// Store selects the database driver and DSN.
// Driver is "sqlite3" (default, single-site installs) or "postgres".
type Store struct {
	Driver string `toml:"driver"`
	DSN    string `toml:"dsn"`
}

// Printer configures the receipt spool.
type Printer struct {
	SpoolDir string `toml:"spool_dir"`
	// Command receives the spooled document path as its last argument,
	// e.g. "lp -d thermal". Empty means spool-only.
	Command string `toml:"command"`
}

// Events configures the optional NATS mirror of bus events.
type Events struct {
	NATSURL string `toml:"nats_url"`
}

// API overrides the daemon listen socket.
type API struct {
	SocketPath string `toml:"socket_path"`
}

// Load reads config from the given path. Returns zero config and error if file missing.
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}
	if cfg.Store.Driver == "" {
		cfg.Store.Driver = "sqlite3"
	}
	return &cfg, nil
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}

// ValidateGateway checks that gateway credentials are present. The daemon
// serves roster and orders without a gateway, so this is only enforced where
// conversation features are exercised.
func (c *Config) ValidateGateway() error {
	if c.Gateway.BaseURL == "" || c.Gateway.Token == "" {
		return fmt.Errorf("gateway base_url and token must be configured")
	}
	return nil
}
