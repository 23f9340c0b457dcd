package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mcuadros/go-defaults"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Supported BLE backends
const (
	BackendGoBLE   = "goble"
	BackendTinyBLE = "tinyble"
)

// Config holds driver and CLI configuration
type Config struct {
	LogLevel string `yaml:"log_level" default:"info"`

	// Backend selects the BLE stack: tinyble or goble
	Backend   string `yaml:"backend" default:"tinyble"`
	HCIDevice int    `yaml:"hci_device" default:"0"` // go-ble on Linux
	Adapter   string `yaml:"adapter" default:"hci0"` // BlueZ adapter for tinyble and the pairing agent

	ScanTimeout     time.Duration `yaml:"scan_timeout" default:"10s"`
	ScanInterval    time.Duration `yaml:"scan_interval" default:"100ms"`
	ScanWindow      time.Duration `yaml:"scan_window" default:"99ms"`
	AllowDuplicates bool          `yaml:"allow_duplicates" default:"false"`

	// Passkey is the fixed pairing passkey shared with the trusted controller.
	Passkey uint32 `yaml:"passkey" default:"123456"`
	// PlatformPairing accepts the OS pairing prompt on stacks that cannot apply Passkey.
	PlatformPairing bool `yaml:"platform_pairing" default:"false"`

	// TraceBytes bounds the raw report trace kept while debug mode is on.
	TraceBytes int  `yaml:"trace_bytes" default:"4096"`
	Debug      bool `yaml:"debug" default:"false"`
}

// DefaultConfig returns default configuration values
func DefaultConfig() *Config {
	cfg := &Config{}
	defaults.SetDefaults(cfg)
	return cfg
}

// Load reads a YAML file on top of the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %q: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %q: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if _, err := c.Level(); err != nil {
		return err
	}
	switch c.Backend {
	case BackendGoBLE, BackendTinyBLE:
	default:
		return fmt.Errorf("unknown backend %q (want %s or %s)", c.Backend, BackendGoBLE, BackendTinyBLE)
	}
	if c.ScanTimeout <= 0 {
		return fmt.Errorf("scan_timeout must be positive, got %v", c.ScanTimeout)
	}
	if c.ScanWindow > c.ScanInterval {
		return fmt.Errorf("scan_window %v exceeds scan_interval %v", c.ScanWindow, c.ScanInterval)
	}
	if c.Passkey > 999999 {
		return fmt.Errorf("passkey must have at most 6 digits, got %d", c.Passkey)
	}
	if c.TraceBytes < 0 {
		return fmt.Errorf("trace_bytes must not be negative, got %d", c.TraceBytes)
	}
	return nil
}

// Level parses LogLevel
func (c *Config) Level() (logrus.Level, error) {
	lvl, err := logrus.ParseLevel(strings.TrimSpace(c.LogLevel))
	if err != nil {
		return logrus.InfoLevel, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return lvl, nil
}

// NewLogger creates a configured logger instance
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()

	lvl, err := c.Level()
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)

	// Use structured logging format
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})

	return logger
}
