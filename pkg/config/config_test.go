package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, BackendTinyBLE, cfg.Backend)
	assert.Equal(t, "hci0", cfg.Adapter)
	assert.Equal(t, 10*time.Second, cfg.ScanTimeout)
	assert.Equal(t, 100*time.Millisecond, cfg.ScanInterval)
	assert.Equal(t, 99*time.Millisecond, cfg.ScanWindow)
	assert.False(t, cfg.AllowDuplicates)
	assert.Equal(t, uint32(123456), cfg.Passkey)
	assert.False(t, cfg.PlatformPairing, "The passkey MUST be enforced unless the user opts out")
	assert.Equal(t, 4096, cfg.TraceBytes)
	assert.NoError(t, cfg.Validate())
}

func TestConfig_NewLogger(t *testing.T) {
	tests := []struct {
		name     string
		logLevel string
		expected logrus.Level
	}{
		{name: "creates logger with debug level", logLevel: "debug", expected: logrus.DebugLevel},
		{name: "creates logger with info level", logLevel: "info", expected: logrus.InfoLevel},
		{name: "creates logger with warn level", logLevel: "warn", expected: logrus.WarnLevel},
		{name: "creates logger with error level", logLevel: "error", expected: logrus.ErrorLevel},
		{name: "falls back to info on garbage", logLevel: "loud", expected: logrus.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{LogLevel: tt.logLevel}

			logger := cfg.NewLogger()

			assert.NotNil(t, logger)
			assert.Equal(t, tt.expected, logger.GetLevel())

			// Verify formatter is set correctly
			formatter, ok := logger.Formatter.(*logrus.TextFormatter)
			assert.True(t, ok)
			assert.True(t, formatter.FullTimestamp)
			assert.Equal(t, time.RFC3339, formatter.TimestampFormat)
		})
	}
}

func TestConfig_Load(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blepad.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level: debug
backend: tinyble
adapter: hci1
scan_timeout: 30s
passkey: 4242
platform_pairing: true
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, BackendTinyBLE, cfg.Backend)
	assert.Equal(t, "hci1", cfg.Adapter)
	assert.Equal(t, 30*time.Second, cfg.ScanTimeout)
	assert.Equal(t, uint32(4242), cfg.Passkey)
	assert.True(t, cfg.PlatformPairing)
	assert.Equal(t, 100*time.Millisecond, cfg.ScanInterval, "unset keys MUST keep their defaults")
}

func TestConfig_LoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestConfig_LoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config")

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("scan_timeout: [1, 2"), 0o600))
	_, err = Load(bad)
	assert.ErrorContains(t, err, "failed to parse config")

	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("backend: bluedroid"), 0o600))
	_, err = Load(invalid)
	assert.ErrorContains(t, err, "unknown backend")
}

func TestConfig_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		errMsg string
	}{
		{name: "defaults are valid", mutate: func(c *Config) {}},
		{name: "bad log level", mutate: func(c *Config) { c.LogLevel = "verbose" }, errMsg: "invalid log level"},
		{name: "unknown backend", mutate: func(c *Config) { c.Backend = "nimble" }, errMsg: "unknown backend"},
		{name: "zero scan timeout", mutate: func(c *Config) { c.ScanTimeout = 0 }, errMsg: "scan_timeout"},
		{name: "window wider than interval", mutate: func(c *Config) { c.ScanWindow = time.Second }, errMsg: "scan_window"},
		{name: "seven digit passkey", mutate: func(c *Config) { c.Passkey = 1000000 }, errMsg: "passkey"},
		{name: "negative trace", mutate: func(c *Config) { c.TraceBytes = -1 }, errMsg: "trace_bytes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.errMsg)
		})
	}
}
