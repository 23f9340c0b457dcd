package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/srg/blepad/internal/controller"
	"github.com/srg/blepad/internal/transport"
	"github.com/srg/blepad/internal/transport/goble"
	"github.com/srg/blepad/internal/transport/tinyble"
	"github.com/srg/blepad/pkg/config"
)

// transportFactory opens the configured backend (can be overridden in tests)
//
//nolint:gochecknoglobals
var transportFactory = func(cfg *config.Config, logger *logrus.Logger) (transport.Transport, error) {
	switch cfg.Backend {
	case config.BackendGoBLE:
		return goble.New(goble.DeviceOptions{
			HCIDevice:    cfg.HCIDevice,
			ScanInterval: cfg.ScanInterval,
			ScanWindow:   cfg.ScanWindow,
		}, logger)
	default:
		return tinyble.New(tinyble.Options{Adapter: cfg.Adapter}, logger)
	}
}

// loadSettings reads --config and applies the global flags on top of it.
// Without --log-level or a config file the CLI only logs warnings and errors.
func loadSettings(cmd *cobra.Command) (*config.Config, *logrus.Logger, error) {
	flags := cmd.Flags()

	path, _ := flags.GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}

	if lvl, _ := flags.GetString("log-level"); lvl != "" {
		cfg.LogLevel = lvl
	} else if path == "" {
		cfg.LogLevel = logrus.WarnLevel.String()
	}
	if backend, _ := flags.GetString("backend"); backend != "" {
		cfg.Backend = backend
	}
	if adapter, _ := flags.GetString("adapter"); adapter != "" {
		cfg.Adapter = adapter
	}
	if hci, _ := flags.GetInt("hci-device"); hci >= 0 {
		cfg.HCIDevice = hci
	}
	if timeout, _ := flags.GetDuration("scan-timeout"); timeout > 0 {
		cfg.ScanTimeout = timeout
	}
	if platform, _ := flags.GetBool("platform-pairing"); platform {
		cfg.PlatformPairing = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	// Arguments are valid from here on - don't show usage on runtime errors
	cmd.SilenceUsage = true

	return cfg, cfg.NewLogger(), nil
}

// openDriver opens the backend and wraps it in a driver.
func openDriver(cmd *cobra.Command) (*controller.Driver, *config.Config, *logrus.Logger, error) {
	cfg, logger, err := loadSettings(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	t, err := transportFactory(cfg, logger)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open %s backend: %w", cfg.Backend, err)
	}
	return controller.New(t, cfg, logger), cfg, logger, nil
}
