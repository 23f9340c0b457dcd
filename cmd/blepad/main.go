package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"unicode"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// formatVersion adds 'v' prefix if version starts with a digit
func formatVersion(ver string) string {
	if len(ver) > 0 && unicode.IsDigit(rune(ver[0])) {
		return "v" + ver
	}
	return ver
}

// newRootCmd builds the command tree. Tests build a fresh tree per run.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "blepad",
		Short: "Bluetooth LE gamepad driver",
		Long: `Bluetooth Low Energy gamepad driver that:

- Finds a supported controller (Xbox Wireless Controller) among nearby BLE devices
- Pairs with it using a fixed passkey and subscribes to its HID input reports
- Decodes sticks, triggers, d-pad and buttons into a live snapshot
- Reads device information (name, manufacturer, firmware, serial)

Press the Guide button while watching to toggle raw report tracing.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", formatVersion(version), commit, date),
		SilenceErrors: true, // main prints clean errors
	}

	root.PersistentFlags().StringP("config", "c", "", "YAML configuration file")
	root.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	root.PersistentFlags().String("backend", "", "BLE backend (tinyble, goble)")
	root.PersistentFlags().String("adapter", "", "BlueZ adapter name for tinyble and pairing (e.g. hci0)")
	root.PersistentFlags().Int("hci-device", -1, "HCI device index for goble on Linux")
	root.PersistentFlags().Duration("scan-timeout", 0, "How long one scan for a controller lasts")
	root.PersistentFlags().Bool("platform-pairing", false, "Accept the OS pairing prompt where the backend cannot apply the passkey")

	root.Flags().BoolP("version", "v", false, "Show version information")

	root.AddCommand(newScanCmd(), newInfoCmd(), newWatchCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		// Ctrl+C is a normal exit, not an error - exit silently
		if errors.Is(err, context.Canceled) {
			return
		}
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", FormatUserError(err))
		os.Exit(1)
	}
}
