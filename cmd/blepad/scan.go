package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/srg/blepad/scanner"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

type scanFlags struct {
	duration      time.Duration
	format        string
	supportedOnly bool
	duplicates    bool
	block         []string
}

func newScanCmd() *cobra.Command {
	f := &scanFlags{}
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan for BLE devices and mark supported controllers",
		Long: `Scan for Bluetooth Low Energy devices in the vicinity.

Every device heard during the scan is listed with its address, signal
strength and advertised services. Devices the driver can connect to are
marked as supported.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runScan(cmd, f)
		},
	}

	cmd.Flags().DurationVarP(&f.duration, "duration", "d", 10*time.Second, "Scan duration")
	cmd.Flags().StringVarP(&f.format, "format", "f", "table", "Output format (table, json)")
	cmd.Flags().BoolVar(&f.supportedOnly, "supported", false, "Only list supported controllers")
	cmd.Flags().BoolVar(&f.duplicates, "duplicates", false, "Report duplicate advertisements to the radio")
	cmd.Flags().StringSliceVar(&f.block, "block", nil, "Hide devices with these addresses")
	return cmd
}

func runScan(cmd *cobra.Command, f *scanFlags) error {
	switch f.format {
	case "table", "json":
	default:
		return fmt.Errorf("invalid format '%s': must be one of [table json]", f.format)
	}
	if f.duration <= 0 {
		return fmt.Errorf("scan duration must be positive, got %v", f.duration)
	}

	cfg, logger, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	t, err := transportFactory(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open %s backend: %w", cfg.Backend, err)
	}
	defer func() { _ = t.Close() }()

	s, err := scanner.NewScanner(t, logger)
	if err != nil {
		return fmt.Errorf("failed to create BLE scanner: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	var progress scanner.ProgressCallback
	if isTerminal(out) {
		c := newCountdown(out, "Scanning for BLE devices", "Scanning", f.duration)
		c.Start()
		defer c.Stop()
		progress = c.Phase
	}

	devices, err := s.Scan(ctx, &scanner.ScanOptions{
		Duration:        f.duration,
		Interval:        cfg.ScanInterval,
		Window:          cfg.ScanWindow,
		AllowDuplicates: f.duplicates || cfg.AllowDuplicates,
		SupportedOnly:   f.supportedOnly,
		BlockList:       f.block,
	}, progress)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	if f.format == "json" {
		return writeDevicesJSON(out, devices)
	}
	return writeDevicesTable(out, devices, newPalette(isTerminal(out)))
}

func writeDevicesTable(out io.Writer, devices []scanner.Device, p palette) error {
	if len(devices) == 0 {
		_, err := fmt.Fprintln(out, "No devices discovered")
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tADDRESS\tRSSI\tVENDOR\tSUPPORTED\tSERVICES")
	fmt.Fprintln(w, strings.Repeat("-", 80))

	for _, d := range devices {
		name := d.Name
		if name == "" {
			name = "(unknown)"
		}
		if len(name) > 28 {
			name = name[:25] + "..."
		}

		supported := p.off.Sprint("no")
		if d.Supported() {
			supported = p.on.Sprint("yes")
		}

		services := strings.Join(d.Services, ",")
		if len(services) > 30 {
			services = services[:27] + "..."
		}

		vendor := d.Vendor
		if vendor == "" {
			vendor = "-"
		}

		fmt.Fprintf(w, "%s\t%s\t%d dBm\t%s\t%s\t%s\n", name, d.Address, d.RSSI, vendor, supported, services)
	}
	return w.Flush()
}

func writeDevicesJSON(out io.Writer, devices []scanner.Device) error {
	list := make([]*orderedmap.OrderedMap[string, any], 0, len(devices))
	for _, d := range devices {
		m := orderedmap.New[string, any]()
		m.Set("name", d.Name)
		m.Set("address", d.Address)
		m.Set("rssi", d.RSSI)
		m.Set("connectable", d.Connectable)
		if d.Vendor != "" {
			m.Set("vendor", d.Vendor)
		}
		m.Set("supported", d.Supported())
		if d.Supported() {
			m.Set("type", d.Type.String())
		}
		m.Set("services", d.Services)
		list = append(list, m)
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(list)
}
