package main

import (
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/srg/blepad/internal/controller"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

func newInfoCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Connect to a controller and print its device information",
		Long: `Scan for a supported controller, pair with it and print what it reports
about itself: name, manufacturer, firmware revision and serial number.
Fields the controller does not provide are left out.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInfo(cmd, format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format (table, json)")
	return cmd
}

func runInfo(cmd *cobra.Command, format string) error {
	if format != "table" && format != "json" {
		return fmt.Errorf("invalid format '%s': must be one of [table json]", format)
	}

	driver, _, logger, err := openDriver(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = driver.Close() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res, err := driver.Start(ctx)
	if err != nil {
		return err
	}
	if res.Status == controller.StatusNotFound {
		return ErrNoController
	}

	info, err := driver.DeviceData(ctx)
	if err != nil {
		return err
	}
	if info.Empty() {
		logger.Warn("Controller returned no device information")
	}

	fields := orderedmap.New[string, string]()
	fields.Set("address", res.Address)
	fields.Set("type", res.Type.String())
	for pair := info.Fields().Oldest(); pair != nil; pair = pair.Next() {
		fields.Set(pair.Key, pair.Value)
	}
	if snap := driver.Snapshot(); snap.Battery.Valid {
		fields.Set("battery", fmt.Sprintf("%d%%", snap.Battery.Value))
	}

	out := cmd.OutOrStdout()
	if format == "json" {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(fields)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for pair := fields.Oldest(); pair != nil; pair = pair.Next() {
		fmt.Fprintf(w, "%s\t%s\n", pair.Key, pair.Value)
	}
	return w.Flush()
}
