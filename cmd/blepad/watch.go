package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/srg/blepad/internal/controller"
	"github.com/srg/blepad/internal/gamepad"
)

type watchFlags struct {
	interval  time.Duration
	debug     bool
	reconnect bool
}

func newWatchCmd() *cobra.Command {
	f := &watchFlags{}
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Connect to a controller and show its live state",
		Long: `Scan for a supported controller, pair with it and print its decoded state:
sticks, triggers, d-pad, buttons and battery.

Pressing the Guide button toggles debug mode, which traces raw input reports.
When the controller disconnects, watch scans for it again unless
--reconnect=false is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWatch(cmd, f)
		},
	}
	cmd.Flags().DurationVarP(&f.interval, "interval", "i", 50*time.Millisecond, "Refresh interval")
	cmd.Flags().BoolVar(&f.debug, "debug", false, "Start with debug mode on")
	cmd.Flags().BoolVar(&f.reconnect, "reconnect", true, "Scan again after the controller disconnects or is not found")
	return cmd
}

func runWatch(cmd *cobra.Command, f *watchFlags) error {
	if f.interval <= 0 {
		return fmt.Errorf("refresh interval must be positive, got %v", f.interval)
	}

	driver, _, _, err := openDriver(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = driver.Close() }()

	if f.debug {
		driver.SetDebug(true)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	tty := isTerminal(out)
	p := newPalette(tty)

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	var (
		lastReports uint64
		guideHeld   bool
	)
	for {
		if !driver.Connected() {
			res, err := driver.Start(ctx)
			if ctx.Err() != nil {
				return nil
			}
			if err != nil {
				return err
			}
			if res.Status == controller.StatusNotFound {
				if !f.reconnect {
					return ErrNoController
				}
				continue
			}
			fmt.Fprintf(out, "%s %s (%s)\n", p.heading.Sprint("Connected to"), res.Name, res.Address)
			lastReports = 0
			guideHeld = false
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		if !driver.Connected() {
			fmt.Fprintln(out, p.warn.Sprint("Controller disconnected"))
			if !f.reconnect {
				return ErrConnectionLost
			}
			continue
		}

		snap := driver.Snapshot()

		// Guide toggles debug on press, not while held.
		guide := snap.Buttons.Misc.Has(gamepad.ButtonGuide)
		if guide && !guideHeld {
			snap.Debug = driver.ToggleDebug()
		}
		guideHeld = guide

		if snap.Reports == lastReports && !tty {
			continue
		}
		lastReports = snap.Reports

		if tty {
			fmt.Fprint(out, clearScreenSequence)
		}
		fmt.Fprintln(out, formatSnapshot(snap, p))
		if snap.Debug && tty {
			fmt.Fprint(out, formatReports(driver.RecentReports()))
		}
	}
}
