package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/srg/blepad/internal/gamepad"
	"golang.org/x/term"
)

const clearScreenSequence = "\033[2J\033[H"

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// palette colors output only when writing to a terminal.
type palette struct {
	on      *color.Color
	off     *color.Color
	heading *color.Color
	warn    *color.Color
}

func newPalette(tty bool) palette {
	p := palette{
		on:      color.New(color.FgGreen, color.Bold),
		off:     color.New(color.Faint),
		heading: color.New(color.FgCyan, color.Bold),
		warn:    color.New(color.FgYellow),
	}
	for _, c := range []*color.Color{p.on, p.off, p.heading, p.warn} {
		if tty {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// formatSnapshot renders one line of controller state.
func formatSnapshot(s gamepad.Snapshot, p palette) string {
	var b strings.Builder

	fmt.Fprintf(&b, "LS %5d,%5d  RS %5d,%5d  LT %3d  RT %3d",
		s.Axes.Left.X, s.Axes.Left.Y, s.Axes.Right.X, s.Axes.Right.Y, s.Axes.Brake, s.Axes.Throttle)

	b.WriteString("  dpad ")
	b.WriteString(highlight(p, s.Buttons.Dpad.String(), s.Buttons.Dpad != gamepad.DpadNone))
	b.WriteString("  buttons ")
	b.WriteString(highlight(p, s.Buttons.Common.String(), s.Buttons.Common != 0))
	b.WriteString("  triggers ")
	b.WriteString(highlight(p, s.Buttons.Triggers.String(), s.Buttons.Triggers.LT || s.Buttons.Triggers.RT))
	b.WriteString("  misc ")
	b.WriteString(highlight(p, s.Buttons.Misc.String(), s.Buttons.Misc != 0))

	if s.Battery.Valid {
		fmt.Fprintf(&b, "  battery %d%%", s.Battery.Value)
	}
	if s.Debug {
		b.WriteString("  ")
		b.WriteString(p.warn.Sprint("[debug]"))
	}
	return b.String()
}

func highlight(p palette, text string, active bool) string {
	if active {
		return p.on.Sprint(text)
	}
	return p.off.Sprint(text)
}

// formatReports renders traced raw reports as hex, oldest first.
func formatReports(reports [][]byte) string {
	var b strings.Builder
	for _, r := range reports {
		b.WriteString(hex.EncodeToString(r))
		b.WriteByte('\n')
	}
	return b.String()
}
