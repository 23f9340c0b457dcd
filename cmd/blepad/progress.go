package main

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/srg/blepad/internal/groutine"
)

const (
	progressUpdateInterval = 250 * time.Millisecond
	clearLineSequence      = "\r\033[K"
)

// countdown prints "<prefix> (<phase> Ns)" on one terminal line until stopped.
// It is single-use; Stop must be called to release the goroutine.
type countdown struct {
	w        io.Writer
	prefix   string
	duration time.Duration

	mu    sync.Mutex
	phase string

	cancel context.CancelFunc
	done   chan struct{}
}

func newCountdown(w io.Writer, prefix, phase string, duration time.Duration) *countdown {
	return &countdown{w: w, prefix: prefix, phase: phase, duration: duration, done: make(chan struct{})}
}

func (c *countdown) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	start := time.Now()

	groutine.Go(ctx, "progress", func(ctx context.Context) {
		defer close(c.done)
		ticker := time.NewTicker(progressUpdateInterval)
		defer ticker.Stop()

		for {
			c.print(remaining(c.duration, time.Since(start)))
			select {
			case <-ctx.Done():
				fmt.Fprint(c.w, clearLineSequence)
				return
			case <-ticker.C:
			}
		}
	})
}

// Phase is a scanner.ProgressCallback.
func (c *countdown) Phase(phase string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.phase = phase
}

func (c *countdown) Stop() {
	if c.cancel == nil {
		return
	}
	c.cancel()
	<-c.done
	c.cancel = nil
}

func (c *countdown) print(seconds int) {
	c.mu.Lock()
	phase := c.phase
	c.mu.Unlock()

	if seconds > 0 {
		fmt.Fprintf(c.w, "\r%s (%s %ds)   ", c.prefix, phase, seconds)
	} else {
		fmt.Fprintf(c.w, "\r%s (%s...)   ", c.prefix, phase)
	}
}

// remaining rounds the time left to the nearest second, never below zero.
func remaining(total, elapsed time.Duration) int {
	left := total - elapsed
	if left <= 0 {
		return 0
	}
	return int(left.Seconds() + 0.5)
}
