package groutine

import (
	"context"
	"runtime/pprof"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoNamesTheGoroutine(t *testing.T) {
	type result struct {
		name  string
		label string
	}
	ch := make(chan result, 1)

	//nolint:staticcheck // nil parent is part of the contract
	Go(nil, "worker-42", func(ctx context.Context) {
		label, _ := pprof.Label(ctx, LabelKey)
		ch <- result{name: GetName(ctx), label: label}
	})

	select {
	case r := <-ch:
		assert.Equal(t, "worker-42", r.name)
		assert.Equal(t, "worker-42", r.label)
	case <-time.After(time.Second):
		t.Fatal("goroutine did not run")
	}
}

func TestGoInheritsCancellation(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	Go(parent, "waiter", func(ctx context.Context) {
		<-ctx.Done()
		close(done)
	})
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("child context was not canceled with its parent")
	}
}

func TestGetName(t *testing.T) {
	assert.Equal(t, "", GetName(context.Background()))
	//nolint:staticcheck
	assert.Equal(t, "", GetName(nil))

	ctx := context.WithValue(context.Background(), nameKey, "x")
	require.Equal(t, "x", GetName(ctx))
}
