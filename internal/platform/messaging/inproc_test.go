package messaging

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu     sync.Mutex
	values []string
}

func (r *recorder) handler() Handler {
	return func(_ context.Context, _ []byte, value []byte) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.values = append(r.values, string(value))
		return nil
	}
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.values...)
}

func waitFor(t *testing.T, condition func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestInProcBusDeliversInOrderPerGroup(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := NewInProcBus(nil)
	rec := &recorder{}
	if err := bus.Subscribe(ctx, "t", "g", rec.handler()); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	for _, value := range []string{"a", "b", "c"} {
		if err := bus.Publish(ctx, "t", "7", []byte(value)); err != nil {
			t.Fatalf("publish %q: %v", value, err)
		}
	}

	waitFor(t, func() bool { return len(rec.snapshot()) == 3 })
	got := rec.snapshot()
	if got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Fatalf("delivery out of order: %v", got)
	}
}

func TestInProcBusFansOutToEveryGroup(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := NewInProcBus(nil)
	first := &recorder{}
	second := &recorder{}
	if err := bus.Subscribe(ctx, "t", "g1", first.handler()); err != nil {
		t.Fatalf("subscribe g1: %v", err)
	}
	if err := bus.Subscribe(ctx, "t", "g2", second.handler()); err != nil {
		t.Fatalf("subscribe g2: %v", err)
	}

	if err := bus.Publish(ctx, "t", "7", []byte("a")); err != nil {
		t.Fatalf("publish: %v", err)
	}

	waitFor(t, func() bool {
		return len(first.snapshot()) == 1 && len(second.snapshot()) == 1
	})
}

func TestInProcBusRedeliversSameMessageUntilHandlerSucceeds(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := NewInProcBus(nil)
	var mu sync.Mutex
	attempts := 0
	var seen []string
	handler := func(_ context.Context, _ []byte, value []byte) error {
		mu.Lock()
		defer mu.Unlock()
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		seen = append(seen, string(value))
		return nil
	}
	if err := bus.Subscribe(ctx, "t", "g", handler); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	if err := bus.Publish(ctx, "t", "7", []byte("a")); err != nil {
		t.Fatalf("publish first: %v", err)
	}
	if err := bus.Publish(ctx, "t", "7", []byte("b")); err != nil {
		t.Fatalf("publish second: %v", err)
	}

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 2
	})

	mu.Lock()
	defer mu.Unlock()
	// "a" must be retried to success before "b" is attempted at all.
	if seen[0] != "a" || seen[1] != "b" {
		t.Fatalf("expected a then b, got %v", seen)
	}
	if attempts != 4 {
		t.Fatalf("expected 3 attempts for a and 1 for b, got %d", attempts)
	}
}
