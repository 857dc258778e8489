package debounce

import (
	"sync/atomic"
	"testing"
	"time"
)

// captureTimers replaces afterFunc with one that records callbacks instead
// of scheduling them.
func captureTimers(t *testing.T) *[]func() {
	t.Helper()
	orig := afterFunc
	t.Cleanup(func() { afterFunc = orig })
	var callbacks []func()
	afterFunc = func(_ time.Duration, f func()) *time.Timer {
		callbacks = append(callbacks, f)
		timer := time.NewTimer(time.Hour)
		timer.Stop()
		return timer
	}
	return &callbacks
}

func TestTriggerIgnoresReplacedTimer(t *testing.T) {
	callbacks := captureTimers(t)
	var calls atomic.Int32
	d := New(time.Second, func() { calls.Add(1) })

	d.Trigger()
	d.Trigger()
	if len(*callbacks) != 2 {
		t.Fatalf("scheduled %d callbacks, want 2", len(*callbacks))
	}
	for _, cb := range *callbacks {
		cb()
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("fn ran %d times, want 1", got)
	}
}

func TestStopIgnoresFiredTimer(t *testing.T) {
	callbacks := captureTimers(t)
	var calls atomic.Int32
	d := New(time.Second, func() { calls.Add(1) })

	d.Trigger()
	d.Stop()
	(*callbacks)[0]()
	if got := calls.Load(); got != 0 {
		t.Fatalf("fn ran %d times after Stop, want 0", got)
	}
}

func TestTriggerCoalesces(t *testing.T) {
	var calls atomic.Int32
	done := make(chan struct{}, 1)
	d := New(10*time.Millisecond, func() {
		calls.Add(1)
		done <- struct{}{}
	})
	d.Trigger()
	d.Trigger()
	d.Trigger()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("debouncer did not fire")
	}
	time.Sleep(30 * time.Millisecond)
	if got := calls.Load(); got != 1 {
		t.Fatalf("fn ran %d times, want 1", got)
	}
}

func TestStop(t *testing.T) {
	var calls atomic.Int32
	d := New(20*time.Millisecond, func() { calls.Add(1) })
	d.Trigger()
	d.Stop()
	time.Sleep(40 * time.Millisecond)
	if got := calls.Load(); got != 0 {
		t.Fatalf("fn ran %d times after Stop, want 0", got)
	}
}

func TestTriggerAfterFire(t *testing.T) {
	var calls atomic.Int32
	fired := make(chan struct{}, 2)
	d := New(5*time.Millisecond, func() {
		calls.Add(1)
		fired <- struct{}{}
	})
	for range 2 {
		d.Trigger()
		select {
		case <-fired:
		case <-time.After(time.Second):
			t.Fatal("debouncer did not fire")
		}
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("fn ran %d times, want 2", got)
	}
}
