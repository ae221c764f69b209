package memory

import (
	"context"
	"testing"
	"time"
)

func newTestMonitor(limit int64, alloc *uint64) *Monitor {
	cfg := DefaultConfig()
	cfg.MemoryLimitBytes = limit
	cfg.CheckInterval = time.Hour
	m := NewMonitor(cfg)
	m.sample = func() uint64 { return *alloc }
	return m
}

func TestMonitorPausesAndResumes(t *testing.T) {
	alloc := uint64(90)
	m := newTestMonitor(100, &alloc)
	defer m.Stop()

	m.checkMemory()
	if !m.IsPaused() {
		t.Fatal("Expected monitor to pause at 90% usage")
	}

	released := make(chan bool, 1)
	go func() { released <- m.WaitIfPaused(context.Background()) }()

	select {
	case <-released:
		t.Fatal("Expected WaitIfPaused to block while paused")
	case <-time.After(20 * time.Millisecond):
	}

	alloc = 50
	m.checkMemory()
	if m.IsPaused() {
		t.Fatal("Expected monitor to resume below the high water mark")
	}

	select {
	case ok := <-released:
		if !ok {
			t.Error("Expected WaitIfPaused to return true after resume")
		}
	case <-time.After(time.Second):
		t.Fatal("WaitIfPaused did not return after resume")
	}
}

func TestMonitorHysteresis(t *testing.T) {
	alloc := uint64(90)
	m := newTestMonitor(100, &alloc)
	defer m.Stop()

	m.checkMemory()
	alloc = 80 // between high and critical marks
	m.checkMemory()
	if !m.IsPaused() {
		t.Error("Expected monitor to stay paused between water marks")
	}
}

func TestWaitIfPausedReturnsFalseOnStop(t *testing.T) {
	alloc := uint64(95)
	m := newTestMonitor(100, &alloc)
	m.checkMemory()

	done := make(chan bool, 1)
	go func() { done <- m.WaitIfPaused(context.Background()) }()
	m.Stop()

	select {
	case ok := <-done:
		if ok {
			t.Error("Expected false after Stop")
		}
	case <-time.After(time.Second):
		t.Fatal("WaitIfPaused did not return after Stop")
	}
}

func TestWaitIfPausedReturnsFalseOnContextDone(t *testing.T) {
	alloc := uint64(95)
	m := newTestMonitor(100, &alloc)
	defer m.Stop()
	m.checkMemory()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan bool, 1)
	go func() { done <- m.WaitIfPaused(ctx) }()
	cancel()

	select {
	case ok := <-done:
		if ok {
			t.Error("Expected false after context cancel")
		}
	case <-time.After(time.Second):
		t.Fatal("WaitIfPaused did not return after context cancel")
	}
	if !m.IsPaused() {
		t.Error("Expected monitor to stay paused")
	}
}

func TestMonitorWithoutLimit(t *testing.T) {
	alloc := uint64(1 << 40)
	m := newTestMonitor(0, &alloc)
	m.limit = 0
	m.checkMemory()

	if m.IsPaused() {
		t.Error("Expected no pause without a limit")
	}
	if m.Usage() != 0 {
		t.Errorf("Expected usage 0 without a limit, got %v", m.Usage())
	}
	if !m.WaitIfPaused(context.Background()) {
		t.Error("Expected WaitIfPaused to pass through without a limit")
	}
}
