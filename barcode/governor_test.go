package barcode

import (
	"testing"
	"time"
)

func TestFrameGovernorThrottles(t *testing.T) {
	clock := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	g := NewFrameGovernor(45 * time.Millisecond)
	g.now = func() time.Time { return clock }

	if !g.ShouldProcess() {
		t.Fatal("first frame should always process")
	}

	clock = clock.Add(10 * time.Millisecond)
	if g.ShouldProcess() {
		t.Error("frame 10ms later should be dropped")
	}

	clock = clock.Add(40 * time.Millisecond)
	if !g.ShouldProcess() {
		t.Error("frame past the interval should process")
	}

	// the accepted frame restarts the window
	clock = clock.Add(20 * time.Millisecond)
	if g.ShouldProcess() {
		t.Error("frame 20ms after an accepted frame should be dropped")
	}
}

func TestFrameGovernorReset(t *testing.T) {
	clock := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	g := NewFrameGovernor(45 * time.Millisecond)
	g.now = func() time.Time { return clock }

	if !g.ShouldProcess() {
		t.Fatal("first frame should process")
	}
	g.Reset()
	if !g.ShouldProcess() {
		t.Error("frame right after Reset should process")
	}
}

func TestFrameGovernorDefaultInterval(t *testing.T) {
	g := NewFrameGovernor(0)
	if g.interval != DefaultFrameInterval {
		t.Errorf("interval = %v, want %v", g.interval, DefaultFrameInterval)
	}
}
