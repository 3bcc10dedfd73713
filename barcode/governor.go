package barcode

import "time"

// DefaultFrameInterval is the minimum spacing between processed frames.
// Phone cameras deliver 30 to 60 fps; decoding every frame burns CPU for
// no extra hits, so frames are throttled to roughly 20 per second.
const DefaultFrameInterval = 45 * time.Millisecond

// FrameGovernor throttles how often incoming camera frames are decoded.
type FrameGovernor struct {
	interval time.Duration
	last     time.Time
	now      func() time.Time
}

func NewFrameGovernor(interval time.Duration) *FrameGovernor {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	return &FrameGovernor{
		interval: interval,
		now:      time.Now,
	}
}

// ShouldProcess reports whether enough time has passed since the last
// accepted frame, and marks the frame accepted when it has.
func (g *FrameGovernor) ShouldProcess() bool {
	now := g.now()
	if !g.last.IsZero() && now.Sub(g.last) < g.interval {
		return false
	}
	g.last = now
	return true
}

// Reset clears the throttle so the next frame is processed immediately.
func (g *FrameGovernor) Reset() {
	g.last = time.Time{}
}
