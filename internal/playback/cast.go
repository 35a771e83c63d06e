package playback

import (
	"context"
	"time"
)

const (
	// DefaultCastWait bounds how long the adaptive adapter waits for cast devices
	DefaultCastWait = 1500 * time.Millisecond

	// DefaultCastPoll is the polling interval during that wait
	DefaultCastPoll = 100 * time.Millisecond
)

// CastDetector reports whether a cast framework is ready to use
type CastDetector interface {
	Available() bool
}

// CastDetectorFunc adapts a function to CastDetector
type CastDetectorFunc func() bool

func (f CastDetectorFunc) Available() bool { return f() }

// WaitForCast polls detector every interval until it reports available,
// timeout elapses, or ctx ends. A nil detector is never available.
func WaitForCast(ctx context.Context, detector CastDetector, timeout, interval time.Duration) bool {
	if detector == nil {
		return false
	}
	if detector.Available() {
		return true
	}
	if timeout <= 0 {
		return false
	}
	if interval <= 0 {
		interval = DefaultCastPoll
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return false
		case <-deadline.C:
			return detector.Available()
		case <-ticker.C:
			if detector.Available() {
				return true
			}
		}
	}
}
