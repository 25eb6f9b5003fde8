package command

import (
	"time"

	"github.com/gwillem/envirobot/pkg/helpers/syncutil"
	"github.com/jonboulle/clockwork"
)

// DefaultHold is how long a key counts as held after its last key event.
const DefaultHold = 150 * time.Millisecond

// KeyTracker converts key press events into keyboard state snapshots.
// Terminals only report presses (and auto-repeats while a key is held), so
// a key is considered down until no event for it arrived within the hold
// window. It is safe for concurrent use.
type KeyTracker struct {
	clock clockwork.Clock
	hold  time.Duration

	mu   syncutil.Mutex
	seen [numKeys]time.Time
}

// NewKeyTracker creates a tracker. A nil clock uses the real clock and a
// non-positive hold uses DefaultHold.
func NewKeyTracker(clock clockwork.Clock, hold time.Duration) *KeyTracker {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if hold <= 0 {
		hold = DefaultHold
	}
	return &KeyTracker{clock: clock, hold: hold}
}

// Press records a key event.
func (t *KeyTracker) Press(k Key) {
	if k >= numKeys {
		return
	}
	now := t.clock.Now()
	t.mu.Lock()
	t.seen[k] = now
	t.mu.Unlock()
}

// State returns the keys whose last event lies within the hold window.
func (t *KeyTracker) State() KeyboardState {
	now := t.clock.Now()

	t.mu.Lock()
	defer t.mu.Unlock()

	var s KeyboardState
	for k := Key(0); k < numKeys; k++ {
		at := t.seen[k]
		if at.IsZero() {
			continue
		}
		if now.Sub(at) < t.hold {
			s = s.With(k)
		}
	}
	return s
}
