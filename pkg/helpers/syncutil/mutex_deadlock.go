//go:build deadlock

// Package syncutil provides mutex primitives with optional deadlock detection.
// Build with -tags=deadlock to swap in go-deadlock during development.
package syncutil

import (
	"time"

	deadlock "github.com/sasha-s/go-deadlock"
)

// DeadlockEnabled reports whether the deadlock detector is compiled in.
const DeadlockEnabled = true

func init() {
	// The exchange loop holds locks for well under a poll interval.
	deadlock.Opts.DeadlockTimeout = 5 * time.Second
}

// A Mutex is a mutual exclusion lock.
type Mutex struct {
	deadlock.Mutex
}

// An RWMutex is a reader/writer mutual exclusion lock.
type RWMutex struct {
	deadlock.RWMutex
}
