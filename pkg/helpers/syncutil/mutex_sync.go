//go:build !deadlock

// Package syncutil provides mutex primitives with optional deadlock detection.
// Build with -tags=deadlock to swap in go-deadlock during development.
package syncutil

import "sync"

// DeadlockEnabled reports whether the deadlock detector is compiled in.
const DeadlockEnabled = false

// A Mutex is a mutual exclusion lock.
type Mutex struct {
	sync.Mutex
}

// An RWMutex is a reader/writer mutual exclusion lock.
type RWMutex struct {
	sync.RWMutex
}
