// Package uthreads implements a user-space cooperative-preemptive thread
// library: a fixed table of logical threads scheduled FIFO round-robin,
// driven both by explicit library calls and by a real virtual-time
// interval timer.
//
// Go has no portable way to save and restore an arbitrary machine stack,
// so each logical thread here is backed by one real goroutine that is
// parked on a channel whenever it does not hold the scheduling baton.
// Mutual exclusion between logical threads -- "exactly one thread runs at
// a time" -- is therefore enforced by the library itself rather than
// inherited for free; see switchTo in context.go.
package uthreads

import (
	"sync"
	"sync/atomic"
)

// Thread table and scheduling limits. These mirror the constants a C
// rendition of this library would fix at compile time.
const (
	// MaxThreadNum is the number of thread table slots, including the
	// main thread occupying slot 0.
	MaxThreadNum = 100
	// StackSize is the bookkeeping stack buffer size allocated per
	// non-main slot. The goroutine backing each slot has its own
	// runtime-managed stack; this buffer exists so slot occupancy can
	// still be reasoned about as "does this slot own stack memory".
	StackSize = 4096
)

// Library is the single process-wide scheduler instance. Its zero value
// is not ready for use; Init must be called exactly once before any other
// function.
type Library struct {
	mu          sync.Mutex
	initialized bool

	threads    [MaxThreadNum]threadRecord
	ready      *readyQueue
	blocked    map[int]struct{}
	runningTid int

	preemptPending atomic.Bool
	timerStop      chan struct{}
}

// lib is the library's single instance. The public API in api.go is a
// thin set of package-level functions over it, matching the C-style ABI
// the rest of this module preserves.
var lib = &Library{}
