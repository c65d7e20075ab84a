package testutil

import "sync"

// DefaultGenesisTime is the block timestamp a DeterministicClock starts at
// when none is given: 2020-01-01T00:00:00Z.
const DefaultGenesisTime uint64 = 1577836800

// DeterministicClock is a thread-safe manual block time source for tests.
//
// Time only moves when the test moves it, so the same scenario produces the
// same block timestamps (and the same state roots) on every run.
//
// Implements chain.TimeSource.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type DeterministicClock struct {
	mu  sync.Mutex
	now uint64
}

// NewDeterministicClock creates a clock at start. Zero means
// DefaultGenesisTime.
func NewDeterministicClock(start uint64) *DeterministicClock {
	if start == 0 {
		start = DefaultGenesisTime
	}
	return &DeterministicClock{now: start}
}

// Now returns the current time in unix seconds.
func (c *DeterministicClock) Now() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by seconds and returns the new time.
func (c *DeterministicClock) Advance(seconds uint64) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += seconds
	return c.now
}

// Set moves the clock to t. Setting an earlier time is allowed; the chain
// never lets block timestamps go backwards regardless.
func (c *DeterministicClock) Set(t uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}
