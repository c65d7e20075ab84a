package chain

import "time"

// TimeSource supplies block timestamps in unix seconds.
// Implemented by SystemTime (default) and testutil.DeterministicClock.
type TimeSource interface {
	Now() uint64
}

// SystemTime reads the wall clock.
type SystemTime struct{}

// Now returns the current unix time.
func (SystemTime) Now() uint64 {
	return uint64(time.Now().Unix())
}
