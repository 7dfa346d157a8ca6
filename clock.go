package stm

import "github.com/tiancaiamao/wbetl/internal/atomicword"

// clock is the single global logical timestamp source (§4.1). It lives in
// its own struct (and, via padding, its own cache line) so that the
// hot fetch-increment on commit never false-shares with the lock array.
type clock struct {
	_ [7]uint64 // pad: keep v off the lock array's cache lines
	v atomicword.Word
	_ [7]uint64
}

// versionMax bounds the commit timestamp. The spec requires that the
// clock never approach ~0>>lockBits; we reserve the top lockBits bits
// entirely and trigger a quiescent reset maxThreads timestamps before
// that, giving headroom for the last commits (at most one per thread)
// still in flight during the reset race.
const versionMax = (1 << (64 - lockBits)) - 1 - maxThreads

func (c *clock) get() uint64 {
	return atomicword.Load(&c.v)
}

// fetchInc returns the clock's value before incrementing, full-fenced.
func (c *clock) fetchInc() uint64 {
	return atomicword.FetchIncrement(&c.v)
}

// reset zeroes the clock. Only safe to call from inside the quiescence
// barrier (§4.11), with every other transaction drained.
func (c *clock) reset() {
	atomicword.Store(&c.v, 0)
}

// needsRollover reports whether the clock has reached the point where a
// quiescent reset must run before any new transaction starts (§4.10).
func (c *clock) needsRollover() bool {
	return c.get() >= versionMax
}

// globalClock is the single commit-timestamp source shared by every
// transaction in the process (§3 "Global clock").
var globalClock clock

// GetClock returns the current value of the global logical clock (§6
// "get_clock").
func GetClock() uint64 { return globalClock.get() }
