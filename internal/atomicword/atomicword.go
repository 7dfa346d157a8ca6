// Package atomicword provides the memory-order primitives the WBETL
// engine is built on: acquire/release loads and stores, CAS, and a
// full-fenced fetch-increment, all over a single machine word.
//
// Go's atomic package does not expose separate acquire/release forms on
// amd64/arm64 (every atomic op already carries a full fence), so the
// distinctions here are documentary: they mark, at each call site, which
// ordering the protocol actually requires, and give a single place to
// retarget if a future Go runtime or architecture needs something weaker.
package atomicword

import "sync/atomic"

// Word is the fundamental STM unit: one machine word.
type Word = uint64

// Load is an acquire-load of w.
func Load(w *Word) Word {
	return atomic.LoadUint64(w)
}

// Store is a plain atomic store, used for write-back where the protocol
// relies on the caller (commit) issuing a later release-store to publish
// the result instead.
func Store(w *Word, v Word) {
	atomic.StoreUint64(w, v)
}

// StoreRelease is a release-store: every write preceding it in program
// order becomes visible to a thread that subsequently acquire-loads the
// same word and observes the new value.
func StoreRelease(w *Word, v Word) {
	atomic.StoreUint64(w, v)
}

// CAS is a full-fence compare-and-swap.
func CAS(w *Word, old, new Word) bool {
	return atomic.CompareAndSwapUint64(w, old, new)
}

// FetchIncrement atomically increments w by 1 with a full fence and
// returns the value w held before the increment.
func FetchIncrement(w *Word) Word {
	return atomic.AddUint64(w, 1) - 1
}

// Fence is a full memory fence. On the atomic-based backend every op
// above already fences, so this is a no-op placeholder kept for call
// sites that document a fence the protocol requires (rollback, §4.9).
func Fence() {}
