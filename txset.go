package stm

import (
	"sync/atomic"

	"github.com/tiancaiamao/wbetl/internal/atomicword"
)

// readEntry records the version observed at read time and the stripe
// lock it came from, so validate/extend can cheaply re-check it (§3
// "Read-set entry").
type readEntry struct {
	version uint64
	lock    *atomicword.Word
}

// readSet is a per-transaction growable log. It is drained (not
// reallocated) at each start/prepare and grows live through append on
// overflow —
// unlike the write set, nothing foreign ever points into it, so growing
// it live is always safe (§4.3).
type readSet struct {
	entries []readEntry
}

func newReadSet() *readSet {
	return &readSet{entries: make([]readEntry, 0, initialRWSetSize)}
}

func (rs *readSet) reset() { rs.entries = rs.entries[:0] }

func (rs *readSet) append(version uint64, lock *atomicword.Word) {
	rs.entries = append(rs.entries, readEntry{version: version, lock: lock})
}

func (rs *readSet) len() int { return len(rs.entries) }

// hasRead reports whether this transaction already recorded a read
// against the stripe lock l (used by the write path's VAL_WRITE check,
// §4.5 step 4). Linear scan: transactions are small, and the spec
// explicitly prefers cache locality over an indexed structure (§4.3).
func (rs *readSet) hasRead(l *atomicword.Word) bool {
	for i := range rs.entries {
		if rs.entries[i].lock == l {
			return true
		}
	}
	return false
}

// writeEntry is one write-set slot (§3 "Write-set entry"). next chains
// entries that hash to the same stripe; it is an index into the owning
// writeSet's entries slice (see lockarray.go's locator doc comment for
// why an index and not a raw pointer) and -1 means "no next".
type writeEntry struct {
	addr    *Var
	value   uint64
	mask    uint64
	version uint64
	lock    *atomicword.Word
	next    int32
}

const noNext int32 = -1

// writeSet is a per-transaction, insertion-ordered array of writeEntry.
// Foreign transactions resolve a locator into a live write set's entries
// through resolveOwner (lockarray.go), which reads count without ever
// holding anything that synchronizes with the owning goroutine — exactly
// the situation var.go's Var.word is in, which is why that field is an
// atomic.Uint64 rather than a plain uint64. count gets the same
// treatment here: entries itself is a fixed-length backing array for the
// whole generation (reset never reslices it, only grow() reallocates,
// and only at a point where nothing foreign can be holding a locator
// into it, §3, §5, §9), so the only thing a foreign resolveOwner touches
// concurrently with this transaction's own appends is count.
type writeSet struct {
	entries  []writeEntry
	count    atomic.Int32
	hasEntry bool // has_writes: at least one entry with mask != 0
}

func newWriteSet() *writeSet {
	return &writeSet{entries: make([]writeEntry, initialRWSetSize)}
}

func (ws *writeSet) reset() {
	ws.count.Store(0)
	ws.hasEntry = false
}

// len is read by resolveOwner from a possibly-foreign goroutine, so it
// goes through the atomic count rather than len(ws.entries).
func (ws *writeSet) len() int { return int(ws.count.Load()) }

func (ws *writeSet) at(i int) *writeEntry { return &ws.entries[i] }

// full reports whether appending one more entry would exceed capacity;
// per §4.5 step 5 this triggers an EXTEND_WS abort instead of growing
// live.
func (ws *writeSet) full() bool {
	return int(ws.count.Load()) == len(ws.entries)
}

// reserve claims the next slot and returns its index. Caller must
// already have checked !full(). The slot is zeroed and count is
// published after, so a foreign resolveOwner that observes the new
// count (through the owning lock word's CAS, which happens only later
// in storeMasked) always sees an index within bounds.
func (ws *writeSet) reserve() int32 {
	idx := ws.count.Load()
	ws.entries[idx] = writeEntry{next: noNext}
	ws.count.Store(idx + 1)
	return idx
}

// unreserve drops the most recently reserved slot, used when a CAS on
// its owning lock word lost the race (§4.5 step 3).
func (ws *writeSet) unreserve(idx int32) { ws.count.Store(idx) }

// grow doubles the write-set capacity. Only safe to call when no owned
// lock anywhere references this write set — i.e. from the rollback
// EXTEND_WS path, after every owned lock has already been released
// (§4.9 step 3, §4.3).
func (ws *writeSet) grow() {
	n := ws.count.Load()
	grown := make([]writeEntry, len(ws.entries)*2)
	copy(grown, ws.entries[:n])
	ws.entries = grown
}
