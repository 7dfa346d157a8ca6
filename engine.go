// Package stm (this file) implements the WBETL protocol engine: invisible
// read, encounter-time-locked write, extend, validate, commit and
// rollback (§4.4–§4.9). This is the hard part the rest of the package
// hangs off of.
package stm

import (
	"github.com/tiancaiamao/wbetl/internal/atomicword"
)

const allOnes uint64 = ^uint64(0)

// prepare resets a descriptor's logs and installs a fresh start/end
// snapshot, handling clock rollover if needed (§4.10).
func prepare(t *Txn) {
	t.readSet.reset()
	t.writeSet.reset()

	for {
		now := globalClock.get()
		t.start = now
		t.end = now
		if t.start < versionMax {
			break
		}
		quiesceGlobal.barrier(quiesceRollover, rolloverClock)
		metricsGlobal.rollover()
		logger.Warn("clock rollover", "thread", t.threadSlot)
	}

	t.setStatus(StatusActive)
	quiesceGlobal.enterActive()
	checkQuiesce(t)
}

// start begins (or, for a nested call, joins) a transaction (§4.12,
// §6 "start"). It returns true when this call owns the outermost
// transaction and therefore a retry environment.
func start(t *Txn, attr Attr) bool {
	t.nesting++
	if t.nesting > 1 {
		t.outermost = false
		return false
	}
	t.attr = attr
	t.env.generation++
	t.outermost = true
	prepare(t)
	fireCallback(hookStart, t)
	return true
}

// walkChain follows a write-set chain starting at head looking for addr,
// returning the matching entry, or nil plus the chain's tail entry if
// addr is not present (§4.4 step 2, §4.5 step 2).
func walkChain(ws *writeSet, head *writeEntry, addr *Var) (entry *writeEntry, tail *writeEntry) {
	e := head
	for {
		if e.addr == addr {
			return e, e
		}
		if e.next == noNext {
			return nil, e
		}
		e = ws.at(int(e.next))
	}
}

// load performs an invisible read (§4.4).
func load(t *Txn, v *Var) uint64 {
	lock := v.lock()
	for {
		l := atomicword.Load(lock)

		if isOwned(l) {
			owner, entry := resolveOwner(l)
			if owner != t {
				abort(t, RWConflict)
			}
			// Our own write set: walk the chain for this stripe.
			got, _ := walkChain(t.writeSet, entry, v)
			if got != nil {
				if got.mask == 0 {
					return v.raw()
				}
				return got.value
			}
			return v.raw()
		}

		// Free: read value, then re-check the lock didn't change
		// underneath us (§4.4 step 3 commentary).
		val := v.raw()
		l2 := atomicword.Load(lock)
		if l2 != l {
			continue
		}

		version := timestampOf(l2)
		if version > t.end {
			if !extend(t) {
				abort(t, ValRead)
			}
			// Re-check after extend: the stripe may have changed
			// while we were validating.
			l3 := atomicword.Load(lock)
			if l3 != l2 {
				continue
			}
		}

		if !t.attr.ReadOnly {
			t.readSet.append(version, lock)
		}
		return val
	}
}

// materialize fills in the bits of value/mask not already covered by
// mask, reading base (the entry's prior value, if any) or a fresh load
// of *addr when there is no prior value to draw from (§4.5 step 2/7,
// §9 Open Questions — this resolves the "prime, then sub-word write"
// ambiguity by always materializing from memory at merge time).
func materialize(addr *Var, base uint64, haveBase bool, value, mask uint64) uint64 {
	if mask == allOnes {
		return value
	}
	var background uint64
	if haveBase {
		background = base
	} else {
		background = addr.raw()
	}
	return (background &^ mask) | (value & mask)
}

// storeMasked performs an encounter-time-locked write (§4.5).
func storeMasked(t *Txn, v *Var, value, mask uint64) {
	lock := v.lock()

	for {
		l := atomicword.Load(lock)

		if isOwned(l) {
			owner, entry := resolveOwner(l)
			if owner != t {
				abort(t, WWConflict)
			}
			found, tail := walkChain(t.writeSet, entry, v)
			if found != nil {
				if mask == 0 {
					return // read-for-write priming against our own entry
				}
				newVal := materialize(v, found.value, found.mask != 0, value, mask)
				found.value = newVal
				found.mask |= mask
				t.writeSet.hasEntry = true
				return
			}
			appendChained(t, v, value, mask, tail.version, lock, tail)
			return
		}

		version := timestampOf(l)
		if version > t.end && t.readSet.hasRead(lock) {
			abort(t, ValWrite)
		}

		if t.writeSet.full() {
			abort(t, ExtendWS)
		}

		idx := t.writeSet.reserve()
		entry := t.writeSet.at(int(idx))
		newVal := materialize(v, 0, false, value, mask)
		*entry = writeEntry{
			addr:    v,
			value:   newVal,
			mask:    mask,
			version: version,
			lock:    lock,
			next:    noNext,
		}

		newLock := encodeLocator(locator{threadSlot: t.threadSlot, entryIndex: uint32(idx)})
		if !atomicword.CAS(lock, l, newLock) {
			// Someone else raced us for the stripe; drop the
			// tentative entry and restart from the top.
			t.writeSet.unreserve(idx)
			continue
		}
		if mask != 0 {
			t.writeSet.hasEntry = true
		}
		return
	}
}

// appendChained links a new entry for v onto the chain whose current
// tail is tail, inheriting the tail's version (§4.5 step 2 "append ...
// inheriting version from the tail entry").
func appendChained(t *Txn, v *Var, value, mask, inheritedVersion uint64, lock *atomicword.Word, tail *writeEntry) {
	if t.writeSet.full() {
		abort(t, ExtendWS)
	}
	newVal := materialize(v, 0, false, value, mask)
	idx := t.writeSet.reserve()
	*t.writeSet.at(int(idx)) = writeEntry{
		addr:    v,
		value:   newVal,
		mask:    mask,
		version: inheritedVersion,
		lock:    lock,
		next:    noNext,
	}
	tail.next = idx
	if mask != 0 {
		t.writeSet.hasEntry = true
	}
}

// store is the unmasked convenience form of storeMasked (§6 "store").
func store(t *Txn, v *Var, value uint64) {
	storeMasked(t, v, value, allOnes)
}

// validate walks the read set, returning false as soon as any entry is
// no longer consistent with the current lock state (§4.6).
func validate(t *Txn) bool {
	for i := range t.readSet.entries {
		r := &t.readSet.entries[i]
		l := atomicword.Load(r.lock)
		if isOwned(l) {
			owner, _ := resolveOwner(l)
			if owner != t {
				return false
			}
			continue
		}
		if timestampOf(l) != r.version {
			return false
		}
	}
	return true
}

// extend moves t.end forward to the current clock if every read-set
// entry still validates against it (§4.7).
func extend(t *Txn) bool {
	now := globalClock.get()
	if !validate(t) {
		return false
	}
	t.end = now
	metricsGlobal.extend()
	return true
}

// Commit attempts to commit t's current transaction (§4.8, §6 "commit").
// It returns true on success. On failure it behaves like any other
// abort: rollback runs and this call never returns — it panics with
// *retrySignal, caught by the Atomically retry loop. With NoRetry set the
// signal is marked noRetry and the descriptor is left ABORTED instead of
// being re-prepared.
func Commit(t *Txn) bool {
	if t.nesting > 1 {
		t.nesting--
		return true // nested commit: outer transaction still owns this
	}

	if t.writeSet.len() == 0 || !t.writeSet.hasEntry {
		t.setStatus(StatusCommitted)
		quiesceGlobal.exitActive()
		t.nesting = 0
		fireCallback(hookCommit, t)
		metricsGlobal.commit()
		return true
	}

	t.setStatus(StatusCommitting)
	fireCallback(hookPrecommit, t)

	ts := globalClock.fetchInc() + 1

	if t.start != ts-1 {
		if !validate(t) {
			abort(t, Validate)
		}
	}

	// Write-back (§4.8 step 4): plain atomic stores are sufficient here
	// because readers re-check the lock after reading the value and
	// restart on change; correctness comes from the release-store that
	// follows, not from these stores individually.
	for i := 0; i < t.writeSet.len(); i++ {
		e := t.writeSet.at(i)
		if e.mask != 0 {
			e.addr.rawStore(e.value)
		}
	}

	// Release locks (§4.8 step 5): only a chain's tail publishes the
	// new version; interior entries are left untouched so that all
	// chain writes happen-before the lock reopening.
	newLockVal := encodeVersion(ts)
	for i := 0; i < t.writeSet.len(); i++ {
		e := t.writeSet.at(i)
		if e.next == noNext {
			atomicword.StoreRelease(e.lock, newLockVal)
		}
	}

	t.setStatus(StatusCommitted)
	quiesceGlobal.exitActive()
	t.nesting = 0
	fireCallback(hookCommit, t)
	metricsGlobal.commit()
	return true
}

// Abort requests an explicit, user-initiated abort (§6 "abort"). Like an
// internal abort, this never returns: it panics with *retrySignal whether
// or not a retry is due.
func Abort(t *Txn, reason Reason) {
	abort(t, reason|Explicit)
}

// abort performs the rollback protocol and, unless retry is suppressed,
// transfers control back to the retry environment by panicking with a
// *retrySignal that Atomically's deferred recover catches (§9 "Non-local
// jump for retry" — Go's idiomatic stand-in for setjmp/longjmp).
func abort(t *Txn, reason Reason) {
	t.setStatus(StatusAborting)

	// Release/restore every stripe this transaction owns, tail only,
	// mirroring commit's chain discipline (§4.9 step 1).
	for i := 0; i < t.writeSet.len(); i++ {
		e := t.writeSet.at(i)
		if e.next == noNext {
			atomicword.StoreRelease(e.lock, encodeVersion(e.version))
		}
	}
	atomicword.Fence()

	t.setStatus(StatusAborted)
	quiesceGlobal.exitActive()
	t.abortReason = reason

	if reason.Has(ExtendWS) {
		// Safe now: every lock we owned was just released above, so
		// nothing foreign can be resolving an index into our array.
		t.writeSet.grow()
	}

	t.nesting = 1
	fireCallback(hookAbort, t)
	metricsGlobal.abort(reason)

	if t.attr.NoRetry || reason.Has(NoRetry) {
		t.nesting = 0
		panic(&retrySignal{t: t, reason: reason, noRetry: true})
	}

	// Re-prepare before jumping back (§4.9 step 6): the retry point is
	// resumed already ACTIVE with a fresh snapshot, exactly as if the
	// source's longjmp landed just past the original start() call.
	prepare(t)
	panic(&retrySignal{t: t, reason: reason})
}

// retrySignal is the value abort panics with; Atomically recovers it to
// re-run the user's transaction body with a fresh snapshot, or — when
// noRetry is set — to return the ABORTED status to the caller instead of
// retrying.
type retrySignal struct {
	t       *Txn
	reason  Reason
	noRetry bool
}
