// This file is the public entry layer (§2 "thin dispatch from
// load/store/start/commit/abort to the engine", §6 "External
// interfaces"). It adds no protocol of its own: every exported
// operation here is a one-line forward into engine.go, plus the
// Atomically retry loop that stands in for the source's setjmp-based
// re-entry point (§9 "Non-local jump for retry").
package stm

// Init performs process-wide setup. The base core needs none beyond
// what package-level var initializers already do; it exists so callers
// coming from the source API have a symmetric Init/Exit pair to call
// (§6 "init").
func Init() {}

// Exit tears down process-wide state. A no-op in this core, kept for
// API symmetry with Init (§6 "exit").
func Exit() {}

// Start begins a transaction on t with the given attributes (§6
// "start"). It returns an opaque retry-environment handle for the
// outermost call in a (possibly nested) sequence, and nil for a nested
// call (§4.12).
func Start(t *Txn, attr Attr) *retryEnv {
	if start(t, attr) {
		return t.env
	}
	return nil
}

// Load reads v's current value under transaction t (§6 "load").
func Load(t *Txn, v *Var) uint64 { return load(t, v) }

// Store writes val to v under transaction t, unmasked (§6 "store").
func Store(t *Txn, v *Var, val uint64) { store(t, v, val) }

// StoreMasked writes the bits of val selected by mask to v under
// transaction t, leaving the other bits as whatever they already were
// in this transaction's view (§6 "store_masked").
func StoreMasked(t *Txn, v *Var, val, mask uint64) { storeMasked(t, v, val, mask) }

// Atomically is the ready-made retry driver: it runs body repeatedly
// under fresh transactions until one commits. This is the Go stand-in
// for the source's save/restore-and-jump retry macro (§9): every abort,
// whether raised by Load, Store, Commit or Abort, is expressed as an
// ordinary panic carrying a *retrySignal, and Atomically's recover loop
// is the only place in this package that catches it. A caller who drives
// Start/Commit/Abort by hand (rather than through Atomically) must
// recover that panic itself and can then check t.Aborted().
//
// Atomically always starts with a fresh Attr{}, regardless of what a
// prior AtomicallyWith call on this same descriptor left behind — t.attr
// is not sticky across independent Atomically/AtomicallyWith calls (§6
// "Attributes" apply to one outermost transaction, not to the
// descriptor for its whole lifetime).
func Atomically(t *Txn, body func(t *Txn)) {
	AtomicallyWith(t, Attr{}, body)
}

// runOnce drives exactly one attempt and reports whether the caller
// should retry. needStart is false on a retried attempt, since abort()
// re-prepares the descriptor itself before jumping back (§4.9 step 6).
func runOnce(t *Txn, body func(t *Txn), needStart bool) (retryNeeded bool) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		sig, ok := r.(*retrySignal)
		if !ok {
			panic(r) // not ours: propagate the real panic
		}
		retryNeeded = !sig.noRetry
	}()

	if needStart {
		Start(t, t.attr)
	}
	body(t)
	Commit(t)
	return false
}

// AtomicallyWith is Atomically with explicit attributes for the
// outermost transaction (read-only fast path, or NoRetry to observe a
// single abort rather than loop). attr is set fresh on every call and
// held only for the duration of this retry loop; it never leaks into a
// later Atomically/AtomicallyWith call on the same descriptor.
func AtomicallyWith(t *Txn, attr Attr, body func(t *Txn)) {
	t.attr = attr
	needStart := true
	for {
		retry := runOnce(t, body, needStart)
		if !retry {
			return
		}
		// abort() already re-prepared the descriptor (§4.9 step 6)
		// before unwinding here, so the retried attempt must not call
		// Start again — that would double-count nesting. It also left
		// t.attr untouched, so the retried attempt keeps this call's
		// attributes rather than picking up a stale value.
		needStart = false
	}
}
