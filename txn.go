package stm

import "sync/atomic"

// Status is the small per-descriptor state machine (§3, §7).
type Status int32

const (
	StatusIdle Status = iota
	StatusActive
	StatusCommitting
	StatusCommitted
	StatusAborting
	StatusAborted
	StatusKilled
	StatusIrrevocable
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusActive:
		return "active"
	case StatusCommitting:
		return "committing"
	case StatusCommitted:
		return "committed"
	case StatusAborting:
		return "aborting"
	case StatusAborted:
		return "aborted"
	case StatusKilled:
		return "killed"
	case StatusIrrevocable:
		return "irrevocable"
	default:
		return "unknown"
	}
}

// activity reports whether s counts as a live (started) transaction for
// the quiescence subsystem (§4.11) — any status other than idle.
func (s Status) activity() bool { return s != StatusIdle }

// Attr configures a transaction (§6 "Attributes").
type Attr struct {
	// ReadOnly skips read-set bookkeeping entirely; a read-only
	// transaction that reaches commit with an empty write set always
	// succeeds (§8 "Read-only commits never fail").
	ReadOnly bool
	// NoRetry suppresses the automatic retry jump on abort: the
	// descriptor is left ABORTED for the caller to observe (§4.9 step 5).
	NoRetry bool
}

const maxSpecific = 7

// Txn is a thread's transaction descriptor (§3 "Transaction descriptor").
// Exactly one goroutine owns a Txn at a time; it is obtained via
// InitThread and never shared.
type Txn struct {
	status atomic.Int32

	start uint64
	end   uint64

	readSet  *readSet
	writeSet *writeSet

	nesting int
	attr    Attr

	// abortReason records the reason bitmask of the last rollback. The
	// same value travels to the retry loop in Atomically inside the
	// *retrySignal panic (the Go stand-in for the source's setjmp/
	// longjmp retry environment, §9 "Non-local jump for retry").
	abortReason Reason

	// outermost is the outermost-start sentinel: only the outermost
	// Start call owns a retry environment (§4.12, §6 "Retry
	// environment"); nested Start calls observe outermost == false.
	outermost bool

	threadSlot uint32

	specific [maxSpecific]any

	env *retryEnv
}

type retryEnv struct {
	// generation increments on every Start, guarding against a stale
	// *retryEnv escaping its transaction's lifetime.
	generation uint64
}

// InitThread creates a transaction descriptor for the calling goroutine
// (§6 "init_thread"). Each goroutine must call ExitThread when done.
func InitThread() *Txn {
	t := &Txn{
		readSet:  newReadSet(),
		writeSet: newWriteSet(),
		env:      &retryEnv{},
	}
	t.status.Store(int32(StatusIdle))

	slot, ok := threadTable.acquire(t)
	if !ok {
		panic(newFatalError(ErrCodeTooManyThreads, msgTooManyThreads, nil))
	}
	t.threadSlot = slot

	quiesceGlobal.enterThread(t)
	fireCallback(hookInit, t)
	return t
}

// ExitThread releases t's resources. t must not be ACTIVE.
func ExitThread(t *Txn) {
	fireCallback(hookExit, t)
	quiesceGlobal.exitThread(t)
	threadTable.release(t.threadSlot)
}

func (t *Txn) Status() Status { return Status(t.status.Load()) }

func (t *Txn) setStatus(s Status) { t.status.Store(int32(s)) }

// Active reports whether t is currently inside a transaction (§6 "active").
func (t *Txn) Active() bool { return t.Status() == StatusActive }

// Aborted reports whether t's last transaction aborted (§6 "aborted").
func (t *Txn) Aborted() bool { return t.Status() == StatusAborted }

// Killed reports whether a contention manager killed t. The base core
// never kills transactions (§9 Open Questions); always false.
func (t *Txn) Killed() bool { return t.Status() == StatusKilled }

// Irrevocable reports whether t is running irrevocably. Irrevocability is
// not implemented in this core (§1 scope); always false.
func (t *Txn) Irrevocable() bool { return false }

// GetEnv returns t's retry-environment handle (§6 "get_env"). Nested
// Start calls return nil (§4.12).
func (t *Txn) GetEnv() *retryEnv {
	if !t.outermost {
		return nil
	}
	return t.env
}

// CreateSpecific allocates a thread-specific slot key (§6
// "create_specific"). There are at most maxSpecific slots; once the
// global counter is exhausted every subsequent call fails.
func CreateSpecific() (int, error) {
	return specificRegistry.create()
}

func (t *Txn) SetSpecific(key int, ptr any) { t.specific[key] = ptr }
func (t *Txn) GetSpecific(key int) any      { return t.specific[key] }
