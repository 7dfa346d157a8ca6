package stm

import goerrors "github.com/agilira/go-errors"

// Reason is the abort-reason bitfield (§6 "Abort reasons"). It never
// becomes a Go error on the hot path — it travels inside the
// *retrySignal panic that Atomically recovers — but newFatalError below
// reuses the same
// structured-error library for the small set of conditions that really
// are program bugs rather than ordinary contention.
type Reason uint32

const (
	RWConflict       Reason = 1 << iota // read observed a stripe owned by another txn
	WWConflict                          // write observed a stripe owned by another txn
	ValRead                             // extend during read failed
	ValWrite                            // stale read snapshot at acquisition time
	Validate                            // commit-time validation failed
	ExtendWS                            // write-set full; rollback reallocates, then retries
	Irrevocable                         // an irrevocable transaction is in progress
	Explicit                            // user-requested abort
	NoRetry                             // suppress the automatic retry jump
	PathInstrumented                    // advise the retry target to re-enter instrumented code
)

func (r Reason) Has(bit Reason) bool { return r&bit != 0 }

func (r Reason) String() string {
	names := []struct {
		bit  Reason
		name string
	}{
		{RWConflict, "RW_CONFLICT"},
		{WWConflict, "WW_CONFLICT"},
		{ValRead, "VAL_READ"},
		{ValWrite, "VAL_WRITE"},
		{Validate, "VALIDATE"},
		{ExtendWS, "EXTEND_WS"},
		{Irrevocable, "IRREVOCABLE"},
		{Explicit, "EXPLICIT"},
		{NoRetry, "NO_RETRY"},
		{PathInstrumented, "PATH_INSTRUMENTED"},
	}
	out := ""
	for _, n := range names {
		if r.Has(n.bit) {
			if out != "" {
				out += "|"
			}
			out += n.name
		}
	}
	if out == "" {
		return "NONE"
	}
	return out
}

// Error codes for fatal misuse (§7): allocation/table exhaustion and
// invoking not-implemented entry points. These are reported with
// github.com/agilira/go-errors, following agilira-balios/errors.go's
// pattern of one ErrorCode per failure class plus structured context —
// never as part of the abort-reason bitmask, which is reserved for
// ordinary, retried contention.
const (
	ErrCodeTooManyThreads   goerrors.ErrorCode = "WBETL_TOO_MANY_THREADS"
	ErrCodeTooManySpecific  goerrors.ErrorCode = "WBETL_TOO_MANY_SPECIFIC_SLOTS"
	ErrCodeTooManyCallbacks goerrors.ErrorCode = "WBETL_TOO_MANY_CALLBACKS"
	ErrCodeIrrevocable      goerrors.ErrorCode = "WBETL_IRREVOCABLE_UNSUPPORTED"
	ErrCodeCommitFromAbort  goerrors.ErrorCode = "WBETL_COMMIT_FROM_ABORTED"
)

const (
	msgTooManyThreads   = "maximum thread count exceeded"
	msgTooManySpecific  = "maximum specific-slot count exceeded"
	msgTooManyCallbacks = "maximum callback count exceeded for this hook"
	msgIrrevocable      = "irrevocable transactions are not implemented in this core"
	msgCommitFromAbort  = "commit called on a descriptor in ABORTED state"
)

func newFatalError(code goerrors.ErrorCode, msg string, context map[string]interface{}) error {
	if context == nil {
		return goerrors.New(code, msg)
	}
	return goerrors.NewWithContext(code, msg, context)
}
