package stm

import "sync"

// maxCallbacks bounds the number of registrations per hook (§6
// "Tunables"). Exceeding it is a fatal condition reported to the caller,
// never a transactional abort (§7).
const maxCallbacks = 7

type hook int

const (
	hookInit hook = iota
	hookExit
	hookStart
	hookPrecommit
	hookCommit
	hookAbort
	numHooks
)

// Callback pairs a function with an opaque argument, the Go stand-in for
// the source's registered function/argument pairs (§9 "Callbacks as
// registered function/argument pairs").
type Callback func(t *Txn, arg interface{})

type callbackEntry struct {
	fn  Callback
	arg interface{}
}

var callbacks struct {
	mu    sync.Mutex
	hooks [numHooks][]callbackEntry
}

// RegisterCallbacks installs up to one callback per hook (§6
// "register_callbacks"); pass nil to skip a hook. It may be called
// multiple times to register several callbacks per hook, in which case
// invocation order is registration order (§9). Returns an error once a
// hook's table (maxCallbacks) is full.
func RegisterCallbacks(onInit, onExit, onStart, onPrecommit, onCommit, onAbort Callback, arg interface{}) error {
	fns := [numHooks]Callback{onInit, onExit, onStart, onPrecommit, onCommit, onAbort}

	callbacks.mu.Lock()
	defer callbacks.mu.Unlock()

	for h, fn := range fns {
		if fn == nil {
			continue
		}
		if len(callbacks.hooks[h]) >= maxCallbacks {
			return newFatalError(ErrCodeTooManyCallbacks, msgTooManyCallbacks, map[string]interface{}{
				"hook": hook(h),
			})
		}
		callbacks.hooks[h] = append(callbacks.hooks[h], callbackEntry{fn: fn, arg: arg})
	}
	return nil
}

func fireCallback(h hook, t *Txn) {
	callbacks.mu.Lock()
	// Copy under the lock, call outside it: a callback may itself touch
	// the registry (e.g. register more callbacks from on_init).
	entries := append([]callbackEntry(nil), callbacks.hooks[h]...)
	callbacks.mu.Unlock()

	for _, e := range entries {
		e.fn(t, e.arg)
	}
}

func (h hook) String() string {
	switch h {
	case hookInit:
		return "init"
	case hookExit:
		return "exit"
	case hookStart:
		return "start"
	case hookPrecommit:
		return "precommit"
	case hookCommit:
		return "commit"
	case hookAbort:
		return "abort"
	default:
		return "unknown"
	}
}
