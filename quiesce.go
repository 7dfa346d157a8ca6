package stm

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// quiesceState encodes the three states of §4.11.
type quiesceState int32

const (
	quiesceNormal   quiesceState = 0
	quiesceRollover quiesceState = 1 // clock/lock-array reset in progress
	quiescePause    quiesceState = 2 // external "pause all transactions" request
)

// quiesceNode links a registered descriptor into the live list (§4.11
// "head pointer for a linked list of live descriptors"). The list and
// the registered counter are maintained under mu by enterThread and
// exitThread only; barrier and WaitQuiescent drain the separate active
// counter, and the hot read/write/commit/rollback path never touches it.
type quiesceNode struct {
	t    *Txn
	next *quiesceNode
}

// quiescence is the global pause/drain barrier used for clock rollover,
// write-set enlargement in other WBETL-family designs, and external
// "wait for all current transactions to finish" callers.
type quiescence struct {
	mu   sync.Mutex
	cond *sync.Cond

	state quiesceState32

	registered int64        // threads-registered counter
	head       *quiesceNode // live descriptor list, protected by mu

	active atomic.Int64 // currently-ACTIVE transaction count
}

// quiesceState32 is a tiny atomic.Int32 wrapper so quiescence.state reads
// don't need a type assertion at every call site.
type quiesceState32 struct{ v atomic.Int32 }

func (s *quiesceState32) load() quiesceState      { return quiesceState(s.v.Load()) }
func (s *quiesceState32) store(v quiesceState)     { s.v.Store(int32(v)) }

var quiesceGlobal = newQuiescence()

func newQuiescence() *quiescence {
	q := &quiescence{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// enterThread registers t as a live descriptor.
func (q *quiescence) enterThread(t *Txn) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.head = &quiesceNode{t: t, next: q.head}
	q.registered++
}

// exitThread unregisters t. If a barrier is waiting, broadcast: removing
// a thread can never increase the active count, so it can only help a
// pending barrier converge.
func (q *quiescence) exitThread(t *Txn) {
	q.mu.Lock()
	var prev *quiesceNode
	for n := q.head; n != nil; n = n.next {
		if n.t == t {
			if prev == nil {
				q.head = n.next
			} else {
				prev.next = n.next
			}
			q.registered--
			break
		}
		prev = n
	}
	waiting := q.state.load() != quiesceNormal
	q.mu.Unlock()
	if waiting {
		q.cond.Broadcast()
	}
}

// enterActive/exitActive track how many descriptors currently sit in
// StatusActive, the thing a barrier actually needs to drain to zero.
// These are plain atomics: ordinary transactions must never block on
// the quiescence mutex (§5 "Suspension points").
func (q *quiescence) enterActive() {
	q.active.Add(1)
}

func (q *quiescence) exitActive() {
	if q.active.Add(-1) == 0 && q.state.load() != quiesceNormal {
		q.cond.Broadcast()
	}
}

// barrier runs f exactly once, after every other active transaction
// has drained, with q.state set to st for the duration (§4.11). Only
// callable from a goroutine whose own descriptor, if it has one, is not
// counted as ACTIVE (WaitQuiescent calls it with no descriptor at all).
func (q *quiescence) barrier(st quiesceState, f func()) {
	q.mu.Lock()
	q.state.store(st)
	for q.active.Load() > 0 {
		q.cond.Wait()
	}
	f()
	q.state.store(quiesceNormal)
	q.mu.Unlock()
	q.cond.Broadcast()
}

// checkQuiesce is called immediately after a descriptor becomes ACTIVE,
// before it touches any lock (§4.11). If an external pause is in effect
// it steps t back to IDLE, busy-waits for the pause to clear, and
// restores ACTIVE, reporting that it did so.
func checkQuiesce(t *Txn) bool {
	if quiesceGlobal.state.load() != quiescePause {
		return false
	}
	t.setStatus(StatusIdle)
	quiesceGlobal.exitActive()
	for quiesceGlobal.state.load() == quiescePause {
		runtime.Gosched()
	}
	quiesceGlobal.enterActive()
	t.setStatus(StatusActive)
	return true
}

// WaitQuiescent blocks the calling goroutine until every other currently
// active transaction has committed or aborted (§4.11 use-case (c)).
func WaitQuiescent() {
	quiesceGlobal.barrier(quiescePause, func() {})
}

// rolloverClock is the task §4.10 runs via the quiescence barrier when
// the global clock approaches its ceiling: it zeroes the clock and
// every lock word, which is only safe once no transaction holds a
// snapshot or an owned lock against the old epoch.
func rolloverClock() {
	globalClock.reset()
	for i := range lockTable {
		atomic.StoreUint64(&lockTable[i], 0)
	}
}
