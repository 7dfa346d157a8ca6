package stm

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// Scenario 6 (§8, unit-level): the rollover task zeroes the clock and
// every lock word, and a barrier waits for in-flight transactions to
// drain before running it.
func TestRolloverBarrierDrainsActiveTransactions(t *testing.T) {
	a := NewVar(0)
	globalClock.fetchInc() // move the clock off zero so reset is observable
	lockTable[7] = encodeVersion(123)

	inTxn := make(chan struct{})
	release := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		runTx(func(txn *Txn) {
			Atomically(txn, func(txn *Txn) {
				Store(txn, a, 1)
				close(inTxn)
				<-release
			})
		})
	}()

	<-inTxn

	barrierDone := make(chan struct{})
	go func() {
		quiesceGlobal.barrier(quiesceRollover, rolloverClock)
		close(barrierDone)
	}()

	// The barrier must not complete while the transaction above is
	// still active.
	select {
	case <-barrierDone:
		t.Fatal("barrier completed before the active transaction finished")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	wg.Wait()
	<-barrierDone

	require.Equal(t, uint64(0), GetClock())
	require.Equal(t, uint64(0), lockTable[7])
}

func TestWaitQuiescentDrainsActiveTransactions(t *testing.T) {
	a := NewVar(0)
	inTxn := make(chan struct{})
	release := make(chan struct{})

	go runTx(func(txn *Txn) {
		Atomically(txn, func(txn *Txn) {
			Store(txn, a, 1)
			close(inTxn)
			<-release
		})
	})

	<-inTxn
	waitDone := make(chan struct{})
	go func() {
		WaitQuiescent()
		close(waitDone)
	}()

	select {
	case <-waitDone:
		t.Fatal("WaitQuiescent returned while a transaction was still active")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	<-waitDone
}

func TestCheckQuiescePausesNewTransactions(t *testing.T) {
	txn := InitThread()
	defer ExitThread(txn)

	quiesceGlobal.state.store(quiescePause)
	resumed := make(chan struct{})
	go func() {
		start(txn, Attr{})
		close(resumed)
		Commit(txn)
	}()

	select {
	case <-resumed:
		t.Fatal("start() resumed while a pause was in effect")
	case <-time.After(20 * time.Millisecond):
	}

	quiesceGlobal.state.store(quiesceNormal)
	<-resumed
}
