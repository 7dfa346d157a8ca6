package stm

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tiancaiamao/wbetl/internal/atomicword"
)

func TestClockFetchIncAdvancesAndReturnsPrevious(t *testing.T) {
	globalClock.reset()
	prev := globalClock.fetchInc()
	require.Equal(t, uint64(0), prev)
	require.Equal(t, uint64(1), globalClock.get())
}

func TestClockNeedsRollover(t *testing.T) {
	globalClock.reset()
	require.False(t, globalClock.needsRollover())
	atomicword.Store(&globalClock.v, versionMax)
	require.True(t, globalClock.needsRollover())
	globalClock.reset()
}

// Scenario 6 (§8): a transaction whose prepare() observes the clock at
// versionMax drives the quiescence barrier itself, zeroing the clock
// before proceeding, and other in-flight transactions are unharmed.
func TestStartTriggersRolloverWhenClockAtCeiling(t *testing.T) {
	globalClock.reset()
	atomicword.Store(&globalClock.v, versionMax)
	defer globalClock.reset()

	a := NewVar(0)
	runTx(func(txn *Txn) {
		Atomically(txn, func(txn *Txn) {
			Store(txn, a, 1)
		})
	})

	require.Less(t, GetClock(), versionMax)

	runTx(func(txn *Txn) {
		Atomically(txn, func(txn *Txn) {
			require.Equal(t, uint64(1), Load(txn, a))
		})
	})
}
