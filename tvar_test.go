package stm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTVarRoundTripsPredeclaredTypes(t *testing.T) {
	ti := NewTVar(int32(-7))
	tb := NewTVar(true)
	tu := NewTVar(uint16(400))

	runTx(func(txn *Txn) {
		Atomically(txn, func(txn *Txn) {
			require.Equal(t, int32(-7), ti.Load(txn))
			require.True(t, tb.Load(txn))
			require.Equal(t, uint16(400), tu.Load(txn))

			ti.Store(txn, 9)
			tb.Store(txn, false)
		})
	})

	runTx(func(txn *Txn) {
		Atomically(txn, func(txn *Txn) {
			require.Equal(t, int32(9), ti.Load(txn))
			require.False(t, tb.Load(txn))
		})
	})
}

// score is a defined type over int64, distinct from the predeclared
// int64 that Numeric's ~int64 term also admits.
type score int64

func TestTVarRoundTripsDefinedNumericType(t *testing.T) {
	tv := NewTVar(score(42))

	runTx(func(txn *Txn) {
		Atomically(txn, func(txn *Txn) {
			require.Equal(t, score(42), tv.Load(txn))
			tv.Store(txn, score(-5))
		})
	})

	runTx(func(txn *Txn) {
		Atomically(txn, func(txn *Txn) {
			require.Equal(t, score(-5), tv.Load(txn))
		})
	})
}
