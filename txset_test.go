package stm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadSetResetDropsEntriesKeepsCapacity(t *testing.T) {
	rs := newReadSet()
	var dummy atomicWordForTest
	rs.append(1, &dummy.w)
	rs.append(2, &dummy.w)
	require.Equal(t, 2, rs.len())

	capBefore := cap(rs.entries)
	rs.reset()
	require.Equal(t, 0, rs.len())
	require.Equal(t, capBefore, cap(rs.entries))
}

func TestReadSetHasRead(t *testing.T) {
	rs := newReadSet()
	var l1, l2 atomicWordForTest
	rs.append(5, &l1.w)
	require.True(t, rs.hasRead(&l1.w))
	require.False(t, rs.hasRead(&l2.w))
}

func TestWriteSetReserveAndAt(t *testing.T) {
	ws := newWriteSet()
	idx := ws.reserve()
	require.Equal(t, int32(0), idx)
	e := ws.at(int(idx))
	require.Equal(t, noNext, e.next)
	require.False(t, ws.hasEntry)
}

func TestWriteSetFullAfterCapacityExhausted(t *testing.T) {
	ws := &writeSet{entries: make([]writeEntry, 2)}
	require.False(t, ws.full())
	ws.reserve()
	require.False(t, ws.full())
	ws.reserve()
	require.True(t, ws.full())
}

func TestWriteSetGrowDoublesCapacityPreservingEntries(t *testing.T) {
	ws := &writeSet{entries: make([]writeEntry, 2)}
	idx := ws.reserve()
	ws.at(int(idx)).value = 77
	ws.grow()
	require.Equal(t, 4, cap(ws.entries))
	require.Equal(t, 1, ws.len())
	require.Equal(t, uint64(77), ws.at(int(idx)).value)
}

func TestWriteSetUnreserveDropsTentativeEntry(t *testing.T) {
	ws := newWriteSet()
	idx := ws.reserve()
	require.Equal(t, 1, ws.len())
	ws.unreserve(idx)
	require.Equal(t, 0, ws.len())
}

func TestWriteSetResetClearsHasEntry(t *testing.T) {
	ws := newWriteSet()
	ws.hasEntry = true
	ws.reserve()
	ws.reset()
	require.Equal(t, 0, ws.len())
	require.False(t, ws.hasEntry)
}

// atomicWordForTest gives read-set tests a stable, distinct *Word to
// key entries on without pulling in a full Var/lock-table stripe.
type atomicWordForTest struct{ w uint64 }
