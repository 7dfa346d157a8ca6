// Package stm implements the concurrency engine of a word-based software
// transactional memory library: a global logical clock, a striped
// ownership/version lock array, per-transaction read/write logs, and the
// Write-Back Encounter-Time-Locking (WBETL) read/write/validate/extend/
// commit/rollback protocol.
//
// A transaction is run with Atomically:
//
//	t := stm.InitThread()
//	defer stm.ExitThread(t)
//
//	balance := stm.NewTVar(100)
//	stm.Atomically(t, func(t *stm.Txn) {
//		v := balance.Load(t)
//		balance.Store(t, v-10)
//	})
//
// Every committed transaction appears to execute atomically at a single
// instant (opacity): live, uncommitted transactions only ever observe
// committed-consistent snapshots of memory, conflicts are resolved by
// aborting and retrying, and Atomically re-runs the closure with a fresh
// snapshot until one attempt commits.
//
// Out of scope for this core: durability, multi-word atomics wider than
// one machine word, nested transactions with independent commit (only
// flat nesting), visible/reader-tracked reads, a real contention
// manager, and irrevocability.
package stm
