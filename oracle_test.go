package stm

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// TestMetamorphicAgainstSequentialOracle drives one scripted sequence of
// transfers through two independent implementations of the same
// semantics — a direct in-memory oracle with no protocol at all, and a
// single-threaded run through the engine — and requires the final
// account balances to match exactly. With no concurrent writers the
// engine can never abort or retry, so this isolates protocol-level
// correctness (materialize/commit write-back) from contention handling,
// which the scenario tests in engine_test.go already cover separately.
func TestMetamorphicAgainstSequentialOracle(t *testing.T) {
	const accounts = 16
	const initial = 40
	const rounds = 4000

	type transfer struct{ from, to int }
	rnd := rand.New(rand.NewSource(20260730))
	script := make([]transfer, rounds)
	for i := range script {
		script[i] = transfer{from: rnd.Intn(accounts), to: rnd.Intn(accounts)}
	}

	oracle := make([]uint64, accounts)
	for i := range oracle {
		oracle[i] = initial
	}
	for _, xfer := range script {
		if xfer.from == xfer.to || oracle[xfer.from] == 0 {
			continue
		}
		oracle[xfer.from]--
		oracle[xfer.to]++
	}

	acct := make([]*Var, accounts)
	for i := range acct {
		acct[i] = NewVar(initial)
	}
	runTx(func(txn *Txn) {
		for _, xfer := range script {
			if xfer.from == xfer.to {
				continue
			}
			Atomically(txn, func(txn *Txn) {
				fv := Load(txn, acct[xfer.from])
				if fv == 0 {
					return
				}
				tv := Load(txn, acct[xfer.to])
				Store(txn, acct[xfer.from], fv-1)
				Store(txn, acct[xfer.to], tv+1)
			})
		}
	})

	got := make([]uint64, accounts)
	runTx(func(txn *Txn) {
		Atomically(txn, func(txn *Txn) {
			for i := range acct {
				got[i] = Load(txn, acct[i])
			}
		})
	})

	if diff := cmp.Diff(oracle, got); diff != "" {
		t.Fatalf("engine balances diverged from the sequential oracle (-oracle +engine):\n%s", diff)
	}
}
