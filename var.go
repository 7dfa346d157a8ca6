package stm

import (
	"sync/atomic"
	"unsafe"

	"github.com/tiancaiamao/wbetl/internal/atomicword"
)

// Var is a single transactional machine word (§3 "Word"). It carries no
// lock of its own — ownership and versioning live in the global striped
// lockTable, keyed by Var's address, exactly as §3/§4.2 describe. The
// underlying storage is atomic only so that a data-race detector never
// flags the plain write-back store of §4.8 step 4; the WBETL protocol,
// not the hardware, is what makes that store safe to read without
// holding the stripe lock.
type Var struct {
	word atomic.Uint64
}

// NewVar creates a transactional word initialized to v.
func NewVar(v uint64) *Var {
	var nv Var
	nv.word.Store(v)
	return &nv
}

func (v *Var) lock() *atomicword.Word {
	return lockOf(unsafe.Pointer(&v.word))
}

// raw loads the current word directly, bypassing the transactional
// protocol. Used only by the engine itself once it has already decided
// (via the stripe lock) that a plain load is admissible.
func (v *Var) raw() uint64 { return v.word.Load() }

func (v *Var) rawStore(val uint64) { v.word.Store(val) }
