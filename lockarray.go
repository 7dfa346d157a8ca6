package stm

import (
	"unsafe"

	"github.com/tiancaiamao/wbetl/internal/atomicword"
)

// Tunables (§6). Compile-time, as the spec requires; a config file never
// drives these — see SPEC_FULL.md §2.
const (
	// lockArrayLog is L: the lock array holds 2^L entries.
	lockArrayLog = 20
	lockArraySize = 1 << lockArrayLog
	lockArrayMask = lockArraySize - 1

	// stripeShift is S = word_size_shift + 2 (§3 "Lock array").
	stripeShift = 3 + 2

	// ownedBit marks a lock word as owned (low bit).
	ownedBit uint64 = 1

	// lockBits is the number of low bits that are not part of a free
	// lock's timestamp: 1 owned bit + 3 reserved incarnation bits.
	lockBits = 4

	// maxThreads bounds the owned-lock thread-slot field: 2^threadSlotBits.
	threadSlotBits = 13
	maxThreads     = 1 << threadSlotBits
	threadSlotMask = maxThreads - 1

	initialRWSetSize = 4096
)

// lockTable is the fixed striped array of ownership/version words (§3,
// §4.2). Multiple unrelated addresses may hash to the same stripe; the
// WBETL engine is built to tolerate that false sharing, never to avoid it.
var lockTable [lockArraySize]atomicword.Word

// lockOf returns the address of the stripe lock word covering ptr.
func lockOf(ptr unsafe.Pointer) *atomicword.Word {
	idx := (uintptr(ptr) >> stripeShift) & lockArrayMask
	return &lockTable[idx]
}

func isOwned(l uint64) bool { return l&ownedBit != 0 }

// timestampOf decodes a free lock word's commit timestamp.
func timestampOf(l uint64) uint64 { return l >> lockBits }

// encodeVersion produces a free lock word carrying version v (incarnation
// always zero in this base design, per §3).
func encodeVersion(v uint64) uint64 { return v << lockBits }

// locator identifies a write-set entry owned by a particular thread: the
// index of the descriptor's thread slot, and the entry's index within
// that thread's write-set array. The spec allows either a raw pointer or
// an index into the write-set array for the owned-lock payload (§9
// "Packing pointers into lock words"); Go cannot safely stash a GC'd
// pointer inside a bare integer, so this implementation uses the index
// form, resolved through the bounded (maxThreads) global thread table.
type locator struct {
	threadSlot uint32
	entryIndex uint32
}

func encodeLocator(loc locator) uint64 {
	return ((uint64(loc.entryIndex)<<threadSlotBits | uint64(loc.threadSlot)) << 1) | ownedBit
}

func decodeLocator(l uint64) locator {
	payload := l >> 1
	return locator{
		threadSlot: uint32(payload & threadSlotMask),
		entryIndex: uint32(payload >> threadSlotBits),
	}
}

// resolveOwner returns the write-set entry an owned lock word points to,
// or nil if the owning descriptor is not (or no longer) the one recorded
// — which the caller treats as a foreign owner.
func resolveOwner(l uint64) (*Txn, *writeEntry) {
	loc := decodeLocator(l)
	owner := threadTable.get(loc.threadSlot)
	if owner == nil {
		return nil, nil
	}
	if loc.entryIndex >= uint32(owner.writeSet.len()) {
		return nil, nil
	}
	return owner, owner.writeSet.at(int(loc.entryIndex))
}
