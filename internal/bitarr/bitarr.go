// Package bitarr provides the fixed-width atomic bitmaps that back every
// trie node: a 16-bit ptrbitarr (child existence) and a 32-bit pfxbitarr
// (prefix-ending existence). Both are append-only: the only mutators are
// MergeWith and MergeWithRetries, which OR-in new bits with a
// compare-and-swap retry loop.
// Bits are never cleared, which is what lets readers walk the trie
// without ever observing a bit disappear.
package bitarr

import "sync/atomic"

// Ptr is the 16-bit atomic bitmap of child-pointer existence for one
// stride (one bit per full nibble value, 0..15).
type Ptr struct {
	bits atomic.Uint32 // only the low 16 bits are meaningful
}

// Load returns the current bitmap.
func (p *Ptr) Load() uint16 {
	return uint16(p.bits.Load())
}

// Test reports whether bit i is set.
func (p *Ptr) Test(i uint) bool {
	return p.Load()&(1<<i) != 0
}

// MergeWith ORs newBits into the bitmap with a CAS retry loop and returns
// the resulting bitmap. It never clears a bit.
func (p *Ptr) MergeWith(newBits uint16) uint16 {
	for {
		old := p.bits.Load()
		merged := old | uint32(newBits)
		if merged == old {
			return uint16(old)
		}
		if p.bits.CompareAndSwap(old, merged) {
			return uint16(merged)
		}
	}
}

// MergeWithRetries behaves like MergeWith but also reports how many CAS
// attempts lost the race, for callers that surface retry counts (e.g.
// UpsertReport.RetryCount).
func (p *Ptr) MergeWithRetries(newBits uint16) (result uint16, retries int) {
	for {
		old := p.bits.Load()
		merged := old | uint32(newBits)
		if merged == old {
			return uint16(old), retries
		}
		if p.bits.CompareAndSwap(old, merged) {
			return uint16(merged), retries
		}
		retries++
	}
}

// Pfx is the 32-bit atomic bitmap of prefix-ending existence for one
// stride: bit (1<<nibbleLen)-1+nibble set iff a prefix ending at that
// (nibble, nibbleLen) pair exists, for nibbleLen in 1..=4.
type Pfx struct {
	bits atomic.Uint32
}

// Load returns the current bitmap.
func (p *Pfx) Load() uint32 {
	return p.bits.Load()
}

// Test reports whether bit i is set.
func (p *Pfx) Test(i uint) bool {
	return p.Load()&(1<<i) != 0
}

// MergeWith ORs newBits into the bitmap with a CAS retry loop and returns
// (resultingBitmap, alreadySet) where alreadySet reports whether every bit
// of newBits was already present before the merge.
func (p *Pfx) MergeWith(newBits uint32) (merged uint32, alreadySet bool) {
	for {
		old := p.bits.Load()
		if old&newBits == newBits {
			return old, true
		}
		merged = old | newBits
		if p.bits.CompareAndSwap(old, merged) {
			return merged, false
		}
	}
}

// MergeWithRetries behaves like MergeWith but also reports how many CAS
// attempts lost the race.
func (p *Pfx) MergeWithRetries(newBits uint32) (merged uint32, alreadySet bool, retries int) {
	for {
		old := p.bits.Load()
		if old&newBits == newBits {
			return old, true, retries
		}
		merged = old | newBits
		if p.bits.CompareAndSwap(old, merged) {
			return merged, false, retries
		}
		retries++
	}
}

// BaseIndex returns the pfxbitarr bit offset for a (nibble, nibbleLen) pair,
// nibbleLen in 1..=4, nibble in 0..(1<<nibbleLen)-1.
func BaseIndex(nibble uint8, nibbleLen int) uint {
	return (uint(1)<<uint(nibbleLen) - 1) + uint(nibble)
}
