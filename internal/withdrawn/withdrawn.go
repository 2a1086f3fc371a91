// Package withdrawn implements the RIB-wide withdrawn-MUI tracker: a
// copy-on-write RoaringBitmap published via compare-and-swap. Readers
// load the current bitmap once and test against that snapshot, which is
// the Go stand-in for spec.md §5's epoch-pinned read of a
// crossbeam-style Atomic<RoaringBitmap> -- the garbage collector makes
// deferred reclamation of the old bitmap unnecessary.
package withdrawn

import (
	"sync/atomic"

	"github.com/RoaringBitmap/roaring"
)

// Tracker is a RIB-wide, lock-free set of withdrawn MUIs.
type Tracker struct {
	bm atomic.Pointer[roaring.Bitmap]
}

// New returns an empty Tracker.
func New() *Tracker {
	t := &Tracker{}
	t.bm.Store(roaring.New())
	return t
}

// IsWithdrawn reports whether mui is currently in the withdrawn set.
// Wait-free: a single atomic load plus a read against the loaded
// snapshot.
func (t *Tracker) IsWithdrawn(mui uint32) bool {
	return t.bm.Load().Contains(mui)
}

// MarkAsWithdrawn adds mui to the withdrawn set. Linearizable via CAS
// retry on the published pointer.
func (t *Tracker) MarkAsWithdrawn(mui uint32) {
	for {
		old := t.bm.Load()
		if old.Contains(mui) {
			return
		}
		next := old.Clone()
		next.Add(mui)
		if t.bm.CompareAndSwap(old, next) {
			return
		}
	}
}

// MarkAsActive removes mui from the withdrawn set (the inverse of
// MarkAsWithdrawn).
func (t *Tracker) MarkAsActive(mui uint32) {
	for {
		old := t.bm.Load()
		if !old.Contains(mui) {
			return
		}
		next := old.Clone()
		next.Remove(mui)
		if t.bm.CompareAndSwap(old, next) {
			return
		}
	}
}

// Snapshot returns the current withdrawn bitmap. Callers that need to
// test many MUIs against a single consistent view (e.g. a more-specifics
// scan) should take one snapshot and query it repeatedly rather than
// calling IsWithdrawn per MUI, so the view doesn't shift mid-scan.
func (t *Tracker) Snapshot() *roaring.Bitmap {
	return t.bm.Load()
}
