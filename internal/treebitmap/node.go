package treebitmap

import (
	"sync/atomic"

	"github.com/nlnetlabs/rotonda-store/internal/addrfam"
	"github.com/nlnetlabs/rotonda-store/internal/bitarr"
	"github.com/nlnetlabs/rotonda-store/internal/multimap"
)

// Node is the TreeBitMapNode of spec.md §4: a pair of atomic bitmaps
// encoding, for one 4-bit stride, which child pointers and which
// prefix-endings exist. Bits are only ever OR-merged in, never cleared.
type Node struct {
	Ptr bitarr.Ptr
	Pfx bitarr.Pfx
}

// StoredNode is a trie node together with the CHT bucket used to resolve
// hash collisions among other nodes of the same stride-start length, and
// the per-sub-tree MUI index associated with that bucket.
type StoredNode[M any] struct {
	ID   addrfam.NodeId
	Node Node

	// Next is the NodeSet for the next collision level of this same
	// root-by-length chain. It doubles as the sub-tree MUI index: every
	// MUI inserted anywhere below this node in the trie is OR-ed into
	// Next's bitmap during descent (spec.md §4.4 step 3).
	Next Bucket[StoredNode[M]]
}

func (n *StoredNode[M]) nextBucket() *Bucket[StoredNode[M]] {
	return &n.Next
}

// PathSelection is the cached best/backup MUI pair for one prefix, with
// a staleness tag. best/backup are -1 when absent.
type PathSelection struct {
	Best, Backup int64
	Stale        bool
}

// StoredPrefix is a prefix together with its record multimap, its cached
// path selection, and the CHT bucket used to resolve hash collisions
// among other prefixes of the same length.
type StoredPrefix[M any] struct {
	ID      addrfam.PrefixId
	Records *multimap.MultiMap[M]

	pathSelection atomic.Pointer[PathSelection]

	// Next is the PrefixSet for the next collision level of this same
	// root-by-length chain.
	Next Bucket[StoredPrefix[M]]
}

func (p *StoredPrefix[M]) nextBucket() *Bucket[StoredPrefix[M]] {
	return &p.Next
}

func newStoredPrefix[M any](id addrfam.PrefixId) StoredPrefix[M] {
	sp := StoredPrefix[M]{ID: id, Records: multimap.New[M]()}
	sp.pathSelection.Store(&PathSelection{Best: -1, Backup: -1})
	return sp
}

// LoadPathSelection returns the currently-cached best/backup pair.
func (p *StoredPrefix[M]) LoadPathSelection() PathSelection {
	if ps := p.pathSelection.Load(); ps != nil {
		return *ps
	}
	return PathSelection{Best: -1, Backup: -1}
}

// StorePathSelection publishes a freshly computed best/backup pair,
// clearing the stale flag.
func (p *StoredPrefix[M]) StorePathSelection(best, backup int64) {
	p.pathSelection.Store(&PathSelection{Best: best, Backup: backup})
}

// MarkPathSelectionOutdated sets the stale flag without touching
// best/backup, so readers can still use the (possibly-stale) cached
// values while a recompute is pending. If a concurrent
// StorePathSelection publishes a new pair first, the CAS here fails and
// the loop retries against that new pair, so the flag ends up set on
// whichever pair is current.
func (p *StoredPrefix[M]) MarkPathSelectionOutdated() {
	for {
		old := p.pathSelection.Load()
		if old == nil || old.Stale {
			return
		}
		marked := &PathSelection{Best: old.Best, Backup: old.Backup, Stale: true}
		if p.pathSelection.CompareAndSwap(old, marked) {
			return
		}
	}
}

// IsPathSelectionOutdated reports the current staleness tag.
func (p *StoredPrefix[M]) IsPathSelectionOutdated() bool {
	ps := p.pathSelection.Load()
	return ps != nil && ps.Stale
}
