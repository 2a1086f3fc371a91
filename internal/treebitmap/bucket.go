// Package treebitmap is the hot subsystem: the lock-free treebitmap
// (compressed multi-bit trie with per-node atomic bitmaps) together with
// its chained-hash node/prefix storage and per-bucket RoaringBitmap MUI
// index (spec.md §4.3, §4.4, §4.5).
package treebitmap

import (
	"sync"
	"sync/atomic"

	"github.com/RoaringBitmap/roaring"

	"github.com/nlnetlabs/rotonda-store/internal/addrfam"
	"github.com/nlnetlabs/rotonda-store/internal/cht"
	"github.com/nlnetlabs/rotonda-store/internal/oncebox"
	"github.com/nlnetlabs/rotonda-store/internal/rerr"
)

// Bucket is a CHT bucket: a NodeSet or PrefixSet. Its zero value is
// ready to use -- its cell array and its MUI bitmap are created lazily,
// the first time they are touched: the cell array via compare-and-swap,
// the MUI bitmap under muiMu.
type Bucket[T any] struct {
	cellsPtr atomic.Pointer[oncebox.Slice[slot[T]]]

	muiMu sync.RWMutex
	muis  *roaring.Bitmap
}

// slot is one occupied cell of a Bucket: the stored value (a StoredNode
// or StoredPrefix) plus its identity, keyed by the canonical address
// bits and length it was created for.
type slot[T any] struct {
	bits  addrfam.Addr
	ln    int
	value T
}

func (b *Bucket[T]) ensureCells(size int) *oncebox.Slice[slot[T]] {
	if p := b.cellsPtr.Load(); p != nil {
		return p
	}
	fresh := oncebox.New[slot[T]](size)
	if b.cellsPtr.CompareAndSwap(nil, fresh) {
		return fresh
	}
	return b.cellsPtr.Load()
}

// AddMUI ORs mui into this bucket's sub-tree MUI index.
func (b *Bucket[T]) AddMUI(mui uint32) {
	if b == nil {
		return
	}
	b.muiMu.Lock()
	defer b.muiMu.Unlock()
	if b.muis == nil {
		b.muis = roaring.New()
	}
	b.muis.Add(mui)
}

// ContainsMUI reports whether mui has been recorded anywhere in the
// sub-tree rooted at this bucket. A stale false-negative is possible
// only within the bounded window of a concurrent insert still in
// flight (spec.md invariant 3); it never false-positives a removed MUI,
// since the index itself is append-only.
func (b *Bucket[T]) ContainsMUI(mui uint32) bool {
	if b == nil {
		return false
	}
	b.muiMu.RLock()
	defer b.muiMu.RUnlock()
	return b.muis != nil && b.muis.Contains(mui)
}

// Cells exposes the live cell array for iteration (nil if untouched).
func (b *Bucket[T]) Cells() *oncebox.Slice[slot[T]] {
	return b.cellsPtr.Load()
}

// chainLink is implemented by *StoredNode[M] and *StoredPrefix[M]: it
// hands back the embedded Bucket used to resolve a hash collision one
// level deeper in the same root-by-length chain. Go's pointer-method
// generic constraint trick (T's method set lives on *T) lets find/
// findOrCreate stay generic over both stored-value types.
type chainLink[T any] interface {
	*T
	nextBucket() *Bucket[T]
}

// find walks the chain starting at root looking for an exact (bits,
// length) match. It never creates anything.
func find[T any, PT chainLink[T]](root *Bucket[T], bits addrfam.Addr, length int) (*T, bool) {
	b := root
	for level := 0; ; level++ {
		if level >= cht.Levels(length) {
			return nil, false
		}
		cells := b.cellsPtr.Load()
		if cells == nil {
			return nil, false
		}
		idx := cht.Index(bits, length, level)
		cell, ok := cells.Get(idx)
		if !ok {
			return nil, false
		}
		if cell.ln == length && cell.bits == bits {
			return &cell.value, true
		}
		nb := PT(&cell.value).nextBucket()
		if nb == nil {
			return nil, false
		}
		b = nb
	}
}

// findOrCreate walks the chain starting at root, creating the bucket
// array and the value at (bits, length) as needed. mkValue is called
// only when a level's slot is found empty; a call that then loses that
// slot's race to a different id descends and may call it again one
// level deeper. created reports
// whether this call won the race to create the value.
func findOrCreate[T any, PT chainLink[T]](root *Bucket[T], bits addrfam.Addr, length int, mkValue func() T) (value *T, created bool, err error) {
	b := root
	for level := 0; ; level++ {
		if level >= cht.Levels(length) {
			return nil, false, rerr.New(rerr.NodeCreationMaxRetryError, "collision chain exhausted")
		}
		size := cht.BucketSize(length, level)
		cells := b.ensureCells(size)
		idx := cht.Index(bits, length, level)

		got, inserted := cells.GetOrInit(idx, func() *slot[T] {
			return &slot[T]{bits: bits, ln: length, value: mkValue()}
		})
		if got.ln == length && got.bits == bits {
			return &got.value, inserted, nil
		}
		// lost the slot to a different id: descend into its nested
		// collision bucket and keep looking.
		nb := PT(&got.value).nextBucket()
		if nb == nil {
			return nil, false, rerr.New(rerr.NodeCreationMaxRetryError, "no nested bucket available for collision")
		}
		b = nb
	}
}
