package treebitmap

import (
	"sync/atomic"

	"github.com/nlnetlabs/rotonda-store/internal/addrfam"
	"github.com/nlnetlabs/rotonda-store/internal/bitarr"
	"github.com/nlnetlabs/rotonda-store/internal/multimap"
	"github.com/nlnetlabs/rotonda-store/internal/rerr"
)

// Store is the single-address-family treebitmap + CHT storage engine.
// It is safe for concurrent readers and writers: the trie skeleton is
// lock-free and append-only, and the only blocking is the per-prefix
// MultiMap mutex and the per-bucket MUI-index lock.
type Store[M any] struct {
	AF addrfam.AF

	nodeRoots   []Bucket[StoredNode[M]]
	prefixRoots []Bucket[StoredPrefix[M]]

	defaultRouteExists atomic.Bool

	nodeCount        atomic.Int64
	prefixCountByLen []atomic.Int64
}

// NewStore allocates a Store for the given address family. Every Bucket
// is zero-value-ready, so this only sizes the per-length root arrays.
func NewStore[M any](af addrfam.AF) *Store[M] {
	bits := af.Bits()
	return &Store[M]{
		AF:               af,
		nodeRoots:        make([]Bucket[StoredNode[M]], bits+1),
		prefixRoots:      make([]Bucket[StoredPrefix[M]], bits+1),
		prefixCountByLen: make([]atomic.Int64, bits+1),
	}
}

// UpsertReport is the result of a successful Insert.
type UpsertReport struct {
	AlreadyExisted bool
	MUICountAfter  int
	// RetryCount is the total number of CAS attempts that lost a race
	// across every bitmap merge performed by this Insert (original
	// implementation's acc_retry_count, spec.md §9 supplemented feature).
	RetryCount int
}

// Insert stores a record{mui, ltime, status, meta} at prefix, creating
// every trie node and CHT slot the path requires, and propagates mui
// into the sub-tree MUI index of every node visited along the descent
// (spec.md §4.4 steps 1-3).
func (s *Store[M]) Insert(p addrfam.PrefixId, mui uint32, ltime uint64, status multimap.RouteStatus, meta M) (UpsertReport, error) {
	if p.Len > s.AF.Bits() {
		return UpsertReport{}, rerr.New(rerr.PrefixLengthInvalid, "")
	}

	var retries int

	if p.Len == 0 {
		s.defaultRouteExists.Store(true)
		s.nodeRoots[0].AddMUI(mui)
	} else {
		final := addrfam.StrideBoundary(p.Len)
		cur := addrfam.NodeId{AF: p.AF, Len: 0}

		for cur.Len < final {
			fullNibble := uint8(addrfam.ExtractBits(p.Bits, cur.Len, addrfam.StrideLen))

			node, created, err := findOrCreate[StoredNode[M]](&s.nodeRoots[cur.Len], cur.Bits, cur.Len, func() StoredNode[M] {
				return StoredNode[M]{ID: cur}
			})
			if err != nil {
				return UpsertReport{}, err
			}
			if created {
				s.nodeCount.Add(1)
			}
			node.Next.AddMUI(mui)
			_, n := node.Node.Ptr.MergeWithRetries(uint16(1) << fullNibble)
			retries += n

			cur = addrfam.ChildNodeId(cur, fullNibble)
		}

		nibbleLen := addrfam.StrideNibbleLen(final, p.Len)
		nibble := uint8(addrfam.ExtractBits(p.Bits, final, nibbleLen))

		node, created, err := findOrCreate[StoredNode[M]](&s.nodeRoots[final], cur.Bits, final, func() StoredNode[M] {
			return StoredNode[M]{ID: cur}
		})
		if err != nil {
			return UpsertReport{}, err
		}
		if created {
			s.nodeCount.Add(1)
		}
		node.Next.AddMUI(mui)
		_, _, n := node.Node.Pfx.MergeWithRetries(uint32(1) << bitarr.BaseIndex(nibble, nibbleLen))
		retries += n
	}

	sp, createdPrefix, err := s.findOrCreatePrefix(p)
	if err != nil {
		return UpsertReport{}, err
	}
	s.prefixRoots[p.Len].AddMUI(mui)

	prev, newLen := sp.Records.Upsert(mui, multimap.Value[M]{Meta: meta, LTime: ltime, Status: status})
	if createdPrefix {
		s.prefixCountByLen[p.Len].Add(1)
	}
	sp.MarkPathSelectionOutdated()

	return UpsertReport{AlreadyExisted: prev != nil, MUICountAfter: newLen, RetryCount: retries}, nil
}

func (s *Store[M]) findOrCreatePrefix(p addrfam.PrefixId) (*StoredPrefix[M], bool, error) {
	return findOrCreate[StoredPrefix[M]](&s.prefixRoots[p.Len], p.Bits, p.Len, func() StoredPrefix[M] {
		return newStoredPrefix[M](p)
	})
}

// LookupPrefix returns the StoredPrefix for an exact (bits, length), if
// it has ever been inserted.
func (s *Store[M]) LookupPrefix(p addrfam.PrefixId) (*StoredPrefix[M], bool) {
	if p.Len == 0 && !s.defaultRouteExists.Load() {
		return nil, false
	}
	return find[StoredPrefix[M]](&s.prefixRoots[p.Len], p.Bits, p.Len)
}

// LookupNode returns the StoredNode for an exact NodeId, if it exists.
func (s *Store[M]) LookupNode(id addrfam.NodeId) (*StoredNode[M], bool) {
	return find[StoredNode[M]](&s.nodeRoots[id.Len], id.Bits, id.Len)
}

// NodesCount returns the number of trie nodes created so far (may lag
// under concurrent writers).
func (s *Store[M]) NodesCount() int64 {
	return s.nodeCount.Load()
}

// PrefixesCount returns the number of distinct prefixes stored, for a
// specific length, or summed over all lengths if length < 0.
func (s *Store[M]) PrefixesCount(length int) int64 {
	if length >= 0 {
		if length >= len(s.prefixCountByLen) {
			return 0
		}
		return s.prefixCountByLen[length].Load()
	}
	var total int64
	for i := range s.prefixCountByLen {
		total += s.prefixCountByLen[i].Load()
	}
	return total
}

// DefaultRouteExists reports whether 0/0 has ever been inserted.
func (s *Store[M]) DefaultRouteExists() bool {
	return s.defaultRouteExists.Load()
}
