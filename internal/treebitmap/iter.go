package treebitmap

import (
	"iter"

	"github.com/nlnetlabs/rotonda-store/internal/addrfam"
	"github.com/nlnetlabs/rotonda-store/internal/bitarr"
)

// ChildNibbles is the child-pointer iterator contract of spec.md §4.4:
// every full nibble 0..15 for which this node's ptrbitarr bit is set,
// in increasing nibble-value order.
func (n *StoredNode[M]) ChildNibbles() iter.Seq[uint8] {
	return func(yield func(uint8) bool) {
		for fn := uint8(0); fn < 16; fn++ {
			if n.Node.Ptr.Test(uint(fn)) {
				if !yield(fn) {
					return
				}
			}
		}
	}
}

// PrefixNibbles is the prefix iterator contract of spec.md §4.4: every
// (nibble, nibbleLen) pair for which this node's pfxbitarr bit is set,
// in "nibble-length then nibble value" order -- the same ordering the
// more-specific search algorithm relies on.
func (n *StoredNode[M]) PrefixNibbles() iter.Seq2[uint8, int] {
	return func(yield func(uint8, int) bool) {
		for l := 1; l <= addrfam.StrideLen; l++ {
			for nib := uint8(0); nib < uint8(1)<<uint(l); nib++ {
				if n.Node.Pfx.Test(bitarr.BaseIndex(nib, l)) {
					if !yield(nib, l) {
						return
					}
				}
			}
		}
	}
}

// AllPrefixes walks every stored prefix of the store, default route
// first, then a depth-first descent of the trie in node-iterator order.
// It is the engine behind the public prefixes_iter family.
func (s *Store[M]) AllPrefixes() iter.Seq2[addrfam.PrefixId, *StoredPrefix[M]] {
	return func(yield func(addrfam.PrefixId, *StoredPrefix[M]) bool) {
		if s.defaultRouteExists.Load() {
			rootID := addrfam.PrefixId{AF: s.AF, Len: 0}
			if sp, ok := s.LookupPrefix(rootID); ok {
				if !yield(rootID, sp) {
					return
				}
			}
		}
		root, ok := find[StoredNode[M]](&s.nodeRoots[0], addrfam.Addr{}, 0)
		if !ok {
			return
		}
		s.walkNode(root, 0, addrfam.Addr{}, yield)
	}
}

func (s *Store[M]) walkNode(node *StoredNode[M], boundary int, anchorBits addrfam.Addr, yield func(addrfam.PrefixId, *StoredPrefix[M]) bool) bool {
	for nib, l := range node.PrefixNibbles() {
		plen := boundary + l
		bits := addrfam.Canonicalize(s.AF, setBits(anchorBits, boundary, l, nib), plen)
		if sp, ok := find[StoredPrefix[M]](&s.prefixRoots[plen], bits, plen); ok {
			if !yield(addrfam.PrefixId{AF: s.AF, Bits: bits, Len: plen}, sp) {
				return false
			}
		}
	}
	for fn := range node.ChildNibbles() {
		childID := addrfam.ChildNodeId(addrfam.NodeId{AF: s.AF, Bits: anchorBits, Len: boundary}, fn)
		child, ok := find[StoredNode[M]](&s.nodeRoots[childID.Len], childID.Bits, childID.Len)
		if !ok {
			continue
		}
		if !s.walkNode(child, childID.Len, childID.Bits, yield) {
			return false
		}
	}
	return true
}
