package treebitmap

import (
	"github.com/nlnetlabs/rotonda-store/internal/addrfam"
	"github.com/nlnetlabs/rotonda-store/internal/bitarr"
)

// MatchResult pairs a found prefix's identity with its stored entry.
type MatchResult[M any] struct {
	Prefix addrfam.PrefixId
	Entry  *StoredPrefix[M]
}

// Exact looks up a single (bits, length) prefix via a direct prefix-CHT
// walk; it never touches the trie. Filtering the returned entry's
// records down to one MUI is the caller's job (StoredPrefix.Records).
func (s *Store[M]) Exact(p addrfam.PrefixId) (*StoredPrefix[M], bool) {
	return s.LookupPrefix(p)
}

// LongestMatch walks the trie from the root along addr, returning the
// most specific prefix of length <= maxLen whose pfxbitarr bit is set
// along the path. When muiFilter is non-nil, any node whose NodeSet does
// not contain that MUI stops the descent (spec.md §4.5 hard prune); a
// match already found before that point is still returned.
func (s *Store[M]) LongestMatch(addr addrfam.Addr, maxLen int, muiFilter *uint32) (MatchResult[M], bool) {
	var best MatchResult[M]
	found := false

	if s.defaultRouteExists.Load() {
		if sp, ok := s.LookupPrefix(addrfam.PrefixId{AF: s.AF, Len: 0}); ok {
			best, found = MatchResult[M]{Prefix: addrfam.PrefixId{AF: s.AF, Len: 0}, Entry: sp}, true
		}
	}

	cur := addrfam.NodeId{AF: s.AF, Len: 0}
	for {
		node, ok := find[StoredNode[M]](&s.nodeRoots[cur.Len], cur.Bits, cur.Len)
		if !ok {
			break
		}
		if muiFilter != nil && !node.Next.ContainsMUI(*muiFilter) {
			break
		}

		remaining := maxLen - cur.Len
		if remaining <= 0 {
			break
		}
		width := remaining
		if width > addrfam.StrideLen {
			width = addrfam.StrideLen
		}
		fullNibble := uint8(addrfam.ExtractBits(addr, cur.Len, width))

		for l := width; l >= 1; l-- {
			nib := fullNibble >> uint(width-l)
			if !node.Node.Pfx.Test(bitarr.BaseIndex(nib, l)) {
				continue
			}
			plen := cur.Len + l
			pid := addrfam.PrefixId{AF: s.AF, Bits: addrfam.Canonicalize(s.AF, addr, plen), Len: plen}
			if sp, ok := s.LookupPrefix(pid); ok {
				best, found = MatchResult[M]{Prefix: pid, Entry: sp}, true
			}
			break
		}

		if width < addrfam.StrideLen {
			break
		}
		if !node.Node.Ptr.Test(uint(fullNibble)) {
			break
		}
		cur = addrfam.ChildNodeId(cur, fullNibble)
	}

	return best, found
}

// LessSpecifics walks the prefix-CHT directly, length by length, with no
// trie traversal at all: every strictly-shorter ancestor length of p is
// an independent CHT lookup (spec.md §4.5, "less-specifics").
func (s *Store[M]) LessSpecifics(p addrfam.PrefixId) []MatchResult[M] {
	var out []MatchResult[M]
	for l := 0; l < p.Len; l++ {
		if l == 0 && !s.defaultRouteExists.Load() {
			continue
		}
		bits := addrfam.Canonicalize(s.AF, p.Bits, l)
		if sp, ok := find[StoredPrefix[M]](&s.prefixRoots[l], bits, l); ok {
			out = append(out, MatchResult[M]{Prefix: addrfam.PrefixId{AF: s.AF, Bits: bits, Len: l}, Entry: sp})
		}
	}
	return out
}

// MoreSpecifics returns every stored prefix strictly more specific than
// p, in the node-iterator order of spec.md §4.4 ("nibble-length then
// nibble value"): within one trie node, shorter completions before
// longer ones, and among equal lengths, smaller nibble value first;
// across nodes, parent completions before any descendant's.
func (s *Store[M]) MoreSpecifics(p addrfam.PrefixId, muiFilter *uint32) []MatchResult[M] {
	var out []MatchResult[M]

	boundary := addrfam.StrideBoundary(p.Len)
	if p.Len == 0 {
		boundary = 0
	}
	anchorBits := addrfam.Canonicalize(s.AF, p.Bits, boundary)
	node, ok := find[StoredNode[M]](&s.nodeRoots[boundary], anchorBits, boundary)
	if !ok {
		return out
	}
	if muiFilter != nil && !node.Next.ContainsMUI(*muiFilter) {
		return out
	}

	reqNibble, reqLen := uint8(0), 0
	if p.Len > 0 {
		reqLen = p.Len - boundary
		reqNibble = uint8(addrfam.ExtractBits(p.Bits, boundary, reqLen))
	}

	s.collectMoreSpecifics(node, boundary, anchorBits, reqNibble, reqLen, muiFilter, &out)
	return out
}

func (s *Store[M]) collectMoreSpecifics(node *StoredNode[M], boundary int, anchorBits addrfam.Addr, reqNibble uint8, reqLen int, muiFilter *uint32, out *[]MatchResult[M]) {
	for l := 1; l <= addrfam.StrideLen; l++ {
		if l <= reqLen {
			continue
		}
		for nib := uint8(0); nib < uint8(1)<<uint(l); nib++ {
			if reqLen > 0 && nib>>uint(l-reqLen) != reqNibble {
				continue
			}
			if !node.Node.Pfx.Test(bitarr.BaseIndex(nib, l)) {
				continue
			}
			plen := boundary + l
			bits := setBits(anchorBits, boundary, l, nib)
			pid := addrfam.PrefixId{AF: s.AF, Bits: addrfam.Canonicalize(s.AF, bits, plen), Len: plen}
			if sp, ok := find[StoredPrefix[M]](&s.prefixRoots[plen], pid.Bits, plen); ok {
				*out = append(*out, MatchResult[M]{Prefix: pid, Entry: sp})
			}
		}
	}

	for fn := uint8(0); fn < 16; fn++ {
		if reqLen > 0 && fn>>uint(addrfam.StrideLen-reqLen) != reqNibble {
			continue
		}
		if !node.Node.Ptr.Test(uint(fn)) {
			continue
		}
		childID := addrfam.ChildNodeId(addrfam.NodeId{AF: s.AF, Bits: anchorBits, Len: boundary}, fn)
		child, ok := find[StoredNode[M]](&s.nodeRoots[childID.Len], childID.Bits, childID.Len)
		if !ok {
			continue
		}
		if muiFilter != nil && !child.Next.ContainsMUI(*muiFilter) {
			continue
		}
		s.collectMoreSpecifics(child, childID.Len, childID.Bits, 0, 0, muiFilter, out)
	}
}

// setBits ORs the low width bits of value into b starting at bit offset
// start (MSB-first). start is always a multiple of StrideLen and
// width <= StrideLen, so the span never crosses a byte boundary.
func setBits(b addrfam.Addr, start, width int, value uint8) addrfam.Addr {
	byteIdx := start / 8
	if byteIdx >= len(b) {
		return b
	}
	bitOff := start % 8
	shift := 8 - bitOff - width
	b[byteIdx] |= value << uint(shift)
	return b
}
