// Package addrfam holds the address-family-parametric primitives shared
// by the node-CHT, prefix-CHT and the treebitmap navigator: the
// canonical PrefixId/NodeId representation, the 4-bit stride
// decomposition, and generic bit-extraction over an address's byte
// representation (used both for nibble math and for the CHT hash
// function, which is "extract k-prev_k bits starting at bit prev_k").
package addrfam

import "fmt"

// AF identifies an address family.
type AF uint8

const (
	V4 AF = iota
	V6
)

// Bits is the address width in bits for the family.
func (af AF) Bits() int {
	if af == V4 {
		return 32
	}
	return 128
}

func (af AF) String() string {
	if af == V4 {
		return "v4"
	}
	return "v6"
}

// StrideLen is the fixed per-level stride width, in bits.
const StrideLen = 4

// Addr is the canonical byte representation of an address: the first
// af.Bits()/8 bytes are meaningful, trailing bytes are always zero. v4
// addresses use the first 4 bytes, v6 uses all 16.
type Addr [16]byte

// PrefixId is the pair (address bits, length). Bits beyond Len must be
// zero (canonical form, invariant 2 of the data model).
type PrefixId struct {
	AF   AF
	Bits Addr
	Len  int
}

// NodeId identifies a position in the trie: all prefixes sharing the
// first Len bits of Bits live in the subtree rooted here.
type NodeId struct {
	AF   AF
	Bits Addr
	Len  int
}

// Canonicalize zeroes every bit beyond length in addr, for the given AF.
func Canonicalize(af AF, addr Addr, length int) Addr {
	bits := af.Bits()
	if length >= bits {
		return addr
	}
	out := addr
	// zero whole bytes after the boundary byte
	byteIdx := length / 8
	bitOff := length % 8
	if bitOff != 0 {
		mask := byte(0xFF << uint(8-bitOff))
		out[byteIdx] &= mask
		byteIdx++
	}
	for ; byteIdx < bits/8; byteIdx++ {
		out[byteIdx] = 0
	}
	return out
}

// NewPrefixId builds a canonical PrefixId.
func NewPrefixId(af AF, addr Addr, length int) PrefixId {
	return PrefixId{AF: af, Bits: Canonicalize(af, addr, length), Len: length}
}

func (p PrefixId) String() string {
	return fmt.Sprintf("%s/%d", p.AF, p.Len)
}

// ExtractBits reads `width` bits starting at bit offset `start` (0-indexed
// from the most significant bit of addr) and returns them right-aligned
// in the low `width` bits of the result. width must be <= 56 so the
// 8-byte sliding window below always covers the requested span.
func ExtractBits(addr Addr, start, width int) uint64 {
	if width == 0 {
		return 0
	}
	byteIdx := start / 8
	bitOff := start % 8

	var window uint64
	for i := 0; i < 8; i++ {
		var b byte
		if byteIdx+i < len(addr) {
			b = addr[byteIdx+i]
		}
		window = window<<8 | uint64(b)
	}
	shift := 64 - bitOff - width
	return (window >> uint(shift)) & (uint64(1)<<uint(width) - 1)
}

// StrideBoundary returns the largest multiple of StrideLen that is
// strictly less than the smallest multiple of StrideLen covering len,
// i.e. the start-length of the stride that contains bit position len-1.
// For len=0 it is undefined (the default route is handled out of band).
func StrideBoundary(length int) int {
	strides := (length + StrideLen - 1) / StrideLen
	if strides == 0 {
		return 0
	}
	return (strides-1)*StrideLen
}

// NodeIdFor returns the NodeId of the trie node whose stride covers the
// final bits of prefix P (length L > 0), and the bit-span (nibble,
// nibbleLen) of P within that stride.
func NodeIdFor(p PrefixId) (id NodeId, nibble uint8, nibbleLen int) {
	boundary := StrideBoundary(p.Len)
	id = NodeId{AF: p.AF, Bits: Canonicalize(p.AF, p.Bits, boundary), Len: boundary}
	nibbleLen = p.Len - boundary
	nibble = uint8(ExtractBits(p.Bits, boundary, nibbleLen))
	return
}

// ChildNodeId returns the NodeId of the child reached by descending one
// stride from id along nibble (a full 4-bit nibble). id.Len is always a
// multiple of StrideLen(4), so the nibble always lands wholly within one
// byte, at either its high or low half.
func ChildNodeId(id NodeId, nibble uint8) NodeId {
	newLen := id.Len + StrideLen
	bits := id.Bits
	byteIdx := id.Len / 8
	if byteIdx < len(bits) {
		if id.Len%8 == 0 {
			bits[byteIdx] |= nibble << 4
		} else {
			bits[byteIdx] |= nibble & 0x0F
		}
	}
	return NodeId{AF: id.AF, Bits: Canonicalize(id.AF, bits, newLen), Len: newLen}
}

// StrideNibbleLen returns the number of prefix-ending bits available in
// the stride starting at boundary for a prefix of total length L: it is
// min(StrideLen, L-boundary), i.e. the stride may be partially filled on
// the final, non-full stride of a prefix shorter than a multiple of 4.
func StrideNibbleLen(boundary, length int) int {
	n := length - boundary
	if n > StrideLen {
		n = StrideLen
	}
	return n
}
