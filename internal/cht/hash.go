package cht

import "github.com/nlnetlabs/rotonda-store/internal/addrfam"

// Index computes the CHT slot index for id.Bits at the given collision
// level of a prefix/node of this length: the k_level-k_{level-1} bits
// immediately following the previous level's consumed bits.
func Index(bits addrfam.Addr, length, level int) int {
	prev := PrevBits(length, level)
	width := BucketBits(length, level)
	if width <= 0 {
		return 0
	}
	return int(addrfam.ExtractBits(bits, prev, width))
}
