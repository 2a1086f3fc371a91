package addrfam

import "testing"

func TestCanonicalizeZeroesTrailingBits(t *testing.T) {
	var addr Addr
	addr[0] = 0xFF
	addr[1] = 0xFF

	got := Canonicalize(V4, addr, 12)
	if got[0] != 0xFF {
		t.Fatalf("byte 0 = %08b, want 11111111", got[0])
	}
	if got[1] != 0xF0 {
		t.Fatalf("byte 1 = %08b, want 11110000", got[1])
	}
	for i := 2; i < 4; i++ {
		if got[i] != 0 {
			t.Fatalf("byte %d = %08b, want 0", i, got[i])
		}
	}
}

func TestCanonicalizeNoOpAtFullWidth(t *testing.T) {
	var addr Addr
	addr[0] = 0xAB
	got := Canonicalize(V4, addr, 32)
	if got != addr {
		t.Fatalf("full-width canonicalize changed bits: %v != %v", got, addr)
	}
}

func TestExtractBits(t *testing.T) {
	var addr Addr
	addr[0] = 0b10110100
	addr[1] = 0b11000000

	cases := []struct {
		start, width int
		want         uint64
	}{
		{0, 4, 0b1011},
		{4, 4, 0b0100},
		{0, 8, 0b10110100},
		{6, 4, 0b0011}, // low 2 bits of byte0 + high 2 bits of byte1
	}
	for _, c := range cases {
		got := ExtractBits(addr, c.start, c.width)
		if got != c.want {
			t.Errorf("ExtractBits(start=%d,width=%d) = %b, want %b", c.start, c.width, got, c.want)
		}
	}
}

func TestStrideBoundary(t *testing.T) {
	cases := map[int]int{1: 0, 4: 0, 5: 4, 8: 4, 9: 8, 12: 8, 13: 12, 32: 28}
	for length, want := range cases {
		if got := StrideBoundary(length); got != want {
			t.Errorf("StrideBoundary(%d) = %d, want %d", length, got, want)
		}
	}
}

func TestNodeIdForAndChildNodeIdRoundTrip(t *testing.T) {
	p := NewPrefixId(V4, Addr{0b10101100, 0b00010000}, 12)
	id, nibble, nibbleLen := NodeIdFor(p)

	if id.Len != 8 {
		t.Fatalf("NodeIdFor boundary = %d, want 8", id.Len)
	}
	if nibbleLen != 4 {
		t.Fatalf("nibbleLen = %d, want 4", nibbleLen)
	}
	wantNibble := uint8(ExtractBits(p.Bits, 8, 4))
	if nibble != wantNibble {
		t.Fatalf("nibble = %d, want %d", nibble, wantNibble)
	}

	root := NodeId{AF: V4, Len: 0}
	level1 := ChildNodeId(root, uint8(ExtractBits(p.Bits, 0, 4)))
	if level1.Len != 4 {
		t.Fatalf("child len = %d, want 4", level1.Len)
	}
	level2 := ChildNodeId(level1, uint8(ExtractBits(p.Bits, 4, 4)))
	if level2 != id {
		t.Fatalf("descended id = %+v, want %+v", level2, id)
	}
}

func TestStrideNibbleLen(t *testing.T) {
	cases := []struct {
		boundary, length, want int
	}{
		{0, 3, 3},
		{0, 4, 4},
		{4, 4, 0},
		{4, 6, 2},
		{28, 30, 2},
	}
	for _, c := range cases {
		if got := StrideNibbleLen(c.boundary, c.length); got != c.want {
			t.Errorf("StrideNibbleLen(%d,%d) = %d, want %d", c.boundary, c.length, got, c.want)
		}
	}
}
