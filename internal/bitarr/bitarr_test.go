package bitarr

import (
	"sync"
	"testing"
)

func TestPtrMergeMonotone(t *testing.T) {
	var p Ptr
	p.MergeWith(1 << 3)
	if !p.Test(3) {
		t.Fatalf("expected bit 3 set")
	}
	p.MergeWith(1 << 5)
	if !p.Test(3) || !p.Test(5) {
		t.Fatalf("merge must keep previously-set bits")
	}
}

func TestPfxMergeAlreadySet(t *testing.T) {
	var p Pfx
	_, already := p.MergeWith(1 << 4)
	if already {
		t.Fatalf("first merge must report not-already-set")
	}
	_, already = p.MergeWith(1 << 4)
	if !already {
		t.Fatalf("second identical merge must report already-set")
	}
}

func TestPtrMergeConcurrent(t *testing.T) {
	var p Ptr
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.MergeWith(1 << uint(i))
		}()
	}
	wg.Wait()
	if p.Load() != 0xFFFF {
		t.Fatalf("expected all 16 bits set, got %016b", p.Load())
	}
}

func TestBaseIndex(t *testing.T) {
	cases := []struct {
		nibble, nibbleLen int
		want              uint
	}{
		{0, 1, 1},
		{1, 1, 2},
		{0, 2, 3},
		{3, 2, 6},
		{0, 4, 15},
		{15, 4, 30},
	}
	for _, c := range cases {
		if got := BaseIndex(uint8(c.nibble), c.nibbleLen); got != c.want {
			t.Errorf("BaseIndex(%d,%d) = %d, want %d", c.nibble, c.nibbleLen, got, c.want)
		}
	}
}
