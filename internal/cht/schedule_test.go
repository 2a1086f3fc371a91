package cht

import "testing"

func TestScheduleMonotoneEndsAtLength(t *testing.T) {
	for length := 1; length <= 128; length++ {
		ks := Schedule(length)
		if len(ks) == 0 {
			t.Fatalf("length %d: empty schedule", length)
		}
		if ks[len(ks)-1] != length {
			t.Fatalf("length %d: schedule does not end at length: %v", length, ks)
		}
		prev := 0
		for _, k := range ks {
			if k < prev {
				t.Fatalf("length %d: schedule not monotone: %v", length, ks)
			}
			prev = k
		}
	}
}

func TestScheduleShortLengthsArePerfect(t *testing.T) {
	for length := 1; length < 4; length++ {
		ks := Schedule(length)
		if len(ks) != 1 || ks[0] != length {
			t.Fatalf("length %d: expected single-level perfect schedule, got %v", length, ks)
		}
	}
}

func TestScheduleCascadesAtAnchors(t *testing.T) {
	ks := Schedule(30)
	want := []int{12, 24, 28, 30}
	if len(ks) != len(want) {
		t.Fatalf("Schedule(30) = %v, want %v", ks, want)
	}
	for i := range want {
		if ks[i] != want[i] {
			t.Fatalf("Schedule(30) = %v, want %v", ks, want)
		}
	}
}

func TestIndexWithinBucketSize(t *testing.T) {
	for length := 1; length <= 32; length++ {
		for level := 0; level < Levels(length); level++ {
			size := BucketSize(length, level)
			var addr [16]byte
			for b := range addr {
				addr[b] = 0xAB
			}
			idx := Index(addr, length, level)
			if idx < 0 || idx >= size {
				t.Fatalf("length=%d level=%d idx=%d out of bucket size %d", length, level, idx, size)
			}
		}
	}
}
