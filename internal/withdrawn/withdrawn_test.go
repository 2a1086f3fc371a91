package withdrawn

import (
	"sync"
	"testing"
)

func TestMarkWithdrawnActiveRoundTrip(t *testing.T) {
	tr := New()
	if tr.IsWithdrawn(7) {
		t.Fatalf("expected mui 7 not withdrawn initially")
	}
	tr.MarkAsWithdrawn(7)
	if !tr.IsWithdrawn(7) {
		t.Fatalf("expected mui 7 withdrawn")
	}
	tr.MarkAsActive(7)
	if tr.IsWithdrawn(7) {
		t.Fatalf("expected mui 7 active again")
	}
}

func TestConcurrentMarkWithdrawn(t *testing.T) {
	tr := New()
	var wg sync.WaitGroup
	for i := uint32(0); i < 64; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.MarkAsWithdrawn(i)
		}()
	}
	wg.Wait()
	for i := uint32(0); i < 64; i++ {
		if !tr.IsWithdrawn(i) {
			t.Fatalf("expected mui %d withdrawn after concurrent marks", i)
		}
	}
}
