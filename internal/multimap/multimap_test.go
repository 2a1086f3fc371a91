package multimap

import "testing"

type intMeta int

func (m intMeta) Less(other intMeta) bool { return m < other }
func (m intMeta) Clone() intMeta          { return m }

func TestUpsertAndGet(t *testing.T) {
	mm := New[intMeta]()
	prev, n := mm.Upsert(1, Value[intMeta]{Meta: 42, LTime: 1, Status: Active})
	if prev != nil {
		t.Fatalf("expected no previous value")
	}
	if n != 1 {
		t.Fatalf("expected len 1, got %d", n)
	}
	rec, ok := mm.GetForMUI(1, false)
	if !ok || rec.Meta != 42 {
		t.Fatalf("unexpected record %+v ok=%v", rec, ok)
	}
}

func TestGetForMUIRespectsWithdrawn(t *testing.T) {
	mm := New[intMeta]()
	mm.Upsert(1, Value[intMeta]{Meta: 1, Status: Withdrawn})
	if _, ok := mm.GetForMUI(1, false); ok {
		t.Fatalf("withdrawn record must not be visible without includeWithdrawn")
	}
	if _, ok := mm.GetForMUI(1, true); !ok {
		t.Fatalf("withdrawn record must be visible with includeWithdrawn")
	}
}

func TestAsRecordsWithRewrittenStatusDoesNotMutateStore(t *testing.T) {
	mm := New[intMeta]()
	mm.Upsert(7, Value[intMeta]{Meta: 1, Status: Active})

	recs := mm.AsRecordsWithRewrittenStatus(func(mui uint32) bool { return mui == 7 }, Withdrawn)
	if len(recs) != 1 || recs[0].Status != Withdrawn {
		t.Fatalf("expected rewritten status Withdrawn, got %+v", recs)
	}

	rec, ok := mm.GetForMUI(7, false)
	if !ok || rec.Status != Active {
		t.Fatalf("store must still report Active, got %+v ok=%v", rec, ok)
	}
}

func TestMarkActiveWithdrawnRoundTrip(t *testing.T) {
	mm := New[intMeta]()
	mm.Upsert(1, Value[intMeta]{Meta: 1, Status: Active})

	if !mm.MarkAsWithdrawnForMUI(1, 5) {
		t.Fatalf("expected mark-withdrawn to find the record")
	}
	if _, ok := mm.GetForMUI(1, false); ok {
		t.Fatalf("expected record to be hidden after withdraw")
	}

	if !mm.MarkAsActiveForMUI(1, 6) {
		t.Fatalf("expected mark-active to find the record")
	}
	rec, ok := mm.GetForMUI(1, false)
	if !ok || rec.Status != Active {
		t.Fatalf("expected record active again, got %+v ok=%v", rec, ok)
	}
}

func TestBestBackup(t *testing.T) {
	mm := New[intMeta]()
	mm.Upsert(1, Value[intMeta]{Meta: 10, Status: Active}) // lower value "wins" per Less
	mm.Upsert(2, Value[intMeta]{Meta: 20, Status: Active})
	mm.Upsert(3, Value[intMeta]{Meta: 30, Status: Withdrawn})

	best, backup := BestBackup(mm)
	if best != 1 {
		t.Fatalf("expected best mui 1, got %d", best)
	}
	if backup != 2 {
		t.Fatalf("expected backup mui 2, got %d", backup)
	}
}

func TestBestBackupAbsentWhenEmpty(t *testing.T) {
	mm := New[intMeta]()
	best, backup := BestBackup(mm)
	if best != -1 || backup != -1 {
		t.Fatalf("expected (-1,-1) for empty map, got (%d,%d)", best, backup)
	}
}
