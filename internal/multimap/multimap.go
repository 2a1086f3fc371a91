// Package multimap implements the per-prefix record multi-map: a small,
// mutex-guarded map from MUI to record, plus the status-rewriting and
// best/backup-path-selection helpers spec.md §4.6 describes. The map is
// expected to hold one entry per upstream producer (BGP peer), so a
// plain sync.Mutex + map is deliberately preferred over a striped or
// lock-free structure.
package multimap

import (
	"sort"
	"sync"
)

// RouteStatus is the local status of one record.
type RouteStatus uint8

const (
	Active RouteStatus = iota
	Withdrawn
	Inactive
)

func (s RouteStatus) String() string {
	switch s {
	case Active:
		return "Active"
	case Withdrawn:
		return "Withdrawn"
	case Inactive:
		return "Inactive"
	default:
		return "Unknown"
	}
}

// Cloner lets record metadata hand out independent copies so that
// as_records_with_rewritten_status can return snapshots that do not
// alias the stored value.
type Cloner[M any] interface {
	Clone() M
}

// Orderable lets record metadata express a total best-path order; Less
// reports whether the receiver should be preferred over other (true
// means "better").
type Orderable[M any] interface {
	Less(other M) bool
}

// Value is one entry of the multi-map: a record's metadata plus its
// bookkeeping (logical time and local route status).
type Value[M any] struct {
	Meta   M
	LTime  uint64
	Status RouteStatus
}

// Record is the MUI-keyed, caller-facing view of a Value.
type Record[M any] struct {
	MUI    uint32
	LTime  uint64
	Status RouteStatus
	Meta   M
}

// MultiMap is the mutex-guarded MUI -> Value map for one prefix.
type MultiMap[M any] struct {
	mu      sync.Mutex
	records map[uint32]*Value[M]
}

// New returns an empty MultiMap.
func New[M any]() *MultiMap[M] {
	return &MultiMap[M]{records: make(map[uint32]*Value[M])}
}

// Upsert inserts or replaces the entry for mui. It returns the previous
// value (nil if none existed) and the map's length after the write, so
// callers can tell whether a new entry was added.
func (m *MultiMap[M]) Upsert(mui uint32, v Value[M]) (prev *Value[M], newLen int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev = m.records[mui]
	cp := v
	m.records[mui] = &cp
	return prev, len(m.records)
}

// GetForMUI returns the record for mui if present and either Active or
// includeWithdrawn is true.
func (m *MultiMap[M]) GetForMUI(mui uint32, includeWithdrawn bool) (Record[M], bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.records[mui]
	if !ok {
		return Record[M]{}, false
	}
	if v.Status != Active && !includeWithdrawn {
		return Record[M]{}, false
	}
	return Record[M]{MUI: mui, LTime: v.LTime, Status: v.Status, Meta: v.Meta}, true
}

// Len reports the number of records currently stored.
func (m *MultiMap[M]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

// AsRecordsWithRewrittenStatus clones every record; any whose MUI
// isWithdrawn reports true for has its returned status overwritten to
// rewriteTo. The
// stored record is never modified.
func (m *MultiMap[M]) AsRecordsWithRewrittenStatus(isWithdrawn func(mui uint32) bool, rewriteTo RouteStatus) []Record[M] {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Record[M], 0, len(m.records))
	for mui, v := range m.records {
		status := v.Status
		if isWithdrawn(mui) {
			status = rewriteTo
		}
		meta := v.Meta
		if cl, ok := any(v.Meta).(Cloner[M]); ok {
			meta = cl.Clone()
		}
		out = append(out, Record[M]{MUI: mui, LTime: v.LTime, Status: status, Meta: meta})
	}
	return out
}

// AsActiveRecordsNotInBmin filters for status==Active and an MUI for
// which isWithdrawn reports false.
func (m *MultiMap[M]) AsActiveRecordsNotInBmin(isWithdrawn func(mui uint32) bool) []Record[M] {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Record[M]
	for mui, v := range m.records {
		if v.Status == Active && !isWithdrawn(mui) {
			out = append(out, Record[M]{MUI: mui, LTime: v.LTime, Status: v.Status, Meta: v.Meta})
		}
	}
	return out
}

// MarkAsActiveForMUI sets the record's status to Active and bumps its
// logical time, in place, under the lock. It reports whether an entry
// for mui existed.
func (m *MultiMap[M]) MarkAsActiveForMUI(mui uint32, ltime uint64) bool {
	return m.markStatus(mui, Active, ltime)
}

// MarkAsWithdrawnForMUI is the Withdrawn counterpart of MarkAsActiveForMUI.
func (m *MultiMap[M]) MarkAsWithdrawnForMUI(mui uint32, ltime uint64) bool {
	return m.markStatus(mui, Withdrawn, ltime)
}

func (m *MultiMap[M]) markStatus(mui uint32, status RouteStatus, ltime uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.records[mui]
	if !ok {
		return false
	}
	v.Status = status
	v.LTime = ltime
	return true
}

// BestBackup picks the best and backup MUI from the currently Active,
// Orderable records. Either return value is -1 (absent) if fewer than
// one/two such records exist.
func BestBackup[M any](m *MultiMap[M]) (best, backup int64) {
	m.mu.Lock()
	type cand struct {
		mui  uint32
		meta M
	}
	var cands []cand
	for mui, v := range m.records {
		if v.Status != Active {
			continue
		}
		if _, ok := any(v.Meta).(Orderable[M]); ok {
			cands = append(cands, cand{mui: mui, meta: v.Meta})
		}
	}
	m.mu.Unlock()

	sort.Slice(cands, func(i, j int) bool {
		return any(cands[i].meta).(Orderable[M]).Less(cands[j].meta)
	})

	best, backup = -1, -1
	if len(cands) > 0 {
		best = int64(cands[0].mui)
	}
	if len(cands) > 1 {
		backup = int64(cands[1].mui)
	}
	return best, backup
}
