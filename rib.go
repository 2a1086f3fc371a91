// Package rotonda is an AF-agnostic longest-prefix-match routing
// information base: a lock-free, compressed multi-bit trie over a
// chained-hash node/prefix store, with multi-source (MUI) record
// tracking and RIB-wide withdrawal. See spec.md for the full design.
package rotonda

import (
	"iter"
	"net/netip"

	"github.com/nlnetlabs/rotonda-store/internal/addrfam"
	"github.com/nlnetlabs/rotonda-store/internal/multimap"
	"github.com/nlnetlabs/rotonda-store/internal/persist"
	"github.com/nlnetlabs/rotonda-store/internal/treebitmap"
	"github.com/nlnetlabs/rotonda-store/internal/withdrawn"
)

// InsertStrategy selects whether an Insert also reaches the optional
// persistence sink synchronously, only the in-memory store, or both
// (the original implementation's PersistOnly/MemoryOnly/PersistAndMemory
// split, carried over since spec.md's Non-goals do not exclude it).
type InsertStrategy uint8

const (
	MemoryOnly InsertStrategy = iota
	PersistOnly
	PersistAndMemory
)

// InsertOptions configures one Insert call.
type InsertOptions struct {
	Strategy InsertStrategy
}

// UpsertReport is the result of a successful Insert: how many CAS
// retries it cost and how many MUIs now have a record at the prefix.
type UpsertReport = treebitmap.UpsertReport

// Store is the AF-agnostic facade over the v4 and v6 treebitmap
// sub-stores, the RIB-wide withdrawn-MUI trackers, and the optional
// persistence sink. The zero value is not ready to use; build one with
// NewStore.
type Store[M any] struct {
	v4, v6         *treebitmap.Store[M]
	withdrawn4, withdrawn6 *withdrawn.Tracker
	counters       *Counters
	sink           persist.Sink[M]
}

// StoreOption configures a Store at construction time.
type StoreOption[M any] func(*Store[M])

// WithPersistSink injects an external durable side-channel. Stores
// built without this option run memory-only (persist.NoopSink).
func WithPersistSink[M any](sink persist.Sink[M]) StoreOption[M] {
	return func(s *Store[M]) { s.sink = sink }
}

// NewStore builds an empty Store ready to accept Insert calls for both
// address families.
func NewStore[M any](opts ...StoreOption[M]) *Store[M] {
	s := &Store[M]{
		v4:         treebitmap.NewStore[M](addrfam.V4),
		v6:         treebitmap.NewStore[M](addrfam.V6),
		withdrawn4: withdrawn.New(),
		withdrawn6: withdrawn.New(),
		counters:   newCounters(),
		sink:       persist.NoopSink[M]{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store[M]) storeFor(af addrfam.AF) *treebitmap.Store[M] {
	if af == addrfam.V4 {
		return s.v4
	}
	return s.v6
}

func (s *Store[M]) withdrawnFor(af addrfam.AF) *withdrawn.Tracker {
	if af == addrfam.V4 {
		return s.withdrawn4
	}
	return s.withdrawn6
}

func toAddrFam(a netip.Addr) (addrfam.AF, addrfam.Addr) {
	a = a.Unmap()
	var out addrfam.Addr
	if a.Is4() {
		b := a.As4()
		copy(out[:], b[:])
		return addrfam.V4, out
	}
	b := a.As16()
	copy(out[:], b[:])
	return addrfam.V6, out
}

func toPrefixId(p netip.Prefix) addrfam.PrefixId {
	af, bits := toAddrFam(p.Addr())
	return addrfam.NewPrefixId(af, bits, p.Bits())
}

func fromAddrFam(af addrfam.AF, bits addrfam.Addr) netip.Addr {
	if af == addrfam.V4 {
		var b [4]byte
		copy(b[:], bits[:4])
		return netip.AddrFrom4(b)
	}
	return netip.AddrFrom16(bits)
}

func fromPrefixId(p addrfam.PrefixId) netip.Prefix {
	return netip.PrefixFrom(fromAddrFam(p.AF, p.Bits), p.Len)
}

// Insert stores record{mui,ltime,status,meta} at prefix, creating every
// trie node and CHT slot the path requires.
func (s *Store[M]) Insert(prefix netip.Prefix, mui uint32, ltime uint64, status RouteStatus, meta M, opts ...InsertOptions) (UpsertReport, error) {
	strategy := MemoryOnly
	if len(opts) > 0 {
		strategy = opts[0].Strategy
	}

	pid := toPrefixId(prefix)
	ts := s.storeFor(pid.AF)

	var report UpsertReport
	var err error
	if strategy != PersistOnly {
		report, err = ts.Insert(pid, mui, ltime, status, meta)
		if err != nil {
			return report, err
		}
	}
	if strategy == PersistOnly || strategy == PersistAndMemory {
		if err := s.sink.FlushPrefix(prefix.String(), []persist.Record[M]{{MUI: mui, LTime: ltime, Status: uint8(status), Meta: meta}}); err != nil {
			return report, err
		}
	}
	s.counters.recordInsert(pid.AF)
	return report, nil
}

func recordsFromStoredPrefix[M any](sp *treebitmap.StoredPrefix[M], wt *withdrawn.Tracker, includeWithdrawn bool, mui *uint32) []Record[M] {
	var recs []Record[M]
	if includeWithdrawn {
		recs = sp.Records.AsRecordsWithRewrittenStatus(wt.IsWithdrawn, Withdrawn)
	} else {
		recs = sp.Records.AsActiveRecordsNotInBmin(wt.IsWithdrawn)
	}
	if mui == nil {
		return recs
	}
	out := recs[:0]
	for _, r := range recs {
		if r.MUI == *mui {
			out = append(out, r)
		}
	}
	return out
}

// MatchPrefix performs a match_prefix query (spec.md §6). The requested
// MatchType is an upper bound: a LongestMatch request may resolve to
// ExactMatch, LongestMatch, or EmptyMatch.
func (s *Store[M]) MatchPrefix(prefix netip.Prefix, opts MatchOptions) QueryResult[M] {
	pid := toPrefixId(prefix)
	ts := s.storeFor(pid.AF)
	wt := s.withdrawnFor(pid.AF)
	s.counters.recordQuery(pid.AF)

	result := QueryResult[M]{MatchType: EmptyMatch, Prefix: prefix}

	if sp, ok := ts.Exact(pid); ok {
		result.MatchType = ExactMatch
		result.Found = true
		result.Records = recordsFromStoredPrefix(sp, wt, opts.IncludeWithdrawn, opts.MUI)
	} else if opts.MatchType != ExactMatch {
		if mr, ok := ts.LongestMatch(pid.Bits, pid.Len, opts.MUI); ok {
			result.MatchType = LongestMatch
			result.Prefix = fromPrefixId(mr.Prefix)
			result.Found = true
			result.Records = recordsFromStoredPrefix(mr.Entry, wt, opts.IncludeWithdrawn, opts.MUI)
		}
	}

	if opts.IncludeLess {
		for _, m := range ts.LessSpecifics(pid) {
			recs := recordsFromStoredPrefix(m.Entry, wt, opts.IncludeWithdrawn, opts.MUI)
			result.LessSpecifics = append(result.LessSpecifics, PrefixRecords[M]{Prefix: fromPrefixId(m.Prefix), Records: recs})
		}
	}
	if opts.IncludeMore {
		for _, m := range ts.MoreSpecifics(pid, opts.MUI) {
			recs := recordsFromStoredPrefix(m.Entry, wt, opts.IncludeWithdrawn, opts.MUI)
			result.MoreSpecifics = append(result.MoreSpecifics, PrefixRecords[M]{Prefix: fromPrefixId(m.Prefix), Records: recs})
		}
	}
	return result
}

// BestPath returns the currently selected best record for prefix.
func (s *Store[M]) BestPath(prefix netip.Prefix) (Record[M], error) {
	pid := toPrefixId(prefix)
	sp, ok := s.storeFor(pid.AF).Exact(pid)
	if !ok {
		return Record[M]{}, ErrBestPathNotFound
	}
	ps := sp.LoadPathSelection()
	if ps.Best < 0 {
		return Record[M]{}, ErrBestPathNotFound
	}
	rec, ok := sp.Records.GetForMUI(uint32(ps.Best), false)
	if !ok {
		return Record[M]{}, ErrBestPathNotFound
	}
	return rec, nil
}

// CalculateAndStoreBestAndBackupPath recomputes and publishes the
// best/backup MUI pair for prefix from its currently Active, Orderable
// records, clearing the staleness flag.
func (s *Store[M]) CalculateAndStoreBestAndBackupPath(prefix netip.Prefix) (best, backup *int64, err error) {
	pid := toPrefixId(prefix)
	sp, ok := s.storeFor(pid.AF).Exact(pid)
	if !ok {
		return nil, nil, ErrBestPathNotFound
	}
	b, bk := multimap.BestBackup(sp.Records)
	sp.StorePathSelection(b, bk)
	if b >= 0 {
		best = &b
	}
	if bk >= 0 {
		backup = &bk
	}
	return best, backup, nil
}

// IsPathSelectionOutdated reports whether prefix's cached best/backup
// pair has been marked stale by a write since it was last recomputed.
func (s *Store[M]) IsPathSelectionOutdated(prefix netip.Prefix) (bool, error) {
	pid := toPrefixId(prefix)
	sp, ok := s.storeFor(pid.AF).Exact(pid)
	if !ok {
		return false, ErrBestPathNotFound
	}
	return sp.IsPathSelectionOutdated(), nil
}

// MoreSpecificsFrom returns only the more-specifics of prefix.
func (s *Store[M]) MoreSpecificsFrom(prefix netip.Prefix, mui *uint32, includeWithdrawn bool) QueryResult[M] {
	pid := toPrefixId(prefix)
	ts := s.storeFor(pid.AF)
	wt := s.withdrawnFor(pid.AF)
	s.counters.recordQuery(pid.AF)

	result := QueryResult[M]{Prefix: prefix}
	for _, m := range ts.MoreSpecifics(pid, mui) {
		recs := recordsFromStoredPrefix(m.Entry, wt, includeWithdrawn, mui)
		result.MoreSpecifics = append(result.MoreSpecifics, PrefixRecords[M]{Prefix: fromPrefixId(m.Prefix), Records: recs})
	}
	return result
}

// LessSpecificsFrom returns only the less-specifics of prefix.
func (s *Store[M]) LessSpecificsFrom(prefix netip.Prefix, mui *uint32, includeWithdrawn bool) QueryResult[M] {
	pid := toPrefixId(prefix)
	ts := s.storeFor(pid.AF)
	wt := s.withdrawnFor(pid.AF)
	s.counters.recordQuery(pid.AF)

	result := QueryResult[M]{Prefix: prefix}
	for _, m := range ts.LessSpecifics(pid) {
		recs := recordsFromStoredPrefix(m.Entry, wt, includeWithdrawn, mui)
		result.LessSpecifics = append(result.LessSpecifics, PrefixRecords[M]{Prefix: fromPrefixId(m.Prefix), Records: recs})
	}
	return result
}

// MarkMUIAsWithdrawnForPrefix withdraws mui's record at prefix only
// (local status, not the RIB-wide tracker).
func (s *Store[M]) MarkMUIAsWithdrawnForPrefix(prefix netip.Prefix, mui uint32, ltime uint64) error {
	pid := toPrefixId(prefix)
	sp, ok := s.storeFor(pid.AF).Exact(pid)
	if !ok {
		return ErrBestPathNotFound
	}
	sp.Records.MarkAsWithdrawnForMUI(mui, ltime)
	sp.MarkPathSelectionOutdated()
	return nil
}

// MarkMUIAsActiveForPrefix is the inverse of MarkMUIAsWithdrawnForPrefix.
func (s *Store[M]) MarkMUIAsActiveForPrefix(prefix netip.Prefix, mui uint32, ltime uint64) error {
	pid := toPrefixId(prefix)
	sp, ok := s.storeFor(pid.AF).Exact(pid)
	if !ok {
		return ErrBestPathNotFound
	}
	sp.Records.MarkAsActiveForMUI(mui, ltime)
	sp.MarkPathSelectionOutdated()
	return nil
}

// MarkMUIAsWithdrawnV4 / V6 add mui to the RIB-wide withdrawn-MUI
// tracker for one address family.
func (s *Store[M]) MarkMUIAsWithdrawnV4(mui uint32) {
	s.withdrawn4.MarkAsWithdrawn(mui)
	s.counters.recordWithdraw(addrfam.V4)
}

func (s *Store[M]) MarkMUIAsWithdrawnV6(mui uint32) {
	s.withdrawn6.MarkAsWithdrawn(mui)
	s.counters.recordWithdraw(addrfam.V6)
}

// MarkMUIAsActiveV4 / V6 remove mui from the RIB-wide withdrawn-MUI
// tracker for one address family.
func (s *Store[M]) MarkMUIAsActiveV4(mui uint32) {
	s.withdrawn4.MarkAsActive(mui)
}

func (s *Store[M]) MarkMUIAsActiveV6(mui uint32) {
	s.withdrawn6.MarkAsActive(mui)
}

// MarkMUIAsWithdrawn / MarkMUIAsActive apply to both address families
// at once; each AF is reported independently internally but combined
// here since neither tracker can fail.
func (s *Store[M]) MarkMUIAsWithdrawn(mui uint32) {
	s.MarkMUIAsWithdrawnV4(mui)
	s.MarkMUIAsWithdrawnV6(mui)
}

func (s *Store[M]) MarkMUIAsActive(mui uint32) {
	s.MarkMUIAsActiveV4(mui)
	s.MarkMUIAsActiveV6(mui)
}

// MUIIsWithdrawnV4 / V6 report whether mui is currently in the
// RIB-wide withdrawn set for one address family.
func (s *Store[M]) MUIIsWithdrawnV4(mui uint32) bool { return s.withdrawn4.IsWithdrawn(mui) }
func (s *Store[M]) MUIIsWithdrawnV6(mui uint32) bool { return s.withdrawn6.IsWithdrawn(mui) }

// PrefixesIter returns an unordered lazy sequence of every stored
// prefix and its currently visible records, for one address family.
func (s *Store[M]) PrefixesIter(af addrfam.AF, includeWithdrawn bool) iter.Seq2[netip.Prefix, []Record[M]] {
	ts := s.storeFor(af)
	wt := s.withdrawnFor(af)
	return func(yield func(netip.Prefix, []Record[M]) bool) {
		for pid, sp := range ts.AllPrefixes() {
			recs := recordsFromStoredPrefix(sp, wt, includeWithdrawn, nil)
			if !yield(fromPrefixId(pid), recs) {
				return
			}
		}
	}
}

// PrefixesIterV4 / V6 are the AF-fixed convenience forms of PrefixesIter.
func (s *Store[M]) PrefixesIterV4(includeWithdrawn bool) iter.Seq2[netip.Prefix, []Record[M]] {
	return s.PrefixesIter(addrfam.V4, includeWithdrawn)
}

func (s *Store[M]) PrefixesIterV6(includeWithdrawn bool) iter.Seq2[netip.Prefix, []Record[M]] {
	return s.PrefixesIter(addrfam.V6, includeWithdrawn)
}

// PrefixesCount returns the number of distinct stored prefixes summed
// over both address families; PrefixesCountForLen restricts to one
// prefix length within one address family.
func (s *Store[M]) PrefixesCount() int64 {
	return s.v4.PrefixesCount(-1) + s.v6.PrefixesCount(-1)
}

func (s *Store[M]) PrefixesCountForLen(af addrfam.AF, length int) int64 {
	return s.storeFor(af).PrefixesCount(length)
}

// NodesCountV4 / V6 return the trie node counts for one address family
// (may lag slightly under concurrent writers).
func (s *Store[M]) NodesCountV4() int64 { return s.v4.NodesCount() }
func (s *Store[M]) NodesCountV6() int64 { return s.v6.NodesCount() }

// Counters exposes the running operation totals (inserts, queries,
// withdrawals) maintained per address family.
func (s *Store[M]) Counters() *Counters {
	return s.counters
}
