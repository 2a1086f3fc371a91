package rotonda

import (
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/nlnetlabs/rotonda-store/internal/addrfam"
)

// Counters tracks operation totals (inserts, queries) separately from
// the stored-item counts the treebitmap stores already keep atomically
// (NodesCount/PrefixesCount). A striped counter is used here instead of
// a single atomic.Int64 because insert is the hottest concurrent path
// and the per-CPU striping avoids cache-line contention under heavy
// write fan-in, the same tradeoff xsync documents for its Counter type.
type Counters struct {
	inserts  [2]*xsync.Counter
	queries  [2]*xsync.Counter
	withdraw [2]*xsync.Counter
}

func newCounters() *Counters {
	return &Counters{
		inserts:  [2]*xsync.Counter{xsync.NewCounter(), xsync.NewCounter()},
		queries:  [2]*xsync.Counter{xsync.NewCounter(), xsync.NewCounter()},
		withdraw: [2]*xsync.Counter{xsync.NewCounter(), xsync.NewCounter()},
	}
}

func (c *Counters) recordInsert(af addrfam.AF) {
	c.inserts[af].Add(1)
}

func (c *Counters) recordQuery(af addrfam.AF) {
	c.queries[af].Add(1)
}

func (c *Counters) recordWithdraw(af addrfam.AF) {
	c.withdraw[af].Add(1)
}

// InsertsTotal returns the running total of Insert calls for the AF.
func (c *Counters) InsertsTotal(af addrfam.AF) int64 {
	return c.inserts[af].Value()
}

// QueriesTotal returns the running total of MatchPrefix-family calls
// for the AF.
func (c *Counters) QueriesTotal(af addrfam.AF) int64 {
	return c.queries[af].Value()
}

// WithdrawsTotal returns the running total of RIB-wide mark-withdrawn
// calls (MarkMUIAsWithdrawn*) for the AF; per-prefix withdrawals are
// not counted.
func (c *Counters) WithdrawsTotal(af addrfam.AF) int64 {
	return c.withdraw[af].Value()
}
