package rotonda

import "github.com/nlnetlabs/rotonda-store/internal/multimap"

// RouteStatus is the local status of one record at one prefix.
type RouteStatus = multimap.RouteStatus

const (
	Active    = multimap.Active
	Withdrawn = multimap.Withdrawn
	Inactive  = multimap.Inactive
)

// Record is the MUI-keyed, caller-facing view of one stored entry.
type Record[M any] = multimap.Record[M]

// Cloner lets record metadata hand out independent copies so query
// results never alias stored state.
type Cloner[M any] = multimap.Cloner[M]

// Orderable lets record metadata express a total best-path order, used
// by CalculateAndStoreBestAndBackupPath.
type Orderable[M any] = multimap.Orderable[M]
