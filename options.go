package rotonda

import "net/netip"

// MatchType is the requested or resulting kind of a match_prefix query
// (spec.md §6). A requested type is an upper bound: a LongestMatch
// request may resolve to ExactMatch, Longest, or EmptyMatch; it is
// never widened.
type MatchType uint8

const (
	ExactMatch MatchType = iota
	LongestMatch
	EmptyMatch
)

func (t MatchType) String() string {
	switch t {
	case ExactMatch:
		return "ExactMatch"
	case LongestMatch:
		return "LongestMatch"
	case EmptyMatch:
		return "EmptyMatch"
	default:
		return "Unknown"
	}
}

// MatchOptions configures a MatchPrefix query.
type MatchOptions struct {
	MatchType        MatchType
	IncludeWithdrawn bool
	IncludeLess      bool
	IncludeMore      bool
	// MUI, if non-nil, restricts returned records (and hard-prunes trie
	// descent during more-specifics) to this MUI only.
	MUI *uint32
}

// PrefixRecords pairs one prefix with its currently visible records; it
// is the element type of QueryResult's less/more-specifics slices and
// of the *_iter_* sequences.
type PrefixRecords[M any] struct {
	Prefix  netip.Prefix
	Records []Record[M]
}

// QueryResult is the outcome of MatchPrefix / MoreSpecificsFrom /
// LessSpecificsFrom (spec.md §6).
type QueryResult[M any] struct {
	MatchType MatchType
	Prefix    netip.Prefix
	Found     bool
	Records   []Record[M]

	LessSpecifics []PrefixRecords[M]
	MoreSpecifics []PrefixRecords[M]
}
