package rotonda

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/require"
)

type testMeta struct {
	pref int
}

func (m testMeta) Clone() testMeta { return m }

func (m testMeta) Less(other testMeta) bool { return m.pref < other.pref }

func TestInsertAndMatchExact(t *testing.T) {
	s := NewStore[testMeta]()
	p := netip.MustParsePrefix("192.0.2.0/24")

	report, err := s.Insert(p, 1, 0, Active, testMeta{pref: 1})
	require.NoError(t, err)
	require.False(t, report.AlreadyExisted)

	res := s.MatchPrefix(p, MatchOptions{MatchType: ExactMatch})
	require.True(t, res.Found)
	require.Equal(t, ExactMatch, res.MatchType)
	require.Len(t, res.Records, 1)
	require.Equal(t, uint32(1), res.Records[0].MUI)
}

func TestMatchPrefixLongest(t *testing.T) {
	s := NewStore[testMeta]()
	require.NoError(t, insertOK(t, s, "10.0.0.0/8", 1))
	require.NoError(t, insertOK(t, s, "10.1.0.0/16", 2))

	res := s.MatchPrefix(netip.MustParsePrefix("10.1.2.0/24"), MatchOptions{MatchType: LongestMatch})
	require.True(t, res.Found)
	require.Equal(t, LongestMatch, res.MatchType)
	require.Equal(t, "10.1.0.0/16", res.Prefix.String())
}

func TestMatchPrefixEmptyMatch(t *testing.T) {
	s := NewStore[testMeta]()
	res := s.MatchPrefix(netip.MustParsePrefix("203.0.113.0/24"), MatchOptions{MatchType: LongestMatch})
	require.False(t, res.Found)
	require.Equal(t, EmptyMatch, res.MatchType)
}

func TestWithdrawnRewritesStatus(t *testing.T) {
	s := NewStore[testMeta]()
	p := netip.MustParsePrefix("198.51.100.0/24")
	require.NoError(t, insertOK(t, s, p.String(), 7))

	s.MarkMUIAsWithdrawnV4(7)

	res := s.MatchPrefix(p, MatchOptions{MatchType: ExactMatch, IncludeWithdrawn: true})
	require.Len(t, res.Records, 1)
	require.Equal(t, Withdrawn, res.Records[0].Status)

	res = s.MatchPrefix(p, MatchOptions{MatchType: ExactMatch, IncludeWithdrawn: false})
	require.Len(t, res.Records, 0)
}

func TestBestPathSelection(t *testing.T) {
	s := NewStore[testMeta]()
	p := netip.MustParsePrefix("203.0.113.0/24")
	_, err := s.Insert(p, 1, 0, Active, testMeta{pref: 5})
	require.NoError(t, err)
	_, err = s.Insert(p, 2, 0, Active, testMeta{pref: 1})
	require.NoError(t, err)

	best, backup, err := s.CalculateAndStoreBestAndBackupPath(p)
	require.NoError(t, err)
	require.NotNil(t, best)
	require.NotNil(t, backup)
	require.Equal(t, int64(2), *best) // lower pref wins per testMeta.Less
	require.Equal(t, int64(1), *backup)

	outdated, err := s.IsPathSelectionOutdated(p)
	require.NoError(t, err)
	require.False(t, outdated)

	rec, err := s.BestPath(p)
	require.NoError(t, err)
	require.Equal(t, uint32(2), rec.MUI)
}

func TestBestPathNotFoundOnMissingPrefix(t *testing.T) {
	s := NewStore[testMeta]()
	_, err := s.BestPath(netip.MustParsePrefix("0.0.0.0/0"))
	require.ErrorIs(t, err, ErrBestPathNotFound)
}

func TestPrefixesIterCoversBothFamilies(t *testing.T) {
	s := NewStore[testMeta]()
	require.NoError(t, insertOK(t, s, "10.0.0.0/8", 1))
	require.NoError(t, insertOK(t, s, "2001:db8::/32", 1))

	var v4, v6 int
	for range s.PrefixesIterV4(true) {
		v4++
	}
	for range s.PrefixesIterV6(true) {
		v6++
	}
	require.Equal(t, 1, v4)
	require.Equal(t, 1, v6)
	require.Equal(t, int64(2), s.PrefixesCount())
}

func TestMUIIsWithdrawnPerFamily(t *testing.T) {
	s := NewStore[testMeta]()
	s.MarkMUIAsWithdrawnV4(5)
	require.True(t, s.MUIIsWithdrawnV4(5))
	require.False(t, s.MUIIsWithdrawnV6(5))

	s.MarkMUIAsActiveV4(5)
	require.False(t, s.MUIIsWithdrawnV4(5))
}

func insertOK(t *testing.T, s *Store[testMeta], prefix string, mui uint32) error {
	t.Helper()
	_, err := s.Insert(netip.MustParsePrefix(prefix), mui, 0, Active, testMeta{pref: int(mui)})
	return err
}
