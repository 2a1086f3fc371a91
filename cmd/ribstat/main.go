// Command ribstat builds a small sample RIB and prints its combined
// prefix count and per-family node and insert counts. It exists to exercise the counters component
// from outside the core package, not to be a real operational tool.
package main

import (
	"context"
	"log"
	"net/netip"

	"golang.org/x/sync/errgroup"

	"github.com/nlnetlabs/rotonda-store/internal/addrfam"

	rotonda "github.com/nlnetlabs/rotonda-store"
)

type meta struct {
	asPath []uint32
}

func (m meta) Clone() meta {
	cp := make([]uint32, len(m.asPath))
	copy(cp, m.asPath)
	return meta{asPath: cp}
}

func (m meta) Less(other meta) bool {
	return len(m.asPath) < len(other.asPath)
}

func samplePrefixesV4() []netip.Prefix {
	return []netip.Prefix{
		netip.MustParsePrefix("0.0.0.0/0"),
		netip.MustParsePrefix("10.0.0.0/8"),
		netip.MustParsePrefix("10.1.0.0/16"),
		netip.MustParsePrefix("10.1.2.0/24"),
		netip.MustParsePrefix("192.0.2.0/24"),
	}
}

func samplePrefixesV6() []netip.Prefix {
	return []netip.Prefix{
		netip.MustParsePrefix("2001:db8::/32"),
		netip.MustParsePrefix("2001:db8:1::/48"),
		netip.MustParsePrefix("2001:db8:1:2::/64"),
	}
}

func main() {
	log.SetFlags(log.Lmicroseconds)

	store := rotonda.NewStore[meta]()

	g, _ := errgroup.WithContext(context.Background())
	g.Go(func() error {
		for i, p := range samplePrefixesV4() {
			_, err := store.Insert(p, uint32(i+1), uint64(i), rotonda.Active, meta{asPath: []uint32{65000, uint32(i)}})
			if err != nil {
				return err
			}
		}
		return nil
	})
	g.Go(func() error {
		for i, p := range samplePrefixesV6() {
			_, err := store.Insert(p, uint32(i+1), uint64(i), rotonda.Active, meta{asPath: []uint32{65000, uint32(i)}})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		log.Fatalf("insert: %v", err)
	}

	log.Printf("prefixes (v4+v6): %d", store.PrefixesCount())
	log.Printf("nodes v4: %d, nodes v6: %d", store.NodesCountV4(), store.NodesCountV6())
	log.Printf("inserts v4: %d, inserts v6: %d", store.Counters().InsertsTotal(addrfam.V4), store.Counters().InsertsTotal(addrfam.V6))

	res := store.MatchPrefix(netip.MustParsePrefix("10.1.2.128/25"), rotonda.MatchOptions{MatchType: rotonda.LongestMatch})
	log.Printf("longest match for 10.1.2.128/25: found=%v type=%s prefix=%s", res.Found, res.MatchType, res.Prefix)
}
