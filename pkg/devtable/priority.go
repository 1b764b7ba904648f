package devtable

import (
	"slices"

	"github.com/raftcore/i2cdevtypes/pkg/addrspec"
	"github.com/raftcore/i2cdevtypes/pkg/devtype"
)

// Priorities holds the scan list of each tier, sorted ascending. The lists
// are pairwise disjoint and together cover [MinValidAddr, MaxValidAddr].
type Priorities struct {
	Lists [devtype.NumTiers][]addrspec.Address
}

type addrSet map[addrspec.Address]struct{}

// ResolvePriorities assigns every address in the valid operating range to a
// scan tier.
//
// Records with an explicit priority claim their addresses for that tier,
// except that a high priority record only claims its first address as high
// and its remaining addresses as medium. Claims for a higher tier win. The
// low tier is every valid address not claimed as high or medium, whether or
// not any record uses it.
func ResolvePriorities(c *devtype.Catalog) *Priorities {
	var claims [devtype.NumTiers]addrSet
	for i := range claims {
		claims[i] = addrSet{}
	}

	for _, e := range c.Entries() {
		tier, ok := e.Record.ScanPriority.Tier()
		if !ok {
			continue
		}
		if tier == devtype.TierHigh {
			claims[devtype.TierHigh][e.Addresses.First()] = struct{}{}
			for _, a := range e.Addresses[1:] {
				claims[devtype.TierMedium][a] = struct{}{}
			}
			continue
		}
		for _, a := range e.Addresses {
			claims[tier][a] = struct{}{}
		}
	}

	low := addrSet{}
	for a := MinValidAddr; a <= MaxValidAddr; a++ {
		low[addrspec.Address(a)] = struct{}{}
	}
	claims[devtype.TierLow] = low

	p := &Priorities{}
	for tier := range claims {
		for higher := 0; higher < tier; higher++ {
			for a := range claims[higher] {
				delete(claims[tier], a)
			}
		}
		p.Lists[tier] = sortedAddrs(claims[tier])
	}
	return p
}

func sortedAddrs(s addrSet) []addrspec.Address {
	out := make([]addrspec.Address, 0, len(s))
	for a := range s {
		out = append(out, a)
	}
	slices.Sort(out)
	return out
}

// TierOf returns the tier whose scan list contains a.
func (p *Priorities) TierOf(a addrspec.Address) (devtype.Tier, bool) {
	for tier, list := range p.Lists {
		if _, found := slices.BinarySearch(list, a); found {
			return devtype.Tier(tier), true
		}
	}
	return 0, false
}

// Len returns the length of the scan list for tier.
func (p *Priorities) Len(tier devtype.Tier) int {
	return len(p.Lists[tier])
}
