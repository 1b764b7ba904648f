package devtable

import (
	"github.com/raftcore/i2cdevtypes/pkg/addrspec"
	"github.com/raftcore/i2cdevtypes/pkg/devtype"
)

// Address ranges used by the generated tables.
const (
	// IndexMinAddr and IndexMaxAddr bound the per-address index arrays.
	IndexMinAddr = 0x00
	IndexMaxAddr = addrspec.MaxAddress

	// NumIndexAddrs is the number of entries in each per-address array.
	NumIndexAddrs = IndexMaxAddr - IndexMinAddr + 1

	// LookupMaxAddr is the highest address firmware looks up in the index.
	LookupMaxAddr = 0x77

	// MinValidAddr and MaxValidAddr bound the valid operating range. Every
	// address in it belongs to exactly one scan priority tier.
	MinValidAddr = 0x04
	MaxValidAddr = 0x77
)

// Index maps each address to the catalog indices of the records that may
// respond at that address.
type Index struct {
	// ByAddr holds record indices in catalog order. A record that lists an
	// address twice appears twice.
	ByAddr [NumIndexAddrs][]int

	// MaxPerAddress is the longest list in ByAddr.
	MaxPerAddress int
}

// BuildIndex builds the address index for every record in c.
func BuildIndex(c *devtype.Catalog) *Index {
	ix := &Index{}
	for _, e := range c.Entries() {
		for _, a := range e.Addresses {
			slot := int(a) - IndexMinAddr
			ix.ByAddr[slot] = append(ix.ByAddr[slot], e.Index)
		}
	}
	for _, l := range ix.ByAddr {
		if len(l) > ix.MaxPerAddress {
			ix.MaxPerAddress = len(l)
		}
	}
	return ix
}

// Types returns the record indices for a, or nil if a is outside the index.
func (ix *Index) Types(a addrspec.Address) []int {
	if int(a) < IndexMinAddr || int(a) > IndexMaxAddr {
		return nil
	}
	return ix.ByAddr[int(a)-IndexMinAddr]
}

// Count returns the number of record indices for a.
func (ix *Index) Count(a addrspec.Address) int {
	return len(ix.Types(a))
}

// UsedAddrs returns the number of addresses with at least one record.
func (ix *Index) UsedAddrs() int {
	n := 0
	for _, l := range ix.ByAddr {
		if len(l) > 0 {
			n++
		}
	}
	return n
}
