package devtable

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raftcore/i2cdevtypes/pkg/addrspec"
	"github.com/raftcore/i2cdevtypes/pkg/devtype"
)

func catalogFromYAML(t *testing.T, data string) *devtype.Catalog {
	t.Helper()
	db, err := devtype.ParseDatabase([]byte(data))
	require.NoError(t, err)
	c, err := devtype.NewCatalog(db, devtype.CatalogOptions{})
	require.NoError(t, err)
	return c
}

func testdataTables(t *testing.T) *Tables {
	t.Helper()
	db, err := devtype.LoadDatabase(filepath.Join("..", "..", "testdata", "devtypes", "devtypes.json"))
	require.NoError(t, err)
	tables, err := CompileDatabase(db, devtype.CatalogOptions{}, Options{})
	require.NoError(t, err)
	return tables
}

func addrs(v ...int) []addrspec.Address {
	out := make([]addrspec.Address, len(v))
	for i, a := range v {
		out[i] = addrspec.Address(a)
	}
	return out
}

func addrRange(lo, hi int, except ...int) []addrspec.Address {
	skip := map[int]bool{}
	for _, e := range except {
		skip[e] = true
	}
	var out []addrspec.Address
	for a := lo; a <= hi; a++ {
		if !skip[a] {
			out = append(out, addrspec.Address(a))
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Index
// ---------------------------------------------------------------------------

func TestBuildIndexOrderAndDuplicates(t *testing.T) {
	c := catalogFromYAML(t, `
devTypes:
  a: {addresses: "0x20-0x22"}
  b: {addresses: "0x21"}
  c: {addresses: "0x21,0x21,0x7f"}
  d: {addresses: "0x00"}
`)
	ix := BuildIndex(c)

	assert.Equal(t, []int{0}, ix.ByAddr[0x20])
	assert.Equal(t, []int{0, 1, 2, 2}, ix.ByAddr[0x21])
	assert.Equal(t, []int{0}, ix.ByAddr[0x22])
	assert.Equal(t, []int{2}, ix.ByAddr[0x7f])
	assert.Equal(t, []int{3}, ix.ByAddr[0x00])
	assert.Equal(t, 4, ix.MaxPerAddress)
	assert.Equal(t, 5, ix.UsedAddrs())

	assert.Len(t, ix.ByAddr, 128)
	assert.Empty(t, ix.ByAddr[0x23])
	assert.Equal(t, 0, ix.Count(0x23))
	assert.Equal(t, 4, ix.Count(0x21))
	assert.Nil(t, ix.Types(0x80))
}

func TestBuildIndexMatchesAddressSets(t *testing.T) {
	tables := testdataTables(t)
	for a := 0; a < NumIndexAddrs; a++ {
		var want []int
		for _, e := range tables.Catalog.Entries() {
			for _, ea := range e.Addresses {
				if int(ea) == a {
					want = append(want, e.Index)
				}
			}
		}
		assert.Equal(t, want, tables.Index.ByAddr[a], "addr 0x%02x", a)
	}
}

// ---------------------------------------------------------------------------
// Priorities
// ---------------------------------------------------------------------------

func TestResolvePrioritiesHighSplitsAddresses(t *testing.T) {
	c := catalogFromYAML(t, `
devTypes:
  sensor: {addresses: "0x30-0x32", scanPriority: high}
`)
	p := ResolvePriorities(c)

	assert.Equal(t, addrs(0x30), p.Lists[devtype.TierHigh])
	assert.Equal(t, addrs(0x31, 0x32), p.Lists[devtype.TierMedium])
	assert.Equal(t, addrRange(MinValidAddr, MaxValidAddr, 0x30, 0x31, 0x32), p.Lists[devtype.TierLow])
}

func TestResolvePrioritiesNumericLow(t *testing.T) {
	c := catalogFromYAML(t, `
devTypes:
  sensor: {addresses: "0x40,0x41", scanPriority: 3}
`)
	p := ResolvePriorities(c)

	assert.Empty(t, p.Lists[devtype.TierHigh])
	assert.Empty(t, p.Lists[devtype.TierMedium])
	tier, ok := p.TierOf(0x40)
	assert.True(t, ok)
	assert.Equal(t, devtype.TierLow, tier)
	tier, _ = p.TierOf(0x41)
	assert.Equal(t, devtype.TierLow, tier)
}

func TestResolvePrioritiesPrecedence(t *testing.T) {
	c := catalogFromYAML(t, `
devTypes:
  medium: {addresses: "0x10-0x12", scanPriority: medium}
  highFirst: {addresses: "0x11,0x50", scanPriority: 1}
  secondary: {addresses: "0x60,0x10", scanPriority: high}
  low: {addresses: "0x60", scanPriority: low}
  none: {addresses: "0x70"}
`)
	p := ResolvePriorities(c)

	// 0x11 and 0x60 are primary addresses of high priority records; 0x10
	// is a secondary address of one but also claimed medium.
	assert.Equal(t, addrs(0x11, 0x60), p.Lists[devtype.TierHigh])
	assert.Equal(t, addrs(0x10, 0x12, 0x50), p.Lists[devtype.TierMedium])
	assert.NotContains(t, p.Lists[devtype.TierLow], addrspec.Address(0x60))
	assert.Contains(t, p.Lists[devtype.TierLow], addrspec.Address(0x70))
}

func TestResolvePrioritiesHighOutsideValidRange(t *testing.T) {
	c := catalogFromYAML(t, `
devTypes:
  reserved: {addresses: "0x02,0x03,0x04", scanPriority: high}
  top: {addresses: "0x78-0x7a", scanPriority: medium}
`)
	p := ResolvePriorities(c)

	assert.Equal(t, addrs(0x02), p.Lists[devtype.TierHigh])
	assert.Equal(t, addrs(0x03, 0x04, 0x78, 0x79, 0x7a), p.Lists[devtype.TierMedium])
	assert.Equal(t, addrRange(0x05, MaxValidAddr), p.Lists[devtype.TierLow])
}

func TestResolvePrioritiesCoverValidRange(t *testing.T) {
	cases := map[string]string{
		"empty": "devTypes: {}\n",
		"testdata": "",
		"mixed": `
devTypes:
  a: {addresses: "0x04-0x10", scanPriority: high}
  b: {addresses: "0x08-0x30", scanPriority: 2}
  c: {addresses: "0x70-0x77", scanPriority: 0}
  d: {addresses: "0x77", scanPriority: 99}
`,
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			var p *Priorities
			if data == "" {
				p = testdataTables(t).Priorities
			} else {
				p = ResolvePriorities(catalogFromYAML(t, data))
			}

			seen := map[addrspec.Address]int{}
			for _, list := range p.Lists {
				for _, a := range list {
					seen[a]++
				}
			}
			for a := 0; a <= addrspec.MaxAddress; a++ {
				count := seen[addrspec.Address(a)]
				if a >= MinValidAddr && a <= MaxValidAddr {
					assert.Equal(t, 1, count, "addr 0x%02x must be in exactly one tier", a)
				} else {
					assert.LessOrEqual(t, count, 1, "addr 0x%02x", a)
				}
			}
			for _, list := range p.Lists {
				assert.IsIncreasing(t, list)
			}
		})
	}
}

func TestPhantomAddressesAreLowPriority(t *testing.T) {
	tables := testdataTables(t)

	// 0x42 has no device type but is still scanned.
	assert.Empty(t, tables.TypesForAddr(0x42))
	assert.Equal(t, 0, tables.Index.Count(0x42))
	tier, ok := tables.TierOf(0x42)
	assert.True(t, ok)
	assert.Equal(t, devtype.TierLow, tier)

	_, ok = tables.TierOf(0x02)
	assert.False(t, ok)
}

// ---------------------------------------------------------------------------
// Tables
// ---------------------------------------------------------------------------

func TestCompileTestdata(t *testing.T) {
	tables := testdataTables(t)

	assert.Equal(t, addrs(0x60), tables.Priorities.Lists[devtype.TierHigh])
	assert.Equal(t, addrs(0x1d, 0x29, 0x53), tables.Priorities.Lists[devtype.TierMedium])

	// 0x1d is shared by ADXL313 and MCP9808.
	entries := tables.TypesForAddr(0x1d)
	require.Len(t, entries, 2)
	assert.Equal(t, "ADXL313", entries[0].Record.Name)
	assert.Equal(t, "MCP9808", entries[1].Record.Name)
	assert.Equal(t, 2, tables.Index.MaxPerAddress)
}

func TestTypesForAddrHonoursLookupBound(t *testing.T) {
	c := catalogFromYAML(t, `
devTypes:
  top: {addresses: "0x77-0x79"}
`)
	tables := Compile(c, Options{})

	assert.Len(t, tables.TypesForAddr(0x77), 1)
	assert.Empty(t, tables.TypesForAddr(0x78))
	assert.Equal(t, 1, tables.Index.Count(0x78))
}

func TestTableSetIDIsStable(t *testing.T) {
	a := testdataTables(t)
	b := testdataTables(t)
	assert.Equal(t, a.ID, b.ID)

	c := Compile(catalogFromYAML(t, `
devTypes:
  x: {addresses: "0x10"}
`), Options{})
	assert.NotEqual(t, a.ID, c.ID)
	assert.Equal(t, 5, int(c.ID.Version()))
}

func TestCompileDatabaseInvalidSpec(t *testing.T) {
	db, err := devtype.ParseDatabase([]byte(`
devTypes:
  bad: {addresses: "0x100"}
`))
	require.NoError(t, err)

	tables, err := CompileDatabase(db, devtype.CatalogOptions{}, Options{})
	assert.Nil(t, tables)
	assert.ErrorIs(t, err, addrspec.ErrInvalidAddressSpec)
}
