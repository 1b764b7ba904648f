package devtype

import (
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raftcore/i2cdevtypes/pkg/addrspec"
)

func testdataPath(name string) string {
	return filepath.Join("..", "..", "testdata", "devtypes", name)
}

func TestLoadDatabaseKeepsDeclarationOrder(t *testing.T) {
	db, err := LoadDatabase(testdataPath("devtypes.json"))
	require.NoError(t, err)

	var names []string
	for _, r := range db.Records {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"VCNL4040", "VL53L4CD", "MAX30101", "ADXL313", "MCP9808", "AHT20"}, names)

	first := db.Records[0]
	assert.Equal(t, "VCNL4040", first.Key)
	assert.Equal(t, "0x60", first.Addresses)
	assert.Equal(t, "0x0c=0b100001100000XXXX", first.DetectionValues)
	assert.Equal(t, "0x041007=&0x030e08=&0x000000=", first.InitValues)

	c, ok := first.PollingConfigValue("c")
	assert.True(t, ok)
	assert.Equal(t, "0x08=r2&0x09=r2&0x0a=r2", c)
	_, ok = first.PollingConfigValue("missing")
	assert.False(t, ok)
}

func TestParseDatabaseScanPriority(t *testing.T) {
	data := `
devTypes:
  none: {deviceType: A, addresses: "0x10"}
  named: {deviceType: B, addresses: "0x11", scanPriority: high}
  numeric: {deviceType: C, addresses: "0x12", scanPriority: 2}
  null: {deviceType: D, addresses: "0x13", scanPriority: null}
  float: {deviceType: E, addresses: "0x14", scanPriority: 1.5}
  unknown: {deviceType: F, addresses: "0x15", scanPriority: urgent}
  list: {deviceType: G, addresses: "0x16", scanPriority: [1, 2]}
  minint: {deviceType: H, addresses: "0x17", scanPriority: -9223372036854775808}
  hugeneg: {deviceType: I, addresses: "0x18", scanPriority: -99999999999999999999}
  hugepos: {deviceType: J, addresses: "0x19", scanPriority: 99999999999999999999}
  uint64: {deviceType: K, addresses: "0x1a", scanPriority: 18446744073709551615}
`
	db, err := ParseDatabase([]byte(data))
	require.NoError(t, err)
	require.Len(t, db.Records, 11)

	kinds := []PriorityKind{
		PriorityNone, PriorityNamed, PriorityNumeric, PriorityOther, PriorityOther, PriorityOther, PriorityOther,
		PriorityNumeric, PriorityNumeric, PriorityNumeric, PriorityNumeric,
	}
	for i, want := range kinds {
		assert.Equal(t, want, db.Records[i].ScanPriority.Kind, db.Records[i].Key)
	}
	assert.Equal(t, TierHigh, db.Records[1].ScanPriority.Named)
	assert.Equal(t, 2, db.Records[2].ScanPriority.Number)

	tiers := map[string]Tier{"minint": TierHigh, "hugeneg": TierHigh, "hugepos": TierLow, "uint64": TierLow}
	for _, r := range db.Records[7:] {
		got, ok := r.ScanPriority.Tier()
		assert.True(t, ok, r.Key)
		assert.Equal(t, tiers[r.Key], got, r.Key)
	}
	assert.Equal(t, "-99999999999999999999", db.Records[8].ScanPriority.String())
}

func TestParseDatabaseDuplicateKeys(t *testing.T) {
	data := `{
  "devTypes": {
    "A": {"deviceType": "first", "addresses": "0x10"},
    "B": {"deviceType": "other", "addresses": "0x11"},
    "A": {"deviceType": "second", "addresses": "0x12"}
  }
}`
	db, err := ParseDatabase([]byte(data))
	require.NoError(t, err)
	require.Len(t, db.Records, 2)

	assert.Equal(t, "A", db.Records[0].Key)
	assert.Equal(t, "second", db.Records[0].Name)
	assert.Equal(t, "0x12", db.Records[0].Addresses)
	assert.Equal(t, "B", db.Records[1].Key)
}

func TestParseDatabaseErrors(t *testing.T) {
	_, err := ParseDatabase([]byte(`{"other": {}}`))
	assert.ErrorIs(t, err, ErrNoDevTypes)

	_, err = ParseDatabase([]byte(`{"devTypes": [1, 2]}`))
	assert.ErrorIs(t, err, ErrNoDevTypes)

	_, err = ParseDatabase([]byte(`{"devTypes": {`))
	assert.Error(t, err)

	_, err = LoadDatabase(testdataPath("does-not-exist.json"))
	assert.Error(t, err)
}

func TestScanPriorityTier(t *testing.T) {
	tests := []struct {
		name     string
		p        ScanPriority
		want     Tier
		assigned bool
	}{
		{"none", NoPriority(), 0, false},
		{"high", NamedPriority(TierHigh), TierHigh, true},
		{"medium", NamedPriority(TierMedium), TierMedium, true},
		{"low", NamedPriority(TierLow), TierLow, true},
		{"int 1", NumericPriority(1), TierHigh, true},
		{"int 2", NumericPriority(2), TierMedium, true},
		{"int 3", NumericPriority(3), TierLow, true},
		{"int 0 clamps", NumericPriority(0), TierHigh, true},
		{"int -5 clamps", NumericPriority(-5), TierHigh, true},
		{"int 9 clamps", NumericPriority(9), TierLow, true},
		{"min int clamps", NumericPriority(math.MinInt), TierHigh, true},
		{"max int clamps", NumericPriority(math.MaxInt), TierLow, true},
		{"other", OtherPriority("1.5"), TierLow, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.p.Tier()
			assert.Equal(t, tt.assigned, ok)
			if ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestParseNamedPriority(t *testing.T) {
	_, ok := ParseNamedPriority("High")
	assert.False(t, ok, "names are case sensitive")
	tier, ok := ParseNamedPriority("low")
	assert.True(t, ok)
	assert.Equal(t, TierLow, tier)
	assert.Equal(t, "medium", TierMedium.String())
}

func TestCompactJSON(t *testing.T) {
	data := `{
  "devTypes": {
    "X": {
      "addresses": "0x10",
      "pollingConfigJson": {
        "c": "0x08=r2",
        "i":   200,
        "list": [ 1, 2.5, true, null, "a\"b" ],
        "nested": { "z": 1, "a": { } },
        "uni": "°C",
        "html": "<&>",
        "big": 123456789012345678901234567890,
        "neg": -123456789012345678901234567890,
        "one": 1.0,
        "exp": -2E-3
      },
      "devInfoJson": {"name": "X"}
    }
  }
}`
	db, err := ParseDatabase([]byte(data))
	require.NoError(t, err)

	got, err := CompactJSON(db.Records[0].PollingConfig)
	require.NoError(t, err)
	assert.Equal(t, `{"c":"0x08=r2","i":200,"list":[1,2.5,true,null,"a\"b"],"nested":{"z":1,"a":{}},"uni":"\u00b0C","html":"<&>",`+
		`"big":123456789012345678901234567890,"neg":-123456789012345678901234567890,"one":1.0,"exp":-2E-3}`, got)

	got, err = CompactJSON(nil)
	require.NoError(t, err)
	assert.Equal(t, "", got)
}

func TestCompactJSONYAMLNumbers(t *testing.T) {
	tests := []struct {
		value string
		want  string
	}{
		{"0x10", "16"},
		{"0o17", "15"},
		{"+7", "7"},
		{".5", "0.5"},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			db, err := ParseDatabase([]byte("devTypes:\n  X: {addresses: \"0x10\", pollingConfigJson: {n: " + tt.value + "}}\n"))
			require.NoError(t, err)

			got, err := CompactJSON(db.Records[0].PollingConfig)
			require.NoError(t, err)
			assert.Equal(t, `{"n":`+tt.want+`}`, got)
		})
	}
}

func TestCompactJSONRejectsNonFinite(t *testing.T) {
	db, err := ParseDatabase([]byte("devTypes:\n  X: {addresses: \"0x10\", pollingConfigJson: {n: .inf}}\n"))
	require.NoError(t, err)

	_, err = CompactJSON(db.Records[0].PollingConfig)
	assert.Error(t, err)
}

func TestNewCatalog(t *testing.T) {
	db, err := LoadDatabase(testdataPath("devtypes.json"))
	require.NoError(t, err)

	cat, err := NewCatalog(db, CatalogOptions{})
	require.NoError(t, err)
	require.Equal(t, 6, cat.Len())

	for i, e := range cat.Entries() {
		assert.Equal(t, i, e.Index)
		assert.False(t, e.HasDecodeLength)
	}

	adxl := cat.Entry(3)
	assert.Equal(t, addrspec.Set{0x1d, 0x53}, adxl.Addresses)
	assert.Equal(t, `{"name":"ADXL313","desc":"3-Axis Accel"}`, adxl.DeviceInfoJSON)
	assert.Equal(t, `{"c":"0x32=r6","i":50,"s":10}`, adxl.PollingConfigJSON)

	e, ok := cat.Lookup("MCP9808")
	require.True(t, ok)
	assert.Equal(t, 4, e.Index)
	assert.Len(t, e.Addresses, 8)

	_, ok = cat.Lookup("nope")
	assert.False(t, ok)
}

func TestNewCatalogDecodeLength(t *testing.T) {
	db, err := LoadDatabase(testdataPath("devtypes.json"))
	require.NoError(t, err)

	calls := 0
	cat, err := NewCatalog(db, CatalogOptions{
		DecodeLength: func(rec *Record) (int, error) {
			calls++
			return len(rec.Name), nil
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 6, calls)
	assert.True(t, cat.Entry(0).HasDecodeLength)
	assert.Equal(t, len("VCNL4040"), cat.Entry(0).DecodeLength)

	boom := errors.New("boom")
	_, err = NewCatalog(db, CatalogOptions{
		DecodeLength: func(*Record) (int, error) { return 0, boom },
	})
	assert.ErrorIs(t, err, boom)
}

func TestNewCatalogInvalidAddress(t *testing.T) {
	data := `{"devTypes": {
  "good": {"deviceType": "good", "addresses": "0x10"},
  "bad": {"deviceType": "bad", "addresses": "0x10,0x1"}
}}`
	db, err := ParseDatabase([]byte(data))
	require.NoError(t, err)

	cat, err := NewCatalog(db, CatalogOptions{})
	assert.Nil(t, cat)
	require.ErrorIs(t, err, addrspec.ErrInvalidAddressSpec)

	var specErr *addrspec.InvalidSpecError
	require.ErrorAs(t, err, &specErr)
	assert.Equal(t, "0x1", specErr.Token)
	assert.Contains(t, err.Error(), "record 1 (bad)")
}
