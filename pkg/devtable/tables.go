package devtable

import (
	"bytes"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/raftcore/i2cdevtypes/pkg/addrspec"
	"github.com/raftcore/i2cdevtypes/pkg/devtype"
)

// tableSetNamespace scopes table set IDs.
var tableSetNamespace = uuid.MustParse("6f1c2a6e-3b0d-5c8e-9a41-2d7f0e5b8c13")

// Tables is the compiled form of a device type catalog.
type Tables struct {
	Catalog    *devtype.Catalog
	Index      *Index
	Priorities *Priorities

	// ID identifies the table contents. Identical input yields the same ID.
	ID uuid.UUID
}

// Options configures compilation.
type Options struct {
	// Logger is the optional logger for debug output.
	Logger *slog.Logger
}

// Compile builds the address index and scan priority lists for c.
func Compile(c *devtype.Catalog, opts Options) *Tables {
	t := &Tables{
		Catalog:    c,
		Index:      BuildIndex(c),
		Priorities: ResolvePriorities(c),
		ID:         tableSetID(c),
	}
	if opts.Logger != nil {
		opts.Logger.Debug("compiled device type tables",
			"id", t.ID.String(),
			"records", c.Len(),
			"usedAddrs", t.Index.UsedAddrs(),
			"maxTypesPerAddr", t.Index.MaxPerAddress,
			"tierHigh", t.Priorities.Len(devtype.TierHigh),
			"tierMedium", t.Priorities.Len(devtype.TierMedium),
			"tierLow", t.Priorities.Len(devtype.TierLow))
	}
	return t
}

// CompileDatabase catalogues db and compiles it.
func CompileDatabase(db *devtype.Database, catOpts devtype.CatalogOptions, opts Options) (*Tables, error) {
	c, err := devtype.NewCatalog(db, catOpts)
	if err != nil {
		return nil, err
	}
	return Compile(c, opts), nil
}

// TypesForAddr returns the records that may respond at a, in catalog order.
// Addresses above LookupMaxAddr have no records, matching the bounds the
// generated tables declare.
func (t *Tables) TypesForAddr(a addrspec.Address) []*devtype.Entry {
	if int(a) > LookupMaxAddr {
		return nil
	}
	idxs := t.Index.Types(a)
	out := make([]*devtype.Entry, len(idxs))
	for i, idx := range idxs {
		out[i] = t.Catalog.Entry(idx)
	}
	return out
}

// TierOf returns the scan tier of a.
func (t *Tables) TierOf(a addrspec.Address) (devtype.Tier, bool) {
	return t.Priorities.TierOf(a)
}

// tableSetID hashes every field that reaches the generated tables.
func tableSetID(c *devtype.Catalog) uuid.UUID {
	var buf bytes.Buffer
	for _, e := range c.Entries() {
		r := e.Record
		fmt.Fprintf(&buf, "%s\x00%s\x00%s\x00%s\x00%s\x00%s\x00%s\x00",
			r.Name, r.Addresses, r.DetectionValues, r.InitValues,
			e.PollingConfigJSON, e.DeviceInfoJSON, r.ScanPriority.String())
		if e.HasDecodeLength {
			fmt.Fprintf(&buf, "%d", e.DecodeLength)
		}
		buf.WriteByte('\n')
	}
	return uuid.NewSHA1(tableSetNamespace, buf.Bytes())
}
