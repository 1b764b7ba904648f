package devtype

import (
	"fmt"
	"log/slog"

	"github.com/raftcore/i2cdevtypes/pkg/addrspec"
)

// DecodeLengthFunc computes the poll result length of a record. It is only
// called when decode generation is requested.
type DecodeLengthFunc func(rec *Record) (int, error)

// CatalogOptions configures catalog construction.
type CatalogOptions struct {
	// DecodeLength, when set, is called for every record and its result is
	// stored on the entry.
	DecodeLength DecodeLengthFunc

	// Logger is the optional logger for debug output.
	Logger *slog.Logger
}

// Entry is a catalogued record with its derived fields.
type Entry struct {
	Index  int
	Record *Record

	// Addresses is the expansion of Record.Addresses.
	Addresses addrspec.Set

	// PollingConfigJSON and DeviceInfoJSON are the compact single-line forms.
	PollingConfigJSON string
	DeviceInfoJSON    string

	// DecodeLength is only meaningful when HasDecodeLength is set.
	DecodeLength    int
	HasDecodeLength bool
}

// Catalog holds device type records indexed 0..N-1 in declaration order.
type Catalog struct {
	entries []Entry
}

// NewCatalog builds a catalog from db. It stops at the first record whose
// address spec is invalid; the returned error wraps
// addrspec.ErrInvalidAddressSpec in that case.
func NewCatalog(db *Database, opts CatalogOptions) (*Catalog, error) {
	c := &Catalog{entries: make([]Entry, 0, len(db.Records))}
	for i, rec := range db.Records {
		set, err := addrspec.Parse(rec.Addresses)
		if err != nil {
			return nil, fmt.Errorf("record %d (%s): %w", i, rec.Key, err)
		}

		pollJSON, err := CompactJSON(rec.PollingConfig)
		if err != nil {
			return nil, fmt.Errorf("record %d (%s) pollingConfigJson: %w", i, rec.Key, err)
		}
		infoJSON, err := CompactJSON(rec.DeviceInfo)
		if err != nil {
			return nil, fmt.Errorf("record %d (%s) devInfoJson: %w", i, rec.Key, err)
		}

		e := Entry{
			Index:             i,
			Record:            rec,
			Addresses:         set,
			PollingConfigJSON: pollJSON,
			DeviceInfoJSON:    infoJSON,
		}
		if opts.DecodeLength != nil {
			n, err := opts.DecodeLength(rec)
			if err != nil {
				return nil, fmt.Errorf("record %d (%s) decode length: %w", i, rec.Key, err)
			}
			e.DecodeLength = n
			e.HasDecodeLength = true
		}

		if opts.Logger != nil {
			opts.Logger.Debug("catalogued device type",
				"index", i,
				"type", rec.Name,
				"addresses", rec.Addresses,
				"addrList", set.String(),
				"scanPriority", rec.ScanPriority.String())
		}
		c.entries = append(c.entries, e)
	}
	return c, nil
}

// Len returns the number of records.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Entry returns the entry at index i.
func (c *Catalog) Entry(i int) *Entry {
	return &c.entries[i]
}

// Entries returns all entries in catalog order.
func (c *Catalog) Entries() []Entry {
	return c.entries
}

// Lookup returns the first entry whose device type name or key equals name.
func (c *Catalog) Lookup(name string) (*Entry, bool) {
	for i := range c.entries {
		if c.entries[i].Record.Name == name || c.entries[i].Record.Key == name {
			return &c.entries[i], true
		}
	}
	return nil, false
}
