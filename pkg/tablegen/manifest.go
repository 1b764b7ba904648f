package tablegen

import (
	"bytes"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/blake2b"

	"github.com/raftcore/i2cdevtypes/pkg/devtable"
)

// Manifest is a machine-readable summary of a generated table set. It is
// written next to the generated source so that build tooling can compare
// table sets without parsing source text.
// CBOR encoding uses integer keys for compactness.
type Manifest struct {
	// TableSetID is the devtable.Tables ID.
	TableSetID string `cbor:"1,keyasint"`

	// Format is the generated source language.
	Format Format `cbor:"2,keyasint"`

	// SourceDigest is the BLAKE2b-256 digest of the generated source.
	SourceDigest []byte `cbor:"3,keyasint"`

	Records []ManifestRecord `cbor:"4,keyasint"`

	// CountByAddr has one entry per index address.
	CountByAddr []uint16 `cbor:"5,keyasint"`

	// IndexByAddr holds the record indices of non-empty addresses.
	IndexByAddr map[uint8][]uint16 `cbor:"6,keyasint"`

	// ScanLists holds the scan list of each tier.
	ScanLists [][]uint8 `cbor:"7,keyasint"`

	MaxTypesPerAddr int `cbor:"8,keyasint"`

	// ValidRange is the inclusive [min, max] of the valid operating range.
	ValidRange [2]uint8 `cbor:"9,keyasint"`
}

// ManifestRecord summarises one device type record.
type ManifestRecord struct {
	Name         string  `cbor:"1,keyasint"`
	Addresses    []uint8 `cbor:"2,keyasint"`
	ScanPriority string  `cbor:"3,keyasint,omitempty"`
	DecodeLength *uint32 `cbor:"4,keyasint,omitempty"`
}

// manifestEncMode produces deterministic output so manifests can be diffed.
var manifestEncMode cbor.EncMode

var manifestDecMode cbor.DecMode

func init() {
	var err error
	manifestEncMode, err = cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
	}.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create manifest CBOR encoder mode: %v", err))
	}

	manifestDecMode, err = cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyEnforcedAPF,
		IndefLength: cbor.IndefLengthAllowed,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create manifest CBOR decoder mode: %v", err))
	}
}

// Digest returns the BLAKE2b-256 digest of a generated artifact.
func Digest(src []byte) []byte {
	sum := blake2b.Sum256(src)
	return sum[:]
}

// NewManifest describes t as generated into src in the given format.
func NewManifest(t *devtable.Tables, format Format, src []byte) *Manifest {
	m := &Manifest{
		TableSetID:      t.ID.String(),
		Format:          format,
		SourceDigest:    Digest(src),
		IndexByAddr:     make(map[uint8][]uint16),
		MaxTypesPerAddr: t.Index.MaxPerAddress,
		ValidRange:      [2]uint8{devtable.MinValidAddr, devtable.MaxValidAddr},
	}

	for _, e := range t.Catalog.Entries() {
		rec := ManifestRecord{
			Name:      e.Record.Name,
			Addresses: make([]uint8, len(e.Addresses)),
		}
		for i, a := range e.Addresses {
			rec.Addresses[i] = uint8(a)
		}
		if _, ok := e.Record.ScanPriority.Tier(); ok {
			rec.ScanPriority = e.Record.ScanPriority.String()
		}
		if e.HasDecodeLength {
			n := uint32(e.DecodeLength)
			rec.DecodeLength = &n
		}
		m.Records = append(m.Records, rec)
	}

	for slot, l := range t.Index.ByAddr {
		m.CountByAddr = append(m.CountByAddr, uint16(len(l)))
		if len(l) == 0 {
			continue
		}
		idxs := make([]uint16, len(l))
		for i, idx := range l {
			idxs[i] = uint16(idx)
		}
		m.IndexByAddr[uint8(devtable.IndexMinAddr+slot)] = idxs
	}

	for _, list := range t.Priorities.Lists {
		addrs := make([]uint8, len(list))
		for i, a := range list {
			addrs[i] = uint8(a)
		}
		m.ScanLists = append(m.ScanLists, addrs)
	}
	return m
}

// Encode returns the canonical CBOR encoding of m.
func (m *Manifest) Encode() ([]byte, error) {
	return manifestEncMode.Marshal(m)
}

// Verify reports whether src is the artifact m was generated for.
func (m *Manifest) Verify(src []byte) bool {
	return bytes.Equal(Digest(src), m.SourceDigest)
}

// DecodeManifest decodes a CBOR manifest.
func DecodeManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := manifestDecMode.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding manifest: %w", err)
	}
	return &m, nil
}

// ReadManifest reads a CBOR manifest from r.
func ReadManifest(r io.Reader) (*Manifest, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	return DecodeManifest(data)
}
