package tablegen

import (
	"errors"
	"fmt"
	"math"

	"github.com/raftcore/i2cdevtypes/pkg/devtable"
)

var (
	// ErrUnsafeRawString is returned when a record field cannot be embedded
	// in a raw string literal with any supported delimiter.
	ErrUnsafeRawString = errors.New("field cannot be written as a raw string")

	// ErrTableOverflow is returned when a value does not fit the element
	// type of a generated array.
	ErrTableOverflow = errors.New("table value out of range")

	// ErrUnknownFormat is returned by NewGenerator for an unsupported format.
	ErrUnknownFormat = errors.New("unknown output format")
)

// Format selects the generated source language.
type Format string

const (
	FormatCPP Format = "cpp"
	FormatGo  Format = "go"
)

// Generator renders compiled tables as source text.
type Generator interface {
	// Generate returns the complete generated artifact. Output depends only
	// on the tables, so identical input gives byte-identical output.
	Generate(t *devtable.Tables) ([]byte, error)

	// Format returns the generated language.
	Format() Format
}

// Options configures generators.
type Options struct {
	// GenDecode adds each record's poll result length to the record table.
	GenDecode bool

	// GoPackage is the package clause for FormatGo output.
	GoPackage string
}

// NewGenerator returns the generator for format.
func NewGenerator(format Format, opts Options) (Generator, error) {
	switch format {
	case FormatCPP, "":
		return &CPP{GenDecode: opts.GenDecode}, nil
	case FormatGo:
		return &Go{GenDecode: opts.GenDecode, Package: opts.GoPackage}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// recordFields returns the textual record fields in table order.
func recordFields(t *devtable.Tables, i int) []string {
	e := t.Catalog.Entry(i)
	r := e.Record
	return []string{r.Name, r.Addresses, r.DetectionValues, r.InitValues, e.PollingConfigJSON, e.DeviceInfoJSON}
}

// checkRanges verifies that counts fit uint8 and record indices fit uint16.
func checkRanges(t *devtable.Tables) error {
	if t.Index.MaxPerAddress > math.MaxUint8 {
		return fmt.Errorf("%w: %d device types at one address", ErrTableOverflow, t.Index.MaxPerAddress)
	}
	if t.Catalog.Len() > math.MaxUint16+1 {
		return fmt.Errorf("%w: %d device types", ErrTableOverflow, t.Catalog.Len())
	}
	for i := 0; i < t.Catalog.Len(); i++ {
		e := t.Catalog.Entry(i)
		if e.HasDecodeLength && (e.DecodeLength < 0 || int64(e.DecodeLength) > math.MaxUint32) {
			return fmt.Errorf("%w: record %d decode length %d", ErrTableOverflow, i, e.DecodeLength)
		}
	}
	return nil
}

func indexArrayName(prefix string, addr int) string {
	return fmt.Sprintf("%s_0x%02x", prefix, addr)
}
