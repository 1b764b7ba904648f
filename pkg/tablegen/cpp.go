package tablegen

import (
	"fmt"
	"strings"

	"github.com/raftcore/i2cdevtypes/pkg/devtable"
	"github.com/raftcore/i2cdevtypes/pkg/devtype"
)

// CPP generates a C++ header for the RaftI2C device type records.
type CPP struct {
	// GenDecode appends a poll result length function to each record.
	GenDecode bool
}

// Format implements Generator.
func (g *CPP) Format() Format { return FormatCPP }

// Generate implements Generator.
func (g *CPP) Generate(t *devtable.Tables) ([]byte, error) {
	if err := checkRanges(t); err != nil {
		return nil, err
	}

	var sb strings.Builder
	sb.WriteString("#pragma once\n\n")
	fmt.Fprintf(&sb, "// Device type table set %s\n\n", t.ID)

	if err := g.writeRecords(&sb, t); err != nil {
		return nil, err
	}

	sb.WriteString(fmt.Sprintf("static const uint32_t BASE_DEV_INDEX_BY_ARRAY_MIN_ADDR = %d;\n", devtable.IndexMinAddr))
	sb.WriteString(fmt.Sprintf("static const uint32_t BASE_DEV_INDEX_BY_ARRAY_MAX_ADDR = 0x%02x;\n\n", devtable.LookupMaxAddr))

	writeCPPIndex(&sb, t.Index)
	writeCPPScanLists(&sb, t.Priorities)

	return []byte(sb.String()), nil
}

func (g *CPP) writeRecords(sb *strings.Builder, t *devtable.Tables) error {
	sb.WriteString("static BusI2CDevTypeRecord baseDevTypeRecords[] =\n")
	sb.WriteString("{\n")
	for i := 0; i < t.Catalog.Len(); i++ {
		sb.WriteString("    {\n")
		fields := recordFields(t, i)
		for j, f := range fields {
			lit, err := cppRawString(f)
			if err != nil {
				return fmt.Errorf("record %d (%s): %w", i, t.Catalog.Entry(i).Record.Key, err)
			}
			sb.WriteString("        " + lit)
			if j < len(fields)-1 {
				sb.WriteString(",\n")
			}
		}
		if e := t.Catalog.Entry(i); g.GenDecode && e.HasDecodeLength {
			fmt.Fprintf(sb, ",\n        []() -> uint32_t { return %d; }", e.DecodeLength)
		}
		sb.WriteString("\n    },\n")
	}
	sb.WriteString("};\n\n")
	return nil
}

// maxRawDelimiter is the longest delimiter C++ allows in a raw string.
const maxRawDelimiter = 16

// cppRawString returns s as a C++ raw string literal. The delimiter is empty
// unless s contains the plain terminator, in which case the shortest run of
// 'x' that does not occur as a terminator in s is used.
func cppRawString(s string) (string, error) {
	for n := 0; n <= maxRawDelimiter; n++ {
		d := strings.Repeat("x", n)
		if !strings.Contains(s, ")"+d+`"`) {
			return `R"` + d + "(" + s + ")" + d + `"`, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsafeRawString, s)
}

func writeCPPIndex(sb *strings.Builder, ix *devtable.Index) {
	sb.WriteString("static const uint8_t baseDevTypeCountByAddr[] =\n")
	sb.WriteString("{\n    ")
	for _, l := range ix.ByAddr {
		fmt.Fprintf(sb, "%d,", len(l))
	}
	sb.WriteString("\n};\n\n")

	for slot, l := range ix.ByAddr {
		if len(l) == 0 {
			continue
		}
		fmt.Fprintf(sb, "static uint16_t %s[] = {", indexArrayName("baseDevTypeIndexByAddr", devtable.IndexMinAddr+slot))
		for i, idx := range l {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(sb, "%d", idx)
		}
		sb.WriteString("};\n")
	}

	sb.WriteString("\nstatic uint16_t* baseDevTypeIndexByAddr[] =\n")
	sb.WriteString("{\n")
	for slot, l := range ix.ByAddr {
		if len(l) == 0 {
			sb.WriteString("    nullptr,\n")
			continue
		}
		fmt.Fprintf(sb, "    %s,\n", indexArrayName("baseDevTypeIndexByAddr", devtable.IndexMinAddr+slot))
	}
	sb.WriteString("};\n")
}

func writeCPPScanLists(sb *strings.Builder, p *devtable.Priorities) {
	for tier, list := range p.Lists {
		fmt.Fprintf(sb, "\n\nstatic const uint8_t scanPriority%d[] =\n", tier)
		sb.WriteString("{\n    ")
		if len(list) == 0 {
			// Zero-length arrays are not valid C++; the length below is 0.
			sb.WriteString("0")
		}
		for _, a := range list {
			fmt.Fprintf(sb, "0x%02x,", uint8(a))
		}
		sb.WriteString("\n};\n")
		fmt.Fprintf(sb, "static const uint32_t scanPriority%dLen = %d;\n", tier, len(list))
	}

	sb.WriteString("\nstatic const uint8_t* scanPriorityLists[] =\n")
	sb.WriteString("{\n")
	for tier := range p.Lists {
		fmt.Fprintf(sb, "    scanPriority%d,\n", tier)
	}
	sb.WriteString("};\n")

	sb.WriteString("\nstatic const uint8_t scanPriorityListLengths[] =\n")
	sb.WriteString("{\n")
	for _, list := range p.Lists {
		fmt.Fprintf(sb, "    %d,\n", len(list))
	}
	sb.WriteString("};\n")

	fmt.Fprintf(sb, "\nstatic const uint8_t numScanPriorityLists = %d;\n", devtype.NumTiers)
}
