package tablegen

import (
	"fmt"
	"go/token"
	"strconv"
	"strings"
	"text/template"

	"golang.org/x/tools/imports"

	"github.com/raftcore/i2cdevtypes/pkg/devtable"
	"github.com/raftcore/i2cdevtypes/pkg/devtype"
)

// DefaultGoPackage is the package clause used when Go.Package is empty.
const DefaultGoPackage = "devtypes"

// Go generates a Go source file holding the same tables as the C++ header,
// for host-side tools and simulators.
type Go struct {
	GenDecode bool
	Package   string
}

// Format implements Generator.
func (g *Go) Format() Format { return FormatGo }

// Generate implements Generator. The output is gofmt-formatted.
func (g *Go) Generate(t *devtable.Tables) ([]byte, error) {
	pkg := g.Package
	if pkg == "" {
		pkg = DefaultGoPackage
	}
	if !token.IsIdentifier(pkg) {
		return nil, fmt.Errorf("invalid Go package name %q", pkg)
	}
	if err := checkRanges(t); err != nil {
		return nil, err
	}

	var b strings.Builder
	if err := goTemplates.ExecuteTemplate(&b, "file", g.templateData(pkg, t)); err != nil {
		return nil, fmt.Errorf("executing Go template: %w", err)
	}

	formatted, err := imports.Process(pkg+"_gen.go", []byte(b.String()), nil)
	if err != nil {
		return nil, fmt.Errorf("formatting generated Go: %w", err)
	}
	return formatted, nil
}

type goFileData struct {
	Package      string
	TableSetID   string
	GenDecode    bool
	Records      []goRecordData
	MinAddr      int
	MaxAddr      int
	NumAddrs     int
	Counts       []int
	IndexArrays  []goIndexArray
	IndexByAddr  []string
	ScanLists    [][]int
	NumScanLists int
}

type goRecordData struct {
	DeviceType      string
	Addresses       string
	DetectionValues string
	InitValues      string
	PollingConfig   string
	DevInfo         string
	PollResultLen   int
}

type goIndexArray struct {
	Name    string
	Indices []int
}

func (g *Go) templateData(pkg string, t *devtable.Tables) goFileData {
	d := goFileData{
		Package:      pkg,
		TableSetID:   t.ID.String(),
		GenDecode:    g.GenDecode,
		MinAddr:      devtable.IndexMinAddr,
		MaxAddr:      devtable.LookupMaxAddr,
		NumAddrs:     devtable.NumIndexAddrs,
		NumScanLists: devtype.NumTiers,
	}
	for i := 0; i < t.Catalog.Len(); i++ {
		f := recordFields(t, i)
		d.Records = append(d.Records, goRecordData{
			DeviceType:      f[0],
			Addresses:       f[1],
			DetectionValues: f[2],
			InitValues:      f[3],
			PollingConfig:   f[4],
			DevInfo:         f[5],
			PollResultLen:   t.Catalog.Entry(i).DecodeLength,
		})
	}
	for slot, l := range t.Index.ByAddr {
		d.Counts = append(d.Counts, len(l))
		if len(l) == 0 {
			d.IndexByAddr = append(d.IndexByAddr, "nil")
			continue
		}
		name := fmt.Sprintf("devTypeIndexByAddr0x%02x", devtable.IndexMinAddr+slot)
		d.IndexArrays = append(d.IndexArrays, goIndexArray{Name: name, Indices: l})
		d.IndexByAddr = append(d.IndexByAddr, name)
	}
	for _, list := range t.Priorities.Lists {
		addrs := make([]int, len(list))
		for i, a := range list {
			addrs[i] = int(a)
		}
		d.ScanLists = append(d.ScanLists, addrs)
	}
	return d
}

// goStringLiteral prefers a raw string literal. Raw literals cannot hold a
// backquote and drop carriage returns, so such values are quoted instead.
func goStringLiteral(s string) string {
	if strings.ContainsAny(s, "`\r") {
		return strconv.Quote(s)
	}
	return "`" + s + "`"
}

var goTemplates = template.Must(template.New("").Funcs(template.FuncMap{
	"lit":     goStringLiteral,
	"hexByte": func(v int) string { return fmt.Sprintf("0x%02x", v) },
}).Parse(goFileTmpl))

const goFileTmpl = `{{define "file" -}}
// Code generated by i2cdevgen. DO NOT EDIT.

package {{.Package}}

// TableSetID identifies the device type database these tables were built from.
const TableSetID = "{{.TableSetID}}"

// DevTypeRecord describes one I2C device type.
type DevTypeRecord struct {
	DeviceType      string
	Addresses       string
	DetectionValues string
	InitValues      string
	PollingConfig   string
	DevInfo         string
{{- if .GenDecode}}
	PollResultLen   uint32
{{- end}}
}

// BaseDevTypeRecords holds all device types. Index tables refer to records
// by position in this slice.
var BaseDevTypeRecords = []DevTypeRecord{
{{- range .Records}}
	{
		DeviceType: {{lit .DeviceType}},
		Addresses: {{lit .Addresses}},
		DetectionValues: {{lit .DetectionValues}},
		InitValues: {{lit .InitValues}},
		PollingConfig: {{lit .PollingConfig}},
		DevInfo: {{lit .DevInfo}},
{{- if $.GenDecode}}
		PollResultLen: {{.PollResultLen}},
{{- end}}
	},
{{- end}}
}

// Address bounds of the by-address lookup.
const (
	BaseDevIndexByArrayMinAddr = {{.MinAddr}}
	BaseDevIndexByArrayMaxAddr = {{hexByte .MaxAddr}}
)

// BaseDevTypeCountByAddr is the number of device types for each address.
var BaseDevTypeCountByAddr = [{{.NumAddrs}}]uint8{
{{- range .Counts}}{{.}}, {{end -}}
}
{{range .IndexArrays}}
var {{.Name}} = []uint16{ {{- range $i, $v := .Indices}}{{if $i}}, {{end}}{{$v}}{{end -}} }
{{- end}}

// BaseDevTypeIndexByAddr lists the record indices for each address, nil
// where no device type uses the address.
var BaseDevTypeIndexByAddr = [{{.NumAddrs}}][]uint16{
{{- range .IndexByAddr}}
	{{.}},
{{- end}}
}
{{range $tier, $list := .ScanLists}}
// ScanPriority{{$tier}} is the tier {{$tier}} scan list.
var ScanPriority{{$tier}} = []uint8{ {{- range $list}}{{hexByte .}}, {{end -}} }
{{end}}
// NumScanPriorityLists is the number of scan priority tiers.
const NumScanPriorityLists = {{.NumScanLists}}

// ScanPriorityLists holds the scan list of each tier, highest priority first.
var ScanPriorityLists = [NumScanPriorityLists][]uint8{
{{- range $tier, $list := .ScanLists}}
	ScanPriority{{$tier}},
{{- end}}
}

// ScanPriorityListLengths holds len(ScanPriorityLists[i]).
var ScanPriorityListLengths = [NumScanPriorityLists]uint8{
{{- range .ScanLists}}
	{{len .}},
{{- end}}
}
{{end}}`
