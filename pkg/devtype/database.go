package devtype

import (
	"errors"
	"fmt"
	"math"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrNoDevTypes is returned when a database has no devTypes object.
var ErrNoDevTypes = errors.New("database has no devTypes mapping")

// Record is one device type as declared in the database. Records are
// read-only once loaded.
type Record struct {
	// Key is the name the record is declared under in devTypes.
	Key string

	Name            string
	Addresses       string
	DetectionValues string
	InitValues      string

	// PollingConfig and DeviceInfo keep the source structure, including
	// field order, so they can be re-serialised deterministically.
	PollingConfig *yaml.Node
	DeviceInfo    *yaml.Node

	ScanPriority ScanPriority
}

// PollingConfigValue returns the scalar value of key in the polling config.
func (r *Record) PollingConfigValue(key string) (string, bool) {
	v := mappingValue(r.PollingConfig, key)
	if v == nil || v.Kind != yaml.ScalarNode {
		return "", false
	}
	return v.Value, true
}

// Database is a loaded device type database with records in declaration order.
type Database struct {
	Records []*Record
}

// rawRecord mirrors one devTypes entry.
type rawRecord struct {
	DeviceType      string    `yaml:"deviceType"`
	Addresses       string    `yaml:"addresses"`
	DetectionValues string    `yaml:"detectionValues"`
	InitValues      string    `yaml:"initValues"`
	PollingConfig   yaml.Node `yaml:"pollingConfigJson"`
	DeviceInfo      yaml.Node `yaml:"devInfoJson"`
	ScanPriority    yaml.Node `yaml:"scanPriority"`
}

// ParseDatabase parses a device type database from JSON or YAML bytes.
// JSON input is read as YAML so that mapping order is preserved.
func ParseDatabase(data []byte) (*Database, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing device type database: %w", err)
	}

	devTypes := mappingValue(&doc, "devTypes")
	if devTypes == nil || devTypes.Kind != yaml.MappingNode {
		return nil, ErrNoDevTypes
	}

	db := &Database{Records: make([]*Record, 0, len(devTypes.Content)/2)}
	seen := make(map[string]int, len(devTypes.Content)/2)
	for i := 0; i+1 < len(devTypes.Content); i += 2 {
		key := devTypes.Content[i].Value
		var raw rawRecord
		if err := devTypes.Content[i+1].Decode(&raw); err != nil {
			return nil, fmt.Errorf("device type %q: %w", key, err)
		}
		rec := &Record{
			Key:             key,
			Name:            raw.DeviceType,
			Addresses:       raw.Addresses,
			DetectionValues: raw.DetectionValues,
			InitValues:      raw.InitValues,
			ScanPriority:    scanPriorityFromNode(&raw.ScanPriority),
		}
		if raw.PollingConfig.Kind != 0 {
			rec.PollingConfig = &raw.PollingConfig
		}
		if raw.DeviceInfo.Kind != 0 {
			rec.DeviceInfo = &raw.DeviceInfo
		}
		// A repeated key keeps its first position and takes the last value.
		if at, ok := seen[key]; ok {
			db.Records[at] = rec
			continue
		}
		seen[key] = len(db.Records)
		db.Records = append(db.Records, rec)
	}
	return db, nil
}

// LoadDatabase loads and parses a device type database from a file.
func LoadDatabase(path string) (*Database, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return ParseDatabase(data)
}

func scanPriorityFromNode(n *yaml.Node) ScanPriority {
	if n.Kind == 0 {
		return NoPriority()
	}
	n = resolveAlias(n)
	if n.Kind != yaml.ScalarNode {
		return OtherPriority(n.Value)
	}
	switch n.ShortTag() {
	case "!!int":
		var v int
		if err := n.Decode(&v); err != nil {
			return saturatedPriority(n.Value)
		}
		return NumericPriority(v)
	case "!!float":
		// yaml.v3 resolves an integer wider than 64 bits as a float.
		if integerText.MatchString(n.Value) {
			return saturatedPriority(n.Value)
		}
	case "!!str":
		if t, ok := ParseNamedPriority(n.Value); ok {
			return NamedPriority(t)
		}
	}
	return OtherPriority(n.Value)
}

var integerText = regexp.MustCompile(`^[-+]?[0-9]+$`)

// saturatedPriority maps an integer outside the range of int to the nearest
// representable priority, keeping the sign of raw.
func saturatedPriority(raw string) ScanPriority {
	p := NumericPriority(math.MaxInt)
	if strings.HasPrefix(raw, "-") {
		p = NumericPriority(math.MinInt)
	}
	p.Raw = raw
	return p
}

// mappingValue finds key in a mapping node, looking through documents and aliases.
func mappingValue(n *yaml.Node, key string) *yaml.Node {
	if n == nil {
		return nil
	}
	n = resolveAlias(n)
	if n.Kind == yaml.DocumentNode {
		if len(n.Content) == 0 {
			return nil
		}
		n = resolveAlias(n.Content[0])
	}
	if n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return resolveAlias(n.Content[i+1])
		}
	}
	return nil
}

func resolveAlias(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}
