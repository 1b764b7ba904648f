package devtype

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// CompactJSON renders n as single-line JSON with no insignificant whitespace,
// keeping mapping keys in declaration order. Non-ASCII characters are written
// as \u escapes so the result is plain ASCII. A nil node renders as "".
func CompactJSON(n *yaml.Node) (string, error) {
	if n == nil || n.Kind == 0 {
		return "", nil
	}
	var b strings.Builder
	if err := writeCompact(&b, n); err != nil {
		return "", err
	}
	return b.String(), nil
}

func writeCompact(b *strings.Builder, n *yaml.Node) error {
	n = resolveAlias(n)
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			b.WriteString("null")
			return nil
		}
		return writeCompact(b, n.Content[0])

	case yaml.MappingNode:
		b.WriteByte('{')
		for i := 0; i+1 < len(n.Content); i += 2 {
			if i > 0 {
				b.WriteByte(',')
			}
			writeString(b, n.Content[i].Value)
			b.WriteByte(':')
			if err := writeCompact(b, n.Content[i+1]); err != nil {
				return err
			}
		}
		b.WriteByte('}')
		return nil

	case yaml.SequenceNode:
		b.WriteByte('[')
		for i, c := range n.Content {
			if i > 0 {
				b.WriteByte(',')
			}
			if err := writeCompact(b, c); err != nil {
				return err
			}
		}
		b.WriteByte(']')
		return nil

	case yaml.ScalarNode:
		return writeScalar(b, n)
	}
	return fmt.Errorf("line %d: unsupported node kind %d", n.Line, n.Kind)
}

func writeScalar(b *strings.Builder, n *yaml.Node) error {
	switch n.ShortTag() {
	case "!!null":
		b.WriteString("null")
	case "!!bool":
		var v bool
		if err := n.Decode(&v); err != nil {
			return fmt.Errorf("line %d: %w", n.Line, err)
		}
		if v {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case "!!int", "!!float":
		// Numbers already in JSON form keep their source text, so integers
		// wider than 64 bits and spellings such as 1.0 survive unchanged.
		if json.Valid([]byte(n.Value)) {
			b.WriteString(n.Value)
			return nil
		}
		return writeYAMLNumber(b, n)
	default:
		writeString(b, n.Value)
	}
	return nil
}

// writeYAMLNumber converts YAML-only number spellings (0x10, 1_000, .5)
// to JSON.
func writeYAMLNumber(b *strings.Builder, n *yaml.Node) error {
	if n.ShortTag() == "!!int" {
		v, ok := new(big.Int).SetString(strings.ReplaceAll(n.Value, "_", ""), 0)
		if !ok {
			return fmt.Errorf("line %d: invalid integer %q", n.Line, n.Value)
		}
		b.WriteString(v.String())
		return nil
	}
	var v float64
	if err := n.Decode(&v); err != nil {
		return fmt.Errorf("line %d: %w", n.Line, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("line %d: %q has no JSON representation", n.Line, n.Value)
	}
	out, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("line %d: %w", n.Line, err)
	}
	b.Write(out)
	return nil
}

// writeString writes s as an ASCII-only JSON string.
func writeString(b *strings.Builder, s string) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s) // strings always encode

	quoted := bytes.TrimSuffix(buf.Bytes(), []byte("\n"))
	for len(quoted) > 0 {
		r, size := utf8.DecodeRune(quoted)
		quoted = quoted[size:]
		switch {
		case r < utf8.RuneSelf:
			b.WriteRune(r)
		case r > 0xffff:
			hi, lo := utf16.EncodeRune(r)
			fmt.Fprintf(b, `\u%04x\u%04x`, hi, lo)
		default:
			fmt.Fprintf(b, `\u%04x`, r)
		}
	}
}
