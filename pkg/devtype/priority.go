package devtype

import "fmt"

// Tier is a scan priority tier. Lower tiers are scanned first.
type Tier uint8

const (
	TierHigh Tier = iota
	TierMedium
	TierLow
)

// NumTiers is the number of scan priority tiers.
const NumTiers = 3

// String returns the tier name.
func (t Tier) String() string {
	switch t {
	case TierHigh:
		return "high"
	case TierMedium:
		return "medium"
	case TierLow:
		return "low"
	default:
		return fmt.Sprintf("tier(%d)", uint8(t))
	}
}

// PriorityKind identifies which form a record's scanPriority value took.
type PriorityKind uint8

const (
	// PriorityNone means the record has no scanPriority field.
	PriorityNone PriorityKind = iota
	// PriorityNumeric is a 1-based integer priority.
	PriorityNumeric
	// PriorityNamed is one of "high", "medium" or "low".
	PriorityNamed
	// PriorityOther is any other value (null, float, unknown string, ...).
	PriorityOther
)

// ScanPriority is the scanPriority value of a device type record.
type ScanPriority struct {
	Kind   PriorityKind
	Number int    // PriorityNumeric
	Named  Tier   // PriorityNamed
	Raw    string // source text, for diagnostics
}

// NoPriority returns the value for a record without scanPriority.
func NoPriority() ScanPriority { return ScanPriority{Kind: PriorityNone} }

// NumericPriority returns a 1-based numeric priority.
func NumericPriority(n int) ScanPriority {
	return ScanPriority{Kind: PriorityNumeric, Number: n, Raw: fmt.Sprint(n)}
}

// NamedPriority returns the named priority for t.
func NamedPriority(t Tier) ScanPriority {
	return ScanPriority{Kind: PriorityNamed, Named: t, Raw: t.String()}
}

// OtherPriority returns a priority that resolves to the lowest tier.
func OtherPriority(raw string) ScanPriority {
	return ScanPriority{Kind: PriorityOther, Raw: raw}
}

// ParseNamedPriority maps "high", "medium" and "low" to their tiers.
func ParseNamedPriority(s string) (Tier, bool) {
	switch s {
	case "high":
		return TierHigh, true
	case "medium":
		return TierMedium, true
	case "low":
		return TierLow, true
	}
	return 0, false
}

// Tier resolves the priority to a tier. The boolean is false for records
// without an explicit priority, which contribute nothing to tier resolution.
// Numeric priorities are 1-based and clamped into range.
func (p ScanPriority) Tier() (Tier, bool) {
	switch p.Kind {
	case PriorityNone:
		return 0, false
	case PriorityNumeric:
		switch {
		case p.Number < 1:
			return TierHigh, true
		case p.Number > NumTiers:
			return TierLow, true
		}
		return Tier(p.Number - 1), true
	case PriorityNamed:
		return p.Named, true
	default:
		return TierLow, true
	}
}

func (p ScanPriority) String() string {
	if p.Kind == PriorityNone {
		return "none"
	}
	return p.Raw
}
