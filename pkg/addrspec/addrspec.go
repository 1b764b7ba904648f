// Package addrspec parses I2C address specifications such as
// "0x48", "0x20-0x27" or "0x1c,0x1d,0x60-0x62" into ordered address sets.
package addrspec

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// MaxAddress is the highest 7-bit bus address.
const MaxAddress = 0x7f

// ErrInvalidAddressSpec is returned (wrapped in an *InvalidSpecError) for any
// specification that cannot be expanded into a non-empty address set.
var ErrInvalidAddressSpec = errors.New("invalid address spec")

var (
	singlePattern = regexp.MustCompile(`^0x[0-9a-fA-F]{2}$`)
	rangePattern  = regexp.MustCompile(`^0x[0-9a-fA-F]{2}-0x[0-9a-fA-F]{2}$`)
)

// InvalidSpecError describes the token that made a specification unusable.
type InvalidSpecError struct {
	Spec   string
	Token  string
	Reason string
}

func (e *InvalidSpecError) Error() string {
	if e.Token == "" {
		return fmt.Sprintf("%v %q: %s", ErrInvalidAddressSpec, e.Spec, e.Reason)
	}
	return fmt.Sprintf("%v %q: token %q: %s", ErrInvalidAddressSpec, e.Spec, e.Token, e.Reason)
}

func (e *InvalidSpecError) Unwrap() error {
	return ErrInvalidAddressSpec
}

// Address is a 7-bit I2C bus address.
type Address uint8

// String renders the address as 0xHH.
func (a Address) String() string {
	return fmt.Sprintf("0x%02x", uint8(a))
}

// Set is the ordered expansion of an address specification. Duplicates are
// kept: a spec listing the same address twice yields it twice.
type Set []Address

// First returns the primary address of the set.
func (s Set) First() Address {
	return s[0]
}

// Contains reports whether a is present in the set.
func (s Set) Contains(a Address) bool {
	for _, v := range s {
		if v == a {
			return true
		}
	}
	return false
}

// String renders the set as a comma-separated list of 0xHH values.
func (s Set) String() string {
	parts := make([]string, len(s))
	for i, a := range s {
		parts[i] = a.String()
	}
	return strings.Join(parts, ",")
}

// Parse expands spec into its address set. Tokens are separated by commas and
// may be a single address "0xHH" or an inclusive range "0xHH-0xHH". Each bound
// must have exactly two hex digits and be no greater than MaxAddress.
func Parse(spec string) (Set, error) {
	var set Set
	for _, raw := range strings.Split(spec, ",") {
		token := strings.TrimSpace(raw)
		switch {
		case rangePattern.MatchString(token):
			lo, hi, _ := strings.Cut(token, "-")
			start, err := parseAddress(spec, token, lo)
			if err != nil {
				return nil, err
			}
			end, err := parseAddress(spec, token, hi)
			if err != nil {
				return nil, err
			}
			if start > end {
				return nil, &InvalidSpecError{Spec: spec, Token: token, Reason: "range start above range end"}
			}
			for a := int(start); a <= int(end); a++ {
				set = append(set, Address(a))
			}
		case singlePattern.MatchString(token):
			a, err := parseAddress(spec, token, token)
			if err != nil {
				return nil, err
			}
			set = append(set, a)
		default:
			return nil, &InvalidSpecError{Spec: spec, Token: token, Reason: "expected 0xHH or 0xHH-0xHH"}
		}
	}
	if len(set) == 0 {
		return nil, &InvalidSpecError{Spec: spec, Reason: "no addresses"}
	}
	return set, nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// static tables.
func MustParse(spec string) Set {
	set, err := Parse(spec)
	if err != nil {
		panic(err)
	}
	return set
}

func parseAddress(spec, token, hex string) (Address, error) {
	v, err := strconv.ParseUint(hex[2:], 16, 8)
	if err != nil {
		return 0, &InvalidSpecError{Spec: spec, Token: token, Reason: err.Error()}
	}
	if v > MaxAddress {
		return 0, &InvalidSpecError{Spec: spec, Token: token, Reason: fmt.Sprintf("address 0x%02x above 0x%02x", v, MaxAddress)}
	}
	return Address(v), nil
}
