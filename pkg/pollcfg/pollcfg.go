// Package pollcfg derives poll result metadata from a device type's polling
// configuration.
//
// A polling config command string has the form
//
//	0x08=0bXXXXXXXXXXXXXXXX&0x09=r2&0x0a=
//
// Each '&'-separated part writes the bytes before '=' and then reads the
// number of bytes described after it: "0b" followed by a bit mask (one
// character per bit, a multiple of 8), "rN" for N bytes, or nothing.
package pollcfg

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/raftcore/i2cdevtypes/pkg/devtype"
)

// CommandKey is the pollingConfigJson field holding the poll command string.
const CommandKey = "c"

// ErrInvalidReadSpec is returned for a read definition that is neither a bit
// mask nor a byte count.
var ErrInvalidReadSpec = errors.New("invalid polling config read spec")

// ResultLen returns the number of bytes returned by one poll of cmd.
func ResultLen(cmd string) (int, error) {
	total := 0
	for _, part := range strings.Split(cmd, "&") {
		// Only the field between the first and second '=' is the read spec.
		var read string
		if fields := strings.Split(part, "="); len(fields) > 1 {
			read = strings.TrimSpace(fields[1])
		}
		switch {
		case read == "":
		case strings.HasPrefix(read, "0b"):
			bits := len(read) - 2
			if bits%8 != 0 {
				return 0, fmt.Errorf("%w: %q is %d bits", ErrInvalidReadSpec, read, bits)
			}
			total += bits / 8
		case strings.HasPrefix(read, "r"):
			n, err := strconv.Atoi(read[1:])
			if err != nil || n < 0 {
				return 0, fmt.Errorf("%w: %q", ErrInvalidReadSpec, read)
			}
			total += n
		default:
			return 0, fmt.Errorf("%w: %q", ErrInvalidReadSpec, read)
		}
	}
	return total, nil
}

// DecodeLength returns the poll result length of rec. Records without a
// poll command have length 0. It satisfies devtype.DecodeLengthFunc.
func DecodeLength(rec *devtype.Record) (int, error) {
	cmd, ok := rec.PollingConfigValue(CommandKey)
	if !ok {
		return 0, nil
	}
	return ResultLen(cmd)
}

var _ devtype.DecodeLengthFunc = DecodeLength
