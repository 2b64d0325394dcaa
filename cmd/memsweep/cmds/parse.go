package cmds

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"memsweep/process"
)

// ParseU64 parses a value the way it is usually copied out of a debugger:
// 0x prefix or any of a-f means hex, everything else is decimal.
func ParseU64(s string) (uint64, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0, fmt.Errorf("empty value")
	}
	digits, base := s, 10
	switch {
	case strings.HasPrefix(s, "0x"):
		digits, base = s[2:], 16
	case strings.ContainsAny(s, "abcdef"):
		base = 16
	}

	// ParseUint returns the saturated value alongside a range error
	v, err := strconv.ParseUint(digits, base, 64)
	if err != nil {
		return 0, err
	}
	return v, nil
}

// valuePattern encodes v in its low width bytes, little endian.
func valuePattern(v uint64, width int) (process.Pattern, error) {
	switch width {
	case 1, 2, 4, 8:
	default:
		return nil, fmt.Errorf("width must be 1, 2, 4 or 8, not %d", width)
	}
	if width < 8 && v>>(uint(width)*8) != 0 {
		return nil, fmt.Errorf("value 0x%x does not fit in %d bytes", v, width)
	}
	return process.PatternFromUint64(v)[:width], nil
}

// parseAOB parses an exact array of bytes such as "de ad be ef" or "de,ad,be,ef".
func parseAOB(aob string) (process.Pattern, error) {
	parts := strings.FieldsFunc(aob, func(r rune) bool {
		return r == ',' || r == ' '
	})

	var pattern process.Pattern
	for _, part := range parts {
		if part == "??" || part == "?" {
			return nil, fmt.Errorf("wildcards are not supported: %s", part)
		}
		b, err := hex.DecodeString(part)
		if err != nil || len(b) != 1 {
			return nil, fmt.Errorf("invalid byte %q", part)
		}
		pattern = append(pattern, b[0])
	}
	if !pattern.IsValid() {
		return nil, fmt.Errorf("empty pattern")
	}
	return pattern, nil
}
