package tracing

import (
	"errors"
	"fmt"
	"strconv"
)

// HexToDecimal converts a hexadecimal trace or span ID fragment into its
// unsigned decimal string representation. The result is exact for values up
// to 2^64-1; longer inputs reduce to their low 64 bits, which is how
// Datadog derives its IDs from 128-bit W3C trace IDs. A leading sign is
// skipped: IDs are unsigned, the sign only appears when an upstream
// component rendered a 64-bit ID through a signed formatter.
func HexToDecimal(s string) (string, error) {
	if s != "" && (s[0] == '+' || s[0] == '-') {
		s = s[1:]
	}
	if s == "" {
		return "", errors.New("tracing: empty hex id")
	}

	var v uint64
	for i := 0; i < len(s); i++ {
		d, ok := hexDigit(s[i])
		if !ok {
			return "", fmt.Errorf("tracing: invalid hex digit %q in id %q", s[i], s)
		}
		// Wrapping accumulate: keeps the low 64 bits for long inputs.
		v = v<<4 | uint64(d)
	}
	return strconv.FormatUint(v, 10), nil
}

func hexDigit(c byte) (uint8, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// LowerHalf returns the low 64-bit half of a 128-bit hex trace ID.
// Shorter IDs are returned unchanged.
func LowerHalf(id string) string {
	if len(id) > 16 {
		return id[len(id)-16:]
	}
	return id
}
