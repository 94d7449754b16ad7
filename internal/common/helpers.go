package common

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	SOLDecimals       = 9 // SOL has 9 decimals (lamports)
	LamportsPerSOL    = 1_000_000_000
	maxDecimalsSupply = 19 // 10^19 no longer fits in uint64
)

// LamportsToSOL converts lamports to SOL string without float precision loss
func LamportsToSOL(lamports uint64) string {
	return formatWithDecimals(lamports, SOLDecimals)
}

// FormatSOL is LamportsToSOL with trailing zeros dropped, e.g. "0.2375".
func FormatSOL(lamports uint64) string {
	s := strings.TrimRight(LamportsToSOL(lamports), "0")
	return strings.TrimSuffix(s, ".")
}

// SOLToLamports converts SOL string to lamports without float precision loss
func SOLToLamports(sol string) (uint64, error) {
	return parseWithDecimals(sol, SOLDecimals)
}

// MustSOLToLamports is SOLToLamports for compile-time constants.
func MustSOLToLamports(sol string) uint64 {
	v, err := SOLToLamports(sol)
	if err != nil {
		panic(fmt.Sprintf("invalid SOL amount %q: %v", sol, err))
	}
	return v
}

// Pow10 returns 10^n for n <= 19, or false when it would overflow.
func Pow10(n int) (uint64, bool) {
	if n < 0 || n > maxDecimalsSupply {
		return 0, false
	}
	v := uint64(1)
	for i := 0; i < n; i++ {
		v *= 10
	}
	return v, true
}

// ParseGroupedInt parses an integer after removing whitespace, underscores,
// commas and any characters listed in extra (for example "$").
func ParseGroupedInt(s, extra string) (int64, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r == ',' || r == '_' || r == ' ' || r == '\t':
			return -1
		case strings.ContainsRune(extra, r):
			return -1
		}
		return r
	}, strings.TrimSpace(s))
	if cleaned == "" {
		return 0, fmt.Errorf("empty number")
	}
	return strconv.ParseInt(cleaned, 10, 64)
}

// formatWithDecimals converts integer to decimal string by inserting decimal point
// Example: formatWithDecimals(24981836, 9) = "0.024981836"
func formatWithDecimals(value uint64, decimals int) string {
	s := strconv.FormatUint(value, 10)

	// Pad with leading zeros if needed
	if len(s) <= decimals {
		s = strings.Repeat("0", decimals-len(s)+1) + s
	}

	pos := len(s) - decimals
	return s[:pos] + "." + s[pos:]
}

// parseWithDecimals converts decimal string to integer by removing decimal point
// Example: parseWithDecimals("0.024981836", 9) = 24981836
func parseWithDecimals(s string, decimals int) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty string")
	}

	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, fmt.Errorf("invalid decimal format")
	}

	whole := parts[0]
	if whole == "" {
		whole = "0"
	}
	frac := ""
	if len(parts) == 2 {
		frac = parts[1]
	}

	// Pad or truncate fractional part to exact decimals
	if len(frac) < decimals {
		frac += strings.Repeat("0", decimals-len(frac))
	} else if len(frac) > decimals {
		frac = frac[:decimals]
	}

	n, err := strconv.ParseUint(whole+frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return n, nil
}
