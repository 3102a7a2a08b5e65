package webcash

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// WebcashDecimals is the number of decimal places carried by webcash
	// amounts (1 webcash = 10^8 base units).
	WebcashDecimals = 8
)

// FormatAmount converts base units to a webcash decimal string without float
// precision loss.
func FormatAmount(units uint64) string {
	return formatWithDecimals(units, WebcashDecimals)
}

// ParseAmount converts a webcash decimal string to base units without float
// precision loss.
func ParseAmount(amount string) (uint64, error) {
	return parseWithDecimals(amount, WebcashDecimals)
}

// formatWithDecimals converts integer to decimal string by inserting decimal point
// Example: formatWithDecimals(150000000, 8) = "1.50000000"
func formatWithDecimals(value uint64, decimals int) string {
	s := fmt.Sprintf("%d", value)

	// Pad with leading zeros if needed
	for len(s) <= decimals {
		s = "0" + s
	}

	// Insert decimal point
	pos := len(s) - decimals
	return s[:pos] + "." + s[pos:]
}

// parseWithDecimals converts decimal string to integer by removing decimal point
// Example: parseWithDecimals("1.5", 8) = 150000000
func parseWithDecimals(s string, decimals int) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty string")
	}

	parts := strings.Split(s, ".")

	if len(parts) == 1 {
		// No decimal point - shift by 10^decimals. Parsing the padded
		// string makes an overflowing amount an error, never a wrapped
		// value.
		return strconv.ParseUint(parts[0]+strings.Repeat("0", decimals), 10, 64)
	}

	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid decimal format")
	}

	whole := parts[0]
	frac := parts[1]
	if whole == "" {
		whole = "0"
	}

	// Pad or truncate fractional part to exact decimals
	if len(frac) < decimals {
		frac += strings.Repeat("0", decimals-len(frac))
	} else if len(frac) > decimals {
		frac = frac[:decimals]
	}

	// Combine and parse
	combined := whole + frac
	return strconv.ParseUint(combined, 10, 64)
}

// CompareAmounts compares two webcash decimal string amounts without float
// precision loss. Returns: -1 if a < b, 0 if a == b, 1 if a > b, and error
// if parsing fails
func CompareAmounts(a, b string) (int, error) {
	aVal, err := parseWithDecimals(a, WebcashDecimals)
	if err != nil {
		return 0, fmt.Errorf("failed to parse amount '%s': %w", a, err)
	}

	bVal, err := parseWithDecimals(b, WebcashDecimals)
	if err != nil {
		return 0, fmt.Errorf("failed to parse amount '%s': %w", b, err)
	}

	if aVal < bVal {
		return -1, nil
	}
	if aVal > bVal {
		return 1, nil
	}
	return 0, nil
}
