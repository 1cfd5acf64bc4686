package contracts

import (
	"fmt"
	"math/big"
	"regexp"
	"strings"
)

var decimalPattern = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)

// ParseDecimal converts a human decimal amount ("1.23") into base units for
// a token with the given decimals. Zero and negative amounts are rejected.
func ParseDecimal(value string, decimals int) (*big.Int, error) {
	clean := strings.TrimSpace(value)
	if clean == "" {
		return nil, fmt.Errorf("empty amount")
	}
	if !decimalPattern.MatchString(clean) {
		return nil, fmt.Errorf("amount %q must be in decimal form like 1.23", value)
	}
	if decimals < 0 {
		return nil, fmt.Errorf("decimals must be >= 0")
	}

	parts := strings.SplitN(clean, ".", 2)
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if len(fracPart) > decimals {
		return nil, fmt.Errorf("amount %q has more than %d decimal places", value, decimals)
	}
	fracPart += strings.Repeat("0", decimals-len(fracPart))

	out, ok := new(big.Int).SetString(intPart+fracPart, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", value)
	}
	if out.Sign() <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}
	return out, nil
}

// FormatUnits renders base units as a decimal string, trimming trailing
// zeros from the fractional part.
func FormatUnits(v *big.Int, decimals int) string {
	if v == nil {
		return "0"
	}
	s := new(big.Int).Abs(v).String()
	sign := ""
	if v.Sign() < 0 {
		sign = "-"
	}
	if decimals <= 0 {
		return sign + s
	}
	if len(s) <= decimals {
		s = strings.Repeat("0", decimals-len(s)+1) + s
	}
	intPart := s[:len(s)-decimals]
	fracPart := strings.TrimRight(s[len(s)-decimals:], "0")
	if fracPart == "" {
		return sign + intPart
	}
	return sign + intPart + "." + fracPart
}
