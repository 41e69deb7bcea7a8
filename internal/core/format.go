// Package core holds the table model, the filter/aggregation pipeline
// and the Indian number formatting shared by every dashboard view.
package core

import (
	"strconv"
	"strings"
)

// FormatIndian renders n in the Indian numbering convention: the last
// three digits form one group, then groups of two, comma separated.
//
//	FormatIndian(1000)      -> "1,000"
//	FormatIndian(123456789) -> "12,34,56,789"
//	FormatIndian(-50000)    -> "-50,000"
func FormatIndian(n int64) string {
	neg := n < 0
	s := strconv.FormatInt(n, 10)
	if neg {
		s = s[1:]
	}
	s = groupIndian(s)
	if neg {
		return "-" + s
	}
	return s
}

// FormatIndianFloat formats f with the integer part grouped Indian
// style and the fractional part, rounded to decimals places, left
// ungrouped. decimals <= 0 rounds to a whole number.
func FormatIndianFloat(f float64, decimals int) string {
	if decimals < 0 {
		decimals = 0
	}
	s := strconv.FormatFloat(f, 'f', decimals, 64)

	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	intPart, fracPart, hasFrac := strings.Cut(s, ".")
	out := groupIndian(intPart)
	if hasFrac {
		out += "." + fracPart
	}
	if neg {
		return "-" + out
	}
	return out
}

// ParseAndFormatIndian formats a decimal string, rejecting non-numeric
// input with ErrInvalidNumber. Thousands separators in the input are
// not accepted; this is the entry point for untrusted values.
func ParseAndFormatIndian(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrInvalidNumber
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return FormatIndian(n), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return "", ErrInvalidNumber
	}
	_, frac, _ := strings.Cut(s, ".")
	return FormatIndianFloat(f, len(frac)), nil
}

// ParseIndian strips Indian-style grouping commas and parses the
// remainder as an integer. Inverse of FormatIndian for integers.
func ParseIndian(s string) (int64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, ErrInvalidNumber
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, ErrInvalidNumber
	}
	return n, nil
}

// groupIndian groups a bare digit string: rightmost three digits, then
// pairs, most significant group first.
func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	head := digits[:len(digits)-3]
	groups := make([]string, 0, len(head)/2+2)
	for len(head) > 2 {
		groups = append(groups, head[len(head)-2:])
		head = head[:len(head)-2]
	}
	if head != "" {
		groups = append(groups, head)
	}
	var b strings.Builder
	for i := len(groups) - 1; i >= 0; i-- {
		b.WriteString(groups[i])
		b.WriteByte(',')
	}
	b.WriteString(digits[len(digits)-3:])
	return b.String()
}
