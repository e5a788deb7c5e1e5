package draft

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var leadingNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// ParseNumber reads the leading decimal number of s the way a form input is
// read: "12.5kg" is 12.5, and anything without a leading number is 0.
// It never fails.
func ParseNumber(s string) float64 {
	match := leadingNumber.FindString(strings.TrimSpace(s))
	if match == "" {
		return 0
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

var leadingInteger = regexp.MustCompile(`^[+-]?\d+`)

// ParseInt reads the leading integer of s. ok is false when s does not start
// with digits.
func ParseInt(s string) (n int, ok bool) {
	match := leadingInteger.FindString(strings.TrimSpace(s))
	if match == "" {
		return 0, false
	}
	v, err := strconv.Atoi(match)
	if err != nil {
		return 0, false
	}
	return v, true
}
