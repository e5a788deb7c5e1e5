// Package format turns amounts, currency codes and dates into the strings shown
// on an invoice preview.
//
// All functions are pure. Currency is only a label: Currency never converts an
// amount, it prefixes the symbol of the given code to the amount fixed to two
// decimals.
package format

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the layout of every date string stored in a draft.
const DateLayout = "2006-01-02"

const (
	// EmptyShortDate is shown in the preview when a date is not set.
	EmptyShortDate = "-"

	// EmptyLongDate is shown on the date picker trigger when a date is not set.
	EmptyLongDate = "Select date"

	fallbackSymbol = "$"
)

var currencySymbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"COP": "COP$",
	"CAD": "CAD$",
	"AUD": "AUD$",
	"MXN": "MXN$",
}

// Currencies returns the currency codes with a known symbol, sorted.
func Currencies() []string {
	return []string{"AUD", "CAD", "COP", "EUR", "GBP", "MXN", "USD"}
}

// Symbol returns the display symbol of a currency code, "$" for unknown codes.
// Codes are matched case-insensitively.
func Symbol(code string) string {
	if symbol, ok := currencySymbols[normalizeCode(code)]; ok {
		return symbol
	}
	return fallbackSymbol
}

// Known reports whether code has its own symbol, using the same matching as
// Symbol.
func Known(code string) bool {
	_, ok := currencySymbols[normalizeCode(code)]
	return ok
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Currency renders amount with the symbol of code and exactly two decimals,
// e.g. Currency(1234.5, "USD") == "$1234.50".
//
// The sign of a negative amount sits between the symbol and the digits
// ("$-5.00"); the preview keeps that quirk as-is.
func Currency(amount float64, code string) string {
	return Symbol(code) + Fixed2(amount)
}

// Fixed2 renders amount with exactly two decimals, the way a browser's
// toFixed(2) does: the exact binary value is rounded half away from zero, so
// 1.005 (stored as 1.00499...) renders as "1.00", and a negative amount that
// rounds to zero keeps its sign ("-0.00").
func Fixed2(amount float64) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return strconv.FormatFloat(amount, 'f', 2, 64)
	}
	s := decimal.NewFromFloatWithExponent(amount, math.MinInt32).StringFixed(2)
	if amount < 0 && !strings.HasPrefix(s, "-") {
		s = "-" + s
	}
	return s
}

// Number renders a quantity or percentage the shortest way that round-trips,
// so 2 prints as "2" and 1.5 as "1.5".
func Number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// DateShort renders a YYYY-MM-DD date as "6 Jan 26". Empty input yields "-";
// input that is not a date is returned unchanged.
func DateShort(date string) string {
	date = strings.TrimSpace(date)
	if date == "" {
		return EmptyShortDate
	}
	t, err := ParseDate(date)
	if err != nil {
		return date
	}
	return t.Format("2 Jan 06")
}

// DateLong renders a YYYY-MM-DD date as "January 06, 2026". Empty input yields
// "Select date"; input that is not a date is returned unchanged.
func DateLong(date string) string {
	date = strings.TrimSpace(date)
	if date == "" {
		return EmptyLongDate
	}
	t, err := ParseDate(date)
	if err != nil {
		return date
	}
	return t.Format("January 02, 2006")
}

// ParseDate parses a YYYY-MM-DD date as a calendar day, with no time zone shift.
func ParseDate(date string) (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(date))
}
