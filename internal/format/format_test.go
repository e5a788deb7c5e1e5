package format_test

import (
	"fmt"
	"strings"
	"testing"

	"invoicer/internal/format"
)

func TestCurrency(t *testing.T) {
	tests := []struct {
		name   string
		amount float64
		code   string
		want   string
	}{
		{"usd pads decimals", 1234.5, "USD", "$1234.50"},
		{"cop prefix", 5, "COP", "COP$5.00"},
		{"euro", 19.99, "EUR", "€19.99"},
		{"pound", 0, "GBP", "£0.00"},
		{"cad", 10, "CAD", "CAD$10.00"},
		{"aud", 10, "AUD", "AUD$10.00"},
		{"mxn", 10, "MXN", "MXN$10.00"},
		{"unknown code falls back to dollar", 7, "JPY", "$7.00"},
		{"empty code falls back to dollar", 7, "", "$7.00"},
		{"lower case code", 3, "eur", "€3.00"},
		{"float noise is rounded away", 217.35000000000002, "USD", "$217.35"},
		{"rounds to two places", 10.345, "USD", "$10.35"},
		{"negative keeps sign after symbol", -5, "USD", "$-5.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := format.Currency(tt.amount, tt.code); got != tt.want {
				t.Errorf("Currency(%v, %q) = %q, want %q", tt.amount, tt.code, got, tt.want)
			}
		})
	}
}

func TestFixed2RoundsExactBinaryValue(t *testing.T) {
	tests := []struct {
		amount float64
		want   string
	}{
		{1.005, "1.00"},
		{2.675, "2.67"},
		{1.345, "1.34"},
		{0.615, "0.61"},
		{8.345, "8.35"},
		{10.345, "10.35"},
		{0.125, "0.13"},
		{-0.125, "-0.13"},
		{123456789.125, "123456789.13"},
		{-0.001, "-0.00"},
		{0, "0.00"},
		{1234.5, "1234.50"},
		{217.35000000000002, "217.35"},
	}
	for _, tt := range tests {
		if got := format.Fixed2(tt.amount); got != tt.want {
			t.Errorf("Fixed2(%v) = %q, want %q", tt.amount, got, tt.want)
		}
	}
}

func TestKnownMatchesSymbol(t *testing.T) {
	tests := []struct {
		code   string
		known  bool
		symbol string
	}{
		{"EUR", true, "€"},
		{"eur", true, "€"},
		{" gbp ", true, "£"},
		{"Usd", true, "$"},
		{"JPY", false, "$"},
		{"", false, "$"},
	}
	for _, tt := range tests {
		if got := format.Known(tt.code); got != tt.known {
			t.Errorf("Known(%q) = %v, want %v", tt.code, got, tt.known)
		}
		if got := format.Symbol(tt.code); got != tt.symbol {
			t.Errorf("Symbol(%q) = %q, want %q", tt.code, got, tt.symbol)
		}
	}
	for _, code := range format.Currencies() {
		if !format.Known(strings.ToLower(code)) {
			t.Errorf("Known(%q) = false for a listed currency", strings.ToLower(code))
		}
	}
}

func TestNumber(t *testing.T) {
	tests := map[float64]string{
		2:    "2",
		1.5:  "1.5",
		0:    "0",
		12.5: "12.5",
	}
	for in, want := range tests {
		if got := format.Number(in); got != want {
			t.Errorf("Number(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestDateShort(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "-"},
		{"   ", "-"},
		{"2026-01-06", "6 Jan 26"},
		{"2025-12-31", "31 Dec 25"},
		{"not a date", "not a date"},
	}
	for _, tt := range tests {
		if got := format.DateShort(tt.in); got != tt.want {
			t.Errorf("DateShort(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDateLong(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "Select date"},
		{"2026-01-06", "January 06, 2026"},
		{"2026-11-18", "November 18, 2026"},
		{"06/01/2026", "06/01/2026"},
	}
	for _, tt := range tests {
		if got := format.DateLong(tt.in); got != tt.want {
			t.Errorf("DateLong(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func ExampleCurrency() {
	fmt.Println(format.Currency(1234.5, "USD"))
	fmt.Println(format.Currency(5, "COP"))
	fmt.Println(format.Currency(5, "XYZ"))
	// Output:
	// $1234.50
	// COP$5.00
	// $5.00
}
