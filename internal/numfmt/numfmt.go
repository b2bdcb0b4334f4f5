// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package numfmt formats numbers for rendered fragments and parses them back.
// Rendering and extraction share these helpers so a value written with Exact
// always parses to the value it was written from. Amount, Percent and
// WithUnit round for display and are not meant to be parsed.
package numfmt

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// unitSuffixes are stripped before parsing. Suffixes containing digits must
// be listed here because the number pattern cannot tell them apart.
var unitSuffixes = []string{"m²", "m2", "sqm", "㎡", "%p"}

// numberPattern matches exactly one number surrounded by non-numeric
// decoration (currency symbols, unit words, percent signs).
var numberPattern = regexp.MustCompile(`^[^\d+\-.]*?([+-]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?)[^\d]*$`)

// ParseNumber parses a rendered value into a float. It strips thousands
// separators, currency and unit decoration, and percent signs. Accounting
// negatives "(1,000)" are accepted. It returns false for anything that is
// not exactly one finite number; callers must treat that as missing.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	s = strings.ReplaceAll(s, "−", "-")

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	for _, suffix := range unitSuffixes {
		if strings.HasSuffix(s, suffix) {
			s = strings.TrimSuffix(s, suffix)
			break
		}
	}

	m := numberPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	if negative {
		v = -v
	}
	return v, true
}

// ToFloat converts a summary value into a float. Strings are parsed with
// ParseNumber; nil, booleans, and other types report false.
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n) && !math.IsInf(n, 0)
	case float32:
		return ToFloat(float64(n))
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case uint32:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		return ParseNumber(n)
	default:
		return 0, false
	}
}

// Canonical returns the canonical string form of a summary value. Numbers
// that are equal render identically regardless of their Go type, so an int
// 5 and a float64 5.0 canonicalize to "5".
func Canonical(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case uint32:
		return strconv.FormatUint(uint64(x), 10)
	case json.Number:
		if f, err := x.Float64(); err == nil {
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

// Exact formats v with thousands separators and every significant digit,
// followed by unit. A "%" unit is attached without a space.
func Exact(v float64, unit string) string {
	s := humanize.Commaf(v)
	switch unit {
	case "":
		return s
	case "%":
		return s + "%"
	default:
		return s + " " + unit
	}
}

// Amount formats v with thousands separators, rounded to two decimals.
func Amount(v float64) string {
	return humanize.CommafWithDigits(round2(v), 2)
}

// Percent formats v as a percentage rounded to two decimals.
func Percent(v float64) string {
	return Amount(v) + "%"
}

// WithUnit formats v with thousands separators followed by unit.
func WithUnit(v float64, unit string) string {
	if unit == "" {
		return Amount(v)
	}
	return Amount(v) + " " + unit
}

// round2 rounds half away from zero; CommafWithDigits only truncates.
func round2(v float64) float64 {
	r := math.Round(v*100) / 100
	if math.IsInf(r, 0) {
		return v
	}
	return r
}
