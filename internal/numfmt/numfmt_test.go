// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package numfmt

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"3,250,000,000", 3250000000, true},
		{"15.8", 15.8, true},
		{"15.8%", 15.8, true},
		{"₩3,250,000,000", 3250000000, true},
		{"3,250,000,000 KRW", 3250000000, true},
		{"1,200,000원", 1200000, true},
		{"120 units", 120, true},
		{"1,234.5 m²", 1234.5, true},
		{"1,234.5 m2", 1234.5, true},
		{"-42", -42, true},
		{"−42", -42, true},
		{"(1,000)", -1000, true},
		{"  7  ", 7, true},
		{".5", 0.5, true},
		{"", 0, false},
		{"N/A", 0, false},
		{"pending", 0, false},
		{"-", 0, false},
		{"12-15", 0, false},
		{"1.2.3", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseNumber(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.InDelta(t, tt.want, got, 1e-9)
			}
		})
	}
}

func TestFormatRoundTrip(t *testing.T) {
	for _, v := range []float64{0, 1, 15.8, 1234.56, 3250000000, -1000000} {
		got, ok := ParseNumber(Amount(v))
		assert.True(t, ok, "Amount(%v) = %q", v, Amount(v))
		assert.InDelta(t, v, got, 1e-9)

		got, ok = ParseNumber(Percent(v))
		assert.True(t, ok)
		assert.InDelta(t, v, got, 1e-9)

		got, ok = ParseNumber(WithUnit(v, "KRW"))
		assert.True(t, ok)
		assert.InDelta(t, v, got, 1e-9)
	}
}

func TestExactRoundTrip(t *testing.T) {
	values := []float64{15.876543, 1234.5678, 0.1 + 0.2, 1e-7, -9876543.21012, 3250000000.125, 6.666666666666667}
	for _, v := range values {
		for _, unit := range []string{"", "%", "KRW", "m²"} {
			s := Exact(v, unit)
			got, ok := ParseNumber(s)
			assert.True(t, ok, "Exact(%v, %q) = %q", v, unit, s)
			assert.Equal(t, v, got, "Exact(%v, %q) = %q", v, unit, s)
		}
	}
}

func TestExact(t *testing.T) {
	assert.Equal(t, "1,234.5678", Exact(1234.5678, ""))
	assert.Equal(t, "15.876543%", Exact(15.876543, "%"))
	assert.Equal(t, "3,250,000,000 KRW", Exact(3250000000, "KRW"))
}

func TestAmount(t *testing.T) {
	assert.Equal(t, "3,250,000,000", Amount(3250000000))
	assert.Equal(t, "15.8", Amount(15.8))
	assert.Equal(t, "15.8%", Percent(15.8))
	assert.Equal(t, "120 units", WithUnit(120, "units"))
}

func TestAmountRounds(t *testing.T) {
	assert.Equal(t, "15.88%", Percent(15.876543))
	assert.Equal(t, "1,234.57", Amount(1234.5678))
	assert.Equal(t, "-2.5", Amount(-2.499))
}

func TestCanonical(t *testing.T) {
	assert.Equal(t, "null", Canonical(nil))
	assert.Equal(t, "5", Canonical(5))
	assert.Equal(t, "5", Canonical(5.0))
	assert.Equal(t, "5", Canonical(int64(5)))
	assert.Equal(t, "15.8", Canonical(15.8))
	assert.Equal(t, "15.8", Canonical(json.Number("15.8")))
	assert.Equal(t, "true", Canonical(true))
	assert.Equal(t, "apartment", Canonical("apartment"))
}

func TestToFloat(t *testing.T) {
	v, ok := ToFloat(12)
	assert.True(t, ok)
	assert.Equal(t, 12.0, v)

	v, ok = ToFloat("3,000")
	assert.True(t, ok)
	assert.Equal(t, 3000.0, v)

	_, ok = ToFloat(nil)
	assert.False(t, ok)
	_, ok = ToFloat(true)
	assert.False(t, ok)
	_, ok = ToFloat("n/a")
	assert.False(t, ok)
}
