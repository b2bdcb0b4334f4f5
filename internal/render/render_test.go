// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/landreport/internal/integrity"
	"github.com/pdiddy/landreport/internal/kpi"
	"github.com/pdiddy/landreport/pkg/types"
)

func TestRenderFragmentRoundTrip(t *testing.T) {
	data := map[string]any{
		"npv":           3250000000.0,
		"irr":           15.8,
		"roi":           42,
		"payback_years": 6.25,
	}
	frag, err := New().RenderFragment(context.Background(), types.ModuleFeasibility, data)
	require.NoError(t, err)

	text := frag.String()
	assert.True(t, strings.HasPrefix(text, "<section"))
	assert.Contains(t, text, `data-npv="3,250,000,000 KRW"`)
	assert.Contains(t, text, `data-irr="15.8%"`)

	rec, err := kpi.Extract(frag, types.ModuleFeasibility, []string{"npv", "irr", "roi", "payback_years"})
	require.NoError(t, err)
	assert.True(t, rec.Complete)
	for name, want := range map[string]float64{"npv": 3250000000, "irr": 15.8, "roi": 42, "payback_years": 6.25} {
		got, ok := rec.Value(name)
		require.True(t, ok, name)
		assert.InDelta(t, want, got, 1e-9, name)
	}
	assert.Equal(t, integrity.Fingerprint(types.ModuleFeasibility, data), rec.Fingerprint)
}

func TestRenderFragmentKeepsFullPrecision(t *testing.T) {
	data := map[string]any{
		"npv":           1234.5678,
		"irr":           15.876543,
		"roi":           41.99999,
		"payback_years": 20.0 / 3.0,
	}
	frag, err := New().RenderFragment(context.Background(), types.ModuleFeasibility, data)
	require.NoError(t, err)

	text := frag.String()
	assert.Contains(t, text, `data-irr="15.876543%"`)
	assert.Contains(t, text, `data-npv="1,234.5678 KRW"`)
	assert.Contains(t, text, "<td>15.88%</td>")
	assert.Contains(t, text, "<td>1,234.57 KRW</td>")

	rec, err := kpi.Extract(frag, types.ModuleFeasibility, []string{"npv", "irr", "roi", "payback_years"})
	require.NoError(t, err)
	for name, want := range data {
		got, ok := rec.Value(name)
		require.True(t, ok, name)
		assert.Equal(t, want, got, name)
	}
}

func TestRenderFragmentLegacyFields(t *testing.T) {
	tests := []struct {
		module types.ModuleID
		data   map[string]any
		attr   string
		kpi    string
		want   float64
	}{
		{types.ModuleLandValue, map[string]any{"land_value_total": 5.4e9}, `data-land-value-total="5,400,000,000 KRW"`, "land_value", 5.4e9},
		{types.ModuleCapacity, map[string]any{"unit_count": 120}, `data-unit-count="120 units"`, "total_units", 120},
	}
	for _, tt := range tests {
		t.Run(string(tt.module), func(t *testing.T) {
			frag, err := New().RenderFragment(context.Background(), tt.module, tt.data)
			require.NoError(t, err)
			assert.Contains(t, frag.String(), tt.attr)

			rec, err := kpi.Extract(frag, tt.module, []string{tt.kpi})
			require.NoError(t, err)
			got, ok := rec.Value(tt.kpi)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	// The canonical field wins when both are stored.
	frag, err := New().RenderFragment(context.Background(), types.ModuleCapacity, map[string]any{"total_units": 118, "unit_count": 120})
	require.NoError(t, err)
	assert.Contains(t, frag.String(), `data-total-units="118 units"`)
	assert.NotContains(t, frag.String(), "data-unit-count")
}

func TestRenderFragmentPendingFields(t *testing.T) {
	data := map[string]any{
		"approval_score":       81.5,
		"approval_probability": "n/a",
	}
	frag, err := New().RenderFragment(context.Background(), types.ModuleLHApproval, data)
	require.NoError(t, err)

	text := frag.String()
	assert.NotContains(t, text, "data-approval-probability")
	assert.NotContains(t, text, "data-decision")
	assert.Contains(t, text, PendingLabel)

	rec, err := kpi.Extract(frag, types.ModuleLHApproval, []string{"approval_score", "approval_probability"})
	require.NoError(t, err)
	assert.False(t, rec.Complete)
	assert.Nil(t, rec.Values["approval_probability"])
}

func TestRenderFragmentEscapesText(t *testing.T) {
	data := map[string]any{"recommended_type": `youth "A" <type>`, "total_score": 88}
	frag, err := New().RenderFragment(context.Background(), types.ModuleHousingType, data)
	require.NoError(t, err)
	assert.NotContains(t, frag.String(), `<type>`)

	root, err := kpi.LocateRoot(frag, types.ModuleHousingType)
	require.NoError(t, err)
	raw := kpi.Harvest(root)
	assert.Equal(t, `youth "A" <type>`, raw["recommended_type"])
}

func TestRenderFragmentWithoutFingerprint(t *testing.T) {
	frag, err := New(WithoutFingerprint()).RenderFragment(context.Background(), types.ModuleCapacity, map[string]any{"total_units": 120})
	require.NoError(t, err)
	assert.NotContains(t, frag.String(), kpi.AttrFingerprint)
}

func TestRenderFragmentErrors(t *testing.T) {
	_, err := New().RenderFragment(context.Background(), "M9", nil)
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = New().RenderFragment(ctx, types.ModuleFeasibility, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
