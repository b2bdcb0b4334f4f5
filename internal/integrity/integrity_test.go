// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package integrity

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/pdiddy/landreport/pkg/types"
)

func feasibilitySummary() map[string]any {
	return map[string]any{
		"npv":           3250000000.0,
		"irr":           15.8,
		"roi":           42.1,
		"payback_years": 6.5,
	}
}

func TestFingerprintStable(t *testing.T) {
	a := Fingerprint(types.ModuleFeasibility, feasibilitySummary())
	b := Fingerprint(types.ModuleFeasibility, feasibilitySummary())
	if !CompareFingerprints(a, b) {
		t.Errorf("identical data produced %s and %s", a, b)
	}
	if len(a) != fingerprintLen {
		t.Errorf("fingerprint length = %d, want %d", len(a), fingerprintLen)
	}
}

func TestFingerprintInsertionOrder(t *testing.T) {
	forward := map[string]any{}
	backward := map[string]any{}
	keys := []string{"npv", "irr", "roi", "payback_years"}
	src := feasibilitySummary()
	for _, k := range keys {
		forward[k] = src[k]
	}
	for i := len(keys) - 1; i >= 0; i-- {
		backward[keys[i]] = src[keys[i]]
	}
	if Fingerprint(types.ModuleFeasibility, forward) != Fingerprint(types.ModuleFeasibility, backward) {
		t.Error("insertion order changed the fingerprint")
	}
}

func TestFingerprintDetectsChange(t *testing.T) {
	base := Fingerprint(types.ModuleFeasibility, feasibilitySummary())
	for _, field := range FingerprintFields(types.ModuleFeasibility) {
		t.Run(field, func(t *testing.T) {
			changed := feasibilitySummary()
			changed[field] = 999.25
			if CompareFingerprints(base, Fingerprint(types.ModuleFeasibility, changed)) {
				t.Errorf("changing %s did not change the fingerprint", field)
			}
		})
	}
	t.Run("removed field", func(t *testing.T) {
		changed := feasibilitySummary()
		delete(changed, "roi")
		if CompareFingerprints(base, Fingerprint(types.ModuleFeasibility, changed)) {
			t.Error("removing roi did not change the fingerprint")
		}
	})
}

func TestFingerprintIgnoresUndeclaredFields(t *testing.T) {
	withExtra := feasibilitySummary()
	withExtra["analyst_note"] = "revised"
	if Fingerprint(types.ModuleFeasibility, withExtra) != Fingerprint(types.ModuleFeasibility, feasibilitySummary()) {
		t.Error("undeclared field changed the fingerprint")
	}
}

func TestFingerprintNumericTypes(t *testing.T) {
	a := FingerprintOf([]string{"units"}, map[string]any{"units": 120})
	b := FingerprintOf([]string{"units"}, map[string]any{"units": 120.0})
	if a != b {
		t.Errorf("int and float of the same value differ: %s vs %s", a, b)
	}
}

func TestCompareFingerprintsEmpty(t *testing.T) {
	if CompareFingerprints("", "") {
		t.Error("empty fingerprints must not match")
	}
}

func TestVerifyRequiredFields(t *testing.T) {
	data := map[string]any{
		"context_id": "parcel-001",
		"summary": map[string]any{
			"npv":  1.0,
			"irr":  nil,
			"deep": map[string]any{"x": 1},
		},
		"details": types.Payload{"cost": map[string]any{"land": 5}},
		"flat":    "not-a-map",
	}

	tests := []struct {
		name        string
		keys        []string
		wantOK      bool
		wantMissing []string
	}{
		{"all present", []string{"context_id", "summary.npv", "summary.deep.x", "details.cost.land"}, true, nil},
		{"nil value", []string{"summary.irr"}, false, []string{"summary.irr"}},
		{"missing leaf", []string{"summary.roi"}, false, []string{"summary.roi"}},
		{"missing intermediate", []string{"result.npv", "context_id"}, false, []string{"result.npv"}},
		{"through scalar", []string{"flat.inner"}, false, []string{"flat.inner"}},
		{"no keys", nil, true, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, missing := VerifyRequiredFields(data, tt.keys)
			if ok != tt.wantOK {
				t.Errorf("ok = %v, want %v", ok, tt.wantOK)
			}
			if diff := cmp.Diff(tt.wantMissing, missing); diff != "" {
				t.Errorf("missing mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
