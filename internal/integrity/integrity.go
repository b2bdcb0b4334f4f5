// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package integrity fingerprints module data so a fragment can be checked
// against the data currently on record. Fingerprints detect drift between
// pipeline stages; they are not a security boundary.
package integrity

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"

	"github.com/pdiddy/landreport/internal/numfmt"
	"github.com/pdiddy/landreport/pkg/types"
)

// fingerprintLen is the number of hex characters kept from the digest.
const fingerprintLen = 16

const separator = "\x1f"

// FingerprintFields returns the ordered field names fingerprinted for m.
func FingerprintFields(m types.ModuleID) []string {
	defs := types.KPICatalogue(m)
	names := make([]string, len(defs))
	for i, d := range defs {
		names[i] = d.Name
	}
	return names
}

// Fingerprint digests the fingerprint fields of module m taken from fields.
// Absent fields take part as "null" so adding a value changes the digest.
func Fingerprint(m types.ModuleID, fields map[string]any) string {
	return FingerprintOf(FingerprintFields(m), fields)
}

// FingerprintOf digests the values of names in fields. The canonical values
// are sorted before hashing, so the digest does not depend on map order.
func FingerprintOf(names []string, fields map[string]any) string {
	values := make([]string, len(names))
	for i, name := range names {
		values[i] = numfmt.Canonical(fields[name])
	}
	sort.Strings(values)

	h := sha256.New()
	h.Write([]byte(strings.Join(values, separator)))
	return fmt.Sprintf("%x", h.Sum(nil))[:fingerprintLen]
}

// CompareFingerprints reports whether a and b are the same fingerprint.
// An empty fingerprint never matches.
func CompareFingerprints(a, b string) bool {
	return a != "" && a == b
}

// VerifyRequiredFields checks that every key resolves to a non-nil value.
// Keys are dotted paths through nested maps ("summary.npv"); a missing
// intermediate map counts as an absent key. Missing keys are returned in
// request order.
func VerifyRequiredFields(data map[string]any, keys []string) (bool, []string) {
	var missing []string
	for _, key := range keys {
		if v, ok := lookup(data, key); !ok || v == nil {
			missing = append(missing, key)
		}
	}
	return len(missing) == 0, missing
}

func lookup(data map[string]any, path string) (any, bool) {
	var cur any = data
	for _, part := range strings.Split(path, ".") {
		m, ok := asMap(cur)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case types.Payload:
		return m, true
	default:
		return nil, false
	}
}
