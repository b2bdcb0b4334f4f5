// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/landreport/internal/assemble"
	"github.com/pdiddy/landreport/internal/integrity"
	"github.com/pdiddy/landreport/internal/render"
	"github.com/pdiddy/landreport/pkg/types"
)

var _ assemble.ResultSource = (*Store)(nil)

// --- test helpers ---

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(types.StoreConfig{Path: filepath.Join(t.TempDir(), "db", "landreport.db")})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

const parcelYAML = `context_id: parcel-1138
results:
  - module_id: M2
    summary:
      land_value: 5200000000
      unit_price_sqm: 8500000
      confidence_pct: 82
    details:
      comparables:
        - address: 12 Example-ro
          price: 5100000000
  - module_id: M4
    summary:
      total_units: 120
      gross_floor_area: 9800.5
  - module_id: M5
    produced_at: 2026-03-14T09:00:00Z
    summary:
      npv: 3250000000
      irr: 15.8
      roi: 42
  - module_id: M6
    summary:
      decision: likely
      approval_score: 81.5
      approval_probability: 73
`

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

// --- tests ---

func TestPutAndGet(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	at := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	res := &types.ModuleResult{
		ContextID:  "parcel-7",
		ModuleID:   types.ModuleFeasibility,
		Summary:    map[string]any{"npv": 1.5e9, "irr": 12.25},
		Details:    types.Payload{"cashflows": []any{1.0, 2.0}},
		ProducedAt: at,
	}
	require.NoError(t, s.Put(ctx, res))

	got, err := s.GetModuleResult(ctx, "parcel-7", types.ModuleFeasibility)
	require.NoError(t, err)
	assert.Equal(t, "parcel-7", got.ContextID)
	assert.Equal(t, types.ModuleFeasibility, got.ModuleID)
	assert.Equal(t, 12.25, got.Summary["irr"])
	assert.True(t, at.Equal(got.ProducedAt))
	assert.Contains(t, got.Details, "cashflows")
	assert.Equal(t, integrity.Fingerprint(types.ModuleFeasibility, res.Summary),
		integrity.Fingerprint(types.ModuleFeasibility, got.Summary))

	res.Summary["irr"] = 13.0
	require.NoError(t, s.Put(ctx, res))
	got, err = s.GetModuleResult(ctx, "parcel-7", types.ModuleFeasibility)
	require.NoError(t, err)
	assert.Equal(t, 13.0, got.Summary["irr"])
}

func TestGetModuleResultNotFound(t *testing.T) {
	s := testStore(t)
	_, err := s.GetModuleResult(context.Background(), "nowhere", types.ModuleLandValue)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestPutRejectsInvalid(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	assert.Error(t, s.Put(ctx, nil))
	assert.Error(t, s.Put(ctx, &types.ModuleResult{ModuleID: types.ModuleLandValue}))
	assert.Error(t, s.Put(ctx, &types.ModuleResult{ContextID: "p", ModuleID: "M1"}))
}

func TestImport(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	dir := t.TempDir()
	writeFile(t, dir, "parcel-1138.yaml", parcelYAML)
	writeFile(t, dir, "broken.yaml", "results: [unterminated")
	writeFile(t, dir, "notes.txt", "ignored")

	var buf bytes.Buffer
	summary, err := s.Import(ctx, dir, &buf)
	require.NoError(t, err)
	assert.Equal(t, 4, summary.Imported)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 5, summary.Total())
	assert.Contains(t, buf.String(), "imported parcel-1138/M5")
	assert.Contains(t, buf.String(), "failed   broken.yaml")

	got, err := s.GetModuleResult(ctx, "parcel-1138", types.ModuleFeasibility)
	require.NoError(t, err)
	assert.Equal(t, 15.8, got.Summary["irr"])
	assert.Equal(t, 2026, got.ProducedAt.Year())

	// Unchanged results are skipped on re-import.
	buf.Reset()
	summary, err = s.Import(ctx, dir, &buf)
	require.NoError(t, err)
	assert.Equal(t, 4, summary.Skipped)
	assert.Zero(t, summary.Imported)

	// A changed summary is updated.
	writeFile(t, dir, "parcel-1138.yaml", strings.Replace(parcelYAML, "irr: 15.8", "irr: 16.1", 1))
	buf.Reset()
	summary, err = s.Import(ctx, dir, &buf)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Updated)
	assert.Equal(t, 3, summary.Skipped)
	assert.Contains(t, buf.String(), "updated  parcel-1138/M5")
}

func TestImportMissingDir(t *testing.T) {
	s := testStore(t)
	_, err := s.Import(context.Background(), filepath.Join(t.TempDir(), "absent"), &bytes.Buffer{})
	assert.Error(t, err)
}

func TestImportCancelled(t *testing.T) {
	s := testStore(t)
	dir := t.TempDir()
	writeFile(t, dir, "parcel-1138.yaml", parcelYAML)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Import(ctx, dir, &bytes.Buffer{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestList(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	dir := t.TempDir()
	writeFile(t, dir, "parcel-1138.yaml", parcelYAML)
	_, err := s.Import(ctx, dir, &bytes.Buffer{})
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, &types.ModuleResult{
		ContextID: "parcel-2001", ModuleID: types.ModuleLandValue,
		Summary: map[string]any{"land_value": 1.0},
	}))

	all, err := s.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 5)

	one, err := s.List(ctx, "parcel-1138")
	require.NoError(t, err)
	require.Len(t, one, 4)
	assert.Equal(t, types.ModuleLandValue, one[0].ModuleID)
	assert.Equal(t, types.ModuleLHApproval, one[3].ModuleID)
	assert.Equal(t, integrity.Fingerprint(types.ModuleLHApproval, one[3].Summary), one[3].Fingerprint)
}

func TestExportRoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	dir := t.TempDir()
	writeFile(t, dir, "parcel-1138.yaml", parcelYAML)
	_, err := s.Import(ctx, dir, &bytes.Buffer{})
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "export")
	paths, err := s.ExportYAML(ctx, out, "")
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(out, "parcel-1138.yaml")}, paths)

	// Importing the export into a fresh store yields the same fingerprints.
	fresh := testStore(t)
	summary, err := fresh.Import(ctx, out, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, 4, summary.Imported)

	want, err := s.List(ctx, "parcel-1138")
	require.NoError(t, err)
	got, err := fresh.List(ctx, "parcel-1138")
	require.NoError(t, err)
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].Fingerprint, got[i].Fingerprint, want[i].ModuleID)
	}

	jsonPath := filepath.Join(t.TempDir(), "export.json")
	require.NoError(t, s.ExportJSON(ctx, jsonPath, "parcel-1138"))
	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	var entries []map[string]any
	require.NoError(t, json.Unmarshal(data, &entries))
	require.Len(t, entries, 4)
	assert.Equal(t, "M2", entries[0]["module_id"])
	assert.NotEmpty(t, entries[0]["fingerprint"])
}

func TestRuns(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	for i, status := range []types.QualityStatus{types.StatusPass, types.StatusWarn, types.StatusFail} {
		res := &types.AssemblyResult{
			RunID:        "run-" + string(status),
			ReportType:   types.ReportQuickCheck,
			ContextID:    "parcel-1138",
			GeneratedAt:  base.Add(time.Duration(i) * time.Minute),
			Status:       status,
			SoftMissing:  []string{"M5.roi"},
			Fingerprints: map[types.ModuleID]string{types.ModuleFeasibility: "abc"},
			Document:     "<html></html>",
		}
		require.NoError(t, s.RecordRun(ctx, res))
	}

	runs, err := s.Runs(ctx, "parcel-1138", 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-FAIL", runs[0].RunID)
	assert.Equal(t, types.StatusWarn, runs[1].Status)
	assert.Equal(t, []string{"M5.roi"}, runs[1].SoftMissing)
	assert.Equal(t, "abc", runs[1].Fingerprints[types.ModuleFeasibility])
	assert.Equal(t, len("<html></html>"), runs[1].DocumentBytes)

	none, err := s.Runs(ctx, "parcel-9", 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRunsRejectsCorruptRows(t *testing.T) {
	tests := []struct {
		name        string
		generatedAt string
		critical    string
		fps         string
		wantErr     string
	}{
		{"bad timestamp", "yesterday", `[]`, `{}`, "generated_at"},
		{"bad missing list", "2026-03-14T09:00:00Z", `["M5.npv"`, `{}`, "critical_missing"},
		{"bad fingerprints", "2026-03-14T09:00:00Z", `[]`, `["abc"]`, "fingerprints"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testStore(t)
			ctx := context.Background()
			_, err := s.db.ExecContext(ctx,
				`INSERT INTO assembly_runs (run_id, report_type, context_id, generated_at, status,
					critical_missing, soft_missing, fingerprints, document_bytes)
				 VALUES ('run-1', 'quick_check', 'parcel-1138', ?, 'PASS', ?, NULL, ?, 0)`,
				tt.generatedAt, tt.critical, tt.fps)
			require.NoError(t, err)

			_, err = s.Runs(ctx, "parcel-1138", 0)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Contains(t, err.Error(), "run-1")
		})
	}
}

func TestGetModuleResultRejectsCorruptTimestamp(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO module_results (context_id, module_id, summary, details, produced_at, fingerprint)
		 VALUES ('parcel-1138', 'M5', '{"npv": 1}', NULL, 'not-a-time', '')`)
	require.NoError(t, err)

	_, err = s.GetModuleResult(ctx, "parcel-1138", types.ModuleFeasibility)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "produced_at")
}

func TestStoreFeedsAssembler(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	dir := t.TempDir()
	writeFile(t, dir, "parcel-1138.yaml", parcelYAML)
	_, err := s.Import(ctx, dir, &bytes.Buffer{})
	require.NoError(t, err)

	a, err := assemble.New(types.ReportQuickCheck, s, render.New())
	require.NoError(t, err)
	res, err := a.Assemble(ctx, "parcel-1138")
	require.NoError(t, err)
	assert.Equal(t, types.StatusPass, res.Status)
	assert.Contains(t, res.Document, `data-npv="3,250,000,000 KRW"`)
	require.NoError(t, s.RecordRun(ctx, res))
}
