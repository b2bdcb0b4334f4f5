// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists module results and assembly runs in SQLite. It is
// the ResultSource the assembler reads from: results are written by the
// upstream pipeline (or imported from YAML) and only ever read back here.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/landreport/internal/integrity"
	"github.com/pdiddy/landreport/pkg/types"
)

// DefaultPath is used when StoreConfig.Path is empty.
const DefaultPath = "landreport.db"

// Store manages the module result database.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens or creates the database at cfg.Path and creates the
// schema if it does not exist.
func NewStore(cfg types.StoreConfig) (*Store, error) {
	path := cfg.Path
	if path == "" {
		path = DefaultPath
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS module_results (
			context_id TEXT NOT NULL,
			module_id TEXT NOT NULL,
			summary TEXT NOT NULL,
			details TEXT,
			produced_at TEXT,
			fingerprint TEXT NOT NULL,
			PRIMARY KEY (context_id, module_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_results_module ON module_results(module_id)`,
		`CREATE TABLE IF NOT EXISTS assembly_runs (
			run_id TEXT PRIMARY KEY,
			report_type TEXT NOT NULL,
			context_id TEXT NOT NULL,
			generated_at TEXT NOT NULL,
			status TEXT NOT NULL,
			critical_missing TEXT,
			soft_missing TEXT,
			fingerprints TEXT,
			document_bytes INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_context ON assembly_runs(context_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// StoredResult is a module result together with the fingerprint of its
// summary at write time.
type StoredResult struct {
	types.ModuleResult `yaml:",inline"`
	Fingerprint        string `json:"fingerprint" yaml:"fingerprint"`
}

// Put inserts or replaces the result of one module run.
func (s *Store) Put(ctx context.Context, res *types.ModuleResult) error {
	if err := validateResult(res); err != nil {
		return err
	}
	summary, err := json.Marshal(res.Summary)
	if err != nil {
		return fmt.Errorf("encoding summary: %w", err)
	}
	details, err := json.Marshal(res.Details)
	if err != nil {
		return fmt.Errorf("encoding details: %w", err)
	}
	producedAt := ""
	if !res.ProducedAt.IsZero() {
		producedAt = res.ProducedAt.UTC().Format(time.RFC3339Nano)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO module_results (context_id, module_id, summary, details, produced_at, fingerprint)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(context_id, module_id) DO UPDATE SET
			summary=excluded.summary, details=excluded.details,
			produced_at=excluded.produced_at, fingerprint=excluded.fingerprint`,
		res.ContextID, string(res.ModuleID), string(summary), string(details), producedAt,
		integrity.Fingerprint(res.ModuleID, res.Summary),
	)
	if err != nil {
		return fmt.Errorf("storing %s/%s: %w", res.ContextID, res.ModuleID, err)
	}
	return nil
}

func validateResult(res *types.ModuleResult) error {
	if res == nil {
		return errors.New("nil module result")
	}
	if strings.TrimSpace(res.ContextID) == "" {
		return fmt.Errorf("module result %s: empty context id", res.ModuleID)
	}
	if !res.ModuleID.Valid() {
		return fmt.Errorf("module result for %s: unknown module %q", res.ContextID, res.ModuleID)
	}
	return nil
}

// GetModuleResult returns the current result of module id for contextID.
// A missing row is reported as types.ErrNotFound.
func (s *Store) GetModuleResult(ctx context.Context, contextID string, id types.ModuleID) (*types.ModuleResult, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT context_id, module_id, summary, details, produced_at, fingerprint
		 FROM module_results WHERE context_id = ? AND module_id = ?`,
		contextID, string(id))
	sr, err := scanResult(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("module %s for %s: %w", id, contextID, types.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &sr.ModuleResult, nil
}

// List returns the stored results for contextID, or for every context when
// contextID is empty, ordered by context and module.
func (s *Store) List(ctx context.Context, contextID string) ([]StoredResult, error) {
	query := `SELECT context_id, module_id, summary, details, produced_at, fingerprint FROM module_results`
	var args []any
	if contextID != "" {
		query += ` WHERE context_id = ?`
		args = append(args, contextID)
	}
	query += ` ORDER BY context_id, module_id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing module results: %w", err)
	}
	defer rows.Close()

	var out []StoredResult
	for rows.Next() {
		sr, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sr)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanResult(sc scanner) (*StoredResult, error) {
	var (
		sr          StoredResult
		moduleID    string
		summaryJSON string
		detailsJSON sql.NullString
		producedAt  sql.NullString
	)
	if err := sc.Scan(&sr.ContextID, &moduleID, &summaryJSON, &detailsJSON, &producedAt, &sr.Fingerprint); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning module result: %w", err)
	}
	sr.ModuleID = types.ModuleID(moduleID)
	if err := json.Unmarshal([]byte(summaryJSON), &sr.Summary); err != nil {
		return nil, fmt.Errorf("decoding summary of %s/%s: %w", sr.ContextID, moduleID, err)
	}
	if detailsJSON.Valid && detailsJSON.String != "" && detailsJSON.String != "null" {
		if err := json.Unmarshal([]byte(detailsJSON.String), &sr.Details); err != nil {
			return nil, fmt.Errorf("decoding details of %s/%s: %w", sr.ContextID, moduleID, err)
		}
	}
	if producedAt.Valid && producedAt.String != "" {
		t, err := time.Parse(time.RFC3339Nano, producedAt.String)
		if err != nil {
			return nil, fmt.Errorf("decoding produced_at of %s/%s: %w", sr.ContextID, moduleID, err)
		}
		sr.ProducedAt = t
	}
	return &sr, nil
}

// ResultFile is the YAML layout accepted by Import: one analysis context
// with the results of any number of modules.
type ResultFile struct {
	ContextID string               `yaml:"context_id"`
	Results   []types.ModuleResult `yaml:"results"`
}

// ImportSummary holds counts from an import run.
type ImportSummary struct {
	Imported int
	Updated  int
	Skipped  int
	Failed   int
}

// Total returns the number of module results processed.
func (s ImportSummary) Total() int {
	return s.Imported + s.Updated + s.Skipped + s.Failed
}

// Import reads every *.yaml file in dir and stores its module results.
// Results whose summary fingerprint matches the stored one are skipped.
// Progress lines are written to w.
func (s *Store) Import(ctx context.Context, dir string, w io.Writer) (ImportSummary, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ImportSummary{}, fmt.Errorf("reading import directory %s: %w", dir, err)
	}

	var summary ImportSummary
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !(strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")) {
			continue
		}

		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		file, err := readResultFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(w, "failed   %s: %v\n", name, err)
			summary.Failed++
			continue
		}

		for i := range file.Results {
			res := &file.Results[i]
			if res.ContextID == "" {
				res.ContextID = file.ContextID
			}
			label := res.ContextID + "/" + string(res.ModuleID)

			state, err := s.importOne(ctx, res)
			if err != nil {
				fmt.Fprintf(w, "failed   %s: %v\n", label, err)
				summary.Failed++
				continue
			}
			switch state {
			case importSkipped:
				fmt.Fprintf(w, "skipped  %s\n", label)
				summary.Skipped++
			case importUpdated:
				fmt.Fprintf(w, "updated  %s\n", label)
				summary.Updated++
			default:
				fmt.Fprintf(w, "imported %s (%d fields)\n", label, len(res.Summary))
				summary.Imported++
			}
		}
	}

	fmt.Fprintf(w, "\nimported: %d, updated: %d, skipped: %d, failed: %d\n",
		summary.Imported, summary.Updated, summary.Skipped, summary.Failed)
	return summary, nil
}

type importState int

const (
	importNew importState = iota
	importUpdated
	importSkipped
)

func (s *Store) importOne(ctx context.Context, res *types.ModuleResult) (importState, error) {
	if err := validateResult(res); err != nil {
		return importNew, err
	}

	var stored string
	err := s.db.QueryRowContext(ctx,
		`SELECT fingerprint FROM module_results WHERE context_id = ? AND module_id = ?`,
		res.ContextID, string(res.ModuleID),
	).Scan(&stored)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return importNew, fmt.Errorf("reading stored fingerprint: %w", err)
	}
	exists := err == nil
	if exists && integrity.CompareFingerprints(stored, integrity.Fingerprint(res.ModuleID, res.Summary)) {
		return importSkipped, nil
	}

	if err := s.Put(ctx, res); err != nil {
		return importNew, err
	}
	if exists {
		return importUpdated, nil
	}
	return importNew, nil
}

func readResultFile(path string) (*ResultFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file ResultFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	if len(file.Results) == 0 {
		return nil, errors.New("no results")
	}
	return &file, nil
}
