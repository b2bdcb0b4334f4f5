// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pdiddy/landreport/pkg/types"
)

// RunRecord is the stored audit entry of one assembly run. The document
// itself is not kept.
type RunRecord struct {
	RunID           string                    `json:"run_id" yaml:"run_id"`
	ReportType      types.ReportTypeID        `json:"report_type" yaml:"report_type"`
	ContextID       string                    `json:"context_id" yaml:"context_id"`
	GeneratedAt     time.Time                 `json:"generated_at" yaml:"generated_at"`
	Status          types.QualityStatus       `json:"status" yaml:"status"`
	CriticalMissing []string                  `json:"critical_missing,omitempty" yaml:"critical_missing,omitempty"`
	SoftMissing     []string                  `json:"soft_missing,omitempty" yaml:"soft_missing,omitempty"`
	Fingerprints    map[types.ModuleID]string `json:"fingerprints,omitempty" yaml:"fingerprints,omitempty"`
	DocumentBytes   int                       `json:"document_bytes" yaml:"document_bytes"`
}

// RecordRun stores the audit entry for res.
func (s *Store) RecordRun(ctx context.Context, res *types.AssemblyResult) error {
	critical, err := json.Marshal(res.CriticalMissing)
	if err != nil {
		return fmt.Errorf("encoding critical missing of run %s: %w", res.RunID, err)
	}
	soft, err := json.Marshal(res.SoftMissing)
	if err != nil {
		return fmt.Errorf("encoding soft missing of run %s: %w", res.RunID, err)
	}
	fps, err := json.Marshal(res.Fingerprints)
	if err != nil {
		return fmt.Errorf("encoding fingerprints of run %s: %w", res.RunID, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO assembly_runs (run_id, report_type, context_id, generated_at, status,
			critical_missing, soft_missing, fingerprints, document_bytes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.RunID, string(res.ReportType), res.ContextID,
		res.GeneratedAt.UTC().Format(time.RFC3339Nano), string(res.Status),
		string(critical), string(soft), string(fps), len(res.Document),
	)
	if err != nil {
		return fmt.Errorf("recording run %s: %w", res.RunID, err)
	}
	return nil
}

// Runs returns the most recent runs, newest first. An empty contextID
// matches every context; limit <= 0 means no limit.
func (s *Store) Runs(ctx context.Context, contextID string, limit int) ([]RunRecord, error) {
	query := `SELECT run_id, report_type, context_id, generated_at, status,
		critical_missing, soft_missing, fingerprints, document_bytes
		FROM assembly_runs`
	var args []any
	if contextID != "" {
		query += ` WHERE context_id = ?`
		args = append(args, contextID)
	}
	query += ` ORDER BY generated_at DESC, run_id`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var (
			r                   RunRecord
			reportType, status  string
			generatedAt         string
			critical, soft, fps sql.NullString
		)
		if err := rows.Scan(&r.RunID, &reportType, &r.ContextID, &generatedAt, &status,
			&critical, &soft, &fps, &r.DocumentBytes); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.ReportType = types.ReportTypeID(reportType)
		r.Status = types.QualityStatus(status)
		at, err := time.Parse(time.RFC3339Nano, generatedAt)
		if err != nil {
			return nil, fmt.Errorf("decoding generated_at of run %s: %w", r.RunID, err)
		}
		r.GeneratedAt = at
		if err := unmarshalNullable(critical, &r.CriticalMissing); err != nil {
			return nil, fmt.Errorf("decoding critical_missing of run %s: %w", r.RunID, err)
		}
		if err := unmarshalNullable(soft, &r.SoftMissing); err != nil {
			return nil, fmt.Errorf("decoding soft_missing of run %s: %w", r.RunID, err)
		}
		if err := unmarshalNullable(fps, &r.Fingerprints); err != nil {
			return nil, fmt.Errorf("decoding fingerprints of run %s: %w", r.RunID, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func unmarshalNullable(s sql.NullString, v any) error {
	if !s.Valid || s.String == "" {
		return nil
	}
	return json.Unmarshal([]byte(s.String), v)
}
