// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"
)

// ExportYAML writes one [context].yaml file per stored context into dir,
// in the layout Import reads. An empty contextID exports every context.
// It returns the paths written.
func (s *Store) ExportYAML(ctx context.Context, dir, contextID string) ([]string, error) {
	files, err := s.exportFiles(ctx, contextID)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating export directory: %w", err)
	}

	var paths []string
	for _, f := range files {
		data, err := yaml.Marshal(&f)
		if err != nil {
			return paths, fmt.Errorf("marshaling YAML for %s: %w", f.ContextID, err)
		}
		path := filepath.Join(dir, f.ContextID+".yaml")
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// ExportJSON writes the stored results for contextID (all contexts when
// empty) to path, including each result's fingerprint.
func (s *Store) ExportJSON(ctx context.Context, path, contextID string) error {
	results, err := s.List(ctx, contextID)
	if err != nil {
		return fmt.Errorf("querying for export: %w", err)
	}
	if results == nil {
		results = []StoredResult{}
	}
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func (s *Store) exportFiles(ctx context.Context, contextID string) ([]ResultFile, error) {
	results, err := s.List(ctx, contextID)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}

	var files []ResultFile
	for _, r := range results {
		if n := len(files); n == 0 || files[n-1].ContextID != r.ContextID {
			files = append(files, ResultFile{ContextID: r.ContextID})
		}
		last := &files[len(files)-1]
		last.Results = append(last.Results, r.ModuleResult)
	}
	return files, nil
}
