// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package reporttype is the fixed registry of report variants. The table is
// embedded from report_types.yaml, validated once at start-up, and never
// changes afterwards. Lookups hand out copies.
package reporttype

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/landreport/pkg/types"
)

//go:embed report_types.yaml
var embeddedTable []byte

// ErrUnknownReportType is matched by every UnknownReportTypeError.
var ErrUnknownReportType = errors.New("unknown report type")

// UnknownReportTypeError reports a report identifier outside the closed set.
type UnknownReportTypeError struct {
	ID string
}

func (e *UnknownReportTypeError) Error() string {
	return fmt.Sprintf("unknown report type %q", e.ID)
}

// Is lets errors.Is(err, ErrUnknownReportType) match.
func (e *UnknownReportTypeError) Is(target error) bool {
	return target == ErrUnknownReportType
}

// known is the closed set of report types in listing order.
var known = []types.ReportTypeID{
	types.ReportQuickCheck,
	types.ReportAllInOne,
	types.ReportLandownerSummary,
	types.ReportLHTechnical,
	types.ReportFinancialFeasibility,
	types.ReportExecutiveSummary,
}

// fixedSections are the non-module section tokens a layout may use.
var fixedSections = map[types.SectionToken]bool{
	types.SectionCover:      true,
	types.SectionIntro:      true,
	types.SectionRiskNotice: true,
	types.SectionQAMetadata: true,
}

var registry = mustLoad(embeddedTable)

type table struct {
	ReportTypes []types.ReportTypeConfig `yaml:"report_types"`
}

func mustLoad(data []byte) map[types.ReportTypeID]types.ReportTypeConfig {
	reg, err := load(data)
	if err != nil {
		panic(fmt.Sprintf("reporttype: embedded table: %v", err))
	}
	return reg
}

// load decodes and validates a report type table. Unknown YAML fields are
// rejected.
func load(data []byte) (map[types.ReportTypeID]types.ReportTypeConfig, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var t table
	if err := dec.Decode(&t); err != nil {
		return nil, fmt.Errorf("parsing report types: %w", err)
	}

	reg := make(map[types.ReportTypeID]types.ReportTypeConfig, len(t.ReportTypes))
	for _, cfg := range t.ReportTypes {
		if _, dup := reg[cfg.ID]; dup {
			return nil, fmt.Errorf("report type %s declared twice", cfg.ID)
		}
		if err := validate(cfg); err != nil {
			return nil, fmt.Errorf("report type %s: %w", cfg.ID, err)
		}
		reg[cfg.ID] = cfg
	}

	for _, id := range known {
		if _, ok := reg[id]; !ok {
			return nil, fmt.Errorf("report type %s missing from table", id)
		}
	}
	if len(reg) != len(known) {
		return nil, fmt.Errorf("table declares %d report types, want %d", len(reg), len(known))
	}
	return reg, nil
}

func validate(cfg types.ReportTypeConfig) error {
	if cfg.Title == "" {
		return errors.New("missing title")
	}
	if len(cfg.Modules) == 0 {
		return errors.New("no modules")
	}

	required := make(map[types.ModuleID]bool, len(cfg.Modules))
	for _, m := range cfg.Modules {
		if !m.Valid() {
			return fmt.Errorf("unknown module %q", m)
		}
		if required[m] {
			return fmt.Errorf("module %s listed twice", m)
		}
		required[m] = true
	}

	placed := make(map[types.ModuleID]bool, len(cfg.Modules))
	seen := make(map[types.SectionToken]bool, len(cfg.Sections))
	for _, s := range cfg.Sections {
		if seen[s] {
			return fmt.Errorf("section %s listed twice", s)
		}
		seen[s] = true
		if m, ok := s.Module(); ok {
			if !required[m] {
				return fmt.Errorf("section %s is not a required module", s)
			}
			placed[m] = true
			continue
		}
		if !fixedSections[s] {
			return fmt.Errorf("unknown section %q", s)
		}
	}
	for _, m := range cfg.Modules {
		if !placed[m] {
			return fmt.Errorf("module %s has no section", m)
		}
	}

	critical := 0
	for _, set := range []map[types.ModuleID][]string{cfg.Critical, cfg.Soft} {
		for m, names := range set {
			if !required[m] {
				return fmt.Errorf("KPIs declared for module %s which is not required", m)
			}
			for _, name := range names {
				def, ok := types.LookupKPI(m, name)
				if !ok || def.Text {
					return fmt.Errorf("%s.%s is not a numeric KPI", m, name)
				}
			}
		}
	}
	for m, names := range cfg.Critical {
		critical += len(names)
		for _, name := range names {
			for _, soft := range cfg.Soft[m] {
				if soft == name {
					return fmt.Errorf("%s.%s is both critical and soft", m, name)
				}
			}
		}
	}
	if critical == 0 {
		return errors.New("no critical KPIs")
	}
	return nil
}

// ParseID resolves s to a report type identifier in the closed set.
func ParseID(s string) (types.ReportTypeID, error) {
	id := types.ReportTypeID(s)
	if _, ok := registry[id]; !ok {
		return "", &UnknownReportTypeError{ID: s}
	}
	return id, nil
}

// IDs returns every report type identifier in listing order.
func IDs() []types.ReportTypeID {
	return append([]types.ReportTypeID(nil), known...)
}

// GetConfig returns a copy of the configuration for id.
func GetConfig(id types.ReportTypeID) (types.ReportTypeConfig, error) {
	cfg, ok := registry[id]
	if !ok {
		return types.ReportTypeConfig{}, &UnknownReportTypeError{ID: string(id)}
	}
	return cfg.Clone(), nil
}

// GetSectionOrder returns the section layout for id.
func GetSectionOrder(id types.ReportTypeID) ([]types.SectionToken, error) {
	cfg, ok := registry[id]
	if !ok {
		return nil, &UnknownReportTypeError{ID: string(id)}
	}
	return append([]types.SectionToken(nil), cfg.Sections...), nil
}
