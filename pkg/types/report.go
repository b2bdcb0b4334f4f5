// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"sort"
	"time"
)

// ReportTypeID identifies one of the fixed report variants.
type ReportTypeID string

const (
	ReportQuickCheck           ReportTypeID = "quick_check"
	ReportAllInOne             ReportTypeID = "all_in_one"
	ReportLandownerSummary     ReportTypeID = "landowner_summary"
	ReportLHTechnical          ReportTypeID = "lh_technical"
	ReportFinancialFeasibility ReportTypeID = "financial_feasibility"
	ReportExecutiveSummary     ReportTypeID = "executive_summary"
)

// SectionToken names one section slot in a report's layout. Module
// sections use the module identifier as their token.
type SectionToken string

const (
	SectionCover      SectionToken = "cover"
	SectionIntro      SectionToken = "intro"
	SectionRiskNotice SectionToken = "risk-notice"
	SectionQAMetadata SectionToken = "qa-metadata"
)

// Module returns the module a section token refers to, if any.
func (s SectionToken) Module() (ModuleID, bool) {
	m := ModuleID(s)
	return m, m.Valid()
}

// ReportTypeConfig declares which modules a report variant needs, which
// KPIs block it, and how its sections are ordered.
type ReportTypeConfig struct {
	// ID is the report identifier.
	ID ReportTypeID `json:"id" yaml:"id"`

	// Title is printed on the cover section.
	Title string `json:"title" yaml:"title"`

	// Audience describes who the report is written for.
	Audience string `json:"audience" yaml:"audience"`

	// Intro is the fixed introduction text.
	Intro string `json:"intro" yaml:"intro"`

	// Modules lists the required modules in load order.
	Modules []ModuleID `json:"modules" yaml:"modules"`

	// Critical maps each module to the KPI names whose absence blocks assembly.
	Critical map[ModuleID][]string `json:"critical" yaml:"critical"`

	// Soft maps each module to KPI names that may be reported as pending.
	Soft map[ModuleID][]string `json:"soft" yaml:"soft"`

	// Sections is the target section ordering.
	Sections []SectionToken `json:"sections" yaml:"sections"`
}

// RequiredKPIs returns the critical followed by the soft KPI names for m.
func (c ReportTypeConfig) RequiredKPIs(m ModuleID) []string {
	out := make([]string, 0, len(c.Critical[m])+len(c.Soft[m]))
	out = append(out, c.Critical[m]...)
	out = append(out, c.Soft[m]...)
	return out
}

// IsCritical reports whether kpi is a critical KPI for m.
func (c ReportTypeConfig) IsCritical(m ModuleID, kpi string) bool {
	for _, k := range c.Critical[m] {
		if k == kpi {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers cannot mutate registry state.
func (c ReportTypeConfig) Clone() ReportTypeConfig {
	out := c
	out.Modules = append([]ModuleID(nil), c.Modules...)
	out.Sections = append([]SectionToken(nil), c.Sections...)
	out.Critical = cloneKPIMap(c.Critical)
	out.Soft = cloneKPIMap(c.Soft)
	return out
}

func cloneKPIMap(in map[ModuleID][]string) map[ModuleID][]string {
	out := make(map[ModuleID][]string, len(in))
	for k, v := range in {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// KPIRecord is the typed result of extracting KPIs from one fragment. It is
// built fresh for every extraction and must not outlive that fragment.
type KPIRecord struct {
	// Module is the module the fragment belongs to.
	Module ModuleID `json:"module" yaml:"module"`

	// Values maps each required KPI to its parsed value; nil means missing.
	Values map[string]*float64 `json:"values" yaml:"values"`

	// Required lists the KPI names the caller asked for.
	Required []string `json:"required" yaml:"required"`

	// Found lists every KPI name present on the fragment root, sorted.
	Found []string `json:"found" yaml:"found"`

	// Complete is true iff every required KPI parsed to a number.
	Complete bool `json:"complete" yaml:"complete"`

	// Fingerprint is the data fingerprint stamped on the fragment root, if any.
	Fingerprint string `json:"fingerprint,omitempty" yaml:"fingerprint,omitempty"`
}

// Value returns the parsed value for name and whether it is present.
func (r *KPIRecord) Value(name string) (float64, bool) {
	v, ok := r.Values[name]
	if !ok || v == nil {
		return 0, false
	}
	return *v, true
}

// Missing returns the required KPI names that parsed to nil, in request order.
func (r *KPIRecord) Missing() []string {
	var out []string
	for _, name := range r.Required {
		if r.Values[name] == nil {
			out = append(out, name)
		}
	}
	return out
}

// QualityStatus is the overall outcome of an assembly run.
type QualityStatus string

const (
	StatusPass QualityStatus = "PASS"
	StatusWarn QualityStatus = "WARN"
	StatusFail QualityStatus = "FAIL"
)

// QualityCheck is one itemized entry of the quality report.
type QualityCheck struct {
	// Name identifies the check (e.g. "critical-kpis", "M5.fingerprint").
	Name string `json:"name" yaml:"name"`

	// Status is the outcome of this check.
	Status QualityStatus `json:"status" yaml:"status"`

	// Detail explains the outcome.
	Detail string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// AssemblyResult is the output of one assembly run.
type AssemblyResult struct {
	RunID       string       `json:"run_id" yaml:"run_id"`
	ReportType  ReportTypeID `json:"report_type" yaml:"report_type"`
	ContextID   string       `json:"context_id" yaml:"context_id"`
	GeneratedAt time.Time    `json:"generated_at" yaml:"generated_at"`

	// Document is the composed report; empty when Status is FAIL.
	Document string `json:"document,omitempty" yaml:"document,omitempty"`

	Status QualityStatus  `json:"status" yaml:"status"`
	Checks []QualityCheck `json:"checks" yaml:"checks"`

	// CriticalMissing and SoftMissing list "module.kpi" items.
	CriticalMissing []string `json:"critical_missing" yaml:"critical_missing"`
	SoftMissing     []string `json:"soft_missing" yaml:"soft_missing"`

	// Fingerprints records the data fingerprint each module section was
	// rendered from.
	Fingerprints map[ModuleID]string `json:"fingerprints,omitempty" yaml:"fingerprints,omitempty"`
}

// Failed reports whether the run was blocked.
func (r *AssemblyResult) Failed() bool {
	return r.Status == StatusFail
}

// FingerprintModules returns the modules in Fingerprints, sorted.
func (r *AssemblyResult) FingerprintModules() []ModuleID {
	mods := make([]ModuleID, 0, len(r.Fingerprints))
	for m := range r.Fingerprints {
		mods = append(mods, m)
	}
	sort.Slice(mods, func(i, j int) bool { return mods[i] < mods[j] })
	return mods
}
