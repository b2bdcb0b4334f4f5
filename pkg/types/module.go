// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types holds the data model shared by the report pipeline stages:
// module results, fragments, KPI records, report type configuration, and
// assembly results.
package types

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned by a ResultSource when no result exists for the
// requested context and module.
var ErrNotFound = errors.New("module result not found")

// ModuleID identifies one of the five upstream analysis modules.
type ModuleID string

const (
	ModuleLandValue   ModuleID = "M2"
	ModuleHousingType ModuleID = "M3"
	ModuleCapacity    ModuleID = "M4"
	ModuleFeasibility ModuleID = "M5"
	ModuleLHApproval  ModuleID = "M6"
)

// AllModules lists every module in canonical order.
var AllModules = []ModuleID{
	ModuleLandValue,
	ModuleHousingType,
	ModuleCapacity,
	ModuleFeasibility,
	ModuleLHApproval,
}

var moduleNames = map[ModuleID]string{
	ModuleLandValue:   "Land Valuation",
	ModuleHousingType: "Housing Type",
	ModuleCapacity:    "Development Capacity",
	ModuleFeasibility: "Financial Feasibility",
	ModuleLHApproval:  "LH Approval Outlook",
}

// Valid reports whether m is one of the five known modules.
func (m ModuleID) Valid() bool {
	_, ok := moduleNames[m]
	return ok
}

// DisplayName returns the human-readable module name.
func (m ModuleID) DisplayName() string {
	if name, ok := moduleNames[m]; ok {
		return name
	}
	return string(m)
}

// ParseModuleID converts s into a ModuleID, rejecting unknown identifiers.
func ParseModuleID(s string) (ModuleID, error) {
	m := ModuleID(s)
	if !m.Valid() {
		return "", fmt.Errorf("unknown module %q: want one of M2, M3, M4, M5, M6", s)
	}
	return m, nil
}

// Payload is an opaque nested document. The report pipeline stores and
// forwards it but never reads inside it.
type Payload map[string]any

// ModuleResult is the frozen output of one upstream module for one
// analysis context. It is owned by the upstream pipeline.
type ModuleResult struct {
	// ContextID identifies the analysis run (one parcel, one run).
	ContextID string `json:"context_id" yaml:"context_id"`

	// ModuleID names the module that produced the result.
	ModuleID ModuleID `json:"module_id" yaml:"module_id"`

	// Summary holds the named numeric and string fields reports draw from.
	Summary map[string]any `json:"summary" yaml:"summary"`

	// Details is the module's internal breakdown, never interpreted here.
	Details Payload `json:"details,omitempty" yaml:"details,omitempty"`

	// ProducedAt is when the upstream module finished.
	ProducedAt time.Time `json:"produced_at" yaml:"produced_at"`
}

// SummaryCopy returns a shallow copy of the summary so callers can hand it
// to collaborators without sharing the map.
func (r *ModuleResult) SummaryCopy() map[string]any {
	out := make(map[string]any, len(r.Summary))
	for k, v := range r.Summary {
		out[k] = v
	}
	return out
}

// Fragment is one module's rendered contribution to a report. It is always
// a piece to be embedded, never a standalone document.
type Fragment string

// String returns the fragment text.
func (f Fragment) String() string { return string(f) }
