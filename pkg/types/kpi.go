// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// KPIDefinition describes one summary field a module publishes.
type KPIDefinition struct {
	// Name is the canonical KPI name (snake_case).
	Name string `json:"name" yaml:"name"`

	// Label is the display label used by renderers.
	Label string `json:"label" yaml:"label"`

	// Unit is appended to rendered values ("%" renders as a percent sign).
	Unit string `json:"unit,omitempty" yaml:"unit,omitempty"`

	// Text marks descriptive fields that are rendered but never extracted
	// as numeric KPIs.
	Text bool `json:"text,omitempty" yaml:"text,omitempty"`
}

// kpiCatalogue lists every published field per module in fingerprint order.
var kpiCatalogue = map[ModuleID][]KPIDefinition{
	ModuleLandValue: {
		{Name: "land_value", Label: "Appraised land value", Unit: "KRW"},
		{Name: "unit_price_sqm", Label: "Unit price", Unit: "KRW/m²"},
		{Name: "confidence_pct", Label: "Valuation confidence", Unit: "%"},
		{Name: "transaction_count", Label: "Comparable transactions", Unit: "cases"},
	},
	ModuleHousingType: {
		{Name: "recommended_type", Label: "Recommended housing type", Text: true},
		{Name: "total_score", Label: "Suitability score", Unit: "pts"},
		{Name: "confidence_pct", Label: "Recommendation confidence", Unit: "%"},
		{Name: "runner_up_score", Label: "Runner-up score", Unit: "pts"},
	},
	ModuleCapacity: {
		{Name: "total_units", Label: "Legal unit count", Unit: "units"},
		{Name: "incentive_units", Label: "Incentive unit count", Unit: "units"},
		{Name: "gross_floor_area", Label: "Gross floor area", Unit: "m²"},
		{Name: "floor_area_ratio", Label: "Floor area ratio", Unit: "%"},
	},
	ModuleFeasibility: {
		{Name: "npv", Label: "Net present value", Unit: "KRW"},
		{Name: "irr", Label: "Internal rate of return", Unit: "%"},
		{Name: "roi", Label: "Return on investment", Unit: "%"},
		{Name: "payback_years", Label: "Payback period", Unit: "years"},
	},
	ModuleLHApproval: {
		{Name: "decision", Label: "Expected decision", Text: true},
		{Name: "approval_score", Label: "Approval score", Unit: "pts"},
		{Name: "approval_probability", Label: "Approval probability", Unit: "%"},
	},
}

// KPICatalogue returns a copy of the field definitions module m publishes.
func KPICatalogue(m ModuleID) []KPIDefinition {
	return append([]KPIDefinition(nil), kpiCatalogue[m]...)
}

// LookupKPI returns the definition of name for module m.
func LookupKPI(m ModuleID, name string) (KPIDefinition, bool) {
	for _, d := range kpiCatalogue[m] {
		if d.Name == name {
			return d, true
		}
	}
	return KPIDefinition{}, false
}
