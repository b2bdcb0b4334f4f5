// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// StoreConfig holds settings for the SQLite context store.
type StoreConfig struct {
	// Path is the database file (default "data/context.db").
	Path string `json:"path" yaml:"path" mapstructure:"path"`
}

// AssemblyConfig holds settings for report assembly.
type AssemblyConfig struct {
	// VerifyFingerprints cross-checks fragment fingerprints against the
	// current module results (default true).
	VerifyFingerprints bool `json:"verify_fingerprints" yaml:"verify_fingerprints" mapstructure:"verify_fingerprints"`

	// Transitions inserts cosmetic cross-reference text between module
	// sections (default true).
	Transitions bool `json:"transitions" yaml:"transitions" mapstructure:"transitions"`
}

// OutputFormat selects how assembly results are printed.
type OutputFormat string

const (
	OutputText OutputFormat = "text"
	OutputJSON OutputFormat = "json"
)

// OutputConfig holds settings for written reports.
type OutputConfig struct {
	// Dir is the directory for composed documents (default "output/reports").
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`

	// Format selects the quality report format: text or json.
	Format OutputFormat `json:"format" yaml:"format" mapstructure:"format"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	// Level is the minimum log level: debug, info, warn, error.
	Level string `json:"level" yaml:"level" mapstructure:"level"`
}

// EngineConfig groups every setting read from landreport.yaml.
type EngineConfig struct {
	Store    StoreConfig    `json:"store" yaml:"store" mapstructure:"store"`
	Assembly AssemblyConfig `json:"assembly" yaml:"assembly" mapstructure:"assembly"`
	Output   OutputConfig   `json:"output" yaml:"output" mapstructure:"output"`
	Log      LogConfig      `json:"log" yaml:"log" mapstructure:"log"`
}

// CashflowInput is the input of a feasibility evaluation.
type CashflowInput struct {
	// UpfrontCost is the year-0 investment.
	UpfrontCost float64 `json:"upfront_cost" yaml:"upfront_cost"`

	// DiscountRate is the annual rate as a fraction (0.05 = 5%).
	DiscountRate float64 `json:"discount_rate" yaml:"discount_rate"`

	// Cashflows holds net inflows for years 1..T.
	Cashflows []float64 `json:"cashflows" yaml:"cashflows"`
}
