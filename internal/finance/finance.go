// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package finance computes the canonical financial metrics of a development
// plan: net present value, internal rate of return, payback period, and
// return on investment. All functions are pure.
//
// Cash-flow series are one-indexed: cashflows[0] is the inflow at the end of
// year 1. The upfront cost is the year-0 outflow and is never part of the
// series.
package finance

import (
	"errors"
	"fmt"
	"math"

	"github.com/pdiddy/landreport/pkg/types"
)

// ErrDomain is matched by every DomainError.
var ErrDomain = errors.New("invalid numeric input")

// DomainError reports input outside the domain of a metric.
type DomainError struct {
	Op     string
	Reason string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

// Is lets errors.Is(err, ErrDomain) match any DomainError.
func (e *DomainError) Is(target error) bool {
	return target == ErrDomain
}

// Never is the payback period of a series that never recoups its cost.
var Never = math.Inf(1)

const (
	irrStart   = 0.05
	irrMinRate = -0.99
	irrMaxRate = 10.0
)

// NPV returns Σ cashflows[t]/(1+rate)^t − upfront for t = 1..T.
// An empty series yields −upfront.
func NPV(rate float64, cashflows []float64, upfront float64) (float64, error) {
	if err := checkRate("npv", rate); err != nil {
		return 0, err
	}
	if err := checkSeries("npv", cashflows, upfront); err != nil {
		return 0, err
	}
	return npv(rate, cashflows, upfront), nil
}

// PaybackPeriod returns the number of years until cumulative inflows reach
// upfront, interpolating linearly within the crossing year. It returns Never
// when the series ends first.
func PaybackPeriod(cashflows []float64, upfront float64) (float64, error) {
	if err := checkSeries("payback", cashflows, upfront); err != nil {
		return 0, err
	}
	if upfront == 0 {
		return 0, nil
	}

	cumulative := 0.0
	for i, cf := range cashflows {
		next := cumulative + cf
		if next >= upfront {
			// cf > 0 here: cumulative < upfront <= next.
			return float64(i) + (upfront-cumulative)/cf, nil
		}
		cumulative = next
	}
	return Never, nil
}

// IRROption configures IRR and SolveIRR.
type IRROption func(*irrSettings)

type irrSettings struct {
	precision float64
	maxIter   int
}

// WithPrecision sets the convergence threshold on successive rate estimates
// (default 1e-6).
func WithPrecision(p float64) IRROption {
	return func(s *irrSettings) { s.precision = p }
}

// WithMaxIterations caps Newton-Raphson steps (default 100).
func WithMaxIterations(n int) IRROption {
	return func(s *irrSettings) { s.maxIter = n }
}

// IRRResult carries the IRR estimate together with convergence diagnostics.
type IRRResult struct {
	// Percent is the rate as a percentage (15.8 means 15.8%).
	Percent float64 `json:"percent" yaml:"percent"`

	// Iterations is the number of Newton-Raphson steps taken.
	Iterations int `json:"iterations" yaml:"iterations"`

	// Converged is false when the estimate is the last iterate after the
	// iteration budget ran out, the derivative vanished, or Newton stalled
	// at a clamp bound. Such values are advisory.
	Converged bool `json:"converged" yaml:"converged"`
}

// IRR returns the internal rate of return as a percentage. On
// non-convergence it returns the last estimate; use SolveIRR to see whether
// that happened.
func IRR(cashflows []float64, upfront float64, opts ...IRROption) (float64, error) {
	res, err := SolveIRR(cashflows, upfront, opts...)
	if err != nil {
		return 0, err
	}
	return res.Percent, nil
}

// SolveIRR runs Newton-Raphson on NPV(r) starting at 5%, clamping r to
// [-0.99, 10.0] after every step.
func SolveIRR(cashflows []float64, upfront float64, opts ...IRROption) (IRRResult, error) {
	s := irrSettings{precision: 1e-6, maxIter: 100}
	for _, o := range opts {
		o(&s)
	}
	if !(s.precision > 0) || math.IsInf(s.precision, 0) {
		return IRRResult{}, &DomainError{Op: "irr", Reason: fmt.Sprintf("precision %v must be positive", s.precision)}
	}
	if s.maxIter <= 0 {
		return IRRResult{}, &DomainError{Op: "irr", Reason: fmt.Sprintf("max iterations %d must be positive", s.maxIter)}
	}
	if err := checkSeries("irr", cashflows, upfront); err != nil {
		return IRRResult{}, err
	}

	r := irrStart
	for i := 1; i <= s.maxIter; i++ {
		f := npv(r, cashflows, upfront)
		d := npvDerivative(r, cashflows)
		if d == 0 || math.IsNaN(d) || math.IsInf(d, 0) {
			return IRRResult{Percent: r * 100, Iterations: i, Converged: f == 0}, nil
		}
		next := clamp(r-f/d, irrMinRate, irrMaxRate)
		if math.Abs(next-r) < s.precision {
			// A step pinned at a clamp bound has stalled unless NPV is
			// actually zero there.
			pinned := next == irrMinRate || next == irrMaxRate
			converged := !pinned || math.Abs(npv(next, cashflows, upfront)) <= s.precision*math.Max(1, upfront)
			return IRRResult{Percent: next * 100, Iterations: i, Converged: converged}, nil
		}
		r = next
	}
	return IRRResult{Percent: r * 100, Iterations: s.maxIter, Converged: false}, nil
}

// ROI returns (Σ cashflows − upfront) / upfront as a percentage.
func ROI(cashflows []float64, upfront float64) (float64, error) {
	if err := checkSeries("roi", cashflows, upfront); err != nil {
		return 0, err
	}
	if upfront == 0 {
		return 0, &DomainError{Op: "roi", Reason: "upfront cost must be positive"}
	}
	total := 0.0
	for _, cf := range cashflows {
		total += cf
	}
	return (total - upfront) / upfront * 100, nil
}

// Feasibility bundles the metrics the feasibility module publishes.
type Feasibility struct {
	NPV          float64   `json:"npv" yaml:"npv"`
	IRR          IRRResult `json:"irr" yaml:"irr"`
	PaybackYears float64   `json:"payback_years" yaml:"payback_years"`

	// ROI is nil when there is no upfront cost to return on.
	ROI *float64 `json:"roi,omitempty" yaml:"roi,omitempty"`
}

// Evaluate computes every feasibility metric for in.
func Evaluate(in types.CashflowInput) (Feasibility, error) {
	var (
		f   Feasibility
		err error
	)
	if f.NPV, err = NPV(in.DiscountRate, in.Cashflows, in.UpfrontCost); err != nil {
		return Feasibility{}, err
	}
	if f.IRR, err = SolveIRR(in.Cashflows, in.UpfrontCost); err != nil {
		return Feasibility{}, err
	}
	if f.PaybackYears, err = PaybackPeriod(in.Cashflows, in.UpfrontCost); err != nil {
		return Feasibility{}, err
	}
	if in.UpfrontCost > 0 {
		roi, err := ROI(in.Cashflows, in.UpfrontCost)
		if err != nil {
			return Feasibility{}, err
		}
		f.ROI = &roi
	}
	return f, nil
}

// Summary returns the feasibility metrics as module summary fields. A
// never-recouped payback and an undefined ROI are left out rather than
// written as infinity or zero.
func (f Feasibility) Summary() map[string]any {
	out := map[string]any{
		"npv":           f.NPV,
		"irr":           f.IRR.Percent,
		"irr_converged": f.IRR.Converged,
	}
	if !math.IsInf(f.PaybackYears, 1) {
		out["payback_years"] = f.PaybackYears
	}
	if f.ROI != nil {
		out["roi"] = *f.ROI
	}
	return out
}

func npv(rate float64, cashflows []float64, upfront float64) float64 {
	total := -upfront
	discount := 1.0
	for _, cf := range cashflows {
		discount *= 1 + rate
		total += cf / discount
	}
	return total
}

func npvDerivative(rate float64, cashflows []float64) float64 {
	total := 0.0
	for i, cf := range cashflows {
		t := float64(i + 1)
		total += -t * cf / math.Pow(1+rate, t+1)
	}
	return total
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func checkRate(op string, rate float64) error {
	if math.IsNaN(rate) || math.IsInf(rate, 0) {
		return &DomainError{Op: op, Reason: fmt.Sprintf("rate %v is not finite", rate)}
	}
	if rate <= -1 {
		return &DomainError{Op: op, Reason: fmt.Sprintf("rate %v must be greater than -1", rate)}
	}
	return nil
}

func checkSeries(op string, cashflows []float64, upfront float64) error {
	if math.IsNaN(upfront) || math.IsInf(upfront, 0) {
		return &DomainError{Op: op, Reason: fmt.Sprintf("upfront cost %v is not finite", upfront)}
	}
	if upfront < 0 {
		return &DomainError{Op: op, Reason: fmt.Sprintf("upfront cost %v is negative", upfront)}
	}
	for i, cf := range cashflows {
		if math.IsNaN(cf) || math.IsInf(cf, 0) {
			return &DomainError{Op: op, Reason: fmt.Sprintf("cashflow for year %d is not finite", i+1)}
		}
	}
	return nil
}
