// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package assemble composes report documents from per-module HTML
// fragments. An Assembler reads stored module results, renders them, checks
// each fragment against the rendering contract, extracts its KPIs, and
// gates the report on the critical KPIs of its report type. It never
// computes a KPI itself: its only collaborators are a ResultSource and a
// FragmentRenderer.
package assemble

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/landreport/internal/integrity"
	"github.com/pdiddy/landreport/internal/kpi"
	"github.com/pdiddy/landreport/internal/reporttype"
	"github.com/pdiddy/landreport/pkg/types"
)

// ResultSource returns the current stored result of a module run.
// Implementations return an error matching types.ErrNotFound when the
// module has no result for the context.
type ResultSource interface {
	GetModuleResult(ctx context.Context, contextID string, id types.ModuleID) (*types.ModuleResult, error)
}

// FragmentRenderer renders a module's summary fields as an HTML fragment.
type FragmentRenderer interface {
	RenderFragment(ctx context.Context, id types.ModuleID, data map[string]any) (types.Fragment, error)
}

// ReportAssembler is the contract shared by every report variant.
type ReportAssembler interface {
	ReportType() types.ReportTypeID
	RequiredModules() []types.ModuleID
	LoadFragment(ctx context.Context, contextID string, id types.ModuleID) (types.Fragment, error)
	ValidateCompleteness(ctx context.Context, contextID string) (*Completeness, error)
	Assemble(ctx context.Context, contextID string) (*types.AssemblyResult, error)
}

var _ ReportAssembler = (*Assembler)(nil)

// Assembler builds one report variant.
type Assembler struct {
	cfg      types.ReportTypeConfig
	source   ResultSource
	renderer FragmentRenderer

	logger             *zap.Logger
	verifyFingerprints bool
	transitions        bool
	now                func() time.Time
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(a *Assembler) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithFingerprintCheck toggles the comparison between a fragment's stamped
// fingerprint and the data currently on record. It is on by default.
func WithFingerprintCheck(on bool) Option {
	return func(a *Assembler) { a.verifyFingerprints = on }
}

// WithTransitions toggles the connecting sentences placed between
// consecutive module sections. They are on by default.
func WithTransitions(on bool) Option {
	return func(a *Assembler) { a.transitions = on }
}

// WithClock replaces time.Now for the generated-at timestamp.
func WithClock(now func() time.Time) Option {
	return func(a *Assembler) {
		if now != nil {
			a.now = now
		}
	}
}

// New returns the assembler for report type id.
func New(id types.ReportTypeID, source ResultSource, renderer FragmentRenderer, opts ...Option) (*Assembler, error) {
	if source == nil || renderer == nil {
		return nil, fmt.Errorf("assembler %s: result source and renderer are required", id)
	}
	cfg, err := reporttype.GetConfig(id)
	if err != nil {
		return nil, &AssemblyError{ReportType: id, Op: "lookup report type", Err: err}
	}
	a := &Assembler{
		cfg:                cfg,
		source:             source,
		renderer:           renderer,
		logger:             zap.NewNop(),
		verifyFingerprints: true,
		transitions:        true,
		now:                time.Now,
	}
	for _, o := range opts {
		o(a)
	}
	a.logger = a.logger.With(zap.String("report_type", string(id)))
	return a, nil
}

// ForAll returns one assembler per registered report type.
func ForAll(source ResultSource, renderer FragmentRenderer, opts ...Option) (map[types.ReportTypeID]*Assembler, error) {
	out := make(map[types.ReportTypeID]*Assembler)
	for _, id := range reporttype.IDs() {
		a, err := New(id, source, renderer, opts...)
		if err != nil {
			return nil, err
		}
		out[id] = a
	}
	return out, nil
}

// ReportType returns the variant this assembler builds.
func (a *Assembler) ReportType() types.ReportTypeID { return a.cfg.ID }

// RequiredModules returns the modules the report needs, in load order.
func (a *Assembler) RequiredModules() []types.ModuleID {
	return append([]types.ModuleID(nil), a.cfg.Modules...)
}

// LoadFragment renders the current result of module for contextID and
// checks it against the fragment contract. Nothing is cached.
func (a *Assembler) LoadFragment(ctx context.Context, contextID string, id types.ModuleID) (types.Fragment, error) {
	l, err := a.load(ctx, contextID, id)
	if err != nil {
		return "", err
	}
	return l.fragment, nil
}

type loaded struct {
	result   *types.ModuleResult
	fragment types.Fragment
}

func (a *Assembler) load(ctx context.Context, contextID string, id types.ModuleID) (*loaded, error) {
	if !id.Valid() {
		return nil, a.fail(contextID, id, "load", fmt.Errorf("unknown module %q", id))
	}
	res, err := a.source.GetModuleResult(ctx, contextID, id)
	if err != nil {
		return nil, a.fail(contextID, id, "load result", err)
	}
	frag, err := a.renderer.RenderFragment(ctx, id, res.SummaryCopy())
	if err != nil {
		return nil, a.fail(contextID, id, "render", err)
	}
	if err := CheckFragmentContract(frag, id); err != nil {
		return nil, a.fail(contextID, id, "fragment contract", err)
	}
	return &loaded{result: res, fragment: frag}, nil
}

func (a *Assembler) fail(contextID string, id types.ModuleID, op string, err error) *AssemblyError {
	return &AssemblyError{
		ReportType: a.cfg.ID,
		ContextID:  contextID,
		Module:     id,
		Op:         op,
		Err:        err,
	}
}

// ModuleOutcome is the per-module part of a completeness check.
type ModuleOutcome struct {
	Module   types.ModuleID
	Fragment types.Fragment
	Record   *types.KPIRecord

	// Fingerprint is computed from the data on record, not read from the
	// fragment.
	Fingerprint string

	// Stamped is true when the fragment root carried a fingerprint.
	Stamped bool

	CriticalMissing []string
	SoftMissing     []string
}

// Completeness is the result of loading and extracting every required
// module of a report.
type Completeness struct {
	ReportType      types.ReportTypeID
	ContextID       string
	Modules         []ModuleOutcome
	CriticalMissing []string
	SoftMissing     []string
}

// OK reports whether no critical KPI is missing.
func (c *Completeness) OK() bool { return len(c.CriticalMissing) == 0 }

// Outcome returns the outcome for module m.
func (c *Completeness) Outcome(m types.ModuleID) (ModuleOutcome, bool) {
	for _, o := range c.Modules {
		if o.Module == m {
			return o, true
		}
	}
	return ModuleOutcome{}, false
}

// ValidateCompleteness loads every required module in parallel, extracts
// its KPIs, and classifies the missing ones as critical or soft. The first
// structural, not-found, or fingerprint failure cancels the remaining loads
// and is returned.
func (a *Assembler) ValidateCompleteness(ctx context.Context, contextID string) (*Completeness, error) {
	mods := a.cfg.Modules
	outcomes := make([]ModuleOutcome, len(mods))

	g, gctx := errgroup.WithContext(ctx)
	for i, m := range mods {
		i, m := i, m
		g.Go(func() error {
			o, err := a.evaluate(gctx, contextID, m)
			if err != nil {
				return err
			}
			outcomes[i] = *o
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		a.logFailure(contextID, err)
		return nil, err
	}

	c := &Completeness{ReportType: a.cfg.ID, ContextID: contextID, Modules: outcomes}
	for _, o := range outcomes {
		c.CriticalMissing = append(c.CriticalMissing, o.CriticalMissing...)
		c.SoftMissing = append(c.SoftMissing, o.SoftMissing...)
	}
	return c, nil
}

func (a *Assembler) evaluate(ctx context.Context, contextID string, m types.ModuleID) (*ModuleOutcome, error) {
	l, err := a.load(ctx, contextID, m)
	if err != nil {
		return nil, err
	}
	rec, err := kpi.Extract(l.fragment, m, a.cfg.RequiredKPIs(m))
	if err != nil {
		return nil, a.fail(contextID, m, "extract", err)
	}

	o := &ModuleOutcome{
		Module:      m,
		Fragment:    l.fragment,
		Record:      rec,
		Fingerprint: integrity.Fingerprint(m, l.result.Summary),
		Stamped:     rec.Fingerprint != "",
	}
	if a.verifyFingerprints && o.Stamped && !integrity.CompareFingerprints(rec.Fingerprint, o.Fingerprint) {
		return nil, a.fail(contextID, m, "fingerprint check",
			fmt.Errorf("%w: fragment %s, data %s", ErrFingerprintMismatch, rec.Fingerprint, o.Fingerprint))
	}

	for _, name := range rec.Missing() {
		item := string(m) + "." + name
		if a.cfg.IsCritical(m, name) {
			o.CriticalMissing = append(o.CriticalMissing, item)
		} else {
			o.SoftMissing = append(o.SoftMissing, item)
		}
	}
	return o, nil
}

func (a *Assembler) logFailure(contextID string, err error) {
	fields := []zap.Field{zap.String("context_id", contextID), zap.Error(err)}
	var se *kpi.StructuralError
	if errors.As(err, &se) {
		fields = append(fields, zap.Object("fragment", se))
	}
	a.logger.Error("assembly aborted", fields...)
}

// Assemble produces the report for contextID. Structural, not-found, and
// fingerprint failures are returned as *AssemblyError. A missing critical
// KPI is not returned as an error: the result carries Status FAIL, the
// reasons in Checks, and no document; BlockingError converts it.
func (a *Assembler) Assemble(ctx context.Context, contextID string) (*types.AssemblyResult, error) {
	c, err := a.ValidateCompleteness(ctx, contextID)
	if err != nil {
		return nil, err
	}

	res := &types.AssemblyResult{
		RunID:           uuid.NewString(),
		ReportType:      a.cfg.ID,
		ContextID:       contextID,
		GeneratedAt:     a.now().UTC(),
		CriticalMissing: nonNil(c.CriticalMissing),
		SoftMissing:     nonNil(c.SoftMissing),
		Fingerprints:    make(map[types.ModuleID]string, len(c.Modules)),
	}
	for _, o := range c.Modules {
		res.Fingerprints[o.Module] = o.Fingerprint
	}
	res.Checks = a.checks(c)

	switch {
	case !c.OK():
		res.Status = types.StatusFail
		a.logger.Warn("report blocked",
			zap.String("context_id", contextID),
			zap.String("run_id", res.RunID),
			zap.Strings("critical_missing", c.CriticalMissing))
		return res, nil
	case len(c.SoftMissing) > 0:
		res.Status = types.StatusWarn
	default:
		res.Status = types.StatusPass
	}

	res.Document = a.compose(c, res)
	a.logger.Info("report assembled",
		zap.String("context_id", contextID),
		zap.String("run_id", res.RunID),
		zap.String("status", string(res.Status)),
		zap.Strings("soft_missing", c.SoftMissing),
		zap.Int("bytes", len(res.Document)))
	return res, nil
}

func (a *Assembler) checks(c *Completeness) []types.QualityCheck {
	var out []types.QualityCheck
	for _, o := range c.Modules {
		out = append(out, types.QualityCheck{
			Name:   string(o.Module) + ".fragment",
			Status: types.StatusPass,
			Detail: fmt.Sprintf("%d KPI attributes found", len(o.Record.Found)),
		})
		fp := types.QualityCheck{Name: string(o.Module) + ".fingerprint", Status: types.StatusPass}
		switch {
		case !a.verifyFingerprints:
			fp.Detail = "check disabled"
		case !o.Stamped:
			fp.Detail = "fragment not stamped"
		default:
			fp.Detail = "matches " + o.Fingerprint
		}
		out = append(out, fp)
	}

	critical := types.QualityCheck{Name: "critical-kpis", Status: types.StatusPass, Detail: "all present"}
	if len(c.CriticalMissing) > 0 {
		critical.Status = types.StatusFail
		critical.Detail = "missing: " + joinItems(c.CriticalMissing)
	}
	soft := types.QualityCheck{Name: "soft-kpis", Status: types.StatusPass, Detail: "all present"}
	if len(c.SoftMissing) > 0 {
		soft.Status = types.StatusWarn
		soft.Detail = "pending: " + joinItems(c.SoftMissing)
	}
	return append(out, critical, soft)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
