// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package render turns a module's summary fields into an HTML fragment.
// The fragment root carries every numeric field as a data attribute plus a
// fingerprint of the data it was rendered from; the body repeats the values
// for readers and marks missing ones as pending.
package render

import (
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/pdiddy/landreport/internal/integrity"
	"github.com/pdiddy/landreport/internal/kpi"
	"github.com/pdiddy/landreport/internal/numfmt"
	"github.com/pdiddy/landreport/pkg/types"
)

// PendingLabel is shown in place of a value the module did not provide.
const PendingLabel = "pending data"

var fragmentTemplate = template.Must(template.New("fragment").Parse(
	`<section class="module module-{{.Class}}" data-module="{{.Module}}" {{.Attrs}}>
  <h2>{{.Title}}</h2>
  <table class="kpi">
{{- range .Rows}}
    <tr><th>{{.Label}}</th>{{if .Pending}}<td class="pending">{{$.Pending}}</td>{{else}}<td>{{.Value}}</td>{{end}}</tr>
{{- end}}
  </table>
</section>`))

type row struct {
	Label   string
	Value   string
	Pending bool
}

type view struct {
	Module  types.ModuleID
	Class   string
	Title   string
	Attrs   template.HTMLAttr
	Rows    []row
	Pending string
}

// HTMLRenderer renders module fragments from html/template.
type HTMLRenderer struct {
	stampFingerprint bool
}

// Option configures an HTMLRenderer.
type Option func(*HTMLRenderer)

// WithoutFingerprint omits the data-fingerprint attribute.
func WithoutFingerprint() Option {
	return func(r *HTMLRenderer) { r.stampFingerprint = false }
}

// New returns a renderer that stamps fingerprints by default.
func New(opts ...Option) *HTMLRenderer {
	r := &HTMLRenderer{stampFingerprint: true}
	for _, o := range opts {
		o(r)
	}
	return r
}

// RenderFragment renders data, the summary fields of module, as a fragment.
func (r *HTMLRenderer) RenderFragment(ctx context.Context, module types.ModuleID, data map[string]any) (types.Fragment, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !module.Valid() {
		return "", fmt.Errorf("rendering fragment: unknown module %q", module)
	}

	v := view{
		Module:  module,
		Class:   strings.ToLower(string(module)),
		Title:   module.DisplayName(),
		Pending: PendingLabel,
	}

	var attrs []string
	for _, def := range types.KPICatalogue(module) {
		name, value := def.Name, data[def.Name]
		if value == nil {
			// Results written before a field was renamed keep the old name
			// in the fragment; extraction maps it back.
			if legacy, ok := kpi.LegacyField(module, def.Name); ok && data[legacy] != nil {
				name, value = legacy, data[legacy]
			}
		}
		display, exact, ok := formatField(def, value)
		if !ok {
			v.Rows = append(v.Rows, row{Label: def.Label, Pending: true})
			continue
		}
		v.Rows = append(v.Rows, row{Label: def.Label, Value: display})
		attrs = append(attrs, attribute(kpi.AttrName(name), exact))
	}
	if r.stampFingerprint {
		attrs = append(attrs, attribute(kpi.AttrFingerprint, integrity.Fingerprint(module, data)))
	}
	v.Attrs = template.HTMLAttr(strings.Join(attrs, " "))

	var b strings.Builder
	if err := fragmentTemplate.Execute(&b, v); err != nil {
		return "", fmt.Errorf("rendering fragment %s: %w", module, err)
	}
	return types.Fragment(b.String()), nil
}

// formatField renders one summary value twice: rounded for the table body
// and at full precision for the data attribute. Numeric fields that are
// absent or not numbers report false.
func formatField(def types.KPIDefinition, v any) (display, exact string, ok bool) {
	if def.Text {
		s, ok := v.(string)
		if !ok || strings.TrimSpace(s) == "" {
			return "", "", false
		}
		return s, s, true
	}
	f, ok := numfmt.ToFloat(v)
	if !ok {
		return "", "", false
	}
	if def.Unit == "%" {
		return numfmt.Percent(f), numfmt.Exact(f, "%"), true
	}
	return numfmt.WithUnit(f, def.Unit), numfmt.Exact(f, def.Unit), true
}

func attribute(name, value string) string {
	return name + `="` + template.HTMLEscapeString(value) + `"`
}
