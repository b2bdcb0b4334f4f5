// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package assemble

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/pdiddy/landreport/pkg/types"
)

const riskNotice = `Figures in this report are estimates produced by the analysis modules
from the data available on the generation date. They are not an appraisal,
an investment recommendation, or a guarantee of LH approval.`

var esc = template.HTMLEscapeString

// compose lays out the document in the configured section order. Module
// fragments are inserted verbatim.
func (a *Assembler) compose(c *Completeness, res *types.AssemblyResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n<meta charset=\"utf-8\">\n<title>%s</title>\n</head>\n<body>\n", esc(a.cfg.Title))
	fmt.Fprintf(&b, "<article class=\"report report-%s\" data-report-type=\"%s\" data-context-id=\"%s\" data-run-id=\"%s\" data-status=\"%s\">\n",
		esc(string(a.cfg.ID)), esc(string(a.cfg.ID)), esc(res.ContextID), esc(res.RunID), res.Status)

	noticeWritten := false
	writeNotice := func() {
		if !noticeWritten {
			writePendingNotice(&b, res.SoftMissing)
			noticeWritten = true
		}
	}

	var prev types.ModuleID
	for _, tok := range a.cfg.Sections {
		if m, ok := tok.Module(); ok {
			writeNotice()
			o, _ := c.Outcome(m)
			if a.transitions && prev != "" {
				fmt.Fprintf(&b, "<p class=\"transition\">%s</p>\n", esc(transition(prev, m)))
			}
			b.WriteString(strings.TrimSpace(o.Fragment.String()))
			b.WriteString("\n")
			prev = m
			continue
		}

		switch tok {
		case types.SectionCover:
			a.writeCover(&b, res)
			writeNotice()
		case types.SectionIntro:
			writeNotice()
			fmt.Fprintf(&b, "<section class=\"intro\">\n<p>%s</p>\n</section>\n", esc(a.cfg.Intro))
		case types.SectionRiskNotice:
			fmt.Fprintf(&b, "<section class=\"risk-notice\">\n<h2>Risk notice</h2>\n<p>%s</p>\n</section>\n", esc(riskNotice))
		case types.SectionQAMetadata:
			writeQAMetadata(&b, res)
		}
		prev = ""
	}
	writeNotice()

	b.WriteString("</article>\n</body>\n</html>\n")
	return b.String()
}

func (a *Assembler) writeCover(b *strings.Builder, res *types.AssemblyResult) {
	fmt.Fprintf(b, "<header class=\"cover\">\n<h1>%s</h1>\n", esc(a.cfg.Title))
	if a.cfg.Audience != "" {
		fmt.Fprintf(b, "<p class=\"audience\">Prepared for: %s</p>\n", esc(a.cfg.Audience))
	}
	fmt.Fprintf(b, "<p class=\"context\">Analysis: %s</p>\n", esc(res.ContextID))
	fmt.Fprintf(b, "<p class=\"generated\">Generated %s</p>\n</header>\n", res.GeneratedAt.Format("2006-01-02 15:04 MST"))
}

// writePendingNotice writes the visible data-incomplete flag. It writes
// nothing when no KPI is pending.
func writePendingNotice(b *strings.Builder, pending []string) {
	if len(pending) == 0 {
		return
	}
	b.WriteString("<aside class=\"data-incomplete\" role=\"note\">\n<strong>Data incomplete.</strong> The following figures are pending data:\n<ul>\n")
	for _, item := range pending {
		fmt.Fprintf(b, "<li>%s</li>\n", esc(itemLabel(item)))
	}
	b.WriteString("</ul>\n</aside>\n")
}

func writeQAMetadata(b *strings.Builder, res *types.AssemblyResult) {
	b.WriteString("<section class=\"qa-metadata\">\n<h2>Data integrity</h2>\n<table>\n")
	fmt.Fprintf(b, "<tr><th>Run</th><td>%s</td></tr>\n", esc(res.RunID))
	fmt.Fprintf(b, "<tr><th>Status</th><td>%s</td></tr>\n", res.Status)
	for _, m := range res.FingerprintModules() {
		fmt.Fprintf(b, "<tr><th>%s fingerprint</th><td><code>%s</code></td></tr>\n", m, esc(res.Fingerprints[m]))
	}
	if len(res.SoftMissing) > 0 {
		fmt.Fprintf(b, "<tr><th>Pending</th><td>%s</td></tr>\n", esc(joinItems(res.SoftMissing)))
	}
	b.WriteString("</table>\n</section>\n")
}

func transition(prev, next types.ModuleID) string {
	return fmt.Sprintf("Building on the %s above, the %s follows.",
		strings.ToLower(prev.DisplayName()), strings.ToLower(next.DisplayName()))
}

// itemLabel turns "M5.payback_years" into "Payback period (M5)".
func itemLabel(item string) string {
	mod, name, ok := strings.Cut(item, ".")
	if !ok {
		return item
	}
	if def, found := types.LookupKPI(types.ModuleID(mod), name); found {
		return def.Label + " (" + mod + ")"
	}
	return item
}

func joinItems(items []string) string {
	return strings.Join(items, ", ")
}
