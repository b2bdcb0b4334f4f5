// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package kpi extracts key performance indicators from rendered module
// fragments. Extraction runs in strict stages: locate the single root
// element, harvest its data attributes, apply the fixed alias list, and
// normalize the required values. A fragment without exactly one root is a
// renderer defect and fails with a StructuralError; a missing value is data
// and is reported as nil in the KPIRecord.
package kpi

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/pdiddy/landreport/internal/numfmt"
	"github.com/pdiddy/landreport/pkg/types"
)

const (
	// AttrPrefix marks root attributes that carry KPIs.
	AttrPrefix = "data-"

	// AttrModule carries the module identifier on the root element.
	AttrModule = "data-module"

	// AttrFingerprint carries the fingerprint of the data the fragment was
	// rendered from.
	AttrFingerprint = "data-fingerprint"
)

// RootTags are the element names accepted as a fragment root.
var RootTags = map[string]bool{
	"section": true,
	"div":     true,
}

// reservedAttrs are data attributes that never become KPIs.
var reservedAttrs = map[string]bool{
	AttrModule:      true,
	AttrFingerprint: true,
}

// alias copies a legacy field onto a canonical KPI when the canonical one is
// absent.
type alias struct {
	canonical string
	legacy    string
}

// aliases is the complete list of implicit fallbacks. It is intentionally
// limited to one entry for each of two modules.
var aliases = map[types.ModuleID]alias{
	types.ModuleLandValue: {canonical: "land_value", legacy: "land_value_total"},
	types.ModuleCapacity:  {canonical: "total_units", legacy: "unit_count"},
}

// Extract runs every stage on fragment for module and returns a fresh
// KPIRecord covering the required KPI names.
func Extract(fragment types.Fragment, module types.ModuleID, required []string) (*types.KPIRecord, error) {
	root, err := LocateRoot(fragment, module)
	if err != nil {
		return nil, err
	}

	raw := Harvest(root)
	found := make([]string, 0, len(raw))
	for k := range raw {
		found = append(found, k)
	}
	sort.Strings(found)

	ApplyAlias(module, raw)

	record := Normalize(module, raw, required)
	record.Found = found
	record.Fingerprint = attr(root, AttrFingerprint)
	return record, nil
}

// LocateRoot parses fragment and returns the single section or div element
// whose data-module equals module.
func LocateRoot(fragment types.Fragment, module types.ModuleID) (*html.Node, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(string(fragment)), body)
	if err != nil {
		return nil, &StructuralError{
			Module:  module,
			Reason:  fmt.Sprintf("unparsable fragment: %v", err),
			Preview: preview(string(fragment)),
		}
	}

	var (
		roots []*html.Node
		tags  = map[string]int{}
	)
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			tags[n.Data]++
			if RootTags[n.Data] && attr(n, AttrModule) == string(module) {
				roots = append(roots, n)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range nodes {
		walk(n)
	}

	switch len(roots) {
	case 1:
		return roots[0], nil
	case 0:
		return nil, &StructuralError{
			Module:    module,
			Reason:    "no root element carries " + AttrModule + "=" + string(module),
			RootCount: 0,
			Tags:      tags,
			Preview:   preview(string(fragment)),
		}
	default:
		return nil, &StructuralError{
			Module:    module,
			Reason:    fmt.Sprintf("%d root elements carry %s=%s", len(roots), AttrModule, module),
			RootCount: len(roots),
			Tags:      tags,
			Preview:   preview(string(fragment)),
		}
	}
}

// Harvest reads the KPI attributes of root into a map keyed by canonical
// KPI name: the data- prefix is stripped and hyphens become underscores.
func Harvest(root *html.Node) map[string]string {
	raw := make(map[string]string)
	for _, a := range root.Attr {
		if a.Namespace != "" || !strings.HasPrefix(a.Key, AttrPrefix) || reservedAttrs[a.Key] {
			continue
		}
		name := CanonicalName(strings.TrimPrefix(a.Key, AttrPrefix))
		if name == "" {
			continue
		}
		raw[name] = a.Val
	}
	return raw
}

// CanonicalName converts an attribute suffix ("land-value") into a KPI name
// ("land_value").
func CanonicalName(s string) string {
	return strings.ReplaceAll(strings.ToLower(s), "-", "_")
}

// AttrName converts a KPI name into its root attribute name.
func AttrName(kpi string) string {
	return AttrPrefix + strings.ReplaceAll(kpi, "_", "-")
}

// ApplyAlias copies the module's legacy field onto its canonical KPI when
// only the legacy field is present. It reports whether it did.
func ApplyAlias(module types.ModuleID, raw map[string]string) bool {
	a, ok := aliases[module]
	if !ok {
		return false
	}
	if _, present := raw[a.canonical]; present {
		return false
	}
	v, present := raw[a.legacy]
	if !present {
		return false
	}
	raw[a.canonical] = v
	return true
}

// LegacyField returns the legacy summary field that stands in for the
// canonical field name on module, if there is one.
func LegacyField(module types.ModuleID, name string) (string, bool) {
	a, ok := aliases[module]
	if !ok || a.canonical != name {
		return "", false
	}
	return a.legacy, true
}

// Normalize parses each required KPI. Absent and unparsable values become
// nil; nothing defaults to zero.
func Normalize(module types.ModuleID, raw map[string]string, required []string) *types.KPIRecord {
	record := &types.KPIRecord{
		Module:   module,
		Values:   make(map[string]*float64, len(required)),
		Required: append([]string(nil), required...),
		Complete: true,
	}
	for _, name := range required {
		s, ok := raw[name]
		if !ok {
			record.Values[name] = nil
			record.Complete = false
			continue
		}
		v, ok := numfmt.ParseNumber(s)
		if !ok {
			record.Values[name] = nil
			record.Complete = false
			continue
		}
		record.Values[name] = &v
	}
	return record
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}
	return ""
}

func preview(s string) string {
	const limit = 160
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
