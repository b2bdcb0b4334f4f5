// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package assemble

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/pdiddy/landreport/internal/kpi"
	"github.com/pdiddy/landreport/pkg/types"
)

// documentTags may only appear in a whole document, never in a fragment.
var documentTags = map[string]bool{
	"html": true,
	"head": true,
	"body": true,
}

// CheckFragmentContract verifies that fragment is an embeddable piece for
// module: it begins with a root tag, that tag carries the matching
// data-module attribute, and no document wrapper appears anywhere.
// Violations are returned as *kpi.StructuralError.
func CheckFragmentContract(fragment types.Fragment, module types.ModuleID) error {
	violation := func(format string, args ...any) error {
		return kpi.NewStructuralError(module, fmt.Sprintf(format, args...), fragment)
	}

	z := html.NewTokenizer(strings.NewReader(strings.TrimSpace(string(fragment))))
	sawRoot := false
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if err := z.Err(); err != io.EOF {
				return violation("unreadable fragment: %v", err)
			}
			if !sawRoot {
				return violation("empty fragment")
			}
			return nil

		case html.DoctypeToken:
			return violation("fragment is a standalone document (doctype)")

		case html.StartTagToken, html.SelfClosingTagToken, html.EndTagToken:
			tok := z.Token()
			if documentTags[tok.Data] {
				return violation("fragment is a standalone document (<%s>)", tok.Data)
			}
			if sawRoot {
				continue
			}
			if tt == html.EndTagToken || !kpi.RootTags[tok.Data] {
				return violation("fragment begins with <%s>, want <section> or <div>", tok.Data)
			}
			if got := tokenAttr(tok, kpi.AttrModule); got != string(module) {
				return violation("root %s=%q, want %q", kpi.AttrModule, got, module)
			}
			sawRoot = true

		default:
			if !sawRoot {
				return violation("fragment does not begin with a root tag")
			}
		}
	}
}

func tokenAttr(tok html.Token, key string) string {
	for _, a := range tok.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
