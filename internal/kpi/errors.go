// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package kpi

import (
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap/zapcore"

	"github.com/pdiddy/landreport/pkg/types"
)

// ErrStructural is matched by every StructuralError.
var ErrStructural = errors.New("malformed fragment")

// StructuralError reports a fragment whose shape violates the rendering
// contract. It signals a renderer defect and is never retried or downgraded
// to missing data.
type StructuralError struct {
	Module    types.ModuleID
	Reason    string
	RootCount int
	Tags      map[string]int
	Preview   string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("fragment %s: %s", e.Module, e.Reason)
}

// Is lets errors.Is(err, ErrStructural) match any StructuralError.
func (e *StructuralError) Is(target error) bool {
	return target == ErrStructural
}

// MarshalLogObject writes the fragment-shape diagnostics to a zap encoder.
func (e *StructuralError) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("module", string(e.Module))
	enc.AddString("reason", e.Reason)
	enc.AddInt("root_count", e.RootCount)
	enc.AddString("preview", e.Preview)
	if len(e.Tags) == 0 {
		return nil
	}
	return enc.AddObject("tags", tagCounts(e.Tags))
}

type tagCounts map[string]int

func (t tagCounts) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		enc.AddInt(name, t[name])
	}
	return nil
}

// NewStructuralError builds a StructuralError for a fragment-contract
// violation found outside root location.
func NewStructuralError(module types.ModuleID, reason string, fragment types.Fragment) *StructuralError {
	return &StructuralError{
		Module:  module,
		Reason:  reason,
		Preview: preview(string(fragment)),
	}
}
