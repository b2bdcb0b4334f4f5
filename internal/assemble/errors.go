// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package assemble

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pdiddy/landreport/pkg/types"
)

var (
	// ErrAssembly is matched by every AssemblyError.
	ErrAssembly = errors.New("assembly failed")

	// ErrCriticalKPIMissing means at least one critical KPI was absent.
	ErrCriticalKPIMissing = errors.New("critical KPI missing")

	// ErrFingerprintMismatch means a fragment was rendered from data that
	// differs from the data currently on record.
	ErrFingerprintMismatch = errors.New("fragment fingerprint does not match module data")
)

// AssemblyError is fatal for the current request. Err carries the cause:
// types.ErrNotFound, a *kpi.StructuralError, ErrFingerprintMismatch,
// ErrCriticalKPIMissing, or a collaborator error.
type AssemblyError struct {
	ReportType types.ReportTypeID
	ContextID  string
	Module     types.ModuleID
	Op         string
	Err        error
}

func (e *AssemblyError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "assembling %s for %s", e.ReportType, e.ContextID)
	if e.Module != "" {
		fmt.Fprintf(&b, ": module %s", e.Module)
	}
	if e.Op != "" {
		fmt.Fprintf(&b, ": %s", e.Op)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap exposes the cause to errors.Is and errors.As.
func (e *AssemblyError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrAssembly) match any AssemblyError.
func (e *AssemblyError) Is(target error) bool {
	return target == ErrAssembly
}

// BlockingError returns the AssemblyError behind a failed result, or nil
// when the result was not blocked.
func BlockingError(res *types.AssemblyResult) error {
	if res == nil || !res.Failed() {
		return nil
	}
	return &AssemblyError{
		ReportType: res.ReportType,
		ContextID:  res.ContextID,
		Op:         "completeness gate",
		Err:        fmt.Errorf("%w: %s", ErrCriticalKPIMissing, strings.Join(res.CriticalMissing, ", ")),
	}
}
