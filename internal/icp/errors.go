package icp

import (
	"errors"
	"fmt"
	"strings"
)

// InsufficientDataError aborts a discovery run before any analysis. It
// carries the specific readiness reasons; no partial profile is ever
// written for an aborted run.
type InsufficientDataError struct {
	WorkspaceID string
	Reasons     []string
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("icp: insufficient data for workspace %s: %s",
		e.WorkspaceID, strings.Join(e.Reasons, "; "))
}

// IsInsufficientData reports whether err is (or wraps) an
// InsufficientDataError.
func IsInsufficientData(err error) bool {
	var ide *InsufficientDataError
	return errors.As(err, &ide)
}

// PersistenceError wraps a failure to write the final profile. The
// analytical result is still returned alongside it so the caller may
// retry the write without re-running analysis.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return "icp: persist profile: " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
