package resolution

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidSelection is returned when the kept key is not a member of the cluster
	ErrInvalidSelection = errors.New("invalid selection")
	// ErrClusterNotFound is returned when no open cluster has the requested id
	ErrClusterNotFound = errors.New("cluster not found")
	// ErrPartialResolution flags a resolution whose file moves and catalog
	// update disagree and need manual reconciliation
	ErrPartialResolution = errors.New("partial resolution")
)

// InvalidSelectionError describes a resolve call with a non-member key
type InvalidSelectionError struct {
	ClusterID int64
	Key       string
}

func (e *InvalidSelectionError) Error() string {
	return fmt.Sprintf("%s: %s is not a member of cluster %d", ErrInvalidSelection, e.Key, e.ClusterID)
}

func (e *InvalidSelectionError) Unwrap() error {
	return ErrInvalidSelection
}

// MoveFailure records one file that could not be relocated
type MoveFailure struct {
	Path string
	Err  error
}

// PartialResolutionError lists what was moved and what was not
type PartialResolutionError struct {
	ClusterID int64
	Moved     []string
	Failed    []MoveFailure
	CommitErr error
}

func (e *PartialResolutionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s of cluster %d: %d moved, %d failed", ErrPartialResolution, e.ClusterID, len(e.Moved), len(e.Failed))
	for _, f := range e.Failed {
		fmt.Fprintf(&b, "; %s: %v", f.Path, f.Err)
	}
	if e.CommitErr != nil {
		fmt.Fprintf(&b, "; catalog update failed: %v", e.CommitErr)
	}
	return b.String()
}

func (e *PartialResolutionError) Unwrap() []error {
	errs := []error{ErrPartialResolution}
	if e.CommitErr != nil {
		errs = append(errs, e.CommitErr)
	}
	return errs
}
