package objns

import (
	"errors"
	"fmt"
)

// Operation names carried by CreationError and LookupError.
const (
	OpCreateDirectory = "create directory"
	OpOpenDirectory   = "open directory"
	OpCreateSymlink   = "create symlink"
	OpCreateEvent     = "create event"
	OpOpenEvent       = "open event"
	OpQueryName       = "query name"
	OpClose           = "close"
)

// ErrBackendUnavailable is returned when a namespace backend cannot run on
// the current platform.
var ErrBackendUnavailable = errors.New("objns: backend unavailable on this platform")

// CreationError reports a failed create call: the name already exists, the
// name was rejected, or access was denied.
type CreationError struct {
	Op     string
	Name   string
	Status Status
}

func (e *CreationError) Error() string {
	return fmt.Sprintf("objns: %s %s: %s", e.Op, Display(e.Name), e.Status)
}

// NTStatus returns the status reported by the object manager.
func (e *CreationError) NTStatus() Status { return e.Status }

// LookupError reports a failed open or name query: a missing object, a
// resolution failure through a directory or symlink chain, or a query
// overflow.
type LookupError struct {
	Op     string
	Name   string
	Status Status
}

func (e *LookupError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("objns: %s: %s", e.Op, e.Status)
	}
	return fmt.Sprintf("objns: %s %s: %s", e.Op, Display(e.Name), e.Status)
}

// NTStatus returns the status reported by the object manager.
func (e *LookupError) NTStatus() Status { return e.Status }

type statusCarrier interface {
	NTStatus() Status
}

// StatusOf extracts the NTSTATUS carried anywhere in err's chain.
func StatusOf(err error) (Status, bool) {
	var carrier statusCarrier
	if errors.As(err, &carrier) {
		return carrier.NTStatus(), true
	}
	return 0, false
}
