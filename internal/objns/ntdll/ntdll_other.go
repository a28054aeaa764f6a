//go:build !windows

// Package ntdll implements objns.Namespace over the native object manager
// system calls exported by ntdll.dll. It is only functional on Windows.
package ntdll

import (
	"fmt"
	"runtime"

	"pkt.systems/pslog"

	"pkt.systems/objlookup/internal/objns"
)

// Namespace is unavailable on this platform.
type Namespace struct {
	objns.Namespace
}

// New reports objns.ErrBackendUnavailable.
func New(pslog.Logger) (*Namespace, error) {
	return nil, fmt.Errorf("ntdll: %s/%s: %w", runtime.GOOS, runtime.GOARCH, objns.ErrBackendUnavailable)
}
