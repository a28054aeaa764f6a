// Package objns models handles, paths and operations on the NT object
// manager namespace: directory objects, symbolic links and named events.
//
// Backends implement Namespace. Every create returns *CreationError on
// failure and every open or name query returns *LookupError; both carry the
// NTSTATUS reported by the object manager. No operation retries.
package objns

// BaseNamedObjects is the global directory for named kernel objects.
const BaseNamedObjects = `\BaseNamedObjects`

// DesiredAccess is the access mask requested by every operation
// (MAXIMUM_ALLOWED).
const DesiredAccess = 0x02000000

// Namespace is the set of object manager primitives the scenarios compose.
// A nil root resolves name as an absolute path; a non-nil root resolves name
// relative to that directory.
type Namespace interface {
	// CreateDirectory creates a directory object. A non-nil shadow is
	// consulted when a lookup under the new directory misses.
	CreateDirectory(name string, root, shadow *Handle) (*Handle, error)
	// OpenDirectory opens an existing directory object.
	OpenDirectory(name string, root *Handle) (*Handle, error)
	// CreateSymlink creates a symbolic link whose target is resolved lazily
	// at lookup time.
	CreateSymlink(name string, root *Handle, target string) (*Handle, error)
	// CreateEvent creates a named notification event used as a leaf.
	CreateEvent(name string, root *Handle) (*Handle, error)
	// OpenEvent opens a named event, resolving every directory and symbolic
	// link along the path.
	OpenEvent(name string, root *Handle) (*Handle, error)
	// Close releases backend resources. Handles issued earlier must be
	// closed first.
	Close() error
}
