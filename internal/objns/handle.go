package objns

// Raw is the backend value a Handle owns, such as a Windows HANDLE.
type Raw uintptr

// Owner is implemented by backends that hand out handles.
type Owner interface {
	ReleaseHandle(raw Raw) error
	QueryHandleName(raw Raw) (string, error)
}

// Handle exclusively owns one object-manager reference. Handles are passed by
// pointer and must not be copied by value; use Move to transfer ownership.
// A nil *Handle means "no handle" wherever a root or shadow is optional.
type Handle struct {
	owner Owner
	raw   Raw
}

// NewHandle takes ownership of raw on behalf of owner.
func NewHandle(owner Owner, raw Raw) *Handle {
	return &Handle{owner: owner, raw: raw}
}

// Raw returns the owned value, or zero for a nil or released handle.
func (h *Handle) Raw() Raw {
	if h == nil {
		return 0
	}
	return h.raw
}

// Owner returns the backend that issued h.
func (h *Handle) Owner() Owner {
	if h == nil {
		return nil
	}
	return h.owner
}

// Valid reports whether h still owns a value.
func (h *Handle) Valid() bool {
	return h != nil && h.raw != 0 && h.owner != nil
}

// Move transfers ownership to a new Handle and empties h.
func (h *Handle) Move() *Handle {
	if h == nil {
		return nil
	}
	moved := &Handle{owner: h.owner, raw: h.raw}
	h.owner = nil
	h.raw = 0
	return moved
}

// Close releases the owned value exactly once. Closing an empty handle is a
// no-op.
func (h *Handle) Close() error {
	if !h.Valid() {
		return nil
	}
	owner, raw := h.owner, h.raw
	h.owner = nil
	h.raw = 0
	return owner.ReleaseHandle(raw)
}

// Name returns the fully resolved namespace path of the referenced object.
func (h *Handle) Name() (string, error) {
	if !h.Valid() {
		return "", &LookupError{Op: OpQueryName, Status: StatusInvalidHandle}
	}
	return h.owner.QueryHandleName(h.raw)
}
