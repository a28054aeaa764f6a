package objns

import "errors"

// Arena owns the handles of one scenario in creation order and releases them
// in strict reverse order, so a parent directory always outlives the
// children created beneath it.
type Arena struct {
	handles []*Handle
}

// Push transfers ownership of h to the arena and returns it for use as a
// lookup root.
func (a *Arena) Push(h *Handle) *Handle {
	a.handles = append(a.handles, h)
	return h
}

// Len returns the number of handles held.
func (a *Arena) Len() int {
	return len(a.handles)
}

// Close releases every handle, newest first, and empties the arena. All
// handles are released even when some fail; the failures are joined.
func (a *Arena) Close() error {
	var errs []error
	for i := len(a.handles) - 1; i >= 0; i-- {
		if err := a.handles[i].Close(); err != nil {
			errs = append(errs, err)
		}
		a.handles[i] = nil
	}
	a.handles = a.handles[:0]
	return errors.Join(errs...)
}
