//go:build windows

// Package ntdll implements objns.Namespace over the native object manager
// system calls exported by ntdll.dll.
package ntdll

import (
	"fmt"
	"runtime"
	"unsafe"

	"golang.org/x/sys/windows"
	"pkt.systems/pslog"

	"pkt.systems/objlookup/internal/objns"
	"pkt.systems/objlookup/internal/svcfields"
)

const (
	objectNameInformation = 1
	notificationEvent     = 0
	// nameInfoSize holds the largest UNICODE_STRING payload plus the
	// OBJECT_NAME_INFORMATION header.
	nameInfoSize = 0xFFFF + 16
)

var (
	modntdll = windows.NewLazySystemDLL("ntdll.dll")

	procNtCreateDirectoryObjectEx  = modntdll.NewProc("NtCreateDirectoryObjectEx")
	procNtOpenDirectoryObject      = modntdll.NewProc("NtOpenDirectoryObject")
	procNtCreateSymbolicLinkObject = modntdll.NewProc("NtCreateSymbolicLinkObject")
	procNtCreateEvent              = modntdll.NewProc("NtCreateEvent")
	procNtOpenEvent                = modntdll.NewProc("NtOpenEvent")
	procNtQueryObject              = modntdll.NewProc("NtQueryObject")
)

// Namespace issues real object manager handles.
type Namespace struct {
	logger pslog.Logger
}

var (
	_ objns.Namespace = (*Namespace)(nil)
	_ objns.Owner     = (*Namespace)(nil)
)

// New resolves the ntdll entry points and returns a Namespace.
func New(logger pslog.Logger) (*Namespace, error) {
	if logger == nil {
		logger = pslog.NoopLogger()
	}
	for _, proc := range []*windows.LazyProc{
		procNtCreateDirectoryObjectEx,
		procNtOpenDirectoryObject,
		procNtCreateSymbolicLinkObject,
		procNtCreateEvent,
		procNtOpenEvent,
		procNtQueryObject,
	} {
		if err := proc.Find(); err != nil {
			return nil, fmt.Errorf("ntdll: %s: %w", proc.Name, err)
		}
	}
	return &Namespace{logger: svcfields.WithSubsystem(logger, "namespace.ntdll")}, nil
}

// unicodeString keeps the UTF-16 backing array reachable for as long as the
// descriptor is in use.
type unicodeString struct {
	us  windows.NTUnicodeString
	buf []uint16
}

func newUnicodeString(s string) (*unicodeString, objns.Status) {
	if objns.NameTooLong(s) {
		return nil, objns.StatusObjectNameInvalid
	}
	u := &unicodeString{buf: objns.EncodeUTF16(s)}
	u.us.Length = uint16(len(u.buf) * 2)
	u.us.MaximumLength = u.us.Length
	if len(u.buf) > 0 {
		u.us.Buffer = &u.buf[0]
	}
	return u, objns.StatusSuccess
}

type objectAttributes struct {
	oa   windows.OBJECT_ATTRIBUTES
	name *unicodeString
}

func (n *Namespace) attributes(name string, root *objns.Handle) (*objectAttributes, objns.Status) {
	rootRaw, status := n.raw(root)
	if status != objns.StatusSuccess {
		return nil, status
	}
	us, status := newUnicodeString(name)
	if status != objns.StatusSuccess {
		return nil, status
	}
	attrs := &objectAttributes{name: us}
	attrs.oa.Length = uint32(unsafe.Sizeof(attrs.oa))
	attrs.oa.RootDirectory = windows.Handle(rootRaw)
	attrs.oa.ObjectName = &us.us
	return attrs, objns.StatusSuccess
}

func (n *Namespace) raw(h *objns.Handle) (objns.Raw, objns.Status) {
	if h == nil {
		return 0, objns.StatusSuccess
	}
	if !h.Valid() || h.Owner() != objns.Owner(n) {
		return 0, objns.StatusInvalidHandle
	}
	return h.Raw(), objns.StatusSuccess
}

func status(r1 uintptr) objns.Status {
	return objns.Status(uint32(r1))
}

// CreateDirectory implements objns.Namespace via NtCreateDirectoryObjectEx.
func (n *Namespace) CreateDirectory(name string, root, shadow *objns.Handle) (*objns.Handle, error) {
	shadowRaw, st := n.raw(shadow)
	if st != objns.StatusSuccess {
		return nil, &objns.CreationError{Op: objns.OpCreateDirectory, Name: name, Status: st}
	}
	attrs, st := n.attributes(name, root)
	if st != objns.StatusSuccess {
		return nil, &objns.CreationError{Op: objns.OpCreateDirectory, Name: name, Status: st}
	}
	var h windows.Handle
	r1, _, _ := procNtCreateDirectoryObjectEx.Call(
		uintptr(unsafe.Pointer(&h)),
		objns.DesiredAccess,
		uintptr(unsafe.Pointer(&attrs.oa)),
		uintptr(shadowRaw),
		0,
	)
	runtime.KeepAlive(attrs)
	if st := status(r1); st.IsError() {
		return nil, &objns.CreationError{Op: objns.OpCreateDirectory, Name: name, Status: st}
	}
	return objns.NewHandle(n, objns.Raw(h)), nil
}

// OpenDirectory implements objns.Namespace via NtOpenDirectoryObject.
func (n *Namespace) OpenDirectory(name string, root *objns.Handle) (*objns.Handle, error) {
	attrs, st := n.attributes(name, root)
	if st != objns.StatusSuccess {
		return nil, &objns.LookupError{Op: objns.OpOpenDirectory, Name: name, Status: st}
	}
	var h windows.Handle
	r1, _, _ := procNtOpenDirectoryObject.Call(
		uintptr(unsafe.Pointer(&h)),
		objns.DesiredAccess,
		uintptr(unsafe.Pointer(&attrs.oa)),
	)
	runtime.KeepAlive(attrs)
	if st := status(r1); st.IsError() {
		return nil, &objns.LookupError{Op: objns.OpOpenDirectory, Name: name, Status: st}
	}
	return objns.NewHandle(n, objns.Raw(h)), nil
}

// CreateSymlink implements objns.Namespace via NtCreateSymbolicLinkObject.
func (n *Namespace) CreateSymlink(name string, root *objns.Handle, target string) (*objns.Handle, error) {
	attrs, st := n.attributes(name, root)
	if st != objns.StatusSuccess {
		return nil, &objns.CreationError{Op: objns.OpCreateSymlink, Name: name, Status: st}
	}
	dest, st := newUnicodeString(target)
	if st != objns.StatusSuccess {
		return nil, &objns.CreationError{Op: objns.OpCreateSymlink, Name: name, Status: st}
	}
	var h windows.Handle
	r1, _, _ := procNtCreateSymbolicLinkObject.Call(
		uintptr(unsafe.Pointer(&h)),
		objns.DesiredAccess,
		uintptr(unsafe.Pointer(&attrs.oa)),
		uintptr(unsafe.Pointer(&dest.us)),
	)
	runtime.KeepAlive(attrs)
	runtime.KeepAlive(dest)
	if st := status(r1); st.IsError() {
		return nil, &objns.CreationError{Op: objns.OpCreateSymlink, Name: name, Status: st}
	}
	return objns.NewHandle(n, objns.Raw(h)), nil
}

// CreateEvent implements objns.Namespace via NtCreateEvent. The event is a
// non-signalled notification event.
func (n *Namespace) CreateEvent(name string, root *objns.Handle) (*objns.Handle, error) {
	attrs, st := n.attributes(name, root)
	if st != objns.StatusSuccess {
		return nil, &objns.CreationError{Op: objns.OpCreateEvent, Name: name, Status: st}
	}
	var h windows.Handle
	r1, _, _ := procNtCreateEvent.Call(
		uintptr(unsafe.Pointer(&h)),
		objns.DesiredAccess,
		uintptr(unsafe.Pointer(&attrs.oa)),
		notificationEvent,
		0,
	)
	runtime.KeepAlive(attrs)
	if st := status(r1); st.IsError() {
		return nil, &objns.CreationError{Op: objns.OpCreateEvent, Name: name, Status: st}
	}
	return objns.NewHandle(n, objns.Raw(h)), nil
}

// OpenEvent implements objns.Namespace via NtOpenEvent.
func (n *Namespace) OpenEvent(name string, root *objns.Handle) (*objns.Handle, error) {
	attrs, st := n.attributes(name, root)
	if st != objns.StatusSuccess {
		return nil, &objns.LookupError{Op: objns.OpOpenEvent, Name: name, Status: st}
	}
	var h windows.Handle
	r1, _, _ := procNtOpenEvent.Call(
		uintptr(unsafe.Pointer(&h)),
		objns.DesiredAccess,
		uintptr(unsafe.Pointer(&attrs.oa)),
	)
	runtime.KeepAlive(attrs)
	if st := status(r1); st.IsError() {
		return nil, &objns.LookupError{Op: objns.OpOpenEvent, Name: name, Status: st}
	}
	return objns.NewHandle(n, objns.Raw(h)), nil
}

// ReleaseHandle implements objns.Owner.
func (n *Namespace) ReleaseHandle(raw objns.Raw) error {
	if err := windows.CloseHandle(windows.Handle(raw)); err != nil {
		n.logger.Debug("namespace.ntdll.close_failed", "handle", uintptr(raw), "error", err)
		return fmt.Errorf("ntdll: close handle %#x: %w", uintptr(raw), err)
	}
	return nil
}

// QueryHandleName implements objns.Owner with NtQueryObject and the
// ObjectNameInformation class. The returned name is decoded from the counted
// buffer, so embedded NULs survive.
func (n *Namespace) QueryHandleName(raw objns.Raw) (string, error) {
	buf := make([]uint64, (nameInfoSize+7)/8)
	var retLen uint32
	r1, _, _ := procNtQueryObject.Call(
		uintptr(raw),
		objectNameInformation,
		uintptr(unsafe.Pointer(&buf[0])),
		uintptr(len(buf)*8),
		uintptr(unsafe.Pointer(&retLen)),
	)
	st := status(r1)
	if st.NeedsMoreData() || st.IsError() {
		return "", &objns.LookupError{Op: objns.OpQueryName, Status: st}
	}
	info := (*windows.NTUnicodeString)(unsafe.Pointer(&buf[0]))
	if info.Length == 0 || info.Buffer == nil {
		return "", nil
	}
	name := objns.DecodeUTF16(unsafe.Slice(info.Buffer, info.Length/2))
	runtime.KeepAlive(buf)
	return name, nil
}

// Close implements objns.Namespace. Handles are released by their owners,
// so there is nothing left to tear down.
func (n *Namespace) Close() error {
	return nil
}
