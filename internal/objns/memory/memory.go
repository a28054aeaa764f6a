// Package memory emulates the NT object manager namespace in-process. It is
// intended for tests and development on hosts without ntdll.
package memory

import (
	"fmt"
	"strings"
	"sync"

	"pkt.systems/pslog"

	"pkt.systems/objlookup/internal/objns"
	"pkt.systems/objlookup/internal/svcfields"
)

const (
	// DefaultBaseDirectory is the permanent directory created at startup.
	DefaultBaseDirectory = objns.BaseNamedObjects
	// DefaultBuckets matches the hash chain count of an NT directory object.
	DefaultBuckets = 37
	// DefaultMaxReparse bounds symbolic link substitutions per lookup.
	DefaultMaxReparse = 64
)

// Config configures the emulated namespace.
type Config struct {
	BaseDirectory string
	Buckets       int
	MaxReparse    int
	Logger        pslog.Logger
}

type kind uint8

const (
	kindDirectory kind = iota + 1
	kindSymlink
	kindEvent
)

func (k kind) String() string {
	switch k {
	case kindDirectory:
		return "Directory"
	case kindSymlink:
		return "SymbolicLink"
	case kindEvent:
		return "Event"
	}
	return "Unknown"
}

type object struct {
	kind      kind
	name      string
	parent    *object
	linked    bool
	permanent bool
	refs      int
	dir       *directory
	target    string
}

type directory struct {
	buckets [][]*object
	shadow  *object
	entries int
}

// Namespace implements objns.Namespace in memory.
type Namespace struct {
	mu      sync.Mutex
	cfg     Config
	logger  pslog.Logger
	root    *object
	handles map[objns.Raw]*object
	next    objns.Raw
	probes  uint64
}

var (
	_ objns.Namespace = (*Namespace)(nil)
	_ objns.Owner     = (*Namespace)(nil)
)

// New returns an emulated namespace with the default base directory.
func New() *Namespace {
	ns, err := NewWithConfig(Config{})
	if err != nil {
		panic(err)
	}
	return ns
}

// NewWithConfig returns an emulated namespace wired according to cfg. The
// base directory and its ancestors are created as permanent directories.
func NewWithConfig(cfg Config) (*Namespace, error) {
	if cfg.BaseDirectory == "" {
		cfg.BaseDirectory = DefaultBaseDirectory
	}
	if cfg.Buckets <= 0 {
		cfg.Buckets = DefaultBuckets
	}
	if cfg.MaxReparse <= 0 {
		cfg.MaxReparse = DefaultMaxReparse
	}
	if !strings.HasPrefix(cfg.BaseDirectory, objns.Separator) {
		return nil, fmt.Errorf("memory: base directory %q must be absolute", cfg.BaseDirectory)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = pslog.NoopLogger()
	}
	ns := &Namespace{
		cfg:     cfg,
		logger:  svcfields.WithSubsystem(logger, "namespace.memory"),
		handles: make(map[objns.Raw]*object),
	}
	ns.root = ns.newObject(kindDirectory, "", nil)
	ns.root.linked = true
	ns.root.permanent = true
	cur := ns.root
	for _, part := range strings.Split(strings.Trim(cfg.BaseDirectory, objns.Separator), objns.Separator) {
		if part == "" {
			continue
		}
		child := ns.findEntry(cur, part)
		if child == nil {
			child = ns.newObject(kindDirectory, part, cur)
			child.permanent = true
			ns.insert(cur, child)
		}
		cur = child
	}
	ns.probes = 0
	return ns, nil
}

// CreateDirectory implements objns.Namespace.
func (n *Namespace) CreateDirectory(name string, root, shadow *objns.Handle) (*objns.Handle, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	var shadowObj *object
	if shadow != nil {
		obj, status := n.object(shadow)
		if status != objns.StatusSuccess {
			return nil, &objns.CreationError{Op: objns.OpCreateDirectory, Name: name, Status: status}
		}
		if obj.kind != kindDirectory {
			return nil, &objns.CreationError{Op: objns.OpCreateDirectory, Name: name, Status: objns.StatusObjectTypeMismatch}
		}
		shadowObj = obj
	}
	obj, err := n.create(objns.OpCreateDirectory, kindDirectory, name, root)
	if err != nil {
		return nil, err
	}
	if shadowObj != nil {
		shadowObj.refs++
		obj.dir.shadow = shadowObj
	}
	return n.issue(obj), nil
}

// OpenDirectory implements objns.Namespace.
func (n *Namespace) OpenDirectory(name string, root *objns.Handle) (*objns.Handle, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.open(objns.OpOpenDirectory, kindDirectory, name, root)
}

// CreateSymlink implements objns.Namespace. The target is stored verbatim
// and only resolved when a lookup traverses the link.
func (n *Namespace) CreateSymlink(name string, root *objns.Handle, target string) (*objns.Handle, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if objns.NameTooLong(target) {
		return nil, &objns.CreationError{Op: objns.OpCreateSymlink, Name: name, Status: objns.StatusObjectNameInvalid}
	}
	obj, err := n.create(objns.OpCreateSymlink, kindSymlink, name, root)
	if err != nil {
		return nil, err
	}
	obj.target = target
	return n.issue(obj), nil
}

// CreateEvent implements objns.Namespace.
func (n *Namespace) CreateEvent(name string, root *objns.Handle) (*objns.Handle, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	obj, err := n.create(objns.OpCreateEvent, kindEvent, name, root)
	if err != nil {
		return nil, err
	}
	return n.issue(obj), nil
}

// OpenEvent implements objns.Namespace.
func (n *Namespace) OpenEvent(name string, root *objns.Handle) (*objns.Handle, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.open(objns.OpOpenEvent, kindEvent, name, root)
}

// ReleaseHandle implements objns.Owner. The last reference to a temporary
// object removes its name from the namespace.
func (n *Namespace) ReleaseHandle(raw objns.Raw) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	obj, ok := n.handles[raw]
	if !ok {
		return &objns.LookupError{Op: objns.OpClose, Status: objns.StatusInvalidHandle}
	}
	delete(n.handles, raw)
	n.deref(obj)
	return nil
}

// QueryHandleName implements objns.Owner. Objects whose name was removed, or
// whose ancestors were deleted, report an empty name.
func (n *Namespace) QueryHandleName(raw objns.Raw) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	obj, ok := n.handles[raw]
	if !ok {
		return "", &objns.LookupError{Op: objns.OpQueryName, Status: objns.StatusInvalidHandle}
	}
	name := n.fullName(obj)
	if objns.UTF16Len(name) > objns.MaxNameLength {
		return "", &objns.LookupError{Op: objns.OpQueryName, Status: objns.StatusBufferOverflow}
	}
	return name, nil
}

// Close drops every outstanding handle.
func (n *Namespace) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.handles) > 0 {
		n.logger.Debug("namespace.memory.close", "open_handles", len(n.handles))
	}
	for raw, obj := range n.handles {
		delete(n.handles, raw)
		n.deref(obj)
	}
	return nil
}

// Probes returns the number of name comparisons performed by lookups since
// creation or the last ResetProbes.
func (n *Namespace) Probes() uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.probes
}

// ResetProbes zeroes the probe counter.
func (n *Namespace) ResetProbes() {
	n.mu.Lock()
	n.probes = 0
	n.mu.Unlock()
}

// OpenHandles returns the number of handles not yet released.
func (n *Namespace) OpenHandles() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.handles)
}

// BucketLoad returns the number of entries in dir's hash chain that name
// maps to.
func (n *Namespace) BucketLoad(dir *objns.Handle, name string) (int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	obj, status := n.object(dir)
	if status == objns.StatusSuccess && (obj == nil || obj.kind != kindDirectory) {
		status = objns.StatusObjectTypeMismatch
	}
	if status != objns.StatusSuccess {
		return 0, &objns.LookupError{Op: objns.OpOpenDirectory, Name: name, Status: status}
	}
	return len(obj.dir.buckets[n.bucket(name)]), nil
}

func (n *Namespace) newObject(k kind, name string, parent *object) *object {
	obj := &object{kind: k, name: name, parent: parent}
	if k == kindDirectory {
		obj.dir = &directory{buckets: make([][]*object, n.cfg.Buckets)}
	}
	return obj
}

func (n *Namespace) create(op string, k kind, name string, root *objns.Handle) (*object, error) {
	rootObj, status := n.object(root)
	if status != objns.StatusSuccess {
		return nil, &objns.CreationError{Op: op, Name: name, Status: status}
	}
	res, status := n.resolve(name, rootObj, false)
	if status != objns.StatusSuccess {
		return nil, &objns.CreationError{Op: op, Name: name, Status: status}
	}
	if res.obj != nil {
		return nil, &objns.CreationError{Op: op, Name: name, Status: objns.StatusObjectNameCollision}
	}
	obj := n.newObject(k, res.leaf, res.parent)
	n.insert(res.parent, obj)
	return obj, nil
}

func (n *Namespace) open(op string, k kind, name string, root *objns.Handle) (*objns.Handle, error) {
	rootObj, status := n.object(root)
	if status != objns.StatusSuccess {
		return nil, &objns.LookupError{Op: op, Name: name, Status: status}
	}
	res, status := n.resolve(name, rootObj, true)
	if status == objns.StatusSuccess && res.obj == nil {
		status = objns.StatusObjectNameNotFound
	}
	if status == objns.StatusSuccess && res.obj.kind != k {
		status = objns.StatusObjectTypeMismatch
	}
	if status != objns.StatusSuccess {
		return nil, &objns.LookupError{Op: op, Name: name, Status: status}
	}
	return n.issue(res.obj), nil
}

func (n *Namespace) issue(obj *object) *objns.Handle {
	n.next += 4
	obj.refs++
	n.handles[n.next] = obj
	return objns.NewHandle(n, n.next)
}

func (n *Namespace) object(h *objns.Handle) (*object, objns.Status) {
	if h == nil {
		return nil, objns.StatusSuccess
	}
	if h.Owner() != objns.Owner(n) {
		return nil, objns.StatusInvalidHandle
	}
	obj, ok := n.handles[h.Raw()]
	if !ok {
		return nil, objns.StatusInvalidHandle
	}
	return obj, objns.StatusSuccess
}

func (n *Namespace) deref(obj *object) {
	obj.refs--
	if obj.refs > 0 || obj.permanent {
		return
	}
	if obj.linked {
		n.unlink(obj)
	}
	if obj.dir != nil && obj.dir.shadow != nil {
		shadow := obj.dir.shadow
		obj.dir.shadow = nil
		n.deref(shadow)
	}
}

func (n *Namespace) fullName(obj *object) string {
	if obj == n.root {
		return objns.Separator
	}
	var parts []string
	for o := obj; o != n.root; o = o.parent {
		if o == nil || !o.linked {
			return ""
		}
		parts = append(parts, o.name)
	}
	var b strings.Builder
	for i := len(parts) - 1; i >= 0; i-- {
		b.WriteString(objns.Separator)
		b.WriteString(parts[i])
	}
	return b.String()
}
