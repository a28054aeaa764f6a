package memory

import (
	"errors"
	"testing"

	"pkt.systems/objlookup/internal/objns"
)

const base = DefaultBaseDirectory

func mustClose(t *testing.T, h *objns.Handle) {
	t.Helper()
	if err := h.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func expectCreationStatus(t *testing.T, err error, want objns.Status) {
	t.Helper()
	var creationErr *objns.CreationError
	if !errors.As(err, &creationErr) {
		t.Fatalf("expected CreationError, got %v", err)
	}
	if creationErr.Status != want {
		t.Fatalf("expected %s, got %s", want, creationErr.Status)
	}
}

func expectLookupStatus(t *testing.T, err error, want objns.Status) {
	t.Helper()
	var lookupErr *objns.LookupError
	if !errors.As(err, &lookupErr) {
		t.Fatalf("expected LookupError, got %v", err)
	}
	if lookupErr.Status != want {
		t.Fatalf("expected %s, got %s", want, lookupErr.Status)
	}
}

func TestCreateThenOpenDirectoryRoundTripsName(t *testing.T) {
	ns := New()
	defer ns.Close()

	path := objns.Join(base, "RoundTrip")
	dir, err := ns.CreateDirectory(path, nil, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer mustClose(t, dir)
	opened, err := ns.OpenDirectory(path, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer mustClose(t, opened)
	name, err := opened.Name()
	if err != nil {
		t.Fatalf("name: %v", err)
	}
	if name != path {
		t.Fatalf("name=%q want %q", name, path)
	}

	child, err := ns.CreateDirectory("Child", dir, nil)
	if err != nil {
		t.Fatalf("create child: %v", err)
	}
	defer mustClose(t, child)
	if name, _ := child.Name(); name != objns.Join(path, "Child") {
		t.Fatalf("relative child name=%q", name)
	}
	baseDir, err := ns.OpenDirectory(base, nil)
	if err != nil {
		t.Fatalf("open base: %v", err)
	}
	defer mustClose(t, baseDir)
	if name, _ := baseDir.Name(); name != base {
		t.Fatalf("base name=%q", name)
	}
}

func TestCreateExistingNameFails(t *testing.T) {
	ns := New()
	defer ns.Close()

	path := objns.Join(base, "Taken")
	dir, err := ns.CreateDirectory(path, nil, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer mustClose(t, dir)

	_, err = ns.CreateEvent(path, nil)
	expectCreationStatus(t, err, objns.StatusObjectNameCollision)
	_, err = ns.CreateDirectory(path, nil, nil)
	expectCreationStatus(t, err, objns.StatusObjectNameCollision)
	_, err = ns.CreateSymlink("Taken", mustOpenBase(t, ns), `\Anywhere`)
	expectCreationStatus(t, err, objns.StatusObjectNameCollision)
}

func mustOpenBase(t *testing.T, ns *Namespace) *objns.Handle {
	t.Helper()
	h, err := ns.OpenDirectory(base, nil)
	if err != nil {
		t.Fatalf("open base: %v", err)
	}
	t.Cleanup(func() { _ = h.Close() })
	return h
}

func TestOpenMissingFails(t *testing.T) {
	ns := New()
	defer ns.Close()

	_, err := ns.OpenEvent(objns.Join(base, "NeverCreated"), nil)
	expectLookupStatus(t, err, objns.StatusObjectNameNotFound)
	_, err = ns.OpenEvent(objns.Join(base, "Missing", "X"), nil)
	expectLookupStatus(t, err, objns.StatusObjectPathNotFound)
	_, err = ns.OpenDirectory(objns.Join(base, "NeverCreated"), nil)
	expectLookupStatus(t, err, objns.StatusObjectNameNotFound)

	ev, err := ns.CreateEvent(objns.Join(base, "Ev"), nil)
	if err != nil {
		t.Fatalf("create event: %v", err)
	}
	defer mustClose(t, ev)
	_, err = ns.OpenDirectory(objns.Join(base, "Ev"), nil)
	expectLookupStatus(t, err, objns.StatusObjectTypeMismatch)
	_, err = ns.OpenEvent(objns.Join(base, "Ev", "X"), nil)
	expectLookupStatus(t, err, objns.StatusObjectTypeMismatch)
}

func TestPathSyntax(t *testing.T) {
	ns := New()
	defer ns.Close()
	root := mustOpenBase(t, ns)

	_, err := ns.CreateEvent("Relative", nil)
	expectCreationStatus(t, err, objns.StatusObjectPathSyntaxBad)
	_, err = ns.CreateEvent(`\Absolute`, root)
	expectCreationStatus(t, err, objns.StatusObjectPathSyntaxBad)
	_, err = ns.CreateEvent(base+`\\Double`, nil)
	expectCreationStatus(t, err, objns.StatusObjectNameInvalid)
	_, err = ns.OpenEvent(base+`\`, nil)
	expectLookupStatus(t, err, objns.StatusObjectNameInvalid)
	_, err = ns.CreateDirectory(objns.Separator, nil, nil)
	expectCreationStatus(t, err, objns.StatusObjectNameCollision)
}

func TestNameLengthLimit(t *testing.T) {
	ns := New()
	defer ns.Close()

	long := objns.Join(base, "A"+objns.RepeatName("A", 32000))
	ev, err := ns.CreateEvent(long, nil)
	if err != nil {
		t.Fatalf("create 32000 char name: %v", err)
	}
	defer mustClose(t, ev)
	opened, err := ns.OpenEvent(long, nil)
	if err != nil {
		t.Fatalf("open 32000 char name: %v", err)
	}
	mustClose(t, opened)

	tooLong := objns.Join(base, objns.RepeatName("A", objns.MaxNameLength))
	_, err = ns.CreateEvent(tooLong, nil)
	expectCreationStatus(t, err, objns.StatusObjectNameInvalid)
	_, err = ns.OpenEvent(tooLong, nil)
	expectLookupStatus(t, err, objns.StatusObjectNameInvalid)
}

func TestQueryNameOverflow(t *testing.T) {
	ns := New()
	defer ns.Close()

	outer, err := ns.CreateDirectory(objns.Join(base, objns.RepeatName("O", 20000)), nil, nil)
	if err != nil {
		t.Fatalf("create outer: %v", err)
	}
	defer mustClose(t, outer)
	inner, err := ns.CreateDirectory(objns.RepeatName("I", 13000), outer, nil)
	if err != nil {
		t.Fatalf("create inner: %v", err)
	}
	defer mustClose(t, inner)
	_, err = inner.Name()
	expectLookupStatus(t, err, objns.StatusBufferOverflow)
	status, _ := objns.StatusOf(err)
	if !status.NeedsMoreData() {
		t.Fatalf("expected more-data status, got %s", status)
	}
}

func buildLinkChain(t *testing.T, ns *Namespace, arena *objns.Arena, links int) (*objns.Handle, string) {
	t.Helper()
	dir := arena.Push(mustCreateDir(t, ns, objns.Join(base, "Chain"), nil, nil))
	dirName, err := dir.Name()
	if err != nil {
		t.Fatalf("name: %v", err)
	}
	for i := 0; i < links; i++ {
		link, err := ns.CreateSymlink(objns.Itoa(i), dir, objns.Join(dirName, objns.Itoa(i+1)))
		if err != nil {
			t.Fatalf("create link %d: %v", i, err)
		}
		arena.Push(link)
	}
	return dir, dirName
}

func mustCreateDir(t *testing.T, ns *Namespace, name string, root, shadow *objns.Handle) *objns.Handle {
	t.Helper()
	h, err := ns.CreateDirectory(name, root, shadow)
	if err != nil {
		t.Fatalf("create directory %s: %v", objns.Display(name), err)
	}
	return h
}

func TestSymlinkChainResolves(t *testing.T) {
	ns := New()
	defer ns.Close()
	var arena objns.Arena
	defer arena.Close()

	const links = 63
	dir, dirName := buildLinkChain(t, ns, &arena, links)
	ev, err := ns.CreateEvent(objns.Itoa(links), dir)
	if err != nil {
		t.Fatalf("create target: %v", err)
	}
	arena.Push(ev)
	opened, err := ns.OpenEvent(objns.Join(dirName, "0"), nil)
	if err != nil {
		t.Fatalf("open through chain: %v", err)
	}
	arena.Push(opened)
	opened, err = ns.OpenEvent("0", dir)
	if err != nil {
		t.Fatalf("open through chain relative: %v", err)
	}
	arena.Push(opened)
}

func TestBrokenSymlinkChainFails(t *testing.T) {
	ns := New()
	defer ns.Close()
	var arena objns.Arena
	defer arena.Close()

	const links = 8
	_, dirName := buildLinkChain(t, ns, &arena, links)
	// Nothing named "8" exists, so the last link dangles.
	_, err := ns.OpenEvent(objns.Join(dirName, "0"), nil)
	expectLookupStatus(t, err, objns.StatusObjectNameNotFound)

	broken, err := ns.CreateSymlink(objns.Join(base, "Broken"), nil, objns.Join(base, "Nowhere", "X"))
	if err != nil {
		t.Fatalf("create broken link: %v", err)
	}
	arena.Push(broken)
	_, err = ns.OpenEvent(objns.Join(base, "Broken"), nil)
	expectLookupStatus(t, err, objns.StatusObjectPathNotFound)
	_, err = ns.OpenEvent(objns.Join(base, "Broken", "Deeper"), nil)
	expectLookupStatus(t, err, objns.StatusObjectPathNotFound)

	relative, err := ns.CreateSymlink(objns.Join(base, "Relative"), nil, "NotAbsolute")
	if err != nil {
		t.Fatalf("create relative link: %v", err)
	}
	arena.Push(relative)
	_, err = ns.OpenEvent(objns.Join(base, "Relative"), nil)
	expectLookupStatus(t, err, objns.StatusObjectPathSyntaxBad)
}

func TestReparseLimit(t *testing.T) {
	ns, err := NewWithConfig(Config{MaxReparse: 4})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer ns.Close()
	var arena objns.Arena
	defer arena.Close()

	dir, dirName := buildLinkChain(t, ns, &arena, 5)
	ev, err := ns.CreateEvent("5", dir)
	if err != nil {
		t.Fatalf("create target: %v", err)
	}
	arena.Push(ev)
	_, err = ns.OpenEvent(objns.Join(dirName, "0"), nil)
	expectLookupStatus(t, err, objns.StatusReparsePointNotResolved)
	opened, err := ns.OpenEvent(objns.Join(dirName, "1"), nil)
	if err != nil {
		t.Fatalf("open within limit: %v", err)
	}
	arena.Push(opened)

	loopA, err := ns.CreateSymlink("LoopA", dir, objns.Join(dirName, "LoopB"))
	if err != nil {
		t.Fatalf("create loop: %v", err)
	}
	arena.Push(loopA)
	loopB, err := ns.CreateSymlink("LoopB", dir, objns.Join(dirName, "LoopA"))
	if err != nil {
		t.Fatalf("create loop: %v", err)
	}
	arena.Push(loopB)
	_, err = ns.OpenEvent(objns.Join(dirName, "LoopA"), nil)
	expectLookupStatus(t, err, objns.StatusReparsePointNotResolved)
}

func TestShadowDirectoryFallThrough(t *testing.T) {
	ns := New()
	defer ns.Close()
	var arena objns.Arena
	defer arena.Close()

	shadowName := objns.Join(base, "A")
	shadow := arena.Push(mustCreateDir(t, ns, shadowName, nil, nil))
	arena.Push(mustCreateDir(t, ns, "A", shadow, shadow))
	ev, err := ns.CreateEvent("X", shadow)
	if err != nil {
		t.Fatalf("create X: %v", err)
	}
	arena.Push(ev)

	for depth := 0; depth < 40; depth += 7 {
		path := objns.Join(objns.NestedPath(shadowName, "A", depth), "X")
		opened, err := ns.OpenEvent(path, nil)
		if err != nil {
			t.Fatalf("depth %d: %v", depth, err)
		}
		arena.Push(opened)
	}

	plain := arena.Push(mustCreateDir(t, ns, objns.Join(base, "Plain"), nil, nil))
	arena.Push(mustCreateDir(t, ns, "A", plain, nil))
	_, err = ns.OpenEvent(objns.Join(base, "Plain", "A", "X"), nil)
	expectLookupStatus(t, err, objns.StatusObjectNameNotFound)
	_, err = ns.OpenEvent(objns.Join(base, "Plain", "A", "A", "X"), nil)
	expectLookupStatus(t, err, objns.StatusObjectPathNotFound)
}

func TestShadowMustBeDirectory(t *testing.T) {
	ns := New()
	defer ns.Close()
	ev, err := ns.CreateEvent(objns.Join(base, "Ev"), nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer mustClose(t, ev)
	_, err = ns.CreateDirectory(objns.Join(base, "D"), nil, ev)
	expectCreationStatus(t, err, objns.StatusObjectTypeMismatch)
}

func TestLastCloseRemovesName(t *testing.T) {
	ns := New()
	defer ns.Close()

	path := objns.Join(base, "Transient")
	first, err := ns.CreateEvent(path, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	second, err := ns.OpenEvent(path, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	mustClose(t, first)
	third, err := ns.OpenEvent(path, nil)
	if err != nil {
		t.Fatalf("open while referenced: %v", err)
	}
	mustClose(t, second)
	mustClose(t, third)
	_, err = ns.OpenEvent(path, nil)
	expectLookupStatus(t, err, objns.StatusObjectNameNotFound)
	again, err := ns.CreateEvent(path, nil)
	if err != nil {
		t.Fatalf("recreate: %v", err)
	}
	mustClose(t, again)
	if got := ns.OpenHandles(); got != 0 {
		t.Fatalf("open handles=%d", got)
	}
}

func TestShadowReferenceKeepsShadowAlive(t *testing.T) {
	ns := New()
	defer ns.Close()

	shadowName := objns.Join(base, "S")
	shadow := mustCreateDir(t, ns, shadowName, nil, nil)
	dir := mustCreateDir(t, ns, objns.Join(base, "D"), nil, shadow)
	mustClose(t, shadow)
	opened, err := ns.OpenDirectory(shadowName, nil)
	if err != nil {
		t.Fatalf("shadow released while referenced: %v", err)
	}
	mustClose(t, opened)
	mustClose(t, dir)
	_, err = ns.OpenDirectory(shadowName, nil)
	expectLookupStatus(t, err, objns.StatusObjectNameNotFound)
}

func TestChildOfDeletedDirectoryHasNoName(t *testing.T) {
	ns := New()
	defer ns.Close()

	dir := mustCreateDir(t, ns, objns.Join(base, "Parent"), nil, nil)
	child := mustCreateDir(t, ns, "Child", dir, nil)
	defer mustClose(t, child)
	mustClose(t, dir)
	name, err := child.Name()
	if err != nil {
		t.Fatalf("name: %v", err)
	}
	if name != "" {
		t.Fatalf("orphaned child name=%q", name)
	}
}

func TestForeignAndStaleHandlesRejected(t *testing.T) {
	ns := New()
	defer ns.Close()
	other := New()
	defer other.Close()

	foreign := mustOpenBase(t, other)
	_, err := ns.CreateEvent("X", foreign)
	expectCreationStatus(t, err, objns.StatusInvalidHandle)
	_, err = ns.OpenEvent("X", foreign)
	expectLookupStatus(t, err, objns.StatusInvalidHandle)

	if err := ns.ReleaseHandle(4096); err == nil {
		t.Fatalf("expected stale release to fail")
	}
	if _, err := ns.QueryHandleName(4096); err == nil {
		t.Fatalf("expected stale query to fail")
	}
}

func TestCollisionNamesShareBucket(t *testing.T) {
	ns := New()
	defer ns.Close()
	var arena objns.Arena
	defer arena.Close()

	dir := arena.Push(mustCreateDir(t, ns, objns.Join(base, "A"), nil, nil))
	names := objns.CollisionNames(64)
	for _, name := range names {
		arena.Push(mustCreateDir(t, ns, name, dir, nil))
	}
	load, err := ns.BucketLoad(dir, names[0])
	if err != nil {
		t.Fatalf("bucket load: %v", err)
	}
	if load != len(names) {
		t.Fatalf("bucket load=%d want %d", load, len(names))
	}
	if load, _ := ns.BucketLoad(dir, "B"); load != 0 {
		t.Fatalf("unrelated bucket load=%d", load)
	}
}

// The collision property is checked by the cost curve it produces: reopening
// the first inserted name must get more expensive as colliding entries pile
// up in front of it.
func TestCollisionLookupCostGrows(t *testing.T) {
	ns := New()
	defer ns.Close()
	var arena objns.Arena
	defer arena.Close()

	const count = 400
	dir := arena.Push(mustCreateDir(t, ns, objns.Join(base, "A"), nil, nil))
	probe := objns.CollisionName(count)
	var costs []uint64
	for i := 0; i < count; i++ {
		arena.Push(mustCreateDir(t, ns, objns.CollisionName(count-i), dir, nil))
		if i%50 != 0 {
			continue
		}
		ns.ResetProbes()
		h, err := ns.OpenDirectory(probe, dir)
		if err != nil {
			t.Fatalf("reopen after %d: %v", i, err)
		}
		costs = append(costs, ns.Probes())
		mustClose(t, h)
	}
	for i := 1; i < len(costs); i++ {
		if costs[i] <= costs[i-1] {
			t.Fatalf("lookup cost did not grow: %v", costs)
		}
	}
	if costs[len(costs)-1] < 300 {
		t.Fatalf("expected bucket-proportional cost, got %v", costs)
	}
}

func TestNewWithConfigRejectsRelativeBase(t *testing.T) {
	if _, err := NewWithConfig(Config{BaseDirectory: "BaseNamedObjects"}); err == nil {
		t.Fatal("expected relative base directory to be rejected")
	}
	ns, err := NewWithConfig(Config{BaseDirectory: `\Sessions\1\BaseNamedObjects`})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer ns.Close()
	h, err := ns.OpenDirectory(`\Sessions\1\BaseNamedObjects`, nil)
	if err != nil {
		t.Fatalf("open nested base: %v", err)
	}
	mustClose(t, h)
}

func TestCloseReleasesOutstandingHandles(t *testing.T) {
	ns := New()
	for i := 0; i < 5; i++ {
		if _, err := ns.CreateEvent(objns.Join(base, objns.Itoa(i)), nil); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	if got := ns.OpenHandles(); got != 5 {
		t.Fatalf("open handles=%d", got)
	}
	if err := ns.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if got := ns.OpenHandles(); got != 0 {
		t.Fatalf("open handles after close=%d", got)
	}
	if _, err := ns.OpenEvent(objns.Join(base, "0"), nil); err == nil {
		t.Fatal("expected events to be gone after close")
	}
}
