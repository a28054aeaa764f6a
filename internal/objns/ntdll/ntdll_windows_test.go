//go:build windows

package ntdll

import (
	"errors"
	"testing"

	"github.com/rs/xid"

	"pkt.systems/objlookup/internal/objns"
)

func newNamespace(t *testing.T) *Namespace {
	t.Helper()
	ns, err := New(nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	return ns
}

func skipIfDenied(t *testing.T, err error) {
	t.Helper()
	if status, ok := objns.StatusOf(err); ok && status == objns.StatusAccessDenied {
		t.Skipf("object manager denied access: %v", err)
	}
}

func TestEventRoundTrip(t *testing.T) {
	ns := newNamespace(t)
	base, err := ns.OpenDirectory(`\BaseNamedObjects`, nil)
	if err != nil {
		skipIfDenied(t, err)
		t.Fatalf("open base: %v", err)
	}
	defer base.Close()
	baseName, err := base.Name()
	if err != nil {
		t.Fatalf("base name: %v", err)
	}

	leaf := "objlookup-" + xid.New().String() + "\x00tail"
	ev, err := ns.CreateEvent(leaf, base)
	if err != nil {
		skipIfDenied(t, err)
		t.Fatalf("create event: %v", err)
	}
	defer ev.Close()
	name, err := ev.Name()
	if err != nil {
		t.Fatalf("name: %v", err)
	}
	if want := objns.Join(baseName, leaf); name != want {
		t.Fatalf("name=%s want %s", objns.Display(name), objns.Display(want))
	}
	opened, err := ns.OpenEvent(name, nil)
	if err != nil {
		t.Fatalf("open event: %v", err)
	}
	if err := opened.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	_, err = ns.CreateEvent(leaf, base)
	var creationErr *objns.CreationError
	if !errors.As(err, &creationErr) || creationErr.Status != objns.StatusObjectNameCollision {
		t.Fatalf("expected collision, got %v", err)
	}
}

func TestOpenMissingEvent(t *testing.T) {
	ns := newNamespace(t)
	_, err := ns.OpenEvent(`\BaseNamedObjects\objlookup-missing-`+xid.New().String(), nil)
	var lookupErr *objns.LookupError
	if !errors.As(err, &lookupErr) {
		t.Fatalf("expected LookupError, got %v", err)
	}
	if lookupErr.Status != objns.StatusObjectNameNotFound {
		t.Fatalf("status=%s", lookupErr.Status)
	}
}

func TestForeignRootRejected(t *testing.T) {
	ns := newNamespace(t)
	other := newNamespace(t)
	foreign := objns.NewHandle(other, 4)
	_, err := ns.CreateEvent("X", foreign)
	if status, _ := objns.StatusOf(err); status != objns.StatusInvalidHandle {
		t.Fatalf("expected invalid handle, got %v", err)
	}
	foreign.Move()
}
