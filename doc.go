// Package objlookup measures how long the Windows NT object manager takes to
// resolve names. It builds namespace topologies under \BaseNamedObjects
// (long names, deep directory chains, symbolic link chains, shadow
// directories and directories whose name index has been crowded into a
// single hash bucket) and times repeated opens against them.
//
// # Backends
//
// The nt backend issues real ntdll.dll system calls and only works on
// Windows. The mem backend emulates the object manager in-process and is
// meant for tests and development.
//
//	cfg := objlookup.Config{Backend: objlookup.BackendMemory}
//	if err := cfg.Validate(); err != nil {
//	    return err
//	}
//	ns, err := objlookup.OpenNamespace(cfg, logger)
//	if err != nil {
//	    return err
//	}
//	defer ns.Close()
//
// Scenarios live in internal/scenario and are driven by cmd/objlookup.
package objlookup
