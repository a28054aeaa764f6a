package objlookup

import (
	"fmt"

	"pkt.systems/pslog"

	"pkt.systems/objlookup/internal/objns"
	"pkt.systems/objlookup/internal/objns/memory"
	"pkt.systems/objlookup/internal/objns/ntdll"
)

// OpenNamespace returns the backend selected by cfg. cfg must have been
// validated.
func OpenNamespace(cfg Config, logger pslog.Logger) (objns.Namespace, error) {
	if logger == nil {
		logger = pslog.NoopLogger()
	}
	switch cfg.Backend {
	case BackendMemory:
		return memory.NewWithConfig(memory.Config{
			BaseDirectory: cfg.BaseDirectory,
			Buckets:       cfg.MemBuckets,
			MaxReparse:    cfg.MemMaxReparse,
			Logger:        logger,
		})
	case BackendNT:
		ns, err := ntdll.New(logger)
		if err != nil {
			return nil, fmt.Errorf("open nt backend: %w", err)
		}
		return ns, nil
	default:
		return nil, fmt.Errorf("config: unsupported backend %q", cfg.Backend)
	}
}
