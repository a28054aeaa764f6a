package objlookup

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"pkt.systems/objlookup/internal/objns"
	"pkt.systems/objlookup/internal/objns/memory"
)

const (
	// BackendNT selects the ntdll.dll backend.
	BackendNT = "nt"
	// BackendMemory selects the in-process emulation.
	BackendMemory = "mem"

	// DefaultBaseDirectory is where scenarios build their topologies.
	DefaultBaseDirectory = objns.BaseNamedObjects
	// DefaultMemBuckets is the hash chain count of emulated directories.
	DefaultMemBuckets = memory.DefaultBuckets
	// DefaultMemMaxReparse bounds symbolic link substitutions per emulated lookup.
	DefaultMemMaxReparse = memory.DefaultMaxReparse
	// DefaultLogLevel keeps diagnostics off stderr unless asked for.
	DefaultLogLevel = "error"
	// DefaultConfigFileName is the config file searched for when --config is omitted.
	DefaultConfigFileName = "config.yaml"
)

// DefaultBackend returns BackendNT on Windows and BackendMemory elsewhere.
func DefaultBackend() string {
	if runtime.GOOS == "windows" {
		return BackendNT
	}
	return BackendMemory
}

// Config captures the tunables for a benchmark run.
type Config struct {
	Backend       string
	BaseDirectory string
	MemBuckets    int
	MemMaxReparse int
}

// Validate normalises the configuration and fills in defaults.
func (c *Config) Validate() error {
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	switch c.Backend {
	case "":
		c.Backend = DefaultBackend()
	case "ntdll":
		c.Backend = BackendNT
	case "memory":
		c.Backend = BackendMemory
	case BackendNT, BackendMemory:
	default:
		return fmt.Errorf("config: backend must be %q or %q, got %q", BackendNT, BackendMemory, c.Backend)
	}
	c.BaseDirectory = strings.TrimSpace(c.BaseDirectory)
	if c.BaseDirectory == "" {
		c.BaseDirectory = DefaultBaseDirectory
	}
	if !strings.HasPrefix(c.BaseDirectory, objns.Separator) {
		return fmt.Errorf("config: base directory %q must start with %q", c.BaseDirectory, objns.Separator)
	}
	c.BaseDirectory = strings.TrimRight(c.BaseDirectory, objns.Separator)
	if c.BaseDirectory == "" {
		c.BaseDirectory = objns.Separator
	}
	if err := objns.CheckLength(c.BaseDirectory); err != nil {
		return fmt.Errorf("config: base directory: %w", err)
	}
	if c.MemBuckets < 0 {
		return fmt.Errorf("config: mem-buckets must be positive")
	}
	if c.MemBuckets == 0 {
		c.MemBuckets = DefaultMemBuckets
	}
	if c.MemMaxReparse < 0 {
		return fmt.Errorf("config: mem-max-reparse must be positive")
	}
	if c.MemMaxReparse == 0 {
		c.MemMaxReparse = DefaultMemMaxReparse
	}
	return nil
}

// DefaultConfigDir returns the default configuration directory
// ($HOME/.objlookup), overridable with OBJLOOKUP_CONFIG_DIR.
func DefaultConfigDir() (string, error) {
	if override := strings.TrimSpace(os.Getenv("OBJLOOKUP_CONFIG_DIR")); override != "" {
		if filepath.IsAbs(override) {
			return override, nil
		}
		return filepath.Abs(override)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".objlookup"), nil
}
