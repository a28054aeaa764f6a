// Package scenario builds namespace topologies and times lookups against
// them. Each scenario is identified by a small integer and takes positional
// integer parameters with defaults.
package scenario

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"pkt.systems/objlookup/internal/objns"
)

// ErrUnknownScenario is returned for ids outside the registry.
var ErrUnknownScenario = errors.New("scenario: unknown scenario")

// Param describes one positional integer parameter. A zero Max leaves the
// value unbounded above.
type Param struct {
	Name        string
	Default     int
	Min         int
	Max         int
	Description string
}

// Definition is one registered scenario.
type Definition struct {
	ID     int
	Name   string
	Title  string
	Params []Param

	run func(ctx context.Context, s *session, args Args) error
}

var registry = map[int]Definition{}

func register(def Definition) {
	if _, exists := registry[def.ID]; exists {
		panic(fmt.Sprintf("scenario: duplicate id %d", def.ID))
	}
	registry[def.ID] = def
}

// All returns every scenario ordered by id.
func All() []Definition {
	defs := make([]Definition, 0, len(registry))
	for _, def := range registry {
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].ID < defs[j].ID })
	return defs
}

// Lookup returns the scenario registered under id.
func Lookup(id int) (Definition, bool) {
	def, ok := registry[id]
	return def, ok
}

// WriteHelp prints the scenario menu.
func WriteHelp(w io.Writer) error {
	if _, err := fmt.Fprintln(w, "Specify test:"); err != nil {
		return err
	}
	for _, def := range All() {
		if _, err := fmt.Fprintf(w, "%d = %s\n", def.ID, def.Title); err != nil {
			return err
		}
	}
	return nil
}

const (
	paramIterations     = "iterations"
	paramMaxLength      = "max_length"
	paramStep           = "step"
	paramDirCount       = "dir_count"
	paramInterval       = "interval"
	paramSymlinkCount   = "symlink_count"
	paramCollisionCount = "collision_count"
)

// maxDepth keeps a chain of single-letter directories below the name limit.
const maxDepth = objns.MaxNameLength / 2

func iterations(def int) Param {
	return Param{Name: paramIterations, Default: def, Min: 1, Description: "opens per timed sample"}
}

func dirCount(def int) Param {
	return Param{Name: paramDirCount, Default: def, Max: maxDepth, Description: "nesting depth of the directory chain"}
}

func interval(def int) Param {
	return Param{Name: paramInterval, Default: def, Min: 1, Description: "insertions or levels between samples"}
}

func collisionCount(def int) Param {
	return Param{Name: paramCollisionCount, Default: def, Max: objns.MaxNameLength, Description: "colliding names inserted into one directory"}
}

func init() {
	register(Definition{
		ID: 1, Name: "simple-open", Title: "Simple open.",
		Params: []Param{iterations(1000)},
		run:    simpleOpen,
	})
	register(Definition{
		ID: 2, Name: "name-length", Title: "Incrementing length name string.",
		Params: []Param{
			iterations(1000),
			{Name: paramMaxLength, Default: 32000, Max: objns.MaxNameLength, Description: "longest suffix appended to the event name"},
			{Name: paramStep, Default: 500, Min: 1, Max: objns.MaxNameLength, Description: "suffix growth per sample"},
		},
		run: nameLength,
	})
	register(Definition{
		ID: 3, Name: "nested-directories", Title: "Recursive directories.",
		Params: []Param{iterations(1000), dirCount(16000), interval(500)},
		run:    nestedDirectories,
	})
	register(Definition{
		ID: 4, Name: "symlink-chain", Title: "Recursive symlinks.",
		Params: []Param{
			iterations(10),
			dirCount(16000),
			{Name: paramSymlinkCount, Default: 63, Min: 1, Description: "links traversed before reaching the event"},
		},
		run: symlinkChain,
	})
	register(Definition{
		ID: 5, Name: "name-collisions", Title: "Name collisions.",
		Params: []Param{iterations(1000), collisionCount(32000), interval(500)},
		run:    nameCollisions,
	})
	register(Definition{
		ID: 6, Name: "collision-insert", Title: "Collision insertion time.",
		Params: []Param{collisionCount(32000)},
		run:    collisionInsert,
	})
	register(Definition{
		ID: 7, Name: "shadow-directories", Title: "Shadow directories.",
		Params: []Param{iterations(1000), dirCount(16000), interval(500)},
		run:    shadowDirectories,
	})
	register(Definition{
		ID: 8, Name: "full", Title: "Full test.",
		Params: []Param{
			iterations(1),
			dirCount(16000),
			{Name: paramSymlinkCount, Default: 1, Description: "links traversed before reaching the event"},
			collisionCount(16000),
		},
		run: fullTest,
	})
}
