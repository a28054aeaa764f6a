package memory

import (
	"strings"

	"pkt.systems/objlookup/internal/objns"
)

type resolution struct {
	// parent holds, or would hold, the final component.
	parent *object
	leaf   string
	// obj is nil when the final component does not exist.
	obj *object
}

// resolve walks name from root, or from the namespace root when root is nil.
// A symbolic link in an intermediate position is always substituted; in the
// final position only when followFinal is set. Each substitution restarts
// the walk at the namespace root with the link target plus the unconsumed
// remainder.
func (n *Namespace) resolve(name string, root *object, followFinal bool) (resolution, objns.Status) {
	if objns.NameTooLong(name) {
		return resolution{}, objns.StatusObjectNameInvalid
	}
	cur := n.root
	rest := ""
	switch {
	case root == nil:
		if !strings.HasPrefix(name, objns.Separator) {
			return resolution{}, objns.StatusObjectPathSyntaxBad
		}
		rest = name[len(objns.Separator):]
	case root.kind != kindDirectory:
		return resolution{}, objns.StatusObjectTypeMismatch
	case strings.HasPrefix(name, objns.Separator):
		return resolution{}, objns.StatusObjectPathSyntaxBad
	default:
		cur = root
		rest = name
	}
	if rest == "" {
		return resolution{obj: cur}, objns.StatusSuccess
	}
	reparses := 0
	for {
		comp, remaining, more := strings.Cut(rest, objns.Separator)
		if comp == "" {
			return resolution{}, objns.StatusObjectNameInvalid
		}
		child := n.lookupChild(cur, comp)
		if child == nil {
			if more {
				return resolution{}, objns.StatusObjectPathNotFound
			}
			return resolution{parent: cur, leaf: comp}, objns.StatusSuccess
		}
		if child.kind == kindSymlink && (more || followFinal) {
			reparses++
			if reparses > n.cfg.MaxReparse {
				return resolution{}, objns.StatusReparsePointNotResolved
			}
			target := child.target
			if more {
				target = target + objns.Separator + remaining
			}
			if !strings.HasPrefix(target, objns.Separator) {
				return resolution{}, objns.StatusObjectPathSyntaxBad
			}
			if objns.NameTooLong(target) {
				return resolution{}, objns.StatusObjectNameInvalid
			}
			cur = n.root
			rest = target[len(objns.Separator):]
			if rest == "" {
				return resolution{obj: cur}, objns.StatusSuccess
			}
			continue
		}
		if !more {
			return resolution{parent: cur, leaf: comp, obj: child}, objns.StatusSuccess
		}
		if child.kind != kindDirectory {
			return resolution{}, objns.StatusObjectTypeMismatch
		}
		cur = child
		rest = remaining
	}
}
