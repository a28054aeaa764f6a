package memory

// bucket hashes name the way the object manager does: each character is
// upcased and folded into the running value with h += (h >> 1) + c. NUL
// characters contribute nothing, so names that differ only in leading NULs
// land in the same chain.
func (n *Namespace) bucket(name string) int {
	var h uint32
	for _, r := range name {
		c := uint32(r)
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		h += (h >> 1) + c
	}
	return int(h % uint32(n.cfg.Buckets))
}

// findEntry scans dir's chain newest first, counting each comparison.
func (n *Namespace) findEntry(dir *object, name string) *object {
	chain := dir.dir.buckets[n.bucket(name)]
	for i := len(chain) - 1; i >= 0; i-- {
		n.probes++
		if chain[i].name == name {
			return chain[i]
		}
	}
	return nil
}

// lookupChild consults dir and then, on a miss, its shadow directory.
func (n *Namespace) lookupChild(dir *object, name string) *object {
	if obj := n.findEntry(dir, name); obj != nil {
		return obj
	}
	if shadow := dir.dir.shadow; shadow != nil {
		return n.findEntry(shadow, name)
	}
	return nil
}

func (n *Namespace) insert(dir, obj *object) {
	idx := n.bucket(obj.name)
	dir.dir.buckets[idx] = append(dir.dir.buckets[idx], obj)
	dir.dir.entries++
	obj.parent = dir
	obj.linked = true
}

func (n *Namespace) unlink(obj *object) {
	dir := obj.parent
	idx := n.bucket(obj.name)
	chain := dir.dir.buckets[idx]
	for i := len(chain) - 1; i >= 0; i-- {
		if chain[i] != obj {
			continue
		}
		copy(chain[i:], chain[i+1:])
		chain[len(chain)-1] = nil
		dir.dir.buckets[idx] = chain[:len(chain)-1]
		dir.dir.entries--
		break
	}
	obj.linked = false
}
