package identity

import (
	"sort"
	"strings"

	"semcheck/internal/snapshot"
)

// Path is one import path that names an item.
type Path struct {
	Segments []string
	// Hidden is set when a module, import or the item along the way is
	// hidden from the public API.
	Hidden bool
}

func (p Path) String() string { return strings.Join(p.Segments, "::") }

// edge is one name a module exposes.
type edge struct {
	name   string
	target *snapshot.Item
	hidden bool
}

// index is the reachability map of one snapshot.
type index struct {
	snap   *snapshot.Snapshot
	paths  map[snapshot.ID][]Path
	byPath map[string][]pathEntry
	names  map[snapshot.ID]Nameability
}

type pathEntry struct {
	item   *snapshot.Item
	hidden bool
}

func pathKey(ns, path string) string { return ns + "|" + path }

func newIndex(s *snapshot.Snapshot) *index {
	ix := &index{
		snap:   s,
		paths:  make(map[snapshot.ID][]Path),
		byPath: make(map[string][]pathEntry),
		names:  make(map[snapshot.ID]Nameability, s.Len()),
	}

	root := s.RootModule()
	ix.record(root, Path{Segments: []string{s.Crate}})
	ix.walk(root, []string{s.Crate}, false, map[snapshot.ID]bool{root.ID: true})

	for id, paths := range ix.paths {
		sort.SliceStable(paths, func(i, j int) bool {
			if paths[i].Hidden != paths[j].Hidden {
				return !paths[i].Hidden
			}
			if len(paths[i].Segments) != len(paths[j].Segments) {
				return len(paths[i].Segments) < len(paths[j].Segments)
			}
			return paths[i].String() < paths[j].String()
		})
		ix.paths[id] = paths
	}

	for _, it := range s.Items {
		ix.nameability(it.ID, map[snapshot.ID]bool{})
	}
	return ix
}

func (ix *index) record(it *snapshot.Item, p Path) {
	for _, existing := range ix.paths[it.ID] {
		if existing.Hidden == p.Hidden && existing.String() == p.String() {
			return
		}
	}
	ix.paths[it.ID] = append(ix.paths[it.ID], p)
	key := pathKey(it.Kind.Namespace(), p.String())
	ix.byPath[key] = append(ix.byPath[key], pathEntry{item: it, hidden: p.Hidden})
}

// walk enumerates paths depth first. stack holds the modules on the current
// path; a module already on it is not entered again, so cyclic re-exports
// only contribute the leaf items they wrap. Every alias of a module is
// walked, so each of its paths is recorded.
func (ix *index) walk(mod *snapshot.Item, prefix []string, hidden bool, stack map[snapshot.ID]bool) {
	for _, e := range ix.edges(mod) {
		segs := make([]string, len(prefix)+1)
		copy(segs, prefix)
		segs[len(prefix)] = e.name
		h := hidden || e.hidden
		ix.record(e.target, Path{Segments: segs, Hidden: h})

		if e.target.Kind == snapshot.KindModule && !stack[e.target.ID] {
			stack[e.target.ID] = true
			ix.walk(e.target, segs, h, stack)
			delete(stack, e.target.ID)
		}
	}
}

// edges returns the public names a module exposes. Explicit names shadow
// names brought in by globs.
func (ix *index) edges(mod *snapshot.Item) []edge {
	return ix.globEdges(mod, map[snapshot.ID]bool{})
}

func (ix *index) globEdges(mod *snapshot.Item, visited map[snapshot.ID]bool) []edge {
	visited[mod.ID] = true

	var out []edge
	seen := make(map[string]bool)
	add := func(e edge) {
		key := e.target.Kind.Namespace() + "|" + e.name
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, e)
	}

	for _, c := range ix.snap.Children(mod) {
		if c.Kind.Importable() && c.IsPublic() {
			add(edge{name: c.Name, target: c, hidden: c.Hidden()})
		}
	}
	for _, imp := range mod.Imports {
		if imp.Glob || imp.Visibility != snapshot.Public {
			continue
		}
		target, ok := ix.snap.Item(imp.Target)
		if !ok || !target.IsPublic() || !target.Kind.Importable() {
			continue
		}
		name := imp.Name
		if name == "" {
			name = target.Name
		}
		add(edge{name: name, target: target, hidden: imp.Hidden || target.Hidden()})
	}

	for _, imp := range mod.Imports {
		if !imp.Glob || imp.Visibility != snapshot.Public {
			continue
		}
		target, ok := ix.snap.Item(imp.Target)
		if !ok || target.Kind != snapshot.KindModule || visited[target.ID] {
			continue
		}
		for _, e := range ix.globEdges(target, visited) {
			e.hidden = e.hidden || imp.Hidden
			add(e)
		}
	}
	return out
}

// nameability computes and memoizes how an item can be named downstream.
func (ix *index) nameability(id snapshot.ID, inProgress map[snapshot.ID]bool) Nameability {
	if n, ok := ix.names[id]; ok {
		return n
	}
	it, ok := ix.snap.Item(id)
	if !ok {
		return Nameable
	}
	if inProgress[id] {
		return Unnameable
	}
	inProgress[id] = true
	defer delete(inProgress, id)

	var n Nameability
	switch {
	case it.Kind.Importable():
		n = Unnameable
		for _, p := range ix.paths[id] {
			if !p.Hidden {
				n = Nameable
				break
			}
			n = HiddenOnly
		}
	case it.Kind == snapshot.KindImpl:
		n = own(it, true)
		if it.Impl != nil {
			n = minName(n, ix.nameability(it.Impl.For, inProgress))
			if it.Impl.TraitID != "" {
				n = minName(n, ix.nameability(it.Impl.TraitID, inProgress))
			}
		}
	default:
		parent, ok := ix.snap.Item(it.Parent)
		if !ok {
			n = Unnameable
			break
		}
		// Variants and trait items take the visibility of their owner.
		inherits := it.Kind == snapshot.KindVariant || parent.Kind == snapshot.KindTrait
		n = minName(own(it, inherits), ix.nameability(parent.ID, inProgress))
	}
	ix.names[id] = n
	return n
}

func own(it *snapshot.Item, inheritsVisibility bool) Nameability {
	if !inheritsVisibility && !it.IsPublic() {
		return Unnameable
	}
	if it.Hidden() {
		return HiddenOnly
	}
	return Nameable
}

func minName(a, b Nameability) Nameability {
	if a > b {
		return a
	}
	return b
}
