// Package identity correlates items between the baseline and current
// snapshot through their public import paths.
package identity

import (
	"sort"

	"semcheck/internal/snapshot"
)

// Status is the fate of a baseline public-API item in the current snapshot.
type Status int

const (
	// Present: some formerly public path still names an item of the same
	// kind family.
	Present Status = iota
	// Hidden: the old paths still resolve, but only through hidden items.
	Hidden
	// Private: the definition still exists but nothing public names it.
	Private
	// Missing: no old path resolves and the definition is gone.
	Missing
)

func (s Status) String() string {
	switch s {
	case Present:
		return "present"
	case Hidden:
		return "hidden"
	case Private:
		return "private"
	default:
		return "missing"
	}
}

// Nameability is how downstream code can refer to an item.
type Nameability int

const (
	Nameable Nameability = iota
	HiddenOnly
	Unnameable
)

func (n Nameability) String() string {
	switch n {
	case Nameable:
		return "nameable"
	case HiddenOnly:
		return "hidden-only"
	default:
		return "unnameable"
	}
}

// Match is the resolution of one baseline item.
type Match struct {
	Status Status
	// Current is the counterpart, nil when Missing.
	Current *snapshot.Item
}

// Resolver is built once per run and is read-only afterwards.
type Resolver struct {
	pair    *snapshot.Pair
	idx     [2]*index
	matches map[snapshot.ID]Match
	added   []*snapshot.Item
}

// New indexes both snapshots and resolves every baseline public-API item.
func New(pair *snapshot.Pair) *Resolver {
	r := &Resolver{
		pair:    pair,
		matches: make(map[snapshot.ID]Match),
	}
	r.idx[snapshot.Baseline] = newIndex(pair.Baseline)
	r.idx[snapshot.Current] = newIndex(pair.Current)

	for _, it := range pair.Baseline.Items {
		if it.Kind.Importable() && r.PublicAPI(snapshot.Baseline, it.ID) {
			r.matches[it.ID] = r.resolve(it)
		}
	}
	r.added = r.findAdded()
	return r
}

// Pair returns the snapshots the resolver was built from.
func (r *Resolver) Pair() *snapshot.Pair { return r.pair }

func (r *Resolver) resolve(it *snapshot.Item) Match {
	base := r.idx[snapshot.Baseline]
	cur := r.idx[snapshot.Current]
	ns := it.Kind.Namespace()

	var visible, hidden []*snapshot.Item
	for _, p := range base.paths[it.ID] {
		if p.Hidden {
			continue
		}
		for _, e := range cur.byPath[pathKey(ns, p.String())] {
			if e.item.Kind.Family() != it.Kind.Family() {
				continue
			}
			if e.hidden {
				hidden = append(hidden, e.item)
			} else {
				visible = append(visible, e.item)
			}
		}
	}

	if c := pick(it.ID, visible); c != nil {
		return Match{Status: Present, Current: c}
	}
	if c := pick(it.ID, hidden); c != nil {
		return Match{Status: Hidden, Current: c}
	}
	if c, ok := r.pair.Current.Item(it.ID); ok && c.Kind.Family() == it.Kind.Family() {
		switch cur.names[c.ID] {
		case HiddenOnly:
			return Match{Status: Hidden, Current: c}
		case Unnameable:
			return Match{Status: Private, Current: c}
		}
	}
	return Match{Status: Missing}
}

// pick prefers the candidate with the same defining location, then the
// smallest ID.
func pick(id snapshot.ID, candidates []*snapshot.Item) *snapshot.Item {
	if len(candidates) == 0 {
		return nil
	}
	best := candidates[0]
	for _, c := range candidates {
		if c.ID == id {
			return c
		}
		if c.ID < best.ID {
			best = c
		}
	}
	return best
}

func (r *Resolver) findAdded() []*snapshot.Item {
	base := r.idx[snapshot.Baseline]
	cur := r.idx[snapshot.Current]

	var out []*snapshot.Item
	for _, it := range r.pair.Current.Items {
		if it.ID == r.pair.Current.Root || !it.Kind.Importable() || cur.names[it.ID] != Nameable {
			continue
		}
		existed := false
		for _, p := range cur.paths[it.ID] {
			if p.Hidden {
				continue
			}
			for _, e := range base.byPath[pathKey(it.Kind.Namespace(), p.String())] {
				if !e.hidden && e.item.Kind.Family() == it.Kind.Family() {
					existed = true
				}
			}
		}
		if !existed {
			out = append(out, it)
		}
	}

	// Items inside an added module are reported through the module.
	addedSet := make(map[snapshot.ID]bool, len(out))
	for _, it := range out {
		addedSet[it.ID] = true
	}
	filtered := out[:0]
	for _, it := range out {
		dominated := false
		for _, a := range r.pair.Current.Ancestors(it.ID) {
			if addedSet[a.ID] {
				dominated = true
				break
			}
		}
		if !dominated {
			filtered = append(filtered, it)
		}
	}
	sort.Slice(filtered, func(i, j int) bool { return filtered[i].ID < filtered[j].ID })
	return filtered
}

// Resolve returns the match for a baseline item. Items that were not public
// API in the baseline report Missing with ok == false.
func (r *Resolver) Resolve(id snapshot.ID) (Match, bool) {
	m, ok := r.matches[id]
	return m, ok
}

// Counterpart returns the present current item for a baseline item.
func (r *Resolver) Counterpart(id snapshot.ID) (*snapshot.Item, bool) {
	m, ok := r.matches[id]
	if !ok || m.Status != Present {
		return nil, false
	}
	return m.Current, true
}

// Added returns current public-API items with no baseline path, excluding
// items nested in another added item.
func (r *Resolver) Added() []*snapshot.Item { return r.added }

// Nameability reports how downstream code can name an item on one side.
// IDs that are not in the snapshot belong to other crates and are nameable.
func (r *Resolver) Nameability(side snapshot.Side, id snapshot.ID) Nameability {
	ix := r.idx[side]
	if n, ok := ix.names[id]; ok {
		return n
	}
	return Nameable
}

// PublicAPI reports whether an item is effectively public on one side.
// Unlike Nameability, unknown IDs are not public API.
func (r *Resolver) PublicAPI(side snapshot.Side, id snapshot.ID) bool {
	if _, ok := r.pair.Get(side).Item(id); !ok {
		return false
	}
	return r.Nameability(side, id) == Nameable
}

// Paths returns all import paths of an item, visible ones first.
func (r *Resolver) Paths(side snapshot.Side, id snapshot.ID) []Path {
	return r.idx[side].paths[id]
}

// PathOf returns the preferred public path of an item, or its ID.
func (r *Resolver) PathOf(side snapshot.Side, id snapshot.ID) string {
	if paths := r.idx[side].paths[id]; len(paths) > 0 {
		return paths[0].String()
	}
	return string(id)
}

// Dominated reports whether a baseline item sits inside an importable
// ancestor that is itself public API and no longer present, so findings
// are reported once for the ancestor.
func (r *Resolver) Dominated(id snapshot.ID) bool {
	_, ok := r.Dominator(id)
	return ok
}

// Dominator returns the nearest dominating ancestor of a baseline item. An
// ancestor dominates only when every visible baseline path of the item runs
// through one of the ancestor's paths; a re-export elsewhere keeps the item
// reportable on its own.
func (r *Resolver) Dominator(id snapshot.ID) (*snapshot.Item, bool) {
	own := visiblePaths(r.idx[snapshot.Baseline].paths[id])
	for _, a := range r.pair.Baseline.Ancestors(id) {
		if !a.Kind.Importable() {
			continue
		}
		m, ok := r.matches[a.ID]
		if !ok {
			continue
		}
		if m.Status == Present {
			return nil, false
		}
		if coveredBy(own, r.idx[snapshot.Baseline].paths[a.ID]) {
			return a, true
		}
	}
	return nil, false
}

// visiblePaths returns the non-hidden paths, or all of them when every path
// is hidden.
func visiblePaths(paths []Path) []Path {
	var out []Path
	for _, p := range paths {
		if !p.Hidden {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return paths
	}
	return out
}

// coveredBy reports whether every path starts with one of the prefixes.
func coveredBy(paths, prefixes []Path) bool {
	for _, p := range paths {
		covered := false
		for _, q := range prefixes {
			if hasPrefix(p, q) {
				covered = true
				break
			}
		}
		if !covered {
			return false
		}
	}
	return true
}

func hasPrefix(p, prefix Path) bool {
	if len(prefix.Segments) >= len(p.Segments) {
		return false
	}
	for i, seg := range prefix.Segments {
		if p.Segments[i] != seg {
			return false
		}
	}
	return true
}
