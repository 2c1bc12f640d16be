package snapshot

import (
	"fmt"
	"sort"
)

// Snapshot is one version of a library's interface. After Index it is
// read-only and safe to share between goroutines.
type Snapshot struct {
	Crate   string  `json:"crate" yaml:"crate" msgpack:"crate"`
	Version string  `json:"version" yaml:"version" msgpack:"version"`
	Root    ID      `json:"root" yaml:"root" msgpack:"root"`
	Items   []*Item `json:"items" yaml:"items" msgpack:"items"`

	byID  map[ID]*Item
	impls map[ID][]*Item
}

// Pair is the baseline and current snapshot of one run.
type Pair struct {
	Baseline *Snapshot
	Current  *Snapshot
}

// Side selects one snapshot of a Pair.
type Side int

const (
	Baseline Side = iota
	Current
)

func (s Side) String() string {
	if s == Baseline {
		return "baseline"
	}
	return "current"
}

// Get returns the snapshot for a side.
func (p *Pair) Get(side Side) *Snapshot {
	if side == Baseline {
		return p.Baseline
	}
	return p.Current
}

// Index validates the snapshot and builds its lookup tables.
func (s *Snapshot) Index() error {
	s.byID = make(map[ID]*Item, len(s.Items))
	s.impls = make(map[ID][]*Item)

	for i, it := range s.Items {
		if it == nil {
			return fmt.Errorf("item %d is null", i)
		}
		if it.ID == "" {
			return fmt.Errorf("item %d (%s) has no id", i, it.Name)
		}
		if _, dup := s.byID[it.ID]; dup {
			return fmt.Errorf("duplicate item id %q", it.ID)
		}
		s.byID[it.ID] = it
	}

	root, ok := s.byID[s.Root]
	if !ok {
		return fmt.Errorf("root module %q not found", s.Root)
	}
	if root.Kind != KindModule {
		return fmt.Errorf("root %q is a %s, not a module", s.Root, root.Kind)
	}

	for _, it := range s.Items {
		if it.Parent != "" {
			if _, ok := s.byID[it.Parent]; !ok {
				return fmt.Errorf("item %q: parent %q not found", it.ID, it.Parent)
			}
		}
		for _, c := range it.Children {
			if _, ok := s.byID[c]; !ok {
				return fmt.Errorf("item %q: child %q not found", it.ID, c)
			}
		}
		if it.Kind == KindImpl {
			if it.Impl == nil {
				return fmt.Errorf("impl %q has no impl payload", it.ID)
			}
			if _, ok := s.byID[it.Impl.For]; !ok {
				return fmt.Errorf("impl %q: implementing type %q not found", it.ID, it.Impl.For)
			}
			s.impls[it.Impl.For] = append(s.impls[it.Impl.For], it)
		}
	}

	for _, list := range s.impls {
		sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	}
	return nil
}

// Item looks up an item by ID.
func (s *Snapshot) Item(id ID) (*Item, bool) {
	it, ok := s.byID[id]
	return it, ok
}

// RootModule returns the crate root.
func (s *Snapshot) RootModule() *Item {
	return s.byID[s.Root]
}

// Children returns an item's children in declaration order.
func (s *Snapshot) Children(it *Item) []*Item {
	out := make([]*Item, 0, len(it.Children))
	for _, id := range it.Children {
		if c, ok := s.byID[id]; ok {
			out = append(out, c)
		}
	}
	return out
}

// ChildrenOfKind returns the children whose kind is one of kinds.
func (s *Snapshot) ChildrenOfKind(it *Item, kinds ...Kind) []*Item {
	var out []*Item
	for _, c := range s.Children(it) {
		for _, k := range kinds {
			if c.Kind == k {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// Child returns the first child with the given name and one of kinds.
func (s *Snapshot) Child(it *Item, name string, kinds ...Kind) (*Item, bool) {
	for _, c := range s.ChildrenOfKind(it, kinds...) {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// Impls returns the impl blocks for a type, sorted by ID.
func (s *Snapshot) Impls(typeID ID) []*Item {
	return s.impls[typeID]
}

// Ancestors returns the parent chain of an item, nearest first.
func (s *Snapshot) Ancestors(id ID) []*Item {
	var out []*Item
	seen := map[ID]bool{id: true}
	it, ok := s.byID[id]
	for ok && it.Parent != "" && !seen[it.Parent] {
		seen[it.Parent] = true
		it, ok = s.byID[it.Parent]
		if ok {
			out = append(out, it)
		}
	}
	return out
}

// Len returns the number of items.
func (s *Snapshot) Len() int { return len(s.Items) }
