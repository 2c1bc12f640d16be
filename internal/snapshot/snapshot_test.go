package snapshot

import (
	"strings"
	"testing"
)

func item(id, parent string, kind Kind, children ...string) *Item {
	it := &Item{ID: ID(id), Name: id, Kind: kind, Visibility: Public, Parent: ID(parent)}
	for _, c := range children {
		it.Children = append(it.Children, ID(c))
	}
	return it
}

func TestIndexValidation(t *testing.T) {
	tests := []struct {
		name    string
		snap    Snapshot
		wantErr string
	}{
		{
			name: "valid",
			snap: Snapshot{Root: "k", Items: []*Item{
				item("k", "", KindModule, "k::S"),
				item("k::S", "k", KindStruct),
			}},
		},
		{
			name:    "missing root",
			snap:    Snapshot{Root: "k", Items: []*Item{item("x", "", KindModule)}},
			wantErr: "root module",
		},
		{
			name:    "root not a module",
			snap:    Snapshot{Root: "k", Items: []*Item{item("k", "", KindStruct)}},
			wantErr: "not a module",
		},
		{
			name: "duplicate id",
			snap: Snapshot{Root: "k", Items: []*Item{
				item("k", "", KindModule), item("k", "", KindModule),
			}},
			wantErr: "duplicate",
		},
		{
			name:    "empty id",
			snap:    Snapshot{Root: "k", Items: []*Item{item("k", "", KindModule), item("", "k", KindStruct)}},
			wantErr: "no id",
		},
		{
			name:    "dangling child",
			snap:    Snapshot{Root: "k", Items: []*Item{item("k", "", KindModule, "k::gone")}},
			wantErr: "child",
		},
		{
			name:    "dangling parent",
			snap:    Snapshot{Root: "k", Items: []*Item{item("k", "", KindModule), item("k::S", "k::m", KindStruct)}},
			wantErr: "parent",
		},
		{
			name:    "impl without payload",
			snap:    Snapshot{Root: "k", Items: []*Item{item("k", "", KindModule), item("k::i", "k", KindImpl)}},
			wantErr: "no impl payload",
		},
		{
			name:    "null item",
			snap:    Snapshot{Root: "k", Items: []*Item{item("k", "", KindModule), nil}},
			wantErr: "null",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.snap.Index()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Index() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Index() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestSnapshotLookups(t *testing.T) {
	implB := item("k::S::impl#2", "k", KindImpl)
	implB.Impl = &Impl{For: "k::S", Trait: "Debug"}
	implA := item("k::S::impl#1", "k", KindImpl)
	implA.Impl = &Impl{For: "k::S"}

	s := &Snapshot{Root: "k", Items: []*Item{
		item("k", "", KindModule, "k::m", "k::S::impl#2", "k::S::impl#1"),
		item("k::m", "k", KindModule, "k::m::S"),
		item("k::m::S", "k::m", KindStruct, "k::m::S::f"),
		item("k::m::S::f", "k::m::S", KindField),
		item("k::S", "k", KindStruct),
		implB, implA,
	}}
	s.Items[0].Children = append(s.Items[0].Children, "k::S")
	if err := s.Index(); err != nil {
		t.Fatal(err)
	}

	if got := s.RootModule().ID; got != "k" {
		t.Errorf("RootModule() = %q, want k", got)
	}

	impls := s.Impls("k::S")
	if len(impls) != 2 || impls[0].ID != "k::S::impl#1" || impls[1].ID != "k::S::impl#2" {
		t.Errorf("Impls() not sorted by id: %v", impls)
	}
	if !impls[0].Impl.Inherent() || impls[1].Impl.Inherent() {
		t.Error("Inherent() mismatch")
	}

	anc := s.Ancestors("k::m::S::f")
	if len(anc) != 3 || anc[0].ID != "k::m::S" || anc[2].ID != "k" {
		t.Errorf("Ancestors() = %v", anc)
	}

	if _, ok := s.Child(s.RootModule(), "k::m", KindModule); !ok {
		t.Error("Child() did not find module")
	}
	if _, ok := s.Child(s.RootModule(), "k::m", KindStruct); ok {
		t.Error("Child() matched wrong kind")
	}
	if got := len(s.ChildrenOfKind(s.RootModule(), KindImpl)); got != 2 {
		t.Errorf("ChildrenOfKind(impl) = %d, want 2", got)
	}
}

func TestAncestorsCycle(t *testing.T) {
	s := &Snapshot{Root: "k", Items: []*Item{
		item("k", "", KindModule),
		item("a", "b", KindModule),
		item("b", "a", KindModule),
	}}
	if err := s.Index(); err != nil {
		t.Fatal(err)
	}
	if got := len(s.Ancestors("a")); got != 1 {
		t.Errorf("Ancestors() on a parent cycle = %d items, want 1", got)
	}
}

func TestKindHelpers(t *testing.T) {
	if KindTupleStruct.Family() != KindUnitStruct.Family() {
		t.Error("struct kinds should share a family")
	}
	if KindFunction.Namespace() != "value" || KindMacro.Namespace() != "macro" || KindTrait.Namespace() != "type" {
		t.Error("Namespace() mismatch")
	}
	if KindField.Importable() || KindImpl.Importable() || !KindConstant.Importable() {
		t.Error("Importable() mismatch")
	}
}

func TestItemHidden(t *testing.T) {
	it := &Item{Attrs: Attrs{Hidden: true}}
	if !it.Hidden() {
		t.Error("hidden item should be hidden")
	}
	it.Attrs.Deprecated = &Note{}
	if it.Hidden() {
		t.Error("hidden deprecated item should stay public API")
	}
}
