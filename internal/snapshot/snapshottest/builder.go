// Package snapshottest builds snapshots in Go for tests.
package snapshottest

import (
	"fmt"

	"semcheck/internal/snapshot"
)

// Option mutates an item being added.
type Option func(*snapshot.Item)

// Builder assembles one snapshot.
type Builder struct {
	snap  *snapshot.Snapshot
	root  *snapshot.Item
	impls int
}

// New starts a snapshot whose root module is named after the crate.
func New(crate, version string) *Builder {
	root := &snapshot.Item{
		ID:         snapshot.ID(crate),
		Name:       crate,
		Kind:       snapshot.KindModule,
		Visibility: snapshot.Public,
	}
	return &Builder{
		snap: &snapshot.Snapshot{
			Crate:   crate,
			Version: version,
			Root:    root.ID,
			Items:   []*snapshot.Item{root},
		},
		root: root,
	}
}

// Root returns the crate root module.
func (b *Builder) Root() *snapshot.Item { return b.root }

// Add creates a public item named name under parent.
func (b *Builder) Add(parent *snapshot.Item, kind snapshot.Kind, name string, opts ...Option) *snapshot.Item {
	it := &snapshot.Item{
		ID:         snapshot.ID(string(parent.ID) + "::" + name),
		Name:       name,
		Kind:       kind,
		Visibility: snapshot.Public,
		Parent:     parent.ID,
	}
	if kind == snapshot.KindVariant {
		it.Shape = snapshot.ShapeUnit
	}
	for _, opt := range opts {
		opt(it)
	}
	parent.Children = append(parent.Children, it.ID)
	b.snap.Items = append(b.snap.Items, it)
	return it
}

// Module adds a module.
func (b *Builder) Module(parent *snapshot.Item, name string, opts ...Option) *snapshot.Item {
	return b.Add(parent, snapshot.KindModule, name, opts...)
}

// Struct adds a plain struct.
func (b *Builder) Struct(parent *snapshot.Item, name string, opts ...Option) *snapshot.Item {
	return b.Add(parent, snapshot.KindStruct, name, opts...)
}

// Enum adds an enum.
func (b *Builder) Enum(parent *snapshot.Item, name string, opts ...Option) *snapshot.Item {
	return b.Add(parent, snapshot.KindEnum, name, opts...)
}

// Variant adds a unit variant unless a Shape option says otherwise.
func (b *Builder) Variant(enum *snapshot.Item, name string, opts ...Option) *snapshot.Item {
	return b.Add(enum, snapshot.KindVariant, name, opts...)
}

// Field adds a field of type typ.
func (b *Builder) Field(owner *snapshot.Item, name, typ string, opts ...Option) *snapshot.Item {
	return b.Add(owner, snapshot.KindField, name, append([]Option{Typ(typ)}, opts...)...)
}

// Function adds a free function.
func (b *Builder) Function(parent *snapshot.Item, name string, opts ...Option) *snapshot.Item {
	f := b.Add(parent, snapshot.KindFunction, name, opts...)
	if f.Signature == nil {
		f.Signature = &snapshot.Signature{}
	}
	return f
}

// Trait adds a trait.
func (b *Builder) Trait(parent *snapshot.Item, name string, opts ...Option) *snapshot.Item {
	return b.Add(parent, snapshot.KindTrait, name, opts...)
}

// Method adds a method to an impl block or trait.
func (b *Builder) Method(owner *snapshot.Item, name string, opts ...Option) *snapshot.Item {
	m := b.Add(owner, snapshot.KindMethod, name, opts...)
	if m.Signature == nil {
		m.Signature = &snapshot.Signature{Receiver: "&self"}
	}
	return m
}

// Impl adds an impl block for typ in typ's module. trait is empty for an
// inherent impl.
func (b *Builder) Impl(typ *snapshot.Item, trait string, opts ...Option) *snapshot.Item {
	b.impls++
	parent := b.item(typ.Parent)
	it := &snapshot.Item{
		ID:         snapshot.ID(fmt.Sprintf("%s::impl#%d", typ.ID, b.impls)),
		Name:       "",
		Kind:       snapshot.KindImpl,
		Visibility: snapshot.Public,
		Parent:     parent.ID,
		Impl:       &snapshot.Impl{For: typ.ID, Trait: trait},
	}
	for _, opt := range opts {
		opt(it)
	}
	parent.Children = append(parent.Children, it.ID)
	b.snap.Items = append(b.snap.Items, it)
	return it
}

// Reexport adds `pub use target as name` to module.
func (b *Builder) Reexport(module *snapshot.Item, name string, target *snapshot.Item, opts ...func(*snapshot.Import)) {
	imp := snapshot.Import{Name: name, Target: target.ID, Visibility: snapshot.Public}
	for _, opt := range opts {
		opt(&imp)
	}
	module.Imports = append(module.Imports, imp)
}

// Glob adds `pub use target::*` to module.
func (b *Builder) Glob(module *snapshot.Item, target *snapshot.Item, opts ...func(*snapshot.Import)) {
	imp := snapshot.Import{Target: target.ID, Glob: true, Visibility: snapshot.Public}
	for _, opt := range opts {
		opt(&imp)
	}
	module.Imports = append(module.Imports, imp)
}

// HiddenImport marks a re-export hidden.
func HiddenImport(imp *snapshot.Import) { imp.Hidden = true }

// PrivateImport makes a re-export private.
func PrivateImport(imp *snapshot.Import) { imp.Visibility = snapshot.Private }

// Build indexes the snapshot and panics if it is invalid.
func (b *Builder) Build() *snapshot.Snapshot {
	if err := b.snap.Index(); err != nil {
		panic(fmt.Sprintf("snapshottest: %v", err))
	}
	return b.snap
}

// Pair builds both snapshots into a pair.
func Pair(baseline, current *Builder) *snapshot.Pair {
	return &snapshot.Pair{Baseline: baseline.Build(), Current: current.Build()}
}

func (b *Builder) item(id snapshot.ID) *snapshot.Item {
	for _, it := range b.snap.Items {
		if it.ID == id {
			return it
		}
	}
	panic(fmt.Sprintf("snapshottest: no item %q", id))
}

// P builds a parameter.
func P(name, typ string, refs ...*snapshot.Item) snapshot.Param {
	return snapshot.Param{Name: name, Type: T(typ, refs...)}
}

// T builds a type that mentions refs.
func T(repr string, refs ...*snapshot.Item) snapshot.Type {
	t := snapshot.Type{Repr: repr}
	for _, r := range refs {
		t.Refs = append(t.Refs, r.ID)
	}
	return t
}

// G builds a generic parameter.
func G(name string, kind snapshot.GenericKind, bounds ...string) snapshot.GenericParam {
	return snapshot.GenericParam{Name: name, Kind: kind, Bounds: bounds}
}

func Private() Option    { return func(it *snapshot.Item) { it.Visibility = snapshot.Private } }
func Restricted() Option { return func(it *snapshot.Item) { it.Visibility = snapshot.Restricted } }
func Hidden() Option     { return func(it *snapshot.Item) { it.Attrs.Hidden = true } }
func Deprecated(msg string) Option {
	return func(it *snapshot.Item) { it.Attrs.Deprecated = &snapshot.Note{Message: msg} }
}
func MustUse() Option       { return func(it *snapshot.Item) { it.Attrs.MustUse = &snapshot.Note{} } }
func NonExhaustive() Option { return func(it *snapshot.Item) { it.Attrs.NonExhaustive = true } }
func Unsafe() Option        { return func(it *snapshot.Item) { it.Attrs.Unsafe = true } }
func Const() Option         { return func(it *snapshot.Item) { it.Attrs.Const = true } }
func NoMangle() Option      { return func(it *snapshot.Item) { it.Attrs.NoMangle = true } }
func Mutable() Option       { return func(it *snapshot.Item) { it.Mutable = true } }
func HasDefault() Option    { return func(it *snapshot.Item) { it.HasDefault = true } }
func ABI(abi string) Option { return func(it *snapshot.Item) { it.Attrs.ABI = abi } }
func ExportName(name string) Option {
	return func(it *snapshot.Item) { it.Attrs.ExportName = name }
}
func TargetFeature(features ...string) Option {
	return func(it *snapshot.Item) { it.Attrs.TargetFeatures = append(it.Attrs.TargetFeatures, features...) }
}
func Repr(annotations ...string) Option {
	return func(it *snapshot.Item) { it.Attrs.Repr = append(it.Attrs.Repr, annotations...) }
}
func Shape(s snapshot.Shape) Option { return func(it *snapshot.Item) { it.Shape = s } }
func Kind(k snapshot.Kind) Option   { return func(it *snapshot.Item) { it.Kind = k } }
func Discriminant(d string) Option  { return func(it *snapshot.Item) { it.Discriminant = d } }
func Typ(repr string, refs ...*snapshot.Item) Option {
	return func(it *snapshot.Item) {
		t := T(repr, refs...)
		it.Type = &t
	}
}
func Params(params ...snapshot.Param) Option {
	return func(it *snapshot.Item) {
		if it.Signature == nil {
			it.Signature = &snapshot.Signature{}
		}
		it.Signature.Params = params
	}
}
func Receiver(r string) Option {
	return func(it *snapshot.Item) {
		if it.Signature == nil {
			it.Signature = &snapshot.Signature{}
		}
		it.Signature.Receiver = r
	}
}
func Generics(params ...snapshot.GenericParam) Option {
	return func(it *snapshot.Item) { it.Generics = params }
}
func Supertraits(types ...snapshot.Type) Option {
	return func(it *snapshot.Item) { it.Supertraits = types }
}
func TraitID(id snapshot.ID) Option {
	return func(it *snapshot.Item) { it.Impl.TraitID = id }
}
func Synthetic() Option { return func(it *snapshot.Item) { it.Impl.Synthetic = true } }
func At(file string, line int) Option {
	return func(it *snapshot.Item) { it.Span = &snapshot.Span{File: file, Line: line} }
}
