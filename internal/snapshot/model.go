// Package snapshot holds the item/attribute/visibility model of a library's
// public interface and the indexed, read-only Snapshot built from it.
package snapshot

import (
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// ID is an item's defining location, e.g. "krate::inner::Foo". It is stable
// within one snapshot; correlation across snapshots goes through import paths.
type ID string

// Kind is the closed set of item variants.
type Kind string

const (
	KindModule      Kind = "module"
	KindStruct      Kind = "struct"
	KindTupleStruct Kind = "tuple_struct"
	KindUnitStruct  Kind = "unit_struct"
	KindEnum        Kind = "enum"
	KindVariant     Kind = "variant"
	KindUnion       Kind = "union"
	KindField       Kind = "field"
	KindTrait       Kind = "trait"
	KindImpl        Kind = "impl"
	KindFunction    Kind = "function"
	KindMethod      Kind = "method"
	KindAssocType   Kind = "assoc_type"
	KindAssocConst  Kind = "assoc_const"
	KindConstant    Kind = "constant"
	KindStatic      Kind = "static"
	KindMacro       Kind = "macro"
	KindTypeAlias   Kind = "type_alias"
)

// IsStruct reports whether k is one of the struct kinds.
func (k Kind) IsStruct() bool {
	return k == KindStruct || k == KindTupleStruct || k == KindUnitStruct
}

// Family groups kinds that are interchangeable for cross-version matching.
// All struct kinds share the "struct" family.
func (k Kind) Family() string {
	if k.IsStruct() {
		return "struct"
	}
	return string(k)
}

// Namespace is the import namespace a kind lives in.
func (k Kind) Namespace() string {
	switch k {
	case KindFunction, KindConstant, KindStatic:
		return "value"
	case KindMacro:
		return "macro"
	default:
		return "type"
	}
}

// Importable reports whether items of this kind can be named by a use path.
func (k Kind) Importable() bool {
	switch k {
	case KindModule, KindStruct, KindTupleStruct, KindUnitStruct, KindEnum, KindUnion,
		KindTrait, KindFunction, KindConstant, KindStatic, KindMacro, KindTypeAlias:
		return true
	default:
		return false
	}
}

// Visibility is an item's declared visibility.
type Visibility string

const (
	Public     Visibility = "public"
	Restricted Visibility = "restricted"
	Private    Visibility = "private"
)

// Shape is the constructor form of a variant.
type Shape string

const (
	ShapePlain Shape = "plain"
	ShapeTuple Shape = "tuple"
	ShapeUnit  Shape = "unit"
)

// GenericKind is the kind of a generic parameter.
type GenericKind string

const (
	GenericLifetime GenericKind = "lifetime"
	GenericType     GenericKind = "type"
	GenericConst    GenericKind = "const"
)

// Span is a location hint for reports.
type Span struct {
	File string `json:"file" yaml:"file" msgpack:"file"`
	Line int    `json:"line,omitempty" yaml:"line,omitempty" msgpack:"line,omitempty"`
}

// Note is a present attribute with an optional message (deprecated, must_use).
type Note struct {
	Message string `json:"message,omitempty" yaml:"message,omitempty" msgpack:"message,omitempty"`
}

// Attrs are the modifiers that can be attached to an item.
type Attrs struct {
	Hidden         bool     `json:"hidden,omitempty" yaml:"hidden,omitempty" msgpack:"hidden,omitempty"`
	Deprecated     *Note    `json:"deprecated,omitempty" yaml:"deprecated,omitempty" msgpack:"deprecated,omitempty"`
	MustUse        *Note    `json:"mustUse,omitempty" yaml:"mustUse,omitempty" msgpack:"mustUse,omitempty"`
	NonExhaustive  bool     `json:"nonExhaustive,omitempty" yaml:"nonExhaustive,omitempty" msgpack:"nonExhaustive,omitempty"`
	Unsafe         bool     `json:"unsafe,omitempty" yaml:"unsafe,omitempty" msgpack:"unsafe,omitempty"`
	Const          bool     `json:"const,omitempty" yaml:"const,omitempty" msgpack:"const,omitempty"`
	ABI            string   `json:"abi,omitempty" yaml:"abi,omitempty" msgpack:"abi,omitempty"`
	TargetFeatures []string `json:"targetFeatures,omitempty" yaml:"targetFeatures,omitempty" msgpack:"targetFeatures,omitempty"`
	NoMangle       bool     `json:"noMangle,omitempty" yaml:"noMangle,omitempty" msgpack:"noMangle,omitempty"`
	ExportName     string   `json:"exportName,omitempty" yaml:"exportName,omitempty" msgpack:"exportName,omitempty"`
	Repr           []string `json:"repr,omitempty" yaml:"repr,omitempty" msgpack:"repr,omitempty"`
}

// EffectiveABI returns the calling convention, defaulting to "Rust".
func (a Attrs) EffectiveABI() string {
	if a.ABI == "" {
		return "Rust"
	}
	return a.ABI
}

// Type is a rendered type expression plus the snapshot items it mentions.
// It decodes from either a plain string or an object.
type Type struct {
	Repr string `json:"repr" yaml:"repr" msgpack:"repr"`
	Refs []ID   `json:"refs,omitempty" yaml:"refs,omitempty" msgpack:"refs,omitempty"`
}

func (t Type) String() string { return t.Repr }

func (t *Type) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &t.Repr)
	}
	type plain Type
	return json.Unmarshal(data, (*plain)(t))
}

func (t *Type) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		t.Repr = value.Value
		return nil
	}
	type plain Type
	return value.Decode((*plain)(t))
}

// Param is a function parameter.
type Param struct {
	Name string `json:"name" yaml:"name" msgpack:"name"`
	Type Type   `json:"type" yaml:"type" msgpack:"type"`
}

// Signature is the callable shape of a function or method.
type Signature struct {
	// Receiver is "", "self", "&self" or "&mut self".
	Receiver string  `json:"receiver,omitempty" yaml:"receiver,omitempty" msgpack:"receiver,omitempty"`
	Params   []Param `json:"params,omitempty" yaml:"params,omitempty" msgpack:"params,omitempty"`
	Output   *Type   `json:"output,omitempty" yaml:"output,omitempty" msgpack:"output,omitempty"`
}

// GenericParam is one generic parameter of an item.
type GenericParam struct {
	Name   string      `json:"name" yaml:"name" msgpack:"name"`
	Kind   GenericKind `json:"kind" yaml:"kind" msgpack:"kind"`
	Bounds []string    `json:"bounds,omitempty" yaml:"bounds,omitempty" msgpack:"bounds,omitempty"`
}

// Impl describes an implementation block.
type Impl struct {
	For ID `json:"for" yaml:"for" msgpack:"for"`
	// Trait is the implemented trait's path, empty for inherent impls.
	Trait string `json:"trait,omitempty" yaml:"trait,omitempty" msgpack:"trait,omitempty"`
	// TraitID is set when the trait is defined in this snapshot.
	TraitID   ID   `json:"traitId,omitempty" yaml:"traitId,omitempty" msgpack:"traitId,omitempty"`
	Synthetic bool `json:"synthetic,omitempty" yaml:"synthetic,omitempty" msgpack:"synthetic,omitempty"`
	Negative  bool `json:"negative,omitempty" yaml:"negative,omitempty" msgpack:"negative,omitempty"`
}

// Inherent reports whether the block implements no trait.
func (i *Impl) Inherent() bool { return i.Trait == "" }

// Import is a re-export (`pub use`) inside a module.
type Import struct {
	// Name is the exported name; ignored for globs.
	Name       string     `json:"name,omitempty" yaml:"name,omitempty" msgpack:"name,omitempty"`
	Target     ID         `json:"target" yaml:"target" msgpack:"target"`
	Glob       bool       `json:"glob,omitempty" yaml:"glob,omitempty" msgpack:"glob,omitempty"`
	Visibility Visibility `json:"visibility" yaml:"visibility" msgpack:"visibility"`
	Hidden     bool       `json:"hidden,omitempty" yaml:"hidden,omitempty" msgpack:"hidden,omitempty"`
}

// Item is a named element of the interface.
type Item struct {
	ID         ID         `json:"id" yaml:"id" msgpack:"id"`
	Name       string     `json:"name" yaml:"name" msgpack:"name"`
	Kind       Kind       `json:"kind" yaml:"kind" msgpack:"kind"`
	Visibility Visibility `json:"visibility" yaml:"visibility" msgpack:"visibility"`
	Parent     ID         `json:"parent,omitempty" yaml:"parent,omitempty" msgpack:"parent,omitempty"`
	Span       *Span      `json:"span,omitempty" yaml:"span,omitempty" msgpack:"span,omitempty"`
	Attrs      Attrs      `json:"attrs,omitempty" yaml:"attrs,omitempty" msgpack:"attrs,omitempty"`

	// Children are module members, struct/variant fields, enum variants,
	// trait items or impl items, in declaration order.
	Children []ID    `json:"children,omitempty" yaml:"children,omitempty" msgpack:"children,omitempty"`
	Imports  []Import `json:"imports,omitempty" yaml:"imports,omitempty" msgpack:"imports,omitempty"`

	Shape        Shape          `json:"shape,omitempty" yaml:"shape,omitempty" msgpack:"shape,omitempty"`
	Discriminant string         `json:"discriminant,omitempty" yaml:"discriminant,omitempty" msgpack:"discriminant,omitempty"`
	Type         *Type          `json:"type,omitempty" yaml:"type,omitempty" msgpack:"type,omitempty"`
	Signature    *Signature     `json:"signature,omitempty" yaml:"signature,omitempty" msgpack:"signature,omitempty"`
	Generics     []GenericParam `json:"generics,omitempty" yaml:"generics,omitempty" msgpack:"generics,omitempty"`
	Supertraits  []Type         `json:"supertraits,omitempty" yaml:"supertraits,omitempty" msgpack:"supertraits,omitempty"`
	Impl         *Impl          `json:"impl,omitempty" yaml:"impl,omitempty" msgpack:"impl,omitempty"`
	// HasDefault marks trait items with a provided default.
	HasDefault bool `json:"hasDefault,omitempty" yaml:"hasDefault,omitempty" msgpack:"hasDefault,omitempty"`
	Mutable    bool `json:"mutable,omitempty" yaml:"mutable,omitempty" msgpack:"mutable,omitempty"`
}

// IsPublic reports whether the item's own visibility is public.
func (it *Item) IsPublic() bool { return it.Visibility == Public }

// Hidden reports whether the item is hidden from the public API. Hidden
// items that are also deprecated stay public API: callers are still
// expected to migrate off them.
func (it *Item) Hidden() bool {
	return it.Attrs.Hidden && it.Attrs.Deprecated == nil
}
