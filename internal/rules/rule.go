// Package rules holds the catalog of breaking-change rules. Each rule is a
// pure function over a snapshot pair and its identity resolver.
package rules

import (
	"context"
	"fmt"
	"strings"

	"semcheck/internal/identity"
	"semcheck/internal/release"
	"semcheck/internal/snapshot"
)

// Level is a lint level.
type Level string

const (
	Allow Level = "allow"
	Warn  Level = "warn"
	Deny  Level = "deny"
)

// ParseLevel parses a manifest lint level.
func ParseLevel(s string) (Level, error) {
	switch Level(strings.ToLower(strings.TrimSpace(s))) {
	case Allow:
		return Allow, nil
	case Warn:
		return Warn, nil
	case Deny:
		return Deny, nil
	default:
		return "", fmt.Errorf("unknown lint level %q (want allow, warn or deny)", s)
	}
}

// Enabled reports whether rules at this level are evaluated.
func (l Level) Enabled() bool { return l == Warn || l == Deny }

// Group is a lint group.
type Group string

const (
	GroupRemoval        Group = "removal"
	GroupVisibility     Group = "visibility"
	GroupExhaustiveness Group = "exhaustiveness"
	GroupLayout         Group = "layout"
	GroupSealing        Group = "sealing"
	GroupSignature      Group = "signature"
	GroupAttribute      Group = "attribute"
	GroupTraitImpl      Group = "trait_impl"
	GroupDeprecation    Group = "deprecation"
	GroupAddition       Group = "addition"
)

// Meta is the immutable catalog entry of a rule.
type Meta struct {
	ID          string
	Group       Group
	Category    string
	Description string
	Level       Level
	Bump        release.Type
	// Witness is the witness template id, empty if none.
	Witness string
}

// Input is what every rule matches against.
type Input struct {
	Pair     *snapshot.Pair
	Resolver *identity.Resolver
}

// NewInput resolves identities for a pair.
func NewInput(pair *snapshot.Pair) *Input {
	return &Input{Pair: pair, Resolver: identity.New(pair)}
}

// Finding is one rule match. Level, RequiredBump and ID are filled in by
// the evaluator from the effective configuration.
type Finding struct {
	ID           string            `json:"id"`
	RuleID       string            `json:"ruleId"`
	Item         string            `json:"item"`
	Baseline     snapshot.ID       `json:"baseline,omitempty"`
	Current      snapshot.ID       `json:"current,omitempty"`
	Level        Level             `json:"level"`
	RequiredBump release.Type      `json:"requiredBump"`
	Message      string            `json:"message"`
	Location     *snapshot.Span    `json:"location,omitempty"`
	Facts        map[string]string `json:"facts,omitempty"`
}

// Rule is one breaking-change check. Match must not mutate its input.
type Rule interface {
	Meta() Meta
	Match(ctx context.Context, in *Input) ([]Finding, error)
}

func (m Meta) finding(in *Input, base, cur *snapshot.Item, msg string) Finding {
	f := Finding{
		RuleID:  m.ID,
		Message: msg,
		Facts:   map[string]string{},
	}
	if base != nil {
		f.Baseline = base.ID
		f.Item = in.Resolver.PathOf(snapshot.Baseline, base.ID)
		f.Location = base.Span
	}
	if cur != nil {
		f.Current = cur.ID
		if f.Item == "" {
			f.Item = in.Resolver.PathOf(snapshot.Current, cur.ID)
		}
		if cur.Span != nil {
			f.Location = cur.Span
		}
	}
	return f
}

// counterpart is a baseline item with its present current counterpart.
type counterpart struct {
	base, cur *snapshot.Item
}

// present returns baseline public-API items accepted by keep that are still
// present in current.
func (in *Input) present(keep func(*snapshot.Item) bool) []counterpart {
	var out []counterpart
	for _, it := range in.Pair.Baseline.Items {
		if !keep(it) {
			continue
		}
		if cur, ok := in.Resolver.Counterpart(it.ID); ok {
			out = append(out, counterpart{base: it, cur: cur})
		}
	}
	return out
}

func ofFamily(families ...string) func(*snapshot.Item) bool {
	return func(it *snapshot.Item) bool {
		for _, f := range families {
			if it.Kind.Family() == f {
				return true
			}
		}
		return false
	}
}

func (in *Input) public(side snapshot.Side, it *snapshot.Item) bool {
	return in.Resolver.PublicAPI(side, it.ID)
}

func (in *Input) snap(side snapshot.Side) *snapshot.Snapshot { return in.Pair.Get(side) }

func fieldsOf(s *snapshot.Snapshot, owner *snapshot.Item) []*snapshot.Item {
	return s.ChildrenOfKind(owner, snapshot.KindField)
}

func variantsOf(s *snapshot.Snapshot, enum *snapshot.Item) []*snapshot.Item {
	return s.ChildrenOfKind(enum, snapshot.KindVariant)
}

// byName returns the item called name, preferring public-API ones.
func (in *Input) byName(side snapshot.Side, items []*snapshot.Item, name string) *snapshot.Item {
	var found *snapshot.Item
	for _, it := range items {
		if it.Name != name {
			continue
		}
		if in.public(side, it) {
			return it
		}
		if found == nil {
			found = it
		}
	}
	return found
}

// inherentMethods lists the methods of all inherent impls of a type.
func inherentMethods(s *snapshot.Snapshot, typ *snapshot.Item) []*snapshot.Item {
	var out []*snapshot.Item
	for _, impl := range s.Impls(typ.ID) {
		if impl.Impl.Inherent() {
			out = append(out, s.ChildrenOfKind(impl, snapshot.KindMethod)...)
		}
	}
	return out
}

// constructible reports whether downstream code can build a struct or
// variant with a literal: every field is public API and it is exhaustive.
func (in *Input) constructible(side snapshot.Side, it *snapshot.Item) bool {
	if it.Attrs.NonExhaustive {
		return false
	}
	for _, f := range fieldsOf(in.snap(side), it) {
		if !in.public(side, f) {
			return false
		}
	}
	return true
}

func describe(k snapshot.Kind) string {
	switch k {
	case snapshot.KindTupleStruct, snapshot.KindUnitStruct:
		return "struct"
	case snapshot.KindConstant:
		return "constant"
	case snapshot.KindTypeAlias:
		return "type alias"
	default:
		return string(k)
	}
}

// shapeOf is the constructor form of a struct or variant.
func shapeOf(it *snapshot.Item) snapshot.Shape {
	switch {
	case it.Kind == snapshot.KindTupleStruct:
		return snapshot.ShapeTuple
	case it.Kind == snapshot.KindUnitStruct:
		return snapshot.ShapeUnit
	case it.Kind == snapshot.KindVariant && it.Shape != "":
		return it.Shape
	default:
		return snapshot.ShapePlain
	}
}

func names(items []*snapshot.Item) string {
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = it.Name
	}
	return strings.Join(parts, ",")
}
