package rules

import (
	"context"
	"fmt"
	"strings"

	"semcheck/internal/snapshot"
)

type attrScope int

const (
	// scopeFunction checks free functions.
	scopeFunction attrScope = iota
	// scopeMethod checks inherent methods of present types.
	scopeMethod
	// scopeItem checks importable items of the rule's families.
	scopeItem
	// scopeMember checks fields, variants, inherent methods and trait items.
	scopeMember
	// scopeTrait checks traits.
	scopeTrait
)

// transition describes an attribute change, ok is false when the attribute
// did not transition.
type transition func(in *Input, base, cur *snapshot.Item) (phrase string, ok bool)

// attrRule reports attribute transitions. Member transitions are not
// reported when the owner went through the same transition.
type attrRule struct {
	meta     Meta
	scope    attrScope
	families []string
	changed  transition
}

func (r *attrRule) Meta() Meta { return r.meta }

func (r *attrRule) Match(ctx context.Context, in *Input) ([]Finding, error) {
	var out []Finding
	emit := func(base, cur *snapshot.Item, path string) {
		phrase, ok := r.changed(in, base, cur)
		if !ok {
			return
		}
		f := r.meta.finding(in, base, cur, fmt.Sprintf("%s %s %s", describe(base.Kind), path, phrase))
		f.Item = path
		f.Facts["path"] = path
		f.Facts["name"] = base.Name
		f.Facts["old_params"] = renderParams(base)
		f.Facts["old_arity"] = fmt.Sprint(len(params(base)))
		out = append(out, f)
	}

	switch r.scope {
	case scopeFunction, scopeTrait, scopeItem:
		families := r.families
		if r.scope == scopeFunction {
			families = []string{"function"}
		} else if r.scope == scopeTrait {
			families = []string{"trait"}
		}
		for _, p := range in.present(ofFamily(families...)) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if r.scope == scopeItem && r.ancestorChanged(in, p.base) {
				continue
			}
			emit(p.base, p.cur, in.Resolver.PathOf(snapshot.Baseline, p.base.ID))
		}

	case scopeMethod, scopeMember:
		owners := []string{"struct", "enum", "union"}
		if r.scope == scopeMember {
			owners = append(owners, "trait")
		}
		for _, p := range in.present(ofFamily(owners...)) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if _, ownerChanged := r.changed(in, p.base, p.cur); ownerChanged {
				continue
			}
			ownerPath := in.Resolver.PathOf(snapshot.Baseline, p.base.ID)
			for _, pair := range r.members(in, p) {
				emit(pair.base, pair.cur, ownerPath+"::"+pair.base.Name)
			}
		}
	}
	return out, nil
}

// ancestorChanged reports whether an enclosing present item went through
// the same transition.
func (r *attrRule) ancestorChanged(in *Input, it *snapshot.Item) bool {
	for _, a := range in.Pair.Baseline.Ancestors(it.ID) {
		if !a.Kind.Importable() || a.ID == in.Pair.Baseline.Root {
			continue
		}
		cur, ok := in.Resolver.Counterpart(a.ID)
		if !ok {
			continue
		}
		if _, changed := r.changed(in, a, cur); changed {
			return true
		}
	}
	return false
}

// members pairs public-API members of a present owner by kind and name.
func (r *attrRule) members(in *Input, p counterpart) []counterpart {
	var lists [][2][]*snapshot.Item
	base, cur := in.Pair.Baseline, in.Pair.Current
	switch {
	case r.scope == scopeMethod:
		lists = append(lists, [2][]*snapshot.Item{inherentMethods(base, p.base), inherentMethods(cur, p.cur)})
	case p.base.Kind == snapshot.KindTrait:
		kinds := []snapshot.Kind{snapshot.KindMethod, snapshot.KindAssocType, snapshot.KindAssocConst}
		lists = append(lists, [2][]*snapshot.Item{base.ChildrenOfKind(p.base, kinds...), cur.ChildrenOfKind(p.cur, kinds...)})
	default:
		lists = append(lists,
			[2][]*snapshot.Item{fieldsOf(base, p.base), fieldsOf(cur, p.cur)},
			[2][]*snapshot.Item{variantsOf(base, p.base), variantsOf(cur, p.cur)},
			[2][]*snapshot.Item{inherentMethods(base, p.base), inherentMethods(cur, p.cur)})
	}

	var out []counterpart
	for _, l := range lists {
		for _, m := range l[0] {
			if !in.public(snapshot.Baseline, m) {
				continue
			}
			c := in.byName(snapshot.Current, l[1], m.Name)
			if c == nil || c.Kind != m.Kind || !in.public(snapshot.Current, c) {
				continue
			}
			out = append(out, counterpart{base: m, cur: c})
		}
	}
	return out
}

func deprecatedAdded(_ *Input, base, cur *snapshot.Item) (string, bool) {
	if base.Attrs.Deprecated != nil || cur.Attrs.Deprecated == nil {
		return "", false
	}
	if msg := cur.Attrs.Deprecated.Message; msg != "" {
		return fmt.Sprintf("is now #[deprecated]: %s", msg), true
	}
	return "is now #[deprecated]", true
}

func mustUseAdded(_ *Input, base, cur *snapshot.Item) (string, bool) {
	if base.Attrs.MustUse != nil || cur.Attrs.MustUse == nil {
		return "", false
	}
	return "is now #[must_use]", true
}

func targetFeatureAdded(_ *Input, base, cur *snapshot.Item) (string, bool) {
	had := make(map[string]bool, len(base.Attrs.TargetFeatures))
	for _, f := range base.Attrs.TargetFeatures {
		had[f] = true
	}
	var added []string
	for _, f := range cur.Attrs.TargetFeatures {
		if !had[f] {
			added = append(added, f)
		}
	}
	if len(added) == 0 {
		return "", false
	}
	return fmt.Sprintf("now requires target features %s", strings.Join(added, ", ")), true
}

func constRemoved(_ *Input, base, cur *snapshot.Item) (string, bool) {
	if !base.Attrs.Const || cur.Attrs.Const {
		return "", false
	}
	return "is no longer const", true
}

func unsafeAdded(_ *Input, base, cur *snapshot.Item) (string, bool) {
	if base.Attrs.Unsafe || !cur.Attrs.Unsafe {
		return "", false
	}
	return "is now unsafe", true
}

func abiChanged(_ *Input, base, cur *snapshot.Item) (string, bool) {
	if base.Attrs.EffectiveABI() == cur.Attrs.EffectiveABI() {
		return "", false
	}
	return fmt.Sprintf("changed ABI from %q to %q", base.Attrs.EffectiveABI(), cur.Attrs.EffectiveABI()), true
}

// exportSymbol is the linker symbol an item is exported under, if any.
// #[no_mangle] exports under the item's own name.
func exportSymbol(it *snapshot.Item) string {
	if it.Attrs.ExportName != "" {
		return it.Attrs.ExportName
	}
	if it.Attrs.NoMangle {
		return it.Name
	}
	return ""
}

func exportSymbolChanged(_ *Input, base, cur *snapshot.Item) (string, bool) {
	old, now := exportSymbol(base), exportSymbol(cur)
	switch {
	case old == "" || old == now:
		return "", false
	case now == "":
		return fmt.Sprintf("is no longer exported as symbol %q", old), true
	default:
		return fmt.Sprintf("changed export symbol from %q to %q", old, now), true
	}
}

// implementable reports whether downstream code could implement a trait.
func (in *Input) implementable(side snapshot.Side, trait *snapshot.Item) bool {
	return in.sealing(side, trait, map[snapshot.ID]bool{}) == Unsealed
}

func traitUnsafeAdded(in *Input, base, cur *snapshot.Item) (string, bool) {
	if base.Attrs.Unsafe || !cur.Attrs.Unsafe || !in.implementable(snapshot.Baseline, base) {
		return "", false
	}
	return "is now an unsafe trait", true
}

func traitUnsafeRemoved(in *Input, base, cur *snapshot.Item) (string, bool) {
	if !base.Attrs.Unsafe || cur.Attrs.Unsafe || !in.implementable(snapshot.Baseline, base) {
		return "", false
	}
	return "is no longer an unsafe trait", true
}
