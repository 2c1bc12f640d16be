package rules

import (
	"context"
	"fmt"

	"semcheck/internal/identity"
	"semcheck/internal/snapshot"
)

// Sealing is how a trait prevents downstream implementations.
type Sealing int

const (
	Unsealed Sealing = iota
	// PublicAPISealed traits can only be implemented by naming hidden items.
	PublicAPISealed
	// UnconditionallySealed traits cannot be implemented downstream at all.
	UnconditionallySealed
)

func (s Sealing) String() string {
	switch s {
	case Unsealed:
		return "unsealed"
	case PublicAPISealed:
		return "public-API sealed"
	default:
		return "sealed"
	}
}

func sealedBy(n identity.Nameability) Sealing {
	switch n {
	case identity.Unnameable:
		return UnconditionallySealed
	case identity.HiddenOnly:
		return PublicAPISealed
	default:
		return Unsealed
	}
}

// sealing classifies a trait on one side. Supertraits are followed
// transitively; visited guards against supertrait cycles.
func (in *Input) sealing(side snapshot.Side, trait *snapshot.Item, visited map[snapshot.ID]bool) Sealing {
	if visited[trait.ID] {
		return Unsealed
	}
	visited[trait.ID] = true

	s := in.snap(side)
	worst := Unsealed
	raise := func(v Sealing) {
		if v > worst {
			worst = v
		}
	}
	refs := func(t *snapshot.Type) {
		if t == nil {
			return
		}
		for _, ref := range t.Refs {
			raise(sealedBy(in.Resolver.Nameability(side, ref)))
		}
	}

	for i := range trait.Supertraits {
		for _, ref := range trait.Supertraits[i].Refs {
			raise(sealedBy(in.Resolver.Nameability(side, ref)))
			if super, ok := s.Item(ref); ok && super.Kind == snapshot.KindTrait {
				raise(in.sealing(side, super, visited))
			}
		}
	}

	for _, c := range s.Children(trait) {
		if c.HasDefault {
			continue
		}
		switch c.Kind {
		case snapshot.KindMethod, snapshot.KindAssocType, snapshot.KindAssocConst:
		default:
			continue
		}
		if c.Hidden() {
			raise(PublicAPISealed)
		}
		if c.Signature != nil {
			for i := range c.Signature.Params {
				refs(&c.Signature.Params[i].Type)
			}
			refs(c.Signature.Output)
		}
		refs(c.Type)
	}
	return worst
}

type sealingRule struct {
	meta Meta
}

func (r *sealingRule) Meta() Meta { return r.meta }

func (r *sealingRule) Match(ctx context.Context, in *Input) ([]Finding, error) {
	var out []Finding
	for _, p := range in.present(ofFamily("trait")) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		base := in.sealing(snapshot.Baseline, p.base, map[snapshot.ID]bool{})
		cur := in.sealing(snapshot.Current, p.cur, map[snapshot.ID]bool{})
		if base != Unsealed || cur == Unsealed {
			continue
		}
		path := in.Resolver.PathOf(snapshot.Baseline, p.base.ID)
		f := r.meta.finding(in, p.base, p.cur, fmt.Sprintf("trait %s is now %s and can no longer be implemented downstream", path, cur))
		f.Facts["path"] = path
		f.Facts["sealing"] = cur.String()
		out = append(out, f)
	}
	return out, nil
}

// requiredMethodRule reports new required methods on traits downstream
// code could implement.
type requiredMethodRule struct {
	meta Meta
}

func (r *requiredMethodRule) Meta() Meta { return r.meta }

func (r *requiredMethodRule) Match(ctx context.Context, in *Input) ([]Finding, error) {
	var out []Finding
	for _, p := range in.present(ofFamily("trait")) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if in.sealing(snapshot.Baseline, p.base, map[snapshot.ID]bool{}) != Unsealed ||
			in.sealing(snapshot.Current, p.cur, map[snapshot.ID]bool{}) != Unsealed {
			continue
		}

		path := in.Resolver.PathOf(snapshot.Baseline, p.base.ID)
		baseMethods := in.Pair.Baseline.ChildrenOfKind(p.base, snapshot.KindMethod)
		for _, m := range in.Pair.Current.ChildrenOfKind(p.cur, snapshot.KindMethod) {
			if m.HasDefault {
				continue
			}
			var msg string
			old := in.byName(snapshot.Baseline, baseMethods, m.Name)
			switch {
			case old == nil:
				msg = fmt.Sprintf("trait %s gained required method %s", path, m.Name)
			case old.HasDefault:
				msg = fmt.Sprintf("trait method %s::%s lost its default implementation", path, m.Name)
			default:
				continue
			}
			f := r.meta.finding(in, p.base, m, msg)
			f.Item = path + "::" + m.Name
			f.Facts["path"] = path
			f.Facts["member"] = m.Name
			out = append(out, f)
		}
	}
	return out, nil
}
