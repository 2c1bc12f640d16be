package rules

import (
	"context"
	"fmt"

	"semcheck/internal/identity"
	"semcheck/internal/snapshot"
)

// statusRule reports baseline public-API items of one kind family whose
// resolution ended in a given status.
type statusRule struct {
	meta   Meta
	family string
	status identity.Status
}

func (r *statusRule) Meta() Meta { return r.meta }

func (r *statusRule) Match(ctx context.Context, in *Input) ([]Finding, error) {
	var out []Finding
	for _, it := range in.Pair.Baseline.Items {
		if it.Kind.Family() != r.family || it.ID == in.Pair.Baseline.Root {
			continue
		}
		m, ok := in.Resolver.Resolve(it.ID)
		if !ok || m.Status != r.status || in.Resolver.Dominated(it.ID) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		path := in.Resolver.PathOf(snapshot.Baseline, it.ID)
		var msg string
		switch r.status {
		case identity.Missing:
			msg = fmt.Sprintf("%s %s is missing", describe(it.Kind), path)
		case identity.Hidden:
			msg = fmt.Sprintf("%s %s is now #[doc(hidden)]", describe(it.Kind), path)
		case identity.Private:
			msg = fmt.Sprintf("%s %s is no longer public", describe(it.Kind), path)
		}
		f := r.meta.finding(in, it, m.Current, msg)
		f.Facts["path"] = path
		f.Facts["kind"] = describe(it.Kind)
		f.Facts["name"] = it.Name
		out = append(out, f)
	}
	return out, nil
}

// memberKind selects which members of a present owner a memberRule checks.
type memberKind int

const (
	memberField memberKind = iota
	memberVariant
	memberInherentMethod
	memberTraitMethod
)

// memberRule reports public-API members of present owners that are gone
// (or no longer public) or that became hidden.
type memberRule struct {
	meta   Meta
	member memberKind
	hidden bool
}

func (r *memberRule) Meta() Meta { return r.meta }

func (r *memberRule) owners() []string {
	switch r.member {
	case memberField:
		return []string{"struct"}
	case memberVariant:
		return []string{"enum"}
	case memberInherentMethod:
		return []string{"struct", "enum", "union"}
	default:
		return []string{"trait"}
	}
}

// members returns the owner's members on one side.
func (r *memberRule) members(s *snapshot.Snapshot, owner *snapshot.Item) []*snapshot.Item {
	switch r.member {
	case memberField:
		return fieldsOf(s, owner)
	case memberVariant:
		return variantsOf(s, owner)
	case memberInherentMethod:
		return inherentMethods(s, owner)
	default:
		return s.ChildrenOfKind(owner, snapshot.KindMethod)
	}
}

func (r *memberRule) Match(ctx context.Context, in *Input) ([]Finding, error) {
	var out []Finding
	for _, p := range in.present(ofFamily(r.owners()...)) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		curMembers := r.members(in.Pair.Current, p.cur)
		for _, m := range r.members(in.Pair.Baseline, p.base) {
			if !in.public(snapshot.Baseline, m) {
				continue
			}
			c := in.byName(snapshot.Current, curMembers, m.Name)
			var n identity.Nameability = identity.Unnameable
			if c != nil {
				n = in.Resolver.Nameability(snapshot.Current, c.ID)
			}

			ownerPath := in.Resolver.PathOf(snapshot.Baseline, p.base.ID)
			var msg string
			switch {
			case !r.hidden && n == identity.Unnameable && c == nil:
				msg = fmt.Sprintf("%s %s::%s is missing", r.noun(), ownerPath, m.Name)
			case !r.hidden && n == identity.Unnameable:
				msg = fmt.Sprintf("%s %s::%s is no longer public", r.noun(), ownerPath, m.Name)
			case r.hidden && n == identity.HiddenOnly:
				msg = fmt.Sprintf("%s %s::%s is now #[doc(hidden)]", r.noun(), ownerPath, m.Name)
			default:
				continue
			}

			f := r.meta.finding(in, m, c, msg)
			f.Item = ownerPath + "::" + m.Name
			f.Facts["owner"] = ownerPath
			f.Facts["owner_kind"] = describe(p.base.Kind)
			f.Facts["member"] = m.Name
			if r.member == memberVariant {
				f.Facts["shape"] = string(shapeOf(m))
			}
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *memberRule) noun() string {
	switch r.member {
	case memberField:
		return "field"
	case memberVariant:
		return "variant"
	case memberInherentMethod:
		return "method"
	default:
		return "trait method"
	}
}
