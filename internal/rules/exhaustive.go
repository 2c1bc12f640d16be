package rules

import (
	"context"
	"fmt"

	"semcheck/internal/snapshot"
)

// exhaustRule is one of the non_exhaustive / constructibility checks.
type exhaustRule struct {
	meta   Meta
	family string
	check  func(in *Input, p counterpart) []Finding
}

func (r *exhaustRule) Meta() Meta { return r.meta }

func (r *exhaustRule) Match(ctx context.Context, in *Input) ([]Finding, error) {
	var out []Finding
	for _, p := range in.present(ofFamily(r.family)) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out = append(out, r.check(in, p)...)
	}
	return out, nil
}

func (m Meta) structMarkedNonExhaustive(in *Input, p counterpart) []Finding {
	if p.base.Attrs.NonExhaustive || !p.cur.Attrs.NonExhaustive {
		return nil
	}
	if !in.constructible(snapshot.Baseline, p.base) {
		return nil
	}
	path := in.Resolver.PathOf(snapshot.Baseline, p.base.ID)
	f := m.finding(in, p.base, p.cur, fmt.Sprintf("struct %s is now #[non_exhaustive]", path))
	f.Facts["path"] = path
	f.Facts["shape"] = string(shapeOf(p.base))
	f.Facts["fields"] = names(fieldsOf(in.Pair.Baseline, p.base))
	return []Finding{f}
}

func (m Meta) structNoLongerNonExhaustive(in *Input, p counterpart) []Finding {
	if !p.base.Attrs.NonExhaustive || p.cur.Attrs.NonExhaustive {
		return nil
	}
	if !in.constructible(snapshot.Current, p.cur) {
		return nil
	}
	path := in.Resolver.PathOf(snapshot.Baseline, p.base.ID)
	f := m.finding(in, p.base, p.cur, fmt.Sprintf("struct %s is no longer #[non_exhaustive]", path))
	f.Facts["path"] = path
	return []Finding{f}
}

func (m Meta) constructibleStructAddsField(in *Input, p counterpart) []Finding {
	if p.cur.Attrs.NonExhaustive || !in.constructible(snapshot.Baseline, p.base) {
		return nil
	}
	baseFields := fieldsOf(in.Pair.Baseline, p.base)
	known := make(map[string]bool, len(baseFields))
	for _, f := range baseFields {
		known[f.Name] = true
	}

	path := in.Resolver.PathOf(snapshot.Baseline, p.base.ID)
	var out []Finding
	for _, field := range fieldsOf(in.Pair.Current, p.cur) {
		if known[field.Name] {
			continue
		}
		vis := "public"
		if !in.public(snapshot.Current, field) {
			vis = "non-public"
		}
		f := m.finding(in, p.base, field,
			fmt.Sprintf("struct %s gained %s field %s and can no longer be built from a literal of its old fields", path, vis, field.Name))
		f.Item = path + "::" + field.Name
		f.Facts["path"] = path
		f.Facts["shape"] = string(shapeOf(p.base))
		f.Facts["fields"] = names(baseFields)
		out = append(out, f)
	}
	return out
}

// hasHiddenField reports whether a variant has a field that is not public API.
func (in *Input) hasHiddenField(side snapshot.Side, v *snapshot.Item) bool {
	for _, f := range fieldsOf(in.snap(side), v) {
		if !in.public(side, f) {
			return true
		}
	}
	return false
}

func (m Meta) enumMarkedNonExhaustive(in *Input, p counterpart) []Finding {
	if p.base.Attrs.NonExhaustive || !p.cur.Attrs.NonExhaustive {
		return nil
	}

	// Enums whose every variant already carries a non-public field cannot
	// be matched exhaustively downstream.
	baseVariants := variantsOf(in.Pair.Baseline, p.base)
	curVariants := variantsOf(in.Pair.Current, p.cur)
	if len(baseVariants) > 0 && len(curVariants) > 0 {
		allHidden := true
		for _, v := range baseVariants {
			allHidden = allHidden && in.hasHiddenField(snapshot.Baseline, v)
		}
		for _, v := range curVariants {
			allHidden = allHidden && in.hasHiddenField(snapshot.Current, v)
		}
		if allHidden {
			return nil
		}
	}

	path := in.Resolver.PathOf(snapshot.Baseline, p.base.ID)
	f := m.finding(in, p.base, p.cur, fmt.Sprintf("enum %s is now #[non_exhaustive]", path))
	f.Facts["path"] = path
	f.Facts["variants"] = names(baseVariants)
	return []Finding{f}
}

func (m Meta) variantMarkedNonExhaustive(in *Input, p counterpart) []Finding {
	path := in.Resolver.PathOf(snapshot.Baseline, p.base.ID)
	curVariants := variantsOf(in.Pair.Current, p.cur)

	var out []Finding
	for _, v := range variantsOf(in.Pair.Baseline, p.base) {
		c := in.byName(snapshot.Current, curVariants, v.Name)
		if c == nil || v.Attrs.NonExhaustive || !c.Attrs.NonExhaustive {
			continue
		}
		if !in.public(snapshot.Baseline, v) || !in.public(snapshot.Current, c) {
			continue
		}
		if !in.constructible(snapshot.Baseline, v) {
			continue
		}
		f := m.finding(in, v, c, fmt.Sprintf("variant %s::%s is now #[non_exhaustive]", path, v.Name))
		f.Item = path + "::" + v.Name
		f.Facts["owner"] = path
		f.Facts["member"] = v.Name
		f.Facts["shape"] = string(shapeOf(v))
		f.Facts["fields"] = names(fieldsOf(in.Pair.Baseline, v))
		out = append(out, f)
	}
	return out
}

func (m Meta) enumVariantAdded(in *Input, p counterpart) []Finding {
	if p.base.Attrs.NonExhaustive || p.cur.Attrs.NonExhaustive {
		return nil
	}
	baseVariants := variantsOf(in.Pair.Baseline, p.base)
	known := make(map[string]bool, len(baseVariants))
	for _, v := range baseVariants {
		known[v.Name] = true
	}

	path := in.Resolver.PathOf(snapshot.Baseline, p.base.ID)
	var out []Finding
	for _, v := range variantsOf(in.Pair.Current, p.cur) {
		if known[v.Name] || !in.public(snapshot.Current, v) {
			continue
		}
		f := m.finding(in, p.base, v, fmt.Sprintf("variant %s::%s was added to exhaustive enum %s", path, v.Name, path))
		f.Item = path + "::" + v.Name
		f.Facts["path"] = path
		f.Facts["variants"] = names(baseVariants)
		out = append(out, f)
	}
	return out
}
