package rules

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"semcheck/internal/snapshot"
)

// reprRule compares normalized representation annotations of present
// structs, enums and unions.
type reprRule struct {
	meta     Meta
	families []string
	changed  func(in *Input, p counterpart, base, cur snapshot.Repr) bool
}

func (r *reprRule) Meta() Meta { return r.meta }

func (r *reprRule) Match(ctx context.Context, in *Input) ([]Finding, error) {
	var out []Finding
	for _, p := range in.present(ofFamily(r.families...)) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		base := snapshot.ParseRepr(p.base.Attrs.Repr)
		cur := snapshot.ParseRepr(p.cur.Attrs.Repr)
		if !r.changed(in, p, base, cur) {
			continue
		}
		path := in.Resolver.PathOf(snapshot.Baseline, p.base.ID)
		f := r.meta.finding(in, p.base, p.cur, fmt.Sprintf("%s %s changed representation from #[repr(%s)] to #[repr(%s)]",
			describe(p.base.Kind), path, base, cur))
		f.Facts["path"] = path
		f.Facts["old_repr"] = base.String()
		f.Facts["new_repr"] = cur.String()
		out = append(out, f)
	}
	return out, nil
}

func reprCRemoved(_ *Input, _ counterpart, base, cur snapshot.Repr) bool {
	return base.C && !cur.C
}

// reprTransparentRemoved only matters when the wrapped field is public API
// on both sides; otherwise the layout was never part of the interface.
func reprTransparentRemoved(in *Input, p counterpart, base, cur snapshot.Repr) bool {
	if !base.Transparent || cur.Transparent {
		return false
	}
	curFields := fieldsOf(in.Pair.Current, p.cur)
	for _, f := range fieldsOf(in.Pair.Baseline, p.base) {
		if !in.public(snapshot.Baseline, f) {
			continue
		}
		if c := in.byName(snapshot.Current, curFields, f.Name); c != nil && in.public(snapshot.Current, c) {
			return true
		}
	}
	return false
}

func reprPackedAdded(_ *Input, _ counterpart, base, cur snapshot.Repr) bool {
	return base.Packed == 0 && cur.Packed > 0
}

func reprPackedRemoved(_ *Input, _ counterpart, base, cur snapshot.Repr) bool {
	return base.Packed > 0 && cur.Packed == 0
}

func reprPackedChanged(_ *Input, _ counterpart, base, cur snapshot.Repr) bool {
	return base.Packed > 0 && cur.Packed > 0 && base.Packed != cur.Packed
}

func reprAlignChanged(_ *Input, _ counterpart, base, cur snapshot.Repr) bool {
	return base.Align != cur.Align
}

func enumReprIntChanged(_ *Input, _ counterpart, base, cur snapshot.Repr) bool {
	return base.Int != "" && cur.Int != "" && base.Int != cur.Int
}

func enumReprIntRemoved(_ *Input, _ counterpart, base, cur snapshot.Repr) bool {
	return base.Int != "" && cur.Int == ""
}

// discriminantRule reports variants whose discriminant value changed.
type discriminantRule struct {
	meta Meta
}

func (r *discriminantRule) Meta() Meta { return r.meta }

func (r *discriminantRule) Match(ctx context.Context, in *Input) ([]Finding, error) {
	var out []Finding
	for _, p := range in.present(ofFamily("enum")) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		baseVariants := variantsOf(in.Pair.Baseline, p.base)
		curVariants := variantsOf(in.Pair.Current, p.cur)
		if !discriminantsObservable(p.base, baseVariants) || !discriminantsObservable(p.cur, curVariants) {
			continue
		}
		baseValues := discriminants(baseVariants)
		curValues := discriminants(curVariants)

		path := in.Resolver.PathOf(snapshot.Baseline, p.base.ID)
		for i, v := range baseVariants {
			c := in.byName(snapshot.Current, curVariants, v.Name)
			if c == nil {
				continue
			}
			j := indexOf(curVariants, c)
			old, cur := baseValues[i], curValues[j]
			if !old.known || !cur.known || old.value == cur.value {
				continue
			}
			f := r.meta.finding(in, v, c, fmt.Sprintf("variant %s::%s changed discriminant from %d to %d", path, v.Name, old.value, cur.value))
			f.Item = path + "::" + v.Name
			f.Facts["owner"] = path
			f.Facts["member"] = v.Name
			f.Facts["old_discriminant"] = strconv.FormatInt(old.value, 10)
			f.Facts["new_discriminant"] = strconv.FormatInt(cur.value, 10)
			out = append(out, f)
		}
	}
	return out, nil
}

// discriminantsObservable reports whether downstream code can observe
// discriminant values: an integer repr, or only unit variants (`as` casts).
func discriminantsObservable(enum *snapshot.Item, variants []*snapshot.Item) bool {
	if snapshot.ParseRepr(enum.Attrs.Repr).Int != "" {
		return true
	}
	for _, v := range variants {
		if shapeOf(v) != snapshot.ShapeUnit {
			return false
		}
	}
	return len(variants) > 0
}

type discriminant struct {
	value int64
	known bool
}

// discriminants assigns each variant its explicit value, or the previous
// value plus one starting at zero. Values after an unparsable expression
// are unknown until the next explicit literal.
func discriminants(variants []*snapshot.Item) []discriminant {
	out := make([]discriminant, len(variants))
	next := discriminant{value: 0, known: true}
	for i, v := range variants {
		d := next
		if v.Discriminant != "" {
			n, ok := parseDiscriminant(v.Discriminant)
			d = discriminant{value: n, known: ok}
		}
		out[i] = d
		next = discriminant{value: d.value + 1, known: d.known}
	}
	return out
}

var intSuffixes = []string{"usize", "isize", "u128", "i128", "u64", "i64", "u32", "i32", "u16", "i16", "u8", "i8"}

func parseDiscriminant(s string) (int64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), "_", "")
	for _, suffix := range intSuffixes {
		if strings.HasSuffix(s, suffix) {
			s = strings.TrimSuffix(s, suffix)
			break
		}
	}
	n, err := strconv.ParseInt(s, 0, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func indexOf(items []*snapshot.Item, it *snapshot.Item) int {
	for i, x := range items {
		if x == it {
			return i
		}
	}
	return -1
}
