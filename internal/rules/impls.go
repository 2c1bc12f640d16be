package rules

import (
	"context"
	"fmt"

	"semcheck/internal/snapshot"
)

// implRule reports trait implementations that present types lost.
// synthetic selects compiler-derived auto trait impls instead of written ones.
type implRule struct {
	meta      Meta
	synthetic bool
}

func (r *implRule) Meta() Meta { return r.meta }

func (r *implRule) Match(ctx context.Context, in *Input) ([]Finding, error) {
	var out []Finding
	for _, p := range in.present(ofFamily("struct", "enum", "union")) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		have := make(map[string]bool)
		for _, impl := range in.Pair.Current.Impls(p.cur.ID) {
			if impl.Impl.Inherent() || impl.Impl.Negative {
				continue
			}
			have[r.currentKey(impl)] = true
		}

		typePath := in.Resolver.PathOf(snapshot.Baseline, p.base.ID)
		for _, impl := range in.Pair.Baseline.Impls(p.base.ID) {
			if impl.Impl.Inherent() || impl.Impl.Negative || impl.Impl.Synthetic != r.synthetic {
				continue
			}
			if !in.public(snapshot.Baseline, impl) {
				continue
			}
			key, ok := r.baselineKey(in, impl)
			if !ok || have[key] {
				continue
			}
			f := r.meta.finding(in, p.base, p.cur, fmt.Sprintf("%s %s no longer implements %s", describe(p.base.Kind), typePath, impl.Impl.Trait))
			f.Item = typePath
			f.Facts["type_path"] = typePath
			f.Facts["trait"] = impl.Impl.Trait
			if impl.Impl.TraitID != "" {
				f.Facts["trait"] = in.Resolver.PathOf(snapshot.Baseline, impl.Impl.TraitID)
			}
			out = append(out, f)
		}
	}
	return out, nil
}

// baselineKey identifies the implemented trait across versions. Local
// traits go through their counterpart; a trait that is gone entirely is
// reported by the trait removal rules instead.
func (r *implRule) baselineKey(in *Input, impl *snapshot.Item) (string, bool) {
	if impl.Impl.TraitID == "" {
		return "ext:" + impl.Impl.Trait, true
	}
	cur, ok := in.Resolver.Counterpart(impl.Impl.TraitID)
	if !ok {
		return "", false
	}
	return "id:" + string(cur.ID), true
}

func (r *implRule) currentKey(impl *snapshot.Item) string {
	if impl.Impl.TraitID == "" {
		return "ext:" + impl.Impl.Trait
	}
	return "id:" + string(impl.Impl.TraitID)
}
