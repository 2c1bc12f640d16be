package rules

import (
	"context"
	"fmt"

	"semcheck/internal/snapshot"
)

// addedRule reports new public API, which needs at least a minor release.
type addedRule struct {
	meta Meta
}

func (r *addedRule) Meta() Meta { return r.meta }

func (r *addedRule) Match(ctx context.Context, in *Input) ([]Finding, error) {
	var out []Finding
	for _, it := range in.Resolver.Added() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path := in.Resolver.PathOf(snapshot.Current, it.ID)
		f := r.meta.finding(in, nil, it, fmt.Sprintf("%s %s was added", describe(it.Kind), path))
		f.Facts["path"] = path
		out = append(out, f)
	}
	return out, nil
}
