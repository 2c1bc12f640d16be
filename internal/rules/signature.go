package rules

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"semcheck/internal/snapshot"
)

var identRe = regexp.MustCompile(`'?[A-Za-z_][A-Za-z0-9_]*`)

// canonicalType renders a type with whitespace removed. With positional
// set, generic parameter names are replaced by their position, so renaming
// a generic parameter is invisible.
func canonicalType(t snapshot.Type, generics []snapshot.GenericParam, positional bool) string {
	repr := t.Repr
	if positional {
		pos := make(map[string]string, len(generics))
		lifetimes, others := 0, 0
		for _, g := range generics {
			if g.Kind == snapshot.GenericLifetime {
				pos[g.Name] = "'#" + strconv.Itoa(lifetimes)
				lifetimes++
			} else {
				pos[g.Name] = "#" + strconv.Itoa(others)
				others++
			}
		}
		repr = identRe.ReplaceAllStringFunc(repr, func(tok string) string {
			if p, ok := pos[tok]; ok {
				return p
			}
			return tok
		})
	}
	return strings.Join(strings.Fields(repr), "")
}

// arity counts the generic parameters a call site can supply explicitly.
func arity(generics []snapshot.GenericParam) int {
	n := 0
	for _, g := range generics {
		if g.Kind != snapshot.GenericLifetime {
			n++
		}
	}
	return n
}

func params(it *snapshot.Item) []snapshot.Param {
	if it.Signature == nil {
		return nil
	}
	return it.Signature.Params
}

func renderParams(it *snapshot.Item) string {
	ps := params(it)
	parts := make([]string, len(ps))
	for i, p := range ps {
		if p.Name != "" {
			parts[i] = p.Name + ": " + p.Type.Repr
		} else {
			parts[i] = p.Type.Repr
		}
	}
	return strings.Join(parts, ", ")
}

func renderTypes(it *snapshot.Item) string {
	ps := params(it)
	parts := make([]string, len(ps))
	for i, p := range ps {
		parts[i] = p.Type.Repr
	}
	return strings.Join(parts, ", ")
}

func renderOutput(it *snapshot.Item) string {
	if it.Signature == nil || it.Signature.Output == nil {
		return ""
	}
	return it.Signature.Output.Repr
}

// typesEqual compares parameter types pairwise.
func typesEqual(a, b *snapshot.Item, positional bool) bool {
	pa, pb := params(a), params(b)
	if len(pa) != len(pb) {
		return false
	}
	for i := range pa {
		if canonicalType(pa[i].Type, a.Generics, positional) != canonicalType(pb[i].Type, b.Generics, positional) {
			return false
		}
	}
	return true
}

func sameGenericNames(a, b []snapshot.GenericParam) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]bool, len(a))
	for _, g := range a {
		seen[g.Name] = true
	}
	for _, g := range b {
		if !seen[g.Name] {
			return false
		}
	}
	return true
}

// reordered reports a generic parameter reorder that call sites can
// observe. Swapping like-for-like parameters is not a reorder.
func reordered(a, b *snapshot.Item) bool {
	if !sameGenericNames(a.Generics, b.Generics) || !typesEqual(a, b, false) {
		return false
	}
	if !typesEqual(a, b, true) {
		return true
	}
	return genericProfile(a.Generics) != genericProfile(b.Generics)
}

// genericProfile is the call-site view of a generic list: the kind and
// bounds at each explicit position.
func genericProfile(gs []snapshot.GenericParam) string {
	var parts []string
	for _, g := range gs {
		if g.Kind == snapshot.GenericLifetime {
			continue
		}
		bounds := make([]string, len(g.Bounds))
		for i, b := range g.Bounds {
			bounds[i] = canonicalType(snapshot.Type{Repr: b}, gs, true)
		}
		sort.Strings(bounds)
		parts = append(parts, string(g.Kind)+":"+strings.Join(bounds, "+"))
	}
	return strings.Join(parts, ",")
}

type sigCheck int

const (
	sigParamCount sigCheck = iota
	sigParamType
	sigGenericCount
	sigGenericOrder
)

// signatureRule compares functions, or inherent methods of present types.
type signatureRule struct {
	meta    Meta
	methods bool
	check   sigCheck
}

func (r *signatureRule) Meta() Meta { return r.meta }

func (r *signatureRule) Match(ctx context.Context, in *Input) ([]Finding, error) {
	var out []Finding
	if !r.methods {
		for _, p := range in.present(ofFamily("function")) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			path := in.Resolver.PathOf(snapshot.Baseline, p.base.ID)
			if f, ok := r.compare(in, path, p.base, p.cur); ok {
				out = append(out, f)
			}
		}
		return out, nil
	}

	for _, p := range in.present(ofFamily("struct", "enum", "union")) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		owner := in.Resolver.PathOf(snapshot.Baseline, p.base.ID)
		curMethods := inherentMethods(in.Pair.Current, p.cur)
		for _, m := range inherentMethods(in.Pair.Baseline, p.base) {
			if !in.public(snapshot.Baseline, m) {
				continue
			}
			c := in.byName(snapshot.Current, curMethods, m.Name)
			if c == nil || !in.public(snapshot.Current, c) {
				continue
			}
			if f, ok := r.compare(in, owner+"::"+m.Name, m, c); ok {
				f.Item = owner + "::" + m.Name
				f.Facts["owner"] = owner
				f.Facts["member"] = m.Name
				out = append(out, f)
			}
		}
	}
	return out, nil
}

func (r *signatureRule) compare(in *Input, path string, base, cur *snapshot.Item) (Finding, bool) {
	noun := "function"
	if r.methods {
		noun = "method"
	}

	var msg string
	switch r.check {
	case sigParamCount:
		if len(params(base)) == len(params(cur)) {
			return Finding{}, false
		}
		msg = fmt.Sprintf("%s %s now takes %d parameters instead of %d", noun, path, len(params(cur)), len(params(base)))
	case sigParamType:
		if len(params(base)) != len(params(cur)) || typesEqual(base, cur, true) || reordered(base, cur) {
			return Finding{}, false
		}
		msg = fmt.Sprintf("%s %s changed parameter types from (%s) to (%s)", noun, path, renderTypes(base), renderTypes(cur))
	case sigGenericCount:
		if arity(base.Generics) == arity(cur.Generics) {
			return Finding{}, false
		}
		msg = fmt.Sprintf("%s %s now has %d generic parameters instead of %d", noun, path, arity(cur.Generics), arity(base.Generics))
	case sigGenericOrder:
		if arity(base.Generics) != arity(cur.Generics) || !reordered(base, cur) {
			return Finding{}, false
		}
		msg = fmt.Sprintf("%s %s reordered its generic parameters from <%s> to <%s>", noun, path, genericNames(base.Generics), genericNames(cur.Generics))
	}

	f := r.meta.finding(in, base, cur, msg)
	f.Facts["path"] = path
	f.Facts["name"] = base.Name
	f.Facts["old_params"] = renderParams(base)
	f.Facts["new_params"] = renderParams(cur)
	f.Facts["old_types"] = renderTypes(base)
	f.Facts["new_types"] = renderTypes(cur)
	f.Facts["old_arity"] = strconv.Itoa(len(params(base)))
	if out := renderOutput(base); out != "" {
		f.Facts["old_output"] = out
	}
	if base.Attrs.Unsafe {
		f.Facts["unsafe"] = "true"
	}
	return f, true
}

func genericNames(gs []snapshot.GenericParam) string {
	parts := make([]string, len(gs))
	for i, g := range gs {
		parts[i] = g.Name
	}
	return strings.Join(parts, ", ")
}

// mutableStaticRule reports statics that became `static mut`.
type mutableStaticRule struct {
	meta Meta
}

func (r *mutableStaticRule) Meta() Meta { return r.meta }

func (r *mutableStaticRule) Match(ctx context.Context, in *Input) ([]Finding, error) {
	var out []Finding
	for _, p := range in.present(ofFamily("static")) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if p.base.Mutable || !p.cur.Mutable {
			continue
		}
		path := in.Resolver.PathOf(snapshot.Baseline, p.base.ID)
		f := r.meta.finding(in, p.base, p.cur, fmt.Sprintf("static %s is now mutable and requires unsafe to read", path))
		f.Facts["path"] = path
		out = append(out, f)
	}
	return out, nil
}
