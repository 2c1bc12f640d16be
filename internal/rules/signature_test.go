package rules

import (
	"testing"

	"semcheck/internal/snapshot"
	st "semcheck/internal/snapshot/snapshottest"
)

func TestFunctionSignatureChanges(t *testing.T) {
	ty := snapshot.GenericType
	tests := []struct {
		name string
		base []st.Option
		cur  []st.Option
		want []string
	}{
		{
			name: "parameter type changed",
			base: []st.Option{st.Params(st.P("x", "i32"))},
			cur:  []st.Option{st.Params(st.P("x", "i64"))},
			want: []string{"function_parameter_type_changed"},
		},
		{
			name: "whitespace only",
			base: []st.Option{st.Params(st.P("x", "&'a  str"))},
			cur:  []st.Option{st.Params(st.P("x", "&'a str"))},
		},
		{
			name: "parameter added",
			base: []st.Option{st.Params(st.P("a", "i32"))},
			cur:  []st.Option{st.Params(st.P("a", "i32"), st.P("b", "i32"))},
			want: []string{"function_parameter_count_changed"},
		},
		{
			name: "generic renamed",
			base: []st.Option{st.Generics(st.G("T", ty)), st.Params(st.P("x", "T"))},
			cur:  []st.Option{st.Generics(st.G("U", ty)), st.Params(st.P("x", "U"))},
		},
		{
			name: "generics reordered",
			base: []st.Option{st.Generics(st.G("A", ty), st.G("B", ty)), st.Params(st.P("a", "A"), st.P("b", "B"))},
			cur:  []st.Option{st.Generics(st.G("B", ty), st.G("A", ty)), st.Params(st.P("a", "A"), st.P("b", "B"))},
			want: []string{"function_generic_params_reordered"},
		},
		{
			name: "like-for-like swap",
			base: []st.Option{st.Generics(st.G("A", ty), st.G("B", ty))},
			cur:  []st.Option{st.Generics(st.G("B", ty), st.G("A", ty))},
		},
		{
			name: "type and const swapped",
			base: []st.Option{st.Generics(st.G("T", ty), st.G("N", snapshot.GenericConst))},
			cur:  []st.Option{st.Generics(st.G("N", snapshot.GenericConst), st.G("T", ty))},
			want: []string{"function_generic_params_reordered"},
		},
		{
			name: "lifetime added",
			base: []st.Option{st.Generics(st.G("T", ty)), st.Params(st.P("x", "T"))},
			cur:  []st.Option{st.Generics(st.G("'a", snapshot.GenericLifetime), st.G("T", ty)), st.Params(st.P("x", "T"))},
		},
		{
			name: "type parameter added",
			base: []st.Option{st.Generics(st.G("T", ty)), st.Params(st.P("x", "T"))},
			cur:  []st.Option{st.Generics(st.G("T", ty), st.G("U", ty)), st.Params(st.P("x", "T"))},
			want: []string{"function_generic_param_count_changed"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base, cur := pair()
			base.Function(base.Root(), "f", tt.base...)
			cur.Function(cur.Root(), "f", tt.cur...)
			wantFired(t, runAll(t, base, cur), tt.want...)
		})
	}
}

func TestParameterTypeFacts(t *testing.T) {
	base, cur := pair()
	base.Function(base.Root(), "f", st.Params(st.P("x", "i32"), st.P("y", "&str")))
	cur.Function(cur.Root(), "f", st.Params(st.P("x", "i64"), st.P("y", "&str")))

	f := run(t, "function_parameter_type_changed", base, cur)[0]
	want := map[string]string{
		"path":      "krate::f",
		"old_types": "i32, &str",
		"new_types": "i64, &str",
		"old_arity": "2",
	}
	for k, v := range want {
		if f.Facts[k] != v {
			t.Errorf("Facts[%s] = %q, want %q", k, f.Facts[k], v)
		}
	}
}

func TestParameterCountFacts(t *testing.T) {
	base, cur := pair()
	base.Function(base.Root(), "f", st.Unsafe(), st.Params(st.P("a", "u8")))
	cur.Function(cur.Root(), "f", st.Unsafe())

	f := run(t, "function_parameter_count_changed", base, cur)[0]
	if f.Facts["unsafe"] != "true" || f.Facts["old_arity"] != "1" || f.Facts["old_params"] != "a: u8" {
		t.Errorf("facts = %v", f.Facts)
	}
}

func TestMethodParameterTypeChanged(t *testing.T) {
	base, cur := pair()
	s := base.Struct(base.Root(), "S")
	base.Method(base.Impl(s, ""), "m", st.Params(st.P("x", "u8")))
	cs := cur.Struct(cur.Root(), "S")
	cur.Method(cur.Impl(cs, ""), "m", st.Params(st.P("x", "u16")))

	wantFired(t, runAll(t, base, cur), "method_parameter_type_changed")
	f := run(t, "method_parameter_type_changed", base, cur)[0]
	if f.Item != "krate::S::m" || f.Facts["owner"] != "krate::S" || f.Facts["member"] != "m" {
		t.Errorf("finding = %+v", f)
	}
}

func TestStaticNowMutable(t *testing.T) {
	base, cur := pair()
	base.Add(base.Root(), snapshot.KindStatic, "S", st.Typ("u8"))
	cur.Add(cur.Root(), snapshot.KindStatic, "S", st.Typ("u8"), st.Mutable())
	wantFired(t, runAll(t, base, cur), "pub_static_now_mutable")
}

func TestCanonicalType(t *testing.T) {
	generics := []snapshot.GenericParam{
		st.G("'a", snapshot.GenericLifetime),
		st.G("T", snapshot.GenericType),
		st.G("N", snapshot.GenericConst),
	}
	tests := []struct {
		repr       string
		positional bool
		want       string
	}{
		{"&'a T", false, "&'aT"},
		{"&'a T", true, "&'#0#0"},
		{"[T; N]", true, "[#0;#1]"},
		{"Vec<Tx>", true, "Vec<Tx>"},
	}
	for _, tt := range tests {
		got := canonicalType(snapshot.Type{Repr: tt.repr}, generics, tt.positional)
		if got != tt.want {
			t.Errorf("canonicalType(%q, %v) = %q, want %q", tt.repr, tt.positional, got, tt.want)
		}
	}
}
