package rules

import (
	"testing"

	"semcheck/internal/snapshot"
	st "semcheck/internal/snapshot/snapshottest"
)

func TestTraitNewlySealed(t *testing.T) {
	tests := []struct {
		name  string
		build func(base, cur *st.Builder)
		want  []string
		seal  string
	}{
		{
			name: "private supertrait",
			build: func(base, cur *st.Builder) {
				priv := cur.Module(cur.Root(), "private", st.Private())
				sealed := cur.Trait(priv, "Sealed")
				cur.Trait(cur.Root(), "Tr", st.Supertraits(st.T("private::Sealed", sealed)))
			},
			want: []string{"trait_newly_sealed"},
			seal: "sealed",
		},
		{
			name: "hidden supertrait",
			build: func(base, cur *st.Builder) {
				sealed := cur.Trait(cur.Root(), "Sealed", st.Hidden())
				cur.Trait(cur.Root(), "Tr", st.Supertraits(st.T("Sealed", sealed)))
			},
			want: []string{"trait_newly_sealed"},
			seal: "public-API sealed",
		},
		{
			name: "transitive supertrait",
			build: func(base, cur *st.Builder) {
				base.Trait(base.Root(), "Mid")
				priv := cur.Module(cur.Root(), "private", st.Private())
				sealed := cur.Trait(priv, "Sealed")
				mid := cur.Trait(cur.Root(), "Mid", st.Supertraits(st.T("private::Sealed", sealed)))
				cur.Trait(cur.Root(), "Tr", st.Supertraits(st.T("Mid", mid)))
			},
			want: []string{"trait_newly_sealed", "trait_newly_sealed"},
		},
		{
			name: "required method with private type",
			build: func(base, cur *st.Builder) {
				token := cur.Struct(cur.Root(), "Token", st.Private())
				tr := cur.Trait(cur.Root(), "Tr")
				cur.Method(tr, "m", st.Params(st.P("t", "Token", token)))
			},
			want: []string{"trait_newly_sealed"},
		},
		{
			name: "provided method with private type",
			build: func(base, cur *st.Builder) {
				token := cur.Struct(cur.Root(), "Token", st.Private())
				tr := cur.Trait(cur.Root(), "Tr")
				cur.Method(tr, "m", st.HasDefault(), st.Params(st.P("t", "Token", token)))
			},
		},
		{
			name: "trait made private",
			build: func(base, cur *st.Builder) {
				priv := cur.Module(cur.Root(), "private", st.Private())
				sealed := cur.Trait(priv, "Sealed")
				cur.Trait(cur.Root(), "Tr", st.Private(), st.Supertraits(st.T("private::Sealed", sealed)))
			},
			want: []string{"trait_now_private"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base, cur := pair()
			base.Trait(base.Root(), "Tr")
			tt.build(base, cur)
			wantFired(t, runAll(t, base, cur), tt.want...)

			if tt.seal != "" {
				f := run(t, "trait_newly_sealed", base, cur)[0]
				if f.Facts["sealing"] != tt.seal {
					t.Errorf("sealing = %q, want %q", f.Facts["sealing"], tt.seal)
				}
			}
		})
	}
}

func TestAlreadySealedTrait(t *testing.T) {
	build := func(b *st.Builder, extra bool) {
		priv := b.Module(b.Root(), "private", st.Private())
		sealed := b.Trait(priv, "Sealed")
		tr := b.Trait(b.Root(), "Tr", st.Supertraits(st.T("private::Sealed", sealed)))
		if extra {
			b.Method(tr, "new_required")
		}
	}
	base, cur := pair()
	build(base, false)
	build(cur, true)
	wantFired(t, runAll(t, base, cur))
}

func TestTraitRequiredMethodAdded(t *testing.T) {
	base, cur := pair()
	tr := base.Trait(base.Root(), "Tr")
	base.Method(tr, "defaulted", st.HasDefault())
	ctr := cur.Trait(cur.Root(), "Tr")
	cur.Method(ctr, "defaulted")
	cur.Method(ctr, "required")
	cur.Method(ctr, "optional", st.HasDefault())

	findings := run(t, "trait_required_method_added", base, cur)
	wantCount(t, findings, 2)
	if findings[0].Facts["member"] != "defaulted" || findings[1].Facts["member"] != "required" {
		t.Errorf("members = %s, %s", findings[0].Facts["member"], findings[1].Facts["member"])
	}
}

func TestSealingCycle(t *testing.T) {
	b := st.New("krate", "1.0.0")
	a := b.Trait(b.Root(), "A")
	c := b.Trait(b.Root(), "C", st.Supertraits(st.T("A", a)))
	a.Supertraits = []snapshot.Type{st.T("C", c)}
	snap := b.Build()
	in := NewInput(&snapshot.Pair{Baseline: snap, Current: snap})
	if got := in.sealing(snapshot.Current, a, map[snapshot.ID]bool{}); got != Unsealed {
		t.Errorf("sealing() = %s, want unsealed", got)
	}
}
