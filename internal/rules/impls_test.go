package rules

import (
	"testing"

	st "semcheck/internal/snapshot/snapshottest"
)

func TestTraitImplRemoved(t *testing.T) {
	t.Run("external trait", func(t *testing.T) {
		base, cur := pair()
		s := base.Struct(base.Root(), "S")
		base.Impl(s, "Clone")
		base.Impl(s, "Debug")
		cs := cur.Struct(cur.Root(), "S")
		cur.Impl(cs, "Debug")

		wantFired(t, runAll(t, base, cur), "trait_impl_removed")
		f := run(t, "trait_impl_removed", base, cur)[0]
		if f.Item != "krate::S" || f.Facts["trait"] != "Clone" || f.Facts["type_path"] != "krate::S" {
			t.Errorf("finding = %+v", f)
		}
	})

	t.Run("auto trait", func(t *testing.T) {
		base, cur := pair()
		s := base.Struct(base.Root(), "S")
		base.Impl(s, "Send", st.Synthetic())
		base.Impl(s, "Sync", st.Synthetic())
		cs := cur.Struct(cur.Root(), "S")
		cur.Impl(cs, "Sync", st.Synthetic())
		wantFired(t, runAll(t, base, cur), "auto_trait_impl_removed")
	})

	t.Run("local trait", func(t *testing.T) {
		base, cur := pair()
		tr := base.Trait(base.Root(), "Tr")
		s := base.Struct(base.Root(), "S")
		base.Impl(s, "Tr", st.TraitID(tr.ID))
		cur.Trait(cur.Root(), "Tr")
		cur.Struct(cur.Root(), "S")

		findings := run(t, "trait_impl_removed", base, cur)
		wantCount(t, findings, 1)
		if findings[0].Facts["trait"] != "krate::Tr" {
			t.Errorf("trait fact = %q, want krate::Tr", findings[0].Facts["trait"])
		}
	})

	t.Run("local trait relocated", func(t *testing.T) {
		base, cur := pair()
		tr := base.Trait(base.Root(), "Tr")
		s := base.Struct(base.Root(), "S")
		base.Impl(s, "Tr", st.TraitID(tr.ID))

		inner := cur.Module(cur.Root(), "inner", st.Private())
		ctr := cur.Trait(inner, "Tr")
		cur.Reexport(cur.Root(), "Tr", ctr)
		cs := cur.Struct(cur.Root(), "S")
		cur.Impl(cs, "Tr", st.TraitID(ctr.ID))
		wantFired(t, runAll(t, base, cur))
	})

	t.Run("trait removed with its impl", func(t *testing.T) {
		base, cur := pair()
		tr := base.Trait(base.Root(), "Tr")
		s := base.Struct(base.Root(), "S")
		base.Impl(s, "Tr", st.TraitID(tr.ID))
		cur.Struct(cur.Root(), "S")
		wantFired(t, runAll(t, base, cur), "trait_missing")
	})

	t.Run("impl of a private trait", func(t *testing.T) {
		base, cur := pair()
		tr := base.Trait(base.Root(), "Internal", st.Private())
		s := base.Struct(base.Root(), "S")
		base.Impl(s, "Internal", st.TraitID(tr.ID))
		cur.Trait(cur.Root(), "Internal", st.Private())
		cur.Struct(cur.Root(), "S")
		wantFired(t, runAll(t, base, cur))
	})
}
