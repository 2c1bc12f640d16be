package rules

import (
	"fmt"
	"sort"

	"semcheck/internal/identity"
	"semcheck/internal/release"
)

// GroupMeta describes a lint group. A zero Level or Bump means the group
// does not override its rules' defaults.
type GroupMeta struct {
	ID          Group
	Description string
	Level       Level
	Bump        release.Type
}

var groups = []GroupMeta{
	{ID: GroupRemoval, Description: "public items or members that no longer exist"},
	{ID: GroupVisibility, Description: "public items or members that became hidden or private"},
	{ID: GroupExhaustiveness, Description: "changes to what downstream code can construct or match exhaustively"},
	{ID: GroupLayout, Description: "representation and discriminant changes visible through the ABI"},
	{ID: GroupSealing, Description: "changes to whether downstream code can implement a trait"},
	{ID: GroupSignature, Description: "parameter, generic and mutability changes of callables and statics"},
	{ID: GroupAttribute, Description: "attribute transitions on items and members"},
	{ID: GroupTraitImpl, Description: "trait implementations that were removed"},
	{ID: GroupDeprecation, Description: "newly deprecated items and members", Level: Warn, Bump: release.Minor},
	{ID: GroupAddition, Description: "new public API", Level: Allow},
}

// Catalog is the closed, ordered set of rules of a run.
type Catalog struct {
	rules  []Rule
	byID   map[string]Rule
	groups map[Group]GroupMeta
}

// NewCatalog validates rules: ids are unique and non-empty, groups and
// levels are known.
func NewCatalog(rules ...Rule) (*Catalog, error) {
	c := &Catalog{
		rules:  rules,
		byID:   make(map[string]Rule, len(rules)),
		groups: make(map[Group]GroupMeta, len(groups)),
	}
	for _, g := range groups {
		c.groups[g.ID] = g
	}
	for _, r := range rules {
		m := r.Meta()
		if m.ID == "" {
			return nil, fmt.Errorf("rule with empty id in group %q", m.Group)
		}
		if _, dup := c.byID[m.ID]; dup {
			return nil, fmt.Errorf("duplicate rule id %q", m.ID)
		}
		if _, ok := c.groups[m.Group]; !ok {
			return nil, fmt.Errorf("rule %q: unknown group %q", m.ID, m.Group)
		}
		if _, err := ParseLevel(string(m.Level)); err != nil {
			return nil, fmt.Errorf("rule %q: %w", m.ID, err)
		}
		if m.Bump == release.NotChanged {
			return nil, fmt.Errorf("rule %q: no required bump", m.ID)
		}
		if _, ok := c.groups[Group(m.ID)]; ok {
			return nil, fmt.Errorf("rule id %q collides with a group id", m.ID)
		}
		c.byID[m.ID] = r
	}
	return c, nil
}

// Rules returns the rules in catalog order.
func (c *Catalog) Rules() []Rule { return c.rules }

// Len returns the number of rules.
func (c *Catalog) Len() int { return len(c.rules) }

// Lookup finds a rule by id.
func (c *Catalog) Lookup(id string) (Rule, bool) {
	r, ok := c.byID[id]
	return r, ok
}

// Group finds a group by id.
func (c *Catalog) Group(id Group) (GroupMeta, bool) {
	g, ok := c.groups[id]
	return g, ok
}

// Groups returns all groups sorted by id.
func (c *Catalog) Groups() []GroupMeta {
	out := make([]GroupMeta, 0, len(c.groups))
	for _, g := range c.groups {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// InGroup returns the ids of a group's rules in catalog order.
func (c *Catalog) InGroup(g Group) []string {
	var out []string
	for _, r := range c.rules {
		if r.Meta().Group == g {
			out = append(out, r.Meta().ID)
		}
	}
	return out
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := NewCatalog(builtin()...)
	if err != nil {
		panic(err)
	}
	return c
}

func major(id string, g Group, category, desc, witness string) Meta {
	return Meta{ID: id, Group: g, Category: category, Description: desc, Level: Deny, Bump: release.Major, Witness: witness}
}

const (
	catRemoved     = "item removed"
	catRestricted  = "became more restrictive"
	catExhaustive  = "exhaustiveness changed"
	catReprRemoved = "representation attribute removed"
	catReprChanged = "representation attribute changed"
	catSealing     = "trait implementability changed"
	catSignature   = "signature changed"
	catAttribute   = "attribute changed"
	catDeprecated  = "deprecated"
	catImpl        = "trait implementation removed"
	catAdded       = "item added"
)

var itemFamilies = []string{"struct", "enum", "union", "trait", "function", "constant", "static", "module", "macro"}

func builtin() []Rule {
	var rules []Rule

	for _, fam := range itemFamilies {
		rules = append(rules,
			&statusRule{
				meta:   major(fam+"_missing", GroupRemoval, catRemoved, fmt.Sprintf("A public %s can no longer be imported by any of its old paths.", fam), "item_import"),
				family: fam, status: identity.Missing,
			},
			&statusRule{
				meta:   major(fam+"_now_doc_hidden", GroupVisibility, catRestricted, fmt.Sprintf("A public %s is now only reachable through #[doc(hidden)] items.", fam), "item_import"),
				family: fam, status: identity.Hidden,
			},
			&statusRule{
				meta:   major(fam+"_now_private", GroupVisibility, catRestricted, fmt.Sprintf("A public %s still exists but is no longer public.", fam), "item_import"),
				family: fam, status: identity.Private,
			},
		)
	}

	rules = append(rules,
		&memberRule{meta: major("struct_pub_field_missing", GroupRemoval, catRemoved, "A public field of a struct was removed or made non-public.", "field_access"), member: memberField},
		&memberRule{meta: major("enum_variant_missing", GroupRemoval, catRemoved, "A variant of a public enum was removed.", "variant_path"), member: memberVariant},
		&memberRule{meta: major("inherent_method_missing", GroupRemoval, catRemoved, "A public inherent method was removed or made non-public.", "method_path"), member: memberInherentMethod},
		&memberRule{meta: major("trait_method_missing", GroupRemoval, catRemoved, "A method of a public trait was removed.", "method_path"), member: memberTraitMethod},
		&memberRule{meta: major("struct_pub_field_now_doc_hidden", GroupVisibility, catRestricted, "A public field of a struct is now #[doc(hidden)].", "field_access"), member: memberField, hidden: true},
		&memberRule{meta: major("enum_variant_now_doc_hidden", GroupVisibility, catRestricted, "A variant of a public enum is now #[doc(hidden)].", "variant_path"), member: memberVariant, hidden: true},
		&memberRule{meta: major("inherent_method_now_doc_hidden", GroupVisibility, catRestricted, "A public inherent method is now #[doc(hidden)].", "method_path"), member: memberInherentMethod, hidden: true},
		&memberRule{meta: major("trait_method_now_doc_hidden", GroupVisibility, catRestricted, "A method of a public trait is now #[doc(hidden)].", "method_path"), member: memberTraitMethod, hidden: true},
	)

	structNE := major("struct_marked_non_exhaustive", GroupExhaustiveness, catExhaustive, "A struct downstream code could build with a literal is now #[non_exhaustive].", "struct_pattern")
	enumNE := major("enum_marked_non_exhaustive", GroupExhaustiveness, catExhaustive, "An exhaustive enum is now #[non_exhaustive]; exhaustive matches need a wildcard arm.", "exhaustive_match")
	variantNE := major("variant_marked_non_exhaustive", GroupExhaustiveness, catExhaustive, "An enum variant downstream code could construct is now #[non_exhaustive].", "variant_literal")
	structNoNE := Meta{ID: "struct_no_longer_non_exhaustive", Group: GroupExhaustiveness, Category: catExhaustive,
		Description: "A #[non_exhaustive] struct with only public fields became constructible downstream.", Level: Deny, Bump: release.Minor}
	addsField := major("constructible_struct_adds_field", GroupExhaustiveness, catExhaustive, "A struct downstream code could build with a literal gained a field.", "struct_literal")
	variantAdded := major("enum_variant_added", GroupExhaustiveness, catExhaustive, "An exhaustive enum gained a variant, breaking exhaustive matches.", "exhaustive_match")
	rules = append(rules,
		&exhaustRule{meta: structNE, family: "struct", check: structNE.structMarkedNonExhaustive},
		&exhaustRule{meta: enumNE, family: "enum", check: enumNE.enumMarkedNonExhaustive},
		&exhaustRule{meta: variantNE, family: "enum", check: variantNE.variantMarkedNonExhaustive},
		&exhaustRule{meta: structNoNE, family: "struct", check: structNoNE.structNoLongerNonExhaustive},
		&exhaustRule{meta: addsField, family: "struct", check: addsField.constructibleStructAddsField},
		&exhaustRule{meta: variantAdded, family: "enum", check: variantAdded.enumVariantAdded},
	)

	adts := []string{"struct", "enum", "union"}
	rules = append(rules,
		&reprRule{meta: major("repr_c_removed", GroupLayout, catReprRemoved, "#[repr(C)] was removed; the layout is no longer guaranteed.", ""), families: adts, changed: reprCRemoved},
		&reprRule{meta: major("repr_transparent_removed", GroupLayout, catReprRemoved, "#[repr(transparent)] was removed from a type whose wrapped field is public.", ""), families: []string{"struct"}, changed: reprTransparentRemoved},
		&reprRule{meta: major("repr_packed_added", GroupLayout, catReprChanged, "#[repr(packed)] was added; references to fields may no longer be taken.", ""), families: adts, changed: reprPackedAdded},
		&reprRule{meta: major("repr_packed_removed", GroupLayout, catReprRemoved, "#[repr(packed)] was removed; the layout changes.", ""), families: adts, changed: reprPackedRemoved},
		&reprRule{meta: major("repr_packed_changed", GroupLayout, catReprChanged, "The #[repr(packed(N))] value changed.", ""), families: adts, changed: reprPackedChanged},
		&reprRule{meta: major("repr_align_changed", GroupLayout, catReprChanged, "The #[repr(align(N))] value changed.", ""), families: adts, changed: reprAlignChanged},
		&reprRule{meta: major("enum_repr_int_changed", GroupLayout, catReprChanged, "The primitive integer representation of an enum changed.", ""), families: []string{"enum"}, changed: enumReprIntChanged},
		&reprRule{meta: major("enum_repr_int_removed", GroupLayout, catReprRemoved, "The primitive integer representation of an enum was removed.", ""), families: []string{"enum"}, changed: enumReprIntRemoved},
		&discriminantRule{meta: major("enum_variant_discriminant_changed", GroupLayout, catReprChanged, "A variant's discriminant value changed on an enum whose discriminants are observable.", "")},
	)

	rules = append(rules,
		&sealingRule{meta: major("trait_newly_sealed", GroupSealing, catSealing, "A trait downstream code could implement is now sealed.", "trait_impl")},
		&requiredMethodRule{meta: major("trait_required_method_added", GroupSealing, catSealing, "An implementable trait gained a method without a default implementation.", "trait_impl")},
	)

	rules = append(rules,
		&signatureRule{meta: major("function_parameter_count_changed", GroupSignature, catSignature, "A public function takes a different number of parameters.", "function_call"), check: sigParamCount},
		&signatureRule{meta: major("function_parameter_type_changed", GroupSignature, catSignature, "A public function's parameter types changed.", "function_parameter_types"), check: sigParamType},
		&signatureRule{meta: major("method_parameter_count_changed", GroupSignature, catSignature, "A public method takes a different number of parameters.", "method_call"), methods: true, check: sigParamCount},
		&signatureRule{meta: major("method_parameter_type_changed", GroupSignature, catSignature, "A public method's parameter types changed.", "method_call"), methods: true, check: sigParamType},
		&signatureRule{meta: major("function_generic_param_count_changed", GroupSignature, catSignature, "A public function has a different number of type or const generic parameters.", ""), check: sigGenericCount},
		&signatureRule{meta: major("function_generic_params_reordered", GroupSignature, catSignature, "A public function's generic parameters were reordered in a way call sites observe.", ""), check: sigGenericOrder},
		&mutableStaticRule{meta: major("pub_static_now_mutable", GroupSignature, catSignature, "A public static became `static mut`.", "")},
	)

	rules = append(rules,
		&attrRule{meta: Meta{ID: "item_marked_deprecated", Group: GroupDeprecation, Category: catDeprecated,
			Description: "A public item is newly #[deprecated].", Level: Warn, Bump: release.Minor},
			scope: scopeItem, families: append(itemFamilies[:len(itemFamilies):len(itemFamilies)], "type_alias"), changed: deprecatedAdded},
		&attrRule{meta: Meta{ID: "member_marked_deprecated", Group: GroupDeprecation, Category: catDeprecated,
			Description: "A public field, variant, method or trait item is newly #[deprecated].", Level: Warn, Bump: release.Minor},
			scope: scopeMember, changed: deprecatedAdded},
		&attrRule{meta: Meta{ID: "item_must_use_added", Group: GroupAttribute, Category: catAttribute,
			Description: "A public item is newly #[must_use].", Level: Warn, Bump: release.Minor},
			scope: scopeItem, families: []string{"function", "struct", "enum", "union", "trait"}, changed: mustUseAdded},
		&attrRule{meta: Meta{ID: "method_must_use_added", Group: GroupAttribute, Category: catAttribute,
			Description: "A public inherent method is newly #[must_use].", Level: Warn, Bump: release.Minor},
			scope: scopeMethod, changed: mustUseAdded},
		&attrRule{meta: major("function_target_feature_added", GroupAttribute, catAttribute, "A public function requires additional target features.", ""), scope: scopeFunction, changed: targetFeatureAdded},
		&attrRule{meta: major("method_target_feature_added", GroupAttribute, catAttribute, "A public method requires additional target features.", ""), scope: scopeMethod, changed: targetFeatureAdded},
		&attrRule{meta: major("function_const_removed", GroupAttribute, catAttribute, "A public const fn is no longer const.", ""), scope: scopeFunction, changed: constRemoved},
		&attrRule{meta: major("method_const_removed", GroupAttribute, catAttribute, "A public const method is no longer const.", ""), scope: scopeMethod, changed: constRemoved},
		&attrRule{meta: major("function_unsafe_added", GroupAttribute, catAttribute, "A public function became unsafe to call.", "function_call"), scope: scopeFunction, changed: unsafeAdded},
		&attrRule{meta: major("method_unsafe_added", GroupAttribute, catAttribute, "A public method became unsafe to call.", ""), scope: scopeMethod, changed: unsafeAdded},
		&attrRule{meta: major("function_abi_changed", GroupAttribute, catAttribute, "A public function changed its calling convention.", ""), scope: scopeFunction, changed: abiChanged},
		&attrRule{meta: major("method_abi_changed", GroupAttribute, catAttribute, "A public method changed its calling convention.", ""), scope: scopeMethod, changed: abiChanged},
		&attrRule{meta: major("function_export_symbol_changed", GroupAttribute, catAttribute, "A function exported with #[no_mangle] or #[export_name] changed or lost its symbol.", ""), scope: scopeFunction, changed: exportSymbolChanged},
		&attrRule{meta: major("trait_unsafe_added", GroupAttribute, catAttribute, "An implementable trait became an unsafe trait.", ""), scope: scopeTrait, changed: traitUnsafeAdded},
		&attrRule{meta: major("trait_unsafe_removed", GroupAttribute, catAttribute, "An implementable unsafe trait is no longer unsafe; `unsafe impl` blocks stop compiling.", ""), scope: scopeTrait, changed: traitUnsafeRemoved},
	)

	rules = append(rules,
		&implRule{meta: major("trait_impl_removed", GroupTraitImpl, catImpl, "A public type no longer implements a trait it implemented.", "trait_bound")},
		&implRule{meta: major("auto_trait_impl_removed", GroupTraitImpl, catImpl, "A public type lost an auto trait such as Send or Sync.", "trait_bound"), synthetic: true},
		&addedRule{meta: Meta{ID: "item_added", Group: GroupAddition, Category: catAdded,
			Description: "New public API was added.", Level: Warn, Bump: release.Minor}},
	)
	return rules
}
