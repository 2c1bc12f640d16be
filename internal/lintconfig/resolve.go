// Package lintconfig resolves per-rule lint levels and required bumps from
// built-in defaults, lint-group defaults, and workspace and package
// overrides read from the current version's manifest.
package lintconfig

import (
	"fmt"
	"sort"

	semerrors "semcheck/internal/errors"
	"semcheck/internal/release"
	"semcheck/internal/rules"
)

// Scope is where an override was declared. Scopes are ordered from lowest
// to highest default precedence.
type Scope int

const (
	ScopeDefault Scope = iota
	ScopeGroup
	ScopeWorkspace
	ScopePackage
)

var scopeNames = map[Scope]string{
	ScopeDefault:   "default",
	ScopeGroup:     "group",
	ScopeWorkspace: "workspace",
	ScopePackage:   "package",
}

func (s Scope) String() string {
	if name, ok := scopeNames[s]; ok {
		return name
	}
	return fmt.Sprintf("lintconfig.Scope(%d)", int(s))
}

// Override sets the level and/or required bump of a rule or of every rule
// in a group. An empty Level or a NotChanged Bump leaves that field alone.
type Override struct {
	Scope    Scope
	Target   string
	Level    rules.Level
	Bump     release.Type
	Priority int
	// Source names where the override was read, for diagnostics.
	Source string
}

func (o Override) String() string {
	if o.Source != "" {
		return o.Source
	}
	return fmt.Sprintf("%s override of %s", o.Scope, o.Target)
}

// Effective is the resolved configuration of one rule.
type Effective struct {
	Level   rules.Level  `json:"level"`
	Bump    release.Type `json:"requiredUpdate"`
	Enabled bool         `json:"enabled"`
	// LevelSource and BumpSource name the override that set each field.
	LevelSource string `json:"levelSource"`
	BumpSource  string `json:"bumpSource"`
}

// EffectiveConfig maps every catalog rule id to its resolved configuration.
type EffectiveConfig map[string]Effective

// For returns the configuration of a rule.
func (c EffectiveConfig) For(id string) (Effective, bool) {
	e, ok := c[id]
	return e, ok
}

// Enabled reports whether a rule will be evaluated.
func (c EffectiveConfig) Enabled(id string) bool {
	return c[id].Enabled
}

// precedence orders overrides. Higher keys are applied later and win.
type precedence struct {
	priority    int
	scope       Scope
	specificity int
}

func (p precedence) less(q precedence) bool {
	if p.priority != q.priority {
		return p.priority < q.priority
	}
	if p.scope != q.scope {
		return p.scope < q.scope
	}
	return p.specificity < q.specificity
}

type candidate struct {
	key      precedence
	override Override
}

// Resolve computes the effective configuration of every rule in catalog.
// Rule defaults are applied first, then group defaults, then user overrides
// in ascending (priority, scope, specificity) order, field by field. Two
// overrides with the same precedence that set the same field of a rule are
// a CONFIG_CONFLICT; unknown targets or empty overrides are CONFIG_INVALID.
func Resolve(catalog *rules.Catalog, overrides []Override) (EffectiveConfig, error) {
	for _, o := range overrides {
		if err := validate(catalog, o); err != nil {
			return nil, err
		}
	}

	out := make(EffectiveConfig, catalog.Len())
	for _, r := range catalog.Rules() {
		m := r.Meta()
		eff := Effective{
			Level:       m.Level,
			Bump:        m.Bump,
			LevelSource: "default",
			BumpSource:  "default",
		}
		if g, ok := catalog.Group(m.Group); ok {
			source := "group " + string(g.ID)
			if g.Level != "" {
				eff.Level, eff.LevelSource = g.Level, source
			}
			if g.Bump != release.NotChanged {
				eff.Bump, eff.BumpSource = g.Bump, source
			}
		}

		cands := applicable(m, overrides)
		if err := checkConflicts(m.ID, cands); err != nil {
			return nil, err
		}
		for _, c := range cands {
			if c.override.Level != "" {
				eff.Level, eff.LevelSource = c.override.Level, c.override.String()
			}
			if c.override.Bump != release.NotChanged {
				eff.Bump, eff.BumpSource = c.override.Bump, c.override.String()
			}
		}
		eff.Enabled = eff.Level.Enabled()
		out[m.ID] = eff
	}
	return out, nil
}

func validate(catalog *rules.Catalog, o Override) error {
	invalid := func(msg string) error {
		return semerrors.New(semerrors.ConfigInvalid, msg, nil).WithDetails(map[string]string{
			"target": o.Target,
			"source": o.String(),
		})
	}
	if o.Scope != ScopeWorkspace && o.Scope != ScopePackage {
		return invalid(fmt.Sprintf("override of %q has scope %s; only workspace and package overrides are configurable", o.Target, o.Scope))
	}
	_, isRule := catalog.Lookup(o.Target)
	_, isGroup := catalog.Group(rules.Group(o.Target))
	if !isRule && !isGroup {
		return invalid(fmt.Sprintf("unknown lint or lint group %q", o.Target))
	}
	if o.Level != "" {
		if _, err := rules.ParseLevel(string(o.Level)); err != nil {
			return invalid(err.Error())
		}
	}
	if o.Level == "" && o.Bump == release.NotChanged {
		return invalid(fmt.Sprintf("override of %q sets neither level nor required-update", o.Target))
	}
	return nil
}

// applicable returns the overrides that reach a rule, sorted by precedence.
func applicable(m rules.Meta, overrides []Override) []candidate {
	var out []candidate
	for _, o := range overrides {
		var specificity int
		switch o.Target {
		case m.ID:
			specificity = 1
		case string(m.Group):
			specificity = 0
		default:
			continue
		}
		out = append(out, candidate{key: precedence{o.Priority, o.Scope, specificity}, override: o})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].key.less(out[j].key) })
	return out
}

func checkConflicts(id string, cands []candidate) error {
	type slot struct {
		key   precedence
		field string
	}
	seen := make(map[slot]Override)
	for _, c := range cands {
		var fields []string
		if c.override.Level != "" {
			fields = append(fields, "level")
		}
		if c.override.Bump != release.NotChanged {
			fields = append(fields, "required-update")
		}
		for _, field := range fields {
			k := slot{c.key, field}
			prev, dup := seen[k]
			if !dup {
				seen[k] = c.override
				continue
			}
			return semerrors.New(semerrors.ConfigConflict,
				fmt.Sprintf("%s and %s both set the %s of %s at the same precedence", prev, c.override, field, id), nil).
				WithDetails(map[string]string{
					"rule":   id,
					"field":  field,
					"first":  prev.String(),
					"second": c.override.String(),
				})
		}
	}
	return nil
}
