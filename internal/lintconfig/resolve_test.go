package lintconfig

import (
	"errors"
	"testing"

	semerrors "semcheck/internal/errors"
	"semcheck/internal/release"
	"semcheck/internal/rules"
)

func TestResolveDefaults(t *testing.T) {
	cfg, err := Resolve(rules.Default(), nil)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if len(cfg) != rules.Default().Len() {
		t.Errorf("len(cfg) = %d, want %d", len(cfg), rules.Default().Len())
	}

	tests := []struct {
		id      string
		level   rules.Level
		bump    release.Type
		enabled bool
		source  string
	}{
		{"function_missing", rules.Deny, release.Major, true, "default"},
		{"item_marked_deprecated", rules.Warn, release.Minor, true, "group deprecation"},
		{"item_added", rules.Allow, release.Minor, false, "group addition"},
	}
	for _, tt := range tests {
		e, ok := cfg.For(tt.id)
		if !ok {
			t.Fatalf("For(%q) not found", tt.id)
		}
		if e.Level != tt.level || e.Bump != tt.bump || e.Enabled != tt.enabled || e.LevelSource != tt.source {
			t.Errorf("%s = %+v, want %s/%s enabled=%v from %s", tt.id, e, tt.level, tt.bump, tt.enabled, tt.source)
		}
	}
}

func TestResolvePrecedence(t *testing.T) {
	tests := []struct {
		name      string
		overrides []Override
		id        string
		wantLevel rules.Level
		wantBump  release.Type
	}{
		{
			name: "package beats workspace",
			overrides: []Override{
				{Scope: ScopeWorkspace, Target: "enum_variant_added", Bump: release.Minor},
				{Scope: ScopePackage, Target: "enum_variant_added", Bump: release.Major},
			},
			id: "enum_variant_added", wantLevel: rules.Deny, wantBump: release.Major,
		},
		{
			name: "declaration order does not matter",
			overrides: []Override{
				{Scope: ScopePackage, Target: "enum_variant_added", Bump: release.Major},
				{Scope: ScopeWorkspace, Target: "enum_variant_added", Bump: release.Minor},
			},
			id: "enum_variant_added", wantLevel: rules.Deny, wantBump: release.Major,
		},
		{
			name: "explicit priority inverts scopes",
			overrides: []Override{
				{Scope: ScopeWorkspace, Target: "enum_variant_added", Bump: release.Minor, Priority: 1},
				{Scope: ScopePackage, Target: "enum_variant_added", Bump: release.Major},
			},
			id: "enum_variant_added", wantLevel: rules.Deny, wantBump: release.Minor,
		},
		{
			name: "rule beats group in the same scope",
			overrides: []Override{
				{Scope: ScopePackage, Target: "removal", Level: rules.Allow},
				{Scope: ScopePackage, Target: "function_missing", Level: rules.Warn},
			},
			id: "function_missing", wantLevel: rules.Warn, wantBump: release.Major,
		},
		{
			name: "group disable at higher scope wins",
			overrides: []Override{
				{Scope: ScopeWorkspace, Target: "function_missing", Level: rules.Deny},
				{Scope: ScopePackage, Target: "removal", Level: rules.Allow},
			},
			id: "function_missing", wantLevel: rules.Allow, wantBump: release.Major,
		},
		{
			name: "fields resolve independently",
			overrides: []Override{
				{Scope: ScopeWorkspace, Target: "function_missing", Bump: release.Minor},
				{Scope: ScopePackage, Target: "function_missing", Level: rules.Warn},
			},
			id: "function_missing", wantLevel: rules.Warn, wantBump: release.Minor,
		},
		{
			name: "enable a group that defaults to allow",
			overrides: []Override{
				{Scope: ScopePackage, Target: "addition", Level: rules.Warn},
			},
			id: "item_added", wantLevel: rules.Warn, wantBump: release.Minor,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Resolve(rules.Default(), tt.overrides)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			e := cfg[tt.id]
			if e.Level != tt.wantLevel || e.Bump != tt.wantBump {
				t.Errorf("%s = %s/%s, want %s/%s", tt.id, e.Level, e.Bump, tt.wantLevel, tt.wantBump)
			}
			if e.Enabled != tt.wantLevel.Enabled() {
				t.Errorf("Enabled = %v with level %s", e.Enabled, e.Level)
			}
		})
	}
}

func TestResolveErrors(t *testing.T) {
	tests := []struct {
		name      string
		overrides []Override
		wantCode  semerrors.ErrorCode
	}{
		{
			name:      "unknown id",
			overrides: []Override{{Scope: ScopePackage, Target: "no_such_lint", Level: rules.Warn}},
			wantCode:  semerrors.ConfigInvalid,
		},
		{
			name:      "empty override",
			overrides: []Override{{Scope: ScopePackage, Target: "function_missing"}},
			wantCode:  semerrors.ConfigInvalid,
		},
		{
			name:      "bad level",
			overrides: []Override{{Scope: ScopePackage, Target: "function_missing", Level: "forbid"}},
			wantCode:  semerrors.ConfigInvalid,
		},
		{
			name:      "reserved scope",
			overrides: []Override{{Scope: ScopeDefault, Target: "function_missing", Level: rules.Warn}},
			wantCode:  semerrors.ConfigInvalid,
		},
		{
			name: "same precedence same field",
			overrides: []Override{
				{Scope: ScopePackage, Target: "function_missing", Level: rules.Warn, Source: "a"},
				{Scope: ScopePackage, Target: "function_missing", Level: rules.Deny, Source: "b"},
			},
			wantCode: semerrors.ConfigConflict,
		},
		{
			name: "same group twice",
			overrides: []Override{
				{Scope: ScopeWorkspace, Target: "layout", Bump: release.Minor, Priority: 2},
				{Scope: ScopeWorkspace, Target: "layout", Bump: release.Major, Priority: 2},
			},
			wantCode: semerrors.ConfigConflict,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(rules.Default(), tt.overrides)
			var se *semerrors.SemcheckError
			if !errors.As(err, &se) {
				t.Fatalf("Resolve() error = %v, want *SemcheckError", err)
			}
			if se.Code != tt.wantCode {
				t.Errorf("Code = %s, want %s", se.Code, tt.wantCode)
			}
		})
	}
}

func TestResolveNoConflictAcrossFields(t *testing.T) {
	_, err := Resolve(rules.Default(), []Override{
		{Scope: ScopePackage, Target: "function_missing", Level: rules.Warn},
		{Scope: ScopePackage, Target: "function_missing", Bump: release.Minor},
	})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
}
