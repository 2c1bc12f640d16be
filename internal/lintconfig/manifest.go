package lintconfig

import (
	"fmt"
	"os"
	"sort"

	toml "github.com/pelletier/go-toml/v2"

	semerrors "semcheck/internal/errors"
	"semcheck/internal/release"
	"semcheck/internal/rules"
)

// lintTable holds the lints of one manifest table. Values are either a
// level string or a table with level, required-update and priority keys.
type lintTable map[string]interface{}

type semcheckMetadata struct {
	Lints lintTable `toml:"lints"`
}

type metadata struct {
	Semcheck semcheckMetadata `toml:"semcheck"`
}

type lintsSection struct {
	Semcheck lintTable `toml:"semcheck"`
}

// cargoManifest is the subset of a Cargo manifest that carries lint
// configuration.
type cargoManifest struct {
	Package struct {
		Name     string   `toml:"name"`
		Version  string   `toml:"version"`
		Metadata metadata `toml:"metadata"`
	} `toml:"package"`
	Workspace struct {
		Metadata metadata     `toml:"metadata"`
		Lints    lintsSection `toml:"lints"`
	} `toml:"workspace"`
	Lints lintsSection `toml:"lints"`
}

// Manifest is the lint configuration declared in one manifest.
type Manifest struct {
	Path      string
	Name      string
	Version   string
	Overrides []Override
}

// Workspace returns the workspace-scope overrides only.
func (m *Manifest) Workspace() []Override {
	var out []Override
	for _, o := range m.Overrides {
		if o.Scope == ScopeWorkspace {
			out = append(out, o)
		}
	}
	return out
}

// LoadManifest reads and parses a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, semerrors.New(semerrors.ConfigInvalid, "failed to read manifest", err).
			WithDetails(map[string]string{"path": path})
	}
	return ParseManifest(path, data)
}

// ParseManifest parses the lint tables of a Cargo-style manifest:
// [package.metadata.semcheck.lints] and [lints.semcheck] at package scope,
// [workspace.metadata.semcheck.lints] and [workspace.lints.semcheck] at
// workspace scope.
func ParseManifest(path string, data []byte) (*Manifest, error) {
	var cm cargoManifest
	if err := toml.Unmarshal(data, &cm); err != nil {
		return nil, semerrors.New(semerrors.ConfigInvalid, "failed to parse manifest", err).
			WithDetails(map[string]string{"path": path})
	}

	m := &Manifest{Path: path, Name: cm.Package.Name, Version: cm.Package.Version}
	tables := []struct {
		name  string
		scope Scope
		lints lintTable
	}{
		{"workspace.metadata.semcheck.lints", ScopeWorkspace, cm.Workspace.Metadata.Semcheck.Lints},
		{"workspace.lints.semcheck", ScopeWorkspace, cm.Workspace.Lints.Semcheck},
		{"package.metadata.semcheck.lints", ScopePackage, cm.Package.Metadata.Semcheck.Lints},
		{"lints.semcheck", ScopePackage, cm.Lints.Semcheck},
	}
	for _, t := range tables {
		keys := make([]string, 0, len(t.lints))
		for k := range t.lints {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			o, err := parseEntry(t.scope, k, t.lints[k])
			if err != nil {
				return nil, semerrors.New(semerrors.ConfigInvalid, fmt.Sprintf("invalid entry %s.%s", t.name, k), err).
					WithDetails(map[string]string{"path": path, "table": t.name, "key": k})
			}
			o.Source = fmt.Sprintf("%s:%s.%s", path, t.name, k)
			m.Overrides = append(m.Overrides, o)
		}
	}
	return m, nil
}

func parseEntry(scope Scope, target string, value interface{}) (Override, error) {
	o := Override{Scope: scope, Target: target}
	switch v := value.(type) {
	case string:
		level, err := rules.ParseLevel(v)
		if err != nil {
			return o, err
		}
		o.Level = level
	case map[string]interface{}:
		for key, raw := range v {
			switch key {
			case "level":
				s, ok := raw.(string)
				if !ok {
					return o, fmt.Errorf("level must be a string, got %T", raw)
				}
				level, err := rules.ParseLevel(s)
				if err != nil {
					return o, err
				}
				o.Level = level
			case "required-update":
				s, ok := raw.(string)
				if !ok {
					return o, fmt.Errorf("required-update must be a string, got %T", raw)
				}
				bump, err := release.Parse(s)
				if err != nil {
					return o, err
				}
				if bump == release.NotChanged {
					return o, fmt.Errorf("required-update must be major, minor or patch")
				}
				o.Bump = bump
			case "priority":
				p, ok := raw.(int64)
				if !ok {
					return o, fmt.Errorf("priority must be an integer, got %T", raw)
				}
				o.Priority = int(p)
			default:
				return o, fmt.Errorf("unknown key %q", key)
			}
		}
		if o.Level == "" && o.Bump == release.NotChanged {
			return o, fmt.Errorf("entry sets neither level nor required-update")
		}
	default:
		return o, fmt.Errorf("want a level string or a table, got %T", value)
	}
	return o, nil
}

// Collect gathers the overrides of a package manifest and, when given, the
// workspace-scope overrides of a separate workspace root manifest.
func Collect(pkg, workspace *Manifest) []Override {
	var out []Override
	if workspace != nil && (pkg == nil || workspace.Path != pkg.Path) {
		out = append(out, workspace.Workspace()...)
	}
	if pkg != nil {
		out = append(out, pkg.Overrides...)
	}
	return out
}
