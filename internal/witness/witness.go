// Package witness renders minimal Rust snippets that compile against the
// baseline version of a crate and fail against the current one. Rendering
// is best effort: every failure is returned as a failed Witness with a
// reason, never as an error.
package witness

import (
	"context"
	"fmt"

	"semcheck/internal/rules"
)

// Status tags the outcome of a synthesis.
type Status string

const (
	Rendered Status = "rendered"
	Failed   Status = "failed"
)

// Witness is the outcome of rendering one finding's template.
type Witness struct {
	FindingID  string `json:"findingId"`
	TemplateID string `json:"templateId"`
	Status     Status `json:"status"`
	Text       string `json:"text,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

// OK reports whether the witness rendered.
func (w Witness) OK() bool { return w.Status == Rendered }

// Synthesizer renders witnesses from a template catalog. It holds no
// mutable state and is safe for concurrent use.
type Synthesizer struct {
	catalog     *Catalog
	checkSyntax bool
}

// NewSynthesizer creates a synthesizer. With checkSyntax set, rendered
// snippets are parsed and rejected when they are not valid Rust; the check
// is skipped in builds without tree-sitter support.
func NewSynthesizer(catalog *Catalog, checkSyntax bool) *Synthesizer {
	return &Synthesizer{catalog: catalog, checkSyntax: checkSyntax && SyntaxAvailable()}
}

// Catalog returns the synthesizer's templates.
func (s *Synthesizer) Catalog() *Catalog { return s.catalog }

// Synthesize renders the template templateID for a finding.
func (s *Synthesizer) Synthesize(ctx context.Context, templateID string, f rules.Finding) Witness {
	w := Witness{FindingID: f.ID, TemplateID: templateID, Status: Failed}

	t, ok := s.catalog.Lookup(templateID)
	if !ok {
		w.Reason = fmt.Sprintf("no witness template %q", templateID)
		return w
	}
	if t.Stub != "" {
		w.Reason = t.Stub
		return w
	}
	if name, missing := t.missing(f.Facts); missing {
		w.Reason = fmt.Sprintf("finding has no %q fact", name)
		return w
	}

	text, err := t.render(f.Facts)
	if err != nil {
		w.Reason = fmt.Sprintf("render failed: %v", err)
		return w
	}
	if s.checkSyntax {
		if err := CheckSyntax(ctx, text); err != nil {
			w.Reason = err.Error()
			return w
		}
	}

	w.Status = Rendered
	w.Text = text
	return w
}
