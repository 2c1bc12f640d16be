package breaking

import (
	"time"

	semerrors "semcheck/internal/errors"
	"semcheck/internal/release"
	"semcheck/internal/rules"
	"semcheck/internal/witness"
)

// Options configures the evaluation behavior
type Options struct {
	Workers        int           // Rule worker pool size; <= 0 uses GOMAXPROCS
	RuleTimeout    time.Duration // Per-rule budget; <= 0 disables the timeout
	Witnesses      bool          // Render witnesses for findings whose rule has a template
	WitnessWorkers int           // Witness worker pool size; <= 0 uses GOMAXPROCS
	CheckSyntax    bool          // Reject witnesses that do not parse as Rust
}

// DefaultOptions returns sensible defaults
func DefaultOptions() Options {
	return Options{
		RuleTimeout: 30 * time.Second,
		Witnesses:   true,
		CheckSyntax: true,
	}
}

// FindingResult is a finding with its witness, if one was attempted
type FindingResult struct {
	rules.Finding
	Witness *witness.Witness `json:"witness,omitempty"`
}

// RuleError records a rule whose evaluation failed
type RuleError struct {
	RuleID  string              `json:"ruleId"`
	Code    semerrors.ErrorCode `json:"code"`
	Message string              `json:"message"`
}

// RuleResult holds the outcome of one rule that produced findings or failed
type RuleResult struct {
	ID           string          `json:"id"`
	Group        rules.Group     `json:"group"`
	Category     string          `json:"category"`
	Description  string          `json:"description"`
	Level        rules.Level     `json:"level"`
	RequiredBump release.Type    `json:"requiredBump"`
	Findings     []FindingResult `json:"findings"`
	Error        *RuleError      `json:"error,omitempty"`
}

// Summary provides an overview of the run
type Summary struct {
	RulesEvaluated  int `json:"rulesEvaluated"`
	RulesSkipped    int `json:"rulesSkipped"`
	Findings        int `json:"findings"`
	Denied          int `json:"denied"`
	Warned          int `json:"warned"`
	Witnesses       int `json:"witnesses"`
	WitnessFailures int `json:"witnessFailures"`
}

// Report is the result of comparing two snapshots
type Report struct {
	Crate           string       `json:"crate"`
	BaselineVersion string       `json:"baselineVersion"`
	CurrentVersion  string       `json:"currentVersion"`
	Rules           []RuleResult `json:"rules"`
	Errors          []RuleError  `json:"errors,omitempty"`
	DetectedBump    release.Type `json:"detectedBump"`
	RequiredBump    release.Type `json:"requiredBump"`
	Success         bool         `json:"success"`
	Summary         Summary      `json:"summary"`
}

// Findings returns every finding in report order
func (r *Report) Findings() []FindingResult {
	var out []FindingResult
	for _, rr := range r.Rules {
		out = append(out, rr.Findings...)
	}
	return out
}
