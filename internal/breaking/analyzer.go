// Package breaking evaluates the rule catalog over a snapshot pair and
// aggregates the findings into a report with a required and a detected
// version bump.
package breaking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	semerrors "semcheck/internal/errors"
	"semcheck/internal/lintconfig"
	"semcheck/internal/release"
	"semcheck/internal/rules"
	"semcheck/internal/snapshot"
	"semcheck/internal/witness"
)

// findingNamespace seeds the name-based finding fingerprints.
var findingNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("semcheck/finding"))

// Analyzer evaluates a rule catalog
type Analyzer struct {
	catalog     *rules.Catalog
	synthesizer *witness.Synthesizer
	logger      *slog.Logger
	opts        Options
}

// NewAnalyzer creates a new analyzer over catalog
func NewAnalyzer(catalog *rules.Catalog, logger *slog.Logger, opts Options) *Analyzer {
	a := &Analyzer{
		catalog: catalog,
		logger:  logger,
		opts:    opts,
	}
	if opts.Witnesses {
		a.synthesizer = witness.NewSynthesizer(witness.DefaultCatalog(), opts.CheckSyntax)
	}
	return a
}

// WithSynthesizer replaces the witness synthesizer
func (a *Analyzer) WithSynthesizer(s *witness.Synthesizer) *Analyzer {
	a.synthesizer = s
	return a
}

// ruleOutcome is the slot a rule worker fills
type ruleOutcome struct {
	findings []rules.Finding
	err      *RuleError
}

// Evaluate runs every enabled rule over pair and builds the report.
// Configuration and version errors are terminal and returned before any
// rule runs; a failing rule is recorded in the report and makes it fail.
func (a *Analyzer) Evaluate(ctx context.Context, pair *snapshot.Pair, overrides []lintconfig.Override) (*Report, error) {
	start := time.Now()

	cfg, err := lintconfig.Resolve(a.catalog, overrides)
	if err != nil {
		return nil, err
	}
	detected, err := release.Detect(pair.Baseline.Version, pair.Current.Version)
	if err != nil {
		return nil, err
	}

	var enabled []rules.Rule
	for _, r := range a.catalog.Rules() {
		if cfg.Enabled(r.Meta().ID) {
			enabled = append(enabled, r)
		} else {
			a.logger.Debug("Skipping disabled rule", "rule", r.Meta().ID)
		}
	}
	sort.Slice(enabled, func(i, j int) bool { return enabled[i].Meta().ID < enabled[j].Meta().ID })

	workers := a.opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	a.logger.Debug("Starting rule evaluation",
		"crate", pair.Current.Crate,
		"rules", len(enabled),
		"workers", workers,
	)

	in := rules.NewInput(pair)

	// Indices are unique per goroutine, so no mutex is needed.
	outcomes := make([]ruleOutcome, len(enabled))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(workers, len(enabled))))
	for i, r := range enabled {
		g.Go(func() error {
			findings, rerr := a.runRule(gctx, r, in)
			if rerr != nil {
				a.logger.Warn("Rule failed", "rule", rerr.RuleID, "code", rerr.Code, "error", rerr.Message)
			}
			outcomes[i] = ruleOutcome{findings: findings, err: rerr}
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("evaluation canceled: %w", err)
	}

	report := &Report{
		Crate:           pair.Current.Crate,
		BaselineVersion: pair.Baseline.Version,
		CurrentVersion:  pair.Current.Version,
		Rules:           []RuleResult{},
		DetectedBump:    detected,
		Summary: Summary{
			RulesEvaluated: len(enabled),
			RulesSkipped:   a.catalog.Len() - len(enabled),
		},
	}

	var all []rules.Finding
	for i, r := range enabled {
		m := r.Meta()
		eff := cfg[m.ID]
		out := outcomes[i]
		if len(out.findings) == 0 && out.err == nil {
			continue
		}

		rr := RuleResult{
			ID:           m.ID,
			Group:        m.Group,
			Category:     m.Category,
			Description:  m.Description,
			Level:        eff.Level,
			RequiredBump: eff.Bump,
			Findings:     make([]FindingResult, 0, len(out.findings)),
			Error:        out.err,
		}
		for _, f := range out.findings {
			f.Level = eff.Level
			f.RequiredBump = eff.Bump
			f.ID = Fingerprint(f)
			rr.Findings = append(rr.Findings, FindingResult{Finding: f})
			all = append(all, f)
		}
		sort.SliceStable(rr.Findings, func(i, j int) bool {
			a, b := rr.Findings[i], rr.Findings[j]
			if a.Item != b.Item {
				return a.Item < b.Item
			}
			return a.Message < b.Message
		})
		report.Rules = append(report.Rules, rr)
		if out.err != nil {
			report.Errors = append(report.Errors, *out.err)
		}
	}

	if a.synthesizer != nil {
		if err := a.attachWitnesses(ctx, report); err != nil {
			return nil, err
		}
	}

	report.RequiredBump = RequiredBump(all)
	report.Success = Succeeded(detected, report.RequiredBump, len(report.Errors))
	for _, rr := range report.Rules {
		for _, f := range rr.Findings {
			report.Summary.Findings++
			switch f.Level {
			case rules.Deny:
				report.Summary.Denied++
			case rules.Warn:
				report.Summary.Warned++
			}
			if f.Witness != nil {
				if f.Witness.OK() {
					report.Summary.Witnesses++
				} else {
					report.Summary.WitnessFailures++
				}
			}
		}
	}

	a.logger.Debug("Rule evaluation completed",
		"findings", report.Summary.Findings,
		"errors", len(report.Errors),
		"required", report.RequiredBump,
		"detected", report.DetectedBump,
		"duration", time.Since(start),
	)
	return report, nil
}

// runRule evaluates one rule under the per-rule timeout. Match runs in its
// own goroutine so a rule that ignores its context cannot stall the run.
func (a *Analyzer) runRule(ctx context.Context, r rules.Rule, in *rules.Input) ([]rules.Finding, *RuleError) {
	id := r.Meta().ID
	if a.opts.RuleTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.opts.RuleTimeout)
		defer cancel()
	}

	type result struct {
		findings []rules.Finding
		err      error
		panicked bool
	}
	done := make(chan result, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- result{err: fmt.Errorf("panic: %v", p), panicked: true}
			}
		}()
		findings, err := r.Match(ctx, in)
		done <- result{findings: findings, err: err}
	}()

	select {
	case res := <-done:
		switch {
		case res.err == nil:
			return res.findings, nil
		case !res.panicked && errors.Is(res.err, context.DeadlineExceeded):
			return nil, &RuleError{RuleID: id, Code: semerrors.RuleTimeout, Message: fmt.Sprintf("rule exceeded its %s budget", a.opts.RuleTimeout)}
		default:
			return nil, &RuleError{RuleID: id, Code: semerrors.RuleFailed, Message: res.err.Error()}
		}
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, &RuleError{RuleID: id, Code: semerrors.RuleTimeout, Message: fmt.Sprintf("rule exceeded its %s budget", a.opts.RuleTimeout)}
		}
		return nil, &RuleError{RuleID: id, Code: semerrors.RuleFailed, Message: ctx.Err().Error()}
	}
}

// attachWitnesses renders witnesses for every finding whose rule names a
// template. Failures stay on the witness.
func (a *Analyzer) attachWitnesses(ctx context.Context, report *Report) error {
	type job struct {
		rule, finding int
		template      string
	}
	var jobs []job
	for i, rr := range report.Rules {
		r, ok := a.catalog.Lookup(rr.ID)
		if !ok || r.Meta().Witness == "" {
			continue
		}
		for j := range rr.Findings {
			jobs = append(jobs, job{rule: i, finding: j, template: r.Meta().Witness})
		}
	}
	if len(jobs) == 0 {
		return nil
	}

	workers := a.opts.WitnessWorkers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	witnesses := make([]witness.Witness, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(workers, len(jobs)))
	for i, j := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			f := report.Rules[j.rule].Findings[j.finding].Finding
			witnesses[i] = a.synthesizer.Synthesize(gctx, j.template, f)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("witness synthesis canceled: %w", err)
	}

	for i, j := range jobs {
		w := witnesses[i]
		if !w.OK() {
			a.logger.Debug("Witness not rendered", "finding", w.FindingID, "template", w.TemplateID, "reason", w.Reason)
		}
		report.Rules[j.rule].Findings[j.finding].Witness = &w
	}
	return nil
}

// Fingerprint is the stable id of a finding: a name-based UUID over its
// rule, item and message.
func Fingerprint(f rules.Finding) string {
	return uuid.NewSHA1(findingNamespace, []byte(f.RuleID+"\x00"+f.Item+"\x00"+f.Message)).String()
}

// RequiredBump is the largest required bump of any finding.
func RequiredBump(findings []rules.Finding) release.Type {
	required := release.NotChanged
	for _, f := range findings {
		required = release.Max(required, f.RequiredBump)
	}
	return required
}

// Succeeded reports whether a release with the detected bump may ship.
func Succeeded(detected, required release.Type, ruleErrors int) bool {
	return ruleErrors == 0 && detected.Satisfies(required)
}
