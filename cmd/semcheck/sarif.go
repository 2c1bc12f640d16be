package main

import (
	"encoding/json"
	"fmt"
	"runtime"

	"semcheck/internal/breaking"
	"semcheck/internal/rules"
	"semcheck/internal/version"
)

// SARIF 2.1.0 schema types
// See: https://docs.oasis-open.org/sarif/sarif/v2.1.0/sarif-v2.1.0.html

// SARIFReport is the top-level SARIF document.
type SARIFReport struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []SARIFRun `json:"runs"`
}

// SARIFRun represents a single analysis run.
type SARIFRun struct {
	Tool        SARIFTool         `json:"tool"`
	Results     []SARIFResult     `json:"results"`
	Invocations []SARIFInvocation `json:"invocations,omitempty"`
}

// SARIFTool describes the analysis tool.
type SARIFTool struct {
	Driver SARIFDriver `json:"driver"`
}

// SARIFDriver describes the primary analysis component.
type SARIFDriver struct {
	Name            string      `json:"name"`
	Version         string      `json:"version,omitempty"`
	Rules           []SARIFRule `json:"rules,omitempty"`
	SemanticVersion string      `json:"semanticVersion,omitempty"`
}

// SARIFRule describes a rule that detected an issue.
type SARIFRule struct {
	ID                   string                  `json:"id"`
	Name                 string                  `json:"name,omitempty"`
	ShortDescription     *SARIFMessage           `json:"shortDescription,omitempty"`
	FullDescription      *SARIFMessage           `json:"fullDescription,omitempty"`
	DefaultConfiguration *SARIFRuleConfiguration `json:"defaultConfiguration,omitempty"`
	Properties           map[string]interface{}  `json:"properties,omitempty"`
}

// SARIFRuleConfiguration describes the configuration for a rule.
type SARIFRuleConfiguration struct {
	Level string `json:"level,omitempty"` // error, warning, note, none
}

// SARIFResult represents a single finding.
type SARIFResult struct {
	RuleID       string                 `json:"ruleId"`
	RuleIndex    int                    `json:"ruleIndex"`
	Level        string                 `json:"level,omitempty"`
	Message      SARIFMessage           `json:"message"`
	Locations    []SARIFLocation        `json:"locations,omitempty"`
	Fingerprints map[string]string      `json:"fingerprints,omitempty"`
	Properties   map[string]interface{} `json:"properties,omitempty"`
}

// SARIFMessage contains text in various formats.
type SARIFMessage struct {
	Text     string `json:"text,omitempty"`
	Markdown string `json:"markdown,omitempty"`
}

// SARIFLocation describes where a result was found.
type SARIFLocation struct {
	PhysicalLocation *SARIFPhysicalLocation `json:"physicalLocation,omitempty"`
	LogicalLocations []SARIFLogical         `json:"logicalLocations,omitempty"`
}

// SARIFLogical names a program element.
type SARIFLogical struct {
	FullyQualifiedName string `json:"fullyQualifiedName"`
}

// SARIFPhysicalLocation identifies a file and region.
type SARIFPhysicalLocation struct {
	ArtifactLocation *SARIFArtifactLocation `json:"artifactLocation,omitempty"`
	Region           *SARIFRegion           `json:"region,omitempty"`
}

// SARIFArtifactLocation identifies a file.
type SARIFArtifactLocation struct {
	URI       string `json:"uri,omitempty"`
	URIBaseID string `json:"uriBaseId,omitempty"`
}

// SARIFRegion identifies a region within a file.
type SARIFRegion struct {
	StartLine int `json:"startLine,omitempty"`
}

// SARIFInvocation describes a single invocation of the tool.
type SARIFInvocation struct {
	ExecutionSuccessful bool                `json:"executionSuccessful"`
	Notifications       []SARIFNotification `json:"toolExecutionNotifications,omitempty"`
	Machine             string              `json:"machine,omitempty"`
}

// SARIFNotification reports a problem with the run itself.
type SARIFNotification struct {
	Level   string       `json:"level"`
	Message SARIFMessage `json:"message"`
	RuleID  string       `json:"ruleId,omitempty"`
}

const sarifFingerprintKey = "semcheck/v1"

// FormatReportAsSARIF converts a report to SARIF format. Each rule with
// findings becomes one driver rule; finding IDs become fingerprints.
func FormatReportAsSARIF(report *breaking.Report, toolVersion string) (string, error) {
	sarifRules := []SARIFRule{}
	results := []SARIFResult{}

	for _, rr := range report.Rules {
		if len(rr.Findings) == 0 {
			continue
		}
		index := len(sarifRules)
		sarifRules = append(sarifRules, SARIFRule{
			ID:                   rr.ID,
			Name:                 rr.ID,
			ShortDescription:     &SARIFMessage{Text: rr.Category},
			FullDescription:      &SARIFMessage{Text: rr.Description},
			DefaultConfiguration: &SARIFRuleConfiguration{Level: levelToSARIF(rr.Level)},
			Properties: map[string]interface{}{
				"group":        string(rr.Group),
				"requiredBump": rr.RequiredBump.String(),
			},
		})

		for _, f := range rr.Findings {
			res := SARIFResult{
				RuleID:    rr.ID,
				RuleIndex: index,
				Level:     levelToSARIF(f.Level),
				Message:   SARIFMessage{Text: f.Message},
				Locations: []SARIFLocation{{
					LogicalLocations: []SARIFLogical{{FullyQualifiedName: f.Item}},
				}},
				Fingerprints: map[string]string{sarifFingerprintKey: f.ID},
				Properties: map[string]interface{}{
					"requiredBump": f.RequiredBump.String(),
				},
			}
			if f.Location != nil && f.Location.File != "" {
				res.Locations[0].PhysicalLocation = &SARIFPhysicalLocation{
					ArtifactLocation: &SARIFArtifactLocation{URI: f.Location.File, URIBaseID: "%SRCROOT%"},
				}
				if f.Location.Line > 0 {
					res.Locations[0].PhysicalLocation.Region = &SARIFRegion{StartLine: f.Location.Line}
				}
			}
			if f.Witness != nil && f.Witness.OK() {
				res.Message.Markdown = f.Message + "\n\n```rust\n" + f.Witness.Text + "```"
				res.Properties["witness"] = f.Witness.Text
			}
			results = append(results, res)
		}
	}

	invocation := SARIFInvocation{
		ExecutionSuccessful: len(report.Errors) == 0,
		Machine:             runtime.GOOS + "/" + runtime.GOARCH,
	}
	for _, e := range report.Errors {
		invocation.Notifications = append(invocation.Notifications, SARIFNotification{
			Level:   "error",
			Message: SARIFMessage{Text: fmt.Sprintf("[%s] %s", e.Code, e.Message)},
			RuleID:  e.RuleID,
		})
	}

	driver := SARIFDriver{Name: "semcheck", Version: toolVersion, Rules: sarifRules}
	if semantic, ok := version.Semantic(); ok && toolVersion == version.Version {
		driver.SemanticVersion = semantic
	}

	doc := SARIFReport{
		Schema:  "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json",
		Version: "2.1.0",
		Runs: []SARIFRun{{
			Tool:        SARIFTool{Driver: driver},
			Results:     results,
			Invocations: []SARIFInvocation{invocation},
		}},
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal SARIF: %w", err)
	}
	return string(data), nil
}

// levelToSARIF converts a lint level to a SARIF level.
func levelToSARIF(l rules.Level) string {
	switch l {
	case rules.Deny:
		return "error"
	case rules.Warn:
		return "warning"
	default:
		return "note"
	}
}
