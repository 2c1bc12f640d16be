package errors

import (
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// SnapshotUnreadable indicates a snapshot file could not be opened or read
	SnapshotUnreadable ErrorCode = "SNAPSHOT_UNREADABLE"
	// SnapshotInvalid indicates a snapshot could not be decoded or indexed
	SnapshotInvalid ErrorCode = "SNAPSHOT_INVALID"
	// ConfigInvalid indicates malformed lint or tool configuration
	ConfigInvalid ErrorCode = "CONFIG_INVALID"
	// ConfigConflict indicates two overrides at equal precedence disagree
	ConfigConflict ErrorCode = "CONFIG_CONFLICT"
	// VersionInvalid indicates an unparsable or decreasing version pair
	VersionInvalid ErrorCode = "VERSION_INVALID"
	// RuleFailed indicates a rule's match function returned an error or panicked
	RuleFailed ErrorCode = "RULE_FAILED"
	// RuleTimeout indicates a rule exceeded its time budget
	RuleTimeout ErrorCode = "RULE_TIMEOUT"
	// WitnessFailed indicates a witness could not be rendered
	WitnessFailed ErrorCode = "WITNESS_FAILED"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// FixActionType represents the type of fix action
type FixActionType string

const (
	// RunCommand suggests running a command
	RunCommand FixActionType = "run-command"
	// EditFile suggests editing a configuration file
	EditFile FixActionType = "edit-file"
)

// FixAction represents a suggested fix for an error
type FixAction struct {
	Type        FixActionType `json:"type"`
	Command     string        `json:"command,omitempty"`
	Safe        bool          `json:"safe,omitempty"`
	Description string        `json:"description,omitempty"`
	Path        string        `json:"path,omitempty"`
}

// SemcheckError represents an error with a stable code, message, and suggestions
type SemcheckError struct {
	Code           ErrorCode   `json:"code"`
	Message        string      `json:"message"`
	Details        interface{} `json:"details,omitempty"`
	SuggestedFixes []FixAction `json:"suggestedFixes,omitempty"`
	cause          error       // Underlying error (not exported to JSON)
}

// New creates a new SemcheckError with the default suggested fixes for its code.
func New(code ErrorCode, message string, cause error) *SemcheckError {
	return &SemcheckError{
		Code:           code,
		Message:        message,
		cause:          cause,
		SuggestedFixes: GetSuggestedFixes(code),
	}
}

// Error implements the error interface
func (e *SemcheckError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *SemcheckError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *SemcheckError) WithDetails(details interface{}) *SemcheckError {
	e.Details = details
	return e
}

// Terminal reports whether the error must abort a run before a report exists.
func (e *SemcheckError) Terminal() bool {
	switch e.Code {
	case RuleFailed, RuleTimeout, WitnessFailed:
		return false
	default:
		return true
	}
}

// ErrorActions maps error codes to suggested fix actions
var ErrorActions = map[ErrorCode][]FixAction{
	SnapshotUnreadable: {
		{
			Type:        RunCommand,
			Command:     "ls -l ${snapshot_path}",
			Safe:        true,
			Description: "Check that the snapshot file exists and is readable",
		},
	},
	SnapshotInvalid: {
		{
			Type:        RunCommand,
			Command:     "${extractor} --output ${snapshot_path}",
			Safe:        true,
			Description: "Regenerate the snapshot with the extraction pipeline",
		},
	},
	ConfigInvalid: {
		{
			Type:        EditFile,
			Path:        "Cargo.toml",
			Description: "Fix the [package.metadata.semcheck.lints] table",
		},
		{
			Type:        RunCommand,
			Command:     "semcheck lints",
			Safe:        true,
			Description: "List valid rule and group identifiers",
		},
	},
	ConfigConflict: {
		{
			Type:        EditFile,
			Path:        "Cargo.toml",
			Description: "Remove one of the conflicting overrides or give one an explicit priority",
		},
	},
}

// GetSuggestedFixes returns suggested fixes for an error code
func GetSuggestedFixes(code ErrorCode) []FixAction {
	if fixes, ok := ErrorActions[code]; ok {
		return fixes
	}
	return nil
}
