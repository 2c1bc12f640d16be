package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	cause := errors.New("underlying error")

	err := New(ConfigInvalid, "bad lint level", cause)

	if err.Code != ConfigInvalid {
		t.Errorf("Code = %v, want %v", err.Code, ConfigInvalid)
	}
	if err.Message != "bad lint level" {
		t.Errorf("Message = %q, want %q", err.Message, "bad lint level")
	}
	if len(err.SuggestedFixes) != 2 {
		t.Errorf("len(SuggestedFixes) = %d, want 2", len(err.SuggestedFixes))
	}
}

func TestSemcheckError_Error(t *testing.T) {
	tests := []struct {
		name      string
		code      ErrorCode
		message   string
		cause     error
		wantParts []string
	}{
		{
			name:      "with cause",
			code:      SnapshotUnreadable,
			message:   "cannot open baseline.json",
			cause:     errors.New("permission denied"),
			wantParts: []string{"SNAPSHOT_UNREADABLE", "cannot open baseline.json", "permission denied"},
		},
		{
			name:      "without cause",
			code:      ConfigConflict,
			message:   "function_missing set twice",
			cause:     nil,
			wantParts: []string{"CONFIG_CONFLICT", "function_missing set twice"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, tt.message, tt.cause)
			got := err.Error()

			for _, part := range tt.wantParts {
				if !strings.Contains(got, part) {
					t.Errorf("Error() = %q, want to contain %q", got, part)
				}
			}
		})
	}
}

func TestSemcheckError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := New(InternalError, "something went wrong", cause)

	if err.Unwrap() != cause {
		t.Errorf("Unwrap() = %v, want %v", err.Unwrap(), cause)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the cause")
	}

	errNoCause := New(RuleTimeout, "rule timed out", nil)
	if errNoCause.Unwrap() != nil {
		t.Errorf("Unwrap() on error without cause should return nil")
	}
}

func TestSemcheckError_WithDetails(t *testing.T) {
	err := New(SnapshotInvalid, "duplicate item id", nil)
	details := map[string]string{"path": "current.json"}

	result := err.WithDetails(details)

	if result != err {
		t.Error("WithDetails should return the same error for chaining")
	}
	if err.Details == nil {
		t.Error("Details should be set")
	}
}

func TestSemcheckError_As(t *testing.T) {
	var wrapped error = New(VersionInvalid, "version decreased", nil)
	wrapped = errors.Join(errors.New("context"), wrapped)

	var se *SemcheckError
	if !errors.As(wrapped, &se) {
		t.Fatal("errors.As should find *SemcheckError")
	}
	if se.Code != VersionInvalid {
		t.Errorf("Code = %v, want %v", se.Code, VersionInvalid)
	}
}

func TestSemcheckError_Terminal(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want bool
	}{
		{SnapshotUnreadable, true},
		{SnapshotInvalid, true},
		{ConfigInvalid, true},
		{ConfigConflict, true},
		{VersionInvalid, true},
		{RuleFailed, false},
		{RuleTimeout, false},
		{WitnessFailed, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			if got := New(tt.code, "x", nil).Terminal(); got != tt.want {
				t.Errorf("Terminal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetSuggestedFixes(t *testing.T) {
	if fixes := GetSuggestedFixes(ConfigConflict); len(fixes) == 0 {
		t.Error("ConfigConflict should have suggested fixes")
	}
	if fixes := GetSuggestedFixes(RuleFailed); fixes != nil {
		t.Errorf("RuleFailed fixes = %v, want nil", fixes)
	}
}
