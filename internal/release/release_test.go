package release

import (
	"encoding/json"
	"errors"
	"testing"

	semerrors "semcheck/internal/errors"
)

func TestTypeOrdering(t *testing.T) {
	if !(NotChanged < Patch && Patch < Minor && Minor < Major) {
		t.Fatal("expected NotChanged < Patch < Minor < Major")
	}
	if got := Max(Minor, Major); got != Major {
		t.Errorf("Max(Minor, Major) = %v, want major", got)
	}
	if got := Max(Patch, NotChanged); got != Patch {
		t.Errorf("Max(Patch, NotChanged) = %v, want patch", got)
	}
}

func TestSatisfies(t *testing.T) {
	tests := []struct {
		detected, required Type
		want               bool
	}{
		{Major, Major, true},
		{Major, Minor, true},
		{Minor, Major, false},
		{Patch, Patch, true},
		{NotChanged, Patch, false},
		{NotChanged, NotChanged, true},
	}
	for _, tt := range tests {
		if got := tt.detected.Satisfies(tt.required); got != tt.want {
			t.Errorf("%v.Satisfies(%v) = %v, want %v", tt.detected, tt.required, got, tt.want)
		}
	}
}

func TestParse(t *testing.T) {
	for _, s := range []string{"major", "MINOR", "Patch", "none"} {
		if _, err := Parse(s); err != nil {
			t.Errorf("Parse(%q) error: %v", s, err)
		}
	}
	if _, err := Parse("huge"); err == nil {
		t.Error("Parse(huge) should fail")
	}
}

func TestTypeJSON(t *testing.T) {
	data, err := json.Marshal(struct {
		Bump Type `json:"bump"`
	}{Minor})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"bump":"minor"}` {
		t.Errorf("Marshal = %s, want {\"bump\":\"minor\"}", data)
	}

	var back struct {
		Bump Type `json:"bump"`
	}
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if back.Bump != Minor {
		t.Errorf("Unmarshal = %v, want minor", back.Bump)
	}
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name     string
		baseline string
		current  string
		want     Type
	}{
		{"unchanged", "1.2.3", "1.2.3", NotChanged},
		{"patch", "1.2.3", "1.2.4", Patch},
		{"minor", "1.2.3", "1.3.0", Minor},
		{"major", "1.2.3", "2.0.0", Major},
		{"pre-1.0 minor is major", "0.4.1", "0.5.0", Major},
		{"pre-1.0 patch is minor", "0.4.1", "0.4.2", Minor},
		{"0.0.z is always major", "0.0.1", "0.0.2", Major},
		{"leaving 0.x", "0.9.0", "1.0.0", Major},
		{"prerelease current", "1.2.3", "1.2.4-rc.1", Major},
		{"release of a prerelease", "2.0.0-rc.1", "2.0.0", Patch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Detect(tt.baseline, tt.current)
			if err != nil {
				t.Fatalf("Detect(%q, %q) error: %v", tt.baseline, tt.current, err)
			}
			if got != tt.want {
				t.Errorf("Detect(%q, %q) = %v, want %v", tt.baseline, tt.current, got, tt.want)
			}
		})
	}
}

func TestDetect_Errors(t *testing.T) {
	tests := []struct {
		name              string
		baseline, current string
	}{
		{"decrease", "1.2.3", "1.2.0"},
		{"garbage baseline", "one.two", "1.0.0"},
		{"garbage current", "1.0.0", "latest"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Detect(tt.baseline, tt.current)
			if err == nil {
				t.Fatal("expected an error")
			}
			var se *semerrors.SemcheckError
			if !errors.As(err, &se) || se.Code != semerrors.VersionInvalid {
				t.Errorf("error = %v, want VERSION_INVALID", err)
			}
		})
	}
}
