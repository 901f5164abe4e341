package cli

import (
	"errors"
	"strings"
	"testing"

	"github.com/evcraddock/campbook/internal/calday"
)

func TestArgCounts(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"book without dates", []string{"book", "C1"}},
		{"book extra arg", []string{"book", "C1", "2024-05-01", "2024-05-03", "x"}},
		{"show without id", []string{"show"}},
		{"edit without id", []string{"edit"}},
		{"checkin without id", []string{"checkin"}},
		{"remove without id", []string{"remove"}},
		{"state without unit", []string{"state"}},
		{"export without unit", []string{"export"}},
		{"units with arg", []string{"units", "C1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := executeCommand(tt.args...); err == nil {
				t.Fatal("expected argument error")
			}
		})
	}
}

// These fail before any request is made, so no server is needed.
func TestLocalValidation(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
		date    bool
	}{
		{"malformed check-in", []string{"book", "C1", "2024-5-1", "2024-05-03", "--guest", "Ana"}, "check-in", true},
		{"impossible check-out", []string{"book", "C1", "2024-05-01", "2024-02-30", "--guest", "Ana"}, "check-out", true},
		{"no guest", []string{"book", "C1", "2024-05-01", "2024-05-03"}, "--guest", false},
		{"edit nothing", []string{"edit", "abc"}, "nothing to change", false},
		{"edit bad date", []string{"edit", "abc", "--check-out", "soon"}, "check-out", true},
		{"calendar bad from", []string{"calendar", "--from", "01/05/2024"}, "from", true},
		{"state bad date", []string{"state", "C1", "--date", "tomorrow"}, "date", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := executeCommand(append(tt.args, "--server", "http://127.0.0.1:1")...)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
			if tt.date && !errors.Is(err, calday.ErrMalformedDate) {
				t.Errorf("error %v is not a malformed date error", err)
			}
		})
	}
}
