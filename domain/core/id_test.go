package core

import (
	"errors"
	"fmt"
	"testing"
)

// TestNewIDUniqueness tests that NewID generates unique identifiers
func TestNewIDUniqueness(t *testing.T) {
	const numIDs = 10000

	ids := make(map[ID]bool, numIDs)
	for i := 0; i < numIDs; i++ {
		id := NewID()
		if id.IsEmpty() {
			t.Errorf("Generated empty ID at iteration %d", i)
		}
		if ids[id] {
			t.Errorf("Generated duplicate ID: %s", id)
		}
		ids[id] = true
	}

	if len(ids) != numIDs {
		t.Errorf("Expected %d unique IDs, got %d", numIDs, len(ids))
	}
}

// TestIDIsEmpty tests ID emptiness check
func TestIDIsEmpty(t *testing.T) {
	if !ID("").IsEmpty() {
		t.Error("Expected empty ID to be empty")
	}
	if ID("not-empty").IsEmpty() {
		t.Error("Expected non-empty ID to not be empty")
	}
}

func TestParseRunID(t *testing.T) {
	fresh := NewRunID()

	tests := []struct {
		input    string
		expected RunID
		hasError bool
	}{
		{fresh.String(), fresh, false},
		{"  " + fresh.String() + " ", fresh, false},
		{"", "", true},
		{"   ", "", true},
		{"not-a-uuid", "", true},
	}

	for _, tt := range tests {
		got, err := ParseRunID(tt.input)
		if tt.hasError {
			if err == nil {
				t.Errorf("ParseRunID(%q) expected error", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseRunID(%q) unexpected error: %v", tt.input, err)
		}
		if got != tt.expected {
			t.Errorf("ParseRunID(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestTrialErrorUnwrap(t *testing.T) {
	cause := NewValidationError("profile", "length 2, want 3")
	err := fmt.Errorf("run aborted: %w", &TrialError{Index: 7, Strategy: "names", Err: cause})

	if !errors.Is(err, ErrTrialFailed) {
		t.Error("expected ErrTrialFailed in chain")
	}
	if !IsValidationError(err) {
		t.Error("expected cause to remain reachable")
	}

	var trialErr *TrialError
	if !errors.As(err, &trialErr) {
		t.Fatal("expected *TrialError in chain")
	}
	if trialErr.Index != 7 {
		t.Errorf("Index = %d, want 7", trialErr.Index)
	}
}
