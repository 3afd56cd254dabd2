package gear

import (
	"errors"
	"testing"
)

func TestParseStateNormalizesCase(t *testing.T) {
	tests := []struct {
		input    string
		expected State
	}{
		{input: "Awakening", expected: StateAwakening},
		{input: "succession", expected: StateSuccession},
		{input: "AWAKENING", expected: StateAwakening},
		{input: "  Succession  ", expected: StateSuccession},
	}

	for _, tc := range tests {
		state, err := ParseState(tc.input)
		if err != nil {
			t.Fatalf("ParseState(%q) returned error: %v", tc.input, err)
		}
		if state != tc.expected {
			t.Fatalf("ParseState(%q) = %q, expected %q", tc.input, state, tc.expected)
		}
	}
}

func TestParseStateRejectsUnknownValues(t *testing.T) {
	for _, input := range []string{"awoken", "", "successor", "awakening succession"} {
		if _, err := ParseState(input); !errors.Is(err, ErrInvalidState) {
			t.Fatalf("ParseState(%q) expected ErrInvalidState, got %v", input, err)
		}
	}
}

func TestNewUserIDRejectsNonPositive(t *testing.T) {
	if _, err := NewUserID(0); !errors.Is(err, ErrInvalidUserID) {
		t.Fatalf("expected ErrInvalidUserID for zero, got %v", err)
	}
	if _, err := NewUserID(-7); !errors.Is(err, ErrInvalidUserID) {
		t.Fatalf("expected ErrInvalidUserID for negative, got %v", err)
	}
	id, err := NewUserID(42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 42 {
		t.Fatalf("expected 42, got %d", id)
	}
}
