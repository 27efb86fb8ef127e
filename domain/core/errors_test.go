package core

import (
	"errors"
	"testing"
)

func TestIsNotFoundError(t *testing.T) {
	err := NewNotFoundError("analysis", "abc-123")
	if !IsNotFoundError(err) {
		t.Error("constructed not-found error should classify as not found")
	}
	if !errors.Is(err, ErrNotFound) {
		t.Error("not-found error should wrap ErrNotFound")
	}
	if IsNotFoundError(errors.New("other")) {
		t.Error("unrelated error must not classify as not found")
	}
}

func TestIsInsufficientData(t *testing.T) {
	for _, err := range []error{ErrInsufficientData, ErrMissingDateColumn, ErrEmptyWindow} {
		if !IsInsufficientData(err) {
			t.Errorf("%v should classify as insufficient data", err)
		}
	}
	if IsInsufficientData(ErrNotFound) {
		t.Error("ErrNotFound must not classify as insufficient data")
	}
}

func TestParseAnalysisID(t *testing.T) {
	if _, err := ParseAnalysisID("  "); err == nil {
		t.Error("blank ID should be rejected")
	}
	id, err := ParseAnalysisID("abc-123")
	if err != nil {
		t.Fatalf("ParseAnalysisID: %v", err)
	}
	if id.String() != "abc-123" {
		t.Errorf("id = %q", id.String())
	}
}

func TestNewAnalysisID(t *testing.T) {
	a, b := NewAnalysisID(), NewAnalysisID()
	if a == b {
		t.Error("consecutive IDs should differ")
	}
	if ID(a).IsEmpty() {
		t.Error("generated ID should not be empty")
	}
}
