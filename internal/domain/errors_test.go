package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestValidationError_Error(t *testing.T) {
	err := ValidationError{Field: "trackName", Message: "is required"}
	if err.Error() != "trackName: is required" {
		t.Errorf("Error() = %q, want %q", err.Error(), "trackName: is required")
	}
}

func TestPersistenceErrorUnwraps(t *testing.T) {
	cause := errors.New("disk full")
	err := NewPersistenceError("insert", cause)

	if !errors.Is(err, cause) {
		t.Error("Expected PersistenceError to unwrap to its cause")
	}
	var pe *PersistenceError
	if !errors.As(err, &pe) || pe.Op != "insert" {
		t.Errorf("Expected PersistenceError with op insert, got %v", err)
	}
	if NewPersistenceError("insert", nil) != nil {
		t.Error("Expected nil for nil cause")
	}
}

func TestIsFatalAutofillError(t *testing.T) {
	tests := []struct {
		err  error
		name string
		want bool
	}{
		{nil, "nil", false},
		{ErrEmptyPrompt, "empty prompt", true},
		{fmt.Errorf("autofill: %w", ErrEmptyPrompt), "wrapped empty prompt", true},
		{&RecommendationNetworkError{Attempts: 3, Err: errors.New("reset")}, "network", true},
		{fmt.Errorf("autofill: %w", &RecommendationNetworkError{Attempts: 3}), "wrapped network", true},
		{ErrRecommendationEmpty, "empty pipeline", false},
		{NewPersistenceError("count", errors.New("locked")), "persistence", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsFatalAutofillError(tt.err); got != tt.want {
				t.Errorf("IsFatalAutofillError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestQueueEntryIsPending(t *testing.T) {
	e := &QueueEntry{}
	if !e.IsPending() {
		t.Error("Expected entry without DeleteAt to be pending")
	}
}

func TestStringPtr(t *testing.T) {
	if StringPtr("") != nil {
		t.Error("Expected nil for empty string")
	}
	if p := StringPtr("x"); p == nil || *p != "x" {
		t.Error("Expected pointer to x")
	}
}
