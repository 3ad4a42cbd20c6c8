package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrRecommendationEmpty means the recommendation pipeline yielded no usable
	// track while the queue had nothing pending.
	ErrRecommendationEmpty = errors.New("recommendation pipeline produced nothing")

	// ErrEmptyPrompt is a programming invariant: a blank seed reached the recommender.
	ErrEmptyPrompt = errors.New("empty recommendation prompt")

	// ErrNoPendingTracks means nothing is deliverable even after a forced refill.
	ErrNoPendingTracks = errors.New("no undelivered tracks after forced refill")

	// ErrDeliveryContention means other pollers kept claiming the oldest row.
	ErrDeliveryContention = errors.New("queue head kept changing under concurrent delivery")
)

// ValidationError describes a malformed user-facing write.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// PersistenceError wraps a storage failure.
type PersistenceError struct {
	Err error
	Op  string
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// NewPersistenceError returns nil when err is nil.
func NewPersistenceError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}

// RecommendationNetworkError is a transient network failure that outlived the retry budget.
type RecommendationNetworkError struct {
	Err      error
	Attempts int
}

func (e *RecommendationNetworkError) Error() string {
	return fmt.Sprintf("recommendation source unreachable after %d attempts: %v", e.Attempts, e.Err)
}

func (e *RecommendationNetworkError) Unwrap() error {
	return e.Err
}

// IsFatalAutofillError reports the autofill failures that must reach the caller.
func IsFatalAutofillError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrEmptyPrompt) {
		return true
	}
	var netErr *RecommendationNetworkError
	return errors.As(err, &netErr)
}
