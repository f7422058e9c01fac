package domain

import (
	"errors"
	"testing"

	pkgerrors "github.com/pkg/errors"
)

func TestNotFoundMatching(t *testing.T) {
	if !errors.Is(ErrMeetingNotFound, ErrNotFound) {
		t.Fatalf("meeting not found should match the generic sentinel")
	}
	wrapped := pkgerrors.Wrap(ErrParticipantNotFound, "decide")
	if !errors.Is(wrapped, ErrNotFound) {
		t.Fatalf("wrapped not-found should still match")
	}
	if errors.Is(ErrMeetingNotFound, ErrParticipantNotFound) {
		t.Fatalf("distinct resources should not match each other")
	}
}

func TestConflictMatching(t *testing.T) {
	if !errors.Is(ErrCapacityExceeded, ErrConflict) {
		t.Fatalf("capacity exceeded should match the generic conflict")
	}
	if errors.Is(ErrCapacityExceeded, ErrDuplicateParticipation) {
		t.Fatalf("distinct conflict reasons should not match each other")
	}
	if errors.Is(ErrCapacityExceeded, ErrNotFound) {
		t.Fatalf("conflict should not match not-found")
	}
}

func TestStorageErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := StorageError{Err: cause}
	if !errors.Is(err, ErrStorageUnavailable) {
		t.Fatalf("storage error should match the sentinel")
	}
	if !errors.Is(err, cause) {
		t.Fatalf("storage error should unwrap to its cause")
	}
}
