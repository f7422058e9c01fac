package domain

import "fmt"

// NotFoundError represents a missing resource.
type NotFoundError struct {
	Resource string
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// Is enables errors.Is matching on NotFoundError.
func (e NotFoundError) Is(target error) bool {
	_, ok := target.(NotFoundError)
	if ok {
		return true
	}
	_, ok = target.(*NotFoundError)
	return ok
}

// ErrNotFound is the sentinel error for missing resources.
var ErrNotFound = NotFoundError{}

var (
	ErrMeetingNotFound     = NotFoundError{Resource: "meeting"}
	ErrParticipantNotFound = NotFoundError{Resource: "participant"}
	ErrChatRoomNotFound    = NotFoundError{Resource: "chat room"}
	ErrUserNotFound        = NotFoundError{Resource: "user"}
)

// ConflictError represents a state conflict the caller can act on, such as
// a duplicate join or a full meeting. Conflicts are never retried by the
// core.
type ConflictError struct {
	Reason string
}

func (e ConflictError) Error() string {
	if e.Reason == "" {
		return "conflict"
	}
	return e.Reason
}

// Is enables errors.Is matching on any ConflictError via the ErrConflict
// sentinel, and exact matching on a specific reason.
func (e ConflictError) Is(target error) bool {
	switch t := target.(type) {
	case ConflictError:
		return t.Reason == "" || t.Reason == e.Reason
	case *ConflictError:
		return t.Reason == "" || t.Reason == e.Reason
	}
	return false
}

// ErrConflict is the sentinel error matching every conflict.
var ErrConflict = ConflictError{}

var (
	ErrDuplicateParticipation   = ConflictError{Reason: "user already participates in this meeting"}
	ErrCapacityExceeded         = ConflictError{Reason: "meeting is full"}
	ErrMeetingEnded             = ConflictError{Reason: "meeting has ended"}
	ErrInvalidCapacity          = ConflictError{Reason: "max participants must be positive"}
	ErrInvalidCapacityReduction = ConflictError{Reason: "max participants cannot be reduced below the current participant count"}
)

// ErrUnauthenticated is returned when no requester identity can be resolved.
var ErrUnauthenticated = fmt.Errorf("unauthenticated")

// StorageError wraps a storage-layer fault the caller may retry. Membership
// operations are safe to retry: the uniqueness invariant prevents a retried
// join from creating a duplicate.
type StorageError struct {
	Err error
}

func (e StorageError) Error() string {
	return fmt.Sprintf("storage unavailable: %v", e.Err)
}

func (e StorageError) Unwrap() error { return e.Err }

// Is enables errors.Is matching on StorageError.
func (e StorageError) Is(target error) bool {
	_, ok := target.(StorageError)
	if ok {
		return true
	}
	_, ok = target.(*StorageError)
	return ok
}

// ErrStorageUnavailable is the sentinel error for storage-layer faults.
var ErrStorageUnavailable = StorageError{}
