package usecase

import (
	"context"

	"github.com/gatherd/gatherd/internal/domain"
)

// Store defines durable state for the meeting aggregate: meetings and their
// participant records.
//
// Atomic runs fn against a store view bound to a single transaction;
// everything fn does commits or rolls back together. Implementations must
// give GetMeetingForUpdate exclusive-row semantics within that transaction
// so that capacity checks and counter writes serialize per meeting.
type Store interface {
	Atomic(ctx context.Context, fn func(tx Store) error) error

	CreateMeeting(ctx context.Context, m *domain.Meeting) error
	// GetMeeting excludes soft-deleted meetings. ENDED meetings remain
	// readable.
	GetMeeting(ctx context.Context, id string) (*domain.Meeting, error)
	GetMeetingForUpdate(ctx context.Context, id string) (*domain.Meeting, error)
	UpdateMeeting(ctx context.Context, m *domain.Meeting) error
	ListMeetings(ctx context.Context, limit, offset int) ([]domain.Meeting, error)

	// CreateParticipant reports domain.ErrDuplicateParticipation when a
	// record for the same (meeting, user) pair already exists.
	CreateParticipant(ctx context.Context, p *domain.Participant) error
	GetParticipant(ctx context.Context, id string) (*domain.Participant, error)
	GetParticipantByMeetingAndUser(ctx context.Context, meetingID, userID string) (*domain.Participant, error)
	UpdateParticipant(ctx context.Context, p *domain.Participant) error
	DeleteParticipant(ctx context.Context, id string) error
	ListParticipants(ctx context.Context, meetingID string, includeWaiting bool) ([]domain.Participant, error)
	DeleteParticipantsByMeeting(ctx context.Context, meetingID string) (int64, error)
}

// ChatRoomProvisioner creates the companion communication channel for a
// meeting. Provisioning is best-effort: callers log failures and never roll
// back the meeting.
type ChatRoomProvisioner interface {
	CreateRoom(ctx context.Context, meetingID string) (string, error)
}

// EventPublisher emits meeting events to realtime listeners. Publishing is
// best-effort and runs after the owning transaction commits.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event) error
}
