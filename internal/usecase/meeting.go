package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/gatherd/gatherd/internal/domain"
)

var tracer = otel.Tracer("usecase")

// MeetingUsecase owns the meeting lifecycle: create, modify, end and
// soft-delete, plus the cascade that removes participant records when a
// meeting is deleted.
type MeetingUsecase struct {
	store    Store
	rooms    ChatRoomProvisioner
	events   EventPublisher
	pageSize int
}

func NewMeetingUsecase(store Store, rooms ChatRoomProvisioner, events EventPublisher, pageSize int) *MeetingUsecase {
	if pageSize <= 0 {
		pageSize = 32
	}
	return &MeetingUsecase{
		store:    store,
		rooms:    rooms,
		events:   events,
		pageSize: pageSize,
	}
}

type CreateMeetingInput struct {
	Title            string
	Description      string
	Place            string
	Deadline         *time.Time
	MaxParticipants  int
	ApprovalRequired bool
}

// Create persists a new ACTIVE meeting and inserts the owner as an APPROVED
// participant in the same transaction, so a fresh meeting always has
// participantsCount = 1. Chat-room provisioning happens after commit and is
// best-effort: a failure is logged, never propagated.
func (uc *MeetingUsecase) Create(ctx context.Context, ownerID string, input CreateMeetingInput) (*domain.Meeting, error) {
	ctx, span := tracer.Start(ctx, "Meeting.Usecase.Create")
	defer span.End()

	if input.MaxParticipants <= 0 {
		return nil, domain.ErrInvalidCapacity
	}

	meeting := &domain.Meeting{
		ID:                uuid.NewString(),
		OwnerID:           ownerID,
		Title:             input.Title,
		Description:       input.Description,
		Place:             input.Place,
		Deadline:          input.Deadline,
		MaxParticipants:   input.MaxParticipants,
		ApprovalRequired:  input.ApprovalRequired,
		Status:            domain.MeetingStatusActive,
		ParticipantsCount: 1,
	}

	owner := &domain.Participant{
		ID:        uuid.NewString(),
		MeetingID: meeting.ID,
		UserID:    ownerID,
		State:     domain.ParticipantApproved,
	}

	err := uc.store.Atomic(ctx, func(tx Store) error {
		if err := tx.CreateMeeting(ctx, meeting); err != nil {
			return err
		}
		return tx.CreateParticipant(ctx, owner)
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if uc.rooms != nil {
		roomID, err := uc.rooms.CreateRoom(ctx, meeting.ID)
		if err != nil {
			slog.ErrorContext(
				ctx, "chat room provisioning failed",
				slog.String("meetingID", meeting.ID),
				slog.String("error", err.Error()),
				slog.String("module", "meeting"),
			)
		} else {
			slog.InfoContext(
				ctx, "created chat room",
				slog.String("meetingID", meeting.ID),
				slog.String("roomID", roomID),
				slog.String("module", "meeting"),
			)
		}
	}

	uc.publish(ctx, domain.Event{Type: domain.EventMeetingCreated, MeetingID: meeting.ID, UserID: ownerID})

	return meeting, nil
}

// Get returns a meeting by id. Soft-deleted meetings are not readable.
func (uc *MeetingUsecase) Get(ctx context.Context, meetingID string) (*domain.Meeting, error) {
	return uc.store.GetMeeting(ctx, meetingID)
}

// List returns meetings newest first, one page at a time.
func (uc *MeetingUsecase) List(ctx context.Context, page int) ([]domain.Meeting, error) {
	if page < 0 {
		page = 0
	}
	return uc.store.ListMeetings(ctx, uc.pageSize, page*uc.pageSize)
}

// Modify applies a field-level patch. Reducing capacity below the current
// participant count fails with domain.ErrInvalidCapacityReduction instead
// of silently truncating membership.
func (uc *MeetingUsecase) Modify(ctx context.Context, meetingID string, patch domain.MeetingPatch) error {
	ctx, span := tracer.Start(ctx, "Meeting.Usecase.Modify")
	defer span.End()
	span.SetAttributes(attribute.String("meetingID", meetingID))

	err := uc.store.Atomic(ctx, func(tx Store) error {
		meeting, err := tx.GetMeetingForUpdate(ctx, meetingID)
		if err != nil {
			return err
		}

		if patch.MaxParticipants != nil {
			next := *patch.MaxParticipants
			if next <= 0 {
				return domain.ErrInvalidCapacity
			}
			if next < meeting.ParticipantsCount {
				return domain.ErrInvalidCapacityReduction
			}
			meeting.MaxParticipants = next
		}
		if patch.Title != nil {
			meeting.Title = *patch.Title
		}
		if patch.Description != nil {
			meeting.Description = *patch.Description
		}
		if patch.Place != nil {
			meeting.Place = *patch.Place
		}
		if patch.Deadline != nil {
			meeting.Deadline = patch.Deadline
		}

		return tx.UpdateMeeting(ctx, meeting)
	})
	if err != nil {
		span.RecordError(err)
		return err
	}

	uc.publish(ctx, domain.Event{Type: domain.EventMeetingUpdated, MeetingID: meetingID})
	return nil
}

// End transitions ACTIVE -> ENDED. Ending an already-ENDED meeting is a
// no-op; the meeting stays readable and its membership frozen.
func (uc *MeetingUsecase) End(ctx context.Context, meetingID string) error {
	ctx, span := tracer.Start(ctx, "Meeting.Usecase.End")
	defer span.End()
	span.SetAttributes(attribute.String("meetingID", meetingID))

	alreadyEnded := false
	err := uc.store.Atomic(ctx, func(tx Store) error {
		meeting, err := tx.GetMeetingForUpdate(ctx, meetingID)
		if err != nil {
			return err
		}
		if meeting.Status == domain.MeetingStatusEnded {
			alreadyEnded = true
			return nil
		}
		meeting.Status = domain.MeetingStatusEnded
		return tx.UpdateMeeting(ctx, meeting)
	})
	if err != nil {
		span.RecordError(err)
		return err
	}

	if !alreadyEnded {
		uc.publish(ctx, domain.Event{Type: domain.EventMeetingEnded, MeetingID: meetingID})
	}
	return nil
}

// Delete removes every participant record for the meeting, then soft-deletes
// the meeting itself, in one transaction. The two steps are deliberate and
// ordered here rather than hidden in a storage-level cascade.
func (uc *MeetingUsecase) Delete(ctx context.Context, meetingID string) error {
	ctx, span := tracer.Start(ctx, "Meeting.Usecase.Delete")
	defer span.End()
	span.SetAttributes(attribute.String("meetingID", meetingID))

	err := uc.store.Atomic(ctx, func(tx Store) error {
		meeting, err := tx.GetMeetingForUpdate(ctx, meetingID)
		if err != nil {
			return err
		}

		if _, err := tx.DeleteParticipantsByMeeting(ctx, meeting.ID); err != nil {
			return err
		}

		meeting.Status = domain.MeetingStatusDeleted
		meeting.ParticipantsCount = 0
		return tx.UpdateMeeting(ctx, meeting)
	})
	if err != nil {
		span.RecordError(err)
		return err
	}

	uc.publish(ctx, domain.Event{Type: domain.EventMeetingDeleted, MeetingID: meetingID})
	return nil
}

func (uc *MeetingUsecase) publish(ctx context.Context, event domain.Event) {
	if uc.events == nil {
		return
	}
	if err := uc.events.Publish(ctx, event); err != nil {
		slog.WarnContext(
			ctx, "failed to publish event",
			slog.String("type", event.Type),
			slog.String("meetingID", event.MeetingID),
			slog.String("error", err.Error()),
			slog.String("module", "meeting"),
		)
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
