package usecase

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/gatherd/gatherd/internal/domain"
)

// ParticipationUsecase owns the membership invariants: the capacity limit,
// the one-record-per-(meeting,user) rule, and the approval state machine.
// Every mutation runs as one Store.Atomic unit that re-reads the meeting
// row under lock, so concurrent joins for the last slot resolve to exactly
// one success.
type ParticipationUsecase struct {
	store  Store
	events EventPublisher
}

func NewParticipationUsecase(store Store, events EventPublisher) *ParticipationUsecase {
	return &ParticipationUsecase{
		store:  store,
		events: events,
	}
}

// Join creates a participation record for userID. When the meeting does not
// require approval the record is APPROVED and counted immediately;
// otherwise it is WAITING_APPROVAL and not counted until the owner decides.
// Only counted membership is capacity-gated, so a pending request is
// accepted even while the meeting is full; Decide enforces the limit when
// the owner approves.
func (uc *ParticipationUsecase) Join(ctx context.Context, meetingID, userID string) (*domain.Participant, error) {
	ctx, span := tracer.Start(ctx, "Participation.Usecase.Join")
	defer span.End()
	span.SetAttributes(attribute.String("meetingID", meetingID))

	participant := &domain.Participant{
		ID:        uuid.NewString(),
		MeetingID: meetingID,
		UserID:    userID,
		State:     domain.ParticipantWaitingApproval,
	}

	err := uc.store.Atomic(ctx, func(tx Store) error {
		meeting, err := tx.GetMeetingForUpdate(ctx, meetingID)
		if err != nil {
			return err
		}
		if meeting.Status != domain.MeetingStatusActive {
			return domain.ErrMeetingNotFound
		}

		_, err = tx.GetParticipantByMeetingAndUser(ctx, meetingID, userID)
		if err == nil {
			return domain.ErrDuplicateParticipation
		}
		if !isNotFound(err) {
			return err
		}

		if !meeting.ApprovalRequired {
			if meeting.ParticipantsCount >= meeting.MaxParticipants {
				return domain.ErrCapacityExceeded
			}
			participant.State = domain.ParticipantApproved
			meeting.ParticipantsCount++
			if err := tx.UpdateMeeting(ctx, meeting); err != nil {
				return err
			}
		}

		return tx.CreateParticipant(ctx, participant)
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	eventType := domain.EventParticipantJoined
	if participant.State == domain.ParticipantApproved {
		eventType = domain.EventParticipantApproved
	}
	uc.publish(ctx, domain.Event{
		Type:          eventType,
		MeetingID:     meetingID,
		ParticipantID: participant.ID,
		UserID:        userID,
	})

	return participant, nil
}

// Decide resolves a pending join request. Approving an already-APPROVED
// participant is a no-op; approving a pending one re-checks capacity, since
// waiting records were never counted against the limit. Rejection deletes
// the record, decrementing the counter only when it had been counted.
// Decisions on an ENDED meeting fail: membership is frozen.
func (uc *ParticipationUsecase) Decide(ctx context.Context, participantID string, approve bool) error {
	ctx, span := tracer.Start(ctx, "Participation.Usecase.Decide")
	defer span.End()
	span.SetAttributes(
		attribute.String("participantID", participantID),
		attribute.Bool("approve", approve),
	)

	var event domain.Event
	err := uc.store.Atomic(ctx, func(tx Store) error {
		located, err := tx.GetParticipant(ctx, participantID)
		if err != nil {
			return err
		}

		meeting, err := tx.GetMeetingForUpdate(ctx, located.MeetingID)
		if err != nil {
			return err
		}
		if meeting.Status != domain.MeetingStatusActive {
			return domain.ErrMeetingEnded
		}

		// The first read ran before the meeting lock was held, so a
		// concurrent decision may have resolved the request in between.
		// Only the state re-read under the lock is authoritative.
		participant, err := tx.GetParticipant(ctx, participantID)
		if err != nil {
			return err
		}

		if approve {
			if participant.State == domain.ParticipantApproved {
				return nil
			}
			if meeting.ParticipantsCount >= meeting.MaxParticipants {
				return domain.ErrCapacityExceeded
			}

			participant.State = domain.ParticipantApproved
			if err := tx.UpdateParticipant(ctx, participant); err != nil {
				return err
			}
			meeting.ParticipantsCount++
			if err := tx.UpdateMeeting(ctx, meeting); err != nil {
				return err
			}

			event = domain.Event{
				Type:          domain.EventParticipantApproved,
				MeetingID:     participant.MeetingID,
				ParticipantID: participant.ID,
				UserID:        participant.UserID,
			}
			return nil
		}

		// Rejecting an already-counted participant must release their slot.
		if participant.State == domain.ParticipantApproved {
			meeting.ParticipantsCount--
			if err := tx.UpdateMeeting(ctx, meeting); err != nil {
				return err
			}
		}
		if err := tx.DeleteParticipant(ctx, participant.ID); err != nil {
			return err
		}

		event = domain.Event{
			Type:          domain.EventParticipantRejected,
			MeetingID:     participant.MeetingID,
			ParticipantID: participant.ID,
			UserID:        participant.UserID,
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return err
	}

	if event.Type != "" {
		uc.publish(ctx, event)
	}
	return nil
}

// Remove deletes the participation record for (meetingID, userID). A missing
// record reports domain.ErrParticipantNotFound rather than succeeding
// silently, and removal from an ENDED meeting fails: membership is frozen.
func (uc *ParticipationUsecase) Remove(ctx context.Context, meetingID, userID string) error {
	ctx, span := tracer.Start(ctx, "Participation.Usecase.Remove")
	defer span.End()
	span.SetAttributes(attribute.String("meetingID", meetingID))

	var participantID string
	err := uc.store.Atomic(ctx, func(tx Store) error {
		// Lock the meeting row first so the state read below cannot race a
		// concurrent removal into a double decrement.
		meeting, err := tx.GetMeetingForUpdate(ctx, meetingID)
		if err != nil {
			return err
		}
		if meeting.Status != domain.MeetingStatusActive {
			return domain.ErrMeetingEnded
		}

		participant, err := tx.GetParticipantByMeetingAndUser(ctx, meetingID, userID)
		if err != nil {
			return err
		}
		participantID = participant.ID

		if participant.State == domain.ParticipantApproved {
			meeting.ParticipantsCount--
			if err := tx.UpdateMeeting(ctx, meeting); err != nil {
				return err
			}
		}

		return tx.DeleteParticipant(ctx, participant.ID)
	})
	if err != nil {
		span.RecordError(err)
		return err
	}

	uc.publish(ctx, domain.Event{
		Type:          domain.EventParticipantRemoved,
		MeetingID:     meetingID,
		ParticipantID: participantID,
		UserID:        userID,
	})
	return nil
}

// List returns the meeting's APPROVED participants, or every live record
// when includeWaiting is set.
func (uc *ParticipationUsecase) List(ctx context.Context, meetingID string, includeWaiting bool) ([]domain.Participant, error) {
	ctx, span := tracer.Start(ctx, "Participation.Usecase.List")
	defer span.End()

	if _, err := uc.store.GetMeeting(ctx, meetingID); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return uc.store.ListParticipants(ctx, meetingID, includeWaiting)
}

func (uc *ParticipationUsecase) publish(ctx context.Context, event domain.Event) {
	if uc.events == nil {
		return
	}
	if err := uc.events.Publish(ctx, event); err != nil {
		slog.WarnContext(
			ctx, "failed to publish event",
			slog.String("type", event.Type),
			slog.String("meetingID", event.MeetingID),
			slog.String("error", err.Error()),
			slog.String("module", "participation"),
		)
	}
}
