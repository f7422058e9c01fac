package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gatherd/gatherd/internal/domain"
	"github.com/gatherd/gatherd/internal/infra/database/models"
	"github.com/gatherd/gatherd/internal/usecase"
)

// MeetingStore is the gorm-backed implementation of usecase.Store. All
// invariant-bearing mutations go through Atomic, where
// GetMeetingForUpdate takes a row lock so capacity checks and counter
// writes serialize per meeting.
type MeetingStore struct {
	db *gorm.DB
}

func NewMeetingStore(db *gorm.DB) *MeetingStore {
	return &MeetingStore{db: db}
}

func (s *MeetingStore) Atomic(ctx context.Context, fn func(tx usecase.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&MeetingStore{db: tx})
	})
}

func (s *MeetingStore) CreateMeeting(ctx context.Context, m *domain.Meeting) error {
	record := meetingToModel(m)
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return translate(err, domain.ErrMeetingNotFound)
	}
	m.CreatedAt = record.CDate
	return nil
}

func (s *MeetingStore) GetMeeting(ctx context.Context, id string) (*domain.Meeting, error) {
	var record models.Meeting
	err := s.db.WithContext(ctx).
		Where("id = ? AND status <> ?", id, string(domain.MeetingStatusDeleted)).
		Take(&record).Error
	if err != nil {
		return nil, translate(err, domain.ErrMeetingNotFound)
	}
	return meetingToDomain(&record), nil
}

func (s *MeetingStore) GetMeetingForUpdate(ctx context.Context, id string) (*domain.Meeting, error) {
	var record models.Meeting
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND status <> ?", id, string(domain.MeetingStatusDeleted)).
		Take(&record).Error
	if err != nil {
		return nil, translate(err, domain.ErrMeetingNotFound)
	}
	return meetingToDomain(&record), nil
}

func (s *MeetingStore) UpdateMeeting(ctx context.Context, m *domain.Meeting) error {
	updates := map[string]any{
		"title":              m.Title,
		"description":        m.Description,
		"place":              m.Place,
		"deadline":           m.Deadline,
		"max_participants":   m.MaxParticipants,
		"participants_count": m.ParticipantsCount,
		"status":             string(m.Status),
	}
	result := s.db.WithContext(ctx).
		Model(&models.Meeting{}).
		Where("id = ?", m.ID).
		Updates(updates)
	if result.Error != nil {
		return translate(result.Error, domain.ErrMeetingNotFound)
	}
	if result.RowsAffected == 0 {
		return domain.ErrMeetingNotFound
	}
	return nil
}

func (s *MeetingStore) ListMeetings(ctx context.Context, limit, offset int) ([]domain.Meeting, error) {
	var records []models.Meeting
	err := s.db.WithContext(ctx).
		Where("status <> ?", string(domain.MeetingStatusDeleted)).
		Order("c_date DESC").
		Limit(limit).
		Offset(offset).
		Find(&records).Error
	if err != nil {
		return nil, translate(err, domain.ErrMeetingNotFound)
	}

	meetings := make([]domain.Meeting, 0, len(records))
	for i := range records {
		meetings = append(meetings, *meetingToDomain(&records[i]))
	}
	return meetings, nil
}

func (s *MeetingStore) CreateParticipant(ctx context.Context, p *domain.Participant) error {
	record := participantToModel(p)
	err := s.db.WithContext(ctx).Create(&record).Error
	if err != nil {
		// The unique index on (meeting_id, user_id) is the backstop for the
		// duplicate-join check.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrDuplicateParticipation
		}
		return translate(err, domain.ErrParticipantNotFound)
	}
	p.CreatedAt = record.CDate
	return nil
}

func (s *MeetingStore) GetParticipant(ctx context.Context, id string) (*domain.Participant, error) {
	var record models.Participant
	err := s.db.WithContext(ctx).
		Where("id = ?", id).
		Take(&record).Error
	if err != nil {
		return nil, translate(err, domain.ErrParticipantNotFound)
	}
	return participantToDomain(&record), nil
}

func (s *MeetingStore) GetParticipantByMeetingAndUser(ctx context.Context, meetingID, userID string) (*domain.Participant, error) {
	var record models.Participant
	err := s.db.WithContext(ctx).
		Where("meeting_id = ? AND user_id = ?", meetingID, userID).
		Take(&record).Error
	if err != nil {
		return nil, translate(err, domain.ErrParticipantNotFound)
	}
	return participantToDomain(&record), nil
}

func (s *MeetingStore) UpdateParticipant(ctx context.Context, p *domain.Participant) error {
	result := s.db.WithContext(ctx).
		Model(&models.Participant{}).
		Where("id = ?", p.ID).
		Update("state", string(p.State))
	if result.Error != nil {
		return translate(result.Error, domain.ErrParticipantNotFound)
	}
	if result.RowsAffected == 0 {
		return domain.ErrParticipantNotFound
	}
	return nil
}

func (s *MeetingStore) DeleteParticipant(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Delete(&models.Participant{}, "id = ?", id)
	if result.Error != nil {
		return translate(result.Error, domain.ErrParticipantNotFound)
	}
	if result.RowsAffected == 0 {
		return domain.ErrParticipantNotFound
	}
	return nil
}

func (s *MeetingStore) ListParticipants(ctx context.Context, meetingID string, includeWaiting bool) ([]domain.Participant, error) {
	query := s.db.WithContext(ctx).Where("meeting_id = ?", meetingID)
	if !includeWaiting {
		query = query.Where("state = ?", string(domain.ParticipantApproved))
	}

	var records []models.Participant
	err := query.Order("c_date ASC").Find(&records).Error
	if err != nil {
		return nil, translate(err, domain.ErrParticipantNotFound)
	}

	participants := make([]domain.Participant, 0, len(records))
	for i := range records {
		participants = append(participants, *participantToDomain(&records[i]))
	}
	return participants, nil
}

func (s *MeetingStore) DeleteParticipantsByMeeting(ctx context.Context, meetingID string) (int64, error) {
	result := s.db.WithContext(ctx).Delete(&models.Participant{}, "meeting_id = ?", meetingID)
	if result.Error != nil {
		return 0, translate(result.Error, domain.ErrParticipantNotFound)
	}
	return result.RowsAffected, nil
}

// translate maps gorm errors into the domain taxonomy: missing rows become
// the given not-found error, everything else is a storage fault the caller
// may retry.
func translate(err error, notFound error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return domain.StorageError{Err: err}
}

func meetingToModel(m *domain.Meeting) models.Meeting {
	return models.Meeting{
		ID:                m.ID,
		OwnerID:           m.OwnerID,
		Title:             m.Title,
		Description:       m.Description,
		Place:             m.Place,
		Deadline:          m.Deadline,
		MaxParticipants:   m.MaxParticipants,
		ParticipantsCount: m.ParticipantsCount,
		ApprovalRequired:  m.ApprovalRequired,
		Status:            string(m.Status),
	}
}

func meetingToDomain(record *models.Meeting) *domain.Meeting {
	return &domain.Meeting{
		ID:                record.ID,
		OwnerID:           record.OwnerID,
		Title:             record.Title,
		Description:       record.Description,
		Place:             record.Place,
		Deadline:          record.Deadline,
		MaxParticipants:   record.MaxParticipants,
		ParticipantsCount: record.ParticipantsCount,
		ApprovalRequired:  record.ApprovalRequired,
		Status:            domain.MeetingStatus(record.Status),
		CreatedAt:         record.CDate,
	}
}

func participantToModel(p *domain.Participant) models.Participant {
	return models.Participant{
		ID:        p.ID,
		MeetingID: p.MeetingID,
		UserID:    p.UserID,
		State:     string(p.State),
	}
}

func participantToDomain(record *models.Participant) *domain.Participant {
	return &domain.Participant{
		ID:        record.ID,
		MeetingID: record.MeetingID,
		UserID:    record.UserID,
		State:     domain.ParticipantState(record.State),
		CreatedAt: record.CDate,
	}
}
