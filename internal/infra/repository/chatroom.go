package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gatherd/gatherd/internal/domain"
	"github.com/gatherd/gatherd/internal/infra/database/models"
)

type ChatRoomRepository struct {
	db *gorm.DB
}

func NewChatRoomRepository(db *gorm.DB) *ChatRoomRepository {
	return &ChatRoomRepository{db: db}
}

// Create inserts a room for the meeting. The unique index on meeting_id
// makes provisioning idempotent: when a room already exists the existing
// one is returned.
func (r *ChatRoomRepository) Create(ctx context.Context, room *domain.ChatRoom) (*domain.ChatRoom, error) {
	record := models.ChatRoom{
		ID:        room.ID,
		MeetingID: room.MeetingID,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "meeting_id"}},
		DoNothing: true,
	}).Create(&record).Error
	if err != nil {
		return nil, domain.StorageError{Err: err}
	}

	return r.GetByMeeting(ctx, room.MeetingID)
}

func (r *ChatRoomRepository) GetByMeeting(ctx context.Context, meetingID string) (*domain.ChatRoom, error) {
	var record models.ChatRoom
	err := r.db.WithContext(ctx).
		Where("meeting_id = ?", meetingID).
		Take(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrChatRoomNotFound
		}
		return nil, domain.StorageError{Err: err}
	}

	return &domain.ChatRoom{
		ID:        record.ID,
		MeetingID: record.MeetingID,
		CreatedAt: record.CDate,
	}, nil
}
