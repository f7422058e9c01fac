package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"

	"github.com/gatherd/gatherd/internal/domain"
	"github.com/gatherd/gatherd/internal/infra/repository"
)

// ChatRoomService provisions the companion chat room for a meeting and
// resolves meeting-to-room lookups. Lookups are cached in-process; the
// room table's unique meeting index keeps provisioning idempotent.
type ChatRoomService struct {
	repo  *repository.ChatRoomRepository
	cache *cache.Cache
}

func NewChatRoomService(repo *repository.ChatRoomRepository) *ChatRoomService {
	return &ChatRoomService{
		repo:  repo,
		cache: cache.New(10*time.Minute, 15*time.Minute),
	}
}

// CreateRoom implements usecase.ChatRoomProvisioner.
func (s *ChatRoomService) CreateRoom(ctx context.Context, meetingID string) (string, error) {
	room, err := s.repo.Create(ctx, &domain.ChatRoom{
		ID:        uuid.NewString(),
		MeetingID: meetingID,
	})
	if err != nil {
		return "", errors.Wrap(err, "ChatRoomService.CreateRoom")
	}

	s.cache.Set(meetingID, *room, cache.DefaultExpiration)
	return room.ID, nil
}

func (s *ChatRoomService) GetRoomByMeeting(ctx context.Context, meetingID string) (*domain.ChatRoom, error) {
	if cached, found := s.cache.Get(meetingID); found {
		room := cached.(domain.ChatRoom)
		return &room, nil
	}

	room, err := s.repo.GetByMeeting(ctx, meetingID)
	if err != nil {
		return nil, err
	}

	s.cache.Set(meetingID, *room, cache.DefaultExpiration)
	return room, nil
}
