package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/samber/lo"

	"github.com/gatherd/gatherd/internal/domain"
)

// EventService fans out meeting events over redis pub/sub. Each meeting has
// its own channel so realtime listeners subscribe only to the meetings they
// watch.
type EventService struct {
	rdb *redis.Client
}

func NewEventService(redisClient *redis.Client) *EventService {
	return &EventService{
		rdb: redisClient,
	}
}

func eventChannel(meetingID string) string {
	return fmt.Sprintf("gatherd:meeting:%s", meetingID)
}

// Publish implements usecase.EventPublisher.
func (s *EventService) Publish(ctx context.Context, event domain.Event) error {

	jsonstr, err := json.Marshal(event)
	if err != nil {
		return err
	}

	err = s.rdb.Publish(ctx, eventChannel(event.MeetingID), jsonstr).Err()
	if err != nil {
		return err
	}

	return nil
}

// Realtime streams events for the meetings requested on the request channel
// until ctx is done or the request channel closes. Each request replaces
// the previous subscription set.
func (s *EventService) Realtime(ctx context.Context, request <-chan []string, response chan<- domain.Event) {
	pubsub := s.rdb.Subscribe(ctx)
	defer pubsub.Close()

	messages := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			return
		case meetings, ok := <-request:
			if !ok {
				return
			}
			if err := pubsub.Unsubscribe(ctx); err != nil {
				slog.ErrorContext(
					ctx, "failed to reset subscription",
					slog.String("error", err.Error()),
					slog.String("module", "events"),
				)
				return
			}
			channels := lo.Map(meetings, func(id string, _ int) string {
				return eventChannel(id)
			})
			if len(channels) == 0 {
				continue
			}
			if err := pubsub.Subscribe(ctx, channels...); err != nil {
				slog.ErrorContext(
					ctx, "failed to subscribe",
					slog.String("error", err.Error()),
					slog.String("module", "events"),
				)
				return
			}
		case msg, ok := <-messages:
			if !ok {
				return
			}
			var event domain.Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				slog.WarnContext(
					ctx, "dropping malformed event",
					slog.String("channel", msg.Channel),
					slog.String("error", err.Error()),
					slog.String("module", "events"),
				)
				continue
			}
			select {
			case response <- event:
			case <-ctx.Done():
				return
			}
		}
	}
}
