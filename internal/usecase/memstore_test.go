package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/gatherd/gatherd/internal/domain"
)

// memStore is an in-memory Store for tests. Atomic holds the store mutex
// for the whole unit of work, which gives the same serialization the
// database provides with row locks, and restores a snapshot when the unit
// fails so partial writes never leak.
type memStore struct {
	mu    sync.Mutex
	state *memState
}

type memState struct {
	meetings     map[string]domain.Meeting
	meetingOrder []string
	participants map[string]domain.Participant
}

func newMemStore() *memStore {
	return &memStore{
		state: &memState{
			meetings:     make(map[string]domain.Meeting),
			participants: make(map[string]domain.Participant),
		},
	}
}

func (s *memStore) Atomic(ctx context.Context, fn func(tx Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	err := fn(&memTx{state: s.state})
	if err != nil {
		s.state = snapshot
	}
	return err
}

func (s *memState) clone() *memState {
	next := &memState{
		meetings:     make(map[string]domain.Meeting, len(s.meetings)),
		meetingOrder: append([]string(nil), s.meetingOrder...),
		participants: make(map[string]domain.Participant, len(s.participants)),
	}
	for id, m := range s.meetings {
		next.meetings[id] = m
	}
	for id, p := range s.participants {
		next.participants[id] = p
	}
	return next
}

// memTx is the transaction-bound view handed to Atomic callbacks. The
// enclosing memStore already holds the lock.
type memTx struct {
	state *memState
}

func (t *memTx) Atomic(ctx context.Context, fn func(tx Store) error) error {
	return fn(t)
}

func (s *memStore) CreateMeeting(ctx context.Context, m *domain.Meeting) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.createMeeting(m)
}

func (t *memTx) CreateMeeting(ctx context.Context, m *domain.Meeting) error {
	return t.state.createMeeting(m)
}

func (s *memStore) GetMeeting(ctx context.Context, id string) (*domain.Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.getMeeting(id)
}

func (t *memTx) GetMeeting(ctx context.Context, id string) (*domain.Meeting, error) {
	return t.state.getMeeting(id)
}

func (s *memStore) GetMeetingForUpdate(ctx context.Context, id string) (*domain.Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.getMeeting(id)
}

func (t *memTx) GetMeetingForUpdate(ctx context.Context, id string) (*domain.Meeting, error) {
	return t.state.getMeeting(id)
}

func (s *memStore) UpdateMeeting(ctx context.Context, m *domain.Meeting) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.updateMeeting(m)
}

func (t *memTx) UpdateMeeting(ctx context.Context, m *domain.Meeting) error {
	return t.state.updateMeeting(m)
}

func (s *memStore) ListMeetings(ctx context.Context, limit, offset int) ([]domain.Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.listMeetings(limit, offset)
}

func (t *memTx) ListMeetings(ctx context.Context, limit, offset int) ([]domain.Meeting, error) {
	return t.state.listMeetings(limit, offset)
}

func (s *memStore) CreateParticipant(ctx context.Context, p *domain.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.createParticipant(p)
}

func (t *memTx) CreateParticipant(ctx context.Context, p *domain.Participant) error {
	return t.state.createParticipant(p)
}

func (s *memStore) GetParticipant(ctx context.Context, id string) (*domain.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.getParticipant(id)
}

func (t *memTx) GetParticipant(ctx context.Context, id string) (*domain.Participant, error) {
	return t.state.getParticipant(id)
}

func (s *memStore) GetParticipantByMeetingAndUser(ctx context.Context, meetingID, userID string) (*domain.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.getParticipantByMeetingAndUser(meetingID, userID)
}

func (t *memTx) GetParticipantByMeetingAndUser(ctx context.Context, meetingID, userID string) (*domain.Participant, error) {
	return t.state.getParticipantByMeetingAndUser(meetingID, userID)
}

func (s *memStore) UpdateParticipant(ctx context.Context, p *domain.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.updateParticipant(p)
}

func (t *memTx) UpdateParticipant(ctx context.Context, p *domain.Participant) error {
	return t.state.updateParticipant(p)
}

func (s *memStore) DeleteParticipant(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.deleteParticipant(id)
}

func (t *memTx) DeleteParticipant(ctx context.Context, id string) error {
	return t.state.deleteParticipant(id)
}

func (s *memStore) ListParticipants(ctx context.Context, meetingID string, includeWaiting bool) ([]domain.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.listParticipants(meetingID, includeWaiting)
}

func (t *memTx) ListParticipants(ctx context.Context, meetingID string, includeWaiting bool) ([]domain.Participant, error) {
	return t.state.listParticipants(meetingID, includeWaiting)
}

func (s *memStore) DeleteParticipantsByMeeting(ctx context.Context, meetingID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.deleteParticipantsByMeeting(meetingID)
}

func (t *memTx) DeleteParticipantsByMeeting(ctx context.Context, meetingID string) (int64, error) {
	return t.state.deleteParticipantsByMeeting(meetingID)
}

func (s *memStore) participantTotal() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.state.participants)
}

func (s *memState) createMeeting(m *domain.Meeting) error {
	m.CreatedAt = time.Now()
	s.meetings[m.ID] = *m
	s.meetingOrder = append(s.meetingOrder, m.ID)
	return nil
}

func (s *memState) getMeeting(id string) (*domain.Meeting, error) {
	m, ok := s.meetings[id]
	if !ok || m.Status == domain.MeetingStatusDeleted {
		return nil, domain.ErrMeetingNotFound
	}
	copied := m
	return &copied, nil
}

func (s *memState) updateMeeting(m *domain.Meeting) error {
	if _, ok := s.meetings[m.ID]; !ok {
		return domain.ErrMeetingNotFound
	}
	s.meetings[m.ID] = *m
	return nil
}

func (s *memState) listMeetings(limit, offset int) ([]domain.Meeting, error) {
	var meetings []domain.Meeting
	for i := len(s.meetingOrder) - 1; i >= 0; i-- {
		m := s.meetings[s.meetingOrder[i]]
		if m.Status == domain.MeetingStatusDeleted {
			continue
		}
		meetings = append(meetings, m)
	}
	if offset >= len(meetings) {
		return nil, nil
	}
	meetings = meetings[offset:]
	if limit < len(meetings) {
		meetings = meetings[:limit]
	}
	return meetings, nil
}

func (s *memState) createParticipant(p *domain.Participant) error {
	for _, existing := range s.participants {
		if existing.MeetingID == p.MeetingID && existing.UserID == p.UserID {
			return domain.ErrDuplicateParticipation
		}
	}
	p.CreatedAt = time.Now()
	s.participants[p.ID] = *p
	return nil
}

func (s *memState) getParticipant(id string) (*domain.Participant, error) {
	p, ok := s.participants[id]
	if !ok {
		return nil, domain.ErrParticipantNotFound
	}
	copied := p
	return &copied, nil
}

func (s *memState) getParticipantByMeetingAndUser(meetingID, userID string) (*domain.Participant, error) {
	for _, p := range s.participants {
		if p.MeetingID == meetingID && p.UserID == userID {
			copied := p
			return &copied, nil
		}
	}
	return nil, domain.ErrParticipantNotFound
}

func (s *memState) updateParticipant(p *domain.Participant) error {
	if _, ok := s.participants[p.ID]; !ok {
		return domain.ErrParticipantNotFound
	}
	s.participants[p.ID] = *p
	return nil
}

func (s *memState) deleteParticipant(id string) error {
	if _, ok := s.participants[id]; !ok {
		return domain.ErrParticipantNotFound
	}
	delete(s.participants, id)
	return nil
}

func (s *memState) listParticipants(meetingID string, includeWaiting bool) ([]domain.Participant, error) {
	var participants []domain.Participant
	for _, p := range s.participants {
		if p.MeetingID != meetingID {
			continue
		}
		if !includeWaiting && p.State != domain.ParticipantApproved {
			continue
		}
		participants = append(participants, p)
	}
	return participants, nil
}

func (s *memState) deleteParticipantsByMeeting(meetingID string) (int64, error) {
	var removed int64
	for id, p := range s.participants {
		if p.MeetingID == meetingID {
			delete(s.participants, id)
			removed++
		}
	}
	return removed, nil
}

// rowLockStore relaxes memStore's full serialization to what the database
// actually guarantees: only GetMeetingForUpdate takes an exclusive lock,
// held until the Atomic unit ends, while reads before the lock observe
// whatever is committed at that moment. Units exercised with it must not
// write before a failure, since there is no rollback.
type rowLockStore struct {
	*memStore
	locks sync.Map // meeting id -> *sync.Mutex
}

func newRowLockStore() *rowLockStore {
	return &rowLockStore{memStore: newMemStore()}
}

func (s *rowLockStore) Atomic(ctx context.Context, fn func(tx Store) error) error {
	tx := &rowLockTx{memStore: s.memStore, locks: &s.locks}
	defer tx.release()
	return fn(tx)
}

type rowLockTx struct {
	*memStore
	locks *sync.Map
	held  []*sync.Mutex
}

func (t *rowLockTx) Atomic(ctx context.Context, fn func(tx Store) error) error {
	return fn(t)
}

func (t *rowLockTx) GetMeetingForUpdate(ctx context.Context, id string) (*domain.Meeting, error) {
	mu, _ := t.locks.LoadOrStore(id, &sync.Mutex{})
	lock := mu.(*sync.Mutex)
	lock.Lock()
	t.held = append(t.held, lock)
	return t.memStore.GetMeeting(ctx, id)
}

func (t *rowLockTx) release() {
	for _, lock := range t.held {
		lock.Unlock()
	}
}
