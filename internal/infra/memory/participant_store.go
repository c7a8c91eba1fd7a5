package memory

import (
	"context"
	"sync"

	"email-quiz-service/internal/domain"
)

// ParticipantStore is an in-memory implementation of app.ParticipantStore.
type ParticipantStore struct {
	mu           sync.RWMutex
	participants map[string]domain.Participant
}

func NewParticipantStore() *ParticipantStore {
	return &ParticipantStore{participants: make(map[string]domain.Participant)}
}

func (s *ParticipantStore) Exists(_ context.Context, email string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.participants[domain.NormalizeEmail(email)]
	return ok, nil
}

func (s *ParticipantStore) Put(_ context.Context, p domain.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.Email = domain.NormalizeEmail(p.Email)
	s.participants[p.Email] = p
	return nil
}

func (s *ParticipantStore) ResetAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.participants = make(map[string]domain.Participant)
	return nil
}
