package memory

import (
	"context"
	"sync"

	"email-quiz-service/internal/domain"
)

// Ledger is an in-memory implementation of app.AttemptLedger. Appends are
// atomic per row; existing rows are never touched except by ResetAll.
type Ledger struct {
	mu       sync.RWMutex
	attempts []domain.Attempt
}

func NewLedger() *Ledger {
	return &Ledger{}
}

func (l *Ledger) Append(_ context.Context, a domain.Attempt) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	a.Email = domain.NormalizeEmail(a.Email)
	l.attempts = append(l.attempts, a)
	return nil
}

func (l *Ledger) Count(_ context.Context, questionID int64, email string) (int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	email = domain.NormalizeEmail(email)
	count := 0
	for _, a := range l.attempts {
		if a.QuestionID == questionID && a.Email == email {
			count++
		}
	}
	return count, nil
}

func (l *Ledger) HasCompleted(_ context.Context, questionID int64, email string) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	email = domain.NormalizeEmail(email)
	for _, a := range l.attempts {
		if a.QuestionID == questionID && a.Email == email && a.IsCorrect {
			return true, nil
		}
	}
	return false, nil
}

func (l *Ledger) LastAttempt(_ context.Context, questionID int64, email string) (domain.Attempt, bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	email = domain.NormalizeEmail(email)
	for i := len(l.attempts) - 1; i >= 0; i-- {
		if l.attempts[i].QuestionID == questionID && l.attempts[i].Email == email {
			return l.attempts[i], true, nil
		}
	}
	return domain.Attempt{}, false, nil
}

func (l *Ledger) Tally(_ context.Context, questionID int64) (domain.Tally, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	tally := domain.Tally{QuestionID: questionID}
	for _, a := range l.attempts {
		if a.QuestionID != questionID {
			continue
		}
		tally.Total++
		if domain.ValidOption(a.SelectedOption) {
			tally.Counts[a.SelectedOption-1]++
		}
		if a.VotedAt.After(tally.UpdatedAt) {
			tally.UpdatedAt = a.VotedAt
		}
	}
	return tally, nil
}

func (l *Ledger) ResetAll(_ context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.attempts = nil
	return nil
}
