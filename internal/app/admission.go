package app

import (
	"context"
	"fmt"
	"time"

	"email-quiz-service/internal/domain"
)

// AdmissionController decides whether an incoming answer is accepted,
// rejected as a duplicate, or rejected as exhausted, and writes the ledger
// entry. Per-pair state is derived from the ledger on every call; nothing is
// stored separately.
type AdmissionController struct {
	gate         *AllowGate
	questions    QuestionRepository
	ledger       AttemptLedger
	maxAttempts  int
	dedupeWindow time.Duration
	now          func() time.Time
}

func NewAdmissionController(gate *AllowGate, questions QuestionRepository, ledger AttemptLedger, maxAttempts int, dedupeWindow time.Duration) *AdmissionController {
	return NewAdmissionControllerWithClock(gate, questions, ledger, maxAttempts, dedupeWindow, time.Now)
}

// NewAdmissionControllerWithClock is test-only for deterministic timestamps.
func NewAdmissionControllerWithClock(gate *AllowGate, questions QuestionRepository, ledger AttemptLedger, maxAttempts int, dedupeWindow time.Duration, now func() time.Time) *AdmissionController {
	return &AdmissionController{
		gate:         gate,
		questions:    questions,
		ledger:       ledger,
		maxAttempts:  maxAttempts,
		dedupeWindow: dedupeWindow,
		now:          now,
	}
}

// MaxAttempts exposes the configured attempt limit for display paths.
func (c *AdmissionController) MaxAttempts() int {
	return c.maxAttempts
}

// ComputeState derives the per-pair state from the ledger. Completed wins
// over Exhausted: a correct answer ends the loop regardless of count.
func (c *AdmissionController) ComputeState(ctx context.Context, questionID int64, email string) (domain.ProgressState, int, error) {
	email = domain.NormalizeEmail(email)
	count, err := c.ledger.Count(ctx, questionID, email)
	if err != nil {
		return domain.StateNotStarted, 0, fmt.Errorf("count attempts: %w", err)
	}
	completed, err := c.ledger.HasCompleted(ctx, questionID, email)
	if err != nil {
		return domain.StateNotStarted, 0, fmt.Errorf("check completion: %w", err)
	}
	return stateFor(count, completed, c.maxAttempts), count, nil
}

func stateFor(count int, completed bool, maxAttempts int) domain.ProgressState {
	switch {
	case completed:
		return domain.StateCompleted
	case count >= maxAttempts:
		return domain.StateExhausted
	case count > 0:
		return domain.StateInProgress
	}
	return domain.StateNotStarted
}

// SubmitVote is the admission state machine. The returned attempt count is
// the pre-submission count plus one, computed rather than re-queried so a
// concurrent write for the same pair cannot skew this caller's view.
func (c *AdmissionController) SubmitVote(ctx context.Context, questionID int64, email string, selectedOption int) (domain.AdmissionResult, error) {
	email = domain.NormalizeEmail(email)

	allowed, err := c.gate.IsAllowed(ctx, email)
	if err != nil {
		return domain.AdmissionResult{}, fmt.Errorf("allow-list lookup: %w", err)
	}
	if !allowed {
		return domain.AdmissionResult{}, domain.ErrUnauthorized
	}

	question, err := c.questions.GetQuestion(ctx, questionID)
	if err != nil {
		return domain.AdmissionResult{}, err
	}
	if !question.Active {
		return domain.AdmissionResult{}, domain.ErrQuestionNotFound
	}

	state, count, err := c.ComputeState(ctx, questionID, email)
	if err != nil {
		return domain.AdmissionResult{}, err
	}

	switch state {
	case domain.StateCompleted:
		// Client retries and double-submits inside the window replay the
		// original success instead of surfacing an error.
		last, ok, err := c.ledger.LastAttempt(ctx, questionID, email)
		if err != nil {
			return domain.AdmissionResult{}, fmt.Errorf("read last attempt: %w", err)
		}
		if ok && last.IsCorrect && c.now().Sub(last.VotedAt) < c.dedupeWindow {
			return domain.AdmissionResult{IsCorrect: true, AttemptCount: count}, nil
		}
		return domain.AdmissionResult{}, domain.ErrAlreadyCompleted
	case domain.StateExhausted:
		return domain.AdmissionResult{}, domain.ErrAttemptsExhausted
	}

	isCorrect := selectedOption == question.CorrectOption
	attempt := domain.Attempt{
		QuestionID:     questionID,
		Email:          email,
		SelectedOption: selectedOption,
		IsCorrect:      isCorrect,
		VotedAt:        c.now(),
	}
	if err := c.ledger.Append(ctx, attempt); err != nil {
		return domain.AdmissionResult{}, fmt.Errorf("record attempt: %w", err)
	}

	return domain.AdmissionResult{IsCorrect: isCorrect, AttemptCount: count + 1}, nil
}
