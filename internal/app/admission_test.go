package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"email-quiz-service/internal/app"
	"email-quiz-service/internal/domain"
	"email-quiz-service/internal/infra/memory"
)

type fixture struct {
	admission *app.AdmissionController
	ledger    *memory.Ledger
	clock     *fakeClock
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	participants := memory.NewParticipantStore()
	if err := participants.Put(ctx, domain.Participant{Email: "a@x.com", DisplayName: "Alice"}); err != nil {
		t.Fatalf("seed participant: %v", err)
	}

	questions := memory.NewQuestionStore()
	if _, err := questions.Put(ctx, domain.Question{
		ID:            1,
		Text:          "What is 2 + 2?",
		Options:       [domain.OptionCount]string{"3", "4", "5"},
		CorrectOption: 2,
		Active:        true,
	}); err != nil {
		t.Fatalf("seed question: %v", err)
	}
	if _, err := questions.Put(ctx, domain.Question{
		ID:            2,
		Text:          "Retired question",
		Options:       [domain.OptionCount]string{"a", "b", "c"},
		CorrectOption: 1,
		Active:        false,
	}); err != nil {
		t.Fatalf("seed inactive question: %v", err)
	}

	ledger := memory.NewLedger()
	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	gate := app.NewAllowGate(participants)
	admission := app.NewAdmissionControllerWithClock(gate, questions, ledger, 3, 5*time.Second, clock.Now)
	return &fixture{admission: admission, ledger: ledger, clock: clock}
}

func TestThreeWrongAttemptsThenExhausted(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	for want := 1; want <= 3; want++ {
		result, err := f.admission.SubmitVote(ctx, 1, "a@x.com", 1) // wrong
		if err != nil {
			t.Fatalf("attempt %d: %v", want, err)
		}
		if result.IsCorrect || result.AttemptCount != want {
			t.Fatalf("attempt %d: expected Accepted{false,%d}, got %+v", want, want, result)
		}
		f.clock.Advance(time.Minute)
	}

	_, err := f.admission.SubmitVote(ctx, 1, "a@x.com", 2)
	if !errors.Is(err, domain.ErrAttemptsExhausted) {
		t.Fatalf("expected exhausted, got %v", err)
	}
	count, _ := f.ledger.Count(ctx, 1, "a@x.com")
	if count != 3 {
		t.Fatalf("exhausted rejection must not write, count=%d", count)
	}
}

func TestCorrectAnswerCompletesImmediately(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	result, err := f.admission.SubmitVote(ctx, 1, "a@x.com", 2)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !result.IsCorrect || result.AttemptCount != 1 {
		t.Fatalf("expected Accepted{true,1}, got %+v", result)
	}

	state, count, err := f.admission.ComputeState(ctx, 1, "a@x.com")
	if err != nil {
		t.Fatalf("compute state: %v", err)
	}
	if state != domain.StateCompleted || count != 1 {
		t.Fatalf("expected completed after 1 attempt, got %v/%d", state, count)
	}
}

func TestDuplicateSubmissionWindow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	first, err := f.admission.SubmitVote(ctx, 1, "a@x.com", 2)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	// Immediate retry inside the window replays the original success.
	f.clock.Advance(2 * time.Second)
	dup, err := f.admission.SubmitVote(ctx, 1, "a@x.com", 2)
	if err != nil {
		t.Fatalf("duplicate inside window must not error: %v", err)
	}
	if dup != first {
		t.Fatalf("expected identical result, got %+v vs %+v", dup, first)
	}
	if count, _ := f.ledger.Count(ctx, 1, "a@x.com"); count != 1 {
		t.Fatalf("duplicate must not append, count=%d", count)
	}

	// Outside the window it is a hard reject.
	f.clock.Advance(10 * time.Second)
	_, err = f.admission.SubmitVote(ctx, 1, "a@x.com", 2)
	if !errors.Is(err, domain.ErrAlreadyCompleted) {
		t.Fatalf("expected already completed, got %v", err)
	}
}

func TestCompletedTakesPrecedenceOverExhausted(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	// Two wrong answers, then the correct one on the final attempt: the pair
	// satisfies both count >= max and completion, and must read as completed.
	for i := 0; i < 2; i++ {
		if _, err := f.admission.SubmitVote(ctx, 1, "a@x.com", 3); err != nil {
			t.Fatalf("wrong attempt: %v", err)
		}
		f.clock.Advance(time.Minute)
	}
	result, err := f.admission.SubmitVote(ctx, 1, "a@x.com", 2)
	if err != nil {
		t.Fatalf("final attempt: %v", err)
	}
	if !result.IsCorrect || result.AttemptCount != 3 {
		t.Fatalf("expected Accepted{true,3}, got %+v", result)
	}

	state, _, err := f.admission.ComputeState(ctx, 1, "a@x.com")
	if err != nil {
		t.Fatalf("compute state: %v", err)
	}
	if state != domain.StateCompleted {
		t.Fatalf("expected completed to win over exhausted, got %v", state)
	}
}

func TestUnknownEmailRejectedWithoutWrite(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.admission.SubmitVote(ctx, 1, "stranger@x.com", 2)
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if count, _ := f.ledger.Count(ctx, 1, "stranger@x.com"); count != 0 {
		t.Fatalf("rejection must leave ledger empty, count=%d", count)
	}
}

func TestInactiveQuestionRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.admission.SubmitVote(ctx, 2, "a@x.com", 1)
	if !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("expected not found for inactive question, got %v", err)
	}
	_, err = f.admission.SubmitVote(ctx, 99, "a@x.com", 1)
	if !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("expected not found for missing question, got %v", err)
	}
}

func TestEmailIdentityIsNormalized(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	if _, err := f.admission.SubmitVote(ctx, 1, "  A@X.COM ", 1); err != nil {
		t.Fatalf("submit: %v", err)
	}
	count, _ := f.ledger.Count(ctx, 1, "a@x.com")
	if count != 1 {
		t.Fatalf("expected normalized attempt visible, count=%d", count)
	}
}
