package app

import (
	"context"
	"fmt"

	"email-quiz-service/internal/domain"
)

// ResultsView is display data for one participant on one question. Read
// only; producing it never mutates the ledger.
type ResultsView struct {
	QuestionID   int64                      `json:"questionId"`
	QuestionText string                     `json:"questionText"`
	Options      [domain.OptionCount]string `json:"options"`
	DisplayName  string                     `json:"displayName,omitempty"`
	Tally        domain.Tally               `json:"tally"`
	State        string                     `json:"state"`
	AttemptCount int                        `json:"attemptCount"`
	MaxAttempts  int                        `json:"maxAttempts"`
	LastAttempt  *domain.Attempt            `json:"lastAttempt,omitempty"`
}

// ResultsService assembles the results display from the question store and
// the ledger, reusing the admission controller's state derivation so the
// two paths can never count differently.
type ResultsService struct {
	questions QuestionRepository
	ledger    AttemptLedger
	admission *AdmissionController
}

func NewResultsService(questions QuestionRepository, ledger AttemptLedger, admission *AdmissionController) *ResultsService {
	return &ResultsService{questions: questions, ledger: ledger, admission: admission}
}

func (s *ResultsService) View(ctx context.Context, questionID int64, email, displayName string) (ResultsView, error) {
	email = domain.NormalizeEmail(email)

	question, err := s.questions.GetQuestion(ctx, questionID)
	if err != nil {
		return ResultsView{}, err
	}

	state, count, err := s.admission.ComputeState(ctx, questionID, email)
	if err != nil {
		return ResultsView{}, err
	}

	tally, err := s.ledger.Tally(ctx, questionID)
	if err != nil {
		return ResultsView{}, fmt.Errorf("tally question %d: %w", questionID, err)
	}

	view := ResultsView{
		QuestionID:   question.ID,
		QuestionText: question.Text,
		Options:      question.Options,
		DisplayName:  displayName,
		Tally:        tally,
		State:        state.String(),
		AttemptCount: count,
		MaxAttempts:  s.admission.MaxAttempts(),
	}

	if last, ok, err := s.ledger.LastAttempt(ctx, questionID, email); err != nil {
		return ResultsView{}, fmt.Errorf("read last attempt: %w", err)
	} else if ok {
		view.LastAttempt = &last
	}
	return view, nil
}
