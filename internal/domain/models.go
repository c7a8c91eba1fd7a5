package domain

import (
	"strings"
	"time"
)

// Participant is an allow-listed recipient. Identity is the normalized email.
type Participant struct {
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// NormalizeEmail canonicalizes an address for identity comparisons.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// OptionCount is the number of options every question carries.
const OptionCount = 3

// Question models a multiple-choice question with exactly three options.
// CorrectOption is 1-based and always one of {1, 2, 3}.
type Question struct {
	ID            int64               `json:"id"`
	Text          string              `json:"text"`
	Options       [OptionCount]string `json:"options"`
	CorrectOption int                 `json:"-"`
	Active        bool                `json:"active"`
	CreatedAt     time.Time           `json:"createdAt"`
}

// ValidOption reports whether a selected option index is in range.
func ValidOption(option int) bool {
	return option >= 1 && option <= OptionCount
}

// Session binds a participant to a question for a bounded time window.
// The token is opaque to clients; its payload mirrors this struct and is
// cross-checked against the persisted row on every validation.
type Session struct {
	Token       string    `json:"-"`
	QuestionID  int64     `json:"questionId"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName,omitempty"`
	IssuedAt    time.Time `json:"issuedAt"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// TokenStatus is the outcome of validating a session token. Both the stored
// row and the self-contained payload must pass for TokenValid.
type TokenStatus int

const (
	TokenValid TokenStatus = iota
	TokenExpired
	TokenMalformed
	TokenNotFound
)

func (s TokenStatus) String() string {
	switch s {
	case TokenValid:
		return "valid"
	case TokenExpired:
		return "expired"
	case TokenMalformed:
		return "malformed"
	case TokenNotFound:
		return "not_found"
	}
	return "unknown"
}

// Attempt is one submitted answer, correct or not. Rows are append-only;
// repeated attempts for the same (question, email) pair accumulate.
type Attempt struct {
	QuestionID     int64     `json:"questionId"`
	Email          string    `json:"email"`
	SelectedOption int       `json:"selectedOption"`
	IsCorrect      bool      `json:"isCorrect"`
	VotedAt        time.Time `json:"votedAt"`
}

// Tally aggregates submissions per option for one question. Display only,
// never an input to admission decisions.
type Tally struct {
	QuestionID int64            `json:"questionId"`
	Total      int              `json:"total"`
	Counts     [OptionCount]int `json:"counts"`
	UpdatedAt  time.Time        `json:"updatedAt"`
}

// ProgressState is derived from the ledger on every read; it is never stored.
type ProgressState int

const (
	StateNotStarted ProgressState = iota
	StateInProgress
	StateExhausted
	StateCompleted
)

func (s ProgressState) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateInProgress:
		return "in_progress"
	case StateExhausted:
		return "exhausted"
	case StateCompleted:
		return "completed"
	}
	return "unknown"
}

// AdmissionResult is the success payload of an accepted (or harmlessly
// duplicated) vote submission.
type AdmissionResult struct {
	IsCorrect    bool `json:"isCorrect"`
	AttemptCount int  `json:"attemptCount"`
}
