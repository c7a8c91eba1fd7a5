package app

import (
	"context"
	"time"

	"email-quiz-service/internal/domain"
)

// ParticipantStore abstracts the allow-list backing store (in-memory,
// Postgres, etc). Emails are stored normalized.
type ParticipantStore interface {
	Exists(ctx context.Context, email string) (bool, error)
	Put(ctx context.Context, p domain.Participant) error
	ResetAll(ctx context.Context) error
}

// QuestionRepository serves question content to the read paths (usually a
// TTL cache over the backing store).
type QuestionRepository interface {
	GetQuestion(ctx context.Context, id int64) (domain.Question, error)
}

// QuestionStore is the writable side of question storage, used by seeding
// and administrative reset.
type QuestionStore interface {
	QuestionRepository
	Put(ctx context.Context, q domain.Question) (int64, error)
	ResetAll(ctx context.Context) error
}

// SessionStore persists issued session tokens keyed by the opaque token
// value with replace-on-conflict semantics.
type SessionStore interface {
	Upsert(ctx context.Context, s domain.Session) error
	Get(ctx context.Context, token string) (domain.Session, bool, error)
	// PurgeExpired removes rows whose expiry is before the cutoff. Stores
	// with native per-key TTL may implement this as a no-op.
	PurgeExpired(ctx context.Context, cutoff time.Time) error
	ResetAll(ctx context.Context) error
}

// AttemptLedger is the append-only record of every answer submission and the
// single source of truth for progress. Rows are never updated or deleted
// except by ResetAll.
type AttemptLedger interface {
	Append(ctx context.Context, a domain.Attempt) error
	Count(ctx context.Context, questionID int64, email string) (int, error)
	HasCompleted(ctx context.Context, questionID int64, email string) (bool, error)
	LastAttempt(ctx context.Context, questionID int64, email string) (domain.Attempt, bool, error)
	Tally(ctx context.Context, questionID int64) (domain.Tally, error)
	ResetAll(ctx context.Context) error
}
