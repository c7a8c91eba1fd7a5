package app

import (
	"context"
	"net/mail"

	"email-quiz-service/internal/domain"
)

// AllowGate answers whether an email may participate. A malformed address is
// reported as not allowed, never as an error, so callers cannot distinguish
// unknown addresses from invalid ones.
type AllowGate struct {
	participants ParticipantStore
}

func NewAllowGate(participants ParticipantStore) *AllowGate {
	return &AllowGate{participants: participants}
}

func (g *AllowGate) IsAllowed(ctx context.Context, email string) (bool, error) {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return false, nil
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return false, nil
	}
	return g.participants.Exists(ctx, email)
}
