package app

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"email-quiz-service/internal/domain"
)

// tokenPayload is the self-contained half of a session token. The persisted
// row is the revocable half; Validate requires both to agree.
type tokenPayload struct {
	QuestionID  int64  `json:"questionId"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName,omitempty"`
	IssuedAt    int64  `json:"issuedAt"`
	Expires     int64  `json:"expires"`
}

// TokenService issues and validates session tokens. Tokens are opaque
// base64url-encoded JSON; expiring or resetting the session store instantly
// invalidates outstanding links regardless of what the payload says.
type TokenService struct {
	store SessionStore
	ttl   time.Duration
	now   func() time.Time
}

func NewTokenService(store SessionStore, ttl time.Duration) *TokenService {
	return NewTokenServiceWithClock(store, ttl, time.Now)
}

// NewTokenServiceWithClock is test-only for deterministic timestamps.
func NewTokenServiceWithClock(store SessionStore, ttl time.Duration, now func() time.Time) *TokenService {
	return &TokenService{store: store, ttl: ttl, now: now}
}

// Issue builds a token for (questionID, email), persists it keyed by the
// token value, and garbage-collects expired rows. Re-issuing for the same
// identity supersedes the previous row via upsert.
func (s *TokenService) Issue(ctx context.Context, questionID int64, email, displayName string) (domain.Session, error) {
	now := s.now()
	email = domain.NormalizeEmail(email)

	payload := tokenPayload{
		QuestionID:  questionID,
		Email:       email,
		DisplayName: displayName,
		IssuedAt:    now.Unix(),
		Expires:     now.Add(s.ttl).Unix(),
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return domain.Session{}, fmt.Errorf("encode token payload: %w", err)
	}

	session := domain.Session{
		Token:       base64.RawURLEncoding.EncodeToString(raw),
		QuestionID:  questionID,
		Email:       email,
		DisplayName: displayName,
		IssuedAt:    now,
		ExpiresAt:   time.Unix(payload.Expires, 0),
	}

	// Amortized GC: stale rows are swept on every issuance, no background job.
	if err := s.store.PurgeExpired(ctx, now); err != nil {
		return domain.Session{}, fmt.Errorf("purge expired sessions: %w", err)
	}
	if err := s.store.Upsert(ctx, session); err != nil {
		return domain.Session{}, fmt.Errorf("persist session: %w", err)
	}
	return session, nil
}

// Validate runs the two named checks on a presented token: the persisted row
// must exist and be unexpired, and the decoded payload must be well-formed,
// unexpired, and consistent with that row. A payload that never hit the
// store (forged) and a row that outlived its payload (tampered) both fail.
func (s *TokenService) Validate(ctx context.Context, token string) (domain.Session, domain.TokenStatus, error) {
	if token == "" {
		return domain.Session{}, domain.TokenNotFound, nil
	}
	now := s.now()

	// Check 1: server-side record.
	stored, ok, err := s.store.Get(ctx, token)
	if err != nil {
		return domain.Session{}, domain.TokenNotFound, fmt.Errorf("look up session: %w", err)
	}
	if !ok {
		return domain.Session{}, domain.TokenNotFound, nil
	}
	if !stored.ExpiresAt.After(now) {
		return domain.Session{}, domain.TokenExpired, nil
	}

	// Check 2: self-contained payload.
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return domain.Session{}, domain.TokenMalformed, nil
	}
	var payload tokenPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return domain.Session{}, domain.TokenMalformed, nil
	}
	if payload.Expires < now.Unix() {
		return domain.Session{}, domain.TokenExpired, nil
	}
	if payload.QuestionID != stored.QuestionID || domain.NormalizeEmail(payload.Email) != stored.Email {
		return domain.Session{}, domain.TokenMalformed, nil
	}

	stored.Token = token
	stored.DisplayName = payload.DisplayName
	return stored, domain.TokenValid, nil
}
