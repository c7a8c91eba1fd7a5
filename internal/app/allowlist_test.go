package app_test

import (
	"context"
	"testing"

	"email-quiz-service/internal/app"
	"email-quiz-service/internal/domain"
	"email-quiz-service/internal/infra/memory"
)

func TestAllowGate(t *testing.T) {
	ctx := context.Background()
	participants := memory.NewParticipantStore()
	_ = participants.Put(ctx, domain.Participant{Email: "A@X.com"})
	gate := app.NewAllowGate(participants)

	cases := []struct {
		email string
		want  bool
	}{
		{"a@x.com", true},
		{"  A@X.COM  ", true},
		{"b@x.com", false},
		{"not-an-email", false},
		{"", false},
	}
	for _, tc := range cases {
		got, err := gate.IsAllowed(ctx, tc.email)
		if err != nil {
			t.Fatalf("IsAllowed(%q): %v", tc.email, err)
		}
		if got != tc.want {
			t.Fatalf("IsAllowed(%q)=%v, want %v", tc.email, got, tc.want)
		}
	}
}
