package app

import (
	"context"
	"fmt"
)

// Reset targets. "questions" also clears votes, since orphaned attempts for
// deleted questions would poison future campaigns reusing the same IDs.
const (
	ResetVotes        = "votes"
	ResetParticipants = "participants"
	ResetQuestions    = "questions"
	ResetSessions     = "sessions"
	ResetAllTables    = "all"
)

// ResetOutcome reports one table truncation. Partial failures are reported
// per table, never swallowed.
type ResetOutcome struct {
	Target string `json:"target"`
	OK     bool   `json:"ok"`
	Error  string `json:"error,omitempty"`
}

// ResetService bulk-clears campaign tables. Each truncation is independent;
// one failing table does not stop the rest.
type ResetService struct {
	ledger       AttemptLedger
	participants ParticipantStore
	questions    QuestionStore
	sessions     SessionStore
}

func NewResetService(ledger AttemptLedger, participants ParticipantStore, questions QuestionStore, sessions SessionStore) *ResetService {
	return &ResetService{
		ledger:       ledger,
		participants: participants,
		questions:    questions,
		sessions:     sessions,
	}
}

func (s *ResetService) Reset(ctx context.Context, target string) []ResetOutcome {
	switch target {
	case ResetVotes:
		return []ResetOutcome{outcome(ResetVotes, s.ledger.ResetAll(ctx))}
	case ResetParticipants:
		return []ResetOutcome{outcome(ResetParticipants, s.participants.ResetAll(ctx))}
	case ResetQuestions:
		return []ResetOutcome{
			outcome(ResetVotes, s.ledger.ResetAll(ctx)),
			outcome(ResetQuestions, s.questions.ResetAll(ctx)),
		}
	case ResetSessions:
		return []ResetOutcome{outcome(ResetSessions, s.sessions.ResetAll(ctx))}
	case ResetAllTables:
		return []ResetOutcome{
			outcome(ResetVotes, s.ledger.ResetAll(ctx)),
			outcome(ResetParticipants, s.participants.ResetAll(ctx)),
			outcome(ResetQuestions, s.questions.ResetAll(ctx)),
			outcome(ResetSessions, s.sessions.ResetAll(ctx)),
		}
	}
	return []ResetOutcome{{Target: target, Error: fmt.Sprintf("unknown reset target %q", target)}}
}

func outcome(target string, err error) ResetOutcome {
	if err != nil {
		return ResetOutcome{Target: target, Error: err.Error()}
	}
	return ResetOutcome{Target: target, OK: true}
}
