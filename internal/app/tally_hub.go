package app

import (
	"sync"

	"email-quiz-service/internal/domain"
)

// TallyHub fans out per-question tally snapshots to live subscribers (the
// results page websocket). It carries no admission state; publishers push a
// fresh ledger tally after each accepted vote.
type TallyHub struct {
	mu   sync.Mutex
	subs map[int64]map[chan domain.Tally]struct{}
}

func NewTallyHub() *TallyHub {
	return &TallyHub{subs: make(map[int64]map[chan domain.Tally]struct{})}
}

// Subscribe returns a channel receiving tally updates for a question.
// The caller must invoke the returned cancel function to avoid leaks.
func (h *TallyHub) Subscribe(questionID int64) (<-chan domain.Tally, func()) {
	ch := make(chan domain.Tally, 8)

	h.mu.Lock()
	if h.subs[questionID] == nil {
		h.subs[questionID] = make(map[chan domain.Tally]struct{})
	}
	h.subs[questionID][ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if set, ok := h.subs[questionID]; ok {
			if _, ok := set[ch]; ok {
				delete(set, ch)
				close(ch)
			}
			if len(set) == 0 {
				delete(h.subs, questionID)
			}
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers a tally snapshot to every subscriber of its question.
// A slow subscriber loses its stale snapshot rather than blocking the rest.
func (h *TallyHub) Publish(t domain.Tally) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[t.QuestionID] {
		select {
		case ch <- t:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- t
		}
	}
}
