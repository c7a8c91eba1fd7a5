package app_test

import (
	"testing"

	"email-quiz-service/internal/app"
	"email-quiz-service/internal/domain"
)

func TestTallyHubDeliversToQuestionSubscribers(t *testing.T) {
	hub := app.NewTallyHub()

	ch1, cancel1 := hub.Subscribe(1)
	defer cancel1()
	ch2, cancel2 := hub.Subscribe(2)
	defer cancel2()

	hub.Publish(domain.Tally{QuestionID: 1, Total: 4})

	got := <-ch1
	if got.QuestionID != 1 || got.Total != 4 {
		t.Fatalf("unexpected tally %+v", got)
	}
	select {
	case unexpected := <-ch2:
		t.Fatalf("question 2 subscriber received foreign tally %+v", unexpected)
	default:
	}
}

func TestTallyHubCancelClosesChannel(t *testing.T) {
	hub := app.NewTallyHub()
	ch, cancel := hub.Subscribe(1)
	cancel()
	if _, ok := <-ch; ok {
		t.Fatalf("expected closed channel after cancel")
	}
	// Publishing after cancel must not panic or block.
	hub.Publish(domain.Tally{QuestionID: 1, Total: 1})
}

func TestTallyHubDropsStaleForSlowSubscriber(t *testing.T) {
	hub := app.NewTallyHub()
	ch, cancel := hub.Subscribe(1)
	defer cancel()

	// Overflow the buffer; the hub must keep the freshest snapshot.
	for i := 1; i <= 20; i++ {
		hub.Publish(domain.Tally{QuestionID: 1, Total: i})
	}

	var last domain.Tally
	for {
		select {
		case tally := <-ch:
			last = tally
			continue
		default:
		}
		break
	}
	if last.Total != 20 {
		t.Fatalf("expected freshest tally retained, got %+v", last)
	}
}
