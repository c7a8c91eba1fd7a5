package redis

import (
	"context"
	"testing"
	"time"

	"email-quiz-service/internal/domain"
	"email-quiz-service/internal/infra/memory"
	miniredis "github.com/alicebob/miniredis/v2"
)

func TestQuestionRepositoryCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	store := memory.NewQuestionStore()
	id, _ := store.Put(ctx, domain.Question{
		Text:          "What is 2 + 2?",
		Options:       [domain.OptionCount]string{"3", "4", "5"},
		CorrectOption: 2,
		Active:        true,
	})

	loader := &countingLoader{inner: store}
	repo := NewQuestionRepository(newClient(mr), loader, time.Minute)

	first, err := repo.GetQuestion(ctx, id)
	if err != nil {
		t.Fatalf("get question: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}
	if first.CorrectOption != 2 {
		t.Fatalf("correct option must survive caching, got %+v", first)
	}

	// Second call should hit cache, loader not incremented.
	second, err := repo.GetQuestion(ctx, id)
	if err != nil {
		t.Fatalf("get question: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
	if second.CorrectOption != 2 || second.Text != first.Text {
		t.Fatalf("cached question differs: %+v vs %+v", second, first)
	}
}

func TestQuestionRepositoryMissFallsThrough(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	repo := NewQuestionRepository(newClient(mr), &countingLoader{inner: memory.NewQuestionStore()}, time.Minute)
	if _, err := repo.GetQuestion(context.Background(), 404); err != domain.ErrQuestionNotFound {
		t.Fatalf("expected not found from loader, got %v", err)
	}
}

type countingLoader struct {
	inner QuestionLoader
	calls int
}

func (l *countingLoader) LoadQuestion(ctx context.Context, id int64) (domain.Question, error) {
	l.calls++
	return l.inner.LoadQuestion(ctx, id)
}
