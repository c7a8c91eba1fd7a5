package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"email-quiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// QuestionLoader fetches question content from a backing store.
type QuestionLoader interface {
	LoadQuestion(ctx context.Context, id int64) (domain.Question, error)
}

// QuestionRepository caches questions in Redis (one JSON value per question)
// and falls back to a loader on cache miss.
// Questions are stored as: SET quiz:question:{id} {json} EX ttl
type QuestionRepository struct {
	client *redis.Client
	loader QuestionLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewQuestionRepository(client *redis.Client, loader QuestionLoader, ttl time.Duration) *QuestionRepository {
	return &QuestionRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *QuestionRepository) GetQuestion(ctx context.Context, id int64) (domain.Question, error) {
	key := r.key(id)

	if q, ok := r.fromCache(ctx, key); ok {
		return q, nil
	}

	result, err, _ := r.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if q, ok := r.fromCache(ctx, key); ok {
			return q, nil
		}

		question, err := r.loader.LoadQuestion(ctx, id)
		if err != nil {
			return domain.Question{}, err
		}

		raw, err := json.Marshal(cachedQuestion{
			Question:      question,
			CorrectOption: question.CorrectOption,
		})
		if err != nil {
			return domain.Question{}, fmt.Errorf("encode question: %w", err)
		}
		_ = r.client.Set(ctx, key, raw, r.ttlWithJitter()).Err()

		return question, nil
	})
	if err != nil {
		return domain.Question{}, err
	}
	return result.(domain.Question), nil
}

// cachedQuestion carries the correct-option index explicitly because
// domain.Question hides it from JSON.
type cachedQuestion struct {
	Question      domain.Question `json:"question"`
	CorrectOption int             `json:"correctOption"`
}

func (r *QuestionRepository) fromCache(ctx context.Context, key string) (domain.Question, bool) {
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		return domain.Question{}, false
	}
	var cached cachedQuestion
	if err := json.Unmarshal(raw, &cached); err != nil {
		return domain.Question{}, false
	}
	cached.Question.CorrectOption = cached.CorrectOption
	return cached.Question, true
}

func (r *QuestionRepository) key(id int64) string {
	return "quiz:question:" + strconv.FormatInt(id, 10)
}

func (r *QuestionRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
