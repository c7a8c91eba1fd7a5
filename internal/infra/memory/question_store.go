package memory

import (
	"context"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"email-quiz-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// QuestionLoader fetches question content from a backing store.
type QuestionLoader interface {
	LoadQuestion(ctx context.Context, id int64) (domain.Question, error)
}

// QuestionStore is an in-memory implementation of app.QuestionStore that
// doubles as a loader for the caching repositories.
type QuestionStore struct {
	mu        sync.RWMutex
	nextID    int64
	questions map[int64]domain.Question
}

func NewQuestionStore() *QuestionStore {
	return &QuestionStore{nextID: 1, questions: make(map[int64]domain.Question)}
}

func (s *QuestionStore) GetQuestion(_ context.Context, id int64) (domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.questions[id]
	if !ok {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	return q, nil
}

func (s *QuestionStore) LoadQuestion(ctx context.Context, id int64) (domain.Question, error) {
	return s.GetQuestion(ctx, id)
}

func (s *QuestionStore) Put(_ context.Context, q domain.Question) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if q.ID == 0 {
		q.ID = s.nextID
		s.nextID++
	} else if q.ID >= s.nextID {
		s.nextID = q.ID + 1
	}
	s.questions[q.ID] = q
	return q.ID, nil
}

func (s *QuestionStore) ResetAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.questions = make(map[int64]domain.Question)
	s.nextID = 1
	return nil
}

// QuestionCache caches questions with TTL to avoid repeated store hits on
// the hot read paths (entry, vote, results).
type QuestionCache struct {
	loader QuestionLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[int64]cachedQuestion
}

type cachedQuestion struct {
	question  domain.Question
	expiresAt time.Time
}

func NewQuestionCache(loader QuestionLoader, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[int64]cachedQuestion),
	}
}

func (c *QuestionCache) GetQuestion(ctx context.Context, id int64) (domain.Question, error) {
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.cache[id]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return entry.question, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do(keyFor(id), func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.cache[id]; ok && entry.expiresAt.After(now) {
			c.mu.RUnlock()
			return entry.question, nil
		}
		c.mu.RUnlock()

		question, err := c.loader.LoadQuestion(ctx, id)
		if err != nil {
			return domain.Question{}, err
		}

		c.mu.Lock()
		c.cache[id] = cachedQuestion{
			question:  question,
			expiresAt: now.Add(c.ttlWithJitter()),
		}
		c.mu.Unlock()
		return question, nil
	})
	if err != nil {
		return domain.Question{}, err
	}
	return result.(domain.Question), nil
}

func (c *QuestionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

func keyFor(id int64) string {
	return "question:" + strconv.FormatInt(id, 10)
}
