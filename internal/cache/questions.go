// Package cache keeps the question set in Redis so the quiz page does not
// hit the database on every load.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/pavelanni/englishquiz/internal/model"
)

const questionsKey = "englishquiz:questions"

// QuestionSource loads the question set from the backing store.
type QuestionSource interface {
	ListQuestions(ctx context.Context) ([]model.Question, error)
}

// Questions is a read-through cache of the full question set. The set is
// stored as one JSON value; an empty set is never cached.
type Questions struct {
	client *redis.Client
	source QuestionSource
	ttl    time.Duration
	sf     singleflight.Group
}

// NewQuestions wraps source with a Redis cache whose entries live for ttl
// plus up to 10% jitter.
func NewQuestions(client *redis.Client, source QuestionSource, ttl time.Duration) *Questions {
	return &Questions{client: client, source: source, ttl: ttl}
}

// ListQuestions returns the cached set or loads it from the source on a
// miss. Redis failures fall back to the source.
func (c *Questions) ListQuestions(ctx context.Context) ([]model.Question, error) {
	if qs, ok := c.get(ctx); ok {
		return qs, nil
	}

	v, err, _ := c.sf.Do(questionsKey, func() (any, error) {
		// Re-check in case another caller filled the cache.
		if qs, ok := c.get(ctx); ok {
			return qs, nil
		}
		qs, err := c.source.ListQuestions(ctx)
		if err != nil {
			return nil, err
		}
		if len(qs) > 0 {
			c.set(ctx, qs)
		}
		return qs, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]model.Question), nil
}

// Invalidate drops the cached set.
func (c *Questions) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, questionsKey).Err()
}

func (c *Questions) get(ctx context.Context) ([]model.Question, bool) {
	raw, err := c.client.Get(ctx, questionsKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("question cache read failed", "error", err)
		}
		return nil, false
	}
	var qs []model.Question
	if err := json.Unmarshal(raw, &qs); err != nil {
		slog.Warn("question cache entry corrupt", "error", err)
		return nil, false
	}
	return qs, true
}

func (c *Questions) set(ctx context.Context, qs []model.Question) {
	raw, err := json.Marshal(qs)
	if err != nil {
		slog.Warn("question cache encode failed", "error", err)
		return
	}
	if err := c.client.Set(ctx, questionsKey, raw, c.ttlWithJitter()).Err(); err != nil {
		slog.Warn("question cache write failed", "error", err)
	}
}

func (c *Questions) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	return c.ttl + time.Duration(rand.Int63n(int64(c.ttl)/10+1))
}
