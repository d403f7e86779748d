package rag

import (
	"context"
	"log/slog"
)

// Invoker answers a question.
type Invoker interface {
	Invoke(ctx context.Context, question string) (string, error)
}

// AnswerStore is a question-keyed answer cache.
type AnswerStore interface {
	Get(ctx context.Context, question string) (string, bool, error)
	Set(ctx context.Context, question, answer string) error
}

// CachedChain serves repeated questions from a cache. Cache failures are
// logged and otherwise ignored.
type CachedChain struct {
	next  Invoker
	store AnswerStore
}

// WithCache wraps next with store.
func WithCache(next Invoker, store AnswerStore) *CachedChain {
	return &CachedChain{next: next, store: store}
}

// Invoke returns the cached answer or computes and stores a new one.
func (c *CachedChain) Invoke(ctx context.Context, question string) (string, error) {
	if answer, ok, err := c.store.Get(ctx, question); err != nil {
		slog.Warn("Answer cache read failed", "error", err)
	} else if ok {
		slog.Debug("Answer cache hit")
		return answer, nil
	}

	answer, err := c.next.Invoke(ctx, question)
	if err != nil {
		return "", err
	}

	if err := c.store.Set(ctx, question, answer); err != nil {
		slog.Warn("Answer cache write failed", "error", err)
	}

	return answer, nil
}
