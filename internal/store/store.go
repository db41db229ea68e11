// Package store keeps the last completed quote per chat so the
// conversational layer can re-read it without re-running the search.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/FerX10/naturbot/internal/search"
)

// QuoteStore persists outcomes in Redis under a per-chat key with TTL.
type QuoteStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewQuoteStore connects to Redis at addr. ttl bounds how long a quote stays
// readable; zero means no expiry.
func NewQuoteStore(addr string, ttl time.Duration) *QuoteStore {
	return &QuoteStore{
		rdb: redis.NewClient(&redis.Options{Addr: addr}),
		ttl: ttl,
	}
}

func quoteKey(chatID string) string {
	return fmt.Sprintf("quote:%s", chatID)
}

// SaveOutcome stores the outcome as JSON, replacing any previous quote for
// the chat.
func (s *QuoteStore) SaveOutcome(ctx context.Context, chatID string, out search.Outcome) error {
	data, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("failed to marshal outcome: %w", err)
	}
	if err := s.rdb.Set(ctx, quoteKey(chatID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis SET error: %w", err)
	}
	return nil
}

// LastOutcome returns the stored quote for the chat, if any.
func (s *QuoteStore) LastOutcome(ctx context.Context, chatID string) (search.Outcome, bool, error) {
	data, err := s.rdb.Get(ctx, quoteKey(chatID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return search.Outcome{}, false, nil
	}
	if err != nil {
		return search.Outcome{}, false, fmt.Errorf("redis GET error: %w", err)
	}

	var out search.Outcome
	if err := json.Unmarshal(data, &out); err != nil {
		// A corrupt entry is as good as no entry; drop it.
		s.rdb.Del(ctx, quoteKey(chatID))
		return search.Outcome{}, false, nil
	}
	return out, true, nil
}

// Invalidate removes the stored quote for the chat.
func (s *QuoteStore) Invalidate(ctx context.Context, chatID string) error {
	return s.rdb.Del(ctx, quoteKey(chatID)).Err()
}

// Close releases the Redis connection.
func (s *QuoteStore) Close() error {
	return s.rdb.Close()
}
