// Package session stores conversation sessions in Redis as JSON with a
// sliding TTL.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/sialweb/bookline/internal/dialog"
)

// DefaultTTL is how long an idle conversation survives before the next
// message starts over.
const DefaultTTL = 30 * time.Minute

// Store reads and writes dialog sessions keyed by conversation id.
type Store struct {
	redis  *redis.Client
	ttl    time.Duration
	tracer trace.Tracer
}

// NewStore creates a session store. A non-positive ttl falls back to
// DefaultTTL; a nil tracer falls back to the global provider.
func NewStore(rdb *redis.Client, ttl time.Duration, tracer trace.Tracer) *Store {
	if rdb == nil {
		panic("session: redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if tracer == nil {
		tracer = otel.Tracer("bookline.internal.session")
	}
	return &Store{redis: rdb, ttl: ttl, tracer: tracer}
}

// Load returns the stored session for a conversation, or (nil, nil) when
// none exists and a fresh one should be started.
func (s *Store) Load(ctx context.Context, conversationID string) (*dialog.Session, error) {
	ctx, span := s.tracer.Start(ctx, "session.load")
	defer span.End()

	data, err := s.redis.Get(ctx, sessionKey(conversationID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("session: load: %w", err)
	}

	var sess dialog.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("session: decode: %w", err)
	}
	return &sess, nil
}

// Save persists the session and refreshes its TTL.
func (s *Store) Save(ctx context.Context, conversationID string, sess dialog.Session) error {
	ctx, span := s.tracer.Start(ctx, "session.save")
	defer span.End()

	data, err := json.Marshal(sess)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: marshal: %w", err)
	}
	if err := s.redis.Set(ctx, sessionKey(conversationID), data, s.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: persist: %w", err)
	}
	return nil
}

// Delete drops a finished conversation. Deleting a missing key is not an
// error.
func (s *Store) Delete(ctx context.Context, conversationID string) error {
	ctx, span := s.tracer.Start(ctx, "session.delete")
	defer span.End()

	if err := s.redis.Del(ctx, sessionKey(conversationID)).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: delete: %w", err)
	}
	return nil
}

func sessionKey(id string) string {
	return fmt.Sprintf("session:%s", id)
}
