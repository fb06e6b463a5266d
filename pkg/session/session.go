// Package session keeps logged-in users' state in Redis behind an opaque
// cookie id.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// KeyPrefixSession is the prefix for session keys
const KeyPrefixSession = "diynow:session:"

// ErrNoSession is returned for unknown or expired session ids.
var ErrNoSession = errors.New("session: not found")

// Key returns the Redis key of a session.
func Key(id string) string {
	return KeyPrefixSession + id
}

// Session is the state stored per login.
type Session struct {
	ID      string   `json:"-"`
	UserID  int64    `json:"user_id"`
	Flashes []string `json:"flashes,omitempty"`
}

// Store manages sessions. Every read slides the expiry forward.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

// TTL returns the idle lifetime of a session.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Create starts a session for userID.
func (s *Store) Create(ctx context.Context, userID int64) (*Session, error) {
	sess := &Session{ID: uuid.NewString(), UserID: userID}
	if err := s.Save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Get loads a session and refreshes its expiry.
func (s *Store) Get(ctx context.Context, id string) (*Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNoSession
	}

	data, err := s.client.Get(ctx, Key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if err := s.client.Expire(ctx, Key(id), s.ttl).Err(); err != nil {
		return nil, fmt.Errorf("failed to refresh session: %w", err)
	}

	sess := &Session{ID: id}
	if err := json.Unmarshal(data, sess); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return sess, nil
}

// Save writes the session back.
func (s *Store) Save(ctx context.Context, sess *Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := s.client.Set(ctx, Key(sess.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Destroy deletes a session. Unknown ids are ignored.
func (s *Store) Destroy(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, Key(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// update rewrites a session only if it still exists, so a concurrent
// Destroy is never undone.
func (s *Store) update(ctx context.Context, sess *Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	ok, err := s.client.SetXX(ctx, Key(sess.ID), data, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	if !ok {
		return ErrNoSession
	}
	return nil
}

// Flash queues a message for the next rendered page.
func (s *Store) Flash(ctx context.Context, sess *Session, msg string) error {
	sess.Flashes = append(sess.Flashes, msg)
	return s.update(ctx, sess)
}

// PopFlashes returns and clears the queued messages. If the session was
// destroyed meanwhile the messages are still returned and nothing is written.
func (s *Store) PopFlashes(ctx context.Context, sess *Session) ([]string, error) {
	if len(sess.Flashes) == 0 {
		return nil, nil
	}
	msgs := sess.Flashes
	sess.Flashes = nil
	if err := s.update(ctx, sess); err != nil && !errors.Is(err, ErrNoSession) {
		return nil, err
	}
	return msgs, nil
}
