package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"diynow/pkg/domain"
)

// UserStore persists accounts.
type UserStore struct {
	db *DB
}

func NewUserStore(db *DB) *UserStore {
	return &UserStore{db: db}
}

// Create inserts a user and returns its id. ErrUsernameTaken if the name exists.
func (s *UserStore) Create(ctx context.Context, username, hash string) (int64, error) {
	q := s.db.Rebind(`INSERT INTO users (username, hash) VALUES (?, ?)
		ON CONFLICT (username) DO NOTHING
		RETURNING id`)

	var id int64
	if err := s.db.QueryRowxContext(ctx, q, username, hash).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrUsernameTaken
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}
	return id, nil
}

// GetByUsername returns ErrNotFound when there is no such user.
func (s *UserStore) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.get(ctx, `SELECT id, username, hash FROM users WHERE username = ?`, username)
}

// GetByID returns ErrNotFound when there is no such user.
func (s *UserStore) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return s.get(ctx, `SELECT id, username, hash FROM users WHERE id = ?`, id)
}

func (s *UserStore) get(ctx context.Context, query string, arg interface{}) (*domain.User, error) {
	var u domain.User
	if err := s.db.GetContext(ctx, &u, s.db.Rebind(query), arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}
