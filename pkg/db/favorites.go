package db

import (
	"context"
	"fmt"

	"diynow/pkg/domain"
)

// FavoriteStore persists the projects users saved.
type FavoriteStore struct {
	db *DB
}

func NewFavoriteStore(db *DB) *FavoriteStore {
	return &FavoriteStore{db: db}
}

// Add saves a favorite. ErrDuplicateFavorite if the user already holds that URL.
func (s *FavoriteStore) Add(ctx context.Context, f domain.Favorite) error {
	res, err := s.db.NamedExecContext(ctx, `INSERT INTO favorites (user_id, project_url, project_name, image_url)
		VALUES (:user_id, :project_url, :project_name, :image_url)
		ON CONFLICT (user_id, project_url) DO NOTHING`, f)
	if err != nil {
		return fmt.Errorf("insert favorite: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert favorite: %w", err)
	}
	if n == 0 {
		return ErrDuplicateFavorite
	}
	return nil
}

// List returns a user's favorites, oldest first.
func (s *FavoriteStore) List(ctx context.Context, userID int64) ([]domain.Favorite, error) {
	favorites := []domain.Favorite{}
	q := s.db.Rebind(`SELECT user_id, project_url, project_name, image_url
		FROM favorites WHERE user_id = ? ORDER BY id`)
	if err := s.db.SelectContext(ctx, &favorites, q, userID); err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	return favorites, nil
}

// Delete removes one of the user's favorites. ErrNotFound if the user does not hold it.
func (s *FavoriteStore) Delete(ctx context.Context, userID int64, projectURL string) error {
	q := s.db.Rebind(`DELETE FROM favorites WHERE user_id = ? AND project_url = ?`)
	res, err := s.db.ExecContext(ctx, q, userID, projectURL)
	if err != nil {
		return fmt.Errorf("delete favorite: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete favorite: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
