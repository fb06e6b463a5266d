package domain

// Favorite is a project a user saved to their list.
// A user can hold a given project URL at most once.
type Favorite struct {
	UserID      int64   `db:"user_id"`
	ProjectURL  string  `db:"project_url"`
	ProjectName string  `db:"project_name"`
	ImageURL    *string `db:"image_url"`
}

// FavoriteFromRecord builds the favorite a user gets when saving a crawled project.
func FavoriteFromRecord(userID int64, p ProjectRecord) Favorite {
	return Favorite{
		UserID:      userID,
		ProjectURL:  p.URL,
		ProjectName: p.Title,
		ImageURL:    p.ImageURL,
	}
}

// Image returns the image URL or "" when absent.
func (f Favorite) Image() string {
	if f.ImageURL == nil {
		return ""
	}
	return *f.ImageURL
}
