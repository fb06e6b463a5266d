package handlers

import (
	"errors"
	"net/http"

	"diynow/pkg/db"
	"diynow/pkg/httpserver/deps"
	"diynow/pkg/httpserver/mw"
	"diynow/pkg/logger"
)

func Favorites(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		renderFavorites(w, r, d, http.StatusOK)
	}
}

// DeleteFavorite removes one of the current user's favorites by project URL.
func DeleteFavorite(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := mw.SessionFrom(r.Context())
		url := r.PostFormValue("delete")
		if url == "" {
			renderFavorites(w, r, d, http.StatusBadRequest, "Must choose a project to delete")
			return
		}

		msg := "Deleted!"
		status := http.StatusOK
		err := d.Favorites.Delete(r.Context(), sess.UserID, url)
		switch {
		case errors.Is(err, db.ErrNotFound):
			msg = "That project is not in your list"
			status = http.StatusNotFound
		case err != nil:
			d.Logger.Error("failed to delete favorite", logger.Error(err))
			msg = "Could not delete that project, try again"
			status = http.StatusInternalServerError
		}
		renderFavorites(w, r, d, status, msg)
	}
}

func renderFavorites(w http.ResponseWriter, r *http.Request, d deps.Deps, status int, flashes ...string) {
	sess := mw.SessionFrom(r.Context())
	favorites, err := d.Favorites.List(r.Context(), sess.UserID)
	if err != nil {
		d.Logger.Error("failed to list favorites", logger.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	render(w, r, d, status, "favorites", pageData{Title: "Favorites", Favorites: favorites, Flashes: flashes})
}
