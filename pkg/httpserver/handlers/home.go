package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"diynow/pkg/db"
	"diynow/pkg/domain"
	"diynow/pkg/httpserver/deps"
	"diynow/pkg/httpserver/mw"
	"diynow/pkg/logger"
	"diynow/pkg/sink"
)

const (
	msgAdded        = "Added!"
	msgDuplicate    = "You've already added that project!"
	msgUnavailable  = "That project is no longer available, search again"
	msgEmptySearch  = "Must provide a search term"
	msgCrawlFailed  = "Could not reach the project sites, try again"
	msgUnknownInput = "Must search for or save a project"
)

// Home renders a broad set of projects. The featured set is served when the
// refresher has stored one; otherwise a live crawl runs.
func Home(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := mw.SessionFrom(r.Context())
		results := d.Results(sess.ID)

		if records, ok := featured(r.Context(), d); ok {
			if err := results.Write(r.Context(), records); err != nil {
				d.Logger.Warn("failed to store session results", logger.Error(err))
			}
			render(w, r, d, http.StatusOK, "home", pageData{Title: "Home", Projects: records})
			return
		}

		records, err := d.Discovery.Discover(r.Context(), "", results)
		if err != nil {
			d.Logger.Error("broad crawl failed", logger.Error(err))
			render(w, r, d, http.StatusBadGateway, "home", pageData{Title: "Home", Flashes: []string{msgCrawlFailed}})
			return
		}
		render(w, r, d, http.StatusOK, "home", pageData{Title: "Home", Projects: records})
	}
}

// HomeAction handles the two forms on the home page: save and search.
func HomeAction(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := mw.SessionFrom(r.Context())
		results := d.Results(sess.ID)

		if err := r.ParseForm(); err != nil {
			render(w, r, d, http.StatusBadRequest, "home", pageData{Title: "Home", Flashes: []string{msgUnknownInput}})
			return
		}

		switch {
		case r.PostForm.Has("save"):
			save(w, r, d, sess.UserID, results, r.PostFormValue("save"))
		case r.PostForm.Has("search"):
			search(w, r, d, results, strings.TrimSpace(r.PostFormValue("search")))
		default:
			render(w, r, d, http.StatusBadRequest, "home", pageData{Title: "Home", Flashes: []string{msgUnknownInput}})
		}
	}
}

func save(w http.ResponseWriter, r *http.Request, d deps.Deps, userID int64, results deps.ResultSink, url string) {
	records, err := results.Read(r.Context())
	if err != nil && !errors.Is(err, sink.ErrNoResults) {
		d.Logger.Error("failed to read session results", logger.Error(err))
	}

	record, ok := domain.FindByURL(records, url)
	if !ok {
		render(w, r, d, http.StatusNotFound, "home", pageData{Title: "Home", Projects: records, Flashes: []string{msgUnavailable}})
		return
	}

	msg := msgAdded
	status := http.StatusOK
	err = d.Favorites.Add(r.Context(), domain.FavoriteFromRecord(userID, record))
	switch {
	case errors.Is(err, db.ErrDuplicateFavorite):
		msg = msgDuplicate
	case err != nil:
		d.Logger.Error("failed to save favorite", logger.Error(err))
		msg = "Could not save that project, try again"
		status = http.StatusInternalServerError
	}
	render(w, r, d, status, "home", pageData{Title: "Home", Projects: records, Flashes: []string{msg}})
}

func search(w http.ResponseWriter, r *http.Request, d deps.Deps, results deps.ResultSink, keyword string) {
	if keyword == "" {
		records, _ := results.Read(r.Context())
		render(w, r, d, http.StatusBadRequest, "home", pageData{Title: "Home", Projects: records, Flashes: []string{msgEmptySearch}})
		return
	}

	records, err := d.Discovery.Discover(r.Context(), keyword, results)
	if err != nil {
		d.Logger.Error("search crawl failed", logger.String("keyword", keyword), logger.Error(err))
		render(w, r, d, http.StatusBadGateway, "home", pageData{Title: "Home", Keyword: keyword, Flashes: []string{msgCrawlFailed}})
		return
	}
	render(w, r, d, http.StatusOK, "home", pageData{Title: "Search", Keyword: keyword, Projects: records})
}

func featured(ctx context.Context, d deps.Deps) ([]domain.ProjectRecord, bool) {
	if d.Featured == nil {
		return nil, false
	}
	records, err := d.Featured.Read(ctx)
	if err != nil {
		if !errors.Is(err, sink.ErrNoResults) {
			d.Logger.Warn("failed to read featured projects", logger.Error(err))
		}
		return nil, false
	}
	return records, len(records) > 0
}
