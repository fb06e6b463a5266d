package handlers

import (
	"errors"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"diynow/pkg/db"
	"diynow/pkg/httpserver/deps"
	"diynow/pkg/httpserver/mw"
	"diynow/pkg/logger"
)

func LoginForm(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		forgetSession(w, r, d)
		render(w, r.WithContext(mw.WithSession(r.Context(), nil)), d, http.StatusOK, "login", pageData{Title: "Log In"})
	}
}

func Login(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		forgetSession(w, r, d)
		r = r.WithContext(mw.WithSession(r.Context(), nil))

		fail := func(status int, msg string) {
			render(w, r, d, status, "login", pageData{Title: "Log In", Flashes: []string{msg}})
		}

		username := strings.TrimSpace(r.PostFormValue("username"))
		password := r.PostFormValue("password")
		switch {
		case username == "":
			fail(http.StatusBadRequest, "Must provide username")
			return
		case password == "":
			fail(http.StatusBadRequest, "Must provide password")
			return
		}

		user, err := d.Users.GetByUsername(r.Context(), username)
		if err != nil && !errors.Is(err, db.ErrNotFound) {
			d.Logger.Error("failed to load user", logger.Error(err))
			fail(http.StatusInternalServerError, "Something went wrong, try again")
			return
		}
		if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
			fail(http.StatusForbidden, "Invalid username and/or password")
			return
		}

		if !startSession(w, r, d, user.ID) {
			fail(http.StatusInternalServerError, "Something went wrong, try again")
			return
		}
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

func RegisterForm(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render(w, r, d, http.StatusOK, "register", pageData{Title: "Register"})
	}
}

func Register(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fail := func(status int, msg string) {
			render(w, r, d, status, "register", pageData{Title: "Register", Flashes: []string{msg}})
		}

		username := strings.TrimSpace(r.PostFormValue("username"))
		password := r.PostFormValue("password")
		switch {
		case username == "":
			fail(http.StatusBadRequest, "Must provide username")
			return
		case password == "":
			fail(http.StatusBadRequest, "Must provide password")
			return
		case r.PostFormValue("confirm_password") != password:
			fail(http.StatusBadRequest, "Incorrect password confirmation")
			return
		}

		cost := d.BcryptCost
		if cost == 0 {
			cost = bcrypt.DefaultCost
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
		if err != nil {
			d.Logger.Error("failed to hash password", logger.Error(err))
			fail(http.StatusInternalServerError, "ERROR creating new user")
			return
		}

		id, err := d.Users.Create(r.Context(), username, string(hash))
		if err != nil {
			if errors.Is(err, db.ErrUsernameTaken) {
				fail(http.StatusConflict, "Must provide unique username")
				return
			}
			d.Logger.Error("failed to create user", logger.Error(err))
			fail(http.StatusInternalServerError, "ERROR creating new user")
			return
		}

		forgetSession(w, r, d)
		if !startSession(w, r, d, id, "Registered!") {
			fail(http.StatusInternalServerError, "ERROR creating new user")
			return
		}
		d.Logger.Info("user registered", logger.Int64("user_id", id))
		http.Redirect(w, r, "/home", http.StatusSeeOther)
	}
}

func Logout(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		forgetSession(w, r, d)
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	}
}

// startSession creates a session for userID with optional queued flashes and sets the cookie.
func startSession(w http.ResponseWriter, r *http.Request, d deps.Deps, userID int64, flashes ...string) bool {
	sess, err := d.Sessions.Create(r.Context(), userID)
	if err == nil && len(flashes) > 0 {
		sess.Flashes = flashes
		err = d.Sessions.Save(r.Context(), sess)
	}
	if err != nil {
		d.Logger.Error("failed to create session", logger.Error(err))
		return false
	}

	http.SetCookie(w, &http.Cookie{
		Name:     d.Cookie.Name,
		Value:    sess.ID,
		Path:     "/",
		MaxAge:   int(d.Cookie.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   d.Cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return true
}

// forgetSession destroys the current session, if any, and expires the cookie.
func forgetSession(w http.ResponseWriter, r *http.Request, d deps.Deps) {
	sess := mw.SessionFrom(r.Context())
	if sess == nil {
		return
	}
	if err := d.Sessions.Destroy(r.Context(), sess.ID); err != nil {
		d.Logger.Warn("failed to destroy session", logger.Error(err))
	}
	if err := d.Results(sess.ID).Reset(r.Context()); err != nil {
		d.Logger.Warn("failed to drop session results", logger.Error(err))
	}
	http.SetCookie(w, &http.Cookie{
		Name:     d.Cookie.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   d.Cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
