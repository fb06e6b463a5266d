package mw

import (
	"context"
	"errors"
	"net/http"

	"diynow/pkg/logger"
	"diynow/pkg/session"
)

type ctxKey int

const sessionKey ctxKey = iota

// SessionFrom returns the request's session, or nil for anonymous requests.
func SessionFrom(ctx context.Context) *session.Session {
	sess, _ := ctx.Value(sessionKey).(*session.Session)
	return sess
}

// WithSession attaches sess to ctx.
func WithSession(ctx context.Context, sess *session.Session) context.Context {
	return context.WithValue(ctx, sessionKey, sess)
}

// Session loads the session named by the cookie, if any. Unknown or expired
// ids leave the request anonymous.
func Session(store *session.Store, cookieName string, loggerClient logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, err := r.Cookie(cookieName)
			if err != nil || c.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			sess, err := store.Get(r.Context(), c.Value)
			switch {
			case err == nil:
				noteUser(r.Context(), sess.UserID)
				r = r.WithContext(WithSession(r.Context(), sess))
			case !errors.Is(err, session.ErrNoSession):
				loggerClient.Warn("failed to load session", logger.Error(err))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireLogin redirects anonymous requests to the login page.
func RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if SessionFrom(r.Context()) == nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}
