package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"diynow/pkg/config"
	"diynow/pkg/httpserver/deps"
	"diynow/pkg/httpserver/handlers"
	"diynow/pkg/httpserver/mw"
	"diynow/pkg/logger"
)

// Server wraps the HTTP server and its dependencies.
type Server struct {
	http    *http.Server
	handler http.Handler
	logger  logger.Logger
}

// New builds the router, middlewares and routes.
func New(cfg config.ServerConfig, loggerClient logger.Logger, d deps.Deps) *Server {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout)) // a broad crawl runs inside the request
	}
	r.Use(mw.Log(loggerClient))
	r.Use(mw.NoCache)

	r.Get("/healthz", handlers.Healthz(d))

	r.Group(func(r chi.Router) {
		r.Use(mw.Session(d.Sessions, d.Cookie.Name, loggerClient))

		r.Get("/register", handlers.RegisterForm(d))
		r.Post("/register", handlers.Register(d))
		r.Get("/login", handlers.LoginForm(d))
		r.Post("/login", handlers.Login(d))
		r.Get("/logout", handlers.Logout(d))

		r.Group(func(r chi.Router) {
			r.Use(mw.RequireLogin)

			r.Get("/", handlers.Favorites(d))
			r.Post("/", handlers.DeleteFavorite(d))
			r.Get("/home", handlers.Home(d))
			r.Post("/home", handlers.HomeAction(d))
		})
	})

	s := &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 10*time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	return &Server{
		http:    s,
		handler: r,
		logger:  loggerClient,
	}
}

// Handler exposes the router, for tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start runs the HTTP server (blocks until error or shutdown).
func (s *Server) Start() error {
	s.logger.Infof("HTTP server listening on %s", s.http.Addr)
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop gracefully shuts down the server with the provided context deadline.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("HTTP server shutting down")
	return s.http.Shutdown(ctx)
}
