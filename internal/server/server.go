// package server contains middleware & handlers for the playlist web service
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytlists/internal/auth"
	"github.com/desertthunder/ytlists/internal/models"
	"github.com/desertthunder/ytlists/internal/services"
	"github.com/desertthunder/ytlists/internal/shared"
	"github.com/go-chi/cors"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Route binds a method and path pattern to a handler with optional route-level middleware.
type Route struct {
	Method     string
	Path       string
	Handler    http.Handler
	Middleware []Middleware
}

// Handler groups related routes.
type Handler interface {
	Routes() []Route
}

// Router defines the interface for HTTP routing and middleware management.
type Router interface {
	Use(middleware ...Middleware)
	Handle(method, path string, handler http.Handler, middleware ...Middleware)
	Handler(handler Handler)
	ServeHTTP(w http.ResponseWriter, r *http.Request)
}

// Playlists is the playlist store as seen by the HTTP layer.
type Playlists interface {
	ListForUser(username string) ([]models.Playlist, error)
	Create(username, name string) (models.Playlist, error)
	Delete(username, id string) error
	AddItem(username, id string, item models.PlaylistItem) (models.Playlist, error)
	SetRating(username, id, videoID string, rating int) (models.Playlist, error)
	RemoveItem(username, id, videoID string) (models.Playlist, error)
}

// Deps are the collaborators the server routes to.
type Deps struct {
	Accounts  *auth.Accounts
	Sessions  *auth.SessionStore
	Playlists Playlists
	Searcher  services.VideoSearcher
	Logger    *log.Logger
}

// Server is the HTTP API.
type Server struct {
	cfg     *shared.Config
	router  *BasicRouter
	metrics *Metrics
	logger  *log.Logger
}

// New wires every route and middleware for cfg.
func New(cfg *shared.Config, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = shared.NewLogger(io.Discard)
	}
	logger := shared.WithLogger(deps.Logger, "component", "server")

	s := &Server{
		cfg:    cfg,
		router: NewBasicRouter(),
		logger: logger,
	}

	s.router.Use(Recover(logger), RequestLogger(logger))
	if cfg.Server.Metrics {
		s.metrics = NewMetrics(deps.Sessions)
		s.router.Use(s.metrics.Middleware())
	}
	s.router.Use(CORS(cfg.Server.AllowedOrigins))

	guard := auth.NewGuard(deps.Sessions)
	cookies := SessionCookies{Name: cfg.Session.CookieName, Secure: cfg.Session.Secure}
	requireSession := RequireSession(guard, cookies.Name)

	s.router.Handle(http.MethodGet, "/api/health", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respond(w, http.StatusOK, envelope{"ok": true})
	}))
	s.router.Handler(NewAuthHandler(deps.Accounts, cookies, requireSession, logger))
	s.router.Handler(NewPlaylistHandler(deps.Playlists, s.metrics, requireSession, logger))
	s.router.Handler(NewSearchHandler(deps.Searcher, requireSession, logger))

	if s.metrics != nil {
		s.router.Handle(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	s.router.Handle("", "/api/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusNotFound, "Not found.")
	}))
	if cfg.Server.StaticDir != "" {
		s.router.Handle("", "/", http.FileServer(http.Dir(cfg.Server.StaticDir)))
	}

	return s
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Serve accepts connections on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          s.logger.StandardLog(log.StandardLogOptions{ForceLevel: log.ErrorLevel}),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", ln.Addr().String())
		errCh <- httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	timeout := s.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.logger.Info("shutting down", "timeout", timeout)
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}

// CORS allows credentialed requests from origins. An empty list, or one holding "*", reflects any origin.
func CORS(origins []string) Middleware {
	opts := cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	// go-chi/cors answers "*" for a wildcard list, which browsers refuse with credentials.
	if len(origins) == 0 || slices.Contains(origins, "*") {
		opts.AllowedOrigins = nil
		opts.AllowOriginFunc = func(*http.Request, string) bool { return true }
	}
	return cors.Handler(opts)
}
