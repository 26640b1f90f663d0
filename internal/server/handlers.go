package server

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytlists/internal/auth"
	"github.com/desertthunder/ytlists/internal/models"
	"github.com/desertthunder/ytlists/internal/services"
	"github.com/desertthunder/ytlists/internal/shared"
)

// SessionCookies describes the session cookie.
type SessionCookies struct {
	Name   string
	Secure bool
}

func (c SessionCookies) set(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c SessionCookies) clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

func (c SessionCookies) token(r *http.Request) string {
	if cookie, err := r.Cookie(c.Name); err == nil {
		return cookie.Value
	}
	return ""
}

// identity returns the username attached by [RequireSession].
func identity(r *http.Request) string {
	username, _ := auth.Identity(r.Context())
	return username
}

// AuthHandler serves registration, login, logout and the current user's profile.
type AuthHandler struct {
	accounts       *auth.Accounts
	cookies        SessionCookies
	requireSession Middleware
	logger         *log.Logger
}

// NewAuthHandler creates an [AuthHandler].
func NewAuthHandler(accounts *auth.Accounts, cookies SessionCookies, requireSession Middleware, logger *log.Logger) *AuthHandler {
	return &AuthHandler{
		accounts:       accounts,
		cookies:        cookies,
		requireSession: requireSession,
		logger:         shared.WithLogger(logger, "handler", "auth"),
	}
}

func (h *AuthHandler) Routes() []Route {
	return []Route{
		{Method: http.MethodPost, Path: "/api/auth/register", Handler: http.HandlerFunc(h.register)},
		{Method: http.MethodPost, Path: "/api/auth/login", Handler: http.HandlerFunc(h.login)},
		{Method: http.MethodPost, Path: "/api/auth/logout", Handler: http.HandlerFunc(h.logout)},
		{Method: http.MethodGet, Path: "/api/me", Handler: http.HandlerFunc(h.me), Middleware: []Middleware{h.requireSession}},
	}
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	var in auth.RegisterInput
	if !decodeOrFail(w, r, h.logger, &in) {
		return
	}
	if _, err := h.accounts.Register(in); err != nil {
		fail(w, h.logger, err)
		return
	}
	respond(w, http.StatusOK, envelope{"ok": true})
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if !decodeOrFail(w, r, h.logger, &in) {
		return
	}

	token, user, err := h.accounts.Login(in.Username, in.Password)
	if err != nil {
		fail(w, h.logger, err)
		return
	}
	h.cookies.set(w, token)
	respond(w, http.StatusOK, envelope{"ok": true, "user": user})
}

// logout needs no session: it clears whatever cookie the client holds.
func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	h.accounts.Logout(h.cookies.token(r))
	h.cookies.clear(w)
	respond(w, http.StatusOK, envelope{"ok": true})
}

func (h *AuthHandler) me(w http.ResponseWriter, r *http.Request) {
	user, err := h.accounts.Me(identity(r))
	if err != nil {
		fail(w, h.logger, err)
		return
	}
	respond(w, http.StatusOK, envelope{"ok": true, "user": user})
}

// PlaylistHandler serves the owner-scoped playlist routes. Every route requires a session.
type PlaylistHandler struct {
	store          Playlists
	metrics        *Metrics
	requireSession Middleware
	logger         *log.Logger
}

// NewPlaylistHandler creates a [PlaylistHandler]. metrics may be nil.
func NewPlaylistHandler(store Playlists, metrics *Metrics, requireSession Middleware, logger *log.Logger) *PlaylistHandler {
	return &PlaylistHandler{
		store:          store,
		metrics:        metrics,
		requireSession: requireSession,
		logger:         shared.WithLogger(logger, "handler", "playlists"),
	}
}

func (h *PlaylistHandler) Routes() []Route {
	guarded := []Middleware{h.requireSession}
	return []Route{
		{Method: http.MethodGet, Path: "/api/playlists", Handler: http.HandlerFunc(h.list), Middleware: guarded},
		{Method: http.MethodPost, Path: "/api/playlists", Handler: http.HandlerFunc(h.create), Middleware: guarded},
		{Method: http.MethodDelete, Path: "/api/playlists/{id}", Handler: http.HandlerFunc(h.delete), Middleware: guarded},
		{Method: http.MethodPost, Path: "/api/playlists/{id}/items", Handler: http.HandlerFunc(h.addItem), Middleware: guarded},
		{Method: http.MethodPatch, Path: "/api/playlists/{id}/items/{videoId}", Handler: http.HandlerFunc(h.setRating), Middleware: guarded},
		{Method: http.MethodDelete, Path: "/api/playlists/{id}/items/{videoId}", Handler: http.HandlerFunc(h.removeItem), Middleware: guarded},
	}
}

func (h *PlaylistHandler) list(w http.ResponseWriter, r *http.Request) {
	playlists, err := h.store.ListForUser(identity(r))
	if err != nil {
		fail(w, h.logger, err)
		return
	}
	respond(w, http.StatusOK, envelope{"ok": true, "playlists": playlists})
}

func (h *PlaylistHandler) create(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name string `json:"name"`
	}
	if !decodeOrFail(w, r, h.logger, &in) {
		return
	}

	p, err := h.store.Create(identity(r), in.Name)
	if err != nil {
		fail(w, h.logger, err)
		return
	}
	h.metrics.Mutation("create")
	respond(w, http.StatusOK, envelope{"ok": true, "playlist": p})
}

func (h *PlaylistHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(identity(r), r.PathValue("id")); err != nil {
		fail(w, h.logger, err)
		return
	}
	h.metrics.Mutation("delete")
	respond(w, http.StatusOK, envelope{"ok": true})
}

// itemPayload accepts loosely typed numbers the way browser clients send them.
type itemPayload struct {
	VideoID      string `json:"videoId"`
	Title        string `json:"title"`
	ThumbnailURL string `json:"thumbnailUrl"`
	DurationSec  any    `json:"durationSec"`
	Views        any    `json:"views"`
	Rating       any    `json:"rating"`
}

var errInvalidItem = shared.NewRequestError(shared.ErrInvalidInput, "Invalid item payload.")

func (p itemPayload) toItem() (models.PlaylistItem, error) {
	rating := 0
	if p.Rating != nil {
		r, ok := parseRating(p.Rating)
		if !ok {
			return models.PlaylistItem{}, errInvalidItem
		}
		rating = r
	}

	duration := services.CoerceViews(p.DurationSec)
	if duration > math.MaxInt32 {
		return models.PlaylistItem{}, errInvalidItem
	}

	return models.PlaylistItem{
		VideoID:      p.VideoID,
		Title:        p.Title,
		ThumbnailURL: p.ThumbnailURL,
		DurationSec:  int(duration),
		Views:        services.CoerceViews(p.Views),
		Rating:       rating,
	}, nil
}

func (h *PlaylistHandler) addItem(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Item json.RawMessage `json:"item"`
	}
	if !decodeOrFail(w, r, h.logger, &in) {
		return
	}

	var payload itemPayload
	if len(in.Item) == 0 || json.Unmarshal(in.Item, &payload) != nil {
		fail(w, h.logger, errInvalidItem)
		return
	}
	item, err := payload.toItem()
	if err != nil {
		fail(w, h.logger, err)
		return
	}

	p, err := h.store.AddItem(identity(r), r.PathValue("id"), item)
	if err != nil {
		fail(w, h.logger, err)
		return
	}
	h.metrics.Mutation("add_item")
	respond(w, http.StatusOK, envelope{"ok": true, "playlist": p})
}

var errInvalidRating = shared.NewRequestError(shared.ErrInvalidInput, "Rating must be an integer between 0 and 5.")

// parseRating accepts a JSON number or numeric string holding an integer in [0, 5].
func parseRating(v any) (int, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}

	if f != math.Trunc(f) || f < models.MinRating || f > models.MaxRating {
		return 0, false
	}
	return int(f), true
}

func (h *PlaylistHandler) setRating(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Rating any `json:"rating"`
	}
	if !decodeOrFail(w, r, h.logger, &in) {
		return
	}

	rating, ok := parseRating(in.Rating)
	if !ok {
		fail(w, h.logger, errInvalidRating)
		return
	}

	p, err := h.store.SetRating(identity(r), r.PathValue("id"), r.PathValue("videoId"), rating)
	if err != nil {
		fail(w, h.logger, err)
		return
	}
	h.metrics.Mutation("rate")
	respond(w, http.StatusOK, envelope{"ok": true, "playlist": p})
}

func (h *PlaylistHandler) removeItem(w http.ResponseWriter, r *http.Request) {
	p, err := h.store.RemoveItem(identity(r), r.PathValue("id"), r.PathValue("videoId"))
	if err != nil {
		fail(w, h.logger, err)
		return
	}
	h.metrics.Mutation("remove_item")
	respond(w, http.StatusOK, envelope{"ok": true, "playlist": p})
}

// SearchHandler proxies video search and returns a bare array of normalized videos.
type SearchHandler struct {
	searcher       services.VideoSearcher
	requireSession Middleware
	logger         *log.Logger
}

// NewSearchHandler creates a [SearchHandler].
func NewSearchHandler(searcher services.VideoSearcher, requireSession Middleware, logger *log.Logger) *SearchHandler {
	return &SearchHandler{
		searcher:       searcher,
		requireSession: requireSession,
		logger:         shared.WithLogger(logger, "handler", "search"),
	}
}

func (h *SearchHandler) Routes() []Route {
	return []Route{
		{Method: http.MethodGet, Path: "/api/youtube/search", Handler: http.HandlerFunc(h.search), Middleware: []Middleware{h.requireSession}},
	}
}

func (h *SearchHandler) search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		respondError(w, http.StatusBadRequest, "Query required.")
		return
	}

	max := 0
	if raw := r.URL.Query().Get("max"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondError(w, http.StatusBadRequest, "max must be a positive integer.")
			return
		}
		max = n
	}

	if h.searcher == nil {
		fail(w, h.logger, shared.ErrServiceUnavailable)
		return
	}

	videos, err := h.searcher.Search(r.Context(), query, max)
	if err != nil {
		fail(w, h.logger, err)
		return
	}
	if videos == nil {
		videos = []services.Video{}
	}
	respond(w, http.StatusOK, videos)
}
