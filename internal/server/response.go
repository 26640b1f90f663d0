package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytlists/internal/shared"
)

const maxBodyBytes = 1 << 20

type envelope map[string]any

func respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respond(w, status, envelope{"ok": false, "error": message})
}

// StatusFor maps an error kind to an HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, shared.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, shared.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, shared.ErrAPIRequest):
		return http.StatusBadGateway
	case errors.Is(err, shared.ErrServiceUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err as a JSON error. Errors without a public message are logged and reported generically.
func fail(w http.ResponseWriter, logger *log.Logger, err error) {
	status := StatusFor(err)
	msg, ok := shared.PublicMessage(err)
	if !ok {
		switch status {
		case http.StatusBadGateway:
			msg = "Upstream request failed."
		case http.StatusServiceUnavailable:
			msg = "Service unavailable."
		default:
			msg = "Internal server error."
		}
		logger.Error("request failed", "status", status, "err", err)
	}
	respondError(w, status, msg)
}

var (
	errInvalidJSON  = shared.NewRequestError(shared.ErrInvalidInput, "Invalid JSON body.")
	errBodyTooLarge = errors.New("request body too large")
)

// decodeBody reads a JSON object of at most 1 MiB into v. An empty body leaves v untouched.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(v)

	var maxErr *http.MaxBytesError
	switch {
	case err == nil, errors.Is(err, io.EOF):
		return nil
	case errors.As(err, &maxErr):
		return errBodyTooLarge
	default:
		return errInvalidJSON
	}
}

// decodeOrFail decodes the body and writes the error response itself, reporting whether to continue.
func decodeOrFail(w http.ResponseWriter, r *http.Request, logger *log.Logger, v any) bool {
	err := decodeBody(w, r, v)
	switch {
	case err == nil:
		return true
	case errors.Is(err, errBodyTooLarge):
		respondError(w, http.StatusRequestEntityTooLarge, "Request body too large.")
	default:
		fail(w, logger, err)
	}
	return false
}
