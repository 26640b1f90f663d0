// Package server exposes the playlist service over HTTP.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] method patterns ("POST /api/playlists/{id}/items").
// Router-level middleware wraps the whole mux so it also sees preflight and unmatched requests;
// a [Route] can add its own middleware, such as [RequireSession].
//
// # Handler Interface
//
// Handlers implement [Handler] and return their [Route] table, keeping route definitions next to the code
// that serves them:
//   - [AuthHandler] : register, login, logout, me
//   - [PlaylistHandler] : owner-scoped playlist and item operations
//   - [SearchHandler] : normalized video search
//
// # Responses
//
// Bodies are JSON. Success is {"ok":true,...}; failure is {"ok":false,"error":"..."} with a status
// derived from the error kind (see [StatusFor]).
//
// # Sessions
//
// Login sets an HTTP-only, SameSite=Lax cookie holding the session token. [RequireSession]
// resolves it through [auth.Guard] and attaches the username to the request context.
package server
