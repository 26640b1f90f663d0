// Package auth implements credential storage and session-based authentication.
//
// Components, leaves first:
//   - [Hasher] : one-way password digests ([BcryptHasher] by default, [SHA256Hasher] for legacy data)
//   - [ValidatePassword] : registration password policy
//   - [SessionStore] : process-lifetime map from opaque token to username
//   - [Guard] : resolves a request's token to the acting identity or fails with [shared.ErrNotAuthenticated]
//   - [Accounts] : register, login, logout and profile lookup over a [UserStore]
//
// The acting username is only ever taken from a resolved session, never from client input.
package auth
