package auth

import (
	"context"

	"github.com/desertthunder/ytlists/internal/shared"
)

type identityKey struct{}

// Guard resolves session tokens to the acting identity.
type Guard struct {
	sessions *SessionStore
}

// NewGuard creates a [Guard] backed by sessions.
func NewGuard(sessions *SessionStore) *Guard {
	return &Guard{sessions: sessions}
}

// Resolve returns the username bound to token, or [shared.ErrNotAuthenticated].
func (g *Guard) Resolve(token string) (string, error) {
	sess, ok := g.sessions.Resolve(token)
	if !ok {
		return "", shared.NewRequestError(shared.ErrNotAuthenticated, "Not authenticated")
	}
	return sess.Username, nil
}

// WithIdentity attaches the resolved username to ctx.
func WithIdentity(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, identityKey{}, username)
}

// Identity returns the username attached by [WithIdentity].
func Identity(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(identityKey{}).(string)
	return username, ok && username != ""
}
