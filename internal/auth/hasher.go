package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/desertthunder/ytlists/internal/shared"
	"golang.org/x/crypto/bcrypt"
)

// Hasher produces and checks one-way password digests.
type Hasher interface {
	Hash(plain string) (string, error)
	Verify(plain, digest string) bool
}

// SHA256Hasher stores hex-encoded, unsalted SHA-256 digests.
//
// Deterministic and fast to brute force. Only use it for data written in this format.
type SHA256Hasher struct{}

func (SHA256Hasher) Hash(plain string) (string, error) {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:]), nil
}

func (h SHA256Hasher) Verify(plain, digest string) bool {
	want, _ := h.Hash(plain)
	return subtle.ConstantTimeCompare([]byte(want), []byte(digest)) == 1
}

// BcryptHasher stores salted, iterated bcrypt digests.
//
// Verify also accepts legacy SHA-256 digests so accounts created under that scheme can still log in.
type BcryptHasher struct {
	Cost int
}

func (h BcryptHasher) Hash(plain string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(b), nil
}

func (h BcryptHasher) Verify(plain, digest string) bool {
	if !strings.HasPrefix(digest, "$2") {
		return SHA256Hasher{}.Verify(plain, digest)
	}
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain)) == nil
}

// NewHasher returns the [Hasher] for a configured scheme name.
func NewHasher(scheme string, cost int) (Hasher, error) {
	switch scheme {
	case "", shared.SchemeBcrypt:
		if cost != 0 && (cost < bcrypt.MinCost || cost > bcrypt.MaxCost) {
			return nil, fmt.Errorf("%w: bcrypt cost %d out of range", shared.ErrInvalidConfig, cost)
		}
		return BcryptHasher{Cost: cost}, nil
	case shared.SchemeSHA256:
		return SHA256Hasher{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown password scheme %q", shared.ErrInvalidConfig, scheme)
	}
}
