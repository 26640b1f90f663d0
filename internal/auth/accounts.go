package auth

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytlists/internal/models"
	"github.com/desertthunder/ytlists/internal/shared"
)

// UserStore is the persistence the account flows need.
//
// Create must reject usernames that already exist ignoring case with a [shared.ErrConflict] error,
// checked atomically with the insert. FindByUsername matches ignoring case.
type UserStore interface {
	Create(user models.User) error
	FindByUsername(username string) (models.User, bool, error)
}

// RegisterInput is the registration form.
type RegisterInput struct {
	Username        string `json:"username"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	FirstName       string `json:"firstName"`
	ImageURL        string `json:"imageUrl"`
}

// Accounts implements registration, login and logout.
type Accounts struct {
	users    UserStore
	hasher   Hasher
	sessions *SessionStore
	logger   *log.Logger

	decoyOnce sync.Once
	decoy     string
}

// NewAccounts creates an [Accounts] service.
func NewAccounts(users UserStore, hasher Hasher, sessions *SessionStore, logger *log.Logger) *Accounts {
	return &Accounts{
		users:    users,
		hasher:   hasher,
		sessions: sessions,
		logger:   shared.WithLogger(logger, "component", "accounts"),
	}
}

var errInvalidCredentials = shared.NewRequestError(shared.ErrNotAuthenticated, "Invalid username or password.")

// Register validates in and stores a new user.
func (a *Accounts) Register(in RegisterInput) (models.PublicUser, error) {
	if in.Username == "" || in.Password == "" || in.ConfirmPassword == "" || in.FirstName == "" || in.ImageURL == "" {
		return models.PublicUser{}, shared.NewRequestError(shared.ErrInvalidInput, "All fields are required.")
	}
	if in.Password != in.ConfirmPassword {
		return models.PublicUser{}, shared.NewRequestError(shared.ErrInvalidInput, "Passwords do not match.")
	}
	if err := ValidatePassword(in.Password); err != nil {
		return models.PublicUser{}, err
	}

	digest, err := a.hasher.Hash(in.Password)
	if err != nil {
		return models.PublicUser{}, err
	}

	user := models.User{
		Username:     in.Username,
		PasswordHash: digest,
		FirstName:    in.FirstName,
		ImageURL:     in.ImageURL,
	}
	if err := a.users.Create(user); err != nil {
		return models.PublicUser{}, fmt.Errorf("failed to register %s: %w", in.Username, err)
	}

	a.logger.Info("registered user", "username", user.Username)
	return user.Public(), nil
}

// Login checks credentials and opens a session. Unknown usernames and wrong passwords fail with
// the same message.
func (a *Accounts) Login(username, password string) (string, models.PublicUser, error) {
	if username == "" || password == "" {
		return "", models.PublicUser{}, shared.NewRequestError(shared.ErrInvalidInput, "Username and password required.")
	}

	user, ok, err := a.users.FindByUsername(username)
	if err != nil {
		return "", models.PublicUser{}, fmt.Errorf("failed to look up user: %w", err)
	}
	digest := user.PasswordHash
	if !ok {
		digest = a.decoyDigest()
	}
	if !a.hasher.Verify(password, digest) || !ok {
		a.logger.Debug("rejected login", "username", username)
		return "", models.PublicUser{}, errInvalidCredentials
	}

	token, err := a.sessions.Create(user.Username)
	if err != nil {
		return "", models.PublicUser{}, err
	}
	return token, user.Public(), nil
}

// decoyDigest is verified against for unknown usernames so both failures cost one hash.
func (a *Accounts) decoyDigest() string {
	a.decoyOnce.Do(func() {
		digest, err := a.hasher.Hash("ytlists-unknown-user")
		if err != nil {
			a.logger.Warn("failed to prepare login decoy", "err", err)
		}
		a.decoy = digest
	})
	return a.decoy
}

// Logout ends the session for token if there is one.
func (a *Accounts) Logout(token string) {
	if token != "" {
		a.sessions.Destroy(token)
	}
}

// Me returns the profile of the acting user.
func (a *Accounts) Me(username string) (models.PublicUser, error) {
	user, ok, err := a.users.FindByUsername(username)
	if err != nil {
		return models.PublicUser{}, fmt.Errorf("failed to look up user: %w", err)
	}
	if !ok {
		return models.PublicUser{}, shared.NewRequestError(shared.ErrNotAuthenticated, "Not authenticated")
	}
	return user.Public(), nil
}
