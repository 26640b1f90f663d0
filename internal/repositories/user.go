package repositories

import (
	"slices"
	"strings"

	"github.com/desertthunder/ytlists/internal/models"
	"github.com/desertthunder/ytlists/internal/shared"
)

var errUsernameTaken = shared.NewRequestError(shared.ErrConflict, "Username already exists.")

// UserStore holds all accounts in one document.
type UserStore struct {
	coll *collection[models.User]
}

// NewUserStore creates a [UserStore] over the users document of docs.
func NewUserStore(docs Documents, opts ...Option) *UserStore {
	return &UserStore{coll: newCollection[models.User](docs, UsersDocument, buildOptions(opts))}
}

// Create stores user. The uniqueness check and the write happen under one lock.
func (s *UserStore) Create(user models.User) error {
	if strings.TrimSpace(user.Username) == "" {
		return shared.NewRequestError(shared.ErrInvalidInput, "All fields are required.")
	}

	return s.coll.update(func(all []models.User) ([]models.User, bool, error) {
		if slices.ContainsFunc(all, func(u models.User) bool { return u.SameUsername(user.Username) }) {
			return nil, false, errUsernameTaken
		}
		return append(all, user), true, nil
	})
}

// FindByUsername looks a user up ignoring case.
func (s *UserStore) FindByUsername(username string) (models.User, bool, error) {
	var (
		found models.User
		ok    bool
	)
	err := s.coll.view(func(all []models.User) error {
		i := slices.IndexFunc(all, func(u models.User) bool { return u.SameUsername(username) })
		if i >= 0 {
			found, ok = all[i], true
		}
		return nil
	})
	return found, ok, err
}

// List returns every user in registration order.
func (s *UserStore) List() ([]models.User, error) {
	var out []models.User
	err := s.coll.view(func(all []models.User) error {
		out = all
		return nil
	})
	return out, err
}
