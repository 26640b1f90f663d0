package main

import (
	"context"

	"github.com/desertthunder/ytlists/internal/auth"
	"github.com/desertthunder/ytlists/internal/models"
	"github.com/urfave/cli/v3"
)

// UsersList prints every registered user without password digests.
func (r *Runner) UsersList(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	b, err := r.openBackend(config)
	if err != nil {
		return err
	}
	defer b.close()

	users, err := b.users.List()
	if err != nil {
		return err
	}

	public := make([]models.PublicUser, len(users))
	for i, u := range users {
		public[i] = u.Public()
	}

	if cmd.Bool("json") {
		return r.writeJSON(public, true)
	}

	if len(public) == 0 {
		r.writePlain("No users registered\n")
		return nil
	}

	r.writePlainHeader("Users")
	for _, u := range public {
		r.writePlain("%s (%s)\n", u.Username, u.FirstName)
	}
	r.writePlain("\nTotal: %d users\n", len(public))
	return nil
}

// UsersAdd registers a user with the same validation as the sign-up endpoint.
func (r *Runner) UsersAdd(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	b, err := r.openBackend(config)
	if err != nil {
		return err
	}
	defer b.close()

	sessions := auth.NewSessionStore()
	defer sessions.Close()

	accounts, err := r.newAccounts(config, b, sessions)
	if err != nil {
		return err
	}

	password := cmd.String("password")
	user, err := accounts.Register(auth.RegisterInput{
		Username:        cmd.String("username"),
		Password:        password,
		ConfirmPassword: password,
		FirstName:       cmd.String("first-name"),
		ImageURL:        cmd.String("image-url"),
	})
	if err != nil {
		return err
	}

	r.logger.Info("user registered", "username", user.Username)
	r.writePlain("✓ Registered %s\n", user.Username)
	return nil
}
