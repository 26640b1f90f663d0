package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytlists/internal/auth"
	"github.com/desertthunder/ytlists/internal/repositories"
	"github.com/desertthunder/ytlists/internal/services"
	"github.com/desertthunder/ytlists/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	searcher   services.VideoSearcher
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Config and Searcher are normally resolved per command from --config; tests inject them.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Searcher   services.VideoSearcher
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		searcher:   opts.Searcher,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

// SetLogger replaces the runner's logger.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		serveCommand, setupCommand, usersCommand, playlistsCommand, searchCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// loadConfig resolves the configuration once: the --config file when it exists (defaults otherwise), then
// YTLISTS_* environment overrides, then validation.
func (r *Runner) loadConfig(cmd *cli.Command) (*shared.Config, error) {
	if r.config != nil {
		return r.config, nil
	}

	path := r.configPath
	if path == "" {
		path = cmd.String("config")
	}

	config := shared.DefaultConfig()
	if _, err := os.Stat(path); err == nil {
		if config, err = shared.LoadConfig(path); err != nil {
			return nil, err
		}
		r.logger.Debug("loaded config", "path", path)
	} else if errors.Is(err, fs.ErrNotExist) {
		r.logger.Debug("config file not found, using defaults", "path", path)
	} else {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}

	if err := config.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if err := shared.SetLogLevelString(r.logger, config.Log.Level); err != nil {
		r.logger.Warn("ignoring log level", "error", err)
	}

	r.config = config
	r.configPath = path
	return config, nil
}

// backend is the opened storage for one command invocation.
type backend struct {
	users     *repositories.UserStore
	playlists *repositories.PlaylistStore
	close     func() error
}

func (r *Runner) openBackend(config *shared.Config) (*backend, error) {
	docs, closeFn, err := repositories.OpenDocuments(config.Storage)
	if err != nil {
		return nil, err
	}

	opts := []repositories.Option{
		repositories.WithStrictReads(config.Storage.StrictReads),
		repositories.WithLogger(r.logger),
	}
	return &backend{
		users:     repositories.NewUserStore(docs, opts...),
		playlists: repositories.NewPlaylistStore(docs, opts...),
		close:     closeFn,
	}, nil
}

func (r *Runner) newAccounts(config *shared.Config, b *backend, sessions *auth.SessionStore) (*auth.Accounts, error) {
	hasher, err := auth.NewHasher(config.Auth.PasswordScheme, config.Auth.BcryptCost)
	if err != nil {
		return nil, err
	}
	return auth.NewAccounts(b.users, hasher, sessions, r.logger), nil
}

func (r *Runner) newSearcher(config *shared.Config) services.VideoSearcher {
	if r.searcher != nil {
		return r.searcher
	}
	return services.NewYouTubeService(config.YouTube, r.logger)
}

// resolveUser returns the stored spelling of username.
func (r *Runner) resolveUser(b *backend, username string) (string, error) {
	if username == "" {
		return "", fmt.Errorf("%w: --user is required", shared.ErrMissingArgument)
	}
	user, ok, err := b.users.FindByUsername(username)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w: user %q", shared.ErrNotFound, username)
	}
	return user.Username, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
