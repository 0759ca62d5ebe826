package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tidalx/internal/auth"
	"github.com/desertthunder/tidalx/internal/models"
	"github.com/desertthunder/tidalx/internal/plugin"
	"github.com/desertthunder/tidalx/internal/repositories"
	"github.com/desertthunder/tidalx/internal/services"
	"github.com/desertthunder/tidalx/internal/session"
	"github.com/desertthunder/tidalx/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	openURL    func(string) error
	noBrowser  bool
	plugin     *plugin.Plugin
	kv         repositories.KV
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	// OpenURL opens the verification page during connect. Nil disables it.
	OpenURL func(string) error
	// Plugin skips building the plugin from config.
	Plugin *plugin.Plugin
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		openURL:    opts.OpenURL,
		plugin:     opts.Plugin,
	}
}

func (r *Runner) app() *cli.Command {
	return &cli.Command{
		Name:    "tidalx",
		Usage:   "Browse and stream your TIDAL library from the terminal",
		Version: "0.1.0",
		Writer:  r.output,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
				Sources: cli.EnvVars("TIDALX_CONFIG"),
			},
		},
		Before:   r.configure,
		Commands: r.register(),
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, connectCommand, disconnectCommand, statusCommand,
		listCommand, childrenCommand, searchCommand, streamCommand, likeCommand, exportCommand, browseCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Plugin returns the plugin, building it from config on first use.
//
// Building opens the storage backend and restores any saved session. It makes no network calls.
func (r *Runner) Plugin() (*plugin.Plugin, error) {
	if r.plugin != nil {
		return r.plugin, nil
	}
	if err := r.config.Validate(); err != nil {
		return nil, err
	}

	kv, err := repositories.Open(r.config.Storage.Driver, r.config.Storage.Path, r.config.Storage.Namespace)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	sess := session.New(r.config.Tidal.CountryCode, models.ParseQuality(r.config.Tidal.Quality))
	svc := services.NewTidalService(r.config.Tidal, sess, r.httpClient, r.logger)

	p, err := plugin.New(plugin.Options{
		Store:      repositories.NewTokenStore(kv),
		Session:    sess,
		Catalog:    svc,
		Authorizer: svc,
		Flow: auth.Options{
			Interval:    r.config.Auth.PollInterval(),
			MaxAttempts: r.config.Auth.MaxAttempts,
			Logger:      r.logger,
		},
		Presenter: r.present,
		Logger:    r.logger,
	})
	if err != nil {
		kv.Close()
		return nil, err
	}
	svc.OnRefresh = p.Persist

	r.kv = kv
	r.plugin = p
	return p, nil
}

// present opens the verification page unless disabled. The code itself is printed from progress updates.
func (r *Runner) present(grant models.DeviceGrant) {
	if r.noBrowser || r.openURL == nil {
		return
	}
	if err := r.openURL(grant.VerificationURI); err != nil {
		r.logger.Warn("failed to open browser", "error", err)
	}
}

// SetLogger replaces the logger used by components built afterwards.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// Close releases the storage backend.
func (r *Runner) Close() error {
	if r.kv == nil {
		return nil
	}
	err := r.kv.Close()
	r.kv = nil
	return err
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
