package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/tidalx/internal/repositories"
	"github.com/desertthunder/tidalx/internal/shared"
	"github.com/urfave/cli/v3"
)

// configure loads the config file named by --config, applies environment overrides and sets up logging.
//
// A missing file keeps the defaults. An injected plugin skips configuration entirely.
func (r *Runner) configure(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if r.plugin != nil {
		return ctx, nil
	}

	r.configPath = cmd.String("config")
	if _, err := os.Stat(r.configPath); err == nil {
		config, err := shared.LoadConfig(r.configPath)
		if err != nil {
			return ctx, err
		}
		r.config = config
	} else {
		r.logger.Debug("config file not found, using defaults", "path", r.configPath)
	}
	r.config.ApplyEnv()

	if r.config.Logging.File != "" {
		fileLogger, err := shared.NewFileLogger(r.config.Logging.File)
		if err != nil {
			return ctx, err
		}
		r.SetLogger(fileLogger)
	}
	shared.SetLogLevel(r.logger, shared.ParseLogLevel(r.config.Logging.Level))
	return ctx, nil
}

// Setup writes a config file from the template when none exists and initializes the storage backend.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	if _, err := os.Stat(r.configPath); err != nil {
		r.logger.Info("config file not found, creating from template", "path", r.configPath)
		if err := shared.CreateConfigFile(r.configPath); err != nil {
			return err
		}
		config, err := shared.LoadConfig(r.configPath)
		if err != nil {
			return err
		}
		config.ApplyEnv()
		r.config = config
	}

	storage := r.config.Storage
	r.logger.Info("initializing storage", "driver", storage.Driver, "path", storage.Path)

	kv, err := repositories.Open(storage.Driver, storage.Path, storage.Namespace)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	if err := kv.Close(); err != nil {
		return err
	}

	r.writePlain("✓ Setup complete\n")
	r.writePlain("Config: %s\n", r.configPath)
	r.writePlain("Storage: %s (%s)\n", storage.Path, storage.Driver)
	if err := r.config.Validate(); err != nil {
		r.writePlain("\nNext: fix %v in %s or set %s\n", err, r.configPath, shared.EnvClientID)
		return nil
	}
	return r.writePlain("\nNext: run 'tidalx connect' to link your account\n")
}
