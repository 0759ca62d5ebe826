package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/desertthunder/tidalx/internal/formatter"
	"github.com/desertthunder/tidalx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Export backs up the library to a directory of files plus a manifest.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	p, err := r.Plugin()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	progress := make(chan tasks.ProgressUpdate, 64)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.writePlain("%s\n", update.Message)
		}
	}()

	result, err := tasks.NewExporter(p, r.logger).Backup(ctx, progress, tasks.BackupOpts{
		Categories: cmd.StringSlice("category"),
		Format:     format,
		OutputDir:  cmd.String("dir"),
		NumWorkers: cmd.Int("workers"),
		RateLimit:  cmd.Float("rate"),
		MaxPages:   cmd.Int("max-pages"),
		Children:   cmd.Bool("children"),
	})
	close(progress)
	<-done
	if err != nil {
		return err
	}

	r.writePlain("\n✓ Exported %d of %d collections to %s\n", result.Successful, result.Total, result.OutputDirectory)
	if result.Failed > 0 {
		r.writePlain("  %d failed, see %s\n", result.Failed, result.ManifestPath)
	}
	return nil
}
