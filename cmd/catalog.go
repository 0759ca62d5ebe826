package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/tidalx/internal/formatter"
	"github.com/desertthunder/tidalx/internal/models"
	"github.com/desertthunder/tidalx/internal/shared"
	"github.com/urfave/cli/v3"
)

// List prints one page of a category.
func (r *Runner) List(ctx context.Context, cmd *cli.Command) error {
	category, err := requiredArg(cmd, "category")
	if err != nil {
		return err
	}
	p, err := r.Plugin()
	if err != nil {
		return err
	}

	items, err := p.List(ctx, category, cmd.Bool("refresh"))
	if err != nil {
		return err
	}
	return r.writeItems(cmd, category, items)
}

// Children prints one page of the tracks under path.
func (r *Runner) Children(ctx context.Context, cmd *cli.Command) error {
	category, err := requiredArg(cmd, "category")
	if err != nil {
		return err
	}
	path, err := requiredArg(cmd, "path")
	if err != nil {
		return err
	}
	p, err := r.Plugin()
	if err != nil {
		return err
	}

	items, err := p.ListChildren(ctx, category, path, cmd.Bool("refresh"))
	if err != nil {
		return err
	}
	return r.writeItems(cmd, fmt.Sprintf("%s %s", category, path), items)
}

// Search prints one page of track results.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query, err := requiredArg(cmd, "query")
	if err != nil {
		return err
	}
	p, err := r.Plugin()
	if err != nil {
		return err
	}

	items, err := p.Search(ctx, "", "", query, "track", cmd.Bool("refresh"))
	if err != nil {
		return err
	}
	return r.writeItems(cmd, fmt.Sprintf("Search: %s", query), items)
}

// Stream prints the stream URL of a track at the configured or requested quality.
func (r *Runner) Stream(ctx context.Context, cmd *cli.Command) error {
	id, err := requiredArg(cmd, "id")
	if err != nil {
		return err
	}
	p, err := r.Plugin()
	if err != nil {
		return err
	}
	if q := cmd.String("quality"); q != "" {
		p.SetQuality(models.ParseQuality(q))
	}

	url, err := p.ResolveURI(ctx, models.Item{ID: id, Kind: models.Playable})
	if err != nil {
		return err
	}
	return r.writePlain("%s\n", url)
}

// Like toggles a track in favorites.
func (r *Runner) Like(ctx context.Context, cmd *cli.Command) error {
	id, err := requiredArg(cmd, "id")
	if err != nil {
		return err
	}
	p, err := r.Plugin()
	if err != nil {
		return err
	}

	liked, err := p.ToggleFavorite(ctx, id)
	if err != nil {
		return err
	}
	if liked {
		return r.writePlain("♥ Liked %s\n", id)
	}
	return r.writePlain("Removed %s from favorites\n", id)
}

func (r *Runner) writeItems(cmd *cli.Command, title string, items []models.Item) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	if path := cmd.String("output"); path != "" {
		if err := formatter.WriteExport(path, format, title, items); err != nil {
			return err
		}
		r.logger.Info("export written", "path", path, "items", len(items))
		return r.writePlain("✓ Wrote %d items to %s\n", len(items), path)
	}
	return formatter.Render(r.output, format, title, items)
}

func requiredArg(cmd *cli.Command, name string) (string, error) {
	v := strings.TrimSpace(cmd.StringArg(name))
	if v == "" {
		return "", fmt.Errorf("%w: %s", shared.ErrMissingArgument, name)
	}
	return v, nil
}
