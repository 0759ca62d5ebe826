package catalog

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tidalx/internal/models"
	"github.com/desertthunder/tidalx/internal/services"
	"github.com/desertthunder/tidalx/internal/shared"
)

// Host-facing category names.
const (
	Tracks    = "Tracks"
	Artists   = "Artists"
	Albums    = "Albums"
	Playlists = "Playlists"
	Mixes     = "Mixes"
)

// Categories returns the category names in display order.
func Categories() []string {
	return []string{Tracks, Artists, Albums, Playlists, Mixes}
}

// Adapter normalizes remote catalog results into [models.Item] values.
//
// It does not retry; remote failures are returned unchanged.
type Adapter struct {
	source services.Catalog
	logger *log.Logger
}

// New creates an [Adapter] over source.
func New(source services.Catalog, logger *log.Logger) *Adapter {
	if logger == nil {
		logger = shared.NewLogger(os.Stderr)
	}
	return &Adapter{source: source, logger: shared.WithLogger(logger, "component", "catalog")}
}

// ListCategory lists the top level of category. An unknown category yields no items and no error.
func (a *Adapter) ListCategory(ctx context.Context, category string, refresh bool) ([]models.Item, error) {
	switch category {
	case Tracks:
		tracks, err := a.source.Tracks(ctx, refresh)
		if err != nil {
			return nil, err
		}
		return mapItems(tracks, NormalizeTrack), nil
	case Artists:
		artists, err := a.source.Artists(ctx, refresh)
		if err != nil {
			return nil, err
		}
		return mapItems(artists, NormalizeArtist), nil
	case Albums:
		albums, err := a.source.Albums(ctx, refresh)
		if err != nil {
			return nil, err
		}
		return mapItems(albums, NormalizeAlbum), nil
	case Playlists:
		playlists, err := a.source.Playlists(ctx, refresh)
		if err != nil {
			return nil, err
		}
		return mapItems(playlists, NormalizePlaylist), nil
	case Mixes:
		mixes, err := a.source.Mixes(ctx, refresh)
		if err != nil {
			return nil, err
		}
		return mapItems(DedupeMixes(mixes, a.logger), NormalizeMix), nil
	default:
		a.logger.Debug("unknown category", "category", category)
		return []models.Item{}, nil
	}
}

// ListChildren lists the tracks under the browsable node at path.
//
// Artist and album paths must be numeric ids; playlist and mix paths are passed through unless blank. Otherwise
// [shared.ErrInvalidPath] is returned.
// Tracks have no children and, like unknown categories, yield no items.
func (a *Adapter) ListChildren(ctx context.Context, category, path string, refresh bool) ([]models.Item, error) {
	var (
		tracks []models.Track
		err    error
	)

	switch category {
	case Artists, Albums:
		id, perr := strconv.ParseInt(path, 10, 64)
		if perr != nil {
			return nil, fmt.Errorf("%w: %s path %q is not a numeric id", shared.ErrInvalidPath, category, path)
		}
		if category == Artists {
			tracks, err = a.source.ArtistTracks(ctx, id, refresh)
		} else {
			tracks, err = a.source.AlbumTracks(ctx, id, refresh)
		}
	case Playlists, Mixes:
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("%w: empty %s path", shared.ErrInvalidPath, strings.ToLower(category))
		}
		if category == Playlists {
			tracks, err = a.source.PlaylistTracks(ctx, path, refresh)
		} else {
			tracks, err = a.source.MixTracks(ctx, path, refresh)
		}
	default:
		return []models.Item{}, nil
	}
	if err != nil {
		return nil, err
	}
	return mapItems(tracks, NormalizeTrack), nil
}

// Search runs a track search. Results are always normalized as tracks whatever category the host asked from.
func (a *Adapter) Search(ctx context.Context, query string, refresh bool) ([]models.Item, error) {
	tracks, err := a.source.SearchTracks(ctx, query, refresh)
	if err != nil {
		return nil, err
	}
	return mapItems(tracks, NormalizeTrack), nil
}

// Reset drops the remote client's per-session state.
func (a *Adapter) Reset() {
	a.source.Reset()
}

// ResolveStreamURI resolves a PLAYABLE item's id to its stream URL, returned as the remote reported it.
//
// Non-numeric ids fail with [shared.ErrInvalidID] before any remote call.
func (a *Adapter) ResolveStreamURI(ctx context.Context, itemID string) (string, error) {
	id, err := strconv.ParseInt(itemID, 10, 64)
	if err != nil {
		return "", fmt.Errorf("%w: %q is not a track id", shared.ErrInvalidID, itemID)
	}
	return a.source.StreamURL(ctx, id)
}

// ToggleFavorite flips the liked state of an item and returns the state the remote reported.
func (a *Adapter) ToggleFavorite(ctx context.Context, itemID string) (bool, error) {
	return a.source.ToggleLike(ctx, itemID)
}
