package catalog

import (
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tidalx/internal/models"
)

// NormalizeTrack maps a track to a PLAYABLE item whose id is the decimal track id.
func NormalizeTrack(t models.Track) models.Item {
	duration := t.Duration
	liked := t.Liked
	return models.Item{
		ID:       strconv.FormatInt(t.ID, 10),
		Title:    t.Title,
		Subtitle: t.Artist,
		Artwork:  t.Artwork,
		URL:      t.URL,
		Duration: &duration,
		Liked:    &liked,
		Kind:     models.Playable,
	}
}

// NormalizeArtist maps an artist to a BROWSABLE item with no subtitle and no duration.
func NormalizeArtist(a models.Artist) models.Item {
	return models.Item{
		ID:      strconv.FormatInt(a.ID, 10),
		Title:   a.Name,
		Artwork: a.Artwork,
		URL:     a.URL,
		Kind:    models.Browsable,
	}
}

// NormalizeAlbum maps an album to a BROWSABLE item subtitled with the artist name.
func NormalizeAlbum(a models.Album) models.Item {
	return models.Item{
		ID:       strconv.FormatInt(a.ID, 10),
		Title:    a.Title,
		Subtitle: a.Artist,
		Artwork:  a.Artwork,
		URL:      a.URL,
		Kind:     models.Browsable,
	}
}

// NormalizePlaylist maps a playlist to a BROWSABLE item keyed by its UUID with the aggregate duration.
func NormalizePlaylist(p models.Playlist) models.Item {
	duration := p.Duration
	return models.Item{
		ID:       p.UUID,
		Title:    p.Title,
		Artwork:  p.Artwork,
		URL:      p.URL,
		Duration: &duration,
		Kind:     models.Browsable,
	}
}

// NormalizeMix maps a mix to a BROWSABLE item keyed by its opaque id.
func NormalizeMix(m models.Mix) models.Item {
	duration := m.Duration
	return models.Item{
		ID:       m.ID,
		Title:    m.Title,
		Artwork:  m.Artwork,
		Duration: &duration,
		Kind:     models.Browsable,
	}
}

// Normalize dispatches on the concrete entity type. A nil entity yields the zero item.
func Normalize(e models.Entity) models.Item {
	switch v := e.(type) {
	case models.Track:
		return NormalizeTrack(v)
	case models.Artist:
		return NormalizeArtist(v)
	case models.Album:
		return NormalizeAlbum(v)
	case models.Playlist:
		return NormalizePlaylist(v)
	case models.Mix:
		return NormalizeMix(v)
	default:
		// nil
		return models.Item{}
	}
}

// DedupeMixes keeps the first mix for each id, preserving order. Every dropped duplicate is logged at warn level.
func DedupeMixes(mixes []models.Mix, logger *log.Logger) []models.Mix {
	seen := make(map[string]struct{}, len(mixes))
	out := make([]models.Mix, 0, len(mixes))
	for _, m := range mixes {
		if _, dup := seen[m.ID]; dup {
			if logger != nil {
				logger.Warn("duplicate mix in remote response", "id", m.ID, "title", m.Title)
			}
			continue
		}
		seen[m.ID] = struct{}{}
		out = append(out, m)
	}
	return out
}

func mapItems[T any](in []T, fn func(T) models.Item) []models.Item {
	items := make([]models.Item, len(in))
	for i, v := range in {
		items[i] = fn(v)
	}
	return items
}
