package testing

import (
	"context"
	"fmt"
	"sync"

	"github.com/desertthunder/tidalx/internal/models"
)

// FakeCatalog serves canned catalog data and records every call as "Method(args)".
type FakeCatalog struct {
	mu    sync.Mutex
	calls []string

	TrackList    []models.Track
	ArtistList   []models.Artist
	AlbumList    []models.Album
	PlaylistList []models.Playlist
	MixList      []models.Mix
	// Children answers every children and search call.
	Children []models.Track
	Stream   string
	Liked    map[string]bool
	Err      error
	resets   int
}

func (f *FakeCatalog) record(format string, args ...any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

// Calls returns the recorded calls in order.
func (f *FakeCatalog) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *FakeCatalog) Tracks(ctx context.Context, refresh bool) ([]models.Track, error) {
	f.record("Tracks(%v)", refresh)
	return f.TrackList, f.Err
}

func (f *FakeCatalog) Artists(ctx context.Context, refresh bool) ([]models.Artist, error) {
	f.record("Artists(%v)", refresh)
	return f.ArtistList, f.Err
}

func (f *FakeCatalog) Albums(ctx context.Context, refresh bool) ([]models.Album, error) {
	f.record("Albums(%v)", refresh)
	return f.AlbumList, f.Err
}

func (f *FakeCatalog) Playlists(ctx context.Context, refresh bool) ([]models.Playlist, error) {
	f.record("Playlists(%v)", refresh)
	return f.PlaylistList, f.Err
}

func (f *FakeCatalog) Mixes(ctx context.Context, refresh bool) ([]models.Mix, error) {
	f.record("Mixes(%v)", refresh)
	return f.MixList, f.Err
}

func (f *FakeCatalog) ArtistTracks(ctx context.Context, id int64, refresh bool) ([]models.Track, error) {
	f.record("ArtistTracks(%d,%v)", id, refresh)
	return f.Children, f.Err
}

func (f *FakeCatalog) AlbumTracks(ctx context.Context, id int64, refresh bool) ([]models.Track, error) {
	f.record("AlbumTracks(%d,%v)", id, refresh)
	return f.Children, f.Err
}

func (f *FakeCatalog) PlaylistTracks(ctx context.Context, uuid string, refresh bool) ([]models.Track, error) {
	f.record("PlaylistTracks(%s,%v)", uuid, refresh)
	return f.Children, f.Err
}

func (f *FakeCatalog) MixTracks(ctx context.Context, id string, refresh bool) ([]models.Track, error) {
	f.record("MixTracks(%s,%v)", id, refresh)
	return f.Children, f.Err
}

func (f *FakeCatalog) SearchTracks(ctx context.Context, query string, refresh bool) ([]models.Track, error) {
	f.record("SearchTracks(%s,%v)", query, refresh)
	return f.Children, f.Err
}

func (f *FakeCatalog) StreamURL(ctx context.Context, id int64) (string, error) {
	f.record("StreamURL(%d)", id)
	return f.Stream, f.Err
}

func (f *FakeCatalog) ToggleLike(ctx context.Context, id string) (bool, error) {
	f.record("ToggleLike(%s)", id)
	if f.Err != nil {
		return false, f.Err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Liked == nil {
		f.Liked = map[string]bool{}
	}
	f.Liked[id] = !f.Liked[id]
	return f.Liked[id], nil
}

// Reset clears Liked. Resets are counted apart from Calls.
func (f *FakeCatalog) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets++
	f.Liked = nil
}

// Resets returns the number of Reset calls.
func (f *FakeCatalog) Resets() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.resets
}
