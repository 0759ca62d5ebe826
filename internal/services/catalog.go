package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/desertthunder/tidalx/internal/models"
	"github.com/desertthunder/tidalx/internal/shared"
)

// pageQuery returns the limit/offset query for the cursor key, merged with extra. refresh resets the cursor to zero.
func (s *TidalService) pageQuery(key string, refresh bool, extra url.Values) url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()

	if refresh {
		s.offsets[key] = 0
	}

	q := url.Values{}
	for k, v := range extra {
		q[k] = v
	}
	q.Set("limit", strconv.Itoa(s.cfg.PageSize))
	q.Set("offset", strconv.Itoa(s.offsets[key]))
	return q
}

// advance moves the cursor for key past n items.
func (s *TidalService) advance(key string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offsets[key] += n
}

// fetchPage requests the next page of r.path and advances its cursor. The cursor key defaults to the path.
func fetchPage[T any](ctx context.Context, s *TidalService, r request, refresh bool, extra url.Values) ([]T, error) {
	key := r.cursor
	if key == "" {
		key = r.path
	}
	r.method = http.MethodGet
	r.query = s.pageQuery(key, refresh, extra)

	var p page[T]
	if err := s.doRequest(ctx, r, &p); err != nil {
		return nil, err
	}
	s.advance(key, len(p.Items))
	return p.Items, nil
}

func (s *TidalService) userPath(suffix string) (string, error) {
	rec := s.session.Record()
	if !s.session.Authenticated() || rec.UserID == 0 {
		return "", shared.ErrNotAuthenticated
	}
	return fmt.Sprintf("/users/%d%s", rec.UserID, suffix), nil
}

// Tracks lists the user's favorite tracks, newest first. Without a session the public top tracks are listed.
func (s *TidalService) Tracks(ctx context.Context, refresh bool) ([]models.Track, error) {
	if !s.session.Authenticated() {
		items, err := fetchPage[tidalTrack](ctx, s, request{path: "/featured/top/tracks"}, refresh, nil)
		if err != nil {
			return nil, err
		}
		return s.toTracks(items), nil
	}

	path, err := s.userPath("/favorites/tracks")
	if err != nil {
		return nil, err
	}
	order := url.Values{"order": {"DATE"}, "orderDirection": {"DESC"}}
	items, err := fetchPage[favorite[tidalTrack]](ctx, s, request{path: path, auth: true}, refresh, order)
	if err != nil {
		return nil, err
	}

	tracks := make([]tidalTrack, len(items))
	s.mu.Lock()
	for i, it := range items {
		tracks[i] = it.Item
		s.liked[it.Item.ID] = true
	}
	s.mu.Unlock()
	return s.toTracks(tracks), nil
}

// Artists lists the user's favorite artists.
func (s *TidalService) Artists(ctx context.Context, refresh bool) ([]models.Artist, error) {
	path, err := s.userPath("/favorites/artists")
	if err != nil {
		return nil, err
	}
	items, err := fetchPage[favorite[tidalArtist]](ctx, s, request{path: path, auth: true}, refresh, nil)
	if err != nil {
		return nil, err
	}

	artists := make([]models.Artist, len(items))
	for i, it := range items {
		artists[i] = toArtist(it.Item)
	}
	return artists, nil
}

// Albums lists the user's favorite albums.
func (s *TidalService) Albums(ctx context.Context, refresh bool) ([]models.Album, error) {
	path, err := s.userPath("/favorites/albums")
	if err != nil {
		return nil, err
	}
	items, err := fetchPage[favorite[tidalAlbum]](ctx, s, request{path: path, auth: true}, refresh, nil)
	if err != nil {
		return nil, err
	}

	albums := make([]models.Album, len(items))
	for i, it := range items {
		albums[i] = toAlbum(it.Item)
	}
	return albums, nil
}

// Playlists lists the user's own playlists.
func (s *TidalService) Playlists(ctx context.Context, refresh bool) ([]models.Playlist, error) {
	path, err := s.userPath("/playlists")
	if err != nil {
		return nil, err
	}
	items, err := fetchPage[tidalPlaylist](ctx, s, request{path: path, auth: true}, refresh, nil)
	if err != nil {
		return nil, err
	}

	playlists := make([]models.Playlist, len(items))
	for i, p := range items {
		playlists[i] = toPlaylist(p)
	}
	return playlists, nil
}

// Mixes lists the mixes on the my-mixes page. The page is not paged, so refresh has no effect.
//
// Entries are returned as received; the page can repeat a mix id.
func (s *TidalService) Mixes(ctx context.Context, refresh bool) ([]models.Mix, error) {
	var p mixesPage
	r := request{
		method: http.MethodGet,
		path:   "/pages/my_collection_my_mixes",
		query:  url.Values{"deviceType": {"BROWSER"}},
		auth:   true,
	}
	if err := s.doRequest(ctx, r, &p); err != nil {
		return nil, err
	}

	var mixes []models.Mix
	for _, row := range p.Rows {
		for _, mod := range row.Modules {
			for _, m := range mod.PagedList.Items {
				mixes = append(mixes, toMix(m))
			}
		}
	}
	return mixes, nil
}

// ArtistTracks lists an artist's top tracks.
func (s *TidalService) ArtistTracks(ctx context.Context, artistID int64, refresh bool) ([]models.Track, error) {
	path := fmt.Sprintf("/artists/%d/toptracks", artistID)
	items, err := fetchPage[tidalTrack](ctx, s, request{path: path}, refresh, nil)
	if err != nil {
		return nil, err
	}
	return s.toTracks(items), nil
}

// AlbumTracks lists an album's tracks in order.
func (s *TidalService) AlbumTracks(ctx context.Context, albumID int64, refresh bool) ([]models.Track, error) {
	path := fmt.Sprintf("/albums/%d/tracks", albumID)
	items, err := fetchPage[tidalTrack](ctx, s, request{path: path}, refresh, nil)
	if err != nil {
		return nil, err
	}
	return s.toTracks(items), nil
}

// PlaylistTracks lists the tracks of a playlist. Videos are skipped.
func (s *TidalService) PlaylistTracks(ctx context.Context, uuid string, refresh bool) ([]models.Track, error) {
	path := fmt.Sprintf("/playlists/%s/items", url.PathEscape(uuid))
	items, err := fetchPage[favorite[tidalTrack]](ctx, s, request{path: path}, refresh, nil)
	if err != nil {
		return nil, err
	}
	return s.toTracks(onlyTracks(items)), nil
}

// MixTracks lists the tracks of a mix. Videos are skipped.
func (s *TidalService) MixTracks(ctx context.Context, mixID string, refresh bool) ([]models.Track, error) {
	path := fmt.Sprintf("/mixes/%s/items", url.PathEscape(mixID))
	items, err := fetchPage[favorite[tidalTrack]](ctx, s, request{path: path, auth: true}, refresh, nil)
	if err != nil {
		return nil, err
	}
	return s.toTracks(onlyTracks(items)), nil
}

// SearchTracks searches the catalog for tracks matching query. Each query keeps its own cursor.
func (s *TidalService) SearchTracks(ctx context.Context, query string, refresh bool) ([]models.Track, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query", shared.ErrMissingArgument)
	}

	r := request{path: "/search/tracks", cursor: "/search/tracks?" + query}
	items, err := fetchPage[tidalTrack](ctx, s, r, refresh, url.Values{"query": {query}})
	if err != nil {
		return nil, err
	}
	return s.toTracks(items), nil
}

// ToggleLike adds the track to favorites when it is not liked and removes it otherwise.
func (s *TidalService) ToggleLike(ctx context.Context, trackID string) (bool, error) {
	id, err := strconv.ParseInt(trackID, 10, 64)
	if err != nil {
		return false, fmt.Errorf("%w: %q is not a track id", shared.ErrInvalidID, trackID)
	}
	base, err := s.userPath("/favorites/tracks")
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	liked := s.liked[id]
	s.mu.Unlock()

	if liked {
		err = s.doRequest(ctx, request{method: http.MethodDelete, path: fmt.Sprintf("%s/%d", base, id), auth: true}, nil)
	} else {
		form := url.Values{"trackIds": {trackID}, "onArtifactNotFound": {"FAIL"}}
		err = s.doRequest(ctx, request{method: http.MethodPost, path: base, form: form, auth: true}, nil)
	}
	if err != nil {
		return liked, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if liked {
		delete(s.liked, id)
	} else {
		s.liked[id] = true
	}
	return !liked, nil
}

func onlyTracks(items []favorite[tidalTrack]) []tidalTrack {
	tracks := make([]tidalTrack, 0, len(items))
	for _, it := range items {
		if it.Type != "" && it.Type != "track" {
			continue
		}
		tracks = append(tracks, it.Item)
	}
	return tracks
}

// toTracks maps API tracks to models, marking the ones in the liked set.
func (s *TidalService) toTracks(items []tidalTrack) []models.Track {
	s.mu.Lock()
	defer s.mu.Unlock()

	tracks := make([]models.Track, len(items))
	for i, t := range items {
		tracks[i] = toTrack(t, s.liked[t.ID])
	}
	return tracks
}

func toTrack(t tidalTrack, liked bool) models.Track {
	track := models.Track{
		ID:       t.ID,
		Title:    t.Title,
		URL:      t.URL,
		Duration: t.Duration,
		Liked:    liked,
	}
	if t.Artist != nil {
		track.Artist = t.Artist.Name
	} else if len(t.Artists) > 0 {
		track.Artist = t.Artists[0].Name
	}
	if t.Album != nil {
		track.Album = t.Album.Title
		track.Artwork = imageURL(t.Album.Cover, coverSize)
	}
	return track
}

func toArtist(a tidalArtist) models.Artist {
	return models.Artist{
		ID:      a.ID,
		Name:    a.Name,
		Artwork: imageURL(a.Picture, pictureSize),
		URL:     a.URL,
	}
}

func toAlbum(a tidalAlbum) models.Album {
	album := models.Album{
		ID:      a.ID,
		Title:   a.Title,
		Artwork: imageURL(a.Cover, coverSize),
		URL:     a.URL,
	}
	if a.Artist != nil {
		album.Artist = a.Artist.Name
	}
	return album
}

func toPlaylist(p tidalPlaylist) models.Playlist {
	img := p.SquareImage
	if img == "" {
		img = p.Image
	}
	return models.Playlist{
		UUID:     p.UUID,
		Title:    p.Title,
		Artwork:  imageURL(img, playlistSize),
		URL:      p.URL,
		Duration: p.Duration,
	}
}

func toMix(m tidalMix) models.Mix {
	mix := models.Mix{ID: m.ID, Title: m.Title}
	for _, size := range []string{"MEDIUM", "LARGE", "SMALL"} {
		if img, ok := m.Images[size]; ok && img.URL != "" {
			mix.Artwork = img.URL
			break
		}
	}
	return mix
}

// imageURL builds a resources URL from an image id like "ab12-cd34".
func imageURL(id, size string) string {
	if id == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s/%s.jpg", resourcesURL, strings.ReplaceAll(id, "-", "/"), size)
}
