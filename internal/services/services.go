// package services defines interface Catalog for interacting with the TIDAL HTTP API
package services

import (
	"context"

	"github.com/desertthunder/tidalx/internal/models"
)

// Catalog is the remote catalog capability. Listing methods forward refresh to the per-endpoint pager.
type Catalog interface {
	// Tracks lists the user's favorite tracks, or public top tracks without a session.
	Tracks(ctx context.Context, refresh bool) ([]models.Track, error)
	Artists(ctx context.Context, refresh bool) ([]models.Artist, error)
	Albums(ctx context.Context, refresh bool) ([]models.Album, error)
	Playlists(ctx context.Context, refresh bool) ([]models.Playlist, error)
	Mixes(ctx context.Context, refresh bool) ([]models.Mix, error)

	// ArtistTracks lists an artist's top tracks.
	ArtistTracks(ctx context.Context, artistID int64, refresh bool) ([]models.Track, error)
	AlbumTracks(ctx context.Context, albumID int64, refresh bool) ([]models.Track, error)
	PlaylistTracks(ctx context.Context, uuid string, refresh bool) ([]models.Track, error)
	MixTracks(ctx context.Context, mixID string, refresh bool) ([]models.Track, error)

	SearchTracks(ctx context.Context, query string, refresh bool) ([]models.Track, error)

	// StreamURL resolves a playable URL for a track at the session's quality.
	StreamURL(ctx context.Context, trackID int64) (string, error)

	// ToggleLike flips the favorite state of a track and returns the new state.
	ToggleLike(ctx context.Context, trackID string) (bool, error)

	// Reset drops per-session state such as pagination cursors and the liked set.
	Reset()
}

// TidalImage sizes used when building resource URLs.
const (
	coverSize    = "320x320"
	pictureSize  = "320x320"
	playlistSize = "480x480"
)

// tidalArtist is an artist object as returned by the v1 API.
type tidalArtist struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
	URL     string `json:"url"`
}

// tidalAlbum is an album object as returned by the v1 API.
type tidalAlbum struct {
	ID     int64        `json:"id"`
	Title  string       `json:"title"`
	Cover  string       `json:"cover"`
	URL    string       `json:"url"`
	Artist *tidalArtist `json:"artist"`
}

// tidalTrack is a track object as returned by the v1 API.
type tidalTrack struct {
	ID       int64         `json:"id"`
	Title    string        `json:"title"`
	Duration int64         `json:"duration"` // seconds
	URL      string        `json:"url"`
	Artist   *tidalArtist  `json:"artist"`
	Artists  []tidalArtist `json:"artists"`
	Album    *tidalAlbum   `json:"album"`
}

// tidalPlaylist is a playlist object as returned by the v1 API.
type tidalPlaylist struct {
	UUID           string `json:"uuid"`
	Title          string `json:"title"`
	Duration       int64  `json:"duration"`
	NumberOfTracks int    `json:"numberOfTracks"`
	Image          string `json:"image"`
	SquareImage    string `json:"squareImage"`
	URL            string `json:"url"`
}

type mixImage struct {
	URL string `json:"url"`
}

// tidalMix is a mix object from the my-mixes page.
type tidalMix struct {
	ID       string              `json:"id"`
	Title    string              `json:"title"`
	SubTitle string              `json:"subTitle"`
	Images   map[string]mixImage `json:"images"`
}

// page is the v1 paged list envelope.
type page[T any] struct {
	Limit              int `json:"limit"`
	Offset             int `json:"offset"`
	TotalNumberOfItems int `json:"totalNumberOfItems"`
	Items              []T `json:"items"`
}

// favorite wraps favorite listings and playlist/mix items.
type favorite[T any] struct {
	Created string `json:"created,omitempty"`
	Type    string `json:"type,omitempty"`
	Item    T      `json:"item"`
}

// mixesPage is the subset of the my-mixes page layout that carries mixes.
type mixesPage struct {
	Rows []struct {
		Modules []struct {
			PagedList page[tidalMix] `json:"pagedList"`
		} `json:"modules"`
	} `json:"rows"`
}

// deviceAuthorization is the device_authorization response. TIDAL returns camelCase fields.
type deviceAuthorization struct {
	DeviceCode              string `json:"deviceCode"`
	UserCode                string `json:"userCode"`
	VerificationURI         string `json:"verificationUri"`
	VerificationURIComplete string `json:"verificationUriComplete"`
	ExpiresIn               int64  `json:"expiresIn"`
	Interval                int64  `json:"interval"`
}

// playbackInfo is the playbackinfopostpaywall response.
type playbackInfo struct {
	TrackID          int64  `json:"trackId"`
	AudioQuality     string `json:"audioQuality"`
	ManifestMimeType string `json:"manifestMimeType"`
	Manifest         string `json:"manifest"`
}

// btsManifest is the decoded application/vnd.tidal.bts manifest.
type btsManifest struct {
	MimeType       string   `json:"mimeType"`
	Codecs         string   `json:"codecs"`
	EncryptionType string   `json:"encryptionType"`
	URLs           []string `json:"urls"`
}

type apiError struct {
	Status      int    `json:"status"`
	SubStatus   int    `json:"subStatus"`
	UserMessage string `json:"userMessage"`
}
