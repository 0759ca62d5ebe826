package models

// Entity is implemented only by the remote catalog types in this package.
type Entity interface {
	entity()
}

// Track is a playable remote track.
type Track struct {
	ID       int64
	Title    string
	Artist   string
	Album    string
	Artwork  string
	URL      string
	Duration int64 // seconds
	Liked    bool
}

// Artist is a remote artist; its children are the artist's top tracks.
type Artist struct {
	ID      int64
	Name    string
	Artwork string
	URL     string
}

// Album is a remote album; its children are the album's tracks.
type Album struct {
	ID      int64
	Title   string
	Artist  string
	Artwork string
	URL     string
}

// Playlist is a user or editorial playlist identified by UUID.
type Playlist struct {
	UUID     string
	Title    string
	Artwork  string
	URL      string
	Duration int64 // seconds, sum of items
}

// Mix is an algorithmic mix identified by an opaque string id.
type Mix struct {
	ID       string
	Title    string
	Artwork  string
	Duration int64
}

func (Track) entity()    {}
func (Artist) entity()   {}
func (Album) entity()    {}
func (Playlist) entity() {}
func (Mix) entity()      {}

// Kind tells hosts whether an [Item] resolves to a stream or is browsed by path.
type Kind string

const (
	Playable  Kind = "PLAYABLE"
	Browsable Kind = "BROWSABLE"
)

// Item is the uniform projection of an [Entity].
//
// Duration is in seconds and nil for artists and albums; Liked is non-nil only for tracks.
type Item struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Artwork  string `json:"artwork,omitempty"`
	URL      string `json:"url,omitempty"`
	Duration *int64 `json:"duration,omitempty"`
	Liked    *bool  `json:"liked,omitempty"`
	Kind     Kind   `json:"kind"`
}

// Playable reports whether the item can be handed to stream resolution.
func (i Item) Playable() bool {
	return i.Kind == Playable
}
