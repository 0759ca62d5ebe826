// Package catalog maps the five remote entity types onto one uniform [models.Item] and dispatches host requests to the
// remote [services.Catalog].
//
// # Categories
//
// The host addresses content by category string: "Tracks", "Artists", "Albums", "Playlists" and "Mixes".
// Unknown categories yield an empty result so hosts may carry categories this package does not know.
//
// # Identifiers
//
// Tracks, artists and albums carry numeric ids, rendered in decimal. Playlists and mixes carry opaque strings,
// passed through unchanged. A browsable item's id is the path passed back to [Adapter.ListChildren]; only a PLAYABLE item's id may be
// passed to [Adapter.ResolveStreamURI].
//
// # Normalization
//
//   - Track : PLAYABLE, subtitle is the artist, duration and liked set
//   - Artist : BROWSABLE, no subtitle, no duration
//   - Album : BROWSABLE, subtitle is the artist, no duration
//   - Playlist, Mix : BROWSABLE, no subtitle, aggregate duration
//
// Mixes are deduplicated by id before normalization because the remote page can repeat entries.
package catalog
