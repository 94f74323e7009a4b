package lastfm

// Last.fm API response types. Numeric fields arrive as strings and are
// parsed permissively.

// InfoResponse is the top-level response from artist.getinfo.
type InfoResponse struct {
	Artist ArtistInfoPayload `json:"artist"`
	Error  int               `json:"error"`
}

// ArtistInfoPayload is the artist object from artist.getinfo.
type ArtistInfoPayload struct {
	Name  string      `json:"name"`
	MBID  string      `json:"mbid"`
	URL   string      `json:"url"`
	Stats ArtistStats `json:"stats"`
	Tags  ArtistTags  `json:"tags"`
}

// ArtistStats holds listener and play counts as decimal strings.
type ArtistStats struct {
	Listeners string `json:"listeners"`
	Playcount string `json:"playcount"`
}

// ArtistTags wraps the tag array.
type ArtistTags struct {
	Tag []Tag `json:"tag"`
}

// Tag is a single tag.
type Tag struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// TrackResponse is the top-level response from track.getInfo.
type TrackResponse struct {
	Track TrackPayload `json:"track"`
	Error int          `json:"error"`
}

// TrackPayload is the track object from track.getInfo.
type TrackPayload struct {
	Name  string       `json:"name"`
	Album AlbumPayload `json:"album"`
}

// AlbumPayload is the album object nested inside a track.
type AlbumPayload struct {
	Artist string `json:"artist"`
	Title  string `json:"title"`
}
