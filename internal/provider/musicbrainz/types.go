package musicbrainz

// MusicBrainz API response types. Parsed defensively: every field is
// optional and missing keys decode to zero values.

// RecordingSearchResponse is the top-level response from the recording
// search endpoint.
type RecordingSearchResponse struct {
	Created    string        `json:"created"`
	Count      int           `json:"count"`
	Offset     int           `json:"offset"`
	Recordings []MBRecording `json:"recordings"`
}

// MBRecording represents a MusicBrainz recording entity with the
// releases it appears on.
type MBRecording struct {
	ID       string      `json:"id"`
	Title    string      `json:"title"`
	Score    int         `json:"score"`
	Releases []MBRelease `json:"releases"`
}

// MBRelease represents a single release a recording appears on.
type MBRelease struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	Status       string         `json:"status"`
	Date         string         `json:"date"`
	Country      string         `json:"country"`
	ReleaseGroup MBReleaseGroup `json:"release-group"`
	Media        []MBMedium     `json:"media"`
}

// MBReleaseGroup carries the release classification.
type MBReleaseGroup struct {
	ID             string   `json:"id"`
	PrimaryType    string   `json:"primary-type"`
	SecondaryTypes []string `json:"secondary-types"`
}

// MBMedium is one disc/side of a release. In recording search results
// the track array holds only the matched track.
type MBMedium struct {
	Format     string    `json:"format"`
	Position   int       `json:"position"`
	TrackCount int       `json:"track-count"`
	Tracks     []MBTrack `json:"track"`
}

// MBTrack is a track position within a medium. Number is a free-format
// string ("7", "7A", "B2").
type MBTrack struct {
	ID     string `json:"id"`
	Number string `json:"number"`
	Title  string `json:"title"`
}

// ArtistSearchResponse is the top-level response from the artist
// search endpoint.
type ArtistSearchResponse struct {
	Count   int              `json:"count"`
	Offset  int              `json:"offset"`
	Artists []MBArtistResult `json:"artists"`
}

// MBArtistResult is a single artist search hit.
type MBArtistResult struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
	Area  MBArea `json:"area"`
}

// MBArea is the artist's main associated area.
type MBArea struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ArtistRelationsResponse is the artist lookup response when requested
// with inc=url-rels.
type ArtistRelationsResponse struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Relations []MBRelation `json:"relations"`
}

// MBRelation is a relationship between an artist and another entity.
type MBRelation struct {
	Type string         `json:"type"`
	URL  *MBRelationURL `json:"url,omitempty"`
}

// MBRelationURL holds URL data within a relation.
type MBRelationURL struct {
	ID       string `json:"id"`
	Resource string `json:"resource"`
}
