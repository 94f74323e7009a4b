package dataset

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/popforecast/popforecast/internal/enrich"
	"github.com/popforecast/popforecast/internal/provider/lastfm"
	"github.com/popforecast/popforecast/internal/provider/musicbrainz"
	"github.com/popforecast/popforecast/internal/resolve"
)

// Columns added by MergeProminence.
const (
	ColMBFound           = "mb_found"
	ColMBIsSingle        = "mb_is_single"
	ColMBTrackNumber     = "mb_track_number"
	ColMBTrackCount      = "mb_track_count"
	ColMBProminenceRatio = "mb_prominence_ratio"
)

// Columns added by MergeArtistContext.
const (
	ColLastFMListeners = "artist_lastfm_listeners"
	ColLastFMTags      = "artist_lastfm_tags"
)

// Columns added by MergeNationality.
const (
	ColArtistMBID        = "artist_mbid"
	ColArtistNationality = "artist_nationality"
)

// MergeProminence joins the track-prominence cache onto the table by
// composite key. Rows whose key is absent or unresolved get the
// neutral defaults: assumed important (single-like, first of one)
// rather than obscure, so the deep-cut correction stays conservative.
func MergeProminence(t *Table, cache *enrich.Cache[musicbrainz.Prominence]) error {
	artistIdx := t.ColumnIndex(ColArtistName)
	trackIdx := t.ColumnIndex(ColSongName)
	if artistIdx < 0 || trackIdx < 0 {
		return fmt.Errorf("required columns %q and %q not found", ColArtistName, ColSongName)
	}

	names := []string{ColMBFound, ColMBIsSingle, ColMBTrackNumber, ColMBTrackCount, ColMBProminenceRatio}
	t.AddColumns(names, func(row int) []string {
		key := CompositeKey(t.Cell(row, artistIdx), t.Cell(row, trackIdx))
		rec, _ := cache.Get(key)
		return prominenceCells(rec)
	})
	return nil
}

func prominenceCells(rec *musicbrainz.Prominence) []string {
	// Neutral defaults for unresolved keys.
	found := 0
	isSingle := 1
	trackNumber := 1
	trackCount := 1
	ratioCell := "0.0"

	if rec != nil && rec.Found {
		found = 1
		if rec.ReleaseType != "Single" && rec.ReleaseType != "EP" {
			isSingle = 0
		}
		if rec.TrackNumber != nil && *rec.TrackNumber > 0 {
			trackNumber = *rec.TrackNumber
		}
		if rec.TrackCount != nil && *rec.TrackCount > 0 {
			trackCount = *rec.TrackCount
		}
		ratio := math.Round(float64(trackNumber)/float64(trackCount)*10000) / 10000
		ratioCell = strconv.FormatFloat(ratio, 'f', -1, 64)
	}

	return []string{
		strconv.Itoa(found),
		strconv.Itoa(isSingle),
		strconv.Itoa(trackNumber),
		strconv.Itoa(trackCount),
		ratioCell,
	}
}

// MergeArtistContext joins the Last.fm artist cache onto the table by
// artist name. Unresolved artists get zero listeners and no tags, so
// downstream transforms never see nulls.
func MergeArtistContext(t *Table, cache *enrich.Cache[lastfm.ArtistContext]) error {
	artistIdx := t.ColumnIndex(ColArtistName)
	if artistIdx < 0 {
		return fmt.Errorf("required column %q not found", ColArtistName)
	}

	names := []string{ColLastFMListeners, ColLastFMTags}
	t.AddColumns(names, func(row int) []string {
		rec, _ := cache.Get(t.Cell(row, artistIdx))
		if rec == nil {
			return []string{"0", ""}
		}
		return []string{strconv.Itoa(rec.Listeners), strings.Join(rec.Tags, ", ")}
	})
	return nil
}

// MergeNationality joins the resolved artist catalog onto the table by
// normalized artist name. Unresolved or failed names get empty cells.
func MergeNationality(t *Table, cache *enrich.Cache[resolve.Entity]) error {
	artistIdx := t.ColumnIndex(ColArtistName)
	if artistIdx < 0 {
		return fmt.Errorf("required column %q not found", ColArtistName)
	}

	names := []string{ColArtistMBID, ColArtistNationality}
	t.AddColumns(names, func(row int) []string {
		key := resolve.CollapseWhitespace(t.Cell(row, artistIdx))
		rec, _ := cache.Get(key)
		if rec == nil {
			return []string{"", ""}
		}
		nationality := ""
		if rec.Nationality != nil {
			nationality = *rec.Nationality
		}
		return []string{rec.MBID, nationality}
	})
	return nil
}

// Suffixes a pandas-style merge leaves on colliding column names.
const (
	leftSuffix  = "_x"
	rightSuffix = "_y"
)

// legacyIndexColumn is the unnamed index artifact older exports carry.
const legacyIndexColumn = "Unnamed: 0"

// RepairCollisions restores the original column contract after a merge
// introduced suffixed duplicates: left copies are renamed back to
// their unsuffixed names, right copies are dropped, and the legacy
// index artifact is removed. This must run before the next enrichment
// is merged in, or later merges multiply the suffixed duplicates.
func RepairCollisions(t *Table) {
	keep := make([]int, 0, len(t.Header))
	header := make([]string, 0, len(t.Header))
	for i, name := range t.Header {
		if strings.HasSuffix(name, rightSuffix) || name == legacyIndexColumn {
			continue
		}
		header = append(header, strings.TrimSuffix(name, leftSuffix))
		keep = append(keep, i)
	}

	rows := make([][]string, len(t.Rows))
	for r := range t.Rows {
		row := make([]string, len(keep))
		for j, i := range keep {
			row[j] = t.Cell(r, i)
		}
		rows[r] = row
	}

	t.Header = header
	t.Rows = rows
}
