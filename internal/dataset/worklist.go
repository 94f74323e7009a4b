package dataset

import (
	"fmt"
	"strconv"
)

// DefaultMainstreamThreshold is the log-listeners cutoff above which a
// track sits on the mainstream plateau, where deep-cut overprediction
// happens and prominence data pays off.
const DefaultMainstreamThreshold = 13.09

// UniqueArtists returns the unique non-empty artist names in row
// order.
func UniqueArtists(t *Table) ([]string, error) {
	idx := t.ColumnIndex(ColArtistName)
	if idx < 0 {
		return nil, fmt.Errorf("required column %q not found", ColArtistName)
	}

	seen := make(map[string]bool)
	var artists []string
	for row := range t.Rows {
		name := t.Cell(row, idx)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		artists = append(artists, name)
	}
	return artists, nil
}

// UniqueTrackKeys returns the unique composite keys of rows on the
// mainstream plateau (log-listeners at or above threshold), in row
// order. Rows with an unparseable listeners value are skipped.
func UniqueTrackKeys(t *Table, threshold float64) ([]string, error) {
	artistIdx := t.ColumnIndex(ColArtistName)
	trackIdx := t.ColumnIndex(ColSongName)
	listenersIdx := t.ColumnIndex(ColListenersLog)
	if artistIdx < 0 || trackIdx < 0 || listenersIdx < 0 {
		return nil, fmt.Errorf("required columns %q, %q and %q not found",
			ColArtistName, ColSongName, ColListenersLog)
	}

	seen := make(map[string]bool)
	var keys []string
	for row := range t.Rows {
		v, err := strconv.ParseFloat(t.Cell(row, listenersIdx), 64)
		if err != nil || v < threshold {
			continue
		}
		key := CompositeKey(t.Cell(row, artistIdx), t.Cell(row, trackIdx))
		if seen[key] {
			continue
		}
		seen[key] = true
		keys = append(keys, key)
	}
	return keys, nil
}

// SuspectTrackKeys returns the unique composite keys of rows flagged
// with a missing or suspect release year, in row order.
func SuspectTrackKeys(t *Table) ([]string, error) {
	artistIdx := t.ColumnIndex(ColArtistName)
	trackIdx := t.ColumnIndex(ColSongName)
	suspectIdx := t.ColumnIndex(ColSuspectYear)
	if artistIdx < 0 || trackIdx < 0 || suspectIdx < 0 {
		return nil, fmt.Errorf("required columns %q, %q and %q not found",
			ColArtistName, ColSongName, ColSuspectYear)
	}

	seen := make(map[string]bool)
	var keys []string
	for row := range t.Rows {
		if t.Cell(row, suspectIdx) != "1" {
			continue
		}
		key := CompositeKey(t.Cell(row, artistIdx), t.Cell(row, trackIdx))
		if seen[key] {
			continue
		}
		seen[key] = true
		keys = append(keys, key)
	}
	return keys, nil
}
