// Package dataset provides the tabular base-dataset representation and
// the merge/reconciliation step joining enrichment caches back onto it.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// Well-known base dataset columns.
const (
	ColArtistName   = "artist_name"
	ColSongName     = "song_name"
	ColListenersLog = "artist_lastfm_listeners_log"
	ColSuspectYear  = "release_year_missing_or_suspect"
)

// KeySeparator joins artist and track names into a composite work key.
const KeySeparator = " || "

// CompositeKey builds the track-level work key for an artist/track
// pair. The same derivation is used when populating caches and when
// merging them back, or joins silently drop rows.
func CompositeKey(artist, track string) string {
	return artist + KeySeparator + track
}

// SplitKey is the inverse of CompositeKey. The second return is false
// when key does not contain the separator.
func SplitKey(key string) (artist, track string, ok bool) {
	artist, track, ok = strings.Cut(key, KeySeparator)
	return artist, track, ok
}

// Table is an in-memory tabular dataset: a header and rows of string
// cells, in file order.
type Table struct {
	Header []string
	Rows   [][]string
}

// ReadCSV parses a CSV document into a Table. Rows may be ragged;
// short rows read as empty cells.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	t := &Table{Header: header}
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row %d: %w", len(t.Rows)+2, err)
		}
		t.Rows = append(t.Rows, rec)
	}
	return t, nil
}

// WriteCSV writes the table as a CSV document.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, row := range t.Rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// LoadCSV reads a table from a file.
func LoadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening dataset: %w", err)
	}
	defer f.Close() //nolint:errcheck
	return ReadCSV(f)
}

// SaveCSV writes the table to a file, replacing any previous content.
func (t *Table) SaveCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating dataset: %w", err)
	}
	if err := t.WriteCSV(f); err != nil {
		f.Close() //nolint:errcheck
		return err
	}
	return f.Close()
}

// ColumnIndex returns the position of a named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// Cell returns the value at (row, col), treating cells beyond a ragged
// row's end as empty.
func (t *Table) Cell(row, col int) string {
	if col < 0 || col >= len(t.Rows[row]) {
		return ""
	}
	return t.Rows[row][col]
}

// AddColumns appends columns to the table. values is called once per
// row and must return one cell per new column.
func (t *Table) AddColumns(names []string, values func(row int) []string) {
	t.Header = append(t.Header, names...)
	for i := range t.Rows {
		t.Rows[i] = append(t.Rows[i], values(i)...)
	}
}
