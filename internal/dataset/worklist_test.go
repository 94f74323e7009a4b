package dataset

import (
	"testing"
)

func TestUniqueArtists(t *testing.T) {
	tbl := &Table{
		Header: []string{"song_name", "artist_name"},
		Rows: [][]string{
			{"One", "Queen"},
			{"Two", "ABBA"},
			{"Three", "Queen"},
			{"Four", ""},
			{"Five", "Blur"},
		},
	}
	artists, err := UniqueArtists(tbl)
	if err != nil {
		t.Fatalf("UniqueArtists: %v", err)
	}
	want := []string{"Queen", "ABBA", "Blur"}
	if len(artists) != len(want) {
		t.Fatalf("artists = %v, want %v", artists, want)
	}
	for i := range want {
		if artists[i] != want[i] {
			t.Errorf("artist %d = %q, want %q", i, artists[i], want[i])
		}
	}
}

func TestUniqueArtistsMissingColumn(t *testing.T) {
	tbl := &Table{Header: []string{"other"}}
	if _, err := UniqueArtists(tbl); err == nil {
		t.Fatal("expected error")
	}
}

func TestUniqueTrackKeys(t *testing.T) {
	tbl := &Table{
		Header: []string{"artist_name", "song_name", "artist_lastfm_listeners_log"},
		Rows: [][]string{
			{"Queen", "Bohemian Rhapsody", "15.2"},
			{"Obscure Act", "Deep Cut", "9.1"},
			{"ABBA", "Waterloo", "13.09"},
			{"Queen", "Bohemian Rhapsody", "15.2"},
			{"Broken Row", "No Number", "n/a"},
		},
	}
	keys, err := UniqueTrackKeys(tbl, DefaultMainstreamThreshold)
	if err != nil {
		t.Fatalf("UniqueTrackKeys: %v", err)
	}
	want := []string{
		"Queen || Bohemian Rhapsody",
		"ABBA || Waterloo",
	}
	if len(keys) != len(want) {
		t.Fatalf("keys = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("key %d = %q, want %q", i, keys[i], want[i])
		}
	}
}

func TestSuspectTrackKeys(t *testing.T) {
	tbl := &Table{
		Header: []string{"artist_name", "song_name", "release_year_missing_or_suspect"},
		Rows: [][]string{
			{"Queen", "Bohemian Rhapsody", "0"},
			{"ABBA", "Waterloo", "1"},
			{"ABBA", "Waterloo", "1"},
			{"Blur", "Song 2", ""},
		},
	}
	keys, err := SuspectTrackKeys(tbl)
	if err != nil {
		t.Fatalf("SuspectTrackKeys: %v", err)
	}
	if len(keys) != 1 || keys[0] != "ABBA || Waterloo" {
		t.Errorf("keys = %v", keys)
	}
}
