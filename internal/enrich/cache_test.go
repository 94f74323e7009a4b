package enrich

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type record struct {
	Tags      []string `json:"tags"`
	Listeners int      `json:"listeners"`
}

func TestLoadCacheMissingFile(t *testing.T) {
	c, err := LoadCache[record](filepath.Join(t.TempDir(), "does-not-exist.json"))
	if err != nil {
		t.Fatalf("LoadCache: %v", err)
	}
	if c.Len() != 0 {
		t.Errorf("expected empty cache, got %d entries", c.Len())
	}
}

func TestLoadCacheMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{broken"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadCache[record](path); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestCacheRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	c, err := LoadCache[record](path)
	if err != nil {
		t.Fatalf("LoadCache: %v", err)
	}

	c.Put("Daft Punk", &record{Tags: []string{"electronic"}, Listeners: 100})
	c.Put("Nobody Anyone Knows", nil)
	if err := c.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reloaded, err := LoadCache[record](path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Len() != 2 {
		t.Fatalf("reloaded len = %d, want 2", reloaded.Len())
	}

	rec, ok := reloaded.Get("Daft Punk")
	if !ok || rec == nil {
		t.Fatal("expected record for Daft Punk")
	}
	if rec.Listeners != 100 || len(rec.Tags) != 1 || rec.Tags[0] != "electronic" {
		t.Errorf("unexpected record: %+v", rec)
	}

	// The failure marker survives the round trip as present-but-nil.
	failed, ok := reloaded.Get("Nobody Anyone Knows")
	if !ok {
		t.Fatal("failure marker lost on reload")
	}
	if failed != nil {
		t.Errorf("failure marker = %+v, want nil", failed)
	}
	if !reloaded.Has("Nobody Anyone Knows") {
		t.Error("Has must report failure markers as attempted")
	}
}

func TestCacheNullMarkerOnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	c, err := LoadCache[record](path)
	if err != nil {
		t.Fatal(err)
	}
	c.Put("failed", nil)
	if err := c.Save(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"failed": null`) {
		t.Errorf("snapshot does not encode failure as null:\n%s", data)
	}
}

func TestCacheKeysSorted(t *testing.T) {
	c, err := LoadCache[record](filepath.Join(t.TempDir(), "cache.json"))
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"zeta", "alpha", "mid"} {
		c.Put(k, nil)
	}
	keys := c.Keys()
	want := []string{"alpha", "mid", "zeta"}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("keys = %v, want %v", keys, want)
		}
	}
}

func TestCacheSaveCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "interim", "nested", "cache.json")
	c, err := LoadCache[record](path)
	if err != nil {
		t.Fatal(err)
	}
	c.Put("x", nil)
	if err := c.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("snapshot not written: %v", err)
	}
}
