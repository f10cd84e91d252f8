package sources

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadRegistryYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sources.yaml")
	content := `
sources:
  - id: cats
    name: Cat album
    kind: Album
    imgur_id: cXz3n
    request_delay_ms: 250
  - id: hero
    kind: image
    imgur_id: PE2NI
    enabled: false
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	all := reg.All()
	if len(all) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(all))
	}
	cats, ok := reg.ByID("cats")
	if !ok {
		t.Fatalf("cats source missing")
	}
	if cats.Kind != KindAlbum || cats.RequestDelay() != 250*time.Millisecond {
		t.Fatalf("unexpected source %+v", cats)
	}
	hero, _ := reg.ByID("hero")
	if hero.Name != "hero" || hero.RequestDelay() != 500*time.Millisecond {
		t.Fatalf("defaults not applied: %+v", hero)
	}

	enabled := reg.Enabled()
	if len(enabled) != 1 || enabled[0].ID != "cats" {
		t.Fatalf("unexpected enabled set %+v", enabled)
	}
}

func TestParseRegistryJSON(t *testing.T) {
	reg, err := ParseRegistry([]byte(`{"sources":[{"id":"a","kind":"image","imgur_id":"x"}]}`), ".json")
	if err != nil {
		t.Fatalf("ParseRegistry: %v", err)
	}
	if len(reg.All()) != 1 {
		t.Fatalf("expected one source")
	}
}

func TestParseRegistryTOML(t *testing.T) {
	raw := `
[[sources]]
id = "cats"
name = "Cat album"
kind = "album"
imgur_id = "cXz3n"
request_delay_ms = 250

[[sources]]
id = "single"
kind = "image"
imgur_id = "PE2NI"
enabled = false
`
	reg, err := ParseRegistry([]byte(raw), ".toml")
	if err != nil {
		t.Fatalf("ParseRegistry: %v", err)
	}
	src, ok := reg.ByID("cats")
	if !ok || src.ImgurID != "cXz3n" || src.RequestDelayMs != 250 {
		t.Fatalf("unexpected source %+v", src)
	}
	if got := len(reg.Enabled()); got != 1 {
		t.Fatalf("expected 1 enabled source, got %d", got)
	}
}

func TestParseRegistryRejectsInvalidEntries(t *testing.T) {
	cases := map[string]string{
		"duplicate id": `{"sources":[{"id":"a","kind":"image","imgur_id":"x"},{"id":"a","kind":"album","imgur_id":"y"}]}`,
		"missing kind": `{"sources":[{"id":"a","imgur_id":"x"}]}`,
		"bad kind":     `{"sources":[{"id":"a","kind":"gallery","imgur_id":"x"}]}`,
		"missing id":   `{"sources":[{"kind":"image","imgur_id":"x"}]}`,
		"path in id":   `{"sources":[{"id":"a","kind":"album","imgur_id":"x/images"}]}`,
		"empty":        `{"sources":[]}`,
		"not json":     `sources: [`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseRegistry([]byte(raw), ".json"); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestLoadRegistryMissingFile(t *testing.T) {
	if _, err := LoadRegistry(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
	if _, err := LoadRegistry(" "); err == nil {
		t.Fatalf("expected error for empty path")
	}
}
