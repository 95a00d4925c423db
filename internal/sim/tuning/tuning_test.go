package tuning

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "tuning.yaml")
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return p
}

func TestDefaultsValid(t *testing.T) {
	if err := Defaults().Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	p := writeFile(t, `
render_distance: 4
terrain:
  detail:
    seed: 7
    octaves: 3
    frequency: 0.25
    lacunarity: 2.0
    persistence: 0.5
`)
	tu, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tu.RenderDistance != 4 {
		t.Fatalf("render_distance: %d", tu.RenderDistance)
	}
	if tu.Terrain.Detail.Seed != 7 || tu.Terrain.Detail.Octaves != 3 {
		t.Fatalf("detail: %+v", tu.Terrain.Detail)
	}
	// Untouched keys keep their defaults.
	if tu.Terrain.Warp != Defaults().Terrain.Warp || tu.SpawningDistance != 5 {
		t.Fatalf("defaults lost: %+v", tu)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	p := writeFile(t, `
render_distance: 0
terrain:
  warp:
    octaves: 0
`)
	_, err := Load(p)
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if !strings.Contains(err.Error(), "render_distance") || !strings.Contains(err.Error(), "terrain.warp") {
		t.Fatalf("error should name both fields: %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); !os.IsNotExist(err) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestLoadBadYAML(t *testing.T) {
	if _, err := Load(writeFile(t, "render_distance: [oops")); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestShippedConfigMatchesDefaults(t *testing.T) {
	tu, err := Load(filepath.Join("..", "..", "..", "configs", "tuning.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tu != Defaults() {
		t.Fatalf("configs/tuning.yaml drifted from Defaults:\n%+v\n%+v", tu, Defaults())
	}
}
