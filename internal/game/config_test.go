package game

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.World.Width != WorldWidth || cfg.Spatial.CellSize != GridCellSize {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if cfg.Pacer.MaxFrameTime.Duration != MaxFrameTime {
		t.Errorf("MaxFrameTime = %v", cfg.Pacer.MaxFrameTime)
	}
	if b := cfg.WorldBounds(); b != (Rect{W: WorldWidth, H: WorldHeight}) {
		t.Errorf("WorldBounds() = %+v", b)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arena.toml")
	const doc = `
[world]
width = 2000.0

[spatial]
cell_size = 64.0
cell_cache_size = 32

[profile]
force_tier = "low"

[pacer]
max_frame_time = "50ms"
min_fps = 15

[logging]
level = "debug"
format = "json"
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.World.Width != 2000 || cfg.World.Height != WorldHeight {
		t.Errorf("world = %+v", cfg.World)
	}
	if cfg.Spatial.CellSize != 64 || cfg.Spatial.CellCacheSize != 32 || cfg.Spatial.QuadCapacity != QuadCapacity {
		t.Errorf("spatial = %+v", cfg.Spatial)
	}
	if cfg.Profile.ForceTier != "low" {
		t.Errorf("force_tier = %q", cfg.Profile.ForceTier)
	}
	if cfg.Pacer.MaxFrameTime.Duration != 50*time.Millisecond || cfg.Pacer.MinFPS != 15 {
		t.Errorf("pacer = %+v", cfg.Pacer)
	}
	if cfg.Pacer.MaxUpdatesPerFrame != MaxUpdatesPerFrame {
		t.Errorf("unset pacer field lost its default: %d", cfg.Pacer.MaxUpdatesPerFrame)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("logging = %+v", cfg.Logging)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadConfig(filepath.Join(dir, "missing.toml")); err == nil {
		t.Error("missing file: no error")
	}

	write := func(name, doc string) string {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(doc), 0o644); err != nil {
			t.Fatal(err)
		}
		return p
	}
	if _, err := LoadConfig(write("syntax.toml", "[world\nwidth = 1")); err == nil {
		t.Error("bad toml: no error")
	}
	if _, err := LoadConfig(write("dur.toml", "[pacer]\nmax_frame_time = \"soon\"\n")); err == nil {
		t.Error("bad duration: no error")
	}
	_, err := LoadConfig(write("invalid.toml", "[world]\nwidth = -1.0\n[profile]\nforce_tier = \"ultra\"\n"))
	if err == nil {
		t.Fatal("invalid values: no error")
	}
	for _, want := range []string{"world size", "unknown device tier"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	cfg.Spatial.QuadCapacity = 0
	cfg.Spatial.CellSize = 0
	cfg.Pacer.MinFPS = 0
	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate accepted zero values")
	}
	for _, want := range []string{"quad_capacity", "cell_size", "min_fps"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}
