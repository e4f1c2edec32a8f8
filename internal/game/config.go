package game

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// World dimensions (in world units).
const (
	WorldWidth  = 4000
	WorldHeight = 4000
)

// Window defaults.
const (
	WindowWidth  = 1024
	WindowHeight = 768
	DefaultZoom  = 1.0
	MinZoom      = 0.25
	MaxZoom      = 4.0
)

// Spatial index.
const (
	QuadCapacity      = 4
	QuadMaxDepth      = 10
	GridCellSize      = 128.0
	GridCacheSize     = 256
	GridMoveThreshold = 1.0 // squared world units
	GridMaxSpan       = 64  // cells per axis an entity box may cover
)

// Frame pacing.
const (
	DefaultTargetFPS   = 60
	MaxFrameTime       = time.Second / 30
	MaxUpdatesPerFrame = 5
	AdjustCooldown     = time.Second
	FPSStep            = 5
	MinFPS             = 20
	DegradeRatio       = 0.8
	RecoverRatio       = 0.95
	MaxSkipFrames      = 2
	FPSSampleWindow    = 60
)

// Rendering.
const (
	CullMargin      = 64.0 // screen pixels
	DirtyThreshold  = 24
	AlphaBuckets    = 20
	SpriteCacheSize = 128
)

// Duration wraps time.Duration so it can be written as "16ms" in toml.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

type Config struct {
	World   WorldConfig   `toml:"world"`
	Spatial SpatialConfig `toml:"spatial"`
	Profile ProfileConfig `toml:"profile"`
	Pacer   PacerConfig   `toml:"pacer"`
	Render  RenderConfig  `toml:"render"`
	Logging LoggingConfig `toml:"logging"`
}

type WorldConfig struct {
	Width  float64 `toml:"width"`
	Height float64 `toml:"height"`
}

type SpatialConfig struct {
	QuadCapacity  int     `toml:"quad_capacity"`
	QuadMaxDepth  int     `toml:"quad_max_depth"`
	CellSize      float64 `toml:"cell_size"`
	CellCacheSize int     `toml:"cell_cache_size"` // 0 = take it from the quality tier
	MoveThreshold float64 `toml:"move_threshold"`  // squared distance below which Grid.Update is a no-op
}

type ProfileConfig struct {
	ForceTier   string `toml:"force_tier"`  // "", "low", "medium" or "high"
	ForceScore  int    `toml:"force_score"` // >0 skips probing and scores directly
	BenchFrames int    `toml:"bench_frames"`
}

type PacerConfig struct {
	MaxFrameTime       Duration `toml:"max_frame_time"`
	MaxUpdatesPerFrame int      `toml:"max_updates_per_frame"`
	AdjustCooldown     Duration `toml:"adjust_cooldown"`
	FPSStep            int      `toml:"fps_step"`
	MinFPS             int      `toml:"min_fps"`
	DegradeRatio       float64  `toml:"degrade_ratio"`
	RecoverRatio       float64  `toml:"recover_ratio"`
	MaxSkipFrames      int      `toml:"max_skip_frames"`
	SampleWindow       int      `toml:"sample_window"`
}

type RenderConfig struct {
	CullMargin      float64 `toml:"cull_margin"`     // 0 = take it from the quality tier
	DirtyThreshold  int     `toml:"dirty_threshold"` // 0 = take it from the quality tier
	AlphaBuckets    int     `toml:"alpha_buckets"`
	SpriteCacheSize int     `toml:"sprite_cache_size"` // 0 = take it from the quality tier
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

// LoadConfig reads a toml file over the defaults. An empty path returns
// the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func DefaultConfig() *Config {
	return &Config{
		World: WorldConfig{
			Width:  WorldWidth,
			Height: WorldHeight,
		},
		Spatial: SpatialConfig{
			QuadCapacity:  QuadCapacity,
			QuadMaxDepth:  QuadMaxDepth,
			CellSize:      GridCellSize,
			MoveThreshold: GridMoveThreshold,
		},
		Profile: ProfileConfig{
			BenchFrames: BenchFrames,
		},
		Pacer: DefaultPacerConfig(),
		Render: RenderConfig{
			AlphaBuckets: AlphaBuckets,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

func DefaultPacerConfig() PacerConfig {
	return PacerConfig{
		MaxFrameTime:       Duration{MaxFrameTime},
		MaxUpdatesPerFrame: MaxUpdatesPerFrame,
		AdjustCooldown:     Duration{AdjustCooldown},
		FPSStep:            FPSStep,
		MinFPS:             MinFPS,
		DegradeRatio:       DegradeRatio,
		RecoverRatio:       RecoverRatio,
		MaxSkipFrames:      MaxSkipFrames,
		SampleWindow:       FPSSampleWindow,
	}
}

// Validate checks the values a misconfigured file could break.
func (c *Config) Validate() error {
	var errs []error
	if !(c.World.Width > 0 && c.World.Height > 0) {
		errs = append(errs, fmt.Errorf("world size %vx%v must be positive", c.World.Width, c.World.Height))
	}
	if c.Spatial.QuadCapacity <= 0 {
		errs = append(errs, fmt.Errorf("quad_capacity %d must be positive", c.Spatial.QuadCapacity))
	}
	if c.Spatial.QuadMaxDepth < 0 {
		errs = append(errs, fmt.Errorf("quad_max_depth %d must not be negative", c.Spatial.QuadMaxDepth))
	}
	if !(c.Spatial.CellSize > 0) {
		errs = append(errs, fmt.Errorf("cell_size %v must be positive", c.Spatial.CellSize))
	}
	if c.Profile.ForceTier != "" {
		if _, err := ParseTier(c.Profile.ForceTier); err != nil {
			errs = append(errs, err)
		}
	}
	if c.Pacer.MinFPS <= 0 {
		errs = append(errs, fmt.Errorf("min_fps %d must be positive", c.Pacer.MinFPS))
	}
	return errors.Join(errs...)
}

// WorldBounds is the root rectangle of the spatial index.
func (c *Config) WorldBounds() Rect {
	return Rect{W: c.World.Width, H: c.World.Height}
}
