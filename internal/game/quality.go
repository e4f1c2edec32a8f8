package game

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Tier is a coarse device capability class.
type Tier int

const (
	TierLow Tier = iota
	TierMedium
	TierHigh
)

var ErrUnknownTier = errors.New("unknown device tier")

var tierNames = [...]string{TierLow: "low", TierMedium: "medium", TierHigh: "high"}

func (t Tier) String() string {
	if t < TierLow || t > TierHigh {
		return fmt.Sprintf("Tier(%d)", int(t))
	}
	return tierNames[t]
}

func ParseTier(s string) (Tier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return TierLow, nil
	case "medium", "med":
		return TierMedium, nil
	case "high":
		return TierHigh, nil
	}
	return TierMedium, fmt.Errorf("%w: %q", ErrUnknownTier, s)
}

func (t Tier) MarshalText() ([]byte, error) {
	if t < TierLow || t > TierHigh {
		return nil, fmt.Errorf("%w: %d", ErrUnknownTier, int(t))
	}
	return []byte(t.String()), nil
}

func (t *Tier) UnmarshalText(text []byte) error {
	v, err := ParseTier(string(text))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// QualitySettings scales rendering and simulation workload. Values are
// copied out of the table; callers never share mutable state.
type QualitySettings struct {
	TargetFPS       int     `yaml:"target_fps"`
	EffectDensity   float64 `yaml:"effect_density"`
	SpriteCacheSize int     `yaml:"sprite_cache_size"`
	CellCacheSize   int     `yaml:"cell_cache_size"`
	RenderDistance  float64 `yaml:"render_distance"`
	CullMargin      float64 `yaml:"cull_margin"`
	DirtyThreshold  int     `yaml:"dirty_threshold"`
}

// MaxFPS is the ceiling adaptive pacing may climb back to.
func (q QualitySettings) MaxFPS() int { return q.TargetFPS }

type lowEndSignatures struct {
	Renderers []string `yaml:"renderers"`
	Platforms []string `yaml:"platforms"`
}

// QualityTable maps tiers to settings and lists known low-end signatures.
type QualityTable struct {
	Tiers  map[Tier]QualitySettings
	LowEnd lowEndSignatures
}

type qualityFile struct {
	Tiers  map[string]QualitySettings `yaml:"tiers"`
	LowEnd lowEndSignatures           `yaml:"low_end"`
}

//go:embed quality.yaml
var qualityYAML []byte

var defaultTable = mustParseQualityTable(qualityYAML)

// ParseQualityTable decodes a quality table and checks every tier is present.
func ParseQualityTable(data []byte) (*QualityTable, error) {
	var file qualityFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse quality table: %w", err)
	}
	qt := QualityTable{
		Tiers:  make(map[Tier]QualitySettings, len(file.Tiers)),
		LowEnd: file.LowEnd,
	}
	for name, q := range file.Tiers {
		t, err := ParseTier(name)
		if err != nil {
			return nil, fmt.Errorf("quality table: %w", err)
		}
		qt.Tiers[t] = q
	}
	for _, t := range []Tier{TierLow, TierMedium, TierHigh} {
		q, ok := qt.Tiers[t]
		if !ok {
			return nil, fmt.Errorf("quality table: missing tier %s", t)
		}
		if q.TargetFPS <= 0 {
			return nil, fmt.Errorf("quality table: tier %s: target_fps must be positive", t)
		}
	}
	for i, s := range qt.LowEnd.Renderers {
		qt.LowEnd.Renderers[i] = strings.ToLower(s)
	}
	for i, s := range qt.LowEnd.Platforms {
		qt.LowEnd.Platforms[i] = strings.ToLower(s)
	}
	return &qt, nil
}

func mustParseQualityTable(data []byte) *QualityTable {
	qt, err := ParseQualityTable(data)
	if err != nil {
		panic(err)
	}
	return qt
}

// DefaultQualityTable returns the built-in table.
func DefaultQualityTable() *QualityTable { return defaultTable }

// QualityFor is a pure lookup in the built-in table. Unknown tiers get medium.
func QualityFor(t Tier) QualitySettings {
	return defaultTable.Settings(t)
}

func (qt *QualityTable) Settings(t Tier) QualitySettings {
	if q, ok := qt.Tiers[t]; ok {
		return q
	}
	return qt.Tiers[TierMedium]
}

// IsLowEnd reports whether the renderer string contains a known low-end
// signature or the platform (GOOS/GOARCH) is a listed one.
func (qt *QualityTable) IsLowEnd(renderer, platform string) bool {
	renderer = strings.ToLower(renderer)
	platform = strings.ToLower(platform)
	if renderer != "" {
		for _, sig := range qt.LowEnd.Renderers {
			if strings.Contains(renderer, sig) {
				return true
			}
		}
	}
	if platform != "" {
		for _, sig := range qt.LowEnd.Platforms {
			if platform == sig {
				return true
			}
		}
	}
	return false
}
