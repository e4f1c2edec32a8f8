package game

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Tier thresholds and score weights.
const (
	HighTierScore   = 70
	MediumTierScore = 40

	LowEndPenalty = 20

	NeutralFPS      = 30.0
	NeutralCores    = 4
	NeutralMemoryGB = 4.0
)

// TierForScore maps a detection score to a tier.
func TierForScore(score int) Tier {
	switch {
	case score >= HighTierScore:
		return TierHigh
	case score >= MediumTierScore:
		return TierMedium
	default:
		return TierLow
	}
}

func fpsPoints(fps float64) int {
	switch {
	case fps >= 55:
		return 40
	case fps >= 45:
		return 30
	case fps >= 30:
		return 20
	case fps >= 20:
		return 10
	}
	return 0
}

func corePoints(cores int) int {
	switch {
	case cores >= 8:
		return 30
	case cores >= 4:
		return 20
	case cores >= 2:
		return 10
	}
	return 0
}

func memoryPoints(gb float64) int {
	switch {
	case gb >= 8:
		return 30
	case gb >= 4:
		return 20
	case gb >= 2:
		return 10
	}
	return 0
}

// Signals are the raw probe results. A probe that failed leaves its OK
// flag false and its value at the neutral default.
type Signals struct {
	FPS        float64
	FPSOK      bool
	Cores      int
	CoresOK    bool
	MemoryGB   float64
	MemoryOK   bool
	Renderer   string
	RendererOK bool
	Platform   string
	PlatformOK bool
}

func neutralSignals() Signals {
	return Signals{FPS: NeutralFPS, Cores: NeutralCores, MemoryGB: NeutralMemoryGB}
}

// Scored reports whether at least one scoring signal was measured.
func (s Signals) Scored() bool { return s.FPSOK || s.CoresOK || s.MemoryOK }

type ScoreBreakdown struct {
	FPS     int
	Cores   int
	Memory  int
	Penalty int
}

func (b ScoreBreakdown) Total() int {
	t := b.FPS + b.Cores + b.Memory - b.Penalty
	if t < 0 {
		return 0
	}
	return t
}

// Score computes the weighted detection score for a set of signals.
func (qt *QualityTable) Score(s Signals) ScoreBreakdown {
	b := ScoreBreakdown{
		FPS:    fpsPoints(s.FPS),
		Cores:  corePoints(s.Cores),
		Memory: memoryPoints(s.MemoryGB),
	}
	if qt.IsLowEnd(s.Renderer, s.Platform) {
		b.Penalty = LowEndPenalty
	}
	return b
}

// Report is the cached outcome of detection.
type Report struct {
	Tier      Tier
	Score     int
	Breakdown ScoreBreakdown
	Signals   Signals
	Forced    bool
	Failed    []string
}

// DeviceProfiler classifies the device once and serves the matching
// quality settings.
type DeviceProfiler struct {
	probes Probes
	table  *QualityTable
	log    *zap.Logger
	bus    *EventBus

	once      sync.Once
	mu        sync.Mutex
	report    Report
	done      bool
	listeners []func(Tier, QualitySettings)
}

func NewDeviceProfiler(probes Probes, table *QualityTable, log *zap.Logger, bus *EventBus) *DeviceProfiler {
	if table == nil {
		table = DefaultQualityTable()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &DeviceProfiler{
		probes: probes,
		table:  table,
		log:    log,
		bus:    bus,
		report: Report{Tier: TierMedium},
	}
}

// Detect runs the probes and the benchmark on the first call and returns
// the cached tier afterwards. It never fails: missing signals are scored
// as neutral, and if nothing could be measured the tier is medium. A tier
// forced before the first call is returned without probing.
func (p *DeviceProfiler) Detect(ctx context.Context) Tier {
	p.once.Do(func() {
		p.mu.Lock()
		forced := p.done && p.report.Forced
		p.mu.Unlock()
		if forced {
			return
		}
		r := p.detect(ctx)
		p.mu.Lock()
		if !p.report.Forced {
			p.report = r
		}
		p.done = true
		p.mu.Unlock()
	})
	return p.Tier()
}

func (p *DeviceProfiler) detect(ctx context.Context) Report {
	s := neutralSignals()
	var failed []string

	if v, err := probeValue(p.probes.Cores); err == nil && v > 0 {
		s.Cores, s.CoresOK = v, true
	} else {
		failed = append(failed, "cores")
		p.log.Debug("probe failed", zap.String("probe", "cores"), zap.Error(err))
	}
	if v, err := probeValue(p.probes.MemoryGB); err == nil && v > 0 && finite(v) {
		s.MemoryGB, s.MemoryOK = v, true
	} else {
		failed = append(failed, "memory")
		p.log.Debug("probe failed", zap.String("probe", "memory"), zap.Error(err))
	}
	if v, err := probeValue(p.probes.Renderer); err == nil && v != "" {
		s.Renderer, s.RendererOK = v, true
	} else {
		failed = append(failed, "renderer")
		p.log.Debug("probe failed", zap.String("probe", "renderer"), zap.Error(err))
	}
	if v, err := probeValue(p.probes.Platform); err == nil && v != "" {
		s.Platform, s.PlatformOK = v, true
	} else {
		failed = append(failed, "platform")
		p.log.Debug("probe failed", zap.String("probe", "platform"), zap.Error(err))
	}
	if v, err := benchValue(ctx, p.probes.Bench); err == nil && v > 0 && finite(v) {
		s.FPS, s.FPSOK = v, true
	} else {
		failed = append(failed, "bench")
		p.log.Debug("probe failed", zap.String("probe", "bench"), zap.Error(err))
	}

	b := p.table.Score(s)
	r := Report{
		Score:     b.Total(),
		Breakdown: b,
		Signals:   s,
		Failed:    failed,
	}
	if s.Scored() {
		r.Tier = TierForScore(r.Score)
	} else {
		r.Tier = TierMedium
	}
	p.log.Info("device tier detected",
		zap.Stringer("tier", r.Tier),
		zap.Int("score", r.Score),
		zap.Int("fps_pts", b.FPS),
		zap.Int("core_pts", b.Cores),
		zap.Int("mem_pts", b.Memory),
		zap.Int("penalty", b.Penalty),
		zap.Float64("bench_fps", s.FPS),
		zap.Strings("failed", failed),
	)
	return r
}

// probeValue calls fn, converting a nil probe or a panic into an error.
func probeValue[V any](fn func() (V, error)) (v V, err error) {
	if fn == nil {
		return v, ErrProbeUnavailable
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("probe panic: %v", rec)
		}
	}()
	return fn()
}

func benchValue(ctx context.Context, fn func(context.Context) (float64, error)) (float64, error) {
	if fn == nil {
		return 0, ErrProbeUnavailable
	}
	return probeValue(func() (float64, error) { return fn(ctx) })
}

// Force overrides the tier, bypassing detection.
func (p *DeviceProfiler) Force(t Tier) {
	if t < TierLow || t > TierHigh {
		t = TierMedium
	}
	p.mu.Lock()
	p.report = Report{Tier: t, Forced: true}
	p.done = true
	p.mu.Unlock()
	p.log.Info("device tier forced", zap.Stringer("tier", t))
	p.notify(t)
}

// ForceScore overrides detection with a fixed score.
func (p *DeviceProfiler) ForceScore(score int) Tier {
	t := TierForScore(score)
	p.mu.Lock()
	p.report = Report{Tier: t, Score: score, Forced: true}
	p.done = true
	p.mu.Unlock()
	p.log.Info("device score forced", zap.Int("score", score), zap.Stringer("tier", t))
	p.notify(t)
	return t
}

// OnChange registers fn to be told about later forced overrides.
func (p *DeviceProfiler) OnChange(fn func(Tier, QualitySettings)) {
	p.mu.Lock()
	p.listeners = append(p.listeners, fn)
	p.mu.Unlock()
}

func (p *DeviceProfiler) notify(t Tier) {
	q := p.table.Settings(t)
	p.mu.Lock()
	listeners := append([]func(Tier, QualitySettings){}, p.listeners...)
	p.mu.Unlock()
	for _, fn := range listeners {
		fn(t, q)
	}
	p.bus.Emit(Event{Type: EventTierChanged, Tier: t})
}

// Tier returns the current tier; medium until detection or an override.
func (p *DeviceProfiler) Tier() Tier {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.report.Tier
}

func (p *DeviceProfiler) Report() Report {
	p.mu.Lock()
	defer p.mu.Unlock()
	r := p.report
	r.Failed = append([]string(nil), r.Failed...)
	return r
}

// QualitySettings returns the settings for the current tier.
func (p *DeviceProfiler) QualitySettings() QualitySettings {
	return p.table.Settings(p.Tier())
}

func (p *DeviceProfiler) Table() *QualityTable { return p.table }
