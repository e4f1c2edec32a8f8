package game

import (
	"time"

	"go.uber.org/zap"
)

type PacerMode int

const (
	ModeNormal PacerMode = iota
	ModeDegraded
)

func (m PacerMode) String() string {
	if m == ModeDegraded {
		return "degraded"
	}
	return "normal"
}

// FrameResult tells the host what to do for one animation callback.
type FrameResult struct {
	UpdateCount  int           // fixed simulation steps to run
	ShouldRender bool          // false while the degraded governor skips a frame
	Alpha        float64       // interpolation between previous and current step, [0,1)
	FrameTime    time.Duration // clamped time consumed this callback
	Mode         PacerMode
}

// FrameState is a snapshot of the pacer internals.
type FrameState struct {
	LastTime      time.Duration
	Accumulator   time.Duration
	FixedTimestep time.Duration
	Alpha         float64
	TargetFPS     int
	SkipFrames    int
}

// FramePacer runs a fixed-timestep accumulator with render interpolation
// and adapts its render target when the measured frame rate falls short.
// The simulation step is fixed at construction; adaptation only changes
// how often frames are rendered.
type FramePacer struct {
	cfg PacerConfig
	log *zap.Logger
	bus *EventBus

	step    time.Duration
	maxFPS  int
	minFPS  int
	target  int
	mode    PacerMode
	started bool

	last  time.Duration
	acc   time.Duration
	alpha float64

	skipFrames  int
	skipCounter int

	samples    []time.Duration
	sampleIdx  int
	sampleN    int
	sampleSum  time.Duration
	lastAdjust time.Duration

	frames  uint64
	updates uint64
	dropped uint64
}

func NewFramePacer(targetFPS int, cfg PacerConfig, log *zap.Logger, bus *EventBus) *FramePacer {
	def := DefaultPacerConfig()
	if targetFPS <= 0 {
		targetFPS = DefaultTargetFPS
	}
	if cfg.MaxFrameTime.Duration <= 0 {
		cfg.MaxFrameTime = def.MaxFrameTime
	}
	if cfg.MaxUpdatesPerFrame <= 0 {
		cfg.MaxUpdatesPerFrame = def.MaxUpdatesPerFrame
	}
	if cfg.AdjustCooldown.Duration <= 0 {
		cfg.AdjustCooldown = def.AdjustCooldown
	}
	if cfg.FPSStep <= 0 {
		cfg.FPSStep = def.FPSStep
	}
	if cfg.MinFPS <= 0 {
		cfg.MinFPS = def.MinFPS
	}
	if cfg.DegradeRatio <= 0 {
		cfg.DegradeRatio = def.DegradeRatio
	}
	if cfg.RecoverRatio <= 0 {
		cfg.RecoverRatio = def.RecoverRatio
	}
	if cfg.MaxSkipFrames <= 0 {
		cfg.MaxSkipFrames = def.MaxSkipFrames
	}
	if cfg.SampleWindow <= 0 {
		cfg.SampleWindow = def.SampleWindow
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &FramePacer{
		cfg:     cfg,
		log:     log,
		bus:     bus,
		step:    time.Second / time.Duration(targetFPS),
		maxFPS:  targetFPS,
		minFPS:  min(cfg.MinFPS, targetFPS),
		target:  targetFPS,
		samples: make([]time.Duration, cfg.SampleWindow),
	}
}

// Update advances the pacer to now, a monotonic time since any origin.
// The first call only establishes the time base.
func (p *FramePacer) Update(now time.Duration) FrameResult {
	p.frames++
	if !p.started {
		p.started = true
		p.last = now
		p.lastAdjust = now
		return FrameResult{ShouldRender: true, Alpha: p.alpha, Mode: p.mode}
	}

	raw := now - p.last
	if raw < 0 {
		raw = 0
	}
	p.last = now
	p.record(raw)

	frameTime := min(raw, p.maxFrameTime())
	p.acc += frameTime

	n := 0
	for p.acc >= p.step && n < p.cfg.MaxUpdatesPerFrame {
		p.acc -= p.step
		n++
	}
	if p.acc >= p.step {
		// Update cap hit: drop whole steps, keep the residual.
		drop := p.acc / p.step
		p.acc -= drop * p.step
		p.dropped += uint64(drop)
	}
	p.updates += uint64(n)
	p.alpha = float64(p.acc) / float64(p.step)

	render := p.renderThisFrame()
	p.adjust(now)

	return FrameResult{
		UpdateCount:  n,
		ShouldRender: render,
		Alpha:        p.alpha,
		FrameTime:    frameTime,
		Mode:         p.mode,
	}
}

// maxFrameTime never drops below one step so a low target still advances.
func (p *FramePacer) maxFrameTime() time.Duration {
	return max(p.cfg.MaxFrameTime.Duration, p.step)
}

func (p *FramePacer) renderThisFrame() bool {
	if p.mode == ModeNormal || p.skipFrames <= 0 {
		p.skipCounter = 0
		return true
	}
	p.skipCounter++
	if p.skipCounter > p.skipFrames {
		p.skipCounter = 0
		return true
	}
	return false
}

func (p *FramePacer) record(d time.Duration) {
	if p.sampleN == len(p.samples) {
		p.sampleSum -= p.samples[p.sampleIdx]
	} else {
		p.sampleN++
	}
	p.samples[p.sampleIdx] = d
	p.sampleSum += d
	p.sampleIdx = (p.sampleIdx + 1) % len(p.samples)
}

func (p *FramePacer) resetSamples() {
	clear(p.samples)
	p.sampleIdx = 0
	p.sampleN = 0
	p.sampleSum = 0
}

func (p *FramePacer) worstSample() time.Duration {
	var worst time.Duration
	for i := 0; i < p.sampleN; i++ {
		worst = max(worst, p.samples[i])
	}
	return worst
}

// CurrentFPS is the moving average over the sample window.
func (p *FramePacer) CurrentFPS() float64 {
	if p.sampleN == 0 || p.sampleSum <= 0 {
		return float64(p.target)
	}
	return float64(p.sampleN) / p.sampleSum.Seconds()
}

func (p *FramePacer) adjust(now time.Duration) {
	if now-p.lastAdjust < p.cfg.AdjustCooldown.Duration || p.sampleN == 0 {
		return
	}
	p.lastAdjust = now

	fps := p.CurrentFPS()
	ratio := fps / float64(p.target)
	targetFrame := time.Second / time.Duration(p.target)

	switch {
	case ratio < p.cfg.DegradeRatio:
		p.setTarget(max(p.target-p.cfg.FPSStep, p.minFPS), fps)
		p.setMode(ModeDegraded)
	case ratio > p.cfg.RecoverRatio && p.worstSample() < targetFrame*3/2:
		if p.target < p.maxFPS || p.mode != ModeNormal {
			p.setTarget(min(p.target+p.cfg.FPSStep, p.maxFPS), fps)
			p.setMode(ModeNormal)
		}
	}
}

func (p *FramePacer) setTarget(t int, measured float64) {
	if t == p.target {
		return
	}
	p.log.Info("target fps changed",
		zap.Int("from", p.target),
		zap.Int("to", t),
		zap.Float64("measured", measured),
	)
	p.target = t
	p.skipFrames = p.skipFor(t)
	p.resetSamples()
	p.bus.Emit(Event{Type: EventTargetFPS, Mode: p.mode, Data: t})
}

func (p *FramePacer) skipFor(target int) int {
	if target <= 0 {
		return p.cfg.MaxSkipFrames
	}
	n := (p.maxFPS+target-1)/target - 1
	return clamp(n, 1, p.cfg.MaxSkipFrames)
}

func (p *FramePacer) setMode(m PacerMode) {
	if m == p.mode {
		return
	}
	p.log.Info("pacer mode changed", zap.Stringer("from", p.mode), zap.Stringer("to", m), zap.Int("target_fps", p.target))
	p.mode = m
	if m == ModeDegraded {
		p.skipFrames = p.skipFor(p.target)
	} else {
		p.skipFrames = 0
	}
	p.skipCounter = 0
	p.bus.Emit(Event{Type: EventModeChanged, Mode: m, Data: p.target})
}

// Reset restarts timing at now, discarding accumulated time.
func (p *FramePacer) Reset(now time.Duration) {
	p.started = true
	p.last = now
	p.lastAdjust = now
	p.acc = 0
	p.alpha = 0
	p.resetSamples()
}

// Resume restarts timing at now carrying acc of unsimulated time, typically
// the accumulator of the pacer this one replaces. The next Update runs it as
// whole steps of this pacer's timestep.
func (p *FramePacer) Resume(now, acc time.Duration) {
	p.Reset(now)
	p.acc = max(acc, 0)
	p.alpha = min(float64(p.acc)/float64(p.step), 1)
}

func (p *FramePacer) State() FrameState {
	return FrameState{
		LastTime:      p.last,
		Accumulator:   p.acc,
		FixedTimestep: p.step,
		Alpha:         p.alpha,
		TargetFPS:     p.target,
		SkipFrames:    p.skipFrames,
	}
}

func (p *FramePacer) FixedTimestep() time.Duration { return p.step }
func (p *FramePacer) TargetFPS() int               { return p.target }
func (p *FramePacer) MaxFPS() int                  { return p.maxFPS }
func (p *FramePacer) Mode() PacerMode              { return p.mode }
func (p *FramePacer) Alpha() float64               { return p.alpha }

// Counters returns callbacks seen, steps run and steps dropped at the update cap.
func (p *FramePacer) Counters() (frames, updates, dropped uint64) {
	return p.frames, p.updates, p.dropped
}
