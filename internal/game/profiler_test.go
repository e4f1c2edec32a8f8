package game

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestTierForScore(t *testing.T) {
	tests := []struct {
		score int
		want  Tier
	}{
		{100, TierHigh},
		{75, TierHigh},
		{70, TierHigh},
		{69, TierMedium},
		{55, TierMedium},
		{40, TierMedium},
		{39, TierLow},
		{10, TierLow},
		{0, TierLow},
	}
	for _, tt := range tests {
		if got := TierForScore(tt.score); got != tt.want {
			t.Errorf("TierForScore(%d) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

func TestDetectScoring(t *testing.T) {
	tests := []struct {
		name     string
		fps      float64
		cores    int
		mem      float64
		renderer string
		platform string
		score    int
		tier     Tier
	}{
		{"midrange", 50, 4, 2, "Mesa Intel(R) UHD Graphics 620", "linux/amd64", 60, TierMedium},
		{"desktop", 60, 8, 16, "NVIDIA GeForce RTX 3070", "windows/amd64", 100, TierHigh},
		{"software renderer", 60, 8, 16, "llvmpipe (LLVM 15.0.7, 256 bits)", "linux/amd64", 80, TierHigh},
		{"old phone", 25, 2, 1, "Mali-400 MP", "android/arm", 0, TierLow},
		{"low bench", 20, 2, 2, "Apple M1", "darwin/arm64", 30, TierLow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewDeviceProfiler(stubProbes(tt.fps, tt.cores, tt.mem, tt.renderer, tt.platform, nil), nil, nil, nil)
			if got := p.Detect(context.Background()); got != tt.tier {
				t.Errorf("Detect() = %s, want %s", got, tt.tier)
			}
			r := p.Report()
			if r.Score != tt.score {
				t.Errorf("Score = %d (%+v), want %d", r.Score, r.Breakdown, tt.score)
			}
			if len(r.Failed) != 0 || r.Forced {
				t.Errorf("Failed = %v, Forced = %v", r.Failed, r.Forced)
			}
			if p.QualitySettings() != QualityFor(tt.tier) {
				t.Errorf("QualitySettings() does not match tier %s", tt.tier)
			}
		})
	}
}

func TestDetectAllProbesFail(t *testing.T) {
	p := NewDeviceProfiler(failingProbes(), nil, nil, nil)
	if got := p.Detect(context.Background()); got != TierMedium {
		t.Errorf("Detect() = %s, want medium", got)
	}
	r := p.Report()
	want := []string{"cores", "memory", "renderer", "platform", "bench"}
	if !slices.Equal(r.Failed, want) {
		t.Errorf("Failed = %v, want %v", r.Failed, want)
	}
	if r.Signals.Scored() {
		t.Error("Signals.Scored() = true with every probe failing")
	}

	p = NewDeviceProfiler(Probes{}, nil, nil, nil)
	if got := p.Detect(context.Background()); got != TierMedium {
		t.Errorf("Detect() with nil probes = %s, want medium", got)
	}
}

func TestDetectPanickingProbe(t *testing.T) {
	probes := stubProbes(60, 8, 16, "", "linux/amd64", nil)
	probes.Cores = func() (int, error) { panic("cpuid") }
	probes.Renderer = nil

	p := NewDeviceProfiler(probes, nil, nil, nil)
	tier := p.Detect(context.Background())
	r := p.Report()
	if !slices.Contains(r.Failed, "cores") || !slices.Contains(r.Failed, "renderer") {
		t.Errorf("Failed = %v, want cores and renderer", r.Failed)
	}
	if r.Signals.Cores != NeutralCores {
		t.Errorf("Cores = %d, want neutral %d", r.Signals.Cores, NeutralCores)
	}
	// 40 fps points + 20 neutral cores + 30 memory.
	if r.Score != 90 || tier != TierHigh {
		t.Errorf("Score = %d tier %s, want 90 high", r.Score, tier)
	}
}

func TestDetectScoreFloorsAtZero(t *testing.T) {
	p := NewDeviceProfiler(stubProbes(1, 1, 1, "SwiftShader Device", "js/wasm", nil), nil, nil, nil)
	if got := p.Detect(context.Background()); got != TierLow {
		t.Errorf("Detect() = %s, want low", got)
	}
	if r := p.Report(); r.Score != 0 || r.Breakdown.Penalty != LowEndPenalty {
		t.Errorf("Score = %d Penalty = %d", r.Score, r.Breakdown.Penalty)
	}
}

func TestDetectCaches(t *testing.T) {
	var runs atomic.Int32
	p := NewDeviceProfiler(stubProbes(60, 8, 16, "", "", &runs), nil, nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Detect(context.Background())
		}()
	}
	wg.Wait()
	p.Detect(context.Background())
	if n := runs.Load(); n != 1 {
		t.Errorf("benchmark ran %d times, want 1", n)
	}
}

func TestForceNotifiesAndSkipsProbing(t *testing.T) {
	var runs atomic.Int32
	bus := NewEventBus()
	var events []Event
	bus.Subscribe(EventTierChanged, func(e Event) { events = append(events, e) })

	p := NewDeviceProfiler(stubProbes(60, 8, 16, "", "", &runs), nil, nil, bus)
	var gotTier Tier = -1
	var gotQ QualitySettings
	p.OnChange(func(tier Tier, q QualitySettings) { gotTier, gotQ = tier, q })

	p.Force(TierLow)
	if gotTier != TierLow || gotQ != QualityFor(TierLow) {
		t.Errorf("OnChange got (%s, %+v)", gotTier, gotQ)
	}
	if len(events) != 1 || events[0].Tier != TierLow {
		t.Errorf("events = %+v", events)
	}
	if got := p.Detect(context.Background()); got != TierLow {
		t.Errorf("Detect() after Force = %s, want low", got)
	}
	if runs.Load() != 0 {
		t.Error("Detect probed after a forced tier")
	}
	if !p.Report().Forced {
		t.Error("Report().Forced = false")
	}

	if got := p.ForceScore(75); got != TierHigh {
		t.Errorf("ForceScore(75) = %s, want high", got)
	}
	if r := p.Report(); r.Score != 75 || r.Tier != TierHigh {
		t.Errorf("Report() = %+v", r)
	}
	if gotTier != TierHigh || len(events) != 2 {
		t.Errorf("second override not delivered: tier %s, %d events", gotTier, len(events))
	}

	p.Force(Tier(9))
	if p.Tier() != TierMedium {
		t.Errorf("out of range Force gave %s, want medium", p.Tier())
	}
}

func TestForceAfterDetect(t *testing.T) {
	p := NewDeviceProfiler(stubProbes(60, 8, 16, "", "", nil), nil, nil, nil)
	if got := p.Detect(context.Background()); got != TierHigh {
		t.Fatalf("Detect() = %s", got)
	}
	p.Force(TierLow)
	if got := p.Detect(context.Background()); got != TierLow {
		t.Errorf("Detect() after Force = %s, want low", got)
	}
}

func TestBenchmark(t *testing.T) {
	clock := func(step time.Duration) func() time.Time {
		base := time.Unix(0, 0)
		calls := 0
		return func() time.Time {
			calls++
			return base.Add(time.Duration(calls-1) * step)
		}
	}

	b := &Benchmark{Frames: 2, Now: clock(100 * time.Millisecond)}
	fps, err := b.Run(context.Background())
	if err != nil || fps != 20 {
		t.Errorf("Run() = %v, %v; want 20", fps, err)
	}

	b = &Benchmark{Frames: 12, Now: clock(10 * time.Millisecond)}
	if fps, _ := b.Run(context.Background()); fps != BenchMaxFPS {
		t.Errorf("fast run = %v, want capped %v", fps, BenchMaxFPS)
	}

	b = &Benchmark{Frames: 4, Now: clock(0)}
	if fps, _ := b.Run(context.Background()); fps != BenchMaxFPS {
		t.Errorf("zero elapsed = %v, want %v", fps, BenchMaxFPS)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewBenchmark(0).Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled Run error = %v", err)
	}
}
