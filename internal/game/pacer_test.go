package game

import (
	"slices"
	"testing"
	"time"
)

func TestFramePacerAccumulator(t *testing.T) {
	p := NewFramePacer(60, DefaultPacerConfig(), nil, nil)
	if r := p.Update(0); r.UpdateCount != 0 || !r.ShouldRender {
		t.Fatalf("priming frame = %+v", r)
	}

	var got []int
	for _, ms := range []int{16, 32, 48, 98, 114} {
		r := p.Update(time.Duration(ms) * time.Millisecond)
		got = append(got, r.UpdateCount)
		if r.Alpha < 0 || r.Alpha >= 1 {
			t.Errorf("t=%dms alpha %v out of [0,1)", ms, r.Alpha)
		}
	}
	if want := []int{0, 1, 1, 2, 1}; !slices.Equal(got, want) {
		t.Errorf("update counts = %v, want %v", got, want)
	}
	if st := p.State(); st.FixedTimestep != time.Second/60 || st.LastTime != 114*time.Millisecond {
		t.Errorf("State() = %+v", st)
	}
}

func TestFramePacerConservesTime(t *testing.T) {
	p := NewFramePacer(60, DefaultPacerConfig(), nil, nil)
	step := p.FixedTimestep()
	rng := NewRand(11)

	now := time.Duration(0)
	p.Update(now)
	var consumed time.Duration
	for i := 0; i < 500; i++ {
		now += time.Duration(rng.Intn(100)) * time.Millisecond
		r := p.Update(now)
		consumed += r.FrameTime
		if st := p.State(); st.Accumulator < 0 || st.Accumulator >= step {
			t.Fatalf("frame %d: accumulator %v outside [0, %v)", i, st.Accumulator, step)
		}
		if r.FrameTime > MaxFrameTime {
			t.Fatalf("frame %d: frame time %v above cap", i, r.FrameTime)
		}
	}
	_, updates, dropped := p.Counters()
	if got := time.Duration(updates+dropped)*step + p.State().Accumulator; got != consumed {
		t.Errorf("steps account for %v, consumed %v", got, consumed)
	}
}

func TestFramePacerUpdateCap(t *testing.T) {
	cfg := DefaultPacerConfig()
	cfg.MaxFrameTime = Duration{time.Second}
	p := NewFramePacer(60, cfg, nil, nil)
	p.Update(0)

	r := p.Update(500 * time.Millisecond)
	if r.UpdateCount != MaxUpdatesPerFrame {
		t.Errorf("UpdateCount = %d, want %d", r.UpdateCount, MaxUpdatesPerFrame)
	}
	if _, _, dropped := p.Counters(); dropped != 25 {
		t.Errorf("dropped = %d, want 25", dropped)
	}
	if acc := p.State().Accumulator; acc >= p.FixedTimestep() {
		t.Errorf("accumulator %v not below one step", acc)
	}
}

func TestFramePacerLowTargetAdvances(t *testing.T) {
	p := NewFramePacer(20, DefaultPacerConfig(), nil, nil)
	p.Update(0)
	r := p.Update(200 * time.Millisecond)
	if r.UpdateCount != 1 || r.FrameTime != 50*time.Millisecond {
		t.Errorf("Update = %+v, want one 50ms step", r)
	}
}

func TestFramePacerClockGoingBackwards(t *testing.T) {
	p := NewFramePacer(60, DefaultPacerConfig(), nil, nil)
	p.Update(time.Second)
	if r := p.Update(500 * time.Millisecond); r.UpdateCount != 0 || r.FrameTime != 0 {
		t.Errorf("Update after clock step back = %+v", r)
	}
	if r := p.Update(500*time.Millisecond + 20*time.Millisecond); r.UpdateCount != 1 {
		t.Errorf("pacer did not resume from the new time base: %+v", r)
	}
}

func TestFramePacerDegradeAndRecover(t *testing.T) {
	bus := NewEventBus()
	var events []Event
	bus.Subscribe(EventModeChanged, func(e Event) { events = append(events, e) })
	bus.Subscribe(EventTargetFPS, func(e Event) { events = append(events, e) })

	p := NewFramePacer(60, DefaultPacerConfig(), nil, bus)
	now := time.Duration(0)
	p.Update(now)

	// 25 fps for one second.
	for i := 0; i < 25; i++ {
		now += 40 * time.Millisecond
		p.Update(now)
	}
	if p.Mode() != ModeDegraded || p.TargetFPS() != 55 {
		t.Fatalf("after slow second: mode %s target %d", p.Mode(), p.TargetFPS())
	}
	if len(events) != 2 ||
		events[0].Type != EventTargetFPS || events[0].Data != 55 ||
		events[1].Type != EventModeChanged || events[1].Mode != ModeDegraded {
		t.Fatalf("events = %+v", events)
	}
	if skip := p.State().SkipFrames; skip != 1 {
		t.Errorf("SkipFrames = %d, want 1", skip)
	}

	// Degraded renders every other frame.
	var renders []bool
	for i := 0; i < 4; i++ {
		now += 10 * time.Millisecond
		renders = append(renders, p.Update(now).ShouldRender)
	}
	if want := []bool{false, true, false, true}; !slices.Equal(renders, want) {
		t.Errorf("render cadence = %v, want %v", renders, want)
	}

	// 100 fps until the next adjustment.
	for now < 2*time.Second {
		now += 10 * time.Millisecond
		p.Update(now)
	}
	if p.Mode() != ModeNormal || p.TargetFPS() != 60 {
		t.Fatalf("after fast second: mode %s target %d", p.Mode(), p.TargetFPS())
	}
	if len(events) != 4 || events[2].Data != 60 || events[3].Mode != ModeNormal {
		t.Errorf("recovery events = %+v", events[2:])
	}
	for i := 0; i < 3; i++ {
		now += 10 * time.Millisecond
		if !p.Update(now).ShouldRender {
			t.Error("normal mode skipped a frame")
		}
	}
	if p.FixedTimestep() != time.Second/60 {
		t.Errorf("fixed step changed to %v", p.FixedTimestep())
	}
}

func TestFramePacerTargetFloor(t *testing.T) {
	p := NewFramePacer(60, DefaultPacerConfig(), nil, nil)
	now := time.Duration(0)
	p.Update(now)
	// 5 fps for long enough to walk down to the floor.
	for now < 10*time.Second {
		now += 200 * time.Millisecond
		p.Update(now)
	}
	if p.TargetFPS() != MinFPS {
		t.Errorf("TargetFPS() = %d, want floor %d", p.TargetFPS(), MinFPS)
	}
	if p.State().SkipFrames != MaxSkipFrames {
		t.Errorf("SkipFrames = %d, want %d", p.State().SkipFrames, MaxSkipFrames)
	}
}

func TestFramePacerReset(t *testing.T) {
	p := NewFramePacer(60, DefaultPacerConfig(), nil, nil)
	p.Update(0)
	p.Update(25 * time.Millisecond)
	p.Reset(10 * time.Second)
	if st := p.State(); st.Accumulator != 0 || st.Alpha != 0 || st.LastTime != 10*time.Second {
		t.Errorf("State() after Reset = %+v", st)
	}
	if r := p.Update(10*time.Second + 17*time.Millisecond); r.UpdateCount != 1 {
		t.Errorf("first update after Reset = %+v", r)
	}
	if got := p.CurrentFPS(); got < 58 || got > 59 {
		t.Errorf("CurrentFPS() = %v", got)
	}
}

func TestFramePacerResumeCarriesTime(t *testing.T) {
	p := NewFramePacer(60, DefaultPacerConfig(), nil, nil)
	p.Resume(time.Second, 20*time.Millisecond)
	if st := p.State(); st.Accumulator != 20*time.Millisecond || st.LastTime != time.Second {
		t.Fatalf("State() = %+v", st)
	}
	res := p.Update(time.Second + 10*time.Millisecond)
	step := time.Second / 60
	if res.UpdateCount != 1 || p.State().Accumulator != 30*time.Millisecond-step {
		t.Errorf("UpdateCount %d, accumulator %v", res.UpdateCount, p.State().Accumulator)
	}

	p.Resume(0, -time.Millisecond)
	if p.State().Accumulator != 0 {
		t.Errorf("negative carry kept: %v", p.State().Accumulator)
	}
}
