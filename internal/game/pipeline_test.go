package game

import (
	"slices"
	"testing"
)

func TestPipelineOrder(t *testing.T) {
	p := NewPipeline()
	var log []string
	stage := func(ph Phase, name string) Stage {
		return StageFunc(ph, func(*Frame) { log = append(log, name) })
	}
	p.Register(stage(PhaseDraw, "draw"))
	p.Register(stage(PhaseResolve, "resolve-a"))
	p.Register(stage(PhaseQuery, "query"))
	p.Register(stage(PhaseResolve, "resolve-b"))
	p.Register(stage(PhaseIndex, "index"))

	var f Frame
	p.RunStep(&f)
	if want := []string{"index", "query", "resolve-a", "resolve-b"}; !slices.Equal(log, want) {
		t.Errorf("RunStep order = %v, want %v", log, want)
	}

	log = log[:0]
	p.RunPhase(PhaseDraw, &f)
	if want := []string{"draw"}; !slices.Equal(log, want) {
		t.Errorf("RunPhase(draw) = %v", log)
	}
	if p.Len() != 5 {
		t.Errorf("Len() = %d", p.Len())
	}
	if PhaseQuery.String() != "query" || Phase(42).String() != "unknown" {
		t.Error("Phase.String mismatch")
	}
}
