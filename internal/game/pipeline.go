package game

import (
	"sort"
	"time"
)

// Phase orders stages within a frame. Index, Query and Resolve run once
// per simulation step; Draw runs once per rendered frame.
type Phase int

const (
	PhaseIndex   Phase = iota // 0: rebuild spatial indices
	PhaseQuery                // 1: neighbour and range queries
	PhaseResolve              // 2: apply movement and interactions
	PhaseDraw                 // 3: queue instances into the batcher
)

func (p Phase) String() string {
	switch p {
	case PhaseIndex:
		return "index"
	case PhaseQuery:
		return "query"
	case PhaseResolve:
		return "resolve"
	case PhaseDraw:
		return "draw"
	}
	return "unknown"
}

// Frame is the per-callback context handed to every stage.
type Frame struct {
	Tick    uint64        // simulation steps run since start
	Step    int           // index of the step within this callback
	Dt      time.Duration // fixed timestep
	Alpha   float64       // interpolation factor, set before draw
	View    Viewport
	Batcher *RenderBatcher
}

// Seconds is Dt as float seconds for integrators.
func (f *Frame) Seconds() float64 { return f.Dt.Seconds() }

type Stage interface {
	Phase() Phase
	Run(f *Frame)
}

type stageFunc struct {
	phase Phase
	fn    func(*Frame)
}

func (s stageFunc) Phase() Phase { return s.phase }
func (s stageFunc) Run(f *Frame) { s.fn(f) }

// StageFunc adapts fn to a Stage.
func StageFunc(p Phase, fn func(*Frame)) Stage {
	return stageFunc{phase: p, fn: fn}
}

// Pipeline runs stages in phase order, then registration order.
type Pipeline struct {
	stages []Stage
	sorted bool
}

func NewPipeline() *Pipeline {
	return &Pipeline{
		stages: make([]Stage, 0, 8),
	}
}

func (p *Pipeline) Register(s Stage) {
	p.stages = append(p.stages, s)
	p.sorted = false
}

func (p *Pipeline) Len() int { return len(p.stages) }

// RunStep runs every simulation phase for one fixed step.
func (p *Pipeline) RunStep(f *Frame) {
	p.ensureSorted()
	for _, s := range p.stages {
		if s.Phase() < PhaseDraw {
			s.Run(f)
		}
	}
}

// RunPhase runs only the stages of one phase.
func (p *Pipeline) RunPhase(phase Phase, f *Frame) {
	p.ensureSorted()
	for _, s := range p.stages {
		if s.Phase() == phase {
			s.Run(f)
		}
	}
}

func (p *Pipeline) ensureSorted() {
	if !p.sorted {
		sort.SliceStable(p.stages, func(i, j int) bool {
			return p.stages[i].Phase() < p.stages[j].Phase()
		})
		p.sorted = true
	}
}
