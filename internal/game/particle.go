package game

import "math"

// MaxParticles bounds the effect pool.
const MaxParticles = 512

// Craft burst tuning.
const (
	BurstCount    = 24
	BurstSpeedMin = 40.0
	BurstSpeedMax = 160.0
	BurstLifeMin  = 0.25 // seconds
	BurstLifeMax  = 0.6
	BurstSize     = 8.0
	ParticleDrag  = 0.08 // fraction of velocity kept per second
)

type Particle struct {
	X, Y         float64
	PrevX, PrevY float64
	VX, VY       float64
	Size         float64

	Life    float64 // negative = delayed start
	MaxLife float64

	Resource string
}

type ParticleSystem struct {
	Max    int
	P      []Particle
	rng    *Rand
	ovrIdx int // circular overwrite index when full
}

func NewParticleSystem(maxParticles int, seed uint64) *ParticleSystem {
	if maxParticles <= 0 {
		maxParticles = MaxParticles
	}
	return &ParticleSystem{
		Max: maxParticles,
		P:   make([]Particle, 0, maxParticles),
		rng: NewRand(seed),
	}
}

func (ps *ParticleSystem) Clear() {
	ps.P = ps.P[:0]
	ps.ovrIdx = 0
}

func (ps *ParticleSystem) Len() int { return len(ps.P) }

func (ps *ParticleSystem) Add(p Particle) {
	if len(ps.P) < ps.Max {
		ps.P = append(ps.P, p)
		return
	}
	// Circular overwrite.
	if ps.ovrIdx >= ps.Max {
		ps.ovrIdx = 0
	}
	ps.P[ps.ovrIdx] = p
	ps.ovrIdx++
}

// SpawnBurst scatters a ring of resource particles around (x, y). density
// in [0,1] scales the count. It returns the number spawned.
func (ps *ParticleSystem) SpawnBurst(x, y float64, resource string, density float64) int {
	n := int(math.Round(BurstCount * clampF(density, 0, 1)))
	for i := range n {
		ang := float64(i)/float64(n)*2*math.Pi + ps.rng.RangeF(-0.2, 0.2)
		spd := ps.rng.RangeF(BurstSpeedMin, BurstSpeedMax)
		ps.Add(Particle{
			X: x, Y: y, PrevX: x, PrevY: y,
			VX: math.Cos(ang) * spd, VY: math.Sin(ang) * spd,
			Size:     BurstSize * ps.rng.RangeF(0.6, 1.2),
			Life:     -ps.rng.RangeF(0, 0.05),
			MaxLife:  ps.rng.RangeF(BurstLifeMin, BurstLifeMax),
			Resource: resource,
		})
	}
	return n
}

// Update ages, moves and expires particles.
func (ps *ParticleSystem) Update(dt float64) {
	keep := math.Pow(ParticleDrag, dt)
	alive := ps.P[:0]
	for _, p := range ps.P {
		p.Life += dt
		if p.Life >= p.MaxLife {
			continue
		}
		p.PrevX, p.PrevY = p.X, p.Y
		if p.Life >= 0 {
			p.X += p.VX * dt
			p.Y += p.VY * dt
			p.VX *= keep
			p.VY *= keep
		}
		alive = append(alive, p)
	}
	ps.P = alive
	if ps.ovrIdx >= len(ps.P) {
		ps.ovrIdx = 0
	}
}

// Draw queues live particles, shrinking and fading with age.
func (ps *ParticleSystem) Draw(b *RenderBatcher) {
	for i := range ps.P {
		p := &ps.P[i]
		if p.Life < 0 {
			continue
		}
		t := p.Life / p.MaxLife
		b.QueueInterpolated(p.Resource, p.PrevX, p.PrevY, p.X, p.Y, p.Size*(1-0.5*t), 1-t)
	}
}
