package game

import (
	"math"
	"slices"
)

// Arena tuning, world units and seconds.
const (
	OrbMinRadius   = 10.0
	OrbMaxRadius   = 22.0
	OrbMaxSpeed    = 60.0
	OrbDamping     = 0.6 // fraction of velocity kept per second
	OrbPush        = 140.0
	HeadRadius     = 18.0
	HeadSpeed      = 220.0
	HeadTurnRate   = 4.0 // radians per second
	SeekRadius     = 600.0
	BodySpacing    = 14.0
	BodyMinLen     = 6
	BodyMaxLen     = 96
	StarterElement = "fire"
)

var starterElements = []string{"fire", "water", "earth", "air"}

// recipes combine the held element with a collected one.
var recipes = map[[2]string]string{
	{"fire", "water"}:  "steam",
	{"earth", "fire"}:  "lava",
	{"earth", "water"}: "mud",
	{"air", "earth"}:   "dust",
	{"air", "fire"}:    "energy",
	{"air", "water"}:   "rain",
	{"lava", "water"}:  "stone",
	{"fire", "mud"}:    "brick",
}

// Craft returns the element made from a and b, or "" if none.
func Craft(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return recipes[[2]string{a, b}]
}

// Orb is a drifting element pickup.
type Orb struct {
	ID           int
	Element      string
	X, Y         float64
	PrevX, PrevY float64
	VX, VY       float64
	R            float64
	Alive        bool
}

func (o *Orb) Position() (float64, float64) { return o.X, o.Y }
func (o *Orb) Radius() float64              { return o.R }

type point struct{ x, y float64 }

// Head is the player's snake head with a trailing body.
type Head struct {
	X, Y         float64
	PrevX, PrevY float64
	Heading      float64
	R            float64
	Holding      string

	steer    float64
	steering bool
	body     []point
	trail    float64
}

// Arena is the demo simulation shared by the desktop and terminal hosts.
type Arena struct {
	world Rect
	rng   *Rand
	orbs  []*Orb
	next  int

	Head      Head
	Collected map[string]int
	Crafted   []string
	Auto      bool // seek the nearest orb when the player is not steering

	tree    *QuadTree[*Orb]
	grid    *Grid[*Orb]
	buf     []*Orb
	fx      *ParticleSystem
	density func() float64
}

func NewArena(world Rect, orbs int, seed uint64) *Arena {
	a := &Arena{
		world:     world,
		rng:       NewRand(seed),
		Collected: make(map[string]int),
		Auto:      true,
		fx:        NewParticleSystem(MaxParticles, seed^0x5EED),
		density:   func() float64 { return 1 },
	}
	cx, cy := world.X+world.W*0.5, world.Y+world.H*0.5
	a.Head = Head{X: cx, Y: cy, PrevX: cx, PrevY: cy, R: HeadRadius, Holding: StarterElement}
	a.Populate(orbs)
	return a
}

// Populate grows or shrinks the live orb count to n. Newest orbs go first.
func (a *Arena) Populate(n int) {
	live := len(a.AppendEntities(a.buf[:0]))
	for ; live < n; live++ {
		a.spawnRandom()
	}
	for i := len(a.orbs) - 1; i >= 0 && live > n; i-- {
		if a.orbs[i].Alive {
			a.orbs[i].Alive = false
			live--
		}
	}
	a.orbs = slices.DeleteFunc(a.orbs, func(o *Orb) bool { return !o.Alive })
}

func (a *Arena) spawnRandom() *Orb {
	el := starterElements[a.rng.Intn(len(starterElements))]
	return a.spawn(el, a.rng.RangeF(a.world.X, a.world.MaxX()), a.rng.RangeF(a.world.Y, a.world.MaxY()))
}

func (a *Arena) spawn(element string, x, y float64) *Orb {
	a.next++
	o := &Orb{
		ID:      a.next,
		Element: element,
		X:       x,
		Y:       y,
		PrevX:   x,
		PrevY:   y,
		VX:      a.rng.RangeF(-OrbMaxSpeed, OrbMaxSpeed),
		VY:      a.rng.RangeF(-OrbMaxSpeed, OrbMaxSpeed),
		R:       a.rng.RangeF(OrbMinRadius, OrbMaxRadius),
		Alive:   true,
	}
	a.orbs = append(a.orbs, o)
	return o
}

func (a *Arena) World() Rect { return a.world }

// Orbs returns every live orb.
func (a *Arena) Orbs() []*Orb { return a.AppendEntities(nil) }

func (a *Arena) AppendEntities(dst []*Orb) []*Orb {
	for _, o := range a.orbs {
		if o.Alive {
			dst = append(dst, o)
		}
	}
	return dst
}

// Steer sets the heading the head turns towards.
func (a *Arena) Steer(angle float64) {
	a.Head.steer = angle
	a.Head.steering = true
}

// SteerTowards steers at a world point; a point on the head releases steering.
func (a *Arena) SteerTowards(x, y float64) {
	dx, dy := x-a.Head.X, y-a.Head.Y
	if dx*dx+dy*dy < a.Head.R*a.Head.R {
		a.Head.steering = false
		return
	}
	a.Steer(math.Atan2(dy, dx))
}

func (a *Arena) ReleaseSteer() { a.Head.steering = false }

// Attach registers the arena stages and keeps references to the indices.
func (a *Arena) Attach(e *Engine[*Orb]) {
	a.tree = e.Tree()
	a.grid = e.Grid()
	a.density = func() float64 { return e.Quality().EffectDensity }
	e.Register(StageFunc(PhaseQuery, a.query))
	e.Register(StageFunc(PhaseResolve, a.resolve))
	e.Register(StageFunc(PhaseDraw, a.draw))
}

// query collects orbs under the head, picks an auto-steer target and
// pushes overlapping orbs apart.
func (a *Arena) query(f *Frame) {
	h := &a.Head
	a.buf = a.tree.AppendQueryRadius(a.buf[:0], h.X, h.Y, h.R+OrbMaxRadius)
	for _, o := range a.buf {
		dx, dy := o.X-h.X, o.Y-h.Y
		reach := h.R + o.R
		if o.Alive && dx*dx+dy*dy <= reach*reach {
			a.collect(o)
		}
	}

	if a.Auto && !h.steering {
		a.buf = a.tree.AppendQueryRadius(a.buf[:0], h.X, h.Y, SeekRadius)
		best, bestD := (*Orb)(nil), math.Inf(1)
		for _, o := range a.buf {
			if !o.Alive {
				continue
			}
			if d := math.Hypot(o.X-h.X, o.Y-h.Y); d < bestD {
				best, bestD = o, d
			}
		}
		if best != nil {
			h.steer = math.Atan2(best.Y-h.Y, best.X-h.X)
		}
	}

	dt := f.Seconds()
	for _, o := range a.orbs {
		if !o.Alive {
			continue
		}
		a.buf = a.grid.AppendNearby(a.buf[:0], o.X, o.Y, o.R)
		for _, n := range a.buf {
			if n == o || !n.Alive {
				continue
			}
			dx, dy := o.X-n.X, o.Y-n.Y
			d2 := dx*dx + dy*dy
			reach := o.R + n.R
			if d2 >= reach*reach {
				continue
			}
			d := math.Sqrt(d2)
			if d == 0 {
				dx, dy, d = 1, 0, 1
			}
			k := OrbPush * (1 - d/reach) * dt
			o.VX += dx / d * k
			o.VY += dy / d * k
		}
	}
}

func (a *Arena) collect(o *Orb) {
	h := &a.Head
	o.Alive = false
	a.Collected[o.Element]++
	if made := Craft(h.Holding, o.Element); made != "" {
		a.Crafted = append(a.Crafted, made)
		h.Holding = made
		a.fx.SpawnBurst(h.X, h.Y, made, a.density())
		// The crafted element drops behind the head for others to find.
		n := a.spawn(made, h.X-math.Cos(h.Heading)*SeekRadius*0.25, h.Y-math.Sin(h.Heading)*SeekRadius*0.25)
		n.X = clampF(n.X, a.world.X, a.world.MaxX()-1)
		n.Y = clampF(n.Y, a.world.Y, a.world.MaxY()-1)
		n.PrevX, n.PrevY = n.X, n.Y
	} else {
		h.Holding = o.Element
	}
	// Keep the population steady.
	a.spawnRandom()
}

// Score is the number of orbs collected.
func (a *Arena) Score() int {
	n := 0
	for _, c := range a.Collected {
		n += c
	}
	return n
}

func (a *Arena) bodyLen() int {
	return clamp(BodyMinLen+a.Score()/2, BodyMinLen, BodyMaxLen)
}

func (a *Arena) resolve(f *Frame) {
	dt := f.Seconds()
	h := &a.Head

	h.Heading = turnTowards(h.Heading, h.steer, HeadTurnRate*dt)
	h.PrevX, h.PrevY = h.X, h.Y
	h.X += math.Cos(h.Heading) * HeadSpeed * dt
	h.Y += math.Sin(h.Heading) * HeadSpeed * dt
	if h.X < a.world.X || h.X >= a.world.MaxX() {
		h.Heading = math.Pi - h.Heading
		h.X = clampF(h.X, a.world.X, a.world.MaxX()-1)
	}
	if h.Y < a.world.Y || h.Y >= a.world.MaxY() {
		h.Heading = -h.Heading
		h.Y = clampF(h.Y, a.world.Y, a.world.MaxY()-1)
	}
	if !h.steering {
		h.steer = h.Heading
	}

	h.trail += math.Hypot(h.X-h.PrevX, h.Y-h.PrevY)
	for h.trail >= BodySpacing {
		h.trail -= BodySpacing
		h.body = append(h.body, point{h.X, h.Y})
	}
	if n := a.bodyLen(); len(h.body) > n {
		h.body = slices.Delete(h.body, 0, len(h.body)-n)
	}

	keep := math.Pow(OrbDamping, dt)
	for _, o := range a.orbs {
		if !o.Alive {
			continue
		}
		o.PrevX, o.PrevY = o.X, o.Y
		o.VX = clampF(o.VX*keep, -OrbMaxSpeed*2, OrbMaxSpeed*2)
		o.VY = clampF(o.VY*keep, -OrbMaxSpeed*2, OrbMaxSpeed*2)
		// Keep a slow drift alive.
		if math.Abs(o.VX)+math.Abs(o.VY) < OrbMaxSpeed*0.1 {
			o.VX += a.rng.RangeF(-OrbMaxSpeed, OrbMaxSpeed) * dt
			o.VY += a.rng.RangeF(-OrbMaxSpeed, OrbMaxSpeed) * dt
		}
		o.X += o.VX * dt
		o.Y += o.VY * dt
		if o.X < a.world.X || o.X >= a.world.MaxX() {
			o.VX = -o.VX
			o.X = clampF(o.X, a.world.X, a.world.MaxX()-1)
		}
		if o.Y < a.world.Y || o.Y >= a.world.MaxY() {
			o.VY = -o.VY
			o.Y = clampF(o.Y, a.world.Y, a.world.MaxY()-1)
		}
	}

	a.orbs = slices.DeleteFunc(a.orbs, func(o *Orb) bool { return !o.Alive })
	a.fx.Update(dt)
}

// Effects is the craft burst particle pool.
func (a *Arena) Effects() *ParticleSystem { return a.fx }

func (a *Arena) draw(f *Frame) {
	b := f.Batcher
	for _, o := range a.orbs {
		if o.Alive {
			b.QueueInterpolated(o.Element, o.PrevX, o.PrevY, o.X, o.Y, o.R*2, 1)
		}
	}
	a.fx.Draw(b)
	h := &a.Head
	n := len(h.body)
	for i, p := range h.body {
		alpha := 0.3 + 0.7*float64(i+1)/float64(n)
		b.Queue(h.Holding, p.x, p.y, h.R*1.4, alpha)
	}
	b.QueueInterpolated("snake", h.PrevX, h.PrevY, h.X, h.Y, h.R*2, 1)
}

// turnTowards rotates cur towards target by at most step radians.
func turnTowards(cur, target, step float64) float64 {
	d := math.Remainder(target-cur, 2*math.Pi)
	return cur + clampF(d, -step, step)
}
