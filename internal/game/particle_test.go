package game

import "testing"

func TestParticleBurstDensity(t *testing.T) {
	tests := []struct {
		density float64
		want    int
	}{
		{1, BurstCount},
		{0.5, BurstCount / 2},
		{0, 0},
		{-1, 0},
		{3, BurstCount},
	}
	for _, tt := range tests {
		ps := NewParticleSystem(0, 1)
		if got := ps.SpawnBurst(0, 0, "fire", tt.density); got != tt.want || ps.Len() != tt.want {
			t.Errorf("SpawnBurst(density %v) = %d, len %d, want %d", tt.density, got, ps.Len(), tt.want)
		}
	}
}

func TestParticleOverwrite(t *testing.T) {
	ps := NewParticleSystem(3, 1)
	for i := range 5 {
		ps.Add(Particle{X: float64(i), MaxLife: 1})
	}
	if ps.Len() != 3 {
		t.Fatalf("Len() = %d", ps.Len())
	}
	if ps.P[0].X != 3 || ps.P[1].X != 4 || ps.P[2].X != 2 {
		t.Errorf("overwrite order = %v %v %v", ps.P[0].X, ps.P[1].X, ps.P[2].X)
	}
}

func TestParticleUpdate(t *testing.T) {
	ps := NewParticleSystem(8, 1)
	ps.Add(Particle{VX: 100, MaxLife: 0.5})
	ps.Add(Particle{VX: 100, Life: -0.2, MaxLife: 0.5})
	ps.Add(Particle{MaxLife: 0.05})

	ps.Update(0.1)
	if ps.Len() != 2 {
		t.Fatalf("Len() = %d after expiry", ps.Len())
	}
	if ps.P[0].X <= 0 || ps.P[0].PrevX != 0 {
		t.Errorf("live particle X %v PrevX %v", ps.P[0].X, ps.P[0].PrevX)
	}
	if ps.P[0].VX >= 100 {
		t.Error("drag not applied")
	}
	if ps.P[1].X != 0 {
		t.Error("delayed particle moved")
	}

	ps.Update(1)
	if ps.Len() != 0 {
		t.Errorf("Len() = %d, want all expired", ps.Len())
	}
	ps.Clear()
}

func TestParticleDraw(t *testing.T) {
	surf := newRecordSurface(100, 100)
	b := NewRenderBatcher(surf, BatcherConfig{}, nil, nil)
	ps := NewParticleSystem(8, 1)
	ps.Add(Particle{X: 50, Y: 50, PrevX: 50, PrevY: 50, Size: 8, MaxLife: 1})
	ps.Add(Particle{X: 50, Y: 50, Size: 8, Life: -0.1, MaxLife: 1})

	b.BeginFrame(Viewport{X: 50, Y: 50, Zoom: 1, Width: 100, Height: 100}, 1)
	ps.Draw(b)
	if st := b.Flush(); st.Instances != 1 {
		t.Errorf("Instances = %d, want only the started particle", st.Instances)
	}
}
