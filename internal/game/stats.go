package game

import "fmt"

// FrameStats is a read-only snapshot for HUDs and logs.
type FrameStats struct {
	FPS          float64
	TargetFPS    int
	Mode         PacerMode
	Tier         Tier
	UpdateCount  int
	Alpha        float64
	Rendered     bool
	DrawCalls    int
	Instances    int
	Culled       int
	DirtyRects   int
	CacheHitRate float64
	Entities     int
}

func (s FrameStats) String() string {
	return fmt.Sprintf("%5.1f/%d fps %s %s  draws %d  inst %d  culled %d  dirty %d  cache %3.0f%%",
		s.FPS, s.TargetFPS, s.Tier, s.Mode, s.DrawCalls, s.Instances, s.Culled, s.DirtyRects, s.CacheHitRate*100)
}
