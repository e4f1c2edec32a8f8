package game

import (
	"context"
	"errors"
	"runtime"
)

var ErrProbeUnavailable = errors.New("probe unavailable")

// Probes gathers the hardware signals used for tier detection. Any field
// may be nil, and any probe may fail or panic; the profiler treats both as
// a missing signal.
type Probes struct {
	Cores    func() (int, error)
	MemoryGB func() (float64, error)
	Renderer func() (string, error)
	Platform func() (string, error)
	Bench    func(ctx context.Context) (float64, error)
}

// DefaultProbes uses the runtime, the OS and a software benchmark. The
// renderer probe is left unavailable; hosts with a GPU context set it.
func DefaultProbes(frames int) Probes {
	return Probes{
		Cores:    probeCores,
		MemoryGB: probeMemoryGB,
		Renderer: func() (string, error) { return "", ErrProbeUnavailable },
		Platform: probePlatform,
		Bench: func(ctx context.Context) (float64, error) {
			return NewBenchmark(frames).Run(ctx)
		},
	}
}

func probeCores() (int, error) {
	n := runtime.NumCPU()
	if n <= 0 {
		return 0, ErrProbeUnavailable
	}
	return n, nil
}

func probePlatform() (string, error) {
	return runtime.GOOS + "/" + runtime.GOARCH, nil
}
