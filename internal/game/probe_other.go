//go:build !linux

package game

func probeMemoryGB() (float64, error) {
	return 0, ErrProbeUnavailable
}
