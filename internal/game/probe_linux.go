//go:build linux

package game

import (
	"fmt"

	"golang.org/x/sys/unix"
)

func probeMemoryGB() (float64, error) {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return 0, fmt.Errorf("sysinfo: %w", err)
	}
	total := float64(info.Totalram) * float64(info.Unit)
	if total <= 0 {
		return 0, ErrProbeUnavailable
	}
	return total / (1 << 30), nil
}
