//go:build linux

package engine

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// AffinitySupported reports whether PinToCPU can work on this platform.
func AffinitySupported() bool { return true }

// PinToCPU locks the calling goroutine to its OS thread and restricts
// that thread to cpu. The goroutine stays locked; when it exits the
// runtime discards the pinned thread instead of reusing it.
func PinToCPU(cpu int) error {
	runtime.LockOSThread()
	var mask unix.CPUSet
	mask.Zero()
	mask.Set(cpu)
	return unix.SchedSetaffinity(0, &mask)
}
