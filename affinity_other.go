//go:build !linux

package engine

// AffinitySupported reports whether PinToCPU can work on this platform.
func AffinitySupported() bool { return false }

// PinToCPU is unavailable off Linux.
func PinToCPU(int) error { return ErrAffinityUnsupported }
