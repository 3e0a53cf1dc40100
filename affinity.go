package engine

import (
	"errors"
	"sync/atomic"
)

// ErrAffinityUnsupported is returned by PinToCPU where pinning is unavailable.
var ErrAffinityUnsupported = errors.New("affinity: cpu pinning not supported on this platform")

// affinityEnabled is set once at startup and only read afterwards.
var affinityEnabled atomic.Bool

// SetAffinityEnabled turns consumer pinning on or off for the process.
// Call it before starting any engine.
func SetAffinityEnabled(on bool) { affinityEnabled.Store(on) }

// AffinityEnabled reports whether consumers should pin themselves. It is
// false where pinning is unsupported, whatever was requested.
func AffinityEnabled() bool {
	return affinityEnabled.Load() && AffinitySupported()
}
