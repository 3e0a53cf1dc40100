//go:build !debug

package engine

// Wait counters compile away unless built with -tags debug.

func statPushWait() {}
func statPopWait()  {}
func statWakeAll()  {}
