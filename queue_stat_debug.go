//go:build debug

package engine

import (
	"sync/atomic"
)

var (
	pushWaits atomic.Int64
	popWaits  atomic.Int64
	wakeAlls  atomic.Int64
)

type Stats struct {
	PushWaits int64
	PopWaits  int64
	WakeAlls  int64
}

func statPushWait() { pushWaits.Add(1) }
func statPopWait()  { popWaits.Add(1) }
func statWakeAll()  { wakeAlls.Add(1) }

func SnapshotStats() Stats {
	return Stats{
		PushWaits: pushWaits.Load(),
		PopWaits:  popWaits.Load(),
		WakeAlls:  wakeAlls.Load(),
	}
}

func PrintStat() {
	println(
		"push waits / pop waits / wake-alls :",
		pushWaits.Load(),
		popWaits.Load(),
		wakeAlls.Load(),
	)
}
