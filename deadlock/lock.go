package deadlock

// chanLock is a mutex built on a one-slot channel. Unlike sync.Mutex an
// acquisition can be abandoned when a stop channel closes, which lets a
// deadlocked worker exit once shutdown is requested.
type chanLock chan struct{}

func newChanLock() chanLock { return make(chanLock, 1) }

// lock blocks until the lock is held or stop closes. It reports whether
// the lock was acquired.
func (l chanLock) lock(stop <-chan struct{}) bool {
	select {
	case <-stop:
		return false
	default:
	}
	select {
	case l <- struct{}{}:
		return true
	case <-stop:
		return false
	}
}

func (l chanLock) tryLock() bool {
	select {
	case l <- struct{}{}:
		return true
	default:
		return false
	}
}

func (l chanLock) unlock() {
	select {
	case <-l:
	default:
		panic("deadlock: unlock of unlocked lock")
	}
}
