package vulkan

import "sync"

// LockGroup names a set of Vulkan objects that need external
// synchronization when touched from several goroutines.
type LockGroup string

const (
	// Every vkQueueSubmit, vkQueuePresent and vkQueueWaitIdle, whatever the queue.
	QueueManagement LockGroup = "queue_management"
	// The command pool used for one-off transfers from loader goroutines.
	TransferManagement LockGroup = "transfer_management"
)

type LockPool struct {
	mu    sync.Mutex // protects locks
	locks map[LockGroup]*sync.Mutex
}

func NewLockPool() *LockPool {
	return &LockPool{
		locks: make(map[LockGroup]*sync.Mutex),
	}
}

func (lp *LockPool) get(group LockGroup) *sync.Mutex {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	l, ok := lp.locks[group]
	if !ok {
		l = &sync.Mutex{}
		lp.locks[group] = l
	}
	return l
}

// SafeCall runs fn while holding the lock of group.
func (lp *LockPool) SafeCall(group LockGroup, fn func() error) error {
	l := lp.get(group)
	l.Lock()
	defer l.Unlock()

	return fn()
}
