package renderer

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/Algor1tm/Athena-sub002/engine/core"
)

// Handle shares ownership of a resource. Whoever receives a handle from the
// factory owns one reference; Acquire adds one, Release drops one. When the
// last reference goes away the resource is retired, not destroyed: the
// retire list destroys it once every frame that could use it has completed
// on the GPU.
//
// Handles implement commands.Releaser, so a handle captured with
// commands.SubmitWith is released right after the command runs.
type Handle[T Resource] struct {
	id       uint32
	resource T
	refs     atomic.Int32
	retire   func(id uint32, r Resource)
}

func newHandle[T Resource](id uint32, resource T, retire func(id uint32, r Resource)) *Handle[T] {
	h := &Handle[T]{id: id, resource: resource, retire: retire}
	h.refs.Store(1)
	return h
}

// Get returns the resource. It must not be called after the last Release.
func (h *Handle[T]) Get() T {
	return h.resource
}

func (h *Handle[T]) ID() uint32 {
	return h.id
}

// Acquire adds a reference and returns the handle for chaining.
func (h *Handle[T]) Acquire() *Handle[T] {
	if h.refs.Add(1) <= 1 {
		panic(fmt.Sprintf("renderer: acquire on released handle %d", h.id))
	}
	return h
}

func (h *Handle[T]) Release() {
	switch n := h.refs.Add(-1); {
	case n == 0:
		h.retire(h.id, h.resource)
	case n < 0:
		panic(fmt.Sprintf("renderer: handle %d released too many times", h.id))
	}
}

func (h *Handle[T]) RefCount() int32 {
	return h.refs.Load()
}

// RetireList delays destruction by FramesInFlight frame boundaries. Retire
// may be called from any goroutine; AdvanceFrame and DrainAll belong to the
// frame thread.
type RetireList struct {
	mu      sync.Mutex
	buckets [][]Resource
	index   int
}

func NewRetireList(framesInFlight uint32) *RetireList {
	if framesInFlight == 0 {
		framesInFlight = 1
	}
	return &RetireList{
		buckets: make([][]Resource, framesInFlight),
		index:   int(framesInFlight) - 1,
	}
}

// Retire queues r for destruction.
func (rl *RetireList) Retire(r Resource) {
	rl.mu.Lock()
	rl.buckets[rl.index] = append(rl.buckets[rl.index], r)
	rl.mu.Unlock()
}

// AdvanceFrame is called at the start of every frame, after waiting for the
// fence of the frame slot being reused. It destroys what was retired during
// the last use of that slot and returns how many resources were destroyed.
func (rl *RetireList) AdvanceFrame() int {
	rl.mu.Lock()
	rl.index = (rl.index + 1) % len(rl.buckets)
	bucket := rl.buckets[rl.index]
	rl.buckets[rl.index] = nil
	rl.mu.Unlock()

	for _, r := range bucket {
		destroy(r)
	}
	return len(bucket)
}

// DrainAll destroys everything. The caller must have waited for the GPU.
func (rl *RetireList) DrainAll() int {
	count := 0
	for range rl.buckets {
		count += rl.AdvanceFrame()
	}
	return count
}

func (rl *RetireList) Pending() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	n := 0
	for _, b := range rl.buckets {
		n += len(b)
	}
	return n
}

func destroy(r Resource) {
	core.LogDebug("destroying retired resource '%s'", r.Name())
	r.Destroy()
}
