// Package commands implements the deferred render command queue.
//
// Producers record nullary operations during the frame and the renderer
// executes all of them, in submission order, at a single flush point. The
// queue has a fixed byte budget sized for the worst case frame; exceeding it
// is a programming error and aborts the frame thread with a panic.
//
// Operations are stored as owned closures in a preallocated slice rather
// than packed into a raw byte arena. Appending never reallocates the slice,
// but the closures themselves are heap values: the queue trades the
// zero-allocation property of a byte arena for memory safety.
package commands

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/Algor1tm/Athena-sub002/engine/core"
)

var ErrCommandQueueOverflow = errors.New("command queue overflow")

// Releaser is implemented by captured state holding resources that must be
// let go once the command has run (texture handles, staging buffers...).
type Releaser interface {
	Release()
}

// noCopy lets `go vet -copylocks` flag copies of the queue.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// entry pairs a trampoline, which runs the operation and then destroys its
// captured state, with the number of bytes accounted for it.
type entry struct {
	trampoline func()
	size       uint32
}

var (
	entrySize     = uint32(unsafe.Sizeof(entry{}))
	funcValueSize = uint32(unsafe.Sizeof(func() {}))
)

// CommandQueue is move-only: always pass it by pointer. It is not safe for
// concurrent use; workers recording commands must synchronize externally
// before the owner flushes.
type CommandQueue struct {
	noCopy   noCopy
	entries  []entry
	capacity uint32
	used     uint32
}

// New creates a queue able to hold capacity bytes worth of commands.
func New(capacity uint32) *CommandQueue {
	return &CommandQueue{
		entries:  make([]entry, 0, capacity/entrySize+1),
		capacity: capacity,
	}
}

// Submit records op for execution at the next Flush.
func (q *CommandQueue) Submit(op func()) {
	if op == nil {
		return
	}
	q.push(op, funcValueSize)
}

// SubmitWith records op together with an explicit copy of its state. After
// op runs, the state is released (when it implements Releaser) and cleared,
// so the queue never keeps resources alive past the flush.
func SubmitWith[T any](q *CommandQueue, state T, op func(state *T)) {
	if op == nil {
		return
	}
	box := &state
	q.push(func() {
		op(box)
		destroyState(box)
	}, uint32(unsafe.Sizeof(state)))
}

func destroyState[T any](box *T) {
	if r, ok := any(box).(Releaser); ok {
		r.Release()
	} else if r, ok := any(*box).(Releaser); ok {
		r.Release()
	}
	var zero T
	*box = zero
}

func (q *CommandQueue) push(trampoline func(), stateSize uint32) {
	size := entrySize + stateSize
	if q.capacity-q.used < size {
		err := fmt.Errorf("%w: %d bytes requested, %d of %d bytes in use", ErrCommandQueueOverflow, size, q.used, q.capacity)
		core.LogError(err.Error())
		panic(err)
	}
	q.entries = append(q.entries, entry{trampoline: trampoline, size: size})
	q.used += size
}

// Flush executes every recorded command in FIFO order and rewinds the queue
// so the same budget is reused by the next frame. Commands submitted while
// flushing run as part of the same flush.
func (q *CommandQueue) Flush() {
	for i := 0; i < len(q.entries); i++ {
		e := q.entries[i]
		q.entries[i] = entry{}
		e.trampoline()
	}
	q.entries = q.entries[:0]
	q.used = 0
}

// Capacity is the byte budget given at creation.
func (q *CommandQueue) Capacity() uint32 {
	return q.capacity
}

// Used is the number of budget bytes taken by pending commands.
func (q *CommandQueue) Used() uint32 {
	return q.used
}

// Len is the number of pending commands.
func (q *CommandQueue) Len() int {
	return len(q.entries)
}
