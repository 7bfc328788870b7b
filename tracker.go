// Copyright 2026 Bob Vawter (bob@vawter.org)
// SPDX-License-Identifier: Apache-2.0

package quiesce

import (
	"errors"
	"maps"
	"runtime"
	"slices"
	"sync"
)

// ErrTerminated is returned by [Tracker] methods once the owning
// component instance has shut down.
var ErrTerminated = errors.New("instance terminated")

// A WorkerID identifies one in-flight background operation registered
// with a [Tracker]. IDs are assigned monotonically, so ascending ID
// order is registration order.
type WorkerID uint64

// An Instance is the waiter's read-only view of a running component.
// [Tracker] is the canonical implementation; components typically embed
// one and expose it to their test harness.
type Instance interface {
	// Workers returns a single atomic snapshot of the in-flight
	// worker set, or ErrTerminated once the instance is gone.
	Workers() ([]WorkerID, error)

	// Watch registers a one-shot completion watch. The returned
	// channel delivers exactly one signal carrying the worker's ID
	// when that worker terminates, normally or otherwise. Watching an
	// unknown or already-terminated worker yields a channel that is
	// already signaled.
	Watch(id WorkerID) <-chan WorkerID
}

// This value is sensitive to the code structure.
const callersOffset = 3

// Frames recorded per worker launch site.
const launchStackDepth = 8

// A Tracker is the authoritative registry of a component instance's
// in-flight background workers. The zero value is not usable; call
// [NewTracker].
//
// All methods on a Tracker are safe for concurrent use.
type Tracker struct {
	mu struct {
		sync.Mutex
		nextID     WorkerID
		terminated bool
		workers    map[WorkerID]*worker
	}
}

var _ Instance = (*Tracker)(nil)

type worker struct {
	stack   []uintptr
	watches []chan WorkerID // Each has capacity 1 and receives one send.
}

// NewTracker constructs an empty Tracker.
func NewTracker() *Tracker {
	t := &Tracker{}
	t.mu.workers = make(map[WorkerID]*worker)
	return t
}

// Begin registers a new worker and returns its Registration. The
// caller must invoke [Registration.Done] when the work has finished.
// The call site is sampled so that [CheckDrained] can report where a
// lingering worker was started.
func (t *Tracker) Begin() (*Registration, error) {
	return t.begin()
}

// Callers returns a snapshot of the launch-site stacks of all workers
// that are currently in flight, in registration order.
func (t *Tracker) Callers() [][]uintptr {
	t.mu.Lock()
	defer t.mu.Unlock()

	var ret [][]uintptr
	for _, id := range slices.Sorted(maps.Keys(t.mu.workers)) {
		ret = append(ret, t.mu.workers[id].stack)
	}
	return ret
}

// Go spawns a new goroutine to execute fn as a tracked worker. The
// termination signal is delivered from a defer, so the worker still
// signals if fn panics. If the instance has already terminated,
// [ErrTerminated] is returned and fn is not run.
func (t *Tracker) Go(fn func()) error {
	reg, err := t.begin()
	if err != nil {
		return err
	}
	go func() {
		defer reg.Done()
		fn()
	}()
	return nil
}

// Len returns the number of workers currently in flight.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.mu.workers)
}

// Terminate marks the instance as shut down. Every outstanding watch
// receives its termination signal and the worker set is emptied; there
// is nothing left to race against once the instance itself is gone.
// Terminate is idempotent.
func (t *Tracker) Terminate() {
	t.mu.Lock()
	if t.mu.terminated {
		t.mu.Unlock()
		return
	}
	t.mu.terminated = true
	workers := t.mu.workers
	t.mu.workers = make(map[WorkerID]*worker)
	t.mu.Unlock()

	for id, w := range workers {
		for _, ch := range w.watches {
			ch <- id
		}
	}
}

// Workers implements [Instance].
func (t *Tracker) Workers() ([]WorkerID, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.mu.terminated {
		return nil, ErrTerminated
	}
	return slices.Sorted(maps.Keys(t.mu.workers)), nil
}

// Watch implements [Instance].
func (t *Tracker) Watch(id WorkerID) <-chan WorkerID {
	ch := make(chan WorkerID, 1)

	t.mu.Lock()
	if w, ok := t.mu.workers[id]; ok {
		w.watches = append(w.watches, ch)
		t.mu.Unlock()
		return ch
	}
	t.mu.Unlock()

	// Unknown or already-terminated workers signal immediately.
	ch <- id
	return ch
}

func (t *Tracker) begin() (*Registration, error) {
	stack := make([]uintptr, launchStackDepth)
	stack = stack[:runtime.Callers(callersOffset, stack)]

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.mu.terminated {
		return nil, ErrTerminated
	}
	t.mu.nextID++
	id := t.mu.nextID
	t.mu.workers[id] = &worker{stack: stack}
	return &Registration{id: id, tracker: t}, nil
}

// finish delivers the termination signal for a worker. Signals are
// sent outside the mutex; each watch channel has capacity for its
// single send, so this never blocks.
func (t *Tracker) finish(id WorkerID) {
	t.mu.Lock()
	w, ok := t.mu.workers[id]
	delete(t.mu.workers, id)
	t.mu.Unlock()
	if !ok {
		// Already finished, or the instance terminated first.
		return
	}
	for _, ch := range w.watches {
		ch <- id
	}
}

// A Registration represents one in-flight worker created by
// [Tracker.Begin].
type Registration struct {
	id      WorkerID
	once    sync.Once
	tracker *Tracker
}

// ID returns the worker's identifier.
func (r *Registration) ID() WorkerID { return r.id }

// Done delivers the worker's termination signal. It is idempotent and
// safe to call after [Tracker.Terminate].
func (r *Registration) Done() {
	r.once.Do(func() { r.tracker.finish(r.id) })
}
