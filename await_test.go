// Copyright 2026 Bob Vawter (bob@vawter.org)
// SPDX-License-Identifier: Apache-2.0

package quiesce

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAwaitEmpty(t *testing.T) {
	a := assert.New(t)

	tr := NewTracker()
	start := time.Now()
	Await(tr, WithDeadline(10*time.Second))

	// No workers means no blocking, regardless of the deadline.
	a.Less(time.Since(start), 10*time.Second)
}

func TestAwaitAllComplete(t *testing.T) {
	r := require.New(t)

	const numWorkers = 5
	tr := NewTracker()
	release := make(chan struct{})
	var finished atomic.Int32

	for range numWorkers {
		reg, err := tr.Begin()
		r.NoError(err)
		go func() {
			<-release
			finished.Add(1)
			reg.Done()
		}()
	}

	close(release)
	Await(tr, WithDeadline(10*time.Second))

	// Await may only return once every termination signal from the
	// snapshot has been observed.
	r.Equal(int32(numWorkers), finished.Load())
	r.Zero(tr.Len())
}

func TestAwaitOutOfOrder(t *testing.T) {
	r := require.New(t)

	tr := NewTracker()
	first, err := tr.Begin()
	r.NoError(err)
	second, err := tr.Begin()
	r.NoError(err)

	// The later-registered worker finishes first. Its signal is
	// buffered by the watch while Await blocks on the earlier one.
	go func() {
		second.Done()
		first.Done()
	}()

	Await(tr, WithDeadline(10*time.Second))
	r.Zero(tr.Len())
}

func TestAwaitDeadline(t *testing.T) {
	a := assert.New(t)

	const deadline = 20 * time.Millisecond
	tr := NewTracker()
	stuck, err := tr.Begin()
	a.NoError(err)

	start := time.Now()
	Await(tr, WithDeadline(deadline))

	// The stuck worker was given at least the deadline, and the call
	// returned without reporting anything.
	a.GreaterOrEqual(time.Since(start), deadline)
	a.Equal(1, tr.Len())

	stuck.Done()
}

func TestAwaitAbandonsRemaining(t *testing.T) {
	a := assert.New(t)

	const deadline = 50 * time.Millisecond
	tr := NewTracker()
	first, err := tr.Begin()
	a.NoError(err)
	second, err := tr.Begin()
	a.NoError(err)

	// Once the first watch times out, the second is abandoned rather
	// than being given its own deadline.
	start := time.Now()
	Await(tr, WithDeadline(deadline))
	a.Less(time.Since(start), 2*deadline)

	first.Done()
	second.Done()
}

func TestAwaitTerminated(t *testing.T) {
	a := assert.New(t)

	tr := NewTracker()
	_, err := tr.Begin()
	a.NoError(err)
	tr.Terminate()

	// A dead instance is an immediate no-op.
	start := time.Now()
	Await(tr, WithDeadline(10*time.Second))
	a.Less(time.Since(start), 10*time.Second)
}

func TestAwaitWokenByTerminate(t *testing.T) {
	a := assert.New(t)

	tr := NewTracker()
	_, err := tr.Begin()
	a.NoError(err)

	go func() {
		time.Sleep(10 * time.Millisecond)
		tr.Terminate()
	}()

	// Terminating the instance releases a blocked Await.
	start := time.Now()
	Await(tr, WithDeadline(10*time.Second))
	a.Less(time.Since(start), 10*time.Second)
}

func TestAwaitCtxCanceled(t *testing.T) {
	a := assert.New(t)

	tr := NewTracker()
	stuck, err := tr.Begin()
	a.NoError(err)

	ctx, cancel := context.WithCancel(t.Context())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	AwaitCtx(ctx, tr, WithDeadline(10*time.Second))
	a.Less(time.Since(start), 10*time.Second)

	stuck.Done()
}

func TestAwaitDefaultDeadline(t *testing.T) {
	a := assert.New(t)

	tr := NewTracker()
	stuck, err := tr.Begin()
	a.NoError(err)

	start := time.Now()
	Await(tr)
	a.GreaterOrEqual(time.Since(start), DefaultDeadline)

	stuck.Done()
}

func TestAwaitCompletionAlias(t *testing.T) {
	r := require.New(t)

	tr := NewTracker()
	reg, err := tr.Begin()
	r.NoError(err)
	go reg.Done()

	AwaitCompletion(tr, WithDeadline(10*time.Second))
	r.Zero(tr.Len())
}
