// Copyright 2026 Bob Vawter (bob@vawter.org)
// SPDX-License-Identifier: Apache-2.0

package quiesce

import (
	"context"
	"time"
)

// Await blocks until every worker in the instance's current snapshot
// has terminated, or until the deadline expires while waiting on any
// one of them.
//
// The snapshot is taken once, at call time: workers spawned afterward
// are not waited on. Watches are awaited in registration order, each
// with a fresh deadline, so the worst-case total wait is N times the
// deadline rather than a single global budget. Signals are matched to
// watches by worker identifier, so out-of-order completion is fine.
//
// Await never reports failure. A deadline expiry abandons the
// remaining watches and returns: work still pending past the grace
// window is either effectively done or not worth failing the test
// over. An instance that has already terminated is an immediate no-op,
// since there is nothing left to race against.
func Await(in Instance, opts ...Option) {
	AwaitCtx(context.Background(), in, opts...)
}

// AwaitCtx is an interruptable version of [Await]. Cancellation of the
// context is treated like a deadline expiry: the remaining watches are
// abandoned and AwaitCtx returns silently.
func AwaitCtx(ctx context.Context, in Instance, opts ...Option) {
	cfg := newConfig(opts)

	ids, err := in.Workers()
	if err != nil {
		// The instance is already gone.
		return
	}

	// Register all watches before blocking on any of them, so a
	// later-registered worker's signal is buffered even while an
	// earlier watch is still being awaited.
	watches := make([]<-chan WorkerID, len(ids))
	for i, id := range ids {
		watches[i] = in.Watch(id)
	}

	for _, w := range watches {
		if !awaitOne(ctx, w, cfg.deadline) {
			return
		}
	}
}

// AwaitCompletion is the original name for [Await].
//
// Deprecated: use [Await].
func AwaitCompletion(in Instance, opts ...Option) {
	Await(in, opts...)
}

// awaitOne blocks on a single watch. It returns false if the deadline
// expired or the context was canceled, in which case the caller should
// abandon any remaining watches. Abandoned watches need no explicit
// unregistration; their buffered channels are simply collected.
func awaitOne(ctx context.Context, w <-chan WorkerID, deadline time.Duration) bool {
	timer := time.NewTimer(deadline)
	defer timer.Stop()

	select {
	case <-w:
		return true
	case <-timer.C:
		return false
	case <-ctx.Done():
		return false
	}
}
