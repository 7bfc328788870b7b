// Copyright 2026 Bob Vawter (bob@vawter.org)
// SPDX-License-Identifier: Apache-2.0

package quiesce

import (
	"context"

	"golang.org/x/time/rate"
)

// AwaitQuiet blocks until the instance has no in-flight workers at
// all, or until a single global deadline expires. Unlike [Await], it
// re-samples the worker set, so follow-up work spawned while waiting
// is covered too.
//
// Snapshots are paced by [WithPollInterval]. Like [Await], AwaitQuiet
// never reports failure: deadline expiry and a terminated instance
// both return silently.
func AwaitQuiet(in Instance, opts ...Option) {
	cfg := newConfig(opts)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.deadline)
	defer cancel()

	// The limiter starts with a full burst, so the first snapshot is
	// taken immediately and an already-quiet instance does not block.
	lim := rate.NewLimiter(rate.Every(cfg.interval), 1)
	for {
		ids, err := in.Workers()
		if err != nil || len(ids) == 0 {
			return
		}
		if err := lim.Wait(ctx); err != nil {
			// Deadline expired.
			return
		}
	}
}
