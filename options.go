// Copyright 2026 Bob Vawter (bob@vawter.org)
// SPDX-License-Identifier: Apache-2.0

package quiesce

import "time"

// DefaultDeadline is how long a waiter will block on any single worker
// when [WithDeadline] is not given. It matches the synchronous-wait
// window typically used by component test harnesses, so that both
// mechanisms agree on how long "asynchronous" work may stay pending.
const DefaultDeadline = 100 * time.Millisecond

// DefaultPollInterval paces [AwaitQuiet] snapshots when
// [WithPollInterval] is not given.
const DefaultPollInterval = 5 * time.Millisecond

// An Option adjusts the behavior of [Await], [AwaitCtx], or
// [AwaitQuiet].
type Option func(*config)

// WithDeadline sets the maximum time to wait. For [Await] the deadline
// applies per worker, restarting as each watch is satisfied; for
// [AwaitQuiet] it is a single global budget. Non-positive values fall
// back to [DefaultDeadline].
func WithDeadline(d time.Duration) Option {
	return func(c *config) { c.deadline = d }
}

// WithPollInterval sets the pacing between [AwaitQuiet] snapshots.
// Non-positive values fall back to [DefaultPollInterval]. It has no
// effect on [Await].
func WithPollInterval(d time.Duration) Option {
	return func(c *config) { c.interval = d }
}

type config struct {
	deadline time.Duration
	interval time.Duration
}

func newConfig(opts []Option) *config {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}
	cfg.sanitize()
	return cfg
}

func (c *config) sanitize() {
	if c.deadline <= 0 {
		c.deadline = DefaultDeadline
	}
	if c.interval <= 0 {
		c.interval = DefaultPollInterval
	}
}
