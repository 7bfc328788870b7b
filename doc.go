// Copyright 2026 Bob Vawter (bob@vawter.org)
// SPDX-License-Identifier: Apache-2.0

// Package quiesce lets tests of server-rendered UI components wait for
// the component's background tasks to finish before the test tears
// down shared resources.
//
// A component under test ("view") often kicks off short-lived
// asynchronous work: data loads, cache warms, notifications. When a
// test finishes while that work is still running, the work races the
// test harness's teardown and fails against half-closed database
// connections, producing noise that has nothing to do with the test's
// assertions. This package absorbs that race.
//
// # Tracking background work
//
// A component instance owns a [Tracker], the authoritative registry of
// its in-flight workers. Work is registered either manually via
// [Tracker.Begin] or by spawning a tracked goroutine with [Tracker.Go]:
//
//	type View struct {
//	    tasks *quiesce.Tracker
//	    // ...
//	}
//
//	func (v *View) loadAsync() {
//	    _ = v.tasks.Go(func() {
//	        v.fetchRows()
//	    })
//	}
//
// When the instance shuts down it calls [Tracker.Terminate], which
// releases anyone still waiting on its workers.
//
// # Waiting in tests
//
// [Await] takes a snapshot of the instance's worker set and blocks
// until every worker in the snapshot has terminated, or until a
// deadline expires for one of them. It never returns an error: a
// worker that outlives the deadline, and an instance that has already
// terminated, are both treated as "nothing left to race against" and
// the test proceeds.
//
//	view := openView(t)
//	view.SubmitForm(t, params)
//	quiesce.Await(view.Tasks())
//
// The snapshot is taken once, so workers spawned after Await is called
// are not waited on; call Await after all expected async operations
// have been initiated. [AwaitQuiet] is the polling alternative that
// keeps watching until the instance has no in-flight work at all.
//
// The deadline defaults to [DefaultDeadline] and is applied per
// worker, not globally; see [WithDeadline].
//
// # Catching tests that forget to wait
//
// The [vawter.tech/quiesce/awaitcheck] analyzer flags test functions
// that bind a view from an open call but never pass anything to Await,
// and [CheckDrained] reports the launch site of any worker still
// running when a test ends.
package quiesce
