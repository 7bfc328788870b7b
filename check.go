// Copyright 2026 Bob Vawter (bob@vawter.org)
// SPDX-License-Identifier: Apache-2.0

package quiesce

import (
	"runtime"
)

// CheckDrained will record a test error if the Tracker still has
// workers in flight. The launch site of each lingering worker is
// written into the test log. It is typically registered via
// [testing.T.Cleanup] after the component's own shutdown.
func CheckDrained(t TestingT, tr *Tracker) {
	callers := tr.Callers()
	if len(callers) == 0 {
		return
	}

	// Improve error messages if we're being called from a real test.
	if x, ok := t.(interface{ Helper() }); ok {
		x.Helper()
	}

	t.Errorf("undrained workers detected")
	for _, stack := range callers {
		t.Errorf("  worker started at:")
		frames := runtime.CallersFrames(stack)
		for {
			frame, more := frames.Next()
			t.Errorf("    %s ( %s:%d )", frame.Function, frame.File, frame.Line)
			if !more {
				break
			}
		}
	}
}

// TestingT is the subset of [testing.TB] needed by [CheckDrained].
type TestingT interface {
	Errorf(string, ...any)
}
