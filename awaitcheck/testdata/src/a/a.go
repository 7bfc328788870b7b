// Copyright 2026 Bob Vawter (bob@vawter.org)
// SPDX-License-Identifier: Apache-2.0

// Package a models a component test harness for analyzer testing.
package a

type View struct{}

func MountView(src string) (*View, string, error) { return &View{}, "", nil }

func OpenView(src string) (*View, error) { return &View{}, nil }

func Await(views ...*View) {}

func AwaitCompletion(views ...*View) {}

// Non-test files are never inspected, even with a bound view.
func helperOpen() *View {
	view, _, err := MountView("dashboard")
	if err != nil {
		return nil
	}
	return view
}
