// Copyright 2026 Bob Vawter (bob@vawter.org)
// SPDX-License-Identifier: Apache-2.0

// Package awaitcheck defines an Analyzer that reports tests which bind
// a view from an open call but never wait for the view's background
// tasks.
package awaitcheck

import (
	"go/ast"
	"go/token"
	"strings"

	"golang.org/x/tools/go/analysis"
)

// Doc describes the analyzer; the first line is its summary.
const Doc = `report tests that open a view but never call Await

A test that binds a view from MountView or OpenView starts a component
whose background tasks can outlive the test and race against harness
teardown. Such tests should pass the view's task tracker to
quiesce.Await (or the legacy AwaitCompletion) before returning. Tests
that expect the open call to fail discard the view and are exempt.`

// Analyzer flags test functions with a bound view and no wait call.
var Analyzer = &analysis.Analyzer{
	Name: "awaitcheck",
	Doc:  Doc,
	URL:  "https://pkg.go.dev/vawter.tech/quiesce/awaitcheck",
	Run:  run,
}

// The two fixed call shapes. Callees are matched by base name whether
// spelled plain or as a selector, since harnesses are commonly dot- or
// alias-imported in test files.
var (
	openNames = map[string]bool{"MountView": true, "OpenView": true}
	waitNames = map[string]bool{"Await": true, "AwaitCompletion": true}
)

const message = "view bound by MountView or OpenView is never passed to " +
	"Await or AwaitCompletion; background tasks may outlive the test"

func run(pass *analysis.Pass) (any, error) {
	for _, file := range pass.Files {
		name := pass.Fset.File(file.Pos()).Name()
		if !strings.HasSuffix(name, "_test.go") {
			continue
		}
		for _, decl := range file.Decls {
			fn, ok := decl.(*ast.FuncDecl)
			if !ok || fn.Recv != nil || fn.Body == nil ||
				!strings.HasPrefix(fn.Name.Name, "Test") {
				continue
			}
			checkTest(pass, fn)
		}
	}
	return nil, nil
}

// checkTest evaluates one test function. Direct t.Run subtest literals
// are flattened a single level: each is its own test case anchored at
// the t.Run call, while the enclosing body is evaluated with those
// literals masked out so that shared setup is judged on its own.
func checkTest(pass *analysis.Pass, fn *ast.FuncDecl) {
	subtests := subtestsOf(fn.Body)
	skip := make(map[*ast.FuncLit]bool, len(subtests))
	for _, st := range subtests {
		skip[st.fn] = true
	}

	evaluate(pass, fn.Pos(), fn.Body, skip)
	for _, st := range subtests {
		evaluate(pass, st.pos, st.fn.Body, nil)
	}
}

type subtest struct {
	pos token.Pos
	fn  *ast.FuncLit
}

// subtestsOf collects t.Run(name, func(...){...}) calls. Descent stops
// at each collected literal, so deeper t.Run nesting stays part of its
// enclosing subtest body.
func subtestsOf(body *ast.BlockStmt) []subtest {
	var found []subtest
	ast.Inspect(body, func(n ast.Node) bool {
		call, ok := n.(*ast.CallExpr)
		if !ok {
			return true
		}
		lit := subtestLit(call)
		if lit == nil {
			return true
		}
		found = append(found, subtest{pos: call.Pos(), fn: lit})
		return false
	})
	return found
}

func subtestLit(call *ast.CallExpr) *ast.FuncLit {
	sel, ok := call.Fun.(*ast.SelectorExpr)
	if !ok || sel.Sel.Name != "Run" || len(call.Args) != 2 {
		return nil
	}
	if _, ok := sel.X.(*ast.Ident); !ok {
		return nil
	}
	lit, _ := call.Args[1].(*ast.FuncLit)
	return lit
}

// evaluate walks one test-case body, computes the two predicates, and
// reports at pos if a bound view is never awaited.
func evaluate(pass *analysis.Pass, pos token.Pos, body *ast.BlockStmt, skip map[*ast.FuncLit]bool) {
	var opens, waits bool
	ast.Inspect(body, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.FuncLit:
			if skip[n] {
				return false
			}
		case *ast.AssignStmt:
			if isSuccessOpen(n) {
				opens = true
			}
		case *ast.CallExpr:
			if isWaitCall(n) {
				waits = true
			}
		}
		return true
	})

	if opens && !waits {
		pass.Reportf(pos, "%s", message)
	}
}

// isSuccessOpen reports whether the assignment binds a view from an
// open call, as in
//
//	view, html, err := MountView(src)
//	view, err := OpenView(src)
//
// A blank first element, as in _, _, err := MountView(src), is the
// expected-failure shape: there is no live view to wait on, so it does
// not match.
func isSuccessOpen(assign *ast.AssignStmt) bool {
	if len(assign.Rhs) != 1 || len(assign.Lhs) < 2 {
		return false
	}
	call, ok := assign.Rhs[0].(*ast.CallExpr)
	if !ok || !openNames[calleeName(call)] {
		return false
	}
	id, ok := assign.Lhs[0].(*ast.Ident)
	return ok && id.Name != "_"
}

// isWaitCall reports whether the call invokes one of the wait helpers
// with at least one argument. A zero-argument call waits on nothing.
func isWaitCall(call *ast.CallExpr) bool {
	return waitNames[calleeName(call)] && len(call.Args) > 0
}

func calleeName(call *ast.CallExpr) string {
	switch fun := call.Fun.(type) {
	case *ast.Ident:
		return fun.Name
	case *ast.SelectorExpr:
		return fun.Sel.Name
	}
	return ""
}
