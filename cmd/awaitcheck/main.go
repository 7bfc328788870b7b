// Copyright 2026 Bob Vawter (bob@vawter.org)
// SPDX-License-Identifier: Apache-2.0

// Command awaitcheck reports tests that open a view but never wait for
// its background tasks. It can run standalone or via
//
//	go vet -vettool=$(which awaitcheck) ./...
package main

import (
	"golang.org/x/tools/go/analysis/singlechecker"

	"vawter.tech/quiesce/awaitcheck"
)

func main() { singlechecker.Main(awaitcheck.Analyzer) }
