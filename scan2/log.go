// Copyright 2024 The go-pybc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scan2

import (
	"io"
	"log"
	"os"
)

// PrintDebugInfo selects debug logging, in the same spirit as wagon's
// wasm.PrintDebugInfo. It is read once, when the package is
// initialized: off by default, so the logger writes to io.Discard.
// The only log lines are Disassemble's start and finish lines.
var PrintDebugInfo = false

var logger *log.Logger

func init() {
	w := io.Discard
	if PrintDebugInfo {
		w = os.Stderr
	}
	logger = log.New(w, "scan2: ", log.Lshortfile)
}
