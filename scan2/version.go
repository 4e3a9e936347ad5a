// Copyright 2024 The go-pybc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scan2

// Version selects which of the bytecode family's minor revisions is
// being scanned. Per §9, the only version-specific analysis logic is
// (a) the stricter END_FINALLY-predecessor assertion in
// next_except_jump, and (b) collecting absolute JUMP_IF_*_OR_POP
// targets in the jump-target collector — both gated on Is27.
type Version float64

const (
	V25 Version = 2.5
	V26 Version = 2.6
	V27 Version = 2.7
)

// Is27 reports whether v is the 2.7 revision.
func (v Version) Is27() bool { return v == V27 }
