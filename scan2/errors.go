// Copyright 2024 The go-pybc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scan2

import "fmt"

// MalformedBytecodeError is returned when setup_code cannot find a
// RETURN_VALUE or END_FINALLY anywhere in the code object's byte
// array. This is fatal: disassembly never proceeds past it (§7).
type MalformedBytecodeError struct {
	CodeName string
}

func (e MalformedBytecodeError) Error() string {
	return fmt.Sprintf("scan2: %s: no RETURN_VALUE or END_FINALLY found", e.CodeName)
}

// UnexpectedOpcodeBeforeEndFinallyError is returned (2.7 only) when
// next_except_jump finds an END_FINALLY whose immediately preceding
// instruction is not a forward jump or RETURN_VALUE. Fatal per §7.
type UnexpectedOpcodeBeforeEndFinallyError struct {
	Offset int
	Opname string
}

func (e UnexpectedOpcodeBeforeEndFinallyError) Error() string {
	return fmt.Sprintf("scan2: offset %d: %s precedes END_FINALLY, want a forward jump or RETURN_VALUE", e.Offset, e.Opname)
}

// inconsistentJumpError describes a jump target that fell outside its
// enclosing struct's bounds before restrict_to_parent clamped it. It
// is never returned to callers (§7: "the analyzer must clamp ...;
// never fail"). Nothing in the package constructs it:
// restrictToParent clamps silently and records no clamp.
type inconsistentJumpError struct {
	Offset, Target, ClampedTo int
}

func (e inconsistentJumpError) Error() string {
	return fmt.Sprintf("scan2: offset %d: jump target %d outside parent struct, clamped to %d", e.Offset, e.Target, e.ClampedTo)
}
