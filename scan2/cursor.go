// Copyright 2024 The go-pybc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scan2

import (
	"github.com/go-pybc/scan2/opcode"
)

// cursor walks a byte array honoring each opcode's size, and resolves
// absolute/relative jump targets. It is component C1.
type cursor struct {
	code []byte
	opc  *opcode.Table
}

// opSize returns the size, in bytes, of the instruction at an offset
// whose opcode is op: 1 if op carries no argument, else 3.
func (c *cursor) opSize(op opcode.Op) int {
	if op < c.opc.HaveArgument && !c.opc.HasArgumentExtended.Has(op) {
		return 1
	}
	return 3
}

// opRange returns the instruction-start offsets in [a,b), honoring
// each instruction's size so that arguments are never mistaken for
// opcodes.
func (c *cursor) opRange(a, b int) []int {
	var out []int
	for i := a; i < b; i += c.opSize(c.code[i]) {
		out = append(out, i)
	}
	return out
}

// getArgument returns the raw 16-bit immediate at instruction offset i
// (bytes[i+1] | bytes[i+2]<<8). It does not fold any preceding
// EXTENDED_ARG: that accumulation is local to the token emitter (C6),
// per the original scanner's split between structural analysis (which
// never needs the folded value) and token emission (which does).
func (c *cursor) getArgument(i int) int {
	return int(c.code[i+1]) | int(c.code[i+2])<<8
}

// getTarget returns the jump target of the instruction at offset i. If
// op is given it is used in place of c.code[i] (useful when the caller
// already decoded the opcode).
func (c *cursor) getTarget(i int, op ...opcode.Op) int {
	var o opcode.Op
	if len(op) > 0 {
		o = op[0]
	} else {
		o = c.code[i]
	}
	oparg := c.getArgument(i)
	if c.opc.HasJrel.Has(o) {
		return i + 3 + oparg
	}
	return oparg
}

// noTarget is passed to firstInstr/lastInstr to skip the target filter.
const noTarget = -1

// firstInstr returns the offset nearest a of the first instruction in
// [a,b) whose opcode is a member of ops, or -1 if none match. If
// target != noTarget, a match additionally requires the instruction's
// computed target equal target.
func (c *cursor) firstInstr(a, b int, ops opcode.Set, target int) int {
	for _, i := range c.opRange(a, b) {
		if !ops.Has(c.code[i]) {
			continue
		}
		if target != noTarget && c.getTarget(i) != target {
			continue
		}
		return i
	}
	return -1
}

// lastInstr returns the offset nearest b-1 of the last instruction in
// [a,b) whose opcode is a member of ops, or -1 if none match. If
// target != noTarget, a match additionally requires the instruction's
// computed target equal target.
func (c *cursor) lastInstr(a, b int, ops opcode.Set, target int) int {
	found := -1
	for _, i := range c.opRange(a, b) {
		if !ops.Has(c.code[i]) {
			continue
		}
		if target != noTarget && c.getTarget(i) != target {
			continue
		}
		found = i
	}
	return found
}

// lastInstrNearest returns the offset in [a,b) of the instruction
// among ops whose computed jump target is closest to target, breaking
// ties toward the earliest candidate found, or -1 if ops has no
// members in [a,b). Used by the SETUP_LOOP back-jump search, where the
// back-jump's exact target varies (the loop condition recheck for a
// while-loop, the FOR_ITER for a for-loop) and only an approximate
// landing zone is known in advance.
func (c *cursor) lastInstrNearest(a, b int, ops opcode.Set, target int) int {
	found := -1
	bestDist := -1
	for _, i := range c.opRange(a, b) {
		if !ops.Has(c.code[i]) {
			continue
		}
		d := c.getTarget(i) - target
		if d < 0 {
			d = -d
		}
		if bestDist < 0 || d < bestDist {
			bestDist = d
			found = i
		}
	}
	return found
}

// allInstr returns, in ascending order, every offset in [a,b) whose
// opcode is a member of ops.
func (c *cursor) allInstr(a, b int, ops opcode.Set) []int {
	var out []int
	for _, i := range c.opRange(a, b) {
		if ops.Has(c.code[i]) {
			out = append(out, i)
		}
	}
	return out
}

// setupCode truncates raw to end just past the last RETURN_VALUE or
// END_FINALLY instruction, per §4.1, and returns the truncated slice.
// It returns a MalformedBytecodeError if no such instruction exists.
func setupCode(raw []byte, opc *opcode.Table, codeName string) ([]byte, error) {
	c := &cursor{code: raw, opc: opc}
	n := -1
	for _, i := range c.opRange(0, len(raw)) {
		if raw[i] == opc.ReturnValue || raw[i] == opc.EndFinally {
			n = i + 1
		}
	}
	if n < 0 {
		return nil, MalformedBytecodeError{CodeName: codeName}
	}
	return raw[:n], nil
}
