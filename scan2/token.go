// Copyright 2024 The go-pybc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scan2

import (
	"fmt"
	"strconv"

	"github.com/go-pybc/scan2/code"
)

// Offset identifies a token's position in the instruction stream. Real
// instructions carry their byte offset with Synthetic == -1. A
// COME_FROM marker carries the byte offset it was inserted before and
// a zero-based index distinguishing it from any sibling COME_FROM at
// the same offset, rendered as "<offset>_<index>" (§6).
type Offset struct {
	Base      int
	Synthetic int
}

// RealOffset returns the offset of an ordinary (non-synthetic) token.
func RealOffset(offset int) Offset { return Offset{Base: offset, Synthetic: -1} }

// ComeFromOffset returns the offset of the index'th COME_FROM marker
// inserted just before base.
func ComeFromOffset(base, index int) Offset { return Offset{Base: base, Synthetic: index} }

func (o Offset) String() string {
	if o.Synthetic < 0 {
		return strconv.Itoa(o.Base)
	}
	return fmt.Sprintf("%d_%d", o.Base, o.Synthetic)
}

// ArgKind distinguishes the payload carried by a Token's Arg.
type ArgKind int

const (
	// ArgNone: the instruction carries no operand worth recording
	// (its numeric oparg, if any, is fully described by Kind/Pattr).
	ArgNone ArgKind = iota
	// ArgConst: a value pulled from the code object's constant pool.
	ArgConst
	// ArgCode: a nested code object (carried by the
	// LOAD_LAMBDA/LOAD_GENEXPR/LOAD_DICTCOMP/LOAD_SETCOMP/
	// LOAD_CODE renamings of LOAD_CONST).
	ArgCode
)

// Arg is the token operand sum type described in §9: every LOAD_CONST
// either carries a plain value or a nested code object, never both,
// and nothing else needs more than an integer (already folded into
// Pattr as a string for display, per the original's convention).
type Arg struct {
	Kind  ArgKind
	Const interface{}
	Code  code.Object
}

// Token is component C7's record: a single renamed, annotated opcode
// ready for grammar consumption.
type Token struct {
	Kind      string
	Arg       Arg
	Pattr     string
	Offset    Offset
	LineStart int // source line beginning at this offset, 0 if none
}
