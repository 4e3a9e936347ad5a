// Copyright 2024 The go-pybc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scan2

import (
	"fmt"

	"github.com/go-pybc/scan2/code"
	"github.com/go-pybc/scan2/opcode"
)

// emitter is component C6: it walks the instruction stream once more,
// now that C2-C5 have computed everything it needs, and produces the
// final annotated Token slice plus the customize counts the grammar
// builder uses to know which varargs-arity rules it must synthesize.
type emitter struct {
	s         *Scanner
	obj       code.Object
	classname string
	replace   map[int]string
	customize map[string]int
	extended  int
}

func newEmitter(s *Scanner, obj code.Object, classname string) *emitter {
	return &emitter{
		s:         s,
		obj:       obj,
		classname: classname,
		replace:   s.buildReplaceMap(),
		customize: make(map[string]int),
	}
}

// buildReplaceMap folds PRINT_ITEM and IMPORT_NAME instructions past
// the first one in a statement into *_CONT variants, so the grammar
// needs only one rule per statement shape regardless of how many
// operands a `print` or `import` lists (§12 supplement).
func (s *Scanner) buildReplaceMap() map[int]string {
	c, opc := s.cursor, s.opc
	replace := make(map[int]string)
	lastStmt := -1
	var prevOp opcode.Op
	prevStmt := -1

	for _, off := range c.opRange(0, len(c.code)) {
		if s.stmts.Has(off) {
			lastStmt = off
		}
		op := c.code[off]
		if lastStmt == prevStmt {
			switch {
			case op == opc.PrintItem && prevOp == opc.PrintItem:
				replace[off] = "PRINT_ITEM_CONT"
			case op == opc.ImportName && prevOp == opc.ImportName:
				replace[off] = "IMPORT_NAME_CONT"
			}
		}
		prevOp, prevStmt = op, lastStmt
	}
	return replace
}

// emit runs C6 end to end, returning the token stream in offset order
// with synthetic COME_FROM markers spliced in ahead of each target.
func (e *emitter) emit(targets *targetMap) ([]Token, map[string]int, error) {
	s := e.s
	c, opc := s.cursor, s.opc
	n := len(c.code)
	var tokens []Token

	for _, offset := range c.opRange(0, n) {
		if sources, ok := targets.sourcesOf(offset); ok {
			for i, src := range sources {
				tokens = append(tokens, Token{
					Kind:      "COME_FROM",
					Pattr:     fmt.Sprintf("%d", src),
					Offset:    ComeFromOffset(offset, i),
					LineStart: 0,
				})
			}
		}

		op := c.code[offset]
		if op == opc.ExtendedArg {
			e.extended = c.getArgument(offset) * 65536
			continue
		}
		if op == opc.BuildTuple && c.code[s.prev[offset]] == opc.LoadClosure {
			// Consumed into the subsequent MAKE_CLOSURE; no token of
			// its own.
			continue
		}

		tok, err := e.token(offset, op)
		if err != nil {
			return nil, nil, err
		}
		tokens = append(tokens, tok)
	}
	return tokens, e.customize, nil
}

func (e *emitter) token(offset int, op opcode.Op) (Token, error) {
	s := e.s
	c, opc := s.cursor, s.opc

	opname := opc.Name[op]
	if r, ok := e.replace[offset]; ok {
		opname = r
	}

	oparg := 0
	if op >= opc.HaveArgument || opc.HasArgumentExtended.Has(op) {
		oparg = c.getArgument(offset) + e.extended
	}
	e.extended = 0

	arg := Arg{}
	pattr := ""

	switch {
	case opc.HasConst.Has(op):
		consts := e.obj.Consts()
		if oparg < 0 || oparg >= len(consts) {
			return Token{}, MalformedBytecodeError{CodeName: e.obj.Name()}
		}
		val := consts[oparg]
		if nested, isCode := val.(code.Object); isCode {
			arg = Arg{Kind: ArgCode, Code: nested}
			switch nested.Name() {
			case "<lambda>":
				opname = "LOAD_LAMBDA"
			case "<genexpr>":
				opname = "LOAD_GENEXPR"
			case "<dictcomp>":
				opname = "LOAD_DICTCOMP"
			case "<setcomp>":
				opname = "LOAD_SETCOMP"
			default:
				opname = "LOAD_CODE"
			}
			pattr = "<code_object " + nested.Name() + ">"
		} else {
			arg = Arg{Kind: ArgConst, Const: val}
			pattr = fmt.Sprintf("%v", val)
		}
	case opc.HasName.Has(op):
		pattr = unmangle(nameAt(e.obj.Names(), oparg), e.classname)
	case opc.HasJrel.Has(op):
		pattr = fmt.Sprintf("%d", offset+3+oparg)
	case opc.HasJabs.Has(op):
		pattr = fmt.Sprintf("%d", oparg)
	case opc.HasLocal.Has(op):
		pattr = unmangle(nameAt(e.obj.VarNames(), oparg), e.classname)
	case opc.HasCompare.Has(op):
		if oparg >= 0 && oparg < len(opc.CmpOp) {
			pattr = opc.CmpOp[oparg]
		}
	case opc.HasFree.Has(op):
		frees := append(append([]string{}, e.obj.CellVars()...), e.obj.FreeVars()...)
		pattr = unmangle(nameAt(frees, oparg), e.classname)
	}

	if opc.VarargsOps.Has(op) {
		suffixed := fmt.Sprintf("%s_%d", opname, oparg)
		if op != opc.BuildSlice {
			e.customize[suffixed] = oparg
		}
		opname = suffixed
	}

	if op == opc.LoadGlobal && s.loadAsserts.Has(offset) {
		opname = "LOAD_ASSERT"
	}
	if op == opc.ReturnValue && s.returnEndIfs.Has(offset) {
		opname = "RETURN_END_IF"
	}
	if op == opc.JA {
		target := c.getTarget(offset, op)
		if target <= offset {
			next := c.code[offset+3]
			if s.stmts.Has(offset) && !s.notContinue.Has(offset) &&
				next != opc.EndFinally && next != opc.PopBlock {
				opname = "CONTINUE"
			} else {
				opname = "JUMP_BACK"
			}
		}
	}

	lineStart := 0
	if ln, ok := s.lines.lineStart(offset); ok {
		lineStart = ln
	}

	return Token{
		Kind:      opname,
		Arg:       arg,
		Pattr:     pattr,
		Offset:    RealOffset(offset),
		LineStart: lineStart,
	}, nil
}

func nameAt(names []string, i int) string {
	if i < 0 || i >= len(names) {
		return ""
	}
	return names[i]
}
