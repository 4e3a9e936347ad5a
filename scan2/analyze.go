// Copyright 2024 The go-pybc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scan2

import (
	"github.com/go-pybc/scan2/internal/offsetset"
	"github.com/go-pybc/scan2/opcode"
)

// fixedJumpUnresolved is the sentinel stored in fixedJumps for an
// except-terminating forward jump that must never be published as a
// resolvable target by the jump-target collector (§4.4.b, §4.5).
const fixedJumpUnresolved = -1

func (s *Scanner) isJumpForward(op opcode.Op) bool {
	return op == s.opc.JA || op == s.opc.JF
}

// buildStructs runs component C4 over every offset in the code,
// populating structs, fixedJumps, ignoreIf, notContinue,
// returnEndIfs and loops. It is the direct analogue of
// find_jump_targets' detect_structure loop, minus the target
// collection itself (C5's job).
func (s *Scanner) buildStructs() {
	n := len(s.cursor.code)
	s.structs = []Struct{{Kind: StructRoot, Start: 0, End: n - 1}}
	s.loops = nil
	s.fixedJumps = make(map[int]int)
	s.ignoreIf = offsetset.New()
	s.notContinue = offsetset.New()
	s.returnEndIfs = offsetset.New()

	for _, i := range s.cursor.opRange(0, n) {
		op := s.cursor.code[i]
		s.detectStructure(i, op)
	}
}

// detectStructure classifies the block structure (if any) rooted at
// pos, per §4.4.
func (s *Scanner) detectStructure(pos int, op opcode.Op) {
	opc := s.opc
	c := s.cursor
	parent := parentOf(s.structs, pos)

	switch {
	case op == opc.SetupLoop:
		s.detectSetupLoop(pos, parent)
	case op == opc.SetupExcept:
		s.detectSetupExcept(pos, parent)
	case op == opc.PJIF || op == opc.PJIT:
		s.detectConditional(pos, op, parent)
	case opc.PopJumpIfOrPop.Has(op):
		target := c.getTarget(pos, op)
		s.fixedJumps[pos] = restrictToParent(target, parent)
	}
}

func (s *Scanner) detectSetupLoop(pos int, parent Struct) {
	opc, c := s.opc, s.cursor
	start := pos + 3
	target := c.getTarget(pos, opc.SetupLoop)
	end := restrictToParent(target, parent)
	if target != end {
		s.fixedJumps[pos] = end
	}

	nextLineByte := s.lines.at(pos).next
	jumpBack := c.lastInstrNearest(start, end, opcode.NewSet(opc.JA), nextLineByte)

	if jumpBack >= 0 && jumpBack != s.prev[end] && s.isJumpForward(c.code[jumpBack+3]) {
		before := s.prev[end]
		if c.code[before] == opc.ReturnValue ||
			(c.code[before] == opc.PopBlock && c.code[s.prev[before]] == opc.ReturnValue) {
			jumpBack = -1
		}
	}

	var loopType StructKind
	if jumpBack < 0 {
		// Loop suite ends in return.
		last := c.lastInstr(start, end, opcode.NewSet(opc.ReturnValue), noTarget)
		if last < 0 {
			return
		}
		jumpBack = last + 1
		if c.code[s.prev[nextLineByte]] == opc.PJIF || c.code[s.prev[nextLineByte]] == opc.PJIT {
			loopType = StructWhileLoop
			s.ignoreIf.Add(s.prev[nextLineByte])
		} else {
			loopType = StructForLoop
		}
		target = nextLineByte
		end = jumpBack + 3
	} else {
		if c.getTarget(jumpBack) >= nextLineByte {
			jumpBack = c.lastInstr(start, end, opcode.NewSet(opc.JA), start)
		}
		if end > jumpBack+4 && s.isJumpForward(c.code[end]) {
			if s.isJumpForward(c.code[jumpBack+4]) {
				if c.getTarget(jumpBack+4) == c.getTarget(end) {
					s.fixedJumps[pos] = jumpBack + 4
					end = jumpBack + 4
				}
			}
		} else if target < pos {
			s.fixedJumps[pos] = jumpBack + 4
			end = jumpBack + 4
		}

		target = c.getTarget(jumpBack, opc.JA)
		if c.code[target] == opc.ForIter || c.code[target] == opc.GetIter {
			loopType = StructForLoop
		} else {
			loopType = StructWhileLoop
			test := s.prev[nextLineByte]
			if test == pos {
				loopType = StructWhile1Loop
			} else if opc.HasJabs.Has(c.code[test]) || opc.HasJrel.Has(c.code[test]) {
				s.ignoreIf.Add(test)
				testTarget := c.getTarget(test)
				if testTarget > jumpBack+3 {
					jumpBack = testTarget
				}
			}
		}
		s.notContinue.Add(jumpBack)
	}

	s.loops = append(s.loops, target)
	s.structs = append(s.structs, Struct{Kind: loopType, Start: target, End: jumpBack})
	if jumpBack+3 != end {
		s.structs = append(s.structs, Struct{Kind: elseKindOf(loopType), Start: jumpBack + 3, End: end})
	}
}

func elseKindOf(loop StructKind) StructKind {
	switch loop {
	case StructForLoop:
		return StructForElse
	case StructWhile1Loop:
		return StructWhile1Else
	default:
		return StructWhileElse
	}
}

func (s *Scanner) detectSetupExcept(pos int, parent Struct) {
	opc, c := s.opc, s.cursor
	start := pos + 3
	target := c.getTarget(pos, opc.SetupExcept)
	end := restrictToParent(target, parent)
	if target != end {
		s.fixedJumps[pos] = end
	}
	s.structs = append(s.structs, Struct{Kind: StructTry, Start: start, End: end - 4})

	startElse := c.getTarget(s.prev[end])
	endElse := startElse

	i := end
	for i < len(c.code) && c.code[i] != opc.EndFinally {
		jmp, ok := s.nextExceptJump(i)
		if !ok {
			i = s.nextStmt[i]
			continue
		}
		if c.code[jmp] == opc.ReturnValue {
			s.structs = append(s.structs, Struct{Kind: StructExcept, Start: i, End: jmp + 1})
			i = jmp + 1
			continue
		}
		if c.getTarget(jmp) != startElse {
			endElse = c.getTarget(jmp)
		}
		if c.code[jmp] == opc.JF {
			s.fixedJumps[jmp] = fixedJumpUnresolved
		}
		s.structs = append(s.structs, Struct{Kind: StructExcept, Start: i, End: jmp})
		i = jmp + 3
	}

	if endElse != startElse {
		rEndElse := restrictToParent(endElse, parent)
		s.structs = append(s.structs, Struct{Kind: StructTryElse, Start: i + 1, End: rEndElse})
		s.fixedJumps[i] = rEndElse
	} else {
		s.fixedJumps[i] = i + 1
	}
}

// nextExceptJump returns the next jump generated by an `except
// SomeException:` clause, starting the search at start, per §4.4.b.
// The second return value is false when no such jump was found.
func (s *Scanner) nextExceptJump(start int) (int, bool) {
	opc, c := s.opc, s.cursor

	if c.code[start] == opc.DupTop {
		exceptMatch := c.firstInstr(start, len(c.code), opcode.NewSet(opc.PJIF), noTarget)
		if exceptMatch >= 0 {
			jmp := s.prev[c.getTarget(exceptMatch)]
			s.ignoreIf.Add(exceptMatch)
			s.notContinue.Add(jmp)
			return jmp, true
		}
	}

	countEndFinally, countSetup := 0, 0
	for _, i := range c.opRange(start, len(c.code)) {
		op := c.code[i]
		if op == opc.EndFinally {
			if countEndFinally == countSetup {
				if s.version.Is27() {
					before := c.code[s.prev[i]]
					if !s.isJumpForward(before) && before != opc.ReturnValue {
						s.fail = UnexpectedOpcodeBeforeEndFinallyError{Offset: s.prev[i], Opname: opc.Name[before]}
					}
				}
				s.notContinue.Add(s.prev[i])
				return s.prev[i], true
			}
			countEndFinally++
		} else if opc.SetupOps.Has(op) {
			countSetup++
		}
	}
	return 0, false
}

// detectConditional handles PJIF/PJIT, §4.4.c.
func (s *Scanner) detectConditional(pos int, op opcode.Op, parent Struct) {
	opc, c := s.opc, s.cursor
	start := pos + 3
	target := c.getTarget(pos, op)
	rtarget := restrictToParent(target, parent)

	if target != rtarget && parent.Kind == StructAndOr {
		s.fixedJumps[pos] = rtarget
		return
	}

	// Short-circuit: this forward jump lands just past another
	// conditional jump, so the two are part of one and/or chain.
	preTarget := s.prev[target]
	if target > pos && (c.code[preTarget] == opc.PJIF || c.code[preTarget] == opc.PJIT ||
		opc.PopJumpIfOrPop.Has(c.code[preTarget])) {
		s.fixedJumps[pos] = preTarget
		s.structs = append(s.structs, Struct{Kind: StructAndOr, Start: start, End: preTarget})
		return
	}

	if op == opc.PJIF {
		match := s.remOr(start, s.nextStmt[pos], target)
		if len(match) > 0 {
			s.fixedJumps[pos] = pickFix(match, s.lines)
			return
		}
	} else {
		if s.loadAsserts.Has(pos + 3) {
			if c.code[s.prev[rtarget]] == opc.RaiseVarargs {
				return
			}
			s.loadAsserts.Remove(pos + 3)
		}
		next := s.nextStmt[pos]
		if next < len(c.code) && s.isJumpForward(c.code[next]) && target == c.getTarget(next) {
			if c.code[s.prev[next]] == opc.PJIF {
				s.fixedJumps[pos] = s.prev[next]
				return
			}
		}
	}

	if s.ignoreIf.Has(pos) {
		return
	}

	if s.isJumpForward(c.code[s.prev[rtarget]]) {
		ifEnd := c.getTarget(s.prev[rtarget])
		end := restrictToParent(ifEnd, parent)
		s.structs = append(s.structs, Struct{Kind: StructIfThen, Start: start, End: s.prev[rtarget]})
		s.notContinue.Add(s.prev[rtarget])
		if rtarget < end {
			s.structs = append(s.structs, Struct{Kind: StructIfElse, Start: rtarget, End: end})
		}
	} else if c.code[s.prev[rtarget]] == opc.ReturnValue {
		s.structs = append(s.structs, Struct{Kind: StructIfThen, Start: start, End: rtarget})
		s.returnEndIfs.Add(s.prev[rtarget])
	}
}

// remOr finds the PJIF instructions in [start,end) whose target equals
// target, excluding ones that already sit inside a previously detected
// and/or struct -- those inner short-circuits were already folded by
// an earlier call to detectConditional (§4.4.c step 3: "filtering
// ones inside inner short-circuits").
func (s *Scanner) remOr(start, end, target int) []int {
	all := s.cursor.allInstr(start, end, opcode.NewSet(s.opc.PJIF))
	var out []int
	for _, i := range all {
		if s.cursor.getTarget(i) != target {
			continue
		}
		if s.insideAndOr(i) {
			continue
		}
		out = append(out, i)
	}
	return out
}

func (s *Scanner) insideAndOr(pos int) bool {
	for _, st := range s.structs {
		if st.Kind == StructAndOr && st.Start <= pos && pos < st.End {
			return true
		}
	}
	return false
}

// pickFix implements the "last_jump_good" selection described in
// §4.4.c step 3: prefer the first survivor that sits right at the end
// of its own source line (a contiguous chain of such survivors from
// the front), falling back to the last survivor otherwise.
func pickFix(survivors []int, lines *lineMap) int {
	lastGood := true
	for _, j := range survivors {
		if lines.at(j).next == j+3 {
			if lastGood {
				return j
			}
		} else {
			lastGood = false
		}
	}
	return survivors[len(survivors)-1]
}
