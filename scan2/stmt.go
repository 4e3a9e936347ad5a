// Copyright 2024 The go-pybc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scan2

import (
	"sort"

	"github.com/go-pybc/scan2/internal/offsetset"
	"github.com/go-pybc/scan2/opcode"
)

// passStmtSeq is one of the four adjacent-instruction patterns that
// mark a "pass" statement: a conditional jump immediately followed by
// an unconditional jump, per §4.3 step 2.
type passStmtSeq [2]opcode.Op

// buildStmts is component C3. It computes the set of offsets that
// begin a statement and the next_stmt[] step function, per §4.3.
func (s *Scanner) buildStmts() {
	c := s.cursor
	opc := s.opc
	n := len(c.code)

	seqs := []passStmtSeq{
		{opc.PJIF, opc.JF}, {opc.PJIF, opc.JA},
		{opc.PJIT, opc.JF}, {opc.PJIT, opc.JA},
	}

	prelim := c.allInstr(0, n, opc.StmtOpcodes)
	stmts := offsetset.New(prelim...)
	passStmts := offsetset.New()

	for _, seq := range seqs {
		instrs := c.opRange(0, n)
		for idx := 0; idx < len(instrs)-1; idx++ {
			i := instrs[idx]
			if c.code[i] != seq[0] {
				continue
			}
			j := i + c.opSize(c.code[i])
			if j >= n || c.code[j] != seq[1] {
				continue
			}
			j2 := j + c.opSize(c.code[j])
			prev := s.prev[j2]
			stmts.Add(prev)
			passStmts.Add(prev)
		}
	}

	var stmtList []int
	if passStmts.Len() > 0 {
		for off := range stmts {
			stmtList = append(stmtList, int(off))
		}
		sort.Ints(stmtList)
	} else {
		stmtList = prelim
	}

	lastStmt := -1
	nextStmt := make([]int, n+1)
	i := 0
	for _, st := range stmtList {
		drop := false
		switch {
		case c.code[st] == opc.JA && !passStmts.Has(st):
			target := c.getTarget(st)
			// Python indexes self.lines[last_stmt] with last_stmt==-1
			// before the first statement, which wraps to the final
			// line entry; replicate that rather than special-casing
			// "no previous statement yet" away.
			lastLineOf := lastStmt
			if lastLineOf < 0 {
				lastLineOf = n - 1
			}
			if target > st || s.lines.at(lastLineOf).lineNo == s.lines.at(st).lineNo {
				drop = true
				break
			}
			j := s.prev[st]
			for c.code[j] == opc.JA {
				j = s.prev[j]
			}
			if c.code[j] == opc.ListAppend {
				drop = true
			}
		case c.code[st] == opc.PopTop && c.code[s.prev[st]] == opc.RotTwo:
			drop = true
		case opc.DesignatorOps.Has(c.code[st]):
			j := s.prev[st]
			for opc.DesignatorOps.Has(c.code[j]) {
				j = s.prev[j]
			}
			if c.code[j] == opc.ForIter {
				drop = true
			}
		}
		if drop {
			stmts.Remove(st)
			continue
		}
		lastStmt = st
		for ; i < st; i++ {
			nextStmt[i] = st
		}
		i = st
	}
	for ; i <= n; i++ {
		nextStmt[i] = n
	}

	s.stmts = stmts
	s.nextStmt = nextStmt
}
