// Copyright 2024 The go-pybc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scan2

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/go-pybc/scan2/opcode"
)

// TestBuildStmtsIfElse exercises component C3 directly against the
// if/else fixture also used by TestDisassembleIfElseReturnEndIf: the
// POP_JUMP_IF_FALSE and both RETURN_VALUEs are StmtOpcodes members and
// so statement starts (LOAD_FAST and LOAD_CONST are not), and next_stmt
// must advance to the next recorded statement offset, never behind the
// current one.
func TestBuildStmtsIfElse(t *testing.T) {
	opc := opcode.NewTable(2.7)
	raw := []byte{
		124, 0, 0, // 0: LOAD_FAST 0
		114, 10, 0, // 3: POP_JUMP_IF_FALSE 10
		100, 1, 0, // 6: LOAD_CONST 1
		83,         // 9: RETURN_VALUE
		100, 2, 0, // 10: LOAD_CONST 2
		83, // 13: RETURN_VALUE
	}

	s := &Scanner{version: V27, opc: opc, cursor: &cursor{code: raw, opc: opc}}
	s.lines = buildLineMap(nil, len(raw))
	s.buildPrevMap()
	s.buildLoadAsserts(nil)
	s.buildStmts()

	require.True(t, s.stmts.Has(3))
	require.True(t, s.stmts.Has(9))
	require.True(t, s.stmts.Has(13))
	require.Equal(t, 3, s.nextStmt[0])
	require.Equal(t, 9, s.nextStmt[6])
	require.Equal(t, len(raw), s.nextStmt[13])
}
