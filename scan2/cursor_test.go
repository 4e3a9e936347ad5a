// Copyright 2024 The go-pybc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scan2

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/go-pybc/scan2/opcode"
)

func TestOpSizeAndRange(t *testing.T) {
	opc := opcode.NewTable(2.7)
	// LOAD_FAST 0; RETURN_VALUE
	raw := []byte{124, 0, 0, 83}
	c := &cursor{code: raw, opc: opc}

	require.Equal(t, 3, c.opSize(124))
	require.Equal(t, 1, c.opSize(83))
	require.Equal(t, []int{0, 3}, c.opRange(0, len(raw)))
}

func TestGetTargetRelativeAndAbsolute(t *testing.T) {
	opc := opcode.NewTable(2.7)
	// JUMP_FORWARD +2 at offset 0 -> target 5
	raw := []byte{opc.JF, 2, 0, 0, 0}
	c := &cursor{code: raw, opc: opc}
	require.Equal(t, 5, c.getTarget(0))

	// POP_JUMP_IF_FALSE absolute target 3
	raw2 := []byte{opc.PJIF, 3, 0}
	c2 := &cursor{code: raw2, opc: opc}
	require.Equal(t, 3, c2.getTarget(0))
}

func TestFirstLastAllInstr(t *testing.T) {
	opc := opcode.NewTable(2.7)
	raw := []byte{opc.LoadConst, 0, 0, opc.LoadConst, 1, 0, opc.ReturnValue}
	c := &cursor{code: raw, opc: opc}

	ops := opcode.NewSet(opc.LoadConst)
	require.Equal(t, 0, c.firstInstr(0, len(raw), ops, noTarget))
	require.Equal(t, 3, c.lastInstr(0, len(raw), ops, noTarget))
	require.Equal(t, []int{0, 3}, c.allInstr(0, len(raw), ops))
}

func TestSetupCodeTruncatesAndErrors(t *testing.T) {
	opc := opcode.NewTable(2.7)
	raw := []byte{opc.LoadConst, 0, 0, opc.ReturnValue, 0xFF, 0xFF}
	truncated, err := setupCode(raw, opc, "f")
	require.NoError(t, err)
	require.Equal(t, raw[:4], truncated)

	_, err = setupCode([]byte{opc.LoadConst, 0, 0}, opc, "g")
	require.Error(t, err)
	require.IsType(t, MalformedBytecodeError{}, err)
}
