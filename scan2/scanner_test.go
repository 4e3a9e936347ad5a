// Copyright 2024 The go-pybc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scan2

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/go-pybc/scan2/code"
	"github.com/go-pybc/scan2/opcode"
)

// TestDisassembleIfElseReturnEndIf covers:
//
//	def f(x):
//	    if x:
//	        return 1
//	    else:
//	        return 2
func TestDisassembleIfElseReturnEndIf(t *testing.T) {
	opc := opcode.NewTable(2.7)

	raw := []byte{
		124, 0, 0, // 0: LOAD_FAST 0 (x)
		114, 10, 0, // 3: POP_JUMP_IF_FALSE 10
		100, 1, 0, // 6: LOAD_CONST 1
		83,         // 9: RETURN_VALUE
		100, 2, 0, // 10: LOAD_CONST 2
		83, // 13: RETURN_VALUE
	}
	obj := &code.Simple{
		Bytes:     raw,
		ConstPool: []interface{}{nil, 1, 2},
		VarPool:   []string{"x"},
		CodeName:  "f",
		Lines:     []code.LineEntry{{StartByte: 0, LineNo: 1}},
	}

	s := New(V27)
	tokens, customize, err := s.Disassemble(obj, opc, "")
	require.NoError(t, err)
	require.Empty(t, customize)

	var kinds []string
	for _, tok := range tokens {
		kinds = append(kinds, tok.Kind)
	}
	// A plain POP_JUMP_IF_FALSE gets no fixed_jumps entry from the
	// if-then/if-else classification (detect_structure records one
	// for a conditional only when folding it into an and/or chain or
	// onto a later jump), and it isn't a 2.7 JUMP_IF_*_OR_POP either,
	// so the target collector emits no COME_FROM for its landing
	// offset.
	require.Equal(t, []string{
		"LOAD_FAST",
		"POP_JUMP_IF_FALSE",
		"LOAD_CONST",
		"RETURN_END_IF",
		"LOAD_CONST",
		"RETURN_VALUE",
	}, kinds)

	require.Equal(t, "x", tokens[0].Pattr)
	require.Equal(t, 1, tokens[0].LineStart)
	require.Equal(t, RealOffset(9), tokens[3].Offset)
	require.Equal(t, RealOffset(10), tokens[4].Offset)
}

// TestDisassembleWhileLoop covers:
//
//	def f(x):
//	    while x:
//	        x = x - 1
//	    return x
//
// exercising SETUP_LOOP classification, the ignore_if suppression of
// the loop's own condition test, and JUMP_BACK vs CONTINUE
// disambiguation for a loop with no explicit continue statement. The
// "x - 1" arithmetic step is stood in for by a bare POP_TOP: its
// semantic meaning is irrelevant here, only its size (an argument-less
// single byte opcode) matters for offset arithmetic.
func TestDisassembleWhileLoop(t *testing.T) {
	opc := opcode.NewTable(2.7)

	raw := []byte{
		120, 20, 0, // 0: SETUP_LOOP 20 (to 23)
		124, 0, 0, // 3: LOAD_FAST 0 (x)
		114, 22, 0, // 6: POP_JUMP_IF_FALSE 22
		124, 0, 0, // 9: LOAD_FAST 0 (x)
		100, 1, 0, // 12: LOAD_CONST 1
		1,          // 15: POP_TOP (stand-in for BINARY_SUBTRACT)
		125, 0, 0, // 16: STORE_FAST 0 (x)
		113, 3, 0, // 19: JUMP_ABSOLUTE 3
		87,         // 22: POP_BLOCK
		124, 0, 0, // 23: LOAD_FAST 0 (x)
		83, // 26: RETURN_VALUE
	}
	obj := &code.Simple{
		Bytes:     raw,
		ConstPool: []interface{}{nil, 1},
		VarPool:   []string{"x"},
		CodeName:  "f",
		Lines: []code.LineEntry{
			{StartByte: 0, LineNo: 2},
			{StartByte: 9, LineNo: 3},
			{StartByte: 22, LineNo: 4},
		},
	}

	s := New(V27)
	tokens, _, err := s.Disassemble(obj, opc, "")
	require.NoError(t, err)

	var kinds []string
	for _, tok := range tokens {
		kinds = append(kinds, tok.Kind)
	}
	// Only SETUP_LOOP's own forward jump (a HasJrel member) registers
	// a target, landing at offset 23 just past POP_BLOCK; the loop's
	// own conditional jump gets no fixed_jumps entry and no hasjabs-path
	// label (ignore_if only keeps it from opening an if-then struct), and
	// a plain backward JUMP_ABSOLUTE never gets a fixed_jumps entry
	// or a hasjabs-path label of its own, so it produces no COME_FROM
	// at the loop top even though it's renamed JUMP_BACK.
	require.Equal(t, []string{
		"SETUP_LOOP",
		"LOAD_FAST",
		"POP_JUMP_IF_FALSE",
		"LOAD_FAST",
		"LOAD_CONST",
		"POP_TOP",
		"STORE_FAST",
		"JUMP_BACK",
		"POP_BLOCK",
		"COME_FROM",
		"LOAD_FAST",
		"RETURN_VALUE",
	}, kinds)
}

// TestDisassembleAssert covers `assert x`, exercising load_asserts
// confirmation (the jump really does lead into a RAISE_VARARGS) and
// the LOAD_GLOBAL -> LOAD_ASSERT rename, plus varargs-arity suffixing
// of RAISE_VARARGS into the customize map.
func TestDisassembleAssert(t *testing.T) {
	opc := opcode.NewTable(2.7)

	raw := []byte{
		124, 0, 0, // 0: LOAD_FAST 0 (x)
		115, 12, 0, // 3: POP_JUMP_IF_TRUE 12
		116, 0, 0, // 6: LOAD_GLOBAL 0 (AssertionError)
		130, 1, 0, // 9: RAISE_VARARGS 1
		100, 0, 0, // 12: LOAD_CONST 0 (None)
		83, // 15: RETURN_VALUE
	}
	obj := &code.Simple{
		Bytes:     raw,
		ConstPool: []interface{}{nil},
		NamePool:  []string{"AssertionError"},
		VarPool:   []string{"x"},
		CodeName:  "f",
	}

	s := New(V27)
	tokens, customize, err := s.Disassemble(obj, opc, "")
	require.NoError(t, err)
	require.Equal(t, map[string]int{"RAISE_VARARGS_1": 1}, customize)

	var kinds []string
	for _, tok := range tokens {
		kinds = append(kinds, tok.Kind)
	}
	// The confirmed assert's POP_JUMP_IF_TRUE gets no fixed_jumps
	// entry (detect_structure returns immediately once RAISE_VARARGS
	// confirms it) and isn't a 2.7 OrPop jump, so its landing offset
	// gets no COME_FROM.
	require.Equal(t, []string{
		"LOAD_FAST",
		"POP_JUMP_IF_TRUE",
		"LOAD_ASSERT",
		"RAISE_VARARGS_1",
		"LOAD_CONST",
		"RETURN_VALUE",
	}, kinds)
	require.Equal(t, "AssertionError", tokens[2].Pattr)
}

func TestDisassembleMalformedBytecode(t *testing.T) {
	opc := opcode.NewTable(2.7)
	obj := &code.Simple{
		Bytes:    []byte{100, 0, 0}, // LOAD_CONST with no terminator
		CodeName: "bad",
	}
	s := New(V27)
	tokens, _, err := s.Disassemble(obj, opc, "")
	require.Nil(t, tokens)
	require.Error(t, err)
	require.IsType(t, MalformedBytecodeError{}, err)
}

func TestUnmangle(t *testing.T) {
	require.Equal(t, "__secret", unmangle("_Foo__secret", "Foo"))
	require.Equal(t, "_Foo__secret__", unmangle("_Foo__secret__", "Foo"))
	require.Equal(t, "plain", unmangle("plain", "Foo"))
	require.Equal(t, "_Foo__secret", unmangle("_Foo__secret", ""))
}
