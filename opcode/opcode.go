// Copyright 2024 The go-pybc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package opcode provides the read-only instruction table consumed by
// package scan2. It plays the same role for scan2 that package
// operators plays for wagon's disasm package: a flat table of
// mnemonics, argument categories and version-specific quirks, built
// once and never mutated by its consumer.
//
// The table models the bytecode family used by CPython 2.5 through
// 2.7. It is a simplified, internally-consistent reconstruction of
// that family's real opcode.py, not a byte-exact port: scan2 only
// requires that the category sets (hasconst, hasname, ...) agree with
// the numeric opcodes it is handed, and that is what this package
// guarantees.
package opcode

// Op is an 8-bit operation code.
type Op = byte

// Set is a bitset over the 256 possible opcodes.
type Set [256]bool

// NewSet builds a Set containing the given opcodes.
func NewSet(ops ...Op) Set {
	var s Set
	for _, op := range ops {
		s[op] = true
	}
	return s
}

// Has reports whether op is a member of s.
func (s Set) Has(op Op) bool { return s[op] }

// Add inserts op into s.
func (s *Set) Add(op Op) { s[op] = true }

// Table is the read-only, version-specific operation table. scan2
// borrows a *Table for the lifetime of a single Disassemble call and
// never mutates it.
type Table struct {
	Version float64

	Name         [256]string
	HaveArgument Op

	// hasArgumentExtended holds opcodes below HaveArgument that still
	// carry a 2-byte argument (there are none in this family, but the
	// slot exists so C1's op_size predicate has a single source of
	// truth, per §9's design note).
	HasArgumentExtended Set

	HasConst   Set
	HasName    Set
	HasJrel    Set
	HasJabs    Set
	HasLocal   Set
	HasCompare Set
	HasFree    Set

	CmpOp []string

	StmtOpcodes    Set
	DesignatorOps  Set
	VarargsOps     Set
	SetupOps       Set
	PopJumpIfOrPop Set

	// Symbolic opcodes named directly in spec §6.
	PJIF, PJIT             Op
	JA, JF                 Op
	SetupLoop              Op
	SetupExcept            Op
	SetupFinally           Op
	EndFinally             Op
	PopBlock               Op
	PopTop                 Op
	DupTop                 Op
	RotTwo                 Op
	ForIter                Op
	GetIter                Op
	ListAppend             Op
	LoadConst              Op
	LoadGlobal             Op
	LoadClosure            Op
	BuildTuple             Op
	BuildSlice             Op
	PrintItem              Op
	PrintNewline           Op
	ImportName             Op
	ImportFrom             Op
	ImportStar             Op
	ReturnValue            Op
	RaiseVarargs           Op
	ExtendedArg            Op
	JumpIfFalseOrPop       Op
	JumpIfTrueOrPop        Op
}

// the canonical CPython 2.x opcode numbering shared by every version
// this table builds.
const (
	opStoreName       Op = 90
	opDeleteName      Op = 91
	opUnpackSequence  Op = 92
	opForIter         Op = 93
	opListAppend      Op = 94
	opStoreAttr       Op = 95
	opDeleteAttr      Op = 96
	opStoreGlobal     Op = 97
	opDeleteGlobal    Op = 98
	opDupTopx         Op = 99
	opLoadConst       Op = 100
	opLoadName        Op = 101
	opBuildTuple      Op = 102
	opBuildList       Op = 103
	opBuildSet        Op = 104
	opBuildMap        Op = 105
	opLoadAttr        Op = 106
	opCompareOp       Op = 107
	opImportName      Op = 108
	opImportFrom      Op = 109
	opJumpForward     Op = 110
	opJIFOrPop        Op = 111
	opJITOrPop        Op = 112
	opJumpAbsolute    Op = 113
	opPopJumpIfFalse  Op = 114
	opPopJumpIfTrue   Op = 115
	opLoadGlobal      Op = 116
	opContinueLoop    Op = 119
	opSetupLoop       Op = 120
	opSetupExcept     Op = 121
	opSetupFinally    Op = 122
	opLoadFast        Op = 124
	opStoreFast       Op = 125
	opDeleteFast      Op = 126
	opRaiseVarargs    Op = 130
	opCallFunction    Op = 131
	opMakeFunction    Op = 132
	opBuildSlice      Op = 133
	opMakeClosure     Op = 134
	opLoadClosure     Op = 135
	opLoadDeref       Op = 136
	opStoreDeref      Op = 137
	opCallFunctionVar Op = 140
	opCallFunctionKw  Op = 141
	opCallFunctionVK  Op = 142
	opExtendedArg     Op = 143

	opPopTop        Op = 1
	opRotTwo        Op = 2
	opDupTop        Op = 4
	opGetIter       Op = 68
	opPrintItem     Op = 71
	opPrintNewline  Op = 72
	opBreakLoop     Op = 80
	opWithCleanup   Op = 81
	opReturnValue   Op = 83
	opImportStar    Op = 84
	opYieldValue    Op = 86
	opPopBlock      Op = 87
	opEndFinally    Op = 88
	opStoreSubscr   Op = 60

	haveArgument Op = 90
)

var mnemonic = map[Op]string{
	opPopTop: "POP_TOP", opRotTwo: "ROT_TWO", opDupTop: "DUP_TOP",
	opGetIter: "GET_ITER", opPrintItem: "PRINT_ITEM",
	opPrintNewline: "PRINT_NEWLINE", opBreakLoop: "BREAK_LOOP",
	opWithCleanup: "WITH_CLEANUP", opReturnValue: "RETURN_VALUE",
	opImportStar: "IMPORT_STAR", opYieldValue: "YIELD_VALUE",
	opPopBlock: "POP_BLOCK", opEndFinally: "END_FINALLY",
	opStoreSubscr: "STORE_SUBSCR",

	opStoreName: "STORE_NAME", opDeleteName: "DELETE_NAME",
	opUnpackSequence: "UNPACK_SEQUENCE", opForIter: "FOR_ITER",
	opListAppend: "LIST_APPEND", opStoreAttr: "STORE_ATTR",
	opDeleteAttr: "DELETE_ATTR", opStoreGlobal: "STORE_GLOBAL",
	opDeleteGlobal: "DELETE_GLOBAL", opDupTopx: "DUP_TOPX",
	opLoadConst: "LOAD_CONST", opLoadName: "LOAD_NAME",
	opBuildTuple: "BUILD_TUPLE", opBuildList: "BUILD_LIST",
	opBuildSet: "BUILD_SET", opBuildMap: "BUILD_MAP",
	opLoadAttr: "LOAD_ATTR", opCompareOp: "COMPARE_OP",
	opImportName: "IMPORT_NAME", opImportFrom: "IMPORT_FROM",
	opJumpForward: "JUMP_FORWARD", opJIFOrPop: "JUMP_IF_FALSE_OR_POP",
	opJITOrPop: "JUMP_IF_TRUE_OR_POP", opJumpAbsolute: "JUMP_ABSOLUTE",
	opPopJumpIfFalse: "POP_JUMP_IF_FALSE", opPopJumpIfTrue: "POP_JUMP_IF_TRUE",
	opLoadGlobal: "LOAD_GLOBAL", opContinueLoop: "CONTINUE_LOOP",
	opSetupLoop: "SETUP_LOOP", opSetupExcept: "SETUP_EXCEPT",
	opSetupFinally: "SETUP_FINALLY", opLoadFast: "LOAD_FAST",
	opStoreFast: "STORE_FAST", opDeleteFast: "DELETE_FAST",
	opRaiseVarargs: "RAISE_VARARGS", opCallFunction: "CALL_FUNCTION",
	opMakeFunction: "MAKE_FUNCTION", opBuildSlice: "BUILD_SLICE",
	opMakeClosure: "MAKE_CLOSURE", opLoadClosure: "LOAD_CLOSURE",
	opLoadDeref: "LOAD_DEREF", opStoreDeref: "STORE_DEREF",
	opCallFunctionVar: "CALL_FUNCTION_VAR", opCallFunctionKw: "CALL_FUNCTION_KW",
	opCallFunctionVK: "CALL_FUNCTION_VAR_KW", opExtendedArg: "EXTENDED_ARG",
}

var cmpOps = []string{
	"<", "<=", "==", "!=", ">", ">=", "in", "not in",
	"is", "is not", "exception match", "BAD",
}

// NewTable builds the opcode table for the given Python 2.x minor
// version (2.5, 2.6 or 2.7). Only the parts of the table that the
// analyzer actually branches on (§9: "the only version-specific logic
// is (a) ... (b) ...") differ between versions: on 2.7,
// JUMP_IF_FALSE_OR_POP/JUMP_IF_TRUE_OR_POP get their symbolic fields
// and join HasJabs and PopJumpIfOrPop. Their mnemonics are in the
// shared name table for every version.
func NewTable(version float64) *Table {
	t := &Table{
		Version:      version,
		HaveArgument: haveArgument,
		PJIF:         opPopJumpIfFalse,
		PJIT:         opPopJumpIfTrue,
		JA:           opJumpAbsolute,
		JF:           opJumpForward,
		SetupLoop:    opSetupLoop,
		SetupExcept:  opSetupExcept,
		SetupFinally: opSetupFinally,
		EndFinally:   opEndFinally,
		PopBlock:     opPopBlock,
		PopTop:       opPopTop,
		DupTop:       opDupTop,
		RotTwo:       opRotTwo,
		ForIter:      opForIter,
		GetIter:      opGetIter,
		ListAppend:   opListAppend,
		LoadConst:    opLoadConst,
		LoadGlobal:   opLoadGlobal,
		LoadClosure:  opLoadClosure,
		BuildTuple:   opBuildTuple,
		BuildSlice:   opBuildSlice,
		PrintItem:    opPrintItem,
		PrintNewline: opPrintNewline,
		ImportName:   opImportName,
		ImportFrom:   opImportFrom,
		ImportStar:   opImportStar,
		ReturnValue:  opReturnValue,
		RaiseVarargs: opRaiseVarargs,
		ExtendedArg:  opExtendedArg,
	}

	for op, name := range mnemonic {
		t.Name[op] = name
	}

	t.CmpOp = cmpOps

	t.HasConst = NewSet(opLoadConst)
	t.HasName = NewSet(opStoreName, opDeleteName, opStoreAttr, opDeleteAttr,
		opStoreGlobal, opDeleteGlobal, opLoadName, opLoadAttr, opImportName,
		opImportFrom, opLoadGlobal)
	t.HasJrel = NewSet(opJumpForward, opForIter, opSetupLoop, opSetupExcept, opSetupFinally)
	t.HasJabs = NewSet(opJumpAbsolute, opPopJumpIfFalse, opPopJumpIfTrue)
	t.HasLocal = NewSet(opLoadFast, opStoreFast, opDeleteFast)
	t.HasCompare = NewSet(opCompareOp)
	t.HasFree = NewSet(opLoadClosure, opLoadDeref, opStoreDeref)

	t.StmtOpcodes = NewSet(
		opStoreFast, opStoreName, opStoreGlobal, opStoreDeref, opStoreAttr, opStoreSubscr,
		opDeleteFast, opDeleteName, opDeleteGlobal, opDeleteAttr,
		opReturnValue, opRaiseVarargs, opBreakLoop, opContinueLoop, opYieldValue,
		opPrintItem, opPrintNewline, opImportStar, opWithCleanup,
		opSetupLoop, opSetupExcept, opSetupFinally, opPopBlock,
		opPopJumpIfFalse, opPopJumpIfTrue, opJumpAbsolute,
	)
	t.DesignatorOps = NewSet(opStoreFast, opStoreName, opStoreGlobal,
		opStoreDeref, opStoreAttr, opStoreSubscr, opUnpackSequence)
	t.VarargsOps = NewSet(opCallFunction, opCallFunctionVar, opCallFunctionKw,
		opCallFunctionVK, opMakeFunction, opMakeClosure, opBuildTuple,
		opBuildList, opBuildSet, opBuildMap, opBuildSlice, opDupTopx,
		opUnpackSequence, opRaiseVarargs)
	t.SetupOps = NewSet(opSetupExcept, opSetupLoop, opSetupFinally)

	if version >= 2.7 {
		t.Name[opJIFOrPop] = "JUMP_IF_FALSE_OR_POP"
		t.Name[opJITOrPop] = "JUMP_IF_TRUE_OR_POP"
		t.JumpIfFalseOrPop = opJIFOrPop
		t.JumpIfTrueOrPop = opJITOrPop
		t.HasJabs.Add(opJIFOrPop)
		t.HasJabs.Add(opJITOrPop)
		t.PopJumpIfOrPop = NewSet(opJIFOrPop, opJITOrPop)
		t.Name[opBuildSet] = "BUILD_SET"
	}

	return t
}

// Is27 reports whether this table describes CPython 2.7, the only
// version that has JUMP_IF_{FALSE,TRUE}_OR_POP and the stricter
// END_FINALLY predecessor assertion in next_except_jump (§9).
func (t *Table) Is27() bool { return t.Version >= 2.7 }
