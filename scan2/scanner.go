// Copyright 2024 The go-pybc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package scan2 turns a compiled Python 2.5-2.7 code object into an
// annotated token stream a context-free grammar can parse, recovering
// the block structure (loops, try/except/finally, conditionals,
// short-circuit booleans, comprehensions) that the compiler's
// jump-based bytecode threw away.
package scan2

import (
	"strings"

	"github.com/go-pybc/scan2/code"
	"github.com/go-pybc/scan2/internal/offsetset"
	"github.com/go-pybc/scan2/opcode"
)

// Scanner holds the working state of a single Disassemble call. A
// Scanner is not safe for concurrent use, but is cheap to construct
// and safe to reuse sequentially across many code objects of the same
// bytecode version.
type Scanner struct {
	version Version
	opc     *opcode.Table

	cursor *cursor
	lines  *lineMap
	prev   []int

	stmts    offsetset.Set
	nextStmt []int

	loadAsserts offsetset.Set

	structs      []Struct
	fixedJumps   map[int]int
	ignoreIf     offsetset.Set
	notContinue  offsetset.Set
	returnEndIfs offsetset.Set
	loops        []int

	// fail records a fatal error discovered mid structural-analysis
	// (detectStructure has no error return of its own, since the
	// original detect_structure is a void method too).
	fail error
}

// New returns a Scanner for the given bytecode version.
func New(version Version) *Scanner {
	return &Scanner{version: version}
}

// Disassemble runs the full pipeline (C1 through C7) over obj, using
// opc to interpret its opcodes, and classname to unmangle private
// attribute names. It returns the final token stream and the
// varargs-arity customize counts the grammar builder needs, or an
// error if obj's bytecode is malformed.
func (s *Scanner) Disassemble(obj code.Object, opc *opcode.Table, classname string) ([]Token, map[string]int, error) {
	logger.Printf("disassembling %s (version %v)", obj.Name(), s.version)

	raw, err := setupCode(obj.Code(), opc, obj.Name())
	if err != nil {
		return nil, nil, err
	}

	s.opc = opc
	s.cursor = &cursor{code: raw, opc: opc}
	s.lines = buildLineMap(obj.LineTable(), len(raw))
	s.fail = nil

	s.buildPrevMap()
	s.buildLoadAsserts(obj.Names())
	s.buildStmts()
	s.buildStructs()
	if s.fail != nil {
		return nil, nil, s.fail
	}

	targets := s.buildTargets()
	e := newEmitter(s, obj, classname)
	tokens, customize, err := e.emit(targets)
	if err != nil {
		return nil, nil, err
	}
	logger.Printf("%s: %d tokens, %d custom varargs rules", obj.Name(), len(tokens), len(customize))
	return tokens, customize, nil
}

// buildPrevMap fills prev so that prev[offset] is the start offset of
// the instruction immediately preceding offset, for every byte
// position 0..len(code]. It is built by walking instructions in order
// and repeating each one's own offset once per byte it occupies,
// exactly as the original build_prev_op does.
func (s *Scanner) buildPrevMap() {
	c := s.cursor
	n := len(c.code)
	prev := make([]int, 1, n+1)
	prev[0] = 0
	for _, offset := range c.opRange(0, n) {
		sz := c.opSize(c.code[offset])
		for k := 0; k < sz; k++ {
			prev = append(prev, offset)
		}
	}
	s.prev = prev
}

// buildLoadAsserts finds every LOAD_GLOBAL 'AssertionError' that
// immediately follows a POP_JUMP_IF_TRUE, the bytecode shape `assert`
// statements compile to. detectConditional later confirms or retracts
// each candidate once it can see whether the jump actually leads into
// a RAISE_VARARGS (§4.4.c).
func (s *Scanner) buildLoadAsserts(names []string) {
	c, opc := s.cursor, s.opc
	s.loadAsserts = offsetset.New()
	n := len(c.code)
	for _, i := range c.opRange(0, n) {
		if c.code[i] != opc.PJIT {
			continue
		}
		j := i + c.opSize(c.code[i])
		if j >= n || c.code[j] != opc.LoadGlobal {
			continue
		}
		idx := c.getArgument(j)
		if idx >= 0 && idx < len(names) && names[idx] == "AssertionError" {
			s.loadAsserts.Add(j)
		}
	}
}

// unmangle reverses Python's private-name mangling (a bare __attr
// reference inside class Foo compiles to the name _Foo__attr) so
// Pattr shows the name as written in source, per §6.
func unmangle(name, classname string) string {
	if classname == "" {
		return name
	}
	prefix := "_" + strings.TrimLeft(classname, "_") + "__"
	if strings.HasPrefix(name, prefix) && !strings.HasSuffix(name, "__") {
		return "__" + name[len(prefix):]
	}
	return name
}
