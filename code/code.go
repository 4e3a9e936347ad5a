// Copyright 2024 The go-pybc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package code defines the read-only code-object container that
// package scan2 consumes. It plays the same role for scan2 that
// wasm.Function/wasm.Module play for wagon's disasm package: a
// borrowed, read-only view the scanner never owns or mutates.
package code

// LineEntry is one (start_byte, line_no) pair from a code object's
// line-number program, as produced by the host language's line-table
// encoding. Entries are ascending by StartByte.
type LineEntry struct {
	StartByte int
	LineNo    int
}

// Object is a compiled code object. Nested code objects (the bodies of
// lambdas, generator expressions, and comprehensions) satisfy the same
// interface and appear as entries of Consts.
type Object interface {
	// Code is the raw instruction byte array (co_code).
	Code() []byte
	// Consts is the constant pool (co_consts). An entry may itself be
	// an Object, in which case it is a nested code object.
	Consts() []interface{}
	// Names is the name pool (co_names), used by hasname operators.
	Names() []string
	// VarNames is the local-variable name pool (co_varnames).
	VarNames() []string
	// CellVars is the cell-variable name pool (co_cellvars).
	CellVars() []string
	// FreeVars is the free-variable name pool (co_freevars).
	FreeVars() []string
	// Name is the code object's own name (co_name), e.g. "<lambda>",
	// "<genexpr>", "<dictcomp>", "<setcomp>", or a user function name.
	Name() string
	// Filename is the source file the code object was compiled from
	// (co_filename).
	Filename() string
	// LineTable yields the line-number program as (offset, line)
	// pairs, ascending by offset, analogous to findlinestarts().
	LineTable() []LineEntry
}

// Simple is a minimal, in-memory Object used by tests and by callers
// that assemble bytecode programmatically instead of reading it from a
// container format.
type Simple struct {
	Bytes     []byte
	ConstPool []interface{}
	NamePool  []string
	VarPool   []string
	Cells     []string
	Frees     []string
	CodeName  string
	File      string
	Lines     []LineEntry
}

var _ Object = (*Simple)(nil)

func (s *Simple) Code() []byte            { return s.Bytes }
func (s *Simple) Consts() []interface{}   { return s.ConstPool }
func (s *Simple) Names() []string         { return s.NamePool }
func (s *Simple) VarNames() []string      { return s.VarPool }
func (s *Simple) CellVars() []string      { return s.Cells }
func (s *Simple) FreeVars() []string      { return s.Frees }
func (s *Simple) Name() string            { return s.CodeName }
func (s *Simple) Filename() string        { return s.File }
func (s *Simple) LineTable() []LineEntry  { return s.Lines }
