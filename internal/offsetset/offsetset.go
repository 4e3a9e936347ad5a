// Copyright 2024 The go-pybc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package offsetset implements a small set of bytecode offsets. Per
// the scanner's design notes, offsets fit in 32 bits and the auxiliary
// sets built during structural analysis (ignore_if, not_continue,
// return_end_ifs, load_asserts, stmts) are all sets of them; this type
// is their common representation.
package offsetset

// Set is a set of int32 bytecode offsets.
type Set map[int32]struct{}

// New builds a Set containing the given offsets.
func New(offs ...int) Set {
	s := make(Set, len(offs))
	for _, o := range offs {
		s[int32(o)] = struct{}{}
	}
	return s
}

// Add inserts offset into s.
func (s Set) Add(offset int) { s[int32(offset)] = struct{}{} }

// Remove deletes offset from s, if present.
func (s Set) Remove(offset int) { delete(s, int32(offset)) }

// Has reports whether offset is a member of s.
func (s Set) Has(offset int) bool {
	_, ok := s[int32(offset)]
	return ok
}

// Len returns the number of offsets in s.
func (s Set) Len() int { return len(s) }
