// Copyright 2024 The go-pybc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scan2

// StructKind tags the kind of block a Struct spans.
type StructKind string

const (
	StructRoot        StructKind = "root"
	StructForLoop     StructKind = "for-loop"
	StructWhileLoop   StructKind = "while-loop"
	StructWhile1Loop  StructKind = "while 1-loop"
	StructForElse     StructKind = "for-else"
	StructWhileElse   StructKind = "while-else"
	StructWhile1Else  StructKind = "while 1-else"
	StructTry         StructKind = "try"
	StructExcept      StructKind = "except"
	StructTryElse     StructKind = "try-else"
	StructIfThen      StructKind = "if-then"
	StructIfElse      StructKind = "if-else"
	StructAndOr       StructKind = "and/or"
)

// Struct is a half-open offset interval tagged with a block kind,
// forming a node in the nested tree the structural analyzer discovers
// (§3 Data Model).
type Struct struct {
	Kind  StructKind
	Start int
	End   int
}

// contains reports whether o contains i, start- and
// end-inclusive/exclusive as defined for Struct ([Start, End)). A
// struct contains itself and any struct with the same bounds.
func (o Struct) contains(i Struct) bool {
	return i.Start >= o.Start && i.End <= o.End
}

// parentOf returns the innermost struct in structs (processed in
// discovery order, i.e. the order detect_structure appended them)
// that contains pos, starting the search from root. This mirrors
// detect_structure's own linear scan exactly: later, narrower structs
// that were already pushed by the time pos is visited take precedence
// over earlier, wider ones.
func parentOf(structs []Struct, pos int) Struct {
	parent := structs[0]
	for _, st := range structs {
		if st.Start <= pos && pos < st.End && parent.contains(st) {
			parent = st
		}
	}
	return parent
}

// restrictToParent clamps target into parent's bounds, returning
// parent.End when target falls strictly outside [parent.Start,
// parent.End] (§4.4, restrict_to_parent).
func restrictToParent(target int, parent Struct) int {
	if target < parent.Start || target > parent.End {
		return parent.End
	}
	return target
}
