// Copyright 2024 The go-pybc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scan2

import "github.com/go-pybc/scan2/code"

// lineEntry is self.lines[offset]: the source line a byte offset
// belongs to, and the offset of the first instruction on the next
// source line.
type lineEntry struct {
	lineNo int
	next   int
}

// lineMap is component C2: an offset -> (line_no, next_line_start)
// lookup table built once from a code object's line-number program.
type lineMap struct {
	lines     []lineEntry // indexed by offset, len == n
	starts    map[int]int // offset -> line_no, for offsets that start a line
}

// buildLineMap fills lines[0..n) from the code object's ascending
// (start_byte, line_no) program, the way build_lines_data does.
func buildLineMap(lt []code.LineEntry, n int) *lineMap {
	lm := &lineMap{
		lines:  make([]lineEntry, n),
		starts: make(map[int]int, len(lt)),
	}
	if len(lt) == 0 {
		return lm
	}
	for _, e := range lt {
		lm.starts[e.StartByte] = e.LineNo
	}

	j := 0
	prevLine := lt[0].LineNo
	for _, e := range lt[1:] {
		for j < e.StartByte {
			lm.lines[j] = lineEntry{lineNo: prevLine, next: e.StartByte}
			j++
		}
		prevLine = e.LineNo
	}
	for j < n {
		lm.lines[j] = lineEntry{lineNo: prevLine, next: n}
		j++
	}
	return lm
}

// at returns the (line_no, next_line_start) pair for offset.
func (lm *lineMap) at(offset int) lineEntry { return lm.lines[offset] }

// lineStart returns the line number that begins at offset, and
// whether offset does start a line.
func (lm *lineMap) lineStart(offset int) (int, bool) {
	n, ok := lm.starts[offset]
	return n, ok
}
