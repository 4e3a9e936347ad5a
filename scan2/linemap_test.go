// Copyright 2024 The go-pybc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scan2

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/go-pybc/scan2/code"
)

func TestBuildLineMap(t *testing.T) {
	lt := []code.LineEntry{
		{StartByte: 0, LineNo: 1},
		{StartByte: 6, LineNo: 2},
		{StartByte: 10, LineNo: 4},
	}
	lm := buildLineMap(lt, 14)

	require.Equal(t, lineEntry{lineNo: 1, next: 6}, lm.at(0))
	require.Equal(t, lineEntry{lineNo: 1, next: 6}, lm.at(3))
	require.Equal(t, lineEntry{lineNo: 2, next: 10}, lm.at(6))
	require.Equal(t, lineEntry{lineNo: 4, next: 14}, lm.at(13))

	ln, ok := lm.lineStart(6)
	require.True(t, ok)
	require.Equal(t, 2, ln)

	_, ok = lm.lineStart(7)
	require.False(t, ok)
}

func TestBuildLineMapEmpty(t *testing.T) {
	lm := buildLineMap(nil, 4)
	require.Equal(t, lineEntry{}, lm.at(0))
	_, ok := lm.lineStart(0)
	require.False(t, ok)
}
