// Copyright 2024 The go-pybc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scan2

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParentOfPicksInnermost(t *testing.T) {
	structs := []Struct{
		{Kind: StructRoot, Start: 0, End: 100},
		{Kind: StructForLoop, Start: 10, End: 50},
		{Kind: StructIfThen, Start: 20, End: 30},
	}
	require.Equal(t, StructIfThen, parentOf(structs, 25).Kind)
	require.Equal(t, StructForLoop, parentOf(structs, 40).Kind)
	require.Equal(t, StructRoot, parentOf(structs, 60).Kind)
}

func TestParentOfHonorsDiscoveryOrder(t *testing.T) {
	// A later, wider struct must not override an earlier narrower one
	// unless it is actually contained within it, mirroring
	// detect_structure's linear scan over structs as they accumulate.
	structs := []Struct{
		{Kind: StructRoot, Start: 0, End: 100},
		{Kind: StructIfThen, Start: 20, End: 30},
		{Kind: StructForLoop, Start: 0, End: 100},
	}
	require.Equal(t, StructIfThen, parentOf(structs, 25).Kind)
}

func TestRestrictToParentClamps(t *testing.T) {
	parent := Struct{Start: 10, End: 40}
	require.Equal(t, 40, restrictToParent(50, parent))
	require.Equal(t, 40, restrictToParent(5, parent))
	require.Equal(t, 25, restrictToParent(25, parent))
}
