// Copyright 2024 The go-pybc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scan2

import "github.com/dolthub/swiss"

// targetMap is component C5's output: offset -> the offsets of every
// jump instruction that targets it, in ascending discovery order (the
// order COME_FROM markers must be emitted in). Lookup is always by
// exact key, so an unordered backing map never leaks into observable
// behavior; only the per-key []int slice preserves order.
type targetMap struct {
	m *swiss.Map[int, []int]
}

func newTargetMap() *targetMap {
	return &targetMap{m: swiss.NewMap[int, []int](32)}
}

func (t *targetMap) add(label, source int) {
	sources, _ := t.m.Get(label)
	t.m.Put(label, append(sources, source))
}

func (t *targetMap) sourcesOf(label int) ([]int, bool) {
	return t.m.Get(label)
}

// buildTargets is component C5. It walks every instruction once and
// records which offset(s) jump to it, honoring fixed_jumps overrides
// computed during structural analysis and the -1 "never a real
// target" sentinel left by detectSetupExcept, per §4.5.
func (s *Scanner) buildTargets() *targetMap {
	opc, c := s.opc, s.cursor
	n := len(c.code)
	targets := newTargetMap()

	for _, offset := range c.opRange(0, n) {
		op := c.code[offset]
		switch {
		case opc.HasJrel.Has(op) || opc.HasJabs.Has(op):
			label, ok := s.fixedJumps[offset]
			if !ok {
				oparg := c.getArgument(offset)
				switch {
				case opc.HasJrel.Has(op) && op != opc.ForIter:
					label, ok = offset+3+oparg, true
				case s.version.Is27() && opc.PopJumpIfOrPop.Has(op):
					if oparg > offset {
						label, ok = oparg, true
					}
				}
			}
			if ok && label != fixedJumpUnresolved {
				targets.add(label, offset)
			}
		case op == opc.EndFinally:
			if label, ok := s.fixedJumps[offset]; ok {
				targets.add(label, offset)
			}
		}
	}
	return targets
}
