// Copyright 2026 The Picfem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package solver

import (
	"testing"

	"github.com/cpmech/gosl/chk"

	"github.com/cpmech/picfem/action"
	"github.com/cpmech/picfem/field"
	"github.com/cpmech/picfem/grid"
	"github.com/cpmech/picfem/metric"
)

func Test_solver01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("solver01. empty universe: zero fields stay zero")

	g := grid.NewGrid([3]float64{0, 1, 8}, [3]float64{0, 3.141592653589793, 8})
	m := grid.NewMesh(g, 2)
	e := field.NewE(m)
	b := field.NewB(m)
	j := field.NewJ(m)

	ops := NewOperatorTable(CentralDiff)
	mt := metric.NewSphericalLogR()
	scheme := NewClassic()

	for step := 0; step < 10; step++ {
		err := scheme.Advance(e, b, j, m, mt, ops, 0.01)
		if err != nil {
			tst.Errorf("Advance failed: %v", err)
		}
	}

	maxE := 0.0
	maxB := 0.0
	for c := 0; c < e.NComp; c++ {
		if n := e.Norm(c); n > maxE {
			maxE = n
		}
		if n := b.Norm(c); n > maxB {
			maxB = n
		}
	}
	if maxE+maxB != 0 {
		tst.Errorf("max|E|+max|B| = %v, want 0 (empty universe)", maxE+maxB)
	}
}

func Test_solver02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("solver02. axisymmetrize mirrors a transverse row")

	g := grid.NewGrid([3]float64{0, 1, 4}, [3]float64{0, 3.141592653589793, 4})
	m := grid.NewMesh(g, 1)
	e := field.NewE(m)

	// E[2] (E_φ) is INSITU on axis 1 in 2D (since component 2 has no axis
	// of its own among the 2 grid axes), use a rule list matching the 3
	// field components. Row 0 of an INSITU component lies on the axis, so
	// guard row -1 mirrors bulk row 1.
	rules := []MirrorRule{Assign, Assign, NegAssign}
	az := &AxisSymmetrize{Axis: 1, Rules: rules, Base: action.Base{Name: "axisym"}}

	e.Set(2, []int{0, 1}, 5.0)
	err := az.Apply(e, e, e, m, nil, 0, 0.01)
	if err != nil {
		tst.Errorf("Apply failed: %v", err)
	}
	if e.At(2, []int{0, -1}) != -5.0 {
		tst.Errorf("guard mirror of E_φ = %v, want -5", e.At(2, []int{0, -1}))
	}
}
