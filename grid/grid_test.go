// Copyright 2026 The Picfem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package grid

import (
	"testing"

	"github.com/cpmech/gosl/chk"
)

func Test_grid01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("grid01. Grid1D abscissa and delta")

	g := NewGrid1D(0, 1, 8)
	chk.Scalar(tst, "delta", 1e-15, g.Delta, 0.125)
	chk.Scalar(tst, "abscissa(4,0.5)", 1e-15, g.Abscissa(4, 0.5), 0.5625)
	chk.Scalar(tst, "abscissa(0,0)", 1e-15, g.Abscissa(0, 0), 0.0)
}

func Test_grid02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("grid02. Mesh guard cells and linear indexing")

	g := NewGrid(
		[3]float64{0, 1, 8},
		[3]float64{0, 3.141592653589793, 8},
	)
	m := NewMesh(g, 2)

	if m.IsGuard([]int{-1, 0}) != true {
		tst.Errorf("coordinate (-1,0) should be a guard cell")
	}
	if m.IsGuard([]int{0, 0}) != false {
		tst.Errorf("coordinate (0,0) should be a bulk cell")
	}
	if m.IsGuard([]int{7, 9}) != true {
		tst.Errorf("coordinate (7,9) should be a guard cell")
	}

	// row-major, axis 0 fastest: stride[0]=1, stride[1]=dim0+2*guard
	idx0 := m.LinearIndex([]int{0, 0})
	idx1 := m.LinearIndex([]int{1, 0})
	if idx1-idx0 != 1 {
		tst.Errorf("axis 0 should be fastest-varying: idx1-idx0 = %d, want 1", idx1-idx0)
	}
}
