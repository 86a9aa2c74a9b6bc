// Copyright 2026 The Picfem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ensemble

import (
	"testing"

	"github.com/cpmech/gosl/chk"

	"github.com/cpmech/picfem/field"
	"github.com/cpmech/picfem/grid"
)

func Test_ensemble01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("ensemble01. single-rank ensemble invariants")

	ens := NewSingleRank(Topology{Dims: []int{1, 1}, Periodic: []bool{false, false}})
	if ens.Size() != 1 {
		tst.Errorf("Size() = %d, want 1", ens.Size())
	}
	if !ens.IsChief() {
		tst.Errorf("single-rank ensemble must be its own chief")
	}
	if !ens.IsPrimary() {
		tst.Errorf("single-rank ensemble must be its own primary")
	}
}

func Test_ensemble02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("ensemble02. guard sync is a no-op for a single-rank ensemble")

	ens := NewSingleRank(Topology{Dims: []int{1}, Periodic: []bool{false}})
	g := grid.NewGrid([3]float64{0, 1, 4})
	m := grid.NewMesh(g, 1)
	f := field.NewE(m)
	f.Set(0, []int{0}, 7)
	ens.SyncGuardCopy(f)
	if f.At(0, []int{0}) != 7 {
		tst.Errorf("guard sync must not perturb bulk data in a single-rank ensemble")
	}
}
