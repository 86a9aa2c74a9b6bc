// Copyright 2026 The Picfem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package migrate

import (
	"testing"

	"github.com/cpmech/gosl/chk"

	"github.com/cpmech/picfem/ensemble"
	"github.com/cpmech/picfem/grid"
	"github.com/cpmech/picfem/particle"
)

func init() {
	if !particle.Registered(particle.Electron) {
		particle.Register(particle.Electron, &particle.Properties{MassX: 1, ChargeX: -1, Name: "electron", ShortName: "e"})
	}
}

func Test_migrate01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("migrate01. single-rank periodic wrap brings a particle back into the bulk")

	g := grid.NewGrid([3]float64{0, 8, 8}, [3]float64{0, 8, 8})
	m := grid.NewMesh(g, 2)

	topo := ensemble.Topology{Dims: []int{1, 1}, Periodic: []bool{true, true}}
	ens := ensemble.NewSingleRank(topo)

	arr := particle.NewArray(particle.Electron, 1)
	arr.Append(particle.Particle{Q: [3]float64{-0.5, 4, 0}, P: [3]float64{0, 0, 0}, State: particle.NewState(particle.Electron, 1, 0)})
	particles := map[particle.Species]*particle.Array{particle.Electron: arr}

	mig := NewMigrator(2)
	for k := range mig.BoundaryPolicy {
		mig.BoundaryPolicy[k] = Periodic
	}

	err := mig.Run(ens, particles, m, 0.01)
	if err != nil {
		tst.Errorf("Run failed: %v", err)
	}
	if arr.Len() != 1 {
		tst.Fatalf("particle count = %d, want 1", arr.Len())
	}
	if arr.Q[0][0] < 0 || arr.Q[0][0] >= 8 {
		tst.Errorf("Q[0] = %v, want in [0,8) after periodic wrap", arr.Q[0][0])
	}
}

func Test_migrate02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("migrate02. non-periodic boundary with Drop policy removes the particle")

	g := grid.NewGrid([3]float64{0, 8, 8}, [3]float64{0, 8, 8})
	m := grid.NewMesh(g, 2)

	topo := ensemble.Topology{Dims: []int{1, 1}, Periodic: []bool{false, false}}
	ens := ensemble.NewSingleRank(topo)

	arr := particle.NewArray(particle.Electron, 1)
	arr.Append(particle.Particle{Q: [3]float64{-0.5, 4, 0}, P: [3]float64{0, 0, 0}, State: particle.NewState(particle.Electron, 1, 0)})
	particles := map[particle.Species]*particle.Array{particle.Electron: arr}

	mig := NewMigrator(2)
	err := mig.Run(ens, particles, m, 0.01)
	if err != nil {
		tst.Errorf("Run failed: %v", err)
	}
	if arr.Count() != 0 {
		tst.Errorf("surviving particle count = %d, want 0 (dropped at non-periodic boundary)", arr.Count())
	}
}
