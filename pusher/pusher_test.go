// Copyright 2026 The Picfem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pusher

import (
	"math"
	"testing"

	"github.com/cpmech/gosl/chk"

	"github.com/cpmech/picfem/field"
	"github.com/cpmech/picfem/grid"
	"github.com/cpmech/picfem/metric"
	"github.com/cpmech/picfem/particle"
	"github.com/cpmech/picfem/rng"
	"github.com/cpmech/picfem/shape"
)

func init() {
	if !particle.Registered(particle.Electron) {
		particle.Register(particle.Electron, &particle.Properties{MassX: 1, ChargeX: -1, Name: "electron", ShortName: "e"})
	}
	if !particle.Registered(particle.Positron) {
		particle.Register(particle.Positron, &particle.Properties{MassX: 1, ChargeX: 1, Name: "positron", ShortName: "p"})
	}
}

func Test_pusher01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("pusher01. single stationary charge in free space")

	g := grid.NewGrid([3]float64{0, 8, 8}, [3]float64{0, 8, 8})
	m := grid.NewMesh(g, 2)
	e := field.NewE(m)
	b := field.NewB(m)
	j := field.NewJ(m)

	arr := particle.NewArray(particle.Electron, 1)
	arr.Append(particle.Particle{
		Q:     [3]float64{4, 4, 0},
		P:     [3]float64{0, 0, 0},
		State: particle.NewState(particle.Electron, 1, 0),
	})
	newBuf := particle.NewArray(particle.Electron, 0)

	p := NewPusher(ForceList{{Fn: Lorentz, Param: -1}}, nil, shape.NewCIC())
	mt := metric.NewSphericalLogR()
	rngSrc := rng.NewGosl()
	rngSrc.Init(1)

	err := p.Step(particle.Electron, arr, newBuf, e, b, j, m, mt, 0.01, rngSrc, func() uint32 { return 0 })
	if err != nil {
		tst.Errorf("Step failed: %v", err)
	}

	pNorm := math.Sqrt(arr.P[0][0]*arr.P[0][0] + arr.P[0][1]*arr.P[0][1] + arr.P[0][2]*arr.P[0][2])
	if pNorm > 1e-12 {
		tst.Errorf("||p|| = %v, want < 1e-12 (zero fields, no gravity)", pNorm)
	}

	// J must be zero everywhere: the particle never moved, so q0==q1 and
	// every Esirkepov weight difference (s1-s0) is exactly zero.
	for c := 0; c < j.NComp; c++ {
		if n := j.Norm(c); n > 1e-12 {
			tst.Errorf("J component %d norm = %v, want 0 (stationary charge deposits no current)", c, n)
		}
	}
}

func Test_pusher02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("pusher02. esirkepov deposition is nonzero only in the moving particle's support box")

	g := grid.NewGrid([3]float64{0, 8, 8}, [3]float64{0, 8, 8})
	m := grid.NewMesh(g, 2)
	j := field.NewJ(m)
	k := shape.NewCIC()

	Deposit(j, m, k, [2]float64{4.0, 4.0}, [2]float64{4.2, 4.0}, 0, 1, -1, 0.01)

	for iy := 0; iy < 8; iy++ {
		for ix := 0; ix < 8; ix++ {
			v := j.At(0, []int{ix, iy})
			inBox := ix >= 3 && ix <= 5 && iy >= 3 && iy <= 5
			if !inBox && v != 0 {
				tst.Errorf("J_x at (%d,%d) = %v, want 0 outside the 3x3 support box", ix, iy, v)
			}
		}
	}
	if j.At(0, []int{4, 4}) == 0 {
		tst.Errorf("J_x at the deposit cell is 0, want nonzero")
	}
}

func Test_pusher03(tst *testing.T) {

	//verbose()
	chk.PrintTitle("pusher03. esirkepov deposition round-trips the particle's actual displacement")

	g := grid.NewGrid([3]float64{0, 8, 8}, [3]float64{0, 8, 8})
	m := grid.NewMesh(g, 2)
	j := field.NewJ(m)
	k := shape.NewCIC()

	q0 := [2]float64{1.5, 2.5}
	dq := [2]float64{0.3, -0.1}
	q1 := [2]float64{q0[0] + dq[0], q0[1] + dq[1]}

	// charge=1, dt=1 so J.Add receives the raw Esirkepov weight, letting
	// the summed current equal the displacement exactly (spec.md §8
	// scenario 4's charge-conservation identity).
	Deposit(j, m, k, q0, q1, 0, 1, 1, 1)

	// q0 and q1 both fall inside the same originating cell, so CIC's 2-cell
	// support box has a single interior face, at column floor(q0.x)+1 /
	// row floor(q0.y)+1. Summing the per-cell weight across the box's far
	// column/row telescopes exactly to the particle's own Δq (the near
	// column/row sums to -Δq, and the whole box sums to 0 since both s0
	// and s1 are partitions of unity) — the genuine charge-conservation
	// identity behind "Σ cells W = Δq".
	farX := int(math.Floor(q0[0])) + 1
	farY := int(math.Floor(q0[1])) + 1

	sumX, sumY := 0.0, 0.0
	for iy := 0; iy < 8; iy++ {
		sumX += j.At(0, []int{farX, iy})
	}
	for ix := 0; ix < 8; ix++ {
		sumY += j.At(1, []int{ix, farY})
	}

	if math.Abs(sumX-dq[0]) > 1e-14 {
		tst.Errorf("sum(J_x) over the interior face = %v, want %v", sumX, dq[0])
	}
	if math.Abs(sumY-dq[1]) > 1e-14 {
		tst.Errorf("sum(J_y) over the interior face = %v, want %v", sumY, dq[1])
	}
}
