// Copyright 2026 The Picfem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pusher

import (
	"github.com/cpmech/picfem/field"
	"github.com/cpmech/picfem/grid"
	"github.com/cpmech/picfem/shape"
)

// Deposit implements the charge-conserving Esirkepov scheme for a single
// particle crossing q0 -> q1 = q0+Δq on a 2-D (D=2) configuration grid,
// with the third momentum component handled as an explicit out-of-plane
// current (spec.md §4.3's "2-D specialization", the primary geometry for
// an axisymmetric r-θ pulsar-magnetosphere grid). charge is q (particle
// charge in code units) and gamma is the particle's Lorentz factor, used
// for the out-of-plane J_z contribution.
func Deposit(j *field.Field, m *grid.Mesh, k shape.Kernel, q0, q1 [2]float64, pz, gamma, charge, dt float64) {
	d := m.D()
	if d != 2 {
		// 1-D degenerate fallback: treat axis 1 as collapsed (weight 1)
		deposit1D(j, m, k, q0[0], q1[0], pz, gamma, charge, dt)
		return
	}

	lo, hi := depositRange2(k, q0, q1)

	for iy := lo[1]; iy < hi[1]; iy++ {
		for ix := lo[0]; ix < hi[0]; ix++ {
			sx0 := k.Weight(q0[0] - float64(ix))
			sx1 := k.Weight(q1[0] - float64(ix))
			sy0 := k.Weight(q0[1] - float64(iy))
			sy1 := k.Weight(q1[1] - float64(iy))

			wx := (sx1 - sx0) * 0.5 * (sy1 + sy0)
			wy := (sy1 - sy0) * 0.5 * (sx1 + sx0)
			wz := 0.5 * (sx0*sy0 + sx1*sy1) * pz / gamma

			coords := []int{ix, iy}
			if wx != 0 {
				j.Add(0, coords, wx*charge/dt)
			}
			if wy != 0 {
				j.Add(1, coords, wy*charge/dt)
			}
			if wz != 0 {
				j.Add(2, coords, wz*charge)
			}
		}
	}
}

// deposit1D is the 1-D degenerate specialization (axis 1 collapsed): only
// the x-current has a time-integrated shape difference, y is absent, z is
// explicit as in the 2-D case.
func deposit1D(j *field.Field, m *grid.Mesh, k shape.Kernel, q0x, q1x, pz, gamma, charge, dt float64) {
	lo0, hi0 := k.Range(q0x)
	lo1, hi1 := k.Range(q1x)
	lo, hi := minInt(lo0, lo1), maxInt(hi0, hi1)
	for ix := lo; ix < hi; ix++ {
		sx0 := k.Weight(q0x - float64(ix))
		sx1 := k.Weight(q1x - float64(ix))
		wx := sx1 - sx0
		wz := 0.5 * (sx0 + sx1) * pz / gamma
		coords := []int{ix}
		if wx != 0 {
			j.Add(0, coords, wx*charge/dt)
		}
		if wz != 0 {
			j.Add(2, coords, wz*charge)
		}
	}
}

// depositRange2 unions the kernel's per-axis contributing-cell range at q0
// and at q1, since a particle crossing a cell boundary touches every cell
// either endpoint touches.
func depositRange2(k shape.Kernel, q0, q1 [2]float64) (lo, hi [2]int) {
	for a := 0; a < 2; a++ {
		lo0, hi0 := k.Range(q0[a])
		lo1, hi1 := k.Range(q1[a])
		lo[a] = minInt(lo0, lo1)
		hi[a] = maxInt(hi0, hi1)
	}
	return
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// RescaleJ rebases J from cell-integrated flux to volume density:
// J[i] *= dx[i]/prod(dx) for axes < D, J[i] /= prod(dx) for axes >= D
// (spec.md §4.3, applied once after all species have deposited).
func RescaleJ(j *field.Field, m *grid.Mesh) {
	d := m.D()
	prod := 1.0
	for k := 0; k < d; k++ {
		prod *= m.Grid[k].Delta
	}
	for c := 0; c < j.NComp; c++ {
		if c < d {
			j.Scale(c, m.Grid[c].Delta/prod)
		} else {
			j.Scale(c, 1/prod)
		}
	}
}
