// Copyright 2026 The Picfem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package solver

import (
	"math"

	"github.com/cpmech/picfem/action"
	"github.com/cpmech/picfem/field"
	"github.com/cpmech/picfem/grid"
)

// AnalyticField evaluates a prescribed E_* or B_* component as a function
// of (q0,q1,q2,t), used by ConductorInterior.
type AnalyticField func(comp int, q [3]float64, t float64) float64

// ConductorInterior overwrites E and B with prescribed analytic functions
// for cells inside the star radius (spec.md §4.2, boundary action 1).
type ConductorInterior struct {
	action.Base
	StarRadius float64
	Efunc      AnalyticField
	Bfunc      AnalyticField
	Clock      func() float64 // returns simulation time t; set by the simulator loop
}

func (o *ConductorInterior) ActionName() string { return o.Name }

func (o *ConductorInterior) Apply(e, b, j *field.Field, m *grid.Mesh, cart action.Cart, timestep int, dt float64) error {
	t := 0.0
	if o.Clock != nil {
		t = o.Clock()
	}
	forEachCell(m, func(coords []int) {
		r := math.Exp(m.Grid[0].Abscissa(coords[0], 0.5))
		if r >= o.StarRadius {
			return
		}
		q := cellCoord3(m, coords)
		for c := 0; c < e.NComp; c++ {
			e.Set(c, coords, o.Efunc(c, q, t))
			b.Set(c, coords, o.Bfunc(c, q, t))
		}
	})
	return nil
}

// DampingLayer relaxes fields toward a background value near the upper
// radial boundary: F <- (F - F_bg)*λ + F_bg, λ = 1 - rate*dt*profile(x),
// profile(x) = ½((e^x - r_b)/thickness)² (spec.md §4.2, boundary action 2).
type DampingLayer struct {
	action.Base
	Axis      int // the radial (outer-boundary) axis
	RB        float64
	Thickness float64
	Rate      float64
	Bg        func(comp int, coords []int) float64
}

func (o *DampingLayer) ActionName() string { return o.Name }

func (o *DampingLayer) Apply(e, b, j *field.Field, m *grid.Mesh, cart action.Cart, timestep int, dt float64) error {
	forEachCell(m, func(coords []int) {
		x := m.Grid[o.Axis].Abscissa(coords[o.Axis], 0.5)
		profile := 0.5 * math.Pow((math.Exp(x)-o.RB)/o.Thickness, 2)
		lambda := 1 - o.Rate*dt*profile
		for c := 0; c < e.NComp; c++ {
			bg := 0.0
			if o.Bg != nil {
				bg = o.Bg(c, coords)
			}
			v := e.At(c, coords)
			e.Set(c, coords, (v-bg)*lambda+bg)
			v = b.At(c, coords)
			b.Set(c, coords, (v-bg)*lambda+bg)
		}
	})
	return nil
}

// MirrorRule selects the sign convention applied when pairing a guard cell
// with its mirror bulk cell across the polar axis.
type MirrorRule int

const (
	Assign    MirrorRule = iota // guard <- bulk (symmetric component)
	NegAssign                   // guard <- -bulk (antisymmetric component); 0 on the axis itself
)

// AxisSymmetrize mirrors a transverse row about the polar axis, pairing a
// guard cell with its mirror bulk cell and applying Assign/NegAssign per
// component per offset class (spec.md §4.2, boundary action 3).
type AxisSymmetrize struct {
	action.Base
	Axis    int          // the polar (θ) axis
	Rules   []MirrorRule // per-component rule, length e.NComp (shared by E and B)
	// MyGuard overrides how many guard rows get mirrored (spec.md §9 open
	// question); <= 0 falls back to the mesh's own guard width.
	MyGuard int
}

func (o *AxisSymmetrize) ActionName() string { return o.Name }

func (o *AxisSymmetrize) Apply(e, b, j *field.Field, m *grid.Mesh, cart action.Cart, timestep int, dt float64) error {
	o.symmetrizeOne(e, m)
	o.symmetrizeOne(b, m)
	return nil
}

func (o *AxisSymmetrize) symmetrizeOne(f *field.Field, m *grid.Mesh) {
	g := o.MyGuard
	if g <= 0 {
		g = m.Guard
	}
	for c := 0; c < f.NComp && c < len(o.Rules); c++ {
		rule := o.Rules[c]
		// a MIDWAY component's guard row -gi mirrors bulk row gi-1; an
		// INSITU component has row 0 on the axis, so -gi mirrors +gi
		shift := 0
		if f.Offsets[c][o.Axis] == field.Insitu {
			shift = 1
		}
		forEachTransverseRow(m, o.Axis, func(rowCoords []int) {
			for gi := 1; gi <= g; gi++ {
				guardCoords := append([]int(nil), rowCoords...)
				bulkCoords := append([]int(nil), rowCoords...)
				guardCoords[o.Axis] = -gi
				bulkCoords[o.Axis] = gi - 1 + shift
				switch rule {
				case Assign:
					f.Set(c, guardCoords, f.At(c, bulkCoords))
				case NegAssign:
					f.Set(c, guardCoords, -f.At(c, bulkCoords))
				}
			}
			// the axis cell itself (coordinate 0 of an INSITU component)
			// is exactly zero for antisymmetric components
			if rule == NegAssign && shift == 1 {
				axisCoords := append([]int(nil), rowCoords...)
				axisCoords[o.Axis] = 0
				f.Set(c, axisCoords, 0)
			}
		})
	}
}

// forEachTransverseRow iterates every combination of coordinates on every
// axis except `axis`, passing a coordinate slice with position 0 on `axis`
// (the caller fills in the axis coordinate as needed).
func forEachTransverseRow(m *grid.Mesh, axis int, fn func(coords []int)) {
	begin, end := m.BulkRange()
	d := len(begin)
	coords := make([]int, d)
	copy(coords, begin)
	coords[axis] = 0
	for {
		fn(coords)
		k := 0
		for k < d {
			if k == axis {
				k++
				continue
			}
			coords[k]++
			if coords[k] < end[k] {
				break
			}
			coords[k] = begin[k]
			k++
		}
		if k == d {
			break
		}
	}
}

// cellCoord3 returns the 3-vector cell-center coordinate of `coords`,
// zero-padding any axis beyond the mesh's own dimension
func cellCoord3(m *grid.Mesh, coords []int) (q [3]float64) {
	for k := 0; k < len(coords) && k < 3; k++ {
		q[k] = m.Grid[k].Abscissa(coords[k], 0.5)
	}
	return
}
