// Copyright 2026 The Picfem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pusher

import (
	"github.com/cpmech/picfem/field"
	"github.com/cpmech/picfem/grid"
	"github.com/cpmech/picfem/shape"
)

// Interpolate samples every component of a field at a particle's
// normalized position q (cell-index units, relative to the mesh's cell
// centers), weighting contributions from the kernel's support box.
func Interpolate(f *field.Field, q [3]float64, m *grid.Mesh, k shape.Kernel) [3]float64 {
	var out [3]float64
	d := m.D()
	for c := 0; c < f.NComp && c < 3; c++ {
		out[c] = interpComponent(f, c, q, m, k, d)
	}
	return out
}

// interpComponent interpolates a single component, summing shape-weighted
// contributions over the kernel's per-axis contributing-cell range.
func interpComponent(f *field.Field, comp int, q [3]float64, m *grid.Mesh, k shape.Kernel, d int) float64 {
	ranges := make([][2]int, d)
	shifts := make([]float64, d)
	for a := 0; a < d; a++ {
		shift := f.Offsets[comp][a].Value()
		shifts[a] = shift
		qa := q[a] - shift
		lo, hi := k.Range(qa)
		ranges[a] = [2]int{lo, hi}
	}

	sum := 0.0
	coords := make([]int, d)
	for a := range coords {
		coords[a] = ranges[a][0]
	}
	for {
		w := 1.0
		for a := 0; a < d; a++ {
			delta := (q[a] - shifts[a]) - float64(coords[a])
			w *= k.Weight(delta)
		}
		if w != 0 {
			sum += w * f.At(comp, coords)
		}
		axis := 0
		for axis < d {
			coords[axis]++
			if coords[axis] < ranges[axis][1] {
				break
			}
			coords[axis] = ranges[axis][0]
			axis++
		}
		if axis == d {
			break
		}
	}
	return sum
}
