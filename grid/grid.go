// Copyright 2026 The Picfem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package grid implements the structured logarithmic/linear axes and the
// guarded mesh used by the field solver and particle pusher.
package grid

import (
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/utl"
)

// Grid1D is one axis of a structured grid: (lower, upper, dim) plus the
// derived cell size delta = (upper-lower)/dim.
type Grid1D struct {
	Lower float64 // lower bound of the bulk region
	Upper float64 // upper bound of the bulk region
	Dim   int     // number of bulk cells
	Delta float64 // derived: (Upper-Lower)/Dim
}

// NewGrid1D allocates a new axis, checking delta>0 and dim>=1
func NewGrid1D(lower, upper float64, dim int) (o *Grid1D) {
	if dim < 1 {
		chk.Panic("grid dimension must be >= 1 (dim = %d is incorrect)", dim)
	}
	if upper <= lower {
		chk.Panic("grid upper bound must be greater than lower bound (lower=%v, upper=%v)", lower, upper)
	}
	o = &Grid1D{Lower: lower, Upper: upper, Dim: dim}
	o.Delta = (upper - lower) / float64(dim)
	return
}

// Abscissa returns the coordinate of cell i with fractional shift s:
// lower + delta*(i+s)
func (o *Grid1D) Abscissa(i int, s float64) float64 {
	return o.Lower + o.Delta*(float64(i)+s)
}

// LinSpace returns the bulk cell-center abscissae (s=0.5), grounded on
// gosl/utl.LinSpace for evenly spaced axis generation
func (o *Grid1D) LinSpace() []float64 {
	lo := o.Abscissa(0, 0.5)
	hi := o.Abscissa(o.Dim-1, 0.5)
	return utl.LinSpace(lo, hi, o.Dim)
}

// Grid is an ordered sequence of Grid1D axes; len(Grid) is the dimension D
// of the configuration space.
type Grid []*Grid1D

// NewGrid builds a D-dimensional grid from per-axis (lower,upper,dim) triples
func NewGrid(axes ...[3]float64) (g Grid) {
	g = make(Grid, len(axes))
	for i, a := range axes {
		g[i] = NewGrid1D(a[0], a[1], int(a[2]))
	}
	return
}

// Dims returns the per-axis bulk cell counts
func (g Grid) Dims() []int {
	dims := make([]int, len(g))
	for i, a := range g {
		dims[i] = a.Dim
	}
	return dims
}

// Mesh is a Grid plus a uniform guard width g per side per axis.
type Mesh struct {
	Grid  Grid // D-dimensional grid
	Guard int  // guard cell width, uniform per side per axis

	strides []int // derived row-major strides over the guarded extent
}

// NewMesh allocates a Mesh and computes its row-major strides
func NewMesh(g Grid, guard int) (o *Mesh) {
	if guard < 0 {
		chk.Panic("guard width must be >= 0 (guard = %d is incorrect)", guard)
	}
	o = &Mesh{Grid: g, Guard: guard}
	o.computeStrides()
	return
}

// D returns the dimensionality of the configuration space
func (o *Mesh) D() int { return len(o.Grid) }

// computeStrides builds row-major strides over the guarded extent
// [-g, dim+g) per axis, axis 0 slowest-varying is NOT used here: axis 0 is
// the fastest-varying axis to match the spec's "x-fastest, then y, then z"
// Esirkepov iteration order.
func (o *Mesh) computeStrides() {
	d := o.D()
	o.strides = make([]int, d)
	stride := 1
	for k := 0; k < d; k++ {
		o.strides[k] = stride
		stride *= o.Grid[k].Dim + 2*o.Guard
	}
}

// IsGuard reports whether the given global coordinate (bulk-relative, i.e.
// 0 is the first bulk cell) lies in a guard region on any axis
func (o *Mesh) IsGuard(coords []int) bool {
	for k, c := range coords {
		dim := o.Grid[k].Dim
		g := o.Guard
		if c < -g || c >= dim+g {
			chk.Panic("coordinate %d on axis %d is outside the guarded mesh (dim=%d, guard=%d)", c, k, dim, g)
		}
		if c < 0 || c >= dim {
			return true
		}
	}
	return false
}

// LinearIndex maps a D-dimensional guarded coordinate to a flat row-major
// index, with 0 denoting the first bulk cell on every axis.
func (o *Mesh) LinearIndex(coords []int) int {
	idx := 0
	for k, c := range coords {
		idx += (c + o.Guard) * o.strides[k]
	}
	return idx
}

// Size returns the total number of guarded cells in the mesh (bulk+guard)
func (o *Mesh) Size() int {
	n := 1
	for k := range o.Grid {
		n *= o.Grid[k].Dim + 2*o.Guard
	}
	return n
}

// BulkRange returns, per axis, the [begin,end) bulk cell range
func (o *Mesh) BulkRange() (begin, end []int) {
	d := o.D()
	begin = make([]int, d)
	end = make([]int, d)
	for k := 0; k < d; k++ {
		begin[k] = 0
		end[k] = o.Grid[k].Dim
	}
	return
}
