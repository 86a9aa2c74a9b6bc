// Copyright 2026 The Picfem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package field implements the multi-component staggered field container
// over a grid.Mesh, following the Yee lattice convention.
package field

import (
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/la"

	"github.com/cpmech/picfem/grid"
)

// Offset is a per-axis component offset in the Yee staggering: 0 (cell
// corner, INSITU) or ½ (cell center, MIDWAY)
type Offset int

const (
	Insitu Offset = iota // cell corner, offset 0
	Midway               // cell center, offset 1/2
)

// Value returns the fractional shift associated with an offset
func (o Offset) Value() float64 {
	if o == Midway {
		return 0.5
	}
	return 0.0
}

// Field is a mapping from a grid.Mesh to N component arrays of float64,
// each with its own per-axis offset.
type Field struct {
	Mesh    *grid.Mesh  // underlying mesh
	NComp   int         // number of components
	Offsets [][]Offset  // [comp][axis] offset
	Data    [][]float64 // [comp][linear cell index]
}

// New allocates a Field with nComp components, each with the given
// per-axis offsets (offsets[c] has length mesh.D())
func New(m *grid.Mesh, offsets [][]Offset) (o *Field) {
	nComp := len(offsets)
	o = &Field{Mesh: m, NComp: nComp, Offsets: offsets}
	o.Data = make([][]float64, nComp)
	size := m.Size()
	for c := 0; c < nComp; c++ {
		if len(offsets[c]) != m.D() {
			chk.Panic("offsets for component %d must have length %d (mesh dimension); got %d", c, m.D(), len(offsets[c]))
		}
		o.Data[c] = la.VecAlloc(size)
	}
	return
}

// NewE allocates the E field following the Yee convention: E_k is MIDWAY on
// axis k and INSITU on every other axis
func NewE(m *grid.Mesh) *Field { return New(m, yeeOffsets(m.D())) }

// NewB allocates the B field following the Yee convention: B_k is INSITU on
// axis k and MIDWAY on every other axis (complementary to E)
func NewB(m *grid.Mesh) *Field {
	eOff := yeeOffsets(m.D())
	bOff := make([][]Offset, len(eOff))
	for c := range eOff {
		bOff[c] = make([]Offset, m.D())
		for a := range eOff[c] {
			if eOff[c][a] == Midway {
				bOff[c][a] = Insitu
			} else {
				bOff[c][a] = Midway
			}
		}
	}
	return New(m, bOff)
}

// NewJ allocates the J field, which follows the same offsets as E
func NewJ(m *grid.Mesh) *Field { return New(m, yeeOffsets(m.D())) }

// yeeOffsets builds the canonical E-field offset table for a D-dimensional
// mesh: component k is MIDWAY on axis k, INSITU elsewhere. There are always
// 3 field components (Dptc=3) regardless of configuration-space dimension D.
func yeeOffsets(d int) [][]Offset {
	const nComp = 3
	off := make([][]Offset, nComp)
	for c := 0; c < nComp; c++ {
		off[c] = make([]Offset, d)
		for a := 0; a < d; a++ {
			if c == a {
				off[c][a] = Midway
			} else {
				off[c][a] = Insitu
			}
		}
	}
	return off
}

// At returns the value of component c at the given guarded coordinate
func (o *Field) At(c int, coords []int) float64 {
	return o.Data[c][o.Mesh.LinearIndex(coords)]
}

// Set assigns the value of component c at the given guarded coordinate
func (o *Field) Set(c int, coords []int, v float64) {
	o.Data[c][o.Mesh.LinearIndex(coords)] = v
}

// Add accumulates a value into component c at the given guarded coordinate;
// used by current deposition, which sums contributions from many particles
// into the same cell.
func (o *Field) Add(c int, coords []int, v float64) {
	o.Data[c][o.Mesh.LinearIndex(coords)] += v
}

// Zero resets all components to zero, grounded on gosl/la.VecFill
func (o *Field) Zero() {
	for c := 0; c < o.NComp; c++ {
		la.VecFill(o.Data[c], 0)
	}
}

// CopyInto deep-copies this field's data into dst, grounded on
// gosl/la.VecCopy
func (o *Field) CopyInto(dst *Field) {
	for c := 0; c < o.NComp; c++ {
		la.VecCopy(dst.Data[c], 1, o.Data[c])
	}
}

// Scale multiplies every cell of component c by a scalar factor
func (o *Field) Scale(c int, factor float64) {
	for i := range o.Data[c] {
		o.Data[c][i] *= factor
	}
}

// Norm returns the Euclidean (L2) norm of component c, grounded on
// gosl/la.VecNorm usage throughout the teacher's diagnostics code
func (o *Field) Norm(c int) float64 {
	return la.VecNorm(o.Data[c])
}
