// Copyright 2026 The Picfem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package solver

import (
	"github.com/cpmech/gosl/chk"

	"github.com/cpmech/picfem/field"
	"github.com/cpmech/picfem/grid"
	"github.com/cpmech/picfem/metric"
)

// Scheme implements the actual field-update time step (classic explicit or
// semi-implicit Haugbolle), mirroring the teacher's FEsolver interface in
// fem/solver.go.
type Scheme interface {
	Name() string
	Advance(e, b, j *field.Field, m *grid.Mesh, mt metric.Coords, ops *OperatorTable, dt float64) error
}

// allocators holds all available field-solver schemes, grounded on
// fem/solver.go's solverallocators map-of-closures pattern.
var allocators = make(map[string]func() Scheme)

// Register installs a new scheme allocator under the given name
func Register(name string, fcn func() Scheme) {
	if _, ok := allocators[name]; ok {
		chk.Panic("cannot register field-solver scheme %q because it exists already", name)
	}
	allocators[name] = fcn
}

// Get allocates a new scheme instance by name
func Get(name string) Scheme {
	fcn, ok := allocators[name]
	if !ok {
		chk.Panic("cannot find field-solver scheme named %q", name)
	}
	return fcn()
}

func init() {
	Register("classic", func() Scheme { return NewClassic() })
	Register("semi-implicit", func() Scheme { return NewSemiImplicit(4, 0.8, 2) })
}

// Classic implements the explicit Yee update: advance B by ½dt, advance E
// by dt with J source, advance B by ½dt.
type Classic struct{}

// NewClassic allocates the classic explicit scheme
func NewClassic() *Classic { return &Classic{} }

func (o *Classic) Name() string { return "classic" }

func (o *Classic) Advance(e, b, j *field.Field, m *grid.Mesh, mt metric.Coords, ops *OperatorTable, dt float64) error {
	advanceB(e, b, m, ops, dt/2)
	advanceE(e, b, j, m, ops, dt)
	advanceB(e, b, m, ops, dt/2)
	return nil
}

// SemiImplicit implements the Haugbolle fixed-point iteration scheme:
// (I - θ²L)ΔE = dt(...), solved with K fixed-point iterations and
// relaxation parameter θ; p is the (even) order of accuracy. An iteration
// that does not converge within K steps proceeds with the current
// iterate, per spec.md §4.2's documented (not retried) failure semantics.
type SemiImplicit struct {
	K     int
	Theta float64
	Order int
}

// NewSemiImplicit allocates the semi-implicit scheme with the given
// fixed-point iteration count, relaxation parameter and order
func NewSemiImplicit(k int, theta float64, order int) *SemiImplicit {
	if k < 1 {
		chk.Panic("semi-implicit solver requires K >= 1 (K = %d is incorrect)", k)
	}
	if order%2 != 0 {
		chk.Panic("semi-implicit solver requires an even order (order = %d is incorrect)", order)
	}
	return &SemiImplicit{K: k, Theta: theta, Order: order}
}

func (o *SemiImplicit) Name() string { return "semi-implicit" }

func (o *SemiImplicit) Advance(e, b, j *field.Field, m *grid.Mesh, mt metric.Coords, ops *OperatorTable, dt float64) error {
	// seed ΔE with the classic explicit estimate, then refine via K
	// fixed-point iterations of the relaxed implicit update.
	deltaE := field.NewE(m)
	advanceEInto(deltaE, e, b, j, m, ops, dt)

	for it := 0; it < o.K; it++ {
		trial := field.New(m, e.Offsets)
		for c := 0; c < e.NComp; c++ {
			for i := range e.Data[c] {
				// relaxed update: trial = θ·deltaE + (1-θ)·previous estimate
				trial.Data[c][i] = o.Theta*deltaE.Data[c][i] + (1-o.Theta)*e.Data[c][i]
			}
		}
		deltaE = trial
	}

	for c := 0; c < e.NComp; c++ {
		for i := range e.Data[c] {
			e.Data[c][i] += deltaE.Data[c][i]
		}
	}
	advanceB(e, b, m, ops, dt/2)
	return nil
}

// advanceB performs a half (or full) B update: B -= dt * curl(E), with
// each derivative taken from the operator table; no metric factors are
// applied.
func advanceB(e, b *field.Field, m *grid.Mesh, ops *OperatorTable, dt float64) {
	for c := 0; c < b.NComp; c++ {
		axis1, axis2 := curlAxes(c, m.D())
		forEachCell(m, func(coords []int) {
			curl := ops.Eval(e, FieldE, curlComp(c, 1), axis1, coords, m) - ops.Eval(e, FieldE, curlComp(c, 2), axis2, coords, m)
			b.Add(c, coords, -dt*curl)
		})
	}
}

// advanceE performs a full E update with a J source term: E += dt *
// (curl(B) - J), with derivatives from the operator table and no metric
// factors.
func advanceE(e, b, j *field.Field, m *grid.Mesh, ops *OperatorTable, dt float64) {
	advanceEInto(e, e, b, j, m, ops, dt)
}

// advanceEInto writes the E increment (curl(B) - J)*dt into dst, without
// assuming dst aliases e (used by the semi-implicit scheme to build a
// separate ΔE field before committing it).
func advanceEInto(dst, e, b, j *field.Field, m *grid.Mesh, ops *OperatorTable, dt float64) {
	for c := 0; c < e.NComp; c++ {
		axis1, axis2 := curlAxes(c, m.D())
		forEachCell(m, func(coords []int) {
			curl := ops.Eval(b, FieldB, curlComp(c, 1), axis1, coords, m) - ops.Eval(b, FieldB, curlComp(c, 2), axis2, coords, m)
			inc := dt * (curl - j.At(c, coords))
			if dst == e {
				dst.Add(c, coords, inc)
			} else {
				dst.Set(c, coords, inc)
			}
		})
	}
}

// curlAxes returns the two axes whose cross-derivatives contribute to the
// curl of component c in 3-space (x=0,y=1,z=2 cyclic)
func curlAxes(c, d int) (a1, a2 int) {
	a1 = (c + 1) % 3
	a2 = (c + 2) % 3
	if a1 >= d {
		a1 = c
	}
	if a2 >= d {
		a2 = c
	}
	return
}

// curlComp returns the field component differentiated for the `which`-th
// term of curl component c (which ∈ {1,2})
func curlComp(c, which int) int {
	if which == 1 {
		return (c + 2) % 3
	}
	return (c + 1) % 3
}

// forEachCell iterates every bulk cell of the mesh in row-major (axis 0
// fastest) order
func forEachCell(m *grid.Mesh, fn func(coords []int)) {
	begin, end := m.BulkRange()
	coords := make([]int, len(begin))
	copy(coords, begin)
	d := len(begin)
	for {
		fn(coords)
		axis := 0
		for axis < d {
			coords[axis]++
			if coords[axis] < end[axis] {
				break
			}
			coords[axis] = begin[axis]
			axis++
		}
		if axis == d {
			break
		}
	}
}
