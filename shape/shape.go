// Copyright 2026 The Picfem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package shape implements the compact-support interpolation/deposition
// kernels used by the particle pusher: NGP, CIC, TSC and PCS.
package shape

import (
	"math"

	"github.com/cpmech/gosl/chk"
)

// Kernel is a compact-support shape function parameterized by its integer
// support s ∈ {1,2,3,4}. Invariants: ∫w = 1, w(|Δ|) = 0 for |Δ| >= s/2.
type Kernel interface {
	Name() string
	Support() int                    // s
	Radius() float64                  // r = s/2
	Weight(delta float64) float64     // w(|Δ|), Δ measured in cells
	Range(q float64) (lo, hi int)     // contributing-cell range [lo,hi)
}

// base implements Range, common to every kernel: the contributing-cell
// range for a particle at normalized position q is
// [floor(q-r)+1, floor(q+r)+1)
type base struct {
	support int
}

func (o base) Support() int   { return o.support }
func (o base) Radius() float64 { return float64(o.support) / 2 }

func (o base) Range(q float64) (lo, hi int) {
	r := o.Radius()
	lo = int(math.Floor(q-r)) + 1
	hi = int(math.Floor(q+r)) + 1
	return
}

// NGP is the nearest-grid-point kernel (support 1)
type NGP struct{ base }

// NewNGP allocates a NGP kernel
func NewNGP() *NGP { return &NGP{base{support: 1}} }

func (o *NGP) Name() string { return "ngp" }

func (o *NGP) Weight(delta float64) float64 {
	if math.Abs(delta) < 0.5 {
		return 1
	}
	return 0
}

// CIC is the cloud-in-cell (linear) kernel (support 2): max(1-|Δ|,0)
type CIC struct{ base }

// NewCIC allocates a CIC kernel
func NewCIC() *CIC { return &CIC{base{support: 2}} }

func (o *CIC) Name() string { return "cic" }

func (o *CIC) Weight(delta float64) float64 {
	d := math.Abs(delta)
	if d >= 1 {
		return 0
	}
	return 1 - d
}

// TSC is the triangular-shaped-cloud (piecewise-quadratic) kernel (support 3)
type TSC struct{ base }

// NewTSC allocates a TSC kernel
func NewTSC() *TSC { return &TSC{base{support: 3}} }

func (o *TSC) Name() string { return "tsc" }

func (o *TSC) Weight(delta float64) float64 {
	d := math.Abs(delta)
	switch {
	case d < 0.5:
		return 0.75 - d*d
	case d < 1.5:
		return 0.5 * (1.5 - d) * (1.5 - d)
	default:
		return 0
	}
}

// PCS is the piecewise-cubic-spline kernel (support 4)
type PCS struct{ base }

// NewPCS allocates a PCS kernel
func NewPCS() *PCS { return &PCS{base{support: 4}} }

func (o *PCS) Name() string { return "pcs" }

func (o *PCS) Weight(delta float64) float64 {
	d := math.Abs(delta)
	switch {
	case d < 1:
		return (4 - 6*d*d + 3*d*d*d) / 6
	case d < 2:
		t := 2 - d
		return (t * t * t) / 6
	default:
		return 0
	}
}

// allocators holds all registered kernel allocators, grounded on
// ele/factory.go's map-of-closures pattern (SetAllocator/GetAllocator)
var allocators = map[string]func() Kernel{
	"ngp": func() Kernel { return NewNGP() },
	"cic": func() Kernel { return NewCIC() },
	"tsc": func() Kernel { return NewTSC() },
	"pcs": func() Kernel { return NewPCS() },
}

// Register adds a new kernel allocator under the given name
func Register(name string, fcn func() Kernel) {
	if _, ok := allocators[name]; ok {
		chk.Panic("cannot set allocator for shape kernel %q because name exists already", name)
	}
	allocators[name] = fcn
}

// Get returns a new kernel instance by name
func Get(name string) Kernel {
	if fcn, ok := allocators[name]; ok {
		return fcn()
	}
	chk.Panic("cannot get allocator for shape kernel %q", name)
	return nil
}
