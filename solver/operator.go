// Copyright 2026 The Picfem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package solver implements the Yee-lattice field update (classic and
// semi-implicit Haugbolle variants) with position-dependent finite
// difference operators and metric factors, plus the boundary field
// actions applied after the bulk solve (spec.md §4.2).
package solver

import (
	"github.com/cpmech/picfem/field"
	"github.com/cpmech/picfem/grid"
)

// FieldType distinguishes which field a derivative/metric entry applies to
type FieldType int

const (
	FieldE FieldType = iota
	FieldB
)

// CellKey indexes the per-cell operator override tables: (field type,
// component, axis, cell). Per spec.md §9 Design Notes, this is a small
// map keyed by cell index rather than virtual dispatch per cell; Cell is a
// fixed-size array (not a slice) so CellKey is comparable and usable as a
// Go map key.
type CellKey struct {
	Field FieldType
	Comp  int
	Axis  int
	Cell  [3]int
}

// DerivFunc computes ∂F_c/∂x_i at a cell, given access to the field and
// mesh (central/one-sided difference, as appropriate for the override).
type DerivFunc func(f *field.Field, comp, axis int, coords []int, m *grid.Mesh) float64

// MetricFunc computes the metric factor h_k at a cell's coordinate.
type MetricFunc func(coords []int, m *grid.Mesh) float64

// OperatorTable is a (field-type, component, axis) -> DerivFunc table
// defaulted to a single uniform bulk operator, with sparse per-cell
// overrides for boundary subdomains (axis regularization, one-sided
// surface differences, double boundaries).
type OperatorTable struct {
	Bulk      DerivFunc
	Overrides map[CellKey]DerivFunc
}

// NewOperatorTable allocates a table with the given bulk operator and no
// overrides
func NewOperatorTable(bulk DerivFunc) *OperatorTable {
	return &OperatorTable{Bulk: bulk, Overrides: make(map[CellKey]DerivFunc)}
}

// SetOverride installs a per-cell override, e.g. the regularized
// diff_axis_Ephi_theta on the polar axis, or a one-sided difference at a
// conducting surface.
func (o *OperatorTable) SetOverride(k CellKey, fn DerivFunc) {
	o.Overrides[k] = fn
}

// Eval returns the derivative at the given cell, using the override if one
// is registered, else the bulk operator. f is the field the derivative
// reads from (E when ft==FieldE, B when ft==FieldB); ft itself only
// selects which override table entry applies, so callers must pass the
// matching field alongside it.
func (o *OperatorTable) Eval(f *field.Field, ft FieldType, comp, axis int, coords []int, m *grid.Mesh) float64 {
	var cell [3]int
	copy(cell[:], coords)
	key := CellKey{Field: ft, Comp: comp, Axis: axis, Cell: cell}
	if fn, ok := o.Overrides[key]; ok {
		return fn(f, comp, axis, coords, m)
	}
	return o.Bulk(f, comp, axis, coords, m)
}

// MetricTable mirrors OperatorTable for the per-cell metric factors h_k(q);
// on the polar axis every factor is forced to 1 (numerator is zero there),
// matching spec.md §4.2.
type MetricTable struct {
	Bulk      MetricFunc
	Overrides map[CellKey]MetricFunc
}

// NewMetricTable allocates a metric table with the given bulk metric and no
// overrides
func NewMetricTable(bulk MetricFunc) *MetricTable {
	return &MetricTable{Bulk: bulk, Overrides: make(map[CellKey]MetricFunc)}
}

// SetOverride installs a per-cell metric override (e.g. "1" on the axis)
func (o *MetricTable) SetOverride(k CellKey, fn MetricFunc) {
	o.Overrides[k] = fn
}

// Eval returns the metric factor at the given cell
func (o *MetricTable) Eval(ft FieldType, comp, axis int, coords []int, m *grid.Mesh) float64 {
	var cell [3]int
	copy(cell[:], coords)
	key := CellKey{Field: ft, Comp: comp, Axis: axis, Cell: cell}
	if fn, ok := o.Overrides[key]; ok {
		return fn(coords, m)
	}
	return o.Bulk(coords, m)
}

// CentralDiff is the default bulk DerivFunc: a central finite difference
// of component `comp` along `axis`, one mesh cell wide.
func CentralDiff(f *field.Field, comp, axis int, coords []int, m *grid.Mesh) float64 {
	plus := make([]int, len(coords))
	minus := make([]int, len(coords))
	copy(plus, coords)
	copy(minus, coords)
	plus[axis]++
	minus[axis]--
	delta := m.Grid[axis].Delta
	return (f.At(comp, plus) - f.At(comp, minus)) / (2 * delta)
}

// OneSidedForwardDiff is used at a conducting surface, where no value from
// the interior side is available: it only reads the cell and its outward
// neighbor.
func OneSidedForwardDiff(f *field.Field, comp, axis int, coords []int, m *grid.Mesh) float64 {
	plus := make([]int, len(coords))
	copy(plus, coords)
	plus[axis]++
	delta := m.Grid[axis].Delta
	return (f.At(comp, plus) - f.At(comp, coords)) / delta
}
