// Copyright 2026 The Picfem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package action implements the ranged, clonable operator abstraction that
// composes the physics pipeline (boundary conditions, injection,
// axisymmetry, scattering, migration), generalized from the polymorphic
// ele.Element / ordered-collection pattern the teacher uses for finite
// elements (ele/element.go, fem/domain.go's Elems []ele.Element).
package action

import (
	"github.com/cpmech/picfem/field"
	"github.com/cpmech/picfem/grid"
	"github.com/cpmech/picfem/particle"
	"github.com/cpmech/picfem/rng"
)

// Side is the low or high side of an axis range
type Side int

const (
	Low Side = iota
	High
)

// Range is a per-axis [Begin,End) extent with optional per-side guard
// margins used to restrict an action to a sub-region of the mesh (e.g. a
// damping layer near the outer radial boundary).
type Range struct {
	Begin, End int
	Guard      [2]int // guard margin on the [Low,High] sides; 0 means none
}

// Base is the common, clonable state every action carries: a name and a
// per-axis range list.
type Base struct {
	Name   string
	Ranges []Range
}

// Clone returns a deep copy of Base, since every rank holds its own copy of
// every action (spec.md §3 "Action" lifecycle).
func (o Base) Clone() Base {
	ranges := make([]Range, len(o.Ranges))
	copy(ranges, o.Ranges)
	return Base{Name: o.Name, Ranges: ranges}
}

// EnsembleInfo is the minimal view of an ensemble.Ensemble that particle
// actions need (designated-rank selection, replica-group reductions). It
// is declared here rather than importing package ensemble directly, to
// keep action free of a dependency on the topology/concurrency layer.
type EnsembleInfo interface {
	Label() string
	Size() int        // number of replicas in this ensemble
	Rank() int         // this replica's rank within the ensemble (0 = chief)
	ReduceSumInt(local int) int    // sum-reduce to the chief
	Broadcast(from int, v *int)    // broadcast an int from a given rank
}

// Cart is the minimal cartesian-topology view a field action needs for
// guard synchronization.
type Cart interface {
	SyncGuardCopy(f *field.Field)
	SyncGuardMerge(f *field.Field)
}

// FieldAction is a named, ranged operator over (E,B,J); clonable, applied
// in pipeline order.
type FieldAction interface {
	ActionName() string
	Apply(e, b, j *field.Field, m *grid.Mesh, cart Cart, timestep int, dt float64) error
}

// ParticleAction is a named, ranged operator over a species' particle
// array, with access to J for deposition-adjacent actions (e.g. the
// atmosphere injector) and a buffer for newly created particles.
type ParticleAction interface {
	ActionName() string
	Apply(arr *particle.Array, j *field.Field, newBuf *particle.Array, props *particle.Properties,
		e, b *field.Field, m *grid.Mesh, ens EnsembleInfo, dt float64, timestep int, r rng.Source) error
}

// FieldPipeline is an ordered list of field actions, applied in list order
// per step (spec.md §4.5: axisymmetrize-J precedes solver; damping
// precedes axisymmetrize-EB).
type FieldPipeline []FieldAction

// Run applies every action in order
func (p FieldPipeline) Run(e, b, j *field.Field, m *grid.Mesh, cart Cart, timestep int, dt float64) error {
	for _, a := range p {
		if err := a.Apply(e, b, j, m, cart, timestep, dt); err != nil {
			return err
		}
	}
	return nil
}

// ParticlePipeline is an ordered list of particle actions; migration is
// last in the particle pipeline (spec.md §4.5).
type ParticlePipeline []ParticleAction

// Run applies every action in order to a single species' array
func (p ParticlePipeline) Run(arr *particle.Array, j *field.Field, newBuf *particle.Array, props *particle.Properties,
	e, b *field.Field, m *grid.Mesh, ens EnsembleInfo, dt float64, timestep int, r rng.Source) (err error) {
	for _, a := range p {
		if err = a.Apply(arr, j, newBuf, props, e, b, m, ens, dt, timestep, r); err != nil {
			return
		}
	}
	return
}
