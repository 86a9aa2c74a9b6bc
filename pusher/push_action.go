// Copyright 2026 The Picfem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pusher

import (
	"github.com/cpmech/picfem/action"
	"github.com/cpmech/picfem/field"
	"github.com/cpmech/picfem/grid"
	"github.com/cpmech/picfem/metric"
	"github.com/cpmech/picfem/particle"
	"github.com/cpmech/picfem/rng"
)

// PushAction adapts a Pusher to the action.ParticleAction interface so it
// can sit in a species' particle pipeline alongside the atmosphere injector
// and any scattering-only actions (spec.md §4.5's ordered particle
// pipeline), grounded on ele.Element's polymorphic-wrapper pattern applied
// by package action itself.
type PushAction struct {
	action.Base
	Species    particle.Species
	Pusher     *Pusher
	Metric     metric.Coords
	NextSerial func() uint32
}

// ActionName returns the action's configured name
func (o *PushAction) ActionName() string { return o.Name }

// Apply advances the species' particles by one timestep via the wrapped Pusher
func (o *PushAction) Apply(arr *particle.Array, j *field.Field, newBuf *particle.Array, props *particle.Properties,
	e, b *field.Field, m *grid.Mesh, ens action.EnsembleInfo, dt float64, timestep int, r rng.Source) error {
	return o.Pusher.Step(o.Species, arr, newBuf, e, b, j, m, o.Metric, dt, r, o.NextSerial)
}
