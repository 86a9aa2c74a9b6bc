// Copyright 2026 The Picfem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pusher

import (
	"math"

	"github.com/cpmech/gosl/chk"

	"github.com/cpmech/picfem/field"
	"github.com/cpmech/picfem/grid"
	"github.com/cpmech/picfem/metric"
	"github.com/cpmech/picfem/particle"
	"github.com/cpmech/picfem/rng"
	"github.com/cpmech/picfem/shape"
)

// Pusher advances one species' particle array by one timestep: interpolate
// fields to each particle, apply the force list, run scattering channels,
// move along the geodesic, deposit current, and record per-species J when
// diagnostics ask for it (spec.md §4.3).
type Pusher struct {
	Forces   ForceList
	Channels ChannelList
	Kernel   shape.Kernel

	// Jsp, when non-nil, is a same-shaped field that receives a parallel
	// copy of every deposit this step makes (spec.md §4.3's "J-by-species
	// accounting"); callers zero it before the step and read it back after.
	Jsp *field.Field
}

// NewPusher allocates a Pusher with the given force list, scattering
// channels and interpolation/deposition kernel.
func NewPusher(forces ForceList, channels ChannelList, k shape.Kernel) *Pusher {
	return &Pusher{Forces: forces, Channels: channels, Kernel: k}
}

// Step advances every existing particle in arr by dt: interpolate E,B at
// the particle's position; apply the force list to update momentum;
// evaluate scattering channels (which may mark the parent dead and append
// daughters to newBuf); move the particle along the metric's geodesic;
// deposit its Esirkepov current contribution into j. isMassive selects the
// metric's massive/massless geodesic branch (spec.md §4.3 step list).
func (o *Pusher) Step(sp particle.Species, arr *particle.Array, newBuf *particle.Array,
	e, b, j *field.Field, m *grid.Mesh, mt metric.Coords, dt float64, r rng.Source, nextSerial func() uint32) (err error) {

	if o.Kernel == nil {
		chk.Panic("pusher: no shape kernel configured")
	}
	props := particle.Get(sp)
	isMassive := props.MassX > 0
	d := m.D()

	for i := 0; i < arr.Len(); i++ {
		if !arr.State[i].Exist() {
			continue
		}
		q0 := arr.Q[i]
		p0 := arr.P[i]

		ef := Interpolate(e, q0, m, o.Kernel)
		bf := Interpolate(b, q0, m, o.Kernel)

		p1 := o.Forces.Apply(p0, ef, bf, dt)

		if len(o.Channels) > 0 {
			parent := particle.Particle{Q: q0, P: p1, State: arr.State[i]}
			ctx := ScatterContext{
				Ptc:    parent,
				Props:  props,
				DeltaP: [particle.Dptc]float64{p1[0] - p0[0], p1[1] - p0[1], p1[2] - p0[2]},
				Dt:     dt,
				B:      bf,
				Rng:    r,
			}
			o.Channels.Evaluate(&parent, ctx, newBuf, nextSerial)
			p1 = parent.P
			arr.State[i] = parent.State
			if !arr.State[i].Exist() {
				continue
			}
		}

		dq := mt.GeodesicMove(q0, p1, dt, isMassive)
		q1 := [particle.Dptc]float64{q0[0] + dq[0], q0[1] + dq[1], q0[2] + dq[2]}

		arr.Q[i] = q1
		arr.P[i] = p1

		if j != nil {
			gamma := 1.0
			if isMassive {
				gamma = math.Sqrt(1 + p1[0]*p1[0] + p1[1]*p1[1] + p1[2]*p1[2])
			} else {
				gamma = math.Sqrt(p1[0]*p1[0] + p1[1]*p1[1] + p1[2]*p1[2])
				if gamma == 0 {
					gamma = 1
				}
			}
			q0d := [2]float64{q0[0], q0[1]}
			q1d := [2]float64{q1[0], q1[1]}
			if d == 1 {
				q0d, q1d = [2]float64{q0[0], 0}, [2]float64{q1[0], 0}
			}
			Deposit(j, m, o.Kernel, q0d, q1d, p1[2], gamma, props.ChargeX, dt)
			if o.Jsp != nil {
				Deposit(o.Jsp, m, o.Kernel, q0d, q1d, p1[2], gamma, props.ChargeX, dt)
			}
		}
	}
	return nil
}
