// Copyright 2026 The Picfem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pusher

import (
	"github.com/cpmech/picfem/particle"
	"github.com/cpmech/picfem/rng"
)

// ScatterContext carries everything a scattering predicate or
// implementation needs to evaluate eligibility and produce daughters.
type ScatterContext struct {
	Ptc   particle.Particle
	Props *particle.Properties
	DeltaP [particle.Dptc]float64
	Dt    float64
	B     [3]float64
	Rng   rng.Source
}

// Predicate evaluates eligibility for a scattering channel, returning
// (param, true) when the channel fires.
type Predicate func(ctx ScatterContext) (param float64, fires bool)

// Impl performs the scattering event: it may append daughter particles to
// buf and mutate the parent in place (secondary flag, serial numbers via
// nextSerial).
type Impl func(parent *particle.Particle, param float64, ctx ScatterContext, buf *particle.Array, nextSerial func() uint32)

// Channel is a named scattering channel: an eligibility predicate plus the
// implementation invoked when it fires.
type Channel struct {
	Name string
	Eligible Predicate
	Apply    Impl
}

// ChannelList is an ordered list of channels, evaluated in order with
// short-circuit on the first eligibility predicate that matches (spec.md
// §4.3 step 3).
type ChannelList []Channel

// Evaluate runs the eligibility predicates in order; on first firing,
// invokes the channel's Apply and returns true.
func (cl ChannelList) Evaluate(parent *particle.Particle, ctx ScatterContext, buf *particle.Array, nextSerial func() uint32) bool {
	for _, ch := range cl {
		if param, ok := ch.Eligible(ctx); ok {
			ch.Apply(parent, param, ctx, buf, nextSerial)
			return true
		}
	}
	return false
}

// PairCreate is a channel implementation that appends an electron-positron
// pair to buf at the parent's position with momentum split symmetrically
// from the parent's, and marks both daughters secondary.
func PairCreate(parent *particle.Particle, param float64, ctx ScatterContext, buf *particle.Array, nextSerial func() uint32) {
	half := [particle.Dptc]float64{parent.P[0] / 2, parent.P[1] / 2, parent.P[2] / 2}
	origin := parent.State.Origin()
	e := particle.Particle{Q: parent.Q, P: half, State: particle.NewState(particle.Electron, nextSerial(), origin).WithSecondary(true)}
	p := particle.Particle{Q: parent.Q, P: half, State: particle.NewState(particle.Positron, nextSerial(), origin).WithSecondary(true)}
	buf.Append(e)
	buf.Append(p)
	parent.State = parent.State.WithExist(false)
}
