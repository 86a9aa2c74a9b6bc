// Copyright 2026 The Picfem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package rng specifies the random-number-generator collaborator the core
// consumes through a fixed interface; the choice of RNG is out of the
// core's scope (spec.md §1), so this package only pins the interface and
// a default implementation.
package rng

import (
	"github.com/cpmech/gosl/rnd"
)

// Source is the fixed interface the pusher/injector/scattering code uses to
// draw random numbers. A conforming implementation must be seedable so
// that two runs with identical seeds produce identical output (the
// dispatch-determinism property in spec.md §8).
type Source interface {
	Init(seed int)        // (re)seed the generator
	Float64() float64     // uniform in [0,1)
	Normal(mean, std float64) float64 // Gaussian jitter
}

// Gosl wraps github.com/cpmech/gosl/rnd, the RNG the teacher's own `inp`
// package already imports for randomized simulation parameters — reusing
// it here rather than introducing a new dependency.
type Gosl struct{}

// NewGosl allocates the default RNG collaborator
func NewGosl() *Gosl { return &Gosl{} }

func (o *Gosl) Init(seed int) { rnd.Init(seed) }

func (o *Gosl) Float64() float64 { return rnd.Float64(0, 1) }

func (o *Gosl) Normal(mean, std float64) float64 { return rnd.Normal(mean, std) }
