// Copyright 2026 The Picfem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package pusher implements the particle pusher: force composition,
// momentum and position update, charge-conserving (Esirkepov) current
// deposition, and the atmosphere injector action (spec.md §4.3).
package pusher

import (
	"math"

	"github.com/cpmech/picfem/particle"
)

// ForceFunc computes the updated momentum from p (passed by value) given
// the local field sample and a parameter. Δp = updated - original.
type ForceFunc func(p [particle.Dptc]float64, e, b [3]float64, dt float64, param float64) [particle.Dptc]float64

// Force is an ordered (force_fn, parameter) pair applied in sequence to
// update momentum (spec.md §3 "Force").
type Force struct {
	Fn    ForceFunc
	Param float64
}

// ForceList is an ordered list of forces applied in sequence
type ForceList []Force

// Apply runs every force in order, threading the updated momentum through
func (fl ForceList) Apply(p [particle.Dptc]float64, e, b [3]float64, dt float64) [particle.Dptc]float64 {
	for _, f := range fl {
		p = f.Fn(p, e, b, dt, f.Param)
	}
	return p
}

// Lorentz implements the Boris-like split lorentz(κ) = κ(E + v×B) force:
// half electric kick, full magnetic rotation, half electric kick, which is
// the standard charge-conserving-friendly splitting for relativistic
// particles.
func Lorentz(p [particle.Dptc]float64, e, b [3]float64, dt float64, kappa float64) [particle.Dptc]float64 {
	half := 0.5 * kappa * dt

	// half electric push
	pm := [3]float64{p[0] + half*e[0], p[1] + half*e[1], p[2] + half*e[2]}

	// magnetic rotation
	gamma := math.Sqrt(1 + pm[0]*pm[0] + pm[1]*pm[1] + pm[2]*pm[2])
	t := [3]float64{half * b[0] / gamma, half * b[1] / gamma, half * b[2] / gamma}
	tsq := t[0]*t[0] + t[1]*t[1] + t[2]*t[2]
	s := [3]float64{2 * t[0] / (1 + tsq), 2 * t[1] / (1 + tsq), 2 * t[2] / (1 + tsq)}

	pPrime := addCross(pm, pm, t)
	pPlus := addCross(pm, pPrime, s)

	// half electric push
	out := [particle.Dptc]float64{
		pPlus[0] + half*e[0],
		pPlus[1] + half*e[1],
		pPlus[2] + half*e[2],
	}
	return out
}

// addCross returns a + (b x c)
func addCross(a, b, c [3]float64) [3]float64 {
	return [3]float64{
		a[0] + (b[1]*c[2] - b[2]*c[1]),
		a[1] + (b[2]*c[0] - b[0]*c[2]),
		a[2] + (b[0]*c[1] - b[1]*c[0]),
	}
}

// Gravity returns the gravitational force gravity(g) = -g*r̂/r² for a unit
// radial vector rHat and a distance r. It is not a ForceFunc itself;
// NewGravityForce wraps it in a closure that supplies r̂ and r.
func Gravity(rHat [3]float64, g, r float64) [particle.Dptc]float64 {
	f := -g / (r * r)
	return [particle.Dptc]float64{f * rHat[0], f * rHat[1], f * rHat[2]}
}

// NewGravityForce builds a ForceFunc closure around a user-supplied radial
// direction/distance accessor, matching spec.md's "gravity(g) = -g*r̂/r²
// (or user function)".
func NewGravityForce(radial func(p [particle.Dptc]float64) (rHat [3]float64, r float64)) ForceFunc {
	return func(p [particle.Dptc]float64, e, b [3]float64, dt float64, g float64) [particle.Dptc]float64 {
		rHat, r := radial(p)
		dp := Gravity(rHat, g, r)
		return [particle.Dptc]float64{p[0] + dp[0]*dt, p[1] + dp[1]*dt, p[2] + dp[2]*dt}
	}
}

// Landau0 projects p onto B when |B| >= threshold (strong-field
// synchrotron-cooling-like limit used for massless/ultrarelativistic
// particles in strong fields).
func Landau0(p [particle.Dptc]float64, e, b [3]float64, dt float64, bThr float64) [particle.Dptc]float64 {
	bMag := math.Sqrt(b[0]*b[0] + b[1]*b[1] + b[2]*b[2])
	if bMag < bThr {
		return p
	}
	bHat := [3]float64{b[0] / bMag, b[1] / bMag, b[2] / bMag}
	pDotB := p[0]*bHat[0] + p[1]*bHat[1] + p[2]*bHat[2]
	return [particle.Dptc]float64{pDotB * bHat[0], pDotB * bHat[1], pDotB * bHat[2]}
}
