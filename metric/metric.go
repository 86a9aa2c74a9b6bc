// Copyright 2026 The Picfem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package metric specifies the pluggable metric/coordinate-function
// collaborator the core consumes through a fixed interface (spec.md §1
// lists "the choice of metric/coordinate functions" as external).
package metric

import (
	"math"

	"github.com/cpmech/picfem/particle"
)

// Coords is the fixed interface the field solver and pusher use to query
// curvilinear geometry: per-axis metric factors h_k(q) and the geodesic
// position update.
type Coords interface {
	// H returns the metric factor h_k at coordinate q (length 3: q0,q1,q2)
	H(k int, q [3]float64) float64

	// GeodesicMove returns Δq for a particle at (q,p) advanced by dt;
	// isMassive selects the massive-particle branch (electron/positron/ion)
	// versus the massless (photon) branch.
	GeodesicMove(q, p [particle.Dptc]float64, dt float64, isMassive bool) [particle.Dptc]float64

	// OnAxis reports whether q lies on the polar axis (θ=0 or θ=π), used by
	// the solver to select the regularized ∂E_φ/∂θ operator and force
	// metric factors to 1 there.
	OnAxis(q [3]float64) bool
}

// SphericalLogR implements the spherical (r,θ,φ) metric with a logarithmic
// radial coordinate q0 = ln(r), the convention used by pulsar-magnetosphere
// PIC codes: h0 = r, h1 = r, h2 = r·sinθ, with r = exp(q0).
type SphericalLogR struct{}

// NewSphericalLogR allocates the default curvilinear metric
func NewSphericalLogR() *SphericalLogR { return &SphericalLogR{} }

func (o *SphericalLogR) r(q0 float64) float64 { return math.Exp(q0) }

func (o *SphericalLogR) H(k int, q [3]float64) float64 {
	r := o.r(q[0])
	theta := q[1]
	if o.OnAxis(q) {
		return 1 // numerator is zero on the axis, per spec.md §4.2
	}
	switch k {
	case 0:
		return r
	case 1:
		return r
	case 2:
		return r * math.Sin(theta)
	}
	return 1
}

func (o *SphericalLogR) OnAxis(q [3]float64) bool {
	const eps = 1e-12
	return math.Abs(q[1]) < eps || math.Abs(q[1]-math.Pi) < eps
}

// GeodesicMove advances position along straight-line motion in the local
// orthonormal frame, converting coordinate-space momentum to the
// log-radial q0 coordinate. Massless particles move at the speed implied
// by |p|=E (geometric units); massive particles divide by the Lorentz
// factor γ = sqrt(1+|p|²).
func (o *SphericalLogR) GeodesicMove(q, p [particle.Dptc]float64, dt float64, isMassive bool) (dq [particle.Dptc]float64) {
	r := o.r(q[0])
	gamma := 1.0
	if isMassive {
		gamma = math.Sqrt(1 + p[0]*p[0] + p[1]*p[1] + p[2]*p[2])
	} else {
		gamma = math.Sqrt(p[0]*p[0] + p[1]*p[1] + p[2]*p[2])
		if gamma == 0 {
			gamma = 1
		}
	}
	h0 := o.H(0, q)
	h1 := o.H(1, q)
	h2 := o.H(2, q)
	vr := p[0] / gamma / h0
	vtheta := p[1] / gamma / h1
	vphi := p[2] / gamma / h2
	// q0 = ln(r) so dr/dt = vr*h0 implies dq0/dt = vr*h0/r
	dq[0] = vr * h0 / r * dt
	dq[1] = vtheta * dt
	dq[2] = vphi * dt
	return
}
