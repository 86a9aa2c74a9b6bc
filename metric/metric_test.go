// Copyright 2026 The Picfem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package metric

import (
	"math"
	"testing"

	"github.com/cpmech/gosl/chk"
)

func Test_metric01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("metric01. axis detection and metric factors off-axis")

	mt := NewSphericalLogR()

	if !mt.OnAxis([3]float64{0, 0, 0}) {
		tst.Errorf("theta=0 must be on-axis")
	}
	if !mt.OnAxis([3]float64{0, math.Pi, 0}) {
		tst.Errorf("theta=pi must be on-axis")
	}
	if mt.OnAxis([3]float64{0, math.Pi / 2, 0}) {
		tst.Errorf("theta=pi/2 must not be on-axis")
	}

	q := [3]float64{0, math.Pi / 2, 0} // r=exp(0)=1, theta=pi/2
	if math.Abs(mt.H(0, q)-1) > 1e-14 {
		tst.Errorf("h0 = %v, want 1", mt.H(0, q))
	}
	if math.Abs(mt.H(2, q)-1) > 1e-14 {
		tst.Errorf("h2 = %v, want 1 (sin(pi/2)=1)", mt.H(2, q))
	}

	qAxis := [3]float64{0, 0, 0}
	for k := 0; k < 3; k++ {
		if mt.H(k, qAxis) != 1 {
			tst.Errorf("H(%d) on-axis = %v, want 1", k, mt.H(k, qAxis))
		}
	}
}

func Test_metric02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("metric02. massless geodesic move has unit coordinate speed scale")

	mt := NewSphericalLogR()
	q := [3]float64{0, math.Pi / 2, 0}
	p := [3]float64{1, 0, 0} // purely radial photon momentum
	dq := mt.GeodesicMove(q, p, 1.0, false)

	// h0=1 here, r=1, gamma=|p|=1 => dq0 = (p0/gamma/h0)*h0/r*dt = 1
	if math.Abs(dq[0]-1) > 1e-12 {
		tst.Errorf("dq0 = %v, want 1", dq[0])
	}
	if math.Abs(dq[1]) > 1e-12 || math.Abs(dq[2]) > 1e-12 {
		tst.Errorf("transverse motion must be zero for purely radial momentum")
	}
}
