// Copyright 2026 The Picfem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package shape

import (
	"math"
	"testing"

	"github.com/cpmech/gosl/chk"
)

// integrate numerically checks ∫w = 1 over the kernel's support
func integrate(k Kernel) float64 {
	r := k.Radius()
	n := 200000
	h := 2 * r / float64(n)
	sum := 0.0
	for i := 0; i < n; i++ {
		x := -r + h*(float64(i)+0.5)
		sum += k.Weight(x) * h
	}
	return sum
}

func Test_shape01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("shape01. kernels integrate to one and vanish at support edge")

	kernels := []Kernel{NewNGP(), NewCIC(), NewTSC(), NewPCS()}
	for _, k := range kernels {
		area := integrate(k)
		if math.Abs(area-1) > 1e-3 {
			tst.Errorf("%s: ∫w = %v, want ≈1", k.Name(), area)
		}
		edge := k.Radius()
		if k.Weight(edge) != 0 {
			tst.Errorf("%s: w(r) = %v, want 0", k.Name(), k.Weight(edge))
		}
	}
}

func Test_shape02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("shape02. Get/Register factory")

	k := Get("cic")
	if k.Name() != "cic" {
		tst.Errorf("Get(\"cic\") returned %q", k.Name())
	}
}
