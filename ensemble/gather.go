// Copyright 2026 The Picfem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ensemble

// AllGatherFloat gathers one float64 per rank from every member of c into a
// rank-ordered slice, visible identically on every rank. Built from the
// Comm primitives directly (point-to-point collect at rank 0, then
// broadcast) rather than assuming an allgather primitive on the underlying
// transport.
func AllGatherFloat(c Comm, local float64) []float64 {
	n := c.Size()
	out := make([]float64, n)
	if c.Rank() == 0 {
		out[0] = local
		for r := 1; r < n; r++ {
			buf := []float64{0}
			c.Recv(buf, r)
			out[r] = buf[0]
		}
	} else {
		c.Send([]float64{local}, 0)
	}
	c.BcastFromRoot(out, 0)
	return out
}

// AllGatherInt is AllGatherFloat's integer counterpart, used for particle
// counts and replica-size tallies.
func AllGatherInt(c Comm, local int) []int {
	n := c.Size()
	out := make([]int, n)
	if c.Rank() == 0 {
		out[0] = local
		for r := 1; r < n; r++ {
			buf := []int{0}
			c.RecvInt(buf, r)
			out[r] = buf[0]
		}
	} else {
		c.SendInt([]int{local}, 0)
	}
	c.BcastInt(out, 0)
	return out
}
