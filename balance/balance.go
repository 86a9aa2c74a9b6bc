// Copyright 2026 The Picfem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package balance

import (
	"github.com/cpmech/picfem/ensemble"
	"github.com/cpmech/picfem/particle"
)

// Balancer periodically replans the ensemble/replica topology and
// redistributes particles to match it (spec.md §4.6's "dlb_mr.stride").
type Balancer struct {
	TargetLoad float64
	Stride     int
}

// Due reports whether a balance pass should run at the given timestep.
func (o *Balancer) Due(timestep int) bool {
	return o.Stride > 0 && timestep%o.Stride == 0
}

// Run executes one balance pass: measure, plan, bifurcate, reassign,
// rejoin, detailed-balance (spec.md §4.6). It returns the process's
// (possibly new) Ensemble; particles is mutated in place to match the new
// membership.
func (o *Balancer) Run(world ensemble.Comm, ens *ensemble.Ensemble, topo ensemble.Topology,
	particles map[particle.Species]*particle.Array) (newEns *ensemble.Ensemble, err error) {

	ncells := 1
	for _, d := range topo.Dims {
		ncells *= d
	}

	// 1. Measure: local load (photons weighted 1/3), reduced to chief.
	myLoad := measureLoad(particles)
	ensLoad := ens.ReduceSumFloat(myLoad)
	ens.BroadcastFloat(ens.ChiefRank, &ensLoad)

	// 2. Plan: primaries gather every cell's (load,size) and compute the
	// new per-cell replica counts; the full plan is then shared with every
	// replica (not just primaries) via an intra broadcast, per the
	// simplified deterministic-reassignment design documented in
	// DESIGN.md: every rank ends up holding the identical newNproc vector,
	// so the rejoin step needs no ephemeral inter-communicator job market.
	newNproc := make([]int, ncells)
	if ens.IsPrimary() {
		loads := ensemble.AllGatherFloat(ens.Cart, ensLoad)
		oldNprocs := ensemble.AllGatherInt(ens.Cart, ens.Size())
		plan := CalcNewNprocs(loads, oldNprocs, o.TargetLoad)
		copy(newNproc, plan)
	}
	ens.BroadcastInts(ens.ChiefRank, newNproc)

	myCell := cellIndex(ens.CartCoords, topo.Dims)
	myNewSize := newNproc[myCell]
	isLeaving := ens.Rank() >= myNewSize

	// 3. Bifurcate: leaving replicas hand their particles to the staying
	// replicas of the same (old) ensemble.
	bifurcate(ens, particles, myNewSize, isLeaving)

	// 4/5. Reassign + Rejoin: every rank deterministically recomputes the
	// full world-rank -> cell assignment from newNproc and rebuilds its
	// Ensemble accordingly.
	cellOf := AssignCells(ncells, newNproc, world.Size())
	newEns = ensemble.NewFromLabels(topo, world.Rank(), cellOf)

	// 6. Detailed balance: smooth out per-rank particle counts within the
	// new ensemble (a newcomer starts with zero and must receive some).
	for _, arr := range particles {
		DetailedBalance(newEns.Intra, arr)
	}

	return newEns, nil
}

// measureLoad computes the local load: particle count, with photons
// weighted 1/3 (empirically cheaper to push), per spec.md §4.6 step 1.
func measureLoad(particles map[particle.Species]*particle.Array) float64 {
	load := 0.0
	for sp, arr := range particles {
		n := float64(arr.Count())
		if sp == particle.Photon {
			n /= 3
		}
		load += n
	}
	return load
}

// cellIndex encodes cartesian coordinates into a row-major (axis 0
// fastest) linear index, matching grid.Mesh's own convention.
func cellIndex(coords, dims []int) int {
	idx := 0
	stride := 1
	for k := range dims {
		idx += coords[k] * stride
		stride *= dims[k]
	}
	return idx
}

// bifurcate redistributes the particles of leaving replicas to the staying
// replicas of the same (pre-replan) ensemble, round-robin by rank modulo
// the new size (grounded on aperture::impl::bifurcate's scatter-then-
// release, simplified to a single deterministic target per leaving rank
// rather than an ephemeral inter-communicator).
func bifurcate(ens *ensemble.Ensemble, particles map[particle.Species]*particle.Array, newSize int, isLeaving bool) {
	if newSize <= 0 || newSize == ens.Size() {
		return
	}
	oldSize := ens.Size()
	myRank := ens.Rank()

	if isLeaving {
		target := myRank % newSize
		for _, arr := range particles {
			n := arr.Count()
			ens.Intra.SendInt([]int{n}, target)
			sendAllExisting(ens.Intra, arr, target)
		}
		return
	}

	if myRank >= newSize {
		return
	}
	var sources []int
	for r := newSize; r < oldSize; r++ {
		if r%newSize == myRank {
			sources = append(sources, r)
		}
	}
	for _, src := range sources {
		for _, arr := range particles {
			cnt := []int{0}
			ens.Intra.RecvInt(cnt, src)
			recvN(ens.Intra, arr, src, cnt[0])
		}
	}
}

// sendAllExisting sends every existing particle in arr to dest and empties
// the array (the leaving replica releases its state).
func sendAllExisting(c ensemble.Comm, arr *particle.Array, dest int) {
	i := 0
	for i < arr.Len() {
		if !arr.State[i].Exist() {
			arr.SwapErase(i)
			continue
		}
		p := arr.Get(i)
		c.Send(p.Q[:], dest)
		c.Send(p.P[:], dest)
		c.SendInt([]int{int(p.State)}, dest)
		arr.SwapErase(i)
	}
}

// recvN receives n particles from src and appends them to arr.
func recvN(c ensemble.Comm, arr *particle.Array, src, n int) {
	for i := 0; i < n; i++ {
		q := make([]float64, particle.Dptc)
		p := make([]float64, particle.Dptc)
		s := []int{0}
		c.Recv(q, src)
		c.Recv(p, src)
		c.RecvInt(s, src)
		var ptc particle.Particle
		copy(ptc.Q[:], q)
		copy(ptc.P[:], p)
		ptc.State = particle.State(s[0])
		arr.Append(ptc)
	}
}

// AssignCells deterministically maps worldSize world ranks onto ncells
// cells according to the planned per-cell replica counts: cell 0 claims
// the first newNproc[0] ranks, cell 1 the next newNproc[1], and so on.
// Leftover ranks (if the plan under-allocates due to rounding) become
// extra replicas of the last cell.
func AssignCells(ncells int, newNproc []int, worldSize int) []int {
	cellOf := make([]int, worldSize)
	rank := 0
	for c := 0; c < ncells && rank < worldSize; c++ {
		for k := 0; k < newNproc[c] && rank < worldSize; k++ {
			cellOf[rank] = c
			rank++
		}
	}
	for ; rank < worldSize; rank++ {
		cellOf[rank] = ncells - 1
	}
	return cellOf
}
