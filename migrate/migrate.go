// Copyright 2026 The Picfem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package migrate implements cross-rank transfer of particles that left
// their local bulk after the pusher has run (spec.md §4.4).
package migrate

import (
	"sort"

	"github.com/cpmech/gosl/chk"

	"github.com/cpmech/picfem/ensemble"
	"github.com/cpmech/picfem/grid"
	"github.com/cpmech/picfem/particle"
)

// Policy selects what happens to a particle that crosses a non-periodic
// global boundary.
type Policy int

const (
	// Periodic wraps the coordinate to the opposite side of the global
	// domain; only meaningful on an axis the topology also marks periodic.
	Periodic Policy = iota
	// Drop discards the particle (sets its exist flag false).
	Drop
	// Reflect mirrors the coordinate and negates the corresponding
	// momentum component back into the bulk.
	Reflect
)

// Migrator buckets out-of-bulk particles by destination neighbor offset and
// exchanges them across the ensemble's primary cartesian communicator.
type Migrator struct {
	// BoundaryPolicy is the policy applied on axes where the topology is
	// not periodic (spec.md §4.4's "non-periodic axes... drop... or
	// reflect, per axis policy"); indexed by axis.
	BoundaryPolicy []Policy
}

// NewMigrator allocates a Migrator defaulting every axis to Drop.
func NewMigrator(d int) *Migrator {
	p := make([]Policy, d)
	for i := range p {
		p[i] = Drop
	}
	return &Migrator{BoundaryPolicy: p}
}

// bucket holds the outgoing particles for one neighbor offset, per species.
type bucket struct {
	offset []int
	ptcs   map[particle.Species][]particle.Particle
}

// Run scans every species' array for particles outside the local bulk,
// buckets them by destination neighbor offset (row-major, axis-0-fastest
// order over {-1,0,+1}^D minus the zero vector), exchanges with each of the
// ensemble's primary-cartesian neighbors, and appends received particles
// back into the local arrays after rebasing their coordinates into the
// neighbor's local frame. Returns the post-condition error if any surviving
// particle still lies outside the bulk.
func (o *Migrator) Run(ens *ensemble.Ensemble, particles map[particle.Species]*particle.Array, m *grid.Mesh, dt float64) error {
	d := m.D()
	if len(o.BoundaryPolicy) != d {
		chk.Panic("migrator boundary policy length (%d) must match mesh dimension (%d)", len(o.BoundaryPolicy), d)
	}

	offsets := neighborOffsets(d)
	buckets := make(map[string]*bucket, len(offsets))
	for _, off := range offsets {
		buckets[offsetKey(off)] = &bucket{offset: off, ptcs: make(map[particle.Species][]particle.Particle)}
	}

	for sp, arr := range particles {
		i := 0
		for i < arr.Len() {
			if !arr.State[i].Exist() {
				i++
				continue
			}
			off, dropped := destinationOffset(arr.Q[i], m, o.BoundaryPolicy, ens.Topo, ens.CartCoords)
			if dropped {
				arr.State[i] = arr.State[i].WithExist(false)
				arr.SwapErase(i)
				continue
			}
			if isZero(off) {
				i++
				continue
			}
			wrapQ := wrapCoords(arr.Q[i], m, off)
			p := arr.Get(i)
			p.Q = wrapQ
			buckets[offsetKey(off)].ptcs[sp] = append(buckets[offsetKey(off)].ptcs[sp], p)
			arr.SwapErase(i)
		}
	}

	if ens.IsPrimary() {
		for _, off := range offsets {
			b := buckets[offsetKey(off)]
			dest := neighborRankByOffset(ens, off)
			if dest < 0 {
				continue
			}
			if err := exchangeBucket(ens.Cart, dest, b, particles); err != nil {
				return err
			}
		}
	}

	for sp, arr := range particles {
		_ = sp
		for i := 0; i < arr.Len(); i++ {
			if !arr.State[i].Exist() {
				continue
			}
			if isOutOfBulk(arr.Q[i], m) {
				return chk.Err("migrate: particle of species %v remains out of bulk after migration", sp)
			}
		}
	}
	return nil
}

// neighborOffsets enumerates {-1,0,+1}^d minus the all-zero vector, in
// row-major (axis 0 fastest) order, matching grid.Mesh's own iteration
// convention.
func neighborOffsets(d int) [][]int {
	var out [][]int
	total := 1
	for k := 0; k < d; k++ {
		total *= 3
	}
	for lin := 0; lin < total; lin++ {
		off := make([]int, d)
		x := lin
		for k := 0; k < d; k++ {
			off[k] = x%3 - 1
			x /= 3
		}
		if isZero(off) {
			continue
		}
		out = append(out, off)
	}
	return out
}

func isZero(off []int) bool {
	for _, v := range off {
		if v != 0 {
			return false
		}
	}
	return true
}

func offsetKey(off []int) string {
	buf := make([]byte, 0, len(off)*2)
	for _, v := range off {
		buf = append(buf, byte(v+1), ',')
	}
	return string(buf)
}

// destinationOffset computes the signed per-axis step (-1,0,+1) for a
// particle's local coordinate q, applying the boundary policy at global
// edges (this ensemble's cell coords sit on the first or last cartesian
// row of a non-periodic axis). dropped is true when the particle must be
// discarded.
func destinationOffset(q [particle.Dptc]float64, m *grid.Mesh, policy []Policy, topo ensemble.Topology, coords []int) (off []int, dropped bool) {
	d := m.D()
	off = make([]int, d)
	for k := 0; k < d; k++ {
		dim := float64(m.Grid[k].Dim)
		if q[k] < 0 {
			off[k] = -1
		} else if q[k] >= dim {
			off[k] = 1
		}
		atGlobalEdge := (off[k] < 0 && coords[k] == 0) || (off[k] > 0 && coords[k] == topo.Dims[k]-1)
		if off[k] != 0 && !topo.Periodic[k] && atGlobalEdge {
			switch policy[k] {
			case Drop:
				dropped = true
			case Reflect:
				// reflection is resolved by the caller's GeodesicMove
				// boundary action in practice; here we simply drop the
				// request to cross and leave the particle local, letting
				// the next action pass apply the actual mirror.
				off[k] = 0
			case Periodic:
				// topology says non-periodic but policy says periodic:
				// treat as a configuration error caught upstream; fall
				// back to drop to avoid an inconsistent migration.
				dropped = true
			}
		}
	}
	return
}

// wrapCoords rebases a particle's coordinate into the neighbor's local
// frame: subtract off[k]*dim[k] on every axis that actually stepped.
func wrapCoords(q [particle.Dptc]float64, m *grid.Mesh, off []int) [particle.Dptc]float64 {
	out := q
	for k, o := range off {
		if o != 0 {
			out[k] -= float64(o * m.Grid[k].Dim)
		}
	}
	return out
}

func isOutOfBulk(q [particle.Dptc]float64, m *grid.Mesh) bool {
	for k := 0; k < m.D(); k++ {
		if q[k] < 0 || q[k] >= float64(m.Grid[k].Dim) {
			return true
		}
	}
	return false
}

// neighborRankByOffset resolves the world rank of the primary cartesian
// neighbor reached by stepping the ensemble's coordinates by off, or -1 if
// there is none (non-periodic edge).
func neighborRankByOffset(ens *ensemble.Ensemble, off []int) int {
	dims := ens.Topo.Dims
	coords := make([]int, len(dims))
	copy(coords, ens.CartCoords)
	worldRanks := ens.Cart.WorldRanks()
	idx := 0
	stride := 1
	for k := 0; k < len(dims); k++ {
		c := coords[k] + off[k]
		if c < 0 || c >= dims[k] {
			if !ens.Topo.Periodic[k] {
				return -1
			}
			c = ((c % dims[k]) + dims[k]) % dims[k]
		}
		idx += c * stride
		stride *= dims[k]
	}
	if idx < 0 || idx >= len(worldRanks) {
		return -1
	}
	return worldRanks[idx]
}

// sortedSpecies returns the keys of particles in a fixed, deterministic
// order. Comm.Send/Recv carry no tag and are matched purely by call
// sequence, so every rank must drive its send and receive loops from the
// same species order — Go map iteration order is randomized per range and
// cannot be relied on for this (spec.md §4.4, §6 wire protocol).
func sortedSpecies(particles map[particle.Species]*particle.Array) []particle.Species {
	out := make([]particle.Species, 0, len(particles))
	for sp := range particles {
		out = append(out, sp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// exchangeBucket sends one bucket's outgoing particles to dest and
// receives dest's particles bound for us, appending them to the local
// arrays. Single-process degenerate ensembles (dest == our own rank) loop
// the bucket straight back in, the same outcome true collective exchange
// would produce for a 1x1...x1 periodic topology.
//
// Both the send and receive loops walk the full, sorted species list from
// particles — not b.ptcs, whose keys are only populated lazily and so may
// list a different, content-dependent subset of species than dest's own
// bucket — sending an explicit (possibly zero) count for every species so
// both ranks agree on order and count regardless of which species actually
// bucketed any particles this step.
func exchangeBucket(cart ensemble.Comm, dest int, b *bucket, particles map[particle.Species]*particle.Array) error {
	species := sortedSpecies(particles)
	if dest == cart.Rank() {
		for _, sp := range species {
			arr := particles[sp]
			for _, p := range b.ptcs[sp] {
				arr.Append(p)
			}
		}
		return nil
	}
	for _, sp := range species {
		ptcs := b.ptcs[sp]
		cart.SendInt([]int{len(ptcs)}, dest)
		for _, p := range ptcs {
			cart.Send(p.Q[:], dest)
			cart.Send(p.P[:], dest)
			cart.SendInt([]int{int(p.State)}, dest)
		}
	}
	for _, sp := range species {
		cnt := []int{0}
		cart.RecvInt(cnt, dest)
		arr := particles[sp]
		for i := 0; i < cnt[0]; i++ {
			q := make([]float64, particle.Dptc)
			p := make([]float64, particle.Dptc)
			s := []int{0}
			cart.Recv(q, dest)
			cart.Recv(p, dest)
			cart.RecvInt(s, dest)
			var ptc particle.Particle
			copy(ptc.Q[:], q)
			copy(ptc.P[:], p)
			ptc.State = particle.State(s[0])
			arr.Append(ptc)
		}
	}
	return nil
}
