// Copyright 2026 The Picfem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package ensemble implements the primary cartesian grid x replica group
// topology and guard-cell synchronization (spec.md §4.6, §9 "Balancer
// communicators").
package ensemble

import (
	"github.com/cpmech/gosl/chk"

	"github.com/cpmech/picfem/field"
	"github.com/cpmech/picfem/grid"
)

// Topology describes the primary cartesian communicator's shape: per-axis
// dimensions and periodicity.
type Topology struct {
	Dims     []int
	Periodic []bool
}

// Ensemble is the set of processes replicating the same cartesian cell:
// (label, cart_coords, intra_comm, chief_rank, cart_comm?) per spec.md §3.
type Ensemble struct {
	label      string
	CartCoords []int // coordinates of this ensemble's cell in the primary cartesian grid
	Intra      Comm  // communicator grouping all replicas of this cell
	ChiefRank  int   // rank (within Intra) of the chief; always 0
	Cart       Comm  // held only by the primary (Intra.Rank()==0); nil for replicas
	Topo       Topology
}

// Label returns the ensemble label, identifying a unique cartesian cell
func (o *Ensemble) Label() string { return o.label }

// Size returns the number of replicas in this ensemble
func (o *Ensemble) Size() int { return o.Intra.Size() }

// Rank returns this replica's rank within the ensemble (0 = chief)
func (o *Ensemble) Rank() int { return o.Intra.Rank() }

// IsChief reports whether this process is the chief (rank 0) of its ensemble
func (o *Ensemble) IsChief() bool { return o.Rank() == o.ChiefRank }

// IsPrimary reports whether this process holds the cart communicator
func (o *Ensemble) IsPrimary() bool { return o.Cart != nil }

// ReduceSumInt sum-reduces a local int across the ensemble's replicas to
// the chief, implemented atop the float64 collective surface (spec.md
// §4.6 step 1's "reduce-sum to chief").
func (o *Ensemble) ReduceSumInt(local int) int {
	orig := []float64{float64(local)}
	dest := []float64{0}
	o.Intra.ReduceSum(dest, orig, o.ChiefRank)
	return int(dest[0])
}

// Broadcast broadcasts an int value from the given rank to every replica
func (o *Ensemble) Broadcast(from int, v *int) {
	x := []float64{float64(*v)}
	o.Intra.BcastFromRoot(x, from)
	*v = int(x[0])
}

// ReduceSumFloat sum-reduces a local float64 across the ensemble's
// replicas to the chief.
func (o *Ensemble) ReduceSumFloat(local float64) float64 {
	orig := []float64{local}
	dest := []float64{0}
	o.Intra.ReduceSum(dest, orig, o.ChiefRank)
	return dest[0]
}

// BroadcastFloat broadcasts a float64 value from the given rank to every
// replica.
func (o *Ensemble) BroadcastFloat(from int, v *float64) {
	x := []float64{*v}
	o.Intra.BcastFromRoot(x, from)
	*v = x[0]
}

// BroadcastInts broadcasts an []int slice from the given rank to every
// replica, used to share the full per-cell replica-count plan (spec.md
// §4.6 step 2's "Plan") with ranks that were not primaries.
func (o *Ensemble) BroadcastInts(from int, v []int) {
	o.Intra.BcastInt(v, from)
}

// labelForCoords builds a deterministic cell label from cartesian
// coordinates, e.g. "0,3" for a 2-D cell.
func labelForCoords(coords []int) string {
	s := ""
	for i, c := range coords {
		if i > 0 {
			s += ","
		}
		s += itoa(c)
	}
	return s
}

func itoa(v int) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// NewSingleRank builds a degenerate, single-replica ensemble for a
// serial/test run: one cartesian cell at coords (0,...,0), this process is
// both chief and primary.
func NewSingleRank(topo Topology) (o *Ensemble) {
	if len(topo.Dims) == 0 {
		chk.Panic("topology must have at least one axis")
	}
	coords := make([]int, len(topo.Dims))
	o = &Ensemble{
		label:      labelForCoords(coords),
		CartCoords: coords,
		Intra:      newFakeComm(1, 0),
		ChiefRank:  0,
		Cart:       newFakeComm(1, 0),
		Topo:       topo,
	}
	return
}

// SyncGuardCopy copies guard-cell values from neighboring ensembles into
// this process's local field, bit-for-bit identical on every sharing rank
// (spec.md §8 "Guard-cell parity"). In the single-rank degenerate case
// (Cart.Size()==1) there is nothing to exchange.
func (o *Ensemble) SyncGuardCopy(f *field.Field) {
	if o.Cart == nil || o.Cart.Size() <= 1 {
		return
	}
	syncGuard(o, f, false)
}

// SyncGuardMerge merge-syncs guard cells: values are summed across sharing
// ranks then copied back, used after current deposition (spec.md §4.2).
func (o *Ensemble) SyncGuardMerge(f *field.Field) {
	if o.Cart == nil || o.Cart.Size() <= 1 {
		return
	}
	syncGuard(o, f, true)
}

// syncGuard exchanges guard-region data with the 2*D axis-aligned
// neighbors in the primary cartesian grid. merge selects sum-then-copy-back
// (true, for J) versus plain copy (false, for E/B).
func syncGuard(o *Ensemble, f *field.Field, merge bool) {
	m := f.Mesh
	d := m.D()
	for axis := 0; axis < d; axis++ {
		if m.Guard == 0 {
			continue
		}
		exchangeAxis(o, f, axis, merge)
	}
}

// exchangeAxis exchanges the guard slab on one axis with the low/high
// cartesian neighbors. The wire payload is one flat []float64 per
// component per side, matching spec.md §6's "contiguous arrays of field
// cells" wire protocol. For merge (J), each side first sends its own
// guard-cell slab to be summed into the neighbor's adjacent bulk cells,
// then (same as copy) the authoritative bulk value is copied back out to
// guard cells on both sides (spec.md §4.2, §8 "Guard-cell parity").
func exchangeAxis(o *Ensemble, f *field.Field, axis int, merge bool) {
	dims := o.Topo.Dims
	coord := o.CartCoords[axis]
	loNeighbor, hiNeighbor := neighborRanks(o.Cart.WorldRanks(), dims, o.CartCoords, axis, o.Topo.Periodic[axis])
	if loNeighbor < 0 && hiNeighbor < 0 {
		return
	}
	_ = coord
	m := f.Mesh
	g := m.Guard
	dim := m.Grid[axis].Dim
	for c := 0; c < f.NComp; c++ {
		if merge {
			// phase 1: my guard-cell spillover is summed into the
			// neighbor's adjacent bulk cells (and vice versa).
			if hiNeighbor >= 0 {
				mergeSlab(o.Cart, f, c, axis, hiNeighbor, dim, dim+g, dim-g, dim)
			}
			if loNeighbor >= 0 {
				mergeSlab(o.Cart, f, c, axis, loNeighbor, -g, 0, 0, g)
			}
		}
		// phase 2 (merge) / only phase (copy): the authoritative bulk
		// value nearest each boundary is copied out to guard cells.
		if hiNeighbor >= 0 {
			copySlab(o.Cart, f, c, axis, hiNeighbor, dim-g, dim, dim, dim+g)
		}
		if loNeighbor >= 0 {
			copySlab(o.Cart, f, c, axis, loNeighbor, 0, g, -g, 0)
		}
	}
}

// guardSlab returns the number of scalar values in one guard slab
// (product of the mesh's guarded extent on every axis but the exchange
// axis, times the guard width).
func guardSlab(f *field.Field, axis int) int {
	m := f.Mesh
	n := m.Guard
	for k := range m.Grid {
		if k == axis {
			continue
		}
		n *= m.Grid[k].Dim + 2*m.Guard
	}
	return n
}

// forEachSlabCell walks a guard-exchange slab: the exchange axis ranges
// over [axisLo, axisHi) (always m.Guard cells wide) while every other
// axis ranges over the full guarded extent [-m.Guard, dim+m.Guard), in
// row-major (axis 0 fastest) order. Both the sending and receiving rank
// use this same order, so flat buffer position always identifies the
// same relative cell across the wire.
func forEachSlabCell(m *grid.Mesh, axis, axisLo, axisHi int, fn func(coords []int)) {
	d := m.D()
	begin := make([]int, d)
	end := make([]int, d)
	for k := 0; k < d; k++ {
		if k == axis {
			begin[k], end[k] = axisLo, axisHi
		} else {
			begin[k], end[k] = -m.Guard, m.Grid[k].Dim+m.Guard
		}
	}
	coords := make([]int, d)
	copy(coords, begin)
	for {
		fn(coords)
		k := 0
		for k < d {
			coords[k]++
			if coords[k] < end[k] {
				break
			}
			coords[k] = begin[k]
			k++
		}
		if k == d {
			break
		}
	}
}

// gatherSlab reads one guard-exchange slab of component comp into a flat
// buffer, in forEachSlabCell order.
func gatherSlab(f *field.Field, comp, axis, axisLo, axisHi int) []float64 {
	buf := make([]float64, 0, guardSlab(f, axis))
	forEachSlabCell(f.Mesh, axis, axisLo, axisHi, func(coords []int) {
		buf = append(buf, f.At(comp, coords))
	})
	return buf
}

// scatterSlab overwrites one guard-exchange slab of component comp from a
// flat buffer, in forEachSlabCell order.
func scatterSlab(f *field.Field, comp, axis, axisLo, axisHi int, buf []float64) {
	i := 0
	forEachSlabCell(f.Mesh, axis, axisLo, axisHi, func(coords []int) {
		f.Set(comp, coords, buf[i])
		i++
	})
}

// addSlab accumulates a flat buffer into one guard-exchange slab of
// component comp, in forEachSlabCell order.
func addSlab(f *field.Field, comp, axis, axisLo, axisHi int, buf []float64) {
	i := 0
	forEachSlabCell(f.Mesh, axis, axisLo, axisHi, func(coords []int) {
		f.Add(comp, coords, buf[i])
		i++
	})
}

// copySlab gathers the slab [gatherLo,gatherHi) on this axis, exchanges it
// with neighbor, and overwrites [scatterLo,scatterHi) with what came back
// — used both standalone (E/B copy-sync) and as merge-sync's phase 2
// copy-back.
func copySlab(c Comm, f *field.Field, comp, axis, neighbor, gatherLo, gatherHi, scatterLo, scatterHi int) {
	buf := gatherSlab(f, comp, axis, gatherLo, gatherHi)
	c.Send(buf, neighbor)
	recv := make([]float64, len(buf))
	c.Recv(recv, neighbor)
	scatterSlab(f, comp, axis, scatterLo, scatterHi, recv)
}

// mergeSlab gathers the slab [gatherLo,gatherHi) (this rank's guard-cell
// spillover), exchanges it with neighbor, and sums what came back into
// [addLo,addHi) (the neighbor's contribution to this rank's bulk cells).
func mergeSlab(c Comm, f *field.Field, comp, axis, neighbor, gatherLo, gatherHi, addLo, addHi int) {
	buf := gatherSlab(f, comp, axis, gatherLo, gatherHi)
	c.Send(buf, neighbor)
	recv := make([]float64, len(buf))
	c.Recv(recv, neighbor)
	addSlab(f, comp, axis, addLo, addHi, recv)
}

// neighborRanks returns the world ranks of the low/high axis-aligned
// neighbors in a D-dimensional cartesian grid, or -1 if there is none
// (non-periodic boundary).
func neighborRanks(worldRanks []int, dims, coords []int, axis int, periodic bool) (lo, hi int) {
	lo, hi = -1, -1
	if coords[axis] > 0 {
		lo = cartRankOf(worldRanks, dims, coords, axis, -1)
	} else if periodic {
		lo = cartRankOf(worldRanks, dims, coords, axis, dims[axis]-1-coords[axis])
	}
	if coords[axis] < dims[axis]-1 {
		hi = cartRankOf(worldRanks, dims, coords, axis, +1)
	} else if periodic {
		hi = cartRankOf(worldRanks, dims, coords, axis, -coords[axis])
	}
	return
}

// cartRankOf computes the world rank of the neighbor obtained by shifting
// coords[axis] by delta, assuming row-major layout of cartesian cells
// across worldRanks (axis 0 fastest), consistent with grid.Mesh's own
// row-major convention.
func cartRankOf(worldRanks []int, dims, coords []int, axis, delta int) int {
	newCoords := make([]int, len(coords))
	copy(newCoords, coords)
	newCoords[axis] += delta
	idx := 0
	stride := 1
	for k := 0; k < len(dims); k++ {
		idx += newCoords[k] * stride
		stride *= dims[k]
	}
	if idx < 0 || idx >= len(worldRanks) {
		return -1
	}
	return worldRanks[idx]
}
