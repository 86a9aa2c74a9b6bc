// Copyright 2026 The Picfem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ensemble

import (
	"github.com/cpmech/gosl/chk"
)

// NewFromWorld builds the initial ensemble topology for a run of nproc
// world ranks: the first prod(dims) ranks become one primary each (in
// row-major cartesian order, axis 0 fastest), and any remaining ranks are
// assigned as replicas round-robin across ensembles — mirroring the
// teacher's NewDomains, which partitions mesh cells across mpi.Rank()/
// mpi.Size() in fem/domain.go, generalized here from "cell partition" to
// "replica assignment".
func NewFromWorld(topo Topology, worldRank, worldSize int) (o *Ensemble) {
	ncells := 1
	for _, d := range topo.Dims {
		ncells *= d
	}
	if ncells < 1 {
		chk.Panic("cartesian topology must have at least one cell")
	}
	if worldSize < ncells {
		chk.Panic("world size (%d) must be >= number of cartesian cells (%d)", worldSize, ncells)
	}

	cellOf := worldRank % ncells
	replicaOf := worldRank / ncells

	coords := coordsFromIndex(cellOf, topo.Dims)

	// gather which world ranks belong to the same cell, round-robin
	var intraRanks []int
	for r := 0; r < worldSize; r++ {
		if r%ncells == cellOf {
			intraRanks = append(intraRanks, r)
		}
	}
	rankWithinIntra := 0
	for i, r := range intraRanks {
		if r == worldRank {
			rankWithinIntra = i
			break
		}
	}

	o = &Ensemble{
		label:      labelForCoords(coords),
		CartCoords: coords,
		Intra:      newSubComm(intraRanks),
		ChiefRank:  0,
		Topo:       topo,
	}
	if rankWithinIntra == 0 {
		var primaryRanks []int
		for c := 0; c < ncells; c++ {
			primaryRanks = append(primaryRanks, c)
		}
		o.Cart = newSubComm(primaryRanks)
	}
	_ = replicaOf
	return
}

// coordsFromIndex decodes a row-major (axis 0 fastest) linear cell index
// into per-axis cartesian coordinates.
func coordsFromIndex(idx int, dims []int) []int {
	coords := make([]int, len(dims))
	for k := range dims {
		coords[k] = idx % dims[k]
		idx /= dims[k]
	}
	return coords
}

// NewFromLabels rebuilds this process's Ensemble from an explicit
// world-rank -> cell-index assignment (cellOf, length worldSize), used by
// the balancer's rejoin phase after a replica-count replan: unlike
// NewFromWorld's round-robin rule, the assignment here is whatever the
// balancer decided, but the sub-communicator construction is identical
// (newSubComm from the member world ranks, first member becomes chief).
func NewFromLabels(topo Topology, worldRank int, cellOf []int) (o *Ensemble) {
	ncells := 1
	for _, d := range topo.Dims {
		ncells *= d
	}
	myCell := cellOf[worldRank]
	coords := coordsFromIndex(myCell, topo.Dims)

	var intraRanks []int
	for r, c := range cellOf {
		if c == myCell {
			intraRanks = append(intraRanks, r)
		}
	}
	rankWithinIntra := 0
	for i, r := range intraRanks {
		if r == worldRank {
			rankWithinIntra = i
			break
		}
	}

	o = &Ensemble{
		label:      labelForCoords(coords),
		CartCoords: coords,
		Intra:      newSubComm(intraRanks),
		ChiefRank:  0,
		Topo:       topo,
	}
	if rankWithinIntra == 0 {
		var primaryRanks []int
		for c := 0; c < ncells; c++ {
			for r, lbl := range cellOf {
				if lbl == c {
					primaryRanks = append(primaryRanks, r)
					break
				}
			}
		}
		o.Cart = newSubComm(primaryRanks)
	}
	return
}
