// Copyright 2026 The Picfem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pusher

import (
	"math"

	"github.com/cpmech/picfem/action"
	"github.com/cpmech/picfem/field"
	"github.com/cpmech/picfem/grid"
	"github.com/cpmech/picfem/particle"
	"github.com/cpmech/picfem/rng"
)

// AtmosphereInjector implements action.ParticleAction: at cells in its
// range, it counts existing positive/negative charges, reduces the count
// across the replica group to a designated rank (timestep mod
// ensemble.Size()), computes the pair-production deficit and emits
// electron-positron pairs with corotation momentum plus thermal jitter
// (spec.md's "Atmosphere injector").
type AtmosphereInjector struct {
	action.Base

	// Natm is the N_atm coefficient in the deficit formula N_atm*sin(θ) -
	// min(count_p, count_n)
	Natm float64

	// MinFrac is the deficit threshold below which emission stops
	MinFrac float64

	// Vth is the thermal jitter standard deviation (code units of momentum)
	Vth float64

	// Omega returns the corotation angular velocity Ω(t) at simulation time
	Omega func(t float64) float64
}

// ActionName returns the action's configured name
func (o *AtmosphereInjector) ActionName() string { return o.Name }

// Apply counts charges in range, reduces to the designated rank, and emits
// pairs into newBuf until the deficit is exhausted.
func (o *AtmosphereInjector) Apply(arr *particle.Array, j *field.Field, newBuf *particle.Array,
	props *particle.Properties, e, b *field.Field, m *grid.Mesh, ens action.EnsembleInfo,
	dt float64, timestep int, r rng.Source) error {

	designated := timestep % ens.Size()

	d := m.D()
	begin, end := rangeBounds(o.Ranges, m, d)

	coords := make([]int, d)
	copy(coords, begin)
	for {
		countP, countN := countCharges(arr, coords)
		// ReduceSumInt lands the sum on the chief (rank 0) only; the chief
		// then broadcasts it so the designated rank emits from the
		// ensemble-wide count.
		countP = ens.ReduceSumInt(countP)
		countN = ens.ReduceSumInt(countN)
		ens.Broadcast(0, &countP)
		ens.Broadcast(0, &countN)

		if ens.Rank() == designated {
			o.emitAt(coords, countP, countN, m, b, newBuf, dt, timestep, r)
		}

		if !nextCoord(coords, begin, end) {
			break
		}
	}
	return nil
}

// emitAt computes the deficit at one cell and emits pairs until it falls
// below MinFrac.
func (o *AtmosphereInjector) emitAt(coords []int, countP, countN int, m *grid.Mesh, b *field.Field,
	newBuf *particle.Array, dt float64, timestep int, r rng.Source) {

	q := make([]float64, len(coords))
	for a, c := range coords {
		q[a] = m.Grid[a].Abscissa(c, 0.5)
	}
	theta := 0.0
	if len(q) > 1 {
		theta = q[1]
	}

	minCount := countP
	if countN < minCount {
		minCount = countN
	}
	deficit := o.Natm*math.Sin(theta) - float64(minCount)

	t := float64(timestep) * dt
	omega := 0.0
	if o.Omega != nil {
		omega = o.Omega(t)
	}

	var q3 [particle.Dptc]float64
	q3[0] = q[0]
	if len(q) > 1 {
		q3[1] = q[1]
	}

	pz := omega * math.Exp(q3[0]) * math.Sin(q3[1])

	bAvg := cellCenterB(b, coords)
	bMag := math.Sqrt(bAvg[0]*bAvg[0] + bAvg[1]*bAvg[1] + bAvg[2]*bAvg[2])
	var bHat [3]float64
	if bMag > 0 {
		bHat = [3]float64{bAvg[0] / bMag, bAvg[1] / bMag, bAvg[2] / bMag}
	} else {
		bHat = [3]float64{0, 0, 1}
	}

	for deficit >= o.MinFrac {
		jitter := r.Normal(0, o.Vth)
		p := [particle.Dptc]float64{jitter * bHat[0], jitter * bHat[1], pz + jitter*bHat[2]}
		newBuf.Append(particle.Particle{Q: q3, P: p, State: particle.NewState(particle.Electron, 0, 0)})
		newBuf.Append(particle.Particle{Q: q3, P: p, State: particle.NewState(particle.Positron, 0, 0)})
		deficit -= 1
	}
}

// countCharges tallies existing positive (positron/ion) and negative
// (electron) particle counts at the given cell by nearest-cell membership.
func countCharges(arr *particle.Array, coords []int) (countP, countN int) {
	for i := 0; i < arr.Len(); i++ {
		if !arr.State[i].Exist() {
			continue
		}
		cell := int(math.Floor(arr.Q[i][0]))
		if cell != coords[0] {
			continue
		}
		if len(coords) > 1 {
			cell1 := int(math.Floor(arr.Q[i][1]))
			if cell1 != coords[1] {
				continue
			}
		}
		switch arr.State[i].Species() {
		case particle.Positron, particle.Ion:
			countP++
		case particle.Electron:
			countN++
		}
	}
	return
}

// cellCenterB returns, for each B component, the sample stored at coords;
// the staggered samples around the cell are not averaged, so each
// component is taken at its own Yee position.
func cellCenterB(b *field.Field, coords []int) [3]float64 {
	var out [3]float64
	if b == nil {
		return out
	}
	for c := 0; c < b.NComp && c < 3; c++ {
		out[c] = b.At(c, coords)
	}
	return out
}

// rangeBounds reduces an action's per-axis Range list to a single
// [begin,end) box, defaulting to the mesh's full bulk extent on axes with
// no configured range.
func rangeBounds(ranges []action.Range, m *grid.Mesh, d int) (begin, end []int) {
	bBulk, eBulk := m.BulkRange()
	begin = make([]int, d)
	end = make([]int, d)
	copy(begin, bBulk)
	copy(end, eBulk)
	for a := 0; a < len(ranges) && a < d; a++ {
		begin[a] = ranges[a].Begin
		end[a] = ranges[a].End
	}
	return
}

// nextCoord advances coords (row-major, axis 0 fastest) within [begin,end);
// returns false once every combination has been visited.
func nextCoord(coords, begin, end []int) bool {
	axis := 0
	for axis < len(coords) {
		coords[axis]++
		if coords[axis] < end[axis] {
			return true
		}
		coords[axis] = begin[axis]
		axis++
	}
	return false
}
