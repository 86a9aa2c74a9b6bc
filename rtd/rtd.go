// Copyright 2026 The Picfem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package rtd implements the process-wide run-time diagnostics context:
// an explicitly constructed object passed through the action pipeline
// rather than a package-level global (spec.md §9 Design Notes).
package rtd

import "github.com/cpmech/picfem/particle"

// RTD carries per-species counters and other diagnostics written by
// well-known actions and reset by the export post-hook. Its lifecycle:
// created once after ensemble formation; mutated under the simulator loop.
type RTD struct {
	// PairCount is written by the scattering analyzer: number of pairs
	// created this step, per species
	PairCount map[particle.Species]int64

	// Jsp holds the per-species current buffer, written by the pusher when
	// export is enabled for the current step (spec.md §4.3's "J-by-species
	// accounting")
	Jsp map[particle.Species][]float64

	// SkinDepth is written by the export pre-hook
	SkinDepth float64

	// step is the current timestep, informational
	step int
}

// New allocates an RTD context for the given registered species
func New(species []particle.Species) (o *RTD) {
	o = new(RTD)
	o.PairCount = make(map[particle.Species]int64, len(species))
	o.Jsp = make(map[particle.Species][]float64, len(species))
	for _, sp := range species {
		o.PairCount[sp] = 0
	}
	return
}

// SetStep records the current timestep
func (o *RTD) SetStep(step int) { o.step = step }

// Step returns the current timestep
func (o *RTD) Step() int { return o.step }

// AddPairs accumulates a pair-creation count for a species
func (o *RTD) AddPairs(sp particle.Species, n int64) {
	o.PairCount[sp] += n
}

// ResetPostExport clears the per-step write-once diagnostics, called by
// the export post-hook (spec.md §5 "Shared resource policy")
func (o *RTD) ResetPostExport() {
	for sp := range o.PairCount {
		o.PairCount[sp] = 0
	}
	o.Jsp = make(map[particle.Species][]float64, len(o.Jsp))
	o.SkinDepth = 0
}
