// Copyright 2026 The Picfem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sim

import (
	"github.com/cpmech/gosl/chk"

	"github.com/cpmech/picfem/action"
	"github.com/cpmech/picfem/balance"
	"github.com/cpmech/picfem/ckpt"
	"github.com/cpmech/picfem/ensemble"
	"github.com/cpmech/picfem/export"
	"github.com/cpmech/picfem/field"
	"github.com/cpmech/picfem/grid"
	"github.com/cpmech/picfem/metric"
	"github.com/cpmech/picfem/migrate"
	"github.com/cpmech/picfem/particle"
	"github.com/cpmech/picfem/pusher"
	"github.com/cpmech/picfem/rng"
	"github.com/cpmech/picfem/rtd"
	"github.com/cpmech/picfem/solver"
)

// Simulator owns every collaborator a running process needs and drives the
// per-timestep loop of spec.md §4.7, generalized from fem.FEM's stage loop
// (SetStage -> ZeroStage -> Solver.Run in fem/fem.go) to PIC's
// field/particle/migrate/export/checkpoint/balance pipeline.
type Simulator struct {
	Mesh   *grid.Mesh
	Metric metric.Coords
	Scheme solver.Scheme
	Ops    *solver.OperatorTable
	E, B, J *field.Field

	FieldPipeline action.FieldPipeline

	Species    []particle.Species
	Particles  map[particle.Species]*particle.Array
	Pipelines  map[particle.Species]action.ParticlePipeline
	Pushers    map[particle.Species]*pusher.Pusher
	NewBuf     *particle.Array

	Ensemble *ensemble.Ensemble
	World    ensemble.Comm
	Topo     ensemble.Topology
	Migrator *migrate.Migrator
	Balancer *balance.Balancer

	RTD *rtd.RTD
	Rng rng.Source

	Ckpt   ckpt.Writer
	Export *export.Exporter
	Sink   export.Sink

	DirOut      string
	Dt          float64
	Timestep    int
	Time        float64
	SortStride  int
	CkptEvery   int
	ExportEvery int
	MaxCkpts    int

	Log *Logger

	serial uint32
}

// NewSimulator assembles a Simulator from its pre-built collaborators; the
// caller (cmd/simulator/main.go in this repo) is responsible for wiring the
// domain-specific forces, scattering channels, injector and solver
// configuration from a config.Data, mirroring how fem.FEM is constructed
// from an already-parsed inp.Simulation/inp.Domain pair rather than parsing
// input itself.
func NewSimulator(mesh *grid.Mesh, mt metric.Coords, scheme solver.Scheme, ops *solver.OperatorTable,
	fieldPipeline action.FieldPipeline, particles map[particle.Species]*particle.Array,
	pipelines map[particle.Species]action.ParticlePipeline, pushers map[particle.Species]*pusher.Pusher,
	ens *ensemble.Ensemble, world ensemble.Comm, topo ensemble.Topology, migrator *migrate.Migrator,
	balancer *balance.Balancer, r *rtd.RTD, rngSrc rng.Source, store ckpt.Writer, exp *export.Exporter,
	sink export.Sink, log *Logger) (o *Simulator) {

	species := make([]particle.Species, 0, len(particles))
	for sp := range particles {
		species = append(species, sp)
	}

	o = &Simulator{
		Mesh:          mesh,
		Metric:        mt,
		Scheme:        scheme,
		Ops:           ops,
		E:             field.NewE(mesh),
		B:             field.NewB(mesh),
		J:             field.NewJ(mesh),
		FieldPipeline: fieldPipeline,
		Species:       species,
		Particles:     particles,
		Pipelines:     pipelines,
		Pushers:       pushers,
		NewBuf:        particle.NewArray(particle.Electron, 64),
		Ensemble:      ens,
		World:         world,
		Topo:          topo,
		Migrator:      migrator,
		Balancer:      balancer,
		RTD:           r,
		Rng:           rngSrc,
		Ckpt:          store,
		Export:        exp,
		Sink:          sink,
		Log:           log,
		SortStride:    10,
	}
	return
}

// NextSerial hands out process-unique serial numbers to newly created
// particles (pair-production daughters, injected atmosphere particles),
// stamped into particle.State's origin/serial bitfield. A caller that
// builds the particle pipelines after the Simulator can wire it into each
// species' pusher.PushAction.NextSerial field (this package's tests do);
// cmd/simulator builds its pipelines first and leaves NextSerial unset.
func (o *Simulator) NextSerial() uint32 {
	o.serial++
	return o.serial
}

// Step advances the simulation by one timestep, implementing spec.md
// §4.7's eight ordered sub-steps.
func (o *Simulator) Step() error {
	o.Timestep++
	o.RTD.SetStep(o.Timestep)

	// (1) sort particles periodically: compact tombstones, the slots whose
	// exist flag was cleared without a SwapErase (sort_particles_mr).
	if o.SortStride > 0 && o.Timestep%o.SortStride == 0 {
		for _, arr := range o.Particles {
			arr.CompactExisting()
		}
	}

	// (2) field-action pipeline: bulk solve, guard exchange, then the
	// ordered boundary actions (conductor interior, damping layer, axis
	// symmetrize), per spec.md §4.2.
	if err := o.Scheme.Advance(o.E, o.B, o.J, o.Mesh, o.Metric, o.Ops, o.Dt); err != nil {
		return chk.Err("field solve failed at step %d:\n%v", o.Timestep, err)
	}
	o.Ensemble.SyncGuardCopy(o.E)
	o.Ensemble.SyncGuardCopy(o.B)
	if err := o.FieldPipeline.Run(o.E, o.B, o.J, o.Mesh, o.Ensemble, o.Timestep, o.Dt); err != nil {
		return chk.Err("field boundary pipeline failed at step %d:\n%v", o.Timestep, err)
	}

	// J is fully consumed by the solve above; zero it so the particle
	// pipeline's deposition starts the next current accumulation clean.
	o.J.Zero()

	exportDue := o.ExportEvery > 0 && o.Timestep%o.ExportEvery == 0
	if exportDue {
		for _, sp := range o.Species {
			if psh := o.Pushers[sp]; psh != nil {
				psh.Jsp = field.NewJ(o.Mesh)
			}
		}
	}

	// (3) particle-action pipeline per species (injector, push), then a
	// single whole-ensemble migration call (the particle pipeline "ends in
	// migration" at the simulator-loop level, since migrate.Migrator.Run
	// operates on every species' array at once rather than one at a time).
	for _, sp := range o.Species {
		arr := o.Particles[sp]
		props := particle.Get(sp)
		pipeline := o.Pipelines[sp]
		o.NewBuf.Q = o.NewBuf.Q[:0]
		o.NewBuf.P = o.NewBuf.P[:0]
		o.NewBuf.State = o.NewBuf.State[:0]
		if err := pipeline.Run(arr, o.J, o.NewBuf, props, o.E, o.B, o.Mesh, o.Ensemble, o.Dt, o.Timestep, o.Rng); err != nil {
			return chk.Err("particle pipeline for species %v failed at step %d:\n%v", sp, o.Timestep, err)
		}
		o.drainNewBuf()
	}
	if err := o.Migrator.Run(o.Ensemble, o.Particles, o.Mesh, o.Dt); err != nil {
		return chk.Err("migration failed at step %d:\n%v", o.Timestep, err)
	}

	// (4) merge-sync J guard cells: every rank's deposit into its own
	// guard cells must be summed into the owning rank's bulk.
	o.Ensemble.SyncGuardMerge(o.J)

	// (5) export pre-hook -> export -> post-hook
	if exportDue {
		o.RTD.SkinDepth = o.skinDepth()
		for _, sp := range o.Species {
			if psh := o.Pushers[sp]; psh != nil && psh.Jsp != nil {
				o.RTD.Jsp[sp] = flattenField(psh.Jsp)
				psh.Jsp = nil
			}
		}
		dtSinceExport := o.Dt * float64(o.ExportEvery)
		data := o.Export.Compute(o.E, o.B, o.J, o.Mesh, o.RTD, dtSinceExport)
		dims := o.Export.CoarseDims(o.Mesh)
		if err := o.Sink.Export(o.DirOut, o.Timestep, o.Time, data, dims, o.Ensemble.Rank()); err != nil {
			return chk.Err("export failed at step %d:\n%v", o.Timestep, err)
		}
		o.RTD.ResetPostExport()
	}

	// (6) checkpoint, if due
	if o.CkptEvery > 0 && o.Timestep%o.CkptEvery == 0 {
		if err := o.Ckpt.Write(o.DirOut, o.Timestep, o.Time, o.E, o.B, o.J, o.Particles, o.Ensemble.Rank()); err != nil {
			return chk.Err("checkpoint write failed at step %d:\n%v", o.Timestep, err)
		}
		if o.Ensemble.Rank() == 0 {
			if err := ckpt.Prune(o.DirOut, o.MaxCkpts); err != nil {
				return chk.Err("checkpoint prune failed at step %d:\n%v", o.Timestep, err)
			}
		}
	}

	// (7) dynamic balance, if due
	if o.Balancer != nil && o.Balancer.Due(o.Timestep) {
		newEns, err := o.Balancer.Run(o.World, o.Ensemble, o.Topo, o.Particles)
		if err != nil {
			return chk.Err("balance pass failed at step %d:\n%v", o.Timestep, err)
		}
		o.Ensemble = newEns
	}

	// (8) update vitals and print
	o.Time += o.Dt
	o.Log.Msg("step %6d  t=%.6e  dt=%.3e\n", o.Timestep, o.Time, o.Dt)

	return nil
}

// Run advances the simulation for the given number of steps, printing a
// success/failure banner the way fem.FEM.Run's onexit does.
func (o *Simulator) Run(numSteps int) (err error) {
	for i := 0; i < numSteps; i++ {
		if err = o.Step(); err != nil {
			o.Log.Warn("> Failed\n")
			return
		}
	}
	o.Log.Success("> Success\n")
	return nil
}

// drainNewBuf appends every particle accumulated in NewBuf (by the
// atmosphere injector or a scattering channel, both species-agnostic
// scratch writers) into the correctly-typed destination array, determined
// by each particle's own State.Species(), then clears NewBuf for reuse.
func (o *Simulator) drainNewBuf() {
	for i := 0; i < o.NewBuf.Len(); i++ {
		p := o.NewBuf.Get(i)
		sp := p.State.Species()
		dest, ok := o.Particles[sp]
		if !ok {
			continue
		}
		dest.Append(p)
	}
	o.NewBuf.Q = o.NewBuf.Q[:0]
	o.NewBuf.P = o.NewBuf.P[:0]
	o.NewBuf.State = o.NewBuf.State[:0]
}

// skinDepth estimates the local plasma skin depth from the chief rank's
// particle census (grounded on pic_impl_pulsar.hpp's skin_depth, which
// derives the same quantity from the local number density); simplified
// here to a single ensemble-wide scalar rather than a per-cell field,
// consistent with rtd.RTD's scalar SkinDepth member.
func (o *Simulator) skinDepth() float64 {
	total := 0
	for _, arr := range o.Particles {
		total += arr.Count()
	}
	if total == 0 {
		return 0
	}
	n := float64(total) / float64(o.Mesh.Size())
	return 1.0 / (n + 1e-16)
}

// flattenField copies a field.Field's per-component data into a single
// flat []float64 (component-major: comp*size+cellIndex), matching the
// layout export.Exporter.Compute expects for rtd.RTD.Jsp.
func flattenField(f *field.Field) []float64 {
	size := f.Mesh.Size()
	out := make([]float64, f.NComp*size)
	for c := 0; c < f.NComp; c++ {
		copy(out[c*size:(c+1)*size], f.Data[c])
	}
	return out
}
