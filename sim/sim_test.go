// Copyright 2026 The Picfem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sim

import (
	"os"
	"testing"

	"github.com/cpmech/gosl/chk"

	"github.com/cpmech/picfem/action"
	"github.com/cpmech/picfem/balance"
	"github.com/cpmech/picfem/ckpt"
	"github.com/cpmech/picfem/ensemble"
	"github.com/cpmech/picfem/export"
	"github.com/cpmech/picfem/grid"
	"github.com/cpmech/picfem/metric"
	"github.com/cpmech/picfem/migrate"
	"github.com/cpmech/picfem/particle"
	"github.com/cpmech/picfem/pusher"
	"github.com/cpmech/picfem/rng"
	"github.com/cpmech/picfem/rtd"
	"github.com/cpmech/picfem/shape"
	"github.com/cpmech/picfem/solver"
)

func newTestSimulator(tst *testing.T, dirOut string) *Simulator {
	if !particle.Registered(particle.Electron) {
		particle.Register(particle.Electron, &particle.Properties{MassX: 1, ChargeX: -1, Name: "electron", ShortName: "e"})
	}
	if !particle.Registered(particle.Positron) {
		particle.Register(particle.Positron, &particle.Properties{MassX: 1, ChargeX: 1, Name: "positron", ShortName: "p"})
	}

	g := grid.NewGrid([3]float64{0, 1, 4}, [3]float64{0.1, 3.04, 4})
	m := grid.NewMesh(g, 1)
	mt := metric.NewSphericalLogR()

	topo := ensemble.Topology{Dims: []int{1, 1}, Periodic: []bool{false, false}}
	ens := ensemble.NewSingleRank(topo)

	arrE := particle.NewArray(particle.Electron, 4)
	arrE.Append(particle.Particle{Q: [3]float64{1.5, 1.5, 0}, P: [3]float64{0.1, 0, 0}, State: particle.NewState(particle.Electron, 1, 0)})
	arrP := particle.NewArray(particle.Positron, 4)
	particles := map[particle.Species]*particle.Array{particle.Electron: arrE, particle.Positron: arrP}

	pshE := pusher.NewPusher(pusher.ForceList{{Fn: pusher.Lorentz, Param: 1.0}}, nil, shape.NewCIC())
	pshP := pusher.NewPusher(pusher.ForceList{{Fn: pusher.Lorentz, Param: 1.0}}, nil, shape.NewCIC())
	pushers := map[particle.Species]*pusher.Pusher{particle.Electron: pshE, particle.Positron: pshP}

	migrator := migrate.NewMigrator(2)
	balancer := &balance.Balancer{TargetLoad: 10, Stride: 0}

	r := rtd.New([]particle.Species{particle.Electron, particle.Positron})
	rngSrc := &rng.Gosl{}

	exp := export.NewExporter(2, 1.0, shape.NewCIC(), mt, nil)
	sink := export.NewGobSink()
	store := ckpt.NewGobStore()

	log := NewLogger(ens.Label(), ens.Rank(), false)

	scheme := solver.NewClassic()
	ops := solver.NewOperatorTable(solver.CentralDiff)

	o := NewSimulator(m, mt, scheme, ops, action.FieldPipeline{}, particles, nil, pushers,
		ens, ens.Cart, topo, migrator, balancer, r, rngSrc, store, exp, sink, log)

	o.Pipelines = map[particle.Species]action.ParticlePipeline{
		particle.Electron: {&pusher.PushAction{Base: action.Base{Name: "push-e"}, Species: particle.Electron, Pusher: pshE, Metric: mt, NextSerial: o.NextSerial}},
		particle.Positron: {&pusher.PushAction{Base: action.Base{Name: "push-p"}, Species: particle.Positron, Pusher: pshP, Metric: mt, NextSerial: o.NextSerial}},
	}

	o.DirOut = dirOut
	o.Dt = 1e-3
	o.CkptEvery = 0
	o.ExportEvery = 0
	return o
}

func Test_sim01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("sim01. one timestep advances fields and particles")

	dirOut, err := os.MkdirTemp("", "picfem-sim")
	if err != nil {
		tst.Fatalf("cannot create temp dir: %v", err)
	}
	defer os.RemoveAll(dirOut)

	o := newTestSimulator(tst, dirOut)
	if err := o.Step(); err != nil {
		tst.Fatalf("step failed: %v", err)
	}
	if o.Timestep != 1 {
		tst.Errorf("timestep = %d, want 1", o.Timestep)
	}
	if o.Time <= 0 {
		tst.Errorf("time did not advance: %v", o.Time)
	}
}

func Test_sim02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("sim02. export and checkpoint fire on their configured cadence")

	dirOut, err := os.MkdirTemp("", "picfem-sim-ckpt")
	if err != nil {
		tst.Fatalf("cannot create temp dir: %v", err)
	}
	defer os.RemoveAll(dirOut)

	o := newTestSimulator(tst, dirOut)
	o.CkptEvery = 1
	o.ExportEvery = 1
	o.MaxCkpts = 4

	if err := o.Run(2); err != nil {
		tst.Fatalf("run failed: %v", err)
	}
	if _, err := os.Stat(dirOut); err != nil {
		tst.Errorf("output directory missing: %v", err)
	}
}
