// Copyright 2026 The Picfem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command simulator drives the distributed PIC simulator for one run,
// mirroring gofem's main.go: parse flags, start the message-passing layer,
// build the simulator from a configuration file, run it, and shut down
// cleanly under a top-level recover.
package main

import (
	"flag"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/mpi"

	"github.com/cpmech/picfem/action"
	"github.com/cpmech/picfem/balance"
	"github.com/cpmech/picfem/ckpt"
	"github.com/cpmech/picfem/config"
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
	"github.com/cpmech/picfem/sim"
	"github.com/cpmech/picfem/solver"
)

func main() {

	// catch errors the same way gofem's main.go does: print context,
	// flush, abort the job
	defer func() {
		if err := recover(); err != nil {
			if mpi.Rank() == 0 {
				chk.Verbose = true
				for i := 8; i > 3; i-- {
					chk.CallerInfo(i)
				}
				io.PfRed("ERROR: %v\n", err)
			}
		}
		mpi.Stop(false)
	}()
	mpi.Start(false)

	if mpi.Rank() == 0 {
		io.PfWhite("\npicfem -- distributed PIC simulator for relativistic plasma\n\n")
	}

	resumeDir := flag.String("resume", "", "resume from this checkpoint directory")
	dryRun := flag.Bool("dry-run", false, "parse configuration and build the simulator without stepping")
	logLevel := flag.String("v", "info", "log level: quiet|info")
	flag.Parse()

	var cfgPath string
	if len(flag.Args()) > 0 {
		cfgPath = flag.Arg(0)
	} else {
		chk.Panic("Please, provide a configuration filename. Ex.: pulsar.picsim")
	}

	cfg := config.Read(cfgPath)
	verbose := *logLevel != "quiet"

	world := buildWorldComm()
	s := buildSimulator(cfg, world, verbose)

	if *resumeDir != "" {
		dirOut, step := parseCheckpointDir(*resumeDir)
		reader := ckpt.NewGobStore()
		t, err := reader.Read(dirOut, step, s.E, s.B, s.J, s.Particles, world.Rank())
		if err != nil {
			chk.Panic("cannot resume from %q:\n%v", *resumeDir, err)
		}
		s.Timestep = step
		s.Time = t
	}

	if *dryRun {
		s.Log.Msg("dry-run: simulator built, %d steps configured, not stepping\n", cfg.NumSteps)
		return
	}

	if err := s.Run(cfg.NumSteps); err != nil {
		chk.Panic("run failed:\n%v", err)
	}
}

// buildWorldComm picks the MPI-backed communicator when the message-passing
// layer is active, or the single-process fake otherwise, exactly as
// gofem's main.go gates its own behavior on mpi.IsOn().
func buildWorldComm() ensemble.Comm {
	if mpi.IsOn() {
		return ensemble.NewWorldComm()
	}
	return ensemble.NewFakeWorldComm()
}

// buildSimulator wires every collaborator config.Data names into a running
// sim.Simulator: grid/mesh, species, field solver, per-species pusher
// pipelines, ensemble topology, migrator, balancer, RTD, checkpoint/export
// sinks.
func buildSimulator(cfg *config.Data, world ensemble.Comm, verbose bool) *sim.Simulator {

	axes := make([][3]float64, len(cfg.Axes))
	for i, a := range cfg.Axes {
		axes[i] = [3]float64{a.Lower, a.Upper, float64(a.Dim)}
	}
	g := grid.NewGrid(axes...)
	mesh := grid.NewMesh(g, cfg.Guard)

	mt := metric.NewSphericalLogR()

	var scheme solver.Scheme
	switch cfg.Solver.Scheme {
	case "semi-implicit":
		scheme = solver.NewSemiImplicit(cfg.Solver.K, cfg.Solver.Theta, cfg.Solver.Order)
	default:
		scheme = solver.NewClassic()
	}
	ops := solver.NewOperatorTable(solver.CentralDiff)

	topo := ensemble.Topology{Dims: cfg.CartDims, Periodic: cfg.Periodic}
	var ens *ensemble.Ensemble
	if mpi.IsOn() {
		ens = ensemble.NewFromWorld(topo, world.Rank(), world.Size())
	} else {
		ens = ensemble.NewSingleRank(topo)
	}

	rngSrc := rng.NewGosl()
	rngSrc.Init(cfg.Seed + world.Rank())

	particles := make(map[particle.Species]*particle.Array)
	pipelines := make(map[particle.Species]action.ParticlePipeline)
	pushers := make(map[particle.Species]*pusher.Pusher)
	kernel := shape.Get("cic")
	omegaFcn := cfg.Omega.Build()

	for _, spData := range cfg.Species {
		sp := speciesFromName(spData.Name)
		particle.Register(sp, &particle.Properties{
			MassX: spData.MassX, ChargeX: spData.ChargeX,
			Name: spData.Name, ShortName: spData.ShortName,
		})
		particles[sp] = particle.NewArray(sp, 1024)

		forces := pusher.ForceList{{Fn: pusher.Lorentz, Param: 1}}
		p := pusher.NewPusher(forces, nil, kernel)
		pushers[sp] = p

		pipeline := action.ParticlePipeline{
			&pusher.PushAction{
				Base:    action.Base{Name: "push-" + spData.Name},
				Species: sp,
				Pusher:  p,
				Metric:  mt,
			},
		}
		if sp == particle.Electron && cfg.Injector.Natm > 0 {
			pipeline = append(pipeline, &pusher.AtmosphereInjector{
				Base:    action.Base{Name: "atmosphere-injector"},
				Natm:    cfg.Injector.Natm,
				MinFrac: cfg.Injector.MinFrac,
				Vth:     cfg.Injector.Vth,
				Omega:   func(t float64) float64 { return omegaFcn.F(t, nil) },
			})
		}
		pipelines[sp] = pipeline
	}

	// the injector emits positrons alongside electrons regardless of whether
	// the config lists a positron species, so drainNewBuf always needs a
	// destination array for them (sim.go's drainNewBuf drops particles whose
	// species has no Particles entry).
	if cfg.Injector.Natm > 0 {
		ensurePositronSpecies(particles, pipelines, pushers, kernel, mt)
	}

	fieldPipeline := action.FieldPipeline{}

	migrator := migrate.NewMigrator(mesh.D())
	balancer := &balance.Balancer{TargetLoad: cfg.Dlb.TargetLoad, Stride: cfg.Dlb.Stride}

	species := make([]particle.Species, 0, len(particles))
	for sp := range particles {
		species = append(species, sp)
	}
	r := rtd.New(species)

	store := ckpt.NewGobStore()
	exporter := export.NewExporter(cfg.ExportRatio, cfg.Units.PREJ, kernel, mt, species)
	sink := export.NewGobSink()

	log := sim.NewLogger(ens.Label(), world.Rank(), verbose)

	s := sim.NewSimulator(mesh, mt, scheme, ops, fieldPipeline, particles, pipelines, pushers,
		ens, world, topo, migrator, balancer, r, rngSrc, store, exporter, sink, log)

	s.DirOut = cfg.DirOut
	s.Dt = cfg.Dt
	s.CkptEvery = cfg.CkptEvery
	s.MaxCkpts = cfg.MaxCkpts
	s.ExportEvery = cfg.ExportEvery
	s.SortStride = cfg.SortStride

	return s
}

// parseCheckpointDir splits a "dirout/ckpt_NNNNNN" path into the base
// output directory and the step number ckpt.GobStore.Read expects
// (ckpt's on-disk layout is dirFor(dirOut, step) = dirOut/ckpt_%06d).
func parseCheckpointDir(resumeDir string) (dirOut string, step int) {
	dirOut = filepath.Dir(resumeDir)
	base := filepath.Base(resumeDir)
	n, err := strconv.Atoi(strings.TrimPrefix(base, "ckpt_"))
	if err != nil {
		chk.Panic("cannot parse checkpoint step from directory %q:\n%v", resumeDir, err)
	}
	step = n
	return
}

// ensurePositronSpecies registers, allocates, and wires a positron species
// that was not explicitly listed in cfg.Species, so the atmosphere injector
// always has somewhere to deposit the positrons it emits alongside
// electrons (pusher.AtmosphereInjector.emitAt, spec.md's "Atmosphere
// injector").
func ensurePositronSpecies(particles map[particle.Species]*particle.Array,
	pipelines map[particle.Species]action.ParticlePipeline,
	pushers map[particle.Species]*pusher.Pusher, kernel shape.Kernel, mt metric.Coords) {

	if _, ok := particles[particle.Positron]; ok {
		return
	}
	if !particle.Registered(particle.Positron) {
		particle.Register(particle.Positron, &particle.Properties{
			MassX: 1, ChargeX: 1, Name: "positron", ShortName: "p",
		})
	}
	particles[particle.Positron] = particle.NewArray(particle.Positron, 1024)

	forces := pusher.ForceList{{Fn: pusher.Lorentz, Param: 1}}
	p := pusher.NewPusher(forces, nil, kernel)
	pushers[particle.Positron] = p

	pipelines[particle.Positron] = action.ParticlePipeline{
		&pusher.PushAction{
			Base:    action.Base{Name: "push-positron"},
			Species: particle.Positron,
			Pusher:  p,
			Metric:  mt,
		},
	}
}

func speciesFromName(name string) particle.Species {
	switch name {
	case "electron":
		return particle.Electron
	case "positron":
		return particle.Positron
	case "ion":
		return particle.Ion
	case "photon":
		return particle.Photon
	}
	chk.Panic("unknown species %q", name)
	return particle.Electron
}
