// Copyright 2026 The Picfem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package config implements the input data read from a (.picsim) JSON file.
// Full validation of user-supplied input is an external collaborator's
// concern (spec.md §1); this package only defines the shape the core
// types are constructed from, mirroring gofem's own inp.Data/inp.Simulation.
package config

import (
	"encoding/json"
	"os"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/fun"
	"github.com/cpmech/gosl/fun/dbf"
	"github.com/cpmech/gosl/io"
)

// AxisData describes one grid axis
type AxisData struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Dim   int     `json:"dim"`
}

// SpeciesData describes one registered particle species
type SpeciesData struct {
	Name      string  `json:"name"`
	ShortName string  `json:"short"`
	MassX     float64 `json:"mass"`
	ChargeX   float64 `json:"charge"`
}

// FuncData names a gosl/fun time function by type and parameters, grounded
// on inp.FuncData (`type`+`prms dbf.Params`, fed through `fun.New`) rather
// than a bare float or closure, matching how the teacher configures any
// time-varying quantity (gravity profile, load schedule, output cadence).
type FuncData struct {
	Type string     `json:"type"` // fun.New type key, e.g. "cte", "rmp"
	Prms dbf.Params `json:"prms"`
}

// Build constructs the gosl/fun.Func this data describes, defaulting to a
// constant zero function when Type is unset (no corotation field configured).
func (o FuncData) Build() fun.Func {
	if o.Type == "" {
		return &fun.Zero
	}
	f, err := fun.New(o.Type, o.Prms)
	if err != nil {
		chk.Panic("cannot build function of type %q:\n%v", o.Type, err)
	}
	return f
}

// InjectorData parameterizes the atmosphere pair injector (spec.md §4.3);
// Natm==0 leaves it unwired (opt-in, like positron/photon registration).
type InjectorData struct {
	Natm    float64 `json:"natm"`
	MinFrac float64 `json:"minfrac"`
	Vth     float64 `json:"vth"`
}

// DlbData holds dynamic-load-balancer parameters (spec.md §4.6)
type DlbData struct {
	Stride     int     `json:"stride"`     // balance every Stride steps
	TargetLoad float64 `json:"targetload"` // target_load
}

// SolverData selects and parameterizes the field solver (spec.md §4.2)
type SolverData struct {
	Scheme string  `json:"scheme"` // "classic" or "semi-implicit"
	K      int     `json:"k"`      // Haugbolle fixed-point iterations, default 4
	Theta  float64 `json:"theta"`  // relaxation parameter, default 0.8
	Order  int     `json:"order"`  // even order accuracy p, default 2
}

// DefaultSolverData returns the spec's documented defaults
func DefaultSolverData() SolverData {
	return SolverData{Scheme: "classic", K: 4, Theta: 0.8, Order: 2}
}

// UnitsData holds the unit-system constants named in the GLOSSARY
type UnitsData struct {
	WdtPIC float64 `json:"wdt_pic"` // dimensionless plasma-frequency*dt target
	PREJ   float64 `json:"prej"`    // 4π·r_e/ω_gyro,unit, scales J into code units
}

// Data holds global configuration for a simulation run
type Data struct {
	Desc      string        `json:"desc"`
	DirOut    string        `json:"dirout"`
	Guard     int           `json:"guard"`
	Axes      []AxisData    `json:"axes"`
	Species   []SpeciesData `json:"species"`
	Dlb       DlbData       `json:"dlb"`
	Solver    SolverData    `json:"solver"`
	Units     UnitsData     `json:"units"`
	// Omega is the corotation angular velocity Ω(t) fed to the atmosphere
	// injector's corotation momentum p_z = Ω(t)·exp(q0)·sin(q1) (spec.md
	// §4.3); unset (Type=="") builds a constant-zero function.
	Omega     FuncData      `json:"omega"`
	Injector  InjectorData  `json:"injector"`
	Dt        float64       `json:"dt"`
	NumSteps  int           `json:"numsteps"`
	CartDims  []int         `json:"cartdims"`
	Periodic  []bool        `json:"periodic"`
	Seed      int           `json:"seed"`
	CkptEvery   int `json:"ckptevery"`
	MaxCkpts    int `json:"maxckpts"`
	ExportEvery int `json:"exportevery"`
	ExportRatio int `json:"exportratio"` // downsample_ratio (spec.md §4.7's "coarsened by downsample_ratio")
	SortStride  int `json:"sortstride"`  // sort_particles_mr cadence
}

// Read decodes a JSON configuration file into a Data struct, grounded on
// inp.ReadSim's json.Unmarshal usage over an *os.File
func Read(path string) (o *Data) {
	buf, err := os.ReadFile(path)
	if err != nil {
		chk.Panic("cannot read configuration file %q:\n%v", path, err)
	}
	o = new(Data)
	err = json.Unmarshal(buf, o)
	if err != nil {
		chk.Panic("cannot parse configuration file %q:\n%v", path, err)
	}
	o.applyDefaults()
	io.Pf("> configuration file %q read\n", path)
	return
}

// applyDefaults fills zero-valued fields with the spec's documented defaults
func (o *Data) applyDefaults() {
	if o.Solver.K == 0 {
		o.Solver.K = 4
	}
	if o.Solver.Theta == 0 {
		o.Solver.Theta = 0.8
	}
	if o.Solver.Order == 0 {
		o.Solver.Order = 2
	}
	if o.MaxCkpts == 0 {
		o.MaxCkpts = 4
	}
	if o.ExportRatio == 0 {
		o.ExportRatio = 1
	}
	if o.SortStride == 0 {
		o.SortStride = 10
	}
}
