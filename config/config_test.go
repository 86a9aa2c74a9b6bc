// Copyright 2026 The Picfem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/fun/dbf"
)

func Test_config01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("config01. round-trip a minimal configuration file and check defaults")

	d := &Data{
		Desc:     "unit test pulsar setup",
		DirOut:   "/tmp/picfem-test",
		Guard:    2,
		Axes:     []AxisData{{Lower: 0, Upper: 1, Dim: 8}, {Lower: 0, Upper: 3.14159, Dim: 8}},
		Species:  []SpeciesData{{Name: "electron", ShortName: "e", MassX: 1, ChargeX: -1}},
		Dlb:      DlbData{Stride: 20, TargetLoad: 1000},
		CartDims: []int{2, 1},
		Periodic: []bool{false, false},
		Dt:       1e-3,
		NumSteps: 10,
	}

	buf, err := json.Marshal(d)
	if err != nil {
		tst.Fatalf("cannot marshal test configuration:\n%v", err)
	}

	dir := tst.TempDir()
	path := filepath.Join(dir, "test.picsim")
	if err := os.WriteFile(path, buf, 0644); err != nil {
		tst.Fatalf("cannot write test configuration:\n%v", err)
	}

	got := Read(path)

	if got.Desc != d.Desc {
		tst.Errorf("Desc = %q, want %q", got.Desc, d.Desc)
	}
	if len(got.Axes) != 2 {
		tst.Errorf("len(Axes) = %d, want 2", len(got.Axes))
	}

	// applyDefaults must backfill the solver/checkpoint defaults spec.md
	// documents, since the marshaled input left SolverData at its zero value
	if got.Solver.K != 4 {
		tst.Errorf("Solver.K = %d, want default 4", got.Solver.K)
	}
	if got.Solver.Theta != 0.8 {
		tst.Errorf("Solver.Theta = %v, want default 0.8", got.Solver.Theta)
	}
	if got.Solver.Order != 2 {
		tst.Errorf("Solver.Order = %d, want default 2", got.Solver.Order)
	}
	if got.MaxCkpts != 4 {
		tst.Errorf("MaxCkpts = %d, want default 4", got.MaxCkpts)
	}
	if got.ExportRatio != 1 {
		tst.Errorf("ExportRatio = %d, want default 1", got.ExportRatio)
	}
	if got.SortStride != 10 {
		tst.Errorf("SortStride = %d, want default 10", got.SortStride)
	}
}

func Test_config02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("config02. explicit solver parameters are not overwritten by defaults")

	d := &Data{
		Axes:   []AxisData{{Lower: 0, Upper: 1, Dim: 4}},
		Solver: SolverData{Scheme: "semi-implicit", K: 6, Theta: 0.5, Order: 4},
	}
	buf, _ := json.Marshal(d)
	dir := tst.TempDir()
	path := filepath.Join(dir, "test2.picsim")
	os.WriteFile(path, buf, 0644)

	got := Read(path)
	if got.Solver.K != 6 {
		tst.Errorf("Solver.K = %d, want 6 (explicit, not default)", got.Solver.K)
	}
	if got.Solver.Scheme != "semi-implicit" {
		tst.Errorf("Solver.Scheme = %q, want %q", got.Solver.Scheme, "semi-implicit")
	}
}

func Test_config03(tst *testing.T) {

	//verbose()
	chk.PrintTitle("config03. omega function data builds a real gosl/fun.Func")

	unset := FuncData{}
	if v := unset.Build().F(5, nil); v != 0 {
		tst.Errorf("unset FuncData.Build().F(5,nil) = %v, want 0", v)
	}

	cte := FuncData{Type: "cte", Prms: dbf.Params{&dbf.P{N: "c", V: 2.5}}}
	if v := cte.Build().F(0, nil); v != 2.5 {
		tst.Errorf("cte FuncData.Build().F(0,nil) = %v, want 2.5", v)
	}
}
