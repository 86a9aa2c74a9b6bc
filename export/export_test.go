// Copyright 2026 The Picfem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package export

import (
	"os"
	"testing"

	"github.com/cpmech/gosl/chk"

	"github.com/cpmech/picfem/field"
	"github.com/cpmech/picfem/grid"
	"github.com/cpmech/picfem/metric"
	"github.com/cpmech/picfem/rtd"
	"github.com/cpmech/picfem/shape"
)

func Test_export01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("export01. compute named fields over a coarsened grid")

	g := grid.NewGrid([3]float64{0, 1, 8}, [3]float64{0.1, 3.04, 8})
	m := grid.NewMesh(g, 1)
	e := field.NewE(m)
	b := field.NewB(m)
	j := field.NewJ(m)
	for ix := 0; ix < 8; ix++ {
		for iy := 0; iy < 8; iy++ {
			b.Set(0, []int{ix, iy}, 2.0)
			e.Set(0, []int{ix, iy}, 0.5)
		}
	}

	r := rtd.New(nil)
	r.SkinDepth = 0.3

	exp := NewExporter(2, 1.0, shape.NewCIC(), metric.NewSphericalLogR(), nil)
	dims := exp.CoarseDims(m)
	if dims[0] != 4 || dims[1] != 4 {
		tst.Fatalf("coarse dims = %v, want [4 4]", dims)
	}

	data := exp.Compute(e, b, j, m, r, 1.0)
	for _, name := range []string{"E1", "B1", "J4X1", "EparaB", "EdotJ", "Flux", "VolumeScale", "SkinDepth", "PairCreationRate"} {
		v, ok := data[name]
		if !ok {
			tst.Fatalf("missing exported field %q", name)
		}
		if len(v) != 16 {
			tst.Errorf("field %q has length %d, want 16", name, len(v))
		}
	}
	if data["SkinDepth"][0] != 0.3 {
		tst.Errorf("SkinDepth[0] = %v, want 0.3", data["SkinDepth"][0])
	}
}

func Test_exportSink01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("exportSink01. write a gob export shard to disk")

	dirOut, err := os.MkdirTemp("", "picfem-export")
	if err != nil {
		tst.Fatalf("cannot create temp dir: %v", err)
	}
	defer os.RemoveAll(dirOut)

	data := map[string][]float64{"E1": {1, 2, 3, 4}}
	sink := NewGobSink()
	if err := sink.Export(dirOut, 5, 1.25, data, []int{2, 2}, 0); err != nil {
		tst.Fatalf("export failed: %v", err)
	}
	if _, err := os.Stat(exportDirFor(dirOut, 5)); err != nil {
		tst.Errorf("export directory missing: %v", err)
	}
}
