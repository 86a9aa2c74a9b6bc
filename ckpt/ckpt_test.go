// Copyright 2026 The Picfem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ckpt

import (
	"os"
	"testing"

	"github.com/cpmech/gosl/chk"

	"github.com/cpmech/picfem/field"
	"github.com/cpmech/picfem/grid"
	"github.com/cpmech/picfem/particle"
)

func Test_ckpt01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("ckpt01. write and read back a checkpoint shard")

	dirOut, err := os.MkdirTemp("", "picfem-ckpt")
	if err != nil {
		tst.Fatalf("cannot create temp dir: %v", err)
	}
	defer os.RemoveAll(dirOut)

	g := grid.NewGrid([3]float64{0, 1, 4}, [3]float64{0, 1, 4})
	m := grid.NewMesh(g, 1)
	e := field.NewE(m)
	b := field.NewB(m)
	j := field.NewJ(m)
	e.Set(0, []int{0, 0}, 1.25)
	b.Set(1, []int{1, 2}, -3.5)

	arr := particle.NewArray(particle.Electron, 4)
	arr.Append(particle.Particle{Q: [3]float64{0.1, 0.2, 0}, P: [3]float64{1, 0, 0}, State: particle.NewState(particle.Electron, 1, 0)})
	particles := map[particle.Species]*particle.Array{particle.Electron: arr}

	store := NewGobStore()
	err = store.Write(dirOut, 10, 3.5, e, b, j, particles, 0)
	if err != nil {
		tst.Fatalf("write failed: %v", err)
	}

	e2 := field.NewE(m)
	b2 := field.NewB(m)
	j2 := field.NewJ(m)
	arr2 := particle.NewArray(particle.Electron, 0)
	particles2 := map[particle.Species]*particle.Array{particle.Electron: arr2}

	t, err := store.Read(dirOut, 10, e2, b2, j2, particles2, 0)
	if err != nil {
		tst.Fatalf("read failed: %v", err)
	}
	if t != 3.5 {
		tst.Errorf("t = %v, want 3.5", t)
	}
	if e2.At(0, []int{0, 0}) != 1.25 {
		tst.Errorf("e2[0,0,0] = %v, want 1.25", e2.At(0, []int{0, 0}))
	}
	if b2.At(1, []int{1, 2}) != -3.5 {
		tst.Errorf("b2[1,1,2] = %v, want -3.5", b2.At(1, []int{1, 2}))
	}
	if arr2.Count() != 1 {
		tst.Errorf("restored particle count = %d, want 1", arr2.Count())
	}
}

func Test_ckptPrune01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("ckptPrune01. pruning keeps only the most recent checkpoints")

	dirOut, err := os.MkdirTemp("", "picfem-ckpt-prune")
	if err != nil {
		tst.Fatalf("cannot create temp dir: %v", err)
	}
	defer os.RemoveAll(dirOut)

	g := grid.NewGrid([3]float64{0, 1, 2}, [3]float64{0, 1, 2})
	m := grid.NewMesh(g, 1)
	e, b, j := field.NewE(m), field.NewB(m), field.NewJ(m)
	particles := map[particle.Species]*particle.Array{particle.Electron: particle.NewArray(particle.Electron, 0)}
	store := NewGobStore()

	for _, step := range []int{0, 5, 10, 15} {
		if err := store.Write(dirOut, step, float64(step), e, b, j, particles, 0); err != nil {
			tst.Fatalf("write step %d failed: %v", step, err)
		}
	}
	if err := Prune(dirOut, 2); err != nil {
		tst.Fatalf("prune failed: %v", err)
	}
	latest, err := LatestStep(dirOut)
	if err != nil {
		tst.Fatalf("latest failed: %v", err)
	}
	if latest != 15 {
		tst.Errorf("latest step = %d, want 15", latest)
	}
	if _, err := os.Stat(dirFor(dirOut, 0)); !os.IsNotExist(err) {
		tst.Errorf("checkpoint 0 should have been pruned")
	}
	if _, err := os.Stat(dirFor(dirOut, 10)); err != nil {
		tst.Errorf("checkpoint 10 should still exist: %v", err)
	}
}
