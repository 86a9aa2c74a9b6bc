// Copyright 2026 The Picfem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package ckpt implements the checkpoint I/O collaborator: a
// directory-per-checkpoint, multi-part container encoded with
// encoding/gob, modeled on the teacher's Summary.Read/Write pattern
// (fem/fem.go's "o.Summary.Read(o.Sim.DirOut, ...)" / "o.Summary.Save(...)").
package ckpt

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"

	"github.com/cpmech/picfem/field"
	"github.com/cpmech/picfem/particle"
)

// Writer persists one rank's shard of the simulation state at a timestep.
type Writer interface {
	Write(dirOut string, step int, t float64, e, b, j *field.Field,
		particles map[particle.Species]*particle.Array, rank int) error
}

// Reader restores one rank's shard of the simulation state.
type Reader interface {
	Read(dirOut string, step int, e, b, j *field.Field,
		particles map[particle.Species]*particle.Array, rank int) (t float64, err error)
}

// GobStore is the default Writer/Reader: each checkpoint is a directory
// "ckpt_%06d" holding one gob-encoded part file per field and per species,
// named "field_e_rNNN.gob" etc (spec.md §6's "one file per part").
type GobStore struct{}

// NewGobStore allocates the default checkpoint collaborator
func NewGobStore() *GobStore { return &GobStore{} }

// meta is the small header part every checkpoint directory carries
type meta struct {
	Step    int
	Time    float64
	NComp   int
	Species []particle.Species
}

// ptcPart is the on-disk shape of one species' particle array
type ptcPart struct {
	Q     [][particle.Dptc]float64
	P     [][particle.Dptc]float64
	State []particle.State
}

func dirFor(dirOut string, step int) string {
	return filepath.Join(dirOut, fmt.Sprintf("ckpt_%06d", step))
}

func partPath(dir, name string, rank int) string {
	return filepath.Join(dir, fmt.Sprintf("%s_r%03d.gob", name, rank))
}

func (o *GobStore) Write(dirOut string, step int, t float64, e, b, j *field.Field,
	particles map[particle.Species]*particle.Array, rank int) error {

	dir := dirFor(dirOut, step)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return chk.Err("cannot create checkpoint directory %q:\n%v", dir, err)
	}

	species := make([]particle.Species, 0, len(particles))
	for sp := range particles {
		species = append(species, sp)
	}
	sort.Slice(species, func(i, k int) bool { return species[i] < species[k] })

	m := meta{Step: step, Time: t, NComp: e.NComp, Species: species}
	if err := writePart(partPath(dir, "meta", rank), &m); err != nil {
		return err
	}
	if err := writeFieldPart(partPath(dir, "field_e", rank), e); err != nil {
		return err
	}
	if err := writeFieldPart(partPath(dir, "field_b", rank), b); err != nil {
		return err
	}
	if err := writeFieldPart(partPath(dir, "field_j", rank), j); err != nil {
		return err
	}
	for _, sp := range species {
		arr := particles[sp]
		part := ptcPart{Q: arr.Q, P: arr.P, State: arr.State}
		name := fmt.Sprintf("ptc_%s", sp.String())
		if err := writePart(partPath(dir, name, rank), &part); err != nil {
			return err
		}
	}
	if rank == 0 {
		io.Pf("> checkpoint written: %s\n", dir)
	}
	return nil
}

func (o *GobStore) Read(dirOut string, step int, e, b, j *field.Field,
	particles map[particle.Species]*particle.Array, rank int) (t float64, err error) {

	dir := dirFor(dirOut, step)
	var m meta
	if err = readPart(partPath(dir, "meta", rank), &m); err != nil {
		return
	}
	t = m.Time
	if err = readFieldPart(partPath(dir, "field_e", rank), e); err != nil {
		return
	}
	if err = readFieldPart(partPath(dir, "field_b", rank), b); err != nil {
		return
	}
	if err = readFieldPart(partPath(dir, "field_j", rank), j); err != nil {
		return
	}
	for _, sp := range m.Species {
		var part ptcPart
		name := fmt.Sprintf("ptc_%s", sp.String())
		if err = readPart(partPath(dir, name, rank), &part); err != nil {
			return
		}
		arr, ok := particles[sp]
		if !ok {
			err = chk.Err("checkpoint species %v has no matching registered array", sp)
			return
		}
		arr.Q = part.Q
		arr.P = part.P
		arr.State = part.State
	}
	return
}

// writeFieldPart gob-encodes a field's component data (the mesh/offsets are
// reconstructed from configuration on read, so only Data is persisted).
func writeFieldPart(path string, f *field.Field) error {
	return writePart(path, &f.Data)
}

func readFieldPart(path string, f *field.Field) error {
	return readPart(path, &f.Data)
}

func writePart(path string, v interface{}) error {
	fh, err := os.Create(path)
	if err != nil {
		return chk.Err("cannot create checkpoint part %q:\n%v", path, err)
	}
	defer fh.Close()
	if err := gob.NewEncoder(fh).Encode(v); err != nil {
		return chk.Err("cannot encode checkpoint part %q:\n%v", path, err)
	}
	return nil
}

func readPart(path string, v interface{}) error {
	fh, err := os.Open(path)
	if err != nil {
		return chk.Err("cannot open checkpoint part %q:\n%v", path, err)
	}
	defer fh.Close()
	if err := gob.NewDecoder(fh).Decode(v); err != nil {
		return chk.Err("cannot decode checkpoint part %q:\n%v", path, err)
	}
	return nil
}

// Prune removes the oldest checkpoint directories beyond maxCkpts, keeping
// the most recent ones (spec.md §4.7's "maxckpts" retention policy).
func Prune(dirOut string, maxCkpts int) error {
	if maxCkpts <= 0 {
		return nil
	}
	entries, err := os.ReadDir(dirOut)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return chk.Err("cannot list output directory %q:\n%v", dirOut, err)
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() && len(e.Name()) > 5 && e.Name()[:5] == "ckpt_" {
			dirs = append(dirs, e.Name())
		}
	}
	sort.Strings(dirs)
	if len(dirs) <= maxCkpts {
		return nil
	}
	for _, name := range dirs[:len(dirs)-maxCkpts] {
		if err := os.RemoveAll(filepath.Join(dirOut, name)); err != nil {
			return chk.Err("cannot remove old checkpoint %q:\n%v", name, err)
		}
	}
	return nil
}

// LatestStep scans dirOut for the highest-numbered checkpoint directory,
// returning (-1, nil) if none exist.
func LatestStep(dirOut string) (step int, err error) {
	entries, err := os.ReadDir(dirOut)
	if err != nil {
		if os.IsNotExist(err) {
			return -1, nil
		}
		return -1, chk.Err("cannot list output directory %q:\n%v", dirOut, err)
	}
	step = -1
	for _, e := range entries {
		if !e.IsDir() || len(e.Name()) != len("ckpt_000000") {
			continue
		}
		var n int
		if _, scanErr := fmt.Sscanf(e.Name(), "ckpt_%06d", &n); scanErr == nil {
			if n > step {
				step = n
			}
		}
	}
	return
}
