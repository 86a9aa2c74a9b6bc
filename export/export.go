// Copyright 2026 The Picfem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package export implements the data-export collaborator: named,
// downsampled diagnostic fields written in the same gob-part container
// format as ckpt (spec.md §6's "same container format, one directory per
// export step, coarsened by downsample_ratio").
package export

import (
	"encoding/gob"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"

	"github.com/cpmech/picfem/field"
	"github.com/cpmech/picfem/grid"
	"github.com/cpmech/picfem/metric"
	"github.com/cpmech/picfem/particle"
	"github.com/cpmech/picfem/pusher"
	"github.com/cpmech/picfem/rtd"
	"github.com/cpmech/picfem/shape"
)

// Sink persists one rank's shard of the named, coarsened export fields.
type Sink interface {
	Export(dirOut string, step int, t float64, data map[string][]float64, coarseDims []int, rank int) error
}

// Exporter computes the named diagnostic fields spec.md §6 enumerates, over
// a grid coarsened by Ratio, grounded on pic_impl_pulsar.hpp's
// set_up_field_export (field_self<F>, EparaB, EdotJ, dFlux_pol,
// volume_scale, frac_J_sp).
type Exporter struct {
	Ratio      int
	Prej       float64 // scales the raw current field into physical units (spec.md GLOSSARY's "4π·r_e/ω_gyro,unit")
	Kernel     shape.Kernel
	Metric     metric.Coords
	JspSpecies []particle.Species // species whose fractional current is exported (RTD.Jsp must carry these)
}

// NewExporter allocates an Exporter
func NewExporter(ratio int, prej float64, k shape.Kernel, mt metric.Coords, jspSpecies []particle.Species) *Exporter {
	if ratio < 1 {
		chk.Panic("export downsample ratio must be >= 1 (ratio = %d is incorrect)", ratio)
	}
	return &Exporter{Ratio: ratio, Prej: prej, Kernel: k, Metric: mt, JspSpecies: jspSpecies}
}

// CoarseDims returns the per-axis coarse cell counts
func (o *Exporter) CoarseDims(m *grid.Mesh) []int {
	dims := make([]int, m.D())
	for a, g := range m.Grid {
		dims[a] = g.Dim / o.Ratio
	}
	return dims
}

// Compute evaluates every named field over the coarse grid, flattening
// multi-component fields into "<name><comp+1>" keys (e.g. "E1","E2","E3"),
// matching the teacher's '#'-substitution convention in smart_save.
func (o *Exporter) Compute(e, b, j *field.Field, m *grid.Mesh, r *rtd.RTD, dtSinceLastExport float64) map[string][]float64 {
	dims := o.CoarseDims(m)
	n := 1
	for _, d := range dims {
		n *= d
	}

	out := make(map[string][]float64)
	alloc3 := func(name string) [3][]float64 {
		var a [3][]float64
		for c := 0; c < 3; c++ {
			a[c] = make([]float64, n)
			out[fmt.Sprintf("%s%d", name, c+1)] = a[c]
		}
		return a
	}
	alloc1 := func(name string) []float64 {
		a := make([]float64, n)
		out[name] = a
		return a
	}

	eComp := alloc3("E")
	bComp := alloc3("B")
	jComp := alloc3("J4X")
	eparaB := alloc1("EparaB")
	edotJ := alloc1("EdotJ")
	flux := alloc1("Flux")
	pcRate := alloc1("PairCreationRate")
	volScale := alloc1("VolumeScale")
	skinDepth := alloc1("SkinDepth")

	fJ := make(map[particle.Species][3][]float64, len(o.JspSpecies))
	for _, sp := range o.JspSpecies {
		fJ[sp] = alloc3("fJ_" + sp.String())
	}

	totalPairs := int64(0)
	for _, cnt := range r.PairCount {
		totalPairs += cnt
	}

	fluxAccum := make([]float64, dims[0])
	idx := 0
	forEachCoarse(dims, func(cc []int) {
		q := coarseCenter(cc, o.Ratio)

		ef := pusher.Interpolate(e, q, m, o.Kernel)
		bf := pusher.Interpolate(b, q, m, o.Kernel)
		jf := pusher.Interpolate(j, q, m, o.Kernel)

		for c := 0; c < 3; c++ {
			eComp[c][idx] = ef[c]
			bComp[c][idx] = bf[c]
			jf[c] *= o.Prej
			jComp[c][idx] = divideByHH(jf[c], c, q, o.Metric)
		}

		bNorm := math.Sqrt(bf[0]*bf[0] + bf[1]*bf[1] + bf[2]*bf[2]) + 1e-16
		eparaB[idx] = (ef[0]*bf[0] + ef[1]*bf[1] + ef[2]*bf[2]) / bNorm
		edotJ[idx] = ef[0]*jf[0] + ef[1]*jf[1] + ef[2]*jf[2]

		// poloidal flux: exclusive scan of the per-cell increment along the
		// theta (axis 1) direction, restarted at theta index 0 for every
		// radial (axis 0) index.
		dFlux := bf[0] * math.Exp(2*q[0]) * math.Sin(q[1])
		if len(dims) >= 2 {
			if cc[1] == 0 {
				fluxAccum[cc[0]] = 0
			}
			flux[idx] = fluxAccum[cc[0]]
			fluxAccum[cc[0]] += dFlux
		} else {
			flux[idx] = dFlux
		}

		if r.SkinDepth != 0 {
			skinDepth[idx] = r.SkinDepth
		}
		if dtSinceLastExport > 0 {
			pcRate[idx] = float64(totalPairs) / dtSinceLastExport
		}
		volScale[idx] = o.Metric.H(0, q) * o.Metric.H(1, q) * o.Metric.H(2, q)

		for _, sp := range o.JspSpecies {
			buf, ok := r.Jsp[sp]
			if !ok {
				continue
			}
			size := m.Size()
			cellIdx := m.LinearIndex(nearestCell(cc, o.Ratio))
			for c := 0; c < 3; c++ {
				jsp := 0.0
				off := c*size + cellIdx
				if off < len(buf) {
					jsp = buf[off]
				}
				v := 0.0
				if jf[c] != 0 {
					v = jsp / jf[c]
				}
				fJ[sp][c][idx] = v
			}
		}

		idx++
	})

	return out
}

// divideByHH divides a current component by the metric area factor
// orthogonal to that component's direction (the product of the other two
// axes' metric factors), zeroing the result where that factor vanishes
// (grounded on divide_flux_by_area).
func divideByHH(v float64, comp int, q [3]float64, mt metric.Coords) float64 {
	hh := 1.0
	for k := 0; k < 3; k++ {
		if k == comp {
			continue
		}
		hh *= mt.H(k, q)
	}
	if math.Abs(hh) < 1e-12 {
		return 0
	}
	return v / hh
}

// forEachCoarse iterates every coarse-cell index in row-major (axis 0
// fastest) order
func forEachCoarse(dims []int, fn func(cc []int)) {
	d := len(dims)
	cc := make([]int, d)
	for {
		fn(cc)
		axis := 0
		for axis < d {
			cc[axis]++
			if cc[axis] < dims[axis] {
				break
			}
			cc[axis] = 0
			axis++
		}
		if axis == d {
			break
		}
	}
}

// coarseCenter maps a coarse-cell index to the fine-mesh cell-index
// coordinate of the downsample block's center (the point every named field
// is sampled at via shape interpolation).
func coarseCenter(cc []int, ratio int) (q [3]float64) {
	for a, c := range cc {
		q[a] = float64(c*ratio) + float64(ratio)/2
	}
	return
}

// nearestCell maps a coarse-cell index to the nearest fine bulk cell
// (used for the per-species current buffer, which is a raw cell array
// rather than a shape-interpolatable field.Field).
func nearestCell(cc []int, ratio int) []int {
	out := make([]int, len(cc))
	for a, c := range cc {
		out[a] = c*ratio + ratio/2
	}
	return out
}

// GobSink is the default Sink: one directory per export step,
// "export_%06d", one gob part file per named field per rank.
type GobSink struct{}

// NewGobSink allocates the default export collaborator
func NewGobSink() *GobSink { return &GobSink{} }

func exportDirFor(dirOut string, step int) string {
	return filepath.Join(dirOut, fmt.Sprintf("export_%06d", step))
}

func (o *GobSink) Export(dirOut string, step int, t float64, data map[string][]float64, coarseDims []int, rank int) error {
	dir := exportDirFor(dirOut, step)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return chk.Err("cannot create export directory %q:\n%v", dir, err)
	}

	names := make([]string, 0, len(data))
	for name := range data {
		names = append(names, name)
	}
	sort.Strings(names)

	header := struct {
		Time  float64
		Dims  []int
		Names []string
	}{Time: t, Dims: coarseDims, Names: names}
	headerPath := filepath.Join(dir, fmt.Sprintf("header_r%03d.gob", rank))
	if err := writeGob(headerPath, &header); err != nil {
		return err
	}
	for _, name := range names {
		p := filepath.Join(dir, fmt.Sprintf("%s_r%03d.gob", name, rank))
		if err := writeGob(p, data[name]); err != nil {
			return err
		}
	}
	if rank == 0 {
		io.Pf("> export written: %s\n", dir)
	}
	return nil
}

func writeGob(path string, v interface{}) error {
	fh, err := os.Create(path)
	if err != nil {
		return chk.Err("cannot create export part %q:\n%v", path, err)
	}
	defer fh.Close()
	if err := gob.NewEncoder(fh).Encode(v); err != nil {
		return chk.Err("cannot encode export part %q:\n%v", path, err)
	}
	return nil
}
