// Copyright 2026 The Picfem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package sim implements the per-timestep simulator loop that drives the
// field solver, particle pusher, migration, balancing, checkpointing and
// export pipelines, mirroring fem.FEM's stage loop (fem/fem.go) generalized
// from FEM's load/solve stages to PIC's per-timestep pipeline.
package sim

import (
	"fmt"

	"github.com/cpmech/gosl/io"
)

// Logger wraps gosl/io's colored printing with a per-rank prefix, gated on
// Proc==0 and a verbosity flag, the way fem.FEM.ShowMsg gates fem/fem.go's
// messages.
type Logger struct {
	EnsembleLabel string
	Rank          int
	Verbose       bool
}

// NewLogger allocates a Logger for the given ensemble label / rank
func NewLogger(ensembleLabel string, rank int, verbose bool) *Logger {
	return &Logger{EnsembleLabel: ensembleLabel, Rank: rank, Verbose: verbose}
}

func (o *Logger) prefix() string {
	return fmt.Sprintf("[ens=%s r=%d] ", o.EnsembleLabel, o.Rank)
}

// Msg prints an informational message, gated on verbosity and rank 0
func (o *Logger) Msg(format string, args ...interface{}) {
	if !o.Verbose || o.Rank != 0 {
		return
	}
	io.Pf(o.prefix()+format, args...)
}

// Success prints a green success message, gated on rank 0
func (o *Logger) Success(format string, args ...interface{}) {
	if o.Rank != 0 {
		return
	}
	io.Pfgreen(o.prefix()+format, args...)
}

// Warn prints a yellow warning message, gated on rank 0
func (o *Logger) Warn(format string, args ...interface{}) {
	if o.Rank != 0 {
		return
	}
	io.Pfyel(o.prefix()+format, args...)
}
