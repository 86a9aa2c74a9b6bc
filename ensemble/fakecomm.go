// Copyright 2026 The Picfem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ensemble

// fakeComm is a single-process Comm used for serial runs and tests, where
// every collective is a local no-op/identity operation.
type fakeComm struct {
	size, rank int
}

func newFakeComm(size, rank int) *fakeComm { return &fakeComm{size: size, rank: rank} }

// NewFakeWorldComm exposes the single-process fake communicator as a Comm,
// for serial (non-MPI) runs of cmd/simulator/main.go.
func NewFakeWorldComm() Comm { return newFakeComm(1, 0) }

func (o *fakeComm) Rank() int { return o.rank }
func (o *fakeComm) Size() int { return o.size }
func (o *fakeComm) Abort()    {}
func (o *fakeComm) Barrier()  {}

func (o *fakeComm) BcastFromRoot(x []float64, root int) {}
func (o *fakeComm) BcastInt(x []int, root int)          {}

func (o *fakeComm) ReduceSum(dest, orig []float64, root int) {
	copy(dest, orig)
}

func (o *fakeComm) AllReduceSum(dest, orig []float64) { copy(dest, orig) }

func (o *fakeComm) Send(vals []float64, toRank int) {}
func (o *fakeComm) Recv(vals []float64, fromRank int) {
	for i := range vals {
		vals[i] = 0
	}
}

func (o *fakeComm) SendInt(vals []int, toRank int) {}
func (o *fakeComm) RecvInt(vals []int, fromRank int) {
	for i := range vals {
		vals[i] = 0
	}
}

func (o *fakeComm) WorldRanks() []int { return []int{o.rank} }
