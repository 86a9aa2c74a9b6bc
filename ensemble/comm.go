// Copyright 2026 The Picfem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ensemble

// Comm is the thin collective/point-to-point surface the core needs from
// an MPI communicator. It is satisfied by goslComm (backed by
// github.com/cpmech/gosl/mpi, the transport the teacher already imports in
// fem/fem.go and main.go) and by a fake in-process implementation used in
// single-rank tests.
type Comm interface {
	Rank() int
	Size() int
	Abort()
	Barrier()
	BcastFromRoot(x []float64, root int)
	BcastInt(x []int, root int)
	ReduceSum(dest, orig []float64, root int)
	AllReduceSum(dest, orig []float64)
	Send(vals []float64, toRank int)
	Recv(vals []float64, fromRank int)
	SendInt(vals []int, toRank int)
	RecvInt(vals []int, fromRank int)
	// WorldRanks returns the world-communicator ranks that are members of
	// this communicator, in rank order; used to build new sub-communicators
	// for ensemble formation and rejoin.
	WorldRanks() []int
}
