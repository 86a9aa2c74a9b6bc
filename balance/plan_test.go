// Copyright 2026 The Picfem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package balance

import (
	"testing"

	"github.com/cpmech/gosl/chk"
)

func Test_plan01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("plan01. balancer under skew: loads (1000,10,10,10), target_load=100")

	loads := []float64{1000, 10, 10, 10}
	oldNproc := []int{1, 1, 1, 1}
	newNproc := CalcNewNprocs(loads, oldNproc, 100)

	total := 0
	argmax := 0
	for i, n := range newNproc {
		if n < 1 {
			tst.Errorf("new_nproc[%d] = %d, want >= 1", i, n)
		}
		total += n
		if n > newNproc[argmax] {
			argmax = i
		}
	}
	if total != 4 {
		tst.Errorf("total replicas = %d, want 4 (conserved)", total)
	}
	if argmax != 0 {
		tst.Errorf("argmax = %d, want 0 (the heaviest ensemble)", argmax)
	}
}

func Test_plan02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("plan02. balancer grants a freed-up replica to the most stressed ensemble")

	loads := []float64{300, 100}
	oldNproc := []int{1, 3}
	newNproc := CalcNewNprocs(loads, oldNproc, 50)

	if newNproc[0] != 3 || newNproc[1] != 1 {
		tst.Errorf("new_nproc = %v, want [3 1] (the extra replica goes to the heavier ensemble)", newNproc)
	}
	if newNproc[0]+newNproc[1] != 4 {
		tst.Errorf("total replicas = %d, want 4 (conserved)", newNproc[0]+newNproc[1])
	}
}

func Test_getInstr01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("getInstr01. detailed balance matches surplus senders to deficit receivers")

	counts := []int{10, 0, 5, 1}
	surplus := CountSurplus(counts)

	total := 0
	for _, s := range surplus {
		total += s
	}
	if total != 0 {
		tst.Errorf("sum of surplus = %d, want 0", total)
	}

	for r := 0; r < len(counts); r++ {
		instr := GetInstr(surplus, r)
		if surplus[r] > 0 && instr.Code != Send {
			tst.Errorf("rank %d has surplus %d, want Send instruction", r, surplus[r])
		}
		if surplus[r] < 0 && instr.Code != Recv {
			tst.Errorf("rank %d has deficit %d, want Recv instruction", r, surplus[r])
		}
		if surplus[r] == 0 && instr.Code != None {
			tst.Errorf("rank %d has zero surplus, want None instruction", r)
		}
		moved := 0
		for _, t := range instr.Transfers {
			moved += t.Count
		}
		if moved != abs(surplus[r]) {
			tst.Errorf("rank %d transfers sum to %d, want %d", r, moved, abs(surplus[r]))
		}
	}
}
