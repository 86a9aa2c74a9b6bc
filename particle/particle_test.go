// Copyright 2026 The Picfem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package particle

import (
	"testing"

	"github.com/cpmech/gosl/chk"
)

func Test_particle01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("particle01. state bitfield round-trip")

	s := NewState(Electron, 42, 7)
	if s.Species() != Electron {
		tst.Errorf("species = %v, want electron", s.Species())
	}
	if !s.Exist() {
		tst.Errorf("exist should be true for a fresh state")
	}
	if s.Serial() != 42 {
		tst.Errorf("serial = %d, want 42", s.Serial())
	}
	if s.Origin() != 7 {
		tst.Errorf("origin = %d, want 7", s.Origin())
	}
	s2 := s.WithExist(false)
	if s2.Exist() {
		tst.Errorf("exist should be false after WithExist(false)")
	}
	if !s.Exist() {
		tst.Errorf("original state must be unaffected (State is a value type)")
	}
}

func Test_particle02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("particle02. ParticleArray append and swap-erase")

	arr := NewArray(Electron, 4)
	for i := 0; i < 5; i++ {
		arr.Append(Particle{State: NewState(Electron, uint32(i), 0)})
	}
	chk.IntAssert(arr.Len(), 5)

	arr.SwapErase(1) // swaps in particle 4 (serial=4) to slot 1
	chk.IntAssert(arr.Len(), 4)
	if arr.State[1].Serial() != 4 {
		tst.Errorf("slot 1 after swap-erase has serial %d, want 4", arr.State[1].Serial())
	}
}

func Test_particle03(tst *testing.T) {

	//verbose()
	chk.PrintTitle("particle03. species properties registration")

	if !Registered(Electron) {
		Register(Electron, &Properties{MassX: 1, ChargeX: -1, Name: "electron", ShortName: "e"})
	}
	p := Get(Electron)
	chk.Scalar(tst, "charge", 1e-15, p.ChargeX, -1)
}
