// This file is part of x366 - https://github.com/x366vm/x366
//
// Copyright 2026 The x366 Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package vm implements the x366 virtual machine core.
//
// The x366 is a 16-bit register machine: six general-purpose registers
// (AX..FX), a frame pointer, a stack pointer, and a flat byte-addressed
// memory with little-endian 2-byte words. Programs are assembled into an
// Image (see the asm package) and executed by an Instance:
//
//	img, err := asm.Assemble("prog.asm", src)
//	...
//	i, err := vm.New(img, vm.Output(os.Stdout), vm.Args("3"))
//	...
//	err = i.Run()
//
// Execution is single-threaded and synchronous. One instance runs one
// image to completion or fatal fault; all runtime failures except a failed
// READ_FILE (reported to the guest in AX) stop the machine.
//
// Host facilities reach the guest exclusively through syscalls. The
// collaborators behind them - the filesystem for READ_FILE, the display
// for PAINT_DISPLAY, the output stream for the PRINT family - are plugged
// in as options; absent collaborators degrade to failed reads and
// discarded output rather than errors, so the core stays runnable in
// tests without any host wiring.
//
// The framebuffer is a 160x144 grid of 2-bit color indices owned by the
// instance and mutated only by the drawing syscalls. Presentation to a
// real screen happens solely on PAINT_DISPLAY, through the Display
// collaborator.
package vm
