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

package vm

import (
	"io"

	"github.com/pkg/errors"
)

// FS is the host filesystem collaborator backing the READ_FILE syscall.
type FS interface {
	ReadFile(name string) ([]byte, error)
}

// Display is the host display collaborator backing the PAINT_DISPLAY
// syscall. Present is called synchronously; the framebuffer must not be
// retained past the call.
type Display interface {
	Present(fb *Framebuffer) error
}

// Instance represents an x366 VM instance: one address space, one register
// file, one framebuffer, executing one image to completion or fault.
type Instance struct {
	PC int // program counter, exported for post-mortem diagnostics

	img        *Image
	mem        []byte
	reg        [RegCount]uint16
	fz, fn, fv bool // flags: zero, negative (sign), overflow

	stackLimit int // initial stack top; pops beyond it underflow
	insCount   int64
	stepLimit  int64

	color   uint8 // current drawing color, 2 bits
	fb      Framebuffer
	output  io.Writer
	fs      FS
	display Display
	args    string
}

const defaultColor = 3

// Option interface
type Option func(*Instance) error

// Output sets the writer receiving PRINT_INT/PRINT_CHAR/PRINT_STRING
// output. The default is nil: output is discarded.
func Output(w io.Writer) Option {
	return func(i *Instance) error { i.output = w; return nil }
}

// Filesystem sets the collaborator backing READ_FILE. Without one, every
// READ_FILE reports failure to the guest (AX = -1).
func Filesystem(fs FS) Option {
	return func(i *Instance) error { i.fs = fs; return nil }
}

// WithDisplay sets the collaborator backing PAINT_DISPLAY. Without one,
// PAINT_DISPLAY is a no-op and drawing is only observable through
// Framebuffer.
func WithDisplay(d Display) Option {
	return func(i *Instance) error { i.display = d; return nil }
}

// Args sets the command-line argument string passed to the guest. At run
// start the string is placed in memory above the stack and its address put
// in AX; with no argument AX is 0.
func Args(s string) Option {
	return func(i *Instance) error { i.args = s; return nil }
}

// StepLimit makes Run fail with ErrStepLimit after n instructions. A zero
// limit (the default) runs forever. This is a harness facility for catching
// runaway programs; it is not part of the machine semantics.
func StepLimit(n int64) Option {
	return func(i *Instance) error { i.stepLimit = n; return nil }
}

// ErrStepLimit is returned by Run when a StepLimit expires.
var ErrStepLimit = errors.New("step limit exhausted")

// SetOptions sets the provided options.
func (i *Instance) SetOptions(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(i); err != nil {
			return err
		}
	}
	return nil
}

// New creates an x366 VM instance for the given image. The image bytes are
// copied into a fresh address space of the image's declared memory size, so
// one image can back any number of runs.
func New(img *Image, opts ...Option) (*Instance, error) {
	if img.MemSize < len(img.Mem) || img.MemSize > 1<<16 {
		return nil, errors.Errorf("image does not fit declared memory size %d", img.MemSize)
	}
	i := &Instance{
		img:   img,
		mem:   make([]byte, img.MemSize),
		PC:    int(img.Entry),
		color: defaultColor,
	}
	copy(i.mem, img.Mem)
	if err := i.SetOptions(opts...); err != nil {
		return nil, err
	}

	// carve the argument string out of the top of memory, then plant the
	// stack below it
	top := img.MemSize
	if top > 0xFFFE {
		top = 0xFFFE
	}
	if i.args != "" {
		argAddr := top - len(i.args) - 1
		if argAddr < len(img.Mem) {
			return nil, errors.Errorf("argument %q does not fit in memory", i.args)
		}
		copy(i.mem[argAddr:], i.args)
		i.mem[argAddr+len(i.args)] = 0
		i.reg[AX] = uint16(argAddr)
		top = argAddr &^ 1
	}
	i.stackLimit = top
	i.reg[SP] = uint16(top)
	return i, nil
}

// Reg returns the value of register r.
func (i *Instance) Reg(r int) uint16 { return i.reg[r] }

// SetReg sets register r to v. Flags are unaffected.
func (i *Instance) SetReg(r int, v uint16) { i.reg[r] = v }

// Framebuffer returns the instance's framebuffer. The returned pointer
// stays valid for the lifetime of the instance.
func (i *Instance) Framebuffer() *Framebuffer { return &i.fb }

// InstructionCount returns the number of instructions executed so far.
func (i *Instance) InstructionCount() int64 { return i.insCount }
