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

package asm

import (
	"fmt"
	"io"
	"strconv"

	"github.com/pkg/errors"
	"github.com/x366vm/x366/internal/x3i"
	"github.com/x366vm/x366/vm"
)

func opForm(op byte) form {
	switch op {
	case vm.OpMov, vm.OpAdd, vm.OpSub, vm.OpCmp:
		return formTwo
	case vm.OpMul, vm.OpInc, vm.OpDec, vm.OpPush, vm.OpPop:
		return formOne
	case vm.OpJmp, vm.OpJe, vm.OpJne, vm.OpJl, vm.OpJle, vm.OpJg, vm.OpJge,
		vm.OpLoop, vm.OpCall:
		return formJump
	case vm.OpSyscall:
		return formSys
	}
	return formNone
}

// symsByAddr builds a reverse lookup of the image's symbol table.
func symsByAddr(img *vm.Image) map[uint16]string {
	m := make(map[uint16]string, len(img.Syms))
	for n, s := range img.Syms {
		// first come alphabetically wins on aliased addresses
		if prev, ok := m[s.Addr]; !ok || n < prev {
			m[s.Addr] = n
		}
	}
	return m
}

type disasm struct {
	img  *vm.Image
	syms map[uint16]string
	ew   *x3i.ErrWriter
}

// take reads n payload bytes at pc, little endian, staying within the code
// segment.
func (d *disasm) take(pc, n int) (v uint16, next int, ok bool) {
	if pc+n > d.img.CodeLen {
		return 0, d.img.CodeLen, false
	}
	v = uint16(d.img.Mem[pc])
	if n == 2 {
		v |= uint16(d.img.Mem[pc+1]) << 8
	}
	return v, pc + n, true
}

func (d *disasm) addr(v uint16) string {
	if n, ok := d.syms[v]; ok {
		return n
	}
	return strconv.Itoa(int(v))
}

func (d *disasm) operand(mode byte, pc int) (next int) {
	var v uint16
	var ok bool
	next = pc
	switch mode {
	case vm.ModeReg, vm.ModeRegInd:
		if v, next, ok = d.take(pc, 1); !ok {
			break
		}
		if mode == vm.ModeReg {
			io.WriteString(d.ew, vm.RegName(byte(v)))
		} else {
			fmt.Fprintf(d.ew, "[%s]", vm.RegName(byte(v)))
		}
		return next
	case vm.ModeImm:
		if v, next, ok = d.take(pc, 2); !ok {
			break
		}
		io.WriteString(d.ew, d.addr(v))
		return next
	case vm.ModeMemInd:
		if v, next, ok = d.take(pc, 2); !ok {
			break
		}
		fmt.Fprintf(d.ew, "[%s]", d.addr(v))
		return next
	case vm.ModeDisp:
		var r uint16
		if r, next, ok = d.take(pc, 1); !ok {
			break
		}
		if v, next, ok = d.take(next, 2); !ok {
			break
		}
		off := int(int16(v))
		sign := "+"
		if off < 0 {
			sign, off = "-", -off
		}
		fmt.Fprintf(d.ew, "[%s%s%d]", vm.RegName(byte(r)), sign, off)
		return next
	}
	io.WriteString(d.ew, "???")
	return next
}

// Disassemble writes a disassembly of the instruction starting at code
// address pc to the specified io.Writer and returns the address of the next
// instruction. Bytes that do not decode as an instruction are rendered as a
// DB directive. It will return any write error.
func Disassemble(img *vm.Image, pc int, w io.Writer) (next int, err error) {
	ew, _ := w.(*x3i.ErrWriter)
	if ew == nil {
		ew = x3i.NewErrWriter(w)
	}
	if pc < 0 || pc >= len(img.Mem) {
		return pc, errors.Errorf("address %d out of range", pc)
	}
	d := &disasm{img: img, syms: symsByAddr(img), ew: ew}
	return d.instr(pc), ew.Err
}

func (d *disasm) instr(pc int) (next int) {
	op := d.img.Mem[pc]
	name := vm.OpName(op)
	if name == "" {
		fmt.Fprintf(d.ew, "DB %#02x", op)
		return pc + 1
	}
	io.WriteString(d.ew, name)
	pc++

	switch opForm(op) {
	case formNone:
		return pc
	case formSys:
		n, next, ok := d.take(pc, 1)
		if !ok || vm.SyscallName(byte(n)) == "" {
			io.WriteString(d.ew, " ???")
			return next
		}
		io.WriteString(d.ew, " ")
		io.WriteString(d.ew, vm.SyscallName(byte(n)))
		return next
	case formJump:
		v, next, ok := d.take(pc, 2)
		if !ok {
			io.WriteString(d.ew, " ???")
			return next
		}
		io.WriteString(d.ew, " ")
		io.WriteString(d.ew, d.addr(v))
		return next
	case formOne:
		m, next, ok := d.take(pc, 1)
		if !ok {
			io.WriteString(d.ew, " ???")
			return next
		}
		io.WriteString(d.ew, " ")
		return d.operand(byte(m)>>4, next)
	default: // formTwo
		m, next, ok := d.take(pc, 1)
		if !ok {
			io.WriteString(d.ew, " ???")
			return next
		}
		io.WriteString(d.ew, " ")
		next = d.operand(byte(m)>>4, next)
		io.WriteString(d.ew, ", ")
		return d.operand(byte(m)&0x0F, next)
	}
}

// DisassembleAll writes a disassembly of the image's whole code segment to
// the specified io.Writer, one instruction per line prefixed with its
// address and any label bound to it. It will return any write error.
func DisassembleAll(img *vm.Image, w io.Writer) error {
	ew := x3i.NewErrWriter(w)
	d := &disasm{img: img, syms: symsByAddr(img), ew: ew}
	for pc := 0; pc < img.CodeLen; {
		if n, ok := d.syms[uint16(pc)]; ok {
			fmt.Fprintf(ew, "%s:\n", n)
		}
		ew.Addr(pc)
		pc = d.instr(pc)
		ew.Write([]byte{'\n'})
		if ew.Err != nil {
			return ew.Err
		}
	}
	return nil
}
