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
	"fmt"

	"github.com/pkg/errors"
)

// Fault identifies a fatal runtime failure class.
type Fault int

const (
	SegmentationFault Fault = iota
	StackUnderflow
	ImageOverrun
	IllegalInstruction
	UnknownSyscall
)

var faultNames = [...]string{
	SegmentationFault:  "segmentation fault",
	StackUnderflow:     "stack underflow",
	ImageOverrun:       "image overrun",
	IllegalInstruction: "illegal instruction",
	UnknownSyscall:     "unknown syscall",
}

func (f Fault) String() string { return faultNames[f] }

// RuntimeError is a fatal guest failure. PC is the address of the
// instruction that faulted.
type RuntimeError struct {
	Fault Fault
	PC    int
	Msg   string
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%v @pc=%d: %s", e.Fault, e.PC, e.Msg)
}

func (i *Instance) fault(f Fault, format string, args ...interface{}) error {
	return &RuntimeError{Fault: f, PC: i.PC, Msg: fmt.Sprintf(format, args...)}
}

// errHalted stops the run loop cleanly (HALT, SYSCALL EXIT).
var errHalted = errors.New("halted")

// decoded operand
type operand struct {
	mode byte
	reg  byte
	val  uint16 // immediate, address, or displacement
}

// fetchByte reads the next code byte. Operands must fully live inside the
// code region; running off its end is an image overrun.
func (i *Instance) fetchByte() (byte, error) {
	if i.PC >= i.img.CodeLen {
		return 0, &RuntimeError{Fault: ImageOverrun, PC: i.PC, Msg: "fetch past end of code"}
	}
	b := i.mem[i.PC]
	i.PC++
	return b, nil
}

func (i *Instance) fetchWord() (uint16, error) {
	lo, err := i.fetchByte()
	if err != nil {
		return 0, err
	}
	hi, err := i.fetchByte()
	if err != nil {
		return 0, err
	}
	return uint16(lo) | uint16(hi)<<8, nil
}

func (i *Instance) fetchOperand(mode byte) (o operand, err error) {
	o.mode = mode
	switch mode {
	case ModeReg, ModeRegInd:
		o.reg, err = i.fetchByte()
		if err == nil && o.reg >= RegCount {
			err = i.fault(IllegalInstruction, "bad register %d", o.reg)
		}
	case ModeImm, ModeMemInd:
		o.val, err = i.fetchWord()
	case ModeDisp:
		if o.reg, err = i.fetchByte(); err != nil {
			return o, err
		}
		if o.reg >= RegCount {
			return o, i.fault(IllegalInstruction, "bad register %d", o.reg)
		}
		o.val, err = i.fetchWord()
	default:
		err = i.fault(IllegalInstruction, "bad addressing mode %d", mode)
	}
	return o, err
}

func (i *Instance) readOperand(o operand) (uint16, error) {
	switch o.mode {
	case ModeReg:
		return i.reg[o.reg], nil
	case ModeImm:
		return o.val, nil
	case ModeRegInd:
		return i.loadWord(i.reg[o.reg])
	case ModeMemInd:
		return i.loadWord(o.val)
	case ModeDisp:
		return i.loadWord(i.reg[o.reg] + o.val)
	}
	return 0, i.fault(IllegalInstruction, "unreadable operand mode %d", o.mode)
}

func (i *Instance) writeOperand(o operand, v uint16) error {
	switch o.mode {
	case ModeReg:
		i.reg[o.reg] = v
		return nil
	case ModeRegInd:
		return i.storeWord(i.reg[o.reg], v)
	case ModeMemInd:
		return i.storeWord(o.val, v)
	case ModeDisp:
		return i.storeWord(i.reg[o.reg]+o.val, v)
	}
	return i.fault(IllegalInstruction, "unwritable operand mode %d", o.mode)
}

// fetchPair decodes the mode byte and both operands of a two-operand
// instruction.
func (i *Instance) fetchPair() (dst, src operand, err error) {
	m, err := i.fetchByte()
	if err != nil {
		return dst, src, err
	}
	if dst, err = i.fetchOperand(m >> 4); err != nil {
		return dst, src, err
	}
	src, err = i.fetchOperand(m & 0x0f)
	return dst, src, err
}

func (i *Instance) fetchSingle() (operand, error) {
	m, err := i.fetchByte()
	if err != nil {
		return operand{}, err
	}
	return i.fetchOperand(m >> 4)
}

// Run executes the loaded image until HALT, SYSCALL EXIT, or a fatal
// fault. On a fault, PC points at the instruction that raised it. A clean
// stop returns nil.
func (i *Instance) Run() (err error) {
	defer func() {
		if e := recover(); e != nil {
			err = errors.Errorf("recovered @pc=%d: %v", i.PC, e)
		}
	}()
	for {
		if i.stepLimit != 0 && i.insCount >= i.stepLimit {
			return errors.Wrapf(ErrStepLimit, "@pc=%d", i.PC)
		}
		at := i.PC
		err = i.step()
		i.insCount++
		switch {
		case err == nil:
			continue
		case errors.Is(err, errHalted):
			return nil
		default:
			// leave PC on the faulting instruction
			if re, ok := err.(*RuntimeError); ok {
				re.PC = at
				i.PC = at
			}
			return err
		}
	}
}

func (i *Instance) step() error {
	op, err := i.fetchByte()
	if err != nil {
		return err
	}
	switch op {
	case OpMov:
		dst, src, err := i.fetchPair()
		if err != nil {
			return err
		}
		v, err := i.readOperand(src)
		if err != nil {
			return err
		}
		return i.writeOperand(dst, v)

	case OpAdd, OpSub, OpCmp:
		dst, src, err := i.fetchPair()
		if err != nil {
			return err
		}
		a, err := i.readOperand(dst)
		if err != nil {
			return err
		}
		b, err := i.readOperand(src)
		if err != nil {
			return err
		}
		var r uint16
		if op == OpAdd {
			r = a + b
			i.setFlags(r, addOvf(a, b, r))
		} else {
			r = a - b
			i.setFlags(r, subOvf(a, b, r))
		}
		if op == OpCmp {
			return nil
		}
		return i.writeOperand(dst, r)

	case OpMul:
		// multiplies the AX accumulator, truncated to 16 bits
		src, err := i.fetchSingle()
		if err != nil {
			return err
		}
		b, err := i.readOperand(src)
		if err != nil {
			return err
		}
		p := int32(int16(i.reg[AX])) * int32(int16(b))
		r := uint16(p)
		i.setFlags(r, p != int32(int16(r)))
		i.reg[AX] = r
		return nil

	case OpInc, OpDec:
		dst, err := i.fetchSingle()
		if err != nil {
			return err
		}
		a, err := i.readOperand(dst)
		if err != nil {
			return err
		}
		var r uint16
		if op == OpInc {
			r = a + 1
			i.setFlags(r, addOvf(a, 1, r))
		} else {
			r = a - 1
			i.setFlags(r, subOvf(a, 1, r))
		}
		return i.writeOperand(dst, r)

	case OpJmp, OpJe, OpJne, OpJl, OpJle, OpJg, OpJge:
		target, err := i.fetchWord()
		if err != nil {
			return err
		}
		if op == OpJmp || i.condition(op) {
			i.PC = int(target)
		}
		return nil

	case OpLoop:
		// fused decrement-and-branch on CX. CX=0 wraps to 0xFFFF and
		// branches: 16-bit modular arithmetic, same as DEC.
		target, err := i.fetchWord()
		if err != nil {
			return err
		}
		i.reg[CX]--
		if i.reg[CX] != 0 {
			i.PC = int(target)
		}
		return nil

	case OpCall:
		target, err := i.fetchWord()
		if err != nil {
			return err
		}
		if err = i.push(uint16(i.PC)); err != nil {
			return err
		}
		i.PC = int(target)
		return nil

	case OpRet:
		addr, err := i.pop()
		if err != nil {
			return err
		}
		i.PC = int(addr)
		return nil

	case OpPush:
		src, err := i.fetchSingle()
		if err != nil {
			return err
		}
		v, err := i.readOperand(src)
		if err != nil {
			return err
		}
		return i.push(v)

	case OpPop:
		dst, err := i.fetchSingle()
		if err != nil {
			return err
		}
		v, err := i.pop()
		if err != nil {
			return err
		}
		return i.writeOperand(dst, v)

	case OpSyscall:
		n, err := i.fetchByte()
		if err != nil {
			return err
		}
		return i.syscall(n)

	case OpHalt:
		return errHalted
	}
	return i.fault(IllegalInstruction, "opcode %#02x", op)
}
