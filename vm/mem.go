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

// Memory access. Words are 2 bytes, little-endian, byte-granular addresses.
// Every access is bounds-checked against the declared memory size; there is
// no recovery from a SegmentationFault.

func (i *Instance) loadByte(addr uint16) (byte, error) {
	if int(addr) >= len(i.mem) {
		return 0, i.fault(SegmentationFault, "read byte @%d", addr)
	}
	return i.mem[addr], nil
}

func (i *Instance) storeByte(addr uint16, v byte) error {
	if int(addr) >= len(i.mem) {
		return i.fault(SegmentationFault, "write byte @%d", addr)
	}
	i.mem[addr] = v
	return nil
}

func (i *Instance) loadWord(addr uint16) (uint16, error) {
	if int(addr)+1 >= len(i.mem) {
		return 0, i.fault(SegmentationFault, "read word @%d", addr)
	}
	return uint16(i.mem[addr]) | uint16(i.mem[addr+1])<<8, nil
}

func (i *Instance) storeWord(addr uint16, v uint16) error {
	if int(addr)+1 >= len(i.mem) {
		return i.fault(SegmentationFault, "write word @%d", addr)
	}
	i.mem[addr] = byte(v)
	i.mem[addr+1] = byte(v >> 8)
	return nil
}

// Mem returns the word at addr, for tests and post-mortem inspection.
func (i *Instance) Mem(addr uint16) (uint16, error) { return i.loadWord(addr) }

// MemByte returns the byte at addr.
func (i *Instance) MemByte(addr uint16) (byte, error) { return i.loadByte(addr) }

// DecodeString returns the zero-terminated guest string starting at addr.
// The trailing NUL is not returned. Running off the end of memory is a
// SegmentationFault, same as any other access.
func (i *Instance) DecodeString(addr uint16) (string, error) {
	end := int(addr)
	for {
		if end >= len(i.mem) {
			return "", i.fault(SegmentationFault, "unterminated string @%d", addr)
		}
		if i.mem[end] == 0 {
			break
		}
		end++
	}
	return string(i.mem[addr:end]), nil
}

// Flags. CMP and the arithmetic instructions set zero/negative/overflow;
// conditional jumps read them back with signed 16-bit semantics.

func (i *Instance) setFlags(r uint16, v bool) {
	i.fz = r == 0
	i.fn = r&0x8000 != 0
	i.fv = v
}

// addOvf reports signed overflow of a+b=r.
func addOvf(a, b, r uint16) bool {
	return (a^r)&(b^r)&0x8000 != 0
}

// subOvf reports signed overflow of a-b=r.
func subOvf(a, b, r uint16) bool {
	return (a^b)&(a^r)&0x8000 != 0
}

// Flags returns the zero, negative and overflow flags.
func (i *Instance) Flags() (z, n, v bool) { return i.fz, i.fn, i.fv }

func (i *Instance) condition(op byte) bool {
	switch op {
	case OpJe:
		return i.fz
	case OpJne:
		return !i.fz
	case OpJl:
		return i.fn != i.fv
	case OpJle:
		return i.fz || i.fn != i.fv
	case OpJg:
		return !i.fz && i.fn == i.fv
	case OpJge:
		return i.fn == i.fv
	}
	return false
}

// Guest stack. Grows down from the initial stack top. The VM checks bounds
// only: frame discipline (balanced PUSH FP/POP FP) is the guest's problem.

func (i *Instance) push(v uint16) error {
	sp := i.reg[SP]
	if sp < 2 {
		return i.fault(SegmentationFault, "stack overflow @%d", sp)
	}
	sp -= 2
	if err := i.storeWord(sp, v); err != nil {
		return err
	}
	i.reg[SP] = sp
	return nil
}

func (i *Instance) pop() (uint16, error) {
	sp := i.reg[SP]
	if int(sp)+2 > i.stackLimit {
		return 0, i.fault(StackUnderflow, "pop @%d", sp)
	}
	v, err := i.loadWord(sp)
	if err != nil {
		return 0, err
	}
	i.reg[SP] = sp + 2
	return v, nil
}
