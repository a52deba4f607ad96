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

// x366 Virtual Machine opcodes. Opcode 0 is deliberately unassigned so that
// a jump into zeroed memory faults instead of silently executing.
const (
	OpMov byte = iota + 1
	OpAdd
	OpSub
	OpMul
	OpInc
	OpDec
	OpCmp
	OpJmp
	OpJe
	OpJne
	OpJl
	OpJle
	OpJg
	OpJge
	OpLoop
	OpCall
	OpRet
	OpPush
	OpPop
	OpSyscall
	OpHalt

	opMax
)

// Operand addressing modes. Two-operand instructions carry a single mode
// byte with the destination mode in the high nibble and the source mode in
// the low nibble; one-operand instructions use the high nibble only.
const (
	ModeNone   byte = iota // no operand
	ModeReg                // AX            payload: reg
	ModeImm                // 42, 'c', lbl  payload: word
	ModeRegInd             // [AX]          payload: reg
	ModeMemInd             // [lbl]         payload: word address
	ModeDisp               // [FP-4]        payload: reg, signed word offset
)

// Register file indices. PC is not addressable from guest code.
const (
	AX = iota
	BX
	CX
	DX
	EX
	FX
	FP
	SP

	RegCount
)

// Syscall numbers, in the order of the runtime dispatch table.
const (
	SysAtoi = iota
	SysPrintInt
	SysPrintChar
	SysPrintString
	SysExit
	SysReadFile
	SysClearScreen
	SysSetColor
	SysDrawRect
	SysDrawCircle
	SysDrawLine
	SysPaintDisplay

	sysMax
)

var opNames = [...]string{
	OpMov:     "MOV",
	OpAdd:     "ADD",
	OpSub:     "SUB",
	OpMul:     "MUL",
	OpInc:     "INC",
	OpDec:     "DEC",
	OpCmp:     "CMP",
	OpJmp:     "JMP",
	OpJe:      "JE",
	OpJne:     "JNE",
	OpJl:      "JL",
	OpJle:     "JLE",
	OpJg:      "JG",
	OpJge:     "JGE",
	OpLoop:    "LOOP",
	OpCall:    "CALL",
	OpRet:     "RET",
	OpPush:    "PUSH",
	OpPop:     "POP",
	OpSyscall: "SYSCALL",
	OpHalt:    "HALT",
}

var regNames = [RegCount]string{"AX", "BX", "CX", "DX", "EX", "FX", "FP", "SP"}

var sysNames = [sysMax]string{
	"ATOI",
	"PRINT_INT",
	"PRINT_CHAR",
	"PRINT_STRING",
	"EXIT",
	"READ_FILE",
	"CLEAR_SCREEN",
	"SET_COLOR",
	"DRAW_RECT",
	"DRAW_CIRCLE",
	"DRAW_LINE",
	"PAINT_DISPLAY",
}

// OpName returns the assembler mnemonic for opcode op, or "" if op is not a
// valid opcode.
func OpName(op byte) string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return ""
}

// RegName returns the assembler name of register r.
func RegName(r byte) string {
	if int(r) < RegCount {
		return regNames[r]
	}
	return "?"
}

// SyscallName returns the name of syscall number n, or "" if unassigned.
func SyscallName(n byte) string {
	if int(n) < sysMax {
		return sysNames[n]
	}
	return ""
}

// SyscallIndex returns the syscall number for the given name. ok is false
// if the name is not a recognized syscall.
func SyscallIndex(name string) (n byte, ok bool) {
	v, ok := sysIndex[name]
	return v, ok
}

var sysIndex = make(map[string]byte)

func init() {
	for i, n := range sysNames {
		sysIndex[n] = byte(i)
	}
}
