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

// Package asm provides utility functions to assemble and disassemble x366
// VM code.
//
// Supported assembler mnemonics:
//
//	Registers are AX, BX, CX, DX, EX, FX, FP and SP. dst is any writable
//	operand (register or memory reference), src is any operand including
//	immediates.
//
//	asm		operands	description
//	---		--------	------------------------------------------------------
//	MOV		dst, src	copy src to dst
//	ADD		dst, src	dst += src, sets Z N V
//	SUB		dst, src	dst -= src, sets Z N V
//	CMP		a, b		compute a-b, set Z N V, discard the result
//	MUL		src		AX *= src, truncated to 16 bits, V on overflow
//	INC		dst		dst += 1, sets Z N V
//	DEC		dst		dst -= 1, sets Z N V
//	JMP		label		jump
//	JE/JNE		label		jump on Z set / clear
//	JL/JLE		label		signed less / less-or-equal jump
//	JG/JGE		label		signed greater / greater-or-equal jump
//	LOOP		label		CX -= 1 (wrapping), jump while CX != 0
//	CALL		label		push return address, jump
//	RET				pop return address, jump to it
//	PUSH		src		push a word on the stack
//	POP		dst		pop a word off the stack
//	SYSCALL		name		invoke a runtime service by name
//	HALT				stop the machine
//
// Operands:
//
//	AX		register
//	42, 0x2A, -3	immediate (decimal, 0x/0o/0b prefixes)
//	'a', '\n'	character immediate
//	label		the symbol's address, as an immediate
//	[label], [42]	the word in memory at the symbol's address
//	[AX]		the word in memory at the address held in AX
//	[FP-2], [SP+4]	the word at a register plus a signed displacement
//
// Comments run from an unquoted ';' to the end of the line. A line may
// start with a "label:" definition; the label binds to the instruction or
// data object on the same line. Symbols are case sensitive, mnemonics and
// register names are not.
//
// Data is declared with DB (bytes) and DW (words, little endian):
//
//	msg:	DB "hello\n", 0
//	nums:	DW 1, 2, 3, -1
//	grid:	DB 160 DUP(0)
//	ptr:	DW msg
//
// The directive .MEMORY <n> sets the machine's memory size in bytes. Code
// is placed at address 0, data right after it (word aligned), and the
// stack grows down from the top of memory. Execution starts at the "main"
// label if it exists, at address 0 otherwise.
package asm
