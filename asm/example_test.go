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

package asm_test

import (
	"fmt"
	"os"
	"strings"

	"github.com/x366vm/x366/asm"
)

// Shows the assembler directives and the disassembler's symbolic output.
func ExampleAssemble() {
	code := `
; a tiny program: print a stored greeting
main:
	MOV AX, msg
	SYSCALL PRINT_STRING
	HALT

msg:	DB "hi", 0
`
	img, err := asm.Assemble("hello.asm", strings.NewReader(code))
	if err != nil {
		fmt.Println(err)
		return
	}

	asm.DisassembleAll(img, os.Stdout)

	// Output:
	// main:
	//      0	MOV AX, msg
	//      5	SYSCALL PRINT_STRING
	//      7	HALT
}

// Assembly errors carry their source position and come back as a single
// ErrAsm value.
func ExampleAssemble_errors() {
	code := `
main:
	MOV AX
	FROB BX
	JMP nowhere
`
	_, err := asm.Assemble("bad.asm", strings.NewReader(code))
	fmt.Println(err)

	// Output:
	// bad.asm:3: MOV takes two operands
	// bad.asm:4: unknown mnemonic "FROB"
	// bad.asm:5: undefined symbol "nowhere"
}
