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
	"bytes"
	"strings"
	"testing"

	"github.com/x366vm/x366/asm"
	"github.com/x366vm/x366/vm"
)

func assemble(t *testing.T, code string, opts ...asm.Option) *vm.Image {
	t.Helper()
	img, err := asm.Assemble(t.Name(), strings.NewReader(code), opts...)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	return img
}

// byte-exact encoding of every addressing mode, with a forward data
// reference and a backward code reference
func TestAssemble_encoding(t *testing.T) {
	img := assemble(t, `
main:
	MOV AX, 5       ; reg <- imm
	MOV [v], AX     ; memind <- reg
	MOV BX, [AX]    ; reg <- regind
	MOV CX, [FP-2]  ; reg <- disp
	PUSH 7
	JMP main
	SYSCALL EXIT
	HALT
v:	DW 0
`)
	want := []byte{
		vm.OpMov, 0x12, 0, 5, 0,
		vm.OpMov, 0x41, 30, 0, 0,
		vm.OpMov, 0x13, 1, 0,
		vm.OpMov, 0x15, 2, 6, 0xFE, 0xFF,
		vm.OpPush, 0x20, 7, 0,
		vm.OpJmp, 0, 0,
		vm.OpSyscall, vm.SysExit,
		vm.OpHalt,
		0, 0,
	}
	if !bytes.Equal(img.Mem, want) {
		t.Errorf("encoded\n% x, want\n% x", img.Mem, want)
	}
	if img.CodeLen != 30 {
		t.Errorf("CodeLen = %d, want 30", img.CodeLen)
	}
	if v := img.Syms["v"]; v.Addr != 30 || !v.Data || v.Len != 2 {
		t.Errorf("v = %+v, want data symbol at 30, 2 bytes", v)
	}
}

func TestAssemble_determinism(t *testing.T) {
	code := `
main:
	CALL f
	LOOP main
	HALT
f:	MOV AX, [tbl]
	RET
tbl:	DW 1, 2, 3
`
	a := assemble(t, code)
	b := assemble(t, code)
	if !bytes.Equal(a.Mem, b.Mem) || a.CodeLen != b.CodeLen || a.Entry != b.Entry {
		t.Error("two assemblies of the same source differ")
	}
}

func TestAssemble_entry(t *testing.T) {
	img := assemble(t, "f: HALT\nmain: HALT")
	if img.Entry != 1 {
		t.Errorf("Entry = %d, want 1", img.Entry)
	}
	img = assemble(t, "start: HALT")
	if img.Entry != 0 {
		t.Errorf("Entry = %d without main, want 0", img.Entry)
	}
}

func TestAssemble_memory(t *testing.T) {
	img := assemble(t, "main: HALT")
	if img.MemSize != asm.DefaultMemSize {
		t.Errorf("MemSize = %d, want %d", img.MemSize, asm.DefaultMemSize)
	}
	img = assemble(t, ".MEMORY 256\nmain: HALT")
	if img.MemSize != 256 {
		t.Errorf("MemSize = %d, want 256", img.MemSize)
	}
	// the option wins over the directive
	img = assemble(t, ".MEMORY 256\nmain: HALT", asm.MemSize(512))
	if img.MemSize != 512 {
		t.Errorf("MemSize = %d, want 512", img.MemSize)
	}
}

func TestAssemble_data(t *testing.T) {
	img := assemble(t, `
	HALT
s:	DB "hi\n", 0
c:	DB 'x'
d:	DB 3 DUP(0xAB)
w:	DW 1, -1, tbl
tbl:	DW 2 DUP(7)
`)
	// HALT is 1 byte, data starts word-aligned at 2
	if img.CodeLen != 1 {
		t.Fatalf("CodeLen = %d, want 1", img.CodeLen)
	}
	checkSym := func(name string, addr uint16, length int) {
		t.Helper()
		s, ok := img.Syms[name]
		if !ok {
			t.Fatalf("symbol %s missing", name)
		}
		if s.Addr != addr || s.Len != length || !s.Data {
			t.Errorf("%s = %+v, want data symbol at %d, %d bytes", name, s, addr, length)
		}
	}
	checkSym("s", 2, 4)
	checkSym("c", 6, 1)
	checkSym("d", 7, 3)
	checkSym("w", 10, 6)
	checkSym("tbl", 16, 4)

	want := append([]byte{vm.OpHalt, 0}, // code + pad
		'h', 'i', '\n', 0,
		'x',
		0xAB, 0xAB, 0xAB,
		1, 0, 0xFF, 0xFF, 16, 0,
		7, 0, 7, 0)
	if !bytes.Equal(img.Mem, want) {
		t.Errorf("data\n% x, want\n% x", img.Mem, want)
	}
}

// a label alone on its line binds to the next statement's address, in
// whichever region that statement lands
func TestAssemble_bareLabels(t *testing.T) {
	img := assemble(t, `
main:
top:
	MOV AX, msg
	SYSCALL PRINT_STRING
	HALT
msg:
	DB "hi", 0
tail:
`)
	if s := img.Syms["top"]; s.Addr != 0 || s.Data {
		t.Errorf("top = %+v, want code address 0", s)
	}
	s := img.Syms["msg"]
	if !s.Data || s.Addr != 8 || s.Len != 3 {
		t.Errorf("msg = %+v, want data address 8, 3 bytes", s)
	}
	if got := string(img.Mem[s.Addr : s.Addr+2]); got != "hi" {
		t.Errorf("bytes at msg are %q, want %q", got, "hi")
	}
	if img.Mem[s.Addr+2] != 0 {
		t.Errorf("msg not NUL terminated")
	}
	if s := img.Syms["tail"]; !s.Data || s.Addr != 11 {
		t.Errorf("tail = %+v, want data end address 11", s)
	}
}

func TestAssemble_errors(t *testing.T) {
	tests := []struct {
		name string
		code string
		want asm.ErrCode
		line int
	}{
		{"missing_operand", "MOV AX", asm.SyntaxError, 1},
		{"extra_operand", "HALT AX", asm.SyntaxError, 1},
		{"bad_operand", "MOV AX, 99999", asm.SyntaxError, 1},
		{"imm_destination", "MOV 5, AX", asm.SyntaxError, 1},
		{"jump_to_register", "JMP AX", asm.SyntaxError, 1},
		{"pop_immediate", "POP 5", asm.SyntaxError, 1},
		{"db_empty", "DB", asm.SyntaxError, 1},
		{"dw_string", `x: DW "no"`, asm.SyntaxError, 1},
		{"dup_memory", ".MEMORY 128\n.MEMORY 256", asm.SyntaxError, 2},
		{"unknown_mnemonic", "HALT\nFROB AX", asm.UnknownMnemonic, 2},
		{"unknown_syscall", "SYSCALL FROB", asm.UnknownMnemonic, 1},
		{"undefined_symbol", "JMP nowhere\nHALT", asm.UndefinedSymbol, 1},
		{"undefined_data_ref", "HALT\nx: DW missing", asm.UndefinedSymbol, 2},
		{"duplicate_symbol", "a: HALT\na: HALT", asm.DuplicateSymbol, 2},
		{"layout_overflow", ".MEMORY 64\nmain: HALT\nbig: DB 100 DUP(0)", asm.LayoutOverflow, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := asm.Assemble("t.asm", strings.NewReader(tt.code))
			if err == nil {
				t.Fatal("assembly succeeded")
			}
			errs, ok := err.(asm.ErrAsm)
			if !ok {
				t.Fatalf("error type %T: %v", err, err)
			}
			e := errs[0]
			if e.Code != tt.want {
				t.Errorf("code = %v, want %v (%v)", e.Code, tt.want, e)
			}
			if e.Pos.Line != tt.line {
				t.Errorf("line = %d, want %d (%v)", e.Pos.Line, tt.line, e)
			}
			if !strings.HasPrefix(e.Error(), "t.asm:") {
				t.Errorf("message %q does not name the source", e.Error())
			}
		})
	}
}

// error reporting stops at 10 entries
func TestAssemble_errorCap(t *testing.T) {
	code := strings.Repeat("FROB\n", 15)
	_, err := asm.Assemble("t.asm", strings.NewReader(code))
	errs, ok := err.(asm.ErrAsm)
	if !ok {
		t.Fatalf("error type %T", err)
	}
	if len(errs) != 10 {
		t.Errorf("%d errors reported, want 10", len(errs))
	}
}

func TestAssemble_comments(t *testing.T) {
	img := assemble(t, `
; full line comment
main:	HALT	; trailing comment
msg:	DB "semi ; colon", 0	; ';' inside a string is data
`)
	if got := img.Syms["msg"].Len; got != 13 {
		t.Errorf("msg length = %d, want 13", got)
	}
}

func TestAssemble_escapes(t *testing.T) {
	img := assemble(t, `
	MOV AX, '\n'
	HALT
s:	DB "a\t\"b\"\\\0", 0
`)
	if img.Mem[3] != '\n' || img.Mem[4] != 0 {
		t.Errorf("char literal encoded as % x", img.Mem[3:5])
	}
	s := img.Syms["s"]
	want := []byte("a\t\"b\"\\\x00\x00")
	got := img.Mem[s.Addr : int(s.Addr)+s.Len]
	if !bytes.Equal(got, want) {
		t.Errorf("string bytes % x, want % x", got, want)
	}
}

func TestDisassemble_roundTrip(t *testing.T) {
	img := assemble(t, `
main:
	MOV AX, v
	MOV BX, [v]
	CMP BX, 10
	JNE main
	SYSCALL PRINT_INT
	HALT
v:	DW 10
`)
	var b bytes.Buffer
	if err := asm.DisassembleAll(img, &b); err != nil {
		t.Fatalf("%+v", err)
	}
	out := b.String()
	for _, want := range []string{
		"main:", "MOV AX, v", "MOV BX, [v]", "CMP BX, 10",
		"JNE main", "SYSCALL PRINT_INT", "HALT",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("disassembly missing %q:\n%s", want, out)
		}
	}
}

// stray bytes in the code segment come out as DB directives
func TestDisassemble_rawBytes(t *testing.T) {
	img := &vm.Image{Mem: []byte{0xEE, vm.OpHalt}, CodeLen: 2, MemSize: 1024, Syms: map[string]vm.Sym{}}
	var b bytes.Buffer
	if err := asm.DisassembleAll(img, &b); err != nil {
		t.Fatalf("%+v", err)
	}
	if !strings.Contains(b.String(), "DB 0xee") {
		t.Errorf("disassembly %q missing DB directive", b.String())
	}
}
