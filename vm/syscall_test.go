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

package vm_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/x366vm/x366/asm"
	"github.com/x366vm/x366/vm"
)

// fsMap is an in-memory vm.FS for tests.
type fsMap map[string][]byte

func (m fsMap) ReadFile(name string) ([]byte, error) {
	if b, ok := m[name]; ok {
		return b, nil
	}
	return nil, errors.Errorf("no such file %q", name)
}

func TestSyscall_atoi(t *testing.T) {
	tests := []struct {
		arg  string
		want uint16
	}{
		{"42", 42},
		{"-42", 0xFFD6},
		{"0", 0},
		{"12abc", 12}, // parsing stops at the first non-digit
		{"abc", 0},
		{"-", 0},
		{"70000", 70000 & 0xFFFF}, // wraps, 16-bit modular
	}
	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			i := run(t, "SYSCALL ATOI\nHALT", vm.Args(tt.arg))
			check(t, i, R{vm.AX: tt.want})
		})
	}
}

func TestSyscall_print(t *testing.T) {
	var b bytes.Buffer
	run(t, `main:
		MOV AX, -5
		SYSCALL PRINT_INT
		MOV AX, ' '
		SYSCALL PRINT_CHAR
		MOV AX, 12345
		SYSCALL PRINT_INT
		MOV AX, msg
		SYSCALL PRINT_STRING
		HALT
	msg: DB "!\n", 0`, vm.Output(&b))
	if got, want := b.String(), "-5 12345!\n"; got != want {
		t.Errorf("output %q, want %q", got, want)
	}
}

// without an Output option all printing is discarded, not an error
func TestSyscall_print_nilOutput(t *testing.T) {
	run(t, "MOV AX, 1\nSYSCALL PRINT_INT\nHALT")
}

func TestSyscall_exit(t *testing.T) {
	i := run(t, "MOV BX, 1\nSYSCALL EXIT\nMOV BX, 2\nHALT")
	check(t, i, R{vm.BX: 1})
}

const readFileProg = `main:
	MOV AX, name
	MOV BX, buf
	MOV CX, 16
	SYSCALL READ_FILE
	HALT
name: DB "data.txt", 0
buf:  DB 16 DUP(0)`

func TestSyscall_readFile(t *testing.T) {
	img, err := asm.Assemble(t.Name(), strings.NewReader(readFileProg), asm.MemSize(4096))
	if err != nil {
		t.Fatalf("%+v", err)
	}
	i, err := vm.New(img, vm.Filesystem(fsMap{"data.txt": []byte("hello")}))
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if err = i.Run(); err != nil {
		t.Fatalf("%+v", err)
	}
	check(t, i, R{vm.AX: 5})
	buf := img.Syms["buf"].Addr
	for n, c := range []byte("hello") {
		got, err := i.MemByte(buf + uint16(n))
		if err != nil {
			t.Fatalf("%+v", err)
		}
		if got != c {
			t.Errorf("buf[%d] = %q, want %q", n, got, c)
		}
	}
}

func TestSyscall_readFile_truncated(t *testing.T) {
	prog := `main:
		MOV AX, name
		MOV BX, buf
		MOV CX, 2
		SYSCALL READ_FILE
		HALT
	name: DB "data.txt", 0
	buf:  DB 16 DUP(0)`
	i := run(t, prog, vm.Filesystem(fsMap{"data.txt": []byte("hello")}))
	check(t, i, R{vm.AX: 2})
}

func TestSyscall_readFile_missing(t *testing.T) {
	i := run(t, readFileProg, vm.Filesystem(fsMap{}))
	check(t, i, R{vm.AX: 0xFFFF})
}

// READ_FILE without a filesystem reports failure to the guest instead of
// faulting
func TestSyscall_readFile_noFS(t *testing.T) {
	i := run(t, readFileProg)
	check(t, i, R{vm.AX: 0xFFFF})
}

func TestSyscall_setColor(t *testing.T) {
	i := run(t, "MOV AX, 7\nSYSCALL SET_COLOR\nHALT")
	if got := i.Color(); got != 3 {
		t.Errorf("color = %d, want 3 (masked to 2 bits)", got)
	}
}

func TestSyscall_clearScreen(t *testing.T) {
	i := run(t, `main:
		MOV AX, 2
		SYSCALL SET_COLOR
		MOV AX, 10
		MOV BX, 10
		MOV CX, 5
		MOV DX, 5
		MOV EX, 1
		SYSCALL DRAW_RECT
		SYSCALL CLEAR_SCREEN
		HALT`)
	if got := i.Framebuffer().At(12, 12); got != 0 {
		t.Errorf("pixel (12,12) = %d after CLEAR_SCREEN, want 0", got)
	}
	// CLEAR_SCREEN also resets the drawing color
	if got := i.Color(); got != 3 {
		t.Errorf("color = %d after CLEAR_SCREEN, want 3", got)
	}
}

// countingDisplay records Present calls.
type countingDisplay struct {
	frames int
	last   [vm.FBWidth * vm.FBHeight]uint8
}

func (d *countingDisplay) Present(fb *vm.Framebuffer) error {
	d.frames++
	for y := 0; y < vm.FBHeight; y++ {
		for x := 0; x < vm.FBWidth; x++ {
			d.last[y*vm.FBWidth+x] = fb.At(x, y)
		}
	}
	return nil
}

func TestSyscall_paintDisplay(t *testing.T) {
	d := &countingDisplay{}
	run(t, `main:
		MOV AX, 1
		SYSCALL SET_COLOR
		MOV AX, 0
		MOV BX, 0
		MOV CX, 4
		MOV DX, 4
		MOV EX, 1
		SYSCALL DRAW_RECT
		SYSCALL PAINT_DISPLAY
		SYSCALL PAINT_DISPLAY
		HALT`, vm.WithDisplay(d))
	if d.frames != 2 {
		t.Errorf("Present called %d times, want 2", d.frames)
	}
	if d.last[0] != 1 {
		t.Errorf("presented pixel (0,0) = %d, want 1", d.last[0])
	}
}

// PAINT_DISPLAY without a display is a no-op
func TestSyscall_paintDisplay_noDisplay(t *testing.T) {
	run(t, "SYSCALL PAINT_DISPLAY\nHALT")
}
