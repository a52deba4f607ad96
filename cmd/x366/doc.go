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

// The x366 command line tool assembles and runs x366 programs. It is a
// showcase for the packages github.com/x366vm/x366/asm and
// github.com/x366vm/x366/vm.
//
// Usage:
//
//	x366 [options] program.asm [argument]
//
//	-debug
//		  enable debug diagnostics
//	-display backend
//		  display backend: none, term or window (default "none")
//	-dump
//		  print assembled symbols and disassembly instead of running
//	-image
//		  treat the input file as a saved image, not assembly source
//	-limit n
//		  stop with an error after n instructions (0 = no limit)
//	-mem n
//		  memory size in bytes (overrides the source's .MEMORY directive)
//	-o filename
//		  filename to save the assembled image to
//
// Everything after the program file name is joined into a single string
// and handed to the program, which finds its address in AX on entry.
//
// -debug: will print a full stacktrace and a register dump should the
// machine fault.
//
// -display: programs that only print can run with the default "none"; a
// PAINT_DISPLAY syscall is then a no-op. "term" draws the 160x144 screen
// in place in the terminal using half block characters, so the terminal
// must be at least 160 columns by 72 rows. "window" opens a scaled ebiten
// window and keeps it open after the program halts; binaries built with
// the headless tag do not carry this backend.
//
// -dump: prints the memory layout, the symbol table and a disassembly of
// the code segment, then exits without running the program.
//
// -image, -o: a program can be assembled once with -o and later run
// directly from the saved image with -image, skipping the assembler.
//
// -limit: guards against runaway programs, mainly useful in scripted
// runs. Exceeding the budget is reported as an error.
package main
