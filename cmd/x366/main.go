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

package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/x366vm/x366/asm"
	"github.com/x366vm/x366/vm"
)

type displayMode string

func (m *displayMode) String() string { return string(*m) }
func (m *displayMode) Set(s string) error {
	switch s {
	case "none", "term", "window":
		*m = displayMode(s)
		return nil
	default:
		return fmt.Errorf("unknown display mode %q", s)
	}
}
func (m *displayMode) Get() interface{} { return *m }

var (
	memSize     int
	dump        bool
	debug       bool
	outFileName string
	imageFile   bool
	limit       int64
	display     = displayMode("none")
)

func atExit(i *vm.Instance, err error) {
	if err == nil {
		return
	}
	if !debug {
		fmt.Fprintf(os.Stderr, "\n%v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "\n%+v\n", err)
	if i != nil {
		fmt.Fprintf(os.Stderr, "PC: %d, AX: %d, BX: %d, CX: %d, DX: %d, SP: %d, FP: %d\n",
			i.PC, int16(i.Reg(vm.AX)), int16(i.Reg(vm.BX)), int16(i.Reg(vm.CX)),
			int16(i.Reg(vm.DX)), i.Reg(vm.SP), i.Reg(vm.FP))
	}
	os.Exit(1)
}

func loadProgram(name string) (*vm.Image, error) {
	if imageFile {
		return vm.LoadImage(name)
	}
	f, err := os.Open(name)
	if err != nil {
		return nil, errors.Wrap(err, "open failed")
	}
	defer f.Close()
	var opts []asm.Option
	if memSize != 0 {
		opts = append(opts, asm.MemSize(memSize))
	}
	return asm.Assemble(filepath.Base(name), f, opts...)
}

func main() {
	var err error
	var i *vm.Instance

	stdout := bufio.NewWriter(os.Stdout)
	defer func() {
		stdout.Flush()
		atExit(i, err)
	}()

	flag.IntVar(&memSize, "mem", 0, "memory size in bytes (overrides the source's .MEMORY directive)")
	flag.BoolVar(&dump, "dump", false, "print assembled symbols and disassembly instead of running")
	flag.BoolVar(&debug, "debug", false, "enable debug diagnostics")
	flag.StringVar(&outFileName, "o", "", "`filename` to save the assembled image to")
	flag.BoolVar(&imageFile, "image", false, "treat the input file as a saved image, not assembly source")
	flag.Int64Var(&limit, "limit", 0, "stop with an error after `n` instructions (0 = no limit)")
	flag.Var(&display, "display", "display backend: none, term or window")
	flag.Parse()

	if flag.NArg() < 1 {
		err = errors.New("usage: x366 [options] program.asm [argument]")
		return
	}

	var img *vm.Image
	img, err = loadProgram(flag.Arg(0))
	if err != nil {
		return
	}
	if outFileName != "" {
		if err = img.Save(outFileName); err != nil {
			return
		}
	}
	if dump {
		err = dumpImage(img, stdout)
		return
	}

	opts := []vm.Option{
		vm.Output(stdout),
		vm.Filesystem(dirFS(filepath.Dir(flag.Arg(0)))),
		vm.Args(strings.Join(flag.Args()[1:], " ")),
	}
	if limit > 0 {
		opts = append(opts, vm.StepLimit(limit))
	}

	var run func(*vm.Instance) error
	switch display {
	case "term":
		var d *termDisplay
		d, err = newTermDisplay(stdout)
		if err != nil {
			return
		}
		defer d.close()
		opts = append(opts, vm.WithDisplay(d))
		run = (*vm.Instance).Run
	case "window":
		var d vm.Display
		d, run, err = newWindowDisplay()
		if err != nil {
			return
		}
		opts = append(opts, vm.WithDisplay(d))
	default:
		run = (*vm.Instance).Run
	}

	i, err = vm.New(img, opts...)
	if err != nil {
		return
	}
	err = run(i)
}
