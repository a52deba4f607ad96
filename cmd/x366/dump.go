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
	"fmt"
	"io"
	"sort"

	"github.com/x366vm/x366/asm"
	"github.com/x366vm/x366/internal/x3i"
	"github.com/x366vm/x366/vm"
)

// dumpImage prints the image layout, symbol table and code disassembly.
func dumpImage(img *vm.Image, w io.Writer) error {
	ew := x3i.NewErrWriter(w)
	fmt.Fprintf(ew, "memory %d bytes, code %d bytes, data %d bytes, entry %d\n",
		img.MemSize, img.CodeLen, len(img.Mem)-img.CodeLen, img.Entry)

	names := make([]string, 0, len(img.Syms))
	for n := range img.Syms {
		names = append(names, n)
	}
	sort.Slice(names, func(a, b int) bool {
		return img.Syms[names[a]].Addr < img.Syms[names[b]].Addr
	})
	for _, n := range names {
		s := img.Syms[n]
		kind := "code"
		if s.Data {
			kind = "data"
		}
		ew.Addr(int(s.Addr))
		fmt.Fprintf(ew, "%s\t%s", kind, n)
		if s.Data {
			fmt.Fprintf(ew, "\t%d bytes", s.Len)
		}
		ew.Write([]byte{'\n'})
	}
	if ew.Err != nil {
		return ew.Err
	}
	return asm.DisassembleAll(img, ew)
}
