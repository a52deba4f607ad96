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
	"bufio"
	"encoding/binary"
	"io"
	"os"

	"github.com/pkg/errors"
)

// A Sym is a resolved assembly symbol: the address of a code label, or the
// address and byte length of a data object.
type Sym struct {
	Addr uint16
	Len  int  // byte length, 0 for code labels
	Data bool // true if the symbol names a data object
}

// Image is an executable memory image produced by the assembler: resolved
// code bytes followed by initialized data bytes. An Image is immutable once
// built; New copies it into a fresh address space for every run.
type Image struct {
	Mem     []byte         // code bytes followed by data bytes
	CodeLen int            // length of the code region in bytes
	MemSize int            // declared ".MEMORY" size of the address space
	Entry   uint16         // start address ("main" if defined, else 0)
	Syms    map[string]Sym // resolved symbol table, for dumps and tests
}

// image file format: magic, then four little-endian uint32 header fields
// (memSize, codeLen, entry, payload length), then the payload bytes.
var imageMagic = [4]byte{'x', '3', '6', '6'}

// Save writes the image to fileName. The symbol table is not saved; a
// loaded image disassembles without symbolic names.
func (img *Image) Save(fileName string) (err error) {
	f, err := os.Create(fileName)
	if err != nil {
		return errors.Wrap(err, "create failed")
	}
	w := bufio.NewWriter(f)
	defer func() {
		if e := w.Flush(); err == nil && e != nil {
			err = errors.Wrap(e, "save failed")
		}
		f.Close()
		if err != nil {
			os.Remove(fileName)
		}
	}()
	if _, err = w.Write(imageMagic[:]); err != nil {
		return errors.Wrap(err, "write failed")
	}
	var hdr [16]byte
	binary.LittleEndian.PutUint32(hdr[0:], uint32(img.MemSize))
	binary.LittleEndian.PutUint32(hdr[4:], uint32(img.CodeLen))
	binary.LittleEndian.PutUint32(hdr[8:], uint32(img.Entry))
	binary.LittleEndian.PutUint32(hdr[12:], uint32(len(img.Mem)))
	if _, err = w.Write(hdr[:]); err != nil {
		return errors.Wrap(err, "write failed")
	}
	if _, err = w.Write(img.Mem); err != nil {
		return errors.Wrap(err, "write failed")
	}
	return nil
}

// LoadImage reads an image previously written with Save.
func LoadImage(fileName string) (*Image, error) {
	f, err := os.Open(fileName)
	if err != nil {
		return nil, errors.Wrap(err, "open failed")
	}
	defer f.Close()
	return ReadImage(bufio.NewReader(f))
}

// ReadImage reads an image from r in the Save format.
func ReadImage(r io.Reader) (*Image, error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, errors.Wrap(err, "header read failed")
	}
	if magic != imageMagic {
		return nil, errors.New("not an x366 image")
	}
	var hdr [16]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, errors.Wrap(err, "header read failed")
	}
	img := &Image{
		MemSize: int(binary.LittleEndian.Uint32(hdr[0:])),
		CodeLen: int(binary.LittleEndian.Uint32(hdr[4:])),
		Entry:   uint16(binary.LittleEndian.Uint32(hdr[8:])),
		Syms:    make(map[string]Sym),
	}
	n := int(binary.LittleEndian.Uint32(hdr[12:]))
	if img.MemSize <= 0 || img.MemSize > 1<<16 || n > img.MemSize || img.CodeLen > n {
		return nil, errors.Errorf("corrupt image header: mem=%d code=%d payload=%d",
			img.MemSize, img.CodeLen, n)
	}
	img.Mem = make([]byte, n)
	if _, err := io.ReadFull(r, img.Mem); err != nil {
		return nil, errors.Wrap(err, "payload read failed")
	}
	return img, nil
}
