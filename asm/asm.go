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

package asm

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/x366vm/x366/vm"
)

// DefaultMemSize is the memory size used when the source has no .MEMORY
// directive and no MemSize option was given.
const DefaultMemSize = 32768

// ErrCode classifies assemble-time errors.
type ErrCode int

const (
	SyntaxError ErrCode = iota
	UnknownMnemonic
	UndefinedSymbol
	DuplicateSymbol
	LayoutOverflow
)

var errCodeNames = [...]string{
	SyntaxError:     "syntax error",
	UnknownMnemonic: "unknown mnemonic",
	UndefinedSymbol: "undefined symbol",
	DuplicateSymbol: "duplicate symbol",
	LayoutOverflow:  "layout overflow",
}

func (c ErrCode) String() string { return errCodeNames[c] }

// Position is a source location, printed as "name:line".
type Position struct {
	Filename string
	Line     int
}

func (p Position) String() string {
	return fmt.Sprintf("%s:%d", p.Filename, p.Line)
}

// Error is a single assemble-time error with its source position.
type Error struct {
	Code ErrCode
	Pos  Position
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v: %s", e.Pos, e.Msg)
}

// ErrAsm is the list of errors found in one Assemble call, capped at
// maxErrors entries.
type ErrAsm []*Error

const maxErrors = 10

func (e ErrAsm) Error() string {
	s := make([]string, len(e))
	for i, err := range e {
		s[i] = err.Error()
	}
	return strings.Join(s, "\n")
}

func (e *ErrAsm) add(code ErrCode, pos Position, format string, args ...interface{}) {
	if len(*e) < maxErrors {
		*e = append(*e, &Error{Code: code, Pos: pos, Msg: fmt.Sprintf(format, args...)})
	}
}

// Option interface
type Option func(*assembler) error

// MemSize forces the memory size, overriding any .MEMORY directive in the
// source.
func MemSize(n int) Option {
	return func(a *assembler) error {
		if n <= 0 || n > 1<<16 {
			return errors.Errorf("invalid memory size %d", n)
		}
		a.memSize = n
		a.memFixed = true
		return nil
	}
}

type assembler struct {
	p        parser
	stmts    []*statement
	syms     map[string]symbol
	memSize  int
	memFixed bool
	codeLen  int
	dataLen  int
}

type symbol struct {
	pos  Position
	off  uint16 // code address, or data offset until sealed
	len  int
	data bool
}

// Assemble compiles x366 assembly read from r into an executable image.
//
// The name parameter is used only in error messages to name the source of
// the error; if r is a file, name should be the file name.
//
// The returned error, if not nil, can safely be cast to an ErrAsm value
// holding up to 10 entries. The assembler keeps no state across calls.
func Assemble(name string, r io.Reader, opts ...Option) (*vm.Image, error) {
	a := &assembler{
		p:       parser{name: name},
		syms:    make(map[string]symbol),
		memSize: DefaultMemSize,
	}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}
	if err := a.scan(r); err != nil {
		return nil, err
	}
	a.layout()
	if len(a.p.errs) != 0 {
		return nil, a.p.errs
	}
	img := a.emit()
	if len(a.p.errs) != 0 {
		return nil, a.p.errs
	}
	return img, nil
}

func (a *assembler) scan(r io.Reader) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		a.p.line++
		if st := a.p.parseLine(sc.Text()); st != nil {
			a.stmts = append(a.stmts, st)
		}
	}
	return errors.Wrap(sc.Err(), "source read failed")
}

// layout is pass 1: walk statements in source order, assign every
// instruction a code address and every data object a data offset, and
// record labels. Instruction lengths depend only on operand syntax, so no
// symbol needs resolving yet.
func (a *assembler) layout() {
	var code, data int
	var pending []*statement // bare labels awaiting the next emitted statement
	memSet := false
	for _, st := range a.stmts {
		switch st.kind {
		case stMemory:
			if memSet {
				a.p.errs.add(SyntaxError, st.pos, "duplicate .MEMORY directive")
				continue
			}
			memSet = true
			if !a.memFixed {
				a.memSize = st.memSize
			}
			if st.label != "" {
				a.p.errs.add(SyntaxError, st.pos, "label on .MEMORY directive")
			}

		case stData:
			st.addr = uint16(data)
			for _, p := range pending {
				a.define(p, uint16(data), st.byteLen(), true)
			}
			pending = pending[:0]
			a.define(st, uint16(data), st.byteLen(), true)
			data += st.byteLen()

		case stEmpty:
			// a label alone on its line binds to the next statement,
			// whichever region that lands in
			if st.label != "" {
				pending = append(pending, st)
			}

		default:
			st.addr = uint16(code)
			for _, p := range pending {
				a.define(p, uint16(code), 0, false)
			}
			pending = pending[:0]
			a.define(st, uint16(code), 0, false)
			if st.kind == stInstr {
				code += st.encodedLen()
			}
		}
	}
	// trailing labels mark the end of the data region
	for _, p := range pending {
		a.define(p, uint16(data), 0, true)
	}
	a.codeLen = code
	a.dataLen = data

	// data follows code, word-aligned
	dataBase := (code + 1) &^ 1
	for n, s := range a.syms {
		if s.data {
			s.off += uint16(dataBase)
			a.syms[n] = s
		}
	}
	for _, st := range a.stmts {
		if st.kind == stData {
			st.addr += uint16(dataBase)
		}
	}
	if dataBase+data > a.memSize {
		a.p.errs.add(LayoutOverflow, Position{Filename: a.p.name},
			"code+data %d bytes exceed memory size %d", dataBase+data, a.memSize)
	}
}

func (a *assembler) define(st *statement, off uint16, length int, data bool) {
	if st.label == "" {
		return
	}
	if prev, ok := a.syms[st.label]; ok {
		a.p.errs.add(DuplicateSymbol, st.pos, "%s redefined, previous definition at %v", st.label, prev.pos)
		return
	}
	a.syms[st.label] = symbol{pos: st.pos, off: off, len: length, data: data}
}

func (st *statement) byteLen() int {
	n := 0
	for i := range st.items {
		n += st.items[i].byteLen(st.word)
	}
	return n
}

func payloadLen(mode byte) int {
	switch mode {
	case vm.ModeReg, vm.ModeRegInd:
		return 1
	case vm.ModeImm, vm.ModeMemInd:
		return 2
	case vm.ModeDisp:
		return 3
	}
	return 0
}

// encodedLen returns the instruction's encoded byte length: opcode, then a
// mode byte and payloads for operand forms, or a raw address word for
// control transfers, or a syscall number byte.
func (st *statement) encodedLen() int {
	switch st.form {
	case formNone:
		return 1
	case formSys:
		return 2
	case formJump:
		return 3
	case formOne:
		return 2 + payloadLen(st.ops[0].mode)
	case formTwo:
		return 2 + payloadLen(st.ops[0].mode) + payloadLen(st.ops[1].mode)
	}
	return 0
}

// emit is pass 2: resolve every symbolic operand against the completed
// table and write final bytes.
func (a *assembler) emit() *vm.Image {
	dataBase := (a.codeLen + 1) &^ 1
	mem := make([]byte, dataBase+a.dataLen)
	var code, data []byte
	code = mem[:0]
	data = mem[dataBase:dataBase]

	for _, st := range a.stmts {
		switch st.kind {
		case stInstr:
			code = a.emitInstr(code, st)
		case stData:
			data = a.emitData(data, st)
		}
	}

	img := &vm.Image{
		Mem:     mem,
		CodeLen: a.codeLen,
		MemSize: a.memSize,
		Syms:    make(map[string]vm.Sym, len(a.syms)),
	}
	for n, s := range a.syms {
		img.Syms[n] = vm.Sym{Addr: s.off, Len: s.len, Data: s.data}
	}
	if s, ok := a.syms["main"]; ok && !s.data {
		img.Entry = s.off
	}
	return img
}

func (a *assembler) resolve(sym string, pos Position) (uint16, bool) {
	s, ok := a.syms[sym]
	if !ok {
		a.p.errs.add(UndefinedSymbol, pos, "undefined symbol %q", sym)
		return 0, false
	}
	return s.off, true
}

func (a *assembler) operandValue(o operand, pos Position) uint16 {
	if o.sym != "" {
		v, _ := a.resolve(o.sym, pos)
		return v
	}
	return uint16(o.val)
}

func appendPayload(b []byte, o operand, v uint16) []byte {
	switch o.mode {
	case vm.ModeReg, vm.ModeRegInd:
		return append(b, o.reg)
	case vm.ModeImm, vm.ModeMemInd:
		return append(b, byte(v), byte(v>>8))
	case vm.ModeDisp:
		return append(b, o.reg, byte(v), byte(v>>8))
	}
	return b
}

func (a *assembler) emitInstr(b []byte, st *statement) []byte {
	b = append(b, st.op)
	switch st.form {
	case formNone:
	case formSys:
		b = append(b, st.sys)
	case formJump:
		v := a.operandValue(st.ops[0], st.pos)
		b = append(b, byte(v), byte(v>>8))
	case formOne:
		o := st.ops[0]
		b = append(b, o.mode<<4)
		b = appendPayload(b, o, a.operandValue(o, st.pos))
	case formTwo:
		dst, src := st.ops[0], st.ops[1]
		b = append(b, dst.mode<<4|src.mode)
		b = appendPayload(b, dst, a.operandValue(dst, st.pos))
		b = appendPayload(b, src, a.operandValue(src, st.pos))
	}
	return b
}

func (a *assembler) emitData(b []byte, st *statement) []byte {
	for i := range st.items {
		it := &st.items[i]
		switch {
		case it.isStr:
			b = append(b, it.str...)
		case st.word:
			v := uint16(it.val)
			if it.sym != "" {
				v, _ = a.resolve(it.sym, st.pos)
			}
			for n := 0; n < it.count; n++ {
				b = append(b, byte(v), byte(v>>8))
			}
		default:
			for n := 0; n < it.count; n++ {
				b = append(b, byte(it.val))
			}
		}
	}
	return b
}
