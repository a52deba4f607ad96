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
	"strconv"
	"strings"

	"github.com/x366vm/x366/vm"
)

// statement kinds
const (
	stEmpty = iota // label-only line
	stInstr
	stData   // DB/DW
	stMemory // .MEMORY
)

type statement struct {
	pos   Position
	kind  int
	label string

	// stInstr
	op   byte
	form form
	ops  []operand
	sys  byte // SYSCALL number

	// stData
	word  bool // DW
	items []dataItem

	// stMemory
	memSize int

	addr uint16 // assigned in pass 1 (code address or data offset)
}

// operand is a parsed instruction operand. sym, when set, is resolved
// against the symbol table in pass 2.
type operand struct {
	mode byte // vm.Mode*
	reg  byte
	val  int
	sym  string
}

// dataItem is one initializer of a DB/DW statement.
type dataItem struct {
	isStr bool
	str   string // string literal, already unescaped (DB only)
	val   int
	sym   string // label reference (DW only)
	count int    // DUP repeat count, 1 for plain items
}

type form int

const (
	formNone form = iota // RET, HALT
	formOne              // INC, DEC, PUSH, POP, MUL
	formTwo              // MOV, ADD, SUB, CMP
	formJump             // JMP..JGE, LOOP, CALL
	formSys              // SYSCALL
)

var mnemonics = map[string]struct {
	op   byte
	form form
}{
	"MOV":     {vm.OpMov, formTwo},
	"ADD":     {vm.OpAdd, formTwo},
	"SUB":     {vm.OpSub, formTwo},
	"CMP":     {vm.OpCmp, formTwo},
	"MUL":     {vm.OpMul, formOne},
	"INC":     {vm.OpInc, formOne},
	"DEC":     {vm.OpDec, formOne},
	"PUSH":    {vm.OpPush, formOne},
	"POP":     {vm.OpPop, formOne},
	"JMP":     {vm.OpJmp, formJump},
	"JE":      {vm.OpJe, formJump},
	"JNE":     {vm.OpJne, formJump},
	"JL":      {vm.OpJl, formJump},
	"JLE":     {vm.OpJle, formJump},
	"JG":      {vm.OpJg, formJump},
	"JGE":     {vm.OpJge, formJump},
	"LOOP":    {vm.OpLoop, formJump},
	"CALL":    {vm.OpCall, formJump},
	"RET":     {vm.OpRet, formNone},
	"HALT":    {vm.OpHalt, formNone},
	"SYSCALL": {vm.OpSyscall, formSys},
}

var registers = map[string]byte{
	"AX": vm.AX, "BX": vm.BX, "CX": vm.CX, "DX": vm.DX,
	"EX": vm.EX, "FX": vm.FX, "FP": vm.FP, "SP": vm.SP,
}

func isIdentStart(c byte) bool {
	return c == '_' || 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z'
}

func isIdent(c byte) bool {
	return isIdentStart(c) || '0' <= c && c <= '9'
}

func validIdent(s string) bool {
	if s == "" || !isIdentStart(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !isIdent(s[i]) {
			return false
		}
	}
	return true
}

// stripComment cuts the line at the first ';' outside a quoted literal.
func stripComment(line string) string {
	var quote byte
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == ';':
			return line[:i]
		}
	}
	return line
}

// splitOperands splits s on commas outside quotes, brackets and parens.
func splitOperands(s string) []string {
	var (
		out   []string
		depth int
		quote byte
		start int
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '[' || c == '(':
			depth++
		case c == ']' || c == ')':
			depth--
		case c == ',' && depth == 0:
			out = append(out, strings.TrimSpace(s[start:i]))
			start = i + 1
		}
	}
	out = append(out, strings.TrimSpace(s[start:]))
	return out
}

// unescape decodes the C-style escapes the x366 corpus uses in string and
// character literals: \n, \t, \r, \0, \\ and escaped quotes.
func unescape(s string) (string, bool) {
	if !strings.ContainsRune(s, '\\') {
		return s, true
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		i++
		if i >= len(s) {
			return "", false
		}
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '0':
			b.WriteByte(0)
		case '\\', '\'', '"':
			b.WriteByte(s[i])
		default:
			return "", false
		}
	}
	return b.String(), true
}

// parseInt accepts decimal and 0x/0o/0b prefixed literals in 16-bit range
// (signed or unsigned view).
func parseInt(s string) (int, bool) {
	n, err := strconv.ParseInt(s, 0, 32)
	if err != nil || n < -0x8000 || n > 0xFFFF {
		return 0, false
	}
	return int(n), true
}

// parseCharLit parses 'x' including escapes, yielding a byte value.
func parseCharLit(s string) (int, bool) {
	if len(s) < 3 || s[0] != '\'' || s[len(s)-1] != '\'' {
		return 0, false
	}
	u, ok := unescape(s[1 : len(s)-1])
	if !ok || len(u) != 1 {
		return 0, false
	}
	return int(u[0]), true
}

func (p *parser) parseOperand(s string) (operand, bool) {
	if s == "" {
		return operand{}, false
	}
	if r, ok := registers[strings.ToUpper(s)]; ok {
		return operand{mode: vm.ModeReg, reg: r}, true
	}
	if s[0] == '[' {
		if s[len(s)-1] != ']' {
			return operand{}, false
		}
		return p.parseIndirect(strings.TrimSpace(s[1 : len(s)-1]))
	}
	if v, ok := parseCharLit(s); ok {
		return operand{mode: vm.ModeImm, val: v}, true
	}
	if v, ok := parseInt(s); ok {
		return operand{mode: vm.ModeImm, val: v}, true
	}
	if validIdent(s) {
		// bare label: the symbol's address as an immediate
		return operand{mode: vm.ModeImm, sym: s}, true
	}
	return operand{}, false
}

// parseIndirect handles [reg], [reg±off], [label] and [addr].
func (p *parser) parseIndirect(inner string) (operand, bool) {
	if inner == "" {
		return operand{}, false
	}
	if r, ok := registers[strings.ToUpper(inner)]; ok {
		return operand{mode: vm.ModeRegInd, reg: r}, true
	}
	// displacement: a register followed by +off or -off
	for i := 1; i < len(inner); i++ {
		if inner[i] != '+' && inner[i] != '-' {
			continue
		}
		r, ok := registers[strings.ToUpper(strings.TrimSpace(inner[:i]))]
		if !ok {
			break
		}
		off, ok := parseInt(strings.TrimSpace(inner[i+1:]))
		if !ok {
			return operand{}, false
		}
		if inner[i] == '-' {
			off = -off
		}
		return operand{mode: vm.ModeDisp, reg: r, val: off}, true
	}
	if v, ok := parseInt(inner); ok {
		return operand{mode: vm.ModeMemInd, val: v}, true
	}
	if validIdent(inner) {
		return operand{mode: vm.ModeMemInd, sym: inner}, true
	}
	return operand{}, false
}

// parseDataItem parses one DB/DW initializer: a literal, a string (DB), a
// label reference (DW), or "<count> DUP(<value>)".
func (p *parser) parseDataItem(s string, word bool) (dataItem, bool) {
	if i := strings.Index(strings.ToUpper(s), "DUP"); i > 0 {
		if count, ok := parseInt(strings.TrimSpace(s[:i])); ok {
			if count < 0 {
				return dataItem{}, false
			}
			rest := strings.TrimSpace(s[i+3:])
			if len(rest) < 2 || rest[0] != '(' || rest[len(rest)-1] != ')' {
				return dataItem{}, false
			}
			v, ok := parseInt(strings.TrimSpace(rest[1 : len(rest)-1]))
			if !ok {
				return dataItem{}, false
			}
			return dataItem{val: v, count: count}, true
		}
	}
	if s != "" && s[0] == '"' {
		if word || len(s) < 2 || s[len(s)-1] != '"' {
			return dataItem{}, false
		}
		u, ok := unescape(s[1 : len(s)-1])
		if !ok {
			return dataItem{}, false
		}
		return dataItem{isStr: true, str: u, count: 1}, true
	}
	if v, ok := parseCharLit(s); ok {
		return dataItem{val: v, count: 1}, true
	}
	if v, ok := parseInt(s); ok {
		return dataItem{val: v, count: 1}, true
	}
	if word && validIdent(s) {
		return dataItem{sym: s, count: 1}, true
	}
	return dataItem{}, false
}

// byteLen returns the number of bytes the item occupies.
func (d *dataItem) byteLen(word bool) int {
	if d.isStr {
		return len(d.str)
	}
	unit := 1
	if word {
		unit = 2
	}
	return unit * d.count
}

type parser struct {
	name string
	line int
	errs ErrAsm
}

func (p *parser) pos() Position { return Position{Filename: p.name, Line: p.line} }

func (p *parser) errorf(code ErrCode, format string, args ...interface{}) {
	p.errs.add(code, p.pos(), format, args...)
}

// parseLine turns one source line into a statement, or nil for blank
// lines. Errors are collected on the parser.
func (p *parser) parseLine(line string) *statement {
	line = strings.TrimSpace(stripComment(line))
	if line == "" {
		return nil
	}
	st := &statement{pos: p.pos(), kind: stEmpty}

	// optional leading "label:"
	if i := strings.IndexByte(line, ':'); i >= 0 && validIdent(line[:i]) {
		st.label = line[:i]
		line = strings.TrimSpace(line[i+1:])
	}
	if line == "" {
		return st
	}

	mn := line
	rest := ""
	if i := strings.IndexAny(line, " \t"); i >= 0 {
		mn, rest = line[:i], strings.TrimSpace(line[i+1:])
	}
	mn = strings.ToUpper(mn)

	switch mn {
	case ".MEMORY":
		n, ok := parseInt(rest)
		if !ok || n <= 0 || n > 1<<16 {
			p.errorf(SyntaxError, "invalid .MEMORY size %q", rest)
			return st
		}
		st.kind = stMemory
		st.memSize = n
		return st

	case "DB", "DW":
		st.kind = stData
		st.word = mn == "DW"
		if rest == "" {
			p.errorf(SyntaxError, "%s without initializer", mn)
			return st
		}
		for _, f := range splitOperands(rest) {
			item, ok := p.parseDataItem(f, st.word)
			if !ok {
				p.errorf(SyntaxError, "bad %s initializer %q", mn, f)
				return st
			}
			st.items = append(st.items, item)
		}
		return st
	}

	ins, ok := mnemonics[mn]
	if !ok {
		p.errorf(UnknownMnemonic, "unknown mnemonic %q", mn)
		return st
	}
	st.kind = stInstr
	st.op = ins.op
	st.form = ins.form

	var ops []string
	if rest != "" {
		ops = splitOperands(rest)
	}
	switch ins.form {
	case formNone:
		if len(ops) != 0 {
			p.errorf(SyntaxError, "%s takes no operands", mn)
		}
	case formOne, formJump, formSys:
		if len(ops) != 1 {
			p.errorf(SyntaxError, "%s takes one operand", mn)
			st.kind = stEmpty
			return st
		}
	case formTwo:
		if len(ops) != 2 {
			p.errorf(SyntaxError, "%s takes two operands", mn)
			st.kind = stEmpty
			return st
		}
	}

	if ins.form == formSys {
		name := strings.ToUpper(ops[0])
		n, ok := vm.SyscallIndex(name)
		if !ok {
			p.errorf(UnknownMnemonic, "unknown syscall %q", ops[0])
			st.kind = stEmpty
			return st
		}
		st.sys = n
		return st
	}

	for _, s := range ops {
		o, ok := p.parseOperand(s)
		if !ok {
			p.errorf(SyntaxError, "bad operand %q", s)
			st.kind = stEmpty
			return st
		}
		st.ops = append(st.ops, o)
	}
	p.checkOperands(st, mn)
	return st
}

// checkOperands enforces per-form operand constraints.
func (p *parser) checkOperands(st *statement, mn string) {
	writable := func(o operand) bool { return o.mode != vm.ModeImm }
	switch st.form {
	case formJump:
		o := st.ops[0]
		if o.mode != vm.ModeImm {
			p.errorf(SyntaxError, "%s target must be a label or address", mn)
		}
	case formTwo:
		if mn != "CMP" && !writable(st.ops[0]) {
			p.errorf(SyntaxError, "%s destination is not writable", mn)
		}
	case formOne:
		if (mn == "INC" || mn == "DEC" || mn == "POP") && !writable(st.ops[0]) {
			p.errorf(SyntaxError, "%s operand is not writable", mn)
		}
	}
}
