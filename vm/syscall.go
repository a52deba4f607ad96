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
	"strconv"

	"github.com/pkg/errors"
)

// Syscall runtime. Dispatch is a static table over the closed syscall set;
// arguments and results travel in registers per the machine convention.
// Apart from the documented output register, syscalls preserve all guest
// registers.

var syscalls = [sysMax]func(*Instance) error{
	SysAtoi:         (*Instance).sysAtoi,
	SysPrintInt:     (*Instance).sysPrintInt,
	SysPrintChar:    (*Instance).sysPrintChar,
	SysPrintString:  (*Instance).sysPrintString,
	SysExit:         (*Instance).sysExit,
	SysReadFile:     (*Instance).sysReadFile,
	SysClearScreen:  (*Instance).sysClearScreen,
	SysSetColor:     (*Instance).sysSetColor,
	SysDrawRect:     (*Instance).sysDrawRect,
	SysDrawCircle:   (*Instance).sysDrawCircle,
	SysDrawLine:     (*Instance).sysDrawLine,
	SysPaintDisplay: (*Instance).sysPaintDisplay,
}

func (i *Instance) syscall(n byte) error {
	if int(n) >= sysMax {
		return i.fault(UnknownSyscall, "syscall %d", n)
	}
	return syscalls[n](i)
}

func (i *Instance) write(p []byte) error {
	if i.output == nil {
		return nil
	}
	_, err := i.output.Write(p)
	return errors.Wrap(err, "output write failed")
}

// sysAtoi parses the decimal string pointed to by AX, with an optional
// leading '-', and leaves the 16-bit result in AX. Parsing stops at the
// first non-digit.
func (i *Instance) sysAtoi() error {
	s, err := i.DecodeString(i.reg[AX])
	if err != nil {
		return err
	}
	var n uint16
	neg := false
	if len(s) > 0 && s[0] == '-' {
		neg = true
		s = s[1:]
	}
	for _, c := range []byte(s) {
		if c < '0' || c > '9' {
			break
		}
		n = n*10 + uint16(c-'0')
	}
	if neg {
		n = -n
	}
	i.reg[AX] = n
	return nil
}

func (i *Instance) sysPrintInt() error {
	return i.write(strconv.AppendInt(nil, int64(int16(i.reg[AX])), 10))
}

func (i *Instance) sysPrintChar() error {
	return i.write([]byte{byte(i.reg[AX])})
}

func (i *Instance) sysPrintString() error {
	s, err := i.DecodeString(i.reg[AX])
	if err != nil {
		return err
	}
	return i.write([]byte(s))
}

func (i *Instance) sysExit() error {
	return errHalted
}

// sysReadFile reads the file named by the string at AX into guest memory
// at BX, at most CX bytes. AX reports the number of bytes read, or -1 on
// failure. A failed read is a guest-visible condition, never a fault.
func (i *Instance) sysReadFile() error {
	name, err := i.DecodeString(i.reg[AX])
	if err != nil {
		return err
	}
	if i.fs == nil {
		i.reg[AX] = 0xFFFF
		return nil
	}
	data, err := i.fs.ReadFile(name)
	if err != nil {
		i.reg[AX] = 0xFFFF
		return nil
	}
	if max := int(i.reg[CX]); len(data) > max {
		data = data[:max]
	}
	dst := i.reg[BX]
	if int(dst)+len(data) > len(i.mem) {
		return i.fault(SegmentationFault, "READ_FILE %d bytes @%d", len(data), dst)
	}
	copy(i.mem[dst:], data)
	i.reg[AX] = uint16(len(data))
	return nil
}

func (i *Instance) sysClearScreen() error {
	i.fb.clear()
	i.color = defaultColor
	return nil
}

// sysSetColor sets the current drawing color from AX. Out-of-range values
// are masked to 2 bits rather than rejected.
func (i *Instance) sysSetColor() error {
	i.color = uint8(i.reg[AX] & 3)
	return nil
}

func (i *Instance) sysDrawRect() error {
	i.fb.rect(
		int(int16(i.reg[AX])), int(int16(i.reg[BX])),
		int(int16(i.reg[CX])), int(int16(i.reg[DX])),
		i.reg[EX] != 0, i.color)
	return nil
}

func (i *Instance) sysDrawCircle() error {
	i.fb.circle(int(int16(i.reg[AX])), int(int16(i.reg[BX])), int(int16(i.reg[CX])), i.color)
	return nil
}

func (i *Instance) sysDrawLine() error {
	i.fb.line(
		int(int16(i.reg[AX])), int(int16(i.reg[BX])),
		int(int16(i.reg[CX])), int(int16(i.reg[DX])),
		i.color)
	return nil
}

func (i *Instance) sysPaintDisplay() error {
	if i.display == nil {
		return nil
	}
	return errors.Wrap(i.display.Present(&i.fb), "display present failed")
}

// Color returns the current drawing color. Exposed for the driver and
// tests; guest code changes it only through SET_COLOR and CLEAR_SCREEN.
func (i *Instance) Color() uint8 { return i.color }
