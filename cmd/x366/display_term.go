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
	"bytes"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/x366vm/x366/vm"
)

// palette is the 2-bit shade table shared by the display backends, darkest
// last.
var palette = [4][3]uint8{
	{0xe0, 0xf8, 0xd0},
	{0x88, 0xc0, 0x70},
	{0x34, 0x68, 0x56},
	{0x08, 0x18, 0x20},
}

// termDisplay renders the framebuffer in place with VT100 escapes, two
// vertical pixels per character cell using the upper half block glyph.
type termDisplay struct {
	w       *bufio.Writer
	buf     bytes.Buffer
	restore func()
}

func newTermDisplay(w *bufio.Writer) (*termDisplay, error) {
	cols, rows := consoleSize(os.Stdout)()
	if cols < vm.FBWidth || rows < vm.FBHeight/2 {
		return nil, errors.Errorf("terminal too small: need %dx%d, have %dx%d",
			vm.FBWidth, vm.FBHeight/2, cols, rows)
	}
	restore, err := setRawIO()
	if err != nil {
		restore = nil
	}
	d := &termDisplay{w: w, restore: restore}
	// clear, hide cursor
	w.WriteString("\x1b[2J\x1b[?25l")
	return d, nil
}

func (d *termDisplay) close() {
	// restore cursor and colors
	d.w.WriteString("\x1b[0m\x1b[?25h\n")
	d.w.Flush()
	if d.restore != nil {
		d.restore()
	}
}

func (d *termDisplay) Present(fb *vm.Framebuffer) error {
	b := &d.buf
	b.Reset()
	b.WriteString("\x1b[H")
	var fg, bg uint8 = 0xFF, 0xFF
	for y := 0; y < vm.FBHeight; y += 2 {
		for x := 0; x < vm.FBWidth; x++ {
			top, bot := fb.At(x, y), fb.At(x, y+1)
			if top != fg {
				c := palette[top]
				fmt.Fprintf(b, "\x1b[38;2;%d;%d;%dm", c[0], c[1], c[2])
				fg = top
			}
			if bot != bg {
				c := palette[bot]
				fmt.Fprintf(b, "\x1b[48;2;%d;%d;%dm", c[0], c[1], c[2])
				bg = bot
			}
			b.WriteString("▀")
		}
		b.WriteString("\x1b[0m\r\n")
		fg, bg = 0xFF, 0xFF
	}
	if _, err := d.w.Write(b.Bytes()); err != nil {
		return errors.Wrap(err, "terminal write failed")
	}
	return errors.Wrap(d.w.Flush(), "terminal write failed")
}
