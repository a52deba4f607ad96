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

// Framebuffer dimensions in logical pixels.
const (
	FBWidth  = 160
	FBHeight = 144
)

// Framebuffer is the software framebuffer: a FBWidth×FBHeight grid with a
// 2-bit color index per pixel. Drawing primitives clip silently to the
// framebuffer bounds; the coordinate arguments are signed so off-screen
// geometry behaves.
type Framebuffer struct {
	pix [FBWidth * FBHeight]uint8
}

// At returns the color index of the pixel at (x, y). Out-of-range
// coordinates read as 0.
func (f *Framebuffer) At(x, y int) uint8 {
	if x < 0 || x >= FBWidth || y < 0 || y >= FBHeight {
		return 0
	}
	return f.pix[y*FBWidth+x]
}

func (f *Framebuffer) set(x, y int, c uint8) {
	if x < 0 || x >= FBWidth || y < 0 || y >= FBHeight {
		return
	}
	f.pix[y*FBWidth+x] = c
}

func (f *Framebuffer) clear() {
	for i := range f.pix {
		f.pix[i] = 0
	}
}

func (f *Framebuffer) hline(x0, x1, y int, c uint8) {
	if y < 0 || y >= FBHeight {
		return
	}
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	if x0 < 0 {
		x0 = 0
	}
	if x1 >= FBWidth {
		x1 = FBWidth - 1
	}
	for x := x0; x <= x1; x++ {
		f.pix[y*FBWidth+x] = c
	}
}

func (f *Framebuffer) rect(x, y, w, h int, filled bool, c uint8) {
	if w <= 0 || h <= 0 {
		return
	}
	if filled {
		for dy := 0; dy < h; dy++ {
			f.hline(x, x+w-1, y+dy, c)
		}
		return
	}
	f.hline(x, x+w-1, y, c)
	f.hline(x, x+w-1, y+h-1, c)
	for dy := 1; dy < h-1; dy++ {
		f.set(x, y+dy, c)
		f.set(x+w-1, y+dy, c)
	}
}

// circle draws a circle outline with the midpoint algorithm, plotting all
// eight octants per step.
func (f *Framebuffer) circle(cx, cy, r int, c uint8) {
	if r < 0 {
		return
	}
	x, y := r, 0
	e := 1 - r
	for x >= y {
		f.set(cx+x, cy+y, c)
		f.set(cx+y, cy+x, c)
		f.set(cx-y, cy+x, c)
		f.set(cx-x, cy+y, c)
		f.set(cx-x, cy-y, c)
		f.set(cx-y, cy-x, c)
		f.set(cx+y, cy-x, c)
		f.set(cx+x, cy-y, c)
		y++
		if e < 0 {
			e += 2*y + 1
		} else {
			x--
			e += 2*(y-x) + 1
		}
	}
}

// line draws with Bresenham's algorithm, any octant.
func (f *Framebuffer) line(x0, y0, x1, y1 int, c uint8) {
	dx := x1 - x0
	if dx < 0 {
		dx = -dx
	}
	dy := y1 - y0
	if dy > 0 {
		dy = -dy
	}
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		f.set(x0, y0, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}
