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

import "testing"

func countPixels(f *Framebuffer, c uint8) int {
	n := 0
	for y := 0; y < FBHeight; y++ {
		for x := 0; x < FBWidth; x++ {
			if f.At(x, y) == c {
				n++
			}
		}
	}
	return n
}

func TestFramebuffer_clip(t *testing.T) {
	var f Framebuffer
	// out of range accesses are clipped, never panic
	f.set(-1, 0, 3)
	f.set(0, -1, 3)
	f.set(FBWidth, 0, 3)
	f.set(0, FBHeight, 3)
	if n := countPixels(&f, 3); n != 0 {
		t.Errorf("%d pixels set by out-of-range writes", n)
	}
	if f.At(-1, -1) != 0 || f.At(FBWidth, FBHeight) != 0 {
		t.Error("out-of-range read not 0")
	}
}

func TestFramebuffer_clear(t *testing.T) {
	var f Framebuffer
	f.rect(0, 0, FBWidth, FBHeight, true, 2)
	f.clear()
	if n := countPixels(&f, 0); n != FBWidth*FBHeight {
		t.Errorf("%d clear pixels, want %d", n, FBWidth*FBHeight)
	}
}

func TestFramebuffer_rect(t *testing.T) {
	t.Run("filled", func(t *testing.T) {
		var f Framebuffer
		f.rect(10, 20, 3, 2, true, 1)
		if n := countPixels(&f, 1); n != 6 {
			t.Errorf("%d pixels, want 6", n)
		}
		if f.At(10, 20) != 1 || f.At(12, 21) != 1 {
			t.Error("corner pixels not set")
		}
		if f.At(13, 20) != 0 || f.At(10, 22) != 0 {
			t.Error("pixels outside the rect set")
		}
	})
	t.Run("outline", func(t *testing.T) {
		var f Framebuffer
		f.rect(10, 20, 4, 3, false, 2)
		// perimeter of a 4x3 rect is 10 pixels
		if n := countPixels(&f, 2); n != 10 {
			t.Errorf("%d pixels, want 10", n)
		}
		if f.At(11, 21) != 0 {
			t.Error("interior pixel set on outline rect")
		}
	})
	t.Run("clipped", func(t *testing.T) {
		var f Framebuffer
		f.rect(-5, -5, 10, 10, true, 3)
		if n := countPixels(&f, 3); n != 25 {
			t.Errorf("%d pixels, want 25", n)
		}
	})
	t.Run("degenerate", func(t *testing.T) {
		var f Framebuffer
		f.rect(10, 10, 0, 5, true, 1)
		f.rect(10, 10, 5, -1, false, 1)
		if n := countPixels(&f, 1); n != 0 {
			t.Errorf("%d pixels set by degenerate rects", n)
		}
	})
}

func TestFramebuffer_circle(t *testing.T) {
	var f Framebuffer
	f.circle(50, 60, 5, 2)
	// cardinal points
	for _, p := range [][2]int{{55, 60}, {45, 60}, {50, 65}, {50, 55}} {
		if f.At(p[0], p[1]) != 2 {
			t.Errorf("pixel (%d,%d) not set", p[0], p[1])
		}
	}
	if f.At(50, 60) != 0 {
		t.Error("center pixel set on circle outline")
	}
	// 8-way symmetry
	for y := -5; y <= 5; y++ {
		for x := -5; x <= 5; x++ {
			if f.At(50+x, 60+y) != f.At(50-x, 60+y) || f.At(50+x, 60+y) != f.At(50+x, 60-y) {
				t.Fatalf("asymmetric at offset (%d,%d)", x, y)
			}
		}
	}
}

func TestFramebuffer_circle_clipped(t *testing.T) {
	var f Framebuffer
	// mostly off-screen, must not panic
	f.circle(0, 0, 20, 1)
	if f.At(20, 0) != 1 || f.At(0, 20) != 1 {
		t.Error("on-screen arc not drawn")
	}
}

func TestFramebuffer_line(t *testing.T) {
	t.Run("horizontal", func(t *testing.T) {
		var f Framebuffer
		f.line(3, 7, 10, 7, 1)
		if n := countPixels(&f, 1); n != 8 {
			t.Errorf("%d pixels, want 8", n)
		}
	})
	t.Run("vertical", func(t *testing.T) {
		var f Framebuffer
		f.line(7, 10, 7, 3, 1)
		if n := countPixels(&f, 1); n != 8 {
			t.Errorf("%d pixels, want 8", n)
		}
	})
	t.Run("point", func(t *testing.T) {
		var f Framebuffer
		f.line(5, 5, 5, 5, 1)
		if n := countPixels(&f, 1); n != 1 {
			t.Errorf("%d pixels, want 1", n)
		}
	})
	t.Run("full_diagonal", func(t *testing.T) {
		var f Framebuffer
		f.line(0, 0, FBWidth-1, FBHeight-1, 3)
		if f.At(0, 0) != 3 || f.At(FBWidth-1, FBHeight-1) != 3 {
			t.Fatal("endpoints not set")
		}
		// the major axis is x: exactly one pixel per column, and the line
		// must be 8-connected
		prevY := 0
		for x := 0; x < FBWidth; x++ {
			col := -1
			for y := 0; y < FBHeight; y++ {
				if f.At(x, y) == 3 {
					if col >= 0 {
						t.Fatalf("two pixels in column %d", x)
					}
					col = y
				}
			}
			if col < 0 {
				t.Fatalf("gap in column %d", x)
			}
			if x > 0 && col-prevY > 1 {
				t.Fatalf("line breaks between columns %d and %d", x-1, x)
			}
			prevY = col
		}
	})
}
