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

//go:build !headless

package main

import (
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/pkg/errors"
	"github.com/x366vm/x366/vm"
)

const windowScale = 4

// windowDisplay shows the framebuffer in an ebiten window. The machine runs
// on its own goroutine and publishes frames through Present; the window
// stays open after the program halts until the user closes it.
type windowDisplay struct {
	mu    sync.Mutex
	pix   []byte // RGBA, written by the machine goroutine
	frame *ebiten.Image
}

func newWindowDisplay() (vm.Display, func(*vm.Instance) error, error) {
	d := &windowDisplay{pix: make([]byte, vm.FBWidth*vm.FBHeight*4)}

	run := func(i *vm.Instance) error {
		var vmErr error
		vmDone := make(chan error, 1)
		go func() {
			vmDone <- i.Run()
		}()

		ebiten.SetWindowSize(vm.FBWidth*windowScale, vm.FBHeight*windowScale)
		ebiten.SetWindowTitle("x366")
		if err := ebiten.RunGame(d); err != nil {
			return errors.Wrap(err, "display failed")
		}
		select {
		case vmErr = <-vmDone:
		default:
			// window closed while the program was still running
		}
		return vmErr
	}
	return d, run, nil
}

func (d *windowDisplay) Present(fb *vm.Framebuffer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for y := 0; y < vm.FBHeight; y++ {
		for x := 0; x < vm.FBWidth; x++ {
			c := palette[fb.At(x, y)]
			d.pix[n] = c[0]
			d.pix[n+1] = c[1]
			d.pix[n+2] = c[2]
			d.pix[n+3] = 0xFF
			n += 4
		}
	}
	return nil
}

func (d *windowDisplay) Update() error {
	if ebiten.IsKeyPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	return nil
}

func (d *windowDisplay) Draw(screen *ebiten.Image) {
	if d.frame == nil {
		d.frame = ebiten.NewImage(vm.FBWidth, vm.FBHeight)
	}
	d.mu.Lock()
	d.frame.WritePixels(d.pix)
	d.mu.Unlock()
	screen.DrawImage(d.frame, nil)
}

func (d *windowDisplay) Layout(outsideWidth, outsideHeight int) (int, int) {
	return vm.FBWidth, vm.FBHeight
}
