// camera-preview - preview camera pipelines running on a depth camera
//  Copyright (C) 2021, The Cacophony Project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

// Package cvwindow shows frames in OpenCV HighGUI windows.
package cvwindow

import (
	"fmt"

	"gocv.io/x/gocv"

	"github.com/TheCacophonyProject/camera-preview/frame"
)

// Display opens a window the first time a frame is rendered to it.
type Display struct {
	windows map[string]*gocv.Window
	last    *gocv.Window
}

func New() *Display {
	return &Display{windows: make(map[string]*gocv.Window)}
}

func (d *Display) Render(name string, f *frame.Frame) error {
	var matType gocv.MatType
	switch f.Channels {
	case 1:
		matType = gocv.MatTypeCV8UC1
	case 3:
		matType = gocv.MatTypeCV8UC3
	default:
		return fmt.Errorf("can't show %d channel frame", f.Channels)
	}
	mat, err := gocv.NewMatFromBytes(f.Height, f.Width, matType, f.Pix)
	if err != nil {
		return err
	}
	defer mat.Close()

	window, ok := d.windows[name]
	if !ok {
		window = gocv.NewWindow(name)
		d.windows[name] = window
	}
	window.IMShow(mat)
	d.last = window
	return nil
}

// PollKey waits 1ms for a key press, which also lets HighGUI redraw.
func (d *Display) PollKey() int {
	if d.last == nil {
		return -1
	}
	return d.last.WaitKey(1)
}

func (d *Display) Close() error {
	for name, window := range d.windows {
		window.Close()
		delete(d.windows, name)
	}
	d.last = nil
	return nil
}
