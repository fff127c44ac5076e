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

package source

import (
	"github.com/TheCacophonyProject/camera-preview/device"
	"github.com/TheCacophonyProject/camera-preview/pipeline"
)

// BGR color bars.
var bars = [][3]uint8{
	{255, 255, 255},
	{0, 255, 255},
	{255, 255, 0},
	{0, 255, 0},
	{255, 0, 255},
	{0, 0, 255},
	{255, 0, 0},
	{0, 0, 0},
}

const scrollPixels = 4

// TestPattern generates synthetic frames: scrolling color bars for color
// cameras and a scrolling diagonal gradient for mono cameras.
type TestPattern struct {
	width, height int
	pixelType     device.PixelType
	count         int
}

func NewTestPattern(node pipeline.NodeSpec) *TestPattern {
	w, h := node.FrameSize()
	t := device.GRAY8
	if node.Kind == pipeline.KindColorCamera {
		t = device.BGR888p
		if node.Interleaved {
			t = device.BGR888i
		}
	}
	return &TestPattern{width: w, height: h, pixelType: t}
}

func (tp *TestPattern) Read() (*device.ImgFrame, error) {
	p := device.NewImgFrame(tp.width, tp.height, tp.pixelType)
	offset := tp.count * scrollPixels
	tp.count++

	pixels := tp.width * tp.height
	for y := 0; y < tp.height; y++ {
		for x := 0; x < tp.width; x++ {
			i := y*tp.width + x
			switch tp.pixelType {
			case device.GRAY8:
				p.Data[i] = uint8(x + y + offset)
			case device.BGR888i:
				c := tp.bar(x + offset)
				copy(p.Data[3*i:3*i+3], c[:])
			case device.BGR888p:
				c := tp.bar(x + offset)
				p.Data[i] = c[0]
				p.Data[pixels+i] = c[1]
				p.Data[2*pixels+i] = c[2]
			}
		}
	}
	return p, nil
}

func (tp *TestPattern) bar(x int) [3]uint8 {
	barWidth := tp.width / len(bars)
	if barWidth == 0 {
		barWidth = 1
	}
	return bars[(x/barWidth)%len(bars)]
}

func (tp *TestPattern) Close() error {
	return nil
}
