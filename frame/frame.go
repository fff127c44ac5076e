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

package frame

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"time"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
)

// Frame is a decoded image: Height rows of Width pixels, each pixel
// Channels bytes. One channel is grayscale, three are BGR.
type Frame struct {
	Width    int
	Height   int
	Channels int
	Pix      []uint8

	Sequence  int64
	Timestamp time.Time
}

// New returns a black frame.
func New(width, height, channels int) *Frame {
	return &Frame{
		Width:    width,
		Height:   height,
		Channels: channels,
		Pix:      make([]uint8, width*height*channels),
	}
}

// Stride returns the number of bytes per row.
func (f *Frame) Stride() int {
	return f.Width * f.Channels
}

// At returns the bytes of the pixel at (x, y).
func (f *Frame) At(x, y int) []uint8 {
	i := y*f.Stride() + x*f.Channels
	return f.Pix[i : i+f.Channels]
}

// Copy returns a deep copy of the frame.
func (f *Frame) Copy() *Frame {
	out := *f
	out.Pix = append([]uint8(nil), f.Pix...)
	return &out
}

func (f *Frame) String() string {
	return fmt.Sprintf("%dx%dx%d #%d", f.Width, f.Height, f.Channels, f.Sequence)
}

// Image returns the frame as an image.Image: *image.Gray for
// single channel frames and *image.RGBA otherwise.
func (f *Frame) Image() image.Image {
	rect := image.Rect(0, 0, f.Width, f.Height)
	if f.Channels == 1 {
		return &image.Gray{Pix: f.Pix, Stride: f.Width, Rect: rect}
	}
	img := image.NewRGBA(rect)
	for i, j := 0, 0; i < len(f.Pix); i, j = i+3, j+4 {
		img.Pix[j] = f.Pix[i+2]
		img.Pix[j+1] = f.Pix[i+1]
		img.Pix[j+2] = f.Pix[i]
		img.Pix[j+3] = 0xff
	}
	return img
}

// FromImage converts an image to a frame. Grayscale images give single
// channel frames, everything else gives BGR.
func FromImage(img image.Image) *Frame {
	b := img.Bounds()
	if g, ok := img.(*image.Gray); ok {
		out := New(b.Dx(), b.Dy(), 1)
		for y := 0; y < b.Dy(); y++ {
			copy(out.Pix[y*out.Width:(y+1)*out.Width], g.Pix[g.PixOffset(b.Min.X, b.Min.Y+y):])
		}
		return out
	}

	out := New(b.Dx(), b.Dy(), 3)
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
			out.Pix[i] = c.B
			out.Pix[i+1] = c.G
			out.Pix[i+2] = c.R
			i += 3
		}
	}
	return out
}

// Resize scales the frame to width x height keeping its channel count.
func (f *Frame) Resize(width, height int) *Frame {
	if width == f.Width && height == f.Height {
		return f.Copy()
	}
	var out *Frame
	if f.Channels == 1 {
		dst := image.NewGray(image.Rect(0, 0, width, height))
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), f.Image(), image.Rect(0, 0, f.Width, f.Height), draw.Src, nil)
		out = &Frame{Width: width, Height: height, Channels: 1, Pix: dst.Pix}
	} else {
		dst := image.NewRGBA(image.Rect(0, 0, width, height))
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), f.Image(), image.Rect(0, 0, f.Width, f.Height), draw.Src, nil)
		out = FromImage(dst)
	}
	out.Sequence = f.Sequence
	out.Timestamp = f.Timestamp
	return out
}

// GrayToBGR expands a single channel frame into three identical
// channels. Frames which already have three channels are copied.
func (f *Frame) GrayToBGR() *Frame {
	if f.Channels != 1 {
		return f.Copy()
	}
	out := New(f.Width, f.Height, 3)
	for i, v := range f.Pix {
		out.Pix[3*i] = v
		out.Pix[3*i+1] = v
		out.Pix[3*i+2] = v
	}
	out.Sequence = f.Sequence
	out.Timestamp = f.Timestamp
	return out
}

// HConcat places frames side by side, left to right. They must all have
// the same height and channel count.
func HConcat(frames ...*Frame) (*Frame, error) {
	if len(frames) == 0 {
		return nil, errors.New("no frames to concatenate")
	}
	height, channels := frames[0].Height, frames[0].Channels
	width := 0
	for _, f := range frames {
		if f.Height != height || f.Channels != channels {
			return nil, fmt.Errorf("can't concatenate %dx%dx%d with %dx%dx%d",
				frames[0].Width, height, channels, f.Width, f.Height, f.Channels)
		}
		width += f.Width
	}

	canvas := imaging.New(width, height, color.Black)
	x := 0
	for _, f := range frames {
		canvas = imaging.Paste(canvas, f.Image(), image.Pt(x, 0))
		x += f.Width
	}

	out := FromImage(canvas)
	if channels == 1 {
		out = out.toGray()
	}
	out.Sequence = frames[0].Sequence
	out.Timestamp = frames[0].Timestamp
	return out, nil
}

// toGray keeps the first channel of a BGR frame whose channels are
// known to be equal.
func (f *Frame) toGray() *Frame {
	if f.Channels == 1 {
		return f
	}
	out := New(f.Width, f.Height, 1)
	for i := range out.Pix {
		out.Pix[i] = f.Pix[i*f.Channels]
	}
	return out
}

// EncodePNG writes the frame to w as a PNG.
func (f *Frame) EncodePNG(w io.Writer) error {
	return png.Encode(w, f.Image())
}
