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

package device

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/TheCacophonyProject/camera-preview/frame"
)

// PixelType describes how an ImgFrame's data is laid out.
type PixelType string

const (
	// GRAY8 is one byte per pixel.
	GRAY8 PixelType = "gray8"
	// BGR888i is interleaved BGR, three bytes per pixel.
	BGR888i PixelType = "bgr888i"
	// BGR888p is planar BGR: the whole blue plane, then green, then red.
	BGR888p PixelType = "bgr888p"
	// RAW16 is one little endian uint16 per pixel, as produced by
	// radiometric thermal sensors.
	RAW16 PixelType = "raw16"
)

// BytesPerPixel returns the number of data bytes per pixel.
func (t PixelType) BytesPerPixel() int {
	switch t {
	case GRAY8:
		return 1
	case RAW16:
		return 2
	case BGR888i, BGR888p:
		return 3
	}
	return 0
}

// ImgFrame is an image packet retrieved from an output queue.
type ImgFrame struct {
	Stream    string    `cbor:"stream"`
	Sequence  int64     `cbor:"seq"`
	Timestamp time.Time `cbor:"ts"`
	Width     int       `cbor:"w"`
	Height    int       `cbor:"h"`
	Type      PixelType `cbor:"type"`
	Data      []byte    `cbor:"data"`
}

// NewImgFrame allocates a packet with room for a width x height image
// of the given type.
func NewImgFrame(width, height int, t PixelType) *ImgFrame {
	return &ImgFrame{
		Width:  width,
		Height: height,
		Type:   t,
		Data:   make([]byte, width*height*t.BytesPerPixel()),
	}
}

// Frame decodes the packet into a frame buffer. Color packets become
// interleaved BGR frames. RAW16 packets are normalised to the range of
// values present and become grayscale frames.
func (p *ImgFrame) Frame() (*frame.Frame, error) {
	bpp := p.Type.BytesPerPixel()
	if bpp == 0 {
		return nil, fmt.Errorf("unsupported pixel type %q", p.Type)
	}
	pixels := p.Width * p.Height
	if p.Width <= 0 || p.Height <= 0 || len(p.Data) != pixels*bpp {
		return nil, fmt.Errorf("%s packet %dx%d should have %d bytes, has %d",
			p.Type, p.Width, p.Height, pixels*bpp, len(p.Data))
	}

	var out *frame.Frame
	switch p.Type {
	case GRAY8:
		out = frame.New(p.Width, p.Height, 1)
		copy(out.Pix, p.Data)
	case BGR888i:
		out = frame.New(p.Width, p.Height, 3)
		copy(out.Pix, p.Data)
	case BGR888p:
		out = frame.New(p.Width, p.Height, 3)
		for i := 0; i < pixels; i++ {
			out.Pix[3*i] = p.Data[i]
			out.Pix[3*i+1] = p.Data[pixels+i]
			out.Pix[3*i+2] = p.Data[2*pixels+i]
		}
	case RAW16:
		out = frame.New(p.Width, p.Height, 1)
		normaliseRaw16(p.Data, out.Pix)
	}
	out.Sequence = p.Sequence
	out.Timestamp = p.Timestamp
	return out, nil
}

// SetRaw16 stores v as the RAW16 value of pixel i.
func (p *ImgFrame) SetRaw16(i int, v uint16) {
	binary.LittleEndian.PutUint16(p.Data[2*i:], v)
}

func normaliseRaw16(raw []byte, out []uint8) {
	var valMax uint16
	var valMin uint16 = 0xffff
	for i := range out {
		val := binary.LittleEndian.Uint16(raw[2*i:])
		if val > valMax {
			valMax = val
		}
		if val < valMin {
			valMin = val
		}
	}
	if valMax == valMin {
		return
	}
	span := uint32(valMax - valMin)
	for i := range out {
		val := binary.LittleEndian.Uint16(raw[2*i:])
		out[i] = uint8(uint32(val-valMin) * 255 / span)
	}
}
