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
	"image"
	"image/color"
	"io"
	"os"

	cptv "github.com/TheCacophonyProject/go-cptv"
	"github.com/TheCacophonyProject/go-cptv/cptvframe"
	"golang.org/x/image/draw"

	"github.com/TheCacophonyProject/camera-preview/device"
)

// CPTVReplay plays a CPTV thermal recording back as a RAW16 stream,
// starting over when the end of the recording is reached. Frames are
// scaled to the size of the camera node they stand in for.
type CPTVReplay struct {
	filename string
	width    int
	height   int
	file     *os.File
	reader   *cptv.Reader
	frame    *cptvframe.Frame
}

// NewCPTVReplay opens a recording. A zero width or height keeps the
// recording's own frame size.
func NewCPTVReplay(filename string, width, height int) (*CPTVReplay, error) {
	r := &CPTVReplay{filename: filename, width: width, height: height}
	if err := r.open(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *CPTVReplay) open() error {
	file, err := os.Open(r.filename)
	if err != nil {
		return err
	}
	reader, err := cptv.NewReader(file)
	if err != nil {
		file.Close()
		return err
	}
	r.file = file
	r.reader = reader
	r.frame = cptvframe.NewFrame(reader)
	return nil
}

func (r *CPTVReplay) Read() (*device.ImgFrame, error) {
	err := r.reader.ReadFrame(r.frame)
	if err == io.EOF {
		r.file.Close()
		if err := r.open(); err != nil {
			return nil, err
		}
		err = r.reader.ReadFrame(r.frame)
	}
	if err != nil {
		return nil, err
	}
	return raw16Packet(r.frame, r.width, r.height), nil
}

func (r *CPTVReplay) Close() error {
	return r.file.Close()
}

// raw16Packet copies a thermal frame into a RAW16 packet of the given
// size. Scaling is nearest neighbour so every value stays a real sensor
// reading.
func raw16Packet(f *cptvframe.Frame, width, height int) *device.ImgFrame {
	src := thermalImage(f)
	b := src.Bounds()
	if width <= 0 || height <= 0 {
		width, height = b.Dx(), b.Dy()
	}
	dst := src
	if width != b.Dx() || height != b.Dy() {
		dst = image.NewGray16(image.Rect(0, 0, width, height))
		draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	}

	p := device.NewImgFrame(width, height, device.RAW16)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			p.SetRaw16(y*width+x, dst.Gray16At(x, y).Y)
		}
	}
	return p
}

func thermalImage(f *cptvframe.Frame) *image.Gray16 {
	height := len(f.Pix)
	width := 0
	if height > 0 {
		width = len(f.Pix[0])
	}
	img := image.NewGray16(image.Rect(0, 0, width, height))
	for y, row := range f.Pix {
		for x, val := range row {
			img.SetGray16(x, y, color.Gray16{Y: val})
		}
	}
	return img
}
