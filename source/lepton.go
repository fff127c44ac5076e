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
	"log"

	"github.com/TheCacophonyProject/go-cptv/cptvframe"
	"github.com/TheCacophonyProject/lepton3"

	"github.com/TheCacophonyProject/camera-preview/device"
)

// leptonSpec describes the Lepton 3 sensor to cptvframe.
type leptonSpec struct{}

func (leptonSpec) ResX() int { return lepton3.FrameCols }
func (leptonSpec) ResY() int { return lepton3.FrameRows }
func (leptonSpec) FPS() int  { return lepton3.FramesHz }

// Lepton reads radiometric frames from a FLIR Lepton 3 over SPI, scaled
// up to the size of the camera node it backs.
type Lepton struct {
	width  int
	height int
	camera *lepton3.Lepton3
	raw    *lepton3.RawFrame
	frame  *cptvframe.Frame
}

func NewLepton(spiSpeed int64, width, height int) (*Lepton, error) {
	camera := lepton3.New(spiSpeed)
	camera.SetLogFunc(func(t string) { log.Print(t) })

	log.Print("opening lepton")
	if err := camera.Open(); err != nil {
		return nil, err
	}
	log.Print("enabling radiometry")
	if err := camera.SetRadiometry(true); err != nil {
		camera.Close()
		return nil, err
	}
	return &Lepton{
		width:  width,
		height: height,
		camera: camera,
		raw:    new(lepton3.RawFrame),
		frame:  cptvframe.NewFrame(leptonSpec{}),
	}, nil
}

func (l *Lepton) Read() (*device.ImgFrame, error) {
	if err := l.camera.NextFrame(l.raw); err != nil {
		return nil, err
	}
	if err := lepton3.ParseRawFrame(l.raw[:], l.frame); err != nil {
		return nil, err
	}
	return raw16Packet(l.frame, l.width, l.height), nil
}

func (l *Lepton) Close() error {
	l.camera.Close()
	return nil
}

// RunFFC triggers a flat field correction.
func (l *Lepton) RunFFC() error {
	return l.camera.RunFFC()
}

func (l *Lepton) SetAutoFFC(automatic bool) error {
	return l.camera.SetAutoFFC(automatic)
}
