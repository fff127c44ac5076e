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

package pipeline

import (
	"errors"
	"fmt"
)

const (
	CameraColor = "color"
	CameraMono  = "mono"
)

// CameraConfig describes one camera and the stream its frames are sent
// to. Zero values leave the node's defaults in place, except for
// Interleaved.
type CameraConfig struct {
	Kind          string           `yaml:"kind"`
	Socket        BoardSocket      `yaml:"socket"`
	Resolution    SensorResolution `yaml:"resolution"`
	PreviewWidth  int              `yaml:"preview-width"`
	PreviewHeight int              `yaml:"preview-height"`
	Interleaved   bool             `yaml:"interleaved"`
	FPS           float64          `yaml:"fps"`
	Stream        string           `yaml:"stream"`
}

// Config is the file form of a pipeline: a set of cameras, each linked
// to its own host stream.
type Config struct {
	Hardware string         `yaml:"hardware"`
	Cameras  []CameraConfig `yaml:"cameras"`
}

func (conf *Config) Validate() error {
	if len(conf.Cameras) == 0 {
		return errors.New("at least one camera must be configured")
	}
	for i, cam := range conf.Cameras {
		if cam.Kind != CameraColor && cam.Kind != CameraMono {
			return fmt.Errorf("camera %d: kind should be %q or %q", i, CameraColor, CameraMono)
		}
	}
	return nil
}

// Build turns the configuration into a pipeline.
func (conf *Config) Build() (*Pipeline, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	hw, err := LookupHardware(conf.Hardware)
	if err != nil {
		return nil, err
	}

	b := NewBuilder(hw)
	for _, cam := range conf.Cameras {
		var out *Output
		switch cam.Kind {
		case CameraColor:
			c := b.CreateColorCamera()
			if cam.PreviewWidth != 0 || cam.PreviewHeight != 0 {
				c.SetPreviewSize(cam.PreviewWidth, cam.PreviewHeight)
			}
			c.SetInterleaved(cam.Interleaved)
			if cam.Socket != "" {
				c.SetBoardSocket(cam.Socket)
			}
			if cam.Resolution != "" {
				c.SetResolution(cam.Resolution)
			}
			if cam.FPS != 0 {
				c.SetFPS(cam.FPS)
			}
			out = c.Preview
		case CameraMono:
			m := b.CreateMonoCamera()
			if cam.Socket != "" {
				m.SetBoardSocket(cam.Socket)
			}
			if cam.Resolution != "" {
				m.SetResolution(cam.Resolution)
			}
			if cam.FPS != 0 {
				m.SetFPS(cam.FPS)
			}
			out = m.Out
		}

		xout := b.CreateXLinkOut()
		xout.SetStreamName(cam.Stream)
		out.Link(xout.Input)
	}
	return b.Build()
}
