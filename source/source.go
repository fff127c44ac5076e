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

// Package source provides the frame producers a device runtime runs for
// each camera node of a pipeline.
package source

import (
	"errors"
	"fmt"

	"github.com/TheCacophonyProject/camera-preview/device"
	"github.com/TheCacophonyProject/camera-preview/pipeline"
)

// Source produces packets for one camera node.
type Source interface {
	// Read returns a newly allocated packet holding the next image.
	// Stream, sequence and timestamp are filled in by the caller.
	Read() (*device.ImgFrame, error)
	Close() error
}

// Binding kinds.
const (
	BindPattern = "pattern"
	BindCPTV    = "cptv"
	BindLepton  = "lepton"
)

// Binding chooses what backs the camera mounted at a board socket.
type Binding struct {
	Kind     string `yaml:"kind"`
	File     string `yaml:"file"`
	SPISpeed int64  `yaml:"spi-speed"`
}

func (b *Binding) Validate() error {
	switch b.Kind {
	case "", BindPattern:
	case BindCPTV:
		if b.File == "" {
			return errors.New("cptv binding needs a file")
		}
	case BindLepton:
		if b.SPISpeed <= 0 {
			return errors.New("lepton binding needs a positive spi-speed")
		}
	default:
		return fmt.Errorf("unknown source kind %q", b.Kind)
	}
	return nil
}

// Factory opens sources for camera nodes. Sockets without a binding get
// a test pattern.
type Factory struct {
	Bindings map[pipeline.BoardSocket]Binding
}

func (f *Factory) Validate() error {
	for socket, b := range f.Bindings {
		if err := b.Validate(); err != nil {
			return fmt.Errorf("%s: %v", socket, err)
		}
	}
	return nil
}

// Open returns the source for a camera node.
func (f *Factory) Open(node pipeline.NodeSpec) (Source, error) {
	if !node.IsSource() {
		return nil, fmt.Errorf("%s is not a camera", node.Name())
	}
	b := f.Bindings[node.Socket]
	width, height := node.FrameSize()
	switch b.Kind {
	case "", BindPattern:
		return NewTestPattern(node), nil
	case BindCPTV:
		if node.Kind != pipeline.KindMonoCamera {
			return nil, fmt.Errorf("%s: cptv recordings can only back mono cameras", node.Name())
		}
		return NewCPTVReplay(b.File, width, height)
	case BindLepton:
		if node.Kind != pipeline.KindMonoCamera {
			return nil, fmt.Errorf("%s: a lepton can only back mono cameras", node.Name())
		}
		return NewLepton(b.SPISpeed, width, height)
	}
	return nil, fmt.Errorf("%s: unknown source kind %q", node.Name(), b.Kind)
}
