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
	"fmt"
	"strings"
)

// BoardSocket identifies the physical position a sensor is mounted at.
type BoardSocket string

const (
	SocketRGB   BoardSocket = "rgb"
	SocketLeft  BoardSocket = "left"
	SocketRight BoardSocket = "right"
)

// SensorResolution is the resolution class a camera sensor runs at.
type SensorResolution string

const (
	Resolution400P  SensorResolution = "400p"
	Resolution480P  SensorResolution = "480p"
	Resolution720P  SensorResolution = "720p"
	Resolution800P  SensorResolution = "800p"
	Resolution1080P SensorResolution = "1080p"
	Resolution4K    SensorResolution = "4k"
)

type resolutionInfo struct {
	width, height int
	color         bool
}

var resolutions = map[SensorResolution]resolutionInfo{
	Resolution400P:  {640, 400, false},
	Resolution480P:  {640, 480, false},
	Resolution720P:  {1280, 720, false},
	Resolution800P:  {1280, 800, false},
	Resolution1080P: {1920, 1080, true},
	Resolution4K:    {3840, 2160, true},
}

// Size returns the sensor's native frame size. ok is false for unknown
// resolutions.
func (r SensorResolution) Size() (width, height int, ok bool) {
	info, ok := resolutions[r]
	return info.width, info.height, ok
}

func (r SensorResolution) supportsColor() bool {
	return resolutions[r].color
}

func (r SensorResolution) supportsMono() bool {
	info, ok := resolutions[r]
	return ok && !info.color
}

// HardwareClass describes a family of devices by the board sockets
// they physically carry.
type HardwareClass struct {
	Name    string
	Sockets []BoardSocket
}

var (
	OAK1     = HardwareClass{Name: "oak-1", Sockets: []BoardSocket{SocketRGB}}
	OAKD     = HardwareClass{Name: "oak-d", Sockets: []BoardSocket{SocketRGB, SocketLeft, SocketRight}}
	OAKDLite = HardwareClass{Name: "oak-d-lite", Sockets: []BoardSocket{SocketRGB, SocketLeft, SocketRight}}
)

var hardwareClasses = []HardwareClass{OAK1, OAKD, OAKDLite}

// LookupHardware returns the hardware class with the given name.
func LookupHardware(name string) (HardwareClass, error) {
	for _, hw := range hardwareClasses {
		if strings.EqualFold(hw.Name, name) {
			return hw, nil
		}
	}
	return HardwareClass{}, &ConfigurationError{
		Err:    ErrUnknownHardware,
		Detail: fmt.Sprintf("%q", name),
	}
}

// HasSocket reports whether the hardware class has a sensor mounted
// at socket.
func (hw HardwareClass) HasSocket(socket BoardSocket) bool {
	for _, s := range hw.Sockets {
		if s == socket {
			return true
		}
	}
	return false
}

func (hw HardwareClass) String() string {
	return hw.Name
}
