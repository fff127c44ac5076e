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

import "errors"

// Kinds of configuration error. Use errors.Is against a
// *ConfigurationError to find out which one occurred.
var (
	ErrUnknownHardware       = errors.New("unknown hardware class")
	ErrUnknownSocket         = errors.New("board socket not available on hardware")
	ErrSocketInUse           = errors.New("board socket already used by another camera")
	ErrUnsupportedResolution = errors.New("unsupported sensor resolution")
	ErrInvalidSize           = errors.New("invalid preview size")
	ErrInvalidFPS            = errors.New("invalid fps")
	ErrEmptyStreamName       = errors.New("stream name is empty")
	ErrDuplicateStream       = errors.New("stream name already in use")
	ErrUnknownNode           = errors.New("unknown node")
	ErrDuplicateNode         = errors.New("duplicate node id")
	ErrUnknownPort           = errors.New("unknown port")
	ErrForeignNode           = errors.New("node belongs to another builder")
	ErrDanglingOutput        = errors.New("source output is not linked")
	ErrOutputAlreadyLinked   = errors.New("source output is already linked")
	ErrUnlinkedInput         = errors.New("sink input is not linked")
	ErrInputAlreadyLinked    = errors.New("sink input is already linked")
)

// ConfigurationError is returned when a pipeline description can't be
// built or accepted by a runtime.
type ConfigurationError struct {
	// Node is the name of the offending node, if there is one.
	Node string
	// Err is one of the Err* kinds above.
	Err error
	// Detail gives extra context, such as the offending value.
	Detail string
}

func (e *ConfigurationError) Error() string {
	msg := e.Err.Error()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Node != "" {
		msg = e.Node + ": " + msg
	}
	return msg
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}
