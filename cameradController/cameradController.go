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

// Package cameradController asks a running camerad to adjust the
// thermal cameras of the pipeline it is serving.
package cameradController

import (
	"fmt"

	"github.com/godbus/dbus"
)

const (
	dbusPath   = "/org/cacophony/camerad"
	dbusDest   = "org.cacophony.camerad"
	methodBase = "org.cacophony.camerad"
)

var getDbusObj = func() (dbus.BusObject, error) {
	conn, err := dbus.SystemBus()
	if err != nil {
		return nil, fmt.Errorf("connecting to system bus: %w", err)
	}
	return conn.Object(dbusDest, dbusPath), nil
}

// call invokes method on camerad. Errors name the method and, for
// errors raised by camerad itself, carry its message.
func call(method string, args ...interface{}) error {
	obj, err := getDbusObj()
	if err != nil {
		return err
	}
	if err := obj.Call(methodBase+"."+method, 0, args...).Store(); err != nil {
		return fmt.Errorf("camerad %s: %w", method, err)
	}
	return nil
}

// SetAutoFFC turns automatic flat field correction on or off on every
// thermal camera camerad has open.
func SetAutoFFC(automatic bool) error {
	return call("SetAutoFFC", automatic)
}

// RunFFC runs a flat field correction now.
func RunFFC() error {
	return call("RunFFC")
}
