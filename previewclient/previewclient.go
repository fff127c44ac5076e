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

// Package previewclient talks to a running camera-preview over D-Bus.
package previewclient

import "github.com/godbus/dbus"

const (
	dbusPath   = "/org/cacophony/camerapreview"
	dbusDest   = "org.cacophony.camerapreview"
	methodBase = "org.cacophony.camerapreview"
)

func getDbusObj() (dbus.BusObject, error) {
	conn, err := dbus.SystemBus()
	if err != nil {
		return nil, err
	}
	obj := conn.Object(dbusDest, dbusPath)
	return obj, nil
}

// TakeSnapshot asks the preview to save what it is showing and returns
// where the PNG was written.
func TakeSnapshot() (string, error) {
	obj, err := getDbusObj()
	if err != nil {
		return "", err
	}
	var path string
	err = obj.Call(methodBase+".TakeSnapshot", 0).Store(&path)
	return path, err
}
