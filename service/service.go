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

// Package service exposes a running preview over D-Bus.
package service

import (
	"errors"
	"log"
	"time"

	"github.com/TheCacophonyProject/event-reporter/eventclient"
	"github.com/godbus/dbus"
	"github.com/godbus/dbus/introspect"
)

const (
	DbusName = "org.cacophony.camerapreview"
	DbusPath = "/org/cacophony/camerapreview"

	snapshotEventType = "previewSnapshot"
)

// Snapshotter saves the current picture to a file.
type Snapshotter interface {
	Take() (bool, error)
	Path() string
}

type service struct {
	snapshots Snapshotter
	addEvent  func(eventclient.Event) error
}

// Start registers the service on the system bus.
func Start(snapshots Snapshotter) error {
	conn, err := dbus.SystemBus()
	if err != nil {
		return err
	}
	reply, err := conn.RequestName(DbusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return err
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return errors.New("name already taken")
	}

	s := newService(snapshots)
	conn.Export(s, DbusPath, DbusName)
	conn.Export(genIntrospectable(s), DbusPath, "org.freedesktop.DBus.Introspectable")
	return nil
}

func newService(snapshots Snapshotter) *service {
	return &service{
		snapshots: snapshots,
		addEvent:  eventclient.AddEvent,
	}
}

func genIntrospectable(v interface{}) introspect.Introspectable {
	node := &introspect.Node{
		Interfaces: []introspect.Interface{{
			Name:    DbusName,
			Methods: introspect.Methods(v),
		}},
	}
	return introspect.NewIntrospectable(node)
}

// TakeSnapshot saves what is currently shown as a PNG and returns the
// path of the file.
func (s *service) TakeSnapshot() (string, *dbus.Error) {
	taken, err := s.snapshots.Take()
	if err != nil {
		return "", makeDbusError("TakeSnapshot", err)
	}
	if taken {
		event := eventclient.Event{
			Timestamp: time.Now(),
			Type:      snapshotEventType,
			Details:   map[string]interface{}{"path": s.snapshots.Path()},
		}
		if err := s.addEvent(event); err != nil {
			log.Printf("could not record snapshot event: %v", err)
		}
	}
	return s.snapshots.Path(), nil
}

func makeDbusError(name string, err error) *dbus.Error {
	return &dbus.Error{
		Name: DbusName + "." + name,
		Body: []interface{}{err.Error()},
	}
}
