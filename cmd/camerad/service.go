// Copyright 2021 The Cacophony Project. All rights reserved.
// Use of this source code is governed by the Apache License Version 2.0;
// see the LICENSE file for further details.

package main

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/godbus/dbus"
	"github.com/godbus/dbus/introspect"

	"github.com/TheCacophonyProject/camera-preview/executor"
	"github.com/TheCacophonyProject/camera-preview/pipeline"
	"github.com/TheCacophonyProject/camera-preview/source"
)

const (
	dbusName = "org.cacophony.camerad"
	dbusPath = "/org/cacophony/camerad"
)

// thermalCamera is the control surface of a Lepton source.
type thermalCamera interface {
	RunFFC() error
	SetAutoFFC(bool) error
}

// cameradService controls the thermal cameras of the running pipeline,
// keyed by the board socket each one backs.
type cameradService struct {
	mu      sync.Mutex
	cameras map[pipeline.BoardSocket]thermalCamera
}

func startService() (*cameradService, error) {
	conn, err := dbus.SystemBus()
	if err != nil {
		return nil, err
	}
	reply, err := conn.RequestName(dbusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return nil, err
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return nil, errors.New("name already taken")
	}
	s := newCameradService()
	conn.Export(s, dbusPath, dbusName)
	conn.Export(genIntrospectable(s), dbusPath, "org.freedesktop.DBus.Introspectable")
	return s, nil
}

func newCameradService() *cameradService {
	return &cameradService{cameras: make(map[pipeline.BoardSocket]thermalCamera)}
}

func genIntrospectable(v interface{}) introspect.Introspectable {
	node := &introspect.Node{
		Interfaces: []introspect.Interface{{
			Name:    dbusName,
			Methods: introspect.Methods(v),
		}},
	}
	return introspect.NewIntrospectable(node)
}

// opener opens sources from factory, keeping hold of any thermal camera
// while it is in use so it can be controlled over D-Bus.
func (s *cameradService) opener(factory *source.Factory) executor.Opener {
	return func(node pipeline.NodeSpec) (source.Source, error) {
		src, err := factory.Open(node)
		if err != nil {
			return nil, err
		}
		camera, ok := src.(thermalCamera)
		if !ok {
			return src, nil
		}
		s.setCamera(node.Socket, camera)
		return &trackedSource{
			Source:  src,
			onClose: func() { s.removeCamera(node.Socket) },
		}, nil
	}
}

type trackedSource struct {
	source.Source
	onClose func()
}

func (t *trackedSource) Close() error {
	t.onClose()
	return t.Source.Close()
}

func (s *cameradService) setCamera(socket pipeline.BoardSocket, camera thermalCamera) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cameras[socket] = camera
}

func (s *cameradService) removeCamera(socket pipeline.BoardSocket) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cameras, socket)
}

// eachCamera calls fn for every open thermal camera, in socket order.
// The first error is returned after every camera has been tried.
func (s *cameradService) eachCamera(fn func(thermalCamera) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.cameras) == 0 {
		return errors.New("no camera available")
	}
	sockets := make([]string, 0, len(s.cameras))
	for socket := range s.cameras {
		sockets = append(sockets, string(socket))
	}
	sort.Strings(sockets)

	var firstErr error
	for _, socket := range sockets {
		if err := fn(s.cameras[pipeline.BoardSocket(socket)]); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("%s: %v", socket, err)
		}
	}
	return firstErr
}

// RunFFC runs a flat field correction on every thermal camera.
func (s *cameradService) RunFFC() *dbus.Error {
	err := s.eachCamera(func(camera thermalCamera) error {
		return camera.RunFFC()
	})
	if err != nil {
		return makeDbusError("RunFFC", err)
	}
	return nil
}

func (s *cameradService) SetAutoFFC(automatic bool) *dbus.Error {
	err := s.eachCamera(func(camera thermalCamera) error {
		return camera.SetAutoFFC(automatic)
	})
	if err != nil {
		return makeDbusError("SetAutoFFC", err)
	}
	return nil
}

func makeDbusError(name string, err error) *dbus.Error {
	return &dbus.Error{
		Name: dbusName + "." + name,
		Body: []interface{}{err.Error()},
	}
}
