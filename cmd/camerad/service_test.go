// Copyright 2021 The Cacophony Project. All rights reserved.
// Use of this source code is governed by the Apache License Version 2.0;
// see the LICENSE file for further details.

package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheCacophonyProject/camera-preview/device"
	"github.com/TheCacophonyProject/camera-preview/pipeline"
	"github.com/TheCacophonyProject/camera-preview/source"
)

type fakeThermal struct {
	ffcs      int
	automatic bool
	closed    bool
	err       error
}

func (f *fakeThermal) Read() (*device.ImgFrame, error) { return nil, errors.New("not reading") }
func (f *fakeThermal) Close() error                    { f.closed = true; return nil }
func (f *fakeThermal) RunFFC() error                   { f.ffcs++; return f.err }
func (f *fakeThermal) SetAutoFFC(a bool) error         { f.automatic = a; return f.err }

func TestFFCWithoutCamera(t *testing.T) {
	s := newCameradService()
	derr := s.RunFFC()
	require.NotNil(t, derr)
	assert.Equal(t, dbusName+".RunFFC", derr.Name)
	assert.Equal(t, []interface{}{"no camera available"}, derr.Body)
	assert.NotNil(t, s.SetAutoFFC(true))
}

func TestFFCWhileCameraOpen(t *testing.T) {
	s := newCameradService()
	camera := new(fakeThermal)
	s.setCamera(pipeline.SocketLeft, camera)

	assert.Nil(t, s.RunFFC())
	assert.Nil(t, s.SetAutoFFC(true))
	assert.Equal(t, 1, camera.ffcs)
	assert.True(t, camera.automatic)

	tracked := &trackedSource{Source: camera, onClose: func() { s.removeCamera(pipeline.SocketLeft) }}
	require.NoError(t, tracked.Close())
	assert.True(t, camera.closed)
	assert.NotNil(t, s.RunFFC())
}

func TestCamerasTrackedPerSocket(t *testing.T) {
	s := newCameradService()
	left := new(fakeThermal)
	right := &fakeThermal{err: errors.New("busy")}
	s.setCamera(pipeline.SocketLeft, left)
	s.setCamera(pipeline.SocketRight, right)

	derr := s.RunFFC()
	require.NotNil(t, derr)
	assert.Equal(t, []interface{}{"right: busy"}, derr.Body)
	assert.Equal(t, 1, left.ffcs)
	assert.Equal(t, 1, right.ffcs)

	// Closing one camera leaves the other under control.
	s.removeCamera(pipeline.SocketRight)
	assert.Nil(t, s.RunFFC())
	assert.Equal(t, 2, left.ffcs)
	assert.Equal(t, 1, right.ffcs)
}

func TestOpenerPassesPatternsThrough(t *testing.T) {
	s := newCameradService()
	open := s.opener(new(source.Factory))
	src, err := open(pipeline.NodeSpec{
		Kind:       pipeline.KindMonoCamera,
		Socket:     pipeline.SocketLeft,
		Resolution: pipeline.Resolution400P,
		FPS:        30,
	})
	require.NoError(t, err)
	assert.IsType(t, &source.TestPattern{}, src)
	assert.Empty(t, s.cameras)
}
