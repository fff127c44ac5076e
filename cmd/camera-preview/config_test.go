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

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheCacophonyProject/camera-preview/pipeline"
	"github.com/TheCacophonyProject/camera-preview/preview"
	"github.com/TheCacophonyProject/camera-preview/source"
)

func TestAllDefaults(t *testing.T) {
	conf, err := ParseConfig([]byte(""), "")
	require.NoError(t, err)

	assert.Equal(t, Config{
		Preset: "start-here",
		Pipeline: pipeline.Config{
			Hardware: "oak-1",
			Cameras: []pipeline.CameraConfig{{
				Kind:          pipeline.CameraColor,
				PreviewWidth:  300,
				PreviewHeight: 300,
				Stream:        "rgb",
			}},
		},
		Display: preview.Config{
			Streams: []preview.StreamConfig{{Name: "rgb", Window: "preview"}},
		},
		SnapshotDir: "/var/spool/camera-preview",
		QuitKey:     "q",
	}, *conf)
}

func TestStartHerePreset(t *testing.T) {
	conf, err := ParseConfig(nil, "start-here")
	require.NoError(t, err)

	p, err := conf.Pipeline.Build()
	require.NoError(t, err)
	assert.Equal(t, []string{"rgb"}, p.Streams())
	cam, ok := p.SourceFor("rgb")
	require.True(t, ok)
	assert.Equal(t, pipeline.KindColorCamera, cam.Kind)
	assert.Equal(t, 300, cam.PreviewWidth)
	assert.Equal(t, 300, cam.PreviewHeight)
	assert.False(t, cam.Interleaved)
	assert.Equal(t, 'q', conf.quitKey())
}

func TestAllCamerasPreset(t *testing.T) {
	conf, err := ParseConfig([]byte("preset: all-cameras"), "")
	require.NoError(t, err)

	p, err := conf.Pipeline.Build()
	require.NoError(t, err)
	assert.Equal(t, []string{"rgb", "left", "right"}, p.Streams())
	assert.Len(t, p.Links(), 3)

	left, ok := p.SourceFor("left")
	require.True(t, ok)
	assert.Equal(t, pipeline.SocketLeft, left.Socket)
	assert.Equal(t, pipeline.Resolution480P, left.Resolution)

	assert.True(t, conf.Display.Combine)
	assert.Equal(t, "frame", conf.Display.Window)
	var names []string
	for _, s := range conf.Display.Streams {
		names = append(names, s.Name)
		assert.Equal(t, 320, s.Width)
		assert.Equal(t, 240, s.Height)
		assert.True(t, s.ToBGR)
	}
	assert.Equal(t, []string{"left", "rgb", "right"}, names)
}

func TestPresetOverrideReplacesPipeline(t *testing.T) {
	config := []byte(`
pipeline:
  hardware: oak-d
  cameras:
    - kind: mono
      socket: right
      stream: right
display:
  streams:
    - name: right
      window: right
`)
	conf, err := ParseConfig(config, "")
	require.NoError(t, err)
	assert.Equal(t, "right", conf.Pipeline.Cameras[0].Stream)

	conf, err = ParseConfig(config, "all-cameras")
	require.NoError(t, err)
	assert.Len(t, conf.Pipeline.Cameras, 3)
}

func TestPresetsNotShared(t *testing.T) {
	conf, err := ParseConfig(nil, "all-cameras")
	require.NoError(t, err)
	conf.Display.Streams[0].Name = "changed"

	again, err := ParseConfig(nil, "all-cameras")
	require.NoError(t, err)
	assert.Equal(t, "left", again.Display.Streams[0].Name)
}

func TestInvalidConfig(t *testing.T) {
	for _, tc := range []struct {
		config string
		preset string
		err    string
	}{
		{"", "nope", `unknown preset "nope", should be one of [all-cameras start-here]`},
		{"quit-key: esc", "", "quit-key should be a single character"},
		{"device:\n  queue-size: -1", "", "queue-size can't be negative"},
		{"device:\n  connect: /run/camerad.sock\nsources:\n  left:\n    kind: pattern", "", "sources are configured on the device when connecting to one"},
		{"sources:\n  left:\n    kind: webcam", "", `left: unknown source kind "webcam"`},
	} {
		_, err := ParseConfig([]byte(tc.config), tc.preset)
		assert.EqualError(t, err, tc.err, tc.config)
	}
}

func TestReplayBindings(t *testing.T) {
	conf, err := ParseConfig(nil, "all-cameras")
	require.NoError(t, err)

	bindings := replayBindings(conf.Pipeline, "/tmp/x.cptv")
	assert.Equal(t, map[pipeline.BoardSocket]source.Binding{
		pipeline.SocketLeft:  {Kind: source.BindCPTV, File: "/tmp/x.cptv"},
		pipeline.SocketRight: {Kind: source.BindCPTV, File: "/tmp/x.cptv"},
	}, bindings)
}
