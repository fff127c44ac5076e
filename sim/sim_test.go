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

package sim

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheCacophonyProject/camera-preview/device"
	"github.com/TheCacophonyProject/camera-preview/pipeline"
	"github.com/TheCacophonyProject/camera-preview/source"
)

func allCameras(t *testing.T) *pipeline.Pipeline {
	conf := &pipeline.Config{
		Hardware: "oak-d",
		Cameras: []pipeline.CameraConfig{
			{Kind: pipeline.CameraColor, PreviewWidth: 64, PreviewHeight: 48, Stream: "rgb"},
			{Kind: pipeline.CameraMono, Socket: pipeline.SocketLeft, Resolution: pipeline.Resolution400P, Stream: "left"},
			{Kind: pipeline.CameraMono, Socket: pipeline.SocketRight, Resolution: pipeline.Resolution400P, Stream: "right"},
		},
	}
	p, err := conf.Build()
	require.NoError(t, err)
	return p
}

func waitForPacket(t *testing.T, q device.Queue) *device.ImgFrame {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		p, err := q.TryGet()
		require.NoError(t, err)
		if p != nil {
			return p
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("no packet on %q", q.Name())
	return nil
}

func TestStreamsDeliverPackets(t *testing.T) {
	d, err := Open(context.Background(), allCameras(t), Options{})
	require.NoError(t, err)
	defer d.Close()

	for _, stream := range []string{"rgb", "left", "right"} {
		q, err := d.OutputQueue(stream)
		require.NoError(t, err)
		p := waitForPacket(t, q)
		assert.Equal(t, stream, p.Stream)

		f, err := p.Frame()
		require.NoError(t, err)
		if stream == "rgb" {
			assert.Equal(t, 64, f.Width)
			assert.Equal(t, 3, f.Channels)
		} else {
			assert.Equal(t, 640, f.Width)
			assert.Equal(t, 400, f.Height)
			assert.Equal(t, 1, f.Channels)
		}
	}
}

func TestUnknownStream(t *testing.T) {
	d, err := Open(context.Background(), allCameras(t), Options{})
	require.NoError(t, err)
	defer d.Close()

	_, err = d.OutputQueue("depth")
	assert.True(t, errors.Is(err, device.ErrUnknownStream))
	assert.EqualError(t, err, `unknown stream: "depth"`)
}

func TestCloseClosesQueues(t *testing.T) {
	d, err := Open(context.Background(), allCameras(t), Options{QueueSize: 1})
	require.NoError(t, err)
	q, err := d.OutputQueue("left")
	require.NoError(t, err)

	require.NoError(t, d.Close())
	require.NoError(t, d.Close())

	// Drain whatever was queued before the close.
	for i := 0; i < 2; i++ {
		p, err := q.TryGet()
		if p == nil {
			var rerr *device.RetrievalError
			require.True(t, errors.As(err, &rerr))
			assert.Equal(t, "left", rerr.Stream)
			assert.True(t, errors.Is(err, ErrDeviceClosed))
			return
		}
	}
	t.Fatal("queue still delivering after close")
}

func TestMissingRecordingFailsOpen(t *testing.T) {
	factory := &source.Factory{Bindings: map[pipeline.BoardSocket]source.Binding{
		pipeline.SocketLeft: {Kind: source.BindCPTV, File: filepath.Join(t.TempDir(), "none.cptv")},
	}}
	_, err := Open(context.Background(), allCameras(t), Options{Sources: factory})
	assert.Error(t, err)
}

func TestInvalidBindingFailsOpen(t *testing.T) {
	factory := &source.Factory{Bindings: map[pipeline.BoardSocket]source.Binding{
		pipeline.SocketLeft: {Kind: source.BindCPTV},
	}}
	_, err := Open(context.Background(), allCameras(t), Options{Sources: factory})
	assert.EqualError(t, err, "left: cptv binding needs a file")
}

func TestContextCancelStopsDevice(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	d, err := Open(ctx, allCameras(t), Options{})
	require.NoError(t, err)
	cancel()

	select {
	case <-d.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("device still running")
	}
	assert.NoError(t, d.Close())
}
