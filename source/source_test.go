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

package source

import (
	"path/filepath"
	"testing"

	cptv "github.com/TheCacophonyProject/go-cptv"
	"github.com/TheCacophonyProject/go-cptv/cptvframe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheCacophonyProject/camera-preview/device"
	"github.com/TheCacophonyProject/camera-preview/pipeline"
)

func colorNode(interleaved bool) pipeline.NodeSpec {
	return pipeline.NodeSpec{
		Kind:          pipeline.KindColorCamera,
		Socket:        pipeline.SocketRGB,
		Resolution:    pipeline.Resolution1080P,
		PreviewWidth:  64,
		PreviewHeight: 48,
		Interleaved:   interleaved,
		FPS:           30,
	}
}

func monoNode() pipeline.NodeSpec {
	return pipeline.NodeSpec{
		Kind:       pipeline.KindMonoCamera,
		Socket:     pipeline.SocketLeft,
		Resolution: pipeline.Resolution480P,
		FPS:        30,
	}
}

func TestColorPatternLayout(t *testing.T) {
	planar, err := NewTestPattern(colorNode(false)).Read()
	require.NoError(t, err)
	assert.Equal(t, device.BGR888p, planar.Type)
	assert.Equal(t, 64, planar.Width)
	assert.Equal(t, 48, planar.Height)

	interleaved, err := NewTestPattern(colorNode(true)).Read()
	require.NoError(t, err)
	assert.Equal(t, device.BGR888i, interleaved.Type)

	// Both layouts decode to the same picture.
	f1, err := planar.Frame()
	require.NoError(t, err)
	f2, err := interleaved.Frame()
	require.NoError(t, err)
	assert.Equal(t, f1.Pix, f2.Pix)
}

func TestMonoPatternScrolls(t *testing.T) {
	tp := NewTestPattern(monoNode())
	first, err := tp.Read()
	require.NoError(t, err)
	second, err := tp.Read()
	require.NoError(t, err)

	assert.Equal(t, device.GRAY8, first.Type)
	assert.Equal(t, 640, first.Width)
	assert.Equal(t, 480, first.Height)
	assert.Equal(t, uint8(0), first.Data[0])
	assert.Equal(t, uint8(scrollPixels), second.Data[0])
}

func TestFactoryDefaultsToPattern(t *testing.T) {
	f := &Factory{}
	src, err := f.Open(monoNode())
	require.NoError(t, err)
	assert.IsType(t, &TestPattern{}, src)

	_, err = f.Open(pipeline.NodeSpec{Kind: pipeline.KindXLinkOut, StreamName: "rgb"})
	assert.Error(t, err)
}

func TestFactoryRejectsThermalColor(t *testing.T) {
	f := &Factory{Bindings: map[pipeline.BoardSocket]Binding{
		pipeline.SocketRGB: {Kind: BindCPTV, File: "x.cptv"},
	}}
	_, err := f.Open(colorNode(false))
	assert.EqualError(t, err, "ColorCamera#0: cptv recordings can only back mono cameras")
}

func TestBindingValidation(t *testing.T) {
	assert.NoError(t, (&Binding{}).Validate())
	assert.EqualError(t, (&Binding{Kind: BindCPTV}).Validate(), "cptv binding needs a file")
	assert.EqualError(t, (&Binding{Kind: BindLepton}).Validate(), "lepton binding needs a positive spi-speed")
	assert.EqualError(t, (&Binding{Kind: "webcam"}).Validate(), `unknown source kind "webcam"`)

	f := &Factory{Bindings: map[pipeline.BoardSocket]Binding{pipeline.SocketLeft: {Kind: BindCPTV}}}
	assert.EqualError(t, f.Validate(), "left: cptv binding needs a file")
}

type testCamera struct{}

func (testCamera) ResX() int { return 4 }
func (testCamera) ResY() int { return 3 }
func (testCamera) FPS() int  { return 9 }

func writeRecording(t *testing.T, frames int) string {
	filename := filepath.Join(t.TempDir(), "replay.cptv")
	w, err := cptv.NewFileWriter(filename, testCamera{})
	require.NoError(t, err)
	require.NoError(t, w.WriteHeader(cptv.Header{DeviceName: "test", FPS: 9}))
	for i := 0; i < frames; i++ {
		f := cptvframe.NewFrame(testCamera{})
		for y, row := range f.Pix {
			for x := range row {
				f.Pix[y][x] = uint16(3000 + 100*i + x)
			}
		}
		require.NoError(t, w.WriteFrame(f))
	}
	w.Close()
	return filename
}

func TestCPTVReplayLoops(t *testing.T) {
	filename := writeRecording(t, 2)

	r, err := NewCPTVReplay(filename, 0, 0)
	require.NoError(t, err)
	defer r.Close()

	var firsts []byte
	for i := 0; i < 3; i++ {
		p, err := r.Read()
		require.NoError(t, err)
		assert.Equal(t, device.RAW16, p.Type)
		assert.Equal(t, 4, p.Width)
		assert.Equal(t, 3, p.Height)
		firsts = append(firsts, p.Data[0], p.Data[1])
	}
	// Third read starts the recording over.
	assert.Equal(t, firsts[0:2], firsts[4:6])
	assert.NotEqual(t, firsts[0:2], firsts[2:4])
}

func TestCPTVReplayMatchesNodeSize(t *testing.T) {
	filename := writeRecording(t, 1)
	node := monoNode()
	node.Resolution = pipeline.Resolution400P
	f := &Factory{Bindings: map[pipeline.BoardSocket]Binding{
		pipeline.SocketLeft: {Kind: BindCPTV, File: filename},
	}}

	src, err := f.Open(node)
	require.NoError(t, err)
	defer src.Close()

	p, err := src.Read()
	require.NoError(t, err)
	w, h := node.FrameSize()
	assert.Equal(t, w, p.Width)
	assert.Equal(t, h, p.Height)
	require.Len(t, p.Data, 2*w*h)

	// Scaled pixels keep the recorded values.
	assert.Equal(t, uint16(3000), raw16At(p, 0, 0))
	assert.Equal(t, uint16(3003), raw16At(p, w-1, h-1))
}

func raw16At(p *device.ImgFrame, x, y int) uint16 {
	i := 2 * (y*p.Width + x)
	return uint16(p.Data[i]) | uint16(p.Data[i+1])<<8
}

func TestCPTVReplayMissingFile(t *testing.T) {
	_, err := NewCPTVReplay(filepath.Join(t.TempDir(), "missing.cptv"), 0, 0)
	assert.Error(t, err)
}
