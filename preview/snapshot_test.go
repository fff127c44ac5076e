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

package preview

import (
	"image/png"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheCacophonyProject/camera-preview/frame"
)

func solid(w, h int, value uint8) *frame.Frame {
	f := frame.New(w, h, 3)
	for i := range f.Pix {
		f.Pix[i] = value
	}
	return f
}

func TestSnapshot(t *testing.T) {
	cache := NewFrameCache()
	s := NewSnapshotter(cache, t.TempDir())
	now := time.Date(2021, 3, 1, 12, 0, 0, 0, time.UTC)
	s.nowFunc = func() time.Time { return now }

	_, err := s.Take()
	assert.Equal(t, ErrNoFrames, err)

	cache.SetRendered(solid(32, 24, 100))
	taken, err := s.Take()
	require.NoError(t, err)
	assert.True(t, taken)

	file, err := os.Open(s.Path())
	require.NoError(t, err)
	img, err := png.Decode(file)
	file.Close()
	require.NoError(t, err)
	assert.Equal(t, 32, img.Bounds().Dx())
	assert.Equal(t, 24, img.Bounds().Dy())

	// Too soon after the last one.
	cache.SetRendered(solid(32, 24, 101))
	taken, err = s.Take()
	require.NoError(t, err)
	assert.False(t, taken)

	// Same picture as last time.
	now = now.Add(time.Second)
	cache.SetRendered(solid(32, 24, 100))
	taken, err = s.Take()
	require.NoError(t, err)
	assert.False(t, taken)

	cache.SetRendered(solid(32, 24, 101))
	taken, err = s.Take()
	require.NoError(t, err)
	assert.True(t, taken)

	s.Delete()
	_, err = os.Stat(s.Path())
	assert.True(t, os.IsNotExist(err))
	s.Delete()
}

func TestFrameCacheCollect(t *testing.T) {
	cache := NewFrameCache()
	cache.Put("rgb", solid(2, 2, 1))

	_, ok := cache.Collect([]string{"rgb", "left"})
	assert.False(t, ok)

	cache.Put("left", solid(2, 2, 2))
	frames, ok := cache.Collect([]string{"left", "rgb"})
	require.True(t, ok)
	assert.Equal(t, uint8(2), frames[0].Pix[0])
	assert.Equal(t, uint8(1), frames[1].Pix[0])
}
