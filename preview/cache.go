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
	"sync"

	"github.com/TheCacophonyProject/camera-preview/frame"
)

// FrameCache holds the most recent frame of each stream along with the
// last frame rendered. The loop writes to it; snapshot readers may read
// from other goroutines.
type FrameCache struct {
	mu       sync.RWMutex
	frames   map[string]*frame.Frame
	rendered *frame.Frame
}

func NewFrameCache() *FrameCache {
	return &FrameCache{frames: make(map[string]*frame.Frame)}
}

// Put replaces the frame for a stream. Frames must not be modified
// after they are cached.
func (c *FrameCache) Put(stream string, f *frame.Frame) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames[stream] = f
}

// Get returns the last frame seen on a stream, or nil if there has been
// none.
func (c *FrameCache) Get(stream string) *frame.Frame {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.frames[stream]
}

// Collect returns the frames of the given streams in order. ok is false
// if any of them has never produced a frame.
func (c *FrameCache) Collect(streams []string) (frames []*frame.Frame, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	frames = make([]*frame.Frame, len(streams))
	for i, s := range streams {
		f := c.frames[s]
		if f == nil {
			return nil, false
		}
		frames[i] = f
	}
	return frames, true
}

func (c *FrameCache) SetRendered(f *frame.Frame) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rendered = f
}

// Rendered returns the last frame handed to the renderer.
func (c *FrameCache) Rendered() *frame.Frame {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rendered
}
