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
	"errors"
	"hash/fnv"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	snapshotName          = "still.png"
	allowedSnapshotPeriod = 500 * time.Millisecond
)

// ErrNoFrames is returned when a snapshot is asked for before anything
// has been rendered.
var ErrNoFrames = errors.New("no frames yet")

// Snapshotter saves the last rendered frame as a PNG. Requests that
// come too soon after the previous one, or when the picture hasn't
// changed, are ignored.
type Snapshotter struct {
	cache   *FrameCache
	dir     string
	nowFunc func() time.Time

	mu           sync.Mutex
	previousID   uint64
	previousTime time.Time
}

func NewSnapshotter(cache *FrameCache, dir string) *Snapshotter {
	return &Snapshotter{
		cache:   cache,
		dir:     dir,
		nowFunc: time.Now,
	}
}

// Path is where snapshots are written.
func (s *Snapshotter) Path() string {
	return filepath.Join(s.dir, snapshotName)
}

// Take writes a snapshot. It reports whether a new file was written.
func (s *Snapshotter) Take() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.nowFunc()
	if now.Sub(s.previousTime) < allowedSnapshotPeriod {
		return false, nil
	}

	f := s.cache.Rendered()
	if f == nil {
		return false, ErrNoFrames
	}

	// Check if frame had already been saved
	h := fnv.New64a()
	h.Write(f.Pix)
	id := h.Sum64()
	if id == s.previousID {
		return false, nil
	}

	tmp, err := os.CreateTemp(s.dir, ".still-*.png")
	if err != nil {
		return false, err
	}
	if err := f.EncodePNG(tmp); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return false, err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return false, err
	}
	if err := os.Rename(tmp.Name(), s.Path()); err != nil {
		os.Remove(tmp.Name())
		return false, err
	}

	// the time will be changed only if the attempt is successful
	s.previousID = id
	s.previousTime = now
	return true, nil
}

// Delete removes any snapshot left from an earlier run.
func (s *Snapshotter) Delete() {
	if err := os.Remove(s.Path()); err != nil && !os.IsNotExist(err) {
		log.Printf("error deleting snapshot image: %v", err)
	}
}
