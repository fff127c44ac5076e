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

package service

import (
	"errors"
	"testing"

	"github.com/TheCacophonyProject/event-reporter/eventclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSnapshotter struct {
	taken bool
	err   error
}

func (f *fakeSnapshotter) Take() (bool, error) { return f.taken, f.err }
func (f *fakeSnapshotter) Path() string        { return "/var/spool/preview/still.png" }

func newTestService(snap *fakeSnapshotter) (*service, *[]eventclient.Event) {
	var events []eventclient.Event
	s := newService(snap)
	s.addEvent = func(e eventclient.Event) error {
		events = append(events, e)
		return nil
	}
	return s, &events
}

func TestSnapshotReportsEvent(t *testing.T) {
	s, events := newTestService(&fakeSnapshotter{taken: true})

	path, derr := s.TakeSnapshot()
	require.Nil(t, derr)
	assert.Equal(t, "/var/spool/preview/still.png", path)
	require.Len(t, *events, 1)
	assert.Equal(t, snapshotEventType, (*events)[0].Type)
	assert.Equal(t, path, (*events)[0].Details["path"])
}

func TestSkippedSnapshotNotReported(t *testing.T) {
	s, events := newTestService(&fakeSnapshotter{})

	_, derr := s.TakeSnapshot()
	require.Nil(t, derr)
	assert.Empty(t, *events)
}

func TestSnapshotError(t *testing.T) {
	s, events := newTestService(&fakeSnapshotter{err: errors.New("no frames yet")})

	_, derr := s.TakeSnapshot()
	require.NotNil(t, derr)
	assert.Equal(t, DbusName+".TakeSnapshot", derr.Name)
	assert.Equal(t, []interface{}{"no frames yet"}, derr.Body)
	assert.Empty(t, *events)
}
