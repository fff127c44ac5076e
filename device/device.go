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

// Package device defines what host code sees of a running device: named
// output queues that can be polled without blocking, and the packets
// they deliver.
package device

import (
	"errors"
	"fmt"
)

// Device is a session with a device running a pipeline. Close releases
// the session; it is safe to call more than once.
type Device interface {
	// OutputQueue returns the queue for the sink with the given stream
	// name. Asking for a stream the pipeline doesn't declare returns an
	// error wrapping ErrUnknownStream.
	OutputQueue(name string) (Queue, error)
	Close() error
}

// Queue delivers the packets produced for one stream.
type Queue interface {
	Name() string
	// TryGet never blocks. It returns (nil, nil) when nothing new has
	// arrived and a *RetrievalError when the stream has failed.
	TryGet() (*ImgFrame, error)
}

var (
	ErrUnknownStream = errors.New("unknown stream")
	ErrQueueClosed   = errors.New("queue closed")
)

// RetrievalError is returned by TryGet once a stream can't produce any
// more packets.
type RetrievalError struct {
	Stream string
	Err    error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("stream %q: %v", e.Stream, e.Err)
}

func (e *RetrievalError) Unwrap() error {
	return e.Err
}
