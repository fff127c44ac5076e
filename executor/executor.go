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

// Package executor runs a pipeline's camera nodes the way a device
// would: each linked source is read at its configured frame rate and
// the resulting packets are handed to a sink under the stream name of
// the XLinkOut they feed.
package executor

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/juju/ratelimit"

	"github.com/TheCacophonyProject/camera-preview/device"
	"github.com/TheCacophonyProject/camera-preview/pipeline"
	"github.com/TheCacophonyProject/camera-preview/source"
)

// Opener creates the source backing a camera node.
type Opener func(node pipeline.NodeSpec) (source.Source, error)

// Sink receives every packet produced. A sink error stops the whole run.
type Sink func(p *device.ImgFrame) error

// ErrorFunc is told when a stream's source fails. The stream stops but
// the others keep running.
type ErrorFunc func(stream string, err error)

// Executor runs a pipeline once: call Run, or Start followed by Wait.
type Executor struct {
	pipeline *pipeline.Pipeline
	open     Opener
	sink     Sink
	onError  ErrorFunc
	clock    ratelimit.Clock

	streams  []stream
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	errOnce  sync.Once
	firstErr error
}

func New(p *pipeline.Pipeline, open Opener, sink Sink) *Executor {
	return &Executor{
		pipeline: p,
		open:     open,
		sink:     sink,
		clock:    new(realClock),
	}
}

// SetClock replaces the clock used for pacing and timestamps.
func (e *Executor) SetClock(clock ratelimit.Clock) {
	e.clock = clock
}

// OnError registers a callback for source failures. Without one a
// failing source stops the run.
func (e *Executor) OnError(f ErrorFunc) {
	e.onError = f
}

type stream struct {
	name string
	node pipeline.NodeSpec
	src  source.Source
}

// Run opens every linked source and then produces frames until ctx is
// cancelled, the sink fails or every stream has stopped.
func (e *Executor) Run(ctx context.Context) error {
	if err := e.Start(ctx); err != nil {
		return err
	}
	return e.Wait()
}

// Start opens every linked source and starts reading them. If any source
// fails to open the ones already opened are closed and nothing runs.
func (e *Executor) Start(ctx context.Context) error {
	streams, err := e.openAll()
	if err != nil {
		return err
	}
	e.streams = streams

	ctx, e.cancel = context.WithCancel(ctx)
	for _, s := range streams {
		e.wg.Add(1)
		go func(s stream) {
			defer e.wg.Done()
			err := e.runStream(ctx, s)
			if err == nil {
				return
			}
			if se, ok := err.(*sinkError); ok {
				e.fail(se.err)
				return
			}
			if e.onError == nil {
				e.fail(err)
				return
			}
			e.onError(s.name, err)
		}(s)
	}
	return nil
}

func (e *Executor) fail(err error) {
	e.errOnce.Do(func() {
		e.firstErr = err
		e.cancel()
	})
}

// Wait blocks until every stream has stopped and closes the sources. It
// returns the first sink error, or source error when no ErrorFunc is
// registered.
func (e *Executor) Wait() error {
	e.wg.Wait()
	if e.cancel != nil {
		e.cancel()
	}
	for _, s := range e.streams {
		if err := s.src.Close(); err != nil {
			log.Printf("closing source for %q: %v", s.name, err)
		}
	}
	e.streams = nil
	return e.firstErr
}

func (e *Executor) openAll() ([]stream, error) {
	var streams []stream
	for _, name := range e.pipeline.Streams() {
		node, ok := e.pipeline.SourceFor(name)
		if !ok {
			continue
		}
		src, err := e.open(node)
		if err != nil {
			for _, s := range streams {
				s.src.Close()
			}
			return nil, fmt.Errorf("opening source for %q: %v", name, err)
		}
		streams = append(streams, stream{name: name, node: node, src: src})
	}
	return streams, nil
}

type sinkError struct {
	err error
}

func (e *sinkError) Error() string {
	return e.err.Error()
}

func (e *Executor) runStream(ctx context.Context, s stream) error {
	bucket := ratelimit.NewBucketWithRateAndClock(s.node.FPS, 1, e.clock)
	var seq int64
	for {
		if wait := bucket.Take(1); wait > 0 {
			e.clock.Sleep(wait)
		}
		if ctx.Err() != nil {
			return nil
		}

		p, err := s.src.Read()
		if err != nil {
			return err
		}
		p.Stream = s.name
		p.Sequence = seq
		p.Timestamp = e.clock.Now()
		seq++

		if err := e.sink(p); err != nil {
			return &sinkError{err}
		}
	}
}

// realClock implements ratelimit.Clock in terms of standard time functions.
type realClock struct{}

// Now implements Clock.Now by calling time.Now.
func (realClock) Now() time.Time {
	return time.Now()
}

// Sleep implements Clock.Sleep by calling time.Sleep.
func (realClock) Sleep(d time.Duration) {
	time.Sleep(d)
}
