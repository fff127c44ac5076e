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

// Package sim is an in-process device runtime. It runs a pipeline's
// cameras on the executor and serves their packets through bounded
// output queues, so the host loop can be exercised without hardware.
package sim

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/juju/ratelimit"

	"github.com/TheCacophonyProject/camera-preview/device"
	"github.com/TheCacophonyProject/camera-preview/executor"
	"github.com/TheCacophonyProject/camera-preview/pipeline"
	"github.com/TheCacophonyProject/camera-preview/source"
)

// ErrDeviceClosed is the cause reported by queues after Close.
var ErrDeviceClosed = errors.New("device closed")

type Options struct {
	// Sources chooses what backs each camera. Nil means test patterns
	// everywhere.
	Sources *source.Factory
	// QueueSize defaults to device.DefaultQueueSize.
	QueueSize int
	// Clock defaults to the system clock.
	Clock ratelimit.Clock
}

// Device is a running simulated device.
type Device struct {
	pipeline *pipeline.Pipeline
	queues   *device.QueueSet
	exec     *executor.Executor
	cancel   context.CancelFunc
	done     chan struct{}

	closeOnce sync.Once
}

var _ device.Device = (*Device)(nil)

// Open starts running p. Sources are opened before Open returns, so a
// missing recording or camera is reported here.
func Open(ctx context.Context, p *pipeline.Pipeline, opts Options) (*Device, error) {
	factory := opts.Sources
	if factory == nil {
		factory = new(source.Factory)
	}
	if err := factory.Validate(); err != nil {
		return nil, err
	}
	size := opts.QueueSize
	if size <= 0 {
		size = device.DefaultQueueSize
	}

	d := &Device{
		pipeline: p,
		queues:   device.NewQueueSet(p, size),
		done:     make(chan struct{}),
	}
	d.exec = executor.New(p, factory.Open, d.queues.Deliver)
	if opts.Clock != nil {
		d.exec.SetClock(opts.Clock)
	}
	d.exec.OnError(func(stream string, err error) {
		log.Printf("stream %q failed: %v", stream, err)
		d.queues.Close(stream, err)
	})

	ctx, d.cancel = context.WithCancel(ctx)
	if err := d.exec.Start(ctx); err != nil {
		d.cancel()
		return nil, err
	}
	go d.run()
	return d, nil
}

func (d *Device) run() {
	defer close(d.done)
	err := d.exec.Wait()
	if err == nil {
		err = ErrDeviceClosed
	}
	d.queues.CloseAll(err)
}

func (d *Device) OutputQueue(name string) (device.Queue, error) {
	return d.queues.Get(name)
}

// Stats returns per-stream queue totals.
func (d *Device) Stats() map[string]device.QueueStats {
	return d.queues.Stats()
}

// Done is closed once the device has stopped producing.
func (d *Device) Done() <-chan struct{} {
	return d.done
}

// Close stops the cameras and closes every queue. Packets already
// queued can still be read.
func (d *Device) Close() error {
	d.closeOnce.Do(func() {
		d.cancel()
		<-d.done
		log.Printf("device closed (%s)", d.pipeline.Hardware())
	})
	return nil
}
