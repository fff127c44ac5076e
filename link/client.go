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

package link

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"sync"

	"github.com/fxamacker/cbor/v2"

	"github.com/TheCacophonyProject/camera-preview/device"
	"github.com/TheCacophonyProject/camera-preview/pipeline"
)

var (
	// ErrClosed is the cause reported by queues after Client.Close.
	ErrClosed = errors.New("link closed")
	// ErrConnectionLost wraps the read error when a device goes away.
	ErrConnectionLost = errors.New("connection to device lost")
)

// RejectedError is returned by Dial when the device won't run the
// pipeline.
type RejectedError struct {
	Reason string
}

func (e *RejectedError) Error() string {
	return "device rejected pipeline: " + e.Reason
}

// Client is the host end of a link. It implements device.Device.
type Client struct {
	conn   net.Conn
	header *HeaderInfo
	queues *device.QueueSet
	done   chan struct{}

	closeOnce sync.Once
	mu        sync.Mutex
	closing   bool
}

var _ device.Device = (*Client)(nil)

// Dial connects to the device daemon listening on the unix socket at
// path and asks it to run p.
func Dial(ctx context.Context, path string, p *pipeline.Pipeline, queueSize int) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", path)
	if err != nil {
		return nil, err
	}
	c, err := NewClient(conn, p, queueSize)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return c, nil
}

// NewClient runs the host side of the handshake over conn. On success
// the client owns conn.
func NewClient(conn net.Conn, p *pipeline.Pipeline, queueSize int) (*Client, error) {
	if queueSize <= 0 {
		queueSize = device.DefaultQueueSize
	}
	reader := bufio.NewReader(conn)
	header, err := ReadHeaderInfo(reader)
	if err != nil {
		return nil, fmt.Errorf("reading device header: %v", err)
	}
	log.Printf("connected to %s %s (%s, compression: %s)",
		header.Brand(), header.Model(), header.Hardware(), header.Compression())
	if header.Hardware() != p.Hardware().Name {
		return nil, fmt.Errorf("pipeline is for %s but the device is %s", p.Hardware(), header.Hardware())
	}

	if err := newEncoder(conn).Encode(&request{Schema: p.Schema()}); err != nil {
		return nil, err
	}
	dec := newDecoder(reader)
	var m message
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("waiting for device: %v", err)
	}
	switch m.Kind {
	case msgReady:
	case msgError:
		return nil, &RejectedError{Reason: m.Error}
	default:
		return nil, fmt.Errorf("unexpected %q message from device", m.Kind)
	}

	c := &Client{
		conn:   conn,
		header: header,
		queues: device.NewQueueSet(p, queueSize),
		done:   make(chan struct{}),
	}
	go c.receive(dec)
	return c, nil
}

// Header returns what the device said about itself.
func (c *Client) Header() *HeaderInfo {
	return c.header
}

func (c *Client) receive(dec *cbor.Decoder) {
	defer close(c.done)
	for {
		var m message
		if err := dec.Decode(&m); err != nil {
			c.queues.CloseAll(c.lost(err))
			return
		}
		switch m.Kind {
		case msgPacket:
			p, err := m.unpack()
			if err == nil {
				err = c.queues.Deliver(p)
			}
			if err != nil {
				log.Printf("dropping packet for %q: %v", m.Stream, err)
			}
		case msgError:
			if m.Stream == "" {
				c.queues.CloseAll(errors.New(m.Error))
				return
			}
			c.queues.Close(m.Stream, errors.New(m.Error))
		default:
			log.Printf("ignoring %q message from device", m.Kind)
		}
	}
}

func (c *Client) lost(err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closing {
		return ErrClosed
	}
	return fmt.Errorf("%w: %v", ErrConnectionLost, err)
}

func (c *Client) OutputQueue(name string) (device.Queue, error) {
	return c.queues.Get(name)
}

// Stats returns per-stream queue totals.
func (c *Client) Stats() map[string]device.QueueStats {
	return c.queues.Stats()
}

// Close hangs up on the device and closes every queue.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closing = true
		c.mu.Unlock()
		err = c.conn.Close()
		<-c.done
		c.queues.CloseAll(ErrClosed)
	})
	return err
}
