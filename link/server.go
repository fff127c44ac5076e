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

// Package link carries pipelines and frames between a host and a device
// daemon over a stream socket. The device introduces itself with a text
// header, the host replies with the pipeline it wants run, and the
// device then streams CBOR messages holding packets for each sink.
package link

import (
	"context"
	"fmt"
	"io"
	"log"
	"net"
	"sync"

	"github.com/juju/ratelimit"

	"github.com/TheCacophonyProject/camera-preview/device"
	"github.com/TheCacophonyProject/camera-preview/executor"
	"github.com/TheCacophonyProject/camera-preview/pipeline"
	"github.com/TheCacophonyProject/camera-preview/source"
)

// Server is the device end of a link.
type Server struct {
	Header *HeaderInfo
	// Open creates the source for each camera. Nil means test patterns.
	Open executor.Opener
	// OnPacket, if set, is called after every packet sent.
	OnPacket func()
	Clock    ratelimit.Clock
}

// Serve accepts host connections one at a time until ctx is cancelled
// or the listener fails. A device's cameras can only run one pipeline,
// so a second host waits until the first disconnects.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	for {
		log.Print("waiting for host connection")
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		err = s.handleConn(ctx, conn)
		log.Printf("host connection ended with: %v", err)
	}
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) error {
	defer conn.Close()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	if err := WriteHeaderInfo(conn, s.Header); err != nil {
		return err
	}

	dec := newDecoder(conn)
	var req request
	if err := dec.Decode(&req); err != nil {
		return fmt.Errorf("reading pipeline: %v", err)
	}

	var mu sync.Mutex
	enc := newEncoder(conn)
	send := func(m *message) error {
		mu.Lock()
		defer mu.Unlock()
		return enc.Encode(m)
	}

	p, err := s.accept(req.Schema)
	if err != nil {
		send(&message{Kind: msgError, Error: err.Error()})
		return err
	}
	log.Printf("running pipeline: %s", p)

	open := s.Open
	if open == nil {
		open = new(source.Factory).Open
	}
	exec := executor.New(p, open, func(pkt *device.ImgFrame) error {
		if err := send(packetMessage(pkt, s.Header.Compression())); err != nil {
			return err
		}
		if s.OnPacket != nil {
			s.OnPacket()
		}
		return nil
	})
	if s.Clock != nil {
		exec.SetClock(s.Clock)
	}
	exec.OnError(func(stream string, err error) {
		log.Printf("stream %q failed: %v", stream, err)
		send(&message{Kind: msgError, Stream: stream, Error: err.Error()})
	})

	// Hold the encoder until the host has been told the pipeline is
	// running so that no packet can overtake the ready message.
	mu.Lock()
	if err := exec.Start(ctx); err != nil {
		enc.Encode(&message{Kind: msgError, Error: err.Error()})
		mu.Unlock()
		return err
	}
	err = enc.Encode(&message{Kind: msgReady})
	mu.Unlock()
	if err != nil {
		cancel()
		exec.Wait()
		return err
	}

	// The host sends nothing more; a read only returns once it hangs up.
	go func() {
		io.Copy(io.Discard, conn)
		cancel()
	}()
	return exec.Wait()
}

// accept checks that a requested pipeline can run on this device.
func (s *Server) accept(schema pipeline.Schema) (*pipeline.Pipeline, error) {
	p, err := pipeline.FromSchema(schema)
	if err != nil {
		return nil, err
	}
	if p.Hardware().Name != s.Header.Hardware() {
		return nil, fmt.Errorf("pipeline is for %s but this device is %s", p.Hardware(), s.Header.Hardware())
	}
	return p, nil
}
