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

package device

import (
	"fmt"
	"sync"

	"github.com/TheCacophonyProject/camera-preview/pipeline"
)

// DefaultQueueSize is how many packets a queue holds before the oldest
// ones are dropped.
const DefaultQueueSize = 4

// QueueStats are a queue's running totals.
type QueueStats struct {
	Received uint64
	Dropped  uint64
	Pending  int
}

// PacketQueue is a bounded queue of packets for one stream. Producers
// never block: when the queue is full the oldest packet is dropped to
// make room, so a slow consumer always sees the freshest data.
type PacketQueue struct {
	name    string
	maxSize int

	mu       sync.Mutex
	packets  []*ImgFrame
	closed   bool
	cause    error
	received uint64
	dropped  uint64
}

// NewPacketQueue returns an empty queue holding at most maxSize packets.
func NewPacketQueue(name string, maxSize int) *PacketQueue {
	if maxSize < 1 {
		maxSize = 1
	}
	return &PacketQueue{
		name:    name,
		maxSize: maxSize,
		packets: make([]*ImgFrame, 0, maxSize),
	}
}

func (q *PacketQueue) Name() string {
	return q.name
}

// Push adds a packet. It returns false if the queue has been closed.
func (q *PacketQueue) Push(p *ImgFrame) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.received++
	if len(q.packets) == q.maxSize {
		copy(q.packets, q.packets[1:])
		q.packets = q.packets[:len(q.packets)-1]
		q.dropped++
	}
	q.packets = append(q.packets, p)
	return true
}

// TryGet returns the oldest pending packet, or (nil, nil) if there is
// none. Once the queue is closed and drained it returns a
// *RetrievalError carrying the reason it was closed.
func (q *PacketQueue) TryGet() (*ImgFrame, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.packets) > 0 {
		p := q.packets[0]
		copy(q.packets, q.packets[1:])
		q.packets[len(q.packets)-1] = nil
		q.packets = q.packets[:len(q.packets)-1]
		return p, nil
	}
	if q.closed {
		return nil, &RetrievalError{Stream: q.name, Err: q.cause}
	}
	return nil, nil
}

// Close stops the queue accepting packets. Packets already queued can
// still be retrieved. A nil cause is reported as ErrQueueClosed.
func (q *PacketQueue) Close(cause error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	if cause == nil {
		cause = ErrQueueClosed
	}
	q.closed = true
	q.cause = cause
}

func (q *PacketQueue) Stats() QueueStats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return QueueStats{
		Received: q.received,
		Dropped:  q.dropped,
		Pending:  len(q.packets),
	}
}

// QueueSet holds one PacketQueue per stream of a pipeline. Runtimes
// use it to route packets and to answer OutputQueue.
type QueueSet struct {
	queues map[string]*PacketQueue
	order  []string
}

// NewQueueSet creates a queue for every sink stream in p.
func NewQueueSet(p *pipeline.Pipeline, maxSize int) *QueueSet {
	qs := &QueueSet{queues: make(map[string]*PacketQueue)}
	for _, stream := range p.Streams() {
		qs.queues[stream] = NewPacketQueue(stream, maxSize)
		qs.order = append(qs.order, stream)
	}
	return qs
}

// Get returns the queue for a stream.
func (qs *QueueSet) Get(stream string) (*PacketQueue, error) {
	q, ok := qs.queues[stream]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStream, stream)
	}
	return q, nil
}

// Deliver routes a packet to the queue for its stream. Packets for
// unknown streams are reported as an error.
func (qs *QueueSet) Deliver(p *ImgFrame) error {
	q, err := qs.Get(p.Stream)
	if err != nil {
		return err
	}
	q.Push(p)
	return nil
}

// Close closes one stream's queue.
func (qs *QueueSet) Close(stream string, cause error) {
	if q, ok := qs.queues[stream]; ok {
		q.Close(cause)
	}
}

// CloseAll closes every queue with the same cause.
func (qs *QueueSet) CloseAll(cause error) {
	for _, q := range qs.queues {
		q.Close(cause)
	}
}

// Stats returns the stats of every queue keyed by stream name.
func (qs *QueueSet) Stats() map[string]QueueStats {
	out := make(map[string]QueueStats, len(qs.queues))
	for _, name := range qs.order {
		out[name] = qs.queues[name].Stats()
	}
	return out
}
