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
	"errors"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
	"github.com/pierrec/lz4/v4"

	"github.com/TheCacophonyProject/camera-preview/device"
	"github.com/TheCacophonyProject/camera-preview/pipeline"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encOptions := cbor.CoreDetEncOptions()
	encOptions.Time = cbor.TimeRFC3339Nano
	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("link: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("link: CBOR decoder initialization failed: " + err.Error())
	}
}

func newEncoder(w io.Writer) *cbor.Encoder {
	return encMode.NewEncoder(w)
}

func newDecoder(r io.Reader) *cbor.Decoder {
	return decMode.NewDecoder(r)
}

// request is sent by the host once it has read the device header.
type request struct {
	Schema pipeline.Schema `cbor:"schema"`
}

const (
	msgReady  = "ready"
	msgPacket = "packet"
	msgError  = "error"
)

// message is everything the device sends after the header. An error
// without a stream ends the session; with a stream it ends that stream.
type message struct {
	Kind       string           `cbor:"kind"`
	Stream     string           `cbor:"stream,omitempty"`
	Error      string           `cbor:"error,omitempty"`
	Packet     *device.ImgFrame `cbor:"packet,omitempty"`
	Compressed bool             `cbor:"lz4,omitempty"`
	RawSize    int              `cbor:"raw-size,omitempty"`
}

var errIncompressible = errors.New("data is incompressible")

func compressLZ4(data []byte) ([]byte, error) {
	bound := lz4.CompressBlockBound(len(data))
	destination := make([]byte, bound)

	written, err := lz4.CompressBlock(data, destination, nil)
	if err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	// CompressBlock returns 0 when the data is incompressible.
	if written == 0 || written >= len(data) {
		return nil, errIncompressible
	}
	return destination[:written], nil
}

func decompressLZ4(compressed []byte, uncompressedSize int) ([]byte, error) {
	destination := make([]byte, uncompressedSize)
	read, err := lz4.UncompressBlock(compressed, destination)
	if err != nil {
		return nil, fmt.Errorf("lz4 decompress: %w", err)
	}
	if read != uncompressedSize {
		return nil, fmt.Errorf("lz4 decompress: got %d bytes, expected %d", read, uncompressedSize)
	}
	return destination, nil
}

// packetMessage wraps p for sending, compressing its pixel data when
// asked to and when that helps.
func packetMessage(p *device.ImgFrame, compression string) *message {
	m := &message{Kind: msgPacket, Stream: p.Stream, Packet: p}
	if compression != CompressionLZ4 {
		return m
	}
	data, err := compressLZ4(p.Data)
	if err != nil {
		return m
	}
	out := *p
	out.Data = data
	m.Packet = &out
	m.Compressed = true
	m.RawSize = len(p.Data)
	return m
}

// unpack returns the packet carried by m with its pixel data restored.
func (m *message) unpack() (*device.ImgFrame, error) {
	if m.Packet == nil {
		return nil, errors.New("packet message without a packet")
	}
	if !m.Compressed {
		return m.Packet, nil
	}
	data, err := decompressLZ4(m.Packet.Data, m.RawSize)
	if err != nil {
		return nil, err
	}
	m.Packet.Data = data
	return m.Packet, nil
}
