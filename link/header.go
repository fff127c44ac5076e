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
	"bytes"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v1"

	"github.com/TheCacophonyProject/camera-preview/pipeline"
)

// Header keys sent by a device when a host connects.
const (
	Brand       = "brand"
	Model       = "model"
	Hardware    = "hardware"
	Sockets     = "sockets"
	Compression = "compression"
)

// Payload compression schemes.
const (
	CompressionNone = "none"
	CompressionLZ4  = "lz4"
)

// HeaderInfo describes the device at the other end of a connection.
type HeaderInfo struct {
	brand       string
	model       string
	hardware    string
	sockets     []pipeline.BoardSocket
	compression string
}

// NewHeaderInfo describes a device of the given hardware class.
func NewHeaderInfo(brand, model string, hw pipeline.HardwareClass, compression string) *HeaderInfo {
	return &HeaderInfo{
		brand:       brand,
		model:       model,
		hardware:    hw.Name,
		sockets:     append([]pipeline.BoardSocket(nil), hw.Sockets...),
		compression: compression,
	}
}

// Brand returns the device brand.
func (h *HeaderInfo) Brand() string {
	return h.brand
}

// Model returns the device model.
func (h *HeaderInfo) Model() string {
	return h.model
}

// Hardware returns the name of the device's hardware class.
func (h *HeaderInfo) Hardware() string {
	return h.hardware
}

// Sockets returns the board sockets the device has cameras on.
func (h *HeaderInfo) Sockets() []pipeline.BoardSocket {
	return append([]pipeline.BoardSocket(nil), h.sockets...)
}

// Compression returns how packet payloads are compressed.
func (h *HeaderInfo) Compression() string {
	if h.compression == "" {
		return CompressionNone
	}
	return h.compression
}

// WriteHeaderInfo sends the header as "key: value" lines followed by a
// blank line.
func WriteHeaderInfo(w io.Writer, h *HeaderInfo) error {
	sockets := make([]string, len(h.sockets))
	for i, s := range h.sockets {
		sockets[i] = string(s)
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s: %q\n", Brand, h.brand)
	fmt.Fprintf(&buf, "%s: %q\n", Model, h.model)
	fmt.Fprintf(&buf, "%s: %q\n", Hardware, h.hardware)
	fmt.Fprintf(&buf, "%s: %q\n", Sockets, strings.Join(sockets, ","))
	fmt.Fprintf(&buf, "%s: %q\n", Compression, h.Compression())
	buf.WriteString("\n")
	_, err := w.Write(buf.Bytes())
	return err
}

func ReadHeaderInfo(reader *bufio.Reader) (*HeaderInfo, error) {
	var buf bytes.Buffer
	for {
		line, err := reader.ReadString(byte('\n'))
		if err != nil {
			return nil, err
		}
		if strings.Trim(line, " ") == "\n" {
			break
		}
		buf.WriteString(line)
	}
	h := make(map[string]interface{})
	err := yaml.Unmarshal(buf.Bytes(), &h)
	if err != nil {
		return nil, err
	}

	var sockets []pipeline.BoardSocket
	for _, s := range strings.Split(toStr(h[Sockets]), ",") {
		if s != "" {
			sockets = append(sockets, pipeline.BoardSocket(s))
		}
	}
	info := &HeaderInfo{
		brand:       toStr(h[Brand]),
		model:       toStr(h[Model]),
		hardware:    toStr(h[Hardware]),
		sockets:     sockets,
		compression: toStr(h[Compression]),
	}
	switch info.Compression() {
	case CompressionNone, CompressionLZ4:
	default:
		return nil, fmt.Errorf("unsupported compression %q", info.compression)
	}
	return info, nil
}

func toStr(v interface{}) string {
	out, ok := v.(string)
	if !ok {
		return ""
	}
	return out
}
