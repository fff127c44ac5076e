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

package pipeline

import "fmt"

// NodeKind is the type of a pipeline node.
type NodeKind string

const (
	KindColorCamera NodeKind = "color-camera"
	KindMonoCamera  NodeKind = "mono-camera"
	KindXLinkOut    NodeKind = "xlink-out"
)

// Port names.
const (
	PortPreview = "preview"
	PortOut     = "out"
	PortIn      = "in"
)

var kindNames = map[NodeKind]string{
	KindColorCamera: "ColorCamera",
	KindMonoCamera:  "MonoCamera",
	KindXLinkOut:    "XLinkOut",
}

// NodeSpec is the value description of one node. Fields which don't
// apply to a node's kind are left at their zero value.
type NodeSpec struct {
	ID            int              `cbor:"id"`
	Kind          NodeKind         `cbor:"kind"`
	Socket        BoardSocket      `cbor:"socket,omitempty"`
	Resolution    SensorResolution `cbor:"resolution,omitempty"`
	PreviewWidth  int              `cbor:"preview-width,omitempty"`
	PreviewHeight int              `cbor:"preview-height,omitempty"`
	Interleaved   bool             `cbor:"interleaved,omitempty"`
	FPS           float64          `cbor:"fps,omitempty"`
	StreamName    string           `cbor:"stream,omitempty"`
}

// Name returns a human readable name for the node, such as
// "MonoCamera#2".
func (n NodeSpec) Name() string {
	name, ok := kindNames[n.Kind]
	if !ok {
		name = string(n.Kind)
	}
	return fmt.Sprintf("%s#%d", name, n.ID)
}

// IsSource reports whether the node produces frames.
func (n NodeSpec) IsSource() bool {
	return n.Kind == KindColorCamera || n.Kind == KindMonoCamera
}

// IsSink reports whether the node streams data to the host.
func (n NodeSpec) IsSink() bool {
	return n.Kind == KindXLinkOut
}

// OutputPort returns the name of the node's designated output, or ""
// for nodes without one.
func (n NodeSpec) OutputPort() string {
	switch n.Kind {
	case KindColorCamera:
		return PortPreview
	case KindMonoCamera:
		return PortOut
	}
	return ""
}

// FrameSize returns the size of frames the source emits on its
// designated output.
func (n NodeSpec) FrameSize() (width, height int) {
	switch n.Kind {
	case KindColorCamera:
		return n.PreviewWidth, n.PreviewHeight
	case KindMonoCamera:
		w, h, _ := n.Resolution.Size()
		return w, h
	}
	return 0, 0
}

// LinkSpec connects a source output port to a sink input port.
type LinkSpec struct {
	FromNode int    `cbor:"from-node"`
	FromPort string `cbor:"from-port"`
	ToNode   int    `cbor:"to-node"`
	ToPort   string `cbor:"to-port"`
}

// Schema is the serialisable form of a pipeline. It is what gets handed
// to a device runtime.
type Schema struct {
	Hardware string     `cbor:"hardware"`
	Nodes    []NodeSpec `cbor:"nodes"`
	Links    []LinkSpec `cbor:"links"`
}

func (s Schema) copy() Schema {
	return Schema{
		Hardware: s.Hardware,
		Nodes:    append([]NodeSpec(nil), s.Nodes...),
		Links:    append([]LinkSpec(nil), s.Links...),
	}
}

func (s Schema) validate() (HardwareClass, error) {
	hw, err := LookupHardware(s.Hardware)
	if err != nil {
		return hw, err
	}

	nodes := make(map[int]NodeSpec, len(s.Nodes))
	sockets := make(map[BoardSocket]string)
	streams := make(map[string]string)
	for _, n := range s.Nodes {
		if _, dup := nodes[n.ID]; dup {
			return hw, &ConfigurationError{Node: n.Name(), Err: ErrDuplicateNode}
		}
		nodes[n.ID] = n

		if err := validateNode(n, hw); err != nil {
			return hw, err
		}
		if n.IsSource() {
			if other, used := sockets[n.Socket]; used {
				return hw, &ConfigurationError{
					Node:   n.Name(),
					Err:    ErrSocketInUse,
					Detail: fmt.Sprintf("%s is used by %s", n.Socket, other),
				}
			}
			sockets[n.Socket] = n.Name()
		}
		if n.IsSink() {
			if other, used := streams[n.StreamName]; used {
				return hw, &ConfigurationError{
					Node:   n.Name(),
					Err:    ErrDuplicateStream,
					Detail: fmt.Sprintf("%q is used by %s", n.StreamName, other),
				}
			}
			streams[n.StreamName] = n.Name()
		}
	}

	outLinks := make(map[int]int)
	inLinks := make(map[int]int)
	for _, l := range s.Links {
		from, ok := nodes[l.FromNode]
		if !ok {
			return hw, &ConfigurationError{Err: ErrUnknownNode, Detail: fmt.Sprintf("link from node %d", l.FromNode)}
		}
		to, ok := nodes[l.ToNode]
		if !ok {
			return hw, &ConfigurationError{Err: ErrUnknownNode, Detail: fmt.Sprintf("link to node %d", l.ToNode)}
		}
		if from.OutputPort() == "" || l.FromPort != from.OutputPort() {
			return hw, &ConfigurationError{Node: from.Name(), Err: ErrUnknownPort, Detail: l.FromPort}
		}
		if !to.IsSink() || l.ToPort != PortIn {
			return hw, &ConfigurationError{Node: to.Name(), Err: ErrUnknownPort, Detail: l.ToPort}
		}
		if outLinks[from.ID]++; outLinks[from.ID] > 1 {
			return hw, &ConfigurationError{Node: from.Name(), Err: ErrOutputAlreadyLinked, Detail: l.FromPort}
		}
		if inLinks[to.ID]++; inLinks[to.ID] > 1 {
			return hw, &ConfigurationError{Node: to.Name(), Err: ErrInputAlreadyLinked, Detail: l.ToPort}
		}
	}

	for _, n := range s.Nodes {
		if n.IsSource() && outLinks[n.ID] == 0 {
			return hw, &ConfigurationError{Node: n.Name(), Err: ErrDanglingOutput, Detail: n.OutputPort()}
		}
		if n.IsSink() && inLinks[n.ID] == 0 {
			return hw, &ConfigurationError{Node: n.Name(), Err: ErrUnlinkedInput, Detail: PortIn}
		}
	}
	return hw, nil
}

func validateNode(n NodeSpec, hw HardwareClass) error {
	switch n.Kind {
	case KindColorCamera:
		if err := validateCamera(n, hw, n.Resolution.supportsColor()); err != nil {
			return err
		}
		maxW, maxH, _ := n.Resolution.Size()
		if n.PreviewWidth <= 0 || n.PreviewHeight <= 0 || n.PreviewWidth > maxW || n.PreviewHeight > maxH {
			return &ConfigurationError{
				Node:   n.Name(),
				Err:    ErrInvalidSize,
				Detail: fmt.Sprintf("%dx%d", n.PreviewWidth, n.PreviewHeight),
			}
		}
	case KindMonoCamera:
		return validateCamera(n, hw, n.Resolution.supportsMono())
	case KindXLinkOut:
		if n.StreamName == "" {
			return &ConfigurationError{Node: n.Name(), Err: ErrEmptyStreamName}
		}
	default:
		return &ConfigurationError{Node: n.Name(), Err: ErrUnknownNode, Detail: string(n.Kind)}
	}
	return nil
}

func validateCamera(n NodeSpec, hw HardwareClass, resolutionOK bool) error {
	if !hw.HasSocket(n.Socket) {
		return &ConfigurationError{
			Node:   n.Name(),
			Err:    ErrUnknownSocket,
			Detail: fmt.Sprintf("%q on %s", n.Socket, hw.Name),
		}
	}
	if !resolutionOK {
		return &ConfigurationError{Node: n.Name(), Err: ErrUnsupportedResolution, Detail: string(n.Resolution)}
	}
	if n.FPS <= 0 || n.FPS > maxFPS {
		return &ConfigurationError{Node: n.Name(), Err: ErrInvalidFPS, Detail: fmt.Sprintf("%g", n.FPS)}
	}
	return nil
}
