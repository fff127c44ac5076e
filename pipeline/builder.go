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

const (
	defaultFPS           = 30
	maxFPS               = 120
	defaultPreviewWidth  = 300
	defaultPreviewHeight = 300
)

// Builder declares the nodes of a pipeline and the links between them.
// Nothing is checked until Build is called, which either returns the
// finished Pipeline or the first problem found as a *ConfigurationError.
type Builder struct {
	hardware string
	nodes    []NodeSpec
	links    []LinkSpec
	err      error
}

// NewBuilder returns a Builder for a pipeline targeting the given
// hardware class.
func NewBuilder(hw HardwareClass) *Builder {
	return &Builder{hardware: hw.Name}
}

// Output is a node's output port.
type Output struct {
	b    *Builder
	node int
	name string
}

// Link connects the output to a sink's input.
func (o *Output) Link(in *Input) {
	o.b.Link(o, in)
}

// Input is a node's input port.
type Input struct {
	b    *Builder
	node int
	name string
}

func (b *Builder) addNode(n NodeSpec) int {
	n.ID = len(b.nodes)
	b.nodes = append(b.nodes, n)
	return n.ID
}

// CreateColorCamera adds a color camera on the RGB socket. Its preview
// output defaults to 300x300, interleaved.
func (b *Builder) CreateColorCamera() *ColorCamera {
	id := b.addNode(NodeSpec{
		Kind:          KindColorCamera,
		Socket:        SocketRGB,
		Resolution:    Resolution1080P,
		PreviewWidth:  defaultPreviewWidth,
		PreviewHeight: defaultPreviewHeight,
		Interleaved:   true,
		FPS:           defaultFPS,
	})
	return &ColorCamera{
		b:       b,
		id:      id,
		Preview: &Output{b: b, node: id, name: PortPreview},
	}
}

// CreateMonoCamera adds a mono camera, by default on the LEFT socket
// at 720P.
func (b *Builder) CreateMonoCamera() *MonoCamera {
	id := b.addNode(NodeSpec{
		Kind:       KindMonoCamera,
		Socket:     SocketLeft,
		Resolution: Resolution720P,
		FPS:        defaultFPS,
	})
	return &MonoCamera{
		b:   b,
		id:  id,
		Out: &Output{b: b, node: id, name: PortOut},
	}
}

// CreateXLinkOut adds a sink streaming whatever is linked to its input
// to the host.
func (b *Builder) CreateXLinkOut() *XLinkOut {
	id := b.addNode(NodeSpec{Kind: KindXLinkOut})
	return &XLinkOut{
		b:     b,
		id:    id,
		Input: &Input{b: b, node: id, name: PortIn},
	}
}

// Link connects a source output to a sink input. Mistakes are reported
// by Build.
func (b *Builder) Link(out *Output, in *Input) {
	if b.err != nil {
		return
	}
	if out == nil || in == nil {
		b.err = &ConfigurationError{Err: ErrUnknownPort, Detail: "nil port"}
		return
	}
	if out.b != b || in.b != b {
		b.err = &ConfigurationError{Err: ErrForeignNode}
		return
	}
	b.links = append(b.links, LinkSpec{
		FromNode: out.node,
		FromPort: out.name,
		ToNode:   in.node,
		ToPort:   in.name,
	})
}

// Build validates the declared graph and returns an immutable Pipeline.
// Changes made to the builder's nodes afterwards don't affect it.
func (b *Builder) Build() (*Pipeline, error) {
	if b.err != nil {
		return nil, b.err
	}
	return FromSchema(Schema{
		Hardware: b.hardware,
		Nodes:    b.nodes,
		Links:    b.links,
	})
}

// ColorCamera is a color camera source node.
type ColorCamera struct {
	b  *Builder
	id int

	Preview *Output
}

func (c *ColorCamera) spec() *NodeSpec { return &c.b.nodes[c.id] }

// SetPreviewSize sets the size of frames on the preview output.
func (c *ColorCamera) SetPreviewSize(width, height int) {
	c.spec().PreviewWidth = width
	c.spec().PreviewHeight = height
}

// SetInterleaved chooses between interleaved (BGRBGR...) and planar
// (BBB...GGG...RRR...) preview frames.
func (c *ColorCamera) SetInterleaved(interleaved bool) { c.spec().Interleaved = interleaved }

func (c *ColorCamera) SetBoardSocket(socket BoardSocket)        { c.spec().Socket = socket }
func (c *ColorCamera) SetResolution(resolution SensorResolution) { c.spec().Resolution = resolution }
func (c *ColorCamera) SetFPS(fps float64)                        { c.spec().FPS = fps }
func (c *ColorCamera) Name() string                              { return c.spec().Name() }

// MonoCamera is a monochrome camera source node.
type MonoCamera struct {
	b  *Builder
	id int

	Out *Output
}

func (m *MonoCamera) spec() *NodeSpec { return &m.b.nodes[m.id] }

func (m *MonoCamera) SetBoardSocket(socket BoardSocket)        { m.spec().Socket = socket }
func (m *MonoCamera) SetResolution(resolution SensorResolution) { m.spec().Resolution = resolution }
func (m *MonoCamera) SetFPS(fps float64)                        { m.spec().FPS = fps }
func (m *MonoCamera) Name() string                              { return m.spec().Name() }

// XLinkOut is a sink node. Its stream name is the key the host uses
// to find the matching output queue.
type XLinkOut struct {
	b  *Builder
	id int

	Input *Input
}

func (x *XLinkOut) SetStreamName(name string) { x.b.nodes[x.id].StreamName = name }
func (x *XLinkOut) Name() string              { return x.b.nodes[x.id].Name() }
