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

import (
	"fmt"
	"strings"
)

// Pipeline is a validated, immutable pipeline description. Every
// source's designated output feeds exactly one sink and every sink is
// fed by exactly one source.
type Pipeline struct {
	hw      HardwareClass
	schema  Schema
	streams []string
	sources map[string]NodeSpec
}

// FromSchema validates a schema, such as one received from a remote
// host, and returns the Pipeline it describes.
func FromSchema(s Schema) (*Pipeline, error) {
	s = s.copy()
	hw, err := s.validate()
	if err != nil {
		return nil, err
	}

	byID := make(map[int]NodeSpec, len(s.Nodes))
	for _, n := range s.Nodes {
		byID[n.ID] = n
	}
	p := &Pipeline{
		hw:      hw,
		schema:  s,
		sources: make(map[string]NodeSpec),
	}
	for _, n := range s.Nodes {
		if n.IsSink() {
			p.streams = append(p.streams, n.StreamName)
		}
	}
	for _, l := range s.Links {
		p.sources[byID[l.ToNode].StreamName] = byID[l.FromNode]
	}
	return p, nil
}

// Hardware returns the hardware class the pipeline was built for.
func (p *Pipeline) Hardware() HardwareClass { return p.hw }

// Schema returns a copy of the pipeline's serialisable form.
func (p *Pipeline) Schema() Schema { return p.schema.copy() }

// Nodes returns a copy of the pipeline's nodes in declaration order.
func (p *Pipeline) Nodes() []NodeSpec { return append([]NodeSpec(nil), p.schema.Nodes...) }

// Links returns a copy of the pipeline's links.
func (p *Pipeline) Links() []LinkSpec { return append([]LinkSpec(nil), p.schema.Links...) }

// Streams returns the names of the pipeline's sink streams in
// declaration order.
func (p *Pipeline) Streams() []string { return append([]string(nil), p.streams...) }

// HasStream reports whether a sink with the given stream name exists.
func (p *Pipeline) HasStream(name string) bool {
	_, ok := p.sources[name]
	return ok
}

// SourceFor returns the source node feeding the named stream.
func (p *Pipeline) SourceFor(stream string) (NodeSpec, bool) {
	n, ok := p.sources[stream]
	return n, ok
}

func (p *Pipeline) filter(keep func(NodeSpec) bool) []NodeSpec {
	var out []NodeSpec
	for _, n := range p.schema.Nodes {
		if keep(n) {
			out = append(out, n)
		}
	}
	return out
}

// Sources returns the pipeline's source nodes.
func (p *Pipeline) Sources() []NodeSpec { return p.filter(NodeSpec.IsSource) }

// Sinks returns the pipeline's sink nodes.
func (p *Pipeline) Sinks() []NodeSpec { return p.filter(NodeSpec.IsSink) }

func (p *Pipeline) String() string {
	var parts []string
	for _, stream := range p.streams {
		src := p.sources[stream]
		w, h := src.FrameSize()
		parts = append(parts, fmt.Sprintf("%s(%s %dx%d) -> %q", src.Name(), src.Socket, w, h, stream))
	}
	return p.hw.Name + ": " + strings.Join(parts, ", ")
}
