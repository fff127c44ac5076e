// Copyright 2021 The Cacophony Project. All rights reserved.
// Use of this source code is governed by the Apache License Version 2.0;
// see the LICENSE file for further details.

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheCacophonyProject/camera-preview/pipeline"
	"github.com/TheCacophonyProject/camera-preview/source"
)

func TestAllDefaults(t *testing.T) {
	conf, err := ParseConfig([]byte(""))
	require.NoError(t, err)

	assert.Equal(t, Config{
		Hardware:    "oak-d",
		Brand:       "luxonis",
		Model:       "OAK-D",
		Listen:      "/var/run/camerad.sock",
		Compression: "lz4",
	}, *conf)
}

func TestAllSet(t *testing.T) {
	// All config set at non-default values.
	config := []byte(`
hardware: oak-1
brand: acme
model: thermal-1
listen: "/some/sock"
power-pin: "GPIO23"
compression: none
sources:
  rgb:
    kind: lepton
    spi-speed: 30000000
`)

	conf, err := ParseConfig(config)
	require.NoError(t, err)

	assert.Equal(t, Config{
		Hardware:    "oak-1",
		Brand:       "acme",
		Model:       "thermal-1",
		Listen:      "/some/sock",
		PowerPin:    "GPIO23",
		Compression: "none",
		Sources: map[pipeline.BoardSocket]source.Binding{
			pipeline.SocketRGB: {Kind: source.BindLepton, SPISpeed: 30000000},
		},
	}, *conf)
}

func TestInvalid(t *testing.T) {
	for _, tc := range []struct {
		config string
		err    string
	}{
		{"hardware: oak-2", `unknown hardware class: "oak-2"`},
		{"listen: ''", "listen socket must be set"},
		{"compression: gzip", `compression should be "none" or "lz4"`},
		{"hardware: oak-1\nsources:\n  left:\n    kind: pattern", "oak-1 has no left socket"},
		{"sources:\n  left:\n    kind: cptv", "left: cptv binding needs a file"},
	} {
		_, err := ParseConfig([]byte(tc.config))
		assert.EqualError(t, err, tc.err, tc.config)
	}
}
