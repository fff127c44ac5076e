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

package main

import (
	"errors"
	"fmt"
	"io/ioutil"
	"sort"
	"unicode/utf8"

	yaml "gopkg.in/yaml.v2"

	"github.com/TheCacophonyProject/camera-preview/pipeline"
	"github.com/TheCacophonyProject/camera-preview/preview"
	"github.com/TheCacophonyProject/camera-preview/source"
)

type Config struct {
	// Preset fills in Pipeline and Display when the file leaves them out.
	Preset      string                                  `yaml:"preset"`
	Pipeline    pipeline.Config                         `yaml:"pipeline"`
	Display     preview.Config                          `yaml:"display"`
	Device      DeviceConfig                            `yaml:"device"`
	Sources     map[pipeline.BoardSocket]source.Binding `yaml:"sources"`
	SnapshotDir string                                  `yaml:"snapshot-dir"`
	QuitKey     string                                  `yaml:"quit-key"`
	DBus        bool                                    `yaml:"dbus"`
}

// DeviceConfig picks the runtime. With Connect empty the pipeline runs
// in-process.
type DeviceConfig struct {
	Connect   string `yaml:"connect"`
	QueueSize int    `yaml:"queue-size"`
}

type preset struct {
	pipeline pipeline.Config
	display  preview.Config
}

var presets = map[string]preset{
	"start-here": {
		pipeline: pipeline.Config{
			Hardware: "oak-1",
			Cameras: []pipeline.CameraConfig{{
				Kind:          pipeline.CameraColor,
				PreviewWidth:  300,
				PreviewHeight: 300,
				Interleaved:   false,
				Stream:        "rgb",
			}},
		},
		display: preview.Config{
			Streams: []preview.StreamConfig{{Name: "rgb", Window: "preview"}},
		},
	},
	"all-cameras": {
		pipeline: pipeline.Config{
			Hardware: "oak-d",
			Cameras: []pipeline.CameraConfig{
				{
					Kind:          pipeline.CameraColor,
					PreviewWidth:  640,
					PreviewHeight: 480,
					Interleaved:   false,
					Stream:        "rgb",
				},
				{
					Kind:       pipeline.CameraMono,
					Socket:     pipeline.SocketLeft,
					Resolution: pipeline.Resolution480P,
					Stream:     "left",
				},
				{
					Kind:       pipeline.CameraMono,
					Socket:     pipeline.SocketRight,
					Resolution: pipeline.Resolution480P,
					Stream:     "right",
				},
			},
		},
		display: preview.Config{
			Streams: []preview.StreamConfig{
				{Name: "left", Width: 320, Height: 240, ToBGR: true},
				{Name: "rgb", Width: 320, Height: 240, ToBGR: true},
				{Name: "right", Width: 320, Height: 240, ToBGR: true},
			},
			Combine: true,
			Window:  "frame",
		},
	},
}

func presetNames() []string {
	var names []string
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var defaultConfig = Config{
	Preset:      "start-here",
	SnapshotDir: "/var/spool/camera-preview",
	QuitKey:     "q",
}

func (conf *Config) Validate() error {
	if _, ok := presets[conf.Preset]; !ok && conf.Preset != "" {
		return fmt.Errorf("unknown preset %q, should be one of %v", conf.Preset, presetNames())
	}
	if err := conf.Pipeline.Validate(); err != nil {
		return err
	}
	if err := conf.Display.Validate(); err != nil {
		return err
	}
	if conf.Device.QueueSize < 0 {
		return errors.New("queue-size can't be negative")
	}
	if utf8.RuneCountInString(conf.QuitKey) != 1 {
		return errors.New("quit-key should be a single character")
	}
	if conf.Device.Connect != "" && len(conf.Sources) > 0 {
		return errors.New("sources are configured on the device when connecting to one")
	}
	return (&source.Factory{Bindings: conf.Sources}).Validate()
}

// applyPreset fills in whatever the pipeline and display sections leave
// out from the named preset.
func (conf *Config) applyPreset() {
	p, ok := presets[conf.Preset]
	if !ok {
		return
	}
	if len(conf.Pipeline.Cameras) == 0 {
		conf.Pipeline = p.pipeline
		conf.Pipeline.Cameras = append([]pipeline.CameraConfig(nil), p.pipeline.Cameras...)
	}
	if len(conf.Display.Streams) == 0 {
		conf.Display = p.display
		conf.Display.Streams = append([]preview.StreamConfig(nil), p.display.Streams...)
	}
}

func (conf *Config) quitKey() rune {
	r, _ := utf8.DecodeRuneInString(conf.QuitKey)
	return r
}

func ParseConfigFile(filename, presetOverride string) (*Config, error) {
	buf, err := ioutil.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return ParseConfig(buf, presetOverride)
}

// ParseConfig reads a configuration. A non-empty presetOverride replaces
// the preset named in the file along with any pipeline and display it
// describes.
func ParseConfig(buf []byte, presetOverride string) (*Config, error) {
	conf := defaultConfig
	if err := yaml.Unmarshal(buf, &conf); err != nil {
		return nil, err
	}
	if presetOverride != "" {
		conf.Preset = presetOverride
		conf.Pipeline = pipeline.Config{}
		conf.Display = preview.Config{}
	}
	conf.applyPreset()
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return &conf, nil
}
