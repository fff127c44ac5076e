// Copyright 2021 The Cacophony Project. All rights reserved.
// Use of this source code is governed by the Apache License Version 2.0;
// see the LICENSE file for further details.

package main

import (
	"errors"
	"fmt"
	"io/ioutil"

	yaml "gopkg.in/yaml.v2"

	"github.com/TheCacophonyProject/camera-preview/link"
	"github.com/TheCacophonyProject/camera-preview/pipeline"
	"github.com/TheCacophonyProject/camera-preview/source"
)

type Config struct {
	Hardware    string                                  `yaml:"hardware"`
	Brand       string                                  `yaml:"brand"`
	Model       string                                  `yaml:"model"`
	Listen      string                                  `yaml:"listen"`
	PowerPin    string                                  `yaml:"power-pin"`
	Compression string                                  `yaml:"compression"`
	Sources     map[pipeline.BoardSocket]source.Binding `yaml:"sources"`
}

var defaultConfig = Config{
	Hardware:    "oak-d",
	Brand:       "luxonis",
	Model:       "OAK-D",
	Listen:      "/var/run/camerad.sock",
	PowerPin:    "",
	Compression: link.CompressionLZ4,
}

func (conf *Config) Validate() error {
	hw, err := pipeline.LookupHardware(conf.Hardware)
	if err != nil {
		return err
	}
	if conf.Listen == "" {
		return errors.New("listen socket must be set")
	}
	switch conf.Compression {
	case link.CompressionNone, link.CompressionLZ4:
	default:
		return fmt.Errorf("compression should be %q or %q", link.CompressionNone, link.CompressionLZ4)
	}
	for socket := range conf.Sources {
		if !hw.HasSocket(socket) {
			return fmt.Errorf("%s has no %s socket", hw, socket)
		}
	}
	return conf.factory().Validate()
}

func (conf *Config) factory() *source.Factory {
	return &source.Factory{Bindings: conf.Sources}
}

func ParseConfigFile(filename string) (*Config, error) {
	buf, err := ioutil.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return ParseConfig(buf)
}

func ParseConfig(buf []byte) (*Config, error) {
	conf := defaultConfig
	if err := yaml.Unmarshal(buf, &conf); err != nil {
		return nil, err
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return &conf, nil
}
