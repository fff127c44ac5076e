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
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	arg "github.com/alexflint/go-arg"

	"github.com/TheCacophonyProject/camera-preview/device"
	"github.com/TheCacophonyProject/camera-preview/display/cvwindow"
	"github.com/TheCacophonyProject/camera-preview/link"
	"github.com/TheCacophonyProject/camera-preview/pipeline"
	"github.com/TheCacophonyProject/camera-preview/preview"
	"github.com/TheCacophonyProject/camera-preview/service"
	"github.com/TheCacophonyProject/camera-preview/sim"
	"github.com/TheCacophonyProject/camera-preview/source"
)

var version = "<not set>"

type Args struct {
	ConfigFile   string `arg:"-c,--config" help:"path to configuration file"`
	Preset       string `arg:"-p,--preset" help:"pipeline preset: start-here or all-cameras"`
	Connect      string `arg:"--connect" help:"socket of a camera daemon to run the pipeline on"`
	TestCptvFile string `arg:"-f,--testfile" help:"replay a CPTV file on every mono camera"`
	Headless     bool   `arg:"--headless" help:"don't open any windows"`
	Timestamps   bool   `arg:"-t,--timestamps" help:"include timestamps in log output"`
}

func (Args) Version() string {
	return version
}

func procArgs() Args {
	var args Args
	args.ConfigFile = "/etc/camera-preview.yaml"
	arg.MustParse(&args)
	return args
}

func main() {
	err := runMain()
	if err != nil {
		log.Fatal(err)
	}
}

func runMain() error {
	args := procArgs()
	if !args.Timestamps {
		log.SetFlags(0) // Removes default timestamp flag
	}

	log.Printf("running version: %s", version)
	conf, err := loadConfig(args)
	if err != nil {
		return err
	}
	logConfig(conf)

	p, err := conf.Pipeline.Build()
	if err != nil {
		return err
	}
	log.Printf("pipeline: %s", p)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dev, err := openDevice(ctx, conf, p)
	if err != nil {
		return err
	}

	var renderer preview.Renderer = preview.Discard{}
	stopCheck := preview.StopOnDone(ctx)
	if !args.Headless {
		display := cvwindow.New()
		defer display.Close()
		renderer = display
		stopCheck = preview.AnyOf(preview.QuitOnKey(display, conf.quitKey()), stopCheck)
	}

	loop, err := preview.New(dev, conf.Display, renderer, stopCheck)
	if err != nil {
		dev.Close()
		return err
	}

	if conf.DBus {
		snapshots := preview.NewSnapshotter(loop.Cache(), conf.SnapshotDir)
		snapshots.Delete()
		log.Println("starting d-bus service")
		if err := service.Start(snapshots); err != nil {
			dev.Close()
			return err
		}
	}

	return loop.Run()
}

func loadConfig(args Args) (*Config, error) {
	conf, err := ParseConfigFile(args.ConfigFile, args.Preset)
	if os.IsNotExist(err) {
		log.Printf("%s not found, using defaults", args.ConfigFile)
		conf, err = ParseConfig(nil, args.Preset)
	}
	if err != nil {
		return nil, err
	}
	if args.Connect != "" {
		conf.Device.Connect = args.Connect
	}
	if args.TestCptvFile != "" {
		conf.Sources = replayBindings(conf.Pipeline, args.TestCptvFile)
	}
	return conf, conf.Validate()
}

// replayBindings backs every mono camera in the pipeline with a CPTV
// recording.
func replayBindings(conf pipeline.Config, filename string) map[pipeline.BoardSocket]source.Binding {
	bindings := make(map[pipeline.BoardSocket]source.Binding)
	for _, cam := range conf.Cameras {
		if cam.Kind != pipeline.CameraMono {
			continue
		}
		socket := cam.Socket
		if socket == "" {
			socket = pipeline.SocketLeft
		}
		bindings[socket] = source.Binding{Kind: source.BindCPTV, File: filename}
	}
	return bindings
}

func openDevice(ctx context.Context, conf *Config, p *pipeline.Pipeline) (device.Device, error) {
	if conf.Device.Connect != "" {
		log.Printf("connecting to camera daemon at %s", conf.Device.Connect)
		return link.Dial(ctx, conf.Device.Connect, p, conf.Device.QueueSize)
	}
	log.Print("running pipeline in-process")
	// The device runs until the loop releases it, not until ctx is done.
	return sim.Open(context.Background(), p, sim.Options{
		Sources:   &source.Factory{Bindings: conf.Sources},
		QueueSize: conf.Device.QueueSize,
	})
}

func logConfig(conf *Config) {
	log.Printf("preset: %s", conf.Preset)
	log.Printf("hardware: %s", conf.Pipeline.Hardware)
	for _, cam := range conf.Pipeline.Cameras {
		log.Printf("camera: %+v", cam)
	}
	for _, s := range conf.Display.Streams {
		log.Printf("display: %+v", s)
	}
	if conf.Display.Combine {
		log.Printf("streams combined in window %q", conf.Display.Window)
	}
	if conf.Device.Connect != "" {
		log.Printf("camera daemon: %s", conf.Device.Connect)
	}
	for socket, b := range conf.Sources {
		log.Printf("%s source: %+v", socket, b)
	}
	log.Printf("snapshot dir: %s", conf.SnapshotDir)
}
