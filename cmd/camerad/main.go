// Copyright 2021 The Cacophony Project. All rights reserved.
// Use of this source code is governed by the Apache License Version 2.0;
// see the LICENSE file for further details.

package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	arg "github.com/alexflint/go-arg"
	"github.com/coreos/go-systemd/daemon"
	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpioreg"
	"periph.io/x/periph/host"

	"github.com/TheCacophonyProject/camera-preview/link"
	"github.com/TheCacophonyProject/camera-preview/pipeline"
)

const packetsPerSdNotify = 150

var version = "<not set>"

type Args struct {
	ConfigFile string `arg:"-c,--config" help:"path to configuration file"`
	Quick      bool   `arg:"-q,--quick" help:"don't cycle camera power on startup"`
	Timestamps bool   `arg:"-t,--timestamps" help:"include timestamps in log output"`
}

func (Args) Version() string {
	return version
}

func procArgs() Args {
	var args Args
	args.ConfigFile = "/etc/camerad.yaml"
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

	log.Printf("version: %s", version)
	conf, err := ParseConfigFile(args.ConfigFile)
	if err != nil {
		return err
	}
	logConfig(conf)
	hw, err := pipeline.LookupHardware(conf.Hardware)
	if err != nil {
		return err
	}

	log.Print("host initialisation")
	if _, err := host.Init(); err != nil {
		return err
	}

	if !args.Quick {
		if err := cycleCameraPower(conf.PowerPin); err != nil {
			return err
		}
	}

	svc, err := startService()
	if err != nil {
		return err
	}

	os.Remove(conf.Listen)
	listener, err := net.Listen("unix", conf.Listen)
	if err != nil {
		return err
	}
	defer os.Remove(conf.Listen)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var notifyCount int64
	server := &link.Server{
		Header: link.NewHeaderInfo(conf.Brand, conf.Model, hw, conf.Compression),
		Open:   svc.opener(conf.factory()),
		OnPacket: func() {
			// Packets arrive from every stream's goroutine.
			if atomic.AddInt64(&notifyCount, 1)%packetsPerSdNotify == 0 {
				daemon.SdNotify(false, "WATCHDOG=1")
			}
		},
	}
	daemon.SdNotify(false, "READY=1")
	return server.Serve(ctx, listener)
}

func logConfig(conf *Config) {
	log.Printf("hardware: %s (%s %s)", conf.Hardware, conf.Brand, conf.Model)
	log.Printf("listening on: %s", conf.Listen)
	log.Printf("power pin: %s", conf.PowerPin)
	log.Printf("compression: %s", conf.Compression)
	for socket, b := range conf.Sources {
		log.Printf("%s source: %+v", socket, b)
	}
}

func cycleCameraPower(pinName string) error {
	if pinName == "" {
		return nil
	}

	pin := gpioreg.ByName(pinName)
	if pin == nil {
		return fmt.Errorf("unknown camera power pin %q", pinName)
	}

	log.Print("turning camera power off")
	if err := pin.Out(gpio.Low); err != nil {
		return fmt.Errorf("failed to set camera power pin low: %v", err)
	}
	time.Sleep(2 * time.Second)

	log.Print("turning camera power on")
	if err := pin.Out(gpio.High); err != nil {
		return fmt.Errorf("failed to set camera power pin high: %v", err)
	}

	log.Print("waiting for camera startup")
	time.Sleep(8 * time.Second)
	log.Print("camera should be ready")
	return nil
}
