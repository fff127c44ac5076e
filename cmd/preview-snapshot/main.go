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
	"fmt"
	"log"

	arg "github.com/alexflint/go-arg"

	"github.com/TheCacophonyProject/camera-preview/cameradController"
	"github.com/TheCacophonyProject/camera-preview/previewclient"
)

var version = "<not set>"

type Args struct {
	FFC     bool   `arg:"--ffc" help:"run a flat field correction on the thermal camera first"`
	AutoFFC string `arg:"--auto-ffc" help:"turn the thermal camera's automatic flat field correction on or off"`
}

func (Args) Version() string {
	return version
}

func procArgs() Args {
	var args Args
	arg.MustParse(&args)
	return args
}

func main() {
	log.SetFlags(0)
	err := runMain()
	if err != nil {
		log.Fatal(err)
	}
}

func runMain() error {
	args := procArgs()

	switch args.AutoFFC {
	case "":
	case "on", "off":
		if err := cameradController.SetAutoFFC(args.AutoFFC == "on"); err != nil {
			return fmt.Errorf("setting automatic FFC: %v", err)
		}
	default:
		return fmt.Errorf("--auto-ffc should be on or off, not %q", args.AutoFFC)
	}
	if args.FFC {
		if err := cameradController.RunFFC(); err != nil {
			return fmt.Errorf("running FFC: %v", err)
		}
	}

	path, err := previewclient.TakeSnapshot()
	if err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}
