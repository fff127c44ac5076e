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

// Package preview polls a device's output queues and renders what they
// deliver until told to stop.
package preview

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/TheCacophonyProject/camera-preview/device"
	"github.com/TheCacophonyProject/camera-preview/frame"
	"github.com/TheCacophonyProject/camera-preview/loglimiter"
)

const (
	waitingLogInterval = 10 * time.Second
	statsLogInterval   = 60 * time.Second

	// passInterval is the shortest time between the starts of two
	// passes of Run. Queues are polled, so without it the loop spins
	// whenever nothing blocks in the renderer or key poll.
	passInterval = 5 * time.Millisecond
)

// ErrStopped is returned by Step once the loop has stopped.
var ErrStopped = errors.New("preview loop stopped")

// StreamConfig says how to show one stream.
type StreamConfig struct {
	Name string `yaml:"name"`
	// Window the stream is shown in when streams aren't combined.
	Window string `yaml:"window"`
	// Width and Height resize frames before display. Zero keeps the
	// received size.
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	// ToBGR converts single channel frames to three channels.
	ToBGR bool `yaml:"to-bgr"`
}

// Config describes what the loop shows.
type Config struct {
	Streams []StreamConfig `yaml:"streams"`
	// Combine shows all streams side by side, in order, in one window.
	// Nothing is shown until every stream has produced a frame.
	Combine bool   `yaml:"combine"`
	Window  string `yaml:"window"`
}

func (conf *Config) Validate() error {
	if len(conf.Streams) == 0 {
		return errors.New("at least one stream must be displayed")
	}
	if conf.Combine && conf.Window == "" {
		return errors.New("combined streams need a window")
	}
	seen := make(map[string]bool)
	for i, s := range conf.Streams {
		if s.Name == "" {
			return fmt.Errorf("stream %d has no name", i)
		}
		if seen[s.Name] {
			return fmt.Errorf("stream %q is displayed twice", s.Name)
		}
		seen[s.Name] = true
		if s.Width < 0 || s.Height < 0 || (s.Width == 0) != (s.Height == 0) {
			return fmt.Errorf("stream %q: display size should be both set or both zero", s.Name)
		}
		if conf.Combine {
			if err := conf.validateCombined(s); err != nil {
				return err
			}
		} else if s.Window == "" {
			return fmt.Errorf("stream %q has no window", s.Name)
		}
	}
	return nil
}

// validateCombined checks s can be placed beside the first stream: same
// height and three channels whatever the camera sends.
func (conf *Config) validateCombined(s StreamConfig) error {
	if s.Width == 0 {
		return fmt.Errorf("stream %q: combined streams need a display size", s.Name)
	}
	if first := conf.Streams[0]; s.Height != first.Height {
		return fmt.Errorf("stream %q: display height %d doesn't match %d of %q",
			s.Name, s.Height, first.Height, first.Name)
	}
	if !s.ToBGR {
		return fmt.Errorf("stream %q: combined streams need to-bgr", s.Name)
	}
	return nil
}

// Renderer shows a frame in a named window.
type Renderer interface {
	Render(window string, f *frame.Frame) error
}

// KeyPoller returns the key pressed since the last poll, or -1.
type KeyPoller interface {
	PollKey() int
}

// StopCheck is polled once at the end of every pass. Returning true
// stops the loop.
type StopCheck func() bool

// QuitOnKey stops when key is pressed.
func QuitOnKey(poller KeyPoller, key rune) StopCheck {
	return func() bool {
		return poller.PollKey() == int(key)
	}
}

// StopOnDone stops once ctx is done.
func StopOnDone(ctx context.Context) StopCheck {
	return func() bool {
		return ctx.Err() != nil
	}
}

// AnyOf stops when any of checks does. Every check is polled each pass.
func AnyOf(checks ...StopCheck) StopCheck {
	return func() bool {
		stop := false
		for _, check := range checks {
			if check() {
				stop = true
			}
		}
		return stop
	}
}

// State of a Loop.
type State int

const (
	Running State = iota
	Stopped
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "stopped"
}

type statser interface {
	Stats() map[string]device.QueueStats
}

// Loop is the host display loop. It owns the device session it is
// given and releases it exactly once when Run returns.
type Loop struct {
	dev      device.Device
	conf     Config
	queues   []device.Queue
	names    []string
	renderer Renderer
	stop     StopCheck
	cache    *FrameCache

	state       State
	passes      int
	releaseOnce sync.Once
	releaseErr  error

	waiting   *loglimiter.LogLimiter
	nowFunc   func() time.Time
	lastStats time.Time
	interval  time.Duration
}

// New prepares a loop over dev. If New fails the caller still owns dev.
func New(dev device.Device, conf Config, renderer Renderer, stop StopCheck) (*Loop, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	l := &Loop{
		dev:      dev,
		conf:     conf,
		renderer: renderer,
		stop:     stop,
		cache:    NewFrameCache(),
		waiting:  loglimiter.New(waitingLogInterval),
		nowFunc:  time.Now,
		interval: passInterval,
	}
	for _, s := range conf.Streams {
		q, err := dev.OutputQueue(s.Name)
		if err != nil {
			return nil, err
		}
		l.queues = append(l.queues, q)
		l.names = append(l.names, s.Name)
	}
	l.lastStats = l.nowFunc()
	return l, nil
}

// Cache returns the loop's frame cache.
func (l *Loop) Cache() *FrameCache {
	return l.cache
}

func (l *Loop) State() State {
	return l.state
}

// Step runs a single pass: poll every queue once, render from the
// cache, then poll the stop check. A failed stream stops the loop and
// its *device.RetrievalError is returned. Step doesn't release the
// device.
func (l *Loop) Step() error {
	if l.state == Stopped {
		return ErrStopped
	}
	if err := l.step(); err != nil {
		l.state = Stopped
		return err
	}
	if l.stop != nil && l.stop() {
		l.state = Stopped
	}
	return nil
}

func (l *Loop) step() error {
	l.passes++
	for i, q := range l.queues {
		conf := l.conf.Streams[i]
		p, err := q.TryGet()
		if err != nil {
			return err
		}
		if p == nil {
			if l.cache.Get(conf.Name) == nil {
				l.waiting.KeyPrintf(conf.Name, "waiting for frames on %q", conf.Name)
			}
			continue
		}
		f, err := p.Frame()
		if err != nil {
			return &device.RetrievalError{Stream: conf.Name, Err: err}
		}
		l.cache.Put(conf.Name, postProcess(f, conf))
	}

	if err := l.render(); err != nil {
		return err
	}
	l.logStats()
	return nil
}

func postProcess(f *frame.Frame, conf StreamConfig) *frame.Frame {
	if conf.Width > 0 && (f.Width != conf.Width || f.Height != conf.Height) {
		f = f.Resize(conf.Width, conf.Height)
	}
	if conf.ToBGR && f.Channels == 1 {
		f = f.GrayToBGR()
	}
	return f
}

func (l *Loop) render() error {
	if l.conf.Combine {
		frames, ok := l.cache.Collect(l.names)
		if !ok {
			return nil
		}
		combined, err := frame.HConcat(frames...)
		if err != nil {
			return err
		}
		return l.show(l.conf.Window, combined)
	}

	for _, s := range l.conf.Streams {
		if f := l.cache.Get(s.Name); f != nil {
			if err := l.show(s.Window, f); err != nil {
				return err
			}
		}
	}
	return nil
}

func (l *Loop) show(window string, f *frame.Frame) error {
	if err := l.renderer.Render(window, f); err != nil {
		return fmt.Errorf("rendering %q: %v", window, err)
	}
	l.cache.SetRendered(f)
	return nil
}

func (l *Loop) logStats() {
	s, ok := l.dev.(statser)
	if !ok {
		return
	}
	now := l.nowFunc()
	if now.Sub(l.lastStats) < statsLogInterval {
		return
	}
	l.lastStats = now
	stats := s.Stats()
	for _, name := range l.names {
		st := stats[name]
		log.Printf("%s: %d frames received, %d dropped", name, st.Received, st.Dropped)
	}
}

// Run steps until the loop stops and then releases the device. Passes
// start at most once every passInterval. It returns the error that
// stopped the loop, if any. The device is released even if rendering
// panics.
func (l *Loop) Run() (err error) {
	defer func() {
		if rerr := l.release(); err == nil {
			err = rerr
		}
	}()

	log.Printf("showing %d stream(s)", len(l.names))
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()
	for l.state == Running {
		if err := l.Step(); err != nil {
			return err
		}
		if l.state == Running {
			<-ticker.C
		}
	}
	log.Printf("preview loop stopped after %d passes", l.passes)
	return nil
}

func (l *Loop) release() error {
	l.releaseOnce.Do(func() {
		l.state = Stopped
		l.releaseErr = l.dev.Close()
	})
	return l.releaseErr
}

// Discard is a Renderer that shows nothing, for running without a
// screen.
type Discard struct{}

func (Discard) Render(string, *frame.Frame) error { return nil }
