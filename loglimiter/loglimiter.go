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

package loglimiter

import (
	"fmt"
	"log"
	"time"
)

// New returns a new LogLimiter with the configured minimum log interval.
func New(interval time.Duration) *LogLimiter {
	return &LogLimiter{
		interval: interval,
		nowFunc:  time.Now,
		entries:  make(map[string]entry),
	}
}

// LogLimiter will suppress log messages if the same log message is
// seen within some time interval. Messages logged under different keys
// are limited separately, so that, for example, a message per stream
// doesn't let another stream's repeats through.
type LogLimiter struct {
	interval time.Duration
	nowFunc  func() time.Time
	entries  map[string]entry
}

type entry struct {
	message string
	time    time.Time
}

func (limiter *LogLimiter) Printf(format string, v ...interface{}) {
	limiter.Print(fmt.Sprintf(format, v...))
}

func (limiter *LogLimiter) Print(s string) {
	limiter.KeyPrint("", s)
}

// KeyPrintf is like Printf but limits repeats only against messages
// logged with the same key.
func (limiter *LogLimiter) KeyPrintf(key, format string, v ...interface{}) {
	limiter.KeyPrint(key, fmt.Sprintf(format, v...))
}

func (limiter *LogLimiter) KeyPrint(key, s string) {
	now := limiter.nowFunc()
	prev := limiter.entries[key]
	if now.Sub(prev.time) < limiter.interval && s == prev.message {
		return
	}

	log.Print(s)
	limiter.entries[key] = entry{message: s, time: now}
}
