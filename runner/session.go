// Copyright (c) 2026 TTBT Enterprises LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package runner

import (
	"context"
	"iter"
	"log"
	"sync"
	"time"
)

// Logger interface allows passing *testing.T or a log.Printf based logger.
type Logger interface {
	Logf(format string, args ...any)
}

// LogFunc adapts a printf-style function to Logger.
type LogFunc func(format string, args ...any)

func (f LogFunc) Logf(format string, args ...any) { f(format, args...) }

var stdLogger = LogFunc(log.Printf)

// Browser opens isolated sessions. Sessions from the same Browser never share
// cookies or local storage.
type Browser interface {
	NewSession(ctx context.Context) (Session, error)
}

// Session is one page in one isolated browser context. It is owned by a
// single scenario run and must be closed by its owner.
//
// Methods block until the action completes or ctx expires. Locator based
// methods keep re-resolving the locator until then.
type Session interface {
	Navigate(ctx context.Context, url string) error
	// Click returns *LocatorNotFoundError or *AmbiguousLocatorError when
	// loc does not resolve to exactly one visible element.
	Click(ctx context.Context, loc Locator) error
	Select(ctx context.Context, loc Locator, value string) error
	// WaitVisible returns *LocatorNotFoundError when no element matching
	// loc became visible.
	WaitVisible(ctx context.Context, loc Locator) error
	Reload(ctx context.Context) error
	// Screenshot returns the rendered page as PNG.
	Screenshot(ctx context.Context) ([]byte, error)
	// PageText returns the rendered text of the page.
	PageText(ctx context.Context) (string, error)
	// Console returns the console lines captured so far. The sequence is
	// lazy: lines logged while iterating are yielded too.
	Console() iter.Seq[string]
	Close() error
}

// Timeouts bound every suspension point of a run.
type Timeouts struct {
	Navigation time.Duration
	Action     time.Duration
	Assert     time.Duration
}

// DefaultTimeouts are used for zero fields of Runner.Timeouts.
var DefaultTimeouts = Timeouts{
	Navigation: 30 * time.Second,
	Action:     10 * time.Second,
	Assert:     10 * time.Second,
}

func (t Timeouts) withDefaults() Timeouts {
	if t.Navigation <= 0 {
		t.Navigation = DefaultTimeouts.Navigation
	}
	if t.Action <= 0 {
		t.Action = DefaultTimeouts.Action
	}
	if t.Assert <= 0 {
		t.Assert = DefaultTimeouts.Assert
	}
	return t
}

// ConsoleLog collects console output of a page. It is safe for concurrent
// use.
type ConsoleLog struct {
	mu    sync.Mutex
	lines []string
}

// Add appends a line.
func (c *ConsoleLog) Add(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = append(c.lines, line)
}

// Lines returns a lazy sequence over the captured lines.
func (c *ConsoleLog) Lines() iter.Seq[string] {
	return func(yield func(string) bool) {
		for i := 0; ; i++ {
			c.mu.Lock()
			if i >= len(c.lines) {
				c.mu.Unlock()
				return
			}
			line := c.lines[i]
			c.mu.Unlock()
			if !yield(line) {
				return
			}
		}
	}
}
