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
	"slices"
	"testing"
	"time"
)

func TestConsoleLogLazy(t *testing.T) {
	var c ConsoleLog
	c.Add("first")

	var got []string
	for line := range c.Lines() {
		got = append(got, line)
		if line == "first" {
			c.Add("added while iterating")
		}
	}
	if want := []string{"first", "added while iterating"}; !slices.Equal(got, want) {
		t.Errorf("Lines() = %q, want %q", got, want)
	}

	for range c.Lines() {
		break
	}
	if n := len(slices.Collect(c.Lines())); n != 2 {
		t.Errorf("len(Lines()) = %d, want 2", n)
	}
}

func TestTimeoutsWithDefaults(t *testing.T) {
	got := Timeouts{Action: time.Second}.withDefaults()
	if got.Action != time.Second {
		t.Errorf("Action = %v, want 1s", got.Action)
	}
	if got.Navigation != DefaultTimeouts.Navigation || got.Assert != DefaultTimeouts.Assert {
		t.Errorf("withDefaults() = %+v", got)
	}
}
