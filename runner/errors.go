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
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrBrowserUnavailable is returned when the browser endpoint cannot be
// reached.
var ErrBrowserUnavailable = errors.New("browser unavailable")

// NavigationError reports that the target could not be loaded in time.
type NavigationError struct {
	URL string
	Err error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("navigation to %s failed: %v", e.URL, e.Err)
}

func (e *NavigationError) Unwrap() error { return e.Err }

// LocatorNotFoundError reports that nothing matched a locator before the
// wait expired.
type LocatorNotFoundError struct {
	Locator Locator
	// Detail narrows down what was missing, e.g. an option of a select.
	Detail  string
	Timeout time.Duration
}

func (e *LocatorNotFoundError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "no element matches %s", e.Locator)
	if e.Detail != "" {
		fmt.Fprintf(&sb, " (%s)", e.Detail)
	}
	if e.Timeout > 0 {
		fmt.Fprintf(&sb, " after %s", e.Timeout)
	}
	return sb.String()
}

// AmbiguousLocatorError reports that a locator required to be unique
// matched several elements.
type AmbiguousLocatorError struct {
	Locator Locator
	Count   int
}

func (e *AmbiguousLocatorError) Error() string {
	return fmt.Sprintf("%s matches %d elements; add nth to pick one", e.Locator, e.Count)
}

// AssertionFailure reports that an expected element never became visible.
// PageText holds the rendered text of the page when the wait expired.
type AssertionFailure struct {
	Locator  Locator
	PageText string
	Err      error
}

func (e *AssertionFailure) Error() string {
	msg := fmt.Sprintf("expected %s to be visible", e.Locator)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.PageText != "" {
		msg += "\npage text:\n" + e.PageText
	}
	return msg
}

func (e *AssertionFailure) Unwrap() error { return e.Err }

// StepError identifies the step that stopped a scenario.
type StepError struct {
	Scenario string
	// Index is the 0-based step index, or -1 when the session could not be
	// opened.
	Index int
	Step  string
	Err   error
}

func (e *StepError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("scenario %q: %s: %v", e.Scenario, e.Step, e.Err)
	}
	return fmt.Sprintf("scenario %q step %d (%s): %v", e.Scenario, e.Index+1, e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }
