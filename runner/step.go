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
	"fmt"
	"path/filepath"
)

// Step is one atomic action or assertion of a Scenario.
//
// The set of steps is closed: Navigate, ClickByRole, ClickByText,
// SelectOption, AssertVisible, Reload and Screenshot.
type Step interface {
	// Describe returns a one-line description used in logs and reports.
	Describe() string
	isStep()
}

// Navigate directs the session to URL. A relative URL is resolved against
// the scenario's base URL.
type Navigate struct {
	URL string
}

// ClickByRole clicks the element with the given accessible role and name.
type ClickByRole struct {
	Target Locator
}

// ClickByText clicks the innermost element containing the given text.
type ClickByText struct {
	Target Locator
}

// SelectOption sets the selected option of a <select> element. Value is
// matched against option values first, then option labels.
type SelectOption struct {
	Target Locator
	Value  string
}

// AssertVisible waits until an element matching Target is visible.
type AssertVisible struct {
	Target Locator
}

// Reload reloads the current page.
type Reload struct{}

// Screenshot captures the rendered page to Path, relative to the runner's
// output directory.
type Screenshot struct {
	Path string
}

func (Navigate) isStep()      {}
func (ClickByRole) isStep()   {}
func (ClickByText) isStep()   {}
func (SelectOption) isStep()  {}
func (AssertVisible) isStep() {}
func (Reload) isStep()        {}
func (Screenshot) isStep()    {}

func (s Navigate) Describe() string      { return "navigate " + s.URL }
func (s ClickByRole) Describe() string   { return "click " + s.Target.String() }
func (s ClickByText) Describe() string   { return "click " + s.Target.String() }
func (s AssertVisible) Describe() string { return "assert visible " + s.Target.String() }
func (Reload) Describe() string          { return "reload" }
func (s Screenshot) Describe() string    { return "screenshot " + s.Path }

func (s SelectOption) Describe() string {
	return fmt.Sprintf("select %q in %s", s.Value, s.Target)
}

// ClickRole is shorthand for a ClickByRole step.
func ClickRole(role, name string) ClickByRole {
	return ClickByRole{Target: Role(role, name)}
}

// ClickText is shorthand for a ClickByText step.
func ClickText(text string) ClickByText {
	return ClickByText{Target: Text(text)}
}

// ExpectText is shorthand for an AssertVisible step on literal text.
func ExpectText(text string) AssertVisible {
	return AssertVisible{Target: Text(text)}
}

// validateStep checks the fields a step needs before it can run.
func validateStep(step Step) error {
	switch s := step.(type) {
	case Navigate:
		if s.URL == "" {
			return fmt.Errorf("navigate without a url")
		}
	case ClickByRole:
		if s.Target.Kind != KindRole {
			return fmt.Errorf("click by role needs a role locator, got %s", s.Target.Kind)
		}
		return s.Target.Validate()
	case ClickByText:
		if s.Target.Kind != KindText {
			return fmt.Errorf("click by text needs a text locator, got %s", s.Target.Kind)
		}
		return s.Target.Validate()
	case SelectOption:
		if s.Value == "" {
			return fmt.Errorf("select without a value")
		}
		return s.Target.Validate()
	case AssertVisible:
		return s.Target.Validate()
	case Reload:
	case Screenshot:
		if !filepath.IsLocal(s.Path) {
			return fmt.Errorf("screenshot path %q must be relative and stay inside the output directory", s.Path)
		}
	case nil:
		return fmt.Errorf("nil step")
	default:
		return fmt.Errorf("unsupported step type %T", step)
	}
	return nil
}
