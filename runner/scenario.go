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
	"net/url"
	"slices"
)

// Scenario is a named, ordered sequence of steps. It is immutable once
// created.
type Scenario struct {
	name    string
	baseURL string
	steps   []Step
}

// NewScenario creates a scenario. baseURL may be empty when every Navigate
// step uses an absolute URL.
func NewScenario(name, baseURL string, steps ...Step) (*Scenario, error) {
	if name == "" {
		return nil, fmt.Errorf("scenario without a name")
	}
	if baseURL != "" {
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("scenario %q: base url: %w", name, err)
		}
		if !u.IsAbs() {
			return nil, fmt.Errorf("scenario %q: base url %q is not absolute", name, baseURL)
		}
	}
	for i, step := range steps {
		if err := validateStep(step); err != nil {
			return nil, fmt.Errorf("scenario %q step %d: %w", name, i, err)
		}
	}
	return &Scenario{
		name:    name,
		baseURL: baseURL,
		steps:   slices.Clone(steps),
	}, nil
}

// MustScenario is like NewScenario but panics on error. It is meant for
// scenarios defined in code.
func MustScenario(name, baseURL string, steps ...Step) *Scenario {
	sc, err := NewScenario(name, baseURL, steps...)
	if err != nil {
		panic(err)
	}
	return sc
}

func (sc *Scenario) Name() string    { return sc.name }
func (sc *Scenario) BaseURL() string { return sc.baseURL }
func (sc *Scenario) Len() int        { return len(sc.steps) }

// Steps returns a copy of the scenario's steps.
func (sc *Scenario) Steps() []Step {
	return slices.Clone(sc.steps)
}

// WithBaseURL returns a copy of sc bound to another base URL.
func (sc *Scenario) WithBaseURL(baseURL string) (*Scenario, error) {
	return NewScenario(sc.name, baseURL, sc.steps...)
}

// Resolve resolves a Navigate URL against the base URL.
func (sc *Scenario) Resolve(ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	if u.IsAbs() || sc.baseURL == "" {
		return u.String(), nil
	}
	base, err := url.Parse(sc.baseURL)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(u).String(), nil
}
