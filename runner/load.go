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
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

type scenarioFile struct {
	Scenarios []scenarioDef `yaml:"scenarios"`
}

type scenarioDef struct {
	Name    string    `yaml:"name"`
	BaseURL string    `yaml:"base_url"`
	Steps   []stepDef `yaml:"steps"`
}

type selectDef struct {
	Locator string `yaml:"locator"`
	Value   string `yaml:"value"`
}

// stepDef is one list item of a scenario. Exactly one field must be set.
type stepDef struct {
	Navigate      *string    `yaml:"navigate"`
	Click         *string    `yaml:"click"`
	Select        *selectDef `yaml:"select"`
	AssertVisible *string    `yaml:"assert_visible"`
	Reload        *bool      `yaml:"reload"`
	Screenshot    *string    `yaml:"screenshot"`
}

// LoadScenarios reads scenario definitions from YAML.
func LoadScenarios(r io.Reader) ([]*Scenario, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f scenarioFile
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("no scenarios defined")
		}
		return nil, fmt.Errorf("decoding scenarios: %w", err)
	}
	if len(f.Scenarios) == 0 {
		return nil, fmt.Errorf("no scenarios defined")
	}

	seen := make(map[string]bool)
	out := make([]*Scenario, 0, len(f.Scenarios))
	for _, def := range f.Scenarios {
		if seen[def.Name] {
			return nil, fmt.Errorf("duplicate scenario %q", def.Name)
		}
		seen[def.Name] = true

		steps := make([]Step, 0, len(def.Steps))
		for i, sd := range def.Steps {
			step, err := sd.toStep()
			if err != nil {
				return nil, fmt.Errorf("scenario %q step %d: %w", def.Name, i+1, err)
			}
			steps = append(steps, step)
		}
		sc, err := NewScenario(def.Name, def.BaseURL, steps...)
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, nil
}

// LoadScenarioFile reads scenario definitions from a YAML file.
func LoadScenarioFile(filename string) ([]*Scenario, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadScenarios(f)
}

func (sd stepDef) toStep() (Step, error) {
	set := 0
	for _, isSet := range []bool{sd.Navigate != nil, sd.Click != nil, sd.Select != nil, sd.AssertVisible != nil, sd.Reload != nil, sd.Screenshot != nil} {
		if isSet {
			set++
		}
	}
	if set != 1 {
		return nil, fmt.Errorf("a step must set exactly one action, got %d", set)
	}

	switch {
	case sd.Navigate != nil:
		return Navigate{URL: *sd.Navigate}, nil
	case sd.Click != nil:
		loc, err := ParseLocator(*sd.Click)
		if err != nil {
			return nil, err
		}
		switch loc.Kind {
		case KindRole:
			return ClickByRole{Target: loc}, nil
		case KindText:
			return ClickByText{Target: loc}, nil
		}
		return nil, fmt.Errorf("click needs a role or text locator, got %q", *sd.Click)
	case sd.Select != nil:
		loc, err := ParseLocator(sd.Select.Locator)
		if err != nil {
			return nil, err
		}
		return SelectOption{Target: loc, Value: sd.Select.Value}, nil
	case sd.AssertVisible != nil:
		loc, err := ParseLocator(*sd.AssertVisible)
		if err != nil {
			return nil, err
		}
		return AssertVisible{Target: loc}, nil
	case sd.Reload != nil:
		if !*sd.Reload {
			return nil, fmt.Errorf("reload: false is not a step")
		}
		return Reload{}, nil
	default:
		return Screenshot{Path: *sd.Screenshot}, nil
	}
}
