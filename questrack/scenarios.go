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

// Package questrack holds the verification scenarios for the Questrack web
// application.
package questrack

import (
	"fmt"

	"github.com/ttbt-io/questcheck/runner"
)

// Base URLs of the dev servers each flow was written against.
const (
	FullDataURL     = "http://localhost:5173"
	LocalStorageURL = "http://localhost:5173"
	LoginURL        = "http://localhost:5175"
)

// Completed is the checklist status that counts toward progress.
const Completed = "Completed"

// checklistSelect is the nth status dropdown of a school's checklist.
func checklistSelect(n int) runner.Locator {
	return runner.CSS("select").At(n)
}

// addAmherst adds Amherst College from the My Schools page.
func addAmherst() []runner.Step {
	return []runner.Step{
		runner.ClickRole("link", "My Schools"),
		runner.ClickRole("button", "Add School"),
		runner.ClickText("Amherst College"),
		runner.ClickByRole{Target: runner.Role("button", "Add").Exactly()},
	}
}

// FullData adds a school with the full data set and checks its description,
// checklist and progress. Amherst has five optional supplements, so one
// completed item is 20%.
func FullData() *runner.Scenario {
	steps := []runner.Step{
		runner.Navigate{URL: "/"},
		runner.ExpectText("Welcome to Questrack!"),
		runner.Screenshot{Path: "01_dashboard_final.png"},
	}
	steps = append(steps, addAmherst()...)
	steps = append(steps,
		runner.AssertVisible{Target: runner.CSS("h2").Containing("Amherst College")},
		runner.AssertVisible{Target: runner.Text("Amherst, MA").Exactly()},
		runner.ExpectText("Amherst College is a premier liberal arts college"),
		runner.Screenshot{Path: "02_my_schools_detailed.png"},

		runner.ClickRole("link", "Amherst College"),
		runner.ExpectText("Founded in 1821, Amherst College is widely considered"),
		runner.AssertVisible{Target: runner.Text("Supplemental Essay (Option A)").First()},
		runner.AssertVisible{Target: runner.CSS("p").Containing("Option A, Prompt 1")},

		runner.SelectOption{Target: checklistSelect(0), Value: Completed},
		runner.ExpectText("20% Complete"),
		runner.Screenshot{Path: "03_school_detail_final_progress.png"},

		runner.Reload{},
		runner.ExpectText("20% Complete"),

		runner.ClickRole("link", "Questrack"),
		runner.ExpectText("20%"),
		runner.Screenshot{Path: "04_dashboard_final_progress.png"},
	)
	return runner.MustScenario("full-data", FullDataURL, steps...)
}

// LocalStorage adds a school with a two item checklist, completes both items
// and checks that progress survives a reload.
func LocalStorage() *runner.Scenario {
	steps := []runner.Step{
		runner.Navigate{URL: "/"},
		runner.ExpectText("Welcome to Questrack!"),
		runner.Screenshot{Path: "01_dashboard_initial.png"},
	}
	steps = append(steps, addAmherst()...)
	steps = append(steps,
		runner.ExpectText("Amherst College"),
		runner.Screenshot{Path: "02_my_schools_with_school.png"},

		runner.ClickRole("link", "Amherst College"),

		runner.SelectOption{Target: checklistSelect(0), Value: Completed},
		runner.ExpectText("50% Complete"),
		runner.Screenshot{Path: "03_school_detail_50_percent.png"},

		runner.SelectOption{Target: checklistSelect(1), Value: Completed},
		runner.ExpectText("100% Complete"),
		runner.Screenshot{Path: "04_school_detail_100_percent.png"},

		runner.Reload{},
		runner.ExpectText("100% Complete"),

		runner.ClickRole("link", "Questrack"),
		runner.ExpectText("100%"),
		runner.Screenshot{Path: "05_dashboard_progress_100.png"},
	)
	return runner.MustScenario("local-storage", LocalStorageURL, steps...)
}

// LoginPage checks that the login page renders.
func LoginPage() *runner.Scenario {
	return runner.MustScenario("login-page", LoginURL,
		runner.Navigate{URL: "/"},
		runner.ExpectText("Log in to your account"),
		runner.Screenshot{Path: "verification.png"},
	)
}

// All returns the built-in scenarios in a stable order.
func All() []*runner.Scenario {
	return []*runner.Scenario{FullData(), LocalStorage(), LoginPage()}
}

// WithBaseURL rebinds every scenario to baseURL.
func WithBaseURL(scenarios []*runner.Scenario, baseURL string) ([]*runner.Scenario, error) {
	out := make([]*runner.Scenario, 0, len(scenarios))
	for _, sc := range scenarios {
		rebound, err := sc.WithBaseURL(baseURL)
		if err != nil {
			return nil, fmt.Errorf("rebinding %s: %w", sc.Name(), err)
		}
		out = append(out, rebound)
	}
	return out, nil
}
