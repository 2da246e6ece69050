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

package questrack

import (
	"context"
	"fmt"
	"iter"
	"math"
	"strings"

	"github.com/ttbt-io/questcheck/runner"
)

// element is one rendered node of the fake app.
type element struct {
	tag  string
	role string
	text string
	on   func()
}

// fakeApp is an in-memory model of the Questrack single page app. Its
// checklist state survives reloads, like localStorage does.
type fakeApp struct {
	baseURL string
	items   []string
	login   bool

	view      string
	modalOpen bool
	picked    bool
	added     bool
	statuses  []string
	opened    int
}

func newFakeApp(baseURL string, items int) *fakeApp {
	all := []string{
		"Supplemental Essay (Option A)",
		"Recommendation Letter",
		"Supplemental Essay (Option B)",
		"Arts Supplement",
		"Interview",
	}
	return &fakeApp{
		baseURL:  baseURL,
		items:    all[:items],
		statuses: make([]string, items),
	}
}

func (a *fakeApp) NewSession(context.Context) (runner.Session, error) {
	a.opened++
	return &fakeSession{app: a}, nil
}

func (a *fakeApp) progress() int {
	done := 0
	for _, s := range a.statuses {
		if s == Completed {
			done++
		}
	}
	return int(math.Round(float64(done) * 100 / float64(len(a.items))))
}

func (a *fakeApp) render() []element {
	if a.view == "" {
		return nil
	}
	if a.login {
		return []element{
			{tag: "h1", text: "Log in to your account"},
			{tag: "button", role: "button", text: "Sign in"},
		}
	}
	els := []element{
		{tag: "a", role: "link", text: "Questrack", on: func() { a.view = "dashboard" }},
		{tag: "a", role: "link", text: "My Schools", on: func() { a.view = "my-schools" }},
	}
	switch a.view {
	case "dashboard":
		els = append(els, element{tag: "h1", text: "Welcome to Questrack!"})
		if a.added {
			els = append(els, element{tag: "span", text: fmt.Sprintf("%d%%", a.progress())})
		}
	case "my-schools":
		els = append(els, element{tag: "button", role: "button", text: "Add School", on: func() { a.modalOpen = true }})
		if a.added {
			els = append(els,
				element{tag: "h2", text: "Amherst College"},
				element{tag: "a", role: "link", text: "Amherst College", on: func() { a.view = "detail" }},
				element{tag: "p", text: "Amherst, MA"},
				element{tag: "p", text: "Amherst College is a premier liberal arts college in Massachusetts."},
			)
		}
		if a.modalOpen {
			els = append(els,
				element{tag: "div", text: "Amherst College", on: func() { a.picked = true }},
				element{tag: "button", role: "button", text: "Add", on: func() {
					if a.picked {
						a.added = true
						a.modalOpen = false
					}
				}},
			)
		}
	case "detail":
		els = append(els,
			element{tag: "h1", text: "Amherst College"},
			element{tag: "p", text: "Founded in 1821, Amherst College is widely considered one of the best."},
		)
		for _, item := range a.items {
			els = append(els, element{tag: "li", text: item})
		}
		for i := range a.items {
			els = append(els, element{tag: "select", on: func() { a.statuses[i] = Completed }})
		}
		els = append(els,
			element{tag: "p", text: "Option A, Prompt 1"},
			element{tag: "div", text: fmt.Sprintf("%d%% Complete", a.progress())},
		)
	}
	return els
}

func matches(loc runner.Locator, e element) bool {
	textMatch := func(want, got string) bool {
		if loc.Exact {
			return want == got
		}
		return strings.Contains(strings.ToLower(got), strings.ToLower(want))
	}
	switch loc.Kind {
	case runner.KindRole:
		return e.role == loc.Role && textMatch(loc.Name, e.text)
	case runner.KindText:
		return e.tag != "select" && textMatch(loc.Text, e.text)
	case runner.KindCSS:
		return e.tag == loc.Selector && (loc.HasText == "" || strings.Contains(e.text, loc.HasText))
	}
	return false
}

type fakeSession struct {
	app *fakeApp
}

func (s *fakeSession) find(loc runner.Locator, unique bool) (element, error) {
	var found []element
	for _, e := range s.app.render() {
		if matches(loc, e) {
			found = append(found, e)
		}
	}
	switch {
	case len(found) == 0:
		return element{}, &runner.LocatorNotFoundError{Locator: loc}
	case loc.Indexed:
		if loc.Nth >= len(found) {
			return element{}, &runner.LocatorNotFoundError{Locator: loc, Detail: fmt.Sprintf("only %d matches", len(found))}
		}
		return found[loc.Nth], nil
	case unique && len(found) > 1:
		return element{}, &runner.AmbiguousLocatorError{Locator: loc, Count: len(found)}
	}
	return found[0], nil
}

func (s *fakeSession) Navigate(_ context.Context, url string) error {
	if !strings.HasPrefix(url, s.app.baseURL) {
		return fmt.Errorf("net::ERR_CONNECTION_REFUSED at %s", url)
	}
	s.app.view = "dashboard"
	return nil
}

func (s *fakeSession) Click(_ context.Context, loc runner.Locator) error {
	e, err := s.find(loc, true)
	if err != nil {
		return err
	}
	if e.on != nil {
		e.on()
	}
	return nil
}

func (s *fakeSession) Select(_ context.Context, loc runner.Locator, value string) error {
	e, err := s.find(loc, true)
	if err != nil {
		return err
	}
	if value == Completed && e.on != nil {
		e.on()
	}
	return nil
}

func (s *fakeSession) WaitVisible(_ context.Context, loc runner.Locator) error {
	_, err := s.find(loc, false)
	return err
}

func (s *fakeSession) Reload(context.Context) error {
	s.app.modalOpen = false
	s.app.picked = false
	return nil
}

func (s *fakeSession) Screenshot(context.Context) ([]byte, error) {
	return []byte("\x89PNG"), nil
}

func (s *fakeSession) PageText(context.Context) (string, error) {
	var lines []string
	for _, e := range s.app.render() {
		if e.text != "" {
			lines = append(lines, e.text)
		}
	}
	return strings.Join(lines, "\n"), nil
}

func (s *fakeSession) Console() iter.Seq[string] {
	return func(func(string) bool) {}
}

func (s *fakeSession) Close() error { return nil }
