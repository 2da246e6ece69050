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
	"errors"
	"fmt"
	"iter"
	"maps"
	"slices"
	"strings"
	"sync"
)

// fakePage is an in-memory page. Elements are keyed by the String() of the
// locator that finds them.
type fakePage struct {
	mu sync.Mutex

	visible   map[string]bool
	ambiguous map[string]int
	onClick   map[string]func(p *fakePage)
	onSelect  map[string]func(p *fakePage, value string)
	// onReload rebuilds the visible set from persisted state.
	onReload func(p *fakePage)

	unreachable    bool
	failScreenshot bool

	calls   []string
	closed  bool
	console ConsoleLog
}

func newFakePage() *fakePage {
	return &fakePage{
		visible:   make(map[string]bool),
		ambiguous: make(map[string]int),
		onClick:   make(map[string]func(p *fakePage)),
		onSelect:  make(map[string]func(p *fakePage, value string)),
	}
}

func (p *fakePage) show(locs ...Locator) {
	for _, l := range locs {
		p.visible[l.String()] = true
	}
}

func (p *fakePage) hide(locs ...Locator) {
	for _, l := range locs {
		delete(p.visible, l.String())
	}
}

func (p *fakePage) record(format string, args ...any) {
	p.calls = append(p.calls, fmt.Sprintf(format, args...))
}

func (p *fakePage) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.calls)
}

// fakeBrowser hands out sessions over the same fakePage.
type fakeBrowser struct {
	page    *fakePage
	openErr error
	opened  int
}

func (b *fakeBrowser) NewSession(ctx context.Context) (Session, error) {
	if b.openErr != nil {
		return nil, b.openErr
	}
	b.opened++
	return &fakeSession{p: b.page}, nil
}

type fakeSession struct {
	p *fakePage
}

// wait blocks until ctx expires, like a driver polling for an element that
// never shows up.
func wait(ctx context.Context) {
	<-ctx.Done()
}

func (s *fakeSession) Navigate(ctx context.Context, url string) error {
	s.p.mu.Lock()
	s.p.record("navigate %s", url)
	unreachable := s.p.unreachable
	s.p.mu.Unlock()
	if unreachable {
		wait(ctx)
		return ctx.Err()
	}
	return nil
}

func (s *fakeSession) find(ctx context.Context, loc Locator, unique bool) error {
	key := loc.String()
	s.p.mu.Lock()
	n := s.p.ambiguous[key]
	ok := s.p.visible[key]
	s.p.mu.Unlock()
	if unique && n > 1 && !loc.Indexed {
		return &AmbiguousLocatorError{Locator: loc, Count: n}
	}
	if ok || n > 0 {
		return nil
	}
	wait(ctx)
	return &LocatorNotFoundError{Locator: loc}
}

func (s *fakeSession) Click(ctx context.Context, loc Locator) error {
	s.p.mu.Lock()
	s.p.record("click %s", loc)
	s.p.mu.Unlock()
	if err := s.find(ctx, loc, true); err != nil {
		return err
	}
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	if f := s.p.onClick[loc.String()]; f != nil {
		f(s.p)
	}
	return nil
}

func (s *fakeSession) Select(ctx context.Context, loc Locator, value string) error {
	s.p.mu.Lock()
	s.p.record("select %s %s", loc, value)
	s.p.mu.Unlock()
	if err := s.find(ctx, loc, true); err != nil {
		return err
	}
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	if f := s.p.onSelect[loc.String()]; f != nil {
		f(s.p, value)
	}
	return nil
}

func (s *fakeSession) WaitVisible(ctx context.Context, loc Locator) error {
	s.p.mu.Lock()
	s.p.record("assert %s", loc)
	s.p.mu.Unlock()
	return s.find(ctx, loc, false)
}

func (s *fakeSession) Reload(ctx context.Context) error {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	s.p.record("reload")
	clear(s.p.visible)
	if s.p.onReload != nil {
		s.p.onReload(s.p)
	}
	return nil
}

func (s *fakeSession) Screenshot(ctx context.Context) ([]byte, error) {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	s.p.record("screenshot")
	if s.p.failScreenshot {
		return nil, errors.New("capture failed")
	}
	return []byte("\x89PNG fake"), nil
}

func (s *fakeSession) PageText(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	return strings.Join(slices.Sorted(maps.Keys(s.p.visible)), "\n"), nil
}

func (s *fakeSession) Console() iter.Seq[string] {
	return s.p.console.Lines()
}

func (s *fakeSession) Close() error {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	s.p.closed = true
	return nil
}

// checklistApp models a school page whose progress text follows the
// statuses of n dropdowns. Statuses survive reloads, like local storage.
type checklistApp struct {
	statuses []string
}

func installChecklist(p *fakePage, n int) *checklistApp {
	app := &checklistApp{statuses: make([]string, n)}
	for i := range n {
		p.onSelect[CSS("select").At(i).String()] = func(p *fakePage, value string) {
			app.statuses[i] = value
			app.render(p)
		}
	}
	p.onReload = app.render
	app.render(p)
	return app
}

func (a *checklistApp) render(p *fakePage) {
	for pct := 0; pct <= 100; pct++ {
		p.hide(Text(fmt.Sprintf("%d%% Complete", pct)))
	}
	done := 0
	for i, s := range a.statuses {
		p.show(CSS("select").At(i))
		if s == "Completed" {
			done++
		}
	}
	pct := (done*100 + len(a.statuses)/2) / len(a.statuses)
	p.show(Text(fmt.Sprintf("%d%% Complete", pct)))
}
